package storage

import (
	"context"
	"errors"
	"fmt"
)

const (
	MemoryStoreKind = "memory"
	SQLiteStoreKind = "sqlite"
)

var ErrUnsupportedBackend = errors.New("unsupported store backend")

func NewStore(kind, sqlitePath string) (Store, error) {
	switch kind {
	case "", MemoryStoreKind:
		return NewMemoryStore(), nil
	case SQLiteStoreKind:
		return newSQLiteStore(sqlitePath)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedBackend, kind)
	}
}

// Open builds and initializes a store.
func Open(ctx context.Context, kind, sqlitePath string) (Store, error) {
	store, err := NewStore(kind, sqlitePath)
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		_ = CloseIfSupported(store)
		return nil, fmt.Errorf("init %s store: %w", kind, err)
	}
	return store, nil
}

func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
