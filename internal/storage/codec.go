package storage

import (
	"encoding/json"
	"errors"

	"rewire/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// Versioned returns the record header written by this build.
func Versioned() model.VersionedRecord {
	return model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
}

func EncodeRunSummary(r model.RunSummary) ([]byte, error) {
	return json.Marshal(r)
}

func DecodeRunSummary(data []byte) (model.RunSummary, error) {
	var run model.RunSummary
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunSummary{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return model.RunSummary{}, err
	}
	return run, nil
}

func EncodeReplicaHistory(h model.ReplicaHistory) ([]byte, error) {
	return json.Marshal(h)
}

func DecodeReplicaHistory(data []byte) (model.ReplicaHistory, error) {
	var history model.ReplicaHistory
	if err := json.Unmarshal(data, &history); err != nil {
		return model.ReplicaHistory{}, err
	}
	if err := checkVersion(history.VersionedRecord); err != nil {
		return model.ReplicaHistory{}, err
	}
	if err := checkVersion(history.Best.VersionedRecord); err != nil {
		return model.ReplicaHistory{}, err
	}
	return history, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
