package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"rewire/internal/substrate"
)

type legalFlags struct {
	nodes    int
	edges    string
	anchors  string
	distance int
	negate   bool
}

func newLegalCmd() *cobra.Command {
	var flags legalFlags
	cmd := &cobra.Command{
		Use:   "legal",
		Short: "Print the nodes legal for sensors around a set of anchors",
		RunE: func(cmd *cobra.Command, _ []string) error {
			edges, err := parseEdges(flags.edges)
			if err != nil {
				return err
			}
			g, err := substrate.NewGraph(flags.nodes, edges)
			if err != nil {
				return err
			}
			anchors, err := parseNodes(flags.anchors, flags.nodes)
			if err != nil {
				return err
			}
			if flags.distance < 0 {
				return fmt.Errorf("distance must be >= 0")
			}
			legal := substrate.LegalNodes(g, substrate.NewNodeSet(anchors...), flags.distance, flags.negate)
			parts := make([]string, 0, len(legal))
			for _, n := range legal.Sorted() {
				parts = append(parts, strconv.Itoa(int(n)))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[%s]\n", strings.Join(parts, " "))
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&flags.nodes, "nodes", 0, "number of nodes")
	f.StringVar(&flags.edges, "edges", "", "comma separated edges, e.g. 0-1,1-2")
	f.StringVar(&flags.anchors, "anchors", "", "comma separated anchor nodes")
	f.IntVar(&flags.distance, "distance", 0, "frontier distance")
	f.BoolVar(&flags.negate, "negate", false, "print the frontier instead of its complement")
	_ = cmd.MarkFlagRequired("nodes")
	return cmd
}

func parseEdges(s string) ([]substrate.Edge, error) {
	var edges []substrate.Edge
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		a, b, ok := strings.Cut(item, "-")
		if !ok {
			return nil, fmt.Errorf("invalid edge %q", item)
		}
		x, err := strconv.Atoi(strings.TrimSpace(a))
		if err != nil {
			return nil, fmt.Errorf("invalid edge %q: %w", item, err)
		}
		y, err := strconv.Atoi(strings.TrimSpace(b))
		if err != nil {
			return nil, fmt.Errorf("invalid edge %q: %w", item, err)
		}
		edges = append(edges, substrate.Edge{A: substrate.LocalNode(x), B: substrate.LocalNode(y)})
	}
	return edges, nil
}

func parseNodes(s string, n int) ([]substrate.LocalNode, error) {
	var nodes []substrate.LocalNode
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		v, err := strconv.Atoi(item)
		if err != nil {
			return nil, fmt.Errorf("invalid node %q: %w", item, err)
		}
		if v < 0 || v >= n {
			return nil, fmt.Errorf("node %d outside [0, %d)", v, n)
		}
		nodes = append(nodes, substrate.LocalNode(v))
	}
	return nodes, nil
}
