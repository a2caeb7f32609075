package substrate

import "fmt"

// Neighborhood flood-fills distance rounds from anchors: each round adds every
// node adjacent to the current frontier. Distance 0 yields the anchors alone.
func Neighborhood(g *Graph, anchors NodeSet, distance int) NodeSet {
	if distance < 0 {
		panic(fmt.Sprintf("substrate: negative distance %d", distance))
	}
	frontier := make(NodeSet, len(anchors))
	for n := range anchors {
		if !g.Contains(n) {
			panic(fmt.Sprintf("substrate: anchor %d outside graph range [0, %d)", n, g.Len()))
		}
		frontier[n] = struct{}{}
	}
	for round := 0; round < distance; round++ {
		next := make(NodeSet, len(frontier))
		for n := range frontier {
			next[n] = struct{}{}
			for _, adj := range g.Neighbors(n) {
				next[adj] = struct{}{}
			}
		}
		if len(next) == len(frontier) {
			break
		}
		frontier = next
	}
	return frontier
}

// LegalNodes returns the nodes farther than distance hops from every anchor,
// i.e. the pool new sensor attachments may be drawn from. With negate set the
// excluded neighborhood itself is returned instead. An empty result is valid;
// callers decide whether it is fatal.
func LegalNodes(g *Graph, anchors NodeSet, distance int, negate bool) NodeSet {
	near := Neighborhood(g, anchors, distance)
	if negate {
		return near
	}
	legal := make(NodeSet, g.Len()-len(near))
	for i := 0; i < g.Len(); i++ {
		if !near.Has(LocalNode(i)) {
			legal[LocalNode(i)] = struct{}{}
		}
	}
	return legal
}
