package sap

import (
	"slices"
)

// reaches reports whether to is reachable from from along outbound edges.
func (e *Engine) reaches(from, to PropertyID) bool {
	seen := map[PropertyID]bool{from: true}
	stack := []PropertyID{from}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		ent := e.slots.get(cur)
		if ent == nil {
			continue
		}
		for _, out := range ent.outbound {
			if out == to {
				return true
			}
			if !seen[out] {
				seen[out] = true
				stack = append(stack, out)
			}
		}
	}
	return false
}

// reachable collects start and everything reachable from it via outbound edges.
func (e *Engine) reachable(start *entry) map[PropertyID]*entry {
	set := map[PropertyID]*entry{start.id: start}
	queue := []*entry{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, out := range cur.outbound {
			if _, ok := set[out]; ok {
				continue
			}
			if dst := e.slots.get(out); dst != nil {
				set[out] = dst
				queue = append(queue, dst)
			}
		}
	}
	return set
}

// kahn orders the given subgraph with Kahn's algorithm, counting only edges
// whose both ends are in the subgraph. Ready entries are released in id order
// so the result is deterministic.
func kahn(e *Engine, nodes map[PropertyID]*entry) ([]PropertyID, error) {
	indeg := make(map[PropertyID]int, len(nodes))
	for id, ent := range nodes {
		if _, ok := indeg[id]; !ok {
			indeg[id] = 0
		}
		for _, out := range ent.outbound {
			if _, ok := nodes[out]; ok {
				indeg[out]++
			}
		}
	}

	var ready []PropertyID
	for id, d := range indeg {
		if d == 0 {
			ready = append(ready, id)
		}
	}
	byID := func(a, b PropertyID) int {
		if a.less(b) {
			return -1
		}
		if b.less(a) {
			return 1
		}
		return 0
	}
	slices.SortFunc(ready, byID)

	sorted := make([]PropertyID, 0, len(nodes))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		sorted = append(sorted, id)
		var released []PropertyID
		for _, out := range nodes[id].outbound {
			if _, ok := nodes[out]; !ok {
				continue
			}
			indeg[out]--
			if indeg[out] == 0 {
				released = append(released, out)
			}
		}
		if len(released) > 0 {
			ready = append(ready, released...)
			slices.SortFunc(ready, byID)
		}
	}

	if len(sorted) != len(nodes) {
		return sorted, opError("toposort", PropertyID{}, ErrCycle, "subgraph is not acyclic")
	}
	return sorted, nil
}

// TopologicalOrder returns start followed by every entry reachable from it
// through outbound edges, ordered so that each entry precedes its
// dependents. It is a diagnostic utility; reads and writes never use it.
func (e *Engine) TopologicalOrder(start PropertyID) ([]PropertyID, error) {
	ent, err := e.lookup("toposort", start)
	if err != nil {
		return nil, err
	}
	return kahn(e, e.reachable(ent))
}

// TopologicalSort orders every live entry so that each precedes its dependents.
func (e *Engine) TopologicalSort() ([]PropertyID, error) {
	nodes := make(map[PropertyID]*entry, e.Len())
	e.slots.each(func(ent *entry) { nodes[ent.id] = ent })
	return kahn(e, nodes)
}

// NodeInfo describes one entry in a graph snapshot.
type NodeInfo struct {
	ID            PropertyID
	Name          string
	Kind          Kind
	Type          string
	Dirty         bool
	Subscriptions int
	Transitioning bool
	Layer         int // longest path from a root; roots are layer 0
}

// Label returns the node's name, or its id when it has none.
func (n NodeInfo) Label() string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID.String()
}

// Edge points from a dependency to its dependent.
type Edge struct {
	From, To PropertyID
}

// GraphSnapshot is a point-in-time copy of the store's topology.
type GraphSnapshot struct {
	Nodes []NodeInfo // topological order
	Edges []Edge
	Time  uint64
}

// MaxLayer returns the deepest layer present, or -1 for an empty snapshot.
func (g GraphSnapshot) MaxLayer() int {
	m := -1
	for _, n := range g.Nodes {
		m = max(m, n.Layer)
	}
	return m
}

// Subscriptions returns the total number of subscriptions in the snapshot.
func (g GraphSnapshot) Subscriptions() int {
	total := 0
	for _, n := range g.Nodes {
		total += n.Subscriptions
	}
	return total
}

// Snapshot captures the store's nodes, layered by topological depth, and its
// dependency edges.
func (e *Engine) Snapshot() (GraphSnapshot, error) {
	order, err := e.TopologicalSort()
	if err != nil {
		return GraphSnapshot{}, err
	}
	layers := make(map[PropertyID]int, len(order))
	snap := GraphSnapshot{Nodes: make([]NodeInfo, 0, len(order)), Time: e.now}
	for _, id := range order {
		ent := e.slots.get(id)
		layer := 0
		for _, dep := range ent.inbound {
			layer = max(layer, layers[dep]+1)
			snap.Edges = append(snap.Edges, Edge{From: dep, To: id})
		}
		layers[id] = layer
		snap.Nodes = append(snap.Nodes, NodeInfo{
			ID:            id,
			Name:          ent.name,
			Kind:          ent.kind,
			Type:          ent.typeName,
			Dirty:         ent.dirty,
			Subscriptions: len(ent.subs),
			Transitioning: ent.transition != nil && !ent.transition.finished(),
			Layer:         layer,
		})
	}
	return snap, nil
}
