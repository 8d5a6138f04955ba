package dag

import (
	"fmt"
)

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*node),
	}
}

// AddNode adds a new node with the given ID to the graph. If a node with
// the same ID already exists, the function does nothing.
func (g *Graph) AddNode(id string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, ok := g.nodes[id]; ok {
		return
	}

	g.nodes[id] = &node{
		id:         id,
		deps:       make(map[string]*node),
		dependents: make(map[string]*node),
	}
	g.order = append(g.order, id)
}

// AddEdge creates a directed edge from the `fromID` node to the `toID` node.
// This signifies that `toID` has a dependency on `fromID`. An error is returned
// if either node does not exist or if the edge would create a self-reference.
func (g *Graph) AddEdge(fromID, toID string) error {
	if fromID == toID {
		return fmt.Errorf("self-referential edge not allowed: %s -> %s", fromID, fromID)
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	fromNode, ok := g.nodes[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}

	toNode, ok := g.nodes[toID]
	if !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}

	toNode.deps[fromID] = fromNode
	fromNode.dependents[toID] = toNode

	return nil
}

// RemoveNode deletes a node and every edge touching it. Removing an unknown
// node is a no-op.
func (g *Graph) RemoveNode(id string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	n, ok := g.nodes[id]
	if !ok {
		return
	}
	for depID, dep := range n.deps {
		delete(dep.dependents, id)
		delete(n.deps, depID)
	}
	for childID, child := range n.dependents {
		delete(child.deps, id)
		delete(n.dependents, childID)
	}
	delete(g.nodes, id)
	for i, existing := range g.order {
		if existing == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
}

// Nodes returns every node ID in insertion order.
func (g *Graph) Nodes() []string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return len(g.nodes)
}

// Has reports whether a node with the given ID exists.
func (g *Graph) Has(id string) bool {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	_, ok := g.nodes[id]
	return ok
}

// Dependencies returns the IDs of the nodes the given node depends on, in
// insertion order.
func (g *Graph) Dependencies(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return g.ordered(n.deps), nil
}

// Dependents returns the IDs of the nodes depending on the given node, in
// insertion order.
func (g *Graph) Dependents(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return g.ordered(n.dependents), nil
}

// Sources returns the nodes with no incoming edge.
func (g *Graph) Sources() []string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	var out []string
	for _, id := range g.order {
		if len(g.nodes[id].deps) == 0 {
			out = append(out, id)
		}
	}
	return out
}

// Sinks returns the nodes with no outgoing edge.
func (g *Graph) Sinks() []string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	var out []string
	for _, id := range g.order {
		if len(g.nodes[id].dependents) == 0 {
			out = append(out, id)
		}
	}
	return out
}

// DetectCycles checks the graph for any cycles. It returns a non-nil error
// if a cycle is found, indicating the first node involved in the detected cycle.
func (g *Graph) DetectCycles() error {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	// permanent: fully visited, not part of a cycle.
	// temporary: on the current recursion stack.
	permanent := make(map[string]bool)
	temporary := make(map[string]bool)

	var visit func(n *node) error
	visit = func(n *node) error {
		if permanent[n.id] {
			return nil
		}
		if temporary[n.id] {
			return fmt.Errorf("cycle detected involving node '%s'", n.id)
		}

		temporary[n.id] = true
		for _, childID := range g.ordered(n.dependents) {
			if err := visit(g.nodes[childID]); err != nil {
				return err
			}
		}
		delete(temporary, n.id)
		permanent[n.id] = true

		return nil
	}

	for _, id := range g.order {
		if !permanent[id] {
			if err := visit(g.nodes[id]); err != nil {
				return err
			}
		}
	}

	return nil
}

// Generations groups nodes into topological generations: the first holds
// every source, and each following one holds the nodes whose predecessors
// all sit in earlier generations. Within a generation, nodes keep insertion
// order. An error is returned if the graph contains a cycle.
func (g *Graph) Generations() ([][]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	indegree := make(map[string]int, len(g.nodes))
	var current []string
	for _, id := range g.order {
		indegree[id] = len(g.nodes[id].deps)
		if indegree[id] == 0 {
			current = append(current, id)
		}
	}

	var generations [][]string
	placed := 0
	for len(current) > 0 {
		generations = append(generations, current)
		placed += len(current)

		ready := make(map[string]bool)
		for _, id := range current {
			for childID := range g.nodes[id].dependents {
				indegree[childID]--
				if indegree[childID] == 0 {
					ready[childID] = true
				}
			}
		}
		var next []string
		for _, id := range g.order {
			if ready[id] {
				next = append(next, id)
			}
		}
		current = next
	}

	if placed != len(g.nodes) {
		return nil, fmt.Errorf("graph contains a cycle: %d of %d nodes could not be ordered", len(g.nodes)-placed, len(g.nodes))
	}
	return generations, nil
}

// IsWeaklyConnected reports whether every node can reach every other node when
// edge direction is ignored. An empty graph is not connected.
func (g *Graph) IsWeaklyConnected() bool {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	if len(g.order) == 0 {
		return false
	}

	seen := map[string]bool{g.order[0]: true}
	stack := []string{g.order[0]}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := g.nodes[id]
		for _, neighbours := range []map[string]*node{n.deps, n.dependents} {
			for nid := range neighbours {
				if !seen[nid] {
					seen[nid] = true
					stack = append(stack, nid)
				}
			}
		}
	}
	return len(seen) == len(g.nodes)
}

// Layout places every node on a grid: the generation index becomes X, and
// the members of each generation are spread evenly along Y. The grid height
// is the least common multiple of (generation size + 1) over all generations,
// so every Y is an integer and columns of different sizes stay aligned.
func (g *Graph) Layout() (map[string]Position, error) {
	generations, err := g.Generations()
	if err != nil {
		return nil, err
	}

	width := 1
	for _, gen := range generations {
		width = lcm(width, len(gen)+1)
	}

	positions := make(map[string]Position, g.Len())
	for x, gen := range generations {
		step := width / (len(gen) + 1)
		for i, id := range gen {
			positions[id] = Position{X: float64(x), Y: float64((i + 1) * step)}
		}
	}
	return positions, nil
}

// ordered returns the keys of set following graph insertion order. The caller
// must hold the mutex.
func (g *Graph) ordered(set map[string]*node) []string {
	out := make([]string, 0, len(set))
	for _, id := range g.order {
		if _, ok := set[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcm(a, b int) int {
	return a / gcd(a, b) * b
}
