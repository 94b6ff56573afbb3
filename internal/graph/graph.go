package graph

import (
	"fmt"
	"sync"
)

// Graph tracks the declared dependencies between named providers.
// It provides cycle detection, topological ordering, and per-request
// resolution ordering.
//
// Nodes remember the order in which they were added. Every ordering
// question is answered deterministically: when two nodes could legally
// come first, the one added earlier wins.
type Graph struct {
	mu    sync.RWMutex
	nodes map[string]*Node
	added []string // names in the order Add was called

	next int // next insertion index

	// Cache for performance
	sorted      []*Node
	sortedDirty bool
}

// Node represents a named provider in the dependency graph.
type Node struct {
	Name string

	// Index is the insertion order of the node. Placeholder nodes that
	// exist only because another node depends on them have Index -1
	// until they are added themselves.
	Index int

	// Graph metadata
	InDegree  int // number of dependents
	OutDegree int // number of dependencies
	Depth     int // depth in the dependency tree

	// Dependency information
	Dependencies []string // names this node depends on
	Dependents   []string // names that depend on this node
}

// Placeholder reports whether the node was created as a dependency
// target and never added itself.
func (n *Node) Placeholder() bool {
	return n.Index < 0
}

// New creates an empty dependency graph.
func New() *Graph {
	return &Graph{
		nodes:       make(map[string]*Node),
		sortedDirty: true,
	}
}

// Add inserts a named node with its declared dependencies.
// Dependencies on names that have not been added yet are allowed; they
// create placeholder nodes that must be added before the graph is used
// for ordering. Adding a node that would close a dependency cycle fails
// with CircularDependencyError and leaves the graph unchanged.
func (g *Graph) Add(name string, deps ...string) error {
	if name == "" {
		return fmt.Errorf("node name cannot be empty")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	node, exists := g.nodes[name]
	if exists && !node.Placeholder() {
		return fmt.Errorf("node %q already added", name)
	}
	if !exists {
		node = &Node{Name: name, Index: -1}
		g.nodes[name] = node
	}

	node.Index = g.next
	node.Dependencies = make([]string, len(deps))
	copy(node.Dependencies, deps)

	for _, dep := range deps {
		if _, ok := g.nodes[dep]; !ok {
			g.nodes[dep] = &Node{Name: dep, Index: -1}
		}
	}

	g.next++
	g.added = append(g.added, name)
	g.updateDegrees()
	g.sortedDirty = true

	if cycle := g.findCyclePath(name); cycle != nil {
		// Roll the insertion back so a failed Add has no effect.
		g.next--
		g.added = g.added[:len(g.added)-1]
		if exists {
			node.Index = -1
			node.Dependencies = nil
		} else {
			delete(g.nodes, name)
		}
		g.updateDegrees()
		return &CircularDependencyError{Node: name, Path: cycle}
	}

	return nil
}

// Has reports whether a non-placeholder node with the given name exists.
func (g *Graph) Has(name string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	node, ok := g.nodes[name]
	return ok && !node.Placeholder()
}

// Node returns the node for a given name, or nil.
func (g *Graph) Node(name string) *Node {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.nodes[name]
}

// Names returns all added node names in insertion order.
func (g *Graph) Names() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	names := make([]string, len(g.added))
	copy(names, g.added)
	return names
}

// Placeholders returns the names that are depended upon but were never
// added, in a deterministic order.
func (g *Graph) Placeholders() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var missing []string
	for _, name := range g.added {
		for _, dep := range g.nodes[name].Dependencies {
			if g.nodes[dep].Placeholder() && !contains(missing, dep) {
				missing = append(missing, dep)
			}
		}
	}
	return missing
}

// Dependencies returns the direct dependencies of a node.
func (g *Graph) Dependencies(name string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if node, ok := g.nodes[name]; ok {
		result := make([]string, len(node.Dependencies))
		copy(result, node.Dependencies)
		return result
	}
	return nil
}

// Dependents returns the nodes that depend on the given node directly.
func (g *Graph) Dependents(name string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if node, ok := g.nodes[name]; ok {
		result := make([]string, len(node.Dependents))
		copy(result, node.Dependents)
		return result
	}
	return nil
}

// TransitiveDependencies returns all dependencies of a node, direct and
// indirect, in discovery order.
func (g *Graph) TransitiveDependencies(name string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	visited := make(map[string]bool)
	result := make([]string, 0)

	var collect func(current string)
	collect = func(current string) {
		node, ok := g.nodes[current]
		if !ok {
			return
		}
		for _, dep := range node.Dependencies {
			if !visited[dep] {
				visited[dep] = true
				result = append(result, dep)
				collect(dep)
			}
		}
	}

	collect(name)
	return result
}

// ResolutionOrder returns the requested nodes plus everything they
// transitively depend on, ordered so that every dependency comes before
// its dependents. Ties are broken by insertion order. Unknown names and
// cycles fail the whole call; nothing is partially ordered.
func (g *Graph) ResolutionOrder(requested ...string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	// Collect the closure of the requested set.
	closure := make(map[string]bool)
	var expand func(name string) error
	expand = func(name string) error {
		if closure[name] {
			return nil
		}
		node, ok := g.nodes[name]
		if !ok || node.Placeholder() {
			return fmt.Errorf("node %q is not in the graph", name)
		}
		closure[name] = true
		for _, dep := range node.Dependencies {
			if err := expand(dep); err != nil {
				return err
			}
		}
		return nil
	}
	for _, name := range requested {
		if err := expand(name); err != nil {
			return nil, err
		}
	}

	// Kahn's algorithm restricted to the closure. Among the nodes whose
	// dependencies are all satisfied, the earliest-added one goes next.
	pending := make(map[string]int, len(closure))
	for name := range closure {
		pending[name] = len(g.nodes[name].Dependencies)
	}

	result := make([]string, 0, len(closure))
	for len(result) < len(closure) {
		best := ""
		bestIndex := -1
		for name, remaining := range pending {
			if remaining != 0 {
				continue
			}
			if index := g.nodes[name].Index; bestIndex < 0 || index < bestIndex {
				best, bestIndex = name, index
			}
		}
		if bestIndex < 0 {
			// No ready node remains, so the leftovers form a cycle.
			first := ""
			for name := range pending {
				if first == "" || g.nodes[name].Index < g.nodes[first].Index {
					first = name
				}
			}
			return nil, &CircularDependencyError{Node: first, Path: g.findCyclePath(first)}
		}

		result = append(result, best)
		delete(pending, best)
		for _, dependent := range g.nodes[best].Dependents {
			if _, ok := pending[dependent]; ok {
				pending[dependent]--
			}
		}
	}

	return result, nil
}

// TopologicalSort returns all nodes in dependency order, dependencies
// first, ties broken by insertion order. The result is cached until the
// graph changes.
func (g *Graph) TopologicalSort() ([]*Node, error) {
	g.mu.RLock()
	if !g.sortedDirty && g.sorted != nil {
		result := make([]*Node, len(g.sorted))
		copy(result, g.sorted)
		g.mu.RUnlock()
		return result, nil
	}
	g.mu.RUnlock()

	g.mu.Lock()
	defer g.mu.Unlock()

	pending := make(map[string]int, len(g.nodes))
	for name, node := range g.nodes {
		pending[name] = len(node.Dependencies)
	}

	result := make([]*Node, 0, len(g.nodes))
	for len(result) < len(g.nodes) {
		var best *Node
		for name, remaining := range pending {
			if remaining != 0 {
				continue
			}
			node := g.nodes[name]
			if best == nil || less(node, best) {
				best = node
			}
		}
		if best == nil {
			first := ""
			for name := range pending {
				if first == "" || less(g.nodes[name], g.nodes[first]) {
					first = name
				}
			}
			return nil, &CircularDependencyError{Node: first, Path: g.findCyclePath(first)}
		}

		result = append(result, best)
		delete(pending, best.Name)
		for _, dependent := range best.Dependents {
			if _, ok := pending[dependent]; ok {
				pending[dependent]--
			}
		}
	}

	g.sorted = result
	g.sortedDirty = false

	resultCopy := make([]*Node, len(result))
	copy(resultCopy, result)
	return resultCopy, nil
}

// DetectCycles checks whether the graph contains any dependency cycle.
func (g *Graph) DetectCycles() error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, name := range g.added {
		if cycle := g.findCyclePath(name); cycle != nil {
			return &CircularDependencyError{Node: name, Path: cycle}
		}
	}
	return nil
}

// IsAcyclic returns true if the graph has no cycles.
func (g *Graph) IsAcyclic() bool {
	return g.DetectCycles() == nil
}

// Roots returns all nodes that nothing depends on, in insertion order.
func (g *Graph) Roots() []*Node {
	g.mu.RLock()
	defer g.mu.RUnlock()

	roots := make([]*Node, 0)
	for _, name := range g.added {
		if node := g.nodes[name]; node.InDegree == 0 {
			roots = append(roots, node)
		}
	}
	return roots
}

// Leaves returns all nodes with no dependencies, in insertion order.
func (g *Graph) Leaves() []*Node {
	g.mu.RLock()
	defer g.mu.RUnlock()

	leaves := make([]*Node, 0)
	for _, name := range g.added {
		if node := g.nodes[name]; node.OutDegree == 0 {
			leaves = append(leaves, node)
		}
	}
	return leaves
}

// CalculateDepths assigns a depth to every node: leaves sit at depth 0
// and each dependent sits one past its deepest dependency.
func (g *Graph) CalculateDepths() {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, node := range g.nodes {
		node.Depth = -1
	}

	queue := make([]*Node, 0)
	for _, name := range g.added {
		if node := g.nodes[name]; len(node.Dependencies) == 0 {
			node.Depth = 0
			queue = append(queue, node)
		}
	}
	for _, node := range g.nodes {
		if node.Placeholder() {
			node.Depth = 0
			queue = append(queue, node)
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, name := range current.Dependents {
			dependent, ok := g.nodes[name]
			if !ok {
				continue
			}
			if newDepth := current.Depth + 1; dependent.Depth < newDepth {
				dependent.Depth = newDepth
				queue = append(queue, dependent)
			}
		}
	}
}

// Size returns the number of nodes in the graph, placeholders included.
func (g *Graph) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.nodes)
}

// Clear removes all nodes and edges from the graph.
func (g *Graph) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.nodes = make(map[string]*Node)
	g.added = nil
	g.next = 0
	g.sorted = nil
	g.sortedDirty = true
}

// updateDegrees recalculates degrees and dependent lists for all nodes.
// Dependent lists are rebuilt in insertion order so traversals stay
// deterministic.
func (g *Graph) updateDegrees() {
	for _, node := range g.nodes {
		node.InDegree = 0
		node.OutDegree = 0
		node.Dependents = node.Dependents[:0]
	}

	for _, name := range g.added {
		node := g.nodes[name]
		node.OutDegree = len(node.Dependencies)
		for _, dep := range node.Dependencies {
			if target, ok := g.nodes[dep]; ok {
				target.InDegree++
				target.Dependents = append(target.Dependents, name)
			}
		}
	}
}

// findCyclePath walks the dependency edges from start and returns the
// first cycle it runs into, or nil. Edges are followed in declared
// order, so the reported path is stable. Callers must hold the lock.
func (g *Graph) findCyclePath(start string) []string {
	onPath := make(map[string]int)
	visited := make(map[string]bool)
	path := make([]string, 0, 8)

	var walk func(name string) []string
	walk = func(name string) []string {
		if at, ok := onPath[name]; ok {
			cycle := make([]string, len(path)-at)
			copy(cycle, path[at:])
			return cycle
		}
		if visited[name] {
			return nil
		}

		node, ok := g.nodes[name]
		if !ok {
			return nil
		}

		onPath[name] = len(path)
		path = append(path, name)
		for _, dep := range node.Dependencies {
			if cycle := walk(dep); cycle != nil {
				return cycle
			}
		}
		delete(onPath, name)
		path = path[:len(path)-1]
		visited[name] = true
		return nil
	}

	return walk(start)
}

func less(a, b *Node) bool {
	if a.Placeholder() != b.Placeholder() {
		return b.Placeholder()
	}
	if a.Index != b.Index {
		return a.Index < b.Index
	}
	return a.Name < b.Name
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// String returns a string representation of the node.
func (n *Node) String() string {
	return fmt.Sprintf("Node{%s, in:%d, out:%d, depth:%d}",
		n.Name, n.InDegree, n.OutDegree, n.Depth)
}
