package graph

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// Visualizer renders a dependency graph for debugging.
//
// Annotate and Color are optional hooks the caller can use to enrich
// nodes with information the graph itself does not carry, such as a
// provider's lifetime.
type Visualizer struct {
	graph *Graph

	// Annotate returns extra label text for a node, or "".
	Annotate func(name string) string

	// Color returns the DOT fill color for a node, or "".
	Color func(name string) string
}

// NewVisualizer creates a new graph visualizer.
func NewVisualizer(graph *Graph) *Visualizer {
	return &Visualizer{graph: graph}
}

// WriteDOT writes the graph in Graphviz DOT format.
func (v *Visualizer) WriteDOT(w io.Writer) error {
	v.graph.mu.RLock()
	defer v.graph.mu.RUnlock()

	fmt.Fprintln(w, "digraph providers {")
	fmt.Fprintln(w, "  rankdir=LR;")
	fmt.Fprintln(w, "  node [shape=box];")

	nodeIDs := make(map[string]string)
	for i, name := range v.allNames() {
		nodeID := fmt.Sprintf("n%d", i)
		nodeIDs[name] = nodeID

		node := v.graph.nodes[name]
		fmt.Fprintf(w, "  %s [label=\"%s\", fillcolor=\"%s\", style=filled];\n",
			nodeID, v.formatLabel(node), v.nodeColor(node))
	}

	for _, name := range v.graph.added {
		fromID := nodeIDs[name]
		for _, dep := range v.graph.nodes[name].Dependencies {
			fmt.Fprintf(w, "  %s -> %s;\n", fromID, nodeIDs[dep])
		}
	}

	fmt.Fprintln(w, "}")
	return nil
}

// WriteText writes a text representation of the graph, grouped by
// dependency depth.
func (v *Visualizer) WriteText(w io.Writer) error {
	fmt.Fprintln(w, "Provider Graph:")
	fmt.Fprintln(w, "===============")
	fmt.Fprintln(w)

	sorted, err := v.graph.TopologicalSort()
	if err != nil {
		fmt.Fprintf(w, "Warning: graph contains cycles - %v\n\n", err)
		sorted = make([]*Node, 0, v.graph.Size())
		for _, name := range v.graph.Names() {
			sorted = append(sorted, v.graph.Node(name))
		}
	}

	v.graph.CalculateDepths()

	v.graph.mu.RLock()
	defer v.graph.mu.RUnlock()

	depthGroups := make(map[int][]*Node)
	maxDepth := 0
	for _, node := range sorted {
		depthGroups[node.Depth] = append(depthGroups[node.Depth], node)
		if node.Depth > maxDepth {
			maxDepth = node.Depth
		}
	}

	for depth := 0; depth <= maxDepth; depth++ {
		nodes, exists := depthGroups[depth]
		if !exists {
			continue
		}
		fmt.Fprintf(w, "Level %d:\n", depth)
		fmt.Fprintln(w, "--------")
		for _, node := range nodes {
			v.writeNodeDetails(w, node, "  ")
		}
		fmt.Fprintln(w)
	}

	v.writeStatistics(w)
	return nil
}

// WriteAdjacencyList writes the graph as an adjacency list, one node
// per line, sorted by name.
func (v *Visualizer) WriteAdjacencyList(w io.Writer) error {
	v.graph.mu.RLock()
	defer v.graph.mu.RUnlock()

	fmt.Fprintln(w, "Adjacency List:")
	fmt.Fprintln(w, "===============")
	fmt.Fprintln(w)

	names := make([]string, len(v.graph.added))
	copy(names, v.graph.added)
	sort.Strings(names)

	for _, name := range names {
		deps := v.graph.nodes[name].Dependencies
		if len(deps) > 0 {
			fmt.Fprintf(w, "%s -> [%s]\n", name, strings.Join(deps, ", "))
		} else {
			fmt.Fprintf(w, "%s -> []\n", name)
		}
	}

	return nil
}

// allNames returns added names in insertion order, followed by any
// placeholder names sorted for stability.
func (v *Visualizer) allNames() []string {
	names := make([]string, len(v.graph.added))
	copy(names, v.graph.added)

	var placeholders []string
	for name, node := range v.graph.nodes {
		if node.Placeholder() {
			placeholders = append(placeholders, name)
		}
	}
	sort.Strings(placeholders)
	return append(names, placeholders...)
}

func (v *Visualizer) formatLabel(node *Node) string {
	label := node.Name
	if v.Annotate != nil {
		if extra := v.Annotate(node.Name); extra != "" {
			label += "\\n" + extra
		}
	}
	return fmt.Sprintf("%s\\nIn:%d Out:%d", label, node.InDegree, node.OutDegree)
}

func (v *Visualizer) nodeColor(node *Node) string {
	if node.Placeholder() {
		return "lightgray"
	}
	if v.Color != nil {
		if color := v.Color(node.Name); color != "" {
			return color
		}
	}
	return "white"
}

func (v *Visualizer) writeNodeDetails(w io.Writer, node *Node, indent string) {
	fmt.Fprintf(w, "%s%s\n", indent, node.Name)

	if v.Annotate != nil {
		if extra := v.Annotate(node.Name); extra != "" {
			fmt.Fprintf(w, "%s  %s\n", indent, extra)
		}
	}

	if len(node.Dependencies) > 0 {
		fmt.Fprintf(w, "%s  Dependencies: [%s]\n", indent, strings.Join(node.Dependencies, ", "))
	}
	if len(node.Dependents) > 0 {
		fmt.Fprintf(w, "%s  Dependents: [%s]\n", indent, strings.Join(node.Dependents, ", "))
	}
}

func (v *Visualizer) writeStatistics(w io.Writer) {
	fmt.Fprintln(w, "Statistics:")
	fmt.Fprintln(w, "-----------")
	fmt.Fprintf(w, "  Total nodes: %d\n", len(v.graph.nodes))
	fmt.Fprintf(w, "  Total edges: %d\n", v.countEdges())

	roots := 0
	leaves := 0
	for _, node := range v.graph.nodes {
		if node.InDegree == 0 {
			roots++
		}
		if node.OutDegree == 0 {
			leaves++
		}
	}
	fmt.Fprintf(w, "  Root nodes (nothing depends on them): %d\n", roots)
	fmt.Fprintf(w, "  Leaf nodes (depend on nothing): %d\n", leaves)

	var most *Node
	for _, name := range v.graph.added {
		node := v.graph.nodes[name]
		if most == nil || node.OutDegree > most.OutDegree {
			most = node
		}
	}
	if most != nil {
		fmt.Fprintf(w, "  Most dependencies: %s (%d)\n", most.Name, most.OutDegree)
	}
}

func (v *Visualizer) countEdges() int {
	count := 0
	for _, name := range v.graph.added {
		count += len(v.graph.nodes[name].Dependencies)
	}
	return count
}
