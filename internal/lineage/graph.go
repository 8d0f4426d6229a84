package lineage

import (
	"fmt"
	"sort"

	"github.com/traceforge/sqltrace/internal/dag"
)

// Graph is the lineage graph of one statement. It is immutable once
// built; concurrent readers need no locking. A fresh graph is
// constructed per statement, never shared or reused.
type Graph struct {
	dag   *dag.Graph
	kinds map[string]NodeKind // normalized name -> kind
	names map[string]string   // normalized name -> display name
	sink  string              // display name, "" when the statement has no write target
}

// graph materializes the builder's accumulated state.
func (b *builder) graph() *Graph {
	g := &Graph{
		dag:   dag.NewGraph(),
		kinds: b.kinds,
		names: b.names,
	}

	for _, key := range b.order {
		kind := b.kinds[key]
		g.dag.AddNode(b.names[key], kind)
		if kind == KindSink {
			g.sink = b.names[key]
		}
	}
	for _, e := range b.edges {
		// Self-loops and duplicates were rejected during building.
		_ = g.dag.AddEdge(e.Source, e.Target)
	}

	return g
}

// Nodes returns all nodes sorted by name.
func (g *Graph) Nodes() []Node {
	raw := g.dag.GetAllNodes()
	nodes := make([]Node, 0, len(raw))
	for _, n := range raw {
		nodes = append(nodes, Node{Name: n.ID, Kind: n.Data.(NodeKind)})
	}
	return nodes
}

// Edges returns all edges sorted by (source, target).
func (g *Graph) Edges() []Edge {
	var edges []Edge
	for _, n := range g.dag.GetAllNodes() {
		for _, target := range g.dag.GetChildren(n.ID) {
			edges = append(edges, Edge{Source: n.ID, Target: target})
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Source != edges[j].Source {
			return edges[i].Source < edges[j].Source
		}
		return edges[i].Target < edges[j].Target
	})
	return edges
}

// Sink returns the statement's write target, if any.
func (g *Graph) Sink() (string, bool) {
	return g.sink, g.sink != ""
}

// Kind returns the kind of a named node.
func (g *Graph) Kind(name string) (NodeKind, bool) {
	kind, ok := g.kinds[normalize(name)]
	return kind, ok
}

// HasNode reports whether the graph contains a node with the given name.
func (g *Graph) HasNode(name string) bool {
	_, ok := g.kinds[normalize(name)]
	return ok
}

// Empty reports whether the graph has no nodes. Callers must handle this
// explicitly: it is the valid result for statements without table
// references, not a failure.
func (g *Graph) Empty() bool {
	return g.dag.NodeCount() == 0
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return g.dag.NodeCount()
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	return g.dag.EdgeCount()
}

// Upstream returns all transitive feeders of the named node.
func (g *Graph) Upstream(name string) []string {
	if display, ok := g.names[normalize(name)]; ok {
		return g.dag.GetUpstreamNodes(display)
	}
	return nil
}

// Downstream returns all transitive consumers of the named node.
func (g *Graph) Downstream(name string) []string {
	if display, ok := g.names[normalize(name)]; ok {
		return g.dag.GetDownstreamNodes(display)
	}
	return nil
}

// Roots returns the nodes with no feeders (the raw entry points).
func (g *Graph) Roots() []string {
	return g.dag.GetRoots()
}

// TopologicalOrder returns node names ordered so that every feeder
// precedes its consumers.
func (g *Graph) TopologicalOrder() ([]string, error) {
	nodes, err := g.dag.TopologicalSort()
	if err != nil {
		return nil, fmt.Errorf("lineage graph is not a DAG: %w", err)
	}
	order := make([]string, 0, len(nodes))
	for _, n := range nodes {
		order = append(order, n.ID)
	}
	return order, nil
}
