// Package dag provides directed acyclic graph operations for table
// lineage. It supports cycle detection, topological sorting, and
// upstream/downstream traversal.
package dag

import (
	"fmt"
	"sort"
)

// Node represents a node in the DAG.
type Node struct {
	// ID is the unique identifier (table name)
	ID string
	// Data holds arbitrary node data
	Data interface{}
}

// Graph represents a directed acyclic graph. Each graph instance is
// independently owned; nothing is shared process-wide.
type Graph struct {
	nodes   map[string]*Node
	edges   map[string][]string // source -> targets (consumers)
	parents map[string][]string // target -> sources (feeders)
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:   make(map[string]*Node),
		edges:   make(map[string][]string),
		parents: make(map[string][]string),
	}
}

// AddNode adds a node to the graph.
func (g *Graph) AddNode(id string, data interface{}) {
	if _, exists := g.nodes[id]; !exists {
		g.nodes[id] = &Node{ID: id, Data: data}
		g.edges[id] = []string{}
		g.parents[id] = []string{}
	} else {
		// Update data if node already exists
		g.nodes[id].Data = data
	}
}

// AddEdge adds a directed edge source -> target ("source feeds target").
// Duplicate edges collapse silently; self-loops and edges to unknown
// nodes are errors.
func (g *Graph) AddEdge(sourceID, targetID string) error {
	if _, exists := g.nodes[sourceID]; !exists {
		return fmt.Errorf("source node %q does not exist", sourceID)
	}
	if _, exists := g.nodes[targetID]; !exists {
		return fmt.Errorf("target node %q does not exist", targetID)
	}

	if sourceID == targetID {
		return fmt.Errorf("self-loop detected: %s", sourceID)
	}

	if !contains(g.edges[sourceID], targetID) {
		g.edges[sourceID] = append(g.edges[sourceID], targetID)
	}
	if !contains(g.parents[targetID], sourceID) {
		g.parents[targetID] = append(g.parents[targetID], sourceID)
	}

	return nil
}

// GetNode returns a node by ID.
func (g *Graph) GetNode(id string) (*Node, bool) {
	node, exists := g.nodes[id]
	return node, exists
}

// GetParents returns the direct feeders of a node.
func (g *Graph) GetParents(id string) []string {
	return g.parents[id]
}

// GetChildren returns the direct consumers of a node.
func (g *Graph) GetChildren(id string) []string {
	return g.edges[id]
}

// InDegree returns the number of incoming edges of a node.
func (g *Graph) InDegree(id string) int {
	return len(g.parents[id])
}

// OutDegree returns the number of outgoing edges of a node.
func (g *Graph) OutDegree(id string) int {
	return len(g.edges[id])
}

// GetAllNodes returns all nodes in the graph, sorted by ID for
// deterministic output.
func (g *Graph) GetAllNodes() []*Node {
	nodes := make([]*Node, 0, len(g.nodes))
	for _, node := range g.nodes {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].ID < nodes[j].ID
	})
	return nodes
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, targets := range g.edges {
		count += len(targets)
	}
	return count
}

// HasCycle returns true if the graph contains a cycle, along with the cycle path.
func (g *Graph) HasCycle() (bool, []string) {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)
	path := make(map[string]string) // Track the path for error reporting

	var cyclePath []string

	var dfs func(id string) bool
	dfs = func(id string) bool {
		visited[id] = true
		recStack[id] = true

		for _, targetID := range g.edges[id] {
			if !visited[targetID] {
				path[targetID] = id
				if dfs(targetID) {
					return true
				}
			} else if recStack[targetID] {
				// Found cycle, reconstruct path
				cyclePath = []string{targetID}
				for curr := id; curr != targetID; curr = path[curr] {
					cyclePath = append([]string{curr}, cyclePath...)
				}
				cyclePath = append([]string{targetID}, cyclePath...)
				return true
			}
		}

		recStack[id] = false
		return false
	}

	for id := range g.nodes {
		if !visited[id] {
			if dfs(id) {
				return true, cyclePath
			}
		}
	}

	return false, nil
}

// TopologicalSort returns nodes in topological order (feeders before
// consumers). Returns an error if the graph contains a cycle.
func (g *Graph) TopologicalSort() ([]*Node, error) {
	if hasCycle, cyclePath := g.HasCycle(); hasCycle {
		return nil, fmt.Errorf("cycle detected: %v", cyclePath)
	}

	visited := make(map[string]bool)
	var result []*Node

	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true

		// Visit all feeders first
		for _, parentID := range g.parents[id] {
			visit(parentID)
		}

		result = append(result, g.nodes[id])
	}

	// Sort node IDs first for deterministic order
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		visit(id)
	}

	return result, nil
}

// GetUpstreamNodes returns all transitive feeders of the given node.
func (g *Graph) GetUpstreamNodes(id string) []string {
	upstream := make(map[string]bool)

	var markUpstream func(nodeID string)
	markUpstream = func(nodeID string) {
		for _, parentID := range g.parents[nodeID] {
			if !upstream[parentID] {
				upstream[parentID] = true
				markUpstream(parentID)
			}
		}
	}

	markUpstream(id)

	result := make([]string, 0, len(upstream))
	for nodeID := range upstream {
		result = append(result, nodeID)
	}
	sort.Strings(result)
	return result
}

// GetDownstreamNodes returns all transitive consumers of the given node.
func (g *Graph) GetDownstreamNodes(id string) []string {
	downstream := make(map[string]bool)

	var markDownstream func(nodeID string)
	markDownstream = func(nodeID string) {
		for _, targetID := range g.edges[nodeID] {
			if !downstream[targetID] {
				downstream[targetID] = true
				markDownstream(targetID)
			}
		}
	}

	markDownstream(id)

	result := make([]string, 0, len(downstream))
	for nodeID := range downstream {
		result = append(result, nodeID)
	}
	sort.Strings(result)
	return result
}

// GetRoots returns nodes with no feeders.
func (g *Graph) GetRoots() []string {
	var roots []string
	for id := range g.nodes {
		if g.InDegree(id) == 0 {
			roots = append(roots, id)
		}
	}
	sort.Strings(roots)
	return roots
}

// GetLeaves returns nodes with no consumers.
func (g *Graph) GetLeaves() []string {
	var leaves []string
	for id := range g.nodes {
		if g.OutDegree(id) == 0 {
			leaves = append(leaves, id)
		}
	}
	sort.Strings(leaves)
	return leaves
}

// contains checks if a slice contains a string.
func contains(slice []string, str string) bool {
	for _, s := range slice {
		if s == str {
			return true
		}
	}
	return false
}
