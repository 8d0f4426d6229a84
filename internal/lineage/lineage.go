// Package lineage builds table-level lineage graphs from parsed SQL.
//
// One statement resolves to one Graph: nodes are tables, edges mean
// "source feeds target". A CREATE TABLE ... AS or INSERT INTO target
// becomes the sink; CTE aliases become intermediate nodes; everything
// else is a raw source. The graph is acyclic by construction because a
// CTE can only reference aliases declared before it.
//
// # Basic Usage
//
//	g, err := lineage.Extract("CREATE TABLE s AS SELECT * FROM raw_orders", lineage.Options{})
//	if err != nil {
//	    // *parser.ParseError: malformed SQL
//	}
//	for _, n := range g.Nodes() {
//	    fmt.Printf("%s (%s)\n", n.Name, n.Kind)
//	}
package lineage

import (
	"strings"

	"github.com/traceforge/sqltrace/internal/scope"
	"github.com/traceforge/sqltrace/pkg/parser"
)

// NodeKind classifies a table node in the lineage graph.
type NodeKind int

const (
	// KindRaw is a persistent source table never defined as a CTE in
	// the statement.
	KindRaw NodeKind = iota
	// KindIntermediate is a CTE alias.
	KindIntermediate
	// KindSink is the write target of the statement.
	KindSink
)

// String returns the lowercase name of the kind.
func (k NodeKind) String() string {
	switch k {
	case KindIntermediate:
		return "intermediate"
	case KindSink:
		return "sink"
	default:
		return "raw"
	}
}

// Node is one table in the lineage graph.
type Node struct {
	Name string
	Kind NodeKind
}

// Edge is a directed "source feeds target" relationship.
type Edge struct {
	Source string
	Target string
}

// Options configures lineage resolution.
type Options struct {
	// KeepOrphans keeps CTEs (and their exclusive sources) that no
	// other CTE and no main query consumes. By default they are pruned
	// as disconnected from the statement's output.
	KeepOrphans bool
}

// Extract parses one SQL statement and builds its lineage graph.
// Malformed SQL returns a *parser.ParseError.
func Extract(sql string, opts Options) (*Graph, error) {
	stmt, err := parser.Parse(sql)
	if err != nil {
		return nil, err
	}
	return Build(stmt, scope.Resolve(stmt), opts), nil
}

// Build constructs the lineage graph from a parsed statement and its
// resolved scope table. A statement with no table references yields an
// empty graph, not an error.
func Build(stmt parser.Statement, scopes *scope.Table, opts Options) *Graph {
	b := &builder{
		kinds: make(map[string]NodeKind),
		names: make(map[string]string),
		seen:  make(map[string]bool),
	}

	sink := sinkTarget(stmt)

	// The sink is registered first and wins the kind priority, even when
	// the same table is also read from in the statement.
	if sink != "" {
		b.addNode(sink, KindSink)
	}

	// CTE aliases next: Intermediate beats Raw when the same name shows
	// up as a plain reference elsewhere (the alias shadows the table).
	for _, entry := range scopes.CTEs {
		b.addNode(entry.Name, KindIntermediate)
	}

	// Wire each CTE's internal references: T feeds C. A raw reference
	// whose name matches an alias declared at the same or a later
	// position gets no edge: nodes merge by name, so wiring it would
	// point a later CTE at an earlier one and close a cycle.
	for i, entry := range scopes.CTEs {
		for _, ref := range entry.Refs {
			if ref.Kind == scope.RefRaw {
				if idx, ok := scopes.DeclIndex(ref.Name); ok && idx >= i {
					continue
				}
			}
			b.addNode(ref.Name, refKind(ref))
			b.addEdge(ref.Name, entry.Name)
		}
	}

	// Main query references feed the sink, or stand as terminal nodes
	// for a bare SELECT.
	for _, ref := range scopes.Main {
		b.addNode(ref.Name, refKind(ref))
		if sink != "" {
			b.addEdge(ref.Name, sink)
		}
	}

	if !opts.KeepOrphans {
		b.prune(sink, scopes)
	}

	return b.graph()
}

// builder accumulates nodes and edges before materializing the graph.
type builder struct {
	order []string            // normalized node keys in insertion order
	kinds map[string]NodeKind // normalized key -> kind
	names map[string]string   // normalized key -> display name
	edges []Edge              // display-name edges, deduplicated
	seen  map[string]bool     // "src->dst" dedup, normalized
}

func (b *builder) addNode(name string, kind NodeKind) {
	key := normalize(name)
	if _, ok := b.kinds[key]; !ok {
		b.order = append(b.order, key)
		b.kinds[key] = kind
		b.names[key] = name
		return
	}
	// Kind priority: Sink > Intermediate > Raw
	if kind > b.kinds[key] {
		b.kinds[key] = kind
	}
}

func (b *builder) addEdge(source, target string) {
	src, dst := normalize(source), normalize(target)
	if src == dst {
		// No self-loops: a table never lineage-feeds itself within
		// one statement.
		return
	}
	key := src + "->" + dst
	if b.seen[key] {
		return
	}
	b.seen[key] = true
	b.edges = append(b.edges, Edge{Source: b.names[src], Target: b.names[dst]})
}

// prune drops nodes that cannot reach the statement's output: CTEs that
// nothing consumes, and raw tables that only fed such CTEs. The keep set
// is the sink and the main query's references plus all their ancestors.
func (b *builder) prune(sink string, scopes *scope.Table) {
	keep := make(map[string]bool)

	var markUp func(key string)
	markUp = func(key string) {
		if keep[key] {
			return
		}
		keep[key] = true
		for _, e := range b.edges {
			if normalize(e.Target) == key {
				markUp(normalize(e.Source))
			}
		}
	}

	if sink != "" {
		markUp(normalize(sink))
	}
	for _, ref := range scopes.Main {
		markUp(normalize(ref.Name))
	}

	var order []string
	for _, key := range b.order {
		if keep[key] {
			order = append(order, key)
		} else {
			delete(b.kinds, key)
			delete(b.names, key)
		}
	}
	b.order = order

	var edges []Edge
	for _, e := range b.edges {
		if keep[normalize(e.Source)] && keep[normalize(e.Target)] {
			edges = append(edges, e)
		}
	}
	b.edges = edges
}

// sinkTarget returns the write target's table name, or "" for a bare
// SELECT. Exhaustive over the parser's statement kinds.
func sinkTarget(stmt parser.Statement) string {
	switch s := stmt.(type) {
	case *parser.CreateTableStmt:
		if s.Target == nil || s.Target.Name == "" {
			return ""
		}
		return s.Target.Qualified()
	case *parser.InsertStmt:
		if s.Target == nil || s.Target.Name == "" {
			return ""
		}
		return s.Target.Qualified()
	case *parser.SelectStmt:
		return ""
	default:
		return ""
	}
}

func refKind(ref scope.Ref) NodeKind {
	if ref.Kind == scope.RefCTE {
		return KindIntermediate
	}
	return KindRaw
}

func normalize(name string) string {
	return strings.ToLower(name)
}
