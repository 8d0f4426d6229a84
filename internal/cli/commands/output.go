package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/traceforge/sqltrace/internal/lineage"
)

// LineageOutput is the JSON shape emitted by --output json.
type LineageOutput struct {
	Nodes []NodeOutput `json:"nodes"`
	Edges []EdgeOutput `json:"edges"`
	Stats StatsOutput  `json:"stats"`
}

// StatsOutput summarizes the graph.
type StatsOutput struct {
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
	Sink      string `json:"sink,omitempty"`
}

type NodeOutput struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

type EdgeOutput struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

func renderText(w io.Writer, g *lineage.Graph) error {
	if g.Empty() {
		fmt.Fprintln(w, "No lineage found.")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Table", "Kind"})
	for _, n := range g.Nodes() {
		t.AppendRow(table.Row{n.Name, n.Kind.String()})
	}
	t.Render()

	edges := g.Edges()
	if len(edges) == 0 {
		return nil
	}

	fmt.Fprintln(w)
	e := table.NewWriter()
	e.SetOutputMirror(w)
	e.SetStyle(table.StyleLight)
	e.AppendHeader(table.Row{"Source", "Target"})
	for _, edge := range edges {
		e.AppendRow(table.Row{edge.Source, edge.Target})
	}
	e.Render()

	return nil
}

func renderJSON(w io.Writer, g *lineage.Graph) error {
	out := LineageOutput{
		Nodes: make([]NodeOutput, 0, g.NodeCount()),
		Edges: make([]EdgeOutput, 0, g.EdgeCount()),
	}
	for _, n := range g.Nodes() {
		out.Nodes = append(out.Nodes, NodeOutput{Name: n.Name, Kind: n.Kind.String()})
	}
	for _, e := range g.Edges() {
		out.Edges = append(out.Edges, EdgeOutput{Source: e.Source, Target: e.Target})
	}
	out.Stats = StatsOutput{NodeCount: g.NodeCount(), EdgeCount: g.EdgeCount()}
	if sink, ok := g.Sink(); ok {
		out.Stats.Sink = sink
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// renderDot emits the graph in Graphviz dot format.
func renderDot(w io.Writer, g *lineage.Graph) error {
	var b strings.Builder
	b.WriteString("digraph lineage {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box, style=filled];\n")

	for _, n := range g.Nodes() {
		color := "#ff4d4d"
		switch n.Kind {
		case lineage.KindIntermediate:
			color = "#4da6ff"
		case lineage.KindSink:
			color = "#4dff88"
		}
		fmt.Fprintf(&b, "  %s [fillcolor=%q];\n", dotQuote(n.Name), color)
	}
	for _, e := range g.Edges() {
		fmt.Fprintf(&b, "  %s -> %s;\n", dotQuote(e.Source), dotQuote(e.Target))
	}
	b.WriteString("}\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func dotQuote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `\"`) + `"`
}
