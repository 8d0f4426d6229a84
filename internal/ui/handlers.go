package ui

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/traceforge/sqltrace/internal/lineage"
	"github.com/traceforge/sqltrace/pkg/parser"
)

// Node colors for the vis-network client.
const (
	colorRaw  = "#ff4d4d"
	colorCTE  = "#4da6ff"
	colorSink = "#4dff88"
)

// MapRequest is the body of POST /map.
type MapRequest struct {
	SQL string `json:"sql"`
}

// MapResponse is the graph payload consumed by the vis-network client.
// Error is set when the SQL failed to parse; an empty node list with no
// error means the statement simply had no lineage.
type MapResponse struct {
	Nodes []VisNode `json:"nodes"`
	Edges []VisEdge `json:"edges"`
	Error string    `json:"error,omitempty"`
}

// VisNode is one table node in the response.
type VisNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"`
	Color string `json:"color"`
}

// VisEdge is one directed edge in the response.
type VisEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// indexHandler serves the embedded single-page UI.
func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	data, err := assets.ReadFile("assets/index.html")
	if err != nil {
		http.Error(w, "UI assets missing", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(data)
}

// mapHandler resolves lineage for one SQL statement.
func (s *Server) mapHandler(w http.ResponseWriter, r *http.Request) {
	var req MapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	resp := MapResponse{Nodes: []VisNode{}, Edges: []VisEdge{}}

	g, err := lineage.Extract(req.SQL, s.opts)
	if err != nil {
		var parseErr *parser.ParseError
		if errors.As(err, &parseErr) {
			s.logger.Debug("parse failed", "error", parseErr)
			resp.Error = parseErr.Error()
			writeJSON(w, resp)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp.Nodes, resp.Edges = visGraph(g)
	writeJSON(w, resp)
}

// healthzHandler is a liveness probe.
func (s *Server) healthzHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// visGraph converts a lineage graph to the vis-network payload.
func visGraph(g *lineage.Graph) ([]VisNode, []VisEdge) {
	nodes := make([]VisNode, 0, g.NodeCount())
	for _, n := range g.Nodes() {
		vn := VisNode{ID: n.Name, Type: n.Kind.String()}
		switch n.Kind {
		case lineage.KindSink:
			vn.Label = n.Name
			vn.Color = colorSink
		case lineage.KindIntermediate:
			vn.Label = "CTE: " + n.Name
			vn.Color = colorCTE
		default:
			vn.Label = "RAW: " + n.Name
			vn.Color = colorRaw
		}
		nodes = append(nodes, vn)
	}

	edges := make([]VisEdge, 0, g.EdgeCount())
	for _, e := range g.Edges() {
		edges = append(edges, VisEdge{From: e.Source, To: e.Target})
	}
	return nodes, edges
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
