package ui

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postMap(t *testing.T, srv *Server, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/map", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	return rec
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) MapResponse {
	t.Helper()
	var resp MapResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestMapHandler_CreateTableAs(t *testing.T) {
	srv := NewServer(Config{})

	rec := postMap(t, srv, MapRequest{SQL: "CREATE TABLE summary AS SELECT * FROM raw_orders"})
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeMap(t, rec)
	assert.Empty(t, resp.Error)
	require.Len(t, resp.Nodes, 2)
	require.Len(t, resp.Edges, 1)

	byID := make(map[string]VisNode)
	for _, n := range resp.Nodes {
		byID[n.ID] = n
	}
	assert.Equal(t, "RAW: raw_orders", byID["raw_orders"].Label)
	assert.Equal(t, colorRaw, byID["raw_orders"].Color)
	assert.Equal(t, "summary", byID["summary"].Label)
	assert.Equal(t, colorSink, byID["summary"].Color)
	assert.Equal(t, "sink", byID["summary"].Type)

	assert.Equal(t, VisEdge{From: "raw_orders", To: "summary"}, resp.Edges[0])
}

func TestMapHandler_CTELabels(t *testing.T) {
	srv := NewServer(Config{})

	rec := postMap(t, srv, MapRequest{SQL: "WITH c AS (SELECT * FROM t) SELECT * FROM c"})
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeMap(t, rec)
	byID := make(map[string]VisNode)
	for _, n := range resp.Nodes {
		byID[n.ID] = n
	}
	assert.Equal(t, "CTE: c", byID["c"].Label)
	assert.Equal(t, colorCTE, byID["c"].Color)
}

func TestMapHandler_ParseErrorIs200(t *testing.T) {
	srv := NewServer(Config{})

	rec := postMap(t, srv, MapRequest{SQL: "SELEC nonsense"})
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeMap(t, rec)
	assert.NotEmpty(t, resp.Error)
	assert.Empty(t, resp.Nodes)
	assert.Empty(t, resp.Edges)
}

func TestMapHandler_NoLineage(t *testing.T) {
	srv := NewServer(Config{})

	rec := postMap(t, srv, MapRequest{SQL: "SELECT 1"})
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeMap(t, rec)
	assert.Empty(t, resp.Error)
	assert.Empty(t, resp.Nodes)
	assert.Empty(t, resp.Edges)
}

func TestMapHandler_KeepOrphans(t *testing.T) {
	sql := `WITH used AS (SELECT * FROM t1), unused AS (SELECT * FROM t2)
CREATE TABLE out AS SELECT * FROM used`

	pruned := decodeMap(t, postMap(t, NewServer(Config{}), MapRequest{SQL: sql}))
	kept := decodeMap(t, postMap(t, NewServer(Config{KeepOrphans: true}), MapRequest{SQL: sql}))

	assert.Len(t, pruned.Nodes, 3)
	assert.Len(t, kept.Nodes, 5)
}

func TestMapHandler_InvalidBody(t *testing.T) {
	srv := NewServer(Config{})

	req := httptest.NewRequest(http.MethodPost, "/map", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIndexHandler(t *testing.T) {
	srv := NewServer(Config{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "SQLTRACE")
}

func TestHealthz(t *testing.T) {
	srv := NewServer(Config{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
