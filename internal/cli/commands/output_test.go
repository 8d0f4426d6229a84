package commands

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/traceforge/sqltrace/internal/lineage"
)

const sampleSQL = `WITH cte1 AS (SELECT * FROM t1),
     cte2 AS (SELECT * FROM cte1)
INSERT INTO final SELECT * FROM cte2`

func sampleGraph(t *testing.T) *lineage.Graph {
	t.Helper()
	g, err := lineage.Extract(sampleSQL, lineage.Options{})
	require.NoError(t, err)
	return g
}

func TestRenderText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderText(&buf, sampleGraph(t)))

	out := buf.String()
	assert.Contains(t, out, "final")
	assert.Contains(t, out, "sink")
	assert.Contains(t, out, "intermediate")
	assert.Contains(t, out, "raw")
	assert.Contains(t, out, "cte1")
}

func TestRenderText_Empty(t *testing.T) {
	g, err := lineage.Extract("SELECT 1", lineage.Options{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, renderText(&buf, g))
	assert.Contains(t, buf.String(), "No lineage found")
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderJSON(&buf, sampleGraph(t)))

	var out LineageOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))

	require.Len(t, out.Nodes, 5)
	require.Len(t, out.Edges, 3)

	kinds := make(map[string]string)
	for _, n := range out.Nodes {
		kinds[n.Name] = n.Kind
	}
	assert.Equal(t, "sink", kinds["final"])
	assert.Equal(t, "intermediate", kinds["cte1"])
	assert.Equal(t, "raw", kinds["t1"])

	assert.Contains(t, out.Edges, EdgeOutput{Source: "cte2", Target: "final"})
	assert.Equal(t, StatsOutput{NodeCount: 5, EdgeCount: 3, Sink: "final"}, out.Stats)
}

func TestRenderDot(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderDot(&buf, sampleGraph(t)))

	out := buf.String()
	assert.Contains(t, out, "digraph lineage {")
	assert.Contains(t, out, `"t1" -> "cte1";`)
	assert.Contains(t, out, `"cte2" -> "final";`)
	assert.Contains(t, out, `fillcolor="#4dff88"`)
}

func TestTraceCommand_InlineSQL(t *testing.T) {
	cmd := NewTraceCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"--sql", "CREATE TABLE s AS SELECT * FROM raw_orders", "--output", "json"})

	require.NoError(t, cmd.Execute())

	var out LineageOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Len(t, out.Nodes, 2)
	assert.Equal(t, []EdgeOutput{{Source: "raw_orders", Target: "s"}}, out.Edges)
}

func TestTraceCommand_Stdin(t *testing.T) {
	cmd := NewTraceCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetIn(bytes.NewBufferString("SELECT * FROM raw_orders"))
	cmd.SetArgs([]string{"-"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "raw_orders")
}

func TestTraceCommand_ParseError(t *testing.T) {
	cmd := NewTraceCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--sql", "SELEC nonsense"})

	assert.Error(t, cmd.Execute())
}

func TestTraceCommand_NoInput(t *testing.T) {
	cmd := NewTraceCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(nil)

	assert.Error(t, cmd.Execute())
}
