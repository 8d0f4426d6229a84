package scope

import (
	"testing"

	"github.com/traceforge/sqltrace/pkg/parser"
)

func mustParse(t *testing.T, sql string) parser.Statement {
	t.Helper()
	stmt, err := parser.Parse(sql)
	if err != nil {
		t.Fatalf("failed to parse %q: %v", sql, err)
	}
	return stmt
}

func refNames(refs []Ref) []string {
	names := make([]string, len(refs))
	for i, r := range refs {
		names[i] = r.Name
	}
	return names
}

func TestResolve_BareSelect(t *testing.T) {
	scopes := Resolve(mustParse(t, "SELECT id FROM raw_orders"))

	if len(scopes.CTEs) != 0 {
		t.Errorf("expected no CTEs, got %d", len(scopes.CTEs))
	}
	if len(scopes.Main) != 1 {
		t.Fatalf("expected 1 main reference, got %d", len(scopes.Main))
	}
	if scopes.Main[0].Name != "raw_orders" || scopes.Main[0].Kind != RefRaw {
		t.Errorf("expected raw reference to raw_orders, got %+v", scopes.Main[0])
	}
}

func TestResolve_CTEChain(t *testing.T) {
	sql := `WITH cte1 AS (SELECT * FROM t1),
     cte2 AS (SELECT * FROM cte1 JOIN t2 ON cte1.id = t2.id)
SELECT * FROM cte2`

	scopes := Resolve(mustParse(t, sql))

	if len(scopes.CTEs) != 2 {
		t.Fatalf("expected 2 CTE entries, got %d", len(scopes.CTEs))
	}

	cte1 := scopes.CTEs[0]
	if cte1.Name != "cte1" {
		t.Errorf("expected first entry cte1, got %q", cte1.Name)
	}
	if len(cte1.Refs) != 1 || cte1.Refs[0].Name != "t1" || cte1.Refs[0].Kind != RefRaw {
		t.Errorf("expected cte1 to reference raw t1, got %+v", cte1.Refs)
	}

	cte2 := scopes.CTEs[1]
	if len(cte2.Refs) != 2 {
		t.Fatalf("expected cte2 to have 2 references, got %v", refNames(cte2.Refs))
	}
	if cte2.Refs[0].Name != "cte1" || cte2.Refs[0].Kind != RefCTE {
		t.Errorf("expected cte1 reference classified as CTE, got %+v", cte2.Refs[0])
	}
	if cte2.Refs[1].Name != "t2" || cte2.Refs[1].Kind != RefRaw {
		t.Errorf("expected t2 reference classified as raw, got %+v", cte2.Refs[1])
	}

	if len(scopes.Main) != 1 || scopes.Main[0].Kind != RefCTE {
		t.Errorf("expected main to reference cte2 as CTE, got %+v", scopes.Main)
	}
}

func TestResolve_ForwardReferenceIsRaw(t *testing.T) {
	// cte1 mentions cte2, which is declared later; the reference must
	// resolve to a raw table of that name, not to the later alias.
	sql := `WITH cte1 AS (SELECT * FROM cte2),
     cte2 AS (SELECT * FROM t)
SELECT * FROM cte1`

	scopes := Resolve(mustParse(t, sql))

	cte1 := scopes.CTEs[0]
	if len(cte1.Refs) != 1 || cte1.Refs[0].Kind != RefRaw {
		t.Errorf("expected forward reference to resolve raw, got %+v", cte1.Refs)
	}
}

func TestResolve_SelfReferenceDropped(t *testing.T) {
	sql := `WITH RECURSIVE r AS (SELECT 1 UNION ALL SELECT n + 1 FROM r)
SELECT * FROM r`

	scopes := Resolve(mustParse(t, sql))

	if len(scopes.CTEs[0].Refs) != 0 {
		t.Errorf("expected self-reference dropped, got %v", refNames(scopes.CTEs[0].Refs))
	}
}

func TestResolve_QualifiedNameNeverMatchesCTE(t *testing.T) {
	sql := `WITH orders AS (SELECT * FROM raw_orders)
SELECT * FROM analytics.orders`

	scopes := Resolve(mustParse(t, sql))

	if len(scopes.Main) != 1 {
		t.Fatalf("expected 1 main reference, got %d", len(scopes.Main))
	}
	if scopes.Main[0].Name != "analytics.orders" || scopes.Main[0].Kind != RefRaw {
		t.Errorf("qualified name must stay raw, got %+v", scopes.Main[0])
	}
	if scopes.IsCTE("analytics.orders") {
		t.Error("qualified name must not match a CTE alias")
	}
	if !scopes.IsCTE("orders") {
		t.Error("bare alias should match")
	}
}

func TestResolve_CaseInsensitiveAliases(t *testing.T) {
	sql := `WITH Sales AS (SELECT * FROM raw_sales)
SELECT * FROM SALES`

	scopes := Resolve(mustParse(t, sql))

	if len(scopes.Main) != 1 || scopes.Main[0].Kind != RefCTE {
		t.Errorf("expected case-insensitive alias match, got %+v", scopes.Main)
	}
}

func TestResolve_SubqueryRefs(t *testing.T) {
	sql := `SELECT * FROM t
WHERE id IN (SELECT id FROM blocked)
  AND EXISTS (SELECT 1 FROM audit WHERE audit.tid = t.id)`

	scopes := Resolve(mustParse(t, sql))

	names := refNames(scopes.Main)
	want := []string{"t", "blocked", "audit"}
	if len(names) != len(want) {
		t.Fatalf("expected refs %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("expected refs %v, got %v", want, names)
			break
		}
	}
}

func TestResolve_DerivedTableFlattens(t *testing.T) {
	scopes := Resolve(mustParse(t, "SELECT * FROM (SELECT id FROM inner_t) sub"))

	if len(scopes.Main) != 1 || scopes.Main[0].Name != "inner_t" {
		t.Errorf("expected derived table to flatten to inner_t, got %+v", scopes.Main)
	}
}

func TestResolve_NestedLocalWithFlattens(t *testing.T) {
	// local is only visible inside cte1's body; outside it must not leak,
	// and cte1's references flatten to local's underlying source.
	sql := `WITH cte1 AS (
  WITH local AS (SELECT * FROM deep_t)
  SELECT * FROM local
)
SELECT * FROM cte1`

	scopes := Resolve(mustParse(t, sql))

	cte1 := scopes.CTEs[0]
	if len(cte1.Refs) != 1 || cte1.Refs[0].Name != "deep_t" {
		t.Errorf("expected local alias to flatten to deep_t, got %v", refNames(cte1.Refs))
	}
	if scopes.IsCTE("local") {
		t.Error("local alias must not be visible at statement scope")
	}
}

func TestResolve_LocalAliasScopedToSubtree(t *testing.T) {
	// x is local to the derived table; the sibling join reference to x
	// names an outer table and must be collected.
	sql := `SELECT * FROM (WITH x AS (SELECT * FROM a) SELECT * FROM x) d JOIN x ON 1 = 1`

	scopes := Resolve(mustParse(t, sql))

	names := refNames(scopes.Main)
	want := []string{"a", "x"}
	if len(names) != len(want) {
		t.Fatalf("expected refs %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("expected refs %v, got %v", want, names)
			break
		}
	}
	for _, ref := range scopes.Main {
		if ref.Kind != RefRaw {
			t.Errorf("expected %q raw, got %+v", ref.Name, ref)
		}
	}
}

func TestResolve_DeclIndex(t *testing.T) {
	sql := `WITH a AS (SELECT * FROM t), b AS (SELECT * FROM a) SELECT * FROM b`

	scopes := Resolve(mustParse(t, sql))

	if idx, ok := scopes.DeclIndex("a"); !ok || idx != 0 {
		t.Errorf("expected a at index 0, got %d %v", idx, ok)
	}
	if idx, ok := scopes.DeclIndex("B"); !ok || idx != 1 {
		t.Errorf("expected b at index 1, got %d %v", idx, ok)
	}
	if _, ok := scopes.DeclIndex("schema.a"); ok {
		t.Error("qualified name must not resolve to an alias index")
	}
	if _, ok := scopes.DeclIndex("missing"); ok {
		t.Error("unknown name must not resolve")
	}
}

func TestResolve_InsertWithLeadingCTEs(t *testing.T) {
	sql := `WITH cte1 AS (SELECT * FROM t1),
     cte2 AS (SELECT * FROM cte1)
INSERT INTO final SELECT * FROM cte2`

	scopes := Resolve(mustParse(t, sql))

	if len(scopes.CTEs) != 2 {
		t.Fatalf("expected 2 CTEs, got %d", len(scopes.CTEs))
	}
	if len(scopes.Main) != 1 || scopes.Main[0].Name != "cte2" || scopes.Main[0].Kind != RefCTE {
		t.Errorf("expected main reference cte2 as CTE, got %+v", scopes.Main)
	}
}

func TestResolve_InsertValuesHasNoRefs(t *testing.T) {
	scopes := Resolve(mustParse(t, "INSERT INTO t (a) VALUES (1)"))

	if len(scopes.Main) != 0 {
		t.Errorf("VALUES insert should have no query references, got %+v", scopes.Main)
	}
}

func TestResolve_DuplicateRefsCollapse(t *testing.T) {
	scopes := Resolve(mustParse(t, "SELECT * FROM t a JOIN t b ON a.id = b.id"))

	if len(scopes.Main) != 1 {
		t.Errorf("expected duplicate table references to collapse, got %v", refNames(scopes.Main))
	}
}

func TestResolve_NoTables(t *testing.T) {
	scopes := Resolve(mustParse(t, "SELECT 1"))

	if !scopes.Empty() {
		t.Errorf("expected empty scope table, got CTEs=%d main=%d", len(scopes.CTEs), len(scopes.Main))
	}
}
