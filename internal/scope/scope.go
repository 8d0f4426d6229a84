// Package scope resolves CTE visibility for a single SQL statement.
//
// A WITH clause introduces aliases in textual order: a CTE may reference
// any CTE declared strictly before it, never a later one. The resolver
// walks the declarations in that order and classifies every table
// reference it finds as either a reference to an earlier CTE or a raw
// (persistent) table. The main query sees every declared CTE.
package scope

import (
	"strings"

	"github.com/traceforge/sqltrace/pkg/parser"
)

// RefKind classifies a table reference.
type RefKind int

const (
	// RefRaw is a reference to a persistent table.
	RefRaw RefKind = iota
	// RefCTE is a reference to a previously declared CTE alias.
	RefCTE
)

// Ref is one table reference with its classification.
type Ref struct {
	Name string // display name, qualified if the reference was
	Kind RefKind
}

// Entry holds the resolved references of one CTE, in reference order.
type Entry struct {
	Name string // CTE alias as declared
	Refs []Ref
}

// Table is the resolved scope of one statement: every CTE declaration in
// order, plus the main query's references.
type Table struct {
	CTEs []*Entry
	Main []Ref

	aliases map[string]int // normalized alias -> declaration index
}

// IsCTE reports whether name matches a declared CTE alias. Qualified
// names never match: a CTE alias is always bare.
func (t *Table) IsCTE(name string) bool {
	if strings.Contains(name, ".") {
		return false
	}
	_, ok := t.aliases[normalize(name)]
	return ok
}

// DeclIndex returns the declaration position of a CTE alias, in WITH
// order. Qualified names never match.
func (t *Table) DeclIndex(name string) (int, bool) {
	if strings.Contains(name, ".") {
		return 0, false
	}
	idx, ok := t.aliases[normalize(name)]
	return idx, ok
}

// Entry returns the scope entry for a CTE alias.
func (t *Table) Entry(name string) (*Entry, bool) {
	idx, ok := t.aliases[normalize(name)]
	if !ok {
		return nil, false
	}
	return t.CTEs[idx], true
}

// Empty reports whether the statement had no table references at all.
func (t *Table) Empty() bool {
	return len(t.CTEs) == 0 && len(t.Main) == 0
}

// Resolve builds the scope table for a parsed statement.
func Resolve(stmt parser.Statement) *Table {
	t := &Table{aliases: make(map[string]int)}
	if stmt == nil {
		return t
	}

	withs, main := splitStatement(stmt)

	// visible holds aliases declared so far; strict left-to-right
	// visibility is what guarantees the final graph is acyclic.
	visible := make(map[string]bool)

	for _, with := range withs {
		if with == nil {
			continue
		}
		for _, cte := range with.CTEs {
			entry := &Entry{Name: cte.Name}
			self := normalize(cte.Name)

			for _, name := range collectRefs(cte.Select) {
				key := normalize(name)
				if key == self {
					// A CTE cannot feed itself; recursive CTE
					// self-references are dropped rather than looped.
					continue
				}
				kind := RefRaw
				if visible[key] && !strings.Contains(name, ".") {
					kind = RefCTE
				}
				entry.Refs = append(entry.Refs, Ref{Name: name, Kind: kind})
			}

			t.aliases[self] = len(t.CTEs)
			t.CTEs = append(t.CTEs, entry)
			visible[self] = true
		}
	}

	if main != nil {
		for _, name := range collectRefs(main) {
			kind := RefRaw
			if visible[normalize(name)] && !strings.Contains(name, ".") {
				kind = RefCTE
			}
			t.Main = append(t.Main, Ref{Name: name, Kind: kind})
		}
	}

	return t
}

// splitStatement returns the statement's WITH clauses in declaration order
// and its main SELECT. CREATE/INSERT statements may carry a WITH clause
// both before the verb and on the inner query; both are statement-scoped.
func splitStatement(stmt parser.Statement) ([]*parser.WithClause, *parser.SelectStmt) {
	switch s := stmt.(type) {
	case *parser.SelectStmt:
		return []*parser.WithClause{s.With}, &parser.SelectStmt{Body: s.Body}
	case *parser.CreateTableStmt:
		if s.Select == nil {
			return []*parser.WithClause{s.With}, nil
		}
		return []*parser.WithClause{s.With, s.Select.With},
			&parser.SelectStmt{Body: s.Select.Body}
	case *parser.InsertStmt:
		if s.Select == nil {
			// VALUES insert: no query-side references
			return []*parser.WithClause{s.With}, nil
		}
		return []*parser.WithClause{s.With, s.Select.With},
			&parser.SelectStmt{Body: s.Select.Body}
	default:
		return nil, nil
	}
}

// collectRefs gathers every table reference inside a SELECT in first-seen
// order, deduplicated. References to the SELECT's own local WITH aliases
// are resolved away: the alias name is dropped and the tables inside the
// local CTE bodies are reported instead, so nested scopes flatten to
// their underlying sources.
func collectRefs(sel *parser.SelectStmt) []string {
	c := &collector{
		seen:  make(map[string]bool),
		local: make(map[string]bool),
	}
	c.selectStmt(sel)
	return c.refs
}

type collector struct {
	refs  []string
	seen  map[string]bool
	local map[string]bool // aliases local to this subtree, not visible outside
}

func (c *collector) add(name string) {
	key := normalize(name)
	if c.local[key] || c.seen[key] {
		return
	}
	c.seen[key] = true
	c.refs = append(c.refs, name)
}

func (c *collector) selectStmt(sel *parser.SelectStmt) {
	if sel == nil {
		return
	}

	// Aliases declared here are scoped to this subtree: they are removed
	// on exit so a sibling reference to a same-named table still
	// surfaces.
	var added []string

	if sel.With != nil {
		for _, cte := range sel.With.CTEs {
			// The local body is collected before the alias becomes
			// local, so an inner reference to a same-named outer CTE
			// still surfaces.
			c.selectStmt(cte.Select)
			key := normalize(cte.Name)
			if !c.local[key] {
				c.local[key] = true
				added = append(added, key)
			}
		}
	}

	c.body(sel.Body)

	for _, key := range added {
		delete(c.local, key)
	}
}

func (c *collector) body(b *parser.SelectBody) {
	if b == nil {
		return
	}
	c.core(b.Left)
	c.body(b.Right)
}

func (c *collector) core(core *parser.SelectCore) {
	if core == nil {
		return
	}

	if core.From != nil {
		c.tableRef(core.From.Source)
		for _, join := range core.From.Joins {
			c.tableRef(join.Right)
			c.expr(join.On)
		}
	}

	for _, item := range core.Columns {
		c.expr(item.Expr)
	}
	c.expr(core.Where)
	for _, e := range core.GroupBy {
		c.expr(e)
	}
	c.expr(core.Having)
	for _, o := range core.OrderBy {
		c.expr(o.Expr)
	}
	c.expr(core.Limit)
	c.expr(core.Offset)
}

func (c *collector) tableRef(ref parser.TableRef) {
	switch r := ref.(type) {
	case *parser.TableName:
		c.add(r.Qualified())
	case *parser.DerivedTable:
		c.selectStmt(r.Select)
	case nil:
	}
}

// expr walks an expression looking for subqueries; plain column
// references carry no table-level lineage of their own.
func (c *collector) expr(e parser.Expr) {
	switch ex := e.(type) {
	case *parser.BinaryExpr:
		c.expr(ex.Left)
		c.expr(ex.Right)
	case *parser.UnaryExpr:
		c.expr(ex.Expr)
	case *parser.ParenExpr:
		c.expr(ex.Expr)
	case *parser.CastExpr:
		c.expr(ex.Expr)
	case *parser.FuncCall:
		for _, arg := range ex.Args {
			c.expr(arg)
		}
	case *parser.CaseExpr:
		c.expr(ex.Operand)
		for _, when := range ex.Whens {
			c.expr(when.Cond)
			c.expr(when.Then)
		}
		c.expr(ex.Else)
	case *parser.SubqueryExpr:
		c.selectStmt(ex.Select)
	case *parser.ExistsExpr:
		c.selectStmt(ex.Select)
	case *parser.InExpr:
		c.expr(ex.Expr)
		for _, item := range ex.List {
			c.expr(item)
		}
		c.selectStmt(ex.Select)
	case *parser.BetweenExpr:
		c.expr(ex.Expr)
		c.expr(ex.Low)
		c.expr(ex.High)
	case *parser.ColumnRef, *parser.Literal, nil:
	}
}

// normalize lowercases an identifier for comparison. Quoted-identifier
// case sensitivity is out of scope at table granularity.
func normalize(name string) string {
	return strings.ToLower(name)
}
