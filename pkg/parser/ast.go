package parser

import "strings"

// Statement represents a SQL statement.
type Statement interface {
	stmtNode()
}

// Expr represents an expression in SQL.
type Expr interface {
	exprNode()
}

// TableRef represents a table reference in a FROM clause.
type TableRef interface {
	tableRefNode()
}

// ---------- Statement Types ----------

// SelectStmt represents a SELECT statement with optional WITH clause.
type SelectStmt struct {
	With *WithClause
	Body *SelectBody
}

func (*SelectStmt) stmtNode() {}

// CreateTableStmt represents CREATE [OR REPLACE] TABLE|VIEW ... AS SELECT.
// A leading WITH clause (WITH ... CREATE TABLE ... AS ...) attaches here;
// a WITH clause after AS attaches to the inner SelectStmt.
type CreateTableStmt struct {
	With        *WithClause
	Target      *TableName
	View        bool
	OrReplace   bool
	IfNotExists bool
	Select      *SelectStmt
}

func (*CreateTableStmt) stmtNode() {}

// InsertStmt represents INSERT INTO ... SELECT or INSERT INTO ... VALUES.
type InsertStmt struct {
	With    *WithClause
	Target  *TableName
	Columns []string
	Select  *SelectStmt // nil for VALUES inserts
	Rows    [][]Expr    // VALUES rows, nil for SELECT inserts
}

func (*InsertStmt) stmtNode() {}

// WithClause represents a WITH clause with CTEs.
type WithClause struct {
	Recursive bool
	CTEs      []*CTE
}

// CTE represents a Common Table Expression.
type CTE struct {
	Name    string
	Columns []string // optional column list: name (a, b) AS (...)
	Select  *SelectStmt
}

// SelectBody represents the body of a SELECT with possible set operations.
type SelectBody struct {
	Left  *SelectCore
	Op    SetOpType   // UNION, INTERSECT, EXCEPT, or empty
	All   bool        // UNION ALL
	Right *SelectBody // for chained set operations
}

// SetOpType represents the type of set operation.
type SetOpType string

// SetOpType constants for set operations in queries.
const (
	SetOpNone      SetOpType = ""
	SetOpUnion     SetOpType = "UNION"
	SetOpUnionAll  SetOpType = "UNION ALL"
	SetOpIntersect SetOpType = "INTERSECT"
	SetOpExcept    SetOpType = "EXCEPT"
)

// SelectCore represents a single SELECT clause.
type SelectCore struct {
	Distinct bool
	Columns  []SelectItem
	From     *FromClause
	Where    Expr
	GroupBy  []Expr
	Having   Expr
	OrderBy  []OrderByItem
	Limit    Expr
	Offset   Expr
}

// SelectItem represents one item in a SELECT list.
type SelectItem struct {
	Star      bool   // SELECT *
	TableStar string // SELECT table.*
	Expr      Expr
	Alias     string
}

// OrderByItem represents one item in an ORDER BY clause.
type OrderByItem struct {
	Expr Expr
	Desc bool
}

// ---------- Table References ----------

// TableName represents a (possibly qualified) table name with optional alias.
type TableName struct {
	Catalog string
	Schema  string
	Name    string
	Alias   string
}

func (*TableName) tableRefNode() {}

// Qualified returns the fully qualified name (catalog.schema.name).
func (t *TableName) Qualified() string {
	var parts []string
	if t.Catalog != "" {
		parts = append(parts, t.Catalog)
	}
	if t.Schema != "" {
		parts = append(parts, t.Schema)
	}
	parts = append(parts, t.Name)
	return strings.Join(parts, ".")
}

// DerivedTable represents a subquery in a FROM clause.
type DerivedTable struct {
	Select *SelectStmt
	Alias  string
}

func (*DerivedTable) tableRefNode() {}

// FromClause represents a FROM clause.
type FromClause struct {
	Source TableRef
	Joins  []*Join
}

// JoinType identifies the join flavor.
type JoinType string

// Join types.
const (
	JoinInner JoinType = "INNER"
	JoinLeft  JoinType = "LEFT"
	JoinRight JoinType = "RIGHT"
	JoinFull  JoinType = "FULL"
	JoinCross JoinType = "CROSS"
)

// Join represents a single JOIN (or comma-separated cross join).
type Join struct {
	Type  JoinType
	Right TableRef
	On    Expr
	Using []string
}

// ---------- Expression Types ----------

// ColumnRef represents a column reference, optionally qualified.
type ColumnRef struct {
	Table  string
	Column string
}

func (*ColumnRef) exprNode() {}

// Literal represents a literal value (number, string, boolean, NULL).
type Literal struct {
	Value string
}

func (*Literal) exprNode() {}

// FuncCall represents a function call.
type FuncCall struct {
	Name     string
	Distinct bool
	Star     bool // COUNT(*)
	Args     []Expr
}

func (*FuncCall) exprNode() {}

// BinaryExpr represents a binary operation.
type BinaryExpr struct {
	Left  Expr
	Op    string
	Right Expr
}

func (*BinaryExpr) exprNode() {}

// UnaryExpr represents a unary operation (NOT, -, IS NULL).
type UnaryExpr struct {
	Op   string
	Expr Expr
}

func (*UnaryExpr) exprNode() {}

// ParenExpr represents a parenthesized expression.
type ParenExpr struct {
	Expr Expr
}

func (*ParenExpr) exprNode() {}

// CastExpr represents CAST(expr AS type).
type CastExpr struct {
	Expr Expr
	Type string
}

func (*CastExpr) exprNode() {}

// CaseExpr represents a CASE expression.
type CaseExpr struct {
	Operand Expr // nil for searched CASE
	Whens   []*WhenClause
	Else    Expr
}

func (*CaseExpr) exprNode() {}

// WhenClause represents one WHEN ... THEN ... arm of a CASE expression.
type WhenClause struct {
	Cond Expr
	Then Expr
}

// SubqueryExpr represents a scalar subquery.
type SubqueryExpr struct {
	Select *SelectStmt
}

func (*SubqueryExpr) exprNode() {}

// ExistsExpr represents [NOT] EXISTS (subquery).
type ExistsExpr struct {
	Not    bool
	Select *SelectStmt
}

func (*ExistsExpr) exprNode() {}

// InExpr represents expr [NOT] IN (list) or expr [NOT] IN (subquery).
type InExpr struct {
	Expr   Expr
	Not    bool
	List   []Expr
	Select *SelectStmt // nil for list form
}

func (*InExpr) exprNode() {}

// BetweenExpr represents expr [NOT] BETWEEN low AND high.
type BetweenExpr struct {
	Expr Expr
	Not  bool
	Low  Expr
	High Expr
}

func (*BetweenExpr) exprNode() {}
