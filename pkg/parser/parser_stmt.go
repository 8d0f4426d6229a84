package parser

// Statement parsing: WITH clause, CTEs, CREATE/INSERT targets, SELECT body.
//
// Grammar:
//
//	statement     → [WITH cte_list] ( select_body | create_stmt | insert_stmt )
//	cte_list      → cte ("," cte)*
//	cte           → identifier [(columns)] AS "(" statement ")"
//	create_stmt   → CREATE [OR REPLACE] (TABLE|VIEW) [IF NOT EXISTS]
//	                table_name [AS] statement
//	insert_stmt   → INSERT INTO table_name [(columns)]
//	                (statement | VALUES "(" exprs ")" ("," "(" exprs ")")*)
//	select_body   → select_core ((UNION|INTERSECT|EXCEPT) [ALL|DISTINCT] select_body)*
//	select_core   → SELECT [DISTINCT|ALL] select_list [FROM from_clause]
//	                [WHERE expr] [GROUP BY expr_list] [HAVING expr]
//	                [ORDER BY order_list] [LIMIT expr [OFFSET expr]]
//	select_list   → select_item ("," select_item)*
//	select_item   → "*" | table "." "*" | expr [AS identifier]

// parseStatement parses a complete SQL statement. A leading WITH clause is
// shared by all statement kinds: standard SQL allows WITH before SELECT,
// and the data-warehouse form WITH ... INSERT INTO ... is accepted too.
func (p *Parser) parseStatement() Statement {
	var with *WithClause
	if p.check(TOKEN_WITH) {
		with = p.parseWithClause()
	}

	switch p.token.Type {
	case TOKEN_CREATE:
		return p.parseCreateTable(with)
	case TOKEN_INSERT:
		return p.parseInsert(with)
	case TOKEN_SELECT:
		return &SelectStmt{With: with, Body: p.parseSelectBody()}
	default:
		p.addError("expected SELECT, CREATE, or INSERT")
		return &SelectStmt{With: with}
	}
}

// parseSelectStmt parses a SELECT statement with its own optional WITH clause.
// Used for CTE bodies, derived tables, and the query part of CREATE/INSERT.
func (p *Parser) parseSelectStmt() *SelectStmt {
	stmt := &SelectStmt{}
	if p.check(TOKEN_WITH) {
		stmt.With = p.parseWithClause()
	}
	if !p.check(TOKEN_SELECT) {
		p.addError("expected SELECT")
		return stmt
	}
	stmt.Body = p.parseSelectBody()
	return stmt
}

// parseWithClause parses a WITH clause with CTEs.
func (p *Parser) parseWithClause() *WithClause {
	p.expect(TOKEN_WITH)
	with := &WithClause{}

	// Optional RECURSIVE
	if p.match(TOKEN_RECURSIVE) {
		with.Recursive = true
	}

	// Parse CTE list
	for {
		cte := p.parseCTE()
		with.CTEs = append(with.CTEs, cte)

		if !p.match(TOKEN_COMMA) {
			break
		}
	}

	return with
}

// parseCTE parses a single CTE.
func (p *Parser) parseCTE() *CTE {
	cte := &CTE{}

	cte.Name = p.expectIdent("CTE name")
	if cte.Name == "" {
		return cte
	}

	// Optional column list: name (a, b) AS (...)
	if p.check(TOKEN_LPAREN) && p.peek.Type == TOKEN_IDENT {
		p.nextToken()
		cte.Columns = p.parseIdentList()
		p.expect(TOKEN_RPAREN)
	}

	p.expect(TOKEN_AS)

	p.expect(TOKEN_LPAREN)
	cte.Select = p.parseSelectStmt()
	p.expect(TOKEN_RPAREN)

	return cte
}

// parseCreateTable parses CREATE [OR REPLACE] TABLE|VIEW ... AS SELECT.
func (p *Parser) parseCreateTable(with *WithClause) *CreateTableStmt {
	p.expect(TOKEN_CREATE)
	stmt := &CreateTableStmt{With: with}

	if p.match(TOKEN_OR) {
		p.expect(TOKEN_REPLACE)
		stmt.OrReplace = true
	}

	switch {
	case p.match(TOKEN_TABLE):
	case p.match(TOKEN_VIEW):
		stmt.View = true
	default:
		p.addError("expected TABLE or VIEW after CREATE")
		return stmt
	}

	if p.check(TOKEN_IF) {
		p.nextToken()
		p.expect(TOKEN_NOT)
		p.expect(TOKEN_EXISTS)
		stmt.IfNotExists = true
	}

	stmt.Target = p.parseQualifiedName()

	// AS is required for CTAS; a column-definition CREATE TABLE carries no
	// lineage and is rejected here.
	if !p.expect(TOKEN_AS) {
		return stmt
	}

	stmt.Select = p.parseSelectStmt()
	return stmt
}

// parseInsert parses INSERT INTO ... SELECT or INSERT INTO ... VALUES.
func (p *Parser) parseInsert(with *WithClause) *InsertStmt {
	p.expect(TOKEN_INSERT)
	p.expect(TOKEN_INTO)
	stmt := &InsertStmt{With: with}

	stmt.Target = p.parseQualifiedName()

	// Optional column list. Disambiguate from (SELECT ...) by lookahead.
	if p.check(TOKEN_LPAREN) && p.peek.Type == TOKEN_IDENT {
		p.nextToken()
		stmt.Columns = p.parseIdentList()
		p.expect(TOKEN_RPAREN)
	}

	if p.match(TOKEN_VALUES) {
		stmt.Rows = p.parseValuesRows()
		return stmt
	}

	stmt.Select = p.parseSelectStmt()
	return stmt
}

// parseValuesRows parses VALUES (expr, ...), (expr, ...), ...
func (p *Parser) parseValuesRows() [][]Expr {
	var rows [][]Expr
	for {
		p.expect(TOKEN_LPAREN)
		var row []Expr
		for {
			row = append(row, p.parseExpr())
			if !p.match(TOKEN_COMMA) {
				break
			}
		}
		p.expect(TOKEN_RPAREN)
		rows = append(rows, row)

		if !p.match(TOKEN_COMMA) {
			break
		}
	}
	return rows
}

// parseIdentList parses a comma-separated identifier list.
func (p *Parser) parseIdentList() []string {
	var idents []string
	for {
		ident := p.expectIdent("identifier")
		if ident == "" {
			break
		}
		idents = append(idents, ident)
		if !p.match(TOKEN_COMMA) {
			break
		}
	}
	return idents
}

// parseSelectBody parses a SELECT body with possible set operations.
func (p *Parser) parseSelectBody() *SelectBody {
	body := &SelectBody{}
	body.Left = p.parseSelectCore()

	// Check for set operations
	if p.check(TOKEN_UNION) || p.check(TOKEN_INTERSECT) || p.check(TOKEN_EXCEPT) {
		switch p.token.Type {
		case TOKEN_UNION:
			p.nextToken()
			if p.match(TOKEN_ALL) {
				body.Op = SetOpUnionAll
				body.All = true
			} else {
				body.Op = SetOpUnion
				p.match(TOKEN_DISTINCT) // optional
			}
		case TOKEN_INTERSECT:
			p.nextToken()
			body.Op = SetOpIntersect
			p.match(TOKEN_ALL) // optional
		case TOKEN_EXCEPT:
			p.nextToken()
			body.Op = SetOpExcept
			p.match(TOKEN_ALL) // optional
		}

		// Parse the right side (recursively for chained operations)
		body.Right = p.parseSelectBody()
	}

	return body
}

// parseSelectCore parses a single SELECT clause.
func (p *Parser) parseSelectCore() *SelectCore {
	p.expect(TOKEN_SELECT)
	core := &SelectCore{}

	// DISTINCT / ALL
	if p.match(TOKEN_DISTINCT) {
		core.Distinct = true
	} else {
		p.match(TOKEN_ALL) // optional, consume if present
	}

	core.Columns = p.parseSelectList()

	if p.match(TOKEN_FROM) {
		core.From = p.parseFromClause()
	}

	if p.match(TOKEN_WHERE) {
		core.Where = p.parseExpr()
	}

	if p.check(TOKEN_GROUP) {
		p.nextToken()
		p.expect(TOKEN_BY)
		for {
			core.GroupBy = append(core.GroupBy, p.parseExpr())
			if !p.match(TOKEN_COMMA) {
				break
			}
		}
	}

	if p.match(TOKEN_HAVING) {
		core.Having = p.parseExpr()
	}

	if p.check(TOKEN_ORDER) {
		p.nextToken()
		p.expect(TOKEN_BY)
		core.OrderBy = p.parseOrderByList()
	}

	if p.match(TOKEN_LIMIT) {
		core.Limit = p.parseExpr()
	}

	if p.match(TOKEN_OFFSET) {
		core.Offset = p.parseExpr()
	}

	return core
}

// parseSelectList parses the SELECT list.
func (p *Parser) parseSelectList() []SelectItem {
	var items []SelectItem
	for {
		items = append(items, p.parseSelectItem())
		if !p.match(TOKEN_COMMA) {
			break
		}
	}
	return items
}

// parseSelectItem parses one item in the SELECT list.
func (p *Parser) parseSelectItem() SelectItem {
	// SELECT *
	if p.match(TOKEN_STAR) {
		return SelectItem{Star: true}
	}

	// SELECT table.*
	if p.check(TOKEN_IDENT) && p.peek.Type == TOKEN_DOT && p.peek2.Type == TOKEN_STAR {
		table := p.token.Literal
		p.nextToken() // ident
		p.nextToken() // dot
		p.nextToken() // star
		return SelectItem{TableStar: table}
	}

	item := SelectItem{Expr: p.parseExpr()}
	item.Alias = p.parseOptionalAlias()
	return item
}

// parseOptionalAlias parses [AS] identifier after a select item.
func (p *Parser) parseOptionalAlias() string {
	if p.match(TOKEN_AS) {
		return p.expectIdent("alias")
	}
	if p.check(TOKEN_IDENT) {
		alias := p.token.Literal
		p.nextToken()
		return alias
	}
	return ""
}

// parseOrderByList parses the ORDER BY list.
func (p *Parser) parseOrderByList() []OrderByItem {
	var items []OrderByItem
	for {
		item := OrderByItem{Expr: p.parseExpr()}
		if p.match(TOKEN_DESC) {
			item.Desc = true
		} else {
			p.match(TOKEN_ASC)
		}
		// NULLS FIRST/LAST: tolerated and discarded
		if p.match(TOKEN_NULLS) {
			p.nextToken()
		}
		items = append(items, item)

		if !p.match(TOKEN_COMMA) {
			break
		}
	}
	return items
}

// parseQualifiedName parses catalog.schema.table (without alias).
func (p *Parser) parseQualifiedName() *TableName {
	table := &TableName{}

	name := p.expectIdent("table name")
	if name == "" {
		return table
	}

	parts := []string{name}
	for p.match(TOKEN_DOT) {
		parts = append(parts, p.expectIdent("identifier"))
	}

	switch len(parts) {
	case 1:
		table.Name = parts[0]
	case 2:
		table.Schema = parts[0]
		table.Name = parts[1]
	default:
		table.Catalog = parts[0]
		table.Schema = parts[1]
		table.Name = parts[2]
	}
	return table
}
