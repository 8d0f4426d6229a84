package parser

// FROM clause parsing: table references, derived tables, JOINs.
//
// Grammar:
//
//	from_clause   → table_ref (join)*
//	table_ref     → table_name | derived_table
//	table_name    → [catalog "."] [schema "."] identifier [[AS] identifier]
//	derived_table → "(" statement ")" [AS] identifier
//	join          → join_type JOIN table_ref [ON expr | USING "(" columns ")"]
//	              | "," table_ref
//	join_type     → [INNER] | LEFT [OUTER] | RIGHT [OUTER] | FULL [OUTER] | CROSS

// parseFromClause parses the FROM clause.
func (p *Parser) parseFromClause() *FromClause {
	from := &FromClause{}
	from.Source = p.parseTableRef()

	for {
		join := p.parseJoin()
		if join == nil {
			break
		}
		from.Joins = append(from.Joins, join)
	}

	return from
}

// parseTableRef parses a table reference.
func (p *Parser) parseTableRef() TableRef {
	// Derived table (subquery)
	if p.check(TOKEN_LPAREN) {
		return p.parseDerivedTable()
	}

	// Simple table name
	return p.parseTableName()
}

// parseTableName parses a table name with optional schema/catalog and alias.
func (p *Parser) parseTableName() *TableName {
	table := p.parseQualifiedName()

	// Optional alias
	if p.match(TOKEN_AS) {
		table.Alias = p.expectIdent("alias")
	} else if p.check(TOKEN_IDENT) {
		table.Alias = p.token.Literal
		p.nextToken()
	}

	return table
}

// parseDerivedTable parses a derived table (subquery in FROM).
func (p *Parser) parseDerivedTable() *DerivedTable {
	p.expect(TOKEN_LPAREN)
	derived := &DerivedTable{}
	derived.Select = p.parseSelectStmt()
	p.expect(TOKEN_RPAREN)

	// Alias is conventionally required for derived tables, but some
	// dialects accept its absence; tolerate either.
	if p.match(TOKEN_AS) {
		derived.Alias = p.expectIdent("alias")
	} else if p.check(TOKEN_IDENT) {
		derived.Alias = p.token.Literal
		p.nextToken()
	}

	return derived
}

// parseJoin parses a single JOIN clause. Returns nil if the current token
// does not begin a join.
func (p *Parser) parseJoin() *Join {
	// Comma join: FROM a, b
	if p.match(TOKEN_COMMA) {
		return &Join{Type: JoinCross, Right: p.parseTableRef()}
	}

	var joinType JoinType
	switch p.token.Type {
	case TOKEN_JOIN:
		joinType = JoinInner
		p.nextToken()
	case TOKEN_INNER:
		joinType = JoinInner
		p.nextToken()
		p.expect(TOKEN_JOIN)
	case TOKEN_LEFT:
		joinType = JoinLeft
		p.nextToken()
		p.match(TOKEN_OUTER)
		p.expect(TOKEN_JOIN)
	case TOKEN_RIGHT:
		joinType = JoinRight
		p.nextToken()
		p.match(TOKEN_OUTER)
		p.expect(TOKEN_JOIN)
	case TOKEN_FULL:
		joinType = JoinFull
		p.nextToken()
		p.match(TOKEN_OUTER)
		p.expect(TOKEN_JOIN)
	case TOKEN_CROSS:
		joinType = JoinCross
		p.nextToken()
		p.expect(TOKEN_JOIN)
	default:
		return nil
	}

	join := &Join{Type: joinType}
	join.Right = p.parseTableRef()

	if p.match(TOKEN_ON) {
		join.On = p.parseExpr()
	} else if p.match(TOKEN_USING) {
		p.expect(TOKEN_LPAREN)
		join.Using = p.parseIdentList()
		p.expect(TOKEN_RPAREN)
	}

	return join
}
