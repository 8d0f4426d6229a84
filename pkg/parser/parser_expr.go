package parser

import "fmt"

// Expression parsing with precedence climbing.
//
// Grammar (highest precedence last):
//
//	expr        → or_expr
//	or_expr     → and_expr (OR and_expr)*
//	and_expr    → not_expr (AND not_expr)*
//	not_expr    → [NOT] predicate
//	predicate   → additive [comparison | IN | BETWEEN | LIKE | IS [NOT] NULL]
//	additive    → multiplicative (("+"|"-"|"||") multiplicative)*
//	multiplicative → unary (("*"|"/"|"%") unary)*
//	unary       → ["-"] primary
//	primary     → literal | column_ref | function_call | CASE | CAST
//	            | EXISTS "(" statement ")" | "(" statement ")" | "(" expr ")"

// parseExpr parses a full expression.
func (p *Parser) parseExpr() Expr {
	return p.parseOrExpr()
}

func (p *Parser) parseOrExpr() Expr {
	left := p.parseAndExpr()
	for p.match(TOKEN_OR) {
		left = &BinaryExpr{Left: left, Op: "OR", Right: p.parseAndExpr()}
	}
	return left
}

func (p *Parser) parseAndExpr() Expr {
	left := p.parseNotExpr()
	for p.match(TOKEN_AND) {
		left = &BinaryExpr{Left: left, Op: "AND", Right: p.parseNotExpr()}
	}
	return left
}

func (p *Parser) parseNotExpr() Expr {
	if p.check(TOKEN_NOT) && p.peek.Type != TOKEN_EXISTS {
		p.nextToken()
		return &UnaryExpr{Op: "NOT", Expr: p.parseNotExpr()}
	}
	return p.parsePredicate()
}

// parsePredicate parses comparison operators and SQL predicates
// (IN, BETWEEN, LIKE, IS NULL).
func (p *Parser) parsePredicate() Expr {
	left := p.parseAdditive()

	for {
		switch p.token.Type {
		case TOKEN_EQ, TOKEN_NE, TOKEN_LT, TOKEN_GT, TOKEN_LE, TOKEN_GE:
			op := p.token.Literal
			p.nextToken()
			left = &BinaryExpr{Left: left, Op: op, Right: p.parseAdditive()}

		case TOKEN_LIKE:
			p.nextToken()
			left = &BinaryExpr{Left: left, Op: "LIKE", Right: p.parseAdditive()}

		case TOKEN_IS:
			p.nextToken()
			op := "IS NULL"
			if p.match(TOKEN_NOT) {
				op = "IS NOT NULL"
			}
			p.expect(TOKEN_NULL)
			left = &UnaryExpr{Op: op, Expr: left}

		case TOKEN_IN:
			left = p.parseInExpr(left, false)

		case TOKEN_BETWEEN:
			left = p.parseBetweenExpr(left, false)

		case TOKEN_NOT:
			// NOT IN / NOT BETWEEN / NOT LIKE
			switch p.peek.Type {
			case TOKEN_IN:
				p.nextToken()
				left = p.parseInExpr(left, true)
			case TOKEN_BETWEEN:
				p.nextToken()
				left = p.parseBetweenExpr(left, true)
			case TOKEN_LIKE:
				p.nextToken()
				p.nextToken()
				left = &BinaryExpr{Left: left, Op: "NOT LIKE", Right: p.parseAdditive()}
			default:
				return left
			}

		default:
			return left
		}
	}
}

// parseInExpr parses expr [NOT] IN (list | subquery). The NOT, if any, has
// already been consumed.
func (p *Parser) parseInExpr(left Expr, not bool) Expr {
	p.expect(TOKEN_IN)
	in := &InExpr{Expr: left, Not: not}

	p.expect(TOKEN_LPAREN)
	if p.check(TOKEN_SELECT) || p.check(TOKEN_WITH) {
		in.Select = p.parseSelectStmt()
	} else {
		for {
			in.List = append(in.List, p.parseExpr())
			if !p.match(TOKEN_COMMA) {
				break
			}
		}
	}
	p.expect(TOKEN_RPAREN)

	return in
}

// parseBetweenExpr parses expr [NOT] BETWEEN low AND high.
func (p *Parser) parseBetweenExpr(left Expr, not bool) Expr {
	p.expect(TOKEN_BETWEEN)
	between := &BetweenExpr{Expr: left, Not: not}
	between.Low = p.parseAdditive()
	p.expect(TOKEN_AND)
	between.High = p.parseAdditive()
	return between
}

func (p *Parser) parseAdditive() Expr {
	left := p.parseMultiplicative()
	for {
		switch p.token.Type {
		case TOKEN_PLUS, TOKEN_MINUS, TOKEN_DPIPE:
			op := p.token.Literal
			p.nextToken()
			left = &BinaryExpr{Left: left, Op: op, Right: p.parseMultiplicative()}
		default:
			return left
		}
	}
}

func (p *Parser) parseMultiplicative() Expr {
	left := p.parseUnary()
	for {
		switch p.token.Type {
		case TOKEN_STAR, TOKEN_SLASH, TOKEN_PERCENT:
			op := p.token.Literal
			p.nextToken()
			left = &BinaryExpr{Left: left, Op: op, Right: p.parseUnary()}
		default:
			return left
		}
	}
}

func (p *Parser) parseUnary() Expr {
	if p.match(TOKEN_MINUS) {
		return &UnaryExpr{Op: "-", Expr: p.parseUnary()}
	}
	return p.parsePrimary()
}

// parsePrimary parses a primary expression.
func (p *Parser) parsePrimary() Expr {
	switch p.token.Type {
	case TOKEN_NUMBER, TOKEN_STRING:
		lit := &Literal{Value: p.token.Literal}
		p.nextToken()
		return lit

	case TOKEN_TRUE, TOKEN_FALSE, TOKEN_NULL:
		lit := &Literal{Value: p.token.Literal}
		p.nextToken()
		return lit

	case TOKEN_CASE:
		return p.parseCaseExpr()

	case TOKEN_CAST:
		return p.parseCastExpr()

	case TOKEN_EXISTS:
		return p.parseExistsExpr(false)

	case TOKEN_NOT:
		if p.peek.Type == TOKEN_EXISTS {
			p.nextToken()
			return p.parseExistsExpr(true)
		}
		p.addError("unexpected NOT")
		p.nextToken()
		return &Literal{Value: "NULL"}

	case TOKEN_LPAREN:
		p.nextToken()
		// Subquery or parenthesized expression
		if p.check(TOKEN_SELECT) || p.check(TOKEN_WITH) {
			sub := &SubqueryExpr{Select: p.parseSelectStmt()}
			p.expect(TOKEN_RPAREN)
			return sub
		}
		inner := p.parseExpr()
		p.expect(TOKEN_RPAREN)
		return &ParenExpr{Expr: inner}

	case TOKEN_IDENT:
		return p.parseIdentExpr()

	default:
		p.addError(fmt.Sprintf("unexpected token %s in expression", describeToken(p.token)))
		p.nextToken()
		return &Literal{Value: "NULL"}
	}
}

// parseIdentExpr parses a column reference or function call starting at an
// identifier.
func (p *Parser) parseIdentExpr() Expr {
	name := p.token.Literal
	p.nextToken()

	// Function call
	if p.check(TOKEN_LPAREN) {
		return p.parseFuncCall(name)
	}

	// Qualified column: table.column
	if p.match(TOKEN_DOT) {
		column := p.expectIdent("column name")
		return &ColumnRef{Table: name, Column: column}
	}

	return &ColumnRef{Column: name}
}

// parseFuncCall parses a function call after the name has been consumed.
func (p *Parser) parseFuncCall(name string) Expr {
	p.expect(TOKEN_LPAREN)
	fn := &FuncCall{Name: name}

	if p.match(TOKEN_STAR) {
		fn.Star = true // COUNT(*)
		p.expect(TOKEN_RPAREN)
		return fn
	}

	if p.match(TOKEN_DISTINCT) {
		fn.Distinct = true
	}

	if !p.check(TOKEN_RPAREN) {
		for {
			fn.Args = append(fn.Args, p.parseExpr())
			if !p.match(TOKEN_COMMA) {
				break
			}
		}
	}
	p.expect(TOKEN_RPAREN)

	return fn
}

// parseCaseExpr parses a CASE expression.
func (p *Parser) parseCaseExpr() Expr {
	p.expect(TOKEN_CASE)
	caseExpr := &CaseExpr{}

	// Simple CASE has an operand before the first WHEN
	if !p.check(TOKEN_WHEN) {
		caseExpr.Operand = p.parseExpr()
	}

	for p.match(TOKEN_WHEN) {
		when := &WhenClause{}
		when.Cond = p.parseExpr()
		p.expect(TOKEN_THEN)
		when.Then = p.parseExpr()
		caseExpr.Whens = append(caseExpr.Whens, when)
	}

	if p.match(TOKEN_ELSE) {
		caseExpr.Else = p.parseExpr()
	}

	p.expect(TOKEN_END)
	return caseExpr
}

// parseCastExpr parses CAST(expr AS type).
func (p *Parser) parseCastExpr() Expr {
	p.expect(TOKEN_CAST)
	p.expect(TOKEN_LPAREN)
	cast := &CastExpr{}
	cast.Expr = p.parseExpr()
	p.expect(TOKEN_AS)
	cast.Type = p.parseTypeName()
	p.expect(TOKEN_RPAREN)
	return cast
}

// parseTypeName parses a type name, including parameterized forms like
// DECIMAL(10, 2).
func (p *Parser) parseTypeName() string {
	name := p.expectIdent("type name")
	// Multi-word types (DOUBLE PRECISION, CHARACTER VARYING)
	for p.check(TOKEN_IDENT) {
		name += " " + p.token.Literal
		p.nextToken()
	}
	if p.match(TOKEN_LPAREN) {
		for !p.check(TOKEN_RPAREN) && !p.check(TOKEN_EOF) {
			p.nextToken()
		}
		p.expect(TOKEN_RPAREN)
	}
	return name
}

// parseExistsExpr parses [NOT] EXISTS (subquery). The NOT, if any, has
// already been consumed.
func (p *Parser) parseExistsExpr(not bool) Expr {
	p.expect(TOKEN_EXISTS)
	p.expect(TOKEN_LPAREN)
	exists := &ExistsExpr{Not: not}
	exists.Select = p.parseSelectStmt()
	p.expect(TOKEN_RPAREN)
	return exists
}
