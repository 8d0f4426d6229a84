// Package parser provides SQL parsing for lineage analysis.
//
// # Usage
//
//	stmt, err := parser.Parse("SELECT a, b FROM t")
//	if err != nil {
//	    // handle error (*parser.ParseError)
//	}
//
// # Grammar Overview
//
// The parser implements a recursive descent parser for the subset of SQL
// that table lineage needs:
//
//	statement     → [WITH cte_list] ( select_body
//	              | CREATE [OR REPLACE] TABLE|VIEW name [AS] statement
//	              | INSERT INTO name [(columns)] (select | VALUES rows) )
//	cte_list      → cte ("," cte)*
//	cte           → identifier [(columns)] AS "(" statement ")"
//	select_body   → select_core ((UNION|INTERSECT|EXCEPT) [ALL] select_body)*
//	select_core   → SELECT [DISTINCT] select_list [FROM from_clause]
//	                [WHERE expr] [GROUP BY expr_list] [HAVING expr]
//	                [ORDER BY order_list] [LIMIT expr [OFFSET expr]]
//
// See each file for detailed grammar rules for that section.
package parser

import "fmt"

// Parser parses SQL into an AST.
type Parser struct {
	lexer  *Lexer
	token  Token // current token
	peek   Token // lookahead token
	peek2  Token // second lookahead token
	errors []error
}

// NewParser creates a new parser for the given SQL input.
func NewParser(sql string) *Parser {
	p := &Parser{
		lexer: NewLexer(sql),
	}
	// Read three tokens to initialize current, peek, and peek2
	p.nextToken()
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses the SQL and returns the AST. The first error encountered
// is returned as a *ParseError.
func Parse(sql string) (Statement, error) {
	p := NewParser(sql)
	stmt := p.parseStatement()

	// Trailing semicolon is fine; anything else is not.
	p.match(TOKEN_SEMICOLON)
	if !p.check(TOKEN_EOF) {
		p.addError(fmt.Sprintf("unexpected trailing input %q", p.token.Literal))
	}

	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	return stmt, nil
}

// ---------- Token Helpers ----------

// nextToken advances to the next token. Lexical errors surface here so a
// malformed literal is reported at its own position rather than as a
// confusing downstream grammar error.
func (p *Parser) nextToken() {
	p.token = p.peek
	p.peek = p.peek2
	p.peek2 = p.lexer.NextToken()
	if p.peek2.Type == TOKEN_ILLEGAL {
		p.errors = append(p.errors, &ParseError{
			Pos:     p.peek2.Pos,
			Message: p.lexer.IllegalMessage(),
		})
	}
}

// check returns true if the current token is of the given type.
func (p *Parser) check(t TokenType) bool {
	return p.token.Type == t
}

// match consumes the current token if it is of the given type.
func (p *Parser) match(t TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	return false
}

// expect consumes the current token if it matches, or records an error.
func (p *Parser) expect(t TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	p.addError(fmt.Sprintf(ErrUnexpectedToken, describeToken(p.token), t.Name()))
	return false
}

// expectIdent consumes and returns an identifier, or records an error.
func (p *Parser) expectIdent(what string) string {
	if p.check(TOKEN_IDENT) {
		lit := p.token.Literal
		p.nextToken()
		return lit
	}
	p.addError(fmt.Sprintf("expected %s, got %s", what, describeToken(p.token)))
	return ""
}

// addError records a parse error at the current token position.
func (p *Parser) addError(msg string) {
	p.errors = append(p.errors, &ParseError{
		Pos:     p.token.Pos,
		Message: msg,
	})
}

// describeToken formats a token for error messages.
func describeToken(tok Token) string {
	if tok.Type == TOKEN_EOF {
		return "end of input"
	}
	if tok.Literal != "" {
		return fmt.Sprintf("%q", tok.Literal)
	}
	return tok.Type.Name()
}
