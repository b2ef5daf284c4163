package parser

import (
	"nikl/interpreter-go/pkg/ast"
	"nikl/interpreter-go/pkg/lexer"
)

// ParseStatement parses one statement.
func (p *Parser) ParseStatement() (ast.Statement, error) {
	tok := p.peek()
	switch {
	case tok.Is(lexer.Keyword, "let"), tok.Is(lexer.Keyword, "const"):
		return p.parseVariableDeclaration()
	case tok.Is(lexer.Keyword, "fn") && p.peekAt(1).Kind == lexer.Identifier:
		return p.parseFunctionDeclaration()
	case tok.Is(lexer.Keyword, "if"):
		return p.parseIfStatement()
	case tok.Is(lexer.Keyword, "for"):
		return p.parseForStatement()
	case tok.Is(lexer.Keyword, "while"):
		return p.parseWhileStatement()
	case tok.Is(lexer.Keyword, "loop"):
		return p.parseLoopStatement()
	case tok.Is(lexer.Keyword, "break"):
		p.advance()
		stmt := ast.NewBreakStatement()
		p.finish(stmt, tok)
		p.matchPunct(";")
		return stmt, nil
	case tok.Is(lexer.Keyword, "continue"):
		p.advance()
		stmt := ast.NewContinueStatement()
		p.finish(stmt, tok)
		p.matchPunct(";")
		return stmt, nil
	case tok.Is(lexer.Keyword, "return"):
		return p.parseReturnStatement()
	case tok.Is(lexer.Keyword, "del"):
		return p.parseDeleteStatement()
	case tok.Is(lexer.Keyword, "import"):
		return p.parseImportStatement()
	case tok.Is(lexer.Punctuation, "{"):
		return p.parseBlock()
	case tok.Is(lexer.Punctuation, ";"):
		return nil, p.errorExpected("statement")
	}
	return p.parseExpressionStatement()
}

func (p *Parser) parseBlock() (*ast.BlockStatement, error) {
	start, err := p.expectPunct("{")
	if err != nil {
		return nil, err
	}
	body := make([]ast.Statement, 0)
	for !p.checkPunct("}") {
		if p.AtEnd() {
			return nil, p.errorExpected("'}'")
		}
		stmt, err := p.ParseStatement()
		if err != nil {
			return nil, err
		}
		body = append(body, stmt)
	}
	p.advance()
	block := ast.NewBlockStatement(body)
	p.finish(block, start)
	return block, nil
}

func (p *Parser) parseVariableDeclaration() (ast.Statement, error) {
	start := p.advance()
	name, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	var typ *ast.TypeAnnotation
	if p.matchPunct(":") {
		if typ, err = p.parseTypeAnnotation(); err != nil {
			return nil, err
		}
	}
	if _, ok := p.matchOperator("="); !ok {
		return nil, p.errorExpected("'='")
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	decl := ast.NewVariableDeclaration(start.Lexeme == "const", name, typ, value)
	p.finish(decl, start)
	p.matchPunct(";")
	return decl, nil
}

func (p *Parser) parseIfStatement() (ast.Statement, error) {
	start := p.advance()
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	var elifs []*ast.ElifClause
	for p.checkKeyword("elif") {
		elifTok := p.advance()
		elifCond, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		body, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		clause := ast.NewElifClause(elifCond, body)
		p.finish(clause, elifTok)
		elifs = append(elifs, clause)
	}
	var elseBody *ast.BlockStatement
	if p.matchKeyword("else") {
		if elseBody, err = p.parseBlock(); err != nil {
			return nil, err
		}
	}
	stmt := ast.NewIfStatement(cond, then, elifs, elseBody)
	p.finish(stmt, start)
	return stmt, nil
}

func (p *Parser) parseForStatement() (ast.Statement, error) {
	start := p.advance()
	vars, err := p.parseLoopVariables()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("in"); err != nil {
		return nil, err
	}
	iterable, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	stmt := ast.NewForStatement(vars, iterable, body)
	p.finish(stmt, start)
	return stmt, nil
}

// parseLoopVariables parses `a` or `a, b, ...` after `for`.
func (p *Parser) parseLoopVariables() ([]*ast.Identifier, error) {
	first, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	vars := []*ast.Identifier{first}
	for p.matchPunct(",") {
		next, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		vars = append(vars, next)
	}
	return vars, nil
}

func (p *Parser) parseWhileStatement() (ast.Statement, error) {
	start := p.advance()
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	stmt := ast.NewWhileStatement(cond, body)
	p.finish(stmt, start)
	return stmt, nil
}

func (p *Parser) parseLoopStatement() (ast.Statement, error) {
	start := p.advance()
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	stmt := ast.NewLoopStatement(body)
	p.finish(stmt, start)
	return stmt, nil
}

func (p *Parser) parseReturnStatement() (ast.Statement, error) {
	start := p.advance()
	var arg ast.Expression
	if !p.checkPunct(";") && !p.checkPunct("}") && !p.AtEnd() && p.sameLine() {
		var err error
		if arg, err = p.parseExpression(); err != nil {
			return nil, err
		}
	}
	stmt := ast.NewReturnStatement(arg)
	p.finish(stmt, start)
	p.matchPunct(";")
	return stmt, nil
}

func (p *Parser) parseDeleteStatement() (ast.Statement, error) {
	start := p.advance()
	name, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	stmt := ast.NewDeleteStatement(name)
	p.finish(stmt, start)
	p.matchPunct(";")
	return stmt, nil
}

func (p *Parser) parseImportStatement() (ast.Statement, error) {
	start := p.advance()
	module, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	var alias *ast.Identifier
	if p.matchKeyword("as") {
		if alias, err = p.expectIdentifier(); err != nil {
			return nil, err
		}
	}
	stmt := ast.NewImportStatement(module, alias)
	p.finish(stmt, start)
	p.matchPunct(";")
	return stmt, nil
}

func (p *Parser) parseExpressionStatement() (ast.Statement, error) {
	start := p.peek()
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, ok := p.matchOperator("="); ok {
		target, ok := expr.(ast.AssignmentTarget)
		if !ok {
			return nil, errorAt(start, "assignment target")
		}
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		stmt := ast.NewAssignmentStatement(target, value)
		p.finish(stmt, start)
		p.matchPunct(";")
		return stmt, nil
	}
	p.matchPunct(";")
	return expr, nil
}
