package parser

import (
	"strconv"

	"nikl/interpreter-go/pkg/ast"
	"nikl/interpreter-go/pkg/lexer"
)

// Precedence climbing, loosest first: or, and, equality, relational,
// additive, multiplicative, unary, postfix, primary.

func (p *Parser) parseExpression() (ast.Expression, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (ast.Expression, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.matchKeyword("or") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = p.binary("or", left, right)
	}
	return left, nil
}

func (p *Parser) parseAnd() (ast.Expression, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.matchKeyword("and") {
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = p.binary("and", left, right)
	}
	return left, nil
}

func (p *Parser) parseEquality() (ast.Expression, error) {
	left, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.matchOperator("==", "!=")
		if !ok {
			return left, nil
		}
		right, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		left = p.binary(op, left, right)
	}
}

func (p *Parser) parseRelational() (ast.Expression, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.matchOperator("<", "<=", ">", ">=")
		if !ok {
			return left, nil
		}
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = p.binary(op, left, right)
	}
}

func (p *Parser) parseAdditive() (ast.Expression, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.matchOperator("+", "-")
		if !ok {
			return left, nil
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = p.binary(op, left, right)
	}
}

func (p *Parser) parseMultiplicative() (ast.Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.matchOperator("*", "/", "%")
		if !ok {
			return left, nil
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = p.binary(op, left, right)
	}
}

func (p *Parser) binary(op string, left, right ast.Expression) ast.Expression {
	expr := ast.NewBinaryExpression(op, left, right)
	p.finishFrom(expr, left)
	return expr
}

func (p *Parser) parseUnary() (ast.Expression, error) {
	start := p.peek()
	switch {
	case start.Is(lexer.Operator, "-"), start.Is(lexer.Keyword, "not"):
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		op := ast.UnaryOperatorNegate
		if start.Lexeme == "not" {
			op = ast.UnaryOperatorNot
		}
		expr := ast.NewUnaryExpression(op, operand)
		p.finish(expr, start)
		return expr, nil
	case start.Is(lexer.Keyword, "spawn"):
		p.advance()
		operandStart := p.peek()
		operand, err := p.parsePostfix()
		if err != nil {
			return nil, err
		}
		call, ok := operand.(*ast.FunctionCall)
		if !ok {
			return nil, errorAt(operandStart, "call expression")
		}
		expr := ast.NewSpawnExpression(call)
		p.finish(expr, start)
		return expr, nil
	case start.Is(lexer.Keyword, "wait"):
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		expr := ast.NewWaitExpression(operand)
		p.finish(expr, start)
		return expr, nil
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (ast.Expression, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.checkPunct("(") && p.sameLine():
			p.advance()
			args, err := p.parseExpressionList(")")
			if err != nil {
				return nil, err
			}
			call := ast.NewFunctionCall(expr, args)
			p.finishFrom(call, expr)
			expr = call
		case p.checkPunct("[") && p.sameLine():
			p.advance()
			index, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expectPunct("]"); err != nil {
				return nil, err
			}
			idx := ast.NewIndexExpression(expr, index)
			p.finishFrom(idx, expr)
			expr = idx
		case p.checkPunct("."):
			p.advance()
			member, err := p.expectIdentifier()
			if err != nil {
				return nil, err
			}
			access := ast.NewMemberAccessExpression(expr, member)
			p.finishFrom(access, expr)
			expr = access
		default:
			return expr, nil
		}
	}
}

// parseExpressionList parses comma separated expressions up to the closing
// punctuation, allowing a trailing comma.
func (p *Parser) parseExpressionList(closing string) ([]ast.Expression, error) {
	items := make([]ast.Expression, 0)
	for !p.checkPunct(closing) {
		item, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if !p.matchPunct(",") {
			break
		}
	}
	if _, err := p.expectPunct(closing); err != nil {
		return nil, err
	}
	return items, nil
}

func (p *Parser) parsePrimary() (ast.Expression, error) {
	tok := p.peek()
	switch tok.Kind {
	case lexer.Int:
		p.advance()
		value, err := strconv.ParseInt(tok.Lexeme, 10, 64)
		if err != nil {
			return nil, errorAt(tok, "integer literal")
		}
		return p.literal(ast.NewIntegerLiteral(value), tok), nil
	case lexer.Float:
		p.advance()
		value, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			return nil, errorAt(tok, "float literal")
		}
		return p.literal(ast.NewFloatLiteral(value), tok), nil
	case lexer.String:
		p.advance()
		return p.literal(ast.NewStringLiteral(tok.Value), tok), nil
	case lexer.Identifier:
		p.advance()
		id := ast.NewIdentifier(tok.Lexeme)
		p.finish(id, tok)
		return id, nil
	case lexer.Keyword:
		switch tok.Lexeme {
		case "True", "False":
			p.advance()
			return p.literal(ast.NewBooleanLiteral(tok.Lexeme == "True"), tok), nil
		case "None":
			p.advance()
			return p.literal(ast.NewNoneLiteral(), tok), nil
		case "fn":
			return p.parseFunctionLiteral()
		}
	case lexer.Punctuation:
		switch tok.Lexeme {
		case "(":
			return p.parseParenthesized()
		case "[":
			p.advance()
			elems, err := p.parseExpressionList("]")
			if err != nil {
				return nil, err
			}
			arr := ast.NewArrayLiteral(elems)
			p.finish(arr, tok)
			return arr, nil
		case "{":
			return p.parseMapLiteral()
		}
	}
	return nil, p.errorExpected("expression")
}

func (p *Parser) literal(lit ast.Expression, tok lexer.Token) ast.Expression {
	p.finish(lit, tok)
	return lit
}

// parseParenthesized handles grouping, the empty tuple and tuple literals.
func (p *Parser) parseParenthesized() (ast.Expression, error) {
	start := p.advance()
	if p.matchPunct(")") {
		tup := ast.NewTupleLiteral(nil)
		p.finish(tup, start)
		return tup, nil
	}
	first, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if p.matchPunct(")") {
		return first, nil
	}
	if _, err := p.expectPunct(","); err != nil {
		return nil, err
	}
	rest, err := p.parseExpressionList(")")
	if err != nil {
		return nil, err
	}
	tup := ast.NewTupleLiteral(append([]ast.Expression{first}, rest...))
	p.finish(tup, start)
	return tup, nil
}

func (p *Parser) parseMapLiteral() (ast.Expression, error) {
	start := p.advance()
	entries := make([]*ast.MapEntry, 0)
	seen := make(map[string]struct{})
	for !p.checkPunct("}") {
		keyTok := p.peek()
		key, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if sig, ok := literalKeySignature(key); ok {
			if _, dup := seen[sig]; dup {
				return nil, errorAt(keyTok, "unique map key")
			}
			seen[sig] = struct{}{}
		}
		if _, err := p.expectPunct(":"); err != nil {
			return nil, err
		}
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		entry := ast.NewMapEntry(key, value)
		p.finish(entry, keyTok)
		entries = append(entries, entry)
		if !p.matchPunct(",") {
			break
		}
	}
	if _, err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	m := ast.NewMapLiteral(entries)
	p.finish(m, start)
	return m, nil
}

func literalKeySignature(expr ast.Expression) (string, bool) {
	switch lit := expr.(type) {
	case *ast.StringLiteral:
		return "s:" + lit.Value, true
	case *ast.IntegerLiteral:
		return "i:" + strconv.FormatInt(lit.Value, 10), true
	case *ast.BooleanLiteral:
		return "b:" + strconv.FormatBool(lit.Value), true
	case *ast.NoneLiteral:
		return "n:", true
	}
	return "", false
}
