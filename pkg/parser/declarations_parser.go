package parser

import (
	"nikl/interpreter-go/pkg/ast"
	"nikl/interpreter-go/pkg/lexer"
)

func (p *Parser) parseFunctionDeclaration() (ast.Statement, error) {
	start := p.advance()
	name, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	params, returnType, body, err := p.parseFunctionRest()
	if err != nil {
		return nil, err
	}
	decl := ast.NewFunctionDeclaration(name, params, returnType, body)
	p.finish(decl, start)
	return decl, nil
}

func (p *Parser) parseFunctionLiteral() (ast.Expression, error) {
	start := p.advance()
	params, returnType, body, err := p.parseFunctionRest()
	if err != nil {
		return nil, err
	}
	lit := ast.NewFunctionLiteral(params, returnType, body)
	p.finish(lit, start)
	return lit, nil
}

// parseFunctionRest parses `(params) [-> Type] { body }`.
func (p *Parser) parseFunctionRest() ([]*ast.FunctionParameter, *ast.TypeAnnotation, *ast.BlockStatement, error) {
	params, err := p.parseParameters()
	if err != nil {
		return nil, nil, nil, err
	}
	var returnType *ast.TypeAnnotation
	if _, ok := p.matchOperator("->"); ok {
		if returnType, err = p.parseTypeAnnotation(); err != nil {
			return nil, nil, nil, err
		}
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, nil, nil, err
	}
	return params, returnType, body, nil
}

func (p *Parser) parseParameters() ([]*ast.FunctionParameter, error) {
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	params := make([]*ast.FunctionParameter, 0)
	seen := make(map[string]struct{})
	for !p.checkPunct(")") {
		start := p.peek()
		name, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		if _, dup := seen[name.Name]; dup {
			return nil, errorAt(start, "unique parameter name")
		}
		seen[name.Name] = struct{}{}
		var typ *ast.TypeAnnotation
		if p.matchPunct(":") {
			if typ, err = p.parseTypeAnnotation(); err != nil {
				return nil, err
			}
		}
		param := ast.NewFunctionParameter(name, typ)
		p.finish(param, start)
		params = append(params, param)
		if !p.matchPunct(",") {
			break
		}
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return params, nil
}

func (p *Parser) parseTypeAnnotation() (*ast.TypeAnnotation, error) {
	tok := p.peek()
	switch {
	case tok.Kind == lexer.TypeName, tok.Kind == lexer.Identifier, tok.Is(lexer.Keyword, "None"):
		p.advance()
		typ := ast.NewTypeAnnotation(tok.Lexeme)
		p.finish(typ, tok)
		return typ, nil
	}
	return nil, p.errorExpected("type name")
}
