package parser

import (
	"unicode/utf8"

	"nikl/interpreter-go/pkg/ast"
	"nikl/interpreter-go/pkg/lexer"
)

func startPosition(tok lexer.Token) ast.Position {
	return ast.Position{Line: tok.Line, Column: tok.Column}
}

func endPosition(tok lexer.Token) ast.Position {
	return ast.Position{Line: tok.Line, Column: tok.Column + utf8.RuneCountInString(tok.Lexeme)}
}

// finish stamps node with a span from start to the last consumed token.
func (p *Parser) finish(node ast.Node, start lexer.Token) {
	end := p.previous()
	if p.pos == 0 {
		end = start
	}
	ast.SetSpan(node, ast.Span{Start: startPosition(start), End: endPosition(end)})
}

// finishFrom stamps node with a span starting at an existing node.
func (p *Parser) finishFrom(node ast.Node, first ast.Node) {
	span := first.Span()
	span.End = endPosition(p.previous())
	ast.SetSpan(node, span)
}
