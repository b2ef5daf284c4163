package parser

import (
	"fmt"

	"nikl/interpreter-go/pkg/ast"
	"nikl/interpreter-go/pkg/lexer"
)

// ParseError reports the first grammar violation. Parsing never recovers.
type ParseError struct {
	Line     int
	Column   int
	Expected string
	Found    string
	// AtEOF is set when the violation is the end of input, which front-ends
	// use to ask for more lines.
	AtEOF bool
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d:%d: expected %s, found %s", e.Line, e.Column, e.Expected, e.Found)
}

// Position returns the 1-based line and column of the error.
func (e *ParseError) Position() (int, int) { return e.Line, e.Column }

// Parser is a recursive-descent parser over a token slice.
type Parser struct {
	tokens []lexer.Token
	pos    int
}

// New constructs a parser over tokens. The slice must end with an EOF token.
func New(tokens []lexer.Token) *Parser {
	if len(tokens) == 0 || tokens[len(tokens)-1].Kind != lexer.EOF {
		tokens = append(tokens, lexer.Token{Kind: lexer.EOF})
	}
	return &Parser{tokens: tokens}
}

// Parse lexes and parses src into a program. Lex errors are returned as
// *lexer.LexError.
func Parse(src string) (*ast.Program, error) {
	tokens, err := lexer.Tokenize(src)
	if err != nil {
		return nil, err
	}
	return ParseTokens(tokens)
}

// ParseTokens parses an already lexed token sequence.
func ParseTokens(tokens []lexer.Token) (*ast.Program, error) {
	return New(tokens).ParseProgram()
}

// ParseProgram parses statements until the end of input.
func (p *Parser) ParseProgram() (*ast.Program, error) {
	start := p.peek()
	body := make([]ast.Statement, 0)
	for !p.AtEnd() {
		stmt, err := p.ParseStatement()
		if err != nil {
			return nil, err
		}
		body = append(body, stmt)
	}
	prog := ast.NewProgram(body)
	p.finish(prog, start)
	return prog, nil
}

// AtEnd reports whether only the EOF token remains.
func (p *Parser) AtEnd() bool {
	return p.peek().Kind == lexer.EOF
}

// Token helpers.

func (p *Parser) peek() lexer.Token {
	return p.tokens[p.pos]
}

func (p *Parser) peekAt(offset int) lexer.Token {
	idx := p.pos + offset
	if idx >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[idx]
}

func (p *Parser) previous() lexer.Token {
	if p.pos == 0 {
		return p.tokens[0]
	}
	return p.tokens[p.pos-1]
}

func (p *Parser) advance() lexer.Token {
	tok := p.tokens[p.pos]
	if tok.Kind != lexer.EOF {
		p.pos++
	}
	return tok
}

func (p *Parser) check(kind lexer.Kind, lexeme string) bool {
	return p.peek().Is(kind, lexeme)
}

func (p *Parser) checkKeyword(word string) bool {
	return p.check(lexer.Keyword, word)
}

func (p *Parser) checkPunct(punct string) bool {
	return p.check(lexer.Punctuation, punct)
}

func (p *Parser) checkOperator(op string) bool {
	return p.check(lexer.Operator, op)
}

func (p *Parser) matchKeyword(word string) bool {
	if p.checkKeyword(word) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) matchPunct(punct string) bool {
	if p.checkPunct(punct) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) matchOperator(ops ...string) (string, bool) {
	for _, op := range ops {
		if p.checkOperator(op) {
			p.advance()
			return op, true
		}
	}
	return "", false
}

func (p *Parser) expectPunct(punct string) (lexer.Token, error) {
	if !p.checkPunct(punct) {
		return lexer.Token{}, p.errorExpected(fmt.Sprintf("'%s'", punct))
	}
	return p.advance(), nil
}

func (p *Parser) expectKeyword(word string) (lexer.Token, error) {
	if !p.checkKeyword(word) {
		return lexer.Token{}, p.errorExpected(fmt.Sprintf("'%s'", word))
	}
	return p.advance(), nil
}

func (p *Parser) expectIdentifier() (*ast.Identifier, error) {
	tok := p.peek()
	if tok.Kind != lexer.Identifier {
		return nil, p.errorExpected("identifier")
	}
	p.advance()
	id := ast.NewIdentifier(tok.Lexeme)
	p.finish(id, tok)
	return id, nil
}

func (p *Parser) errorExpected(expected string) error {
	return errorAt(p.peek(), expected)
}

func errorAt(tok lexer.Token, expected string) error {
	return &ParseError{
		Line:     tok.Line,
		Column:   tok.Column,
		Expected: expected,
		Found:    tok.String(),
		AtEOF:    tok.Kind == lexer.EOF,
	}
}

// sameLine reports whether the next token starts on the line the previous
// token ended on. Calls and indexing must not span a line break so that a
// parenthesised statement is never glued onto the one before it.
func (p *Parser) sameLine() bool {
	return p.peek().Line == endPosition(p.previous()).Line
}
