package lexer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Option configures a Lexer.
type Option func(*Lexer)

// WithComments makes the lexer emit Comment tokens instead of dropping them.
func WithComments() Option {
	return func(l *Lexer) { l.keepComments = true }
}

// Lexer scans nikl source into tokens. It is restartable through Reset.
type Lexer struct {
	src          string
	keepComments bool

	start int
	cur   int
	line  int
	col   int

	tokLine int
	tokCol  int
}

// New creates a lexer over src.
func New(src string, opts ...Option) *Lexer {
	l := &Lexer{src: src}
	for _, opt := range opts {
		opt(l)
	}
	l.Reset()
	return l
}

// Reset rewinds the lexer to the start of its source.
func (l *Lexer) Reset() {
	l.start = 0
	l.cur = 0
	l.line = 1
	l.col = 1
}

// Tokenize returns every token of src, terminated by a single EOF token.
func Tokenize(src string, opts ...Option) ([]Token, error) {
	l := New(src, opts...)
	var out []Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
		if tok.Kind == EOF {
			return out, nil
		}
	}
}

func (l *Lexer) atEnd() bool { return l.cur >= len(l.src) }

func (l *Lexer) peek() rune {
	if l.atEnd() {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.src[l.cur:])
	return r
}

func (l *Lexer) peekNext() rune {
	if l.atEnd() {
		return 0
	}
	_, size := utf8.DecodeRuneInString(l.src[l.cur:])
	if l.cur+size >= len(l.src) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.src[l.cur+size:])
	return r
}

func (l *Lexer) advance() rune {
	r, size := utf8.DecodeRuneInString(l.src[l.cur:])
	l.cur += size
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *Lexer) match(expected rune) bool {
	if l.peek() != expected || l.atEnd() {
		return false
	}
	l.advance()
	return true
}

func (l *Lexer) errorf(format string, args ...any) error {
	return &LexError{Line: l.tokLine, Column: l.tokCol, Message: fmt.Sprintf(format, args...)}
}

func (l *Lexer) emit(kind Kind) Token {
	return Token{
		Kind:   kind,
		Lexeme: l.src[l.start:l.cur],
		Line:   l.tokLine,
		Column: l.tokCol,
		Offset: l.start,
	}
}

// Next returns the next token. Once the end of input is reached it keeps
// returning the EOF token.
func (l *Lexer) Next() (Token, error) {
	for {
		l.skipWhitespace()
		l.start = l.cur
		l.tokLine = l.line
		l.tokCol = l.col
		if l.atEnd() {
			return Token{Kind: EOF, Line: l.line, Column: l.col, Offset: l.cur}, nil
		}
		tok, skip, err := l.scan()
		if err != nil {
			return Token{}, err
		}
		if skip {
			continue
		}
		return tok, nil
	}
}

func (l *Lexer) skipWhitespace() {
	for !l.atEnd() {
		switch l.peek() {
		case ' ', '\t', '\r', '\n':
			l.advance()
		default:
			return
		}
	}
}

func (l *Lexer) scan() (Token, bool, error) {
	r := l.advance()
	switch r {
	case '(', ')', '{', '}', '[', ']', ',', ':', ';', '.':
		return l.emit(Punctuation), false, nil
	case '+', '*', '%':
		return l.emit(Operator), false, nil
	case '-':
		l.match('>')
		return l.emit(Operator), false, nil
	case '=', '<', '>':
		l.match('=')
		return l.emit(Operator), false, nil
	case '!':
		if l.match('=') {
			return l.emit(Operator), false, nil
		}
		return Token{}, false, l.errorf("unexpected character '!'")
	case '/':
		switch {
		case l.match('/'):
			for !l.atEnd() && l.peek() != '\n' {
				l.advance()
			}
			return l.emit(Comment), !l.keepComments, nil
		case l.match('*'):
			if err := l.blockComment(); err != nil {
				return Token{}, false, err
			}
			return l.emit(Comment), !l.keepComments, nil
		}
		return l.emit(Operator), false, nil
	case '"':
		tok, err := l.stringLiteral()
		return tok, false, err
	}
	switch {
	case isDigit(r):
		tok, err := l.number()
		return tok, false, err
	case isIdentStart(r):
		return l.identifier(), false, nil
	}
	return Token{}, false, l.errorf("unexpected character %q", r)
}

func (l *Lexer) blockComment() error {
	for !l.atEnd() {
		if l.peek() == '*' && l.peekNext() == '/' {
			l.advance()
			l.advance()
			return nil
		}
		l.advance()
	}
	return l.errorf("unterminated block comment")
}

func (l *Lexer) stringLiteral() (Token, error) {
	var sb strings.Builder
	for {
		if l.atEnd() || l.peek() == '\n' {
			return Token{}, l.errorf("unterminated string literal")
		}
		r := l.advance()
		if r == '"' {
			break
		}
		if r != '\\' {
			sb.WriteRune(r)
			continue
		}
		if l.atEnd() {
			return Token{}, l.errorf("unterminated string literal")
		}
		esc := l.advance()
		switch esc {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case '0':
			sb.WriteByte(0)
		case '"':
			sb.WriteByte('"')
		case '\\':
			sb.WriteByte('\\')
		default:
			return Token{}, l.errorf("invalid escape sequence '\\%c'", esc)
		}
	}
	tok := l.emit(String)
	tok.Value = sb.String()
	return tok, nil
}

func (l *Lexer) number() (Token, error) {
	for isDigit(l.peek()) {
		l.advance()
	}
	kind := Int
	if l.peek() == '.' && !isDigit(l.peekNext()) {
		l.advance()
		return Token{}, l.errorf("malformed numeric literal '%s'", l.src[l.start:l.cur])
	}
	if l.peek() == '.' {
		kind = Float
		l.advance()
		for isDigit(l.peek()) {
			l.advance()
		}
		if l.peek() == '.' && isDigit(l.peekNext()) {
			l.advance()
			l.consumeMalformedTail()
			return Token{}, l.errorf("malformed numeric literal '%s'", l.src[l.start:l.cur])
		}
	}
	if isIdentStart(l.peek()) {
		l.consumeMalformedTail()
		return Token{}, l.errorf("malformed numeric literal '%s'", l.src[l.start:l.cur])
	}
	tok := l.emit(kind)
	if kind == Int {
		if _, err := strconv.ParseInt(tok.Lexeme, 10, 64); err != nil {
			return Token{}, l.errorf("integer literal '%s' out of range", tok.Lexeme)
		}
	}
	return tok, nil
}

func (l *Lexer) consumeMalformedTail() {
	for r := l.peek(); isIdentPart(r) || r == '.'; r = l.peek() {
		l.advance()
	}
}

func (l *Lexer) identifier() Token {
	for isIdentPart(l.peek()) {
		l.advance()
	}
	word := l.src[l.start:l.cur]
	if _, ok := keywords[word]; ok {
		return l.emit(Keyword)
	}
	if _, ok := typeNames[word]; ok {
		return l.emit(TypeName)
	}
	return l.emit(Identifier)
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentPart(r rune) bool { return isIdentStart(r) || isDigit(r) }
