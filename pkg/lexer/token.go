package lexer

import (
	"fmt"
	"sort"
)

// Kind classifies a token.
type Kind int

const (
	EOF Kind = iota
	Keyword
	TypeName
	Identifier
	Int
	Float
	String
	Operator
	Punctuation
	Comment
)

func (k Kind) String() string {
	switch k {
	case EOF:
		return "end of file"
	case Keyword:
		return "keyword"
	case TypeName:
		return "type name"
	case Identifier:
		return "identifier"
	case Int:
		return "integer literal"
	case Float:
		return "float literal"
	case String:
		return "string literal"
	case Operator:
		return "operator"
	case Punctuation:
		return "punctuation"
	case Comment:
		return "comment"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Token is a lexical unit with its source position. Lexeme is the raw source
// text; Value carries the decoded contents of string literals.
type Token struct {
	Kind   Kind
	Lexeme string
	Value  string
	Line   int
	Column int
	Offset int
}

// Is reports whether the token has the given kind and lexeme.
func (t Token) Is(kind Kind, lexeme string) bool {
	return t.Kind == kind && t.Lexeme == lexeme
}

func (t Token) String() string {
	switch t.Kind {
	case EOF:
		return "end of file"
	case String:
		return fmt.Sprintf("string %s", t.Lexeme)
	case Identifier:
		return fmt.Sprintf("identifier '%s'", t.Lexeme)
	default:
		return fmt.Sprintf("'%s'", t.Lexeme)
	}
}

var keywords = map[string]struct{}{
	"let":      {},
	"const":    {},
	"fn":       {},
	"return":   {},
	"if":       {},
	"elif":     {},
	"else":     {},
	"for":      {},
	"in":       {},
	"while":    {},
	"loop":     {},
	"break":    {},
	"continue": {},
	"spawn":    {},
	"wait":     {},
	"del":      {},
	"import":   {},
	"as":       {},
	"and":      {},
	"or":       {},
	"not":      {},
	"True":     {},
	"False":    {},
	"None":     {},
}

var typeNames = map[string]struct{}{
	"Int":      {},
	"Float":    {},
	"String":   {},
	"Bool":     {},
	"Array":    {},
	"Tuple":    {},
	"HashMap":  {},
	"Function": {},
	"Task":     {},
	"Any":      {},
}

// Keywords returns the reserved words in sorted order.
func Keywords() []string {
	words := make([]string, 0, len(keywords))
	for word := range keywords {
		words = append(words, word)
	}
	sort.Strings(words)
	return words
}

// LexError reports a malformed token.
type LexError struct {
	Line    int
	Column  int
	Message string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lex error at %d:%d: %s", e.Line, e.Column, e.Message)
}

// Position returns the 1-based line and column of the error.
func (e *LexError) Position() (int, int) { return e.Line, e.Column }
