// Package diagnostics renders positioned lexer, parser and evaluation errors
// as a header line followed by a caret-annotated source snippet:
//
//	TypeError at main.nk:3:9: cannot apply '+' to Int and String
//	   3 | let x = 1 + "a"
//	     |         ^
//
// Errors that carry no position render as their plain message.
package diagnostics

import (
	"errors"
	"fmt"
	"strings"

	"nikl/interpreter-go/pkg/lexer"
	"nikl/interpreter-go/pkg/parser"
	"nikl/interpreter-go/pkg/runtime"
)

// Render formats err against src. filename may be empty.
func Render(err error, filename, src string) string {
	if err == nil {
		return ""
	}
	header, msg, line, col, ok := classify(err)
	if !ok || line <= 0 {
		return err.Error()
	}
	var b strings.Builder
	if filename != "" {
		fmt.Fprintf(&b, "%s at %s:%d:%d: %s\n", header, filename, line, col, msg)
	} else {
		fmt.Fprintf(&b, "%s at %d:%d: %s\n", header, line, col, msg)
	}
	writeSnippet(&b, src, line, col)
	return b.String()
}

func classify(err error) (header, msg string, line, col int, ok bool) {
	var lexErr *lexer.LexError
	if errors.As(err, &lexErr) {
		return "LexError", lexErr.Message, lexErr.Line, lexErr.Column, true
	}
	var parseErr *parser.ParseError
	if errors.As(err, &parseErr) {
		return "ParseError", fmt.Sprintf("expected %s, found %s", parseErr.Expected, parseErr.Found), parseErr.Line, parseErr.Column, true
	}
	var rtErr *runtime.Error
	if errors.As(err, &rtErr) {
		return rtErr.Kind.String(), rtErr.Message, rtErr.Line, rtErr.Column, true
	}
	return "", "", 0, 0, false
}

func writeSnippet(b *strings.Builder, src string, line, col int) {
	lines := strings.Split(src, "\n")
	if line > len(lines) {
		return
	}
	text := strings.TrimRight(lines[line-1], "\r")
	fmt.Fprintf(b, "%4d | %s\n", line, text)
	fmt.Fprintf(b, "     | %s^\n", caretPadding(text, col))
}

// caretPadding keeps tabs so the caret lines up under tab-indented code.
// Columns count runes.
func caretPadding(text string, col int) string {
	var pad strings.Builder
	n := 0
	for _, r := range text {
		if n >= col-1 {
			break
		}
		if r == '\t' {
			pad.WriteRune('\t')
		} else {
			pad.WriteByte(' ')
		}
		n++
	}
	for ; n < col-1; n++ {
		pad.WriteByte(' ')
	}
	return pad.String()
}
