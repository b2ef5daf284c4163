package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/peterh/liner"

	"nikl/interpreter-go/pkg/driver"
	"nikl/interpreter-go/pkg/interpreter"
	"nikl/interpreter-go/pkg/lexer"
	"nikl/interpreter-go/pkg/parser"
	"nikl/interpreter-go/pkg/runtime"
)

const (
	historyFile = ".nikl_history"
	promptMain  = ">>> "
	promptCont  = "... "
)

// prompter is the part of liner the read loop needs.
type prompter interface {
	Prompt(prompt string) (string, error)
}

func (c *cli) runRepl(args []string) int {
	fs := flag.NewFlagSet("repl", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	logLevel := fs.String("log-level", "", "log level: debug, info, warn, error")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(c.stderr, "nikl repl does not take arguments (received %s)\n", strings.Join(fs.Args(), " "))
		return 1
	}
	manifest, err := loadManifestFrom(".")
	if err != nil {
		if !errors.Is(err, driver.ErrManifestNotFound) {
			fmt.Fprintf(c.stderr, "failed to load manifest: %v\n", err)
			return 1
		}
		manifest = nil
	}
	logger, err := c.newLogger(*logLevel, manifest)
	if err != nil {
		fmt.Fprintln(c.stderr, err)
		return 2
	}

	interp := c.newInterpreter(manifest, logger, nil)
	defer interp.Close()
	session := interp.NewSession()

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	ln.SetWordCompleter(func(line string, pos int) (string, []string, string) {
		return completeWord(line, pos, completionNames(session))
	})

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	fmt.Fprintf(c.stdout, "%s REPL\nCtrl+C cancels input, Ctrl+D exits.\n", cliToolVersion)
	ctx := context.Background()
	for {
		src, ok := readStatement(ln)
		if !ok {
			fmt.Fprintln(c.stdout)
			return 0
		}
		if strings.TrimSpace(src) == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))
		if code, done := c.evalReplInput(ctx, session, src); done {
			return code
		}
	}
}

// readStatement reads lines until they parse or the input is clearly
// invalid. An empty continuation line submits what was typed so far. It
// returns false at end of input.
func readStatement(p prompter) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := p.Prompt(prompt)
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}
		if b.Len() > 0 {
			if strings.TrimSpace(line) == "" {
				return b.String(), true
			}
			b.WriteByte('\n')
		}
		b.WriteString(line)
		src := b.String()
		if !incomplete(src) {
			return src, true
		}
	}
}

// incomplete reports whether src failed to parse only because it ended early.
func incomplete(src string) bool {
	_, err := parser.Parse(src)
	var perr *parser.ParseError
	return errors.As(err, &perr) && perr.AtEOF
}

// completionNames lists keywords and every name visible in the session,
// built-ins included.
func completionNames(session *interpreter.Session) []string {
	seen := map[string]bool{}
	var names []string
	add := func(words []string) {
		for _, w := range words {
			if !seen[w] {
				seen[w] = true
				names = append(names, w)
			}
		}
	}
	add(lexer.Keywords())
	for env := session.Env(); env != nil; env = env.Parent() {
		add(env.Keys())
	}
	sort.Strings(names)
	return names
}

// completeWord completes the identifier ending at pos, a rune offset into
// line, against names.
func completeWord(line string, pos int, names []string) (string, []string, string) {
	runes := []rune(line)
	if pos > len(runes) {
		pos = len(runes)
	}
	start := pos
	for start > 0 && (runes[start-1] == '_' || unicode.IsLetter(runes[start-1]) || unicode.IsDigit(runes[start-1])) {
		start--
	}
	head, prefix, tail := string(runes[:start]), string(runes[start:pos]), string(runes[pos:])
	if prefix == "" {
		return head, nil, tail
	}
	var matches []string
	for _, name := range names {
		if strings.HasPrefix(name, prefix) {
			matches = append(matches, name)
		}
	}
	return head, matches, tail
}

// evalReplInput evaluates one submission, printing its value or diagnostic.
// It reports true with the exit code once the script calls exit().
func (c *cli) evalReplInput(ctx context.Context, session *interpreter.Session, src string) (int, bool) {
	val, err := session.EvalStatement(ctx, src)
	if err != nil {
		if code, ok := interpreter.ExitCode(err); ok {
			return code, true
		}
		c.reportError(err, "", src)
		return 0, false
	}
	if val != nil && val != runtime.None {
		fmt.Fprintln(c.stdout, runtime.Inspect(val))
	}
	return 0, false
}

var _ prompter = (*liner.State)(nil)
