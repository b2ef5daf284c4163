package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/peterh/liner"

	"nikl/interpreter-go/pkg/driver"
)

type testCLI struct {
	*cli
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	env    map[string]string
}

func newTestCLI() *testCLI {
	tc := &testCLI{stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}, env: map[string]string{}}
	tc.cli = newCLI(strings.NewReader(""), tc.stdout, tc.stderr)
	tc.cli.getenv = func(key string) string { return tc.env[key] }
	return tc
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(strings.TrimLeft(contents, "\n")), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestVersionAndUnknownCommand(t *testing.T) {
	tc := newTestCLI()
	if code := tc.run([]string{"version"}); code != 0 || strings.TrimSpace(tc.stdout.String()) != cliToolVersion {
		t.Fatalf("version: code=%d out=%q", code, tc.stdout.String())
	}
	tc = newTestCLI()
	if code := tc.run([]string{"frobnicate"}); code != 2 || !strings.Contains(tc.stderr.String(), "Usage:") {
		t.Fatalf("unknown command: code=%d err=%q", code, tc.stderr.String())
	}
}

func TestRunFile(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "main.nk")
	writeFile(t, script, `
let parts = args()
print("sum", 1 + 2, len(parts), parts[0])
`)
	tc := newTestCLI()
	if code := tc.run([]string{script, "first", "second"}); code != 0 {
		t.Fatalf("exit code %d, stderr %q", code, tc.stderr.String())
	}
	if got := tc.stdout.String(); got != "sum 3 2 first\n" {
		t.Fatalf("unexpected stdout %q", got)
	}
}

func TestRunReportsDiagnostics(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "bad.nk")
	writeFile(t, script, "let a = 1\nlet b = a + \"x\"\n")
	tc := newTestCLI()
	if code := tc.run([]string{"run", script}); code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	want := "TypeError at " + script + ":2:9: cannot apply '+' to Int and String\n" +
		"   2 | let b = a + \"x\"\n" +
		"     |         ^\n"
	if got := tc.stderr.String(); got != want {
		t.Fatalf("stderr:\n%s\nwant:\n%s", got, want)
	}
}

func TestRunFetchesWithToolUserAgent(t *testing.T) {
	agents := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agents <- r.UserAgent()
		fmt.Fprint(w, "pong")
	}))
	defer server.Close()

	script := filepath.Join(t.TempDir(), "fetch.nk")
	writeFile(t, script, fmt.Sprintf("import net\nprint(net.fetch(%q))\n", server.URL))
	tc := newTestCLI()
	if code := tc.run([]string{script}); code != 0 {
		t.Fatalf("exit code %d, stderr %q", code, tc.stderr.String())
	}
	if got := tc.stdout.String(); got != "pong\n" {
		t.Fatalf("unexpected stdout %q", got)
	}
	if got := <-agents; got != "nikl/0.1.0-dev" {
		t.Fatalf("User-Agent = %q", got)
	}
}

func TestRunExitCode(t *testing.T) {
	script := filepath.Join(t.TempDir(), "exit.nk")
	writeFile(t, script, "print(\"bye\")\nexit(3)\nprint(\"unreachable\")\n")
	tc := newTestCLI()
	if code := tc.run([]string{script}); code != 3 {
		t.Fatalf("expected exit code 3, got %d", code)
	}
	if got := tc.stdout.String(); got != "bye\n" {
		t.Fatalf("unexpected stdout %q", got)
	}
}

func TestRunMissingFile(t *testing.T) {
	tc := newTestCLI()
	if code := tc.run([]string{"run", filepath.Join(t.TempDir(), "nope.nk")}); code != 1 {
		t.Fatalf("expected failure, got %d", code)
	}
	if !strings.Contains(tc.stderr.String(), "read ") {
		t.Fatalf("unexpected stderr %q", tc.stderr.String())
	}
}

func TestRunManifestMainWithDrain(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, driver.ManifestName), `
name: drained
main: src/main.nk
runtime:
  executor: serial
  drain_tasks: true
`)
	writeFile(t, filepath.Join(dir, "src", "main.nk"), `
fn later() {
    sleep(5)
    print("background done")
}
spawn later()
print("main done")
`)
	chdir(t, dir)
	tc := newTestCLI()
	if code := tc.run([]string{"run"}); code != 0 {
		t.Fatalf("exit code %d, stderr %q", code, tc.stderr.String())
	}
	if got := tc.stdout.String(); got != "main done\nbackground done\n" {
		t.Fatalf("unexpected stdout %q", got)
	}
}

func TestRunWithoutManifestOrFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	if _, err := driver.FindManifest(dir); err == nil {
		t.Skip("package.yml exists above the temp dir")
	}
	tc := newTestCLI()
	if code := tc.run([]string{"run"}); code != 1 || !strings.Contains(tc.stderr.String(), "requires a source file") {
		t.Fatalf("code=%d stderr=%q", code, tc.stderr.String())
	}
}

func TestInitCreatesRunnablePackage(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "demo-app")
	tc := newTestCLI()
	if code := tc.run([]string{"init", dir}); code != 0 {
		t.Fatalf("init failed: %d %q", code, tc.stderr.String())
	}
	manifest, err := driver.LoadManifest(filepath.Join(dir, driver.ManifestName))
	if err != nil {
		t.Fatalf("load generated manifest: %v", err)
	}
	if manifest.Name != "demo_app" || manifest.Main != "src/main.nk" {
		t.Fatalf("unexpected manifest %#v", manifest)
	}

	chdir(t, dir)
	tc = newTestCLI()
	if code := tc.run([]string{"run"}); code != 0 {
		t.Fatalf("run failed: %d %q", code, tc.stderr.String())
	}
	if got := tc.stdout.String(); got != "Hello from demo_app!\n" {
		t.Fatalf("unexpected greeting %q", got)
	}

	tc = newTestCLI()
	if code := tc.run([]string{"init", dir}); code != 1 || !strings.Contains(tc.stderr.String(), "already exists") {
		t.Fatalf("second init should fail: %d %q", code, tc.stderr.String())
	}
}

func TestInstallWithoutDependencies(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, driver.ManifestName), "name: app\n")
	chdir(t, dir)
	tc := newTestCLI()
	if code := tc.run([]string{"install"}); code != 0 {
		t.Fatalf("install failed: %d %q", code, tc.stderr.String())
	}
	if !strings.Contains(tc.stdout.String(), "0 dependencies installed") {
		t.Fatalf("unexpected stdout %q", tc.stdout.String())
	}
}

func TestLogLevelPrecedence(t *testing.T) {
	manifest := driver.NewManifest("app")
	manifest.Runtime.LogLevel = "error"
	ctx := context.Background()

	tc := newTestCLI()
	logger, err := tc.newLogger("", manifest)
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}
	if logger.Enabled(ctx, slog.LevelWarn) || !logger.Enabled(ctx, slog.LevelError) {
		t.Fatalf("manifest level should apply")
	}

	tc.env[logLevelEnv] = "info"
	logger, _ = tc.newLogger("", manifest)
	if !logger.Enabled(ctx, slog.LevelInfo) || logger.Enabled(ctx, slog.LevelDebug) {
		t.Fatalf("environment level should override manifest")
	}

	logger, _ = tc.newLogger("debug", manifest)
	if !logger.Enabled(ctx, slog.LevelDebug) {
		t.Fatalf("flag level should override environment")
	}

	logger, _ = tc.newLogger("", nil)
	if !logger.Enabled(ctx, slog.LevelWarn) || logger.Enabled(ctx, slog.LevelInfo) {
		t.Fatalf("default level should be warn")
	}

	if _, err := tc.newLogger("chatty", nil); err == nil {
		t.Fatalf("expected invalid level error")
	}
}

type scriptedPrompter struct {
	lines   []string
	prompts []string
}

func (p *scriptedPrompter) Prompt(prompt string) (string, error) {
	p.prompts = append(p.prompts, prompt)
	if len(p.lines) == 0 {
		return "", io.EOF
	}
	line := p.lines[0]
	p.lines = p.lines[1:]
	if line == "^C" {
		return "", liner.ErrPromptAborted
	}
	return line, nil
}

func TestReadStatementContinuation(t *testing.T) {
	p := &scriptedPrompter{lines: []string{"fn add(a, b) {", "return a + b", "}"}}
	src, ok := readStatement(p)
	if !ok || src != "fn add(a, b) {\nreturn a + b\n}" {
		t.Fatalf("unexpected statement %q %v", src, ok)
	}
	if strings.Join(p.prompts, "|") != promptMain+"|"+promptCont+"|"+promptCont {
		t.Fatalf("unexpected prompts %q", p.prompts)
	}
}

func TestReadStatementEndings(t *testing.T) {
	if _, ok := readStatement(&scriptedPrompter{}); ok {
		t.Fatalf("EOF should end the REPL")
	}
	src, ok := readStatement(&scriptedPrompter{lines: []string{"if True {", "^C"}})
	if !ok || src != "" {
		t.Fatalf("Ctrl-C should abort the pending input, got %q %v", src, ok)
	}
	src, ok = readStatement(&scriptedPrompter{lines: []string{"let x = (1,", ""}})
	if !ok || src != "let x = (1," {
		t.Fatalf("blank continuation line should submit, got %q %v", src, ok)
	}
	src, ok = readStatement(&scriptedPrompter{lines: []string{"let = 1"}})
	if !ok || src != "let = 1" {
		t.Fatalf("invalid input should submit immediately, got %q %v", src, ok)
	}
}

func TestEvalReplInput(t *testing.T) {
	tc := newTestCLI()
	logger, _ := tc.newLogger("", nil)
	interp := tc.newInterpreter(nil, logger, nil)
	defer interp.Close()
	session := interp.NewSession()
	ctx := context.Background()

	for _, src := range []string{"let x = 2", "x * 3", "\"hi\"", "x + \"s\""} {
		if _, done := tc.evalReplInput(ctx, session, src); done {
			t.Fatalf("%q should not end the session", src)
		}
	}
	if got := tc.stdout.String(); got != "6\n\"hi\"\n" {
		t.Fatalf("unexpected stdout %q", got)
	}
	if !strings.Contains(tc.stderr.String(), "TypeError at 1:1") {
		t.Fatalf("expected diagnostic, got %q", tc.stderr.String())
	}
	code, done := tc.evalReplInput(ctx, session, "exit(4)")
	if !done || code != 4 {
		t.Fatalf("exit should end the session with 4, got %d %v", code, done)
	}
}

func TestCompleteWord(t *testing.T) {
	names := []string{"print", "push", "range", "return", "wait", "while"}
	head, matches, tail := completeWord("let x = pr", 10, names)
	if head != "let x = " || tail != "" || strings.Join(matches, ",") != "print" {
		t.Fatalf("unexpected completion %q %v %q", head, matches, tail)
	}
	head, matches, tail = completeWord("wh(1)", 2, names)
	if head != "" || tail != "(1)" || strings.Join(matches, ",") != "while" {
		t.Fatalf("unexpected mid-line completion %q %v %q", head, matches, tail)
	}
	if _, matches, _ := completeWord("1 + ", 4, names); matches != nil {
		t.Fatalf("empty prefix should not complete, got %v", matches)
	}
	if head, matches, _ := completeWord("é pu", 4, names); head != "é " || strings.Join(matches, ",") != "push" {
		t.Fatalf("rune offsets mishandled: %q %v", head, matches)
	}
}

func TestCompletionNamesIncludeSessionBindings(t *testing.T) {
	tc := newTestCLI()
	logger, _ := tc.newLogger("", nil)
	interp := tc.newInterpreter(nil, logger, nil)
	defer interp.Close()
	session := interp.NewSession()
	if _, err := session.EvalStatement(context.Background(), "let counter = 1"); err != nil {
		t.Fatalf("eval: %v", err)
	}
	names := completionNames(session)
	for _, want := range []string{"counter", "print", "spawn"} {
		found := false
		for _, name := range names {
			found = found || name == want
		}
		if !found {
			t.Fatalf("%q missing from %v", want, names)
		}
	}
}

// chdir changes the working directory for the rest of the test and restores
// it on cleanup (a stand-in for testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
