package interpreter

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"nikl/interpreter-go/pkg/ast"
	"nikl/interpreter-go/pkg/parser"
	"nikl/interpreter-go/pkg/runtime"
)

func TestArithmeticPrecedence(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	got := mustRun(t, interp, "1 + 2 * 3")
	if iv, ok := got.(runtime.IntValue); !ok || iv.Val != 7 {
		t.Fatalf("expected 7, got %#v", got)
	}
}

func TestEvaluatesProgramBuiltFromNodes(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	prog := ast.Prog(
		ast.Let("x", ast.Int(2)),
		ast.Fn("double", ast.Params("n"), ast.Ret(ast.Bin("*", ast.ID("n"), ast.Int(2)))),
		ast.Bin("+", ast.Call("double", ast.ID("x")), ast.Int(38)),
	)
	expectInspect(t, mustEvalProgram(t, interp, prog), "42")
}

func TestArrayAliasing(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	got := mustRun(t, interp, `
let a = [1, 2, 3]
let b = a
b[0] = 99
a[0]
`)
	expectInspect(t, got, "99")
}

func TestMapAliasingThroughFunctionArgument(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	got := mustRun(t, interp, `
fn tag(m) { m["seen"] = True }
let m = {"a": 1}
tag(m)
m
`)
	expectInspect(t, got, `{"a": 1, "seen": True}`)
}

func TestLenCounts(t *testing.T) {
	cases := map[string]string{
		`len([1, 2, 3])`:        "3",
		`len({"a": 1, "b": 2})`: "2",
		`len((1, 2))`:           "2",
		`len("héllo")`:          "5",
	}
	for src, want := range cases {
		interp, _ := newTestInterpreter(t)
		expectInspect(t, mustRun(t, interp, src), want)
	}
}

func TestUndefinedIdentifierIsNameError(t *testing.T) {
	interp, out := newTestInterpreter(t)
	rerr := runError(t, interp, "print(never_declared)")
	if rerr.Kind != runtime.NameError {
		t.Fatalf("expected NameError, got %v", rerr)
	}
	if !errors.Is(rerr, runtime.ErrUndefined) {
		t.Fatalf("expected ErrUndefined in chain: %v", rerr)
	}
	if line, col := rerr.Position(); line != 1 || col != 7 {
		t.Fatalf("expected position 1:7, got %d:%d", line, col)
	}
	if out.String() != "" {
		t.Fatalf("expected no output, got %q", out.String())
	}
}

func TestGreetingScenario(t *testing.T) {
	interp, out := newTestInterpreter(t)
	mustRun(t, interp, `let greeting = "Hi"; fn greet(u) { print(greeting, u) } for u in ["A","B"] { greet(u) }`)
	if got := out.String(); got != "Hi A\nHi B\n" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestClosuresCaptureDefinitionScope(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	got := mustRun(t, interp, `
fn counter() {
  let n = 0
  return fn() {
    n = n + 1
    return n
  }
}
let next = counter()
let n = 100
next()
next()
`)
	expectInspect(t, got, "2")
}

func TestReturnUnwindsToNearestFunction(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	got := mustRun(t, interp, `
fn find(items, target) {
  for x in items {
    while True {
      if x == target { return x * 10 }
      break
    }
  }
  return -1
}
(find([1, 2, 3], 2), find([1], 5))
`)
	expectInspect(t, got, "(20, -1)")
}

func TestLoopBreakAndContinue(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	got := mustRun(t, interp, `
let i = 0
let odd = []
loop {
  i = i + 1
  if i > 7 { break }
  if i % 2 == 0 { continue }
  push(odd, i)
}
odd
`)
	expectInspect(t, got, "[1, 3, 5, 7]")
}

func TestIfElifElse(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	got := mustRun(t, interp, `
fn grade(n) {
  if n >= 90 { return "A" } elif n >= 80 { return "B" } else { return "C" }
}
[grade(95), grade(85), grade(10)]
`)
	expectInspect(t, got, `["A", "B", "C"]`)
}

func TestForOverHashMapBindsEntries(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	got := mustRun(t, interp, `
let m = {"a": 1, "b": 2}
let out = []
for k, v in m { push(out, k + str(v)) }
for entry in m { push(out, entry[0]) }
join(out, ",")
`)
	expectInspect(t, got, `"a1,b2,a,b"`)
}

func TestForSnapshotsArray(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	got := mustRun(t, interp, `
let a = [1, 2]
for x in a { push(a, x) }
a
`)
	expectInspect(t, got, "[1, 2, 1, 2]")
}

func TestBlocksScopeBindings(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	got := mustRun(t, interp, `
let x = 1
{
  let x = 2
  x = 3
}
x
`)
	expectInspect(t, got, "1")
}

func TestArithmeticSemantics(t *testing.T) {
	cases := map[string]string{
		"7 / 2":              "3",
		"-7 / 2":             "-3",
		"7 % 3":              "1",
		"7 / 2.0":            "3.5",
		"1.0 / 4":            "0.25",
		`"ab" + "cd"`:        `"abcd"`,
		`"ab" * 3`:           `"ababab"`,
		"[1] + [2, 3]":       "[1, 2, 3]",
		"2 == 2.0":           "True",
		`"a" < "b"`:          "True",
		"not (1 < 2)":        "False",
		"True or 1 / 0 == 1": "True",
		"False and x":        "False",
	}
	for src, want := range cases {
		interp, _ := newTestInterpreter(t)
		expectInspect(t, mustRun(t, interp, src), want)
	}
}

func TestIntOverflowWraps(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	expectInspect(t, mustRun(t, interp, "9223372036854775807 + 1"), "-9223372036854775808")
}

func TestEvaluationErrors(t *testing.T) {
	cases := []struct {
		src     string
		kind    runtime.ErrorKind
		message string
	}{
		{`1 + "a"`, runtime.TypeError, "cannot apply '+' to Int and String"},
		{"1 / 0", runtime.RuntimeError, "division by zero"},
		{"5 % 0", runtime.RuntimeError, "modulo by zero"},
		{"if 1 { }", runtime.TypeError, "if condition must be Bool, got Int"},
		{"1 and True", runtime.TypeError, "'and' requires Bool operands, got Int"},
		{"[1, 2][5]", runtime.RuntimeError, "index 5 out of bounds for Array of length 2"},
		{"(1, 2)[-1]", runtime.RuntimeError, "tuple index -1 out of range (length 2)"},
		{"let m = {\"a\": 1}\nm[\"b\"]", runtime.RuntimeError, `key "b" not found`},
		{"let t = (1, 2)\nt[0] = 5", runtime.TypeError, "Tuple does not support item assignment"},
		{"let s = 5\ns()", runtime.TypeError, "Int is not callable"},
		{"fn f(a) { a }\nf(1, 2)", runtime.TypeError, "function 'f' expects 1 arguments, got 2"},
		{"for x in 5 { }", runtime.TypeError, "Int is not iterable"},
		{"const c = 1\nc = 2", runtime.RuntimeError, "cannot assign to constant 'c'"},
		{"y = 1", runtime.NameError, "undefined variable 'y'"},
		{"let x = 1\ndel x\nx", runtime.NameError, "undefined variable 'x'"},
		{"return 1", runtime.RuntimeError, "'return' outside function"},
		{"break", runtime.RuntimeError, "'break' outside loop"},
		{"import nope", runtime.NameError, "unknown module 'nope'"},
		{"wait 5", runtime.TypeError, "cannot wait on Int"},
		{"let m = {}\nm[[1]] = 2", runtime.TypeError, "unhashable key type Array"},
	}
	for _, tc := range cases {
		interp, _ := newTestInterpreter(t)
		rerr := runError(t, interp, tc.src)
		if rerr.Kind != tc.kind || rerr.Message != tc.message {
			t.Fatalf("source %q: got %v (%s), want %v: %s", tc.src, rerr.Kind, rerr.Message, tc.kind, tc.message)
		}
		if !rerr.HasPosition() {
			t.Fatalf("source %q: error has no position: %v", tc.src, rerr)
		}
	}
}

func TestErrorPositionPointsAtExpression(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	rerr := runError(t, interp, "let a = 1\nlet b = 2\nlet x = 1 + \"a\"")
	if line, col := rerr.Position(); line != 3 || col != 9 {
		t.Fatalf("expected 3:9, got %d:%d", line, col)
	}
}

func TestConstAssignmentWrapsSentinel(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	rerr := runError(t, interp, "const limit = 3\nlimit = 4")
	if !errors.Is(rerr, runtime.ErrConstAssignment) {
		t.Fatalf("expected ErrConstAssignment, got %v", rerr)
	}
}

func TestParseErrorsAbortBeforeEvaluation(t *testing.T) {
	interp, out := newTestInterpreter(t)
	_, err := interp.Run(testContext(t), "print(\"side effect\")\nlet = 5")
	var perr *parser.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *parser.ParseError, got %T: %v", err, err)
	}
	if out.String() != "" {
		t.Fatalf("expected no output before parse failure, got %q", out.String())
	}
}

func TestExitStopsRunWithCode(t *testing.T) {
	interp, out := newTestInterpreter(t)
	res, err := interp.Run(testContext(t), `
fn quit() { exit(3) }
print("before")
quit()
print("after")
`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ExitCode != 3 {
		t.Fatalf("expected exit code 3, got %d", res.ExitCode)
	}
	if out.String() != "before\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestCallDepthLimit(t *testing.T) {
	interp, _ := newTestInterpreter(t, WithMaxCallDepth(50))
	rerr := runError(t, interp, "fn r(n) { return r(n + 1) }\nr(0)")
	if rerr.Kind != runtime.RuntimeError || !strings.Contains(rerr.Message, "maximum call depth") {
		t.Fatalf("unexpected error %v", rerr)
	}
}

func TestAnnotationMismatchLogsWarning(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelWarn}))
	interp, _ := newTestInterpreter(t, WithLogger(logger))
	got := mustRun(t, interp, `
fn shout(msg: String) -> String { return upper(msg) }
let n: Int = "five"
shout("ok")
`)
	expectInspect(t, got, `"OK"`)
	text := logs.String()
	if !strings.Contains(text, "type annotation mismatch") || !strings.Contains(text, "expected=Int") {
		t.Fatalf("expected mismatch warning, got %q", text)
	}
	if strings.Count(text, "type annotation mismatch") != 1 {
		t.Fatalf("expected exactly one warning, got %q", text)
	}
}

func TestSessionPersistsBindings(t *testing.T) {
	interp, out := newTestInterpreter(t)
	session := interp.NewSession()
	ctx := testContext(t)
	if _, err := session.EvalStatement(ctx, "let total = 40"); err != nil {
		t.Fatalf("eval: %v", err)
	}
	if _, err := session.EvalStatement(ctx, "fn add(n) { total = total + n }"); err != nil {
		t.Fatalf("eval: %v", err)
	}
	if _, err := session.EvalStatement(ctx, "add(2)"); err != nil {
		t.Fatalf("eval: %v", err)
	}
	got, err := session.EvalStatement(ctx, "print(total)\ntotal")
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	expectInspect(t, got, "42")
	if out.String() != "42\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
	if !session.Env().HasInCurrentScope("add") {
		t.Fatalf("expected add bound in session scope")
	}
}

func TestPrintFormatting(t *testing.T) {
	interp, out := newTestInterpreter(t)
	mustRun(t, interp, `print(1, 2.0, "s", True, None, [1, "a"], (1,), {"k": (1, 2)})`)
	want := `1 2.0 s True None [1, "a"] (1,) {"k": (1, 2)}` + "\n"
	if out.String() != want {
		t.Fatalf("got %q, want %q", out.String(), want)
	}
}

func TestStringRepeatIsBounded(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	for _, count := range []string{"4611686018427387904", "68719476736"} {
		rerr := runError(t, interp, "let a = 1\nlet s = \"ab\" * "+count)
		if rerr.Kind != runtime.RuntimeError || !strings.Contains(rerr.Message, "repeated string exceeds") {
			t.Fatalf("count %s: unexpected error %v", count, rerr)
		}
		if line, col := rerr.Position(); line != 2 || col != 9 {
			t.Fatalf("count %s: expected 2:9, got %d:%d", count, line, col)
		}
	}
	expectInspect(t, mustRun(t, interp, `"ab" * 3`), `"ababab"`)
}

func TestSelfReferentialContainersRender(t *testing.T) {
	interp, out := newTestInterpreter(t)
	got := mustRun(t, interp, `
let a = [1]
push(a, a)
let m = {"k": 1}
m["self"] = m
print(a)
print(m)
let b = [1]
push(b, b)
(str(a), a == b, m == m)
`)
	expectInspect(t, got, `("[1, [...]]", True, True)`)
	if s := out.String(); s != "[1, [...]]\n{\"k\": 1, \"self\": {...}}\n" {
		t.Fatalf("unexpected output %q", s)
	}
}

func TestLetNamesOnlyFunctionLiterals(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	got := mustRun(t, interp, `
let fns = [fn() { return 1 }]
let alias = fns[0]
let named = fn() { return 2 }
(str(fns[0]), str(alias), alias == fns[0], str(named))
`)
	expectInspect(t, got, `("<function anonymous>", "<function anonymous>", True, "<function named>")`)
}
