package interpreter

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"

	"nikl/interpreter-go/pkg/ast"
	"nikl/interpreter-go/pkg/parser"
	"nikl/interpreter-go/pkg/runtime"
)

// Interpreter evaluates nikl programs. The executor, host and output streams
// are owned by the interpreter rather than by package state.
type Interpreter struct {
	global   *runtime.Environment
	executor Executor
	host     Host
	stdout   *lockedWriter
	stdin    *lockedReader
	logger   *slog.Logger
	args     []string
	maxDepth int

	ctx    context.Context
	cancel context.CancelFunc
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithExecutor injects the scheduler used for spawn and for top-level units.
func WithExecutor(exec Executor) Option {
	return func(i *Interpreter) { i.executor = exec }
}

// WithHost injects the capability provider behind the native modules.
func WithHost(host Host) Option {
	return func(i *Interpreter) { i.host = host }
}

func WithStdout(w io.Writer) Option {
	return func(i *Interpreter) { i.stdout = &lockedWriter{w: w} }
}

func WithStdin(r io.Reader) Option {
	return func(i *Interpreter) { i.stdin = &lockedReader{r: bufio.NewReader(r)} }
}

func WithLogger(logger *slog.Logger) Option {
	return func(i *Interpreter) { i.logger = logger }
}

// WithArgs sets the values returned by the args() built-in.
func WithArgs(args []string) Option {
	return func(i *Interpreter) { i.args = append([]string(nil), args...) }
}

// WithMaxCallDepth bounds recursion per task.
func WithMaxCallDepth(depth int) Option {
	return func(i *Interpreter) { i.maxDepth = depth }
}

const defaultMaxCallDepth = 2000

// New returns an interpreter whose root environment holds the built-ins.
func New(opts ...Option) *Interpreter {
	ctx, cancel := context.WithCancel(context.Background())
	i := &Interpreter{
		global:   runtime.NewEnvironment(nil),
		host:     NopHost{},
		stdout:   &lockedWriter{w: os.Stdout},
		stdin:    &lockedReader{r: bufio.NewReader(os.Stdin)},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxDepth: defaultMaxCallDepth,
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.executor == nil {
		i.executor = NewGoroutineExecutor()
	}
	i.installBuiltins(i.global)
	return i
}

// GlobalEnvironment returns the root environment holding the built-ins.
func (i *Interpreter) GlobalEnvironment() *runtime.Environment {
	return i.global
}

// Executor returns the scheduler the interpreter spawns onto.
func (i *Interpreter) Executor() Executor {
	return i.executor
}

// Drain waits until every spawned task has finished.
func (i *Interpreter) Drain(ctx context.Context) error {
	return i.executor.Drain(ctx)
}

// Close cancels every running task. It is the process shutdown path.
func (i *Interpreter) Close() {
	i.cancel()
	if closer, ok := i.executor.(interface{ Close() }); ok {
		closer.Close()
	}
}

// Result is the outcome of a completed run.
type Result struct {
	Value    runtime.Value
	ExitCode int
}

// Run parses src and executes it to completion as one unit of work. Lex and
// parse errors are returned before anything is evaluated.
func (i *Interpreter) Run(ctx context.Context, src string) (Result, error) {
	prog, err := parser.Parse(src)
	if err != nil {
		return Result{ExitCode: 1}, err
	}
	return i.RunProgram(ctx, prog)
}

// RunProgram executes an already parsed program in a fresh module scope.
func (i *Interpreter) RunProgram(ctx context.Context, prog *ast.Program) (Result, error) {
	env := runtime.NewEnvironment(i.global)
	val, err := i.runUnit(ctx, prog, env)
	if err != nil {
		var exit *exitSignal
		if errors.As(err, &exit) {
			return Result{Value: runtime.None, ExitCode: exit.code}, nil
		}
		return Result{ExitCode: 1}, err
	}
	return Result{Value: val}, nil
}

func (i *Interpreter) runUnit(ctx context.Context, prog *ast.Program, env *runtime.Environment) (runtime.Value, error) {
	handle := i.executor.Spawn(i.ctx, func(taskCtx context.Context) (runtime.Value, error) {
		return i.evaluateProgram(withTaskState(taskCtx), prog, env)
	})
	return i.executor.Await(ctx, handle)
}

// evaluateProgram runs top-level statements and returns the last value.
func (i *Interpreter) evaluateProgram(ctx context.Context, prog *ast.Program, env *runtime.Environment) (runtime.Value, error) {
	var last runtime.Value = runtime.None
	for _, stmt := range prog.Body {
		val, err := i.evaluateStatement(ctx, stmt, env)
		if err != nil {
			return nil, topLevelError(err, stmt)
		}
		last = val
	}
	return last, nil
}

func topLevelError(err error, stmt ast.Statement) error {
	var msg string
	switch err.(type) {
	case returnSignal:
		msg = "'return' outside function"
	case breakSignal:
		msg = "'break' outside loop"
	case continueSignal:
		msg = "'continue' outside loop"
	default:
		return err
	}
	span := stmt.Span()
	return runtime.RuntimeErrorf("%s", msg).At(span.Start.Line, span.Start.Column)
}

// Session evaluates statements one at a time against a persistent
// environment, for interactive front-ends.
type Session struct {
	interp *Interpreter
	env    *runtime.Environment
}

func (i *Interpreter) NewSession() *Session {
	return &Session{interp: i, env: runtime.NewEnvironment(i.global)}
}

// Env exposes the session's persistent environment.
func (s *Session) Env() *runtime.Environment { return s.env }

// EvalStatement parses src, which is usually one top-level statement, and
// evaluates it in the session environment, returning the last value.
func (s *Session) EvalStatement(ctx context.Context, src string) (runtime.Value, error) {
	prog, err := parser.Parse(src)
	if err != nil {
		return nil, err
	}
	return s.interp.runUnit(ctx, prog, s.env)
}

// exitSignal unwinds a run started through exit().
type exitSignal struct {
	code int
}

func (e *exitSignal) Error() string { return "exit" }

// ExitCode reports the code carried by an exit() unwinding, if err is one.
func ExitCode(err error) (int, bool) {
	var exit *exitSignal
	if errors.As(err, &exit) {
		return exit.code, true
	}
	return 0, false
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

type lockedReader struct {
	mu sync.Mutex
	r  *bufio.Reader
}

func (l *lockedReader) ReadLine() (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.ReadString('\n')
}
