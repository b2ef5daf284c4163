package interpreter

import (
	"bytes"
	"context"
	"errors"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"nikl/interpreter-go/pkg/ast"
	"nikl/interpreter-go/pkg/runtime"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func newTestInterpreter(t *testing.T, opts ...Option) (*Interpreter, *syncBuffer) {
	t.Helper()
	out := &syncBuffer{}
	interp := New(append([]Option{WithStdout(out)}, opts...)...)
	t.Cleanup(interp.Close)
	return interp, out
}

func mustRun(t *testing.T, interp *Interpreter, src string) runtime.Value {
	t.Helper()
	res, err := interp.Run(testContext(t), src)
	if err != nil {
		t.Fatalf("run failed: %v\nsource:\n%s", err, src)
	}
	return res.Value
}

func runError(t *testing.T, interp *Interpreter, src string) *runtime.Error {
	t.Helper()
	_, err := interp.Run(testContext(t), src)
	if err == nil {
		t.Fatalf("expected error for source:\n%s", src)
	}
	var rerr *runtime.Error
	if !errors.As(err, &rerr) {
		t.Fatalf("expected *runtime.Error, got %T: %v", err, err)
	}
	return rerr
}

func mustEvalProgram(t *testing.T, interp *Interpreter, prog *ast.Program) runtime.Value {
	t.Helper()
	res, err := interp.RunProgram(testContext(t), prog)
	if err != nil {
		t.Fatalf("program evaluation failed: %v", err)
	}
	return res.Value
}

func expectInspect(t *testing.T, got runtime.Value, want string) {
	t.Helper()
	if s := runtime.Inspect(got); s != want {
		t.Fatalf("got %s, want %s", s, want)
	}
}

// fakeHost serves an in-memory filesystem, environment and URL table.
type fakeHost struct {
	mu      sync.Mutex
	files   map[string]string
	dirs    map[string]bool
	env     map[string]string
	cwd     string
	pages   map[string]FetchResult
	fetched []string
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		files: make(map[string]string),
		dirs:  make(map[string]bool),
		env:   make(map[string]string),
		cwd:   "/work",
		pages: make(map[string]FetchResult),
	}
}

func (h *fakeHost) Fetch(ctx context.Context, url string) (FetchResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fetched = append(h.fetched, url)
	res, ok := h.pages[url]
	if !ok {
		return FetchResult{}, errors.New("no route to " + url)
	}
	return res, nil
}

func (h *fakeHost) Match(pattern, text string) ([]MatchGroup, bool, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, false, err
	}
	loc := re.FindStringSubmatchIndex(text)
	if loc == nil {
		return nil, false, nil
	}
	groups := make([]MatchGroup, len(loc)/2)
	for idx := range groups {
		if loc[2*idx] >= 0 {
			groups[idx] = MatchGroup{Text: text[loc[2*idx]:loc[2*idx+1]], Matched: true}
		}
	}
	return groups, true, nil
}

func (h *fakeHost) FindAll(pattern, text string) ([]string, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return re.FindAllString(text, -1), nil
}

func (h *fakeHost) Replace(pattern, text, repl string) (string, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", err
	}
	return re.ReplaceAllString(text, repl), nil
}

func (h *fakeHost) ReadFile(path string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	content, ok := h.files[path]
	if !ok {
		return "", os.ErrNotExist
	}
	return content, nil
}

func (h *fakeHost) WriteFile(path, content string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.files[path] = content
	return nil
}

func (h *fakeHost) ListDir(path string) ([]string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	prefix := strings.TrimSuffix(path, "/") + "/"
	var names []string
	for name := range h.files {
		if strings.HasPrefix(name, prefix) {
			names = append(names, strings.TrimPrefix(name, prefix))
		}
	}
	sort.Strings(names)
	return names, nil
}

func (h *fakeHost) Exists(path string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.files[path]
	return ok || h.dirs[path]
}

func (h *fakeHost) IsFile(path string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.files[path]
	return ok
}

func (h *fakeHost) IsDir(path string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dirs[path]
}

func (h *fakeHost) MakeDir(path string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dirs[path] = true
	return nil
}

func (h *fakeHost) RemoveFile(path string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.files[path]; !ok {
		return os.ErrNotExist
	}
	delete(h.files, path)
	return nil
}

func (h *fakeHost) RemoveDir(path string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.dirs[path] {
		return os.ErrNotExist
	}
	delete(h.dirs, path)
	return nil
}

func (h *fakeHost) Rename(from, to string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	content, ok := h.files[from]
	if !ok {
		return os.ErrNotExist
	}
	delete(h.files, from)
	h.files[to] = content
	return nil
}

func (h *fakeHost) Getwd() (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cwd, nil
}

func (h *fakeHost) Setwd(path string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.dirs[path] {
		return os.ErrNotExist
	}
	h.cwd = path
	return nil
}

func (h *fakeHost) Setenv(key, value string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.env[key] = value
	return nil
}

func (h *fakeHost) Getenv(key string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	val, ok := h.env[key]
	return val, ok
}
