// Package host provides the process-backed capabilities the interpreter's
// native modules call into.
package host

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"regexp"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"nikl/interpreter-go/pkg/interpreter"
)

const (
	DefaultMaxFetches   = 8
	DefaultFetchTimeout = 30 * time.Second
	maxBodyBytes        = 16 << 20
)

// OS implements interpreter.Host on top of the local filesystem, process
// environment and net/http. It is safe for concurrent use.
type OS struct {
	client  *http.Client
	fetches *semaphore.Weighted
	logger  *slog.Logger

	patterns sync.Map // pattern -> *regexp.Regexp
}

type Option func(*OS)

// WithMaxFetches bounds the number of HTTP requests in flight.
func WithMaxFetches(n int) Option {
	return func(h *OS) {
		if n > 0 {
			h.fetches = semaphore.NewWeighted(int64(n))
		}
	}
}

func WithFetchTimeout(d time.Duration) Option {
	return func(h *OS) {
		if d > 0 {
			h.client.Timeout = d
		}
	}
}

// WithHTTPClient fetches through a copy of client, so a later
// WithFetchTimeout leaves the caller's client untouched. A nil client keeps
// the default.
func WithHTTPClient(client *http.Client) Option {
	return func(h *OS) {
		if client == nil {
			return
		}
		copied := *client
		if copied.Timeout == 0 {
			copied.Timeout = h.client.Timeout
		}
		h.client = &copied
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(h *OS) { h.logger = logger }
}

func New(opts ...Option) *OS {
	h := &OS{
		client:  &http.Client{Timeout: DefaultFetchTimeout},
		fetches: semaphore.NewWeighted(DefaultMaxFetches),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

var _ interpreter.Host = (*OS)(nil)

func (h *OS) Fetch(ctx context.Context, url string) (interpreter.FetchResult, error) {
	if err := h.fetches.Acquire(ctx, 1); err != nil {
		return interpreter.FetchResult{}, err
	}
	defer h.fetches.Release(1)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return interpreter.FetchResult{}, fmt.Errorf("build request: %w", err)
	}
	start := time.Now()
	resp, err := h.client.Do(req)
	if err != nil {
		return interpreter.FetchResult{}, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return interpreter.FetchResult{}, fmt.Errorf("read body: %w", err)
	}
	h.logger.Debug("fetch", "url", url, "status", resp.StatusCode, "bytes", len(body), "duration", time.Since(start))
	return interpreter.FetchResult{Status: resp.StatusCode, Body: string(body)}, nil
}

func (h *OS) compile(pattern string) (*regexp.Regexp, error) {
	if re, ok := h.patterns.Load(pattern); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	actual, _ := h.patterns.LoadOrStore(pattern, re)
	return actual.(*regexp.Regexp), nil
}

// Match returns the first match followed by its capture groups.
func (h *OS) Match(pattern, text string) ([]interpreter.MatchGroup, bool, error) {
	re, err := h.compile(pattern)
	if err != nil {
		return nil, false, err
	}
	loc := re.FindStringSubmatchIndex(text)
	if loc == nil {
		return nil, false, nil
	}
	groups := make([]interpreter.MatchGroup, len(loc)/2)
	for idx := range groups {
		start, end := loc[2*idx], loc[2*idx+1]
		if start >= 0 {
			groups[idx] = interpreter.MatchGroup{Text: text[start:end], Matched: true}
		}
	}
	return groups, true, nil
}

func (h *OS) FindAll(pattern, text string) ([]string, error) {
	re, err := h.compile(pattern)
	if err != nil {
		return nil, err
	}
	found := re.FindAllString(text, -1)
	if found == nil {
		found = []string{}
	}
	return found, nil
}

// Replace substitutes every match; repl may reference groups as $1.
func (h *OS) Replace(pattern, text, repl string) (string, error) {
	re, err := h.compile(pattern)
	if err != nil {
		return "", err
	}
	return re.ReplaceAllString(text, repl), nil
}

func (h *OS) ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (h *OS) WriteFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

// ListDir returns entry names sorted lexically.
func (h *OS) ListDir(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (h *OS) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (h *OS) IsFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func (h *OS) IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// MakeDir creates path and any missing parents.
func (h *OS) MakeDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

func (h *OS) RemoveFile(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return os.Remove(path)
}

// RemoveDir removes an empty directory.
func (h *OS) RemoveDir(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return os.Remove(path)
}

func (h *OS) Rename(from, to string) error {
	return os.Rename(from, to)
}

func (h *OS) Getwd() (string, error) {
	return os.Getwd()
}

// Setwd changes the working directory of the whole process.
func (h *OS) Setwd(path string) error {
	h.logger.Debug("chdir", "path", path)
	return os.Chdir(path)
}

func (h *OS) Getenv(key string) (string, bool) {
	return os.LookupEnv(key)
}

func (h *OS) Setenv(key, value string) error {
	return os.Setenv(key, value)
}
