package interpreter

import (
	"context"
	"errors"
)

// FetchResult is the response of a Host fetch.
type FetchResult struct {
	Status int
	Body   string
}

// MatchGroup is one capture of a regex match. Matched is false for a group
// that did not take part in the match.
type MatchGroup struct {
	Text    string
	Matched bool
}

// Host supplies the capabilities behind the native modules. Implementations
// must be safe for concurrent use by many tasks.
type Host interface {
	Fetch(ctx context.Context, url string) (FetchResult, error)

	Match(pattern, text string) ([]MatchGroup, bool, error)
	FindAll(pattern, text string) ([]string, error)
	Replace(pattern, text, repl string) (string, error)

	ReadFile(path string) (string, error)
	WriteFile(path, content string) error
	ListDir(path string) ([]string, error)
	Exists(path string) bool
	IsFile(path string) bool
	IsDir(path string) bool
	MakeDir(path string) error
	RemoveFile(path string) error
	RemoveDir(path string) error
	Rename(from, to string) error
	Getwd() (string, error)
	Setwd(path string) error
	Getenv(key string) (string, bool)
	Setenv(key, value string) error
}

// ErrCapabilityDenied is returned by NopHost for every capability.
var ErrCapabilityDenied = errors.New("host capability not available")

// NopHost refuses every capability.
type NopHost struct{}

func (NopHost) Fetch(context.Context, string) (FetchResult, error) {
	return FetchResult{}, ErrCapabilityDenied
}

func (NopHost) Match(string, string) ([]MatchGroup, bool, error) {
	return nil, false, ErrCapabilityDenied
}

func (NopHost) FindAll(string, string) ([]string, error) { return nil, ErrCapabilityDenied }

func (NopHost) Replace(string, string, string) (string, error) { return "", ErrCapabilityDenied }

func (NopHost) ReadFile(string) (string, error) { return "", ErrCapabilityDenied }

func (NopHost) WriteFile(string, string) error { return ErrCapabilityDenied }

func (NopHost) ListDir(string) ([]string, error) { return nil, ErrCapabilityDenied }

func (NopHost) Exists(string) bool { return false }

func (NopHost) IsFile(string) bool { return false }

func (NopHost) IsDir(string) bool { return false }

func (NopHost) MakeDir(string) error { return ErrCapabilityDenied }

func (NopHost) RemoveFile(string) error { return ErrCapabilityDenied }

func (NopHost) RemoveDir(string) error { return ErrCapabilityDenied }

func (NopHost) Rename(string, string) error { return ErrCapabilityDenied }

func (NopHost) Getwd() (string, error) { return "", ErrCapabilityDenied }

func (NopHost) Setwd(string) error { return ErrCapabilityDenied }

func (NopHost) Getenv(string) (string, bool) { return "", false }

func (NopHost) Setenv(string, string) error { return ErrCapabilityDenied }
