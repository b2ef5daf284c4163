package driver

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func TestGitFetcherResolvesRevisions(t *testing.T) {
	upstream, first, second := newUpstreamRepo(t)
	cache := t.TempDir()
	fetcher := NewGitFetcher(cache, nil)
	ctx := context.Background()

	tagged, err := fetcher.Fetch(ctx, "util", &DependencySpec{Git: upstream, Tag: "v1.0.0"})
	if err != nil {
		t.Fatalf("fetch tag: %v", err)
	}
	if tagged.Commit != first.String() || tagged.Revision != "v1.0.0" || tagged.Source != upstream {
		t.Fatalf("unexpected tagged package: %#v", tagged)
	}
	dir := fetcher.CheckoutDir("util", tagged.Commit)
	data, err := os.ReadFile(filepath.Join(dir, "lib.nk"))
	if err != nil || string(data) != "let version = 1\n" {
		t.Fatalf("checkout contents %q, %v", data, err)
	}
	if sum, err := dirChecksum(dir); err != nil || sum != tagged.Checksum {
		t.Fatalf("checksum mismatch: %q vs %q (%v)", sum, tagged.Checksum, err)
	}

	head, err := fetcher.Fetch(ctx, "util", &DependencySpec{Git: upstream})
	if err != nil {
		t.Fatalf("fetch head: %v", err)
	}
	if head.Commit != second.String() || head.Checksum == tagged.Checksum {
		t.Fatalf("unexpected head package: %#v", head)
	}

	branch, err := fetcher.Fetch(ctx, "util", &DependencySpec{Git: upstream, Branch: "master"})
	if err != nil {
		t.Fatalf("fetch branch: %v", err)
	}
	if branch.Commit != second.String() {
		t.Fatalf("branch resolved to %s, want %s", branch.Commit, second)
	}
}

func TestGitFetcherReusesCachedCommit(t *testing.T) {
	upstream, first, _ := newUpstreamRepo(t)
	fetcher := NewGitFetcher(t.TempDir(), nil)
	ctx := context.Background()
	if _, err := fetcher.Fetch(ctx, "util", &DependencySpec{Git: upstream, Rev: first.String()}); err != nil {
		t.Fatalf("fetch rev: %v", err)
	}
	// The cached checkout is used without contacting the remote.
	pkg, err := fetcher.Fetch(ctx, "util", &DependencySpec{Git: "file:///does/not/exist", Rev: first.String()})
	if err != nil {
		t.Fatalf("cached fetch: %v", err)
	}
	if pkg.Commit != first.String() {
		t.Fatalf("unexpected commit %s", pkg.Commit)
	}
}

func TestGitFetcherUnknownTag(t *testing.T) {
	upstream, _, _ := newUpstreamRepo(t)
	fetcher := NewGitFetcher(t.TempDir(), nil)
	_, err := fetcher.Fetch(context.Background(), "util", &DependencySpec{Git: upstream, Tag: "v9"})
	if err == nil || !strings.Contains(err.Error(), "resolve revision") {
		t.Fatalf("expected resolve error, got %v", err)
	}
}

func TestDirChecksumIgnoresGitMetadata(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	for _, dir := range []string{a, b} {
		if err := os.WriteFile(filepath.Join(dir, "x.nk"), []byte("1"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := os.MkdirAll(filepath.Join(b, ".git"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(b, ".git", "HEAD"), []byte("ref"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	sumA, _ := dirChecksum(a)
	sumB, _ := dirChecksum(b)
	if sumA == "" || sumA != sumB {
		t.Fatalf("checksums differ: %q vs %q", sumA, sumB)
	}
}

// newUpstreamRepo builds a repository with two commits, the first tagged
// v1.0.0.
func newUpstreamRepo(t *testing.T) (string, plumbing.Hash, plumbing.Hash) {
	t.Helper()
	if _, err := exec.LookPath("git-upload-pack"); err != nil {
		t.Skip("git-upload-pack not available for local clones")
	}
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("worktree: %v", err)
	}
	commit := func(content, msg string) plumbing.Hash {
		if err := os.WriteFile(filepath.Join(dir, "lib.nk"), []byte(content), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, err := wt.Add("lib.nk"); err != nil {
			t.Fatalf("add: %v", err)
		}
		hash, err := wt.Commit(msg, &git.CommitOptions{
			Author: &object.Signature{Name: "nikl", Email: "nikl@example.com", When: time.Now()},
		})
		if err != nil {
			t.Fatalf("commit: %v", err)
		}
		return hash
	}
	first := commit("let version = 1\n", "first")
	if _, err := repo.CreateTag("v1.0.0", first, nil); err != nil {
		t.Fatalf("tag: %v", err)
	}
	second := commit("let version = 2\n", "second")
	return dir, first, second
}
