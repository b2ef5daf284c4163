package driver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Fetcher materialises a dependency and reports what it resolved to.
type Fetcher interface {
	Fetch(ctx context.Context, name string, spec *DependencySpec) (*LockedPackage, error)
}

// GitFetcher clones git dependencies into a per-package cache laid out as
// <cache>/<name>/<commit>.
type GitFetcher struct {
	cacheDir string
	logger   *slog.Logger
}

func NewGitFetcher(cacheDir string, logger *slog.Logger) *GitFetcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &GitFetcher{cacheDir: cacheDir, logger: logger}
}

// CheckoutDir is where the checkout of name at commit lives.
func (g *GitFetcher) CheckoutDir(name, commit string) string {
	return filepath.Join(g.cacheDir, sanitizePathSegment(name), sanitizePathSegment(commit))
}

func (g *GitFetcher) Fetch(ctx context.Context, name string, spec *DependencySpec) (*LockedPackage, error) {
	if g == nil || g.cacheDir == "" {
		return nil, errors.New("git fetcher unavailable")
	}
	url := strings.TrimSpace(spec.Git)
	if url == "" {
		return nil, fmt.Errorf("dependency %q: git URL required", name)
	}

	if rev := spec.Rev; isFullHash(rev) {
		dir := g.CheckoutDir(name, rev)
		if _, err := os.Stat(dir); err == nil {
			g.logger.Debug("dependency cached", "name", name, "commit", rev)
			return g.locked(name, url, spec, rev, dir)
		}
	}

	commit, err := g.checkout(ctx, name, url, spec)
	if err != nil {
		return nil, fmt.Errorf("dependency %q: %w", name, err)
	}
	return g.locked(name, url, spec, commit, g.CheckoutDir(name, commit))
}

func (g *GitFetcher) locked(name, url string, spec *DependencySpec, commit, dir string) (*LockedPackage, error) {
	checksum, err := dirChecksum(dir)
	if err != nil {
		return nil, fmt.Errorf("dependency %q: checksum %s: %w", name, dir, err)
	}
	return &LockedPackage{
		Name:     sanitizeSegment(name),
		Source:   url,
		Revision: spec.Revision(),
		Commit:   commit,
		Checksum: checksum,
	}, nil
}

func (g *GitFetcher) checkout(ctx context.Context, name, url string, spec *DependencySpec) (string, error) {
	baseDir := filepath.Join(g.cacheDir, sanitizePathSegment(name))
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return "", err
	}
	tmpDir, err := os.MkdirTemp(baseDir, "git-fetch-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(tmpDir)

	g.logger.Debug("cloning dependency", "name", name, "url", url, "revision", spec.Revision())
	repo, err := git.PlainCloneContext(ctx, tmpDir, false, &git.CloneOptions{URL: url})
	if err != nil {
		return "", fmt.Errorf("git clone %s: %w", url, err)
	}

	revision := gitRevisionFromSpec(spec)
	hash, err := repo.ResolveRevision(revision)
	if err != nil {
		return "", fmt.Errorf("resolve revision %s: %w", revision, err)
	}
	commit := hash.String()
	targetDir := g.CheckoutDir(name, commit)
	if _, err := os.Stat(targetDir); err == nil {
		return commit, nil
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return "", err
	}
	if err := worktree.Checkout(&git.CheckoutOptions{Hash: *hash, Force: true}); err != nil {
		return "", fmt.Errorf("git checkout %s: %w", revision, err)
	}
	if err := os.Rename(tmpDir, targetDir); err != nil {
		return "", err
	}
	return commit, nil
}

func gitRevisionFromSpec(spec *DependencySpec) plumbing.Revision {
	if rev := strings.TrimSpace(spec.Rev); rev != "" {
		return plumbing.Revision(rev)
	}
	if tag := strings.TrimSpace(spec.Tag); tag != "" {
		return plumbing.Revision("refs/tags/" + tag)
	}
	if branch := strings.TrimSpace(spec.Branch); branch != "" {
		return plumbing.Revision("refs/remotes/origin/" + branch)
	}
	return plumbing.Revision(plumbing.HEAD)
}

// dirChecksum hashes relative paths and contents, skipping git metadata.
func dirChecksum(path string) (string, error) {
	h := sha256.New()
	err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(path, p)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		h.Write([]byte(filepath.ToSlash(rel)))
		h.Write([]byte{0})
		h.Write(data)
		return nil
	})
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func isFullHash(s string) bool {
	if len(s) != 40 {
		return false
	}
	for _, r := range s {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return false
		}
	}
	return true
}

func sanitizePathSegment(segment string) string {
	segment = strings.TrimSpace(segment)
	if segment == "" {
		return "head"
	}
	var b strings.Builder
	for _, r := range segment {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
