package driver

import (
	"context"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

const defaultInstallParallelism = 4

// Installer resolves every manifest dependency through a Fetcher and
// records the results in a lockfile.
type Installer struct {
	fetcher     Fetcher
	parallelism int
	logger      *slog.Logger
}

type InstallerOption func(*Installer)

func WithParallelism(n int) InstallerOption {
	return func(in *Installer) {
		if n > 0 {
			in.parallelism = n
		}
	}
}

func WithInstallLogger(logger *slog.Logger) InstallerOption {
	return func(in *Installer) { in.logger = logger }
}

func NewInstaller(fetcher Fetcher, opts ...InstallerOption) *Installer {
	in := &Installer{
		fetcher:     fetcher,
		parallelism: defaultInstallParallelism,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Install fetches dependencies concurrently and updates lock in place. An
// entry already locked for the same source and revision is refetched at its
// locked commit. Entries no longer in the manifest are dropped. It reports
// whether the lockfile changed.
func (in *Installer) Install(ctx context.Context, m *Manifest, lock *Lockfile) (bool, error) {
	names := m.DependencyNames()
	resolved := make([]*LockedPackage, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(in.parallelism)
	for idx, name := range names {
		idx, name := idx, name
		spec := m.Dependencies[name]
		request := spec
		if prev := lock.Find(name); prev != nil && prev.Commit != "" && prev.Source == spec.Git && prev.Revision == spec.Revision() {
			request = &DependencySpec{Git: spec.Git, Rev: prev.Commit}
		}
		g.Go(func() error {
			pkg, err := in.fetcher.Fetch(gctx, name, request)
			if err != nil {
				return err
			}
			pkg.Revision = spec.Revision()
			resolved[idx] = pkg
			in.logger.Info("dependency resolved", "name", name, "commit", pkg.Commit)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return false, err
	}

	keep := make(map[string]bool, len(names))
	changed := false
	for _, pkg := range resolved {
		keep[pkg.Name] = true
		if lock.Upsert(pkg) {
			changed = true
		}
	}
	if lock.Retain(keep) {
		changed = true
	}
	return changed, nil
}
