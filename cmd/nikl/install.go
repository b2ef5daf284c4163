package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"nikl/interpreter-go/pkg/driver"
)

const cacheDirEnv = "NIKL_CACHE"

func (c *cli) runInstall(args []string) int {
	fs := flag.NewFlagSet("install", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	logLevel := fs.String("log-level", "", "log level: debug, info, warn, error")
	jobs := fs.Int("jobs", 0, "concurrent dependency fetches")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(c.stderr, "nikl install does not take arguments")
		return 2
	}

	manifest, err := loadManifestFrom(".")
	if err != nil {
		if errors.Is(err, driver.ErrManifestNotFound) {
			fmt.Fprintln(c.stderr, "nikl install requires a package.yml")
		} else {
			fmt.Fprintf(c.stderr, "failed to load manifest: %v\n", err)
		}
		return 1
	}
	logger, err := c.newLogger(*logLevel, manifest)
	if err != nil {
		fmt.Fprintln(c.stderr, err)
		return 2
	}

	lockPath := filepath.Join(manifest.Dir(), driver.LockfileName)
	lock, err := driver.LoadLockfile(lockPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		lock = driver.NewLockfile(manifest.Name, cliToolVersion)
	case err != nil:
		fmt.Fprintln(c.stderr, err)
		return 1
	}

	fetcher := driver.NewGitFetcher(c.cacheDir(manifest), logger)
	installer := driver.NewInstaller(fetcher, driver.WithParallelism(*jobs), driver.WithInstallLogger(logger))
	changed, err := installer.Install(context.Background(), manifest, lock)
	if err != nil {
		fmt.Fprintf(c.stderr, "install failed: %v\n", err)
		return 1
	}
	if changed {
		lock.Generated = ""
		lock.Tool = cliToolVersion
		if err := driver.WriteLockfile(lock, lockPath); err != nil {
			fmt.Fprintln(c.stderr, err)
			return 1
		}
	}
	for _, pkg := range lock.Packages {
		fmt.Fprintf(c.stdout, "%s %s\n", pkg.Name, shortCommit(pkg.Commit))
	}
	fmt.Fprintf(c.stdout, "%d dependencies installed\n", len(lock.Packages))
	return 0
}

// cacheDir defaults to .nikl/deps under the package root.
func (c *cli) cacheDir(manifest *driver.Manifest) string {
	if dir := c.getenv(cacheDirEnv); dir != "" {
		return dir
	}
	return filepath.Join(manifest.Dir(), ".nikl", "deps")
}

func shortCommit(commit string) string {
	if len(commit) > 12 {
		return commit[:12]
	}
	return commit
}
