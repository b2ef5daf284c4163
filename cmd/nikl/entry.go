package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"nikl/interpreter-go/pkg/diagnostics"
	"nikl/interpreter-go/pkg/driver"
	"nikl/interpreter-go/pkg/host"
	"nikl/interpreter-go/pkg/interpreter"
)

func (c *cli) runEntry(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	logLevel := fs.String("log-level", "", "log level: debug, info, warn, error")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	rest := fs.Args()

	var entry string
	var programArgs []string
	var manifest *driver.Manifest
	if len(rest) > 0 {
		entry = rest[0]
		programArgs = rest[1:]
		m, err := loadManifestFrom(filepath.Dir(entry))
		switch {
		case err == nil:
			manifest = m
		case !errors.Is(err, driver.ErrManifestNotFound):
			fmt.Fprintf(c.stderr, "failed to load manifest: %v\n", err)
			return 1
		}
	} else {
		m, err := loadManifestFrom(".")
		if err != nil {
			if errors.Is(err, driver.ErrManifestNotFound) {
				fmt.Fprintln(c.stderr, "nikl run requires a source file or a package.yml with main")
			} else {
				fmt.Fprintf(c.stderr, "failed to load manifest: %v\n", err)
			}
			return 1
		}
		if m.Main == "" {
			fmt.Fprintf(c.stderr, "manifest %s does not declare main\n", m.Path)
			return 1
		}
		manifest = m
		entry = m.MainPath()
	}

	logger, err := c.newLogger(*logLevel, manifest)
	if err != nil {
		fmt.Fprintln(c.stderr, err)
		return 2
	}
	return c.executeEntry(entry, manifest, programArgs, logger)
}

func (c *cli) executeEntry(entry string, manifest *driver.Manifest, programArgs []string, logger *slog.Logger) int {
	src, err := os.ReadFile(entry)
	if err != nil {
		fmt.Fprintf(c.stderr, "read %s: %v\n", entry, err)
		return 1
	}
	interp := c.newInterpreter(manifest, logger, programArgs)
	defer interp.Close()

	ctx := context.Background()
	logger.Debug("running", "entry", entry)
	res, err := interp.Run(ctx, string(src))
	if err != nil {
		c.reportError(err, entry, string(src))
		return res.ExitCode
	}
	if manifest != nil && manifest.Runtime.DrainTasks {
		if err := interp.Drain(ctx); err != nil {
			fmt.Fprintf(c.stderr, "drain tasks: %v\n", err)
			return 1
		}
	}
	return res.ExitCode
}

// newInterpreter wires the manifest runtime settings into an interpreter
// backed by the process host.
func (c *cli) newInterpreter(manifest *driver.Manifest, logger *slog.Logger, programArgs []string) *interpreter.Interpreter {
	rt := driver.RuntimeConfig{Executor: driver.ExecutorGoroutine}
	if manifest != nil {
		rt = manifest.Runtime
	}
	var exec interpreter.Executor = interpreter.NewGoroutineExecutor()
	if rt.Executor == driver.ExecutorSerial {
		exec = interpreter.NewSerialExecutor()
	}
	h := host.New(
		host.WithHTTPClient(c.httpClient),
		host.WithMaxFetches(rt.MaxFetches),
		host.WithFetchTimeout(rt.FetchTimeout),
		host.WithLogger(logger),
	)
	return interpreter.New(
		interpreter.WithExecutor(exec),
		interpreter.WithHost(h),
		interpreter.WithStdout(c.stdout),
		interpreter.WithStdin(c.stdin),
		interpreter.WithLogger(logger),
		interpreter.WithArgs(programArgs),
	)
}

// userAgent names the tool on requests that do not set their own agent.
type userAgent struct {
	base http.RoundTripper
}

func (u userAgent) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", strings.Replace(cliToolVersion, " ", "/", 1))
	}
	return u.base.RoundTrip(req)
}

func (c *cli) reportError(err error, filename, src string) {
	msg := diagnostics.Render(err, filename, src)
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	fmt.Fprint(c.stderr, msg)
}

func loadManifestFrom(dir string) (*driver.Manifest, error) {
	path, err := driver.FindManifest(dir)
	if err != nil {
		return nil, err
	}
	return driver.LoadManifest(path)
}
