package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

const cliToolVersion = "nikl 0.1.0-dev"

func main() {
	os.Exit(newCLI(os.Stdin, os.Stdout, os.Stderr).run(os.Args[1:]))
}

// cli carries the process streams so commands can be driven from tests.
type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string

	// httpClient backs the net module of every interpreter the CLI builds.
	httpClient *http.Client
}

func newCLI(stdin io.Reader, stdout, stderr io.Writer) *cli {
	return &cli{
		stdin:      stdin,
		stdout:     stdout,
		stderr:     stderr,
		getenv:     os.Getenv,
		httpClient: &http.Client{Transport: userAgent{base: http.DefaultTransport}},
	}
}

func (c *cli) run(args []string) int {
	if len(args) == 0 {
		return c.runRepl(nil)
	}

	switch args[0] {
	case "--help", "-h", "help":
		c.printUsage()
		return 0
	case "--version", "-V", "version":
		fmt.Fprintln(c.stdout, cliToolVersion)
		return 0
	case "run":
		return c.runEntry(args[1:])
	case "repl":
		return c.runRepl(args[1:])
	case "init":
		return c.runInit(args[1:])
	case "install":
		return c.runInstall(args[1:])
	default:
		if strings.HasSuffix(args[0], ".nk") {
			return c.runEntry(args)
		}
		fmt.Fprintf(c.stderr, "unknown command %q\n", args[0])
		c.printUsage()
		return 2
	}
}
