package main

import "fmt"

func (c *cli) printUsage() {
	fmt.Fprintln(c.stderr, "Usage:")
	fmt.Fprintln(c.stderr, "  nikl run [--log-level=LEVEL] [file.nk] [args...]")
	fmt.Fprintln(c.stderr, "  nikl <file.nk> [args...]")
	fmt.Fprintln(c.stderr, "  nikl repl [--log-level=LEVEL]")
	fmt.Fprintln(c.stderr, "  nikl init [--name=NAME] [dir]")
	fmt.Fprintln(c.stderr, "  nikl install [--log-level=LEVEL]")
	fmt.Fprintln(c.stderr, "  nikl version")
}
