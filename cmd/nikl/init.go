package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"nikl/interpreter-go/pkg/driver"
)

func (c *cli) runInit(args []string) int {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	name := fs.String("name", "", "package name (default: directory name)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() > 1 {
		fmt.Fprintln(c.stderr, "nikl init takes at most one directory")
		return 2
	}
	dir := "."
	if fs.NArg() == 1 {
		dir = fs.Arg(0)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		fmt.Fprintf(c.stderr, "resolve %s: %v\n", dir, err)
		return 1
	}
	manifestPath := filepath.Join(abs, driver.ManifestName)
	if _, err := os.Stat(manifestPath); err == nil {
		fmt.Fprintf(c.stderr, "%s already exists\n", manifestPath)
		return 1
	}

	pkgName := *name
	if pkgName == "" {
		pkgName = filepath.Base(abs)
	}
	manifest := driver.NewManifest(pkgName)
	if err := os.MkdirAll(filepath.Join(abs, "src"), 0o755); err != nil {
		fmt.Fprintf(c.stderr, "create %s: %v\n", abs, err)
		return 1
	}
	if err := driver.WriteManifest(manifest, manifestPath); err != nil {
		fmt.Fprintln(c.stderr, err)
		return 1
	}
	mainPath := manifest.MainPath()
	if _, err := os.Stat(mainPath); os.IsNotExist(err) {
		greeting := fmt.Sprintf("print(\"Hello from %s!\")\n", manifest.Name)
		if err := os.WriteFile(mainPath, []byte(greeting), 0o644); err != nil {
			fmt.Fprintf(c.stderr, "write %s: %v\n", mainPath, err)
			return 1
		}
	}
	fmt.Fprintf(c.stdout, "created package %s in %s\n", manifest.Name, abs)
	return 0
}
