package main

import (
	"fmt"
	"log/slog"
	"strings"

	"nikl/interpreter-go/pkg/driver"
)

const logLevelEnv = "NIKL_LOG"

// newLogger resolves the level from the flag, then NIKL_LOG, then the
// manifest, defaulting to warn.
func (c *cli) newLogger(flagLevel string, manifest *driver.Manifest) (*slog.Logger, error) {
	level := strings.TrimSpace(flagLevel)
	if level == "" {
		level = strings.TrimSpace(c.getenv(logLevelEnv))
	}
	if level == "" && manifest != nil {
		level = manifest.Runtime.LogLevel
	}
	if level == "" {
		level = "warn"
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	return slog.New(slog.NewTextHandler(c.stderr, &slog.HandlerOptions{Level: lvl})), nil
}
