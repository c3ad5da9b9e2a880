// Package config holds the runtime options shared by all bootstrap subcommands.
// Options come from command-line flags only; Validate normalises them before
// any subcommand starts work.
package config

import (
	"path/filepath"
	"time"

	"bootstrap/internal/errors"
)

// LogFormat represents the supported output formats for progress events.
type LogFormat string

// Supported log format constants.
const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// Config holds all runtime configuration options for a single invocation.
type Config struct {
	// Global flags.
	Verbose   bool
	Debug     bool
	Quiet     bool
	LogFormat LogFormat

	// download
	Timeout time.Duration

	// gitfix
	DryRun bool
	Backup bool
}

// Validate checks flag values and fills in defaults.
func (c *Config) Validate() error {
	if err := c.validateLogFormat(); err != nil {
		return err
	}

	if c.Timeout < 0 {
		return errors.NewConfigError("timeout must not be negative", nil)
	}

	c.normalizeConfig()
	return nil
}

func (c *Config) validateLogFormat() error {
	if c.LogFormat != "" && c.LogFormat != LogFormatText && c.LogFormat != LogFormatJSON {
		return errors.NewConfigError("log format must be 'text' or 'json'", nil)
	}
	return nil
}

func (c *Config) normalizeConfig() {
	if c.LogFormat == "" {
		c.LogFormat = LogFormatText
	}
}

// AbsPath resolves a positional path argument against the working directory.
func AbsPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.NewConfigErrorWithPath(path, "invalid path", err)
	}
	return abs, nil
}

// IsVerbose reports whether per-entry and per-line detail should be reported.
// Quiet wins over Verbose.
func (c *Config) IsVerbose() bool {
	return c.Verbose && !c.Quiet
}

// IsDebug determines if debug logging is enabled.
func (c *Config) IsDebug() bool {
	return c.Debug && !c.Quiet
}

// ShouldLog determines if any progress event should be reported.
func (c *Config) ShouldLog() bool {
	return !c.Quiet
}

// ShouldCreateBackup reports whether gitfix keeps a copy of the original
// file. Backups are opt-in, and a dry run never writes one.
func (c *Config) ShouldCreateBackup() bool {
	return c.Backup && !c.DryRun
}
