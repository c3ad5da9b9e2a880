// Package command defines the closed set of bootstrap subcommands. Every
// variant carries its own validated arguments; the dispatcher in package cmd
// switches over them exhaustively.
package command

import (
	"fmt"
	"strings"

	"bootstrap/internal/errors"
)

// Subcommand names.
const (
	NameDownload = "download"
	NameUnzip    = "unzip"
	NameGitFix   = "gitfix"
)

// Command is one of Download, Unzip or GitFix.
type Command interface {
	// Name returns the subcommand name used on the command line.
	Name() string
	isCommand()
}

// Download fetches URL and writes the body to Target.
type Download struct {
	URL    string
	Target string
}

// Unzip extracts Archive into the directory Target.
type Unzip struct {
	Archive string
	Target  string
}

// GitFix rewrites the SSH GitHub remotes in Root/.gitmodules.
type GitFix struct {
	Root string
}

func (Download) Name() string { return NameDownload }
func (Unzip) Name() string    { return NameUnzip }
func (GitFix) Name() string   { return NameGitFix }

func (Download) isCommand() {}
func (Unzip) isCommand()    {}
func (GitFix) isCommand()   {}

// NewDownload validates the download arguments.
func NewDownload(url, target string) (Download, error) {
	if err := required(NameDownload, "url", url); err != nil {
		return Download{}, err
	}
	if err := required(NameDownload, "target", target); err != nil {
		return Download{}, err
	}
	return Download{URL: strings.TrimSpace(url), Target: target}, nil
}

// NewUnzip validates the unzip arguments.
func NewUnzip(archive, target string) (Unzip, error) {
	if err := required(NameUnzip, "zip", archive); err != nil {
		return Unzip{}, err
	}
	if err := required(NameUnzip, "target", target); err != nil {
		return Unzip{}, err
	}
	return Unzip{Archive: archive, Target: target}, nil
}

// NewGitFix validates the gitfix arguments.
func NewGitFix(root string) (GitFix, error) {
	if err := required(NameGitFix, "root", root); err != nil {
		return GitFix{}, err
	}
	return GitFix{Root: root}, nil
}

// Parse builds a Command from a subcommand name and its positional arguments.
func Parse(name string, args []string) (Command, error) {
	var (
		cmd Command
		err error
	)
	switch name {
	case NameDownload:
		if err = arity(name, args, 2); err == nil {
			cmd, err = NewDownload(args[0], args[1])
		}
	case NameUnzip:
		if err = arity(name, args, 2); err == nil {
			cmd, err = NewUnzip(args[0], args[1])
		}
	case NameGitFix:
		if err = arity(name, args, 1); err == nil {
			cmd, err = NewGitFix(args[0])
		}
	default:
		err = errors.NewUsageError(fmt.Sprintf("unknown command %q", name), nil)
	}
	if err != nil {
		return nil, err
	}
	return cmd, nil
}

func arity(name string, args []string, want int) error {
	if len(args) != want {
		return errors.NewUsageError(
			fmt.Sprintf("%s accepts %d arg(s), received %d", name, want, len(args)), nil)
	}
	return nil
}

func required(name, arg, value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.NewUsageError(fmt.Sprintf("%s: %s must not be empty", name, arg), nil)
	}
	return nil
}
