package gitfix

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"bootstrap/internal/backup"
	"bootstrap/internal/config"
	"bootstrap/internal/errors"
	"bootstrap/internal/fsx"
	"bootstrap/internal/log"
)

// GitmodulesFile is the file rewritten below the root directory.
const GitmodulesFile = ".gitmodules"

// Result is the outcome of a FixFile call.
type Result struct {
	*FileResult
	BackupPath string
	Written    bool
}

// Fixer rewrites <root>/.gitmodules in place.
type Fixer struct {
	config   *config.Config
	reporter log.Reporter
	engine   *Engine
	backup   *backup.Manager
}

// NewFixer creates a Fixer using DefaultRules.
func NewFixer(cfg *config.Config, reporter log.Reporter) *Fixer {
	return &Fixer{
		config:   cfg,
		reporter: reporter,
		engine:   NewEngine(),
		backup:   backup.NewBackupManager(cfg.ShouldCreateBackup()),
	}
}

// FixFile rewrites the remotes in root/.gitmodules. Every line is reported as
// unchanged or changed. The file is replaced atomically and only when at
// least one line changed; a dry run never writes.
func (f *Fixer) FixFile(ctx context.Context, root string) (*Result, error) {
	absRoot, err := config.AbsPath(root)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(absRoot, GitmodulesFile)

	f.reporter.Report(log.Event{Kind: log.EventGitFixStarted, Path: path, DryRun: f.config.DryRun})

	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.WrapFileError(path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, errors.NewFileError(path, "not a regular file", nil)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewFileNotReadableError(path, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fileResult, rewritten := f.engine.Process(path, content)
	result := &Result{FileResult: fileResult}

	for _, edit := range fileResult.Edits {
		f.reporter.Report(lineEvent(path, edit))
	}

	if fileResult.Modified && !f.config.DryRun {
		if err := f.write(path, rewritten, info.Mode().Perm(), result); err != nil {
			return nil, err
		}
	}

	f.reporter.Report(log.Event{
		Kind:   log.EventGitFixFinished,
		Path:   path,
		Count:  fileResult.Changed,
		DryRun: f.config.DryRun,
	})
	return result, nil
}

func (f *Fixer) write(path string, content []byte, mode os.FileMode, result *Result) error {
	backupPath, err := f.backup.BackupFile(path)
	if err != nil {
		return err
	}
	result.BackupPath = backupPath

	// Replace the file a symlink points to, not the link itself.
	dest := path
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		dest = resolved
	}

	if err := fsx.AtomicWrite(dest, content, mode); err != nil {
		return errors.WrapFileError(dest, err)
	}
	result.Written = true
	return nil
}

func lineEvent(path string, edit LineEdit) log.Event {
	e := log.Event{
		Kind:   log.EventLineSame,
		Path:   path,
		Line:   edit.Line,
		Before: trimEOL(edit.Before),
	}
	if edit.Changed {
		e.Kind = log.EventLineChanged
		e.After = trimEOL(edit.After)
	}
	return e
}

func trimEOL(s string) string {
	return strings.TrimRight(s, "\r\n")
}
