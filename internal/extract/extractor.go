// Package extract expands zip archives into a directory.
//
// Extraction runs in two passes. The first resolves every entry name against
// the target directory and rejects the whole archive if any entry would land
// outside it; the second writes the entries. A rejected archive therefore
// writes nothing at all.
package extract

import (
	"archive/zip"
	"context"
	stderrors "errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"bootstrap/internal/config"
	"bootstrap/internal/errors"
	"bootstrap/internal/log"
)

const (
	defaultFileMode fs.FileMode = 0o644
	defaultDirMode  fs.FileMode = 0o755
)

// Result describes a completed extraction.
type Result struct {
	Archive string
	Target  string
	Entries int
	Files   []string
}

// Extractor expands zip archives.
type Extractor struct {
	config   *config.Config
	reporter log.Reporter
}

// NewExtractor creates an Extractor reporting to reporter.
func NewExtractor(cfg *config.Config, reporter log.Reporter) *Extractor {
	return &Extractor{config: cfg, reporter: reporter}
}

type entry struct {
	file *zip.File
	// name is the cleaned path relative to the target directory.
	name string
	dest string
}

// Extract writes every entry of archivePath below target, creating target
// and intermediate directories as needed.
func (e *Extractor) Extract(ctx context.Context, archivePath, target string) (*Result, error) {
	absArchive, err := config.AbsPath(archivePath)
	if err != nil {
		return nil, err
	}
	absTarget, err := config.AbsPath(target)
	if err != nil {
		return nil, err
	}

	e.reporter.Report(log.Event{Kind: log.EventUnzipStarted, Path: absArchive, Target: absTarget})

	zr, err := zip.OpenReader(absArchive)
	if err != nil && !stderrors.Is(err, zip.ErrInsecurePath) {
		if stderrors.Is(err, fs.ErrNotExist) || stderrors.Is(err, fs.ErrPermission) {
			return nil, errors.WrapFileError(absArchive, err)
		}
		return nil, errors.NewArchiveError(absArchive, "not a valid zip file", err)
	}
	defer zr.Close()

	entries, err := plan(absArchive, absTarget, zr.File)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(absTarget, defaultDirMode); err != nil {
		return nil, errors.WrapFileError(absTarget, err)
	}

	// Every write goes through root, which refuses to leave the target even
	// if a symlink appears after planning.
	root, err := os.OpenRoot(absTarget)
	if err != nil {
		return nil, errors.WrapFileError(absTarget, err)
	}
	defer root.Close()

	result := &Result{Archive: absArchive, Target: absTarget}
	for _, ent := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := extractEntry(absArchive, root, ent); err != nil {
			return nil, err
		}
		result.Entries++
		if !ent.file.FileInfo().IsDir() {
			result.Files = append(result.Files, ent.dest)
		}
		e.reporter.Report(log.Event{Kind: log.EventEntryExtracted, Path: absArchive, Entry: ent.file.Name, Target: ent.dest})
	}

	e.reporter.Report(log.Event{Kind: log.EventUnzipFinished, Path: absArchive, Target: absTarget, Count: result.Entries})
	return result, nil
}

// plan resolves every entry against target. It fails on the first entry that
// escapes target, either by name or through a symlink already present below
// target.
func plan(archive, target string, files []*zip.File) ([]entry, error) {
	realTarget, err := filepath.EvalSymlinks(target)
	if err != nil {
		if !stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.WrapFileError(target, err)
		}
		realTarget = ""
	}

	entries := make([]entry, 0, len(files))
	for _, f := range files {
		name, ok := resolve(f.Name)
		if !ok {
			return nil, errors.NewPathTraversalError(archive, f.Name, target)
		}
		ent := entry{file: f, name: name, dest: filepath.Join(target, name)}
		if realTarget != "" && !staysInside(target, realTarget, ent) {
			return nil, errors.NewPathTraversalError(archive, f.Name, target)
		}
		entries = append(entries, ent)
	}
	return entries, nil
}

// resolve maps a zip entry name to a clean path relative to the target.
// Backslashes written by some Windows tools are treated as separators.
func resolve(name string) (string, bool) {
	local := filepath.FromSlash(strings.ReplaceAll(name, `\`, "/"))
	if !filepath.IsLocal(local) {
		return "", false
	}
	return filepath.Clean(local), true
}

// staysInside reports whether the deepest existing directory on the way to
// ent resolves below realTarget. A symlink as the last element of a file
// entry is replaced on write, so only its parent is checked.
func staysInside(target, realTarget string, ent entry) bool {
	p := ent.dest
	if !ent.file.FileInfo().IsDir() {
		p = filepath.Dir(p)
	}
	for p != target {
		if _, err := os.Lstat(p); err == nil {
			break
		}
		p = filepath.Dir(p)
	}
	if p == target {
		return true
	}

	resolved, err := filepath.EvalSymlinks(p)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(realTarget, resolved)
	return err == nil && (rel == "." || filepath.IsLocal(rel))
}

func extractEntry(archive string, root *os.Root, ent entry) error {
	info := ent.file.FileInfo()
	if info.IsDir() {
		if err := mkdirAll(root, ent.name, dirMode(info.Mode())); err != nil {
			return errors.WrapFileError(ent.dest, err)
		}
		return nil
	}

	if err := mkdirAll(root, filepath.Dir(ent.name), defaultDirMode); err != nil {
		return errors.WrapFileError(filepath.Dir(ent.dest), err)
	}

	// Never write through a link that already sits at the destination.
	if fi, err := root.Lstat(ent.name); err == nil && fi.Mode()&fs.ModeSymlink != 0 {
		if err := root.Remove(ent.name); err != nil {
			return errors.WrapFileError(ent.dest, err)
		}
	}

	src, err := ent.file.Open()
	if err != nil {
		return errors.NewArchiveError(archive, "cannot open entry "+ent.file.Name, err)
	}
	defer src.Close()

	dst, err := root.OpenFile(ent.name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fileMode(info.Mode()))
	if err != nil {
		return errors.WrapFileError(ent.dest, err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return errors.NewArchiveError(archive, "cannot read entry "+ent.file.Name, err)
	}
	if err := dst.Close(); err != nil {
		return errors.WrapFileError(ent.dest, err)
	}
	return nil
}

// mkdirAll creates name and its missing parents inside root.
func mkdirAll(root *os.Root, name string, perm fs.FileMode) error {
	if name == "." {
		return nil
	}
	dir := ""
	for _, part := range strings.Split(name, string(filepath.Separator)) {
		dir = filepath.Join(dir, part)
		err := root.Mkdir(dir, perm)
		if err == nil {
			continue
		}
		if !stderrors.Is(err, fs.ErrExist) {
			return err
		}
		fi, serr := root.Stat(dir)
		if serr != nil {
			return serr
		}
		if !fi.IsDir() {
			return &fs.PathError{Op: "mkdir", Path: dir, Err: fs.ErrExist}
		}
	}
	return nil
}

// fileMode keeps the permission bits recorded in the archive. Symlink entries
// are written as regular files holding the link text.
func fileMode(m fs.FileMode) fs.FileMode {
	if m&fs.ModeSymlink != 0 || m.Perm() == 0 {
		return defaultFileMode
	}
	return m.Perm()
}

func dirMode(m fs.FileMode) fs.FileMode {
	if m.Perm() == 0 {
		return defaultDirMode
	}
	return m.Perm() | 0o700
}
