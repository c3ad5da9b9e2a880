// Package fsx contains file system helpers shared by the subcommands.
package fsx

import (
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// WriteAtomic streams r into a temporary file next to path and renames it
// over path once everything is on disk. Missing parent directories are
// created. On failure the temporary file is removed and an existing file at
// path is left as it was. It returns the number of bytes copied from r.
func WriteAtomic(path string, r io.Reader, mode fs.FileMode) (int64, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return 0, err
	}
	tmpName := tmp.Name()

	n, err := io.Copy(tmp, r)
	if err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Chmod(tmpName, mode)
	}
	if err == nil {
		err = rename(tmpName, path)
	}
	if err != nil {
		_ = os.Remove(tmpName)
		return n, err
	}
	return n, nil
}

// AtomicWrite writes content to path through WriteAtomic.
func AtomicWrite(path string, content []byte, mode fs.FileMode) error {
	_, err := WriteAtomic(path, bytes.NewReader(content), mode)
	return err
}

// rename moves tmp over path. Windows refuses to replace an existing or
// briefly locked destination, so it gets a few retries.
func rename(tmp, path string) error {
	err := os.Rename(tmp, path)
	if err == nil || runtime.GOOS != "windows" {
		return err
	}
	for i := 0; i < 5; i++ {
		if _, statErr := os.Stat(path); statErr == nil {
			_ = os.Remove(path)
		}
		if err = os.Rename(tmp, path); err == nil {
			return nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	return err
}
