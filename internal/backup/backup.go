// Package backup keeps timestamped copies of files before they are rewritten.
package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"bootstrap/internal/errors"
)

// Manager handles file backup operations. A disabled Manager is a no-op.
type Manager struct {
	enabled bool
	now     func() time.Time
}

// NewBackupManager creates a Manager with the specified behavior.
func NewBackupManager(enabled bool) *Manager {
	return &Manager{
		enabled: enabled,
		now:     time.Now,
	}
}

// Enabled reports whether BackupFile copies anything.
func (bm *Manager) Enabled() bool {
	return bm.enabled
}

// BackupFile copies filePath to <name>.<timestamp>.bak next to it, keeping the
// file mode, and returns the backup path. It returns "" when disabled.
func (bm *Manager) BackupFile(filePath string) (string, error) {
	if !bm.enabled {
		return "", nil
	}

	backupPath := bm.generateBackupPath(filePath)

	srcFile, err := os.Open(filePath)
	if err != nil {
		return "", errors.NewBackupError(filePath, "failed to open source file", err)
	}
	defer srcFile.Close()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return "", errors.NewBackupError(filePath, "failed to stat source file", err)
	}

	dstFile, err := os.OpenFile(backupPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, srcInfo.Mode().Perm())
	if err != nil {
		return "", errors.NewBackupError(backupPath, "failed to create backup file", err)
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()
		_ = os.Remove(backupPath)
		return "", errors.NewBackupError(backupPath, "failed to copy file content", err)
	}

	if err := dstFile.Close(); err != nil {
		_ = os.Remove(backupPath)
		return "", errors.NewBackupError(backupPath, "failed to close backup file", err)
	}

	return backupPath, nil
}

func (bm *Manager) generateBackupPath(originalPath string) string {
	dir := filepath.Dir(originalPath)
	base := filepath.Base(originalPath)
	timestamp := bm.now().Format("20060102_150405")

	return filepath.Join(dir, fmt.Sprintf("%s.%s.bak", base, timestamp))
}
