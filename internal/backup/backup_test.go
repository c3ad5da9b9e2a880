package backup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bootstrap/internal/errors"
)

func TestNewBackupManager(t *testing.T) {
	assert.True(t, NewBackupManager(true).Enabled())
	assert.False(t, NewBackupManager(false).Enabled())
}

func TestBackupFile(t *testing.T) {
	tests := []struct {
		name        string
		enabled     bool
		setupFile   bool
		fileContent string
		expectError bool
		expectPath  bool
	}{
		{
			name:        "backup enabled with valid file",
			enabled:     true,
			setupFile:   true,
			fileContent: "[submodule \"lib\"]\n\turl = git@github.com:org/lib.git\n",
			expectPath:  true,
		},
		{
			name:        "backup disabled",
			enabled:     false,
			setupFile:   true,
			fileContent: "test content",
		},
		{
			name:        "backup enabled with non-existent file",
			enabled:     true,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tempDir := t.TempDir()
			manager := NewBackupManager(tt.enabled)

			filePath := filepath.Join(tempDir, ".gitmodules")
			if tt.setupFile {
				require.NoError(t, os.WriteFile(filePath, []byte(tt.fileContent), 0o640))
			}

			backupPath, err := manager.BackupFile(filePath)

			if tt.expectError {
				require.Error(t, err)
				assert.ErrorIs(t, err, errors.ErrBackup)
				return
			}
			require.NoError(t, err)

			if !tt.expectPath {
				assert.Empty(t, backupPath)
				entries, err := os.ReadDir(tempDir)
				require.NoError(t, err)
				assert.Len(t, entries, 1)
				return
			}

			require.NotEmpty(t, backupPath)
			content, err := os.ReadFile(backupPath)
			require.NoError(t, err)
			assert.Equal(t, tt.fileContent, string(content))

			info, err := os.Stat(backupPath)
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
		})
	}
}

func TestGenerateBackupPath(t *testing.T) {
	manager := NewBackupManager(true)
	manager.now = func() time.Time {
		return time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	}

	got := manager.generateBackupPath(filepath.Join("repo", ".gitmodules"))
	assert.Equal(t, filepath.Join("repo", ".gitmodules.20240309_140507.bak"), got)
}
