package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBootstrapError(t *testing.T) {
	tests := []struct {
		name        string
		errorType   ErrorType
		path        string
		message     string
		cause       error
		expectedMsg string
	}{
		{
			name:        "error with path",
			errorType:   ErrTypeFile,
			path:        "/path/to/file.txt",
			message:     "file not found",
			expectedMsg: "file error for /path/to/file.txt: file not found",
		},
		{
			name:        "error without path",
			errorType:   ErrTypeConfig,
			message:     "invalid configuration",
			expectedMsg: "config error: invalid configuration",
		},
		{
			name:        "error with cause",
			errorType:   ErrTypeNetwork,
			path:        "https://example.com/a.txt",
			message:     "request failed",
			cause:       errors.New("connection refused"),
			expectedMsg: "network error for https://example.com/a.txt: request failed: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &BootstrapError{
				Type:    tt.errorType,
				Path:    tt.path,
				Message: tt.message,
				Cause:   tt.cause,
			}

			assert.Equal(t, tt.expectedMsg, err.Error())
			assert.Equal(t, tt.cause, err.Unwrap())
		})
	}
}

func TestBootstrapErrorIs(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		expect bool
	}{
		{
			name:   "same error type",
			err:    &BootstrapError{Type: ErrTypeFile},
			target: ErrFile,
			expect: true,
		},
		{
			name:   "different error type",
			err:    &BootstrapError{Type: ErrTypeFile},
			target: ErrConfig,
			expect: false,
		},
		{
			name:   "not a BootstrapError",
			err:    &BootstrapError{Type: ErrTypeFile},
			target: errors.New("standard error"),
			expect: false,
		},
		{
			name:   "embedded file not found error",
			err:    NewFileNotFoundError("/x", nil),
			target: ErrFile,
			expect: true,
		},
		{
			name:   "wrapped path traversal error",
			err:    fmt.Errorf("extract: %w", NewPathTraversalError("a.zip", "../evil", "/out")),
			target: ErrPathTraversal,
			expect: true,
		},
		{
			name:   "status error is a network error",
			err:    NewStatusError("http://x", 404, "404 Not Found"),
			target: ErrNetwork,
			expect: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, errors.Is(tt.err, tt.target))
		})
	}
}

func TestConstructors(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name        string
		err         *BootstrapError
		wantType    ErrorType
		wantPath    string
		wantMessage string
	}{
		{
			name:        "usage",
			err:         NewUsageError("url is required", nil).BootstrapError,
			wantType:    ErrTypeUsage,
			wantMessage: "url is required",
		},
		{
			name:        "config",
			err:         NewConfigError("invalid log format", cause).BootstrapError,
			wantType:    ErrTypeConfig,
			wantMessage: "invalid log format",
		},
		{
			name:        "config with path",
			err:         NewConfigErrorWithPath("rel/dir", "invalid path", cause).BootstrapError,
			wantType:    ErrTypeConfig,
			wantPath:    "rel/dir",
			wantMessage: "invalid path",
		},
		{
			name:        "file",
			err:         NewFileError("/f", "write failed", cause).BootstrapError,
			wantType:    ErrTypeFile,
			wantPath:    "/f",
			wantMessage: "write failed",
		},
		{
			name:        "file not found",
			err:         NewFileNotFoundError("/f", cause).BootstrapError,
			wantType:    ErrTypeFile,
			wantPath:    "/f",
			wantMessage: "file not found",
		},
		{
			name:        "file not writable",
			err:         NewFileNotWritableError("/f", cause).BootstrapError,
			wantType:    ErrTypeFile,
			wantPath:    "/f",
			wantMessage: "file not writable",
		},
		{
			name:        "file not readable",
			err:         NewFileNotReadableError("/f", cause).BootstrapError,
			wantType:    ErrTypeFile,
			wantPath:    "/f",
			wantMessage: "file not readable",
		},
		{
			name:        "network",
			err:         NewNetworkError("http://h/x", "request failed", cause).BootstrapError,
			wantType:    ErrTypeNetwork,
			wantPath:    "http://h/x",
			wantMessage: "request failed",
		},
		{
			name:        "archive",
			err:         NewArchiveError("a.zip", "not a valid zip file", cause).BootstrapError,
			wantType:    ErrTypeArchive,
			wantPath:    "a.zip",
			wantMessage: "not a valid zip file",
		},
		{
			name:        "backup",
			err:         NewBackupError("/f.bak", "failed to create backup file", cause).BootstrapError,
			wantType:    ErrTypeBackup,
			wantPath:    "/f.bak",
			wantMessage: "failed to create backup file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotNil(t, tt.err)
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.Equal(t, tt.wantPath, tt.err.Path)
			assert.Equal(t, tt.wantMessage, tt.err.Message)
		})
	}
}

func TestNewStatusError(t *testing.T) {
	err := NewStatusError("https://example.com/a.txt", 404, "404 Not Found")

	assert.Equal(t, 404, err.StatusCode)
	assert.Equal(t, "network error for https://example.com/a.txt: unexpected status 404 Not Found", err.Error())
}

func TestNewPathTraversalError(t *testing.T) {
	err := NewPathTraversalError("a.zip", "../../etc/passwd", "/out")

	assert.Equal(t, "../../etc/passwd", err.Entry)
	assert.Equal(t, "/out", err.Target)
	assert.Contains(t, err.Error(), `entry "../../etc/passwd" escapes /out`)
}

func TestWrapFileError(t *testing.T) {
	t.Run("nil error", func(t *testing.T) {
		assert.NoError(t, WrapFileError("/test/file.txt", nil))
	})

	t.Run("not found", func(t *testing.T) {
		cause := &fs.PathError{Op: "open", Path: "/missing", Err: fs.ErrNotExist}
		err := WrapFileError("/missing", cause)

		var target *FileNotFoundError
		require.ErrorAs(t, err, &target)
		assert.Equal(t, "/missing", target.Path)
		assert.ErrorIs(t, err, fs.ErrNotExist)
	})

	t.Run("permission", func(t *testing.T) {
		cause := &fs.PathError{Op: "open", Path: "/locked", Err: fs.ErrPermission}
		err := WrapFileError("/locked", cause)

		var target *FileNotWritableError
		require.ErrorAs(t, err, &target)
	})

	t.Run("generic", func(t *testing.T) {
		err := WrapFileError("/test/file.txt", errors.New("generic error"))

		var target *FileError
		require.ErrorAs(t, err, &target)
		assert.Equal(t, "file operation failed", target.Message)
		assert.ErrorIs(t, err, ErrFile)
	})
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(NewUsageError("bad", nil)))
	assert.Equal(t, 1, ExitCode(errors.New("plain")))
}

func TestIsNotFoundError(t *testing.T) {
	assert.True(t, isNotFoundError(fmt.Errorf("wrapped: %w", fs.ErrNotExist)))
	assert.False(t, isNotFoundError(errors.New("relative/path/error")))
}

func TestIsPermissionError(t *testing.T) {
	assert.True(t, isPermissionError(fmt.Errorf("wrapped: %w", fs.ErrPermission)))
	assert.False(t, isPermissionError(errors.New("permission denied")))
}
