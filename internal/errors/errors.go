// Package errors provides the typed error hierarchy shared by every bootstrap
// subcommand. Errors carry a category so the command layer can report them
// consistently and tests can assert on the failure class with errors.Is.
package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"path/filepath"
)

// ErrorType represents the category of error for classification and handling.
type ErrorType string

// Error type constants define the categories of failures a subcommand can report.
const (
	ErrTypeUsage         ErrorType = "usage"
	ErrTypeConfig        ErrorType = "config"
	ErrTypeFile          ErrorType = "file"
	ErrTypeNetwork       ErrorType = "network"
	ErrTypeArchive       ErrorType = "archive"
	ErrTypePathTraversal ErrorType = "path traversal"
	ErrTypeBackup        ErrorType = "backup"
)

// BootstrapError is the base error type that provides structured error information.
// Specific error kinds embed it, so a single type assertion or errors.Is check
// against a BootstrapError of the wanted Type identifies any of them.
type BootstrapError struct {
	Type    ErrorType
	Path    string
	Message string
	Cause   error
}

func (e *BootstrapError) Error() string {
	msg := fmt.Sprintf("%s error: %s", e.Type, e.Message)
	if e.Path != "" {
		msg = fmt.Sprintf("%s error for %s: %s", e.Type, e.Path, e.Message)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *BootstrapError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a BootstrapError of the same Type.
func (e *BootstrapError) Is(target error) bool {
	t, ok := target.(*BootstrapError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// Sentinels usable with errors.Is to match a category regardless of path or cause.
var (
	ErrUsage         = &BootstrapError{Type: ErrTypeUsage}
	ErrConfig        = &BootstrapError{Type: ErrTypeConfig}
	ErrFile          = &BootstrapError{Type: ErrTypeFile}
	ErrNetwork       = &BootstrapError{Type: ErrTypeNetwork}
	ErrArchive       = &BootstrapError{Type: ErrTypeArchive}
	ErrPathTraversal = &BootstrapError{Type: ErrTypePathTraversal}
	ErrBackup        = &BootstrapError{Type: ErrTypeBackup}
)

// UsageError reports a malformed invocation: missing arguments, an empty
// value or an unsupported URL scheme.
type UsageError struct {
	*BootstrapError
}

// NewUsageError creates a usage error.
func NewUsageError(message string, cause error) *UsageError {
	return &UsageError{
		BootstrapError: &BootstrapError{
			Type:    ErrTypeUsage,
			Message: message,
			Cause:   cause,
		},
	}
}

// ConfigError represents invalid flag values detected before any work starts.
type ConfigError struct {
	*BootstrapError
}

// NewConfigError creates a configuration error without path context.
func NewConfigError(message string, cause error) *ConfigError {
	return &ConfigError{
		BootstrapError: &BootstrapError{
			Type:    ErrTypeConfig,
			Message: message,
			Cause:   cause,
		},
	}
}

// NewConfigErrorWithPath creates a configuration error tied to a path argument.
func NewConfigErrorWithPath(path, message string, cause error) *ConfigError {
	return &ConfigError{
		BootstrapError: &BootstrapError{
			Type:    ErrTypeConfig,
			Path:    path,
			Message: message,
			Cause:   cause,
		},
	}
}

// FileError represents file system operation errors.
type FileError struct {
	*BootstrapError
}

// NewFileError creates a file operation error with context.
func NewFileError(path, message string, cause error) *FileError {
	return &FileError{
		BootstrapError: &BootstrapError{
			Type:    ErrTypeFile,
			Path:    path,
			Message: message,
			Cause:   cause,
		},
	}
}

// FileNotFoundError represents errors when files cannot be located.
type FileNotFoundError struct {
	*FileError
}

// NewFileNotFoundError creates a file not found error.
func NewFileNotFoundError(path string, cause error) *FileNotFoundError {
	return &FileNotFoundError{
		FileError: NewFileError(path, "file not found", cause),
	}
}

// FileNotWritableError represents errors when files cannot be written to.
type FileNotWritableError struct {
	*FileError
}

// NewFileNotWritableError creates a file write permission error.
func NewFileNotWritableError(path string, cause error) *FileNotWritableError {
	return &FileNotWritableError{
		FileError: NewFileError(path, "file not writable", cause),
	}
}

// FileNotReadableError represents errors when files cannot be read from.
type FileNotReadableError struct {
	*FileError
}

// NewFileNotReadableError creates a file read permission error.
func NewFileNotReadableError(path string, cause error) *FileNotReadableError {
	return &FileNotReadableError{
		FileError: NewFileError(path, "file not readable", cause),
	}
}

// NetworkError represents a failed fetch: unreachable host, timeout or a
// non-success status. Path holds the URL.
type NetworkError struct {
	*BootstrapError
	StatusCode int
}

// NewNetworkError creates a network error for url.
func NewNetworkError(url, message string, cause error) *NetworkError {
	return &NetworkError{
		BootstrapError: &BootstrapError{
			Type:    ErrTypeNetwork,
			Path:    url,
			Message: message,
			Cause:   cause,
		},
	}
}

// NewStatusError creates a network error for a response that was received
// but did not succeed.
func NewStatusError(url string, statusCode int, status string) *NetworkError {
	err := NewNetworkError(url, fmt.Sprintf("unexpected status %s", status), nil)
	err.StatusCode = statusCode
	return err
}

// ArchiveError represents an archive that cannot be opened or read.
type ArchiveError struct {
	*BootstrapError
}

// NewArchiveError creates an archive error.
func NewArchiveError(path, message string, cause error) *ArchiveError {
	return &ArchiveError{
		BootstrapError: &BootstrapError{
			Type:    ErrTypeArchive,
			Path:    path,
			Message: message,
			Cause:   cause,
		},
	}
}

// PathTraversalError is returned when an archive entry would resolve outside
// the extraction directory.
type PathTraversalError struct {
	*BootstrapError
	Entry  string
	Target string
}

// NewPathTraversalError creates a path traversal error for entry inside archive.
func NewPathTraversalError(archive, entry, target string) *PathTraversalError {
	return &PathTraversalError{
		BootstrapError: &BootstrapError{
			Type:    ErrTypePathTraversal,
			Path:    archive,
			Message: fmt.Sprintf("entry %q escapes %s", entry, target),
		},
		Entry:  entry,
		Target: target,
	}
}

// BackupError represents errors during backup creation.
type BackupError struct {
	*BootstrapError
}

// NewBackupError creates a backup operation error.
func NewBackupError(path, message string, cause error) *BackupError {
	return &BackupError{
		BootstrapError: &BootstrapError{
			Type:    ErrTypeBackup,
			Path:    path,
			Message: message,
			Cause:   cause,
		},
	}
}

// WrapFileError converts standard Go errors into typed file errors.
// Missing files become FileNotFoundError, permission failures become
// FileNotWritableError, everything else a generic FileError.
func WrapFileError(path string, err error) error {
	if err == nil {
		return nil
	}

	absPath, absErr := filepath.Abs(path)
	if absErr != nil {
		absPath = path
	}
	switch {
	case isNotFoundError(err):
		return NewFileNotFoundError(absPath, err)
	case isPermissionError(err):
		return NewFileNotWritableError(absPath, err)
	default:
		return NewFileError(absPath, "file operation failed", err)
	}
}

// ExitCode maps an error returned by a subcommand to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}

func isNotFoundError(err error) bool {
	return stderrors.Is(err, fs.ErrNotExist)
}

func isPermissionError(err error) bool {
	return stderrors.Is(err, fs.ErrPermission)
}
