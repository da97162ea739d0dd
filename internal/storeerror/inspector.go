package storeerror

import (
	"errors"
	"io/fs"
	"strings"
	"syscall"

	studioerrors "github.com/sirseerhq/sirseer-studio/internal/errors"
)

// Inspector provides methods for analyzing durable store errors.
type Inspector interface {
	// IsQuotaError returns true if the store rejected a write because of its size.
	IsQuotaError(err error) bool

	// IsBusyError returns true if the error is transient contention worth retrying.
	IsBusyError(err error) bool

	// IsNotFoundError returns true if the error represents a missing key.
	IsNotFoundError(err error) bool
}

// StoreErrorInspector implements the Inspector interface for file and SQLite backends.
type StoreErrorInspector struct{}

// NewInspector creates a new StoreErrorInspector.
func NewInspector() Inspector {
	return &StoreErrorInspector{}
}

// IsQuotaError checks if the error is a quota or disk-full error.
func (i *StoreErrorInspector) IsQuotaError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, studioerrors.ErrQuotaExceeded) ||
		errors.Is(err, syscall.ENOSPC) ||
		errors.Is(err, syscall.EDQUOT) {
		return true
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "quota") ||
		strings.Contains(errStr, "database or disk is full") ||
		strings.Contains(errStr, "sqlite_full") ||
		strings.Contains(errStr, "no space left") ||
		strings.Contains(errStr, "string or blob too big") ||
		strings.Contains(errStr, "file too large")
}

// IsBusyError checks if the error is a lock or busy error.
func (i *StoreErrorInspector) IsBusyError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "database is locked") ||
		strings.Contains(errStr, "database table is locked") ||
		strings.Contains(errStr, "sqlite_busy") ||
		strings.Contains(errStr, "sqlite_locked") ||
		strings.Contains(errStr, "resource temporarily unavailable")
}

// IsNotFoundError checks if the error is a not found error.
func (i *StoreErrorInspector) IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, studioerrors.ErrNoSavedProject) {
		return true
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "no such file") ||
		strings.Contains(errStr, "not found")
}

// ErrorChainInspector wraps a base inspector and adds support for checking errors
// in the error chain using errors.As.
type ErrorChainInspector struct {
	base Inspector
}

// NewErrorChainInspector creates a new ErrorChainInspector that checks both
// the error chain and falls back to the base inspector.
func NewErrorChainInspector(base Inspector) Inspector {
	return &ErrorChainInspector{base: base}
}

// IsQuotaError checks the error chain first, then falls back to base inspector.
func (e *ErrorChainInspector) IsQuotaError(err error) bool {
	var quotaErr interface{ IsQuotaError() bool }
	if errors.As(err, &quotaErr) && quotaErr.IsQuotaError() {
		return true
	}
	return e.base.IsQuotaError(err)
}

// IsBusyError checks the error chain first, then falls back to base inspector.
func (e *ErrorChainInspector) IsBusyError(err error) bool {
	var busyErr interface{ IsBusyError() bool }
	if errors.As(err, &busyErr) && busyErr.IsBusyError() {
		return true
	}
	return e.base.IsBusyError(err)
}

// IsNotFoundError checks the error chain first, then falls back to base inspector.
func (e *ErrorChainInspector) IsNotFoundError(err error) bool {
	var notFoundErr interface{ IsNotFoundError() bool }
	if errors.As(err, &notFoundErr) && notFoundErr.IsNotFoundError() {
		return true
	}
	return e.base.IsNotFoundError(err)
}
