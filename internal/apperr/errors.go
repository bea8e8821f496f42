// Package apperr defines the error kinds returned by the file services.
// Transport layers map kinds to status codes; services never do.
package apperr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/models"
)

type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindConflict          Kind = "conflict"
	KindValidation        Kind = "validation"
	KindPathRejected      Kind = "path_rejected"
	KindDiskInconsistency Kind = "disk_inconsistency"
	KindArchiveFailure    Kind = "archive_failure"
	KindInternal          Kind = "internal"
)

// Sentinels for errors.Is. An *Error matches the sentinel of its kind.
var (
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrConflict          = &Error{Kind: KindConflict}
	ErrValidation        = &Error{Kind: KindValidation}
	ErrPathRejected      = &Error{Kind: KindPathRejected}
	ErrDiskInconsistency = &Error{Kind: KindDiskInconsistency}
	ErrArchiveFailure    = &Error{Kind: KindArchiveFailure}
	ErrInternal          = &Error{Kind: KindInternal}
)

// FieldError is a single field constraint violation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (f FieldError) String() string {
	return f.Field + ": " + f.Message
}

// Error is the service error. Only the fields relevant to Kind are set.
type Error struct {
	Kind    Kind
	Message string
	Cause   error

	// Validation
	Fields []FieldError

	// DiskInconsistency
	CatalogMissing []int64
	DiskMissing    []models.FileRef
	Available      []models.FileRef
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for _, f := range e.Fields {
			parts = append(parts, f.String())
		}
		msg += ": " + strings.Join(parts, "; ")
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on Kind so that errors.Is(err, ErrNotFound) works for any
// not-found error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of err, or KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func Validation(fields ...FieldError) *Error {
	return &Error{Kind: KindValidation, Message: "validation failed", Fields: fields}
}

func PathRejected(path, root string) *Error {
	return &Error{
		Kind:    KindPathRejected,
		Message: fmt.Sprintf("path %q is outside the storage root %q", path, root),
	}
}

// DiskInconsistency reports records requested in a batch that are missing
// from the catalog or from disk.
func DiskInconsistency(catalogMissing []int64, diskMissing, available []models.FileRef) *Error {
	msg := "some files were not found"
	if len(catalogMissing) > 0 && len(diskMissing) == 0 {
		msg = "some files are not in the catalog"
	} else if len(catalogMissing) == 0 && len(diskMissing) > 0 {
		msg = "some files are missing on disk"
	}
	return &Error{
		Kind:           KindDiskInconsistency,
		Message:        msg,
		CatalogMissing: catalogMissing,
		DiskMissing:    diskMissing,
		Available:      available,
	}
}

func ArchiveFailure(cause error) *Error {
	return &Error{Kind: KindArchiveFailure, Message: "failed to build archive", Cause: cause}
}

// Internal wraps an unexpected failure. Existing *Error values pass through.
func Internal(msg string, cause error) error {
	var e *Error
	if errors.As(cause, &e) {
		return cause
	}
	return &Error{Kind: KindInternal, Message: msg, Cause: cause}
}
