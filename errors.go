package appsyncgen

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors of the build tooling.
var (
	// ErrCache is returned by cache operations that failed.
	ErrCache = errors.New("appsyncgen: cache failure")

	// ErrProject is returned when building a configured project failed.
	ErrProject = errors.New("appsyncgen: project build failed")

	errNilSnapshot  = errors.New("snapshot is nil")
	errNilArtifacts = errors.New("artifacts are nil")
)

// CacheError wraps a failed cache operation.
type CacheError struct {
	Op  string // get, set, delete, clear, key, encode or decode
	Key string // Optional: the key of the operation
	Err error
}

// Error returns the error string.
func (e *CacheError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("appsyncgen: cache %s %q: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("appsyncgen: cache %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *CacheError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches ErrCache.
func (e *CacheError) Is(err error) bool {
	return err == ErrCache
}

// IsCacheError returns true if the error is a CacheError.
func IsCacheError(err error) bool {
	if err == nil {
		return false
	}
	var e *CacheError
	return errors.As(err, &e)
}

// ProjectError attributes an error to a configured project.
type ProjectError struct {
	Project string
	Err     error
}

// Error returns the error string.
func (e *ProjectError) Error() string {
	return fmt.Sprintf("appsyncgen: project %s: %v", e.Project, e.Err)
}

// Unwrap returns the underlying error.
func (e *ProjectError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches ErrProject.
func (e *ProjectError) Is(err error) bool {
	return err == ErrProject
}

// AggregateError represents multiple errors collected during an operation.
type AggregateError struct {
	Errors []error
}

// Error returns the error string.
func (e *AggregateError) Error() string {
	if len(e.Errors) == 0 {
		return "appsyncgen: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString("appsyncgen: multiple errors:")
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  [%d] %v", i+1, err)
	}
	return sb.String()
}

// Unwrap returns the collected errors.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// NewAggregateError returns a new AggregateError if there are errors,
// otherwise returns nil.
func NewAggregateError(errs ...error) error {
	var filtered []error
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &AggregateError{Errors: filtered}
}
