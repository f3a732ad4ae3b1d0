package gen

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure cases.
var (
	// ErrMapping indicates a native type that cannot be mapped to GraphQL.
	ErrMapping = errors.New("appsyncgen: type mapping failed")
	// ErrDuplicate indicates a name declared twice in the same scope.
	ErrDuplicate = errors.New("appsyncgen: duplicate declaration")
	// ErrMissingReference indicates a reference to an undeclared name.
	ErrMissingReference = errors.New("appsyncgen: missing reference")
	// ErrInvalidDirectiveUsage indicates a directive applied where it is
	// not allowed.
	ErrInvalidDirectiveUsage = errors.New("appsyncgen: invalid directive usage")
	// ErrInvalidTypeShape indicates a declaration whose content conflicts
	// with its kind.
	ErrInvalidTypeShape = errors.New("appsyncgen: invalid type shape")
	// ErrGenerationFailed indicates an artifact generation failure.
	ErrGenerationFailed = errors.New("appsyncgen: generation failed")
	// ErrMissingConfig indicates a configuration error.
	ErrMissingConfig = errors.New("appsyncgen: missing configuration")
)

// MappingError is returned when a native type descriptor cannot be mapped.
type MappingError struct {
	Type       string // Owning type or operation
	Field      string // Field or argument name (if applicable)
	NativeType string
	Message    string
}

// Error implements the error interface.
func (e *MappingError) Error() string {
	var b strings.Builder
	b.WriteString("appsyncgen: cannot map type")
	if e.NativeType != "" {
		b.WriteString(" ")
		b.WriteString(e.NativeType)
	}
	writeOwner(&b, e.Type, e.Field)
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for MappingError.
func (e *MappingError) Is(target error) bool {
	return target == ErrMapping
}

// DuplicateDeclarationError is returned when a name is declared twice in
// one scope.
type DuplicateDeclarationError struct {
	Kind  string // "type", "field", "operation", ...
	Name  string
	Owner string // Enclosing type or root (if applicable)
}

// Error implements the error interface.
func (e *DuplicateDeclarationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "appsyncgen: duplicate %s %q", e.Kind, e.Name)
	if e.Owner != "" {
		b.WriteString(" in ")
		b.WriteString(e.Owner)
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for
// DuplicateDeclarationError.
func (e *DuplicateDeclarationError) Is(target error) bool {
	return target == ErrDuplicate
}

// MissingReferenceError is returned when a declaration refers to a name
// that is not declared.
type MissingReferenceError struct {
	Name     string
	Referrer string
	Field    string
	Role     string // "type", "interface", "union member", "directive", ...
}

// Error implements the error interface.
func (e *MissingReferenceError) Error() string {
	var b strings.Builder
	b.WriteString("appsyncgen: undeclared ")
	if e.Role != "" {
		b.WriteString(e.Role)
		b.WriteString(" ")
	}
	fmt.Fprintf(&b, "%q", e.Name)
	if e.Referrer != "" {
		b.WriteString(" referenced by ")
		b.WriteString(e.Referrer)
		if e.Field != "" {
			b.WriteString(".")
			b.WriteString(e.Field)
		}
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for
// MissingReferenceError.
func (e *MissingReferenceError) Is(target error) bool {
	return target == ErrMissingReference
}

// InvalidDirectiveUsageError is returned when a directive is applied at a
// location its definition does not allow, or with invalid arguments.
type InvalidDirectiveUsageError struct {
	Directive string
	Location  string
	Target    string
	Message   string
}

// Error implements the error interface.
func (e *InvalidDirectiveUsageError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "appsyncgen: invalid use of @%s", e.Directive)
	if e.Target != "" {
		b.WriteString(" on ")
		b.WriteString(e.Target)
	}
	if e.Location != "" {
		b.WriteString(" (")
		b.WriteString(e.Location)
		b.WriteString(")")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for
// InvalidDirectiveUsageError.
func (e *InvalidDirectiveUsageError) Is(target error) bool {
	return target == ErrInvalidDirectiveUsage
}

// InvalidTypeShapeError is returned when a declaration's content conflicts
// with its kind.
type InvalidTypeShapeError struct {
	Type    string
	Kind    string
	Message string
}

// Error implements the error interface.
func (e *InvalidTypeShapeError) Error() string {
	var b strings.Builder
	b.WriteString("appsyncgen: invalid")
	if e.Kind != "" {
		b.WriteString(" ")
		b.WriteString(e.Kind)
	}
	if e.Type != "" {
		b.WriteString(" ")
		b.WriteString(e.Type)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for
// InvalidTypeShapeError.
func (e *InvalidTypeShapeError) Is(target error) bool {
	return target == ErrInvalidTypeShape
}

// GenerationError represents an artifact generation error.
type GenerationError struct {
	Phase   string // "sdl", "manifest", "gobind", "verify", "write"
	File    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	var b strings.Builder
	b.WriteString("appsyncgen: generation error")
	if e.Phase != "" {
		b.WriteString(" in phase ")
		b.WriteString(e.Phase)
	}
	if e.File != "" {
		b.WriteString(" (file: ")
		b.WriteString(e.File)
		b.WriteString(")")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for GenerationError.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGenerationFailed
}

// NewGenerationError creates a new GenerationError.
func NewGenerationError(phase, file, message string, cause error) *GenerationError {
	return &GenerationError{
		Phase:   phase,
		File:    file,
		Message: message,
		Cause:   cause,
	}
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Option  string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("appsyncgen: config error for %q (value: %v): %s", e.Option, e.Value, e.Message)
	}
	return fmt.Sprintf("appsyncgen: config error for %q: %s", e.Option, e.Message)
}

// Is reports whether the target matches the sentinel error for ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrMissingConfig
}

// NewConfigError creates a new ConfigError.
func NewConfigError(option string, value any, message string) *ConfigError {
	return &ConfigError{
		Option:  option,
		Value:   value,
		Message: message,
	}
}

func writeOwner(b *strings.Builder, typ, field string) {
	if typ == "" {
		return
	}
	b.WriteString(" on ")
	b.WriteString(typ)
	if field != "" {
		b.WriteString(".")
		b.WriteString(field)
	}
}

// IsMappingError reports whether the error is a MappingError.
func IsMappingError(err error) bool {
	var mapErr *MappingError
	return errors.As(err, &mapErr)
}

// IsDuplicateDeclarationError reports whether the error is a
// DuplicateDeclarationError.
func IsDuplicateDeclarationError(err error) bool {
	var dupErr *DuplicateDeclarationError
	return errors.As(err, &dupErr)
}

// IsMissingReferenceError reports whether the error is a
// MissingReferenceError.
func IsMissingReferenceError(err error) bool {
	var refErr *MissingReferenceError
	return errors.As(err, &refErr)
}

// IsInvalidDirectiveUsageError reports whether the error is an
// InvalidDirectiveUsageError.
func IsInvalidDirectiveUsageError(err error) bool {
	var dirErr *InvalidDirectiveUsageError
	return errors.As(err, &dirErr)
}

// IsInvalidTypeShapeError reports whether the error is an
// InvalidTypeShapeError.
func IsInvalidTypeShapeError(err error) bool {
	var shapeErr *InvalidTypeShapeError
	return errors.As(err, &shapeErr)
}

// IsGenerationError reports whether the error is a GenerationError.
func IsGenerationError(err error) bool {
	var genErr *GenerationError
	return errors.As(err, &genErr)
}

// IsConfigError reports whether the error is a ConfigError.
func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}
