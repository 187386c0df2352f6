package settings

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat indicates a stored value that does not match its kind's format.
	ErrFormat = errors.New("settings: malformed value")
	// ErrOverflow indicates a numeric value outside the kind's range.
	ErrOverflow = errors.New("settings: value out of range")
	// ErrArgument indicates an invalid tag or enum member.
	ErrArgument = errors.New("settings: invalid argument")
	// ErrValueType indicates a typed value that the serializer cannot handle.
	ErrValueType = errors.New("settings: unexpected value type")
	// ErrDuplicateKey indicates a key added twice to the same collection.
	ErrDuplicateKey = errors.New("settings: duplicate key")
	// ErrNilProvider indicates a nil provider passed to the builder.
	ErrNilProvider = errors.New("settings: provider is nil")
	// ErrNilFactory indicates a nil provider factory passed to the builder.
	ErrNilFactory = errors.New("settings: provider factory is nil")
	// ErrScopeConflict indicates one key registered with two different scopes.
	ErrScopeConflict = errors.New("settings: conflicting scope registration")
	// ErrInvalidScope indicates an unknown Scope value.
	ErrInvalidScope = errors.New("settings: invalid scope")
	// ErrNotFound indicates a lookup for a group or key that is not loaded.
	ErrNotFound = errors.New("settings: not found")
)

// ParseError reports a stored value that failed to deserialize during Load.
type ParseError struct {
	Scope Scope
	Group string
	Key   string
	Kind  string
	Raw   string
	Err   error
}

func (e *ParseError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("settings: parse %s/%s (%s, scope=%s) value=%q: %v", e.Group, e.Key, e.Kind, e.Scope, e.Raw, e.Err)
}

func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func formatError(kind, raw string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%w: %s %q", ErrFormat, kind, raw)
	}
	return fmt.Errorf("%w: %s %q: %v", ErrFormat, kind, raw, cause)
}

func overflowError(kind, raw string) error {
	return fmt.Errorf("%w: %s %q", ErrOverflow, kind, raw)
}

func valueTypeError(kind string, value any) error {
	return fmt.Errorf("%w: %s cannot handle %T", ErrValueType, kind, value)
}
