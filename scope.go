package settings

import "strings"

// Scope identifies the storage layer that owns a setting. Higher scopes
// override lower ones when resolving an effective value.
type Scope int

const (
	// ScopeDefault is the read-only baseline shipped with the application.
	ScopeDefault Scope = iota
	// ScopeGlobal is the machine-wide override layer.
	ScopeGlobal
	// ScopeUser is the per-user override layer.
	ScopeUser
)

// WritableScopes lists the scopes that Save and Merge may touch, strongest first.
var WritableScopes = []Scope{ScopeUser, ScopeGlobal}

func (s Scope) String() string {
	switch s {
	case ScopeDefault:
		return "default"
	case ScopeGlobal:
		return "global"
	case ScopeUser:
		return "user"
	default:
		return "unknown"
	}
}

// Priority orders scopes from weakest (Default) to strongest (User).
func (s Scope) Priority() int {
	switch s {
	case ScopeGlobal:
		return 200
	case ScopeUser:
		return 300
	default:
		return 100
	}
}

// Writable reports whether values owned by s are ever persisted.
func (s Scope) Writable() bool {
	return s == ScopeGlobal || s == ScopeUser
}

// Valid reports whether s is one of the known scopes.
func (s Scope) Valid() bool {
	return s >= ScopeDefault && s <= ScopeUser
}

// ParseScope converts a string representation into a Scope.
func ParseScope(value string) (Scope, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "default", "defaults":
		return ScopeDefault, true
	case "global", "machine":
		return ScopeGlobal, true
	case "user":
		return ScopeUser, true
	default:
		return ScopeDefault, false
	}
}

// MarshalText encodes the scope name.
func (s Scope) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, ErrInvalidScope
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a scope name.
func (s *Scope) UnmarshalText(text []byte) error {
	parsed, ok := ParseScope(string(text))
	if !ok {
		return ErrInvalidScope
	}
	*s = parsed
	return nil
}
