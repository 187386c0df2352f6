package settings

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// Serializer converts between the stored string form of a value kind and its
// typed representation.
type Serializer interface {
	// Kind is the ValueKind tag selecting this serializer.
	Kind() string
	// Type is the Go type produced by Parse and accepted by Format.
	Type() reflect.Type
	// Parse decodes raw. tag carries kind-specific data such as an enum type name.
	Parse(raw, tag string) (any, error)
	Format(value any) (string, error)
	Equal(a, b any) bool
}

// TypedSerializer implements Serializer on top of typed functions.
type TypedSerializer[T any] struct {
	kind   string
	parse  func(raw, tag string) (T, error)
	format func(value T) (string, error)
	equal  func(a, b T) bool
}

// NewSerializer builds a Serializer for T. A nil equal falls back to
// reflect.DeepEqual.
func NewSerializer[T any](kind string, parse func(raw, tag string) (T, error), format func(T) (string, error), equal func(a, b T) bool) *TypedSerializer[T] {
	if equal == nil {
		equal = func(a, b T) bool { return reflect.DeepEqual(a, b) }
	}
	return &TypedSerializer[T]{kind: kind, parse: parse, format: format, equal: equal}
}

// Alias returns a serializer with the same behaviour registered under kind.
func (s *TypedSerializer[T]) Alias(kind string) *TypedSerializer[T] {
	return &TypedSerializer[T]{kind: kind, parse: s.parse, format: s.format, equal: s.equal}
}

func (s *TypedSerializer[T]) Kind() string { return s.kind }

func (s *TypedSerializer[T]) Type() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func (s *TypedSerializer[T]) Parse(raw, tag string) (any, error) {
	value, err := s.parse(raw, tag)
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *TypedSerializer[T]) Format(value any) (string, error) {
	typed, ok := value.(T)
	if !ok {
		if value != nil {
			return "", valueTypeError(s.kind, value)
		}
		var zero T
		typed = zero
	}
	return s.format(typed)
}

func (s *TypedSerializer[T]) Equal(a, b any) bool {
	ta, okA := a.(T)
	tb, okB := b.(T)
	if !okA || !okB {
		if a == nil && b == nil {
			return true
		}
		return false
	}
	return s.equal(ta, tb)
}

// SerializerRegistry maps value kinds to serializers. The last registration
// for a kind wins.
type SerializerRegistry struct {
	mu          sync.RWMutex
	serializers map[string]Serializer
}

// NewSerializerRegistry constructs an empty registry.
func NewSerializerRegistry() *SerializerRegistry {
	return &SerializerRegistry{serializers: make(map[string]Serializer)}
}

// Register stores serializers under their kinds, replacing earlier ones.
func (r *SerializerRegistry) Register(serializers ...Serializer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.serializers == nil {
		r.serializers = make(map[string]Serializer)
	}
	for _, s := range serializers {
		if s == nil {
			return fmt.Errorf("settings: serializer is nil")
		}
		if s.Kind() == "" {
			return fmt.Errorf("settings: serializer kind must not be empty")
		}
		r.serializers[s.Kind()] = s
	}
	return nil
}

// Lookup returns the serializer registered for kind.
func (r *SerializerRegistry) Lookup(kind string) (Serializer, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.serializers[kind]
	return s, ok
}

// Kinds returns registered kinds sorted alphabetically.
func (r *SerializerRegistry) Kinds() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.serializers))
	for kind := range r.serializers {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}
