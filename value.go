package settings

import (
	"reflect"
	"sync"
)

// ChangeEvent describes a mutation of a Value.
type ChangeEvent struct {
	Group     string
	Key       string
	Scope     Scope
	OldValue  any
	NewValue  any
	IsDefault bool
}

// ChangeListener receives change notifications. Listeners run synchronously
// on the goroutine that called Set, after the value lock is released.
type ChangeListener func(ChangeEvent)

// Value is the typed, in-memory form of one setting. Its scope is fixed at
// construction; the current value may change.
type Value struct {
	group      string
	key        string
	name       string
	kind       string
	tag        string
	hidden     bool
	scope      Scope
	serializer Serializer
	defaultVal any
	provenance []Provenance

	mu        sync.RWMutex
	current   any
	listeners []ChangeListener
}

// ValueOption configures optional Value metadata.
type ValueOption func(*Value)

// WithName sets the display name.
func WithName(name string) ValueOption {
	return func(v *Value) {
		if name != "" {
			v.name = name
		}
	}
}

// WithTag sets the serializer tag.
func WithTag(tag string) ValueOption {
	return func(v *Value) {
		v.tag = tag
	}
}

// WithHidden marks the value as hidden from UIs.
func WithHidden(hidden bool) ValueOption {
	return func(v *Value) {
		v.hidden = hidden
	}
}

func withProvenance(layers []Provenance) ValueOption {
	return func(v *Value) {
		v.provenance = layers
	}
}

// NewValue builds a Value. defaultValue and current must be of the
// serializer's type.
func NewValue(group, key string, scope Scope, serializer Serializer, defaultValue, current any, opts ...ValueOption) (*Value, error) {
	if serializer == nil {
		return nil, ErrValueType
	}
	if !scope.Valid() {
		return nil, ErrInvalidScope
	}
	defaultValue, err := checkType(serializer, defaultValue)
	if err != nil {
		return nil, err
	}
	current, err = checkType(serializer, current)
	if err != nil {
		return nil, err
	}
	v := &Value{
		group:      group,
		key:        key,
		name:       key,
		kind:       serializer.Kind(),
		scope:      scope,
		serializer: serializer,
		defaultVal: defaultValue,
		current:    current,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	return v, nil
}

// checkType verifies value against the serializer's type. A nil value is
// accepted only for nilable types and is stored as that type's nil.
func checkType(serializer Serializer, value any) (any, error) {
	typ := serializer.Type()
	if value == nil {
		if typ == nil || !nilable(typ.Kind()) {
			return nil, valueTypeError(serializer.Kind(), value)
		}
		if typ.Kind() == reflect.Interface {
			return nil, nil
		}
		return reflect.Zero(typ).Interface(), nil
	}
	if typ != nil && reflect.TypeOf(value).AssignableTo(typ) {
		return value, nil
	}
	return nil, valueTypeError(serializer.Kind(), value)
}

func nilable(kind reflect.Kind) bool {
	switch kind {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface, reflect.Func, reflect.Chan:
		return true
	default:
		return false
	}
}

func (v *Value) Group() string          { return v.group }
func (v *Value) Key() string            { return v.key }
func (v *Value) Name() string           { return v.name }
func (v *Value) Kind() string           { return v.kind }
func (v *Value) Tag() string            { return v.tag }
func (v *Value) Hidden() bool           { return v.hidden }
func (v *Value) Scope() Scope           { return v.scope }
func (v *Value) Default() any           { return v.defaultVal }
func (v *Value) Serializer() Serializer { return v.serializer }

// Get returns the current value.
func (v *Value) Get() any {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.current
}

// IsDefault reports whether the current value equals the default.
func (v *Value) IsDefault() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.serializer.Equal(v.current, v.defaultVal)
}

// Set replaces the current value and notifies listeners.
func (v *Value) Set(value any) error {
	value, err := checkType(v.serializer, value)
	if err != nil {
		return err
	}
	v.mu.Lock()
	old := v.current
	v.current = value
	isDefault := v.serializer.Equal(value, v.defaultVal)
	listeners := append([]ChangeListener(nil), v.listeners...)
	v.mu.Unlock()

	event := ChangeEvent{
		Group:     v.group,
		Key:       v.key,
		Scope:     v.scope,
		OldValue:  old,
		NewValue:  value,
		IsDefault: isDefault,
	}
	for _, listener := range listeners {
		listener(event)
	}
	return nil
}

// Reset restores the default value.
func (v *Value) Reset() error {
	return v.Set(v.defaultVal)
}

// OnChange registers listener for subsequent Set calls.
func (v *Value) OnChange(listener ChangeListener) {
	if listener == nil {
		return
	}
	v.mu.Lock()
	v.listeners = append(v.listeners, listener)
	v.mu.Unlock()
}

// Format serializes the current value.
func (v *Value) Format() (string, error) {
	return v.serializer.Format(v.Get())
}

// Entry returns the storage form of the current value.
func (v *Value) Entry() (Entry, error) {
	raw, err := v.Format()
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		Group:     v.group,
		Key:       v.key,
		Value:     raw,
		ValueKind: v.kind,
		Tag:       v.tag,
		Hidden:    v.hidden,
	}, nil
}

// As returns the current value of v as T.
func As[T any](v *Value) (T, bool) {
	var zero T
	if v == nil {
		return zero, false
	}
	typed, ok := v.Get().(T)
	return typed, ok
}
