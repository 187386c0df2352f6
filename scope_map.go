package settings

import (
	"fmt"
	"sort"
)

// Field declares the scope that owns writes for one key of a container.
type Field struct {
	Key   string
	Scope Scope
}

// Container is an explicit registration of the keys an application binds for
// one group, together with the scope each key belongs to.
type Container struct {
	Name   string
	Group  string
	Fields []Field
}

// NewContainer starts a container registration for group.
func NewContainer(name, group string) *Container {
	return &Container{Name: name, Group: group}
}

// Field appends a key owned by scope.
func (c *Container) Field(key string, scope Scope) *Container {
	c.Fields = append(c.Fields, Field{Key: key, Scope: scope})
	return c
}

// User appends User-scoped keys.
func (c *Container) User(keys ...string) *Container {
	return c.fields(ScopeUser, keys)
}

// Global appends Global-scoped keys.
func (c *Container) Global(keys ...string) *Container {
	return c.fields(ScopeGlobal, keys)
}

// Default appends keys that are read from defaults only and never saved.
func (c *Container) Default(keys ...string) *Container {
	return c.fields(ScopeDefault, keys)
}

func (c *Container) fields(scope Scope, keys []string) *Container {
	for _, key := range keys {
		c.Field(key, scope)
	}
	return c
}

type scopeKey struct {
	group string
	key   string
}

// ScopeMap assigns each registered (group, key) the scope authoritative for
// its writes.
type ScopeMap struct {
	entries map[scopeKey]Scope
	counts  map[Scope]int
}

// NewScopeMap constructs an empty map.
func NewScopeMap() *ScopeMap {
	return &ScopeMap{
		entries: make(map[scopeKey]Scope),
		counts:  make(map[Scope]int),
	}
}

// BuildScopeMap derives a ScopeMap from container registrations. It returns
// nil when containers is empty.
func BuildScopeMap(containers ...*Container) (*ScopeMap, error) {
	var m *ScopeMap
	for _, container := range containers {
		if container == nil {
			continue
		}
		if m == nil {
			m = NewScopeMap()
		}
		for _, field := range container.Fields {
			if err := m.Set(container.Group, field.Key, field.Scope); err != nil {
				return nil, fmt.Errorf("settings: container %q: %w", container.Name, err)
			}
		}
	}
	return m, nil
}

// Set records scope for (group, key). Re-registering the same scope is a
// no-op; a different scope is a conflict.
func (m *ScopeMap) Set(group, key string, scope Scope) error {
	if !scope.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidScope, scope)
	}
	k := scopeKey{group: group, key: key}
	if existing, ok := m.entries[k]; ok {
		if existing == scope {
			return nil
		}
		return fmt.Errorf("%w: %s/%s is %s and %s", ErrScopeConflict, group, key, existing, scope)
	}
	m.entries[k] = scope
	m.counts[scope]++
	return nil
}

// Lookup returns the scope registered for (group, key).
func (m *ScopeMap) Lookup(group, key string) (Scope, bool) {
	if m == nil {
		return ScopeDefault, false
	}
	scope, ok := m.entries[scopeKey{group: group, key: key}]
	return scope, ok
}

// Targets reports whether any registered key belongs to scope.
func (m *ScopeMap) Targets(scope Scope) bool {
	if m == nil {
		return false
	}
	return m.counts[scope] > 0
}

// Scopes returns the referenced scopes ordered weakest first.
func (m *ScopeMap) Scopes() []Scope {
	if m == nil {
		return nil
	}
	out := make([]Scope, 0, len(m.counts))
	for scope, count := range m.counts {
		if count > 0 {
			out = append(out, scope)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len returns the number of registered keys.
func (m *ScopeMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}
