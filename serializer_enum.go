package settings

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// EnumMember is one named value of an enum type.
type EnumMember struct {
	Name  string
	Value int64
}

// EnumType describes an enum addressed by its fully-qualified name, the tag
// stored next to Enum and EnumList entries.
type EnumType struct {
	Name    string
	Members []EnumMember
}

// DefineEnum builds an EnumType whose members take the values 0..n-1.
func DefineEnum(name string, members ...string) EnumType {
	out := EnumType{Name: name, Members: make([]EnumMember, len(members))}
	for i, member := range members {
		out.Members[i] = EnumMember{Name: member, Value: int64(i)}
	}
	return out
}

// Value returns the member named name.
func (t EnumType) Value(name string) (EnumValue, bool) {
	for _, member := range t.Members {
		if member.Name == name {
			return EnumValue{Type: t.Name, Name: member.Name, Value: member.Value}, true
		}
	}
	return EnumValue{}, false
}

// MustValue is like Value but panics on an undefined member.
func (t EnumType) MustValue(name string) EnumValue {
	v, ok := t.Value(name)
	if !ok {
		panic(fmt.Sprintf("settings: enum %s has no member %q", t.Name, name))
	}
	return v
}

func (t EnumType) lookup(raw string) (EnumValue, bool) {
	if v, ok := t.Value(raw); ok {
		return v, true
	}
	for _, member := range t.Members {
		if strings.EqualFold(member.Name, raw) {
			return EnumValue{Type: t.Name, Name: member.Name, Value: member.Value}, true
		}
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		for _, member := range t.Members {
			if member.Value == n {
				return EnumValue{Type: t.Name, Name: member.Name, Value: member.Value}, true
			}
		}
	}
	return EnumValue{}, false
}

// EnumValue is a defined member of a registered enum type.
type EnumValue struct {
	Type  string
	Name  string
	Value int64
}

func (v EnumValue) String() string {
	return v.Name
}

// MarshalText encodes the member name.
func (v EnumValue) MarshalText() ([]byte, error) {
	return []byte(v.Name), nil
}

// EnumRegistry resolves enum type names to their definitions.
type EnumRegistry struct {
	mu    sync.RWMutex
	types map[string]EnumType
}

// NewEnumRegistry constructs a registry holding types.
func NewEnumRegistry(types ...EnumType) *EnumRegistry {
	r := &EnumRegistry{types: make(map[string]EnumType)}
	r.Register(types...)
	return r
}

// Register adds or replaces enum types.
func (r *EnumRegistry) Register(types ...EnumType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.types == nil {
		r.types = make(map[string]EnumType)
	}
	for _, t := range types {
		if t.Name == "" {
			continue
		}
		members := make([]EnumMember, len(t.Members))
		copy(members, t.Members)
		r.types[t.Name] = EnumType{Name: t.Name, Members: members}
	}
}

// Lookup returns the enum type registered under name.
func (r *EnumRegistry) Lookup(name string) (EnumType, bool) {
	if r == nil {
		return EnumType{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[name]
	return t, ok
}

// Names returns registered type names sorted alphabetically.
func (r *EnumRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *EnumRegistry) parse(kind, raw, tag string) (EnumValue, error) {
	t, ok := r.Lookup(tag)
	if !ok {
		return EnumValue{}, fmt.Errorf("%w: %s tag %q is not a registered enum type", ErrArgument, kind, tag)
	}
	v, ok := t.lookup(strings.TrimSpace(raw))
	if !ok {
		return EnumValue{}, fmt.Errorf("%w: %q is not a member of %s", ErrArgument, raw, tag)
	}
	return v, nil
}

// EnumSerializer resolves the tag through enums.
func EnumSerializer(enums *EnumRegistry) *TypedSerializer[EnumValue] {
	return NewSerializer(KindEnum,
		func(raw, tag string) (EnumValue, error) { return enums.parse(KindEnum, raw, tag) },
		func(v EnumValue) (string, error) { return v.Name, nil },
		func(a, b EnumValue) bool { return a.Type == b.Type && a.Value == b.Value },
	)
}

// EnumListSerializer stores comma separated members of the tagged enum type.
func EnumListSerializer(enums *EnumRegistry) *TypedSerializer[[]EnumValue] {
	return NewSerializer(KindEnumList,
		func(raw, tag string) ([]EnumValue, error) {
			return parseList(raw, func(item string) (EnumValue, error) {
				return enums.parse(KindEnumList, item, tag)
			})
		},
		func(v []EnumValue) (string, error) {
			return formatList(v, func(item EnumValue) (string, error) { return item.Name, nil })
		},
		func(a, b []EnumValue) bool {
			return listEqual(a, b, func(x, y EnumValue) bool { return x.Type == y.Type && x.Value == y.Value })
		},
	)
}
