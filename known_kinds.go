package settings

import (
	"reflect"
	"sort"
	"sync"
)

// Every Build records its serializers' kinds here so codecs outside a single
// manager can map a kind to its Go type. The table only grows; tests clear it
// with ResetKnownKinds.
var knownKinds = struct {
	sync.Mutex
	types map[string]reflect.Type
}{types: map[string]reflect.Type{}}

func registerKnownKinds(registry *SerializerRegistry) {
	kinds := registry.Kinds()
	knownKinds.Lock()
	defer knownKinds.Unlock()
	for _, kind := range kinds {
		if s, ok := registry.Lookup(kind); ok {
			knownKinds.types[kind] = s.Type()
		}
	}
}

// KnownKinds lists every kind registered by any Build in this process.
func KnownKinds() []string {
	knownKinds.Lock()
	defer knownKinds.Unlock()
	out := make([]string, 0, len(knownKinds.types))
	for kind := range knownKinds.types {
		out = append(out, kind)
	}
	sort.Strings(out)
	return out
}

// KnownKindType returns the Go type last recorded for kind.
func KnownKindType(kind string) (reflect.Type, bool) {
	knownKinds.Lock()
	defer knownKinds.Unlock()
	t, ok := knownKinds.types[kind]
	return t, ok
}

// ResetKnownKinds empties the table. Intended for tests.
func ResetKnownKinds() {
	knownKinds.Lock()
	defer knownKinds.Unlock()
	knownKinds.types = map[string]reflect.Type{}
}
