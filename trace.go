package settings

import (
	"github.com/bytedance/sonic"
)

// Trace captures provenance information for one loaded setting across the
// scopes consulted while resolving its effective value.
type Trace struct {
	Path      string       `json:"path"`
	Effective Scope        `json:"effective"`
	Owner     Scope        `json:"owner"`
	Layers    []Provenance `json:"layers"`
}

// Provenance details how a specific scope contributed to a traced path.
type Provenance struct {
	Scope Scope  `json:"scope"`
	Raw   string `json:"raw,omitempty"`
	Found bool   `json:"found"`
}

// ToJSON serialises the trace into JSON for logging or transport helpers.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return sonic.ConfigStd.Marshal(alias(t))
}

// TraceFromJSON deserialises a JSON payload that was previously generated via
// ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := sonic.ConfigStd.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}

// Trace reports how v's effective value was resolved at load time.
func (v *Value) Trace() Trace {
	layers := make([]Provenance, len(v.provenance))
	copy(layers, v.provenance)
	effective := ScopeDefault
	for _, layer := range layers {
		if layer.Found && layer.Scope.Priority() > effective.Priority() {
			effective = layer.Scope
		}
	}
	return Trace{
		Path:      joinPath(v.group, v.key),
		Effective: effective,
		Owner:     v.scope,
		Layers:    layers,
	}
}
