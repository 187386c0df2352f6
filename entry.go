package settings

// Entry is the untyped, storage-facing form of one setting.
type Entry struct {
	Group     string `json:"group" yaml:"group" toml:"group"`
	Key       string `json:"key" yaml:"key" toml:"key"`
	Value     string `json:"value" yaml:"value" toml:"value"`
	ValueKind string `json:"value_kind" yaml:"value_kind" toml:"value_kind"`
	Tag       string `json:"tag,omitempty" yaml:"tag,omitempty" toml:"tag,omitempty"`
	Hidden    bool   `json:"hidden,omitempty" yaml:"hidden,omitempty" toml:"hidden,omitempty"`
}

// Equal reports structural equality.
func (e Entry) Equal(other Entry) bool {
	return e == other
}

// GroupInfo carries display metadata for a group. Lower priorities sort first.
type GroupInfo struct {
	Group       string `json:"group" yaml:"group" toml:"group"`
	DisplayName string `json:"display_name,omitempty" yaml:"display_name,omitempty" toml:"display_name,omitempty"`
	Priority    int    `json:"priority" yaml:"priority" toml:"priority"`
}

// DefaultGroupInfo returns the metadata used when a provider has none.
func DefaultGroupInfo(group string) GroupInfo {
	return GroupInfo{Group: group, DisplayName: group}
}

func indexEntries(entries []Entry) map[string]Entry {
	out := make(map[string]Entry, len(entries))
	for _, entry := range entries {
		out[entry.Key] = entry
	}
	return out
}

func indexGroupInfo(infos []GroupInfo) map[string]GroupInfo {
	out := make(map[string]GroupInfo, len(infos))
	for _, info := range infos {
		out[info.Group] = info
	}
	return out
}
