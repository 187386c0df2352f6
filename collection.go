package settings

import "fmt"

// Collection is the insertion-ordered set of values loaded for one group.
type Collection struct {
	group       string
	displayName string
	priority    int
	values      []*Value
	index       map[string]int
}

// NewCollection builds an empty collection described by info.
func NewCollection(info GroupInfo) *Collection {
	displayName := info.DisplayName
	if displayName == "" {
		displayName = info.Group
	}
	return &Collection{
		group:       info.Group,
		displayName: displayName,
		priority:    info.Priority,
		index:       make(map[string]int),
	}
}

func (c *Collection) Group() string       { return c.group }
func (c *Collection) DisplayName() string { return c.displayName }
func (c *Collection) Priority() int       { return c.priority }

// Info returns the collection's group metadata.
func (c *Collection) Info() GroupInfo {
	return GroupInfo{Group: c.group, DisplayName: c.displayName, Priority: c.priority}
}

// Add appends v. Keys are unique within a collection.
func (c *Collection) Add(v *Value) error {
	if v == nil {
		return fmt.Errorf("settings: value is nil")
	}
	if _, exists := c.index[v.Key()]; exists {
		return fmt.Errorf("%w: %s/%s", ErrDuplicateKey, c.group, v.Key())
	}
	c.index[v.Key()] = len(c.values)
	c.values = append(c.values, v)
	return nil
}

// Get returns the value stored under key.
func (c *Collection) Get(key string) (*Value, bool) {
	i, ok := c.index[key]
	if !ok {
		return nil, false
	}
	return c.values[i], true
}

// Values returns the values in insertion order.
func (c *Collection) Values() []*Value {
	out := make([]*Value, len(c.values))
	copy(out, c.values)
	return out
}

// Keys returns the keys in insertion order.
func (c *Collection) Keys() []string {
	out := make([]string, len(c.values))
	for i, v := range c.values {
		out[i] = v.Key()
	}
	return out
}

func (c *Collection) Len() int {
	return len(c.values)
}

// Snapshot maps each key to its current value.
func (c *Collection) Snapshot() map[string]any {
	out := make(map[string]any, len(c.values))
	for _, v := range c.values {
		out[v.Key()] = v.Get()
	}
	return out
}

func (c *Collection) applyInfo(override GroupOverride) {
	if override.DisplayName != nil {
		c.displayName = *override.DisplayName
	}
	if override.Priority != nil {
		c.priority = *override.Priority
	}
}
