package settings

import (
	"fmt"

	"github.com/goliatone/go-settings/internal/hydrate"
)

// Bind decodes the current values of c into T. Fields are matched by their
// json tag against setting keys; keys T does not declare are ignored.
func Bind[T any](c *Collection) (T, error) {
	var zero T
	if c == nil {
		return zero, fmt.Errorf("%w: collection is nil", ErrNotFound)
	}
	payload := make(map[string]any, c.Len())
	for _, v := range c.Values() {
		payload[v.Key()] = v.Get()
	}
	return hydrate.NewDecoder[T]().Decode(hydrate.Context{Group: c.Group()}, payload)
}

// BindGroup loads group from m and decodes it into T.
func BindGroup[T any](m *Manager, group string) (T, error) {
	c, ok := m.Collection(group)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: group %q", ErrNotFound, group)
	}
	return Bind[T](c)
}
