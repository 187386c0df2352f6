package settings

import (
	"fmt"
	"sort"
	"strings"
)

// FieldDescriptor describes one loaded setting for schema generators.
type FieldDescriptor struct {
	Path    string `json:"path"`
	Group   string `json:"group"`
	Key     string `json:"key"`
	Kind    string `json:"kind"`
	Type    string `json:"type"`
	Tag     string `json:"tag,omitempty"`
	Scope   Scope  `json:"scope"`
	Hidden  bool   `json:"hidden,omitempty"`
	Default string `json:"default"`
	// GroupName and GroupPriority mirror the owning collection's metadata.
	GroupName     string `json:"group_name"`
	GroupPriority int    `json:"group_priority"`
}

// SchemaFormat names the representation held by a SchemaDocument.
type SchemaFormat string

const (
	SchemaFormatDescriptors SchemaFormat = "descriptors"
	SchemaFormatOpenAPI     SchemaFormat = "openapi"
)

// SchemaDocument wraps a generated schema.
type SchemaDocument struct {
	Format   SchemaFormat
	Document any
}

// SchemaGenerator turns field descriptors into a schema document.
type SchemaGenerator interface {
	Generate(fields []FieldDescriptor) (SchemaDocument, error)
}

// DefaultSchemaGenerator returns the descriptor list unchanged.
func DefaultSchemaGenerator() SchemaGenerator {
	return descriptorGenerator{}
}

type descriptorGenerator struct{}

func (descriptorGenerator) Generate(fields []FieldDescriptor) (SchemaDocument, error) {
	if fields == nil {
		fields = []FieldDescriptor{}
	}
	return SchemaDocument{Format: SchemaFormatDescriptors, Document: fields}, nil
}

// Schema describes every loaded value, sorted by path.
func (m *Manager) Schema() ([]FieldDescriptor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var fields []FieldDescriptor
	for _, c := range m.ordered {
		for _, v := range c.values {
			raw, err := v.serializer.Format(v.Default())
			if err != nil {
				return nil, fmt.Errorf("settings: format default %s: %w", joinPath(v.group, v.key), err)
			}
			fields = append(fields, FieldDescriptor{
				Path:          joinPath(v.group, v.key),
				Group:         v.group,
				Key:           v.key,
				Kind:          v.kind,
				Type:          typeName(v.serializer),
				Tag:           v.tag,
				Scope:         v.scope,
				Hidden:        v.hidden,
				Default:       raw,
				GroupName:     c.DisplayName(),
				GroupPriority: c.Priority(),
			})
		}
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Path < fields[j].Path })
	return fields, nil
}

// SchemaDocument runs generator over Schema. A nil generator yields the
// descriptor list.
func (m *Manager) SchemaDocument(generator SchemaGenerator) (SchemaDocument, error) {
	if generator == nil {
		generator = DefaultSchemaGenerator()
	}
	fields, err := m.Schema()
	if err != nil {
		return SchemaDocument{}, err
	}
	return generator.Generate(fields)
}

func typeName(s Serializer) string {
	if s == nil || s.Type() == nil {
		return "nil"
	}
	return s.Type().String()
}

func joinPath(prefix, segment string) string {
	if prefix == "" {
		return segment
	}
	return strings.Join([]string{prefix, segment}, ".")
}
