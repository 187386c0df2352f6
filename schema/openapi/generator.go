// Package openapi renders loaded settings as an OpenAPI 3 document: one
// component per group, one property per setting.
package openapi

import (
	"sort"

	settings "github.com/goliatone/go-settings"
)

type generator struct {
	config generatorConfig
}

// NewGenerator constructs an OpenAPI schema generator.
func NewGenerator(opts ...GeneratorOption) settings.SchemaGenerator {
	cfg := defaultGeneratorConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return generator{config: cfg}
}

func (g generator) Generate(fields []settings.FieldDescriptor) (settings.SchemaDocument, error) {
	registry := newComponentRegistry()

	groups, order := groupFields(fields, g.config.includeHidden)
	rootProps := make(map[string]any, len(order))
	for _, group := range order {
		rootProps[group] = map[string]any{"$ref": registry.register(group, groupSchema(groups[group]))}
	}
	rootRef := registry.register(g.config.rootComponent, map[string]any{
		"type":       "object",
		"properties": rootProps,
	})

	document, err := newDocumentBuilder(g.config, registry, rootRef).build()
	if err != nil {
		return settings.SchemaDocument{}, err
	}
	return settings.SchemaDocument{Format: settings.SchemaFormatOpenAPI, Document: document}, nil
}

func groupFields(fields []settings.FieldDescriptor, includeHidden bool) (map[string][]settings.FieldDescriptor, []string) {
	groups := map[string][]settings.FieldDescriptor{}
	for _, field := range fields {
		if field.Hidden && !includeHidden {
			continue
		}
		groups[field.Group] = append(groups[field.Group], field)
	}
	order := make([]string, 0, len(groups))
	for group := range groups {
		order = append(order, group)
	}
	sort.Strings(order)
	return groups, order
}

func groupSchema(fields []settings.FieldDescriptor) map[string]any {
	props := make(map[string]any, len(fields))
	schema := map[string]any{"type": "object", "properties": props}
	for _, field := range fields {
		props[field.Key] = fieldSchema(field)
		if schema["title"] == nil && field.GroupName != "" {
			schema["title"] = field.GroupName
			schema["x-priority"] = field.GroupPriority
		}
	}
	return schema
}

func fieldSchema(field settings.FieldDescriptor) map[string]any {
	schema := kindSchema(field.Kind)
	schema["default"] = field.Default
	schema["x-value-kind"] = field.Kind
	schema["x-scope"] = field.Scope.String()
	if field.Scope == settings.ScopeDefault {
		schema["readOnly"] = true
	}
	if field.Tag != "" {
		schema["x-tag"] = field.Tag
	}
	if field.Hidden {
		schema["x-hidden"] = true
	}
	return schema
}

// kindSchema maps a value kind to its wire representation. Every stored value
// is a string, so numeric kinds carry a pattern instead of a number type.
func kindSchema(kind string) map[string]any {
	str := func(extra ...string) map[string]any {
		out := map[string]any{"type": "string"}
		for i := 0; i+1 < len(extra); i += 2 {
			out[extra[i]] = extra[i+1]
		}
		return out
	}
	switch kind {
	case settings.KindInteger:
		return str("format", "int32", "pattern", `^-?\d+$`)
	case settings.KindLong:
		return str("format", "int64", "pattern", `^-?\d+$`)
	case settings.KindDouble:
		return str("format", "double")
	case settings.KindDecimal:
		return str("format", "decimal")
	case settings.KindBoolean:
		out := str()
		out["enum"] = []any{"true", "false"}
		return out
	case settings.KindDateTime:
		return str("format", "date-time")
	case settings.KindTimeSpan:
		return str("format", "duration", "pattern", `^-?(\d+\.)?\d{2}:\d{2}:\d{2}(\.\d+)?$`)
	case settings.KindGuid:
		return str("format", "uuid")
	case settings.KindUrl, settings.KindServiceUrl:
		return str("format", "uri")
	case settings.KindPassword:
		out := str("format", "password")
		out["writeOnly"] = true
		return out
	case settings.KindEnumList, settings.KindStringList, settings.KindIntegerList, settings.KindDoubleList:
		return str("format", "csv")
	default:
		return str()
	}
}
