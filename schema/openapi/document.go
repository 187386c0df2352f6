package openapi

import (
	"fmt"
	"sort"
)

type documentBuilder struct {
	config   generatorConfig
	registry *componentRegistry
	rootRef  string
}

func newDocumentBuilder(config generatorConfig, registry *componentRegistry, rootRef string) *documentBuilder {
	return &documentBuilder{config: config, registry: registry, rootRef: rootRef}
}

func (b *documentBuilder) build() (map[string]any, error) {
	document := map[string]any{
		"openapi": b.config.openAPIVersion,
		"info":    b.buildInfo(),
		"paths":   b.buildPaths(),
	}
	if components := b.registry.componentsMap(); components != nil {
		document["components"] = map[string]any{"schemas": components}
	}
	if err := validateDocument(document); err != nil {
		return nil, err
	}
	return document, nil
}

func (b *documentBuilder) buildInfo() map[string]any {
	info := map[string]any{
		"title":   b.config.info.Title,
		"version": b.config.info.Version,
	}
	if b.config.info.Description != "" {
		info["description"] = b.config.info.Description
	}
	return info
}

// buildPaths exposes GET (read the effective settings) and PUT (replace the
// writable ones) on the configured path.
func (b *documentBuilder) buildPaths() map[string]any {
	content := map[string]any{
		b.config.contentType: map[string]any{
			"schema": map[string]any{"$ref": b.rootRef},
		},
	}
	return map[string]any{
		b.config.path: map[string]any{
			"get": map[string]any{
				"operationId": "get:" + b.config.path,
				"responses": map[string]any{
					"200": map[string]any{"description": "Effective settings", "content": content},
				},
			},
			"put": map[string]any{
				"operationId": "put:" + b.config.path,
				"requestBody": map[string]any{"required": true, "content": content},
				"responses": map[string]any{
					"204": map[string]any{"description": "Saved"},
				},
			},
		},
	}
}

func validateDocument(document map[string]any) error {
	if version, _ := document["openapi"].(string); version == "" {
		return fmt.Errorf("openapi: document missing version string")
	}
	info, _ := document["info"].(map[string]any)
	if info == nil {
		return fmt.Errorf("openapi: document missing info section")
	}
	if title, _ := info["title"].(string); title == "" {
		return fmt.Errorf("openapi: info.title must be set")
	}
	if version, _ := info["version"].(string); version == "" {
		return fmt.Errorf("openapi: info.version must be set")
	}
	paths, _ := document["paths"].(map[string]any)
	if len(paths) == 0 {
		return fmt.Errorf("openapi: document must define at least one path")
	}
	keys := make([]string, 0, len(paths))
	for key := range paths {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		item, _ := paths[key].(map[string]any)
		if len(item) == 0 {
			return fmt.Errorf("openapi: path %q missing operations", key)
		}
		for method, raw := range item {
			operation, _ := raw.(map[string]any)
			if operation == nil {
				return fmt.Errorf("openapi: operation %s %s invalid payload", method, key)
			}
			if _, ok := operation["operationId"].(string); !ok {
				return fmt.Errorf("openapi: operation %s %s missing operationId", method, key)
			}
			if _, ok := operation["responses"].(map[string]any); !ok {
				return fmt.Errorf("openapi: operation %s %s missing responses", method, key)
			}
		}
	}
	return nil
}
