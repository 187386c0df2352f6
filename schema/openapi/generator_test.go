package openapi_test

import (
	"testing"

	settings "github.com/goliatone/go-settings"
	"github.com/goliatone/go-settings/schema/openapi"
)

func sampleFields() []settings.FieldDescriptor {
	return []settings.FieldDescriptor{
		{Path: "General.Theme", Group: "General", Key: "Theme", Kind: settings.KindString, Scope: settings.ScopeUser, Default: "light", GroupName: "General Settings", GroupPriority: 1},
		{Path: "General.Secret", Group: "General", Key: "Secret", Kind: settings.KindPassword, Scope: settings.ScopeUser, Hidden: true},
		{Path: "Network.Timeout", Group: "Network", Key: "Timeout", Kind: settings.KindTimeSpan, Scope: settings.ScopeGlobal, Default: "00:00:30"},
		{Path: "Network.Build", Group: "Network", Key: "Build", Kind: settings.KindInteger, Scope: settings.ScopeDefault, Default: "7"},
		{Path: "2fa.Mode", Group: "2fa", Key: "Mode", Kind: settings.KindEnum, Tag: "app.Mode", Scope: settings.ScopeUser, Default: "Off"},
	}
}

func components(t *testing.T, doc settings.SchemaDocument) map[string]any {
	t.Helper()
	if doc.Format != settings.SchemaFormatOpenAPI {
		t.Fatalf("expected openapi format, got %q", doc.Format)
	}
	document, ok := doc.Document.(map[string]any)
	if !ok {
		t.Fatalf("expected map document, got %T", doc.Document)
	}
	schemas, ok := document["components"].(map[string]any)["schemas"].(map[string]any)
	if !ok {
		t.Fatalf("expected component schemas")
	}
	return schemas
}

func TestGeneratorBuildsGroupComponents(t *testing.T) {
	doc, err := openapi.NewGenerator().Generate(sampleFields())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	schemas := components(t, doc)

	root, ok := schemas["Settings"].(map[string]any)
	if !ok {
		t.Fatalf("expected Settings root component, got %v", schemas)
	}
	rootProps := root["properties"].(map[string]any)
	if ref := rootProps["2fa"].(map[string]any)["$ref"]; ref != "#/components/schemas/_2fa" {
		t.Fatalf("expected sanitized component ref, got %v", ref)
	}

	general := schemas["General"].(map[string]any)
	if general["title"] != "General Settings" {
		t.Fatalf("expected group title, got %v", general["title"])
	}
	props := general["properties"].(map[string]any)
	if _, ok := props["Secret"]; ok {
		t.Fatalf("expected hidden setting to be omitted")
	}
	theme := props["Theme"].(map[string]any)
	if theme["default"] != "light" || theme["x-scope"] != "user" {
		t.Fatalf("unexpected theme schema: %v", theme)
	}

	network := schemas["Network"].(map[string]any)["properties"].(map[string]any)
	if network["Timeout"].(map[string]any)["format"] != "duration" {
		t.Fatalf("expected duration format, got %v", network["Timeout"])
	}
	if network["Build"].(map[string]any)["readOnly"] != true {
		t.Fatalf("expected default-scoped setting to be read-only")
	}
}

func TestGeneratorOptions(t *testing.T) {
	doc, err := openapi.NewGenerator(
		openapi.WithInfo("Editor", "2.0.0", openapi.WithInfoDescription("editor settings")),
		openapi.WithPath("prefs"),
		openapi.WithRootComponent("Prefs"),
		openapi.WithHidden(),
	).Generate(sampleFields())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	document := doc.Document.(map[string]any)
	info := document["info"].(map[string]any)
	if info["title"] != "Editor" || info["version"] != "2.0.0" || info["description"] != "editor settings" {
		t.Fatalf("unexpected info: %v", info)
	}
	if _, ok := document["paths"].(map[string]any)["/prefs"]; !ok {
		t.Fatalf("expected /prefs path, got %v", document["paths"])
	}
	schemas := components(t, doc)
	if _, ok := schemas["Prefs"]; !ok {
		t.Fatalf("expected Prefs root component")
	}
	secret := schemas["General"].(map[string]any)["properties"].(map[string]any)["Secret"].(map[string]any)
	if secret["writeOnly"] != true || secret["x-hidden"] != true {
		t.Fatalf("expected hidden password schema, got %v", secret)
	}
}

func TestGeneratorEmptyFields(t *testing.T) {
	doc, err := openapi.NewGenerator().Generate(nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	root := components(t, doc)["Settings"].(map[string]any)
	if len(root["properties"].(map[string]any)) != 0 {
		t.Fatalf("expected empty root properties")
	}
}
