package settings_test

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sync"
	"testing"
	"time"

	settings "github.com/goliatone/go-settings"
	"github.com/goliatone/go-settings/pkg/activity"
	"github.com/goliatone/go-settings/pkg/provider/memory"
)

func defaultEntries() []settings.Entry {
	return []settings.Entry{
		{Group: "General", Key: "Theme", Value: "light", ValueKind: settings.KindString},
		{Group: "General", Key: "FontSize", Value: "12", ValueKind: settings.KindInteger},
		{Group: "General", Key: "Timeout", Value: "00:00:30", ValueKind: settings.KindTimeSpan},
		{Group: "Advanced", Key: "Debug", Value: "false", ValueKind: settings.KindBoolean, Hidden: true},
	}
}

func newDefaults(extra ...settings.Entry) *memory.Provider {
	return memory.New(
		memory.WithEntries(append(defaultEntries(), extra...)...),
		memory.WithGroupInfo(
			settings.GroupInfo{Group: "General", DisplayName: "General Settings", Priority: 2},
			settings.GroupInfo{Group: "Advanced", DisplayName: "Advanced", Priority: 1},
		),
		memory.WithReadOnly(),
	)
}

func load(t *testing.T, b *settings.Builder) *settings.Manager {
	t.Helper()
	m, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := m.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	return m
}

func mustValue(t *testing.T, m *settings.Manager, group, key string) *settings.Value {
	t.Helper()
	v, ok := m.Value(group, key)
	if !ok {
		t.Fatalf("expected %s.%s to be loaded", group, key)
	}
	return v
}

func TestLoadResolvesUserThenGlobalThenDefault(t *testing.T) {
	user := memory.New(memory.WithEntries(
		settings.Entry{Group: "General", Key: "Theme", Value: "dark", ValueKind: settings.KindString},
	))
	global := memory.New(memory.WithEntries(
		settings.Entry{Group: "General", Key: "Theme", Value: "blue", ValueKind: settings.KindString},
		settings.Entry{Group: "General", Key: "FontSize", Value: "14", ValueKind: settings.KindInteger},
	))
	m := load(t, settings.NewBuilder().
		WithProvider(settings.ScopeDefault, newDefaults()).
		WithProvider(settings.ScopeUser, user).
		WithProvider(settings.ScopeGlobal, global))

	if got := mustValue(t, m, "General", "Theme").Get(); got != "dark" {
		t.Fatalf("expected user value, got %v", got)
	}
	fontSize := mustValue(t, m, "General", "FontSize")
	if fontSize.Get() != 14 || fontSize.IsDefault() {
		t.Fatalf("expected global value 14, got %v", fontSize.Get())
	}
	timeout := mustValue(t, m, "General", "Timeout")
	if timeout.Get() != 30*time.Second || !timeout.IsDefault() {
		t.Fatalf("expected default timeout, got %v", timeout.Get())
	}

	trace, err := m.Trace("General", "FontSize")
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	if trace.Effective != settings.ScopeGlobal || trace.Owner != settings.ScopeUser || len(trace.Layers) != 3 {
		t.Fatalf("unexpected trace %+v", trace)
	}
	if _, err := m.Trace("General", "Missing"); !errors.Is(err, settings.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	var groups []string
	for _, c := range m.Collections() {
		groups = append(groups, c.Group())
	}
	if !reflect.DeepEqual(groups, []string{"Advanced", "General"}) {
		t.Fatalf("collections should sort by priority, got %v", groups)
	}
	general, _ := m.Collection("General")
	if general.DisplayName() != "General Settings" {
		t.Fatalf("unexpected display name %q", general.DisplayName())
	}
	if keys := general.Keys(); !reflect.DeepEqual(keys, []string{"Theme", "FontSize", "Timeout"}) {
		t.Fatalf("values should keep default order, got %v", keys)
	}
}

func TestLoadWithContainersConsultsOwnerScopeOnly(t *testing.T) {
	user := memory.New(memory.WithEntries(
		settings.Entry{Group: "General", Key: "FontSize", Value: "20", ValueKind: settings.KindInteger},
	))
	global := memory.New(memory.WithEntries(
		settings.Entry{Group: "General", Key: "Theme", Value: "blue", ValueKind: settings.KindString},
		settings.Entry{Group: "General", Key: "FontSize", Value: "14", ValueKind: settings.KindInteger},
	))
	m := load(t, settings.NewBuilder().
		WithProvider(settings.ScopeDefault, newDefaults()).
		WithProvider(settings.ScopeUser, user).
		WithProvider(settings.ScopeGlobal, global).
		WithContainer(settings.NewContainer("general", "General").User("Theme").Global("FontSize")))

	theme := mustValue(t, m, "General", "Theme")
	if theme.Get() != "light" || theme.Scope() != settings.ScopeUser {
		t.Fatalf("Theme must ignore the global store, got %v in %v", theme.Get(), theme.Scope())
	}
	if got := mustValue(t, m, "General", "FontSize").Get(); got != 14 {
		t.Fatalf("FontSize must come from global, got %v", got)
	}
	if _, ok := m.Value("General", "Timeout"); ok {
		t.Fatalf("unregistered keys must not load")
	}
	if _, ok := m.Collection("Advanced"); ok {
		t.Fatalf("groups without registered keys must not load")
	}
}

func TestLoadSkipsUnknownKindsAndDuplicateKeys(t *testing.T) {
	defaults := newDefaults(
		settings.Entry{Group: "General", Key: "Accent", Value: "#fff", ValueKind: "Color"},
		settings.Entry{Group: "General", Key: "Theme", Value: "solarized", ValueKind: settings.KindString},
	)
	var warnings []string
	logger := settings.LoggerFunc(func(level settings.LogLevel, msg string, _ ...any) {
		if level == settings.LevelWarn {
			warnings = append(warnings, msg)
		}
	})
	m := load(t, settings.NewBuilder().
		WithProvider(settings.ScopeDefault, defaults).
		WithLogger(logger))

	if _, ok := m.Value("General", "Accent"); ok {
		t.Fatalf("unknown kinds must be skipped")
	}
	if got := mustValue(t, m, "General", "Theme").Get(); got != "light" {
		t.Fatalf("first default must win, got %v", got)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected one duplicate warning, got %v", warnings)
	}
}

func TestLoadFailsOnMalformedStoredValue(t *testing.T) {
	user := memory.New(memory.WithEntries(
		settings.Entry{Group: "General", Key: "FontSize", Value: "big", ValueKind: settings.KindInteger},
	))
	m, err := settings.NewBuilder().
		WithProvider(settings.ScopeDefault, newDefaults()).
		WithProvider(settings.ScopeUser, user).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	err = m.Load()
	var parseErr *settings.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if parseErr.Scope != settings.ScopeUser || parseErr.Key != "FontSize" || parseErr.Raw != "big" {
		t.Fatalf("unexpected parse error %+v", parseErr)
	}
	if !errors.Is(err, settings.ErrFormat) {
		t.Fatalf("expected ErrFormat cause, got %v", err)
	}
}

func TestLoadWithoutDefaultProvider(t *testing.T) {
	m := load(t, settings.NewBuilder().WithProvider(settings.ScopeUser, memory.New()))
	if len(m.Collections()) != 0 {
		t.Fatalf("expected no collections")
	}
	if err := m.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := m.Merge(); err != nil {
		t.Fatalf("merge: %v", err)
	}
}

func TestSaveRoutesValuesToOwningScope(t *testing.T) {
	user := memory.New()
	global := memory.New()
	m := load(t, settings.NewBuilder().
		WithProvider(settings.ScopeDefault, newDefaults()).
		WithProvider(settings.ScopeUser, user).
		WithProvider(settings.ScopeGlobal, global).
		WithContainer(settings.NewContainer("general", "General").
			User("Theme").
			Global("FontSize").
			Default("Timeout")))

	if err := mustValue(t, m, "General", "Theme").Set("dark"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := mustValue(t, m, "General", "FontSize").Set(16); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := m.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	userEntries, _ := user.Read("General")
	if len(userEntries) != 1 || userEntries[0].Key != "Theme" || userEntries[0].Value != "dark" {
		t.Fatalf("unexpected user entries %+v", userEntries)
	}
	globalEntries, _ := global.Read("General")
	if len(globalEntries) != 1 || globalEntries[0].Key != "FontSize" || globalEntries[0].Value != "16" {
		t.Fatalf("unexpected global entries %+v", globalEntries)
	}
	infos, _ := user.ReadGroupInfo()
	if len(infos) != 1 || infos[0].DisplayName != "General Settings" {
		t.Fatalf("group info should be saved, got %+v", infos)
	}

	reloaded := load(t, settings.NewBuilder().
		WithProvider(settings.ScopeDefault, newDefaults()).
		WithProvider(settings.ScopeUser, user).
		WithProvider(settings.ScopeGlobal, global).
		WithContainer(settings.NewContainer("general", "General").User("Theme").Global("FontSize")))
	if got := mustValue(t, reloaded, "General", "Theme").Get(); got != "dark" {
		t.Fatalf("expected saved theme, got %v", got)
	}
}

func TestSaveRejectsOutOfRangeListItems(t *testing.T) {
	user := memory.New()
	b := settings.NewBuilder().
		WithProvider(settings.ScopeDefault, newDefaults(
			settings.Entry{Group: "General", Key: "Ports", Value: "80,443", ValueKind: settings.KindIntegerList},
		)).
		WithProvider(settings.ScopeUser, user)
	m := load(t, b)

	if err := mustValue(t, m, "General", "Ports").Set([]int{80, math.MaxInt32 + 1}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := m.Save(); !errors.Is(err, settings.ErrOverflow) {
		t.Fatalf("expected ErrOverflow from save, got %v", err)
	}
	if groups, _ := user.Groups(); len(groups) != 0 {
		t.Fatalf("failed save must not write, got %v", groups)
	}
	if err := m.Load(); err != nil {
		t.Fatalf("reload after rejected save: %v", err)
	}
}

func TestSaveSkipsReadOnlyProviders(t *testing.T) {
	user := memory.New(memory.WithReadOnly())
	m := load(t, settings.NewBuilder().
		WithProvider(settings.ScopeDefault, newDefaults()).
		WithProvider(settings.ScopeUser, user))

	if err := mustValue(t, m, "General", "Theme").Set("dark"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := m.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}
	if groups, _ := user.Groups(); len(groups) != 0 {
		t.Fatalf("read-only provider must stay empty, got %v", groups)
	}
}

func TestGroupOverridesReorderCollections(t *testing.T) {
	m := load(t, settings.NewBuilder().
		WithProvider(settings.ScopeDefault, newDefaults()).
		WithGroup("General", settings.WithDisplayName("Main"), settings.WithPriority(0)))

	collections := m.Collections()
	if collections[0].Group() != "General" || collections[0].DisplayName() != "Main" {
		t.Fatalf("override should move General first, got %s (%s)", collections[0].Group(), collections[0].DisplayName())
	}
}

func TestManagerChangeEventsAndActivity(t *testing.T) {
	capture := &activity.CaptureHook{}
	m := load(t, settings.NewBuilder().
		WithProvider(settings.ScopeDefault, newDefaults()).
		WithProvider(settings.ScopeUser, memory.New()).
		WithActivityHooks(capture).
		WithIdentity(activity.Identity{ActorID: "user-1"}))

	var changes []settings.ChangeEvent
	m.OnChange(func(event settings.ChangeEvent) { changes = append(changes, event) })

	if err := mustValue(t, m, "General", "FontSize").Set(18); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := m.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	if len(changes) != 1 || changes[0].NewValue != 18 || changes[0].Key != "FontSize" {
		t.Fatalf("unexpected changes %+v", changes)
	}
	verbs := capture.Verbs()
	want := []string{activity.VerbLoaded, activity.VerbValueChanged, activity.VerbSaved}
	if !reflect.DeepEqual(verbs, want) {
		t.Fatalf("expected verbs %v, got %v", want, verbs)
	}
	changed := capture.Events()[1]
	if changed.ObjectID != "General.FontSize" || changed.ActorID != "user-1" {
		t.Fatalf("unexpected value event %+v", changed)
	}
}

func TestSnapshot(t *testing.T) {
	m := load(t, settings.NewBuilder().WithProvider(settings.ScopeDefault, newDefaults()))
	snapshot := m.Snapshot()
	if snapshot["General"]["Theme"] != "light" || snapshot["Advanced"]["Debug"] != false {
		t.Fatalf("unexpected snapshot %v", snapshot)
	}
}

func TestManagerConcurrentAccess(t *testing.T) {
	m := load(t, settings.NewBuilder().
		WithProvider(settings.ScopeDefault, newDefaults()).
		WithProvider(settings.ScopeUser, memory.New()))

	want := map[string]int{"General": 3, "Advanced": 1}
	errs := make(chan error, 8*40)
	checkCollection := func(c *settings.Collection) {
		keys := c.Keys()
		seen := make(map[string]bool, len(keys))
		for _, key := range keys {
			if seen[key] {
				errs <- fmt.Errorf("duplicate key %s.%s in %v", c.Group(), key, keys)
				return
			}
			seen[key] = true
		}
		if len(keys) != want[c.Group()] {
			errs <- fmt.Errorf("collection %s has %d keys, want %d", c.Group(), len(keys), want[c.Group()])
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 40; j++ {
				switch (i + j) % 5 {
				case 0:
					if err := m.Load(); err != nil {
						errs <- fmt.Errorf("load: %w", err)
					}
				case 1:
					if v, ok := m.Value("General", "FontSize"); ok {
						if err := v.Set(10 + j); err != nil {
							errs <- fmt.Errorf("set: %w", err)
						}
					}
				case 2:
					if err := m.Save(); err != nil {
						errs <- fmt.Errorf("save: %w", err)
					}
				case 3:
					if err := m.Merge(); err != nil {
						errs <- fmt.Errorf("merge: %w", err)
					}
				default:
					_ = m.Snapshot()
					collections := m.Collections()
					if len(collections) != 0 && len(collections) != len(want) {
						errs <- fmt.Errorf("partial load: %d collections", len(collections))
					}
					for _, c := range collections {
						checkCollection(c)
					}
					if c, ok := m.Collection("General"); ok {
						checkCollection(c)
					}
				}
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
	if _, ok := m.Value("General", "FontSize"); !ok {
		t.Fatalf("manager should still hold FontSize")
	}
}
