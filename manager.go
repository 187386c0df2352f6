package settings

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/goliatone/go-settings/pkg/activity"
)

// Manager loads, saves and merges settings across the registered scope
// providers. Build one with a Builder.
//
// A single mutex serializes Load, Save, Merge and every collection accessor.
// Load replaces the whole cache, so readers never see a partial snapshot.
type Manager struct {
	mu          sync.Mutex
	collections map[string]*Collection
	ordered     []*Collection

	providers   map[Scope]Provider
	serializers *SerializerRegistry
	scopes      *ScopeMap
	overrides   map[string]GroupOverride
	logger      Logger
	emitter     *activity.Emitter
	identity    activity.Identity
	evaluator   Evaluator

	listenerMu sync.RWMutex
	listeners  []ChangeListener
}

// Load discards the cached collections and rebuilds them from the providers.
// Without a Default provider the manager is left empty. A stored value that
// its serializer rejects fails the whole Load with a *ParseError.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.collections = map[string]*Collection{}
	m.ordered = nil

	def := m.providers[ScopeDefault]
	if def == nil {
		m.logger.Debug("settings: load skipped, no default provider")
		return nil
	}

	groups, err := def.Groups()
	if err != nil {
		return fmt.Errorf("settings: list default groups: %w", err)
	}
	infos, err := readGroupInfo(def)
	if err != nil {
		return err
	}

	collections := make(map[string]*Collection, len(groups))
	ordered := make([]*Collection, 0, len(groups))
	for _, group := range groups {
		info, ok := infos[group]
		if !ok {
			info = DefaultGroupInfo(group)
		}
		collection, err := m.loadGroup(def, info)
		if err != nil {
			return err
		}
		if collection.Len() == 0 {
			continue
		}
		if override, ok := m.overrides[group]; ok {
			collection.applyInfo(override)
		}
		collections[group] = collection
		ordered = append(ordered, collection)
	}
	sortCollections(ordered)

	m.collections = collections
	m.ordered = ordered

	names := make([]string, len(ordered))
	for i, c := range ordered {
		names[i] = c.Group()
	}
	m.logger.Info("settings: loaded", "groups", len(ordered))
	m.emit(activity.BuildLoadedEvent(m.eventInput(activity.SettingsEventInput{Groups: names})))
	return nil
}

func (m *Manager) loadGroup(def Provider, info GroupInfo) (*Collection, error) {
	group := info.Group
	defaults, err := def.Read(group)
	if err != nil {
		return nil, fmt.Errorf("settings: read %q from %s: %w", group, ScopeDefault, err)
	}

	stored := make(map[Scope]map[string]Entry, len(WritableScopes))
	for _, scope := range WritableScopes {
		entries, err := readOrEmpty(m.providers[scope], group)
		if err != nil {
			return nil, fmt.Errorf("settings: read %q from %s: %w", group, scope, err)
		}
		stored[scope] = indexEntries(entries)
	}

	collection := NewCollection(info)
	for _, entry := range defaults {
		owner := ScopeUser
		if m.scopes != nil {
			scope, ok := m.scopes.Lookup(group, entry.Key)
			if !ok {
				continue
			}
			owner = scope
		}

		serializer, ok := m.serializers.Lookup(entry.ValueKind)
		if !ok {
			m.logger.Debug("settings: unknown value kind", "group", group, "key", entry.Key, "kind", entry.ValueKind)
			continue
		}

		value, err := m.resolveValue(group, entry, owner, serializer, stored)
		if err != nil {
			return nil, err
		}
		if err := collection.Add(value); err != nil {
			if errors.Is(err, ErrDuplicateKey) {
				m.logger.Warn("settings: duplicate default key ignored", "group", group, "key", entry.Key)
				continue
			}
			return nil, err
		}
	}
	return collection, nil
}

// resolveValue picks the effective raw value for entry. Without containers the
// first of User, Global, Default holding the key wins. With containers only the
// owning scope is consulted before falling back to Default.
func (m *Manager) resolveValue(group string, entry Entry, owner Scope, serializer Serializer, stored map[Scope]map[string]Entry) (*Value, error) {
	defaultValue, err := serializer.Parse(entry.Value, entry.Tag)
	if err != nil {
		return nil, &ParseError{Scope: ScopeDefault, Group: group, Key: entry.Key, Kind: entry.ValueKind, Raw: entry.Value, Err: err}
	}

	candidates := []Scope{ScopeUser, ScopeGlobal}
	if m.scopes != nil {
		candidates = nil
		if owner != ScopeDefault {
			candidates = []Scope{owner}
		}
	}

	raw, from := entry.Value, ScopeDefault
	layers := []Provenance{{Scope: ScopeDefault, Raw: entry.Value, Found: true}}
	resolved := false
	for _, scope := range candidates {
		found, ok := stored[scope][entry.Key]
		layers = append(layers, Provenance{Scope: scope, Raw: found.Value, Found: ok})
		if ok && !resolved {
			raw, from, resolved = found.Value, scope, true
		}
	}
	sort.SliceStable(layers, func(i, j int) bool { return layers[i].Scope < layers[j].Scope })

	current, err := serializer.Parse(raw, entry.Tag)
	if err != nil {
		return nil, &ParseError{Scope: from, Group: group, Key: entry.Key, Kind: entry.ValueKind, Raw: raw, Err: err}
	}

	value, err := NewValue(group, entry.Key, owner, serializer, defaultValue, current,
		WithTag(entry.Tag),
		WithHidden(entry.Hidden),
		withProvenance(layers),
	)
	if err != nil {
		return nil, fmt.Errorf("settings: build %s/%s: %w", group, entry.Key, err)
	}
	value.OnChange(m.valueChanged)
	return value, nil
}

// Save writes every value not owned by Default to its scope's provider, one
// full group replace per (scope, group). Scopes without a provider, or with a
// read-only one, are skipped.
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	buckets := make(map[Scope]map[string][]Entry, len(WritableScopes))
	for _, collection := range m.ordered {
		for _, value := range collection.values {
			if value.Scope() == ScopeDefault {
				continue
			}
			entry, err := value.Entry()
			if err != nil {
				return fmt.Errorf("settings: format %s/%s: %w", value.Group(), value.Key(), err)
			}
			if buckets[value.Scope()] == nil {
				buckets[value.Scope()] = map[string][]Entry{}
			}
			buckets[value.Scope()][collection.Group()] = append(buckets[value.Scope()][collection.Group()], entry)
		}
	}

	infos := make([]GroupInfo, len(m.ordered))
	for i, collection := range m.ordered {
		infos[i] = collection.Info()
	}

	for _, scope := range WritableScopes {
		provider := m.providers[scope]
		if provider == nil || provider.ReadOnly() {
			continue
		}
		bucket := buckets[scope]
		groups := make([]string, 0, len(bucket))
		for group := range bucket {
			groups = append(groups, group)
		}
		sort.Strings(groups)

		for _, group := range groups {
			if err := provider.Write(group, bucket[group]); err != nil {
				return fmt.Errorf("settings: write %q to %s: %w", group, scope, err)
			}
		}
		if gp, ok := groupInfoProvider(provider); ok {
			if err := gp.WriteGroupInfo(infos); err != nil {
				return fmt.Errorf("settings: write group info to %s: %w", scope, err)
			}
		}
		m.logger.Info("settings: saved", "scope", scope.String(), "groups", len(groups))
		m.emit(activity.BuildSavedEvent(m.eventInput(activity.SettingsEventInput{Scope: scope.String(), Groups: groups})))
	}
	return nil
}

// Merge brings the User and Global providers in line with the Default schema.
// When containers are registered and none targets a scope, that scope's
// provider is wiped instead; a failed wipe is logged, not returned.
func (m *Manager) Merge() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	def := m.providers[ScopeDefault]
	if def == nil {
		m.logger.Warn("settings: merge skipped, no default provider")
		return nil
	}

	for _, scope := range WritableScopes {
		target := m.providers[scope]
		if target == nil {
			continue
		}

		if m.scopes != nil && !m.scopes.Targets(scope) {
			if target.ReadOnly() {
				continue
			}
			if err := target.Delete(); err != nil {
				m.logger.Warn("settings: delete unused provider failed", "scope", scope.String(), "error", err)
				continue
			}
			m.logger.Info("settings: deleted unused provider", "scope", scope.String())
			m.emit(activity.BuildProviderDeletedEvent(m.eventInput(activity.SettingsEventInput{Scope: scope.String()})))
			continue
		}

		if err := Merge(def, target, scope, m.scopes); err != nil {
			return err
		}
		if !target.ReadOnly() {
			m.logger.Info("settings: merged", "scope", scope.String())
			m.emit(activity.BuildMergedEvent(m.eventInput(activity.SettingsEventInput{Scope: scope.String()})))
		}
	}
	return nil
}

// Collections returns the loaded collections ordered by priority, then group.
func (m *Manager) Collections() []*Collection {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Collection, len(m.ordered))
	copy(out, m.ordered)
	return out
}

// Collection returns the loaded collection for group.
func (m *Manager) Collection(group string) (*Collection, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.collections[group]
	return c, ok
}

// Value returns the loaded value for (group, key).
func (m *Manager) Value(group, key string) (*Value, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lookup(group, key)
}

func (m *Manager) lookup(group, key string) (*Value, bool) {
	c, ok := m.collections[group]
	if !ok {
		return nil, false
	}
	return c.Get(key)
}

// Trace reports how the loaded value for (group, key) was resolved.
func (m *Manager) Trace(group, key string) (Trace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.lookup(group, key)
	if !ok {
		return Trace{}, fmt.Errorf("%w: %s", ErrNotFound, joinPath(group, key))
	}
	return v.Trace(), nil
}

// Snapshot maps each loaded group to its key/current-value pairs.
func (m *Manager) Snapshot() map[string]map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]map[string]any, len(m.ordered))
	for _, c := range m.ordered {
		out[c.Group()] = c.Snapshot()
	}
	return out
}

// Provider returns the provider registered for scope, or nil.
func (m *Manager) Provider(scope Scope) Provider {
	return m.providers[scope]
}

// ScopeMap returns the container-derived scope map, or nil when no containers
// were registered.
func (m *Manager) ScopeMap() *ScopeMap {
	return m.scopes
}

// Serializers returns the registry used to parse and format values.
func (m *Manager) Serializers() *SerializerRegistry {
	return m.serializers
}

// OnChange registers listener for Set calls on any value loaded from now on
// and on values already loaded.
func (m *Manager) OnChange(listener ChangeListener) {
	if listener == nil {
		return
	}
	m.listenerMu.Lock()
	m.listeners = append(m.listeners, listener)
	m.listenerMu.Unlock()
}

func (m *Manager) valueChanged(event ChangeEvent) {
	m.listenerMu.RLock()
	listeners := append([]ChangeListener(nil), m.listeners...)
	m.listenerMu.RUnlock()
	for _, listener := range listeners {
		listener(event)
	}
	m.emit(activity.BuildValueChangedEvent(m.eventInput(activity.SettingsEventInput{
		Scope:    event.Scope.String(),
		Path:     joinPath(event.Group, event.Key),
		OldValue: exportValue(event.OldValue),
		NewValue: exportValue(event.NewValue),
		Metadata: map[string]any{"is_default": event.IsDefault},
	})))
}

func (m *Manager) eventInput(input activity.SettingsEventInput) activity.SettingsEventInput {
	input.Identity = m.identity
	return input
}

func (m *Manager) emit(event activity.Event) {
	if !m.emitter.Enabled() {
		return
	}
	if err := m.emitter.Emit(context.Background(), event); err != nil {
		m.logger.Warn("settings: activity hook failed", "verb", event.Verb, "error", err)
	}
}

func readGroupInfo(p Provider) (map[string]GroupInfo, error) {
	gp, ok := groupInfoProvider(p)
	if !ok {
		return nil, nil
	}
	infos, err := gp.ReadGroupInfo()
	if err != nil {
		return nil, fmt.Errorf("settings: read group info from %s: %w", ScopeDefault, err)
	}
	return indexGroupInfo(infos), nil
}

func sortCollections(collections []*Collection) {
	sort.SliceStable(collections, func(i, j int) bool {
		if collections[i].Priority() != collections[j].Priority() {
			return collections[i].Priority() < collections[j].Priority()
		}
		return collections[i].Group() < collections[j].Group()
	})
}
