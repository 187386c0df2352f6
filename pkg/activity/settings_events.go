package activity

import (
	"strings"
	"time"
)

// Verbs emitted by the settings manager.
const (
	VerbLoaded          = "settings.loaded"
	VerbSaved           = "settings.saved"
	VerbMerged          = "settings.merged"
	VerbProviderDeleted = "settings.provider.deleted"
	VerbValueChanged    = "settings.value.changed"
)

// Object types carried by settings events.
const (
	ObjectSettings = "settings"
	ObjectProvider = "settings.provider"
	ObjectValue    = "settings.value"
)

// Identity names who an event is attributed to.
type Identity struct {
	ActorID  string
	UserID   string
	TenantID string
}

// SettingsEventInput describes the common fields for settings events.
type SettingsEventInput struct {
	Identity
	// Scope is the scope name the operation targeted, if any.
	Scope      string
	Groups     []string
	Path       string
	OldValue   any
	NewValue   any
	Channel    string
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildLoadedEvent describes a completed Load.
func BuildLoadedEvent(input SettingsEventInput) Event {
	return buildSettingsEvent(VerbLoaded, ObjectSettings, input)
}

// BuildSavedEvent describes the groups written to one scope by Save.
func BuildSavedEvent(input SettingsEventInput) Event {
	return buildSettingsEvent(VerbSaved, ObjectSettings, input)
}

// BuildMergedEvent describes a schema merge into one scope.
func BuildMergedEvent(input SettingsEventInput) Event {
	return buildSettingsEvent(VerbMerged, ObjectSettings, input)
}

// BuildProviderDeletedEvent describes a provider wiped by Merge because no
// registered key targets its scope.
func BuildProviderDeletedEvent(input SettingsEventInput) Event {
	return buildSettingsEvent(VerbProviderDeleted, ObjectProvider, input)
}

// BuildValueChangedEvent describes an in-memory value mutation.
func BuildValueChangedEvent(input SettingsEventInput) Event {
	return buildSettingsEvent(VerbValueChanged, ObjectValue, input)
}

func buildSettingsEvent(verb, objectType string, input SettingsEventInput) Event {
	metadata := cloneMap(input.Metadata)
	set := func(key string, value any) {
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata[key] = value
	}
	if input.Scope != "" {
		set("scope", input.Scope)
	}
	if len(input.Groups) > 0 {
		set("groups", append([]string{}, input.Groups...))
	}
	if input.Path != "" {
		set("path", input.Path)
	}
	if input.OldValue != nil {
		set("old_value", input.OldValue)
	}
	if input.NewValue != nil {
		set("new_value", input.NewValue)
	}

	objectID := strings.TrimSpace(input.Path)
	if objectID == "" {
		objectID = strings.TrimSpace(input.Scope)
	}
	if objectID == "" {
		objectID = objectType
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: objectType,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}
