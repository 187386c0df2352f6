package settings

// Provider is a named-group key/value store. Implementations must be safe for
// concurrent use. A read-only provider silently ignores Write and Delete.
type Provider interface {
	// Read returns the entries stored for group, or nil when the group or the
	// underlying source does not exist.
	Read(group string) ([]Entry, error)
	// Write replaces every entry stored for group. Writing no entries removes
	// the group.
	Write(group string, entries []Entry) error
	// Groups lists stored group names, sorted.
	Groups() ([]string, error)
	// Delete wipes all data held by the provider. Nothing to delete is not an
	// error.
	Delete() error
	ReadOnly() bool
}

// GroupInfoProvider is implemented by providers that persist group display
// metadata.
type GroupInfoProvider interface {
	ReadGroupInfo() ([]GroupInfo, error)
	// WriteGroupInfo replaces all stored metadata.
	WriteGroupInfo(infos []GroupInfo) error
}

// ProviderFactory builds a provider for a resolved file path.
type ProviderFactory func(path string) (Provider, error)

// ScopeProviderFactory builds a provider for a scope directly.
type ScopeProviderFactory func(scope Scope) (Provider, error)

// PathResolver synthesizes the storage path for a scope.
type PathResolver func(scope Scope) (string, error)

func groupInfoProvider(p Provider) (GroupInfoProvider, bool) {
	if p == nil {
		return nil, false
	}
	gp, ok := p.(GroupInfoProvider)
	return gp, ok
}

func readOrEmpty(p Provider, group string) ([]Entry, error) {
	if p == nil {
		return nil, nil
	}
	return p.Read(group)
}
