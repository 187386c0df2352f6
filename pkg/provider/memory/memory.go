// Package memory provides a map-backed settings provider for tests, examples
// and Default scopes compiled into the binary.
package memory

import (
	"sort"
	"sync"

	settings "github.com/goliatone/go-settings"
)

// Provider keeps groups in memory. It is safe for concurrent use.
type Provider struct {
	mu       sync.RWMutex
	groups   map[string][]settings.Entry
	infos    []settings.GroupInfo
	readOnly bool
}

// Option configures a Provider at construction.
type Option func(*Provider)

// WithEntries seeds entries, grouped by Entry.Group. Seeding ignores the
// read-only flag.
func WithEntries(entries ...settings.Entry) Option {
	return func(p *Provider) {
		for _, entry := range entries {
			p.groups[entry.Group] = append(p.groups[entry.Group], entry)
		}
	}
}

// WithGroupInfo seeds group metadata.
func WithGroupInfo(infos ...settings.GroupInfo) Option {
	return func(p *Provider) {
		p.infos = append(p.infos, infos...)
	}
}

// WithReadOnly turns Write, WriteGroupInfo and Delete into no-ops.
func WithReadOnly() Option {
	return func(p *Provider) {
		p.readOnly = true
	}
}

// New constructs a provider.
func New(opts ...Option) *Provider {
	p := &Provider{groups: map[string][]settings.Entry{}}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

func (p *Provider) Read(group string) ([]settings.Entry, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return cloneEntries(p.groups[group]), nil
}

// Write replaces group. Writing no entries removes the group.
func (p *Provider) Write(group string, entries []settings.Entry) error {
	if p.readOnly {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(entries) == 0 {
		delete(p.groups, group)
		return nil
	}
	stored := cloneEntries(entries)
	for i := range stored {
		stored[i].Group = group
	}
	p.groups[group] = stored
	return nil
}

func (p *Provider) Groups() ([]string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, 0, len(p.groups))
	for group, entries := range p.groups {
		if len(entries) > 0 {
			out = append(out, group)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (p *Provider) Delete() error {
	if p.readOnly {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.groups = map[string][]settings.Entry{}
	p.infos = nil
	return nil
}

func (p *Provider) ReadOnly() bool {
	return p.readOnly
}

func (p *Provider) ReadGroupInfo() ([]settings.GroupInfo, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(p.infos) == 0 {
		return nil, nil
	}
	out := make([]settings.GroupInfo, len(p.infos))
	copy(out, p.infos)
	return out, nil
}

func (p *Provider) WriteGroupInfo(infos []settings.GroupInfo) error {
	if p.readOnly {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.infos = append([]settings.GroupInfo(nil), infos...)
	return nil
}

func cloneEntries(entries []settings.Entry) []settings.Entry {
	if len(entries) == 0 {
		return nil
	}
	out := make([]settings.Entry, len(entries))
	copy(out, entries)
	return out
}

var (
	_ settings.Provider          = (*Provider)(nil)
	_ settings.GroupInfoProvider = (*Provider)(nil)
)
