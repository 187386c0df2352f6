// Package file stores one settings scope in a single JSON, YAML, TOML or CSV
// file.
package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	settings "github.com/goliatone/go-settings"
)

// Provider reads and writes a Document file. Every call goes to disk so edits
// made by other tools are picked up. Writes replace the file atomically
// through a rename, so concurrent readers see either the old or the new
// content.
type Provider struct {
	mu       sync.RWMutex
	path     string
	codec    Codec
	readOnly bool
	perm     fs.FileMode
}

// Option configures a Provider.
type Option func(*Provider)

// WithCodec overrides the extension-based codec.
func WithCodec(codec Codec) Option {
	return func(p *Provider) {
		if codec != nil {
			p.codec = codec
		}
	}
}

// WithReadOnly turns Write, WriteGroupInfo and Delete into no-ops.
func WithReadOnly() Option {
	return func(p *Provider) {
		p.readOnly = true
	}
}

// WithPermissions sets the mode of created files.
func WithPermissions(perm fs.FileMode) Option {
	return func(p *Provider) {
		p.perm = perm
	}
}

// New constructs a provider for path. The file does not need to exist.
func New(path string, opts ...Option) (*Provider, error) {
	if path == "" {
		return nil, fmt.Errorf("file: path must not be empty")
	}
	p := &Provider{path: path, perm: 0o644}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	if p.codec == nil {
		codec, err := CodecForPath(path)
		if err != nil {
			return nil, err
		}
		p.codec = codec
	}
	return p, nil
}

// ForPath adapts New to settings.ProviderFactory.
func ForPath(opts ...Option) settings.ProviderFactory {
	return func(path string) (settings.Provider, error) {
		return New(path, opts...)
	}
}

// Path returns the backing file path.
func (p *Provider) Path() string { return p.path }

func (p *Provider) Read(group string) ([]settings.Entry, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	doc, err := p.load()
	if err != nil {
		return nil, err
	}
	return doc.Groups[group], nil
}

// Write replaces group. Writing no entries removes the group.
func (p *Provider) Write(group string, entries []settings.Entry) error {
	if p.readOnly {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	doc, err := p.load()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		if _, ok := doc.Groups[group]; !ok {
			return nil
		}
		delete(doc.Groups, group)
	} else {
		stored := make([]settings.Entry, len(entries))
		copy(stored, entries)
		doc.Groups[group] = stored
	}
	return p.store(doc)
}

func (p *Provider) Groups() ([]string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	doc, err := p.load()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(doc.Groups))
	for group := range doc.Groups {
		out = append(out, group)
	}
	sort.Strings(out)
	return out, nil
}

// Delete removes the backing file. A missing file is not an error.
func (p *Provider) Delete() error {
	if p.readOnly {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := os.Remove(p.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("file: delete %s: %w", p.path, err)
	}
	return nil
}

func (p *Provider) ReadOnly() bool {
	return p.readOnly
}

func (p *Provider) ReadGroupInfo() ([]settings.GroupInfo, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	doc, err := p.load()
	if err != nil {
		return nil, err
	}
	return doc.GroupInfo, nil
}

func (p *Provider) WriteGroupInfo(infos []settings.GroupInfo) error {
	if p.readOnly {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	doc, err := p.load()
	if err != nil {
		return err
	}
	doc.GroupInfo = append([]settings.GroupInfo(nil), infos...)
	return p.store(doc)
}

func (p *Provider) load() (Document, error) {
	data, err := os.ReadFile(p.path)
	if errors.Is(err, fs.ErrNotExist) {
		doc := Document{}
		doc.normalize()
		return doc, nil
	}
	if err != nil {
		return Document{}, fmt.Errorf("file: read %s: %w", p.path, err)
	}
	if len(data) == 0 {
		doc := Document{}
		doc.normalize()
		return doc, nil
	}
	doc, err := p.codec.Decode(data)
	if err != nil {
		return Document{}, fmt.Errorf("file: decode %s as %s: %w", p.path, p.codec.Name(), err)
	}
	doc.normalize()
	return doc, nil
}

func (p *Provider) store(doc Document) error {
	data, err := p.codec.Encode(doc)
	if err != nil {
		return fmt.Errorf("file: encode %s as %s: %w", p.path, p.codec.Name(), err)
	}
	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("file: create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(p.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("file: create temp for %s: %w", p.path, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("file: write %s: %w", p.path, err)
	}
	if err := tmp.Chmod(p.perm); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("file: chmod %s: %w", p.path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("file: close %s: %w", p.path, err)
	}
	if err := os.Rename(tmpName, p.path); err != nil {
		cleanup()
		return fmt.Errorf("file: replace %s: %w", p.path, err)
	}
	return nil
}

var (
	_ settings.Provider          = (*Provider)(nil)
	_ settings.GroupInfoProvider = (*Provider)(nil)
)
