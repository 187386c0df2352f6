package sqlstore_test

import (
	"path/filepath"
	"sync"
	"testing"

	settings "github.com/goliatone/go-settings"
	"github.com/goliatone/go-settings/pkg/provider/sqlstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	store, err := sqlstore.Open(filepath.Join(t.TempDir(), "settings.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestProviderWriteReadPreservesOrder(t *testing.T) {
	p := openStore(t).Provider("user")
	entries := []settings.Entry{
		{Key: "Zeta", Value: "1", ValueKind: settings.KindInteger},
		{Key: "Alpha", Value: "a", ValueKind: settings.KindString, Tag: "t", Hidden: true},
	}
	require.NoError(t, p.Write("General", entries))

	got, err := p.Read("General")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Zeta", got[0].Key)
	assert.Equal(t, settings.Entry{Group: "General", Key: "Alpha", Value: "a", ValueKind: settings.KindString, Tag: "t", Hidden: true}, got[1])
}

func TestProviderScopesAreIsolated(t *testing.T) {
	store := openStore(t)
	user := store.Provider("user")
	global := store.Provider("global")

	require.NoError(t, user.Write("General", []settings.Entry{{Key: "Theme", Value: "dark", ValueKind: settings.KindString}}))
	require.NoError(t, global.Write("Network", []settings.Entry{{Key: "Proxy", Value: "none", ValueKind: settings.KindString}}))

	groups, err := user.Groups()
	require.NoError(t, err)
	assert.Equal(t, []string{"General"}, groups)

	require.NoError(t, user.Delete())
	groups, err = user.Groups()
	require.NoError(t, err)
	assert.Empty(t, groups)

	groups, err = global.Groups()
	require.NoError(t, err)
	assert.Equal(t, []string{"Network"}, groups)
}

func TestProviderWriteEmptyRemovesGroup(t *testing.T) {
	p := openStore(t).Provider("user")
	require.NoError(t, p.Write("Legacy", []settings.Entry{{Key: "Old", Value: "x", ValueKind: settings.KindString}}))
	require.NoError(t, p.Write("Legacy", nil))

	groups, err := p.Groups()
	require.NoError(t, err)
	assert.Empty(t, groups)
	entries, err := p.Read("Legacy")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestProviderGroupInfoReplace(t *testing.T) {
	p := openStore(t).Provider("user")
	require.NoError(t, p.WriteGroupInfo([]settings.GroupInfo{{Group: "A", DisplayName: "First", Priority: 2}, {Group: "B"}}))
	require.NoError(t, p.WriteGroupInfo([]settings.GroupInfo{{Group: "C", DisplayName: "Third", Priority: 1}}))

	infos, err := p.ReadGroupInfo()
	require.NoError(t, err)
	assert.Equal(t, []settings.GroupInfo{{Group: "C", DisplayName: "Third", Priority: 1}}, infos)
}

func TestProviderReadOnly(t *testing.T) {
	store := openStore(t)
	writable := store.Provider("default")
	require.NoError(t, writable.Write("General", []settings.Entry{{Key: "Theme", Value: "dark", ValueKind: settings.KindString}}))

	readOnly := store.Provider("default", sqlstore.WithReadOnly())
	assert.True(t, readOnly.ReadOnly())
	require.NoError(t, readOnly.Write("General", nil))
	require.NoError(t, readOnly.Delete())

	entries, err := readOnly.Read("General")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStoreFactory(t *testing.T) {
	store, err := sqlstore.Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	provider, err := store.Factory()(settings.ScopeGlobal)
	require.NoError(t, err)
	require.NoError(t, provider.Write("General", []settings.Entry{{Key: "Theme", Value: "dark", ValueKind: settings.KindString}}))

	assert.Equal(t, "global", provider.(*sqlstore.Provider).Scope())
	entries, err := store.Provider("global").Read("General")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestProviderConcurrentWrites(t *testing.T) {
	p := openStore(t).Provider("user")
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, p.Write("General", []settings.Entry{
				{Key: "A", Value: "1", ValueKind: settings.KindString},
				{Key: "B", Value: "2", ValueKind: settings.KindString},
			}))
		}()
	}
	wg.Wait()

	entries, err := p.Read("General")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestProviderWriteRejectsDuplicateKeys(t *testing.T) {
	p := openStore(t).Provider("user")
	require.NoError(t, p.Write("General", []settings.Entry{{Key: "Theme", Value: "dark", ValueKind: settings.KindString}}))

	err := p.Write("General", []settings.Entry{
		{Key: "Theme", Value: "light", ValueKind: settings.KindString},
		{Key: "Theme", Value: "blue", ValueKind: settings.KindString},
	})
	require.ErrorIs(t, err, settings.ErrDuplicateKey)

	got, err := p.Read("General")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "dark", got[0].Value)
}
