package settings

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SpecialFolder binds a token such as %AppData% to a resolved directory.
type SpecialFolder struct {
	Token string
	Path  string
}

// SpecialFolders is the token table used by the Folder kind.
type SpecialFolders []SpecialFolder

// DefaultSpecialFolders resolves the well-known per-user directories of the
// current process. Directories the platform cannot resolve are left out.
func DefaultSpecialFolders() SpecialFolders {
	var out SpecialFolders
	add := func(token string, resolve func() (string, error)) {
		path, err := resolve()
		if err != nil || path == "" {
			return
		}
		out = append(out, SpecialFolder{Token: token, Path: filepath.Clean(path)})
	}
	add("%UserProfile%", os.UserHomeDir)
	add("%AppData%", os.UserConfigDir)
	add("%LocalAppData%", os.UserCacheDir)
	add("%Temp%", func() (string, error) { return os.TempDir(), nil })
	return out
}

// Expand replaces a leading token with its directory.
func (f SpecialFolders) Expand(value string) string {
	for _, folder := range f {
		if len(value) < len(folder.Token) {
			continue
		}
		if strings.EqualFold(value[:len(folder.Token)], folder.Token) {
			return folder.Path + value[len(folder.Token):]
		}
	}
	return value
}

// Collapse replaces the longest matching directory prefix with its token.
func (f SpecialFolders) Collapse(value string) string {
	ordered := make(SpecialFolders, len(f))
	copy(ordered, f)
	sort.SliceStable(ordered, func(i, j int) bool {
		return len(ordered[i].Path) > len(ordered[j].Path)
	})
	for _, folder := range ordered {
		if folder.Path == "" {
			continue
		}
		if value == folder.Path {
			return folder.Token
		}
		if strings.HasPrefix(value, folder.Path) && isSeparator(value[len(folder.Path)]) {
			return folder.Token + value[len(folder.Path):]
		}
	}
	return value
}

func isSeparator(c byte) bool {
	return c == '/' || c == '\\'
}

// FolderSerializer expands tokens on parse and collapses them on format.
func FolderSerializer(folders SpecialFolders) *TypedSerializer[string] {
	return NewSerializer(KindFolder,
		func(raw, _ string) (string, error) { return folders.Expand(raw), nil },
		func(v string) (string, error) { return folders.Collapse(v), nil },
		func(a, b string) bool { return a == b },
	)
}
