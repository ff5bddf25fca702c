package playlist

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	// ErrAssetMissing indicates the resolved path does not exist.
	ErrAssetMissing = errors.New("asset missing")
	// ErrAssetUnreadable indicates the resolved path exists but could not
	// be read or enumerated.
	ErrAssetUnreadable = errors.New("asset unreadable")
)

// Playlist is an ordered sequence of playable file paths plus a cursor.
// Once built it is never mutated in place; a card change replaces it
// wholesale. The zero value is the empty, immediately-done playlist.
type Playlist struct {
	items  []string
	cursor int
}

// Empty returns the idle playlist.
func Empty() Playlist {
	return Playlist{}
}

// Current returns the item under the cursor, or false when the playlist is
// exhausted.
func (p Playlist) Current() (string, bool) {
	if p.Done() {
		return "", false
	}
	return p.items[p.cursor], true
}

// Advance moves the cursor past the current item. Advancing a done playlist
// is a no-op.
func (p *Playlist) Advance() {
	if p.cursor < len(p.items) {
		p.cursor++
	}
}

// Done reports whether every item has been consumed.
func (p Playlist) Done() bool {
	return p.cursor >= len(p.items)
}

// Len returns the total number of items, consumed or not.
func (p Playlist) Len() int {
	return len(p.items)
}

// Items returns a copy of the full ordered item list.
func (p Playlist) Items() []string {
	result := make([]string, len(p.items))
	copy(result, p.items)
	return result
}

// Build expands a resolved asset path into a playlist. A single file
// becomes a one-item playlist containing exactly that path. A directory is
// enumerated non-recursively, filtered to the allowed audio extensions and
// sorted by path so playback order is reproducible regardless of how the
// filesystem returns entries.
func Build(path string, allowed []string) (Playlist, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Playlist{}, fmt.Errorf("%w: %s", ErrAssetMissing, path)
		}
		return Playlist{}, fmt.Errorf("%w: %s: %v", ErrAssetUnreadable, path, err)
	}

	if !info.IsDir() {
		return Playlist{items: []string{path}}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return Playlist{}, fmt.Errorf("%w: %s: %v", ErrAssetUnreadable, path, err)
	}

	allowedSet := make(map[string]struct{}, len(allowed))
	for _, ext := range allowed {
		allowedSet[strings.ToLower(ext)] = struct{}{}
	}

	var items []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if _, ok := allowedSet[ext]; !ok {
			continue
		}
		items = append(items, filepath.Join(path, entry.Name()))
	}

	sort.Strings(items)
	return Playlist{items: items}, nil
}
