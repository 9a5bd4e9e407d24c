package ui

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
)

// BookmarksVersion is the current schema version for the bookmarks file.
const BookmarksVersion = 1

// Bookmark pins one item to a number key.
type Bookmark struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Bookmarks maps the number keys 1-9 to items. Jumping to a bookmark
// behaves like a show request, so it works even when the item is
// outside the current view.
//
// File format (JSON):
//
//	{"version": 1, "slots": {"1": {"id": "...", "label": "North"}}}
//
// A corrupted or missing file degrades to an empty set.
type Bookmarks struct {
	Version int              `json:"version"`
	Slots   map[int]Bookmark `json:"slots"`

	path string
}

// LoadBookmarks reads the bookmark file, returning an empty set when
// the file is missing or unreadable.
func LoadBookmarks(path string) *Bookmarks {
	b := &Bookmarks{
		Version: BookmarksVersion,
		Slots:   make(map[int]Bookmark),
		path:    path,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return b
	}
	var loaded Bookmarks
	if err := json.Unmarshal(data, &loaded); err != nil {
		return b
	}
	if loaded.Version != BookmarksVersion {
		return b
	}
	if loaded.Slots != nil {
		b.Slots = loaded.Slots
	}
	return b
}

// Set assigns slot n (1-9); an empty id clears the slot.
func (b *Bookmarks) Set(n int, id, label string) error {
	if n < 1 || n > 9 {
		return fmt.Errorf("bookmark slot %d out of range", n)
	}
	if id == "" {
		delete(b.Slots, n)
	} else {
		b.Slots[n] = Bookmark{ID: id, Label: label}
	}
	return b.save()
}

// Get returns the bookmark in slot n, ok=false when empty.
func (b *Bookmarks) Get(n int) (Bookmark, bool) {
	bm, ok := b.Slots[n]
	return bm, ok
}

// Drop removes a stale bookmark by item id wherever it is pinned.
func (b *Bookmarks) Drop(id string) {
	for n, bm := range b.Slots {
		if bm.ID == id {
			delete(b.Slots, n)
		}
	}
	_ = b.save()
}

// Bar renders the bookmark strip for the status area.
func (b *Bookmarks) Bar(theme Theme) string {
	if len(b.Slots) == 0 {
		return ""
	}
	out := ""
	for n := 1; n <= 9; n++ {
		bm, ok := b.Slots[n]
		if !ok {
			continue
		}
		if out != "" {
			out += "  "
		}
		out += theme.SecondaryText.Render(fmt.Sprintf("%d:", n)) +
			theme.Base.Render(truncate(bm.Label, 16))
	}
	return out
}

func (b *Bookmarks) save() error {
	if b.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
		return fmt.Errorf("creating bookmarks directory: %w", err)
	}
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling bookmarks: %w", err)
	}
	if err := os.WriteFile(b.path, data, 0o644); err != nil {
		return fmt.Errorf("writing bookmarks: %w", err)
	}
	return nil
}
