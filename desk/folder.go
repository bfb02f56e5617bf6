// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: desk/folder.go
// Summary: Folder drops, playlist pinning and drop-payload classification.
// Usage: The interaction controller absorbs items dropped on folders; hosts
// call ItemFromDrop for pasted or dropped text and PinRandomFromPlaylist for
// the playlist shortcut.

package desk

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-runewidth"
)

const (
	// tabTitleCells is the widest folder tab title kept before truncation.
	tabTitleCells = 20
	// PlaylistPinCount is how many videos PinRandomFromPlaylist places.
	PlaylistPinCount = 3
	playlistSpacing  = 340
	playlistOrigin   = 100
)

// folderDropBounds is the hit area of a folder icon.
var folderDropBounds = Size{W: 100, H: 100}

// FolderAt returns the first folder, other than exclude, whose icon strictly
// contains p.
func (d *Desktop) FolderAt(p Point, exclude string) (Item, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, it := range d.items {
		if it.Type != TypeFolder || it.ID == exclude {
			continue
		}
		r := Rect{X: it.X, Y: it.Y, W: folderDropBounds.W, H: folderDropBounds.H}
		if r.Contains(p) {
			return it.Clone(), true
		}
	}
	return Item{}, false
}

// TabFor builds the folder tab that stands in for an absorbed item.
func TabFor(it Item) Tab {
	kind := "link"
	if it.Type == TypeImage {
		kind = "image"
	}
	url := it.Src
	if url == "" {
		url = it.Text
	}
	if url == "" {
		url = it.URL
	}
	title := it.Name
	if title == "" {
		title = it.Text
	}
	if title == "" {
		title = "Item"
	}
	if runewidth.StringWidth(title) > tabTitleCells {
		title = runewidth.Truncate(title, tabTitleCells, "") + "..."
	}
	return Tab{Type: kind, URL: url, Title: title}
}

// Absorb appends a tab for itemID to folderID and removes the item from the
// desktop. Folders cannot be absorbed. The change is not undoable.
func (d *Desktop) Absorb(itemID, folderID string) (Tab, error) {
	item, ok := d.Get(itemID)
	if !ok {
		return Tab{}, fmt.Errorf("%w: %s", ErrNotFound, itemID)
	}
	if item.Type == TypeFolder {
		return Tab{}, fmt.Errorf("desk: folder %s cannot be placed in a folder", itemID)
	}
	if itemID == folderID {
		return Tab{}, fmt.Errorf("desk: %s cannot absorb itself", itemID)
	}
	tab := TabFor(item)

	d.mu.Lock()
	folder := d.findLocked(folderID)
	if folder == nil || folder.Type != TypeFolder {
		d.mu.Unlock()
		return Tab{}, fmt.Errorf("%w: folder %s", ErrNotFound, folderID)
	}
	folder.Tabs = append(folder.Tabs, tab)
	folderName := folder.Name
	d.mu.Unlock()

	if err := d.Remove(itemID); err != nil {
		d.log.Warnf("Desktop: Absorbed %s into %s but removal failed: %v", itemID, folderID, err)
	}
	d.log.Infof("Desktop: Added %s to folder %q", itemID, folderName)
	d.dispatcher.Broadcast(Event{
		Type:    EventFolderAbsorbed,
		ItemID:  itemID,
		Payload: AbsorbPayload{FolderID: folderID, Tab: tab},
	})
	return tab, nil
}

// IsYouTubeURL reports whether s points at YouTube.
func IsYouTubeURL(s string) bool {
	return strings.Contains(s, "youtube.com") || strings.Contains(s, "youtu.be")
}

// PinRandomFromPlaylist replaces previously playlist-pinned videos with up to
// PlaylistPinCount videos picked at random from the named folder's tabs. The
// folder name match is case-insensitive.
func (d *Desktop) PinRandomFromPlaylist(folderName string) ([]Item, error) {
	var tabs []Tab
	var stale []string
	found := false

	d.mu.Lock()
	for _, it := range d.items {
		if !found && it.Type == TypeFolder && strings.EqualFold(it.Name, folderName) {
			found = true
			for _, t := range it.Tabs {
				if t.URL != "" && IsYouTubeURL(t.URL) {
					tabs = append(tabs, t)
				}
			}
		}
		if it.Type == TypeVideo && it.IsPinnedByPlaylist {
			stale = append(stale, it.ID)
		}
	}
	if found && len(tabs) > 0 {
		d.rng.Shuffle(len(tabs), func(i, j int) { tabs[i], tabs[j] = tabs[j], tabs[i] })
	}
	d.mu.Unlock()

	if !found {
		return nil, fmt.Errorf("%w: folder %q", ErrNotFound, folderName)
	}
	if len(tabs) == 0 {
		return nil, fmt.Errorf("desk: no YouTube videos in folder %q", folderName)
	}

	for _, id := range stale {
		if err := d.Remove(id); err != nil {
			d.log.Warnf("Desktop: Unpin %s: %v", id, err)
		}
	}

	if len(tabs) > PlaylistPinCount {
		tabs = tabs[:PlaylistPinCount]
	}
	added := make([]Item, 0, len(tabs))
	for i, t := range tabs {
		it, err := d.Add(Item{
			ID:                 "v-playlist-" + uuid.NewString(),
			Type:               TypeVideo,
			Src:                t.URL,
			IsPinnedByPlaylist: true,
			X:                  playlistOrigin + float64(i*playlistSpacing),
			Y:                  playlistOrigin,
			Placed:             true,
		})
		if err != nil {
			return added, err
		}
		added = append(added, it)
	}
	return added, nil
}

var imageURLPattern = regexp.MustCompile(`(?i)\.(jpeg|jpg|gif|png|webp|bmp)$`)

// ItemFromDrop classifies dropped or pasted text and returns the item it
// should become, centred on (x, y). It reports false for text that is not a
// recognisable link.
func ItemFromDrop(data string, x, y float64) (Item, bool) {
	data = strings.TrimSpace(data)
	switch {
	case data == "":
		return Item{}, false
	case IsYouTubeURL(data):
		return Item{
			ID: "video-" + uuid.NewString(), Type: TypeVideo, Src: data,
			X: x - 160, Y: y - 120, Placed: true,
		}, true
	case imageURLPattern.MatchString(data) || strings.HasPrefix(data, "data:image"):
		return Item{
			ID: "image-" + uuid.NewString(), Type: TypeImage, Src: data,
			X: x - 50, Y: y - 50, Placed: true,
		}, true
	case strings.HasPrefix(data, "http") || strings.HasPrefix(data, "www."):
		return Item{
			ID: "note-" + uuid.NewString(), Type: TypeNote, Text: data,
			X: x - 110, Y: y - 100, Placed: true,
		}, true
	}
	return Item{}, false
}
