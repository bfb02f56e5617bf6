// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: desk/item.go
// Summary: Desktop item and folder tab types shared by every desk component.
// Usage: Items are created by Desktop.Add and persisted by internal/persist.

package desk

import (
	"encoding/json"
	"fmt"
)

// ItemType tags the kind of content an item carries.
type ItemType string

const (
	TypeFolder ItemType = "folder"
	TypeNote   ItemType = "note"
	TypeImage  ItemType = "image"
	TypeGIF    ItemType = "gif"
	TypeVideo  ItemType = "video"
	TypeApp    ItemType = "app"
)

// Valid reports whether t is one of the known item types.
func (t ItemType) Valid() bool {
	switch t {
	case TypeFolder, TypeNote, TypeImage, TypeGIF, TypeVideo, TypeApp:
		return true
	}
	return false
}

// Resizable reports whether the item exposes resize handles.
func (t ItemType) Resizable() bool {
	return t == TypeVideo || t == TypeNote
}

// Tab is a lightweight reference stored inside a folder. Tabs are not desktop
// items and never take part in placement or collision checks.
type Tab struct {
	Type  string `json:"type,omitempty"`
	URL   string `json:"url,omitempty"`
	Title string `json:"title,omitempty"`
}

// Item is a positioned, typed unit of desktop content.
type Item struct {
	ID   string   `json:"id"`
	Type ItemType `json:"type"`
	X    float64  `json:"x"`
	Y    float64  `json:"y"`
	W    float64  `json:"w,omitempty"`
	H    float64  `json:"h,omitempty"`
	Z    int      `json:"zIndex"`

	Name    string `json:"name,omitempty"`
	Text    string `json:"text,omitempty"`
	Src     string `json:"src,omitempty"`
	URL     string `json:"url,omitempty"`
	IconURL string `json:"iconUrl,omitempty"`
	Tabs    []Tab  `json:"tabs,omitempty"`

	IsEditing          bool `json:"isEditing,omitempty"`
	IsYTPinned         bool `json:"isYTPinned,omitempty"`
	IsPinnedByPlaylist bool `json:"isPinnedByPlaylist,omitempty"`
	IsRepaired         bool `json:"isRepaired,omitempty"`
	LastTimestamp      int  `json:"lastTimestamp,omitempty"`

	// Placed is false when the item arrived without coordinates and still
	// needs the placement engine.
	Placed bool `json:"-"`
}

// UnmarshalJSON records whether x/y were present so that Desktop.Add can
// place items that were described without a position.
func (it *Item) UnmarshalJSON(data []byte) error {
	type plain Item
	var aux struct {
		plain
		X *float64 `json:"x"`
		Y *float64 `json:"y"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*it = Item(aux.plain)
	if aux.X != nil && aux.Y != nil {
		it.X, it.Y = *aux.X, *aux.Y
		it.Placed = true
	}
	return nil
}

// Size returns the explicit size, falling back to the type default for
// whichever dimension is unset.
func (it Item) Size() Size {
	def := DefaultSize(it.Type)
	s := Size{W: it.W, H: it.H}
	if s.W <= 0 {
		s.W = def.W
	}
	if s.H <= 0 {
		s.H = def.H
	}
	return s
}

// Rect returns the item's rectangle using Size.
func (it Item) Rect() Rect {
	s := it.Size()
	return Rect{X: it.X, Y: it.Y, W: s.W, H: s.H}
}

// DisplayName is the label used by layer listings and folder tabs.
func (it Item) DisplayName() string {
	switch {
	case it.Name != "":
		return it.Name
	case it.Text != "":
		return it.Text
	default:
		return string(it.Type)
	}
}

// Clone returns a deep copy of the item.
func (it Item) Clone() Item {
	out := it
	if it.Tabs != nil {
		out.Tabs = make([]Tab, len(it.Tabs))
		copy(out.Tabs, it.Tabs)
	}
	return out
}

func (it Item) String() string {
	return fmt.Sprintf("%s(%s @%.0f,%.0f z=%d)", it.Type, it.ID, it.X, it.Y, it.Z)
}

// CloneItems deep-copies a slice of items.
func CloneItems(items []Item) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return out
}
