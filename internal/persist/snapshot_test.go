// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package persist

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/framegrace/texeldesk/desk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotEncodeDecode(t *testing.T) {
	items := []desk.Item{
		note("a", 10, 20),
		{ID: "f", Type: desk.TypeFolder, X: 1, Y: 2, Z: 3, Name: "Music",
			Tabs: []desk.Tab{{Type: "link", URL: "https://youtu.be/x", Title: "x"}}},
	}
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	snap, err := NewSnapshot(items, at)
	require.NoError(t, err)
	assert.Equal(t, SnapshotVersion, snap.Version)
	assert.Len(t, snap.Hash, 40)

	data, err := snap.Encode()
	require.NoError(t, err)

	got, err := DecodeSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, at, got.SavedAt)
	assert.Equal(t, snap.Hash, got.Hash)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Music", got.Items[1].Name)
	assert.Equal(t, items[1].Tabs, got.Items[1].Tabs)
}

func TestSnapshotDetectsCorruption(t *testing.T) {
	snap, err := NewSnapshot([]desk.Item{note("a", 10, 20)}, time.Now())
	require.NoError(t, err)
	data, err := snap.Encode()
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	raw["items"].([]interface{})[0].(map[string]interface{})["x"] = 999
	tampered, err := json.Marshal(raw)
	require.NoError(t, err)

	cases := map[string][]byte{
		"tampered":  tampered,
		"truncated": data[:len(data)/2],
		"version":   []byte(`{"version":0,"items":[]}`),
		"garbage":   []byte("not json"),
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeSnapshot(in)
			assert.ErrorIs(t, err, ErrCorruptSnapshot)
		})
	}
}

func TestEmptySnapshotHasItemsArray(t *testing.T) {
	snap, err := NewSnapshot(nil, time.Now())
	require.NoError(t, err)
	data, err := snap.Encode()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"items":[]`)

	got, err := DecodeSnapshot(data)
	require.NoError(t, err)
	assert.Empty(t, got.Items)
}

func TestFileCache(t *testing.T) {
	c := NewFileCache(filepath.Join(t.TempDir(), "nested", "cache.json"))
	_, err := c.Read()
	assert.ErrorIs(t, err, ErrNoCache)

	require.NoError(t, c.Write([]byte("one")))
	require.NoError(t, c.Write([]byte("two")))
	got, err := c.Read()
	require.NoError(t, err)
	assert.Equal(t, "two", string(got))

	require.NoError(t, c.Clear())
	require.NoError(t, c.Clear())
	_, err = c.Read()
	assert.ErrorIs(t, err, ErrNoCache)
}
