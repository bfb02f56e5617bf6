// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package desk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBringToFrontIsMonotonic(t *testing.T) {
	d := newTestDesktop(t)
	d.Load([]Item{{ID: "a", Type: TypeNote, Z: 1}, {ID: "b", Type: TypeNote, Z: 1}})

	za, err := d.BringToFront("a")
	require.NoError(t, err)
	zb, err := d.BringToFront("b")
	require.NoError(t, err)
	za2, err := d.BringToFront("a")
	require.NoError(t, err)

	assert.Equal(t, 110, za)
	assert.Equal(t, 111, zb)
	assert.Equal(t, 112, za2)

	_, err = d.BringToFront("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestChangeZIsUnclamped(t *testing.T) {
	d := newTestDesktop(t)
	d.Load([]Item{{ID: "a", Type: TypeNote, Z: 1}})
	z, err := d.ChangeZ("a", -5)
	require.NoError(t, err)
	assert.Equal(t, -4, z)
	z, err = d.ChangeZ("a", 1000)
	require.NoError(t, err)
	assert.Equal(t, 996, z)
}

func TestListingSortsByZDescendingStable(t *testing.T) {
	d := newTestDesktop(t)
	d.Load([]Item{
		{ID: "a", Type: TypeNote, Text: "first", Z: 2},
		{ID: "b", Type: TypeFolder, Name: "Docs", Z: 5},
		{ID: "c", Type: TypeImage, Z: 2},
	})
	got := d.Listing()
	require.Len(t, got, 3)
	assert.Equal(t, []string{"b", "a", "c"}, []string{got[0].ID, got[1].ID, got[2].ID})
	assert.Equal(t, "Docs", got[0].Name)
	assert.Equal(t, "first", got[1].Name)
	assert.Equal(t, "image", got[2].Name)
}

func TestSelectRaisesAndMoveSelectedNudges(t *testing.T) {
	d := newTestDesktop(t)
	d.Load([]Item{{ID: "a", Type: TypeNote, X: 100, Y: 100, Z: 1}})
	log := &eventLog{}
	d.Subscribe(log)

	moved, err := d.MoveSelected(10, 0)
	require.NoError(t, err)
	assert.False(t, moved, "nothing selected yet")

	require.NoError(t, d.Select("a"))
	assert.Equal(t, "a", d.Selected())
	got, _ := d.Get("a")
	assert.Equal(t, 110, got.Z)

	moved, err = d.MoveSelected(50, -10)
	require.NoError(t, err)
	assert.True(t, moved)
	got, _ = d.Get("a")
	assert.Equal(t, 150.0, got.X)
	assert.Equal(t, 90.0, got.Y)

	require.NoError(t, d.Select(""))
	assert.Equal(t, "", d.Selected())
	assert.Equal(t, []EventType{EventItemSelected, EventGeometryChanged, EventItemSelected}, log.types())
	assert.False(t, EventItemSelected.Structural(), "selection alone must not schedule a save")
}
