// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package desk

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var placementTypes = []ItemType{TypeFolder, TypeNote, TypeImage, TypeGIF, TypeVideo, TypeApp}

func TestFindPlacementNeverOverlapsExistingItems(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 200; trial++ {
		d := newTestDesktop(t)
		layout := make([]Item, rng.Intn(8))
		for i := range layout {
			layout[i] = Item{
				ID:   fmt.Sprintf("i%d", i),
				Type: placementTypes[rng.Intn(len(placementTypes))],
				X:    rng.Float64() * 1600,
				Y:    rng.Float64() * 800,
			}
			if rng.Intn(2) == 0 {
				layout[i].W = 60 + rng.Float64()*900
				layout[i].H = 60 + rng.Float64()*500
			}
		}
		d.Load(layout)

		typ := placementTypes[rng.Intn(len(placementTypes))]
		size := DefaultSize(typ)
		p := d.FindPlacement(size.W, size.H)
		placed := Rect{X: p.X, Y: p.Y, W: size.W, H: size.H}
		for _, it := range layout {
			if placed.Overlaps(it.Rect(), 10) {
				t.Fatalf("trial %d: %+v overlaps %s", trial, placed, it)
			}
		}
	}
}

func TestFindPlacementScansRowsFirst(t *testing.T) {
	d := newTestDesktop(t)
	d.Load([]Item{{ID: "f", Type: TypeFolder, X: 40, Y: 40}})

	p := d.FindPlacement(100, 100)
	// The folder blocks x < 150 on row 2; the next free cell on that row wins.
	assert.Equal(t, Point{X: 160, Y: 40}, p)
	assert.False(t, d.CheckCollision(p.X, p.Y, 100, 100))
}

func TestFindPlacementAvoidsResizedItems(t *testing.T) {
	d := newTestDesktop(t)
	d.Load([]Item{{ID: "v", Type: TypeVideo, X: 40, Y: 40, W: 900, H: 600}})

	p := d.FindPlacement(220, 200)
	placed := Rect{X: p.X, Y: p.Y, W: 220, H: 200}
	assert.False(t, placed.Overlaps(Rect{X: 40, Y: 40, W: 900, H: 600}, 10), "placed at %+v", p)
	assert.Equal(t, Point{X: 960, Y: 40}, p)
	assert.True(t, d.CheckCollision(380, 40, 220, 200))
}

func TestAddPlacesWithExplicitSize(t *testing.T) {
	d := newTestDesktop(t)
	d.Load([]Item{{ID: "n", Type: TypeNote, X: 300, Y: 40}})

	// A 220px wide default note would fit at x=40; the explicit width does not.
	wide, err := d.Add(Item{ID: "w", Type: TypeNote, W: 260, H: 100})
	require.NoError(t, err)
	assert.False(t, wide.Rect().Overlaps(Rect{X: 300, Y: 40, W: 220, H: 200}, 10), "placed at %s", wide)
	assert.Equal(t, 540.0, wide.X)
	assert.Equal(t, 40.0, wide.Y)
}

func TestFindPlacementFallsBackWhenGridIsFull(t *testing.T) {
	d := NewDesktop(Options{
		Viewport: Size{W: 200, H: 200},
		Rand:     rand.New(rand.NewSource(3)),
	})
	d.Load([]Item{{ID: "blocker", Type: TypeVideo, X: 0, Y: 0}})

	for i := 0; i < 20; i++ {
		p := d.FindPlacement(100, 100)
		assert.GreaterOrEqual(t, p.X, 100.0)
		assert.Less(t, p.X, 150.0)
		assert.GreaterOrEqual(t, p.Y, 100.0)
		assert.Less(t, p.Y, 150.0)
	}
}

func TestAddPlacesSuccessiveItemsApart(t *testing.T) {
	d := newTestDesktop(t)
	for i := 0; i < 8; i++ {
		_, err := d.Add(Item{ID: fmt.Sprintf("n%d", i), Type: TypeNote})
		require.NoError(t, err)
	}
	items := d.Items()
	for i := range items {
		for j := i + 1; j < len(items); j++ {
			require.False(t, items[i].Rect().Overlaps(items[j].Rect(), 10),
				"%s overlaps %s", items[i], items[j])
		}
	}
}
