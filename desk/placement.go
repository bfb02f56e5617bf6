// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: desk/placement.go
// Summary: Grid-scan placement for items added without a position.

package desk

import "math"

const (
	// placementStartCell is the first grid cell scanned on each axis.
	placementStartCell = 2
	// fallbackOrigin and fallbackJitter bound the random position used when
	// the grid is full.
	fallbackOrigin = 100
	fallbackJitter = 50
)

// CheckCollision reports whether a w×h rectangle at (x, y) comes within the
// placement margin of any item. Resized items count with their explicit size.
func (d *Desktop) CheckCollision(x, y, w, h float64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.collidesLocked(Rect{X: x, Y: y, W: w, H: h})
}

func (d *Desktop) collidesLocked(r Rect) bool {
	for _, it := range d.items {
		if r.Overlaps(it.Rect(), d.margin) {
			return true
		}
	}
	return false
}

// FindPlacement returns the first free grid position for a w×h rectangle,
// scanning row by row. A full grid yields a slightly randomised fallback near
// the top-left corner; placement never fails.
func (d *Desktop) FindPlacement(w, h float64) Point {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.findPlacementLocked(w, h)
}

func (d *Desktop) findPlacementLocked(w, h float64) Point {
	step := d.gridStep
	maxCols := int(math.Floor((d.viewport.W - w) / step))
	maxRows := int(math.Floor((d.viewport.H - h) / step))

	for row := placementStartCell; row < maxRows; row++ {
		for col := placementStartCell; col < maxCols; col++ {
			x := float64(col) * step
			y := float64(row) * step
			if !d.collidesLocked(Rect{X: x, Y: y, W: w, H: h}) {
				return Point{X: x, Y: y}
			}
		}
	}

	d.log.Debugf("Desktop: Grid exhausted for %.0fx%.0f, using fallback position", w, h)
	return Point{
		X: fallbackOrigin + d.rng.Float64()*fallbackJitter,
		Y: fallbackOrigin + d.rng.Float64()*fallbackJitter,
	}
}
