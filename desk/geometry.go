// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: desk/geometry.go
// Summary: Pure rectangle helpers and per-type default sizes.

package desk

// Point is a canvas position in pixels.
type Point struct {
	X, Y float64
}

// Size is a width/height pair in pixels.
type Size struct {
	W, H float64
}

// Rect is an axis-aligned rectangle with its origin at the top-left corner.
type Rect struct {
	X, Y, W, H float64
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.W }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.H }

// Contains reports whether p lies strictly inside r.
func (r Rect) Contains(p Point) bool {
	return p.X > r.X && p.X < r.Right() && p.Y > r.Y && p.Y < r.Bottom()
}

// Overlaps reports whether r and o intersect once both are grown by margin on
// their right and bottom sides. Rectangles exactly margin apart do not
// overlap.
func (r Rect) Overlaps(o Rect, margin float64) bool {
	return r.X < o.Right()+margin &&
		r.Right()+margin > o.X &&
		r.Y < o.Bottom()+margin &&
		r.Bottom()+margin > o.Y
}

// DefaultSize returns the footprint used for an item that has no explicit size.
func DefaultSize(t ItemType) Size {
	switch t {
	case TypeFolder:
		return Size{W: 100, H: 100}
	case TypeNote:
		return Size{W: 220, H: 200}
	case TypeImage, TypeGIF:
		return Size{W: 220, H: 220}
	case TypeVideo:
		return Size{W: 320, H: 240}
	default:
		return Size{W: 100, H: 100}
	}
}
