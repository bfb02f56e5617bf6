// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: desk/snap.go
// Summary: Edge snap zones for dragged items.

package desk

// SnapConfig sizes the snap zones.
type SnapConfig struct {
	// Threshold is the distance from an edge that activates a zone.
	Threshold float64
	// ToolbarBand is the strip at the bottom of the viewport reserved for the
	// toolbar; snapped items never cover it.
	ToolbarBand float64
}

// DefaultSnapConfig returns a 50px threshold above a 48px toolbar.
func DefaultSnapConfig() SnapConfig {
	return SnapConfig{Threshold: 50, ToolbarBand: 48}
}

// SnapTarget returns the rectangle an item dropped at pointer p should fill,
// or false when p is outside every zone. Left and right edges yield a half,
// or a quadrant near the top or bottom; the top edge yields the top half.
func SnapTarget(p Point, viewport Size, cfg SnapConfig) (Rect, bool) {
	t := cfg.Threshold
	w := viewport.W
	h := viewport.H - cfg.ToolbarBand
	halfW, halfH := w/2, h/2

	switch {
	case p.X < t:
		switch {
		case p.Y < t:
			return Rect{X: 0, Y: 0, W: halfW, H: halfH}, true
		case p.Y > h-t:
			return Rect{X: 0, Y: halfH, W: halfW, H: halfH}, true
		default:
			return Rect{X: 0, Y: 0, W: halfW, H: h}, true
		}
	case p.X > w-t:
		switch {
		case p.Y < t:
			return Rect{X: halfW, Y: 0, W: halfW, H: halfH}, true
		case p.Y > h-t:
			return Rect{X: halfW, Y: halfH, W: halfW, H: halfH}, true
		default:
			return Rect{X: halfW, Y: 0, W: halfW, H: h}, true
		}
	case p.Y < t:
		return Rect{X: 0, Y: 0, W: w, H: halfH}, true
	}
	return Rect{}, false
}
