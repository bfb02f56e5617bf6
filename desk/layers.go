// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: desk/layers.go
// Summary: Z-order counter, layer listing, selection and keyboard nudging.

package desk

import (
	"fmt"
	"sort"
)

// baseZ is the first value handed out by BringToFront.
const baseZ = 110

// Layers owns the monotonic z counter. It is guarded by the Desktop mutex.
// Manual ChangeZ calls may push values past the counter or below zero; the
// counter only guarantees BringToFront lands above everything it has issued.
type Layers struct {
	next int
}

func newLayers() *Layers {
	return &Layers{next: baseZ}
}

func (l *Layers) raiseAbove(z int) {
	if z >= l.next {
		l.next = z + 1
	}
}

func (l *Layers) issue() int {
	z := l.next
	l.next++
	return z
}

// Layer is one row of the layer panel.
type Layer struct {
	ID   string
	Name string
	Type ItemType
	Z    int
}

// BringToFront assigns the item the next z value.
func (d *Desktop) BringToFront(id string) (int, error) {
	d.mu.Lock()
	it := d.findLocked(id)
	if it == nil {
		d.mu.Unlock()
		return 0, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	it.Z = d.layers.issue()
	z := it.Z
	d.mu.Unlock()
	d.dispatcher.Broadcast(Event{Type: EventZOrderChanged, ItemID: id})
	return z, nil
}

// ChangeZ adds delta to the item's z value without clamping.
func (d *Desktop) ChangeZ(id string, delta int) (int, error) {
	d.mu.Lock()
	it := d.findLocked(id)
	if it == nil {
		d.mu.Unlock()
		return 0, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	it.Z += delta
	z := it.Z
	d.mu.Unlock()
	d.dispatcher.Broadcast(Event{Type: EventZOrderChanged, ItemID: id})
	return z, nil
}

// Listing returns every item ordered from top to bottom. Equal z values keep
// collection order.
func (d *Desktop) Listing() []Layer {
	d.mu.Lock()
	out := make([]Layer, len(d.items))
	for i, it := range d.items {
		out[i] = Layer{ID: it.ID, Name: it.DisplayName(), Type: it.Type, Z: it.Z}
	}
	d.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Z > out[j].Z })
	return out
}

// Select marks an item as selected and raises it. The raise emits no
// structural event; the new z value goes out with the next full save. An
// empty id clears the selection.
func (d *Desktop) Select(id string) error {
	if id == "" {
		d.mu.Lock()
		prev := d.selected
		d.selected = ""
		d.mu.Unlock()
		if prev != "" {
			d.dispatcher.Broadcast(Event{Type: EventItemSelected})
		}
		return nil
	}
	d.mu.Lock()
	it := d.findLocked(id)
	if it == nil {
		d.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	it.Z = d.layers.issue()
	d.selected = id
	d.mu.Unlock()
	d.dispatcher.Broadcast(Event{Type: EventItemSelected, ItemID: id})
	return nil
}

// Selected returns the selected item id, or "" when nothing is selected.
func (d *Desktop) Selected() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.selected
}

// MoveSelected nudges the selected item by (dx, dy). It reports false when
// nothing is selected.
func (d *Desktop) MoveSelected(dx, dy float64) (bool, error) {
	d.mu.Lock()
	id := d.selected
	it := d.findLocked(id)
	if it == nil {
		d.mu.Unlock()
		return false, nil
	}
	it.X += dx
	it.Y += dy
	d.mu.Unlock()
	d.dispatcher.Broadcast(Event{Type: EventGeometryChanged, ItemID: id})
	return true, nil
}
