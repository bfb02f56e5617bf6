// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: desk/desktop.go
// Summary: The item collection; single source of truth for desktop state.
// Usage: Hosts, the interaction controller, the media arbiter and the
// persistence pipeline all read and mutate items through a Desktop.

package desk

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	// ErrNotFound is returned when an operation names an unknown item.
	ErrNotFound = errors.New("desk: item not found")
	// ErrDuplicateID is returned by Add when the id is already in use.
	ErrDuplicateID = errors.New("desk: duplicate item id")
	// ErrInvalidItem is returned by Add for items without an id or with an unknown type.
	ErrInvalidItem = errors.New("desk: invalid item")
)

// Releaser frees external resources tied to an item before it leaves the
// collection. The media arbiter implements it for player handles.
type Releaser interface {
	Release(id string)
}

// Options configures a Desktop.
type Options struct {
	// Viewport is the visible canvas; placement and snapping work inside it.
	Viewport Size
	// GridStep is the placement scan step in pixels.
	GridStep float64
	// Margin is the breathing room kept between placed items.
	Margin float64
	// Rand drives the placement fallback. Nil uses a time-seeded source.
	Rand *rand.Rand
	// Logger receives diagnostic output. Nil discards it.
	Logger *logrus.Entry
}

// DefaultOptions mirrors a 1920x1080 canvas with the stock grid.
func DefaultOptions() Options {
	return Options{
		Viewport: Size{W: 1920, H: 1080},
		GridStep: 20,
		Margin:   10,
	}
}

// Desktop is the ordered set of items.
type Desktop struct {
	mu       sync.Mutex
	items    []*Item
	removing map[string]bool
	selected string
	layers   *Layers
	viewport Size
	gridStep float64
	margin   float64
	rng      *rand.Rand

	dispatcher *EventDispatcher
	releaser   Releaser
	log        *logrus.Entry
}

// NewDesktop creates an empty desktop.
func NewDesktop(opts Options) *Desktop {
	def := DefaultOptions()
	if opts.Viewport.W <= 0 || opts.Viewport.H <= 0 {
		opts.Viewport = def.Viewport
	}
	if opts.GridStep <= 0 {
		opts.GridStep = def.GridStep
	}
	if opts.Margin <= 0 {
		opts.Margin = def.Margin
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		opts.Logger = logrus.NewEntry(l)
	}
	return &Desktop{
		removing:   make(map[string]bool),
		layers:     newLayers(),
		viewport:   opts.Viewport,
		gridStep:   opts.GridStep,
		margin:     opts.Margin,
		rng:        opts.Rand,
		dispatcher: NewEventDispatcher(),
		log:        opts.Logger,
	}
}

// Subscribe registers a listener for desktop events.
func (d *Desktop) Subscribe(l Listener) { d.dispatcher.Subscribe(l) }

// Unsubscribe removes a listener.
func (d *Desktop) Unsubscribe(l Listener) { d.dispatcher.Unsubscribe(l) }

// Emit broadcasts an event on behalf of a collaborating component.
func (d *Desktop) Emit(ev Event) { d.dispatcher.Broadcast(ev) }

// SetReleaser installs the hook called by Remove before an item is dropped.
func (d *Desktop) SetReleaser(r Releaser) {
	d.mu.Lock()
	d.releaser = r
	d.mu.Unlock()
}

// SetViewport updates the canvas size used for placement and snapping.
func (d *Desktop) SetViewport(s Size) {
	if s.W <= 0 || s.H <= 0 {
		return
	}
	d.mu.Lock()
	d.viewport = s
	d.mu.Unlock()
}

// Viewport returns the current canvas size.
func (d *Desktop) Viewport() Size {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.viewport
}

// Load replaces the collection with previously persisted items at their
// stored positions. It does not emit events; loading is not a mutation worth
// saving.
func (d *Desktop) Load(items []Item) {
	d.load(items, false)
}

// Restore is Load for decoded items: entries that arrived without
// coordinates are run through the placement engine around the ones that did.
func (d *Desktop) Restore(items []Item) {
	d.load(items, true)
}

func (d *Desktop) load(items []Item, place bool) {
	seen := make(map[string]bool, len(items))
	loaded := make([]*Item, 0, len(items))
	var positioned, unplaced []*Item
	maxZ := 0
	for _, it := range items {
		if it.ID == "" || seen[it.ID] {
			d.log.Warnf("Desktop: Dropping item with empty or duplicate id %q on load", it.ID)
			continue
		}
		seen[it.ID] = true
		c := it.Clone()
		if !place {
			c.Placed = true
		}
		if c.Placed {
			positioned = append(positioned, &c)
		} else {
			unplaced = append(unplaced, &c)
		}
		loaded = append(loaded, &c)
		if c.Z > maxZ {
			maxZ = c.Z
		}
	}
	d.mu.Lock()
	d.items = positioned
	for _, c := range unplaced {
		size := c.Size()
		p := d.findPlacementLocked(size.W, size.H)
		c.X, c.Y = p.X, p.Y
		c.Placed = true
		d.items = append(d.items, c)
	}
	d.items = loaded
	d.selected = ""
	d.layers.raiseAbove(maxZ)
	d.mu.Unlock()
	d.log.Debugf("Desktop: Loaded %d items (%d placed)", len(loaded), len(unplaced))
}

// Items returns a deep copy of the collection in order.
func (d *Desktop) Items() []Item {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Item, len(d.items))
	for i, it := range d.items {
		out[i] = it.Clone()
	}
	return out
}

// Len returns the number of items.
func (d *Desktop) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.items)
}

// Get returns a copy of the named item.
func (d *Desktop) Get(id string) (Item, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if it := d.findLocked(id); it != nil {
		return it.Clone(), true
	}
	return Item{}, false
}

// findLocked skips items whose removal is in progress.
func (d *Desktop) findLocked(id string) *Item {
	if d.removing[id] {
		return nil
	}
	for _, it := range d.items {
		if it.ID == id {
			return it
		}
	}
	return nil
}

func (d *Desktop) indexLocked(id string) int {
	for i, it := range d.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// Add appends an item. Items without a position are placed by the placement
// engine; a zero z-order becomes 1.
func (d *Desktop) Add(item Item) (Item, error) {
	if item.ID == "" || !item.Type.Valid() {
		return Item{}, fmt.Errorf("%w: id=%q type=%q", ErrInvalidItem, item.ID, item.Type)
	}
	c := item.Clone()
	if c.Z == 0 {
		c.Z = 1
	}

	d.mu.Lock()
	if d.findLocked(c.ID) != nil || d.removing[c.ID] {
		d.mu.Unlock()
		return Item{}, fmt.Errorf("%w: %s", ErrDuplicateID, c.ID)
	}
	if !c.Placed {
		size := c.Size()
		p := d.findPlacementLocked(size.W, size.H)
		c.X, c.Y = p.X, p.Y
		c.Placed = true
	}
	d.items = append(d.items, &c)
	added := c.Clone()
	d.mu.Unlock()

	d.log.Debugf("Desktop: Added %s", added)
	d.dispatcher.Broadcast(Event{Type: EventItemAdded, ItemID: added.ID})
	return added, nil
}

// Remove deletes an item. Any external resource bound to it is released
// before the item leaves the collection; while that runs, lookups by id
// already miss it.
func (d *Desktop) Remove(id string) error {
	d.mu.Lock()
	exists := d.findLocked(id) != nil
	if exists {
		d.removing[id] = true
	}
	releaser := d.releaser
	d.mu.Unlock()
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if releaser != nil {
		releaser.Release(id)
	}

	d.mu.Lock()
	delete(d.removing, id)
	idx := d.indexLocked(id)
	if idx >= 0 {
		d.items = append(d.items[:idx], d.items[idx+1:]...)
	}
	if d.selected == id {
		d.selected = ""
	}
	d.mu.Unlock()
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	d.log.Debugf("Desktop: Removed %s", id)
	d.dispatcher.Broadcast(Event{Type: EventItemRemoved, ItemID: id})
	return nil
}

// Update applies fn to the named item and emits EventItemChanged. fn must not
// change the item's id.
func (d *Desktop) Update(id string, fn func(*Item)) error {
	d.mu.Lock()
	it := d.findLocked(id)
	if it == nil {
		d.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	fn(it)
	it.ID = id
	d.mu.Unlock()
	d.dispatcher.Broadcast(Event{Type: EventItemChanged, ItemID: id})
	return nil
}

// SetText replaces a note's text.
func (d *Desktop) SetText(id, text string) error {
	return d.Update(id, func(it *Item) { it.Text = text })
}

// SetEditing toggles a note between its link-card and edit views.
func (d *Desktop) SetEditing(id string, editing bool) error {
	return d.Update(id, func(it *Item) { it.IsEditing = editing })
}

// TogglePin flips a video's always-rendered pin and returns the new value.
func (d *Desktop) TogglePin(id string) (bool, error) {
	var pinned bool
	err := d.Update(id, func(it *Item) {
		it.IsYTPinned = !it.IsYTPinned
		pinned = it.IsYTPinned
	})
	return pinned, err
}

// SetGeometry replaces the item's rectangle and emits EventGeometryChanged.
func (d *Desktop) SetGeometry(id string, r Rect) error {
	if err := d.applyGeometry(id, r); err != nil {
		return err
	}
	d.dispatcher.Broadcast(Event{Type: EventGeometryChanged, ItemID: id})
	return nil
}

// applyGeometry mutates geometry without notifying listeners; used while an
// interaction is in flight.
func (d *Desktop) applyGeometry(id string, r Rect) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	it := d.findLocked(id)
	if it == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	it.X, it.Y, it.W, it.H = r.X, r.Y, r.W, r.H
	return nil
}

func (d *Desktop) applyPosition(id string, p Point) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	it := d.findLocked(id)
	if it == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	it.X, it.Y = p.X, p.Y
	return nil
}

// SetLastTimestamp stores a sampled playback position. It is deliberately
// silent: position sampling alone does not schedule a save.
func (d *Desktop) SetLastTimestamp(id string, seconds int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	it := d.findLocked(id)
	if it == nil {
		return false
	}
	it.LastTimestamp = seconds
	return true
}

// MarkRepaired flags a video whose player was rebuilt from an alternate source.
func (d *Desktop) MarkRepaired(id string) error {
	return d.Update(id, func(it *Item) { it.IsRepaired = true })
}

// ContextMenu forwards a context-menu request for an item to UI listeners.
func (d *Desktop) ContextMenu(id string, at Point) {
	d.dispatcher.Broadcast(Event{Type: EventItemContextMenu, ItemID: id, Payload: ContextMenuPayload{X: at.X, Y: at.Y}})
}

// OpenFolder asks UI listeners to show a folder's contents.
func (d *Desktop) OpenFolder(id string) error {
	it, ok := d.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if it.Type != TypeFolder {
		return fmt.Errorf("desk: %s is not a folder", id)
	}
	d.dispatcher.Broadcast(Event{Type: EventOpenFolder, ItemID: id})
	return nil
}

// ItemAt returns the topmost item whose rectangle contains p.
func (d *Desktop) ItemAt(p Point) (Item, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var hit *Item
	for _, it := range d.items {
		r := it.Rect()
		if p.X >= r.X && p.X < r.Right() && p.Y >= r.Y && p.Y < r.Bottom() {
			// Later items win ties, matching render order.
			if hit == nil || it.Z >= hit.Z {
				hit = it
			}
		}
	}
	if hit == nil {
		return Item{}, false
	}
	return hit.Clone(), true
}
