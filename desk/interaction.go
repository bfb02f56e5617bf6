// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: desk/interaction.go
// Summary: Pointer-driven drag and resize of desktop items.
// Usage: Hosts translate their input into PointerDown/Move/Up calls; the
// controller mutates geometry on the Desktop and mirrors every change to the
// Renderer synchronously.

package desk

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	// ErrInteractionActive is returned by PointerDown while a drag or resize
	// is already in progress.
	ErrInteractionActive = errors.New("desk: interaction already active")
	// ErrSuspended is returned by PointerDown once the controller has been
	// suspended for shutdown.
	ErrSuspended = errors.New("desk: interaction suspended")
	// ErrNotResizable is returned when a resize handle is used on an item
	// type that has none.
	ErrNotResizable = errors.New("desk: item is not resizable")
)

// Renderer mirrors geometry changes as they happen.
type Renderer interface {
	ApplyGeometry(id string, r Rect)
	ShowSnapPreview(r Rect)
	HideSnapPreview()
}

// ResizeDir names the handle being dragged.
type ResizeDir string

const (
	DirN  ResizeDir = "n"
	DirS  ResizeDir = "s"
	DirE  ResizeDir = "e"
	DirW  ResizeDir = "w"
	DirNE ResizeDir = "ne"
	DirNW ResizeDir = "nw"
	DirSE ResizeDir = "se"
	DirSW ResizeDir = "sw"
)

// ResizeDirs lists every handle.
var ResizeDirs = []ResizeDir{DirN, DirS, DirE, DirW, DirNE, DirNW, DirSE, DirSW}

// Valid reports whether d is a known handle.
func (d ResizeDir) Valid() bool {
	for _, v := range ResizeDirs {
		if d == v {
			return true
		}
	}
	return false
}

func (d ResizeDir) has(side string) bool { return strings.Contains(string(d), side) }

type targetKind int

const (
	targetBody targetKind = iota
	targetTextInput
	targetHandle
)

// Target identifies what part of an item the pointer went down on.
type Target struct {
	kind targetKind
	dir  ResizeDir
}

var (
	// TargetBody starts a drag.
	TargetBody = Target{kind: targetBody}
	// TargetTextInput belongs to the item's editor and never starts a drag.
	TargetTextInput = Target{kind: targetTextInput}
)

// TargetHandle starts a resize from the given handle.
func TargetHandle(dir ResizeDir) Target {
	return Target{kind: targetHandle, dir: dir}
}

// Outcome describes how an interaction ended.
type Outcome int

const (
	// OutcomeNone means there was nothing to finish.
	OutcomeNone Outcome = iota
	// OutcomeClick is a drag that never moved.
	OutcomeClick
	// OutcomeMoved is a free move; only coordinates changed.
	OutcomeMoved
	// OutcomeSnapped means the item now fills a snap target.
	OutcomeSnapped
	// OutcomeAbsorbed means the item was dropped on a folder and removed.
	OutcomeAbsorbed
	// OutcomeResized ends a resize.
	OutcomeResized
)

func (o Outcome) String() string {
	switch o {
	case OutcomeClick:
		return "click"
	case OutcomeMoved:
		return "moved"
	case OutcomeSnapped:
		return "snapped"
	case OutcomeAbsorbed:
		return "absorbed"
	case OutcomeResized:
		return "resized"
	default:
		return "none"
	}
}

// Result is returned by PointerUp. For OutcomeClick the host decides what a
// click means for the item type (open a folder, claim audio focus).
type Result struct {
	Outcome  Outcome
	ItemID   string
	Type     ItemType
	Rect     Rect
	FolderID string
	Tab      Tab
}

// ControllerOptions tunes snapping and the resize floor.
type ControllerOptions struct {
	Snap    SnapConfig
	MinSize Size
}

// DefaultControllerOptions returns the stock snap zones and a 150x100 floor.
func DefaultControllerOptions() ControllerOptions {
	return ControllerOptions{Snap: DefaultSnapConfig(), MinSize: Size{W: 150, H: 100}}
}

type dragState struct {
	id     string
	typ    ItemType
	offset Point
	moved  bool
	snap   *Rect
}

type resizeState struct {
	id      string
	typ     ItemType
	dir     ResizeDir
	origin  Point
	initial Rect
	current Rect
}

// Controller runs at most one drag or resize at a time. Its state is nil when
// idle, or one of *dragState and *resizeState.
type Controller struct {
	mu        sync.Mutex
	desk      *Desktop
	renderer  Renderer
	opts      ControllerOptions
	state     interface{}
	suspended bool
}

// NewController binds a controller to a desktop and renderer. A nil renderer
// is allowed for headless use.
func NewController(d *Desktop, r Renderer, opts ControllerOptions) *Controller {
	def := DefaultControllerOptions()
	if opts.Snap.Threshold <= 0 {
		opts.Snap.Threshold = def.Snap.Threshold
	}
	if opts.Snap.ToolbarBand < 0 {
		opts.Snap.ToolbarBand = def.Snap.ToolbarBand
	}
	if opts.MinSize.W <= 0 || opts.MinSize.H <= 0 {
		opts.MinSize = def.MinSize
	}
	if r == nil {
		r = nopRenderer{}
	}
	return &Controller{desk: d, renderer: r, opts: opts}
}

type nopRenderer struct{}

func (nopRenderer) ApplyGeometry(string, Rect) {}
func (nopRenderer) ShowSnapPreview(Rect)       {}
func (nopRenderer) HideSnapPreview()           {}

// Idle reports whether no interaction is in progress.
func (c *Controller) Idle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == nil
}

// Active returns the id of the item being dragged or resized.
func (c *Controller) Active() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch s := c.state.(type) {
	case *dragState:
		return s.id
	case *resizeState:
		return s.id
	}
	return ""
}

// PointerDown begins an interaction on item id at pointer p.
func (c *Controller) PointerDown(id string, p Point, target Target) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.suspended {
		return ErrSuspended
	}
	if c.state != nil {
		return ErrInteractionActive
	}
	if target.kind == targetTextInput {
		return nil
	}
	item, ok := c.desk.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	switch target.kind {
	case targetBody:
		c.state = &dragState{
			id:     id,
			typ:    item.Type,
			offset: Point{X: p.X - item.X, Y: p.Y - item.Y},
		}
	case targetHandle:
		if !target.dir.Valid() {
			return fmt.Errorf("desk: unknown resize handle %q", target.dir)
		}
		if !item.Type.Resizable() {
			return fmt.Errorf("%w: %s", ErrNotResizable, item.Type)
		}
		r := item.Rect()
		c.state = &resizeState{id: id, typ: item.Type, dir: target.dir, origin: p, initial: r, current: r}
	}
	return nil
}

// PointerMove advances the active interaction. It is a no-op when idle.
func (c *Controller) PointerMove(p Point) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch s := c.state.(type) {
	case *dragState:
		return c.moveDrag(s, p)
	case *resizeState:
		return c.moveResize(s, p)
	}
	return nil
}

func (c *Controller) moveDrag(s *dragState, p Point) error {
	pos := Point{X: p.X - s.offset.X, Y: p.Y - s.offset.Y}
	if err := c.desk.applyPosition(s.id, pos); err != nil {
		c.abandonLocked()
		return err
	}
	s.moved = true
	if it, ok := c.desk.Get(s.id); ok {
		c.renderer.ApplyGeometry(s.id, it.Rect())
	}

	target, ok := SnapTarget(p, c.desk.Viewport(), c.opts.Snap)
	switch {
	case ok && (s.snap == nil || *s.snap != target):
		s.snap = &target
		c.renderer.ShowSnapPreview(target)
	case !ok && s.snap != nil:
		s.snap = nil
		c.renderer.HideSnapPreview()
	}
	return nil
}

func (c *Controller) moveResize(s *resizeState, p Point) error {
	r := ResizeRect(s.initial, s.dir, p.X-s.origin.X, p.Y-s.origin.Y, c.opts.MinSize)
	if err := c.desk.applyGeometry(s.id, r); err != nil {
		c.abandonLocked()
		return err
	}
	s.current = r
	c.renderer.ApplyGeometry(s.id, r)
	return nil
}

// ResizeRect applies a pointer delta to the initial rectangle for the given
// handle. Dimensions are clamped to min; when a west or north handle hits the
// floor the origin is pulled back so the opposite edge stays put.
func ResizeRect(initial Rect, dir ResizeDir, dx, dy float64, min Size) Rect {
	r := initial
	if dir.has("e") {
		r.W += dx
	}
	if dir.has("w") {
		r.W -= dx
		r.X += dx
	}
	if dir.has("s") {
		r.H += dy
	}
	if dir.has("n") {
		r.H -= dy
		r.Y += dy
	}
	if r.W < min.W {
		if dir.has("w") {
			r.X -= min.W - r.W
		}
		r.W = min.W
	}
	if r.H < min.H {
		if dir.has("n") {
			r.Y -= min.H - r.H
		}
		r.H = min.H
	}
	return r
}

// PointerUp finishes the active interaction at pointer p.
func (c *Controller) PointerUp(p Point) (Result, error) {
	c.mu.Lock()
	state := c.state
	c.state = nil
	c.mu.Unlock()

	switch s := state.(type) {
	case *dragState:
		return c.finishDrag(s, p)
	case *resizeState:
		c.desk.dispatcher.Broadcast(Event{Type: EventGeometryChanged, ItemID: s.id})
		return Result{Outcome: OutcomeResized, ItemID: s.id, Type: s.typ, Rect: s.current}, nil
	}
	return Result{}, nil
}

func (c *Controller) finishDrag(s *dragState, p Point) (Result, error) {
	res := Result{ItemID: s.id, Type: s.typ}

	if s.snap != nil {
		target := *s.snap
		c.renderer.HideSnapPreview()
		if err := c.desk.SetGeometry(s.id, target); err != nil {
			return res, err
		}
		c.renderer.ApplyGeometry(s.id, target)
		res.Outcome = OutcomeSnapped
		res.Rect = target
		return res, nil
	}

	if !s.moved {
		res.Outcome = OutcomeClick
		if it, ok := c.desk.Get(s.id); ok {
			res.Rect = it.Rect()
		}
		return res, nil
	}

	if s.typ != TypeFolder {
		if folder, ok := c.desk.FolderAt(p, s.id); ok {
			tab, err := c.desk.Absorb(s.id, folder.ID)
			if err != nil {
				return res, err
			}
			res.Outcome = OutcomeAbsorbed
			res.FolderID = folder.ID
			res.Tab = tab
			return res, nil
		}
	}

	it, ok := c.desk.Get(s.id)
	if !ok {
		return res, fmt.Errorf("%w: %s", ErrNotFound, s.id)
	}
	res.Outcome = OutcomeMoved
	res.Rect = it.Rect()
	c.desk.dispatcher.Broadcast(Event{
		Type:    EventItemMoved,
		ItemID:  s.id,
		Payload: MovePayload{X: it.X, Y: it.Y},
	})
	return res, nil
}

// Cancel abandons the active interaction without persisting. Geometry already
// applied stays in memory until the next structural change is saved.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.abandonLocked()
}

func (c *Controller) abandonLocked() {
	if s, ok := c.state.(*dragState); ok && s.snap != nil {
		c.renderer.HideSnapPreview()
	}
	c.state = nil
}

// Suspend cancels any interaction and rejects new ones. Used while shutting
// down so geometry stops changing under the final snapshot.
func (c *Controller) Suspend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.abandonLocked()
	c.suspended = true
}

// Resume re-enables interaction after Suspend.
func (c *Controller) Resume() {
	c.mu.Lock()
	c.suspended = false
	c.mu.Unlock()
}
