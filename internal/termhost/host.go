// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/termhost/host.go
// Summary: Terminal host driving the desktop from a tcell screen.
// Usage: cmd/texeldesk creates a Host over an initialised screen and calls
// Run. The host is the controller's renderer and the shutdown target.

package termhost

import (
	"context"
	"io"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/framegrace/texeldesk/desk"
	"github.com/framegrace/texeldesk/internal/persist"
	"github.com/framegrace/texeldesk/internal/shutdown"
	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Keyboard move steps in canvas pixels.
const (
	moveStep      = 10
	moveStepShift = 50
)

// Options configures a Host.
type Options struct {
	Controller desk.ControllerOptions
	// Media and Players are optional; without them videos never play.
	Media   *desk.MediaArbiter
	Players *ClockFactory
	// OnQuit runs on its own goroutine when the user asks to quit or hide.
	// It is expected to end in Terminate or Hide. Nil terminates directly.
	OnQuit        func(mode shutdown.Mode)
	FrameInterval time.Duration
	Logger        *logrus.Entry
}

// Host owns the screen and the event loop.
type Host struct {
	screen  tcell.Screen
	desk    *desk.Desktop
	ctrl    *desk.Controller
	media   *desk.MediaArbiter
	players *ClockFactory
	opts    Options
	log     *logrus.Entry

	// Touched only from the event loop.
	proj        projection
	lastButtons tcell.ButtonMask
	lastCell    [2]int
	preview     *desk.Rect
	pasting     bool
	paste       strings.Builder

	mu         sync.Mutex
	status     persist.Status
	progress   *shutdown.Progress
	openFolder string
	notice     string

	dirty    chan struct{}
	quit     chan struct{}
	quitOnce sync.Once
	hidden   atomic.Bool
}

// New creates a host over an initialised screen and subscribes it to d.
func New(d *desk.Desktop, screen tcell.Screen, opts Options) *Host {
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = 16 * time.Millisecond
	}
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = logrus.NewEntry(l)
	}
	h := &Host{
		screen:  screen,
		desk:    d,
		media:   opts.Media,
		players: opts.Players,
		opts:    opts,
		log:     log,
		dirty:   make(chan struct{}, 1),
		quit:    make(chan struct{}),
	}
	h.ctrl = desk.NewController(d, h, opts.Controller)
	h.resize()
	d.Subscribe(h)
	return h
}

// Controller returns the interaction controller fed by this host.
func (h *Host) Controller() *desk.Controller { return h.ctrl }

// Hidden reports whether the host stopped because of Hide.
func (h *Host) Hidden() bool { return h.hidden.Load() }

// Hide implements shutdown.Host: the UI stops, the process stays.
func (h *Host) Hide() {
	h.hidden.Store(true)
	h.stop()
}

// Terminate implements shutdown.Host.
func (h *Host) Terminate() { h.stop() }

func (h *Host) stop() {
	h.quitOnce.Do(func() { close(h.quit) })
}

// Done is closed once Hide or Terminate was called.
func (h *Host) Done() <-chan struct{} { return h.quit }

func (h *Host) markDirty() {
	select {
	case h.dirty <- struct{}{}:
	default:
	}
}

// ApplyGeometry implements desk.Renderer. The next frame reads geometry from
// the desktop, so this only requests a redraw.
func (h *Host) ApplyGeometry(string, desk.Rect) { h.markDirty() }

// ShowSnapPreview implements desk.Renderer.
func (h *Host) ShowSnapPreview(r desk.Rect) {
	h.preview = &r
	h.markDirty()
}

// HideSnapPreview implements desk.Renderer.
func (h *Host) HideSnapPreview() {
	h.preview = nil
	h.markDirty()
}

// OnEvent implements desk.Listener.
func (h *Host) OnEvent(ev desk.Event) {
	switch ev.Type {
	case desk.EventSaveStatus:
		if st, ok := ev.Payload.(persist.Status); ok {
			h.mu.Lock()
			h.status = st
			h.mu.Unlock()
		}
	case desk.EventShutdownProgress:
		if p, ok := ev.Payload.(shutdown.Progress); ok {
			h.mu.Lock()
			h.progress = &p
			h.mu.Unlock()
		}
	case desk.EventOpenFolder:
		h.setOpenFolder(ev.ItemID)
	case desk.EventItemContextMenu:
		if it, ok := h.desk.Get(ev.ItemID); ok {
			h.setNotice(string(it.Type) + " " + it.ID + ": del remove  f front  +/- layer")
		}
	case desk.EventItemAdded:
		if it, ok := h.desk.Get(ev.ItemID); ok && it.Type == desk.TypeVideo {
			go h.attach(context.Background(), it.ID)
		}
	}
	h.markDirty()
}

func (h *Host) setOpenFolder(id string) {
	h.mu.Lock()
	h.openFolder = id
	h.mu.Unlock()
	h.markDirty()
}

func (h *Host) setNotice(msg string) {
	h.mu.Lock()
	h.notice = msg
	h.mu.Unlock()
	h.markDirty()
}

func (h *Host) attach(ctx context.Context, id string) {
	if h.media == nil {
		return
	}
	if err := h.media.Attach(ctx, id); err != nil {
		h.log.Warnf("Termhost: attach player for %s: %v", id, err)
		return
	}
	h.media.OnReady(id)
}

// AttachVideos creates players for every video item.
func (h *Host) AttachVideos(ctx context.Context) {
	for _, it := range h.desk.Items() {
		if it.Type == desk.TypeVideo {
			h.attach(ctx, it.ID)
		}
	}
}

func (h *Host) resize() {
	w, ht := h.screen.Size()
	h.proj = newProjection(w, ht, h.desk.Viewport())
}

// Run processes input until Hide, Terminate or ctx cancellation. The screen
// is finalised on return.
func (h *Host) Run(ctx context.Context) error {
	defer h.screen.Fini()
	h.screen.EnableMouse()
	h.screen.EnablePaste()
	h.AttachVideos(ctx)

	events := make(chan tcell.Event, 10)
	go func() {
		for {
			ev := h.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-h.quit:
				return
			}
		}
	}()

	ticker := time.NewTicker(h.opts.FrameInterval)
	defer ticker.Stop()

	dirty := true
	for {
		select {
		case ev := <-events:
			h.handleEvent(ev)
			dirty = true
		case <-h.dirty:
			dirty = true
		case <-ticker.C:
			if dirty {
				h.draw()
				dirty = false
			}
		case <-h.quit:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *Host) snapshotFrame() frame {
	f := frame{
		proj:     h.proj,
		items:    h.desk.Items(),
		selected: h.desk.Selected(),
		preview:  h.preview,
		playing:  make(map[string]bool),
	}
	if h.media != nil {
		f.focused = h.media.Focused()
		for _, it := range f.items {
			if it.Type == desk.TypeVideo && h.media.Tracking(it.ID) {
				f.playing[it.ID] = true
			}
		}
	}
	h.mu.Lock()
	f.status = h.status
	f.progress = h.progress
	f.openFolder = h.openFolder
	f.notice = h.notice
	h.mu.Unlock()
	return f
}

func (h *Host) draw() {
	render(h.screen, h.snapshotFrame())
}

func (h *Host) handleEvent(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		h.screen.Sync()
		h.resize()
	case *tcell.EventMouse:
		h.handleMouse(ev)
	case *tcell.EventPaste:
		h.handlePaste(ev)
	case *tcell.EventKey:
		if h.pasting {
			h.collectPaste(ev)
			return
		}
		h.handleKey(ev)
	}
}

func (h *Host) requestQuit(mode shutdown.Mode) {
	h.ctrl.Cancel()
	if h.opts.OnQuit == nil {
		if mode == shutdown.ModeHide {
			h.Hide()
		} else {
			h.Terminate()
		}
		return
	}
	go h.opts.OnQuit(mode)
}

func (h *Host) handleKey(ev *tcell.EventKey) {
	step := float64(moveStep)
	if ev.Modifiers()&tcell.ModShift != 0 {
		step = moveStepShift
	}
	switch ev.Key() {
	case tcell.KeyCtrlC:
		h.requestQuit(shutdown.ModeTerminate)
	case tcell.KeyEscape:
		h.ctrl.Cancel()
		h.preview = nil
		h.setOpenFolder("")
		h.setNotice("")
		_ = h.desk.Select("")
	case tcell.KeyTab:
		h.selectNext()
	case tcell.KeyUp:
		h.nudge(0, -step)
	case tcell.KeyDown:
		h.nudge(0, step)
	case tcell.KeyLeft:
		h.nudge(-step, 0)
	case tcell.KeyRight:
		h.nudge(step, 0)
	case tcell.KeyDelete:
		if id := h.desk.Selected(); id != "" {
			if err := h.desk.Remove(id); err != nil {
				h.log.Warnf("Termhost: remove %s: %v", id, err)
			}
		}
	case tcell.KeyPgUp:
		h.changeZ(1)
	case tcell.KeyPgDn:
		h.changeZ(-1)
	case tcell.KeyRune:
		h.handleRune(ev.Rune())
	}
}

func (h *Host) handleRune(r rune) {
	id := h.desk.Selected()
	switch r {
	case 'q':
		h.requestQuit(shutdown.ModeTerminate)
	case 'h':
		h.requestQuit(shutdown.ModeHide)
	case '+':
		h.changeZ(1)
	case '-':
		h.changeZ(-1)
	case 'f':
		if id != "" {
			_, _ = h.desk.BringToFront(id)
		}
	case 'n':
		note := desk.Item{ID: "note-" + uuid.NewString(), Type: desk.TypeNote}
		if added, err := h.desk.Add(note); err == nil {
			_ = h.desk.Select(added.ID)
		}
	case 'e':
		if it, ok := h.desk.Get(id); ok && it.Type == desk.TypeNote {
			_ = h.desk.SetEditing(id, !it.IsEditing)
		}
	case 'p':
		if it, ok := h.desk.Get(id); ok && it.Type == desk.TypeVideo {
			_, _ = h.desk.TogglePin(id)
		}
	case ' ':
		if it, ok := h.desk.Get(id); ok && it.Type == desk.TypeVideo {
			h.togglePlayback(id)
		}
	case 'y':
		if it, ok := h.desk.Get(id); ok && it.Type == desk.TypeFolder {
			pinned, err := h.desk.PinRandomFromPlaylist(it.Name)
			if err != nil {
				h.setNotice(err.Error())
			} else {
				h.setNotice("Pinned " + strconv.Itoa(len(pinned)) + " videos")
			}
		}
	}
}

func (h *Host) nudge(dx, dy float64) {
	if _, err := h.desk.MoveSelected(dx, dy); err != nil {
		h.log.Debugf("Termhost: move selected: %v", err)
	}
}

func (h *Host) changeZ(delta int) {
	if id := h.desk.Selected(); id != "" {
		_, _ = h.desk.ChangeZ(id, delta)
	}
}

func (h *Host) selectNext() {
	items := h.desk.Items()
	if len(items) == 0 {
		return
	}
	cur := h.desk.Selected()
	next := items[0].ID
	for i, it := range items {
		if it.ID == cur {
			next = items[(i+1)%len(items)].ID
			break
		}
	}
	_ = h.desk.Select(next)
}

func (h *Host) handlePaste(ev *tcell.EventPaste) {
	if ev.Start() {
		h.pasting = true
		h.paste.Reset()
		return
	}
	h.pasting = false
	h.drop(h.paste.String())
}

func (h *Host) collectPaste(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyRune:
		h.paste.WriteRune(ev.Rune())
	case tcell.KeyEnter:
		h.paste.WriteByte('\n')
	}
}

// drop turns pasted text into an item at the last pointer position.
func (h *Host) drop(data string) {
	p := h.proj.toCanvas(h.lastCell[0], h.lastCell[1])
	it, ok := desk.ItemFromDrop(strings.TrimSpace(data), p.X, p.Y)
	if !ok {
		h.setNotice("Nothing to drop")
		return
	}
	if _, err := h.desk.Add(it); err != nil {
		h.log.Warnf("Termhost: drop: %v", err)
	}
}
