// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: desk/media.go
// Summary: Media focus arbiter; at most one video player is audible.
// Usage: Hosts call Attach for every video item they display and forward the
// player's ready, state-change and error callbacks. The arbiter registers
// itself as the desktop's Releaser so removing an item tears its player down.

package desk

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Error codes reported by embedded players for videos whose owner disallows
// embedding. They trigger automatic repair.
const (
	ErrCodeEmbedRestricted    = 150
	ErrCodeEmbedRestrictedAlt = 153
)

// DefaultTrackInterval is how often a playing video's position is sampled.
const DefaultTrackInterval = 5 * time.Second

// MediaOptions configures a MediaArbiter.
type MediaOptions struct {
	TrackInterval time.Duration
	Repairer      Repairer
	Logger        *logrus.Entry
}

type playerHandle struct {
	player  Player
	state   PlayerState
	playing bool
	source  string
}

// MediaArbiter owns every player handle and the audio focus.
type MediaArbiter struct {
	mu       sync.Mutex
	desk     *Desktop
	factory  PlayerFactory
	repairer Repairer
	handles  map[string]*playerHandle
	focus    string
	tracker  *tracker
	log      *logrus.Entry
}

// NewMediaArbiter creates an arbiter and installs it as d's Releaser.
func NewMediaArbiter(d *Desktop, factory PlayerFactory, opts MediaOptions) *MediaArbiter {
	if opts.TrackInterval <= 0 {
		opts.TrackInterval = DefaultTrackInterval
	}
	if opts.Logger == nil {
		opts.Logger = d.log
	}
	a := &MediaArbiter{
		desk:     d,
		factory:  factory,
		repairer: opts.Repairer,
		handles:  make(map[string]*playerHandle),
		tracker:  newTracker(opts.TrackInterval),
		log:      opts.Logger,
	}
	d.SetReleaser(a)
	return a
}

// Attach creates a player for a video item. Calling it for an item that
// already has a live handle is a no-op; an errored handle is recreated.
func (a *MediaArbiter) Attach(ctx context.Context, id string) error {
	item, ok := a.desk.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if item.Type != TypeVideo {
		return fmt.Errorf("desk: %s is a %s, not a video", id, item.Type)
	}
	source, err := VideoIDFromURL(item.Src)

	a.mu.Lock()
	if h, ok := a.handles[id]; ok && h.state != PlayerError {
		a.mu.Unlock()
		return nil
	}
	if err != nil {
		if a.liveLocked(id) {
			a.handles[id] = &playerHandle{state: PlayerError}
		}
		a.mu.Unlock()
		a.log.Warnf("Media: %s has no usable video id: %v", id, err)
		return err
	}
	a.mu.Unlock()

	return a.create(ctx, id, source, item.LastTimestamp)
}

// create installs a loading placeholder, builds the player outside the lock,
// and discards the result if the item was released meanwhile.
func (a *MediaArbiter) create(ctx context.Context, id, source string, start int) error {
	a.mu.Lock()
	if !a.liveLocked(id) {
		a.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	h := &playerHandle{state: PlayerLoading, source: source}
	a.handles[id] = h
	muted := a.focus != "" && a.focus != id
	a.mu.Unlock()

	a.log.Debugf("Media: Initializing player for %s (source %s)", id, source)
	p, err := a.factory.Create(ctx, id, source, PlayerOptions{Start: start, Muted: muted})

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.handles[id] != h {
		if p != nil {
			p.Destroy()
		}
		return nil
	}
	if err != nil {
		h.state = PlayerError
		a.log.Errorf("Media: Failed to create player for %s: %v", id, err)
		return fmt.Errorf("desk: create player for %s: %w", id, err)
	}
	h.player = p
	return nil
}

// OnReady moves a loading handle to ready and applies the current focus.
func (a *MediaArbiter) OnReady(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	h, ok := a.handles[id]
	if !ok || h.player == nil {
		return
	}
	if h.state == PlayerLoading {
		h.state = PlayerReady
	}
	switch {
	case a.focus == id:
		h.player.Unmute()
	case a.focus != "":
		h.player.Mute()
	}
}

// OnStateChange reacts to playback changes. Playing starts position tracking
// and claims focus when nobody holds it; anything else stops tracking and
// asks for the sampled position to be saved.
func (a *MediaArbiter) OnStateChange(id string, state PlaybackState) {
	a.mu.Lock()
	h, ok := a.handles[id]
	if !ok {
		a.mu.Unlock()
		return
	}
	h.playing = state == PlaybackPlaying
	claim := h.playing && a.focus == ""
	if h.playing {
		a.tracker.start(id, a.sample)
	}
	a.mu.Unlock()

	if state == PlaybackPlaying {
		if claim {
			a.SetFocus(id)
		}
		return
	}
	if a.tracker.stop(id) {
		a.desk.Emit(Event{Type: EventPlaybackChanged, ItemID: id})
	}
}

// OnError marks the handle failed. Embedding restrictions are repaired
// automatically when a Repairer is configured.
func (a *MediaArbiter) OnError(ctx context.Context, id string, code int) {
	a.mu.Lock()
	h, ok := a.handles[id]
	if ok {
		h.state = PlayerError
		h.playing = false
	}
	a.mu.Unlock()
	if !ok {
		return
	}
	a.tracker.stop(id)
	a.log.Errorf("Media: Player error %d for %s", code, id)

	if code != ErrCodeEmbedRestricted && code != ErrCodeEmbedRestrictedAlt {
		return
	}
	if a.repairer == nil {
		a.log.Warnf("Media: %s is restricted (%d) and no repairer is configured", id, code)
		return
	}
	a.log.Infof("Media: Usage restriction (%d) detected for %s, repairing", code, id)
	if err := a.Repair(ctx, id); err != nil {
		a.log.Errorf("Media: Repair of %s failed: %v", id, err)
	}
}

// Repair replaces the item's player with one built from an alternate source.
// The item keeps its id and position and is flagged as repaired.
func (a *MediaArbiter) Repair(ctx context.Context, id string) error {
	if a.repairer == nil {
		return fmt.Errorf("desk: no repairer configured")
	}
	item, ok := a.desk.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	a.mu.Lock()
	if h, ok := a.handles[id]; ok {
		if h.player != nil {
			h.player.Destroy()
		}
		delete(a.handles, id)
	}
	a.tracker.stop(id)
	a.mu.Unlock()

	source, err := a.repairer.Alternate(ctx, item)
	if err != nil {
		a.mu.Lock()
		a.handles[id] = &playerHandle{state: PlayerError}
		a.mu.Unlock()
		return fmt.Errorf("desk: alternate source for %s: %w", id, err)
	}
	if err := a.desk.MarkRepaired(id); err != nil {
		return err
	}
	return a.create(ctx, id, source, item.LastTimestamp)
}

// SetFocus makes id the only audible player.
func (a *MediaArbiter) SetFocus(id string) {
	a.mu.Lock()
	if a.focus == id {
		a.mu.Unlock()
		return
	}
	prev := a.focus
	a.focus = id
	for hid, h := range a.handles {
		if h.player == nil {
			continue
		}
		if hid == id {
			h.player.Unmute()
			h.player.SetVolume(100)
		} else {
			h.player.Mute()
		}
	}
	a.mu.Unlock()
	a.desk.Emit(Event{Type: EventFocusChanged, ItemID: id, Payload: FocusPayload{Previous: prev}})
}

// Release tears down the item's player. Focus is cleared, not reassigned.
func (a *MediaArbiter) Release(id string) {
	a.mu.Lock()
	h, ok := a.handles[id]
	delete(a.handles, id)
	a.tracker.stop(id)
	cleared := a.focus == id
	if cleared {
		a.focus = ""
	}
	if ok && h.player != nil {
		h.player.Destroy()
	}
	a.mu.Unlock()
	if ok {
		a.log.Debugf("Media: Released player for %s", id)
	}
	if cleared {
		a.desk.Emit(Event{Type: EventFocusChanged, Payload: FocusPayload{Previous: id}})
	}
}

// ReleaseAll tears down every player; used on exit.
func (a *MediaArbiter) ReleaseAll() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tracker.stopAll()
	for id, h := range a.handles {
		if h.player != nil {
			h.player.Destroy()
		}
		delete(a.handles, id)
	}
	a.focus = ""
}

// liveLocked reports whether id is still on the desktop and not being
// removed. Handles and trackers are only installed while it holds.
func (a *MediaArbiter) liveLocked(id string) bool {
	_, ok := a.desk.Get(id)
	return ok
}

// sample stores the current position of id, floored to whole seconds.
func (a *MediaArbiter) sample(id string) {
	a.mu.Lock()
	h, ok := a.handles[id]
	var p Player
	if ok {
		p = h.player
	}
	a.mu.Unlock()
	if p == nil {
		return
	}
	t, err := p.CurrentTime()
	if err != nil {
		a.log.Debugf("Media: Position of %s unavailable: %v", id, err)
		return
	}
	a.desk.SetLastTimestamp(id, int(math.Floor(t)))
}

// SnapshotTimestamps samples every ready player and returns how many
// positions were recorded.
func (a *MediaArbiter) SnapshotTimestamps() int {
	a.mu.Lock()
	ids := make([]string, 0, len(a.handles))
	for id, h := range a.handles {
		if h.player != nil && h.state == PlayerReady {
			ids = append(ids, id)
		}
	}
	a.mu.Unlock()
	for _, id := range ids {
		a.sample(id)
	}
	return len(ids)
}

// Focused returns the id holding audio focus, or "".
func (a *MediaArbiter) Focused() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.focus
}

// State returns the handle state for id.
func (a *MediaArbiter) State(id string) PlayerState {
	a.mu.Lock()
	defer a.mu.Unlock()
	if h, ok := a.handles[id]; ok {
		return h.state
	}
	return PlayerUninitialized
}

// Tracking reports whether id's position is being sampled.
func (a *MediaArbiter) Tracking(id string) bool {
	return a.tracker.running(id)
}
