// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/termhost/player.go
// Summary: Clock-driven stand-in players for the terminal host.
// Usage: A terminal cannot embed video, so each video item gets a player that
// only tracks position, volume and mute so focus and resume behave as usual.

package termhost

import (
	"context"
	"sync"
	"time"

	"github.com/framegrace/texeldesk/desk"
)

// ClockFactory creates clock players and keeps them addressable by item id.
type ClockFactory struct {
	mu      sync.Mutex
	players map[string]*ClockPlayer
	now     func() time.Time
}

// NewClockFactory returns an empty factory.
func NewClockFactory() *ClockFactory {
	return &ClockFactory{players: make(map[string]*ClockPlayer), now: time.Now}
}

// Create implements desk.PlayerFactory.
func (f *ClockFactory) Create(ctx context.Context, itemID, sourceID string, opts desk.PlayerOptions) (desk.Player, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := &ClockPlayer{
		source: sourceID,
		base:   float64(opts.Start),
		muted:  opts.Muted,
		volume: 100,
		now:    f.now,
	}
	f.mu.Lock()
	f.players[itemID] = p
	f.mu.Unlock()
	return p, nil
}

// Player returns the live player for itemID.
func (f *ClockFactory) Player(itemID string) (*ClockPlayer, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.players[itemID]
	if !ok || p.Destroyed() {
		return nil, false
	}
	return p, true
}

// Toggle flips play/pause on itemID's player and returns the new state.
func (f *ClockFactory) Toggle(itemID string) (desk.PlaybackState, bool) {
	p, ok := f.Player(itemID)
	if !ok {
		return desk.PlaybackUnstarted, false
	}
	if p.Playing() {
		p.Pause()
		return desk.PlaybackPaused, true
	}
	p.Play()
	return desk.PlaybackPlaying, true
}

// ClockPlayer advances its position with wall time while playing.
type ClockPlayer struct {
	mu        sync.Mutex
	source    string
	base      float64
	since     time.Time
	playing   bool
	muted     bool
	volume    int
	destroyed bool
	now       func() time.Time
}

func (p *ClockPlayer) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playing || p.destroyed {
		return
	}
	p.playing = true
	p.since = p.now()
}

func (p *ClockPlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing {
		return
	}
	p.base += p.now().Sub(p.since).Seconds()
	p.playing = false
}

func (p *ClockPlayer) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

func (p *ClockPlayer) Mute() {
	p.mu.Lock()
	p.muted = true
	p.mu.Unlock()
}

func (p *ClockPlayer) Unmute() {
	p.mu.Lock()
	p.muted = false
	p.mu.Unlock()
}

func (p *ClockPlayer) Muted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.muted
}

func (p *ClockPlayer) SetVolume(volume int) {
	p.mu.Lock()
	p.volume = volume
	p.mu.Unlock()
}

func (p *ClockPlayer) CurrentTime() (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playing {
		return p.base + p.now().Sub(p.since).Seconds(), nil
	}
	return p.base, nil
}

func (p *ClockPlayer) Destroy() {
	p.mu.Lock()
	p.destroyed = true
	p.playing = false
	p.mu.Unlock()
}

func (p *ClockPlayer) Destroyed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.destroyed
}
