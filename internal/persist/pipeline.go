// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/persist/pipeline.go
// Summary: Debounced persistence of the desktop collection.
// Usage: Subscribed to a desk.Desktop; every structural event refreshes the
// fast cache and re-arms one debounce timer whose expiry writes the durable
// snapshot.

package persist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/framegrace/texeldesk/desk"
	"github.com/framegrace/texeldesk/internal/bridge"
	"github.com/sirupsen/logrus"
)

// Options configures a Pipeline.
type Options struct {
	Debounce    time.Duration
	StatusSaved time.Duration
	StatusError time.Duration
	// WriteTimeout bounds a durable write started by the debounce timer.
	WriteTimeout time.Duration
	Logger       *logrus.Entry
	Now          func() time.Time
}

// DefaultOptions returns the stock timings.
func DefaultOptions() Options {
	return Options{
		Debounce:     time.Second,
		StatusSaved:  2 * time.Second,
		StatusError:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Pipeline keeps the fast cache and the durable store in step with a Desktop.
type Pipeline struct {
	desk   *desk.Desktop
	store  bridge.StateStore
	coords bridge.CoordSink
	cache  Cache
	status *StatusIndicator
	opts   Options
	log    *logrus.Entry

	flushMu sync.Mutex
	timer   *time.Timer
	gen     uint64
	closed  bool

	// writeMu orders durable writes so a later write always carries a
	// later collection.
	writeMu   sync.Mutex
	lastSaved time.Time
}

// New creates a pipeline and subscribes it to d. coords may be nil.
func New(d *desk.Desktop, store bridge.StateStore, coords bridge.CoordSink, cache Cache, opts Options) *Pipeline {
	def := DefaultOptions()
	if opts.Debounce <= 0 {
		opts.Debounce = def.Debounce
	}
	if opts.StatusSaved <= 0 {
		opts.StatusSaved = def.StatusSaved
	}
	if opts.StatusError <= 0 {
		opts.StatusError = def.StatusError
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = def.WriteTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = logrus.NewEntry(l)
	}
	p := &Pipeline{
		desk:   d,
		store:  store,
		coords: coords,
		cache:  cache,
		opts:   opts,
		log:    log,
	}
	p.status = NewStatusIndicator(opts.StatusSaved, opts.StatusError, func(s Status) {
		d.Emit(desk.Event{Type: desk.EventSaveStatus, Payload: s})
	})
	d.Subscribe(p)
	return p
}

// OnEvent implements desk.Listener.
func (p *Pipeline) OnEvent(ev desk.Event) {
	switch {
	case ev.Type.Structural():
		p.ScheduleFlush()
	case ev.Type == desk.EventItemMoved:
		p.recordMove(ev)
	}
}

// ScheduleFlush writes the fast cache now and (re)arms the debounce timer.
func (p *Pipeline) ScheduleFlush() {
	p.flushMu.Lock()
	if p.closed {
		p.flushMu.Unlock()
		return
	}
	p.gen++
	gen := p.gen
	if p.timer != nil {
		p.timer.Stop()
	}
	p.timer = time.AfterFunc(p.opts.Debounce, func() { p.onTimer(gen) })
	p.flushMu.Unlock()

	if err := p.SaveCache(p.desk.Items()); err != nil {
		p.log.Warnf("Persist: Fast cache write failed: %v", err)
	}
	p.status.Set(StatusSaving, "")
}

func (p *Pipeline) onTimer(gen uint64) {
	p.flushMu.Lock()
	if p.closed || gen != p.gen {
		p.flushMu.Unlock()
		return
	}
	p.timer = nil
	p.flushMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), p.opts.WriteTimeout)
	defer cancel()
	_ = p.flushDurable(ctx)
}

// cancelTimer drops a pending debounce and reports whether one was armed.
func (p *Pipeline) cancelTimer() bool {
	p.flushMu.Lock()
	defer p.flushMu.Unlock()
	p.gen++
	if p.timer == nil {
		return false
	}
	p.timer.Stop()
	p.timer = nil
	return true
}

// Pending reports whether a debounced durable write is armed.
func (p *Pipeline) Pending() bool {
	p.flushMu.Lock()
	defer p.flushMu.Unlock()
	return p.timer != nil
}

func (p *Pipeline) recordMove(ev desk.Event) {
	mp, ok := ev.Payload.(desk.MovePayload)
	if !ok {
		it, found := p.desk.Get(ev.ItemID)
		if !found {
			return
		}
		mp = desk.MovePayload{X: it.X, Y: it.Y}
	}
	if p.coords != nil {
		if err := p.coords.UpdateCoords(ev.ItemID, mp.X, mp.Y); err != nil {
			p.log.Warnf("Persist: Coordinate update for %s failed: %v", ev.ItemID, err)
		}
	}
	if err := p.SaveCache(p.desk.Items()); err != nil {
		p.log.Warnf("Persist: Fast cache write failed: %v", err)
	}
}

// FlushNow cancels any pending debounce and writes the current collection to
// the cache and the durable store.
func (p *Pipeline) FlushNow(ctx context.Context) error {
	p.cancelTimer()
	cacheErr := p.SaveCache(p.desk.Items())
	if cacheErr != nil {
		p.log.Warnf("Persist: Fast cache write failed: %v", cacheErr)
	}
	return errors.Join(cacheErr, p.flushDurable(ctx))
}

func (p *Pipeline) flushDurable(ctx context.Context) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return p.saveDurableLocked(ctx, p.desk.Items())
}

// SaveCache encodes items and writes them to the fast cache.
func (p *Pipeline) SaveCache(items []desk.Item) error {
	if p.cache == nil {
		return nil
	}
	snap, err := NewSnapshot(items, p.opts.Now())
	if err != nil {
		return err
	}
	data, err := snap.Encode()
	if err != nil {
		return fmt.Errorf("persist: encode snapshot: %w", err)
	}
	return p.cache.Write(data)
}

// SaveDurable writes items to the durable store and updates the status.
func (p *Pipeline) SaveDurable(ctx context.Context, items []desk.Item) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return p.saveDurableLocked(ctx, items)
}

func (p *Pipeline) saveDurableLocked(ctx context.Context, items []desk.Item) error {
	snap, err := NewSnapshot(items, p.opts.Now())
	if err != nil {
		return err
	}
	data, err := snap.Encode()
	if err != nil {
		return fmt.Errorf("persist: encode snapshot: %w", err)
	}
	if err := p.store.WriteState(ctx, StateKey, data); err != nil {
		p.log.Errorf("Persist: Durable save failed: %v", err)
		p.status.Set(StatusError, err.Error())
		return fmt.Errorf("persist: durable write: %w", err)
	}
	p.lastSaved = snap.SavedAt
	p.log.Debugf("Persist: Saved %d items", len(items))
	p.status.Set(StatusSaved, "")
	return nil
}

// LastSaved returns the time of the last successful durable write.
func (p *Pipeline) LastSaved() time.Time {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return p.lastSaved
}

// Status returns the current save indicator state.
func (p *Pipeline) Status() Status {
	return p.status.Current()
}

// SetStatus overrides the indicator; used by migrations.
func (p *Pipeline) SetStatus(state StatusState, msg string) {
	p.status.Set(state, msg)
}

// Close unsubscribes from the desktop and drops any pending flush without
// writing it.
func (p *Pipeline) Close() {
	p.flushMu.Lock()
	p.closed = true
	p.gen++
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.flushMu.Unlock()
	p.desk.Unsubscribe(p)
	p.status.Stop()
}
