// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: desk/tracker.go
// Summary: Per-item tickers that sample playback position while a video plays.

package desk

import (
	"context"
	"sync"
	"time"
)

// tracker runs one ticker goroutine per playing item.
type tracker struct {
	mu       sync.Mutex
	interval time.Duration
	stops    map[string]context.CancelFunc
}

func newTracker(interval time.Duration) *tracker {
	return &tracker{interval: interval, stops: make(map[string]context.CancelFunc)}
}

// start launches sample on a ticker for id. It reports false if id is
// already tracked.
func (t *tracker) start(id string, sample func(id string)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.stops[id]; ok {
		return false
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.stops[id] = cancel
	go func() {
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sample(id)
			}
		}
	}()
	return true
}

// stop cancels the ticker for id and reports whether one was running.
func (t *tracker) stop(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	cancel, ok := t.stops[id]
	if !ok {
		return false
	}
	cancel()
	delete(t.stops, id)
	return true
}

func (t *tracker) running(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.stops[id]
	return ok
}

func (t *tracker) stopAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, cancel := range t.stops {
		cancel()
		delete(t.stops, id)
	}
}
