// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/persist/status.go
// Summary: Save status indicator with timed auto-hide.

package persist

import (
	"sync"
	"time"
)

// StatusState is the visible state of the save indicator.
type StatusState int

const (
	StatusHidden StatusState = iota
	StatusSaving
	StatusMigrating
	StatusSaved
	StatusError
)

func (s StatusState) String() string {
	switch s {
	case StatusSaving:
		return "saving"
	case StatusMigrating:
		return "migrating"
	case StatusSaved:
		return "saved"
	case StatusError:
		return "error"
	default:
		return "hidden"
	}
}

// Status is the payload of desk.EventSaveStatus.
type Status struct {
	State   StatusState
	Message string
}

// StatusIndicator tracks the current status. Saved and error states hide
// themselves after their configured duration.
type StatusIndicator struct {
	mu       sync.Mutex
	cur      Status
	gen      uint64
	timer    *time.Timer
	savedFor time.Duration
	errorFor time.Duration
	notify   func(Status)
}

// NewStatusIndicator calls notify (outside its lock) on every change.
func NewStatusIndicator(savedFor, errorFor time.Duration, notify func(Status)) *StatusIndicator {
	if notify == nil {
		notify = func(Status) {}
	}
	return &StatusIndicator{savedFor: savedFor, errorFor: errorFor, notify: notify}
}

// Set changes the status and arms the auto-hide timer when applicable.
func (s *StatusIndicator) Set(state StatusState, msg string) {
	st := Status{State: state, Message: msg}
	s.mu.Lock()
	s.gen++
	gen := s.gen
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.cur = st
	var hideAfter time.Duration
	switch state {
	case StatusSaved:
		hideAfter = s.savedFor
	case StatusError:
		hideAfter = s.errorFor
	}
	if hideAfter > 0 {
		s.timer = time.AfterFunc(hideAfter, func() { s.expire(gen) })
	}
	s.mu.Unlock()
	s.notify(st)
}

func (s *StatusIndicator) expire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.gen++
	s.timer = nil
	s.cur = Status{State: StatusHidden}
	s.mu.Unlock()
	s.notify(Status{State: StatusHidden})
}

// Current returns the visible status.
func (s *StatusIndicator) Current() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// Stop cancels a pending auto-hide.
func (s *StatusIndicator) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
