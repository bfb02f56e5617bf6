// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/shutdown/steps.go
// Summary: Shutdown progress reporting and the collaborator contracts.

package shutdown

import (
	"context"

	"github.com/framegrace/texeldesk/desk"
)

// Mode selects what the host does once state is saved.
type Mode int

const (
	// ModeHide keeps the process alive and hides the window.
	ModeHide Mode = iota
	// ModeTerminate exits the process.
	ModeTerminate
)

func (m Mode) String() string {
	if m == ModeTerminate {
		return "terminate"
	}
	return "hide"
}

// Host receives the final signal of a shutdown sequence.
type Host interface {
	Hide()
	Terminate()
}

// Flusher writes a collected item set to the fast cache and the durable
// store. *persist.Pipeline implements it.
type Flusher interface {
	SaveCache(items []desk.Item) error
	SaveDurable(ctx context.Context, items []desk.Item) error
}

// Suspender stops pointer interactions. *desk.Controller implements it.
type Suspender interface {
	Suspend()
}

// TimestampSampler records playback positions. *desk.MediaArbiter implements it.
type TimestampSampler interface {
	SnapshotTimestamps() int
}

// Step identifies a stage of the sequence.
type Step int

const (
	StepAnnounce Step = iota + 1
	StepTimestamps
	StepCollect
	StepCache
	StepDurable
	StepSignal
	// StepLag and StepWatchdog are out-of-band notices.
	StepLag
	StepWatchdog
)

// Progress is reported for every step and broadcast as the payload of
// desk.EventShutdownProgress.
type Progress struct {
	Step Step
	Text string
	Icon string
	Err  error
}

// Reporter shows progress to the user, typically as an overlay.
type Reporter interface {
	Report(p Progress)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Progress)

func (f ReporterFunc) Report(p Progress) { f(p) }

var stepText = map[Step]struct{ text, icon string }{
	StepAnnounce:   {"Step 1: Preparing shutdown sequence...", "⏳"},
	StepTimestamps: {"Step 2: Saving playback positions...", "🎞"},
	StepCollect:    {"Step 3: Collecting desktop items...", "📦"},
	StepCache:      {"Step 4: Updating local cache...", "🖊"},
	StepDurable:    {"Step 5: Writing to disk...", "💾"},
	StepSignal:     {"Finalizing exit...", "🚀"},
	StepLag:        {"Still saving configuration... This might take a moment if items are large.", "🕒"},
	StepWatchdog:   {"Emergency exit triggered (Save took too long)", "⚠"},
}

func progressFor(step Step, err error) Progress {
	t := stepText[step]
	p := Progress{Step: step, Text: t.text, Icon: t.icon, Err: err}
	if err != nil {
		p.Text = "Error: " + err.Error()
		p.Icon = "❌"
	}
	return p
}
