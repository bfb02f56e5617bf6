// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/shutdown/coordinator.go
// Summary: Bounded save-then-exit sequence.
// Usage: cmd/texeldesk runs it on quit requests and termination signals.

package shutdown

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/framegrace/texeldesk/desk"
	"github.com/sirupsen/logrus"
)

// ErrWatchdog is returned when the sequence outlived the watchdog.
var ErrWatchdog = errors.New("shutdown: watchdog expired")

// Deps are the collaborators touched by the sequence. Controller and Media
// may be nil.
type Deps struct {
	Desktop    *desk.Desktop
	Controller Suspender
	Media      TimestampSampler
	Persist    Flusher
	Host       Host
}

// Options configures the timings.
type Options struct {
	Watchdog   time.Duration
	LagNotice  time.Duration
	ErrorGrace time.Duration
	Reporter   Reporter
	Logger     *logrus.Entry
}

// DefaultOptions returns the stock timings.
func DefaultOptions() Options {
	return Options{
		Watchdog:   15 * time.Second,
		LagNotice:  3 * time.Second,
		ErrorGrace: 3 * time.Second,
	}
}

// Coordinator runs the shutdown sequence at most once.
type Coordinator struct {
	deps    Deps
	opts    Options
	log     *logrus.Entry
	started atomic.Bool
	done    chan struct{}
}

// NewCoordinator validates deps and fills unset options.
func NewCoordinator(deps Deps, opts Options) (*Coordinator, error) {
	if deps.Desktop == nil || deps.Persist == nil || deps.Host == nil {
		return nil, errors.New("shutdown: desktop, persist and host are required")
	}
	def := DefaultOptions()
	if opts.Watchdog <= 0 {
		opts.Watchdog = def.Watchdog
	}
	if opts.LagNotice <= 0 {
		opts.LagNotice = def.LagNotice
	}
	if opts.ErrorGrace < 0 {
		opts.ErrorGrace = 0
	}
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = logrus.NewEntry(l)
	}
	return &Coordinator{deps: deps, opts: opts, log: log, done: make(chan struct{})}, nil
}

// Done is closed once the host has been signalled.
func (c *Coordinator) Done() <-chan struct{} { return c.done }

// Started reports whether Run was called.
func (c *Coordinator) Started() bool { return c.started.Load() }

// Run saves state and signals the host. Only the first call does anything;
// later calls return nil immediately. The host is always signalled, even
// when saving failed or the watchdog expired.
func (c *Coordinator) Run(ctx context.Context, mode Mode) error {
	if !c.started.CompareAndSwap(false, true) {
		c.log.Debug("Shutdown: Sequence already running; ignoring request")
		return nil
	}
	defer close(c.done)
	c.log.Infof("Shutdown: Initiating sequence (mode=%s)", mode)

	wctx, cancel := context.WithTimeout(ctx, c.opts.Watchdog)
	defer cancel()

	lag := time.AfterFunc(c.opts.LagNotice, func() { c.report(progressFor(StepLag, nil)) })

	result := make(chan error, 1)
	go func() { result <- c.sequence(wctx) }()

	var err error
	select {
	case err = <-result:
	case <-wctx.Done():
		err = fmt.Errorf("%w after %s", ErrWatchdog, c.opts.Watchdog)
		c.log.Warnf("Shutdown: Emergency timeout reached (%v); forcing %s", wctx.Err(), mode)
		c.report(progressFor(StepWatchdog, nil))
	}
	lag.Stop()

	if err != nil && !errors.Is(err, ErrWatchdog) {
		c.log.Errorf("Shutdown: Critical failure: %v", err)
		if mode == ModeTerminate && c.opts.ErrorGrace > 0 {
			grace := time.NewTimer(c.opts.ErrorGrace)
			select {
			case <-grace.C:
			case <-wctx.Done():
				grace.Stop()
			}
		}
	}

	c.report(progressFor(StepSignal, nil))
	if mode == ModeTerminate {
		c.deps.Host.Terminate()
	} else {
		c.deps.Host.Hide()
	}
	c.log.Infof("Shutdown: Host signalled (%s)", mode)
	return err
}

// sequence performs steps 1-5. Failures are reported and the sequence
// continues.
func (c *Coordinator) sequence(ctx context.Context) error {
	c.report(progressFor(StepAnnounce, nil))
	if c.deps.Controller != nil {
		c.deps.Controller.Suspend()
	}

	c.report(progressFor(StepTimestamps, nil))
	if c.deps.Media != nil {
		n := c.deps.Media.SnapshotTimestamps()
		c.log.Debugf("Shutdown: Sampled %d playing videos", n)
	}

	c.report(progressFor(StepCollect, nil))
	items := c.deps.Desktop.Items()

	var errs []error
	c.report(progressFor(StepCache, nil))
	if err := c.deps.Persist.SaveCache(items); err != nil {
		c.log.Warnf("Shutdown: Cache write failed: %v", err)
		c.report(progressFor(StepCache, err))
		errs = append(errs, err)
	}

	c.report(progressFor(StepDurable, nil))
	if err := c.deps.Persist.SaveDurable(ctx, items); err != nil {
		c.log.Errorf("Shutdown: Durable write failed: %v", err)
		c.report(progressFor(StepDurable, err))
		errs = append(errs, err)
	} else {
		c.report(Progress{Step: StepDurable, Text: "Step 5: Disk write complete!", Icon: "✅"})
		c.log.Infof("Shutdown: Saved %d items", len(items))
	}
	return errors.Join(errs...)
}

func (c *Coordinator) report(p Progress) {
	if c.opts.Reporter != nil {
		c.opts.Reporter.Report(p)
	}
	c.deps.Desktop.Emit(desk.Event{Type: desk.EventShutdownProgress, Payload: p})
}
