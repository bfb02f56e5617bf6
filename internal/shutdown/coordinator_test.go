// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package shutdown

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/framegrace/texeldesk/desk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(s string) {
	l.mu.Lock()
	l.calls = append(l.calls, s)
	l.mu.Unlock()
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

type fakeHost struct {
	log        *callLog
	hidden     int
	terminated int
	mu         sync.Mutex
}

func (h *fakeHost) Hide() {
	h.mu.Lock()
	h.hidden++
	h.mu.Unlock()
	h.log.add("hide")
}

func (h *fakeHost) Terminate() {
	h.mu.Lock()
	h.terminated++
	h.mu.Unlock()
	h.log.add("terminate")
}

func (h *fakeHost) counts() (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hidden, h.terminated
}

type fakeFlusher struct {
	log      *callLog
	cacheErr error
	saveErr  error
	block    chan struct{}
	saved    []desk.Item
}

func (f *fakeFlusher) SaveCache(items []desk.Item) error {
	f.log.add("cache")
	return f.cacheErr
}

func (f *fakeFlusher) SaveDurable(ctx context.Context, items []desk.Item) error {
	f.log.add("durable")
	if f.block != nil {
		<-f.block
	}
	f.saved = items
	return f.saveErr
}

type fakeSuspender struct{ log *callLog }

func (s fakeSuspender) Suspend() { s.log.add("suspend") }

type fakeMedia struct{ log *callLog }

func (m fakeMedia) SnapshotTimestamps() int {
	m.log.add("timestamps")
	return 1
}

type progressLog struct {
	mu    sync.Mutex
	steps []Progress
}

func (p *progressLog) Report(pr Progress) {
	p.mu.Lock()
	p.steps = append(p.steps, pr)
	p.mu.Unlock()
}

func (p *progressLog) has(step Step) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range p.steps {
		if s.Step == step {
			return true
		}
	}
	return false
}

type fixture struct {
	log      *callLog
	host     *fakeHost
	flusher  *fakeFlusher
	progress *progressLog
	desktop  *desk.Desktop
}

func newFixture() *fixture {
	log := &callLog{}
	d := desk.NewDesktop(desk.DefaultOptions())
	d.Load([]desk.Item{{ID: "n1", Type: desk.TypeNote, X: 10, Y: 10, Z: 1}})
	return &fixture{
		log:      log,
		host:     &fakeHost{log: log},
		flusher:  &fakeFlusher{log: log},
		progress: &progressLog{},
		desktop:  d,
	}
}

func (f *fixture) coordinator(t *testing.T, opts Options) *Coordinator {
	t.Helper()
	opts.Reporter = f.progress
	c, err := NewCoordinator(Deps{
		Desktop:    f.desktop,
		Controller: fakeSuspender{f.log},
		Media:      fakeMedia{f.log},
		Persist:    f.flusher,
		Host:       f.host,
	}, opts)
	require.NoError(t, err)
	return c
}

func TestSequenceOrder(t *testing.T) {
	f := newFixture()
	var events []desk.Event
	f.desktop.Subscribe(desk.ListenerFunc(func(ev desk.Event) {
		if ev.Type == desk.EventShutdownProgress {
			events = append(events, ev)
		}
	}))
	c := f.coordinator(t, DefaultOptions())

	require.NoError(t, c.Run(context.Background(), ModeTerminate))
	assert.Equal(t, []string{"suspend", "timestamps", "cache", "durable", "terminate"}, f.log.list())
	require.Len(t, f.flusher.saved, 1)
	assert.Equal(t, "n1", f.flusher.saved[0].ID)

	for _, s := range []Step{StepAnnounce, StepTimestamps, StepCollect, StepCache, StepDurable, StepSignal} {
		assert.True(t, f.progress.has(s), "missing step %d", s)
	}
	assert.False(t, f.progress.has(StepWatchdog))
	assert.NotEmpty(t, events)

	select {
	case <-c.Done():
	default:
		t.Fatal("Done not closed")
	}
}

func TestSecondRunIsNoop(t *testing.T) {
	f := newFixture()
	c := f.coordinator(t, DefaultOptions())

	require.NoError(t, c.Run(context.Background(), ModeHide))
	require.NoError(t, c.Run(context.Background(), ModeTerminate))

	hidden, terminated := f.host.counts()
	assert.Equal(t, 1, hidden)
	assert.Equal(t, 0, terminated)
	assert.True(t, c.Started())
}

func TestBlockedStoreStillTerminates(t *testing.T) {
	f := newFixture()
	f.flusher.block = make(chan struct{})
	t.Cleanup(func() { close(f.flusher.block) })
	c := f.coordinator(t, Options{Watchdog: 50 * time.Millisecond, LagNotice: time.Hour, ErrorGrace: time.Second})

	start := time.Now()
	err := c.Run(context.Background(), ModeTerminate)
	assert.ErrorIs(t, err, ErrWatchdog)
	assert.Less(t, time.Since(start), time.Second)

	_, terminated := f.host.counts()
	assert.Equal(t, 1, terminated)
	assert.True(t, f.progress.has(StepWatchdog))
}

func TestLagNotice(t *testing.T) {
	f := newFixture()
	f.flusher.block = make(chan struct{})
	go func() {
		time.Sleep(80 * time.Millisecond)
		close(f.flusher.block)
	}()
	c := f.coordinator(t, Options{Watchdog: time.Second, LagNotice: 10 * time.Millisecond})

	require.NoError(t, c.Run(context.Background(), ModeHide))
	assert.True(t, f.progress.has(StepLag))
	hidden, _ := f.host.counts()
	assert.Equal(t, 1, hidden)
}

func TestFailuresContinueAndShowGrace(t *testing.T) {
	f := newFixture()
	f.flusher.cacheErr = errors.New("cache broken")
	f.flusher.saveErr = errors.New("disk full")
	c := f.coordinator(t, Options{Watchdog: time.Second, ErrorGrace: 60 * time.Millisecond})

	start := time.Now()
	err := c.Run(context.Background(), ModeTerminate)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
	assert.Equal(t, []string{"suspend", "timestamps", "cache", "durable", "terminate"}, f.log.list())
}

func TestGraceIsCappedByWatchdog(t *testing.T) {
	f := newFixture()
	f.flusher.saveErr = errors.New("disk full")
	c := f.coordinator(t, Options{Watchdog: 80 * time.Millisecond, ErrorGrace: 10 * time.Second})

	start := time.Now()
	err := c.Run(context.Background(), ModeTerminate)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	_, terminated := f.host.counts()
	assert.Equal(t, 1, terminated)
}

func TestHideSkipsGrace(t *testing.T) {
	f := newFixture()
	f.flusher.saveErr = errors.New("disk full")
	c := f.coordinator(t, Options{Watchdog: time.Second, ErrorGrace: 10 * time.Second})

	start := time.Now()
	require.Error(t, c.Run(context.Background(), ModeHide))
	assert.Less(t, time.Since(start), time.Second)
}

func TestNewCoordinatorRequiresDeps(t *testing.T) {
	_, err := NewCoordinator(Deps{}, DefaultOptions())
	assert.Error(t, err)
}
