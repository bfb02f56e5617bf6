// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package persist

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

func TestMutationsCoalesceIntoOneDurableWrite(t *testing.T) {
	d := newTestDesktop()
	store := newFakeStore()
	p := newTestPipeline(t, d, store, nil, &memCache{})

	require.NoError(t, p.FlushNow(context.Background()))
	require.Equal(t, 1, store.count())

	_, err := d.Add(note("n1", 400, 400))
	require.NoError(t, err)
	require.NoError(t, d.SetText("n1", "draft"))
	require.NoError(t, d.SetText("n1", "final"))

	require.Eventually(t, func() bool { return store.count() == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, 2, store.count(), "debounce must not stack timers")

	snap := store.last(t)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "final", snap.Items[0].Text)
}

func TestStructuralEventWritesCacheImmediately(t *testing.T) {
	d := newTestDesktop()
	cache := &memCache{}
	store := newFakeStore()
	p := newTestPipeline(t, d, store, nil, cache)

	_, err := d.Add(note("n1", 400, 400))
	require.NoError(t, err)

	data, err := cache.Read()
	require.NoError(t, err)
	snap, err := DecodeSnapshot(data)
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "n1", snap.Items[0].ID)

	assert.True(t, p.Pending())
	assert.Equal(t, StatusSaving, p.Status().State)
	assert.Equal(t, 0, store.count())
}

func TestStatusTransitions(t *testing.T) {
	d := newTestDesktop()
	store := newFakeStore()
	p := New(d, store, nil, &memCache{}, Options{
		Debounce:    20 * time.Millisecond,
		StatusSaved: 30 * time.Millisecond,
	})
	t.Cleanup(p.Close)

	var mu sync.Mutex
	var seen []StatusState
	d.Subscribe(desk.ListenerFunc(func(ev desk.Event) {
		if ev.Type != desk.EventSaveStatus {
			return
		}
		mu.Lock()
		seen = append(seen, ev.Payload.(Status).State)
		mu.Unlock()
	}))

	_, err := d.Add(note("n1", 400, 400))
	require.NoError(t, err)

	require.Eventually(t, func() bool { return p.Status().State == StatusHidden && store.count() == 1 },
		time.Second, 5*time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []StatusState{StatusSaving, StatusSaved, StatusHidden}, seen)
}

func TestDurableFailureKeepsCache(t *testing.T) {
	d := newTestDesktop()
	store := newFakeStore()
	store.setErr(errors.New("disk unavailable"))
	cache := &memCache{}
	p := newTestPipeline(t, d, store, nil, cache)

	_, err := d.Add(note("n1", 400, 400))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return p.Status().State == StatusError }, time.Second, 2*time.Millisecond)
	assert.Equal(t, "disk unavailable", p.Status().Message)

	data, err := cache.Read()
	require.NoError(t, err)
	snap, err := DecodeSnapshot(data)
	require.NoError(t, err)
	assert.Len(t, snap.Items, 1)

	// The next mutation retries.
	store.setErr(nil)
	require.NoError(t, d.SetText("n1", "again"))
	require.Eventually(t, func() bool { return store.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "again", store.last(t).Items[0].Text)
}

func TestMoveUsesCoordinateFastPath(t *testing.T) {
	d := newTestDesktop()
	d.Load([]desk.Item{note("n1", 10, 10)})
	store := newFakeStore()
	coords := newFakeCoords()
	cache := &memCache{}
	p := newTestPipeline(t, d, store, coords, cache)

	d.Emit(desk.Event{Type: desk.EventItemMoved, ItemID: "n1", Payload: desk.MovePayload{X: 300, Y: 200}})

	got, err := coords.Coords(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 300.0, got["n1"].X)
	assert.Equal(t, 200.0, got["n1"].Y)
	assert.False(t, p.Pending())

	_, err = cache.Read()
	assert.NoError(t, err)
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 0, store.count())
}

func TestFlushNowCancelsPendingTimer(t *testing.T) {
	d := newTestDesktop()
	store := newFakeStore()
	p := newTestPipeline(t, d, store, nil, &memCache{})

	_, err := d.Add(note("n1", 400, 400))
	require.NoError(t, err)
	require.True(t, p.Pending())

	require.NoError(t, p.FlushNow(context.Background()))
	assert.False(t, p.Pending())
	assert.False(t, p.LastSaved().IsZero())

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 1, store.count())
}

func TestCloseDropsPendingFlush(t *testing.T) {
	d := newTestDesktop()
	store := newFakeStore()
	p := New(d, store, nil, &memCache{}, Options{Debounce: 30 * time.Millisecond})

	_, err := d.Add(note("n1", 400, 400))
	require.NoError(t, err)
	p.Close()

	_, err = d.Add(note("n2", 800, 400))
	require.NoError(t, err)
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 0, store.count())
	assert.False(t, p.Pending())
}

func TestMigrateAssets(t *testing.T) {
	d := newTestDesktop()
	d.Load([]desk.Item{
		{ID: "img", Type: desk.TypeImage, X: 10, Y: 10, Src: "data:image/png;base64,AAAA"},
		{ID: "gif", Type: desk.TypeGIF, X: 300, Y: 10, Src: "https://example.com/a.gif"},
		note("n1", 600, 10),
	})
	store := newFakeStore()
	p := newTestPipeline(t, d, store, nil, &memCache{})
	assets := &fakeAssets{}

	n, err := p.MigrateAssets(context.Background(), assets)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, assets.calls)

	it, ok := d.Get("img")
	require.True(t, ok)
	assert.Equal(t, "assets/img_x.png", it.Src)

	require.Equal(t, 1, store.count(), "migration flushes immediately")
	assert.False(t, p.Pending())
	assert.Equal(t, StatusSaved, p.Status().State)

	n, err = p.MigrateAssets(context.Background(), assets)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMigrateAssetsFailure(t *testing.T) {
	d := newTestDesktop()
	d.Load([]desk.Item{{ID: "img", Type: desk.TypeImage, Src: "data:image/png;base64,AAAA"}})
	store := newFakeStore()
	p := newTestPipeline(t, d, store, nil, &memCache{})

	n, err := p.MigrateAssets(context.Background(), &fakeAssets{fail: true})
	assert.Error(t, err)
	assert.Zero(t, n)
	assert.Equal(t, StatusError, p.Status().State)
	assert.Equal(t, 0, store.count())
}
