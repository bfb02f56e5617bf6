// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package persist

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/framegrace/texeldesk/desk"
	"github.com/framegrace/texeldesk/internal/bridge"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu     sync.Mutex
	writes [][]byte
	data   map[string][]byte
	err    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string][]byte)}
}

func (s *fakeStore) ReadState(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", bridge.ErrNotExist, key)
	}
	return v, nil
}

func (s *fakeStore) WriteState(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.writes = append(s.writes, data)
	s.data[key] = data
	return nil
}

func (s *fakeStore) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.writes)
}

func (s *fakeStore) last(t *testing.T) Snapshot {
	t.Helper()
	s.mu.Lock()
	data := s.writes[len(s.writes)-1]
	s.mu.Unlock()
	snap, err := DecodeSnapshot(data)
	require.NoError(t, err)
	return snap
}

type memCache struct {
	mu   sync.Mutex
	data []byte
}

func (c *memCache) Write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = append([]byte(nil), data...)
	return nil
}

func (c *memCache) Read() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data == nil {
		return nil, ErrNoCache
	}
	return c.data, nil
}

type fakeFiles map[string][]byte

func (f fakeFiles) WriteFile(name string, content []byte, _ bool) error {
	f[name] = content
	return nil
}

func (f fakeFiles) ReadFile(name string) ([]byte, error) {
	v, ok := f[name]
	if !ok {
		return nil, bridge.ErrNotExist
	}
	return v, nil
}

type fakeCoords struct {
	mu     sync.Mutex
	coords map[string]bridge.Coord
}

func newFakeCoords() *fakeCoords {
	return &fakeCoords{coords: make(map[string]bridge.Coord)}
}

func (c *fakeCoords) UpdateCoords(id string, x, y float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.coords[id] = bridge.Coord{X: x, Y: y, UpdatedAt: time.Now()}
	return nil
}

func (c *fakeCoords) Coords(context.Context) (map[string]bridge.Coord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]bridge.Coord, len(c.coords))
	for k, v := range c.coords {
		out[k] = v
	}
	return out, nil
}

type fakeAssets struct {
	calls int
	fail  bool
}

func (a *fakeAssets) SaveAsset(_, name string) (bridge.AssetResult, error) {
	a.calls++
	if a.fail {
		return bridge.AssetResult{}, errors.New("disk full")
	}
	return bridge.AssetResult{Success: true, Path: "assets/" + name + "_x.png"}, nil
}

func newTestDesktop() *desk.Desktop {
	return desk.NewDesktop(desk.Options{
		Viewport: desk.Size{W: 1920, H: 1080},
		Rand:     rand.New(rand.NewSource(1)),
	})
}

func note(id string, x, y float64) desk.Item {
	return desk.Item{ID: id, Type: desk.TypeNote, X: x, Y: y, Z: 1, Text: id, Placed: true}
}

func newTestPipeline(t *testing.T, d *desk.Desktop, store bridge.StateStore, coords bridge.CoordSink, cache Cache) *Pipeline {
	t.Helper()
	p := New(d, store, coords, cache, Options{
		Debounce:    40 * time.Millisecond,
		StatusSaved: time.Second,
		StatusError: time.Second,
	})
	t.Cleanup(p.Close)
	return p
}
