// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/bridge/bridge.go
// Summary: Host bridge contracts and the native implementation.
// Usage: The persistence pipeline talks to these interfaces; cmd/texeldesk
// opens a Native bridge rooted in the data directory.

package bridge

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrNotExist is returned by reads of keys or files that were never written.
var ErrNotExist = errors.New("bridge: not found")

// ErrClosed is returned after Close.
var ErrClosed = errors.New("bridge: closed")

// StateStore is the authoritative key/value store.
type StateStore interface {
	ReadState(ctx context.Context, key string) ([]byte, error)
	WriteState(ctx context.Context, key string, data []byte) error
}

// FileStore reads and writes named files in the data directory. Unsynced
// writes are queued and WriteFile returns before they land.
type FileStore interface {
	WriteFile(name string, content []byte, sync bool) error
	ReadFile(name string) ([]byte, error)
}

// AssetResult reports where SaveAsset stored the payload.
type AssetResult struct {
	Success bool
	// Path is relative to the data directory, e.g. "assets/<file>".
	Path string
}

// AssetStore persists inline media payloads as files.
type AssetStore interface {
	SaveAsset(encoded, suggestedName string) (AssetResult, error)
}

// Coord is a position recorded by the coordinate fast path.
type Coord struct {
	X, Y      float64
	UpdatedAt time.Time
}

// CoordSink receives coordinate-only updates after drags.
type CoordSink interface {
	UpdateCoords(id string, x, y float64) error
	Coords(ctx context.Context) (map[string]Coord, error)
}

// Native implements every bridge interface on top of a data directory: a
// SQLite database for state and coordinates, plain files, and an assets
// folder. File and coordinate writes run on one worker so they land in
// order.
type Native struct {
	dir  string
	db   *sql.DB
	log  *logrus.Entry
	jobs chan func()
	wg   sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

const jobQueueSize = 64

// Open prepares dir and its database.
func Open(ctx context.Context, dir string, log *logrus.Entry) (*Native, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("bridge: create data dir: %w", err)
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	db, err := openSQLite(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("bridge: open database: %w", err)
	}
	n := &Native{
		dir:  dir,
		db:   db,
		log:  log,
		jobs: make(chan func(), jobQueueSize),
	}
	n.wg.Add(1)
	go n.worker()
	return n, nil
}

// Dir returns the data directory.
func (n *Native) Dir() string { return n.dir }

func (n *Native) worker() {
	defer n.wg.Done()
	for job := range n.jobs {
		job()
	}
}

// submit queues fn on the worker. When wait is set it blocks until fn ran.
func (n *Native) submit(wait bool, fn func() error) error {
	n.mu.RLock()
	if n.closed {
		n.mu.RUnlock()
		return ErrClosed
	}
	var done chan error
	if wait {
		done = make(chan error, 1)
	}
	n.jobs <- func() {
		err := fn()
		if done != nil {
			done <- err
		}
	}
	n.mu.RUnlock()
	if done == nil {
		return nil
	}
	return <-done
}

// Close drains queued writes and closes the database.
func (n *Native) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	close(n.jobs)
	n.mu.Unlock()
	n.wg.Wait()
	return n.db.Close()
}

var (
	_ StateStore = (*Native)(nil)
	_ FileStore  = (*Native)(nil)
	_ AssetStore = (*Native)(nil)
	_ CoordSink  = (*Native)(nil)
)
