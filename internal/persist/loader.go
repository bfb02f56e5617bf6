// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/persist/loader.go
// Summary: Startup load chain: durable, legacy file, fast cache, seed set.

package persist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/framegrace/texeldesk/desk"
	"github.com/framegrace/texeldesk/internal/bridge"
	"github.com/sirupsen/logrus"
)

// Source names where a loaded collection came from.
type Source string

const (
	SourceDurable Source = "durable"
	SourceLegacy  Source = "legacy"
	SourceCache   Source = "cache"
	SourceSeed    Source = "seed"
)

// LoadResult is the outcome of Loader.Load.
type LoadResult struct {
	Items   []desk.Item
	Source  Source
	SavedAt time.Time
	// Overlaid counts items whose position came from the coordinate fast path.
	Overlaid int
}

// Loader tries each configured source in order. Nil sources are skipped.
type Loader struct {
	Store  bridge.StateStore
	Files  bridge.FileStore
	Coords bridge.CoordSink
	Cache  Cache
	Seed   func() ([]desk.Item, error)
	Logger *logrus.Entry
}

func (l *Loader) logger() *logrus.Entry {
	if l.Logger != nil {
		return l.Logger
	}
	lg := logrus.New()
	lg.SetOutput(io.Discard)
	return logrus.NewEntry(lg)
}

// Load returns the first readable collection. Corrupt sources are logged and
// skipped.
func (l *Loader) Load(ctx context.Context) (LoadResult, error) {
	log := l.logger()

	res, ok := l.loadDurable(ctx, log)
	if !ok {
		res, ok = l.loadLegacy(log)
	}
	if !ok {
		res, ok = l.loadCache(log)
	}
	if !ok {
		if l.Seed == nil {
			return LoadResult{Source: SourceSeed}, nil
		}
		items, err := l.Seed()
		if err != nil {
			return LoadResult{}, fmt.Errorf("persist: load seed items: %w", err)
		}
		res = LoadResult{Items: items, Source: SourceSeed}
	}

	res.Overlaid = l.overlayCoords(ctx, log, &res)
	log.Infof("Persist: Loaded %d items from %s (%d positions overlaid)", len(res.Items), res.Source, res.Overlaid)
	return res, nil
}

func (l *Loader) loadDurable(ctx context.Context, log *logrus.Entry) (LoadResult, bool) {
	if l.Store == nil {
		return LoadResult{}, false
	}
	data, err := l.Store.ReadState(ctx, StateKey)
	if err != nil {
		if !errors.Is(err, bridge.ErrNotExist) {
			log.Warnf("Persist: Durable read failed: %v", err)
		}
		return LoadResult{}, false
	}
	snap, err := DecodeSnapshot(data)
	if err != nil {
		log.Warnf("Persist: Ignoring durable snapshot: %v", err)
		return LoadResult{}, false
	}
	return LoadResult{Items: snap.Items, Source: SourceDurable, SavedAt: snap.SavedAt}, true
}

func (l *Loader) loadLegacy(log *logrus.Entry) (LoadResult, bool) {
	if l.Files == nil {
		return LoadResult{}, false
	}
	data, err := l.Files.ReadFile(LegacyFile)
	if err != nil {
		if !errors.Is(err, bridge.ErrNotExist) {
			log.Warnf("Persist: Legacy read failed: %v", err)
		}
		return LoadResult{}, false
	}
	items, err := decodeLegacy(data)
	if err != nil {
		log.Warnf("Persist: Ignoring %s: %v", LegacyFile, err)
		return LoadResult{}, false
	}
	return LoadResult{Items: items, Source: SourceLegacy}, true
}

func (l *Loader) loadCache(log *logrus.Entry) (LoadResult, bool) {
	if l.Cache == nil {
		return LoadResult{}, false
	}
	data, err := l.Cache.Read()
	if err != nil {
		if !errors.Is(err, ErrNoCache) {
			log.Warnf("Persist: Cache read failed: %v", err)
		}
		return LoadResult{}, false
	}
	snap, err := DecodeSnapshot(data)
	if err != nil {
		log.Warnf("Persist: Ignoring fast cache: %v", err)
		return LoadResult{}, false
	}
	return LoadResult{Items: snap.Items, Source: SourceCache, SavedAt: snap.SavedAt}, true
}

// overlayCoords applies recorded positions newer than the snapshot. A source
// without a timestamp takes every recorded position.
func (l *Loader) overlayCoords(ctx context.Context, log *logrus.Entry, res *LoadResult) int {
	if l.Coords == nil || len(res.Items) == 0 {
		return 0
	}
	coords, err := l.Coords.Coords(ctx)
	if err != nil {
		log.Warnf("Persist: Skipping coordinate overlay: %v", err)
		return 0
	}
	n := 0
	for i := range res.Items {
		c, ok := coords[res.Items[i].ID]
		if !ok {
			continue
		}
		if !res.SavedAt.IsZero() && !c.UpdatedAt.After(res.SavedAt) {
			continue
		}
		res.Items[i].X, res.Items[i].Y = c.X, c.Y
		res.Items[i].Placed = true
		n++
	}
	return n
}

// Apply installs a load result on d. Seed items go through Add so they are
// placed and persisted; other sources replace the collection silently, with
// items that were saved without coordinates placed on the way in.
func Apply(d *desk.Desktop, res LoadResult) error {
	if res.Source != SourceSeed {
		d.Restore(res.Items)
		return nil
	}
	var errs []error
	for _, it := range res.Items {
		if _, err := d.Add(it); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
