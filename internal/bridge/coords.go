// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/bridge/coords.go
// Summary: Coordinate fast path: a coords table plus the coords.txt dump.

package bridge

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// CoordsFile is the human-readable coordinate dump in the data directory.
const CoordsFile = "coords.txt"

// UpdateCoords records a position without a full state write. It returns as
// soon as the update is queued.
func (n *Native) UpdateCoords(id string, x, y float64) error {
	at := time.Now()
	return n.submit(false, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := n.upsertCoord(ctx, id, x, y, at); err != nil {
			n.log.Errorf("Bridge: Coord save error for %s: %v", id, err)
			return err
		}
		if err := n.rewriteCoordsFile(id, x, y); err != nil {
			n.log.Warnf("Bridge: coords.txt update failed: %v", err)
		}
		return nil
	})
}

// Coords returns every recorded position. Entries found only in a legacy
// coords.txt carry a zero UpdatedAt.
func (n *Native) Coords(ctx context.Context) (map[string]Coord, error) {
	out, err := n.loadCoords(ctx)
	if err != nil {
		return nil, fmt.Errorf("bridge: load coords: %w", err)
	}
	legacy, err := readCoordsFile(filepath.Join(n.dir, CoordsFile))
	if err != nil && !os.IsNotExist(err) {
		n.log.Warnf("Bridge: Ignoring unreadable %s: %v", CoordsFile, err)
	}
	for id, c := range legacy {
		if _, ok := out[id]; !ok {
			out[id] = c
		}
	}
	return out, nil
}

func (n *Native) rewriteCoordsFile(id string, x, y float64) error {
	path := filepath.Join(n.dir, CoordsFile)
	coords, err := readCoordsFile(path)
	if err != nil && !os.IsNotExist(err) {
		coords = nil
	}
	if coords == nil {
		coords = make(map[string]Coord)
	}
	coords[id] = Coord{X: x, Y: y}
	return writeAtomic(path, formatCoords(coords))
}

// readCoordsFile parses "id:x,y" lines; malformed lines are skipped.
func readCoordsFile(path string) (map[string]Coord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	out := make(map[string]Coord)
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		id, pos, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		xs, ys, ok := strings.Cut(pos, ",")
		if !ok {
			continue
		}
		x, errX := strconv.Atoi(strings.TrimSpace(xs))
		y, errY := strconv.Atoi(strings.TrimSpace(ys))
		if errX != nil || errY != nil {
			continue
		}
		out[id] = Coord{X: float64(x), Y: float64(y)}
	}
	return out, sc.Err()
}

func formatCoords(coords map[string]Coord) []byte {
	ids := make([]string, 0, len(coords))
	for id := range coords {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var buf bytes.Buffer
	for _, id := range ids {
		c := coords[id]
		fmt.Fprintf(&buf, "%s:%d,%d\n", id, int(math.Trunc(c.X)), int(math.Trunc(c.Y)))
	}
	return buf.Bytes()
}
