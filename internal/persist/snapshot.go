// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/persist/snapshot.go
// Summary: Snapshot envelope encoding and integrity checks.
// Usage: Written to the fast cache and the durable store by the pipeline.

package persist

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/framegrace/texeldesk/desk"
)

// SnapshotVersion is the current envelope version.
const SnapshotVersion = 1

// StateKey is the durable store key holding the desktop snapshot.
const StateKey = "desktop"

// LegacyFile is the pre-envelope document: a plain JSON array of items.
const LegacyFile = "desktop.json"

// ErrCorruptSnapshot is returned when a snapshot cannot be parsed or fails
// its hash check.
var ErrCorruptSnapshot = errors.New("persist: corrupt snapshot")

// Snapshot is the persisted form of the item collection.
type Snapshot struct {
	Version int         `json:"version"`
	SavedAt time.Time   `json:"savedAt"`
	Hash    string      `json:"hash"`
	Items   []desk.Item `json:"items"`
}

// NewSnapshot wraps items, computing their hash.
func NewSnapshot(items []desk.Item, savedAt time.Time) (Snapshot, error) {
	if items == nil {
		items = []desk.Item{}
	}
	hash, err := hashItems(items)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Version: SnapshotVersion,
		SavedAt: savedAt.UTC(),
		Hash:    hash,
		Items:   items,
	}, nil
}

// Encode returns the snapshot's JSON form.
func (s Snapshot) Encode() ([]byte, error) {
	return json.Marshal(s)
}

// DecodeSnapshot parses an envelope and verifies its hash.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if s.Version < 1 || s.Version > SnapshotVersion {
		return Snapshot{}, fmt.Errorf("%w: unsupported version %d", ErrCorruptSnapshot, s.Version)
	}
	if s.Items == nil {
		s.Items = []desk.Item{}
	}
	hash, err := hashItems(s.Items)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if hash != s.Hash {
		return Snapshot{}, fmt.Errorf("%w: hash mismatch", ErrCorruptSnapshot)
	}
	return s, nil
}

// decodeLegacy parses a plain item array.
func decodeLegacy(data []byte) ([]desk.Item, error) {
	var items []desk.Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	return items, nil
}

func hashItems(items []desk.Item) (string, error) {
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("persist: encode items: %w", err)
	}
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:]), nil
}
