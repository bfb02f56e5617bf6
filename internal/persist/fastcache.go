// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/persist/fastcache.go
// Summary: Local fast cache holding the latest encoded snapshot.

package persist

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrNoCache is returned by Read when nothing was cached yet.
var ErrNoCache = errors.New("persist: no cached snapshot")

// Cache stores one encoded snapshot. Writes are synchronous.
type Cache interface {
	Write(data []byte) error
	Read() ([]byte, error)
}

// FileCache keeps the snapshot in a single file.
type FileCache struct {
	path string
	mu   sync.Mutex
}

// NewFileCache returns a cache stored at path.
func NewFileCache(path string) *FileCache {
	return &FileCache{path: path}
}

// Path returns the backing file.
func (c *FileCache) Path() string { return c.path }

func (c *FileCache) Write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return fmt.Errorf("persist: create cache dir: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("persist: write cache: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("persist: write cache: %w", err)
	}
	return nil
}

func (c *FileCache) Read() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		return nil, ErrNoCache
	}
	return data, err
}

// Clear removes the cache file.
func (c *FileCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
