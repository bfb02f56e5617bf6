// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/bridge/files.go
// Summary: Atomic file writes inside the data directory.

package bridge

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WriteFile stores content under name. A synced write returns once the file
// is on disk; otherwise it is queued behind earlier writes.
func (n *Native) WriteFile(name string, content []byte, sync bool) error {
	path, err := n.resolve(name)
	if err != nil {
		return err
	}
	data := append([]byte(nil), content...)
	return n.submit(sync, func() error {
		if err := writeAtomic(path, data); err != nil {
			n.log.Errorf("Bridge: Error saving file %s: %v", name, err)
			return err
		}
		n.log.Debugf("Bridge: File saved: %s", name)
		return nil
	})
}

// ReadFile returns the named file's content.
func (n *Native) ReadFile(name string) ([]byte, error) {
	path, err := n.resolve(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotExist, name)
	}
	return data, err
}

// resolve keeps names inside the data directory.
func (n *Native) resolve(name string) (string, error) {
	clean := filepath.Clean(name)
	if clean == "." || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("bridge: invalid file name %q", name)
	}
	return filepath.Join(n.dir, clean), nil
}

// writeAtomic writes to a sibling temp file and renames it over path.
func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
