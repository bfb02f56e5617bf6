// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/texeldesk/lifecycle/pidfile.go
// Summary: Single-instance guard for the desktop process.

package lifecycle

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// ErrAlreadyRunning is returned by Acquire when a live process owns the file.
var ErrAlreadyRunning = errors.New("lifecycle: another instance is running")

// PIDFile guards a data directory against concurrent desktops.
type PIDFile interface {
	// Acquire records pid, replacing a stale file. It fails with
	// ErrAlreadyRunning when the recorded process is alive.
	Acquire(pid int) error

	// Release removes the file if it still names pid.
	Release(pid int) error

	// Read returns the recorded PID.
	Read() (int, error)

	// Running reports whether the recorded process is alive.
	Running() bool

	Path() string
}

type pidFile struct {
	path string
}

// NewPIDFile returns a guard backed by path.
func NewPIDFile(path string) PIDFile {
	return &pidFile{path: path}
}

func (p *pidFile) Path() string {
	return p.path
}

func (p *pidFile) Acquire(pid int) error {
	if owner, err := p.Read(); err == nil && owner != pid && processAlive(owner) {
		return fmt.Errorf("%w (PID %d, %s)", ErrAlreadyRunning, owner, p.path)
	}

	if err := os.MkdirAll(filepath.Dir(p.path), 0755); err != nil {
		return fmt.Errorf("create PID directory: %w", err)
	}
	content := fmt.Sprintf("%d\n", pid)
	if err := os.WriteFile(p.path, []byte(content), 0600); err != nil {
		return fmt.Errorf("write PID file: %w", err)
	}
	return nil
}

func (p *pidFile) Release(pid int) error {
	owner, err := p.Read()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		// Unreadable contents are ours to clean up.
		return p.remove()
	}
	if owner != pid {
		return nil
	}
	return p.remove()
}

func (p *pidFile) remove() error {
	err := os.Remove(p.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (p *pidFile) Read() (int, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return 0, err
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID format: %w", err)
	}
	if pid <= 0 {
		return 0, fmt.Errorf("invalid PID value: %d", pid)
	}
	return pid, nil
}

func (p *pidFile) Running() bool {
	pid, err := p.Read()
	if err != nil {
		return false
	}
	return processAlive(pid)
}

// processAlive sends signal 0, which checks existence without delivering
// anything.
func processAlive(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}
