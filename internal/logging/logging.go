// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/logging/logging.go
// Summary: Process-wide logrus logger with per-component entries.
// Usage: logging.Setup once from main, then logging.For("persist") in each
// component.

package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	mu   sync.Mutex
	base = newDefault()
	file *os.File
)

func newDefault() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.WarnLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}

// Options configures Setup.
type Options struct {
	// Level is a logrus level name; empty keeps the current level.
	Level string
	// Verbose forces debug level.
	Verbose bool
	// FilePath, when set, sends output to this file instead of stderr.
	FilePath string
}

// Setup configures the process logger. It may be called again to reconfigure.
func Setup(opts Options) error {
	mu.Lock()
	defer mu.Unlock()

	if opts.Level != "" {
		lvl, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return fmt.Errorf("logging: %w", err)
		}
		base.SetLevel(lvl)
	}
	if opts.Verbose {
		base.SetLevel(logrus.DebugLevel)
	}

	if opts.FilePath == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(opts.FilePath), 0755); err != nil {
		return fmt.Errorf("logging: create log dir: %w", err)
	}
	f, err := os.OpenFile(opts.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return fmt.Errorf("logging: open %s: %w", opts.FilePath, err)
	}
	if file != nil {
		file.Close()
	}
	file = f
	base.SetOutput(f)
	return nil
}

// SetOutput redirects the logger, mainly for tests and for hosts that own
// the terminal.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	base.SetOutput(w)
}

// Close releases the log file, if any, and returns output to stderr.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	base.SetOutput(os.Stderr)
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	return err
}

// Logger returns the process logger.
func Logger() *logrus.Logger {
	return base
}

// For returns an entry tagged with the component name.
func For(component string) *logrus.Entry {
	return base.WithField("component", component)
}
