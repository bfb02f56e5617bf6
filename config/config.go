// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/config.go
// Summary: Layered configuration (embedded defaults, texeldesk.json, env).
// Usage: cmd/texeldesk loads a Config once and hands typed Settings to
// each component.

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. TEXELDESK_PERSIST_DEBOUNCE_MS.
const EnvPrefix = "TEXELDESK"

// Config wraps a viper instance holding every layer.
type Config struct {
	v    *viper.Viper
	file string
}

// New returns a config with only the embedded defaults and environment.
func New() (*Config, error) {
	v := viper.New()
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := RegisterDefaults(v); err != nil {
		return nil, err
	}
	return &Config{v: v}, nil
}

// Load reads path on top of the defaults. An empty path selects the standard
// location; a missing file is not an error.
func Load(path string) (*Config, error) {
	c, err := New()
	if err != nil {
		return nil, err
	}
	if path == "" {
		if path, err = systemConfigPath(); err != nil {
			return nil, fmt.Errorf("resolve config path: %w", err)
		}
	}
	c.file = path
	c.v.SetConfigFile(path)
	if err := c.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return c, nil
}

// File returns the config file path, which may not exist yet.
func (c *Config) File() string { return c.file }

// Set overrides a key for this process, e.g. from a command-line flag.
func (c *Config) Set(key string, value interface{}) { c.v.Set(key, value) }

// GetString retrieves a string value.
func (c *Config) GetString(key string) string { return c.v.GetString(key) }

// GetInt retrieves an integer value.
func (c *Config) GetInt(key string) int { return c.v.GetInt(key) }

// GetFloat retrieves a float value.
func (c *Config) GetFloat(key string) float64 { return c.v.GetFloat64(key) }

// GetMillis reads an integer millisecond key as a duration.
func (c *Config) GetMillis(key string) time.Duration {
	return time.Duration(c.v.GetInt64(key)) * time.Millisecond
}

// WriteDefault writes the current settings to the config file if it does
// not exist yet.
func (c *Config) WriteDefault() error {
	if c.file == "" {
		return fmt.Errorf("config: no file path")
	}
	if _, err := os.Stat(c.file); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.file), 0755); err != nil {
		return err
	}
	return c.v.SafeWriteConfigAs(c.file)
}

// Settings is the typed view of the configuration.
type Settings struct {
	ViewportWidth  float64
	ViewportHeight float64

	SnapThreshold   float64
	SnapToolbarBand float64

	GridStep float64
	Margin   float64

	Debounce      time.Duration
	StatusSaved   time.Duration
	StatusError   time.Duration
	TrackInterval time.Duration

	Watchdog   time.Duration
	LagNotice  time.Duration
	ErrorGrace time.Duration

	DataDir  string
	LogLevel string
}

// Settings resolves every key into a Settings value.
func (c *Config) Settings() Settings {
	return Settings{
		ViewportWidth:   c.GetFloat("viewport.width"),
		ViewportHeight:  c.GetFloat("viewport.height"),
		SnapThreshold:   c.GetFloat("snap.threshold"),
		SnapToolbarBand: c.GetFloat("snap.toolbar_band"),
		GridStep:        c.GetFloat("placement.grid_step"),
		Margin:          c.GetFloat("placement.margin"),
		Debounce:        c.GetMillis("persist.debounce_ms"),
		StatusSaved:     c.GetMillis("persist.status_saved_ms"),
		StatusError:     c.GetMillis("persist.status_error_ms"),
		TrackInterval:   c.GetMillis("media.track_interval_ms"),
		Watchdog:        c.GetMillis("shutdown.watchdog_ms"),
		LagNotice:       c.GetMillis("shutdown.lag_notice_ms"),
		ErrorGrace:      c.GetMillis("shutdown.error_grace_ms"),
		DataDir:         c.GetString("data_dir"),
		LogLevel:        c.GetString("log.level"),
	}
}
