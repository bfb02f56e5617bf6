// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/paths.go
// Summary: Path helpers for texeldesk configuration and runtime files.

package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	appDirName       = "texeldesk"
	systemConfigName = "texeldesk.json"
)

// Paths holds the standard file locations.
type Paths struct {
	ConfigDir  string // ~/.config/texeldesk
	ConfigFile string // ~/.config/texeldesk/texeldesk.json
	DataDir    string // ~/.local/share/texeldesk
	CacheFile  string // ~/.cache/texeldesk/desktop.cache.json
	PIDPath    string // <data>/texeldesk.pid
	LogPath    string // <data>/texeldesk.log
}

func configRoot() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, appDirName), nil
}

func systemConfigPath() (string, error) {
	root, err := configRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, systemConfigName), nil
}

// defaultDataDir follows XDG_DATA_HOME, falling back to ~/.local/share.
func defaultDataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", appDirName), nil
}

func cacheRoot() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, appDirName), nil
}

// ResolvePaths computes every standard path. An empty dataDir selects the
// default data directory.
func ResolvePaths(dataDir string) (*Paths, error) {
	cfgDir, err := configRoot()
	if err != nil {
		return nil, fmt.Errorf("resolve config dir: %w", err)
	}
	if dataDir == "" {
		if dataDir, err = defaultDataDir(); err != nil {
			return nil, err
		}
	}
	cache, err := cacheRoot()
	if err != nil {
		return nil, fmt.Errorf("resolve cache dir: %w", err)
	}
	return &Paths{
		ConfigDir:  cfgDir,
		ConfigFile: filepath.Join(cfgDir, systemConfigName),
		DataDir:    dataDir,
		CacheFile:  filepath.Join(cache, "desktop.cache.json"),
		PIDPath:    filepath.Join(dataDir, "texeldesk.pid"),
		LogPath:    filepath.Join(dataDir, "texeldesk.log"),
	}, nil
}

// Ensure creates the directories the paths live in.
func (p *Paths) Ensure() error {
	for _, dir := range []string{p.ConfigDir, p.DataDir, filepath.Dir(p.CacheFile)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
