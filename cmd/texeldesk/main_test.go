// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/framegrace/texeldesk/desk"
	"github.com/framegrace/texeldesk/internal/bridge"
	"github.com/framegrace/texeldesk/internal/logging"
	"github.com/framegrace/texeldesk/internal/persist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/term"
)

type cliEnv struct {
	dataDir string
	config  string
}

func newCLIEnv(t *testing.T) cliEnv {
	t.Helper()
	root := t.TempDir()
	t.Setenv("HOME", root)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(root, "cache"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(root, "share"))
	logging.SetOutput(&bytes.Buffer{})
	t.Cleanup(func() { logging.SetOutput(os.Stderr) })
	return cliEnv{
		dataDir: filepath.Join(root, "data"),
		config:  filepath.Join(root, "texeldesk.json"),
	}
}

func (c cliEnv) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--data-dir", c.dataDir, "--config", c.config}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// seedState writes a durable snapshot directly through the bridge.
func (c cliEnv) seedState(t *testing.T, items ...desk.Item) {
	t.Helper()
	ctx := context.Background()
	native, err := bridge.Open(ctx, c.dataDir, nil)
	require.NoError(t, err)
	defer native.Close()
	snap, err := persist.NewSnapshot(items, time.Now())
	require.NoError(t, err)
	data, err := snap.Encode()
	require.NoError(t, err)
	require.NoError(t, native.WriteState(ctx, persist.StateKey, data))
}

func TestPathsCommand(t *testing.T) {
	c := newCLIEnv(t)
	out, err := c.run(t, "", "paths")
	require.NoError(t, err)
	assert.Contains(t, out, "data:    "+c.dataDir)
	assert.Contains(t, out, "config:  "+c.config)
	assert.Contains(t, out, filepath.Join(c.dataDir, "texeldesk.pid"))

	_, err = os.Stat(c.config)
	assert.True(t, os.IsNotExist(err))
	_, err = c.run(t, "", "paths", "--write-config")
	require.NoError(t, err)
	_, err = os.Stat(c.config)
	assert.NoError(t, err)
}

func TestLayersFallsBackToSeed(t *testing.T) {
	c := newCLIEnv(t)
	out, err := c.run(t, "", "layers")
	require.NoError(t, err)
	assert.Contains(t, out, "source: seed")
	assert.Contains(t, out, "Z")
}

func TestLayersListsTopFirst(t *testing.T) {
	c := newCLIEnv(t)
	c.seedState(t,
		desk.Item{ID: "low", Type: desk.TypeNote, X: 10, Y: 10, Z: 1, Text: "bottom note\nsecond line"},
		desk.Item{ID: "high", Type: desk.TypeFolder, X: 400, Y: 10, Z: 7, Name: "Links"},
	)
	out, err := c.run(t, "", "layers")
	require.NoError(t, err)
	assert.Contains(t, out, "# 2 items (source: durable)")
	high := strings.Index(out, "high")
	low := strings.Index(out, "low")
	require.True(t, high > 0 && low > 0)
	assert.Less(t, high, low)
	assert.Contains(t, out, "bottom note")
	assert.NotContains(t, out, "second line")
}

func TestStatusAndReset(t *testing.T) {
	c := newCLIEnv(t)
	c.seedState(t, desk.Item{ID: "n", Type: desk.TypeNote, X: 10, Y: 10, Z: 1})

	out, err := c.run(t, "", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Desktop: stopped")
	assert.Contains(t, out, "Saved state: 1 items")

	out, err = c.run(t, "no\n", "reset-state")
	require.NoError(t, err)
	assert.Contains(t, out, "Aborted")

	out, err = c.run(t, "yes\n", "reset-state")
	require.NoError(t, err)
	assert.Contains(t, out, "State reset complete")

	out, err = c.run(t, "", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Saved state: none")
}

func TestResetRefusesWhileRunning(t *testing.T) {
	c := newCLIEnv(t)
	require.NoError(t, os.MkdirAll(c.dataDir, 0755))
	pidPath := filepath.Join(c.dataDir, "texeldesk.pid")
	require.NoError(t, os.WriteFile(pidPath, []byte("1\n"), 0600))

	out, err := c.run(t, "", "status")
	require.NoError(t, err)
	if !strings.Contains(out, "running") {
		t.Skip("PID 1 is not signalable here")
	}
	_, err = c.run(t, "", "reset-state", "--yes")
	assert.ErrorContains(t, err, "desktop is running")
}

func TestMigrateAssetsCommand(t *testing.T) {
	c := newCLIEnv(t)
	c.seedState(t, desk.Item{
		ID: "img", Type: desk.TypeImage, X: 10, Y: 10, Z: 1,
		Src: "data:image/png;base64,iVBORw0KGgo=",
	})

	out, err := c.run(t, "", "migrate-assets")
	require.NoError(t, err)
	assert.Contains(t, out, "Migrated 1 inline assets")

	entries, err := os.ReadDir(filepath.Join(c.dataDir, bridge.AssetsDir))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "img_"))
	assert.True(t, strings.HasSuffix(entries[0].Name(), ".png"))

	out, err = c.run(t, "", "migrate-assets")
	require.NoError(t, err)
	assert.Contains(t, out, "Migrated 0 inline assets")
}

func TestRootRejectsNonTerminal(t *testing.T) {
	if term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd())) {
		t.Skip("test is attached to a terminal")
	}
	c := newCLIEnv(t)
	_, err := c.run(t, "")
	assert.ErrorContains(t, err, "interactive terminal")
}
