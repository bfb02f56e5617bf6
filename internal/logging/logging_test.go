// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(os.Stderr) })
	require.NoError(t, Setup(Options{Level: "info"}))

	For("persist").Info("Persist: Saved desktop")
	assert.Contains(t, buf.String(), "component=persist")
	assert.Contains(t, buf.String(), "Persist: Saved desktop")

	For("persist").Debug("hidden")
	assert.NotContains(t, buf.String(), "hidden")
}

func TestVerboseAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "texeldesk.log")
	require.NoError(t, Setup(Options{Verbose: true, FilePath: path}))
	t.Cleanup(func() {
		Close()
		Setup(Options{Level: "warn"})
	})
	assert.Equal(t, logrus.DebugLevel, Logger().GetLevel())

	For("shutdown").Debug("Shutdown: step 1")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Shutdown: step 1")
}

func TestBadLevel(t *testing.T) {
	assert.Error(t, Setup(Options{Level: "loud"}))
}
