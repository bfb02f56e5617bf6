// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/texeldesk/main.go
// Summary: texeldesk command: the terminal desktop plus maintenance commands.
// Usage: Run `texeldesk` to open the desktop; see `texeldesk --help` for the
// rest.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/framegrace/texeldesk/config"
	"github.com/framegrace/texeldesk/desk"
	"github.com/framegrace/texeldesk/internal/logging"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// App carries the persistent flags shared by every command.
type App struct {
	DataDir     string
	ConfigPath  string
	VerboseLogs bool
}

func newRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:           "texeldesk",
		Short:         "Spatial desktop of notes, media and folders in the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Open the desktop
  texeldesk

  # List items from top to bottom
  texeldesk layers

  # Move inline images out of the saved state into asset files
  texeldesk migrate-assets
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDesktop(cmd, app)
		},
	}

	cmd.PersistentFlags().StringVar(&app.DataDir, "data-dir", "", "Directory holding the state database, coordinates and assets")
	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", "", "Path to texeldesk.json (default: user config dir)")
	cmd.PersistentFlags().BoolVar(&app.VerboseLogs, "verbose-logs", false, "Enable debug logging")

	cmd.AddCommand(newLayersCmd(app))
	cmd.AddCommand(newStatusCmd(app))
	cmd.AddCommand(newResetCmd(app))
	cmd.AddCommand(newMigrateCmd(app))
	cmd.AddCommand(newPathsCmd(app))

	return cmd
}

// env is everything a command resolves before touching state.
type env struct {
	cfg      *config.Config
	settings config.Settings
	paths    *config.Paths
}

// setup loads configuration and resolves paths. When logFile is set the
// process log goes to the data directory instead of stderr.
func (app *App) setup(logFile bool) (*env, error) {
	cfg, err := config.Load(app.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if app.DataDir != "" {
		cfg.Set("data_dir", app.DataDir)
	}
	settings := cfg.Settings()

	paths, err := config.ResolvePaths(settings.DataDir)
	if err != nil {
		return nil, fmt.Errorf("resolve paths: %w", err)
	}
	if err := paths.Ensure(); err != nil {
		return nil, fmt.Errorf("create directories: %w", err)
	}

	logOpts := logging.Options{Level: settings.LogLevel, Verbose: app.VerboseLogs}
	if logFile {
		logOpts.FilePath = paths.LogPath
	}
	if err := logging.Setup(logOpts); err != nil {
		return nil, err
	}
	return &env{cfg: cfg, settings: settings, paths: paths}, nil
}

func (e *env) desktopOptions() desk.Options {
	return desk.Options{
		Viewport: desk.Size{W: e.settings.ViewportWidth, H: e.settings.ViewportHeight},
		GridStep: e.settings.GridStep,
		Margin:   e.settings.Margin,
		Logger:   logging.For("desktop"),
	}
}

func (e *env) controllerOptions() desk.ControllerOptions {
	opts := desk.DefaultControllerOptions()
	if e.settings.SnapThreshold > 0 {
		opts.Snap.Threshold = e.settings.SnapThreshold
	}
	if e.settings.SnapToolbarBand >= 0 {
		opts.Snap.ToolbarBand = e.settings.SnapToolbarBand
	}
	return opts
}
