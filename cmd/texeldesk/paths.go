// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/texeldesk/paths.go
// Summary: Prints resolved file locations and can write a default config.

package main

import (
	"fmt"
	"path/filepath"

	"github.com/framegrace/texeldesk/internal/bridge"
	"github.com/spf13/cobra"
)

func newPathsCmd(app *App) *cobra.Command {
	var writeConfig bool
	cmd := &cobra.Command{
		Use:   "paths",
		Short: "Show where texeldesk keeps its files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := app.setup(false)
			if err != nil {
				return err
			}
			if writeConfig {
				if err := e.cfg.WriteDefault(); err != nil {
					return fmt.Errorf("write config: %w", err)
				}
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "config:  %s\n", e.cfg.File())
			fmt.Fprintf(out, "data:    %s\n", e.paths.DataDir)
			fmt.Fprintf(out, "cache:   %s\n", e.paths.CacheFile)
			fmt.Fprintf(out, "coords:  %s\n", filepath.Join(e.paths.DataDir, bridge.CoordsFile))
			fmt.Fprintf(out, "assets:  %s\n", filepath.Join(e.paths.DataDir, bridge.AssetsDir))
			fmt.Fprintf(out, "pid:     %s\n", e.paths.PIDPath)
			fmt.Fprintf(out, "log:     %s\n", e.paths.LogPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&writeConfig, "write-config", false, "Write the current settings to the config file if it is missing")
	return cmd
}
