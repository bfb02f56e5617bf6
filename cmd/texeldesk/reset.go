// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/texeldesk/reset.go
// Summary: Deletes all saved state after confirmation.

package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/framegrace/texeldesk/cmd/texeldesk/lifecycle"
	"github.com/framegrace/texeldesk/internal/bridge"
	"github.com/framegrace/texeldesk/internal/persist"
	"github.com/spf13/cobra"
)

func newResetCmd(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset-state",
		Short: "Delete all saved state and start fresh on next launch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := app.setup(false)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			pidFile := lifecycle.NewPIDFile(e.paths.PIDPath)
			if pidFile.Running() {
				pid, _ := pidFile.Read()
				return fmt.Errorf("desktop is running (PID %d); quit it first", pid)
			}

			coordsPath := filepath.Join(e.paths.DataDir, bridge.CoordsFile)
			legacyPath := filepath.Join(e.paths.DataDir, persist.LegacyFile)
			if !yes {
				fmt.Fprintln(out, "WARNING: This will delete all saved state:")
				fmt.Fprintf(out, "  - saved desktop and positions in %s\n", e.paths.DataDir)
				fmt.Fprintf(out, "  - %s (cache)\n", e.paths.CacheFile)
				fmt.Fprintf(out, "  - %s (positions)\n", coordsPath)
				fmt.Fprintf(out, "  - %s (legacy state)\n", legacyPath)
				fmt.Fprintln(out, "Assets are kept.")
				fmt.Fprintln(out)
				fmt.Fprint(out, "Type 'yes' to confirm: ")

				confirm, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && confirm == "" {
					return fmt.Errorf("read confirmation: %w", err)
				}
				if strings.TrimSpace(confirm) != "yes" {
					fmt.Fprintln(out, "Aborted")
					return nil
				}
			}

			ctx := cmd.Context()
			st, err := openState(ctx, e)
			if err != nil {
				return err
			}
			if err := st.native.DeleteState(ctx); err != nil {
				st.close()
				return err
			}
			if err := st.close(); err != nil {
				return err
			}

			removed := 0
			if err := st.cache.Clear(); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			for _, path := range []string{coordsPath, legacyPath, pidFile.Path()} {
				if err := os.Remove(path); err == nil {
					removed++
				}
			}
			fmt.Fprintf(out, "State reset complete (%d files removed)\n", removed)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Skip the confirmation prompt")
	return cmd
}
