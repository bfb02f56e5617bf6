// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/texeldesk/status.go
// Summary: Reports whether a desktop is running and what state is saved.

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/framegrace/texeldesk/cmd/texeldesk/lifecycle"
	"github.com/framegrace/texeldesk/internal/bridge"
	"github.com/framegrace/texeldesk/internal/persist"
	"github.com/spf13/cobra"
)

func newStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show process and saved-state status",
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
				fmt.Fprintf(out, "Desktop: running (PID %d)\n", pid)
			} else {
				fmt.Fprintln(out, "Desktop: stopped")
			}
			fmt.Fprintf(out, "  Data dir: %s\n", e.paths.DataDir)
			fmt.Fprintf(out, "  Config: %s\n", e.cfg.File())

			ctx := cmd.Context()
			st, err := openState(ctx, e)
			if err != nil {
				return err
			}
			defer st.close()

			data, err := st.native.ReadState(ctx, persist.StateKey)
			switch {
			case errors.Is(err, bridge.ErrNotExist):
				fmt.Fprintln(out, "  Saved state: none")
			case err != nil:
				return err
			default:
				snap, err := persist.DecodeSnapshot(data)
				if err != nil {
					fmt.Fprintf(out, "  Saved state: unreadable (%v)\n", err)
				} else {
					fmt.Fprintf(out, "  Saved state: %d items, saved %s\n", len(snap.Items), snap.SavedAt.Local().Format("2006-01-02 15:04:05"))
				}
			}

			coords, err := st.native.Coords(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "  Recorded positions: %d\n", len(coords))

			if info, err := os.Stat(st.cache.Path()); err == nil {
				fmt.Fprintf(out, "  Cache: %s (%d bytes, modified %s)\n", st.cache.Path(), info.Size(), info.ModTime().Format("2006-01-02 15:04:05"))
			} else {
				fmt.Fprintf(out, "  Cache: %s (absent)\n", st.cache.Path())
			}
			return nil
		},
	}
}
