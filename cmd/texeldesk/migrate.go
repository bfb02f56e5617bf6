// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/texeldesk/migrate.go
// Summary: Moves inline image payloads into asset files without opening the UI.

package main

import (
	"fmt"

	"github.com/framegrace/texeldesk/cmd/texeldesk/lifecycle"
	"github.com/framegrace/texeldesk/desk"
	"github.com/framegrace/texeldesk/internal/persist"
	"github.com/spf13/cobra"
)

func newMigrateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate-assets",
		Short: "Store inline images as files in the assets directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := app.setup(false)
			if err != nil {
				return err
			}
			if pf := lifecycle.NewPIDFile(e.paths.PIDPath); pf.Running() {
				return fmt.Errorf("desktop is running; it migrates assets itself on start")
			}

			ctx := cmd.Context()
			st, err := openState(ctx, e)
			if err != nil {
				return err
			}
			defer st.close()

			d := desk.NewDesktop(e.desktopOptions())
			pipeline := persist.New(d, st.native, st.native, st.cache, e.pipelineOptions())
			defer pipeline.Close()
			if _, err := st.loadInto(ctx, d); err != nil {
				return err
			}

			n, err := pipeline.MigrateAssets(ctx, st.native)
			fmt.Fprintf(cmd.OutOrStdout(), "Migrated %d inline assets\n", n)
			return err
		},
	}
}
