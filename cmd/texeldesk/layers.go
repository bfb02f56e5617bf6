// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/texeldesk/layers.go
// Summary: Prints the saved items from top to bottom.

package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/framegrace/texeldesk/desk"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
)

const layerNameWidth = 40

func newLayersCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "layers",
		Short: "List saved items from top to bottom",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := app.setup(false)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			st, err := openState(ctx, e)
			if err != nil {
				return err
			}
			defer st.close()

			d := desk.NewDesktop(e.desktopOptions())
			res, err := st.loadInto(ctx, d)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# %d items (source: %s)\n", d.Len(), res.Source)
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "Z\tTYPE\tID\tNAME")
			for _, l := range d.Listing() {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", l.Z, l.Type, l.ID, layerName(l.Name))
			}
			return w.Flush()
		},
	}
}

func layerName(name string) string {
	if i := strings.IndexByte(name, '\n'); i >= 0 {
		name = name[:i]
	}
	return runewidth.Truncate(name, layerNameWidth, "…")
}
