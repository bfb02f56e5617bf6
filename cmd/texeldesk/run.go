// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/texeldesk/run.go
// Summary: Opens the state, wires every component and runs the terminal host.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/framegrace/texeldesk/cmd/texeldesk/lifecycle"
	"github.com/framegrace/texeldesk/defaults"
	"github.com/framegrace/texeldesk/desk"
	"github.com/framegrace/texeldesk/internal/bridge"
	"github.com/framegrace/texeldesk/internal/logging"
	"github.com/framegrace/texeldesk/internal/persist"
	"github.com/framegrace/texeldesk/internal/shutdown"
	"github.com/framegrace/texeldesk/internal/termhost"
	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// state bundles the stores behind one data directory.
type state struct {
	native *bridge.Native
	cache  *persist.FileCache
	loader *persist.Loader
}

func openState(ctx context.Context, e *env) (*state, error) {
	native, err := bridge.Open(ctx, e.paths.DataDir, logging.For("bridge"))
	if err != nil {
		return nil, err
	}
	cache := persist.NewFileCache(e.paths.CacheFile)
	return &state{
		native: native,
		cache:  cache,
		loader: &persist.Loader{
			Store:  native,
			Files:  native,
			Coords: native,
			Cache:  cache,
			Seed:   defaults.SeedItems,
			Logger: logging.For("persist"),
		},
	}, nil
}

// loadInto reads the best available collection and installs it on d.
func (s *state) loadInto(ctx context.Context, d *desk.Desktop) (persist.LoadResult, error) {
	res, err := s.loader.Load(ctx)
	if err != nil {
		return res, fmt.Errorf("load desktop: %w", err)
	}
	if err := persist.Apply(d, res); err != nil {
		return res, fmt.Errorf("apply desktop: %w", err)
	}
	return res, nil
}

func (s *state) close() error {
	return s.native.Close()
}

func (e *env) pipelineOptions() persist.Options {
	opts := persist.DefaultOptions()
	opts.Debounce = e.settings.Debounce
	opts.StatusSaved = e.settings.StatusSaved
	opts.StatusError = e.settings.StatusError
	opts.Logger = logging.For("persist")
	return opts
}

func runDesktop(cmd *cobra.Command, app *App) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("texeldesk needs an interactive terminal; try `texeldesk layers` for scripted access")
	}

	e, err := app.setup(true)
	if err != nil {
		return err
	}
	defer logging.Close()
	log := logging.For("main")
	ctx := cmd.Context()

	pidFile := lifecycle.NewPIDFile(e.paths.PIDPath)
	if err := pidFile.Acquire(os.Getpid()); err != nil {
		return err
	}
	defer func() {
		if err := pidFile.Release(os.Getpid()); err != nil {
			log.Warnf("Main: Failed to remove PID file: %v", err)
		}
	}()

	st, err := openState(ctx, e)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.close(); err != nil {
			log.Errorf("Main: Closing state failed: %v", err)
		}
	}()

	d := desk.NewDesktop(e.desktopOptions())
	// The pipeline subscribes before loading so seeded items are saved.
	pipeline := persist.New(d, st.native, st.native, st.cache, e.pipelineOptions())
	defer pipeline.Close()

	res, err := st.loadInto(ctx, d)
	if err != nil {
		return err
	}
	log.Infof("Main: Loaded %d items from %s (%d positions overlaid)", len(res.Items), res.Source, res.Overlaid)

	players := termhost.NewClockFactory()
	media := desk.NewMediaArbiter(d, players, desk.MediaOptions{
		TrackInterval: e.settings.TrackInterval,
		Logger:        logging.For("media"),
	})
	defer media.ReleaseAll()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}

	var coord *shutdown.Coordinator
	host := termhost.New(d, screen, termhost.Options{
		Controller: e.controllerOptions(),
		Media:      media,
		Players:    players,
		OnQuit: func(mode shutdown.Mode) {
			if err := coord.Run(context.Background(), mode); err != nil {
				log.Errorf("Main: Shutdown (%s) finished with error: %v", mode, err)
			}
		},
		Logger: logging.For("termhost"),
	})
	coord, err = shutdown.NewCoordinator(shutdown.Deps{
		Desktop:    d,
		Controller: host.Controller(),
		Media:      media,
		Persist:    pipeline,
		Host:       host,
	}, shutdown.Options{
		Watchdog:   e.settings.Watchdog,
		LagNotice:  e.settings.LagNotice,
		ErrorGrace: e.settings.ErrorGrace,
		Logger:     logging.For("shutdown"),
	})
	if err != nil {
		screen.Fini()
		return err
	}

	go func() {
		n, err := pipeline.MigrateAssets(ctx, st.native)
		switch {
		case err != nil:
			log.Warnf("Main: Asset migration incomplete (%d moved): %v", n, err)
		case n > 0:
			log.Infof("Main: Migrated %d inline assets", n)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)
	exit := make(chan struct{})
	go func() {
		sig := <-sigCh
		log.Infof("Main: Received %s", sig)
		if !coord.Started() {
			if err := coord.Run(ctx, shutdown.ModeTerminate); err != nil {
				log.Errorf("Main: Shutdown finished with error: %v", err)
			}
		}
		close(exit)
	}()

	if err := host.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if !host.Hidden() {
		return nil
	}

	// Hidden: the state is saved and the UI is gone, but players keep their
	// positions until the process is told to exit.
	fmt.Fprintln(cmd.OutOrStdout(), "texeldesk is hidden; press Ctrl+C or send SIGTERM to exit.")
	<-exit
	media.SnapshotTimestamps()
	return pipeline.FlushNow(context.Background())
}
