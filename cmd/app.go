package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kartoza/kartoza-webcam-viewer/internal/beep"
	"github.com/kartoza/kartoza-webcam-viewer/internal/config"
	"github.com/kartoza/kartoza-webcam-viewer/internal/deps"
	"github.com/kartoza/kartoza-webcam-viewer/internal/eventloop"
	"github.com/kartoza/kartoza-webcam-viewer/internal/graph"
	"github.com/kartoza/kartoza-webcam-viewer/internal/logging"
	"github.com/kartoza/kartoza-webcam-viewer/internal/media/gstengine"
	"github.com/kartoza/kartoza-webcam-viewer/internal/relay"
	"github.com/kartoza/kartoza-webcam-viewer/internal/session"
	"github.com/kartoza/kartoza-webcam-viewer/internal/webcam"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// errMissingDeps is returned after the missing elements were reported
var errMissingDeps = errors.New("missing required dependencies")

// configureLogging sends logs to out, at debug level with --debug
func configureLogging(out io.Writer, level string) {
	if debugMode {
		level = "debug"
	}
	logging.Configure(logging.Config{Level: level, Output: out})
}

// openLogFile opens the log file the TUI writes to
func openLogFile() (*os.File, error) {
	dir := config.GetConfigDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}
	return logging.OpenFile(filepath.Join(dir, config.LogFileName))
}

// app is one running camera session with everything it needs
type app struct {
	store  *config.Store
	engine *gstengine.Engine
	loop   *eventloop.Loop
	graph  *graph.Graph
	ctrl   *session.Controller
	relay  *relay.Relay
	beeper *beep.Player
	logger zerolog.Logger
}

type appOptions struct {
	// Sink receives session notices on the loop goroutine
	Sink func(session.Notice)
	// Settings optionally wraps the store, e.g. with command line overrides
	Settings func(*config.Store) session.Settings
	// OnMissing reports missing elements before the error is returned
	OnMissing func([]deps.CheckResult)
}

func newApp(opts appOptions) (*app, error) {
	logger := logging.WithComponent("app")

	store, loadErr := config.NewStore(settingsPath())
	if loadErr != nil {
		logger.Warn().Err(loadErr).Str("event", "app.settings_load_failed").Msg("using default settings")
	}

	engine := gstengine.New()
	if missing := deps.MissingRequired(engine); len(missing) > 0 {
		if opts.OnMissing != nil {
			opts.OnMissing(missing)
		}
		return nil, errMissingDeps
	}

	loop := eventloop.New()
	source := webcam.Source(deviceName)
	logger.Info().Str("event", "app.source").Str("source", source).Msg("camera source selected")

	g, err := graph.Build(engine, graph.Config{Source: source}, graph.Options{Post: loop.Post})
	if err != nil {
		return nil, fmt.Errorf("build camera pipeline: %w", err)
	}

	var settings session.Settings = store
	if opts.Settings != nil {
		settings = opts.Settings(store)
	}

	beeper := beep.New(engine)
	ctrl, err := session.New(session.Options{
		Loop:     loop,
		Graph:    g,
		Settings: settings,
		Sink:     opts.Sink,
		Beep:     beeper.Play,
	})
	if err != nil {
		return nil, err
	}

	a := &app{
		store:  store,
		engine: engine,
		loop:   loop,
		graph:  g,
		ctrl:   ctrl,
		relay:  relay.New(g.Bus(), loop.Post, ctrl.HandleEvent),
		beeper: beeper,
		logger: logger,
	}

	// A broken settings file is reported through the session like any
	// later reload failure.
	if loadErr != nil {
		ctrl.Send(session.Command{Action: session.ActionReloadSettings})
	}
	store.OnChange(func(_ config.Settings, err error) {
		if err != nil {
			ctrl.Send(session.Command{Action: session.ActionReloadSettings})
		}
	})
	return a, nil
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// run drives the loop, the bus relay and the settings watcher until front
// returns.
func (a *app) run(ctx context.Context, front func(ctx context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ignoreCanceled(a.loop.Run(gctx))
	})
	g.Go(func() error {
		return ignoreCanceled(a.relay.Run(gctx))
	})
	g.Go(func() error {
		if err := a.store.Watch(gctx); err != nil {
			a.logger.Warn().Err(err).Str("event", "app.watch_failed").Msg("settings will not reload automatically")
		}
		return nil
	})
	g.Go(func() error {
		defer cancel()
		return front(gctx)
	})

	err := g.Wait()
	a.beeper.Wait()
	return err
}

// frameReady reports whether the camera is playing and has produced a
// frame. It runs the check on the loop.
func (a *app) frameReady(ctx context.Context) (bool, error) {
	var ready bool
	err := a.loop.Invoke(ctx, func() {
		if !a.ctrl.Started() {
			return
		}
		_, ready = a.graph.LastSample()
	})
	return ready, err
}

// overrides applies command line flags on top of the stored settings
// without saving them
type overrides struct {
	store *config.Store
	apply func(*config.Settings)
}

func (o overrides) Get() config.Settings {
	s := o.store.Get()
	o.apply(&s)
	return s.Normalize()
}

func (o overrides) Reload() error {
	return o.store.Reload()
}
