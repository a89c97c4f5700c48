// Package session is the controller between a front end and the live
// graph. It owns the recorder, the snapshotter and the countdown, mutates
// them only on the UI event loop, and reports back through notices.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/kartoza/kartoza-webcam-viewer/internal/config"
	"github.com/kartoza/kartoza-webcam-viewer/internal/countdown"
	"github.com/kartoza/kartoza-webcam-viewer/internal/eventloop"
	"github.com/kartoza/kartoza-webcam-viewer/internal/graph"
	"github.com/kartoza/kartoza-webcam-viewer/internal/logging"
	"github.com/kartoza/kartoza-webcam-viewer/internal/media"
	"github.com/kartoza/kartoza-webcam-viewer/internal/recorder"
	"github.com/kartoza/kartoza-webcam-viewer/internal/relay"
	"github.com/kartoza/kartoza-webcam-viewer/internal/snapshot"
	"github.com/rs/zerolog"
)

const (
	// DefaultShutdownGrace bounds how long shutdown waits for a recording
	// to finish writing.
	DefaultShutdownGrace = 5 * time.Second
	// DefaultDrainWarning is when a slow recording drain gets logged.
	DefaultDrainWarning = 10 * time.Second
)

// Settings provides the current user settings.
type Settings interface {
	Get() config.Settings
	Reload() error
}

// Options configures a Controller.
type Options struct {
	Loop     *eventloop.Loop
	Graph    *graph.Graph
	Settings Settings
	// Sink receives every notice, on the loop goroutine. It must not block
	// on the loop.
	Sink func(Notice)
	// Beep, if set, is called for every countdown second still to go.
	Beep func(remaining int)

	TickInterval  time.Duration
	ShutdownGrace time.Duration
	DrainWarning  time.Duration
}

// Controller is the session object. Every method except Send must run on
// the loop goroutine.
type Controller struct {
	loop     *eventloop.Loop
	graph    *graph.Graph
	rec      *recorder.Recorder
	snap     *snapshot.Snapshotter
	timer    *countdown.Timer
	settings Settings
	sink     func(Notice)
	beep     func(int)

	grace     time.Duration
	drainWarn time.Duration

	started        bool
	stopAfterDrain bool
	closing        bool
	closed         bool
	drainWatch     *eventloop.Source
	graceTimer     *eventloop.Source
	onClosed       []func()

	now    func() time.Time
	logger zerolog.Logger
}

// New creates a controller. Nothing runs until commands are dispatched.
func New(opts Options) (*Controller, error) {
	if opts.Loop == nil || opts.Graph == nil || opts.Settings == nil {
		return nil, errors.New("session: Loop, Graph and Settings are required")
	}
	c := &Controller{
		loop:      opts.Loop,
		graph:     opts.Graph,
		rec:       recorder.New(opts.Graph),
		snap:      snapshot.New(opts.Graph),
		settings:  opts.Settings,
		sink:      opts.Sink,
		beep:      opts.Beep,
		grace:     opts.ShutdownGrace,
		drainWarn: opts.DrainWarning,
		now:       time.Now,
		logger:    logging.WithComponent("session"),
	}
	if c.sink == nil {
		c.sink = func(Notice) {}
	}
	if c.grace <= 0 {
		c.grace = DefaultShutdownGrace
	}
	if c.drainWarn <= 0 {
		c.drainWarn = DefaultDrainWarning
	}
	c.timer = countdown.New(c.loop, c.guardInt(c.onTick), c.guard(c.fireSnapshot))
	if opts.TickInterval > 0 {
		c.timer.SetInterval(opts.TickInterval)
	}
	return c, nil
}

// guard wraps a callback so it does nothing once the controller is closed.
func (c *Controller) guard(fn func()) func() {
	return func() {
		if c.closed {
			return
		}
		fn()
	}
}

func (c *Controller) guardInt(fn func(int)) func(int) {
	return func(n int) {
		if c.closed {
			return
		}
		fn(n)
	}
}

// Send dispatches cmd on the loop. It is safe from any goroutine and reports
// false once the loop has stopped.
func (c *Controller) Send(cmd Command) bool {
	return c.loop.Post(func() { c.Dispatch(cmd) })
}

// Started reports whether the graph has reached Playing at least once.
// Until then engine errors are fatal.
func (c *Controller) Started() bool { return c.started }

// Closed reports whether shutdown has completed.
func (c *Controller) Closed() bool { return c.closed }

// Recorder exposes the recorder for status queries.
func (c *Controller) Recorder() *recorder.Recorder { return c.rec }

// Surface returns the preview surface of the display sink.
func (c *Controller) Surface() media.Surface { return c.graph.DisplaySurface() }

// OnClosed registers fn to run, on the loop, once shutdown completes.
func (c *Controller) OnClosed(fn func()) {
	if c.closed {
		fn()
		return
	}
	c.onClosed = append(c.onClosed, fn)
}

func (c *Controller) notify(n Notice) {
	n.At = c.now()
	c.sink(n)
}

func (c *Controller) warn(text string) {
	c.logger.Warn().Str("event", "session.warning").Msg(text)
	c.notify(Notice{Kind: NoticeWarning, Text: text})
}

// Dispatch performs cmd. Commands arriving during or after shutdown are
// dropped.
func (c *Controller) Dispatch(cmd Command) {
	if c.closed || (c.closing && cmd.Action != ActionShutdown) {
		c.logger.Debug().
			Str("event", "session.dropped").
			Str("action", cmd.Action.String()).
			Msg("session is shutting down")
		return
	}
	c.logger.Debug().
		Str("event", "session.dispatch").
		Str("action", cmd.Action.String()).
		Bool("active", cmd.Active).
		Msg("dispatching command")

	switch cmd.Action {
	case ActionStart:
		c.stopAfterDrain = false
		c.start()
	case ActionStop:
		c.stop()
	case ActionSnapshot:
		if cmd.Active {
			c.timer.Start(c.settings.Get().Timer)
		} else {
			c.timer.Cancel()
		}
	case ActionRecord:
		if cmd.Active {
			c.startRecording()
		} else {
			c.stopRecording()
		}
	case ActionReloadSettings:
		if err := c.settings.Reload(); err != nil {
			c.warn(fmt.Sprintf("Failed to load settings: %v", err))
		}
	case ActionShutdown:
		c.shutdown()
	default:
		panic(fmt.Sprintf("session: unknown action %d", cmd.Action))
	}
}

func (c *Controller) start() {
	if err := c.graph.Start(); err != nil {
		text := fmt.Sprintf("Failed to start the camera: %v", err)
		c.logger.Error().Err(err).Str("event", "session.start_failed").Msg("graph refused to play")
		if c.started {
			c.notify(Notice{Kind: NoticeError, Text: text})
			return
		}
		c.notify(Notice{Kind: NoticeFatal, Text: text})
	}
}

// stop cancels the countdown and stops the graph. A running recording is
// stopped first and the graph only once its file is finished, so the
// branch still sees its EOS.
func (c *Controller) stop() {
	c.timer.Cancel()
	if status := c.rec.Status(); status.Active() {
		if status.IsRecording() {
			c.stopRecording()
		}
		c.stopAfterDrain = true
		c.logger.Info().Str("event", "session.stop_deferred").Msg("stopping after the recording drains")
		return
	}
	c.stopGraph()
}

func (c *Controller) stopGraph() {
	if err := c.graph.Stop(); err != nil {
		c.notify(Notice{Kind: NoticeError, Text: err.Error()})
	}
}

func (c *Controller) onTick(remaining int) {
	if remaining > 0 && c.beep != nil {
		c.beep(remaining)
	}
	c.notify(Notice{Kind: NoticeCountdown, Remaining: remaining})
}

func (c *Controller) fireSnapshot() {
	c.notify(Notice{Kind: NoticeSnapshotToggleReset})

	s := c.settings.Get()
	path, err := c.snap.Take(s.SnapshotFormat, s.SnapshotDir)
	switch {
	case errors.Is(err, snapshot.ErrSnapshotPending):
		c.warn("The previous snapshot is still being saved")
	case err != nil:
		c.warn(fmt.Sprintf("Failed to take snapshot: %v", err))
	case path == "":
		c.logger.Info().Str("event", "session.no_frame").Msg("snapshot skipped, no frame yet")
	}
}

func (c *Controller) startRecording() {
	s := c.settings.Get()
	path, err := c.rec.Start(s.RecordFormat, s.RecordDir)
	if errors.Is(err, recorder.ErrAlreadyRecording) {
		c.logger.Info().Str("event", "session.already_recording").Msg("recording already in progress")
		c.notify(Notice{Kind: NoticeRecordToggleReset, Recording: c.rec.Status()})
		return
	}
	if err != nil {
		c.warn(err.Error())
		c.notify(Notice{Kind: NoticeRecordToggleReset})
		return
	}
	c.notify(Notice{Kind: NoticeRecordingStarted, Path: path, Recording: c.rec.Status()})
}

func (c *Controller) stopRecording() bool {
	if !c.rec.Stop() {
		return false
	}
	status := c.rec.Status()
	c.notify(Notice{Kind: NoticeRecordingStopping, Path: status.File, Recording: status})

	branch := c.rec.Branch()
	if c.drainWatch != nil {
		c.drainWatch.Cancel()
	}
	c.drainWatch = c.loop.Timeout(c.drainWarn, c.guard(func() {
		c.drainWatch = nil
		if c.rec.Branch() != branch {
			return
		}
		c.logger.Warn().
			Str("event", "session.drain_slow").
			Str("branch", branch.Name()).
			Bool("probe_fired", branch.Probed()).
			Dur("waited", c.drainWarn).
			Msg("recording has not finished draining")
	}))
	return true
}

// HandleEvent reacts to a relayed bus event. It is the relay's handler.
func (c *Controller) HandleEvent(ev relay.Event) {
	if c.closed {
		return
	}
	switch ev.Kind {
	case relay.EventPlaying:
		if !c.started {
			c.logger.Info().Str("event", "session.playing").Msg("camera running")
		}
		c.started = true

	case relay.EventError:
		c.logger.Error().
			Str("event", "session.engine_error").
			Str("source", ev.Source).
			Str("debug", ev.Debug).
			Msg(ev.Text)
		if c.started {
			c.notify(Notice{Kind: NoticeError, Text: ev.Text})
		} else {
			c.notify(Notice{Kind: NoticeFatal, Text: ev.Text})
		}

	case relay.EventWarning:
		c.notify(Notice{Kind: NoticeWarning, Text: ev.Text})

	case relay.EventSnapshotDone:
		if c.snap.Complete(ev.Path, ev.Err) && ev.Err == nil {
			c.notify(Notice{Kind: NoticeSnapshotSaved, Path: ev.Path})
		}

	case relay.EventBranchEOS:
		finished, ok := c.rec.HandleDrained(ev.Source)
		if !ok {
			c.logger.Debug().Str("event", "session.stray_eos").Str("source", ev.Source).Msg("EOS from unknown branch")
			return
		}
		if c.drainWatch != nil {
			c.drainWatch.Cancel()
			c.drainWatch = nil
		}
		c.notify(Notice{Kind: NoticeRecordingFinished, Path: finished.File, Recording: finished})
		if c.closing {
			c.finish()
			return
		}
		if c.stopAfterDrain {
			c.stopAfterDrain = false
			c.stopGraph()
		}
	}
}

// shutdown cancels the countdown and, if a recording is running, stops it
// and waits up to the grace period for its file to be finished before
// stopping the graph.
func (c *Controller) shutdown() {
	if c.closing {
		return
	}
	c.closing = true
	c.timer.Cancel()
	c.logger.Info().Str("event", "session.shutdown").Msg("shutting down")

	status := c.rec.Status()
	if !status.Active() {
		c.finish()
		return
	}
	if status.IsRecording() {
		c.stopRecording()
	}
	c.graceTimer = c.loop.Timeout(c.grace, func() {
		if c.closed {
			return
		}
		c.logger.Warn().
			Str("event", "session.shutdown_grace_expired").
			Str("file", c.rec.Status().File).
			Msg("recording did not finish before shutdown")
		c.finish()
	})
}

func (c *Controller) finish() {
	if c.closed {
		return
	}
	c.closed = true
	for _, src := range []*eventloop.Source{c.graceTimer, c.drainWatch} {
		if src != nil {
			src.Cancel()
		}
	}
	if err := c.graph.Stop(); err != nil {
		c.logger.Error().Err(err).Str("event", "session.stop_failed").Msg("graph refused to stop")
	}
	c.logger.Info().Str("event", "session.stopped").Msg("session stopped")
	c.notify(Notice{Kind: NoticeStopped})
	for _, fn := range c.onClosed {
		fn()
	}
	c.onClosed = nil
}
