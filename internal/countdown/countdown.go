// Package countdown drives the snapshot timer: a once-per-second tick that
// counts down to zero on the UI event loop and then fires.
package countdown

import (
	"time"

	"github.com/kartoza/kartoza-webcam-viewer/internal/eventloop"
	"github.com/kartoza/kartoza-webcam-viewer/internal/logging"
	"github.com/rs/zerolog"
)

// DefaultInterval is the time between ticks.
const DefaultInterval = time.Second

// Scheduler creates recurring sources on the UI loop. *eventloop.Loop
// implements it.
type Scheduler interface {
	Interval(d time.Duration, fn func() bool) *eventloop.Source
}

// Timer is a cancellable countdown. All methods and callbacks run on the
// loop goroutine.
type Timer struct {
	sched     Scheduler
	interval  time.Duration
	remaining int
	src       *eventloop.Source

	// onTick receives the seconds left; 0 means the overlay should hide.
	onTick func(remaining int)
	onFire func()
	logger zerolog.Logger
}

// New creates an idle timer.
func New(sched Scheduler, onTick func(remaining int), onFire func()) *Timer {
	return &Timer{
		sched:    sched,
		interval: DefaultInterval,
		onTick:   onTick,
		onFire:   onFire,
		logger:   logging.WithComponent("countdown"),
	}
}

// SetInterval changes the tick period for countdowns started afterwards.
func (t *Timer) SetInterval(d time.Duration) {
	t.interval = d
}

// Counting reports whether a countdown is running.
func (t *Timer) Counting() bool { return t.src != nil }

// Remaining returns the seconds left, 0 when idle.
func (t *Timer) Remaining() int { return t.remaining }

// Start cancels any running countdown and counts down from n. With n <= 0
// it fires straight away and reports true: there was nothing to wait for,
// so a momentary trigger should pop back up.
func (t *Timer) Start(n int) bool {
	t.Cancel()
	if n <= 0 {
		t.logger.Debug().Str("event", "countdown.immediate").Msg("firing without countdown")
		t.onFire()
		return true
	}

	t.remaining = n
	t.onTick(n)
	t.src = t.sched.Interval(t.interval, t.tick)
	t.logger.Debug().Str("event", "countdown.start").Int("seconds", n).Msg("countdown started")
	return false
}

func (t *Timer) tick() bool {
	t.remaining--
	if t.remaining > 0 {
		t.onTick(t.remaining)
		return true
	}
	t.src = nil
	t.remaining = 0
	t.onTick(0)
	t.onFire()
	return false
}

// Cancel stops a running countdown without firing and reports whether one
// was running. Ticks already queued on the loop are discarded.
func (t *Timer) Cancel() bool {
	if t.src == nil {
		return false
	}
	t.src.Cancel()
	t.src = nil
	t.remaining = 0
	t.onTick(0)
	t.logger.Debug().Str("event", "countdown.cancel").Msg("countdown cancelled")
	return true
}
