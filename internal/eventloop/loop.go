// Package eventloop provides the single goroutine on which all session state
// is mutated. Any goroutine may post work to it; posted closures run one at a
// time, in post order.
package eventloop

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kartoza/kartoza-webcam-viewer/internal/logging"
	"github.com/rs/zerolog"
)

// ErrStopped is returned by Invoke when the loop is not running anymore.
var ErrStopped = errors.New("event loop stopped")

// Loop is a FIFO executor bound to the goroutine that calls Run.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	quit    chan struct{}
	stopped bool

	quitOnce sync.Once
	logger   zerolog.Logger
}

// New creates a loop. It does nothing until Run is called.
func New() *Loop {
	return &Loop{
		wake:   make(chan struct{}, 1),
		quit:   make(chan struct{}),
		logger: logging.WithComponent("eventloop"),
	}
}

// Post schedules fn on the loop. It never blocks, so it is safe to call from
// engine streaming threads. It reports false once the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Invoke posts fn and waits until it has run. It must not be called from
// the loop goroutine itself.
func (l *Loop) Invoke(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if !l.Post(func() {
		defer close(done)
		fn()
	}) {
		return ErrStopped
	}
	select {
	case <-done:
		return nil
	case <-l.quit:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run executes posted closures until ctx is cancelled or Quit is called,
// checking both after every closure. Closures still queued at that point
// are dropped.
func (l *Loop) Run(ctx context.Context) error {
	defer l.stop()
	for {
		for {
			fn, ok := l.next()
			if !ok {
				break
			}
			l.exec(fn)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-l.quit:
				return nil
			default:
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.quit:
			return nil
		case <-l.wake:
		}
	}
}

// Quit makes Run return after the closure currently executing.
func (l *Loop) Quit() {
	l.quitOnce.Do(func() { close(l.quit) })
}

// Done is closed when Quit has been called.
func (l *Loop) Done() <-chan struct{} {
	return l.quit
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil, false
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn, true
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error().
				Str("event", "loop.panic").
				Interface("panic", r).
				Msg("posted closure panicked")
			panic(r)
		}
	}()
	fn()
}

func (l *Loop) stop() {
	l.mu.Lock()
	l.stopped = true
	l.queue = nil
	l.mu.Unlock()
	l.Quit()
}

// Source is a timer whose callbacks run on the loop. Cancelling it from the
// loop guarantees no further callback runs, even one already queued.
type Source struct {
	cancelled atomic.Bool
	stop      chan struct{}
	once      sync.Once
}

// Cancel invalidates the source. Safe to call more than once.
func (s *Source) Cancel() {
	s.cancelled.Store(true)
	s.once.Do(func() { close(s.stop) })
}

// Cancelled reports whether Cancel has been called.
func (s *Source) Cancelled() bool {
	return s.cancelled.Load()
}

// Timeout runs fn once on the loop after d.
func (l *Loop) Timeout(d time.Duration, fn func()) *Source {
	src := &Source{stop: make(chan struct{})}
	go func() {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
			l.Post(func() {
				if src.Cancelled() {
					return
				}
				src.Cancel()
				fn()
			})
		case <-src.stop:
		case <-l.quit:
		}
	}()
	return src
}

// Interval runs fn on the loop every d until fn returns false or the source
// is cancelled.
func (l *Loop) Interval(d time.Duration, fn func() bool) *Source {
	src := &Source{stop: make(chan struct{})}
	go func() {
		t := time.NewTicker(d)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				l.Post(func() {
					if src.Cancelled() {
						return
					}
					if !fn() {
						src.Cancel()
					}
				})
			case <-src.stop:
				return
			case <-l.quit:
				return
			}
		}
	}()
	return src
}
