package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/kartoza/kartoza-webcam-viewer/internal/session"
)

const (
	// frameTimeout bounds how long the commands wait for the first frame
	frameTimeout = 10 * time.Second
	pollInterval = 50 * time.Millisecond
)

var errTimeout = errors.New("timed out")

// headless feeds session notices to a command running without the TUI
type headless struct {
	out    io.Writer
	errOut io.Writer
	events chan session.Notice
	done   chan struct{}
}

func newHeadless(out, errOut io.Writer) *headless {
	return &headless{
		out:    out,
		errOut: errOut,
		events: make(chan session.Notice, 64),
		done:   make(chan struct{}),
	}
}

// Sink is the session notice sink. It stops blocking once the command has
// finished.
func (h *headless) Sink(n session.Notice) {
	select {
	case h.events <- n:
	case <-h.done:
	}
}

// close releases the sink
func (h *headless) close() {
	close(h.done)
}

// wait consumes notices until handle reports done or fails. poll, if set,
// is called periodically and ends the wait when it reports true. Fatal and
// error notices end the wait with an error; warnings handle does not turn
// into an error are printed.
func (h *headless) wait(ctx context.Context, timeout time.Duration, poll func(context.Context) (bool, error), handle func(session.Notice) (bool, error)) error {
	var deadline <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		deadline = t.C
	}
	var tick <-chan time.Time
	if poll != nil {
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			return errTimeout
		case <-tick:
			done, err := poll(ctx)
			if err != nil || done {
				return err
			}
		case n := <-h.events:
			if n.Kind == session.NoticeFatal || n.Kind == session.NoticeError {
				return errors.New(n.Text)
			}
			done := false
			if handle != nil {
				var err error
				if done, err = handle(n); err != nil {
					return err
				}
			}
			if n.Kind == session.NoticeWarning {
				fmt.Fprintf(h.errOut, "Warning: %s\n", n.Text)
			}
			if done {
				return nil
			}
		}
	}
}

// shutdown stops the session, printing a finished recording, and returns
// cause if set
func (h *headless) shutdown(ctx context.Context, a *app, cause error) error {
	if !a.ctrl.Send(session.Command{Action: session.ActionShutdown}) {
		return cause
	}
	err := h.wait(ctx, session.DefaultShutdownGrace+5*time.Second, nil, func(n session.Notice) (bool, error) {
		switch n.Kind {
		case session.NoticeRecordingFinished:
			fmt.Fprintf(h.out, "Saved %s\n", n.Path)
		case session.NoticeStopped:
			return true, nil
		}
		return false, nil
	})
	if cause != nil {
		return cause
	}
	if errors.Is(err, errTimeout) {
		return fmt.Errorf("camera did not stop in time")
	}
	return err
}

// startCamera starts the graph and waits for its first frame
func (h *headless) startCamera(ctx context.Context, a *app) error {
	a.ctrl.Send(session.Command{Action: session.ActionStart})
	err := h.wait(ctx, frameTimeout, a.frameReady, nil)
	if errors.Is(err, errTimeout) {
		return fmt.Errorf("camera produced no frames within %s", frameTimeout)
	}
	return err
}
