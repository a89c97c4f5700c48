// Package relay moves bus messages from the engine's threads onto the UI
// event loop. Messages are popped on one goroutine and posted to the loop in
// bus order, translated into the few event kinds the session reacts to.
package relay

import (
	"context"
	"errors"
	"time"

	"github.com/kartoza/kartoza-webcam-viewer/internal/logging"
	"github.com/kartoza/kartoza-webcam-viewer/internal/media"
	"github.com/rs/zerolog"
)

// Application message names and fields posted by the session itself.
const (
	WarningMessage      = "warning"
	SnapshotDoneMessage = "snapshot-done"

	fieldText     = "text"
	fieldLocation = "location"
	fieldError    = "error"
)

// DefaultPollInterval is how long one bus pop waits before checking for
// cancellation.
const DefaultPollInterval = 50 * time.Millisecond

// EventKind classifies relayed events.
type EventKind int

const (
	// EventError is an engine error.
	EventError EventKind = iota
	// EventWarning is an application warning posted from an engine thread.
	EventWarning
	// EventBranchEOS is a child bin's end-of-stream forwarded by the pipeline.
	EventBranchEOS
	// EventSnapshotDone reports a finished snapshot conversion and write.
	EventSnapshotDone
	// EventPlaying reports that the pipeline reached Playing.
	EventPlaying
)

func (k EventKind) String() string {
	switch k {
	case EventError:
		return "error"
	case EventWarning:
		return "warning"
	case EventBranchEOS:
		return "branch-eos"
	case EventSnapshotDone:
		return "snapshot-done"
	case EventPlaying:
		return "playing"
	default:
		return "unknown"
	}
}

// Event is one relayed bus message.
type Event struct {
	Kind EventKind
	// Source is the posting element; for EventBranchEOS the branch name.
	Source string
	// Text is the error or warning text.
	Text string
	// Debug carries engine debug detail for errors.
	Debug string
	// Path is the snapshot file of EventSnapshotDone.
	Path string
	// Err is set when a snapshot failed.
	Err error
}

// PostWarning posts a warning from any goroutine.
func PostWarning(bus media.Bus, text string) bool {
	return bus.Post(media.NewApplicationMessage(WarningMessage, map[string]string{fieldText: text}))
}

// PostSnapshotDone reports the end of a snapshot conversion from any goroutine.
func PostSnapshotDone(bus media.Bus, path string, err error) bool {
	fields := map[string]string{fieldLocation: path}
	if err != nil {
		fields[fieldError] = err.Error()
	}
	return bus.Post(media.NewApplicationMessage(SnapshotDoneMessage, fields))
}

// Translate maps a bus message to an event. Messages the session does not
// care about report false.
func Translate(m media.Message) (Event, bool) {
	switch m.Kind {
	case media.MessageError:
		return Event{Kind: EventError, Source: m.Source, Text: m.Text, Debug: m.Debug}, true
	case media.MessageForwardedEOS:
		return Event{Kind: EventBranchEOS, Source: m.Source}, true
	case media.MessageStateChanged:
		if m.State == media.StatePlaying {
			return Event{Kind: EventPlaying, Source: m.Source}, true
		}
	case media.MessageApplication:
		switch m.Name {
		case WarningMessage:
			return Event{Kind: EventWarning, Source: m.Source, Text: m.Field(fieldText)}, true
		case SnapshotDoneMessage:
			ev := Event{Kind: EventSnapshotDone, Source: m.Source, Path: m.Field(fieldLocation)}
			if msg := m.Field(fieldError); msg != "" {
				ev.Err = errors.New(msg)
			}
			return ev, true
		}
	}
	return Event{}, false
}

// Relay pumps one bus.
type Relay struct {
	bus      media.Bus
	post     func(func()) bool
	handle   func(Event)
	interval time.Duration
	logger   zerolog.Logger
}

// New creates a relay that calls handle on the loop reached through post.
func New(bus media.Bus, post func(func()) bool, handle func(Event)) *Relay {
	return &Relay{
		bus:      bus,
		post:     post,
		handle:   handle,
		interval: DefaultPollInterval,
		logger:   logging.WithComponent("relay"),
	}
}

// Run pops messages until ctx is cancelled or the loop stops accepting work.
func (r *Relay) Run(ctx context.Context) error {
	r.logger.Debug().Str("event", "relay.start").Msg("bus relay started")
	defer r.logger.Debug().Str("event", "relay.stop").Msg("bus relay stopped")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		msg, ok := r.bus.Pop(r.interval)
		if !ok {
			continue
		}
		ev, ok := Translate(msg)
		if !ok {
			r.logger.Debug().
				Str("event", "relay.skip").
				Str("kind", msg.Kind.String()).
				Str("source", msg.Source).
				Msg("ignoring bus message")
			continue
		}
		if !r.post(func() { r.handle(ev) }) {
			return nil
		}
	}
}
