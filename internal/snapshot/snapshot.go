// Package snapshot saves the frame currently on display as an image file.
package snapshot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2"
	"github.com/kartoza/kartoza-webcam-viewer/internal/graph"
	"github.com/kartoza/kartoza-webcam-viewer/internal/logging"
	"github.com/kartoza/kartoza-webcam-viewer/internal/models"
	"github.com/kartoza/kartoza-webcam-viewer/internal/relay"
	"github.com/rs/zerolog"
)

// ErrSnapshotPending is returned when a snapshot is requested while the
// previous one is still being converted.
var ErrSnapshotPending = errors.New("snapshot already in progress")

// ConversionTimeout bounds the conversion of one frame.
const ConversionTimeout = 5 * time.Second

// FileName returns the output file name for a snapshot taken at t.
func FileName(t time.Time, ext string) string {
	return fmt.Sprintf("Snapshot %s.%s", t.Format("2006-01-02 15:04:05"), ext)
}

// Snapshotter takes at most one snapshot at a time. Take and Complete run on
// the UI loop; the conversion and file write happen on engine threads and
// report back through the bus.
type Snapshotter struct {
	graph   *graph.Graph
	pending string
	now     func() time.Time
	timeout time.Duration
	logger  zerolog.Logger
}

// New creates a snapshotter reading frames from g.
func New(g *graph.Graph) *Snapshotter {
	return &Snapshotter{
		graph:   g,
		now:     time.Now,
		timeout: ConversionTimeout,
		logger:  logging.WithComponent("snapshot"),
	}
}

// Pending reports whether a conversion is in flight.
func (s *Snapshotter) Pending() bool { return s.pending != "" }

// Take converts the displayed frame to format and writes it into dir. It
// returns the path the file will have, or "" without error when no frame has
// been displayed yet. Conversion and write failures are posted to the bus as
// warnings; completion is always posted as a snapshot-done message.
func (s *Snapshotter) Take(format models.SnapshotFormat, dir string) (string, error) {
	if s.Pending() {
		return "", ErrSnapshotPending
	}

	sample, ok := s.graph.LastSample()
	if !ok {
		s.logger.Debug().Str("event", "snapshot.no_frame").Msg("no frame displayed yet")
		return "", nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	path := filepath.Join(dir, FileName(s.now(), format.Extension()))
	s.pending = path

	bus, logger := s.graph.Bus(), s.logger
	s.graph.Engine().ConvertSample(sample, format.MediaType(), s.timeout, func(data []byte, err error) {
		if err != nil {
			err = fmt.Errorf("failed to convert frame: %w", err)
		} else if werr := renameio.WriteFile(path, data, 0644); werr != nil {
			err = fmt.Errorf("failed to write %s: %w", path, werr)
		}
		if err != nil {
			logger.Warn().Err(err).Str("event", "snapshot.failed").Str("file", path).Msg("snapshot failed")
			relay.PostWarning(bus, err.Error())
		}
		relay.PostSnapshotDone(bus, path, err)
	})

	s.logger.Info().
		Str("event", "snapshot.requested").
		Str("file", path).
		Str("format", string(format)).
		Msg("snapshot conversion started")
	return path, nil
}

// Complete clears the in-flight conversion for path and reports whether it
// was the pending one.
func (s *Snapshotter) Complete(path string, err error) bool {
	if s.pending == "" || s.pending != path {
		return false
	}
	s.pending = ""
	if err == nil {
		s.logger.Info().Str("event", "snapshot.saved").Str("file", path).Msg("snapshot saved")
	}
	return true
}
