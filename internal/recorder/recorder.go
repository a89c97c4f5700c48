package recorder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kartoza/kartoza-webcam-viewer/internal/graph"
	"github.com/kartoza/kartoza-webcam-viewer/internal/logging"
	"github.com/kartoza/kartoza-webcam-viewer/internal/media"
	"github.com/kartoza/kartoza-webcam-viewer/internal/models"
	"github.com/rs/zerolog"
)

// ErrAlreadyRecording is returned by Start while a recording exists,
// including one that is still draining
var ErrAlreadyRecording = errors.New("recording already in progress")

// Sub-graph descriptions per format. The file sink is always named "sink".
const (
	h264Branch = "queue ! videoconvert ! x264enc tune=zerolatency ! video/x-h264,profile=baseline ! mp4mux ! filesink name=sink"
	vp8Branch  = "queue ! videoconvert ! vp8enc deadline=1 ! webmmux ! filesink name=sink"

	fileSinkName = "sink"
)

// FileTimeLayout is the timestamp layout used in output file names
const FileTimeLayout = "2006-01-02 15:04:05"

// Description returns the sub-graph description and file extension for format
func Description(format models.RecordFormat) (string, string) {
	if format == models.RecordVP8WebM {
		return vp8Branch, format.Extension()
	}
	return h264Branch, models.RecordH264MP4.Extension()
}

// FileName returns the output file name for a recording started at t
func FileName(t time.Time, ext string) string {
	return fmt.Sprintf("Recording %s.%s", t.Format(FileTimeLayout), ext)
}

// Recorder manages the single recording branch of a graph. It must only be
// used from the UI event loop.
type Recorder struct {
	graph  *graph.Graph
	branch *graph.Branch
	status models.RecordingStatus
	now    func() time.Time
	logger zerolog.Logger
}

// New creates a new Recorder
func New(g *graph.Graph) *Recorder {
	return &Recorder{
		graph:  g,
		status: models.RecordingStatus{State: models.StateIdle},
		now:    time.Now,
		logger: logging.WithComponent("recorder"),
	}
}

// Status returns the current recording status
func (r *Recorder) Status() models.RecordingStatus {
	return r.status
}

// Branch returns the live branch, or nil
func (r *Recorder) Branch() *graph.Branch {
	return r.branch
}

// Start starts recording the live feed into dir and returns the file path
func (r *Recorder) Start(format models.RecordFormat, dir string) (string, error) {
	if r.branch != nil {
		return "", ErrAlreadyRecording
	}

	// Ensure output directory exists
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	desc, ext := Description(format)
	started := r.now()
	path := filepath.Join(dir, FileName(started, ext))

	b, err := r.graph.AttachBranch(desc, func(bin media.Bin) error {
		sink, err := bin.ElementByName(fileSinkName)
		if err != nil {
			return fmt.Errorf("recording branch has no file sink: %w", err)
		}
		return sink.SetProperty("location", path)
	})
	if err != nil {
		return "", fmt.Errorf("failed to start recording: %w", err)
	}

	r.branch = b
	r.status = models.RecordingStatus{
		State:     models.StateRecording,
		Format:    format,
		File:      path,
		Branch:    b.Name(),
		StartTime: started,
	}
	r.logger.Info().
		Str("event", "recorder.started").
		Str("file", path).
		Str("branch", b.Name()).
		Msg("recording started")
	return path, nil
}

// Stop requests the recording to finish. The file is complete once
// HandleDrained reports it. It returns false when nothing is recording or a
// stop is already in progress.
func (r *Recorder) Stop() bool {
	if r.branch == nil || r.branch.State() != graph.BranchLinked {
		return false
	}
	r.graph.DetachBranch(r.branch)
	r.status.State = models.StateDraining
	r.status.StopTime = r.now()
	r.logger.Info().
		Str("event", "recorder.draining").
		Str("branch", r.branch.Name()).
		Msg("recording stop requested")
	return true
}

// HandleDrained finishes the recording whose branch posted a forwarded EOS.
// It returns the final status, or false when source is not this recording.
func (r *Recorder) HandleDrained(source string) (models.RecordingStatus, bool) {
	if r.branch == nil || r.branch.Name() != source {
		return models.RecordingStatus{}, false
	}
	if _, ok := r.graph.CompleteBranch(source); !ok {
		return models.RecordingStatus{}, false
	}

	finished := r.status
	r.branch = nil
	r.status = models.RecordingStatus{State: models.StateIdle}
	r.logger.Info().
		Str("event", "recorder.finished").
		Str("file", finished.File).
		Dur("duration", finished.Elapsed(r.now())).
		Msg("recording finished")
	return finished, true
}
