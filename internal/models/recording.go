package models

import "time"

// RecordingState represents the current state of a recording session
type RecordingState string

const (
	StateIdle      RecordingState = "idle"
	StateRecording RecordingState = "recording"
	// StateDraining means stop was requested and the file is being finalised
	StateDraining RecordingState = "draining"
)

// RecordingStatus is used for CLI/TUI status display
type RecordingStatus struct {
	State     RecordingState `json:"state"`
	Format    RecordFormat   `json:"format,omitempty"`
	File      string         `json:"file,omitempty"`
	Branch    string         `json:"branch,omitempty"`
	StartTime time.Time      `json:"start_time,omitempty"`
	StopTime  time.Time      `json:"stop_time,omitempty"`
}

// IsRecording reports whether frames are being written
func (s RecordingStatus) IsRecording() bool {
	return s.State == StateRecording
}

// Active reports whether a recording exists, draining or not
func (s RecordingStatus) Active() bool {
	return s.State == StateRecording || s.State == StateDraining
}

// Elapsed returns how long the recording has run, frozen once stop was requested
func (s RecordingStatus) Elapsed(now time.Time) time.Duration {
	if s.StartTime.IsZero() {
		return 0
	}
	if !s.StopTime.IsZero() {
		return s.StopTime.Sub(s.StartTime)
	}
	return now.Sub(s.StartTime)
}
