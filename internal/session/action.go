package session

import (
	"time"

	"github.com/kartoza/kartoza-webcam-viewer/internal/models"
)

// Action is the closed set of operations a front end can request.
type Action int

const (
	// ActionStart starts the live graph.
	ActionStart Action = iota
	// ActionStop stops the live graph, after finishing a running recording.
	ActionStop
	// ActionSnapshot toggles a (possibly timed) snapshot.
	ActionSnapshot
	// ActionRecord toggles recording.
	ActionRecord
	// ActionReloadSettings rereads the settings file.
	ActionReloadSettings
	// ActionShutdown finishes any recording and stops everything.
	ActionShutdown
)

func (a Action) String() string {
	switch a {
	case ActionStart:
		return "start"
	case ActionStop:
		return "stop"
	case ActionSnapshot:
		return "snapshot"
	case ActionRecord:
		return "record"
	case ActionReloadSettings:
		return "reload-settings"
	case ActionShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// Command is one request. Active carries the new state of toggle controls
// (snapshot and record); other actions ignore it.
type Command struct {
	Action Action
	Active bool
}

// NoticeKind classifies what the session tells its front end.
type NoticeKind int

const (
	// NoticeError is a recoverable error worth a dialog.
	NoticeError NoticeKind = iota
	// NoticeWarning is a recoverable problem with an operation.
	NoticeWarning
	// NoticeFatal means the session cannot continue; the front end should
	// report it and quit.
	NoticeFatal
	// NoticeCountdown updates the countdown overlay; Remaining 0 hides it.
	NoticeCountdown
	// NoticeSnapshotToggleReset asks for the snapshot control to pop back up.
	NoticeSnapshotToggleReset
	// NoticeRecordToggleReset asks for the record control to pop back up.
	NoticeRecordToggleReset
	// NoticeSnapshotSaved reports a written snapshot file.
	NoticeSnapshotSaved
	// NoticeRecordingStarted reports a new recording.
	NoticeRecordingStarted
	// NoticeRecordingStopping reports that a recording is being finalised.
	NoticeRecordingStopping
	// NoticeRecordingFinished reports a complete recording file.
	NoticeRecordingFinished
	// NoticeStopped is the last notice, sent when shutdown completes.
	NoticeStopped
)

func (k NoticeKind) String() string {
	switch k {
	case NoticeError:
		return "error"
	case NoticeWarning:
		return "warning"
	case NoticeFatal:
		return "fatal"
	case NoticeCountdown:
		return "countdown"
	case NoticeSnapshotToggleReset:
		return "snapshot-toggle-reset"
	case NoticeRecordToggleReset:
		return "record-toggle-reset"
	case NoticeSnapshotSaved:
		return "snapshot-saved"
	case NoticeRecordingStarted:
		return "recording-started"
	case NoticeRecordingStopping:
		return "recording-stopping"
	case NoticeRecordingFinished:
		return "recording-finished"
	case NoticeStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Notice is one outward event.
type Notice struct {
	Kind NoticeKind
	// Text describes errors and warnings.
	Text string
	// Path is the file of snapshot and recording notices.
	Path string
	// Remaining is the countdown value.
	Remaining int
	// Recording is the recording status for recording notices.
	Recording models.RecordingStatus
	// At is when the notice was raised.
	At time.Time
}
