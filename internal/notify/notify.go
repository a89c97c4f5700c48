package notify

import (
	"os/exec"
	"path/filepath"
)

// Urgency levels for notifications
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyNormal   Urgency = "normal"
	UrgencyCritical Urgency = "critical"
)

const appName = "Webcam Viewer"

var run = func(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

// Available reports whether notify-send is installed
func Available() bool {
	_, err := exec.LookPath("notify-send")
	return err == nil
}

// Send sends a desktop notification using notify-send
func Send(title, body string, urgency Urgency, icon string) error {
	args := []string{"--app-name=" + appName, title, body}

	if urgency != "" {
		args = append(args, "--urgency="+string(urgency))
	}

	if icon != "" {
		args = append(args, "--icon="+icon)
	}

	return run("notify-send", args...)
}

// Info sends an informational notification
func Info(title, body string) error {
	return Send(title, body, UrgencyNormal, "camera-web")
}

// Warning sends a warning notification
func Warning(title, body string) error {
	return Send(title, body, UrgencyLow, "dialog-warning")
}

// Error sends an error notification
func Error(title, body string) error {
	return Send(title, body, UrgencyCritical, "dialog-error")
}

// SnapshotSaved notifies that a snapshot file was written
func SnapshotSaved(path string) error {
	return Send("Snapshot", filepath.Base(path)+" saved", UrgencyNormal, "camera-photo")
}

// RecordingStarted notifies that recording has started
func RecordingStarted(path string) error {
	return Send("Recording", "Recording to "+filepath.Base(path)+"...", UrgencyNormal, "media-record")
}

// RecordingComplete notifies that a recording file is complete
func RecordingComplete(path string) error {
	return Info("Recording Complete", filepath.Base(path)+" saved!")
}
