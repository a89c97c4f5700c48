package notify

import (
	"errors"
	"reflect"
	"testing"
)

func capture(t *testing.T, err error) *[][]string {
	t.Helper()
	var calls [][]string
	prev := run
	run = func(name string, args ...string) error {
		calls = append(calls, append([]string{name}, args...))
		return err
	}
	t.Cleanup(func() { run = prev })
	return &calls
}

func TestSend(t *testing.T) {
	calls := capture(t, nil)

	if err := Send("Title", "Body", UrgencyCritical, "dialog-error"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	want := []string{"notify-send", "--app-name=Webcam Viewer", "Title", "Body", "--urgency=critical", "--icon=dialog-error"}
	if len(*calls) != 1 || !reflect.DeepEqual((*calls)[0], want) {
		t.Errorf("expected %v, got %v", want, *calls)
	}
}

func TestSend_OmitsEmptyOptions(t *testing.T) {
	calls := capture(t, nil)

	_ = Send("Title", "Body", "", "")
	want := []string{"notify-send", "--app-name=Webcam Viewer", "Title", "Body"}
	if !reflect.DeepEqual((*calls)[0], want) {
		t.Errorf("expected %v, got %v", want, (*calls)[0])
	}
}

func TestDomainNotifications(t *testing.T) {
	calls := capture(t, nil)

	_ = SnapshotSaved("/home/me/Pictures/Snapshot 2024-03-09 14:05:07.jpg")
	_ = RecordingStarted("/home/me/Videos/Recording 2024-03-09 14:05:07.mp4")
	_ = RecordingComplete("/home/me/Videos/Recording 2024-03-09 14:05:07.mp4")

	if len(*calls) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(*calls))
	}
	if got := (*calls)[0][3]; got != "Snapshot 2024-03-09 14:05:07.jpg saved" {
		t.Errorf("unexpected snapshot body %q", got)
	}
	if got := (*calls)[1][3]; got != "Recording to Recording 2024-03-09 14:05:07.mp4..." {
		t.Errorf("unexpected recording body %q", got)
	}
	if got := (*calls)[2][2]; got != "Recording Complete" {
		t.Errorf("unexpected title %q", got)
	}
}

func TestSend_PropagatesError(t *testing.T) {
	boom := errors.New("exit status 1")
	capture(t, boom)

	if err := Warning("Title", "Body"); !errors.Is(err, boom) {
		t.Errorf("expected %v, got %v", boom, err)
	}
}
