package models

import (
	"testing"
	"time"
)

func TestParseSnapshotFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    SnapshotFormat
		wantErr bool
	}{
		{"jpeg", SnapshotJPEG, false},
		{"JPG", SnapshotJPEG, false},
		{" png ", SnapshotPNG, false},
		{"gif", "", true},
	}

	for _, tt := range tests {
		got, err := ParseSnapshotFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSnapshotFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSnapshotFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSnapshotFormat_Properties(t *testing.T) {
	if SnapshotJPEG.Extension() != "jpg" || SnapshotJPEG.MediaType() != "image/jpeg" {
		t.Errorf("unexpected JPEG properties: %s %s", SnapshotJPEG.Extension(), SnapshotJPEG.MediaType())
	}
	if SnapshotPNG.Extension() != "png" || SnapshotPNG.MediaType() != "image/png" {
		t.Errorf("unexpected PNG properties: %s %s", SnapshotPNG.Extension(), SnapshotPNG.MediaType())
	}
}

func TestParseRecordFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    RecordFormat
		wantErr bool
	}{
		{"h264/mp4", RecordH264MP4, false},
		{"H264", RecordH264MP4, false},
		{"mp4", RecordH264MP4, false},
		{"VP8/WebM", RecordVP8WebM, false},
		{"webm", RecordVP8WebM, false},
		{"av1/mkv", "", true},
	}

	for _, tt := range tests {
		got, err := ParseRecordFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseRecordFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseRecordFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if RecordH264MP4.Extension() != "mp4" || RecordVP8WebM.Extension() != "webm" {
		t.Error("unexpected record format extensions")
	}
}

func TestUnmarshalText_Rejects(t *testing.T) {
	var s SnapshotFormat
	if err := s.UnmarshalText([]byte("bmp")); err == nil {
		t.Error("expected error for bmp")
	}
	var r RecordFormat
	if err := r.UnmarshalText([]byte("vp8")); err != nil || r != RecordVP8WebM {
		t.Errorf("UnmarshalText(vp8) = %q, %v", r, err)
	}
}

func TestRecordingStatus_Elapsed(t *testing.T) {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	idle := RecordingStatus{State: StateIdle}
	if idle.Elapsed(start) != 0 || idle.Active() {
		t.Error("idle status should have no elapsed time and not be active")
	}

	rec := RecordingStatus{State: StateRecording, StartTime: start}
	if got := rec.Elapsed(start.Add(90 * time.Second)); got != 90*time.Second {
		t.Errorf("Elapsed = %s, want 90s", got)
	}

	draining := RecordingStatus{State: StateDraining, StartTime: start, StopTime: start.Add(time.Minute)}
	if got := draining.Elapsed(start.Add(time.Hour)); got != time.Minute {
		t.Errorf("Elapsed while draining = %s, want 1m", got)
	}
	if draining.IsRecording() || !draining.Active() {
		t.Error("draining status should be active but not recording")
	}
}
