package webcam

import (
	"testing"

	"github.com/kartoza/kartoza-webcam-viewer/internal/deps"
)

func TestSourceFor(t *testing.T) {
	tests := []struct {
		os     deps.OS
		device string
		want   string
	}{
		{deps.OSLinux, "", AutoSource},
		{deps.OSLinux, "video2", "v4l2src device=/dev/video2"},
		{deps.OSLinux, "/dev/video0", "v4l2src device=/dev/video0"},
		{deps.OSDarwin, "1", "avfvideosrc device-index=1"},
		{deps.OSDarwin, "FaceTime", AutoSource},
		{deps.OSWindows, "0", "ksvideosrc device-index=0"},
		{deps.OSWindows, "video=Integrated Camera", `ksvideosrc device-name="Integrated Camera"`},
		{deps.OSUnknown, "video0", AutoSource},
	}

	for _, tt := range tests {
		if got := SourceFor(tt.os, tt.device); got != tt.want {
			t.Errorf("SourceFor(%s, %q) = %q, want %q", tt.os, tt.device, got, tt.want)
		}
	}
}

func TestSource_ExplicitDevice(t *testing.T) {
	want := SourceFor(deps.DetectOS(), "0")
	if got := Source("0"); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
