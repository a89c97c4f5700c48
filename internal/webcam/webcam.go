// Package webcam finds capture devices and turns them into the source
// element description the live graph starts from.
package webcam

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kartoza/kartoza-webcam-viewer/internal/deps"
)

// AutoSource lets the engine pick a camera
const AutoSource = "autovideosrc"

// Source returns the capture description for device on this machine. An
// empty device is detected; if nothing is found the engine picks one.
func Source(device string) string {
	if device == "" {
		if d, err := DetectDevice(); err == nil {
			device = d
		}
	}
	return SourceFor(deps.DetectOS(), device)
}

// SourceFor returns the capture description for device on the given
// platform
func SourceFor(os deps.OS, device string) string {
	if device == "" {
		return AutoSource
	}

	switch os {
	case deps.OSLinux:
		if !strings.HasPrefix(device, "/") {
			device = "/dev/" + device
		}
		return "v4l2src device=" + device
	case deps.OSDarwin:
		if _, err := strconv.Atoi(device); err != nil {
			return AutoSource
		}
		return "avfvideosrc device-index=" + device
	case deps.OSWindows:
		if _, err := strconv.Atoi(device); err == nil {
			return "ksvideosrc device-index=" + device
		}
		return fmt.Sprintf("ksvideosrc device-name=%q", strings.TrimPrefix(device, "video="))
	default:
		return AutoSource
	}
}
