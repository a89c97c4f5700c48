//go:build !linux && !darwin && !windows

package webcam

import "fmt"

// DetectDevice always fails; the engine picks a camera itself.
func DetectDevice() (string, error) {
	return "", fmt.Errorf("webcam detection is not supported on this platform")
}

// ListDevices returns nothing on unsupported platforms
func ListDevices() []string {
	return nil
}
