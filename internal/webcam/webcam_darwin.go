//go:build darwin

package webcam

// DetectDevice finds the first available webcam device on macOS
func DetectDevice() (string, error) {
	// avfvideosrc index 0 is normally the built-in camera
	return "0", nil
}

// ListDevices returns the camera indices to try
func ListDevices() []string {
	return []string{"0"}
}
