//go:build windows

package webcam

// DetectDevice finds the first available webcam device on Windows
func DetectDevice() (string, error) {
	return "0", nil
}

// ListDevices returns the camera indices to try
func ListDevices() []string {
	return []string{"0"}
}
