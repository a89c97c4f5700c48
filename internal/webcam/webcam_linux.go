//go:build linux

package webcam

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const deviceDir = "/dev"

// DetectDevice finds the first available webcam device
func DetectDevice() (string, error) {
	devices := listDevices(deviceDir)
	if len(devices) == 0 {
		return "", fmt.Errorf("no webcam device found")
	}
	return devices[0], nil
}

// ListDevices returns the video4linux device nodes, lowest number first
func ListDevices() []string {
	return listDevices(deviceDir)
}

func listDevices(dir string) []string {
	matches, err := filepath.Glob(filepath.Join(dir, "video*"))
	if err != nil {
		return nil
	}

	var devices []string
	for _, path := range matches {
		if _, err := strconv.Atoi(strings.TrimPrefix(filepath.Base(path), "video")); err != nil {
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		// Check for character device
		if info.Mode()&os.ModeCharDevice != 0 {
			devices = append(devices, path)
		}
	}

	sort.Slice(devices, func(i, j int) bool {
		a, _ := strconv.Atoi(strings.TrimPrefix(filepath.Base(devices[i]), "video"))
		b, _ := strconv.Atoi(strings.TrimPrefix(filepath.Base(devices[j]), "video"))
		return a < b
	})
	return devices
}
