package deps

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/kartoza/kartoza-webcam-viewer/internal/media"
)

// OS identifies the host platform
type OS string

const (
	OSLinux   OS = "linux"
	OSDarwin  OS = "darwin"
	OSWindows OS = "windows"
	OSUnknown OS = "unknown"
)

// DetectOS returns the platform the binary runs on
func DetectOS() OS {
	switch runtime.GOOS {
	case "linux":
		return OSLinux
	case "darwin":
		return OSDarwin
	case "windows":
		return OSWindows
	default:
		return OSUnknown
	}
}

// GetOSName returns a human-readable name for the platform
func GetOSName() string {
	switch DetectOS() {
	case OSLinux:
		return "Linux"
	case OSDarwin:
		return "macOS"
	case OSWindows:
		return "Windows"
	default:
		return "Unknown"
	}
}

// Kind says how a dependency is looked up
type Kind int

const (
	// KindElement is a GStreamer element factory
	KindElement Kind = iota
	// KindCommand is an executable on PATH
	KindCommand
)

// Dependency represents a required external dependency
type Dependency struct {
	Name        string // Element factory or command name
	Description string // Human-readable description
	Required    bool   // If true, app cannot run without it
	Kind        Kind
}

// CheckResult contains the result of checking a dependency
type CheckResult struct {
	Dependency Dependency
	Available  bool
	Path       string // Path to the executable if found
	Error      error  // Error if check failed
}

// BaseDeps lists the elements the live preview needs on every platform
var BaseDeps = []Dependency{
	{Name: "tee", Description: "Splits the camera stream between preview and recording", Required: true},
	{Name: "queue", Description: "Decouples the preview and recording branches", Required: true},
	{Name: "videoconvert", Description: "Pixel format conversion", Required: true},
	{Name: "appsink", Description: "Hands preview frames to the terminal", Required: true},
	{Name: "autovideosrc", Description: "Fallback camera source", Required: true},
}

// sourceDeps lists the native camera source per platform
var sourceDeps = map[OS]Dependency{
	OSLinux:   {Name: "v4l2src", Description: "Video4Linux2 camera capture", Required: true},
	OSDarwin:  {Name: "avfvideosrc", Description: "AVFoundation camera capture", Required: true},
	OSWindows: {Name: "ksvideosrc", Description: "Kernel streaming camera capture", Required: true},
}

// OptionalDeps lists dependencies that enable individual features
var OptionalDeps = []Dependency{
	{Name: "x264enc", Description: "H.264 encoding for MP4 recordings"},
	{Name: "mp4mux", Description: "MP4 container for recordings"},
	{Name: "vp8enc", Description: "VP8 encoding for WebM recordings"},
	{Name: "webmmux", Description: "WebM container for recordings"},
	{Name: "filesink", Description: "Writes recordings to disk"},
	{Name: "jpegenc", Description: "JPEG snapshots"},
	{Name: "pngenc", Description: "PNG snapshots"},
	{Name: "audiotestsrc", Description: "Tone generator for countdown beeps"},
	{Name: "autoaudiosink", Description: "Audio output for countdown beeps"},
	{Name: "notify-send", Description: "Desktop notifications", Kind: KindCommand},
}

// GetRequiredDeps returns the required dependencies for the current platform
func GetRequiredDeps() []Dependency {
	deps := make([]Dependency, len(BaseDeps))
	copy(deps, BaseDeps)
	if src, ok := sourceDeps[DetectOS()]; ok {
		deps = append(deps, src)
	}
	return deps
}

// Check verifies if a single dependency is available. Elements are looked
// up in engine's registry.
func Check(engine media.Engine, dep Dependency) CheckResult {
	result := CheckResult{Dependency: dep}

	switch dep.Kind {
	case KindCommand:
		path, err := exec.LookPath(dep.Name)
		if err != nil {
			result.Error = err
			return result
		}
		result.Available = true
		result.Path = path
	default:
		if engine == nil {
			result.Error = fmt.Errorf("no media engine")
			return result
		}
		result.Available = engine.HasElement(dep.Name)
		if !result.Available {
			result.Error = fmt.Errorf("element %q not installed", dep.Name)
		}
	}

	return result
}

// CheckAll verifies all required and optional dependencies
func CheckAll(engine media.Engine) (required []CheckResult, optional []CheckResult) {
	for _, dep := range GetRequiredDeps() {
		required = append(required, Check(engine, dep))
	}
	for _, dep := range OptionalDeps {
		optional = append(optional, Check(engine, dep))
	}
	return required, optional
}

// MissingRequired returns a list of missing required dependencies
func MissingRequired(engine media.Engine) []CheckResult {
	var missing []CheckResult
	for _, dep := range GetRequiredDeps() {
		result := Check(engine, dep)
		if !result.Available {
			missing = append(missing, result)
		}
	}
	return missing
}

// HasAllRequired returns true if all required dependencies are available
func HasAllRequired(engine media.Engine) bool {
	return len(MissingRequired(engine)) == 0
}

// FormatMissing returns a formatted string of missing dependencies
func FormatMissing(results []CheckResult) string {
	if len(results) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Missing dependencies:\n\n")

	for _, r := range results {
		status := "MISSING"
		if r.Dependency.Required {
			status = "REQUIRED"
		}
		sb.WriteString(fmt.Sprintf("  • %s (%s)\n", r.Dependency.Name, status))
		sb.WriteString(fmt.Sprintf("    %s\n\n", r.Dependency.Description))
	}

	return sb.String()
}

// FormatAll returns a formatted string of all dependency check results
func FormatAll(required, optional []CheckResult) string {
	var sb strings.Builder

	sb.WriteString("Required dependencies:\n")
	for _, r := range required {
		status := "✓"
		if !r.Available {
			status = "✗"
		}
		sb.WriteString(fmt.Sprintf("  %s %s - %s\n", status, r.Dependency.Name, r.Dependency.Description))
		if r.Path != "" {
			sb.WriteString(fmt.Sprintf("      Path: %s\n", r.Path))
		}
	}

	sb.WriteString("\nOptional dependencies:\n")
	for _, r := range optional {
		status := "✓"
		if !r.Available {
			status = "○"
		}
		sb.WriteString(fmt.Sprintf("  %s %s - %s\n", status, r.Dependency.Name, r.Dependency.Description))
		if r.Path != "" {
			sb.WriteString(fmt.Sprintf("      Path: %s\n", r.Path))
		}
	}

	return sb.String()
}
