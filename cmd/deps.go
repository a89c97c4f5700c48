package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/kartoza/kartoza-webcam-viewer/internal/deps"
	"github.com/kartoza/kartoza-webcam-viewer/internal/media/gstengine"
	"github.com/kartoza/kartoza-webcam-viewer/internal/webcam"
	"github.com/spf13/cobra"
)

var depsCmd = &cobra.Command{
	Use:   "deps",
	Short: "Check for required dependencies",
	Long:  `Check that the GStreamer elements and helper programs the viewer uses are installed.`,
	Run: func(cmd *cobra.Command, args []string) {
		configureLogging(os.Stderr, "warn")
		required, optional := deps.CheckAll(gstengine.New())

		// Colors
		green := lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50"))
		red := lipgloss.NewStyle().Foreground(lipgloss.Color("#E95420"))
		gray := lipgloss.NewStyle().Foreground(lipgloss.Color("#9A9EA0"))
		cyan := lipgloss.NewStyle().Foreground(lipgloss.Color("#00BCD4"))
		bold := lipgloss.NewStyle().Bold(true)

		fmt.Println()
		fmt.Printf("%s %s\n", bold.Render("Platform:"), cyan.Render(deps.GetOSName()))
		fmt.Printf("%s %s\n", gray.Render("Camera source:"), webcam.Source(deviceName))
		if devices := webcam.ListDevices(); len(devices) > 0 {
			fmt.Printf("%s %v\n", gray.Render("Devices:"), devices)
		}
		fmt.Println()

		fmt.Println(bold.Render("Required Dependencies:"))
		fmt.Println()

		allRequiredOk := true
		for _, r := range required {
			var status string
			if r.Available {
				status = green.Render("✓")
			} else {
				status = red.Render("✗")
				allRequiredOk = false
			}
			fmt.Printf("  %s %s\n", status, bold.Render(r.Dependency.Name))
			fmt.Printf("    %s\n", gray.Render(r.Dependency.Description))
			fmt.Println()
		}

		fmt.Println(bold.Render("Optional Dependencies:"))
		fmt.Println()

		for _, r := range optional {
			var status string
			if r.Available {
				status = green.Render("✓")
			} else {
				status = gray.Render("○")
			}
			fmt.Printf("  %s %s\n", status, bold.Render(r.Dependency.Name))
			fmt.Printf("    %s\n", gray.Render(r.Dependency.Description))
			if r.Path != "" {
				fmt.Printf("    Path: %s\n", r.Path)
			}
			fmt.Println()
		}

		if allRequiredOk {
			fmt.Println(green.Render("All required dependencies are installed!"))
		} else {
			fmt.Println(red.Render("Some required dependencies are missing."))
			fmt.Println("Please install them before using the application.")
		}
		fmt.Println()
	},
}

// printMissing reports missing elements for the non-interactive commands
func printMissing(missing []deps.CheckResult) {
	fmt.Fprint(os.Stderr, deps.FormatMissing(missing))
	fmt.Fprintln(os.Stderr, "Run 'kartoza-webcam-viewer deps' for details.")
}
