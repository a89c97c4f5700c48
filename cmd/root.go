package cmd

import (
	"fmt"
	"os"

	"github.com/kartoza/kartoza-webcam-viewer/internal/config"
	"github.com/spf13/cobra"
)

var (
	version    = "dev"
	debugMode  bool
	configPath string
	deviceName string
)

// SetVersion sets the application version (called from main)
func SetVersion(v string) {
	version = v
}

var rootCmd = &cobra.Command{
	Use:   "kartoza-webcam-viewer",
	Short: "Terminal webcam viewer with snapshots and recording",
	Long: `Kartoza Webcam Viewer shows a live camera preview in your terminal.

It supports:
  - Snapshots in JPEG or PNG, with an optional countdown (0-15 seconds)
  - Recording to H.264/MP4 or VP8/WebM while the preview keeps running
  - Settings stored in ` + config.FileName + ` and reloaded when the file changes

Run without a subcommand to start the interactive viewer.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUIApp(cmd)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Settings file (default: "+config.DefaultPath()+")")
	rootCmd.PersistentFlags().StringVar(&deviceName, "device", "", "Camera device, e.g. /dev/video2 or an index (default: auto-detect)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(depsCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(settingsCmd)
}

// settingsPath returns the --config value or the default location
func settingsPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultPath()
}
