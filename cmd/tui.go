package cmd

import (
	"context"
	"errors"

	"github.com/kartoza/kartoza-webcam-viewer/internal/deps"
	"github.com/kartoza/kartoza-webcam-viewer/internal/notify"
	"github.com/kartoza/kartoza-webcam-viewer/internal/tui"
	"github.com/spf13/cobra"
)

// errFatal is returned when the viewer closed on a fatal session error the
// user already saw
var errFatal = errors.New("camera session failed")

func runTUIApp(cmd *cobra.Command) error {
	logFile, err := openLogFile()
	if err != nil {
		return err
	}
	defer func() { _ = logFile.Close() }()
	configureLogging(logFile, "info")

	bridge := &tui.Bridge{}
	a, err := newApp(appOptions{
		Sink: bridge.Sink,
		OnMissing: func(missing []deps.CheckResult) {
			_ = tui.ShowDependencyError(missing)
		},
	})
	if err != nil {
		return err
	}

	opts := tui.Options{
		Send:     a.ctrl.Send,
		Surface:  a.ctrl.Surface(),
		Settings: a.store.Get,
		Device:   deviceName,
		Notify:   notify.Available(),
	}

	return a.run(cmd.Context(), func(ctx context.Context) error {
		m, err := tui.Run(opts, bridge)
		if err != nil {
			return err
		}
		if m.Fatal() {
			return errFatal
		}
		return nil
	})
}
