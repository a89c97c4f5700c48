package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kartoza/kartoza-webcam-viewer/internal/config"
	"github.com/kartoza/kartoza-webcam-viewer/internal/models"
	"github.com/kartoza/kartoza-webcam-viewer/internal/session"
	"github.com/spf13/cobra"
)

var (
	snapshotTimer  int
	snapshotFormat string
	snapshotDir    string
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Take a single snapshot and exit",
	Long: `Start the camera, take one snapshot and print the file it was written to.

Flags override the stored settings for this run only.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configureLogging(os.Stderr, "warn")

		var format models.SnapshotFormat
		if snapshotFormat != "" {
			f, err := models.ParseSnapshotFormat(snapshotFormat)
			if err != nil {
				return err
			}
			format = f
		}
		timerSet := cmd.Flags().Changed("timer")

		h := newHeadless(cmd.OutOrStdout(), cmd.ErrOrStderr())
		a, err := newApp(appOptions{
			Sink: h.Sink,
			Settings: func(store *config.Store) session.Settings {
				return overrides{store: store, apply: func(s *config.Settings) {
					if timerSet {
						s.Timer = snapshotTimer
					}
					if format != "" {
						s.SnapshotFormat = format
					}
					if snapshotDir != "" {
						s.SnapshotDir = snapshotDir
					}
				}}
			},
			OnMissing: printMissing,
		})
		if err != nil {
			return err
		}

		return a.run(cmd.Context(), func(ctx context.Context) error {
			defer h.close()
			if err := h.startCamera(ctx, a); err != nil {
				return h.shutdown(ctx, a, err)
			}

			a.ctrl.Send(session.Command{Action: session.ActionSnapshot, Active: true})
			timer := config.ClampTimer(snapshotTimer)
			if !timerSet {
				timer = a.store.Get().Timer
			}
			err := h.wait(ctx, time.Duration(timer)*time.Second+15*time.Second, nil, func(n session.Notice) (bool, error) {
				switch n.Kind {
				case session.NoticeCountdown:
					if n.Remaining > 0 {
						fmt.Fprintf(h.errOut, "%d...\n", n.Remaining)
					}
				case session.NoticeWarning:
					return true, errors.New(n.Text)
				case session.NoticeSnapshotSaved:
					fmt.Fprintln(h.out, n.Path)
					return true, nil
				}
				return false, nil
			})
			if errors.Is(err, errTimeout) {
				err = fmt.Errorf("snapshot was not saved")
			}
			return h.shutdown(ctx, a, err)
		})
	},
}

func init() {
	snapshotCmd.Flags().IntVarP(&snapshotTimer, "timer", "t", 0, "Countdown in seconds, 0-15 (default: from settings)")
	snapshotCmd.Flags().StringVarP(&snapshotFormat, "format", "f", "", "Image format: jpeg or png (default: from settings)")
	snapshotCmd.Flags().StringVarP(&snapshotDir, "dir", "d", "", "Output directory (default: from settings)")
}
