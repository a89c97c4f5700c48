package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kartoza/kartoza-webcam-viewer/internal/config"
	"github.com/kartoza/kartoza-webcam-viewer/internal/models"
	"github.com/kartoza/kartoza-webcam-viewer/internal/session"
	"github.com/spf13/cobra"
)

var (
	recordDuration time.Duration
	recordFormat   string
	recordDir      string
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record the camera until interrupted",
	Long: `Start the camera and record it to a file.

Recording stops after --duration, or on Ctrl+C. The file is finished
before the command exits.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configureLogging(os.Stderr, "warn")

		var format models.RecordFormat
		if recordFormat != "" {
			f, err := models.ParseRecordFormat(recordFormat)
			if err != nil {
				return err
			}
			format = f
		}

		h := newHeadless(cmd.OutOrStdout(), cmd.ErrOrStderr())
		a, err := newApp(appOptions{
			Sink: h.Sink,
			Settings: func(store *config.Store) session.Settings {
				return overrides{store: store, apply: func(s *config.Settings) {
					if format != "" {
						s.RecordFormat = format
					}
					if recordDir != "" {
						s.RecordDir = recordDir
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

			a.ctrl.Send(session.Command{Action: session.ActionRecord, Active: true})
			err := h.wait(ctx, 5*time.Second, nil, func(n session.Notice) (bool, error) {
				switch n.Kind {
				case session.NoticeRecordingStarted:
					fmt.Fprintf(h.errOut, "Recording to %s (Ctrl+C to stop)\n", n.Path)
					return true, nil
				case session.NoticeRecordToggleReset:
					return true, fmt.Errorf("recording did not start")
				}
				return false, nil
			})
			if errors.Is(err, errTimeout) {
				err = fmt.Errorf("recording did not start")
			}
			if err != nil {
				return h.shutdown(ctx, a, err)
			}

			stopCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			err = h.wait(stopCtx, recordDuration, nil, nil)
			stop()
			if errors.Is(err, errTimeout) || (errors.Is(err, context.Canceled) && ctx.Err() == nil) {
				err = nil
			}
			return h.shutdown(ctx, a, err)
		})
	},
}

func init() {
	recordCmd.Flags().DurationVar(&recordDuration, "duration", 0, "Stop after this long, e.g. 30s (default: until interrupted)")
	recordCmd.Flags().StringVarP(&recordFormat, "format", "f", "", "Recording format: h264/mp4 or vp8/webm (default: from settings)")
	recordCmd.Flags().StringVarP(&recordDir, "dir", "d", "", "Output directory (default: from settings)")
}
