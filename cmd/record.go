package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/audiolooplab/echonote/internal/service"
	"github.com/audiolooplab/echonote/internal/session"

	"github.com/spf13/cobra"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record from the microphone, then play the take back",
	Long: `Record from the default microphone into the working file until
interrupted with Ctrl+C, then immediately play the take back through
the default speaker. The previous contents of the working file are
overwritten.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := service.New(cfg, slog.Default())
		if err != nil {
			return fmt.Errorf("failed to create service: %w", err)
		}
		defer svc.Close()

		slog.Info("Starting recording", "file", cfg.Recording.File)
		if err := svc.Start(); err != nil {
			if errors.Is(err, session.ErrPermissionRequired) {
				return fmt.Errorf("microphone access is disabled; set recording.allow_microphone to true")
			}
			return fmt.Errorf("failed to start recording: %w", err)
		}

		slog.Info("Recording... Press Ctrl+C to stop and play back")

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		slog.Info("Stopping recording, starting playback")
		if err := svc.StopAndPlay(); err != nil {
			return fmt.Errorf("failed to stop recording: %w", err)
		}

		svc.Wait()

		info := svc.Status().LastRecording
		slog.Info("Done", "bytes", info.Bytes, "duration", info.Duration)
		return nil
	},
}
