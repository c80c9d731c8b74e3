package cmd

import (
	"fmt"
	"log/slog"

	"github.com/audiolooplab/echonote/internal/service"

	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play the working file through the speaker",
	Long: `Play the current contents of the working file through the default
speaker. Playback runs to the end of the file and exits.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := service.New(cfg, slog.Default())
		if err != nil {
			return fmt.Errorf("failed to create service: %w", err)
		}
		defer svc.Close()

		slog.Info("Starting playback", "file", cfg.Recording.File)
		if err := svc.Play(); err != nil {
			return fmt.Errorf("failed to start playback: %w", err)
		}
		svc.Wait()
		return nil
	},
}
