package cmd

import (
	"fmt"
	"log/slog"

	"github.com/audiolooplab/echonote/internal/service"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export [destination.wav]",
	Short: "Export the working file as a WAV file",
	Long: `Wrap the raw PCM working file in a WAV header and write it to the
given destination. The working file itself is left untouched.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dst := args[0]

		svc, err := service.New(cfg, slog.Default())
		if err != nil {
			return fmt.Errorf("failed to create service: %w", err)
		}
		defer svc.Close()

		if err := svc.Export(dst); err != nil {
			return fmt.Errorf("failed to export: %w", err)
		}
		fmt.Printf("Exported %s to %s\n", cfg.Recording.File, dst)
		return nil
	},
}
