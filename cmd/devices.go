package cmd

import (
	"fmt"

	"github.com/audiolooplab/echonote/internal/audio"

	"github.com/spf13/cobra"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List available audio devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		devices, err := audio.ListDevices()
		if err != nil {
			return fmt.Errorf("failed to list devices: %w", err)
		}

		fmt.Println("Capture devices:")
		printDevices(devices.Capture, func(d audio.Device) int { return d.MaxInputChannels })
		fmt.Println()
		fmt.Println("Playback devices:")
		printDevices(devices.Playback, func(d audio.Device) int { return d.MaxOutputChannels })
		return nil
	},
}

func printDevices(list []audio.Device, channels func(audio.Device) int) {
	if len(list) == 0 {
		fmt.Println("  (none)")
		return
	}
	for _, d := range list {
		marker := " "
		if d.IsDefault {
			marker = "*"
		}
		fmt.Printf("  %s %s (%d ch, %.0f Hz)\n", marker, d.Name, channels(d), d.DefaultSampleRate)
	}
}
