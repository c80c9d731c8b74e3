package audio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// Device describes one hardware endpoint visible to PortAudio.
type Device struct {
	Name              string  `json:"name"`
	MaxInputChannels  int     `json:"max_input_channels"`
	MaxOutputChannels int     `json:"max_output_channels"`
	DefaultSampleRate float64 `json:"default_sample_rate"`
	IsDefault         bool    `json:"is_default"`
}

// Devices groups endpoints by direction.
type Devices struct {
	Capture  []Device `json:"capture"`
	Playback []Device `json:"playback"`
}

// ListDevices enumerates the capture and playback devices currently
// visible to the platform.
func ListDevices() (Devices, error) {
	if err := portaudio.Initialize(); err != nil {
		return Devices{}, fmt.Errorf("initializing audio host: %w", err)
	}
	defer portaudio.Terminate()

	all, err := portaudio.Devices()
	if err != nil {
		return Devices{}, fmt.Errorf("enumerating devices: %w", err)
	}

	defIn, _ := portaudio.DefaultInputDevice()
	defOut, _ := portaudio.DefaultOutputDevice()

	var res Devices
	for _, dev := range all {
		d := Device{
			Name:              dev.Name,
			MaxInputChannels:  dev.MaxInputChannels,
			MaxOutputChannels: dev.MaxOutputChannels,
			DefaultSampleRate: dev.DefaultSampleRate,
		}
		if dev.MaxInputChannels > 0 {
			d.IsDefault = defIn != nil && dev.Name == defIn.Name
			res.Capture = append(res.Capture, d)
		}
		if dev.MaxOutputChannels > 0 {
			d.IsDefault = defOut != nil && dev.Name == defOut.Name
			res.Playback = append(res.Playback, d)
		}
	}
	return res, nil
}
