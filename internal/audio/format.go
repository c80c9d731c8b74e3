package audio

import (
	"errors"
	"fmt"
)

// Direction selects which side of the hardware a format applies to.
type Direction string

const (
	DirectionCapture  Direction = "capture"
	DirectionPlayback Direction = "playback"
)

// The working format is fixed for the whole process: raw linear PCM,
// 16-bit signed little-endian samples, single channel, 44100 Hz. The
// recording file carries no header, so every reader and writer must
// agree on these values out-of-band.
const (
	DefaultSampleRate = 44100
	DefaultBitDepth   = 16
	DefaultChannels   = 1
)

// ErrUnsupportedFormat is returned when the platform reports no valid
// buffer size or stream configuration for a format.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Format describes one PCM stream configuration.
type Format struct {
	SampleRate int
	BitDepth   int
	Channels   int
	Direction  Direction
}

// DefaultFormat returns the process-wide format for the given direction.
func DefaultFormat(dir Direction) Format {
	return Format{
		SampleRate: DefaultSampleRate,
		BitDepth:   DefaultBitDepth,
		Channels:   DefaultChannels,
		Direction:  dir,
	}
}

// Validate checks that the format is one this engine can move through
// the device layer.
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive, got %d", ErrUnsupportedFormat, f.SampleRate)
	}
	if f.BitDepth != 16 {
		return fmt.Errorf("%w: only 16-bit PCM is supported, got %d bits", ErrUnsupportedFormat, f.BitDepth)
	}
	if f.Channels != 1 {
		return fmt.Errorf("%w: only mono is supported, got %d channels", ErrUnsupportedFormat, f.Channels)
	}
	if f.Direction != DirectionCapture && f.Direction != DirectionPlayback {
		return fmt.Errorf("%w: unknown direction %q", ErrUnsupportedFormat, f.Direction)
	}
	return nil
}

// BytesPerFrame is the size of one sample frame across all channels.
func (f Format) BytesPerFrame() int {
	return f.Channels * f.BitDepth / 8
}
