package audio

import (
	"fmt"
	"log/slog"

	"github.com/gordonklaus/portaudio"
)

// Host opens hardware sessions through PortAudio. PortAudio reference-
// counts Initialize/Terminate pairs, so each session and query brackets
// its own pair and sequential record/play phases never fight over the
// library lifecycle.
type Host struct {
	log *slog.Logger
}

// NewHost returns a PortAudio-backed session opener.
func NewHost(log *slog.Logger) *Host {
	if log == nil {
		log = slog.Default()
	}
	return &Host{log: log}
}

// platformMinBufferBytes queries PortAudio for the minimum viable
// buffer for the format: the default device's low-latency window at the
// requested sample rate.
func platformMinBufferBytes(f Format) (int, error) {
	if err := portaudio.Initialize(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	defer portaudio.Terminate()

	var dev *portaudio.DeviceInfo
	var err error
	if f.Direction == DirectionCapture {
		dev, err = portaudio.DefaultInputDevice()
	} else {
		dev, err = portaudio.DefaultOutputDevice()
	}
	if err != nil || dev == nil {
		return 0, fmt.Errorf("%w: no default %s device: %v", ErrUnsupportedFormat, f.Direction, err)
	}

	latency := dev.DefaultLowInputLatency
	if f.Direction == DirectionPlayback {
		latency = dev.DefaultLowOutputLatency
	}

	frames := int(latency.Seconds() * float64(f.SampleRate))
	if frames <= 0 {
		return 0, fmt.Errorf("%w: device %q reported no valid buffer size", ErrUnsupportedFormat, dev.Name)
	}
	return frames * f.BytesPerFrame(), nil
}

// captureStream wraps a blocking PortAudio input stream.
type captureStream struct {
	log    *slog.Logger
	stream *portaudio.Stream
	buf    []int16

	started  bool
	stopped  bool
	released bool
}

// OpenCapture allocates and starts tracking a hardware input handle.
// One blocking read fills half the device buffer, which is the chunk
// size the loops move per iteration.
func (h *Host) OpenCapture(f Format, bufferBytes int) (CaptureSession, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	chunkFrames := bufferBytes / 2 / f.BytesPerFrame()
	if chunkFrames < 1 {
		return nil, fmt.Errorf("%w: buffer of %d bytes holds no frames", ErrDeviceInit, bufferBytes)
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceInit, err)
	}

	buf := make([]int16, chunkFrames)
	stream, err := portaudio.OpenDefaultStream(f.Channels, 0, float64(f.SampleRate), chunkFrames, buf)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("%w: %v", ErrDeviceInit, err)
	}
	// The open call can succeed while the device is already gone
	// (permission revoked or unplugged between enumeration and open),
	// so check the stream actually reached a ready state.
	if stream.Info() == nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("%w: capture stream did not initialize", ErrDeviceInit)
	}

	h.log.Debug("Capture session opened", "buffer_bytes", bufferBytes, "chunk_frames", chunkFrames)
	return &captureStream{log: h.log, stream: stream, buf: buf}, nil
}

func (c *captureStream) Start() error {
	c.started = true
	return c.stream.Start()
}

func (c *captureStream) ReadChunk(p []byte) (int, error) {
	if err := c.stream.Read(); err != nil {
		return 0, err
	}
	n := len(c.buf) * 2
	if n > len(p) {
		n = len(p) &^ 1
	}
	int16ToBytesLE(c.buf[:n/2], p[:n])
	return n, nil
}

func (c *captureStream) Stop() error {
	if !c.started || c.stopped {
		return fmt.Errorf("capture session stop called out of order")
	}
	c.stopped = true
	return c.stream.Stop()
}

func (c *captureStream) Release() error {
	if c.released {
		return fmt.Errorf("capture session already released")
	}
	c.released = true
	err := c.stream.Close()
	portaudio.Terminate()
	return err
}

// playbackStream wraps a blocking PortAudio output stream.
type playbackStream struct {
	log    *slog.Logger
	stream *portaudio.Stream
	buf    []int16

	started  bool
	stopped  bool
	released bool
}

// OpenPlayback allocates a hardware output handle, mirroring
// OpenCapture for the playback direction.
func (h *Host) OpenPlayback(f Format, bufferBytes int) (PlaybackSession, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	chunkFrames := bufferBytes / 2 / f.BytesPerFrame()
	if chunkFrames < 1 {
		return nil, fmt.Errorf("%w: buffer of %d bytes holds no frames", ErrDeviceInit, bufferBytes)
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceInit, err)
	}

	buf := make([]int16, chunkFrames)
	stream, err := portaudio.OpenDefaultStream(0, f.Channels, float64(f.SampleRate), chunkFrames, buf)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("%w: %v", ErrDeviceInit, err)
	}
	if stream.Info() == nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("%w: playback stream did not initialize", ErrDeviceInit)
	}

	h.log.Debug("Playback session opened", "buffer_bytes", bufferBytes, "chunk_frames", chunkFrames)
	return &playbackStream{log: h.log, stream: stream, buf: buf}, nil
}

func (p *playbackStream) Start() error {
	p.started = true
	return p.stream.Start()
}

func (p *playbackStream) WriteChunk(b []byte) (int, error) {
	n := len(b) &^ 1
	if n > len(p.buf)*2 {
		n = len(p.buf) * 2
	}
	bytesToInt16LE(b[:n], p.buf[:n/2])
	// The device consumes whole periods; a final short chunk is padded
	// with silence rather than left ringing with stale samples.
	for i := n / 2; i < len(p.buf); i++ {
		p.buf[i] = 0
	}
	if err := p.stream.Write(); err != nil {
		return 0, err
	}
	return n, nil
}

func (p *playbackStream) Stop() error {
	if !p.started || p.stopped {
		return fmt.Errorf("playback session stop called out of order")
	}
	p.stopped = true
	return p.stream.Stop()
}

func (p *playbackStream) Release() error {
	if p.released {
		return fmt.Errorf("playback session already released")
	}
	p.released = true
	err := p.stream.Close()
	portaudio.Terminate()
	return err
}
