package audio

import "errors"

// ErrDeviceInit is returned when a hardware session fails to reach a
// ready state. The requested operation must be aborted and the caller
// left in its prior state.
var ErrDeviceInit = errors.New("audio device initialization failed")

// CaptureSession owns one open hardware input handle. Exactly one
// instance may exist at a time system-wide: the microphone is an
// exclusive resource. Stop then Release must be called as a pair, in
// that order, exactly once; a session is never reused after Release.
type CaptureSession interface {
	// Start begins hardware capture. Calling Start twice is a caller
	// error with undefined behavior.
	Start() error

	// ReadChunk blocks until it fills up to len(p) bytes of captured
	// PCM. It may return fewer bytes than requested near stream
	// boundaries. A non-positive count or an error means the device is
	// unhealthy and the caller must stop consuming.
	ReadChunk(p []byte) (int, error)

	Stop() error
	Release() error
}

// PlaybackSession mirrors CaptureSession for the output direction.
type PlaybackSession interface {
	Start() error

	// WriteChunk blocks until the device accepts up to len(p) bytes.
	// A short write under backpressure is not a failure; only an error
	// return is fatal.
	WriteChunk(p []byte) (int, error)

	Stop() error
	Release() error
}

// Opener builds hardware sessions. The session controller is the only
// caller; tests substitute fake implementations.
type Opener interface {
	OpenCapture(f Format, bufferBytes int) (CaptureSession, error)
	OpenPlayback(f Format, bufferBytes int) (PlaybackSession, error)
}
