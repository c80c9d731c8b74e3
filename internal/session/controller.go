package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/audiolooplab/echonote/internal/audio"
	"github.com/audiolooplab/echonote/internal/metrics"
)

// State represents the current phase of the record/play cycle.
type State string

const (
	StateIdle      State = "IDLE"
	StateRecording State = "RECORDING"
	StatePlaying   State = "PLAYING"
)

var (
	// ErrPermissionRequired means the hosting environment has not
	// granted microphone access. Recoverable: grant and re-issue.
	ErrPermissionRequired = errors.New("microphone permission required")

	// ErrFileUnavailable means the working file could not be opened.
	ErrFileUnavailable = errors.New("recording file unavailable")

	// ErrInvalidTransition means the requested operation is not legal
	// in the current state.
	ErrInvalidTransition = errors.New("invalid state transition")
)

// PermissionFunc reports whether microphone access is currently
// granted. It is supplied by the hosting environment.
type PermissionFunc func() bool

// RecordInfo summarizes the most recent finished recording.
type RecordInfo struct {
	Bytes    int64         `json:"bytes"`
	Duration time.Duration `json:"duration"`
}

// Params wires a Controller to its collaborators.
type Params struct {
	FilePath   string
	Opener     audio.Opener
	Sizer      *audio.Sizer
	Permission PermissionFunc
	Metrics    *metrics.Metrics
	Log        *slog.Logger
}

// Controller is the state machine that orchestrates the record and
// playback phases. It is the only component the UI layer talks to, and
// it holds at most one capture and at most one playback session, never
// both live at once.
//
// The recording flag is the sole cross-goroutine coordination variable:
// the controller writes it, the recording loop polls it. Stopping is
// cooperative; the loop exits at its next iteration boundary, so a
// final short read may still land in the file after the flag flips.
// A hung device read or write stalls the owning goroutine indefinitely;
// there is no timeout on blocking device I/O.
type Controller struct {
	log     *slog.Logger
	opener  audio.Opener
	sizer   *audio.Sizer
	file    string
	perm    PermissionFunc
	metrics *metrics.Metrics

	recording atomic.Bool

	mu         sync.Mutex
	state      State
	capture    audio.CaptureSession
	recordDone chan struct{}
	playDone   chan struct{}
	lastInfo   RecordInfo

	events chan Event
}

// New builds an idle controller.
func New(p Params) (*Controller, error) {
	if p.FilePath == "" {
		return nil, fmt.Errorf("working file path is required")
	}
	if p.Opener == nil || p.Sizer == nil {
		return nil, fmt.Errorf("device opener and buffer sizer are required")
	}
	log := p.Log
	if log == nil {
		log = slog.Default()
	}
	return &Controller{
		log:     log,
		opener:  p.Opener,
		sizer:   p.Sizer,
		file:    p.FilePath,
		perm:    p.Permission,
		metrics: p.Metrics,
		state:   StateIdle,
		events:  make(chan Event, 16),
	}, nil
}

// Events returns the notification stream. The channel is buffered;
// events are dropped, not blocked on, when no consumer keeps up.
func (c *Controller) Events() <-chan Event {
	return c.events
}

func (c *Controller) emit(ev Event) {
	select {
	case c.events <- ev:
	default:
		c.log.Debug("Dropping notification, no consumer", "event", string(ev))
	}
}

// State returns the current controller state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastRecordInfo returns a summary of the most recent finished
// recording.
func (c *Controller) LastRecordInfo() RecordInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastInfo
}

// RequestStart transitions Idle -> Recording: checks the permission
// gate, opens and starts a capture session, then hands off to the
// recording loop on a background goroutine. On any failure the
// controller stays Idle with no device handle held.
func (c *Controller) RequestStart() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateIdle {
		return fmt.Errorf("%w: can only start recording from idle state, current: %s", ErrInvalidTransition, c.state)
	}

	if c.perm != nil && !c.perm() {
		c.emit(EventPermissionRequired)
		c.log.Warn("Recording refused, microphone permission not granted")
		return ErrPermissionRequired
	}

	format := audio.DefaultFormat(audio.DirectionCapture)
	bufBytes, err := c.sizer.BufferBytes(format)
	if err != nil {
		return fmt.Errorf("sizing capture buffer: %w", err)
	}

	sess, err := c.opener.OpenCapture(format, bufBytes)
	if err != nil {
		return fmt.Errorf("opening capture session: %w", err)
	}
	if err := sess.Start(); err != nil {
		c.releaseSession(sess)
		return fmt.Errorf("starting capture session: %w", err)
	}

	c.capture = sess
	c.recording.Store(true)
	c.recordDone = make(chan struct{})
	c.state = StateRecording
	if c.metrics != nil {
		c.metrics.RecordingsStarted.Inc()
		c.metrics.SetState(string(StateRecording))
	}
	c.emit(EventRecordingStarted)
	c.log.Info("Recording started", "file", c.file, "buffer_bytes", bufBytes)

	go c.recordLoop(sess, bufBytes/2, c.recordDone)
	return nil
}

// RequestStopAndPlay transitions Recording -> Playing. Clearing the
// recording flag is the only stop signal the recording loop observes;
// the capture session is stopped and released once the loop drains,
// then the playback loop runs to end-of-file and the controller
// returns to Idle on its own.
func (c *Controller) RequestStopAndPlay() error {
	c.mu.Lock()
	if c.state != StateRecording {
		c.mu.Unlock()
		return fmt.Errorf("%w: can only stop and play from recording state, current: %s", ErrInvalidTransition, c.state)
	}

	c.recording.Store(false)
	sess := c.capture
	c.capture = nil
	done := c.recordDone
	c.recordDone = nil
	c.state = StatePlaying
	c.playDone = make(chan struct{})
	playDone := c.playDone
	if c.metrics != nil {
		c.metrics.SetState(string(StatePlaying))
	}
	c.mu.Unlock()

	go func() {
		<-done
		c.releaseSession(sess)
		c.emit(EventRecordingStopped)
		c.log.Info("Recording stopped")

		c.playLoop()

		c.mu.Lock()
		c.state = StateIdle
		c.playDone = nil
		c.mu.Unlock()
		if c.metrics != nil {
			c.metrics.SetState(string(StateIdle))
		}
		close(playDone)
	}()
	return nil
}

// RequestPlay replays the working file from Idle without recording
// first. The transition mirrors the playback half of stop-and-play.
func (c *Controller) RequestPlay() error {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return fmt.Errorf("%w: can only play from idle state, current: %s", ErrInvalidTransition, c.state)
	}
	c.state = StatePlaying
	c.playDone = make(chan struct{})
	playDone := c.playDone
	if c.metrics != nil {
		c.metrics.SetState(string(StatePlaying))
	}
	c.mu.Unlock()

	go func() {
		c.playLoop()

		c.mu.Lock()
		c.state = StateIdle
		c.playDone = nil
		c.mu.Unlock()
		if c.metrics != nil {
			c.metrics.SetState(string(StateIdle))
		}
		close(playDone)
	}()
	return nil
}

// Wait blocks until any in-flight playback completes. It is a helper
// for CLI callers; the controller itself never needs it.
func (c *Controller) Wait() {
	c.mu.Lock()
	done := c.playDone
	c.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Close is the hard teardown: forces the recording flag false and
// unconditionally stops and releases any held capture session, even
// mid-loop. This is an external interrupt, not a graceful request.
func (c *Controller) Close() {
	c.recording.Store(false)

	c.mu.Lock()
	sess := c.capture
	c.capture = nil
	c.state = StateIdle
	c.mu.Unlock()

	if sess != nil {
		c.releaseSession(sess)
		c.log.Info("Capture session force-released on teardown")
	}
	if c.metrics != nil {
		c.metrics.SetState(string(StateIdle))
	}
}

// releaseSession runs the mandatory stop-then-release pair. Failures
// are logged, not escalated: the handle is gone either way.
func (c *Controller) releaseSession(sess interface {
	Stop() error
	Release() error
}) {
	if err := sess.Stop(); err != nil {
		c.log.Warn("Failed to stop device session", "error", err)
	}
	if err := sess.Release(); err != nil {
		c.log.Warn("Failed to release device session", "error", err)
	}
}
