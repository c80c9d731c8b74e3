package session

import (
	"errors"
	"sync"
	"time"

	"github.com/audiolooplab/echonote/internal/audio"
)

// fakeCapture serves synthetic PCM and then reports an unhealthy
// device, so loops driven by it terminate deterministically.
type fakeCapture struct {
	mu       sync.Mutex
	data     []byte
	pos      int
	readErr  error
	started  bool
	stopped  bool
	released bool
}

func (s *fakeCapture) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = true
	return nil
}

func (s *fakeCapture) ReadChunk(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return 0, s.readErr
	}
	// Pace reads like a real device period.
	time.Sleep(time.Millisecond)
	if s.pos < len(s.data) {
		n := copy(p, s.data[s.pos:])
		s.pos += n
		return n, nil
	}
	return 0, nil
}

func (s *fakeCapture) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	return nil
}

func (s *fakeCapture) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released = true
	return nil
}

// fakePlayback records everything the loops push at it.
type fakePlayback struct {
	mu       sync.Mutex
	written  []byte
	writeErr error
	short    int // if > 0, accept at most this many bytes per chunk
	started  bool
	stopped  bool
	released bool
}

func (s *fakePlayback) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = true
	return nil
}

func (s *fakePlayback) WriteChunk(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return 0, s.writeErr
	}
	n := len(p)
	if s.short > 0 && n > s.short {
		n = s.short
	}
	s.written = append(s.written, p[:n]...)
	return n, nil
}

func (s *fakePlayback) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	return nil
}

func (s *fakePlayback) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released = true
	return nil
}

func (s *fakePlayback) bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.written...)
}

// fakeOpener models the exclusive microphone resource: opening a second
// capture session while one is live fails.
type fakeOpener struct {
	mu          sync.Mutex
	captureData []byte

	openCaptureErr  error
	openPlaybackErr error

	captures  []*fakeCapture
	playbacks []*fakePlayback
}

func (o *fakeOpener) OpenCapture(f audio.Format, bufferBytes int) (audio.CaptureSession, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.openCaptureErr != nil {
		return nil, o.openCaptureErr
	}
	for _, c := range o.captures {
		c.mu.Lock()
		live := !c.released
		c.mu.Unlock()
		if live {
			return nil, errors.New("microphone already in use")
		}
	}
	cs := &fakeCapture{data: o.captureData}
	o.captures = append(o.captures, cs)
	return cs, nil
}

func (o *fakeOpener) OpenPlayback(f audio.Format, bufferBytes int) (audio.PlaybackSession, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.openPlaybackErr != nil {
		return nil, o.openPlaybackErr
	}
	ps := &fakePlayback{}
	o.playbacks = append(o.playbacks, ps)
	return ps, nil
}

func (o *fakeOpener) lastCapture() *fakeCapture {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.captures) == 0 {
		return nil
	}
	return o.captures[len(o.captures)-1]
}

func (o *fakeOpener) lastPlayback() *fakePlayback {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.playbacks) == 0 {
		return nil
	}
	return o.playbacks[len(o.playbacks)-1]
}

// testSizer reports a fixed platform minimum of 2048 bytes, so the
// sized buffer is 4096 and the loop chunk is 2048.
func testSizer() *audio.Sizer {
	return audio.NewSizerWithQuery(2, func(f audio.Format) (int, error) {
		return 2048, nil
	})
}
