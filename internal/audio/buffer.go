package audio

import (
	"fmt"
	"sync"
)

// DefaultSafetyFactor is the multiplier applied to the platform's
// minimum reported buffer size to reduce underrun/overrun risk.
const DefaultSafetyFactor = 2

// minBufferFunc reports the platform's minimum viable buffer in bytes
// for a format, or an error when no valid size exists.
type minBufferFunc func(Format) (int, error)

// Sizer computes device buffer sizes. Sizing happens once per direction
// and is cached for the process lifetime, since the format never
// changes after startup.
type Sizer struct {
	query  minBufferFunc
	factor int

	mu    sync.Mutex
	cache map[Direction]int
}

// NewSizer returns a Sizer backed by the platform buffer query.
func NewSizer(safetyFactor int) *Sizer {
	if safetyFactor < 1 {
		safetyFactor = DefaultSafetyFactor
	}
	return &Sizer{
		query:  platformMinBufferBytes,
		factor: safetyFactor,
		cache:  make(map[Direction]int),
	}
}

// NewSizerWithQuery returns a Sizer backed by a custom platform query,
// for platforms other than the PortAudio host and for tests.
func NewSizerWithQuery(safetyFactor int, query func(Format) (int, error)) *Sizer {
	s := NewSizer(safetyFactor)
	s.query = query
	return s
}

// BufferBytes returns the device buffer size in bytes for the format:
// the platform minimum multiplied by the safety factor. The result is
// always >= the raw platform minimum.
func (s *Sizer) BufferBytes(f Format) (int, error) {
	if err := f.Validate(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sz, ok := s.cache[f.Direction]; ok {
		return sz, nil
	}

	raw, err := s.query(f)
	if err != nil {
		return 0, err
	}
	if raw <= 0 {
		return 0, fmt.Errorf("%w: platform reported buffer size %d", ErrUnsupportedFormat, raw)
	}

	sized := raw * s.factor
	s.cache[f.Direction] = sized
	return sized, nil
}
