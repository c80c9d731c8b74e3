package audio

import (
	"errors"
	"testing"
)

func TestBufferBytes_AppliesSafetyFactor(t *testing.T) {
	s := NewSizerWithQuery(2, func(f Format) (int, error) {
		return 1764, nil
	})

	got, err := s.BufferBytes(DefaultFormat(DirectionCapture))
	if err != nil {
		t.Fatalf("BufferBytes failed: %v", err)
	}
	if got != 3528 {
		t.Errorf("Expected 3528 bytes, got %d", got)
	}
	if got < 1764 {
		t.Errorf("Sized buffer %d is smaller than platform minimum 1764", got)
	}
}

func TestBufferBytes_NeverBelowPlatformMinimum(t *testing.T) {
	for _, factor := range []int{1, 2, 4} {
		raw := 960
		s := NewSizerWithQuery(factor, func(f Format) (int, error) {
			return raw, nil
		})
		got, err := s.BufferBytes(DefaultFormat(DirectionPlayback))
		if err != nil {
			t.Fatalf("factor %d: BufferBytes failed: %v", factor, err)
		}
		if got < raw {
			t.Errorf("factor %d: sized buffer %d below raw minimum %d", factor, got, raw)
		}
	}
}

func TestBufferBytes_CachesPerDirection(t *testing.T) {
	calls := 0
	s := NewSizerWithQuery(2, func(f Format) (int, error) {
		calls++
		return 1000, nil
	})

	for i := 0; i < 3; i++ {
		if _, err := s.BufferBytes(DefaultFormat(DirectionCapture)); err != nil {
			t.Fatalf("BufferBytes failed: %v", err)
		}
	}
	if _, err := s.BufferBytes(DefaultFormat(DirectionPlayback)); err != nil {
		t.Fatalf("BufferBytes failed: %v", err)
	}

	if calls != 2 {
		t.Errorf("Expected 2 platform queries (one per direction), got %d", calls)
	}
}

func TestBufferBytes_UnsupportedFormat(t *testing.T) {
	s := NewSizerWithQuery(2, func(f Format) (int, error) {
		return 0, ErrUnsupportedFormat
	})

	if _, err := s.BufferBytes(DefaultFormat(DirectionCapture)); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}

	// A stereo format must be rejected before the platform is queried.
	f := DefaultFormat(DirectionCapture)
	f.Channels = 2
	if _, err := s.BufferBytes(f); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat for stereo, got %v", err)
	}
}

func TestFormatValidate(t *testing.T) {
	if err := DefaultFormat(DirectionCapture).Validate(); err != nil {
		t.Errorf("Default capture format rejected: %v", err)
	}
	if err := DefaultFormat(DirectionPlayback).Validate(); err != nil {
		t.Errorf("Default playback format rejected: %v", err)
	}

	bad := Format{SampleRate: 44100, BitDepth: 8, Channels: 1, Direction: DirectionCapture}
	if err := bad.Validate(); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat for 8-bit, got %v", err)
	}

	bad = Format{SampleRate: 0, BitDepth: 16, Channels: 1, Direction: DirectionCapture}
	if err := bad.Validate(); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat for zero rate, got %v", err)
	}
}
