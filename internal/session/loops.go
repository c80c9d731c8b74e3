package session

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/audiolooplab/echonote/internal/audio"
)

// recordLoop pulls fixed-size chunks from the capture session and
// appends them to the working file until the recording flag clears.
// It runs on its own goroutine; the controller owns the session and
// releases it after the loop drains.
func (c *Controller) recordLoop(sess audio.CaptureSession, chunkBytes int, done chan struct{}) {
	defer close(done)

	f, err := os.OpenFile(c.file, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		c.log.Error("Recording aborted, working file unavailable",
			"file", c.file, "error", fmt.Errorf("%w: %v", ErrFileUnavailable, err))
		return
	}

	start := time.Now()
	total := c.captureToWriter(sess, f, chunkBytes)

	if err := f.Sync(); err != nil {
		c.log.Warn("Failed to flush working file", "error", err)
	}
	if err := f.Close(); err != nil {
		// The file may already hold usable data, so a close failure is
		// logged, not escalated.
		c.log.Warn("Failed to close working file", "error", err)
	}

	info := RecordInfo{Bytes: total, Duration: time.Since(start)}
	c.mu.Lock()
	c.lastInfo = info
	c.mu.Unlock()
	c.log.Debug("Recording loop finished", "bytes", total, "duration", info.Duration)
}

// captureToWriter is the buffered capture-to-file loop. The chunk is
// half the device buffer, which keeps the device queue fed without
// over-reading. Returns the total bytes read from the device.
func (c *Controller) captureToWriter(sess audio.CaptureSession, w io.Writer, chunkBytes int) int64 {
	chunk := make([]byte, chunkBytes)
	var total int64

	for c.recording.Load() {
		n, err := sess.ReadChunk(chunk)
		if err != nil || n <= 0 {
			// Non-positive reads mean the device is unhealthy; stop
			// consuming rather than spin.
			c.log.Warn("Capture read failed, ending recording loop", "read", n, "error", err)
			break
		}
		total += int64(n)
		if c.metrics != nil {
			c.metrics.ChunksCaptured.Inc()
			c.metrics.BytesRecorded.Add(float64(n))
		}

		if _, werr := w.Write(chunk[:n]); werr != nil {
			// A dropped chunk must not end the whole recording; later
			// chunks may still land.
			c.log.Warn("Dropped chunk, file write failed", "bytes", n, "error", werr)
			if c.metrics != nil {
				c.metrics.ChunkWriteErrors.Inc()
			}
			continue
		}
	}
	return total
}

// playLoop streams the working file to a playback session until
// end-of-file. The device is opened before the file, and stopped and
// released unconditionally afterwards so the output hardware is never
// leaked, whatever failed in between.
func (c *Controller) playLoop() {
	format := audio.DefaultFormat(audio.DirectionPlayback)
	bufBytes, err := c.sizer.BufferBytes(format)
	if err != nil {
		c.log.Error("Playback aborted, cannot size playback buffer", "error", err)
		return
	}

	sess, err := c.opener.OpenPlayback(format, bufBytes)
	if err != nil {
		c.log.Error("Playback aborted, device init failed", "error", err)
		return
	}
	defer c.releaseSession(sess)

	f, err := os.Open(c.file)
	if err != nil {
		c.log.Error("Playback aborted, working file unavailable",
			"file", c.file, "error", fmt.Errorf("%w: %v", ErrFileUnavailable, err))
		return
	}

	if err := sess.Start(); err != nil {
		c.log.Error("Playback aborted, device start failed", "error", err)
		f.Close()
		return
	}
	c.emit(EventPlaybackStarted)
	c.log.Info("Playback started", "file", c.file)

	written := c.playFromReader(sess, f, bufBytes/2)

	if err := f.Close(); err != nil {
		c.log.Warn("Failed to close working file after playback", "error", err)
	}

	c.emit(EventPlaybackStopped)
	c.log.Info("Playback finished", "bytes_written", written)
}

// playFromReader is the buffered file-to-playback loop. It stops
// exactly at end-of-file; a failed device write is fatal for playback,
// unlike the recording side's per-chunk tolerance. Returns the total
// bytes accepted by the device.
func (c *Controller) playFromReader(sess audio.PlaybackSession, r io.Reader, chunkBytes int) int64 {
	chunk := make([]byte, chunkBytes)
	var written int64

	for {
		n, rerr := r.Read(chunk)
		if n > 0 {
			w, werr := sess.WriteChunk(chunk[:n])
			written += int64(w)
			if c.metrics != nil {
				c.metrics.BytesPlayed.Add(float64(w))
			}
			if werr != nil {
				c.log.Warn("Playback write failed, ending loop", "error", werr)
				break
			}
		}
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			c.log.Warn("Working file read failed, ending playback", "error", rerr)
			break
		}
	}
	return written
}
