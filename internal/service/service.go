package service

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/audiolooplab/echonote/internal/audio"
	"github.com/audiolooplab/echonote/internal/config"
	"github.com/audiolooplab/echonote/internal/metrics"
	"github.com/audiolooplab/echonote/internal/session"
)

// Service is the surface every frontend (CLI command, HTTP server)
// talks to. It hides the controller and the device host behind a small
// set of operations.
type Service interface {
	// Recording operations
	Start() error
	StopAndPlay() error

	// Playback operations
	Play() error

	// Information operations
	Status() Status
	Events() <-chan session.Event
	Devices() (audio.Devices, error)

	// Export operations
	Export(dst string) error

	// Wait blocks until the current playback phase finishes.
	Wait()

	// Close tears everything down. The service is unusable afterwards.
	Close()
}

// Status is a snapshot of the engine state.
type Status struct {
	State         session.State      `json:"state"`
	File          string             `json:"file"`
	LastRecording session.RecordInfo `json:"last_recording"`
}

// EchoNoteService is the production implementation backed by the
// platform audio host.
type EchoNoteService struct {
	cfg        *config.Config
	controller *session.Controller
	registry   *prometheus.Registry
	log        *slog.Logger
}

// New builds a service from the loaded configuration. The capture
// permission gate is driven by recording.allow_microphone.
func New(cfg *config.Config, log *slog.Logger) (*EchoNoteService, error) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if dir := filepath.Dir(cfg.Recording.File); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating recording directory %s: %w", dir, err)
		}
	}

	registry := prometheus.NewRegistry()
	host := audio.NewHost(log)

	ctrl, err := session.New(session.Params{
		FilePath:   cfg.Recording.File,
		Opener:     host,
		Sizer:      audio.NewSizer(cfg.Audio.SafetyFactor),
		Permission: func() bool { return cfg.Recording.AllowMicrophone },
		Metrics:    metrics.New(registry),
		Log:        log,
	})
	if err != nil {
		return nil, fmt.Errorf("creating session controller: %w", err)
	}

	return &EchoNoteService{
		cfg:        cfg,
		controller: ctrl,
		registry:   registry,
		log:        log,
	}, nil
}

func (s *EchoNoteService) Start() error {
	s.log.Debug("Service.Start called")
	if err := s.controller.RequestStart(); err != nil {
		s.log.Error("Service.Start failed", "error", err)
		return err
	}
	return nil
}

func (s *EchoNoteService) StopAndPlay() error {
	s.log.Debug("Service.StopAndPlay called")
	if err := s.controller.RequestStopAndPlay(); err != nil {
		s.log.Error("Service.StopAndPlay failed", "error", err)
		return err
	}
	return nil
}

func (s *EchoNoteService) Play() error {
	s.log.Debug("Service.Play called")
	if err := s.controller.RequestPlay(); err != nil {
		s.log.Error("Service.Play failed", "error", err)
		return err
	}
	return nil
}

func (s *EchoNoteService) Status() Status {
	return Status{
		State:         s.controller.State(),
		File:          s.cfg.Recording.File,
		LastRecording: s.controller.LastRecordInfo(),
	}
}

func (s *EchoNoteService) Events() <-chan session.Event {
	return s.controller.Events()
}

func (s *EchoNoteService) Devices() (audio.Devices, error) {
	return audio.ListDevices()
}

// Export writes the working file as a WAV file at dst. It refuses to
// run while a recording is in progress so the data size is stable.
func (s *EchoNoteService) Export(dst string) error {
	if s.controller.State() == session.StateRecording {
		return fmt.Errorf("cannot export while recording is in progress")
	}

	src, err := os.Open(s.cfg.Recording.File)
	if err != nil {
		return fmt.Errorf("opening recording file: %w", err)
	}
	defer src.Close()

	fi, err := src.Stat()
	if err != nil {
		return fmt.Errorf("reading recording file size: %w", err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	defer out.Close()

	f := audio.DefaultFormat(audio.DirectionPlayback)
	f.SampleRate = s.cfg.Audio.SampleRate
	if err := audio.ExportWAV(out, src, f, int(fi.Size())); err != nil {
		return fmt.Errorf("exporting WAV: %w", err)
	}

	s.log.Info("Exported recording", "source", s.cfg.Recording.File, "destination", dst, "bytes", fi.Size())
	return nil
}

func (s *EchoNoteService) Wait() {
	s.controller.Wait()
}

func (s *EchoNoteService) Close() {
	s.controller.Close()
}

// Registry exposes the metrics registry to the HTTP layer.
func (s *EchoNoteService) Registry() *prometheus.Registry {
	return s.registry
}
