package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains the Prometheus metrics for the streaming engine.
type Metrics struct {
	RecordingsStarted prometheus.Counter
	ChunksCaptured    prometheus.Counter
	ChunkWriteErrors  prometheus.Counter
	BytesRecorded     prometheus.Counter
	BytesPlayed       prometheus.Counter

	controllerState *prometheus.GaugeVec
}

// New creates and registers all metrics on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RecordingsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "echonote_recordings_started_total",
			Help: "Total number of recordings started",
		}),
		ChunksCaptured: factory.NewCounter(prometheus.CounterOpts{
			Name: "echonote_chunks_captured_total",
			Help: "Total number of PCM chunks read from the capture device",
		}),
		ChunkWriteErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "echonote_chunk_write_errors_total",
			Help: "Total number of chunks dropped due to working file write failures",
		}),
		BytesRecorded: factory.NewCounter(prometheus.CounterOpts{
			Name: "echonote_bytes_recorded_total",
			Help: "Total PCM bytes captured from the microphone",
		}),
		BytesPlayed: factory.NewCounter(prometheus.CounterOpts{
			Name: "echonote_bytes_played_total",
			Help: "Total PCM bytes written to the playback device",
		}),
		controllerState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "echonote_controller_state",
			Help: "Current controller state (1 for the active state, 0 otherwise)",
		}, []string{"state"}),
	}
}

// SetState marks the given controller state as active.
func (m *Metrics) SetState(state string) {
	for _, s := range []string{"IDLE", "RECORDING", "PLAYING"} {
		v := 0.0
		if s == state {
			v = 1.0
		}
		m.controllerState.WithLabelValues(s).Set(v)
	}
}
