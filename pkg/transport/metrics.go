package transport

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultOK    = "ok"
	resultError = "error"
)

// Metrics counts connection manager activity. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	connects   *prometheus.CounterVec
	reconnects *prometheus.CounterVec
	sends      *prometheus.CounterVec
	frames     *prometheus.CounterVec
}

// NewMetrics creates the websocket counters and registers them with reg.
// A nil reg leaves the counters unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		connects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "burn_central",
			Subsystem: "websocket",
			Name:      "connects_total",
			Help:      "Opening handshakes attempted, by result.",
		}, []string{"result"}),
		reconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "burn_central",
			Subsystem: "websocket",
			Name:      "reconnects_total",
			Help:      "Reconnects attempted, by result.",
		}, []string{"result"}),
		sends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "burn_central",
			Subsystem: "websocket",
			Name:      "send_attempts_total",
			Help:      "Text frame writes attempted, by result.",
		}, []string{"result"}),
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "burn_central",
			Subsystem: "websocket",
			Name:      "frames_received_total",
			Help:      "Frames read from the socket, by kind.",
		}, []string{"kind"}),
	}

	if reg != nil {
		reg.MustRegister(m.connects, m.reconnects, m.sends, m.frames)
	}
	return m
}

func result(err error) string {
	if err != nil {
		return resultError
	}
	return resultOK
}

func (m *Metrics) observeConnect(err error) {
	if m == nil {
		return
	}
	m.connects.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) observeReconnect(err error) {
	if m == nil {
		return
	}
	m.reconnects.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) observeSend(err error) {
	if m == nil {
		return
	}
	m.sends.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) observeFrame(kind FrameKind) {
	if m == nil {
		return
	}
	m.frames.WithLabelValues(kind.String()).Inc()
}
