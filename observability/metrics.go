package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the broker collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Connections       prometheus.Gauge
	FramesIn          *prometheus.CounterVec
	Broadcasts        prometheus.Counter
	Deliveries        prometheus.Counter
	DroppedDeliveries *prometheus.CounterVec
	MediaStored       prometheus.Counter
	MediaBytes        prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "roomchat_connections",
			Help: "Number of live connections",
		}),
		FramesIn: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roomchat_frames_in_total",
			Help: "Inbound frames by type",
		}, []string{"type"}),
		Broadcasts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roomchat_broadcasts_total",
			Help: "Room broadcasts issued",
		}),
		Deliveries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roomchat_deliveries_total",
			Help: "Frames enqueued to a connection",
		}),
		DroppedDeliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roomchat_dropped_deliveries_total",
			Help: "Frames that could not be enqueued, by reason",
		}, []string{"reason"}),
		MediaStored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roomchat_media_stored_total",
			Help: "Uploads written by the media relay",
		}),
		MediaBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roomchat_media_bytes_total",
			Help: "Bytes written by the media relay",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Connections, m.FramesIn, m.Broadcasts, m.Deliveries,
			m.DroppedDeliveries, m.MediaStored, m.MediaBytes)
	}
	return m
}

func (m *Metrics) ConnectionOpened() {
	if m != nil {
		m.Connections.Inc()
	}
}

func (m *Metrics) ConnectionClosed() {
	if m != nil {
		m.Connections.Dec()
	}
}

func (m *Metrics) FrameIn(frameType string) {
	if m != nil {
		m.FramesIn.WithLabelValues(frameType).Inc()
	}
}

func (m *Metrics) Broadcast(delivered int) {
	if m != nil {
		m.Broadcasts.Inc()
		m.Deliveries.Add(float64(delivered))
	}
}

func (m *Metrics) Dropped(reason string) {
	if m != nil {
		m.DroppedDeliveries.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) MediaWritten(size int64) {
	if m != nil {
		m.MediaStored.Inc()
		m.MediaBytes.Add(float64(size))
	}
}
