package transfer

import (
	"context"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rcrowley/go-metrics"
)

// Metrics aggregates streaming counters across all sessions.
type Metrics struct {
	registry metrics.Registry

	BytesSent metrics.Meter
	Started   metrics.Counter
	Completed metrics.Counter
	Failed    metrics.Counter
	Active    metrics.Counter
}

func NewMetrics() *Metrics {
	r := metrics.NewRegistry()
	return &Metrics{
		registry:  r,
		BytesSent: metrics.NewRegisteredMeter("bytes_sent", r),
		Started:   metrics.NewRegisteredCounter("streams_started", r),
		Completed: metrics.NewRegisteredCounter("streams_completed", r),
		Failed:    metrics.NewRegisteredCounter("streams_failed", r),
		Active:    metrics.NewRegisteredCounter("streams_active", r),
	}
}

// LogEvery writes every metric to w each interval until ctx is done.
func (m *Metrics) LogEvery(ctx context.Context, interval time.Duration, w io.Writer) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.WriteOnce(m.registry, w)
		}
	}
}

// Close stops the meter's background ticking.
func (m *Metrics) Close() {
	m.BytesSent.Stop()
}

// Stats is a point-in-time view of Metrics.
type Stats struct {
	ActiveStreams    int64   `json:"active_streams"`
	StartedStreams   int64   `json:"started_streams"`
	CompletedStreams int64   `json:"completed_streams"`
	FailedStreams    int64   `json:"failed_streams"`
	BytesSent        int64   `json:"bytes_sent"`
	BytesSentLabel   string  `json:"bytes_sent_label"`
	Rate1m           float64 `json:"rate_1m"`
	Rate1mLabel      string  `json:"rate_1m_label"`
}

func (m *Metrics) Stats() Stats {
	meter := m.BytesSent.Snapshot()
	return Stats{
		ActiveStreams:    m.Active.Count(),
		StartedStreams:   m.Started.Count(),
		CompletedStreams: m.Completed.Count(),
		FailedStreams:    m.Failed.Count(),
		BytesSent:        meter.Count(),
		BytesSentLabel:   humanize.IBytes(uint64(meter.Count())),
		Rate1m:           meter.Rate1(),
		Rate1mLabel:      humanize.IBytes(uint64(meter.Rate1())) + "/s",
	}
}
