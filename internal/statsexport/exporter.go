// Package statsexport exposes a session's protocol.Stats snapshot as
// Prometheus metrics, polled on demand from the registry's Collect pass
// rather than pushed on every counter change.
package statsexport

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pgsdf/drawfs/internal/protocol"
)

func sessionLabel(sess *protocol.Session) string {
	return strconv.FormatUint(sess.ID(), 10)
}

// SessionSource is anything that can enumerate live sessions and their
// ids, satisfied by *drawfs.Server without this package importing the
// top-level package.
type SessionSource interface {
	Sessions() []*protocol.Session
}

var (
	framesReceivedDesc = prometheus.NewDesc(
		"drawfs_frames_received_total", "Frames received per session.", []string{"session"}, nil)
	framesProcessedDesc = prometheus.NewDesc(
		"drawfs_frames_processed_total", "Frames fully processed per session.", []string{"session"}, nil)
	framesInvalidDesc = prometheus.NewDesc(
		"drawfs_frames_invalid_total", "Frames rejected at the frame-header level.", []string{"session"}, nil)
	messagesProcessedDesc = prometheus.NewDesc(
		"drawfs_messages_processed_total", "Messages dispatched per session.", []string{"session"}, nil)
	messagesUnsupportedDesc = prometheus.NewDesc(
		"drawfs_messages_unsupported_total", "Messages rejected as unsupported.", []string{"session"}, nil)
	eventsEnqueuedDesc = prometheus.NewDesc(
		"drawfs_events_enqueued_total", "Reply/event frames enqueued.", []string{"session"}, nil)
	eventsDroppedDesc = prometheus.NewDesc(
		"drawfs_events_dropped_total", "Reply/event frames dropped.", []string{"session"}, nil)
	bytesInDesc = prometheus.NewDesc(
		"drawfs_bytes_in_total", "Bytes accepted from the client.", []string{"session"}, nil)
	bytesOutDesc = prometheus.NewDesc(
		"drawfs_bytes_out_total", "Bytes enqueued for the client.", []string{"session"}, nil)
	evqDepthDesc = prometheus.NewDesc(
		"drawfs_evq_depth", "Current outbound queue depth.", []string{"session"}, nil)
	inbufBytesDesc = prometheus.NewDesc(
		"drawfs_inbuf_bytes", "Current accumulator byte count.", []string{"session"}, nil)
	sessionsLiveDesc = prometheus.NewDesc(
		"drawfs_sessions_live", "Number of currently open sessions.", nil, nil)
)

// Collector implements prometheus.Collector over a SessionSource's live
// sessions, reading each session's Stats() snapshot at scrape time.
type Collector struct {
	source SessionSource
}

// New returns a Collector that scrapes source on every Prometheus collect.
func New(source SessionSource) *Collector {
	return &Collector{source: source}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- framesReceivedDesc
	ch <- framesProcessedDesc
	ch <- framesInvalidDesc
	ch <- messagesProcessedDesc
	ch <- messagesUnsupportedDesc
	ch <- eventsEnqueuedDesc
	ch <- eventsDroppedDesc
	ch <- bytesInDesc
	ch <- bytesOutDesc
	ch <- evqDepthDesc
	ch <- inbufBytesDesc
	ch <- sessionsLiveDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	sessions := c.source.Sessions()
	ch <- prometheus.MustNewConstMetric(sessionsLiveDesc, prometheus.GaugeValue, float64(len(sessions)))

	for _, sess := range sessions {
		label := sessionLabel(sess)
		st := sess.Stats()

		ch <- prometheus.MustNewConstMetric(framesReceivedDesc, prometheus.CounterValue, float64(st.FramesReceived), label)
		ch <- prometheus.MustNewConstMetric(framesProcessedDesc, prometheus.CounterValue, float64(st.FramesProcessed), label)
		ch <- prometheus.MustNewConstMetric(framesInvalidDesc, prometheus.CounterValue, float64(st.FramesInvalid), label)
		ch <- prometheus.MustNewConstMetric(messagesProcessedDesc, prometheus.CounterValue, float64(st.MessagesProcessed), label)
		ch <- prometheus.MustNewConstMetric(messagesUnsupportedDesc, prometheus.CounterValue, float64(st.MessagesUnsupported), label)
		ch <- prometheus.MustNewConstMetric(eventsEnqueuedDesc, prometheus.CounterValue, float64(st.EventsEnqueued), label)
		ch <- prometheus.MustNewConstMetric(eventsDroppedDesc, prometheus.CounterValue, float64(st.EventsDropped), label)
		ch <- prometheus.MustNewConstMetric(bytesInDesc, prometheus.CounterValue, float64(st.BytesIn), label)
		ch <- prometheus.MustNewConstMetric(bytesOutDesc, prometheus.CounterValue, float64(st.BytesOut), label)
		ch <- prometheus.MustNewConstMetric(evqDepthDesc, prometheus.GaugeValue, float64(st.EVQDepth), label)
		ch <- prometheus.MustNewConstMetric(inbufBytesDesc, prometheus.GaugeValue, float64(st.InbufBytes), label)
	}
}

var _ prometheus.Collector = (*Collector)(nil)
