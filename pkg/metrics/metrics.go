package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	MessagesConsumed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_messages_consumed_total",
			Help: "Number of messages delivered by the provider",
		},
		[]string{"queue"},
	)
	MessagesAcked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_messages_acked_total",
			Help: "Number of messages acknowledged, by processor outcome",
		},
		[]string{"queue", "result"}, // true|false
	)
	MessagesRepublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_messages_republished_total",
			Help: "Number of messages nacked and republished to the tail of the queue",
		},
		[]string{"queue"},
	)
	ConsumerFaults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_consumer_faults_total",
			Help: "Fatal consumer faults",
		},
		[]string{"queue", "kind"}, // processor|contract|ack|fetch
	)
	FetchErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_fetch_errors_total",
			Help: "Transient provider errors retried with backoff",
		},
		[]string{"queue"},
	)
)

var (
	BatchFlushes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_batch_flushes_total",
			Help: "Flush hooks fired",
		},
		[]string{"queue"},
	)
	ConsumerStops = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_consumer_stops_total",
			Help: "Graceful consumer stops by reason",
		},
		[]string{"queue", "reason"},
	)
	ProcessedGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "queue_consumer_processed",
			Help: "Messages processed by the current consumer run",
		},
		[]string{"queue"},
	)
	JournalWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_journal_writes_total",
			Help: "Journal batch writes by status",
		},
		[]string{"status"}, // ok|error
	)
)

var (
	TransportOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_transport_ops_total",
			Help: "Transport adapter operations by result",
		},
		[]string{"transport", "op", "status"}, // op: fetch|ack|nack|publish; status: ok|error
	)
	ProcessingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "queue_message_processing_seconds",
			Help:    "Time from pre-consume to post-consume hook",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"queue"},
	)
	MemoryQueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "queue_memory_depth",
			Help: "Ready messages in the in-memory queue",
		},
		[]string{"queue"},
	)
)

// Status — метка результата операции.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

var registerOnce sync.Once

// MustRegister — регистрирует метрики в default registry; повторный вызов безопасен.
func MustRegister() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			MessagesConsumed, MessagesAcked, MessagesRepublished, ConsumerFaults, FetchErrors,
			BatchFlushes, ConsumerStops, ProcessedGauge, JournalWrites,
			TransportOps, ProcessingDuration, MemoryQueueDepth,
		)
	})
}
