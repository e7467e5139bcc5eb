package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Resultados posibles de un mensaje del outbox.
const (
	ResultPublished = "published"
	ResultFailed    = "failed"
	ResultUnknown   = "unknown_type"
)

var (
	initOnce sync.Once

	outboxWrittenCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outbox_messages_written_total",
			Help: "Outbox rows written by the save hook, by message type.",
		},
		[]string{"type"},
	)

	relayMessagesCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outbox_relay_messages_total",
			Help: "Outbox messages handled by the relay, by result.",
		},
		[]string{"result"},
	)

	relayBatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "outbox_relay_batch_duration_seconds",
			Help:    "Duration of a relay cycle in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)

	relayErrorsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "outbox_relay_cycle_errors_total",
			Help: "Relay cycles aborted by an error (fetch or save).",
		},
	)

	outboxBacklogGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "outbox_backlog_messages",
			Help: "Outbox rows by state as seen by the last relay cycle.",
		},
		[]string{"state"},
	)

	dispatchFailuresCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domain_event_handler_failures_total",
			Help: "In-process domain event handler failures, by event.",
		},
		[]string{"event"},
	)

	consumedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "integration_events_consumed_total",
			Help: "Integration events received by the consumer, by type and result.",
		},
		[]string{"type", "result"},
	)
)

// Init registra las métricas en el registro por defecto una sola vez.
// Las funciones de abajo funcionan aunque Init no se llame (tests).
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			outboxWrittenCounter,
			relayMessagesCounter,
			relayBatchDuration,
			relayErrorsCounter,
			outboxBacklogGauge,
			dispatchFailuresCounter,
			consumedCounter,
		)
		for _, r := range []string{ResultPublished, ResultFailed, ResultUnknown} {
			relayMessagesCounter.WithLabelValues(r)
		}
	})
}

func IncOutboxWritten(msgType string) {
	outboxWrittenCounter.WithLabelValues(msgType).Inc()
}

func IncRelayMessage(result string) {
	relayMessagesCounter.WithLabelValues(result).Inc()
}

func ObserveRelayBatch(d time.Duration) {
	relayBatchDuration.Observe(d.Seconds())
}

func IncRelayError() {
	relayErrorsCounter.Inc()
}

func SetBacklog(pending, dead, processed int64) {
	outboxBacklogGauge.WithLabelValues("pending").Set(float64(pending))
	outboxBacklogGauge.WithLabelValues("dead").Set(float64(dead))
	outboxBacklogGauge.WithLabelValues("processed").Set(float64(processed))
}

func IncDispatchFailure(event string) {
	dispatchFailuresCounter.WithLabelValues(event).Inc()
}

func IncConsumed(msgType, result string) {
	consumedCounter.WithLabelValues(msgType, result).Inc()
}
