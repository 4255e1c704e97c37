package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Bot Metrics
	BotSubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "plusword_bot_submissions_total",
		Help: "The total number of submissions accepted, by kind (text, image, retro, edit)",
	}, []string{"kind"})
	BotConflictsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "plusword_bot_conflicts_total",
		Help: "The total number of submissions rejected by a ledger conflict",
	}, []string{"reason"})
	BotParseFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "plusword_bot_parse_failures_total",
		Help: "The total number of commands with no parsable time",
	})
	BotStoreErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "plusword_bot_store_errors_total",
		Help: "The total number of store failures that survived the retry",
	})

	// Notifier Metrics
	RemindersDueTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "plusword_reminders_due_total",
		Help: "The total number of reminders found due at a minute tick",
	})
	CarryForwardCandidatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "plusword_carry_forward_candidates_total",
		Help: "The total number of carry-forward reminder candidates computed",
	})

	// Delivery Metrics
	OutboundPublishedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "plusword_outbound_published_total",
		Help: "The total number of messages published to the outbound topic",
	})
	DeliveryErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "plusword_delivery_errors_total",
		Help: "The total number of WhatsApp delivery failures",
	})
	DeliveryLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "plusword_delivery_latency_seconds",
		Help:    "Latency of WhatsApp message sends",
		Buckets: prometheus.DefBuckets,
	})

	// Archiver Metrics
	ArchiverEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "plusword_archiver_events_total",
		Help: "The total number of submission events read from the change stream",
	})
	ArchiverBatchWritesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "plusword_archiver_batch_writes_total",
		Help: "The total number of batch write operations to PostgreSQL",
	})
	ArchiverWriteErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "plusword_archiver_write_errors_total",
		Help: "The total number of errors occurred during PostgreSQL writes",
	})
	ArchiverTokenSavesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "plusword_archiver_token_saves_total",
		Help: "The total number of resume token saves to storage",
	})
)
