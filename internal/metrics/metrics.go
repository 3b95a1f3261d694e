package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the submission lifecycle.
type Metrics struct {
	SubmissionsCreated     *prometheus.CounterVec
	SubmissionConflicts    *prometheus.CounterVec
	StatusTransitions      *prometheus.CounterVec
	AckAllocationRetries   prometheus.Counter
	NotificationsSent      *prometheus.CounterVec
	NotificationFailures   *prometheus.CounterVec
	InvalidRecipients      prometheus.Counter
	SettlementGaps         prometheus.Counter
	CreateDuration         prometheus.Histogram
	NotificationDispatches prometheus.Histogram
}

// New registers every metric with reg. Pass prometheus.NewRegistry() in tests
// to avoid duplicate registration against the default registry.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SubmissionsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "society_submissions_created_total",
			Help: "Total number of submissions accepted, by kind",
		}, []string{"kind"}),
		SubmissionConflicts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "society_submission_conflicts_total",
			Help: "Submissions rejected by the per-unit duplicate guard",
		}, []string{"kind"}),
		StatusTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "society_status_transitions_total",
			Help: "Status transitions applied, by kind and target status",
		}, []string{"kind", "status"}),
		AckAllocationRetries: f.NewCounter(prometheus.CounterOpts{
			Name: "society_ack_allocation_retries_total",
			Help: "Inserts retried after an acknowledgement number collision",
		}),
		NotificationsSent: f.NewCounterVec(prometheus.CounterOpts{
			Name: "society_notifications_sent_total",
			Help: "Notifications handed to the transport, by template",
		}, []string{"template", "channel"}),
		NotificationFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "society_notification_failures_total",
			Help: "Notification sends that failed, by template",
		}, []string{"template", "channel"}),
		InvalidRecipients: f.NewCounter(prometheus.CounterOpts{
			Name: "society_notification_invalid_recipients_total",
			Help: "Malformed addresses dropped before sending",
		}),
		SettlementGaps: f.NewCounter(prometheus.CounterOpts{
			Name: "society_noc_settlement_gaps_total",
			Help: "Fee-bearing NOC requests approved before payment was marked Paid",
		}),
		CreateDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "society_create_submission_duration_seconds",
			Help:    "Duration of submission validation and persistence, excluding notification delivery",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		NotificationDispatches: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "society_notification_dispatch_duration_seconds",
			Help:    "Duration of a single dispatch including fallbacks",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

// NewNoop returns metrics bound to a private registry.
func NewNoop() *Metrics {
	return New(prometheus.NewRegistry())
}

func (m *Metrics) ObserveCreate(start time.Time) {
	m.CreateDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveDispatch(start time.Time) {
	m.NotificationDispatches.Observe(time.Since(start).Seconds())
}
