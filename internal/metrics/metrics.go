package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ingestion holds the instruments for the email ingestion pipeline.
// A nil *Ingestion is valid and records nothing.
type Ingestion struct {
	EmailsProcessed      *prometheus.CounterVec
	RegistrationsCreated prometheus.Counter
	Duplicates           prometheus.Counter
	BlocksSkipped        prometheus.Counter
	BlocksFiltered       prometheus.Counter
	NotificationFailures prometheus.Counter
	Duration             prometheus.Histogram
}

// New registers the ingestion instruments with reg
func New(reg prometheus.Registerer) *Ingestion {
	f := promauto.With(reg)
	return &Ingestion{
		EmailsProcessed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "jerseyapp_emails_processed_total",
			Help: "Inbound emails processed by result",
		}, []string{"result"}), // result: "registered", "empty", "error"

		RegistrationsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "jerseyapp_registrations_created_total",
			Help: "Registrations created from inbound emails",
		}),

		Duplicates: f.NewCounter(prometheus.CounterOpts{
			Name: "jerseyapp_registrations_duplicate_total",
			Help: "Registrants that matched an existing registration",
		}),

		BlocksSkipped: f.NewCounter(prometheus.CounterOpts{
			Name: "jerseyapp_blocks_skipped_total",
			Help: "Registrant blocks skipped for missing or invalid fields",
		}),

		BlocksFiltered: f.NewCounter(prometheus.CounterOpts{
			Name: "jerseyapp_blocks_filtered_total",
			Help: "Registrant blocks dropped as non-youth programs",
		}),

		NotificationFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "jerseyapp_notification_failures_total",
			Help: "Confirmation notifications that failed to send",
		}),

		Duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "jerseyapp_ingest_duration_seconds",
			Help:    "Duration of a full email ingestion",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

// ObserveEmail records one processed email
func (m *Ingestion) ObserveEmail(result string, d time.Duration) {
	if m != nil {
		m.EmailsProcessed.WithLabelValues(result).Inc()
		m.Duration.Observe(d.Seconds())
	}
}

func (m *Ingestion) AddCreated(n int) {
	if m != nil {
		m.RegistrationsCreated.Add(float64(n))
	}
}

func (m *Ingestion) AddDuplicates(n int) {
	if m != nil {
		m.Duplicates.Add(float64(n))
	}
}

func (m *Ingestion) AddSkipped(n int) {
	if m != nil {
		m.BlocksSkipped.Add(float64(n))
	}
}

func (m *Ingestion) AddFiltered(n int) {
	if m != nil {
		m.BlocksFiltered.Add(float64(n))
	}
}

func (m *Ingestion) IncNotificationFailure() {
	if m != nil {
		m.NotificationFailures.Inc()
	}
}
