package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestionCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveEmail("registered", 10*time.Millisecond)
	m.AddCreated(2)
	m.AddDuplicates(1)
	m.AddSkipped(3)
	m.AddFiltered(1)
	m.IncNotificationFailure()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.EmailsProcessed.WithLabelValues("registered")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RegistrationsCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Duplicates))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.BlocksSkipped))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BlocksFiltered))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationFailures))

	count, err := testutil.GatherAndCount(reg, "jerseyapp_ingest_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSeparateRegistriesDoNotCollide(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}

func TestNilIngestionIsNoop(t *testing.T) {
	var m *Ingestion
	assert.NotPanics(t, func() {
		m.ObserveEmail("empty", time.Second)
		m.AddCreated(1)
		m.IncNotificationFailure()
	})
}

func TestHTTPRequests(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTP(reg)

	m.ObserveRequest("/api/v1/admin/players/{id}", "GET", 200, time.Millisecond)
	m.ObserveRequest("/api/v1/admin/players/{id}", "GET", 404, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("/api/v1/admin/players/{id}", "GET", "404")))

	count, err := testutil.GatherAndCount(reg, "jerseyapp_http_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	var nilHTTP *HTTP
	assert.NotPanics(t, func() { nilHTTP.ObserveRequest("/x", "GET", 200, 0) })
}
