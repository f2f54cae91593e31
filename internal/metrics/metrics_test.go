package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	m, err := New(prometheus.NewRegistry())
	require.NoError(t, err)
	return m
}

func TestRecordLoad(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordLoad("maimai", OutcomeSuccess, 120*time.Millisecond, 42)
	m.RecordLoad("maimai", OutcomeError, time.Second, 0)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.catalogLoadsTotal.WithLabelValues("maimai", OutcomeSuccess)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.catalogLoadsTotal.WithLabelValues("maimai", OutcomeError)))
	assert.Equal(t, float64(42), testutil.ToFloat64(m.catalogSheets.WithLabelValues("maimai")),
		"a failed load keeps the last sheet count")
}

func TestRecordDraw(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordDraw("chunithm", DrawStarted)
	m.RecordDraw("chunithm", DrawStarted)
	m.SetActiveSessions(3)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.drawsTotal.WithLabelValues("chunithm", DrawStarted)))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.drawSessionsActive))
}

func TestRecordHTTPRequest(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordHTTPRequest("GET", "/api/v1/games", 200, 5*time.Millisecond)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/api/v1/games", "200")))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordLoad("maimai", OutcomeSuccess, time.Second, 1)
		m.RecordDraw("maimai", DrawFinished)
		m.SetActiveSessions(1)
		m.RecordFilter("maimai", time.Millisecond, 5)
		m.RecordHTTPRequest("GET", "/", 200, time.Millisecond)
	})
}

func TestNew_DuplicateRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()
	_, err := New(registry)
	require.NoError(t, err)

	_, err = New(registry)
	assert.Error(t, err)
}
