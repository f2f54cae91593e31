package api

import (
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name         string
		remoteAddr   string
		forwardedFor string
		realIP       string
		want         string
	}{
		{"remote address", "192.0.2.1:4312", "", "", "192.0.2.1"},
		{"remote address without port", "192.0.2.1", "", "", "192.0.2.1"},
		{"real ip header", "10.0.0.1:80", "", "198.51.100.7", "198.51.100.7"},
		{"first forwarded hop", "10.0.0.1:80", "203.0.113.9, 10.0.0.2", "198.51.100.7", "203.0.113.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, clientIP(tt.remoteAddr, tt.forwardedFor, tt.realIP))
		})
	}
}

func TestRequestMetrics_LabelsByRoutePattern(t *testing.T) {
	ts := setupTestServer(t)

	require.Equal(t, http.StatusOK, ts.api.Get("/api/v1/games/maimai/sheets?types=dx").Code)
	require.Equal(t, http.StatusOK, ts.api.Get("/api/v1/games/maimai/sheets").Code)
	require.Equal(t, http.StatusNotFound, ts.api.Get("/api/v1/games/chunithm/sheets").Code)
	require.Equal(t, http.StatusNotFound, ts.api.Get("/no/such/route").Code)

	count, err := testutil.GatherAndCount(ts.registry, "http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count, "one series per route and status")

	body := scrape(t, ts)
	assert.Contains(t, body, `http_requests_total{method="GET",route="/api/v1/games/{game}/sheets",status="200"} 2`)
	assert.Contains(t, body, `http_requests_total{method="GET",route="/api/v1/games/{game}/sheets",status="404"} 1`)
	assert.Contains(t, body, `route="unmatched",status="404"`)
}

func TestRecoverer(t *testing.T) {
	ts := setupTestServer(t)
	ts.router.Get("/panic", func(http.ResponseWriter, *http.Request) { panic("boom") })

	resp := ts.api.Get("/panic")
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
}
