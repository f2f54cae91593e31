package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck_Success(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	var health HealthResponse
	decode(t, resp, &health)
	assert.Equal(t, statusHealthy, health.Status)
	assert.Equal(t, statusHealthy, health.Components["database"].Status)
	assert.Equal(t, "1 games configured", health.Components["catalog"].Message)
	assert.Equal(t, "no connected clients", health.Components["sse"].Message)
}

func TestHealthCheck_DatabaseClosed(t *testing.T) {
	ts := setupTestServer(t)
	require.NoError(t, ts.store.Close())

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	var health HealthResponse
	decode(t, resp, &health)
	assert.Equal(t, statusUnhealthy, health.Status)
	assert.Equal(t, "database read failed", health.Components["database"].Message)
}

func TestFormatSSEStatus(t *testing.T) {
	assert.Equal(t, "no connected clients", formatSSEStatus(0))
	assert.Equal(t, "1 connected client", formatSSEStatus(1))
	assert.Equal(t, "3 connected clients", formatSSEStatus(3))
}
