package loader

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcadesongs/arcadesongs-server/internal/domain"
	domainerrors "github.com/arcadesongs/arcadesongs-server/internal/errors"
)

var testSite = domain.Site{
	GameCode:      "maimai",
	GameTitle:     "maimai",
	DataSourceURL: "https://cdn.example/maimai",
}

func setupHTTPMock(t *testing.T) {
	t.Helper()
	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)
}

func TestHTTPSource_FetchData(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponder(http.MethodGet, "https://cdn.example/maimai/data.json",
		httpmock.NewStringResponder(http.StatusOK, `{"songs":[]}`))

	src := NewHTTPSource(HTTPConfig{UserAgent: "test-agent"})
	defer src.Close()

	payload, err := src.FetchData(context.Background(), testSite)
	require.NoError(t, err)
	assert.JSONEq(t, `{"songs":[]}`, string(payload))
}

func TestHTTPSource_TrailingSlash(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponder(http.MethodGet, "https://cdn.example/maimai/gallery.json",
		httpmock.NewStringResponder(http.StatusOK, `[]`))

	src := NewHTTPSource(HTTPConfig{})
	site := testSite
	site.DataSourceURL += "/"

	payload, err := src.FetchGallery(context.Background(), site)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(payload))
}

func TestHTTPSource_CacheHit(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponder(http.MethodGet, "https://cdn.example/maimai/data.json",
		httpmock.NewStringResponder(http.StatusOK, `{}`))

	src := NewHTTPSource(HTTPConfig{CacheTTL: time.Minute})
	ctx := context.Background()

	for range 3 {
		_, err := src.FetchData(ctx, testSite)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, httpmock.GetTotalCallCount())

	src.Invalidate(testSite)
	_, err := src.FetchData(ctx, testSite)
	require.NoError(t, err)
	assert.Equal(t, 2, httpmock.GetTotalCallCount())
}

func TestHTTPSource_HTTPError(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
	}{
		{"not found", http.StatusNotFound},
		{"server error", http.StatusInternalServerError},
		{"forbidden", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupHTTPMock(t)
			httpmock.RegisterResponder(http.MethodGet, "https://cdn.example/maimai/data.json",
				httpmock.NewStringResponder(tt.statusCode, "nope"))

			src := NewHTTPSource(HTTPConfig{CacheTTL: time.Minute})
			_, err := src.FetchData(context.Background(), testSite)

			require.Error(t, err)
			assert.ErrorIs(t, err, domainerrors.ErrUpstream)
			assert.Contains(t, err.Error(), "data.json")
		})
	}
}

func TestHTTPSource_RateLimited(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponder(http.MethodGet, "https://cdn.example/maimai/data.json",
		httpmock.NewStringResponder(http.StatusOK, `{}`))

	src := NewHTTPSource(HTTPConfig{RequestsPerSecond: 0.001, Burst: 1})
	defer src.Close()

	_, err := src.FetchData(context.Background(), testSite)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = src.FetchData(ctx, testSite)
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrRateLimited)
}

func TestHTTPSource_MissingDataSource(t *testing.T) {
	src := NewHTTPSource(HTTPConfig{})
	_, err := src.FetchData(context.Background(), domain.Site{GameCode: "x"})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestDirSource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "maimai"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "maimai", "data.json"), []byte(`{"a":1}`), 0o644))

	src := NewDirSource(dir)
	ctx := context.Background()

	payload, err := src.FetchData(ctx, testSite)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(payload))

	_, err = src.FetchGallery(ctx, testSite)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	_, err = src.FetchData(ctx, domain.Site{GameCode: "../etc"})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestFallback(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponder(http.MethodGet, "https://cdn.example/maimai/data.json",
		httpmock.NewStringResponder(http.StatusOK, `{"remote":true}`))

	src := Fallback{NewDirSource(t.TempDir()), NewHTTPSource(HTTPConfig{})}

	payload, err := src.FetchData(context.Background(), testSite)
	require.NoError(t, err)
	assert.Equal(t, `{"remote":true}`, string(payload))

	_, err = src.FetchGallery(context.Background(), testSite)
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound, "every source error is kept")

	_, err = Fallback{}.FetchData(context.Background(), testSite)
	assert.ErrorIs(t, err, domainerrors.ErrUnavailable)
}

func TestFallback_InvalidateReachesCachingSources(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponder(http.MethodGet, "https://cdn.example/maimai/data.json",
		httpmock.NewStringResponder(http.StatusOK, `{}`))

	remote := NewHTTPSource(HTTPConfig{CacheTTL: time.Minute})
	defer remote.Close()
	src := Fallback{NewDirSource(t.TempDir()), remote}
	ctx := context.Background()

	for range 2 {
		_, err := src.FetchData(ctx, testSite)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, httpmock.GetTotalCallCount())

	src.Invalidate(testSite)
	_, err := src.FetchData(ctx, testSite)
	require.NoError(t, err)
	assert.Equal(t, 2, httpmock.GetTotalCallCount())
}
