// Package loader fetches the raw dataset and gallery payloads of a game.
package loader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/arcadesongs/arcadesongs-server/internal/domain"
	domainerrors "github.com/arcadesongs/arcadesongs-server/internal/errors"
	"github.com/arcadesongs/arcadesongs-server/internal/logger"
	"github.com/arcadesongs/arcadesongs-server/internal/ratelimit"
)

const (
	dataFile    = "data.json"
	galleryFile = "gallery.json"

	// maxPayloadSize bounds a single response body.
	maxPayloadSize = 64 << 20
)

// Source provides the raw payloads of a site.
type Source interface {
	FetchData(ctx context.Context, site domain.Site) ([]byte, error)
	FetchGallery(ctx context.Context, site domain.Site) ([]byte, error)
}

// HTTPConfig configures an HTTPSource.
type HTTPConfig struct {
	Timeout time.Duration
	// CacheTTL keeps fetched payloads; zero disables caching.
	CacheTTL time.Duration
	// RequestsPerSecond and Burst limit requests per host; zero RequestsPerSecond disables limiting.
	RequestsPerSecond float64
	Burst             int
	UserAgent         string
	Logger            *slog.Logger
}

// HTTPSource fetches <dataSourceUrl>/data.json and <dataSourceUrl>/gallery.json.
type HTTPSource struct {
	client    *http.Client
	cache     *cache.Cache
	limiter   *ratelimit.KeyedRateLimiter
	userAgent string
	logger    *slog.Logger
}

// NewHTTPSource creates an HTTP source. The client uses the default transport.
func NewHTTPSource(cfg HTTPConfig) *HTTPSource {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	s := &HTTPSource{
		client:    &http.Client{Timeout: cfg.Timeout},
		userAgent: cfg.UserAgent,
		logger:    logger.OrDiscard(cfg.Logger),
	}
	if cfg.CacheTTL > 0 {
		s.cache = cache.New(cfg.CacheTTL, cfg.CacheTTL*2)
	}
	if cfg.RequestsPerSecond > 0 {
		s.limiter = ratelimit.New(cfg.RequestsPerSecond, max(cfg.Burst, 1), 10*time.Minute)
	}
	return s
}

// Close stops background work.
func (s *HTTPSource) Close() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
}

// FetchData implements Source.
func (s *HTTPSource) FetchData(ctx context.Context, site domain.Site) ([]byte, error) {
	return s.fetch(ctx, site, dataFile)
}

// FetchGallery implements Source.
func (s *HTTPSource) FetchGallery(ctx context.Context, site domain.Site) ([]byte, error) {
	return s.fetch(ctx, site, galleryFile)
}

// Invalidate drops cached payloads of a site so the next fetch reaches the network.
func (s *HTTPSource) Invalidate(site domain.Site) {
	if s.cache == nil {
		return
	}
	for _, name := range []string{dataFile, galleryFile} {
		if u, err := payloadURL(site, name); err == nil {
			s.cache.Delete(u)
		}
	}
}

func (s *HTTPSource) fetch(ctx context.Context, site domain.Site, name string) ([]byte, error) {
	u, err := payloadURL(site, name)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if cached, found := s.cache.Get(u); found {
			if payload, ok := cached.([]byte); ok {
				s.logger.Debug("payload cache hit", "url", u)
				return payload, nil
			}
		}
	}

	if s.limiter != nil {
		host := u
		if parsed, err := url.Parse(u); err == nil {
			host = parsed.Host
		}
		if err := s.limiter.Wait(ctx, host); err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeRateLimited, "rate limit wait")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, domainerrors.Wrapf(err, domainerrors.CodeUpstream, "fetch %s", u)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, domainerrors.Wrapf(
			fmt.Errorf("unexpected status %d", resp.StatusCode),
			domainerrors.CodeUpstream, "fetch %s", u,
		)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadSize))
	if err != nil {
		return nil, domainerrors.Wrapf(err, domainerrors.CodeUpstream, "read %s", u)
	}

	s.logger.Debug("fetched payload", "url", u, "bytes", len(payload), "duration", time.Since(start))

	if s.cache != nil {
		s.cache.Set(u, payload, cache.DefaultExpiration)
	}
	return payload, nil
}

func payloadURL(site domain.Site, name string) (string, error) {
	if site.DataSourceURL == "" {
		return "", domainerrors.Validationf("site %q has no data source", site.GameCode)
	}
	base, err := url.Parse(strings.TrimSuffix(site.DataSourceURL, "/") + "/")
	if err != nil {
		return "", domainerrors.Wrapf(err, domainerrors.CodeValidation, "invalid data source for %q", site.GameCode)
	}
	return base.ResolveReference(&url.URL{Path: name}).String(), nil
}

// DirSource reads <dir>/<gameCode>/data.json and gallery.json from local disk.
type DirSource struct {
	dir string
}

// NewDirSource creates a source rooted at dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

// Dir returns the root directory.
func (s *DirSource) Dir() string { return s.dir }

// FetchData implements Source.
func (s *DirSource) FetchData(_ context.Context, site domain.Site) ([]byte, error) {
	return s.read(site, dataFile)
}

// FetchGallery implements Source.
func (s *DirSource) FetchGallery(_ context.Context, site domain.Site) ([]byte, error) {
	return s.read(site, galleryFile)
}

// Path returns the on-disk location of a site's payload file.
func (s *DirSource) Path(gameCode, name string) string {
	return filepath.Join(s.dir, gameCode, name)
}

func (s *DirSource) read(site domain.Site, name string) ([]byte, error) {
	if site.GameCode == "" || strings.ContainsAny(site.GameCode, `/\.`) {
		return nil, domainerrors.Validationf("invalid game code %q", site.GameCode)
	}
	payload, err := os.ReadFile(s.Path(site.GameCode, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domainerrors.NotFoundf("%s for %s not found", name, site.GameCode)
		}
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return payload, nil
}

// Fallback tries each source in order and returns the first payload.
type Fallback []Source

// FetchData implements Source.
func (f Fallback) FetchData(ctx context.Context, site domain.Site) ([]byte, error) {
	return f.first(func(s Source) ([]byte, error) { return s.FetchData(ctx, site) })
}

// FetchGallery implements Source.
func (f Fallback) FetchGallery(ctx context.Context, site domain.Site) ([]byte, error) {
	return f.first(func(s Source) ([]byte, error) { return s.FetchGallery(ctx, site) })
}

// Invalidate forwards to every source that caches payloads.
func (f Fallback) Invalidate(site domain.Site) {
	for _, s := range f {
		if inv, ok := s.(interface{ Invalidate(domain.Site) }); ok {
			inv.Invalidate(site)
		}
	}
}

func (f Fallback) first(fetch func(Source) ([]byte, error)) ([]byte, error) {
	var errs []error
	for _, s := range f {
		payload, err := fetch(s)
		if err == nil {
			return payload, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, domainerrors.Unavailablef("no data source configured")
	}
	return nil, domainerrors.Join(errs...)
}
