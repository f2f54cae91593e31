package api

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/arcadesongs/arcadesongs-server/internal/errors"
	"github.com/arcadesongs/arcadesongs-server/internal/ratelimit"
)

// RateLimiter limits requests per client IP.
type RateLimiter = ratelimit.KeyedRateLimiter

// NewRateLimiter creates a rate limiter allowing ratePerInterval requests per interval with the
// given burst. Idle clients are forgotten after ten intervals.
func NewRateLimiter(ratePerInterval int, interval time.Duration, burst int) *RateLimiter {
	rps := float64(ratePerInterval) / interval.Seconds()
	return ratelimit.New(rps, burst, 10*interval)
}

// rateLimited is a huma operation middleware rejecting clients over the limit with 429.
// A nil limiter allows everything.
func (s *Server) rateLimited(limiter *RateLimiter) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if limiter == nil {
			next(ctx)
			return
		}

		key := clientIP(ctx.RemoteAddr(), ctx.Header("X-Forwarded-For"), ctx.Header("X-Real-IP"))
		if !limiter.Allow(key) {
			s.logger.Warn("Rate limit exceeded",
				"ip", key,
				"path", ctx.URL().Path,
			)
			_ = huma.WriteErr(s.api, ctx, http.StatusTooManyRequests,
				"Too many requests. Please try again later.",
				domainerrors.RateLimited("too many draws, try again later"))
			return
		}
		next(ctx)
	}
}

// clientIP picks the client address: the first X-Forwarded-For hop, then X-Real-IP, then the
// remote address without its port.
func clientIP(remoteAddr, forwardedFor, realIP string) string {
	if forwardedFor != "" {
		first, _, _ := strings.Cut(forwardedFor, ",")
		return strings.TrimSpace(first)
	}
	if realIP != "" {
		return realIP
	}
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
