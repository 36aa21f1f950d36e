// Package gateway orchestrates the fetch pipeline: validate the target URL,
// apply the SSRF guard, consult the cache, execute the bounded fetch, enforce
// the size ceiling, and store the result. Each stage can short-circuit with a
// distinct taxonomy error; exactly one exit state is reached per request, and
// only the upstream fetch blocks.
package gateway

import (
	"context"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/pagegate/pagegate/internal/core/cache"
	"github.com/pagegate/pagegate/internal/core/fetcher"
	"github.com/pagegate/pagegate/internal/core/guard"
	apperrors "github.com/pagegate/pagegate/internal/errors"
	"github.com/pagegate/pagegate/internal/metrics"
	"github.com/pagegate/pagegate/internal/observability"
)

// Result is a successful pipeline exit.
type Result struct {
	HTML   string
	Size   int
	Cached bool
}

// Service wires the guard, cache, and fetch executor into one pipeline.
type Service struct {
	Cache    *cache.Cache
	Fetcher  *fetcher.Fetcher
	MaxBytes int64

	// Guard is injectable for tests; defaults to guard.IsDangerous.
	Guard func(string) bool
}

// New creates a gateway service over the given cache and fetcher.
func New(c *cache.Cache, f *fetcher.Fetcher, maxBytes int64) *Service {
	return &Service{
		Cache:    c,
		Fetcher:  f,
		MaxBytes: maxBytes,
		Guard:    guard.IsDangerous,
	}
}

// Fetch runs the pipeline for one target URL. Errors are gofulmen envelopes
// carrying the taxonomy code; the boundary maps them to HTTP statuses.
func (s *Service) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	target, err := parseTarget(rawURL)
	if err != nil {
		metrics.RecordFetchOutcome("invalid_url")
		return nil, apperrors.NewMalformedURL()
	}

	// The guard inspects the raw URL text; it never resolves hostnames.
	if s.Guard(rawURL) {
		metrics.RecordFetchOutcome("blocked")
		s.logInfo("Blocked dangerous URL", zap.String("url", rawURL))
		return nil, apperrors.NewBlockedURL()
	}

	key := target.String()

	if entry, ok := s.Cache.Lookup(key); ok {
		metrics.RecordCacheLookup(true)
		metrics.RecordFetchOutcome("cache_hit")
		return &Result{
			HTML:   string(entry.Body),
			Size:   entry.Size,
			Cached: true,
		}, nil
	}
	metrics.RecordCacheLookup(false)

	start := time.Now()
	resp, err := s.Fetcher.Fetch(ctx, key)
	if err != nil {
		if fetchErr, ok := err.(*fetcher.Error); ok && fetchErr.IsTimeout() {
			metrics.RecordFetchOutcome("timeout")
			s.logInfo("Upstream fetch timed out", zap.String("url", key))
			return nil, apperrors.NewTimeout(key)
		}
		metrics.RecordFetchOutcome("network_error")
		s.logInfo("Upstream fetch failed", zap.String("url", key), zap.Error(err))
		return nil, apperrors.NewNetworkError(key, err)
	}
	metrics.RecordUpstreamFetch(time.Since(start), resp.Size)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.RecordFetchOutcome("upstream_error")
		return nil, apperrors.NewUpstreamHTTPError(resp.StatusCode)
	}

	// The ceiling is enforced after the full body has been read; oversized
	// responses are never cached.
	if int64(resp.Size) > s.MaxBytes {
		metrics.RecordFetchOutcome("too_large")
		s.logInfo("Upstream response exceeded size ceiling",
			zap.String("url", key),
			zap.Int("size", resp.Size))
		return nil, apperrors.NewPayloadTooLarge(resp.Size, s.MaxBytes)
	}

	s.Cache.Store(key, resp.Body)
	metrics.RecordFetchOutcome("success")

	return &Result{
		HTML:   string(resp.Body),
		Size:   resp.Size,
		Cached: false,
	}, nil
}

// parseTarget validates that raw is an absolute URL. Hosts are only required
// for http(s); other schemes pass through so the guard can reject them with
// the blocked outcome rather than a parse failure.
func parseTarget(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" {
		return nil, &url.Error{Op: "parse", URL: raw, Err: errMissingScheme}
	}
	if (u.Scheme == "http" || u.Scheme == "https") && u.Host == "" {
		return nil, &url.Error{Op: "parse", URL: raw, Err: errMissingHost}
	}
	return u, nil
}

func (s *Service) logInfo(msg string, fields ...zap.Field) {
	if observability.ServerLogger != nil {
		observability.ServerLogger.Info(msg, fields...)
	}
}
