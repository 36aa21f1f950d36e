// Package fetcher performs the time-boxed outbound GET against a target URL.
package fetcher

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"
)

const defaultUserAgent = "Mozilla/5.0 (compatible; pagegate/1.0; +https://github.com/pagegate/pagegate)"

// Response is the structured result of a completed fetch. Non-2xx statuses
// are reported here rather than as errors so the pipeline can mirror the
// upstream status to the caller.
type Response struct {
	StatusCode int
	Body       []byte
	Size       int
}

// Fetcher issues bounded outbound GET requests. Redirects are followed and
// compressed responses are decoded by the underlying transport. The body is
// read in full before the size ceiling is applied upstream; this is a
// deliberate simplicity-over-streaming trade-off.
type Fetcher struct {
	// Client is injectable for tests; defaults to http.DefaultClient
	// semantics with the configured timeout as the wall-clock bound.
	Client    *http.Client
	Timeout   time.Duration
	UserAgent string
}

// New creates a fetcher with the given wall-clock timeout.
func New(timeout time.Duration) *Fetcher {
	return &Fetcher{Timeout: timeout}
}

// Fetch issues a GET to target. It fails with a *fetcher.Error whose cause
// distinguishes an exceeded deadline from other transport failures.
func (f *Fetcher) Fetch(ctx context.Context, target string) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, f.timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &Error{Cause: CauseNetwork, URL: target, Err: err}
	}

	req.Header.Set("User-Agent", f.userAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")

	client := f.Client
	if client == nil {
		client = &http.Client{}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, classify(target, err)
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		// The deadline can also fire mid-read.
		return nil, classify(target, err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
		Size:       len(body),
	}, nil
}

func (f *Fetcher) timeout() time.Duration {
	if f.Timeout > 0 {
		return f.Timeout
	}
	return 8 * time.Second
}

func (f *Fetcher) userAgent() string {
	if f.UserAgent != "" {
		return f.UserAgent
	}
	return defaultUserAgent
}

func classify(target string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Cause: CauseTimeout, URL: target, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Cause: CauseTimeout, URL: target, Err: err}
	}
	return &Error{Cause: CauseNetwork, URL: target, Err: err}
}
