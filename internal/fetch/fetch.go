// Package fetch retrieves raw upstream resources over HTTP.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/onnimonni/gridscan/internal/core/observability"
)

// Fetcher retrieves the raw bytes behind one resource locator. A single
// attempt per call; retries are a caller policy, not a fetcher one.
type Fetcher interface {
	Fetch(ctx context.Context, locator string) ([]byte, error)
}

// FetchError reports a non-success response or transport failure for one
// locator. Status is zero when the request never produced a response.
type FetchError struct {
	Status  int
	Locator string
	Err     error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("upstream status %d for %s", e.Status, e.Locator)
	}
	return fmt.Sprintf("fetch %s: %v", e.Locator, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// HTTP fetches resources with the shared outbound client.
type HTTP struct {
	client    *http.Client
	userAgent string
	feed      string
	log       *slog.Logger
}

func NewHTTP(log *slog.Logger, client *http.Client, feed, userAgent string) *HTTP {
	if log == nil {
		log = slog.Default()
	}
	return &HTTP{client: client, userAgent: userAgent, feed: feed, log: log}
}

func (f *HTTP) Fetch(ctx context.Context, locator string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, &FetchError{Locator: locator, Err: err}
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{Locator: locator, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain a little for connection reuse; the body is not the payload.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 8<<10))
		return nil, &FetchError{Status: resp.StatusCode, Locator: locator}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Locator: locator, Err: fmt.Errorf("read body: %w", err)}
	}

	dur := time.Since(start)
	observability.ObserveUpstreamFetch(f.feed, len(body), dur.Seconds())
	f.log.Debug("fetched resource",
		slog.String("feed", f.feed),
		slog.Int("bytes", len(body)),
		slog.String("duration", dur.String()))
	return body, nil
}
