// Package fetch retrieves raw HTML for product pages, either directly with a
// browser-like header set or through a paid unlocking relay.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"pricesentry/config"
)

// hostHistorySize bounds the per-host last-request cache. Eviction only
// forgets spacing state for hosts not contacted recently.
const hostHistorySize = 128

type relayRequest struct {
	Zone   string `json:"zone"`
	URL    string `json:"url"`
	Format string `json:"format"`
}

// Fetcher issues page retrievals. All failures come back as a typed error and
// an empty body; callers record a miss instead of aborting their batch.
type Fetcher struct {
	cfg      *config.Config
	client   *resty.Client
	lastSeen *lru.Cache[string, time.Time]
}

// New builds a fetcher from cfg.
func New(cfg *config.Config) (*Fetcher, error) {
	lastSeen, err := lru.New[string, time.Time](hostHistorySize)
	if err != nil {
		return nil, fmt.Errorf("init host history: %w", err)
	}

	client := resty.New()
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("User-Agent", cfg.UserAgent)
	client.SetHeader("Accept-Language", cfg.AcceptLanguage)
	client.SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))

	return &Fetcher{
		cfg:      cfg,
		client:   client,
		lastSeen: lastSeen,
	}, nil
}

// Client exposes the underlying resty client so tests can swap transports.
func (f *Fetcher) Client() *resty.Client {
	return f.client
}

// Fetch retrieves the HTML body for rawURL. When useRelay is set and the
// relay is configured, the relay is tried first; a relay failure is logged
// and falls through to direct retrieval rather than failing the scan.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, useRelay bool) (string, error) {
	if useRelay && f.cfg.RelayConfigured() {
		html, err := f.fetchRelay(ctx, rawURL)
		if err == nil {
			return html, nil
		}
		slog.Warn("relay fetch failed, falling back to direct",
			slog.String("url", rawURL),
			slog.Any("error", err),
		)
	}
	return f.fetchDirect(ctx, rawURL)
}

func (f *Fetcher) fetchRelay(ctx context.Context, rawURL string) (string, error) {
	res, err := f.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+f.cfg.RelayAPIKey).
		SetHeader("Content-Type", "application/json").
		SetBody(relayRequest{
			Zone:   f.cfg.RelayZone,
			URL:    rawURL,
			Format: "raw",
		}).
		Post(f.cfg.RelayEndpoint)
	if err != nil {
		return "", classify(err, 0)
	}
	if res.StatusCode() != http.StatusOK {
		// The relay's error body names the billing/zone problem; keep it in
		// the log line, not the error chain.
		slog.Error("relay returned non-200",
			slog.Int("status", res.StatusCode()),
			slog.String("url", rawURL),
			slog.String("body", truncate(string(res.Body()), 256)),
		)
		return "", classify(nil, res.StatusCode())
	}
	return string(res.Body()), nil
}

func (f *Fetcher) fetchDirect(ctx context.Context, rawURL string) (string, error) {
	if err := f.spaceRequests(ctx, rawURL); err != nil {
		return "", ErrTimeout{Err: err}
	}

	res, err := f.client.R().
		SetContext(ctx).
		Get(rawURL)
	if err != nil {
		return "", classify(err, 0)
	}
	if res.StatusCode() != http.StatusOK {
		return "", classify(nil, res.StatusCode())
	}
	return string(res.Body()), nil
}

// spaceRequests enforces the configured inter-request delay per host to
// reduce rate-limiting risk across a concurrent cycle.
func (f *Fetcher) spaceRequests(ctx context.Context, rawURL string) error {
	if f.cfg.RequestDelay <= 0 {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return nil
	}
	host := parsed.Host

	if last, ok := f.lastSeen.Get(host); ok {
		if wait := f.cfg.RequestDelay - time.Since(last); wait > 0 {
			timer := time.NewTimer(wait)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	f.lastSeen.Add(host, time.Now())
	return nil
}

func classify(err error, statusCode int) error {
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrTimeout{Err: err}
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return ErrTimeout{Err: err}
		}
		var opErr *net.OpError
		if errors.As(err, &opErr) {
			return ErrConnection{Err: err}
		}
		return err
	}

	wrapped := fmt.Errorf("http status %d", statusCode)
	switch statusCode {
	case http.StatusForbidden:
		return ErrForbidden{Err: wrapped}
	case http.StatusNotFound:
		return ErrNotFound{Err: wrapped}
	case http.StatusTooManyRequests:
		return ErrRateLimited{Err: wrapped}
	}
	return ErrBadStatus{Code: statusCode}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
