package careapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/rxmeter/collector/internal/core/domain"
)

// FetchDetail performs one logical pricing call for a work unit, with
// retry, backoff, and credential-refresh-on-auth-failure.
//
// Exactly one refresh attempt is spent per call: auth failures are
// indistinguishable in practice from timeouts and generic errors that
// mention the token, so any of those symptoms triggers the refresh the
// first time it appears. Errors never escape as panics; an exhausted
// call resolves to ErrExhausted for the orchestrator to record.
func (c *Client) FetchDetail(ctx context.Context, unit domain.WorkUnit) (*DetailResponse, error) {
	creds, err := c.creds.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuth, err)
	}

	refreshed := false
	var lastErr error

	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		req, err := c.detailRequest(ctx, unit, creds)
		if err != nil {
			return nil, err
		}

		slog.Debug("API request", "unit", unit.Key(), "attempt", attempt)
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			// Expired credentials are a common cause of silent
			// timeouts in this API, so a timeout on the very first
			// attempt also warrants the speculative refresh.
			if !refreshed && ((isTimeout(err) && attempt == 1) || mentionsAuth(err.Error())) {
				slog.Warn("Transport error looks auth-related, refreshing credentials",
					"unit", unit.Key(), "error", err)
				if newCreds, rerr := c.creds.Refresh(ctx); rerr == nil {
					refreshed = true
					creds = newCreds
					continue
				}
			}
			slog.Warn("Request failed, retrying", "unit", unit.Key(), "attempt", attempt, "error", err)
			if err := c.retrySleep(ctx, attempt, c.cfg.RetryDelay); err != nil {
				return nil, err
			}
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("read response: %w", readErr)
			if err := c.retrySleep(ctx, attempt, c.cfg.RetryDelay); err != nil {
				return nil, err
			}
			continue
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			var out DetailResponse
			if err := json.Unmarshal(body, &out); err != nil {
				return nil, fmt.Errorf("parse response: %w", err)
			}
			return &out, nil

		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			if refreshed {
				return nil, fmt.Errorf("%w: still %d after refresh for %s",
					ErrAuth, resp.StatusCode, unit.Key())
			}
			slog.Warn("Authentication rejected, refreshing credentials",
				"unit", unit.Key(), "status", resp.StatusCode)
			newCreds, rerr := c.creds.Refresh(ctx)
			if rerr != nil {
				return nil, fmt.Errorf("%w: refresh failed: %v", ErrAuth, rerr)
			}
			refreshed = true
			creds = newCreds
			// Retry immediately; an auth bounce costs no retry delay.
			continue

		case resp.StatusCode == http.StatusTooManyRequests:
			lastErr = fmt.Errorf("rate limited (429)")
			slog.Warn("Rate limited, backing off", "unit", unit.Key(), "attempt", attempt)
			if err := c.retrySleep(ctx, attempt, 2*c.cfg.RetryDelay); err != nil {
				return nil, err
			}
			continue

		default:
			lastErr = fmt.Errorf("http %d: %s", resp.StatusCode, truncate(body, 200))
			if !refreshed && mentionsAuth(string(body)) {
				slog.Warn("Error response mentions token, refreshing credentials",
					"unit", unit.Key(), "status", resp.StatusCode)
				if newCreds, rerr := c.creds.Refresh(ctx); rerr == nil {
					refreshed = true
					creds = newCreds
					continue
				}
			}
			slog.Warn("Request failed, retrying",
				"unit", unit.Key(), "attempt", attempt, "status", resp.StatusCode)
			if err := c.retrySleep(ctx, attempt, c.cfg.RetryDelay); err != nil {
				return nil, err
			}
		}
	}

	return nil, fmt.Errorf("%w for %s: %v", ErrExhausted, unit.Key(), lastErr)
}

// Search resolves a catalog code query against the care search
// endpoint. One attempt plus at most one refresh on an auth rejection;
// the preprocessing job layers its own retry policy on top.
func (c *Client) Search(ctx context.Context, query string) (*SearchResponse, error) {
	creds, err := c.creds.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuth, err)
	}

	for refreshed := false; ; {
		req, err := c.searchRequest(ctx, query, creds)
		if err != nil {
			return nil, err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("search request: %w", err)
		}
		data, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("read search response: %w", readErr)
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			var out SearchResponse
			if err := json.Unmarshal(data, &out); err != nil {
				return nil, fmt.Errorf("parse search response: %w", err)
			}
			return &out, nil

		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			if refreshed {
				return nil, fmt.Errorf("%w: still %d after refresh", ErrAuth, resp.StatusCode)
			}
			newCreds, rerr := c.creds.Refresh(ctx)
			if rerr != nil {
				return nil, fmt.Errorf("%w: refresh failed: %v", ErrAuth, rerr)
			}
			refreshed = true
			creds = newCreds

		default:
			return nil, fmt.Errorf("search http %d: %s", resp.StatusCode, truncate(data, 200))
		}
	}
}

// retrySleep waits the retry delay unless this was the final attempt.
func (c *Client) retrySleep(ctx context.Context, attempt int, delay time.Duration) error {
	if attempt >= c.cfg.MaxRetries {
		return nil
	}
	return c.sleep(ctx, delay)
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
