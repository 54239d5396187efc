// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the upstream client and
// the diagnostic endpoints: an injectable retry policy for HTTP 429 and a
// context-aware pause used for request pacing.
package httputil

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// RetryPolicy describes how DoWithRetry reacts to HTTP 429 (Too Many
// Requests). The zero value never retries.
type RetryPolicy struct {
	// Backoff lists the wait before each retry. Its length is the maximum
	// number of retries.
	Backoff []time.Duration

	// HonorRetryAfter replaces the scheduled wait with the Retry-After
	// header when the response carries a parseable one.
	HonorRetryAfter bool
}

// DiagnosticPolicy is the schedule used by the ping diagnostics: honour
// Retry-After once, otherwise wait 15 s, then 30 s.
func DiagnosticPolicy() RetryPolicy {
	return RetryPolicy{
		Backoff:         []time.Duration{15 * time.Second, 30 * time.Second},
		HonorRetryAfter: true,
	}
}

// MaxRetries returns the number of retries the policy allows.
func (p RetryPolicy) MaxRetries() int { return len(p.Backoff) }

// delay returns the wait before retry number attempt (0-based).
func (p RetryPolicy) delay(attempt int, resp *http.Response) time.Duration {
	d := p.Backoff[attempt]
	if !p.HonorRetryAfter {
		return d
	}
	if ra := retryAfter(resp); ra > 0 {
		return ra
	}
	return d
}

func retryAfter(resp *http.Response) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		return time.Until(t)
	}
	return 0
}

// DoWithRetry executes an HTTP request and retries on HTTP 429 following
// policy. On each 429 the response body is drained and closed before
// sleeping. If the context is cancelled during a wait the function returns
// ctx.Err(). After exhausting the schedule the last 429 response is
// returned so the caller can inspect it.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, policy RetryPolicy, log zerolog.Logger) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		if attempt >= policy.MaxRetries() {
			return resp, nil
		}

		wait := policy.delay(attempt, resp)
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		log.Warn().
			Str("url", req.URL.String()).
			Dur("wait", wait).
			Int("attempt", attempt+1).
			Int("max_retries", policy.MaxRetries()).
			Msg("rate limited, retrying")

		if err := Sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
}

// Sleep pauses for d or until ctx is done. A non-positive d returns
// immediately.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
