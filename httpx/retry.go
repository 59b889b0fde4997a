package httpx

import (
	"context"
	"math/rand"
	"net/http"
	"strconv"
	"time"
)

const maxRetryAfter = 60 * time.Second

var retryableStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// DoWithRetry performs req with exponential backoff and jitter on
// transport errors and on the retryable status set {429, 500, 502, 503,
// 504}, honouring Retry-After (seconds or HTTP-date) when present, retrying
// up to cfg.MaxRetries times after the first attempt, never exceeding the
// client's total timeout budget (§4.1).
func (c *Client) DoWithRetry(ctx context.Context, req *Request) (*Response, error) {
	deadline := c.nowFn().Add(c.cfg.Timeout)

	var lastErr error
	var retryAfterWait time.Duration
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := backoff(attempt)
			if retryAfterWait > 0 {
				wait = retryAfterWait
				retryAfterWait = 0
			}
			if remaining := time.Until(deadline); remaining < wait {
				wait = remaining
			}
			if wait <= 0 {
				return nil, &ErrTimeout{Budget: c.cfg.Timeout.String()}
			}
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, &ErrTimeout{Budget: c.cfg.Timeout.String()}
			}
		}

		resp, err := c.Do(ctx, req)
		if err == nil && !retryableStatus[resp.StatusCode] {
			return resp, nil
		}
		if err != nil {
			if !isRetryableErr(err) {
				return nil, err
			}
			lastErr = err
			continue
		}

		// Retryable status: honour Retry-After if present, else fall
		// through to the exponential backoff computed at the top of the
		// next iteration.
		lastErr = &ErrTransport{Cause: httpStatusError(resp.StatusCode)}
		if ra := retryAfter(resp.Headers.Get("Retry-After"), c.nowFn()); ra > 0 {
			retryAfterWait = ra
			if retryAfterWait > maxRetryAfter {
				retryAfterWait = maxRetryAfter
			}
		}
	}
	return nil, lastErr
}

func isRetryableErr(err error) bool {
	switch err.(type) {
	case *ErrTransport:
		return true
	default:
		return false
	}
}

func httpStatusError(code int) error {
	return &statusError{code: code}
}

type statusError struct{ code int }

func (e *statusError) Error() string { return "http status " + strconv.Itoa(e.code) }

// backoff returns exponential delay with +/-20% jitter, base 250ms,
// doubling per attempt, capped at 30s.
func backoff(attempt int) time.Duration {
	base := 250 * time.Millisecond
	d := base << uint(attempt-1)
	const cap = 30 * time.Second
	if d > cap || d <= 0 {
		d = cap
	}
	jitter := time.Duration(float64(d) * (0.8 + 0.4*rand.Float64()))
	if jitter > cap {
		jitter = cap
	}
	return jitter
}

// retryAfter parses a Retry-After header value as either an integer
// second count or an HTTP-date, relative to now.
func retryAfter(value string, now time.Time) time.Duration {
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(value); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
