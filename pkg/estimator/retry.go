package estimator

import (
	"context"
	"errors"
	"net"
	"net/http"
	"syscall"
	"time"
)

// Retry policy for idempotent GETs. Submissions and SOR updates are never
// retried: re-posting a BOQ would enqueue a second estimation task.
const (
	defaultRetryAttempts = 3
	defaultRetryBackoff  = 500 * time.Millisecond
	maxRetryBackoff      = 8 * time.Second
)

// WithRetryAttempts sets how many times idempotent requests are attempted in
// total. 1 disables retrying.
func WithRetryAttempts(attempts int) Option {
	return func(c *client) {
		if attempts > 0 {
			c.retryAttempts = attempts
		}
	}
}

// getWithRetry issues a GET, retrying transient failures with doubling
// backoff. The final attempt's response or error is returned as-is.
func (c *client) getWithRetry(ctx context.Context, path string) (*http.Response, error) {
	backoff := defaultRetryBackoff

	for attempt := 0; ; attempt++ {
		resp, err := c.get(ctx, path)

		retryable := false
		if err != nil {
			retryable = isTransient(err)
		} else if isTransientStatus(resp.StatusCode) {
			retryable = true
		}

		if !retryable || attempt >= c.retryAttempts-1 || ctx.Err() != nil {
			return resp, err
		}
		if resp != nil {
			resp.Body.Close()
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		if backoff *= 2; backoff > maxRetryBackoff {
			backoff = maxRetryBackoff
		}
	}
}

// isTransient reports whether an error looks like a passing network fault
// rather than a misconfigured request.
func isTransient(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED)
}

// isTransientStatus reports whether the backend's status code is worth a
// retry. Client errors are not: a 404 task stays a 404.
func isTransientStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
