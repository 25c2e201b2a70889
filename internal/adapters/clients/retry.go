package clients

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// headerRetryAfter is honoured on 429 responses, in seconds. The chat API
// sends fractional values.
const headerRetryAfter = "Retry-After"

// retry runs the attempts for one Do call and returns the response, the
// number of attempts made and the final error.
func (c *Client) retry(ctx context.Context, req *http.Request, logger *slog.Logger) (*http.Response, int, error) {
	replayable := req.Body == nil || req.Body == http.NoBody || req.GetBody != nil
	// A POST that failed with a 5xx or mid-flight may already have taken
	// effect. Only a 429 proves it did not.
	idempotent := isIdempotent(req.Method)
	attempts := 0

	operation := func() (*http.Response, error) {
		attempts++

		if err := c.prepareAttempt(req, attempts); err != nil {
			return nil, backoff.Permanent(err)
		}

		resp, err := c.http.Do(req.WithContext(ctx))
		if err != nil {
			if replayable && idempotent && isRetryableError(err) {
				return nil, err
			}

			return nil, backoff.Permanent(err)
		}

		if !replayable {
			return resp, nil
		}

		switch {
		case resp.StatusCode >= http.StatusInternalServerError && idempotent:
			discard(resp)
			return nil, &statusError{status: resp.StatusCode}

		case resp.StatusCode == http.StatusTooManyRequests && attempts < c.cfg.Retry.MaxAttempts:
			wait, ok := retryAfter(resp, c.cfg.Retry.MaxInterval)
			if !ok {
				return resp, nil
			}

			discard(resp)

			return nil, &backoff.RetryAfterError{Duration: wait}
		}

		return resp, nil
	}

	resp, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(c.backOff()),
		backoff.WithMaxTries(uint(c.cfg.Retry.MaxAttempts)), //nolint:gosec // MaxAttempts is at least 1
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, wait time.Duration) {
			logger.Debug("retrying request",
				slog.Int("attempt", attempts+1),
				slog.Duration("backoff", wait),
				slog.Any("error", err),
			)
		}),
	)

	return resp, attempts, err
}

// prepareAttempt rewinds the body and reapplies auth for attempts after the
// first.
func (c *Client) prepareAttempt(req *http.Request, attempt int) error {
	if attempt > 1 && req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return err
		}

		req.Body = body
	}

	if c.cfg.AuthFunc != nil {
		c.cfg.AuthFunc(req)
	}

	return nil
}

func (c *Client) backOff() *backoff.ExponentialBackOff {
	r := c.cfg.Retry

	return &backoff.ExponentialBackOff{
		InitialInterval:     r.InitialInterval,
		RandomizationFactor: r.JitterFactor,
		Multiplier:          max(r.Multiplier, 1),
		MaxInterval:         max(r.MaxInterval, r.InitialInterval),
	}
}

// retryAfter parses the Retry-After header. Waits longer than limit are not
// worth holding the caller for.
func retryAfter(resp *http.Response, limit time.Duration) (time.Duration, bool) {
	seconds, err := strconv.ParseFloat(resp.Header.Get(headerRetryAfter), 64)
	if err != nil || seconds < 0 {
		return 0, false
	}

	wait := time.Duration(seconds * float64(time.Second))

	return wait, limit <= 0 || wait <= limit
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
	_ = resp.Body.Close()
}

func isIdempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut, http.MethodDelete:
		return true
	}

	return false
}

// isRetryableError reports whether a transport error is worth another
// attempt. Cancellation never is.
func isRetryableError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError

	return errors.As(err, &opErr)
}
