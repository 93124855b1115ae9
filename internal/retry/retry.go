// Package retry classifies transient failures and retries them with
// exponential backoff.
package retry

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"docrag/internal/errs"
)

// transientHTTPStatus mirrors the set of upstream statuses worth retrying:
// request timeout, rate limited, and 500, 502, 503 and 504.
var transientHTTPStatus = map[int]bool{
	408: true, 429: true, 500: true, 502: true, 503: true, 504: true,
}

// StatusError is implemented by upstream client errors that expose their
// HTTP status through a StatusCode() method, such as the Anthropic client's
// statusErr in internal/rag. An error that carries its status only as a
// struct field does not match it and is not classified by status; it is
// transient only if it is a net.Error or a deadline expiry.
type StatusError interface {
	error
	StatusCode() int
}

// IsTransient decides whether an error is worth retrying. AppError is never
// transient: it is already a final, classified outcome.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if _, ok := errs.As(err); ok {
		return false
	}
	var statusErr StatusError
	if errors.As(err, &statusErr) {
		return transientHTTPStatus[statusErr.StatusCode()]
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return false
}

// Policy carries the bounds used to configure the exponential backoff.
type Policy struct {
	MaxAttempts int
	MinBackoff  time.Duration
	MaxBackoff  time.Duration
}

// Do runs fn, retrying on transient failures up to MaxAttempts times total,
// sleeping with exponential backoff bounded by MinBackoff/MaxBackoff between
// attempts. Non-transient failures (including any *errs.AppError) return
// immediately. The last error seen is returned if every attempt fails.
func Do(ctx context.Context, log *zap.Logger, p Policy, fn func() error) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.MinBackoff
	eb.MaxInterval = p.MaxBackoff
	eb.Multiplier = 2
	bo := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(maxInt(p.MaxAttempts-1, 0))), ctx)

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := fn()
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return backoff.Permanent(err)
		}
		if log != nil {
			log.Warn("retrying after transient failure",
				zap.Int("attempt", attempt), zap.Error(err))
		}
		return err
	}, bo)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
