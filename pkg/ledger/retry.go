package ledger

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	defaultMaxAttempts = 4
	defaultBaseBackoff = 250 * time.Millisecond
	defaultMaxBackoff  = 5 * time.Second
)

type RetryOptions struct {
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// nonIdempotentMethods are sent once. A resubmitted extrinsic that the node
// already accepted is rejected as a duplicate.
var nonIdempotentMethods = map[string]bool{
	"author_submitExtrinsic": true,
}

// WithRetry wraps a caller so that transient transport failures are retried
// with exponential backoff. Errors returned by the node itself are final, and
// submissions are never retried.
func WithRetry(inner Caller, opt *RetryOptions) Caller {
	o := RetryOptions{}
	if opt != nil {
		o = *opt
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = defaultMaxAttempts
	}
	if o.BaseBackoff <= 0 {
		o.BaseBackoff = defaultBaseBackoff
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = defaultMaxBackoff
	}
	return &retryingCaller{inner: inner, opt: o}
}

type retryingCaller struct {
	inner Caller
	opt   RetryOptions
}

func (c *retryingCaller) CallForInto(ctx context.Context, out any, method string, params []any) error {
	if nonIdempotentMethods[method] {
		return c.inner.CallForInto(ctx, out, method, params)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.opt.BaseBackoff
	b.MaxInterval = c.opt.MaxBackoff

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := c.inner.CallForInto(ctx, out, method, params)
		if err != nil && !isRetryable(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(uint(c.opt.MaxAttempts)))
	return err
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "connection reset by peer") ||
		strings.Contains(msg, "broken pipe") {
		return true
	}

	type hasStatusCode interface{ StatusCode() int }
	var sc hasStatusCode
	if errors.As(err, &sc) {
		switch sc.StatusCode() {
		case http.StatusTooManyRequests,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}

	return false
}
