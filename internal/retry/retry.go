package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"syscall"
	"time"
)

// Policy is the shared backoff policy applied to every external call the
// pipeline retries (rewrite and publish). One policy, tested once, instead of
// ad-hoc retry loops around each HTTP client.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	MaxDelay    time.Duration // cap on a single sleep
	Jitter      bool
}

// DefaultPolicy matches the configured defaults: 3 attempts, 1s base, x2.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Multiplier:  2.0,
		MaxDelay:    30 * time.Second,
		Jitter:      true,
	}
}

// Delay returns the sleep before the given attempt (attempt 1 has none).
func (p Policy) Delay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}
	d := float64(p.BaseDelay)
	for i := 2; i < attempt; i++ {
		d *= p.Multiplier
	}
	delay := time.Duration(d)
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	if p.Jitter && delay >= 2 {
		delay += time.Duration(rand.Int63n(int64(delay) / 2))
	}
	return delay
}

// Do runs fn up to MaxAttempts times, sleeping between attempts. Terminal
// errors short-circuit without consuming remaining attempts. The attempt
// count actually consumed is always returned, including on failure.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) (attempts int, err error) {
	max := p.MaxAttempts
	if max < 1 {
		max = 1
	}
	for attempt := 1; attempt <= max; attempt++ {
		if d := p.Delay(attempt); d > 0 {
			t := time.NewTimer(d)
			select {
			case <-ctx.Done():
				t.Stop()
				return attempt - 1, ctx.Err()
			case <-t.C:
			}
		}

		err = fn(ctx)
		if err == nil {
			return attempt, nil
		}
		if ctx.Err() != nil {
			return attempt, err
		}
		if !Retryable(err) {
			return attempt, err
		}
	}
	return max, err
}

// StatusError carries an HTTP status so failures classify without string
// matching.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http status %d", e.Status)
	}
	return fmt.Sprintf("http status %d: %s", e.Status, e.Body)
}

// ErrMalformedResponse marks an upstream reply that parsed but made no sense.
// Retrying will not help.
var ErrMalformedResponse = errors.New("malformed upstream response")

// Retryable classifies an error: timeouts, connection resets, 429, and 5xx
// are worth retrying; other 4xx, auth failures, and malformed responses are
// terminal.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrMalformedResponse) {
		return false
	}

	var se *StatusError
	if errors.As(err, &se) {
		if se.Status == http.StatusTooManyRequests {
			return true
		}
		return se.Status >= 500
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	var oe *net.OpError
	return errors.As(err, &oe)
}

// AuthFailure reports whether an error is a 401/403. Publish auth failures
// recur for every listing, so the orchestrator aborts the whole run early.
func AuthFailure(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status == http.StatusUnauthorized || se.Status == http.StatusForbidden
	}
	return false
}
