package geocode

import (
	"context"
	"errors"
	"log"
	"net"
	"time"
)

// Retrying retries timed-out lookups with linear backoff.
type Retrying struct {
	next     Geocoder
	attempts int
	backoff  time.Duration
	timeout  time.Duration
}

func NewRetrying(next Geocoder, attempts int, backoff, timeout time.Duration) *Retrying {
	if attempts < 1 {
		attempts = 1
	}
	return &Retrying{next: next, attempts: attempts, backoff: backoff, timeout: timeout}
}

func (r *Retrying) Geocode(ctx context.Context, query string) (*Result, error) {
	var lastErr error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		res, err := r.try(ctx, query)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if !isTimeout(err) || ctx.Err() != nil {
			return nil, err
		}
		if attempt == r.attempts {
			break
		}
		log.Printf("geocode %q timed out (attempt %d/%d), retrying", query, attempt, r.attempts)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.backoff * time.Duration(attempt)):
		}
	}
	return nil, lastErr
}

func (r *Retrying) try(ctx context.Context, query string) (*Result, error) {
	if r.timeout <= 0 {
		return r.next.Geocode(ctx, query)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.next.Geocode(attemptCtx, query)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
