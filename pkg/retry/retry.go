// Package retry repeats transport operations with capped exponential backoff.
// Coordination logic never retries; only NATS connection setup and
// notification publishing go through this package.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// Policy bounds how often and how slowly an operation is repeated. Zero
// fields take the defaults of 1 attempt, 100ms base wait, 5s cap and
// factor 2.
type Policy struct {
	Attempts int           // total tries
	Base     time.Duration // wait after the first failure
	Cap      time.Duration // longest single wait
	Factor   float64       // growth per failure
	Jitter   bool          // add up to a quarter of each wait
}

func (p Policy) normalized() (Policy, error) {
	if p.Base < 0 || p.Cap < 0 || p.Factor < 0 {
		return p, errors.New("retry: waits and factor cannot be negative")
	}
	p.Attempts = max(p.Attempts, 1)
	if p.Base == 0 {
		p.Base = 100 * time.Millisecond
	}
	if p.Cap == 0 {
		p.Cap = 5 * time.Second
	}
	if p.Factor == 0 {
		p.Factor = 2
	}
	if p.Cap < p.Base {
		return p, fmt.Errorf("retry: cap %v is below base %v", p.Cap, p.Base)
	}
	return p, nil
}

// wait is the pause after the given number of consecutive failures.
func (p Policy) wait(failures int) time.Duration {
	d := time.Duration(math.Min(float64(p.Base)*math.Pow(p.Factor, float64(failures-1)), float64(p.Cap)))
	if p.Jitter && d >= 4 {
		d += time.Duration(rand.Int64N(int64(d / 4)))
	}
	return d
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return "permanent: " + e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err so that Do returns it without another attempt.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked by Permanent.
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

// Do calls op until it succeeds, returns a permanent error, ctx ends or the
// policy runs out of attempts.
func Do(ctx context.Context, p Policy, op func() error) error {
	p, err := p.normalized()
	if err != nil {
		return err
	}

	for try := 1; ; try++ {
		err := op()
		switch {
		case err == nil:
			return nil
		case IsPermanent(err):
			return err
		case ctx.Err() != nil:
			return fmt.Errorf("retry: cancelled after attempt %d: %w", try, ctx.Err())
		case try == p.Attempts:
			return fmt.Errorf("retry: failed after %d attempts: %w", try, err)
		}

		t := time.NewTimer(p.wait(try))
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("retry: cancelled waiting for attempt %d: %w", try+1, ctx.Err())
		case <-t.C:
		}
	}
}
