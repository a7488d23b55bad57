package backoff

import (
	"context"
	"time"
)

// Exponential doubles the wait after every attempt, capped by limit when limit > 0
type Exponential struct {
	start    time.Duration
	limit    time.Duration
	next     time.Duration
	attempts int
}

func NewExponential(start time.Duration, limit time.Duration) *Exponential {
	b := &Exponential{start: start, limit: limit}
	b.Reset()
	return b
}

func (b *Exponential) Reset() {
	b.attempts = 0
	b.next = b.start
}

// Next is the duration the following Backoff call waits for
func (b *Exponential) Next() time.Duration {
	return b.next
}

// Attempts counts the completed waits since the last Reset
func (b *Exponential) Attempts() int {
	return b.attempts
}

// Backoff waits for Next, or returns the ctx error if ctx is done first
func (b *Exponential) Backoff(ctx context.Context) error {
	t := time.NewTimer(b.next)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
	}

	b.attempts++
	b.next *= 2
	if b.limit > 0 && b.next > b.limit {
		b.next = b.limit
	}
	return nil
}
