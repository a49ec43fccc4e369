package viewer

import (
	"context"
	"errors"
	"time"
)

// ErrPollTimeout reports that a readiness probe never succeeded within its
// attempt budget.
var ErrPollTimeout = errors.New("readiness poll timed out")

// Poll is a bounded retry-until-ready routine. Every wait in this package
// goes through one of these so nothing can spin forever.
type Poll struct {
	Interval time.Duration
	Attempts int
}

// DefaultPoll matches the embed SDK's observed readiness budget:
// 50 attempts at 100ms, roughly a five second ceiling.
var DefaultPoll = Poll{Interval: 100 * time.Millisecond, Attempts: 50}

// Await probes until ready returns true, the attempt budget runs out, or
// the context is done. The first probe happens immediately.
func (p Poll) Await(ctx context.Context, ready func() bool) error {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPoll.Interval
	}
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = DefaultPoll.Attempts
	}
	for i := 0; i < attempts; i++ {
		if ready() {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
	return ErrPollTimeout
}
