package main

import (
	"context"
	"math/rand/v2"
	"time"
)

const (
	maxBackoff   = 10 * time.Second
	jitterWindow = 250 * time.Millisecond
)

// nextBackoff doubles current up to limit. A zero current starts from base.
func nextBackoff(current, base, limit time.Duration) time.Duration {
	if current <= 0 {
		current = base
	}
	return min(current*2, limit)
}

// withJitter spreads replicas that failed together.
func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d + rand.N(jitterWindow)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
