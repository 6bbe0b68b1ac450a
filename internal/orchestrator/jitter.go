package orchestrator

import (
	"context"
	"math/rand"
	"time"
)

// RandomJitter returns a jitter source drawing uniformly from [min, max).
// Spacing actions by a human-looking random delay is part of the agent's
// safety posture, not cosmetics.
func RandomJitter(min, max time.Duration) func() time.Duration {
	return func() time.Duration {
		if max <= min {
			return min
		}
		return min + time.Duration(rand.Int63n(int64(max-min)))
	}
}

// NoJitter disables inter-action delays. Tests use it; production should
// not.
func NoJitter() time.Duration { return 0 }

// sleepCtx waits for d or for the context, whichever ends first.
func sleepCtx(ctx context.Context, d time.Duration) error {
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
