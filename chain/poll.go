package chain

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// PollConfig configures how WaitMined polls for a receipt.
type PollConfig struct {
	// Interval is the delay before the second poll.
	Interval time.Duration
	// MaxInterval caps the delay between polls.
	MaxInterval time.Duration
	// Multiplier is the factor by which the delay increases after each poll.
	Multiplier float64
	// Jitter is the randomization factor (0.0 to 1.0) applied to delays.
	Jitter float64
	// MaxErrors is the number of consecutive RPC errors tolerated before
	// WaitMined gives up. A missing receipt is not an error.
	MaxErrors int
}

// DefaultPollConfig returns the default polling configuration.
func DefaultPollConfig() PollConfig {
	return PollConfig{
		Interval:    time.Second,
		MaxInterval: 10 * time.Second,
		Multiplier:  1.5,
		Jitter:      0.2,
		MaxErrors:   3,
	}
}

// Delay calculates the delay before poll number attempt+1.
func (p PollConfig) Delay(attempt int) time.Duration {
	delay := float64(p.Interval) * math.Pow(p.Multiplier, float64(attempt))
	if p.MaxInterval > 0 && delay > float64(p.MaxInterval) {
		delay = float64(p.MaxInterval)
	}

	if p.Jitter > 0 {
		jitterAmount := delay * p.Jitter
		delay = delay - jitterAmount + (rand.Float64() * 2 * jitterAmount)
	}

	return time.Duration(delay)
}

// Wait sleeps for Delay(attempt) or until ctx is done.
func (p PollConfig) Wait(ctx context.Context, attempt int) error {
	timer := time.NewTimer(p.Delay(attempt))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
