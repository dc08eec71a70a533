package waittx

import (
	"math"
	"math/rand/v2"
	"time"
)

// Backoff defines polling cadence.
type Backoff interface {
	// Next returns the delay before poll number attempt+1 (attempt starts at 1).
	Next(attempt int) time.Duration
}

// ConstantBackoff waits the same interval between polls.
type ConstantBackoff struct{ Every time.Duration }

func (b ConstantBackoff) Next(int) time.Duration { return b.Every }

// ExponentialBackoff grows delays geometrically up to Max and optionally
// applies jitter in [-Jitter, +Jitter] of the delay.
type ExponentialBackoff struct {
	Initial    time.Duration
	Multiplier float64
	Max        time.Duration
	Jitter     float64
	Rand       func() float64
}

func (b ExponentialBackoff) Next(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	initial := b.Initial
	if initial <= 0 {
		initial = 500 * time.Millisecond
	}
	multiplier := b.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}

	base := float64(initial) * math.Pow(multiplier, float64(attempt-1))
	if b.Max > 0 && base > float64(b.Max) {
		base = float64(b.Max)
	}
	if base > float64(math.MaxInt64) {
		base = float64(math.MaxInt64)
	}

	jitter := min(max(b.Jitter, 0), 1)
	if jitter > 0 {
		randFn := b.Rand
		if randFn == nil {
			randFn = rand.Float64
		}
		factor := max(1+(randFn()*2-1)*jitter, 0)
		base = min(base*factor, float64(math.MaxInt64))
	}

	delay := time.Duration(base)
	if delay <= 0 {
		delay = time.Millisecond
	}
	return delay
}
