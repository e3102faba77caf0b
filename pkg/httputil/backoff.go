package httputil

import "time"

// Backoff yields exponentially growing delays between reconnect attempts.
// The zero value uses one second initial delay, a 30 second cap and a
// multiplier of two. Backoff is not safe for concurrent use.
type Backoff struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64

	current time.Duration
}

// Next returns the delay to wait before the next attempt and advances the
// schedule.
func (b *Backoff) Next() time.Duration {
	initial, maxDelay, mult := b.Initial, b.Max, b.Multiplier
	if initial <= 0 {
		initial = time.Second
	}
	if maxDelay <= 0 {
		maxDelay = 30 * time.Second
	}
	if mult < 1 {
		mult = 2
	}

	if b.current == 0 {
		b.current = initial
	} else {
		b.current = time.Duration(float64(b.current) * mult)
	}
	if b.current > maxDelay {
		b.current = maxDelay
	}
	return b.current
}

// Reset restarts the schedule at Initial.
func (b *Backoff) Reset() { b.current = 0 }
