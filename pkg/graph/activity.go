package graph

import "math"

// Activity describes how an edge animates traffic: Pulses markers travel
// from source to target, each crossing in Period seconds. A zero Activity
// means the edge is idle.
type Activity struct {
	Period float64
	Pulses int
}

// EdgeActivity maps a source vertex's message rate to edge animation.
// The rate is bucketed logarithmically so busy edges speed up without
// becoming unreadable: rate = floor(log2(mps+1)+1), period = 5/rate.
func EdgeActivity(mps float64) Activity {
	if !(mps > 0) || math.IsInf(mps, 0) {
		return Activity{}
	}
	rate := math.Floor(math.Log2(mps+1) + 1)
	return Activity{Period: 5.0 / rate, Pulses: 2}
}

// Idle reports whether no traffic is shown.
func (a Activity) Idle() bool { return a.Pulses == 0 }
