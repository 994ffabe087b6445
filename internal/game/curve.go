package game

import (
	"math"
	"time"
)

// Multiplier growth constants. The curve starts at 1.00 and accelerates
// quadratically: m(t) = 1 + t/linearDivisor + quadraticFactor*t^2, with t in
// seconds, truncated to 2 decimals.
//
// The exact same curve decides when a round crashes and what a cashout pays.
// Display code may interpolate however it likes, but settlement only ever
// goes through MultiplierAt.
const (
	curveLinearDivisor   = 1.5
	curveQuadraticFactor = 0.005
)

// MultiplierAt returns the multiplier shown (and paid) after the given time
// in the running phase. Monotonically non-decreasing, 1.00 at or before t=0.
func MultiplierAt(elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return MinMultiplier
	}
	t := elapsed.Seconds()
	m := 1.0 + t/curveLinearDivisor + curveQuadraticFactor*t*t
	return math.Floor(m*100) / 100
}

// TimeToReach inverts the growth curve: the elapsed time at which
// MultiplierAt first reaches target. Used by tests and by clients that want
// to predict the crash instant from a revealed crash point.
func TimeToReach(target float64) time.Duration {
	if target <= MinMultiplier {
		return 0
	}
	// Solve quadraticFactor*t^2 + t/linearDivisor + (1-target) = 0 for t>0.
	a := curveQuadraticFactor
	b := 1.0 / curveLinearDivisor
	c := 1.0 - target
	t := (-b + math.Sqrt(b*b-4*a*c)) / (2 * a)
	return time.Duration(t * float64(time.Second))
}
