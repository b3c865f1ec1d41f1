package perf

import "time"

// Tuning is the level-of-detail output derived from measured load: how
// eagerly the spatial index subdivides and how far out full-fidelity
// physics extends. Entities past SimplifiedPhysicsRadius get coarse
// treatment by the systems that consume this.
type Tuning struct {
	SplitThreshold          int
	SimplifiedPhysicsRadius float32
}

// DefaultTuning is the unloaded baseline.
func DefaultTuning() Tuning {
	return Tuning{SplitThreshold: 8, SimplifiedPhysicsRadius: 100}
}

// Frame-time tiers, in terms of common display rates.
const (
	frame60 = 16667 * time.Microsecond
	frame50 = 20 * time.Millisecond
	frame30 = 33333 * time.Microsecond
)

// Tune is a pure function from measured load to tuning. Callers
// recompute it periodically (once per stats window) instead of nudging
// thresholds ad hoc inside the update loop, so a given load always
// lands on the same configuration.
func Tune(frameTime time.Duration, entityCount int) Tuning {
	t := DefaultTuning()
	switch {
	case frameTime > frame30:
		t = Tuning{SplitThreshold: 16, SimplifiedPhysicsRadius: 25}
	case frameTime > frame50:
		t = Tuning{SplitThreshold: 12, SimplifiedPhysicsRadius: 50}
	case frameTime > frame60:
		t = Tuning{SplitThreshold: 10, SimplifiedPhysicsRadius: 75}
	}

	// Dense worlds benefit from coarser leaves even when frame time is
	// still inside budget; splitting stops paying for itself when most
	// leaves churn every tick.
	if entityCount > 2000 && t.SplitThreshold < 12 {
		t.SplitThreshold = 12
	}
	return t
}
