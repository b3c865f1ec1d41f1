package perf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitor_EmptyWindow(t *testing.T) {
	m := NewMonitor(10)
	s := m.Stats()
	assert.Zero(t, s.AvgFrame)
	assert.Empty(t, s.PhaseAvg)
}

func TestMonitor_RecordedStats(t *testing.T) {
	m := NewMonitor(100)
	for i := 1; i <= 100; i++ {
		m.Record(time.Duration(i)*time.Millisecond, 500)
	}

	s := m.Stats()
	assert.Equal(t, 100*time.Millisecond, s.MaxFrame)
	assert.InDelta(t, float64(50500*time.Microsecond), float64(s.AvgFrame), float64(time.Millisecond))
	assert.Equal(t, 500, s.AvgEntityCount)

	// Quantiles follow the sample distribution.
	assert.GreaterOrEqual(t, s.P95Frame, s.P50Frame)
	assert.GreaterOrEqual(t, s.P99Frame, s.P95Frame)
	assert.InDelta(t, float64(50*time.Millisecond), float64(s.P50Frame), float64(2*time.Millisecond))
	assert.InDelta(t, float64(95*time.Millisecond), float64(s.P95Frame), float64(2*time.Millisecond))
}

func TestMonitor_WindowRolls(t *testing.T) {
	m := NewMonitor(10)
	for i := 0; i < 10; i++ {
		m.Record(time.Second, 1)
	}
	for i := 0; i < 10; i++ {
		m.Record(time.Millisecond, 1)
	}

	s := m.Stats()
	assert.Equal(t, time.Millisecond, s.MaxFrame, "old samples age out")
}

func TestMonitor_Phases(t *testing.T) {
	m := NewMonitor(10)
	m.BeginFrame()
	m.StartPhase(PhasePhysics)
	time.Sleep(2 * time.Millisecond)
	m.StartPhase(PhaseSpatial)
	time.Sleep(time.Millisecond)
	m.EndFrame(42)

	s := m.Stats()
	require.Contains(t, s.PhaseAvg, PhasePhysics)
	require.Contains(t, s.PhaseAvg, PhaseSpatial)
	assert.Greater(t, s.PhaseAvg[PhasePhysics], time.Duration(0))
	assert.GreaterOrEqual(t, s.AvgFrame, s.PhaseAvg[PhasePhysics])
	assert.Equal(t, 42, s.AvgEntityCount)
}

func TestTune(t *testing.T) {
	cases := []struct {
		name     string
		frame    time.Duration
		entities int
		want     Tuning
	}{
		{"idle", 5 * time.Millisecond, 100, DefaultTuning()},
		{"just over 60fps", 18 * time.Millisecond, 100, Tuning{SplitThreshold: 10, SimplifiedPhysicsRadius: 75}},
		{"over 50fps", 25 * time.Millisecond, 100, Tuning{SplitThreshold: 12, SimplifiedPhysicsRadius: 50}},
		{"over 30fps", 50 * time.Millisecond, 100, Tuning{SplitThreshold: 16, SimplifiedPhysicsRadius: 25}},
		{"dense world within budget", 5 * time.Millisecond, 5000, Tuning{SplitThreshold: 12, SimplifiedPhysicsRadius: 100}},
		{"dense world over budget keeps tier", 50 * time.Millisecond, 5000, Tuning{SplitThreshold: 16, SimplifiedPhysicsRadius: 25}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Tune(tc.frame, tc.entities))
		})
	}
}

func TestTune_Deterministic(t *testing.T) {
	a := Tune(21*time.Millisecond, 1500)
	b := Tune(21*time.Millisecond, 1500)
	assert.Equal(t, a, b)
}
