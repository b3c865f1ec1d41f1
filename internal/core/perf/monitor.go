package perf

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/wildersim/wilder/pkg/sequence"
)

// Phase names for the simulation tick.
const (
	PhasePhysics   = "physics"
	PhaseWriteBack = "write_back"
	PhaseSpatial   = "spatial"
	PhaseQueries   = "queries"
	PhaseCulling   = "culling"
)

// Sample holds timing data for a single tick.
type Sample struct {
	FrameDuration time.Duration
	Phases        map[string]time.Duration
	EntityCount   int
}

// Monitor tracks tick timings over a rolling window. It belongs to the
// simulation goroutine like the rest of the tick pipeline.
type Monitor struct {
	windowSize  int
	samples     []Sample
	writeIndex  int
	sampleCount int

	currentPhases map[string]time.Duration
	frameStart    time.Time
	phaseStart    time.Time
	lastPhase     string
}

// NewMonitor creates a monitor averaging over windowSize ticks.
func NewMonitor(windowSize int) *Monitor {
	if windowSize < 1 {
		windowSize = 120
	}
	return &Monitor{
		windowSize:    windowSize,
		samples:       make([]Sample, windowSize),
		currentPhases: make(map[string]time.Duration),
	}
}

// BeginFrame starts timing a new tick.
func (m *Monitor) BeginFrame() {
	m.frameStart = time.Now()
	m.currentPhases = make(map[string]time.Duration)
	m.lastPhase = ""
}

// StartPhase closes the running phase and opens a new one.
func (m *Monitor) StartPhase(phase string) {
	now := time.Now()
	if m.lastPhase != "" {
		m.currentPhases[m.lastPhase] += now.Sub(m.phaseStart)
	}
	m.phaseStart = now
	m.lastPhase = phase
}

// EndFrame records the finished tick into the rolling window.
func (m *Monitor) EndFrame(entityCount int) {
	now := time.Now()
	if m.lastPhase != "" {
		m.currentPhases[m.lastPhase] += now.Sub(m.phaseStart)
	}

	m.samples[m.writeIndex] = Sample{
		FrameDuration: now.Sub(m.frameStart),
		Phases:        m.currentPhases,
		EntityCount:   entityCount,
	}
	m.writeIndex = (m.writeIndex + 1) % m.windowSize
	if m.sampleCount < m.windowSize {
		m.sampleCount++
	}
}

// Record inserts a pre-measured tick, for callers that time themselves.
func (m *Monitor) Record(frame time.Duration, entityCount int) {
	m.samples[m.writeIndex] = Sample{FrameDuration: frame, EntityCount: entityCount}
	m.writeIndex = (m.writeIndex + 1) % m.windowSize
	if m.sampleCount < m.windowSize {
		m.sampleCount++
	}
}

// Stats aggregates the current window.
type Stats struct {
	AvgFrame time.Duration
	MaxFrame time.Duration
	P50Frame time.Duration
	P95Frame time.Duration
	P99Frame time.Duration

	TicksPerSecond float64
	PhaseAvg       map[string]time.Duration
	AvgEntityCount int
}

func (m *Monitor) Stats() Stats {
	if m.sampleCount == 0 {
		return Stats{PhaseAvg: make(map[string]time.Duration)}
	}

	var total, maxFrame time.Duration
	var entities int
	phaseSum := make(map[string]time.Duration)

	for i := 0; i < m.sampleCount; i++ {
		s := m.samples[i]
		total += s.FrameDuration
		if s.FrameDuration > maxFrame {
			maxFrame = s.FrameDuration
		}
		entities += s.EntityCount
		for phase, d := range s.Phases {
			phaseSum[phase] += d
		}
	}

	// Quantile wants the samples sorted ascending.
	frames := sequence.ToArray(
		sequence.From(m.samples[:m.sampleCount]).Sort(func(a, b Sample) bool {
			return a.FrameDuration < b.FrameDuration
		}),
		func(s Sample) float64 { return float64(s.FrameDuration) },
	)

	avg := total / time.Duration(m.sampleCount)
	phaseAvg := make(map[string]time.Duration, len(phaseSum))
	for phase, sum := range phaseSum {
		phaseAvg[phase] = sum / time.Duration(m.sampleCount)
	}

	var tps float64
	if avg > 0 {
		tps = float64(time.Second) / float64(avg)
	}

	return Stats{
		AvgFrame:       avg,
		MaxFrame:       maxFrame,
		P50Frame:       time.Duration(stat.Quantile(0.50, stat.Empirical, frames, nil)),
		P95Frame:       time.Duration(stat.Quantile(0.95, stat.Empirical, frames, nil)),
		P99Frame:       time.Duration(stat.Quantile(0.99, stat.Empirical, frames, nil)),
		TicksPerSecond: tps,
		PhaseAvg:       phaseAvg,
		AvgEntityCount: entities / m.sampleCount,
	}
}
