package world

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wildersim/wilder/internal/core/config"
	"github.com/wildersim/wilder/internal/core/geometry"
	"github.com/wildersim/wilder/internal/core/models"
	"github.com/wildersim/wilder/internal/core/observability/log"
	"github.com/wildersim/wilder/internal/core/perf"
	"github.com/wildersim/wilder/internal/core/physics"
	"github.com/wildersim/wilder/internal/core/spatial"
	"github.com/wildersim/wilder/internal/core/spatial/query"
)

// retuneInterval is how many ticks pass between level-of-detail
// recomputations, matching the monitor window.
const retuneInterval = 120

// World wires the spatial index, query service, physics bridge and
// performance monitor into one tick pipeline. All methods belong to
// the simulation goroutine.
type World struct {
	session uuid.UUID

	store   *TransformMap
	index   *spatial.Index
	queries *query.Service
	bridge  *physics.Bridge
	monitor *perf.Monitor

	// radii remembers each entity's bounding sphere for index updates.
	radii map[models.EntityID]float32

	tick   uint64
	tuning perf.Tuning

	log log.Log
}

// New builds a world from configuration. The layer matrix is seeded
// from cfg.Layers when present.
func New(cfg *config.Config, logger log.Log) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("world config: %w", err)
	}

	store := NewTransformMap()
	bounds := geometry.AABB{
		Min: geometry.V3(cfg.World.BoundsMin[0], cfg.World.BoundsMin[1], cfg.World.BoundsMin[2]),
		Max: geometry.V3(cfg.World.BoundsMax[0], cfg.World.BoundsMax[1], cfg.World.BoundsMax[2]),
	}
	index := spatial.NewIndex(spatial.Options{
		WorldBounds:    bounds,
		SplitThreshold: cfg.Octree.SplitThreshold,
		MaxDepth:       cfg.Octree.MaxDepth,
	}, logger)

	matrix := physics.NewLayerMatrix()
	if len(cfg.Layers) > 0 {
		if err := matrix.Configure(cfg.Layers); err != nil {
			return nil, fmt.Errorf("world layers: %w", err)
		}
	}

	gravity := geometry.V3(cfg.Physics.Gravity[0], cfg.Physics.Gravity[1], cfg.Physics.Gravity[2])
	bridge := physics.NewBridge(store, matrix, physics.Options{
		Gravity:     &gravity,
		FixedDt:     cfg.Physics.FixedDt,
		Threads:     cfg.Physics.Threads,
		MaxBodies:   cfg.Physics.MaxBodies,
		CellSize:    cfg.Physics.CellSize,
		PoseEpsilon: cfg.Physics.PoseEpsilon,
	}, logger)

	w := &World{
		session: uuid.New(),
		store:   store,
		index:   index,
		queries: query.NewService(index, cfg.Queries.DetectionInterval, logger),
		bridge:  bridge,
		monitor: perf.NewMonitor(retuneInterval),
		radii:   make(map[models.EntityID]float32),
		tuning:  perf.DefaultTuning(),
		log:     logger,
	}
	w.log.Info("world created",
		log.String("session", w.session.String()),
		log.Int("layers", len(cfg.Layers)))
	return w, nil
}

// SessionID identifies this world instance in logs and telemetry.
func (w *World) SessionID() string { return w.session.String() }

// Spawn registers an entity with a transform and a bounding sphere.
func (w *World) Spawn(id models.EntityID, t models.Transform, radius float32, layers uint32, behavior spatial.Behavior) error {
	if _, ok := w.store.Transform(id); ok {
		return fmt.Errorf("spawn entity %d: %w", id, spatial.ErrDuplicateEntity)
	}
	w.store.SetTransform(id, t)
	s := geometry.Sphere{Center: t.Position, Radius: radius}
	if err := w.index.InsertSphere(id, s, layers, behavior); err != nil {
		w.store.Delete(id)
		return err
	}
	w.radii[id] = radius
	return nil
}

// Despawn removes an entity everywhere: transform store, spatial
// index, physics body and detection state. After Despawn returns the
// entity is unreachable from any query.
func (w *World) Despawn(id models.EntityID) error {
	if err := w.index.Remove(id); err != nil {
		return err
	}
	if err := w.bridge.UnregisterBody(id); err != nil && !errors.Is(err, physics.ErrNotFound) {
		return err
	}
	w.store.Delete(id)
	w.queries.ForgetDetection(id)
	delete(w.radii, id)
	return nil
}

// AttachBody gives a spawned entity a physics body.
func (w *World) AttachBody(id models.EntityID, shape physics.Shape, kind physics.BodyKind, layer uint8) error {
	if _, ok := w.store.Transform(id); !ok {
		return fmt.Errorf("attach body entity %d: %w", id, physics.ErrNotFound)
	}
	return w.bridge.RegisterBody(id, shape, kind, layer)
}

// DetachBody removes an entity's physics body, keeping the entity.
func (w *World) DetachBody(id models.EntityID) error {
	return w.bridge.UnregisterBody(id)
}

// Move repositions an entity from outside physics, for scripted or
// player-driven motion. The spatial index follows immediately.
func (w *World) Move(id models.EntityID, position geometry.Vec3) error {
	t, ok := w.store.Transform(id)
	if !ok {
		return fmt.Errorf("move entity %d: %w", id, spatial.ErrNotFound)
	}
	t.Position = position
	w.store.SetTransform(id, t)
	return w.index.UpdateSphere(id, geometry.Sphere{Center: position, Radius: w.radii[id]})
}

// Tick advances the simulation: physics step and transform write-back,
// spatial index refresh for moved entities, then query cache
// invalidation for the consumers that follow. A degraded physics
// bridge does not stop the tick.
func (w *World) Tick(dt float32) error {
	w.tick++
	w.monitor.BeginFrame()
	w.index.BeginTick()
	w.queries.BeginTick(w.tick, time.Now())

	w.monitor.StartPhase(perf.PhasePhysics)
	if err := w.bridge.Step(dt); err != nil {
		if !errors.Is(err, physics.ErrDegraded) {
			return fmt.Errorf("tick %d: %w", w.tick, err)
		}
		w.log.Warn("tick continued with degraded physics",
			log.Uint64("tick", w.tick), log.String("state", w.bridge.State().String()))
	}

	w.monitor.StartPhase(perf.PhaseSpatial)
	for _, id := range w.bridge.LastMoved() {
		t, ok := w.store.Transform(id)
		if !ok {
			continue
		}
		s := geometry.Sphere{Center: t.Position, Radius: w.radii[id]}
		if err := w.index.UpdateSphere(id, s); err != nil && !errors.Is(err, spatial.ErrNotFound) {
			return fmt.Errorf("tick %d: %w", w.tick, err)
		}
	}

	w.monitor.EndFrame(w.index.Len())

	if w.tick%retuneInterval == 0 {
		w.retune()
	}
	return nil
}

// retune recomputes the level-of-detail settings from the measured
// window and applies any change to the index.
func (w *World) retune() {
	stats := w.monitor.Stats()
	next := perf.Tune(stats.AvgFrame, w.index.Len())
	if next == w.tuning {
		return
	}
	w.tuning = next
	w.index.SetSplitThreshold(next.SplitThreshold)
	w.log.Info("level of detail retuned",
		log.Uint64("tick", w.tick),
		log.Int("split_threshold", next.SplitThreshold),
		log.Float32("simplified_physics_radius", next.SimplifiedPhysicsRadius))
}

// Tuning returns the active level-of-detail settings.
func (w *World) Tuning() perf.Tuning { return w.tuning }

// VisibleSet returns entities possibly inside the frustum, for render
// culling.
func (w *World) VisibleSet(f geometry.Frustum, mask uint32) []models.EntityID {
	return w.queries.Frustum(f, mask)
}

// VisibleTo is VisibleSet fed from a camera system.
func (w *World) VisibleTo(camera models.FrustumProvider, mask uint32) []models.EntityID {
	return w.VisibleSet(camera.ActiveFrustum(), mask)
}

// DetectionScan runs a throttled perception scan around an entity.
func (w *World) DetectionScan(id models.EntityID, radius float32, mask uint32) ([]models.EntityID, error) {
	t, ok := w.store.Transform(id)
	if !ok {
		return nil, fmt.Errorf("detection scan entity %d: %w", id, spatial.ErrNotFound)
	}
	return w.queries.Detection(id, t.Position, radius, mask)
}

// QueryRadius is the cached radius query.
func (w *World) QueryRadius(center geometry.Vec3, radius float32, mask uint32) ([]models.EntityID, error) {
	return w.queries.Radius(center, radius, mask)
}

// QueryNearest returns the closest entity to a point.
func (w *World) QueryNearest(point geometry.Vec3, mask uint32, maxDistance float32) (models.EntityID, bool) {
	return w.queries.Nearest(point, mask, maxDistance)
}

// Raycast delegates to the physics bridge's exact structures.
func (w *World) Raycast(origin, dir geometry.Vec3, maxDist float32, mask uint32) (physics.Hit, bool) {
	return w.bridge.Raycast(origin, dir, maxDist, mask)
}

// OverlapShape delegates to the physics bridge.
func (w *World) OverlapShape(shape physics.Shape, center geometry.Vec3, mask uint32) ([]models.EntityID, error) {
	return w.bridge.OverlapShape(shape, center, mask)
}

// Transform reads an entity's authoritative transform.
func (w *World) Transform(id models.EntityID) (models.Transform, bool) {
	return w.store.Transform(id)
}

// Bridge exposes the physics bridge for layer configuration and
// contact callbacks.
func (w *World) Bridge() *physics.Bridge { return w.bridge }

// Summary aggregates component statistics for telemetry.
type Summary struct {
	Session  string
	Tick     uint64
	Entities int
	Spatial  spatial.Statistics
	Perf     perf.Stats
	Physics  physics.State
	Bodies   int
}

func (w *World) Summary() Summary {
	return Summary{
		Session:  w.session.String(),
		Tick:     w.tick,
		Entities: w.store.Len(),
		Spatial:  w.index.Stats(),
		Perf:     w.monitor.Stats(),
		Physics:  w.bridge.State(),
		Bodies:   w.bridge.Len(),
	}
}
