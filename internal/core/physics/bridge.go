package physics

import (
	"fmt"
	"runtime"

	"github.com/google/uuid"

	"github.com/wildersim/wilder/internal/core/geometry"
	"github.com/wildersim/wilder/internal/core/models"
	"github.com/wildersim/wilder/internal/core/observability/log"
	"github.com/wildersim/wilder/pkg/sequence"
)

// State is the bridge health state.
type State uint8

const (
	StateNormal State = iota
	StateDegraded
)

func (s State) String() string {
	if s == StateDegraded {
		return "degraded"
	}
	return "normal"
}

const (
	// DefaultFixedDt is the simulation increment, 60 Hz.
	DefaultFixedDt = float32(1.0 / 60.0)
	// DefaultPoseEpsilon is the movement below which a pose change is
	// not written back to the transform store.
	DefaultPoseEpsilon = float32(1e-4)
	// DefaultMaxBodies caps registration so per-step latency stays
	// predictable.
	DefaultMaxBodies = 4096
	// DefaultCellSize is the broad-phase hash cell edge.
	DefaultCellSize = float32(5.0)
)

// Options configures a Bridge. Zero fields fall back to defaults;
// Gravity's zero value means standard downward gravity.
type Options struct {
	Gravity     *geometry.Vec3
	FixedDt     float32
	Threads     int
	MaxBodies   int
	CellSize    float32
	PoseEpsilon float32
}

func (o *Options) fill() {
	if o.Gravity == nil {
		g := geometry.V3(0, -9.81, 0)
		o.Gravity = &g
	}
	if o.FixedDt <= 0 {
		o.FixedDt = DefaultFixedDt
	}
	if o.Threads <= 0 {
		o.Threads = runtime.NumCPU() - 1
		if o.Threads < 1 {
			o.Threads = 1
		}
	}
	if o.MaxBodies <= 0 {
		o.MaxBodies = DefaultMaxBodies
	}
	if o.CellSize <= 0 {
		o.CellSize = DefaultCellSize
	}
	if o.PoseEpsilon <= 0 {
		o.PoseEpsilon = DefaultPoseEpsilon
	}
}

// registration remembers what was asked for at RegisterBody time so a
// recovery pass can rebuild the solver from scratch.
type registration struct {
	id    bodyID
	shape Shape
	kind  BodyKind
	layer uint8
}

// Bridge owns the rigid-body solver and keeps it consistent with the
// external transform store. Entities and bodies map one to one; Step is
// the only path that writes transforms back. Like the spatial index it
// belongs to the simulation goroutine.
type Bridge struct {
	opts   Options
	store  models.TransformStore
	matrix *LayerMatrix
	eng    *engine

	bodies map[models.EntityID]registration

	state      State
	failures   int
	recoveries uint64

	moved []models.EntityID

	onContactBegin []func(a, b models.EntityID)
	onContactEnd   []func(a, b models.EntityID)

	faultHook func() error

	log log.Log
}

// NewBridge builds a bridge over the given transform store and layer
// matrix. Pass a fresh NewLayerMatrix for default all-collide behavior.
func NewBridge(store models.TransformStore, matrix *LayerMatrix, opts Options, logger log.Log) *Bridge {
	opts.fill()
	return &Bridge{
		opts:   opts,
		store:  store,
		matrix: matrix,
		eng:    newEngine(*opts.Gravity, opts.CellSize, opts.Threads, matrix),
		bodies: make(map[models.EntityID]registration),
		log:    logger,
	}
}

// RegisterBody creates a body for an entity. The body spawns at the
// entity's current transform position.
func (b *Bridge) RegisterBody(entity models.EntityID, shape Shape, kind BodyKind, layer uint8) error {
	if b.state == StateDegraded {
		return fmt.Errorf("register entity %d: %w", entity, ErrDegraded)
	}
	if err := shape.Validate(); err != nil {
		b.log.Warn("body registration rejected",
			log.Uint64("entity", uint64(entity)), log.String("op", "register"), log.Error(err))
		return fmt.Errorf("register entity %d: %w", entity, err)
	}
	if layer >= MaxLayers {
		return fmt.Errorf("register entity %d: layer %d: %w", entity, layer, ErrInvalidShape)
	}
	if _, ok := b.bodies[entity]; ok {
		b.log.Warn("body registration rejected",
			log.Uint64("entity", uint64(entity)), log.String("op", "register"), log.Error(ErrDuplicateEntity))
		return fmt.Errorf("register entity %d: %w", entity, ErrDuplicateEntity)
	}
	if len(b.bodies) >= b.opts.MaxBodies {
		b.log.Warn("body registration rejected",
			log.Uint64("entity", uint64(entity)), log.String("op", "register"), log.Error(ErrCapacityExceeded))
		return fmt.Errorf("register entity %d: %w", entity, ErrCapacityExceeded)
	}

	id := b.eng.addBody(entity, shape, kind, layer)
	if t, ok := b.store.Transform(entity); ok {
		b.eng.body(id).pos = t.Position
	}
	b.bodies[entity] = registration{id: id, shape: shape, kind: kind, layer: layer}
	return nil
}

// UnregisterBody destroys an entity's body. A second call reports
// ErrNotFound rather than panicking, so teardown paths can race entity
// destruction safely.
func (b *Bridge) UnregisterBody(entity models.EntityID) error {
	reg, ok := b.bodies[entity]
	if !ok {
		return fmt.Errorf("unregister entity %d: %w", entity, ErrNotFound)
	}
	b.eng.removeBody(reg.id)
	delete(b.bodies, entity)
	return nil
}

// Step advances the simulation one fixed increment and writes moved
// poses back through the transform store. In Degraded state it no-ops
// and reports ErrDegraded.
func (b *Bridge) Step(dt float32) error {
	if b.state == StateDegraded {
		return fmt.Errorf("step: %w", ErrDegraded)
	}
	if dt <= 0 {
		dt = b.opts.FixedDt
	}

	b.reclaimOrphans()
	b.pullTransforms()

	if err := b.runSolver(dt); err != nil {
		return b.handleFault(err)
	}
	b.failures = 0

	b.writeBack()
	b.dispatchContacts()
	return nil
}

// runSolver contains the panic barrier: a crashing solver surfaces as
// an error instead of unwinding through the simulation loop.
func (b *Bridge) runSolver(dt float32) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("solver panic: %v", r)
		}
	}()
	b.eng.faultHook = b.faultHook
	return b.eng.step(dt)
}

// reclaimOrphans drops bodies whose entity vanished from the store
// without an UnregisterBody call. One Entities snapshot per step keeps
// the sweep consistent even if the store is pruned mid-iteration.
func (b *Bridge) reclaimOrphans() {
	live := make(map[models.EntityID]struct{}, len(b.bodies))
	for _, id := range b.store.Entities() {
		live[id] = struct{}{}
	}
	for entity, reg := range b.bodies {
		if _, ok := live[entity]; !ok {
			b.eng.removeBody(reg.id)
			delete(b.bodies, entity)
			b.log.Warn("orphaned body reclaimed",
				log.Uint64("entity", uint64(entity)), log.String("op", "step"))
		}
	}
}

// pullTransforms adopts external teleports: when the store position
// drifted beyond the pose epsilon from the body pose, the store wins
// and the body wakes.
func (b *Bridge) pullTransforms() {
	eps := b.opts.PoseEpsilon
	for entity, reg := range b.bodies {
		t, ok := b.store.Transform(entity)
		if !ok {
			continue
		}
		body := b.eng.body(reg.id)
		if body.pos.DistanceSq(t.Position) > eps*eps {
			body.pos = t.Position
			b.eng.wake(body)
		}
	}
}

// writeBack pushes moved dynamic and kinematic poses into the store.
// Static bodies are never written.
func (b *Bridge) writeBack() {
	eps := b.opts.PoseEpsilon
	b.moved = b.moved[:0]
	for entity, reg := range b.bodies {
		if reg.kind == Static {
			continue
		}
		body := b.eng.body(reg.id)
		t, ok := b.store.Transform(entity)
		if !ok {
			continue
		}
		next := t
		next.Position = body.pos
		if next.ApproxEqual(t, eps) {
			continue
		}
		b.store.SetTransform(entity, next)
		b.moved = append(b.moved, entity)
	}
}

func (b *Bridge) dispatchContacts() {
	if len(b.onContactBegin) > 0 {
		for _, p := range b.orderByPriority(b.eng.beganContacts()) {
			for _, fn := range b.onContactBegin {
				fn(p.A, p.B)
			}
		}
	}
	if len(b.onContactEnd) > 0 {
		for _, p := range b.orderByPriority(b.eng.endedContacts()) {
			for _, fn := range b.onContactEnd {
				fn(p.A, p.B)
			}
		}
	}
}

// orderByPriority sorts contact events so the highest-priority layer
// involved in a pair hears about it first. Without this the delivery
// order would follow map iteration and vary from step to step.
func (b *Bridge) orderByPriority(pairs []contactPair) []contactPair {
	if len(pairs) < 2 {
		return pairs
	}
	q := sequence.NewPriorityQueue[contactPair]()
	for _, p := range pairs {
		pa := b.matrix.Priority(b.entityLayer(p.A))
		pb := b.matrix.Priority(b.entityLayer(p.B))
		q.Enqueue(p, max(pa, pb))
	}
	out := pairs[:0]
	for {
		p, ok := q.Dequeue()
		if !ok {
			return out
		}
		out = append(out, p)
	}
}

func (b *Bridge) entityLayer(id models.EntityID) uint8 {
	if reg, ok := b.bodies[id]; ok {
		return reg.layer
	}
	return 0
}

// handleFault runs the degradation policy: log, degrade, and attempt
// one automatic rebuild. A second consecutive fault leaves the bridge
// Degraded for good.
func (b *Bridge) handleFault(stepErr error) error {
	b.failures++
	b.state = StateDegraded
	b.log.Error("physics solver fault",
		log.Error(stepErr), log.String("op", "step"), log.Int("consecutive_failures", b.failures))

	if b.failures >= 2 {
		b.log.Error("physics recovery abandoned after consecutive faults",
			log.String("op", "step"), log.Error(ErrDegraded))
		return fmt.Errorf("step: %w", ErrDegraded)
	}

	b.recoveries++
	recoveryID := uuid.NewString()
	b.log.Warn("physics recovery pass started",
		log.String("recovery_id", recoveryID), log.Int("bodies", len(b.bodies)))
	if err := b.rebuild(); err != nil {
		b.log.Error("physics recovery pass failed",
			log.Error(err), log.String("recovery_id", recoveryID))
		return fmt.Errorf("step: %w", ErrDegraded)
	}
	b.state = StateNormal
	b.log.Info("physics recovery pass complete",
		log.String("recovery_id", recoveryID), log.Int("bodies", len(b.bodies)))
	return fmt.Errorf("step: %w", ErrDegraded)
}

// rebuild replaces the solver and re-registers every body from its
// recorded shape and the current store transform.
func (b *Bridge) rebuild() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("rebuild panic: %v", r)
		}
	}()

	eng := newEngine(*b.opts.Gravity, b.opts.CellSize, b.opts.Threads, b.matrix)
	next := make(map[models.EntityID]registration, len(b.bodies))
	for entity, reg := range b.bodies {
		id := eng.addBody(entity, reg.shape, reg.kind, reg.layer)
		if t, ok := b.store.Transform(entity); ok {
			eng.body(id).pos = t.Position
		}
		reg.id = id
		next[entity] = reg
	}
	b.eng = eng
	b.bodies = next
	return nil
}

// Raycast returns the closest body hit. Degraded bridges always miss.
func (b *Bridge) Raycast(origin, dir geometry.Vec3, maxDist float32, mask uint32) (Hit, bool) {
	if b.state == StateDegraded {
		return Hit{}, false
	}
	return b.eng.raycast(geometry.NewRay(origin, dir), maxDist, mask)
}

// OverlapShape returns entities intersecting the shape placed at
// center. Degraded bridges return empty.
func (b *Bridge) OverlapShape(shape Shape, center geometry.Vec3, mask uint32) ([]models.EntityID, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("overlap: %w", err)
	}
	if b.state == StateDegraded {
		return nil, nil
	}
	return b.eng.overlap(shape, center, mask), nil
}

// SetLayerCollision toggles collisions between two layers; symmetric.
func (b *Bridge) SetLayerCollision(a, l uint8, enabled bool) {
	b.matrix.SetCollision(a, l, enabled)
}

// GetLayerCollision reads the layer pair setting.
func (b *Bridge) GetLayerCollision(a, l uint8) bool {
	return b.matrix.GetCollision(a, l)
}

// Matrix exposes the collision layer matrix.
func (b *Bridge) Matrix() *LayerMatrix { return b.matrix }

// OnContactBegin registers a handler for pairs entering contact.
func (b *Bridge) OnContactBegin(fn func(a, b models.EntityID)) {
	b.onContactBegin = append(b.onContactBegin, fn)
}

// OnContactEnd registers a handler for pairs leaving contact.
func (b *Bridge) OnContactEnd(fn func(a, b models.EntityID)) {
	b.onContactEnd = append(b.onContactEnd, fn)
}

// SetVelocity sets a body's linear velocity and wakes it.
func (b *Bridge) SetVelocity(entity models.EntityID, vel geometry.Vec3) error {
	reg, ok := b.bodies[entity]
	if !ok {
		return fmt.Errorf("set velocity entity %d: %w", entity, ErrNotFound)
	}
	body := b.eng.body(reg.id)
	body.vel = vel
	b.eng.wake(body)
	return nil
}

// Velocity reads a body's linear velocity.
func (b *Bridge) Velocity(entity models.EntityID) (geometry.Vec3, error) {
	reg, ok := b.bodies[entity]
	if !ok {
		return geometry.Vec3{}, fmt.Errorf("velocity entity %d: %w", entity, ErrNotFound)
	}
	return b.eng.body(reg.id).vel, nil
}

// Pose returns the solver-side position of a body.
func (b *Bridge) Pose(entity models.EntityID) (geometry.Vec3, bool) {
	reg, ok := b.bodies[entity]
	if !ok {
		return geometry.Vec3{}, false
	}
	return b.eng.body(reg.id).pos, true
}

// State reports the bridge health state.
func (b *Bridge) State() State { return b.state }

// Len returns the number of registered bodies.
func (b *Bridge) Len() int { return len(b.bodies) }

// LastMoved lists entities whose transform the previous Step wrote.
// The slice is reused between steps.
func (b *Bridge) LastMoved() []models.EntityID { return b.moved }

// RecoveryAttempts counts automatic rebuild passes since construction.
func (b *Bridge) RecoveryAttempts() uint64 { return b.recoveries }

// SetFaultHook installs a hook the solver invokes inside every step;
// returning an error simulates an internal engine failure.
func (b *Bridge) SetFaultHook(hook func() error) { b.faultHook = hook }
