package physics

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/wildersim/wilder/internal/core/geometry"
	"github.com/wildersim/wilder/internal/core/models"
)

// BodyKind selects how the solver treats a body.
type BodyKind uint8

const (
	// Static bodies never move and never receive impulses.
	Static BodyKind = iota
	// Kinematic bodies are driven externally; they push dynamics but
	// are not pushed back.
	Kinematic
	// Dynamic bodies are fully simulated.
	Dynamic
)

func (k BodyKind) String() string {
	switch k {
	case Static:
		return "static"
	case Kinematic:
		return "kinematic"
	case Dynamic:
		return "dynamic"
	default:
		return "unknown"
	}
}

// Material defaults tuned for creature-scale objects.
const (
	defaultMass        = 1.0
	defaultRestitution = 0.3
	defaultFriction    = 0.7
	linearDamping      = 0.1

	sleepVelocityThreshold = 0.3
	sleepTimeThreshold     = 0.3
	wakeVelocityThreshold  = sleepVelocityThreshold * 2

	contactSlop = 1e-4
)

type bodyID int32

const noBody bodyID = -1

type body struct {
	id     bodyID
	entity models.EntityID
	shape  Shape
	kind   BodyKind
	layer  uint8

	pos geometry.Vec3
	vel geometry.Vec3

	mass        float32
	restitution float32
	friction    float32

	sleeping   bool
	sleepTimer float32
	alive      bool
}

func (b *body) invMass() float32 {
	if b.kind != Dynamic || b.mass <= 0 {
		return 0
	}
	return 1 / b.mass
}

// contactPair orders two entities lowest id first so a pair hashes the
// same regardless of discovery order.
type contactPair struct {
	A, B models.EntityID
}

func makeContactPair(a, b models.EntityID) contactPair {
	if a > b {
		a, b = b, a
	}
	return contactPair{A: a, B: b}
}

type cellKey struct {
	x, y, z int32
}

// engine is the in-process rigid-body solver behind the Bridge. Bodies
// live in an arena indexed by bodyID; the broad phase is a rebuilt-per-
// step spatial hash keyed by cells the body bounds overlap.
type engine struct {
	gravity  geometry.Vec3
	cellSize float32
	threads  int

	bodies []body
	free   []bodyID
	alive  int

	grid map[cellKey][]bodyID

	matrix *LayerMatrix

	current  map[contactPair]bool
	previous map[contactPair]bool

	// faultHook simulates an internal solver failure when set.
	faultHook func() error
}

func newEngine(gravity geometry.Vec3, cellSize float32, threads int, matrix *LayerMatrix) *engine {
	if cellSize <= 0 {
		cellSize = 5
	}
	if threads < 1 {
		threads = 1
	}
	return &engine{
		gravity:  gravity,
		cellSize: cellSize,
		threads:  threads,
		grid:     make(map[cellKey][]bodyID),
		matrix:   matrix,
		current:  make(map[contactPair]bool),
		previous: make(map[contactPair]bool),
	}
}

func (e *engine) addBody(entity models.EntityID, shape Shape, kind BodyKind, layer uint8) bodyID {
	var id bodyID
	if n := len(e.free); n > 0 {
		id = e.free[n-1]
		e.free = e.free[:n-1]
	} else {
		id = bodyID(len(e.bodies))
		e.bodies = append(e.bodies, body{})
	}
	e.bodies[id] = body{
		id:          id,
		entity:      entity,
		shape:       shape,
		kind:        kind,
		layer:       layer,
		mass:        defaultMass,
		restitution: defaultRestitution,
		friction:    defaultFriction,
		alive:       true,
	}
	e.alive++
	return id
}

func (e *engine) removeBody(id bodyID) {
	b := &e.bodies[id]
	if !b.alive {
		return
	}
	*b = body{id: id}
	e.free = append(e.free, id)
	e.alive--
}

func (e *engine) body(id bodyID) *body { return &e.bodies[id] }

// step advances the simulation one fixed increment. Integration fans
// out over the worker pool; pair resolution runs on the calling
// goroutine because it mutates shared body state.
func (e *engine) step(dt float32) error {
	g := errgroup.Group{}
	g.SetLimit(e.threads)

	if hook := e.faultHook; hook != nil {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("solver fault: %v", r)
				}
			}()
			return hook()
		})
	}

	chunk := (len(e.bodies) + e.threads - 1) / e.threads
	if chunk < 1 {
		chunk = 1
	}
	for start := 0; start < len(e.bodies); start += chunk {
		end := start + chunk
		if end > len(e.bodies) {
			end = len(e.bodies)
		}
		g.Go(func() error {
			e.integrate(start, end, dt)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("solver step: %w", err)
	}

	e.rebuildGrid()
	e.resolvePairs()
	return nil
}

func (e *engine) integrate(start, end int, dt float32) {
	for i := start; i < end; i++ {
		b := &e.bodies[i]
		if !b.alive || b.kind != Dynamic || b.sleeping {
			continue
		}

		b.vel = b.vel.Add(e.gravity.Scale(dt))
		damp := 1 - linearDamping*dt
		if damp < 0 {
			damp = 0
		}
		b.vel = b.vel.Scale(damp)
		b.pos = b.pos.Add(b.vel.Scale(dt))

		if b.vel.Length() < sleepVelocityThreshold {
			b.sleepTimer += dt
			if b.sleepTimer >= sleepTimeThreshold {
				b.sleeping = true
				b.vel = geometry.Vec3{}
			}
		} else {
			b.sleepTimer = 0
		}
	}
}

func (e *engine) wake(b *body) {
	if b.sleeping {
		b.sleeping = false
		b.sleepTimer = 0
	}
}

func (e *engine) cellRange(bounds geometry.AABB) (lo, hi cellKey) {
	toCell := func(v geometry.Vec3) cellKey {
		return cellKey{
			x: int32(v.X / e.cellSize),
			y: int32(v.Y / e.cellSize),
			z: int32(v.Z / e.cellSize),
		}
	}
	return toCell(bounds.Min), toCell(bounds.Max)
}

func (e *engine) rebuildGrid() {
	for k := range e.grid {
		delete(e.grid, k)
	}
	for i := range e.bodies {
		b := &e.bodies[i]
		if !b.alive {
			continue
		}
		lo, hi := e.cellRange(b.shape.bounds(b.pos))
		for x := lo.x; x <= hi.x; x++ {
			for y := lo.y; y <= hi.y; y++ {
				for z := lo.z; z <= hi.z; z++ {
					key := cellKey{x, y, z}
					e.grid[key] = append(e.grid[key], b.id)
				}
			}
		}
	}
}

func (e *engine) resolvePairs() {
	e.previous, e.current = e.current, e.previous
	for k := range e.current {
		delete(e.current, k)
	}

	checked := make(map[[2]bodyID]bool, e.alive*2)
	for _, ids := range e.grid {
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				a, b := ids[i], ids[j]
				if a > b {
					a, b = b, a
				}
				key := [2]bodyID{a, b}
				if checked[key] {
					continue
				}
				checked[key] = true
				e.resolve(&e.bodies[a], &e.bodies[b])
			}
		}
	}
}

// beganContacts returns pairs present this step but not the prior one.
func (e *engine) beganContacts() []contactPair {
	var out []contactPair
	for p := range e.current {
		if !e.previous[p] {
			out = append(out, p)
		}
	}
	return out
}

// endedContacts returns pairs from the prior step that broke apart.
func (e *engine) endedContacts() []contactPair {
	var out []contactPair
	for p := range e.previous {
		if !e.current[p] {
			out = append(out, p)
		}
	}
	return out
}

func (e *engine) resolve(a, b *body) {
	if a.kind != Dynamic && b.kind != Dynamic {
		return
	}
	if a.sleeping && b.sleeping {
		return
	}
	if !e.matrix.GetCollision(a.layer, b.layer) {
		return
	}

	normal, penetration, ok := contact(a, b)
	if !ok {
		return
	}
	e.current[makeContactPair(a.entity, b.entity)] = true

	relVel := a.vel.Sub(b.vel)
	if relVel.Length() > wakeVelocityThreshold {
		e.wake(a)
		e.wake(b)
	}

	// Positional correction split by inverse mass; statics and
	// kinematics have inverse mass zero and never move.
	invA, invB := a.invMass(), b.invMass()
	invSum := invA + invB
	if invSum == 0 {
		return
	}
	a.pos = a.pos.Add(normal.Scale(penetration * invA / invSum))
	b.pos = b.pos.Sub(normal.Scale(penetration * invB / invSum))

	velAlongNormal := relVel.Dot(normal)
	if velAlongNormal > 0 {
		return
	}

	rest := (a.restitution + b.restitution) / 2
	j := -(1 + rest) * velAlongNormal / invSum
	impulse := normal.Scale(j)
	a.vel = a.vel.Add(impulse.Scale(invA))
	b.vel = b.vel.Sub(impulse.Scale(invB))

	// Ground-style contacts damp tangential motion.
	if normal.Y > 0.5 && a.kind == Dynamic {
		fr := (a.friction + b.friction) / 2
		a.vel.X *= 1 - fr
		a.vel.Z *= 1 - fr
	}
	if normal.Y < -0.5 && b.kind == Dynamic {
		fr := (a.friction + b.friction) / 2
		b.vel.X *= 1 - fr
		b.vel.Z *= 1 - fr
	}
}

// contact computes the separating normal (pointing from b to a) and
// penetration depth of two bodies, false when they do not touch.
func contact(a, b *body) (geometry.Vec3, float32, bool) {
	if a.shape.Kind == ShapeBox && b.shape.Kind == ShapeBox {
		return boxBoxContact(a.shape.bounds(a.pos), b.shape.bounds(b.pos))
	}
	if a.shape.Kind == ShapeBox {
		n, p, ok := sphereBoxContact(sphereAt(b, a.pos), a.shape.bounds(a.pos))
		return n.Neg(), p, ok
	}
	if b.shape.Kind == ShapeBox {
		return sphereBoxContact(sphereAt(a, b.pos), b.shape.bounds(b.pos))
	}
	return sphereSphereContact(sphereAt(a, b.pos), sphereAt(b, a.pos))
}

// sphereAt reduces a sphere or capsule body to the sphere nearest the
// reference point. For capsules that is the cap or cylinder section
// closest to the other body.
func sphereAt(b *body, ref geometry.Vec3) geometry.Sphere {
	c := b.pos
	if b.shape.Kind == ShapeCapsule {
		dy := ref.Y - b.pos.Y
		if dy > b.shape.HalfHeight {
			dy = b.shape.HalfHeight
		} else if dy < -b.shape.HalfHeight {
			dy = -b.shape.HalfHeight
		}
		c.Y += dy
	}
	return geometry.Sphere{Center: c, Radius: b.shape.Radius}
}

func sphereSphereContact(a, b geometry.Sphere) (geometry.Vec3, float32, bool) {
	diff := a.Center.Sub(b.Center)
	dist := diff.Length()
	minDist := a.Radius + b.Radius
	if dist >= minDist || dist < contactSlop {
		return geometry.Vec3{}, 0, false
	}
	return diff.Scale(1 / dist), minDist - dist, true
}

func sphereBoxContact(s geometry.Sphere, box geometry.AABB) (geometry.Vec3, float32, bool) {
	closest := box.ClosestPoint(s.Center)
	diff := s.Center.Sub(closest)
	dist := diff.Length()
	if dist >= s.Radius || dist < contactSlop {
		return geometry.Vec3{}, 0, false
	}
	return diff.Scale(1 / dist), s.Radius - dist, true
}

// boxBoxContact pushes along the axis of least overlap.
func boxBoxContact(a, b geometry.AABB) (geometry.Vec3, float32, bool) {
	overlapX := minf(a.Max.X, b.Max.X) - maxf(a.Min.X, b.Min.X)
	overlapY := minf(a.Max.Y, b.Max.Y) - maxf(a.Min.Y, b.Min.Y)
	overlapZ := minf(a.Max.Z, b.Max.Z) - maxf(a.Min.Z, b.Min.Z)
	if overlapX <= 0 || overlapY <= 0 || overlapZ <= 0 {
		return geometry.Vec3{}, 0, false
	}

	ca, cb := a.Center(), b.Center()
	normal := geometry.V3(sign(ca.X-cb.X), 0, 0)
	penetration := overlapX
	if overlapY < penetration {
		normal = geometry.V3(0, sign(ca.Y-cb.Y), 0)
		penetration = overlapY
	}
	if overlapZ < penetration {
		normal = geometry.V3(0, 0, sign(ca.Z-cb.Z))
		penetration = overlapZ
	}
	return normal, penetration, true
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func sign(v float32) float32 {
	if v < 0 {
		return -1
	}
	return 1
}
