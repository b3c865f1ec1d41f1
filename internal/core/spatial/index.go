package spatial

import (
	"fmt"

	"github.com/wildersim/wilder/internal/core/geometry"
	"github.com/wildersim/wilder/internal/core/models"
	"github.com/wildersim/wilder/internal/core/observability/log"
)

const (
	// DefaultSplitThreshold is the leaf occupancy that triggers a split.
	DefaultSplitThreshold = 8
	// DefaultMaxDepth bounds subdivision regardless of occupancy.
	DefaultMaxDepth = 8
)

// Options configures an Index.
type Options struct {
	WorldBounds    geometry.AABB
	SplitThreshold int
	MaxDepth       int
}

// Index is the octree spatial index. It is single-threaded by contract:
// all calls must come from the simulation goroutine. No internal locking
// is provided.
type Index struct {
	worldBounds    geometry.AABB
	splitThreshold int
	maxDepth       int

	nodes   []node
	free    []nodeID
	root    nodeID
	records map[models.EntityID]*Record

	tick    uint64
	queries uint64
	clamped uint64

	log log.Log
}

// NewIndex builds an empty index over the given world bounds. Zero
// option fields fall back to defaults.
func NewIndex(opts Options, logger log.Log) *Index {
	if opts.SplitThreshold <= 0 {
		opts.SplitThreshold = DefaultSplitThreshold
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	x := &Index{
		worldBounds:    opts.WorldBounds,
		splitThreshold: opts.SplitThreshold,
		maxDepth:       opts.MaxDepth,
		records:        make(map[models.EntityID]*Record),
		log:            logger,
	}
	x.root = x.allocNode(opts.WorldBounds, noNode, 0)
	return x
}

// BeginTick advances the index clock. Records updated afterwards are
// stamped with the new tick.
func (x *Index) BeginTick() { x.tick++ }

// Tick returns the current tick.
func (x *Index) Tick() uint64 { return x.tick }

// SetSplitThreshold retunes the split point, typically from the adaptive
// LOD controller. Existing nodes are reshaped lazily as records move.
func (x *Index) SetSplitThreshold(threshold int) {
	if threshold > 0 {
		x.splitThreshold = threshold
	}
}

// WorldBounds returns the bounds the root node covers.
func (x *Index) WorldBounds() geometry.AABB { return x.worldBounds }

// Len returns the number of indexed records.
func (x *Index) Len() int { return len(x.records) }

// Insert registers a box-bounded entity. Bounds that exceed the world
// volume are kept at the root rather than rejected.
func (x *Index) Insert(id models.EntityID, bounds geometry.AABB, layers uint32, behavior Behavior) error {
	return x.insert(&Record{
		Entity:   id,
		Bounds:   bounds,
		Layers:   layers,
		Behavior: behavior,
	})
}

// InsertSphere registers a sphere-bounded entity. Queries filter against
// the sphere itself instead of its enclosing box.
func (x *Index) InsertSphere(id models.EntityID, s geometry.Sphere, layers uint32, behavior Behavior) error {
	return x.insert(&Record{
		Entity:   id,
		Bounds:   s.Bounds(),
		Radius:   s.Radius,
		Layers:   layers,
		Behavior: behavior,
	})
}

func (x *Index) insert(rec *Record) error {
	id := rec.Entity
	if _, ok := x.records[id]; ok {
		x.log.Warn("spatial insert rejected", log.Uint64("entity", uint64(id)), log.String("op", "insert"), log.Error(ErrDuplicateEntity))
		return fmt.Errorf("insert entity %d: %w", id, ErrDuplicateEntity)
	}

	rec.LastUpdate = x.tick
	rec.node = noNode
	x.records[id] = rec
	bounds := rec.Bounds

	if !x.worldBounds.ContainsBox(bounds) {
		// Out-of-world records stay pinned at the root so they remain
		// queryable with their true bounds.
		x.clamped++
		root := &x.nodes[x.root]
		root.subtree++
		root.records = append(root.records, id)
		rec.node = x.root
		x.log.Debug("spatial record outside world bounds, pinned to root",
			log.Uint64("entity", uint64(id)))
		return nil
	}

	x.place(x.root, rec)
	return nil
}

// Remove unregisters an entity. The record is unreachable by any query
// the moment Remove returns.
func (x *Index) Remove(id models.EntityID) error {
	rec, ok := x.records[id]
	if !ok {
		x.log.Warn("spatial remove rejected", log.Uint64("entity", uint64(id)), log.String("op", "remove"), log.Error(ErrNotFound))
		return fmt.Errorf("remove entity %d: %w", id, ErrNotFound)
	}
	x.detach(rec)
	delete(x.records, id)
	return nil
}

// Update repositions an entity after its bounds changed. The record only
// migrates when it no longer fits its current node, keeping the common
// small-movement case cheap.
func (x *Index) Update(id models.EntityID, bounds geometry.AABB) error {
	return x.update(id, bounds, 0)
}

// UpdateSphere repositions a sphere-bounded entity.
func (x *Index) UpdateSphere(id models.EntityID, s geometry.Sphere) error {
	return x.update(id, s.Bounds(), s.Radius)
}

func (x *Index) update(id models.EntityID, bounds geometry.AABB, radius float32) error {
	rec, ok := x.records[id]
	if !ok {
		x.log.Warn("spatial update rejected", log.Uint64("entity", uint64(id)), log.String("op", "update"), log.Error(ErrNotFound))
		return fmt.Errorf("update entity %d: %w", id, ErrNotFound)
	}

	rec.Bounds = bounds
	rec.Radius = radius
	rec.LastUpdate = x.tick

	n := &x.nodes[rec.node]
	stillFits := n.bounds.ContainsBox(bounds) || rec.node == x.root && !x.worldBounds.ContainsBox(bounds)
	if stillFits {
		// Could the record sink into a child? Only relevant for
		// non-leaf nodes; leaving it in place is always correct, and
		// settling happens naturally at the next migration.
		if n.isLeaf() || x.childFor(n, bounds) == noNode {
			return nil
		}
	}

	x.detach(rec)
	if !x.worldBounds.ContainsBox(bounds) {
		root := &x.nodes[x.root]
		root.subtree++
		root.records = append(root.records, id)
		rec.node = x.root
		return nil
	}
	x.place(x.root, rec)
	return nil
}

// QueryRadius returns entities whose bounds intersect the sphere, layer
// filtered, in no particular order.
func (x *Index) QueryRadius(center geometry.Vec3, radius float32, mask uint32) ([]models.EntityID, error) {
	if radius < 0 {
		return nil, fmt.Errorf("radius %f: %w", radius, ErrInvalidQuery)
	}
	x.queries++

	sphereBox := geometry.BoxFromCenterRadius(center, radius)
	var out []models.EntityID
	x.walk(func(n *node) bool {
		return n.bounds.Intersects(sphereBox) && n.bounds.IntersectsSphere(center, radius)
	}, func(rec *Record) {
		if rec.matches(mask) && rec.hitsSphere(center, radius) {
			out = append(out, rec.Entity)
		}
	})
	return out, nil
}

// QueryRegion returns entities whose bounds intersect the box.
func (x *Index) QueryRegion(region geometry.AABB, mask uint32) []models.EntityID {
	x.queries++
	var out []models.EntityID
	x.walk(func(n *node) bool {
		return n.bounds.Intersects(region)
	}, func(rec *Record) {
		if rec.matches(mask) && rec.Bounds.Intersects(region) {
			out = append(out, rec.Entity)
		}
	})
	return out
}

// QueryFrustum returns entities possibly inside the frustum. The test is
// conservative: entities fully inside are always returned, entities
// grazing a plane corner may be false positives.
func (x *Index) QueryFrustum(f geometry.Frustum, mask uint32) []models.EntityID {
	x.queries++
	var out []models.EntityID
	x.walk(func(n *node) bool {
		return f.IntersectsBox(n.bounds)
	}, func(rec *Record) {
		if rec.matches(mask) && rec.inFrustum(f) {
			out = append(out, rec.Entity)
		}
	})
	return out
}

// QueryNearest returns the entity whose bounds are closest to point,
// within maxDistance. Ties resolve to the lowest entity id so results
// are deterministic across runs.
func (x *Index) QueryNearest(point geometry.Vec3, mask uint32, maxDistance float32) (models.EntityID, bool) {
	x.queries++

	best := models.InvalidEntity
	bestDistSq := maxDistance * maxDistance

	searchBox := geometry.BoxFromCenterRadius(point, maxDistance)
	x.walk(func(n *node) bool {
		if !n.bounds.Intersects(searchBox) {
			return false
		}
		return n.bounds.DistanceSq(point) <= bestDistSq
	}, func(rec *Record) {
		if !rec.matches(mask) {
			return
		}
		d := rec.distanceSq(point)
		if d > bestDistSq {
			return
		}
		if d < bestDistSq || best == models.InvalidEntity || rec.Entity < best {
			bestDistSq = d
			best = rec.Entity
		}
	})
	return best, best != models.InvalidEntity
}

// walk traverses the tree iteratively, descending only into nodes that
// pass the prune predicate and visiting every record they hold. The
// root is always visited: records pinned there by out-of-world inserts
// lie beyond the root node's bounds, so pruning it would hide them.
func (x *Index) walk(prune func(*node) bool, visit func(*Record)) {
	stack := make([]nodeID, 0, 64)
	stack = append(stack, x.root)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &x.nodes[id]
		if id != x.root && !prune(n) {
			continue
		}
		for _, e := range n.records {
			visit(x.records[e])
		}
		if !n.isLeaf() {
			for _, c := range n.children {
				stack = append(stack, c)
			}
		}
	}
}

// Record returns a copy of the stored record for inspection.
func (x *Index) Record(id models.EntityID) (Record, bool) {
	rec, ok := x.records[id]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// SetLayers rewrites the layer mask of an indexed entity in place.
func (x *Index) SetLayers(id models.EntityID, layers uint32) error {
	rec, ok := x.records[id]
	if !ok {
		return fmt.Errorf("set layers entity %d: %w", id, ErrNotFound)
	}
	rec.Layers = layers
	return nil
}
