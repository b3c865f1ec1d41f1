package spatial

import (
	"github.com/wildersim/wilder/internal/core/geometry"
	"github.com/wildersim/wilder/internal/core/models"
)

// nodeID indexes the node arena. Nodes are plain slice elements rather
// than pointer-linked structs so traversal stays cache friendly and
// teardown never recurses.
type nodeID int32

const noNode nodeID = -1

type node struct {
	bounds   geometry.AABB
	parent   nodeID
	children [8]nodeID // children[0] == noNode means leaf
	depth    uint8

	// records held at this node: entities that do not fit entirely
	// inside any single child.
	records []models.EntityID
	// subtree is the record count of this node plus all descendants,
	// maintained on every insert/remove path. Drives merging.
	subtree int
}

func (n *node) isLeaf() bool { return n.children[0] == noNode }

func (x *Index) allocNode(bounds geometry.AABB, parent nodeID, depth uint8) nodeID {
	if ln := len(x.free); ln > 0 {
		id := x.free[ln-1]
		x.free = x.free[:ln-1]
		n := &x.nodes[id]
		*n = node{bounds: bounds, parent: parent, depth: depth, records: n.records[:0]}
		n.children = [8]nodeID{noNode, noNode, noNode, noNode, noNode, noNode, noNode, noNode}
		return id
	}
	x.nodes = append(x.nodes, node{
		bounds:   bounds,
		parent:   parent,
		depth:    depth,
		children: [8]nodeID{noNode, noNode, noNode, noNode, noNode, noNode, noNode, noNode},
	})
	return nodeID(len(x.nodes) - 1)
}

func (x *Index) freeNode(id nodeID) {
	x.nodes[id].parent = noNode
	x.free = append(x.free, id)
}

// octant bounds for child i of b, tight halving on all three axes.
// Bit 0 selects +X, bit 1 selects +Y, bit 2 selects +Z.
func octant(b geometry.AABB, i int) geometry.AABB {
	mid := b.Center()
	out := b
	if i&1 != 0 {
		out.Min.X = mid.X
	} else {
		out.Max.X = mid.X
	}
	if i&2 != 0 {
		out.Min.Y = mid.Y
	} else {
		out.Max.Y = mid.Y
	}
	if i&4 != 0 {
		out.Min.Z = mid.Z
	} else {
		out.Max.Z = mid.Z
	}
	return out
}

// childFor returns the child of n that fully contains bounds, or noNode
// when the bounds straddle a partition plane.
func (x *Index) childFor(n *node, bounds geometry.AABB) nodeID {
	for _, c := range n.children {
		if c == noNode {
			return noNode
		}
		if x.nodes[c].bounds.ContainsBox(bounds) {
			return c
		}
	}
	return noNode
}

// place descends from start to the deepest node fully containing bounds,
// incrementing subtree counts along the way, and files the record there.
// Splits the destination when it overflows.
func (x *Index) place(start nodeID, rec *Record) {
	id := start
	for {
		n := &x.nodes[id]
		n.subtree++
		if n.isLeaf() {
			break
		}
		c := x.childFor(n, rec.Bounds)
		if c == noNode {
			break
		}
		id = c
	}

	n := &x.nodes[id]
	n.records = append(n.records, rec.Entity)
	rec.node = id

	if n.isLeaf() && len(n.records) > x.splitThreshold && int(n.depth) < x.maxDepth {
		x.split(id)
	}
}

// split creates the eight octants of a leaf and pushes down every record
// that fits entirely inside one of them. Straddling records stay put.
func (x *Index) split(id nodeID) {
	for {
		n := &x.nodes[id]
		depth := n.depth + 1
		bounds := n.bounds
		parentID := id
		for i := 0; i < 8; i++ {
			c := x.allocNode(octant(bounds, i), parentID, depth)
			// allocNode may grow the arena; re-take the pointer.
			x.nodes[parentID].children[i] = c
		}

		n = &x.nodes[id]
		kept := n.records[:0]
		var overflow nodeID = noNode
		for _, e := range n.records {
			rec := x.records[e]
			c := x.childFor(n, rec.Bounds)
			if c == noNode {
				kept = append(kept, e)
				continue
			}
			child := &x.nodes[c]
			child.records = append(child.records, e)
			child.subtree++
			rec.node = c
			if len(child.records) > x.splitThreshold && int(child.depth) < x.maxDepth {
				overflow = c
			}
		}
		n.records = kept

		if overflow == noNode {
			return
		}
		// Rare: most records landed in a single octant. Keep splitting
		// iteratively instead of recursing.
		id = overflow
	}
}

// merge collapses the subtree under id back into a single leaf, pulling
// every descendant record up. Called when occupancy drops below the
// hysteresis threshold.
func (x *Index) merge(id nodeID) {
	root := &x.nodes[id]
	if root.isLeaf() {
		return
	}

	stack := make([]nodeID, 0, 8)
	for _, c := range root.children {
		stack = append(stack, c)
	}
	root.children = [8]nodeID{noNode, noNode, noNode, noNode, noNode, noNode, noNode, noNode}

	for len(stack) > 0 {
		cid := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		c := &x.nodes[cid]
		for _, e := range c.records {
			x.records[e].node = id
			x.nodes[id].records = append(x.nodes[id].records, e)
		}
		if !c.isLeaf() {
			for _, g := range c.children {
				stack = append(stack, g)
			}
		}
		x.freeNode(cid)
	}
}

// detach removes a record from its node and walks the subtree counters
// back to the root, merging any ancestor that fell under the hysteresis
// threshold.
func (x *Index) detach(rec *Record) {
	id := rec.node
	n := &x.nodes[id]
	for i, e := range n.records {
		if e == rec.Entity {
			last := len(n.records) - 1
			n.records[i] = n.records[last]
			n.records = n.records[:last]
			break
		}
	}

	mergeAt := noNode
	for cur := id; cur != noNode; cur = x.nodes[cur].parent {
		c := &x.nodes[cur]
		c.subtree--
		// Merge hysteresis: collapse once a subtree holds less than
		// half the split threshold, so records oscillating near a
		// boundary do not thrash split/merge.
		if !c.isLeaf() && c.subtree*2 < x.splitThreshold {
			mergeAt = cur
		}
	}
	if mergeAt != noNode {
		x.merge(mergeAt)
	}
	rec.node = noNode
}
