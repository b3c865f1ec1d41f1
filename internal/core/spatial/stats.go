package spatial

// Statistics is a snapshot of index shape and activity, exposed for the
// performance monitor and debug overlays.
type Statistics struct {
	NodeCount      int
	RecordCount    int
	MaxDepth       int
	AverageDepth   float64
	TotalQueries   uint64
	ClampedInserts uint64
}

// Stats walks the live arena and summarizes it.
func (x *Index) Stats() Statistics {
	s := Statistics{
		RecordCount:    len(x.records),
		TotalQueries:   x.queries,
		ClampedInserts: x.clamped,
	}

	var depthSum int
	stack := []nodeID{x.root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &x.nodes[id]
		s.NodeCount++
		if int(n.depth) > s.MaxDepth {
			s.MaxDepth = int(n.depth)
		}
		depthSum += int(n.depth) * len(n.records)
		if !n.isLeaf() {
			for _, c := range n.children {
				stack = append(stack, c)
			}
		}
	}
	if s.RecordCount > 0 {
		s.AverageDepth = float64(depthSum) / float64(s.RecordCount)
	}
	return s
}
