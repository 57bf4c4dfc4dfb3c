package traversal

import (
	"container/heap"
	"math"

	"github.com/urbanmorph/axialnet/pkg/geometry"
	"github.com/urbanmorph/axialnet/pkg/graph"
	"github.com/urbanmorph/axialnet/pkg/util/bitvec"
)

// visitFlags is a bit set with an index journal so that sparse visits
// clear in O(visited) instead of O(size).
type visitFlags struct {
	maxIndexCount int
	bits          *bitvec.Vector
	indices       []int
}

func newVisitFlags(size int) *visitFlags {
	return &visitFlags{
		maxIndexCount: size / 16,
		bits:          bitvec.New(size),
		indices:       make([]int, 0, size/16),
	}
}

func (f *visitFlags) clear() {
	if len(f.indices) >= f.maxIndexCount {
		f.bits.ClearAll()
	} else {
		for _, index := range f.indices {
			f.bits.Clear(index)
		}
	}
	f.indices = f.indices[:0]
}

func (f *visitFlags) visited(index int) bool { return f.bits.Get(index) }

func (f *visitFlags) visit(index int) {
	if len(f.indices) < f.maxIndexCount {
		f.indices = append(f.indices, index)
	}
	f.bits.Set(index)
}

// DistCallback receives each destination the first time it is popped,
// with its primary-metric distance.
type DistCallback func(destinationIndex int, distance float64)

type spState struct {
	nodeIndex int // destination index when destination is true
	dest      bool
	dists     [graph.MaxDistanceTypes]float64
}

type spHeap struct {
	items []spState
}

func (h *spHeap) Len() int           { return len(h.items) }
func (h *spHeap) Less(i, j int) bool { return h.items[i].dists[0] < h.items[j].dists[0] }
func (h *spHeap) Swap(i, j int)      { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *spHeap) Push(x any)         { h.items = append(h.items, x.(spState)) }
func (h *spHeap) Pop() any {
	old := h.items
	n := len(old)
	x := old[n-1]
	h.items = old[:n-1]
	return x
}

// nodeState records the per-metric shortest distances seen at a node.
type nodeState [graph.MaxDistanceTypes]float64

func (s *nodeState) init(dists *[graph.MaxDistanceTypes]float64, count int) {
	for i := 0; i < count; i++ {
		s[i] = dists[i]
	}
}

func (s *nodeState) hasImprovement(dists *[graph.MaxDistanceTypes]float64, count int) bool {
	for i := 0; i < count; i++ {
		if dists[i] < s[i] {
			return true
		}
	}
	return false
}

func (s *nodeState) update(dists *[graph.MaxDistanceTypes]float64, count int) bool {
	updated := false
	for i := 0; i < count; i++ {
		if dists[i] >= s[i] {
			continue
		}
		s[i] = dists[i]
		updated = true
	}
	return updated
}

// ShortestPath runs Dijkstra over a directed multi-distance graph.
// States are ordered by the primary distance; per-metric radius caps
// and an optional straight-line cap short-circuit expansion. One
// instance is worker-local scratch reused across origins.
type ShortestPath struct {
	g *graph.MultiDistGraph

	limits         [graph.MaxDistanceTypes]float64
	straightSqr    float64
	originPosition geometry.Vec

	queue      spHeap
	nodeStates []nodeState
	nodes      *visitFlags
	dests      *visitFlags
}

// NewShortestPath prepares a traversal over g.
func NewShortestPath(g *graph.MultiDistGraph) *ShortestPath {
	return &ShortestPath{
		g:          g,
		nodeStates: make([]nodeState, g.NetworkNodeCount()),
		nodes:      newVisitFlags(g.NetworkNodeCount()),
		dests:      newVisitFlags(g.DestinationCount()),
	}
}

// Search runs a multi-metric traversal from origin, re-expanding a node
// whenever the new distance tuple Pareto-improves the stored one.
// Node state is reset, so searches are independent.
func (sp *ShortestPath) Search(origin int, cb DistCallback, limits []float64, straightLimit float64) {
	sp.nodes.clear()
	sp.search(origin, cb, limits, straightLimit)
}

// SearchAccumulative runs a single-metric "first pop wins" traversal.
// Node state persists across calls, so repeated searches from several
// origins settle each node at the minimum over all of them.
func (sp *ShortestPath) SearchAccumulative(origin int, cb DistCallback, limits []float64, straightLimit float64) {
	sp.search(origin, cb, limits, straightLimit)
}

func (sp *ShortestPath) search(origin int, cb DistCallback, limits []float64, straightLimit float64) {
	sp.dests.clear()

	count := sp.g.DistanceTypeCount()
	for i := 0; i < count; i++ {
		sp.limits[i] = limits[i]
	}
	sp.straightSqr = straightLimit * straightLimit

	if sp.g.NodePositionsEnabled() {
		sp.originPosition = sp.g.NodePosition(sp.g.OriginNodeIndex(origin))
	}

	var start spState
	start.nodeIndex = sp.g.OriginNodeIndex(origin)
	sp.traverseEdges(&start, count)

	for sp.queue.Len() > 0 {
		s := heap.Pop(&sp.queue).(spState)
		if !s.dest {
			sp.visitNetworkNode(&s, count)
		} else if !sp.dests.visited(s.nodeIndex) {
			sp.dests.visit(s.nodeIndex)
			cb(s.nodeIndex, s.dists[0])
		}
	}
}

func (sp *ShortestPath) traverseEdges(s *spState, count int) {
	node := s.nodeIndex
	for e := 0; e < sp.g.EdgeCount(node); e++ {
		target, destIndex, edgeDists := sp.g.Edge(node, e)

		var next spState
		ok := true
		for i := 0; i < count; i++ {
			next.dists[i] = s.dists[i] + edgeDists[i]
			if next.dists[i] > sp.limits[i] {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}

		if destIndex >= 0 {
			if sp.dests.visited(destIndex) {
				continue
			}
		} else if sp.nodes.visited(target) && !sp.nodeStates[target].hasImprovement(&next.dists, count) {
			continue
		}

		if sp.hasStraightLimit() && !sp.testStraightLimit(sp.g.TargetPosition(node, e)) {
			continue
		}

		if destIndex >= 0 {
			next.nodeIndex = destIndex
			next.dest = true
		} else {
			next.nodeIndex = target
		}
		heap.Push(&sp.queue, next)
	}
}

func (sp *ShortestPath) visitNetworkNode(s *spState, count int) {
	if !sp.nodes.visited(s.nodeIndex) {
		sp.nodes.visit(s.nodeIndex)
		sp.nodeStates[s.nodeIndex].init(&s.dists, count)
	} else if !sp.nodeStates[s.nodeIndex].update(&s.dists, count) {
		return
	}
	sp.traverseEdges(s, count)
}

func (sp *ShortestPath) hasStraightLimit() bool {
	return sp.straightSqr > 0 && !math.IsInf(sp.straightSqr, 1)
}

func (sp *ShortestPath) testStraightLimit(pos geometry.Vec) bool {
	return geometry.DistSqr(pos, sp.originPosition) <= sp.straightSqr
}
