package analysis

import (
	"container/heap"
	"sync/atomic"

	"github.com/urbanmorph/axialnet/pkg/dist"
	"github.com/urbanmorph/axialnet/pkg/geometry"
	"github.com/urbanmorph/axialnet/pkg/graph"
	"github.com/urbanmorph/axialnet/pkg/util/bitvec"
)

// BetweennessOptions parameterizes the segment betweenness kernel on
// the axial graph.
type BetweennessOptions struct {
	// DistanceType is the primary metric: Walking, Steps, Angular or
	// Axmeter. Angular mode runs bi-directionally (one node per line
	// and direction).
	DistanceType dist.Type
	// Radii caps the traversal.
	Radii dist.Radii
	// Weights, when non-nil, holds one weight per line; origins with a
	// non-positive weight are skipped and flows are weighted by
	// origin and target weight.
	Weights []float64
	// AttractionPoints, when non-nil, are world-space points bucketed
	// onto their closest line to form the per-line weights
	// (overriding Weights). AttractionWeights, when non-nil, gives each
	// point a weight; otherwise each counts 1.
	AttractionPoints  []geometry.Vec
	AttractionWeights []float64
	// Progress receives throttled progress reports; may be nil.
	Progress ProgressFunc
}

// Betweenness computes Brandes-style betweenness of every line, with
// each line acting as both origin and target. Output slices may be
// nil; non-nil slices must hold one element per line. outTotalDepths
// reports angular-mode depths in syntax-angle units.
func Betweenness(g *graph.AxialGraph, opts BetweennessOptions, outScores []float64, outNodeCounts []int, outTotalDepths []float64) error {
	if g == nil {
		return ErrNilGraph
	}
	switch opts.DistanceType {
	case dist.Walking, dist.Steps, dist.Angular, dist.Axmeter:
	default:
		return ErrUnsupportedDistanceType
	}
	lineCount := g.LineCount()
	if outScores != nil && len(outScores) != lineCount {
		return ErrOutputSize
	}
	if outNodeCounts != nil && len(outNodeCounts) != lineCount {
		return ErrOutputSize
	}
	if outTotalDepths != nil && len(outTotalDepths) != lineCount {
		return ErrOutputSize
	}
	if opts.Weights != nil && len(opts.Weights) != lineCount {
		return ErrInputSize
	}
	if opts.AttractionWeights != nil && len(opts.AttractionWeights) != len(opts.AttractionPoints) {
		return ErrInputSize
	}

	weights := opts.Weights
	if opts.AttractionPoints != nil {
		weights = bucketPointWeightsOntoLines(g, opts.AttractionPoints, opts.AttractionWeights)
	}

	lim := dist.LimitsFromRadii(opts.Radii)
	progress := NewProgress(opts.Progress)
	ranges := staticRanges(lineCount, workerCount())
	var processed atomic.Uint64

	workers := make([]*betweennessWorker, len(ranges))
	for i := range workers {
		workers[i] = newBetweennessWorker(g, opts.DistanceType, lim, weights)
	}

	dispatch(len(ranges), progress, func() float64 {
		if lineCount == 0 {
			return 1
		}
		return float64(processed.Load()) / float64(lineCount)
	}, func(workerIndex int) {
		w := workers[workerIndex]
		r := ranges[workerIndex]
		for i := r.first; i < r.first+r.count; i++ {
			if progress.Cancelled() {
				return
			}
			nodeCount, totalDepth := w.processSegment(i)
			if outNodeCounts != nil {
				outNodeCounts[i] = nodeCount
			}
			if outTotalDepths != nil {
				outTotalDepths[i] = totalDepth
			}
			processed.Add(1)
		}
	})

	if outScores != nil {
		// Accumulate worker scores line-first, worker-second. The loop
		// order is less cache friendly but keeps float summation in a
		// fixed order for reproducibility.
		for line := 0; line < lineCount; line++ {
			score := 0.0
			for _, w := range workers {
				score += w.result[line]
			}
			outScores[line] = score
		}
	}
	return nil
}

type btwDist struct {
	walking float64
	turns   float64
	angle   float64
	axmeter float64
}

type btwState struct {
	segment     int // direction-extended index
	prevSegment int // direction-extended index
	cmpdist     float64
	d           btwDist
}

type btwHeap []btwState

func (h btwHeap) Len() int           { return len(h) }
func (h btwHeap) Less(i, j int) bool { return h[i].cmpdist < h[j].cmpdist }
func (h btwHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *btwHeap) Push(x any)        { *h = append(*h, x.(btwState)) }
func (h *btwHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

const noPred = -1

// predLink stores a predecessor plus a link into the overflow pool, so
// the common single-predecessor case needs no pool entry at all.
type predLink struct {
	pred int32
	next int32
}

type btwSegData struct {
	dist   float64
	nPaths int
	pred   predLink
}

type betweennessWorker struct {
	graph    *graph.AxialGraph
	distType dist.Type
	lim      dist.Limits
	weights  []float64

	queue    btwHeap
	visited  *bitvec.Vector
	segData  []btwSegData
	stack    []int
	dep      []float64
	predPool []predLink
	result   []float64
}

func newBetweennessWorker(g *graph.AxialGraph, distType dist.Type, lim dist.Limits, weights []float64) *betweennessWorker {
	segCount := g.LineCount()
	if distType == dist.Angular {
		segCount *= 2
	}
	return &betweennessWorker{
		graph:    g,
		distType: distType,
		lim:      lim,
		weights:  weights,
		visited:  bitvec.New(segCount),
		segData:  make([]btwSegData, segCount),
		dep:      make([]float64, segCount),
		result:   make([]float64, g.LineCount()),
	}
}

func (w *betweennessWorker) useWeights() bool { return w.weights != nil }

func (w *betweennessWorker) biDirectional() bool { return len(w.segData) > w.graph.LineCount() }

func (w *betweennessWorker) reverseIndex(index int) int {
	lineCount := w.graph.LineCount()
	if index < lineCount {
		return index + lineCount
	}
	return index - lineCount
}

func (w *betweennessWorker) addPredecessor(data *btwSegData, pred int) {
	if data.pred.pred == noPred {
		data.pred.pred = int32(pred)
		return
	}
	w.predPool = append(w.predPool, data.pred)
	data.pred.next = int32(len(w.predPool) - 1)
	data.pred.pred = int32(pred)
}

func (w *betweennessWorker) popPredecessors(data *btwSegData, fn func(pred int)) {
	p := &data.pred
	if p.pred == noPred {
		return
	}
	for {
		fn(int(p.pred))
		if p.next == noPred {
			break
		}
		p = &w.predPool[p.next]
	}
	data.pred = predLink{pred: noPred, next: noPred}
}

func (w *betweennessWorker) cmpdist(d btwDist) float64 {
	switch w.distType {
	case dist.Walking:
		return d.walking
	case dist.Steps:
		return d.turns
	case dist.Angular:
		return d.angle
	default:
		return d.axmeter
	}
}

func (w *betweennessWorker) withinRadius(d btwDist, center, otherMid geometry.Vec) bool {
	if w.lim.HasWalking() && d.walking > w.lim.Walking {
		return false
	}
	if w.lim.HasSteps() && int(d.turns) > w.lim.Steps {
		return false
	}
	if w.lim.HasAngular() && d.angle > w.lim.Angular {
		return false
	}
	if w.lim.HasAxmeter() && d.axmeter > w.lim.Axmeter {
		return false
	}
	if w.lim.HasStraight() && geometry.DistSqr(otherMid, center) > w.lim.StraightSqr {
		return false
	}
	return true
}

// processSegment runs one origin of the Brandes traversal and
// accumulates flow into the worker-local result array. Returns the
// reached node count (including the origin) and the total depth.
func (w *betweennessWorker) processSegment(origin int) (nodeCount int, totalDepth float64) {
	lineCount := w.graph.LineCount()

	if w.useWeights() && !(w.weights[origin] > 0) {
		return 0, 0
	}

	reached := 0
	depth := 0.0

	w.visited.ClearAll()
	w.predPool = w.predPool[:0]
	for i := range w.segData {
		w.segData[i].pred = predLink{pred: noPred, next: noPred}
	}

	w.visited.Set(origin)
	w.segData[origin].nPaths = 1
	w.segData[origin].dist = 0

	reverseOrigin := origin + lineCount
	if w.biDirectional() {
		w.visited.Set(reverseOrigin)
		w.segData[reverseOrigin].nPaths = 1
		w.segData[reverseOrigin].dist = 0
	}

	seg := w.graph.Line(origin)
	center := seg.Mid()

	// Seed the queue with the origin line's neighbours.
	for i := 0; i < seg.NumCrossings; i++ {
		lc := w.graph.LineCrossing(seg.FirstCrossing + i)
		olc := w.graph.LineCrossing(lc.Opposite)
		seg2 := w.graph.Line(olc.Line)

		reverse := lc.LinePos < seg.Length*0.5
		nextReverse := olc.LinePos > seg2.Length*0.5

		var s btwState
		s.d.walking = (seg.Length + seg2.Length) * 0.5
		s.d.turns = 1
		currAngle := seg.Angle
		if reverse {
			currAngle = geometry.ReverseAngle(currAngle)
		}
		targetAngle := seg2.Angle
		if nextReverse {
			targetAngle = geometry.ReverseAngle(targetAngle)
		}
		s.d.angle = geometry.AngleDiff(currAngle, targetAngle)
		s.d.axmeter = seg.Length*0.5 + seg2.Length

		if !w.withinRadius(s.d, center, seg2.Mid()) {
			continue
		}
		s.cmpdist = w.cmpdist(s.d)

		s.prevSegment = origin
		if reverse {
			s.prevSegment += lineCount
		}
		s.segment = olc.Line
		if nextReverse {
			s.segment += lineCount
		}
		heap.Push(&w.queue, s)
	}

	// Traverse.
	for w.queue.Len() > 0 {
		state := heap.Pop(&w.queue).(btwState)

		segIndex := state.segment
		reverse := segIndex >= lineCount
		realSeg := segIndex
		if reverse {
			realSeg -= lineCount
		}
		seg := w.graph.Line(realSeg)
		if !w.biDirectional() {
			segIndex = realSeg
		}
		data := &w.segData[segIndex]

		if !w.visited.Get(segIndex) {
			// First reach of this segment in EITHER direction updates the
			// global metrics.
			if !w.biDirectional() || !w.visited.Get(w.reverseIndex(segIndex)) {
				depth += state.cmpdist
				reached++
			}

			w.visited.Set(segIndex)
			w.stack = append(w.stack, segIndex)
			data.dist = state.cmpdist
			data.nPaths = 0

			for i := 0; i < seg.NumCrossings; i++ {
				nlc := w.graph.LineCrossing(seg.FirstCrossing + i)
				if (nlc.LinePos > seg.Length*0.5) == reverse {
					continue // never leave the end we entered
				}
				olc := w.graph.LineCrossing(nlc.Opposite)
				seg2 := w.graph.Line(olc.Line)

				nextSegment := olc.Line
				nextReverse := olc.LinePos > seg2.Length*0.5
				if nextReverse {
					nextSegment += lineCount
				}
				visitCheck := nextSegment
				if !w.biDirectional() {
					visitCheck = olc.Line
				}
				if w.visited.Get(visitCheck) {
					continue
				}

				var next btwState
				next.d.walking = state.d.walking + (seg.Length+seg2.Length)*0.5
				next.d.turns = state.d.turns + 1
				currAngle := seg.Angle
				if reverse {
					currAngle = geometry.ReverseAngle(currAngle)
				}
				targetAngle := seg2.Angle
				if nextReverse {
					targetAngle = geometry.ReverseAngle(targetAngle)
				}
				next.d.angle = state.d.angle + geometry.AngleDiff(currAngle, targetAngle)
				next.d.axmeter = state.d.axmeter +
					(seg.Length*(state.d.turns+1)+seg2.Length*(state.d.turns+2))*0.5

				if !w.withinRadius(next.d, center, seg2.Mid()) {
					continue
				}
				next.cmpdist = w.cmpdist(next.d)
				next.prevSegment = segIndex
				next.segment = nextSegment
				heap.Push(&w.queue, next)
			}
		}

		if state.cmpdist == data.dist {
			prev := state.prevSegment
			if !w.biDirectional() && prev >= lineCount {
				prev -= lineCount
			}
			data.nPaths += w.segData[prev].nPaths
			w.addPredecessor(data, prev)
		}
	}

	// Accumulation phase.
	for i := range w.dep {
		w.dep[i] = 0
	}

	srcWeight := 0.0
	if w.useWeights() {
		srcWeight = w.weights[origin]
	}

	for len(w.stack) > 0 {
		wIdx := w.stack[len(w.stack)-1]
		w.stack = w.stack[:len(w.stack)-1]
		data := &w.segData[wIdx]

		if w.biDirectional() {
			realSeg := wIdx
			if realSeg >= lineCount {
				realSeg -= lineCount
			}
			opposite := w.reverseIndex(wIdx)
			shortestPath := !w.visited.Get(opposite) || data.dist <= w.segData[opposite].dist

			w.popPredecessors(data, func(v int) {
				frac := float64(w.segData[v].nPaths) / float64(data.nPaths)
				if shortestPath {
					if w.useWeights() {
						w.dep[v] += frac * (w.weights[realSeg] + w.dep[wIdx])
					} else {
						w.dep[v] += frac * (1 + w.dep[wIdx])
					}
				} else {
					w.dep[v] += frac * w.dep[wIdx]
				}
			})

			// Half score: the bi-directional walk counts each path once
			// per direction.
			if w.useWeights() {
				w.result[realSeg] += srcWeight * w.dep[wIdx] * 0.5
				if shortestPath {
					w.result[realSeg] += srcWeight * w.weights[realSeg] * 0.25
				}
			} else {
				w.result[realSeg] += w.dep[wIdx] * 0.5
			}
		} else {
			w.popPredecessors(data, func(v int) {
				frac := float64(w.segData[v].nPaths) / float64(data.nPaths)
				if w.useWeights() {
					w.dep[v] += frac * (w.weights[wIdx] + w.dep[wIdx])
				} else {
					w.dep[v] += frac * (1 + w.dep[wIdx])
				}
			})

			if w.useWeights() {
				w.result[wIdx] += srcWeight * (w.dep[wIdx] + w.weights[wIdx]*0.5) * 0.5
			} else {
				w.result[wIdx] += w.dep[wIdx] * 0.5
			}
		}
	}

	if w.useWeights() {
		w.result[origin] += w.dep[origin] * srcWeight * 0.5 * 0.5
		if w.biDirectional() {
			w.result[origin] += w.dep[reverseOrigin] * srcWeight * 0.5 * 0.5
		}
		// Self-betweenness is counted once per origin, so no halving.
		w.result[origin] += srcWeight * srcWeight * 0.25
	}

	totalDepth = depth
	if w.distType == dist.Angular {
		totalDepth = geometry.SyntaxAngle(depth)
	}
	return reached + 1, totalDepth
}
