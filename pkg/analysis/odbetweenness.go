package analysis

import (
	"container/heap"
	"math"
	"sync/atomic"

	"github.com/urbanmorph/axialnet/pkg/dist"
	"github.com/urbanmorph/axialnet/pkg/geometry"
	"github.com/urbanmorph/axialnet/pkg/graph"
)

// ODDestinationMode selects how many destinations each origin trip
// distributes over.
type ODDestinationMode int

const (
	// ODAllReachableDestinations splits each origin's weight over every
	// reached destination per category.
	ODAllReachableDestinations ODDestinationMode = iota
	// ODClosestDestinationOnly stops at the first destination popped.
	ODClosestDestinationOnly
)

// ODBetweennessOptions parameterizes the origin-destination
// betweenness kernel.
type ODBetweennessOptions struct {
	// DistanceType is the primary metric: Walking or Angular.
	DistanceType dist.Type
	// Radii caps the traversal.
	Radii dist.Radii
	// OriginPoints are world-space trip origins.
	OriginPoints []geometry.Vec
	// OriginWeights, when non-nil, weight each origin's outgoing trips;
	// nil means 1 per origin.
	OriginWeights []float64
	// DestinationWeights, when non-nil, hold one weight per graph
	// point; non-positive destinations are ignored. Nil means 1 each.
	DestinationWeights []float64
	// DestinationMode selects all-reachable or closest-only trips.
	DestinationMode ODDestinationMode
	// Progress receives throttled progress reports; may be nil.
	Progress ProgressFunc
}

// ODBetweenness distributes each origin's weight among its reachable
// destination points and back-traces the shortest-path trees, adding
// flow to every intermediate line (the destinations themselves score
// nothing). outScores must hold one element per line.
func ODBetweenness(g *graph.AxialGraph, opts ODBetweennessOptions, outScores []float64) error {
	if g == nil {
		return ErrNilGraph
	}
	if opts.DistanceType != dist.Walking && opts.DistanceType != dist.Angular {
		return ErrUnsupportedDistanceType
	}
	if len(outScores) != g.LineCount() {
		return ErrOutputSize
	}
	if opts.DestinationWeights != nil && len(opts.DestinationWeights) != g.PointCount() {
		return ErrInputSize
	}
	if opts.OriginWeights != nil && len(opts.OriginWeights) != len(opts.OriginPoints) {
		return ErrInputSize
	}

	progress := NewProgress(opts.Progress)
	originCount := len(opts.OriginPoints)
	ranges := staticRanges(originCount, workerCount())
	var processed atomic.Uint64

	workers := make([]*odWorker, len(ranges))
	for i := range workers {
		workers[i] = newODWorker(g, opts)
	}

	dispatch(len(ranges), progress, func() float64 {
		if originCount == 0 {
			return 1
		}
		return float64(processed.Load()) / float64(originCount)
	}, func(workerIndex int) {
		w := workers[workerIndex]
		r := ranges[workerIndex]
		for i := r.first; i < r.first+r.count; i++ {
			if progress.Cancelled() {
				return
			}
			weight := 1.0
			if opts.OriginWeights != nil {
				weight = opts.OriginWeights[i]
			}
			w.processOrigin(g.WorldToLocal(opts.OriginPoints[i]), weight, 0)
			processed.Add(1)
		}
	})

	// Line-first, worker-second accumulation for reproducibility.
	for line := range outScores {
		score := 0.0
		for _, w := range workers {
			score += w.lineScores[line]
		}
		outScores[line] = score
	}
	return nil
}

// crossingDist is the per-line-crossing shortest-distance table; in
// angular mode forwards and backwards arrivals are tracked separately,
// otherwise only forwards is used.
type crossingDist struct {
	forwards  float64
	backwards float64
}

type odStep struct {
	line         int // negative: destination point -(index+1)
	lineCrossing int // global line-crossing index, -1 for the entry step
	prevTrace    int
	distModeDist float64
	acc          odDist
	forwards     bool
}

type odDist struct {
	steps   int
	walking float64
	angle   float64
}

type odHeap []odStep

func (h odHeap) Len() int           { return len(h) }
func (h odHeap) Less(i, j int) bool { return h[i].distModeDist < h[j].distModeDist }
func (h odHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *odHeap) Push(x any)        { *h = append(*h, x.(odStep)) }
func (h *odHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

type odReachedPoint struct {
	index     int
	prevTrace int
}

type odTrace struct {
	line      int
	prevTrace int
	score     float64
}

type odWorker struct {
	graph *graph.AxialGraph
	opts  ODBetweennessOptions

	queue              odHeap
	reachedPoints      []odReachedPoint
	shortestCrossings  []crossingDist
	trace              []odTrace
	lineScores         []float64
	shortestPointDists []float64
	categoryWeights    []float64
}

func newODWorker(g *graph.AxialGraph, opts ODBetweennessOptions) *odWorker {
	w := &odWorker{
		graph:              g,
		opts:               opts,
		reachedPoints:      make([]odReachedPoint, 0, g.PointCount()),
		shortestCrossings:  make([]crossingDist, g.LineCrossingCount()),
		trace:              make([]odTrace, 0, g.LineCrossingCount()),
		lineScores:         make([]float64, g.LineCount()),
		shortestPointDists: make([]float64, g.PointCount()),
		categoryWeights:    make([]float64, 1),
	}
	for i := range w.shortestPointDists {
		w.shortestPointDists[i] = -1
	}
	return w
}

func (w *odWorker) destinationWeight(point int) float64 {
	if w.opts.DestinationWeights == nil {
		return 1
	}
	return w.opts.DestinationWeights[point]
}

// categoryForDestination and matrixWeight keep the destination-category
// machinery in place; the core entry point runs one category.
func (w *odWorker) categoryForDestination(int) int { return 0 }

func (w *odWorker) matrixWeight(int, int) float64 { return 1 }

func (w *odWorker) queueStep(step odStep) {
	if w.opts.DistanceType == dist.Angular {
		step.distModeDist = step.acc.angle
	} else {
		step.distModeDist = step.acc.walking
	}
	heap.Push(&w.queue, step)
}

// updateShortestCrossing records an arrival at a line-crossing and
// reports whether it is no worse than the best known (equal distances
// pass, so parallel shortest paths keep tracing).
func (w *odWorker) updateShortestCrossing(lineCrossing int, acc odDist, forwards bool) bool {
	c := &w.shortestCrossings[lineCrossing]
	if w.opts.DistanceType == dist.Angular {
		prev := &c.forwards
		if !forwards {
			prev = &c.backwards
		}
		if acc.angle > *prev {
			return false
		}
		*prev = acc.angle
		return true
	}
	if acc.walking > c.forwards {
		return false
	}
	c.forwards = acc.walking
	return true
}

func (w *odWorker) withinRadius(acc odDist) bool {
	return acc.walking <= w.opts.Radii.Walking() &&
		acc.angle <= w.opts.Radii.Angular() &&
		acc.steps <= w.opts.Radii.Steps()
}

func (w *odWorker) withinStraight(p0, p1 geometry.Vec) bool {
	return geometry.DistSqr(p0, p1) <= w.opts.Radii.StraightSqr()
}

func (w *odWorker) processOrigin(pt geometry.Vec, weight float64, originCategory int) {
	g := w.graph

	startLine, distFromLine, startPos := g.ClosestLine(pt)
	if startLine < 0 {
		return
	}

	careAngles := w.opts.DistanceType == dist.Angular || w.opts.Radii.HasAngular()

	step := odStep{
		line:         startLine,
		lineCrossing: -1,
		prevTrace:    -1,
		acc:          odDist{walking: distFromLine},
	}
	if distFromLine*distFromLine <= w.opts.Radii.StraightSqr() {
		if careAngles {
			step.forwards = true
			w.queueStep(step)
			step.forwards = false
			w.queueStep(step)
		} else {
			w.queueStep(step)
		}
	}

	w.reachedPoints = w.reachedPoints[:0]
	w.trace = w.trace[:0]

	for i := range w.shortestCrossings {
		w.shortestCrossings[i] = crossingDist{forwards: math.MaxFloat64, backwards: math.MaxFloat64}
	}

	for w.queue.Len() > 0 {
		step := heap.Pop(&w.queue).(odStep)

		if step.line < 0 {
			// A queued destination end-point; first pop is its shortest
			// distance.
			pointIndex := -step.line - 1
			if w.shortestPointDists[pointIndex] != -1 {
				continue
			}
			w.shortestPointDists[pointIndex] = step.distModeDist
			w.reachedPoints = append(w.reachedPoints, odReachedPoint{index: pointIndex, prevTrace: step.prevTrace})
			if w.opts.DestinationMode == ODClosestDestinationOnly {
				w.queue = w.queue[:0]
				break
			}
			continue
		}

		line := g.Line(step.line)

		if step.lineCrossing >= 0 && !w.updateShortestCrossing(step.lineCrossing, step.acc, step.forwards) {
			continue
		}

		var next odStep
		next.prevTrace = len(w.trace)
		w.trace = append(w.trace, odTrace{line: step.line, prevTrace: step.prevTrace})

		fromLinePos := startPos
		if step.lineCrossing != -1 {
			fromLinePos = g.LineCrossing(step.lineCrossing).LinePos
		}

		for c := 0; c < line.NumCrossings; c++ {
			lcIndex := line.FirstCrossing + c
			if lcIndex == step.lineCrossing {
				continue // no need to go back through the same crossing
			}
			lc := g.LineCrossing(lcIndex)
			if lc.LinePos == fromLinePos {
				// Stepping out exactly where we stepped in means this
				// line was visited in vain, even toward another line.
				continue
			}
			if careAngles && step.forwards != (lc.LinePos > fromLinePos) {
				continue
			}
			if w.opts.Radii.HasStraight() && !w.withinStraight(pt, g.Crossing(lc.Crossing).Pt) {
				continue
			}

			next.acc = step.acc
			next.acc.steps++
			next.acc.walking += math.Abs(fromLinePos - lc.LinePos)

			if !w.withinRadius(next.acc) {
				continue
			}
			if !w.updateShortestCrossing(lcIndex, next.acc, step.forwards) {
				continue
			}

			opposite := g.LineCrossing(lc.Opposite)
			next.line = opposite.Line
			next.lineCrossing = lc.Opposite

			if careAngles {
				nextLine := g.Line(opposite.Line)
				currentAngle := line.Angle
				if !step.forwards {
					currentAngle = geometry.ReverseAngle(currentAngle)
				}
				forwardTurn := geometry.AngleDiff(currentAngle, nextLine.Angle)
				next.acc.angle += forwardTurn
				next.forwards = true
				if next.acc.angle <= w.opts.Radii.Angular() {
					w.queueStep(next)
				}
				next.acc.angle += 180 - 2*forwardTurn
				next.forwards = false
				if next.acc.angle <= w.opts.Radii.Angular() {
					w.queueStep(next)
				}
			} else {
				w.queueStep(next)
			}
		}

		// Destination points attached to this line.
		for p := 0; p < line.NumPoints; p++ {
			pointIndex := g.LinePoint(line.FirstPoint + p)
			if w.destinationWeight(pointIndex) <= 0 {
				continue
			}
			point := g.Point(pointIndex)
			if w.opts.Radii.HasStraight() {
				onLine := geometry.Add(line.P1, geometry.Scale(point.LinePos/line.Length, geometry.Sub(line.P2, line.P1)))
				if !w.withinStraight(pt, point.Coords) ||
					(line.Length > 0 && !w.withinStraight(pt, onLine)) {
					continue
				}
			}
			if careAngles && step.forwards != (point.LinePos > fromLinePos) {
				continue
			}
			next.acc = step.acc
			if w.opts.DistanceType == dist.Walking {
				next.acc.walking += math.Abs(point.LinePos-fromLinePos) + point.DistFromLine
			}
			if !w.withinRadius(next.acc) {
				continue
			}
			if w.shortestPointDists[pointIndex] != -1 {
				continue // already reached with a shorter distance
			}
			next.line = -pointIndex - 1
			w.queueStep(next)
		}
	}

	// Sum reached weights per destination category, resetting the
	// shortest-distance table as we go.
	for i := range w.categoryWeights {
		w.categoryWeights[i] = 0
	}
	for _, rp := range w.reachedPoints {
		category := w.categoryForDestination(rp.index)
		if category >= 0 {
			w.categoryWeights[category] += w.destinationWeight(rp.index)
		}
		w.shortestPointDists[rp.index] = -1
	}

	// Split the origin weight over the reached destinations.
	for _, rp := range w.reachedPoints {
		category := w.categoryForDestination(rp.index)
		if category >= 0 {
			w.trace[rp.prevTrace].score += weight * w.matrixWeight(originCategory, category) *
				w.destinationWeight(rp.index) / w.categoryWeights[category]
		}
	}
	w.reachedPoints = w.reachedPoints[:0]

	// Back-track the trace chains onto the intermediate lines.
	for traceIndex := len(w.trace) - 1; traceIndex >= 0; traceIndex-- {
		t := &w.trace[traceIndex]
		if t.score > 0 {
			w.lineScores[t.line] += t.score
			if t.prevTrace >= 0 {
				w.trace[t.prevTrace].score += t.score
			}
		}
	}
	w.trace = w.trace[:0]
}
