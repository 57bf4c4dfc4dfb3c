package analysis

import (
	"math"
	"sync/atomic"

	"github.com/urbanmorph/axialnet/pkg/dist"
	"github.com/urbanmorph/axialnet/pkg/geometry"
	"github.com/urbanmorph/axialnet/pkg/graph"
	"github.com/urbanmorph/axialnet/pkg/traversal"
	"github.com/urbanmorph/axialnet/pkg/util/bitvec"
)

// WeightFunc shapes how an attraction value decays with distance x,
// relative to the analysis radius max.
type WeightFunc int

const (
	// WeightConstant scores 1 regardless of distance.
	WeightConstant WeightFunc = iota
	// WeightPow scores 1 - (x/max)^C.
	WeightPow
	// WeightCurve scores the piecewise 1 - 0.5*(2x)^C | 0.5*(2-2x)^C
	// over x/max.
	WeightCurve
	// WeightDivide scores (x+1)^-C.
	WeightDivide
)

// CollectFunc folds per-point scores into one score per point group.
type CollectFunc int

const (
	// CollectAvg averages group member scores.
	CollectAvg CollectFunc = iota
	// CollectSum sums group member scores.
	CollectSum
	// CollectMin takes the minimum member score.
	CollectMin
	// CollectMax takes the maximum member score.
	CollectMax
)

// DistributionFunc decides how a polygon's attraction value spreads
// over the points sampled along its edges.
type DistributionFunc int

const (
	// DistributeDivide splits the polygon value equally among its
	// sampled points; per-target scores from the points sum.
	DistributeDivide DistributionFunc = iota
	// DistributeCopy gives every sampled point the polygon's full
	// value; per-target scores take the max across the polygon's
	// points before summing into the output.
	DistributeCopy
)

// AttractionReachOptions parameterizes the attraction-reach kernel.
type AttractionReachOptions struct {
	// OriginType selects the scored network elements ("origins" in the
	// caller's frame; the traversal runs backwards from attractions).
	OriginType OriginType
	// DistanceType is the metric fed to the weight function.
	DistanceType dist.Type
	// Radii caps the traversal.
	Radii dist.Radii
	// AttractionPoints are world-space attraction locations. With
	// PointsPerPolygon set they are polygon vertices instead.
	AttractionPoints []geometry.Vec
	// AttractionValues holds one value per attraction point (or per
	// polygon); nil means 1 each. Non-positive attractions are skipped.
	AttractionValues []float64
	// PointsPerPolygon partitions AttractionPoints into polygons; the
	// entries must sum to len(AttractionPoints).
	PointsPerPolygon []int
	// PolygonPointInterval is the sampling interval along polygon
	// edges in metres; required with PointsPerPolygon.
	PolygonPointInterval float64
	// Distribution selects Divide or Copy semantics for polygons.
	Distribution DistributionFunc
	// Collection folds point scores per group for OriginPointGroups.
	Collection CollectFunc
	// Weight selects the distance decay; WeightConstant needs no
	// constant.
	Weight WeightFunc
	// WeightConstant is the exponent C of the decay functions.
	WeightConstant float64
	// Progress receives throttled progress reports; may be nil.
	Progress ProgressFunc
}

func (opts *AttractionReachOptions) isPolygons() bool {
	return opts.PointsPerPolygon != nil && opts.PolygonPointInterval > 0
}

// weightValue evaluates the decay function at distance x with the
// given max (the radius cap of the analysis metric).
func weightValue(fn WeightFunc, x, maxX, c float64) float64 {
	switch fn {
	case WeightConstant:
		return 1
	case WeightPow:
		x /= maxX
		return 1 - math.Pow(x, c)
	case WeightCurve:
		x /= maxX
		if x < 0.5 {
			return 1 - 0.5*math.Pow(2*x, c)
		}
		return 0.5 * math.Pow(2-2*x, c)
	case WeightDivide:
		return math.Pow(x+1, -c)
	}
	return 0
}

// AttractionReach accumulates, per scored network element, the sum of
// attraction_value * weight(distance) over every attraction that can
// reach it. outScores must hold one element per scored element (one
// per point group for OriginPointGroups). Point-group entries with no
// members report -1.
func AttractionReach(g *graph.AxialGraph, opts AttractionReachOptions, outScores []float64) error {
	if g == nil {
		return ErrNilGraph
	}

	var target traversal.Target
	switch opts.OriginType {
	case OriginPoints, OriginPointGroups:
		target = traversal.TargetPoints
	case OriginJunctions:
		target = traversal.TargetCrossings
	case OriginLines:
		target = traversal.TargetLines
	default:
		return ErrUnsupportedOriginType
	}

	lim := dist.LimitsFromRadii(opts.Radii)

	maxX := opts.Radii.Get(opts.DistanceType)
	if opts.DistanceType == dist.Steps {
		maxX++
	}

	var targetCount int
	switch target {
	case traversal.TargetPoints:
		targetCount = g.PointCount()
	case traversal.TargetCrossings:
		targetCount = g.CrossingCount()
	case traversal.TargetLines:
		targetCount = g.LineCount()
	}

	outputCount := targetCount
	if opts.groupedOutput() {
		outputCount = g.PointGroupCount()
	}
	if len(outScores) != outputCount {
		return ErrOutputSize
	}

	// Work units: polygons or points, statically partitioned so the
	// final float accumulation order is reproducible.
	unitCount := len(opts.AttractionPoints)
	var polygonOffsets []int
	if opts.isPolygons() {
		unitCount = len(opts.PointsPerPolygon)
		polygonOffsets = make([]int, unitCount)
		off := 0
		for i, n := range opts.PointsPerPolygon {
			polygonOffsets[i] = off
			off += n
		}
		if off != len(opts.AttractionPoints) {
			return ErrInputSize
		}
	}
	if opts.AttractionValues != nil && len(opts.AttractionValues) != unitCount {
		return ErrInputSize
	}

	progress := NewProgress(opts.Progress)
	ranges := staticRanges(unitCount, workerCount())
	var processed atomic.Uint64

	workers := make([]*attractionWorker, len(ranges))
	for i := range workers {
		workers[i] = newAttractionWorker(g, target, opts, lim, maxX, targetCount)
		workers[i].bfs.SetCancel(progress.CancelFlag())
	}

	dispatch(len(ranges), progress, func() float64 {
		if unitCount == 0 {
			return 1
		}
		return float64(processed.Load()) / float64(unitCount)
	}, func(workerIndex int) {
		w := workers[workerIndex]
		r := ranges[workerIndex]
		for unit := r.first; unit < r.first+r.count; unit++ {
			if progress.Cancelled() {
				return
			}
			value := 1.0
			if opts.AttractionValues != nil {
				value = opts.AttractionValues[unit]
			}
			if value > 0 {
				if opts.isPolygons() {
					vertices := opts.AttractionPoints[polygonOffsets[unit] : polygonOffsets[unit]+opts.PointsPerPolygon[unit]]
					w.processPolygon(vertices, value)
				} else {
					w.processPoint(g.WorldToLocal(opts.AttractionPoints[unit]), value)
					w.accumulate()
				}
			}
			processed.Add(1)
		}
	})

	if opts.groupedOutput() {
		collectPointGroupScores(g, workers, opts.Collection, outScores)
	} else {
		for i := 0; i < outputCount; i++ {
			score := 0.0
			for _, w := range workers {
				score += w.results[i]
			}
			outScores[i] = score
		}
	}
	return nil
}

// groupedOutput reports whether scores fold per point group.
func (opts *AttractionReachOptions) groupedOutput() bool {
	return opts.OriginType == OriginPointGroups
}

func collectPointGroupScores(g *graph.AxialGraph, workers []*attractionWorker, fn CollectFunc, out []float64) {
	pointIndex := 0
	for group := 0; group < g.PointGroupCount(); group++ {
		v := 0.0
		c := 0
		groupSize := g.PointGroupSize(group)
		for i := 0; i < groupSize; i++ {
			score := 0.0
			for _, w := range workers {
				score += w.results[pointIndex+i]
			}
			if score < 0 {
				continue
			}
			switch fn {
			case CollectAvg, CollectSum:
				v += score
			case CollectMin:
				if c == 0 || score < v {
					v = score
				}
			case CollectMax:
				if c == 0 || score > v {
					v = score
				}
			}
			c++
		}
		if c > 0 {
			if fn == CollectAvg {
				v /= float64(c)
			}
			out[group] = v
		} else {
			out[group] = -1
		}
		pointIndex += groupSize
	}
}

type attractionWorker struct {
	graph  *graph.AxialGraph
	target traversal.Target
	opts   AttractionReachOptions
	lim    dist.Limits
	maxX   float64

	bfs *traversal.BFS

	currentValue   float64
	visitedBits    *bitvec.Vector
	visitedTargets []int
	bestScores     []float64
	results        []float64

	// polygon Copy-distribution scratch
	maxScores         []float64
	polyVisitedBits   *bitvec.Vector
	polyVisitedIdxs   []int
	sampledEdgePoints []geometry.Vec
}

func newAttractionWorker(g *graph.AxialGraph, target traversal.Target, opts AttractionReachOptions, lim dist.Limits, maxX float64, targetCount int) *attractionWorker {
	return &attractionWorker{
		graph:       g,
		target:      target,
		opts:        opts,
		lim:         lim,
		maxX:        maxX,
		bfs:         traversal.NewBFS(g, target, opts.DistanceType, lim),
		visitedBits: bitvec.New(targetCount),
		bestScores:  make([]float64, targetCount),
		results:     make([]float64, targetCount),
	}
}

func (w *attractionWorker) weight(x float64) float64 {
	return weightValue(w.opts.Weight, x, w.maxX, w.opts.WeightConstant)
}

// accumulate folds the best scores of the last processed point into
// the per-target results.
func (w *attractionWorker) accumulate() {
	for _, target := range w.visitedTargets {
		w.results[target] += w.bestScores[target]
	}
}

func (w *attractionWorker) processPolygon(vertices []geometry.Vec, value float64) {
	w.sampledEdgePoints = w.sampledEdgePoints[:0]
	w.sampledEdgePoints = append(w.sampledEdgePoints, geometry.SampleRegionEdges(vertices, w.opts.PolygonPointInterval)...)
	if len(w.sampledEdgePoints) == 0 {
		return
	}

	switch w.opts.Distribution {
	case DistributeDivide:
		perPoint := value / float64(len(w.sampledEdgePoints))
		for _, pt := range w.sampledEdgePoints {
			w.processPoint(w.graph.WorldToLocal(pt), perPoint)
			w.accumulate()
		}
	case DistributeCopy:
		if w.maxScores == nil {
			w.maxScores = make([]float64, len(w.results))
			w.polyVisitedBits = bitvec.New(len(w.results))
		}
		w.polyVisitedIdxs = w.polyVisitedIdxs[:0]
		for _, pt := range w.sampledEdgePoints {
			w.processPoint(w.graph.WorldToLocal(pt), value)
			for _, target := range w.visitedTargets {
				if !w.polyVisitedBits.Get(target) {
					w.polyVisitedBits.Set(target)
					w.polyVisitedIdxs = append(w.polyVisitedIdxs, target)
					w.maxScores[target] = w.bestScores[target]
				} else if w.bestScores[target] > w.maxScores[target] {
					w.maxScores[target] = w.bestScores[target]
				}
			}
		}
		for _, target := range w.polyVisitedIdxs {
			w.results[target] += w.maxScores[target]
			w.polyVisitedBits.Clear(target)
		}
	}
}

func (w *attractionWorker) processPoint(pt geometry.Vec, value float64) {
	w.currentValue = value

	for _, target := range w.visitedTargets {
		w.visitedBits.Clear(target)
	}
	w.visitedTargets = w.visitedTargets[:0]

	if w.opts.DistanceType == dist.Straight && w.lim.Mask&^dist.Straight.Mask() == 0 {
		// Straight-line metric with at most a straight-line radius:
		// no traversal needed.
		switch w.target {
		case traversal.TargetPoints, traversal.TargetCrossings:
			maxDistSqr := math.Inf(1)
			if w.lim.HasStraight() {
				maxDistSqr = w.lim.StraightSqr
			}
			n := len(w.bestScores)
			for target := 0; target < n; target++ {
				var p geometry.Vec
				if w.target == traversal.TargetPoints {
					p = w.graph.Point(target).Coords
				} else {
					p = w.graph.Crossing(target).Pt
				}
				distSqr := geometry.DistSqr(p, pt)
				if distSqr > maxDistSqr {
					continue
				}
				w.bestScores[target] = value * w.weight(math.Sqrt(distSqr))
				w.visitedTargets = append(w.visitedTargets, target)
			}
		case traversal.TargetLines:
			if w.lim.HasStraight() {
				radius := math.Sqrt(w.lim.StraightSqr)
				for _, line := range w.graph.LinesWithinRadius(pt, radius, nil) {
					w.bestScores[line] = value * w.weight(radius)
					w.visitedTargets = append(w.visitedTargets, line)
				}
			} else {
				for line := 0; line < w.graph.LineCount(); line++ {
					l := w.graph.Line(line)
					_, d := geometry.NearestPoint(pt, l.P1, l.P2)
					w.bestScores[line] = value * w.weight(d)
					w.visitedTargets = append(w.visitedTargets, line)
				}
			}
		}
		return
	}

	w.bfs.RunFromPoint(pt, w.visit)
}

func (w *attractionWorker) visit(target int, d traversal.Dist) {
	x := 0.0
	switch w.opts.DistanceType {
	case dist.Straight:
		if w.target == traversal.TargetLines {
			l := w.graph.Line(target)
			_, x = geometry.NearestPoint(w.bfs.Origin(), l.P1, l.P2)
		} else if w.target == traversal.TargetPoints {
			x = geometry.Dist(w.graph.Point(target).Coords, w.bfs.Origin())
		} else {
			x = geometry.Dist(w.graph.Crossing(target).Pt, w.bfs.Origin())
		}
	case dist.Walking:
		x = d.Walking
	case dist.Steps:
		x = float64(d.Turns)
	case dist.Angular:
		x = d.Angle
	case dist.Axmeter:
		x = d.Axmeter
	case dist.Undefined:
		// distance ignored; weight of zero distance
	}

	score := w.currentValue * w.weight(x)

	if !w.visitedBits.Get(target) {
		w.visitedBits.Set(target)
		w.visitedTargets = append(w.visitedTargets, target)
	} else if score <= w.bestScores[target] {
		return
	}
	w.bestScores[target] = score
}
