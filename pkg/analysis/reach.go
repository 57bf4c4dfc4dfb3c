package analysis

import (
	"math"

	"github.com/urbanmorph/axialnet/pkg/dist"
	"github.com/urbanmorph/axialnet/pkg/geometry"
	"github.com/urbanmorph/axialnet/pkg/graph"
	"github.com/urbanmorph/axialnet/pkg/traversal"
	"github.com/urbanmorph/axialnet/pkg/util/bitvec"
)

// ReachOptions parameterizes the Reach kernel.
type ReachOptions struct {
	// Radii caps the traversal.
	Radii dist.Radii
	// OriginPoints, when non-nil, are world-space origin points. Nil
	// runs one traversal per line from its midpoint.
	OriginPoints []geometry.Vec
	// Progress receives throttled progress reports; may be nil.
	Progress ProgressFunc
}

// Reach computes, for every origin, the count, total length and convex
// hull area of the lines reachable within the radii. Output slices may
// be nil to skip a measure; non-nil slices must hold one element per
// origin. When the only radius is straight-line the traversal is
// replaced by a midpoint sweep and the area is exactly pi*r^2.
func Reach(g *graph.AxialGraph, opts ReachOptions, outCount []int, outLength, outArea []float64) error {
	if g == nil {
		return ErrNilGraph
	}
	originCount := g.LineCount()
	if opts.OriginPoints != nil {
		originCount = len(opts.OriginPoints)
	}
	if outCount != nil && len(outCount) != originCount {
		return ErrOutputSize
	}
	if outLength != nil && len(outLength) != originCount {
		return ErrOutputSize
	}
	if outArea != nil && len(outArea) != originCount {
		return ErrOutputSize
	}

	lim := dist.LimitsFromRadii(opts.Radii)
	progress := NewProgress(opts.Progress)
	count := newCounter(originCount)

	dispatch(workerCount(), progress, count.progress, func(int) {
		w := &reachWorker{
			graph:    g,
			lim:      lim,
			bfs:      traversal.NewBFS(g, traversal.TargetLines, dist.Undefined, lim),
			reached:  bitvec.New(g.LineCount()),
			outCount: outCount, outLength: outLength, outArea: outArea,
			wantArea: outArea != nil,
		}
		w.bfs.SetCancel(progress.CancelFlag())
		for {
			origin, ok := count.fetch()
			if !ok || progress.Cancelled() {
				return
			}
			if opts.OriginPoints != nil {
				w.processPoint(origin, g.WorldToLocal(opts.OriginPoints[origin]))
			} else {
				w.processLine(origin)
			}
		}
	})
	return nil
}

type reachWorker struct {
	graph *graph.AxialGraph
	lim   dist.Limits
	bfs   *traversal.BFS

	reached   *bitvec.Vector
	endpoints []geometry.Vec
	hull      []geometry.Vec

	outCount  []int
	outLength []float64
	outArea   []float64
	wantArea  bool

	current int
}

func (w *reachWorker) processPoint(origin int, pt geometry.Vec) {
	w.current = origin
	w.endpoints = w.endpoints[:0]

	if w.lim.StraightOnly() {
		for i := 0; i < w.graph.LineCount(); i++ {
			line := w.graph.Line(i)
			if geometry.DistSqr(line.Mid(), pt) < w.lim.StraightSqr {
				w.score(i, line)
			}
		}
	} else {
		w.reached.ClearAll()
		w.bfs.RunFromPoint(pt, w.visit)
	}

	if w.outArea != nil {
		w.endpoints = append(w.endpoints, pt)
		w.outArea[origin] = w.area()
		if !w.lim.StraightOnly() {
			if line, _, _ := w.graph.ClosestLine(pt); line < 0 {
				// The origin attaches to no line: the area is undefined.
				w.outArea[origin] = -1
			}
		}
	}
}

func (w *reachWorker) processLine(origin int) {
	w.current = origin
	w.endpoints = w.endpoints[:0]

	if w.lim.StraightOnly() {
		l1 := w.graph.Line(origin)
		mid := l1.Mid()
		for i := 0; i < w.graph.LineCount(); i++ {
			line := w.graph.Line(i)
			if geometry.DistSqr(line.Mid(), mid) <= w.lim.StraightSqr {
				w.score(i, line)
			}
		}
	} else {
		w.reached.ClearAll()
		w.bfs.RunFromLine(origin, w.visit)
	}

	if w.outArea != nil {
		w.outArea[origin] = w.area()
	}
}

func (w *reachWorker) visit(target int, _ traversal.Dist) {
	if w.reached.Get(target) {
		return
	}
	w.reached.Set(target)
	w.score(target, w.graph.Line(target))
}

func (w *reachWorker) score(index int, line *graph.Line) {
	if w.outCount != nil {
		w.outCount[w.current]++
	}
	if w.outLength != nil {
		w.outLength[w.current] += line.Length
	}
	if w.wantArea {
		w.endpoints = append(w.endpoints, line.P1, line.P2)
	}
}

func (w *reachWorker) area() float64 {
	if w.lim.StraightOnly() {
		// The exact disc area avoids hull shape noise when the radius is
		// a straight-line distance.
		return w.lim.StraightSqr * math.Pi
	}
	w.endpoints = geometry.SortAndDedupPoints(w.endpoints)
	if len(w.endpoints) < 3 {
		return 0
	}
	w.hull = geometry.ConvexHull(w.endpoints)
	return geometry.ConvexPolyArea(w.hull)
}
