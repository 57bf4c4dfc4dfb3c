// Package traversal implements the two engines the analysis kernels
// drive: a bounded breadth-first walk over the axial graph tracking
// four distance metrics at once, and a Dijkstra shortest-path search
// over the directed multi-distance graph.
package traversal

import (
	"math"
	"sync/atomic"

	"github.com/urbanmorph/axialnet/pkg/dist"
	"github.com/urbanmorph/axialnet/pkg/geometry"
	"github.com/urbanmorph/axialnet/pkg/graph"
	"github.com/urbanmorph/axialnet/pkg/util/bitvec"
)

// Target selects which network element a BFS scores.
type Target int

const (
	// TargetPoints scores attached destination points.
	TargetPoints Target = iota
	// TargetLines scores lines.
	TargetLines
	// TargetCrossings scores crossings.
	TargetCrossings
)

// Dist carries the four simultaneous distance metrics of one BFS state.
type Dist struct {
	Walking float64
	Turns   int
	Angle   float64
	Axmeter float64
}

// Get returns the metric selected by t. Straight is not tracked by the
// BFS and reports 0.
func (d Dist) Get(t dist.Type) float64 {
	switch t {
	case dist.Walking:
		return d.Walking
	case dist.Steps:
		return float64(d.Turns)
	case dist.Angular:
		return d.Angle
	case dist.Axmeter:
		return d.Axmeter
	}
	return 0
}

// Visitor receives one scored target with the metrics it was reached at.
type Visitor func(target int, d Dist)

// checkpoint remembers the best-so-far metrics seen entering a
// line-crossing.
type checkpoint struct {
	walking float64
	turns   int
	fwAngle float64
	bkAngle float64
	axmeter float64
}

type bfsState struct {
	lineCrossing int // -1 for the initial state
	d            Dist
	lastAngle    float64 // -1 before the first line transition
}

// BFS is the bounded multi-metric breadth-first engine. One instance is
// worker-local scratch, reused across origins of a single analysis.
type BFS struct {
	graph    *graph.AxialGraph
	target   Target
	distType dist.Type
	lim      dist.Limits

	checkpoints []checkpoint
	visited     *bitvec.Vector
	queue       []bfsState
	origin      geometry.Vec
	cancel      *atomic.Bool
}

// NewBFS prepares a BFS over g scoring the given target with the given
// primary distance type and radius limits.
func NewBFS(g *graph.AxialGraph, target Target, distType dist.Type, lim dist.Limits) *BFS {
	return &BFS{
		graph:       g,
		target:      target,
		distType:    distType,
		lim:         lim,
		checkpoints: make([]checkpoint, g.LineCrossingCount()),
		visited:     bitvec.New(g.LineCrossingCount()),
	}
}

// SetCancel installs a shared cancellation flag polled between state
// pops.
func (b *BFS) SetCancel(flag *atomic.Bool) { b.cancel = flag }

func (b *BFS) cancelled() bool { return b.cancel != nil && b.cancel.Load() }

// TargetCount returns the number of scorable targets.
func (b *BFS) TargetCount() int {
	switch b.target {
	case TargetPoints:
		return b.graph.PointCount()
	case TargetLines:
		return b.graph.LineCount()
	case TargetCrossings:
		return b.graph.CrossingCount()
	}
	return 0
}

// Limits returns the active radius limits.
func (b *BFS) Limits() dist.Limits { return b.lim }

// Origin returns the origin point of the last run.
func (b *BFS) Origin() geometry.Vec { return b.origin }

// RunFromPoint walks the network from an arbitrary local-frame point,
// entering at its nearest line with the perpendicular distance
// pre-paid on the walking and axmeter metrics.
func (b *BFS) RunFromPoint(pt geometry.Vec, visit Visitor) {
	lineIndex, distToLine, pos := b.graph.ClosestLine(pt)
	if lineIndex < 0 {
		return
	}
	b.origin = pt
	b.visited.ClearAll()
	b.run(lineIndex, pos, Dist{Walking: distToLine, Axmeter: distToLine}, visit)
}

// RunFromLine walks the network from the midpoint of a line.
func (b *BFS) RunFromLine(lineIndex int, visit Visitor) {
	line := b.graph.Line(lineIndex)
	b.origin = line.Mid()
	b.visited.ClearAll()
	b.run(lineIndex, line.Length*0.5, Dist{}, visit)
}

func (b *BFS) run(startLine int, startPos float64, startDist Dist, visit Visitor) {
	b.queue = b.queue[:0]
	b.queue = append(b.queue, bfsState{lineCrossing: -1, d: startDist, lastAngle: -1})

	for len(b.queue) > 0 && !b.cancelled() {
		s := b.queue[0]
		b.queue = b.queue[1:]

		lineIndex := startLine
		linePos := startPos
		crossing := -1 // NOTE: crossing, not line-crossing
		if s.lineCrossing >= 0 {
			fromLC := b.graph.LineCrossing(s.lineCrossing)
			lineIndex = fromLC.Line
			linePos = fromLC.LinePos
			crossing = fromLC.Crossing
		}

		line := b.graph.Line(lineIndex)

		fwdAccAngle := s.d.Angle
		bkdAccAngle := s.d.Angle
		if s.lastAngle >= 0 {
			diff := geometry.AngleDiff(line.Angle, s.lastAngle)
			fwdAccAngle += diff
			bkdAccAngle += 180 - diff
		}

		if s.lineCrossing >= 0 {
			// Entering through a line-crossing: consult its checkpoint.
			c := &b.checkpoints[s.lineCrossing]
			if b.visited.Get(s.lineCrossing) {
				if !b.updateCheckpoint(c, s.d, fwdAccAngle, bkdAccAngle) {
					continue // a previous visit had better metrics
				}
			} else {
				b.visited.Set(s.lineCrossing)
				*c = checkpoint{walking: s.d.Walking, turns: s.d.Turns, fwAngle: fwdAccAngle, bkAngle: bkdAccAngle, axmeter: s.d.Axmeter}
			}
		}

		if b.target == TargetLines {
			d := s.d
			if linePos < line.Length*0.5 {
				d.Angle = fwdAccAngle
			} else {
				d.Angle = bkdAccAngle
			}
			d.Walking += math.Abs(line.Length*0.5 - linePos)
			if b.testLimit(d) {
				visit(lineIndex, d)
			}
		}

		// Walk every line-crossing along this line, refresh its
		// checkpoint and queue the opposite side for traversal.
		for i := 0; i < line.NumCrossings; i++ {
			lcIndex := line.FirstCrossing + i
			if lcIndex == s.lineCrossing {
				continue
			}
			lc := b.graph.LineCrossing(lcIndex)

			if b.lim.HasStraight() && !b.testStraightLimit(b.graph.Crossing(lc.Crossing).Pt) {
				continue
			}

			next := bfsState{d: s.d, lastAngle: s.lastAngle}
			switch {
			case lc.LinePos > linePos:
				delta := lc.LinePos - linePos
				next.d.Walking = s.d.Walking + delta
				next.d.Angle = fwdAccAngle
				next.d.Axmeter = s.d.Axmeter + delta*float64(s.d.Turns+1)
				next.lastAngle = line.Angle
			case lc.LinePos < linePos:
				delta := linePos - lc.LinePos
				next.d.Walking = s.d.Walking + delta
				next.d.Angle = bkdAccAngle
				next.d.Axmeter = s.d.Axmeter + delta*float64(s.d.Turns+1)
				next.lastAngle = geometry.ReverseAngle(line.Angle)
			}

			if !b.testLimit(next.d) {
				continue
			}

			c := &b.checkpoints[lcIndex]
			if b.visited.Get(lcIndex) {
				if !b.updateCheckpoint(c, next.d, fwdAccAngle, bkdAccAngle) {
					continue
				}
			} else {
				b.visited.Set(lcIndex)
				*c = checkpoint{walking: next.d.Walking, turns: next.d.Turns, fwAngle: fwdAccAngle, bkAngle: bkdAccAngle, axmeter: next.d.Axmeter}
			}

			if b.target == TargetCrossings {
				visit(lc.Crossing, next.d)
			}

			// Never leave at the crossing we arrived through.
			if lc.Crossing == crossing {
				continue
			}
			// Nor at the exact position we entered this line. Redundant
			// with the crossing and line-crossing checks above, kept as
			// a safety net.
			if s.lineCrossing >= 0 && lc.LinePos == linePos {
				continue
			}

			next.lineCrossing = lc.Opposite
			next.d.Turns++

			if !b.testLimit(next.d) {
				continue
			}
			b.queue = append(b.queue, next)
		}

		if b.target == TargetPoints {
			for i := 0; i < line.NumPoints; i++ {
				ptIndex := b.graph.LinePoint(line.FirstPoint + i)
				p := b.graph.Point(ptIndex)

				if b.lim.HasStraight() && !b.testStraightLimit(p.Coords) {
					continue
				}

				d := s.d
				if b.origin == p.Coords {
					// Back at the origin point itself.
					d = Dist{}
				} else {
					d.Walking += p.DistFromLine
					switch {
					case p.LinePos > linePos:
						delta := p.LinePos - linePos
						d.Walking += delta
						d.Angle = fwdAccAngle
						d.Axmeter += (delta + p.DistFromLine) * float64(d.Turns+1)
					case p.LinePos < linePos:
						delta := linePos - p.LinePos
						d.Walking += delta
						d.Angle = bkdAccAngle
						d.Axmeter += (delta + p.DistFromLine) * float64(d.Turns+1)
					}
				}

				if b.testLimit(d) {
					visit(ptIndex, d)
				}
			}
		}
	}
}

func (b *BFS) testLimit(d Dist) bool {
	if b.lim.HasWalking() && d.Walking > b.lim.Walking {
		return false
	}
	if b.lim.HasSteps() && d.Turns > b.lim.Steps {
		return false
	}
	if b.lim.HasAngular() && d.Angle > b.lim.Angular {
		return false
	}
	if b.lim.HasAxmeter() && d.Axmeter > b.lim.Axmeter {
		return false
	}
	return true
}

func (b *BFS) testStraightLimit(pt geometry.Vec) bool {
	if !b.lim.HasStraight() {
		return true
	}
	return geometry.DistSqr(pt, b.origin) <= b.lim.StraightSqr
}

// updateCheckpoint applies the Pareto-admissible rule: accept the new
// metrics iff at least one active metric strictly improves on the
// checkpoint. When additionally no active metric is worse, the
// checkpoint is overwritten wholesale; a mixed result accepts without
// overwriting.
func (b *BFS) updateCheckpoint(c *checkpoint, d Dist, fwAngle, bkAngle float64) bool {
	hasImprovements := false
	hasWorse := false

	if b.distType == dist.Walking || b.distType == dist.Axmeter || b.lim.HasWalking() {
		if d.Walking < c.walking {
			hasImprovements = true
		} else if d.Walking > c.walking {
			hasWorse = true
		}
	}
	if b.distType == dist.Steps || b.distType == dist.Axmeter || b.lim.HasSteps() {
		if d.Turns < c.turns {
			hasImprovements = true
		} else if d.Turns > c.turns {
			hasWorse = true
		}
	}
	if b.distType == dist.Angular || b.lim.HasAngular() {
		if fwAngle < c.fwAngle || bkAngle < c.bkAngle {
			hasImprovements = true
		}
		if fwAngle > c.fwAngle || bkAngle > c.bkAngle {
			hasWorse = true
		}
	}
	if b.distType == dist.Axmeter || b.lim.HasAxmeter() {
		if d.Axmeter < c.axmeter {
			hasImprovements = true
		} else if d.Axmeter > c.axmeter {
			hasWorse = true
		}
	}

	if !hasImprovements {
		return false
	}
	if !hasWorse {
		*c = checkpoint{walking: d.Walking, turns: d.Turns, fwAngle: fwAngle, bkAngle: bkAngle, axmeter: d.Axmeter}
	}
	return true
}
