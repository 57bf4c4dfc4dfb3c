package analysis

import (
	"errors"

	"github.com/urbanmorph/axialnet/pkg/geometry"
	"github.com/urbanmorph/axialnet/pkg/graph"
)

// Errors shared by the kernels. Contract violations return one of
// these; no partial results are produced in that case.
var (
	// ErrNilGraph is returned when a kernel is run without a graph.
	ErrNilGraph = errors.New("analysis: nil graph")
	// ErrOutputSize is returned when a caller-supplied output slice does
	// not match the network element count.
	ErrOutputSize = errors.New("analysis: output slice size mismatch")
	// ErrUnsupportedDistanceType is returned when a kernel is asked to
	// run under a distance metric it does not implement.
	ErrUnsupportedDistanceType = errors.New("analysis: unsupported distance type")
	// ErrUnsupportedOriginType is returned for origin types a kernel
	// does not accept.
	ErrUnsupportedOriginType = errors.New("analysis: unsupported origin type")
	// ErrInputSize is returned when parallel input slices disagree on
	// length.
	ErrInputSize = errors.New("analysis: input slice size mismatch")
)

// OriginType selects what an analysis iterates over as origins.
type OriginType int

const (
	// OriginPoints processes each attached point.
	OriginPoints OriginType = iota
	// OriginJunctions processes each crossing.
	OriginJunctions
	// OriginLines processes each line.
	OriginLines
	// OriginPointGroups processes attached points and folds scores per
	// point group.
	OriginPointGroups
)

// elementPositions returns the local-frame position of every network
// element of the given type.
func elementPositions(g *graph.AxialGraph, element graph.NetworkElement) []geometry.Vec {
	switch element {
	case graph.ElementPoint:
		pts := make([]geometry.Vec, g.PointCount())
		for i := range pts {
			pts[i] = g.Point(i).Coords
		}
		return pts
	case graph.ElementJunction:
		pts := make([]geometry.Vec, g.CrossingCount())
		for i := range pts {
			pts[i] = g.Crossing(i).Pt
		}
		return pts
	case graph.ElementLine:
		pts := make([]geometry.Vec, g.LineCount())
		for i := range pts {
			pts[i] = g.Line(i).Mid()
		}
		return pts
	}
	return nil
}

// bucketPointWeightsOntoLines folds per-point weights onto each
// point's closest line, producing per-line weights. Points are given
// in world space; nil weights count 1 per point.
func bucketPointWeightsOntoLines(g *graph.AxialGraph, points []geometry.Vec, weights []float64) []float64 {
	out := make([]float64, g.LineCount())
	for i, world := range points {
		local := g.WorldToLocal(world)
		line, _, _ := g.ClosestLine(local)
		if line < 0 {
			continue
		}
		w := 1.0
		if weights != nil {
			w = weights[i]
		}
		out[line] += w
	}
	return out
}
