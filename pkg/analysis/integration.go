package analysis

import (
	"math"

	"github.com/urbanmorph/axialnet/pkg/dist"
	"github.com/urbanmorph/axialnet/pkg/graph"
	"github.com/urbanmorph/axialnet/pkg/traversal"
	"github.com/urbanmorph/axialnet/pkg/util/bitvec"
)

// IntegrationScore derives the integration value from a reached node
// count N (including the origin) and total depth TD. Returns -1 when
// N <= 2, where the relative asymmetry is undefined (it divides by
// N-2).
func IntegrationScore(n int, td float64) float64 {
	if n <= 2 {
		return -1
	}
	nf := float64(n)
	md := td / (nf - 1)
	ra := 2 * (md - 1) / (nf - 2)
	d := 2 * ((math.Log2((nf+2)/3)-1)*nf + 1) / ((nf - 1) * (nf - 2))
	rra := ra / d
	return 1 / rra
}

// IntegrationOptions parameterizes the axial integration kernel.
type IntegrationOptions struct {
	// Radii caps the traversal.
	Radii dist.Radii
	// Progress receives throttled progress reports; may be nil.
	Progress ProgressFunc
}

// IntegrationJunctionScores distributes per-line integration scores
// onto crossings: each line contributes score/nLines to every crossing
// it participates in.
func IntegrationJunctionScores(g *graph.AxialGraph, lineScores []float64) ([]float64, error) {
	if g == nil {
		return nil, ErrNilGraph
	}
	if len(lineScores) != g.LineCount() {
		return nil, ErrInputSize
	}
	out := make([]float64, g.CrossingCount())
	for lineIndex := 0; lineIndex < g.LineCount(); lineIndex++ {
		line := g.Line(lineIndex)
		for lc := 0; lc < line.NumCrossings; lc++ {
			crossing := g.LineCrossing(line.FirstCrossing + lc)
			out[crossing.Crossing] += lineScores[lineIndex] / float64(g.Crossing(crossing.Crossing).NumLines)
		}
	}
	return out, nil
}

// Integration runs one step-distance traversal per line and reports
// N (reached nodes including the origin), total depth and the derived
// integration score. Output slices may be nil; non-nil slices must
// hold one element per line.
func Integration(g *graph.AxialGraph, opts IntegrationOptions, outScores []float64, outNodeCounts []int, outTotalDepths []float64) error {
	if g == nil {
		return ErrNilGraph
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

	lim := dist.LimitsFromRadii(opts.Radii)
	progress := NewProgress(opts.Progress)
	count := newCounter(lineCount)

	dispatch(workerCount(), progress, count.progress, func(int) {
		bfs := traversal.NewBFS(g, traversal.TargetLines, dist.Steps, lim)
		bfs.SetCancel(progress.CancelFlag())
		visited := bitvec.New(lineCount)

		for {
			origin, ok := count.fetch()
			if !ok || progress.Cancelled() {
				return
			}

			totalDepth := uint64(0)
			reached := 0 // origin line not included
			visited.ClearAll()

			bfs.RunFromLine(origin, func(target int, d traversal.Dist) {
				if target == origin || visited.Get(target) {
					return
				}
				visited.Set(target)
				totalDepth += uint64(d.Turns)
				reached++
			})

			n := reached + 1
			if outNodeCounts != nil {
				outNodeCounts[origin] = n
			}
			if outTotalDepths != nil {
				outTotalDepths[origin] = float64(totalDepth)
			}
			if outScores != nil {
				outScores[origin] = IntegrationScore(n, float64(totalDepth))
			}
		}
	})
	return nil
}
