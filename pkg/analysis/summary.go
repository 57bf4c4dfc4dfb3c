package analysis

import (
	"sort"

	"github.com/urbanmorph/axialnet/pkg/util/topk"
)

// SummaryMeasures bundles per-line measure arrays a summary is built
// from. Any slice may be nil; its section is then omitted.
type SummaryMeasures struct {
	// Betweenness scores per line (any of the betweenness kernels).
	Betweenness []float64
	// Integration scores per line; -1 entries (undefined) are ignored.
	Integration []float64
	// Choice scores per segment.
	Choice []float64
	// ReachedCount per line, including the line itself.
	ReachedCount []int
}

// Summary is a compact ranking view over computed measures, intended
// for reporting pipelines on top of the kernels.
type Summary struct {
	// Bottlenecks are the top betweenness lines.
	Bottlenecks []topk.Entry
	// Integrated are the top integration lines.
	Integrated []topk.Entry
	// Chosen are the top choice segments.
	Chosen []topk.Entry
	// Isolated lists lines that reach nothing but themselves.
	Isolated []int
}

// Summarize ranks the supplied measures, keeping the limit highest
// entries per section with deterministic tie-breaks.
func Summarize(m SummaryMeasures, limit int) Summary {
	if limit <= 0 {
		limit = 10
	}

	var s Summary
	s.Bottlenecks = collectTop(m.Betweenness, limit, func(float64) bool { return true })
	s.Integrated = collectTop(m.Integration, limit, func(v float64) bool { return v >= 0 })
	s.Chosen = collectTop(m.Choice, limit, func(float64) bool { return true })

	for i, count := range m.ReachedCount {
		if count <= 1 {
			s.Isolated = append(s.Isolated, i)
		}
	}
	sort.Ints(s.Isolated)
	return s
}

func collectTop(scores []float64, limit int, keep func(float64) bool) []topk.Entry {
	if scores == nil {
		return nil
	}
	collector := topk.New(limit)
	for i, score := range scores {
		if keep(score) {
			collector.Add(i, score)
		}
	}
	return collector.Results()
}
