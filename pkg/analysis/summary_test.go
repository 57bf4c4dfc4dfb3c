package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarizeRanksMeasures(t *testing.T) {
	s := Summarize(SummaryMeasures{
		Betweenness:  []float64{0, 5, 3, 5},
		Integration:  []float64{-1, 0.8, 1.2, 0.5},
		ReachedCount: []int{1, 4, 4, 4},
	}, 2)

	// Ties on betweenness keep the lower index first.
	assert.Equal(t, 1, s.Bottlenecks[0].Index)
	assert.Equal(t, 3, s.Bottlenecks[1].Index)

	// Undefined integration entries are excluded.
	assert.Equal(t, 2, s.Integrated[0].Index)
	assert.Equal(t, 1, s.Integrated[1].Index)

	assert.Equal(t, []int{0}, s.Isolated)
	assert.Nil(t, s.Chosen)
}

func TestSummarizeDefaultLimit(t *testing.T) {
	scores := make([]float64, 30)
	for i := range scores {
		scores[i] = float64(i)
	}
	s := Summarize(SummaryMeasures{Betweenness: scores}, 0)
	assert.Len(t, s.Bottlenecks, 10)
	assert.Equal(t, 29, s.Bottlenecks[0].Index)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(SummaryMeasures{}, 5)
	assert.Nil(t, s.Bottlenecks)
	assert.Nil(t, s.Integrated)
	assert.Nil(t, s.Isolated)
}
