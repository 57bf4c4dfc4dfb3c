package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeBetweenness(t *testing.T) {
	scores := []float64{12, 7, 3}
	nodeCounts := []int{5, 2, 1}
	out := make([]float64, 3)
	NormalizeBetweenness(scores, nodeCounts, out)

	assert.InDelta(t, 12/(0.5*4*3), out[0], 1e-12)
	assert.Equal(t, 7.0, out[1], "N <= 2 skips normalization")
	assert.Equal(t, 3.0, out[2])
}

func TestNormalizeBetweennessSyntax(t *testing.T) {
	scores := []float64{9}
	depths := []float64{98}
	out := make([]float64, 1)
	NormalizeBetweennessSyntax(scores, depths, out)
	assert.InDelta(t, 0.5, out[0], 1e-12, "log10(10)/log10(100)")
}

func TestNormalizeAngularChoice(t *testing.T) {
	out := make([]float64, 2)
	NormalizeAngularChoice([]float64{24, 5}, []int{4, 2}, out)
	assert.InDelta(t, 4.0, out[0], 1e-12)
	assert.Equal(t, 5.0, out[1])
}

func TestNormalizeAngularIntegrationVariants(t *testing.T) {
	nodeCounts := []int{5}
	depths := []float64{3}
	out := make([]float64, 1)

	NormalizeAngularIntegration(nodeCounts, depths, out)
	assert.InDelta(t, 1.0, out[0], 1e-12)

	NormalizeAngularIntegrationHillier(nodeCounts, depths, out)
	assert.InDelta(t, 6.25, out[0], 1e-12)

	NormalizeAngularIntegrationSyntax(nodeCounts, depths, out)
	assert.InDelta(t, math.Pow(5, 1.2)/4, out[0], 1e-12)

	lengths := []float64{8}
	NormalizeAngularIntegrationLengthWeight(lengths, depths, out)
	assert.InDelta(t, 2.0, out[0], 1e-12)

	checkLengthWeightNormalizations(t, lengths, depths)
}

func checkLengthWeightNormalizations(t *testing.T, lengths, depths []float64) {
	t.Helper()
	out := make([]float64, 1)
	NormalizeAngularIntegrationHillierLengthWeight(lengths, depths, out)
	assert.InDelta(t, 16.0, out[0], 1e-12)
	NormalizeAngularIntegrationSyntaxLengthWeight(lengths, depths, out)
	assert.InDelta(t, math.Pow(8, 1.2)/4, out[0], 1e-12)
}

func TestNormalizeStandard(t *testing.T) {
	out := make([]float64, 4)
	NormalizeStandard([]float64{2, 4, 6, 10}, out)
	assert.Equal(t, []float64{0, 0.25, 0.5, 1}, out)

	same := make([]float64, 3)
	NormalizeStandard([]float64{7, 7, 7}, same)
	assert.Equal(t, []float64{1, 1, 1}, same)

	NormalizeStandard(nil, nil)
}
