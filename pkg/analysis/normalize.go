package analysis

import "math"

// NormalizeBetweenness rescales raw betweenness by the number of node
// pairs, score / (0.5*(N-1)*(N-2)), skipping entries with N <= 2.
// nodeCounts include the origin.
func NormalizeBetweenness(scores []float64, nodeCounts []int, out []float64) {
	for i, score := range scores {
		n := nodeCounts[i]
		if n > 2 {
			out[i] = score / (0.5 * float64(n-1) * float64(n-2))
		} else {
			out[i] = score
		}
	}
}

// NormalizeBetweennessSyntax applies the space-syntax normalization
// log10(score+1) / log10(2+TD).
func NormalizeBetweennessSyntax(scores, totalDepths []float64, out []float64) {
	for i, score := range scores {
		out[i] = math.Log10(score+1) / math.Log10(2+totalDepths[i])
	}
}

// NormalizeAngularChoice rescales raw angular choice by
// score / ((N-1)*(N-2)), skipping entries with N <= 2.
func NormalizeAngularChoice(scores []float64, nodeCounts []int, out []float64) {
	for i, score := range scores {
		n := nodeCounts[i]
		if n > 2 {
			out[i] = score / (float64(n-1) * float64(n-2))
		} else {
			out[i] = score
		}
	}
}

// NormalizeAngularIntegration computes (N-1)/(1+TD) per origin.
func NormalizeAngularIntegration(nodeCounts []int, totalDepths []float64, out []float64) {
	for i, n := range nodeCounts {
		out[i] = float64(n-1) / (1 + totalDepths[i])
	}
}

// NormalizeAngularIntegrationLengthWeight is the length-weighted
// variant, reachedLength/(1+TDL).
func NormalizeAngularIntegrationLengthWeight(reachedLengths, totalDepthWeights []float64, out []float64) {
	for i, length := range reachedLengths {
		out[i] = length / (1 + totalDepthWeights[i])
	}
}

// NormalizeAngularIntegrationSyntax computes Turner's NAIN,
// N^1.2/(TD+1).
func NormalizeAngularIntegrationSyntax(nodeCounts []int, totalDepths []float64, out []float64) {
	for i, n := range nodeCounts {
		out[i] = math.Pow(float64(n), 1.2) / (totalDepths[i] + 1)
	}
}

// NormalizeAngularIntegrationSyntaxLengthWeight is the length-weighted
// NAIN, L^1.2/(TDL+1).
func NormalizeAngularIntegrationSyntaxLengthWeight(reachedLengths, totalDepthWeights []float64, out []float64) {
	for i, length := range reachedLengths {
		out[i] = math.Pow(length, 1.2) / (totalDepthWeights[i] + 1)
	}
}

// NormalizeAngularIntegrationHillier computes N*N/(TD+1).
func NormalizeAngularIntegrationHillier(nodeCounts []int, totalDepths []float64, out []float64) {
	for i, n := range nodeCounts {
		out[i] = float64(n) * float64(n) / (totalDepths[i] + 1)
	}
}

// NormalizeAngularIntegrationHillierLengthWeight computes
// L*L/(TDL+1).
func NormalizeAngularIntegrationHillierLengthWeight(reachedLengths, totalDepthWeights []float64, out []float64) {
	for i, length := range reachedLengths {
		out[i] = length * length / (totalDepthWeights[i] + 1)
	}
}

// NormalizeStandard rescales values to [0, 1]; all-equal input maps
// to 1.
func NormalizeStandard(in []float64, out []float64) {
	if len(in) == 0 {
		return
	}
	lo, hi := in[0], in[0]
	for _, v := range in[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi == lo {
		for i := range in {
			out[i] = 1
		}
		return
	}
	inv := 1 / (hi - lo)
	for i, v := range in {
		out[i] = (v - lo) * inv
	}
}
