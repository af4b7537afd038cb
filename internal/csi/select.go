package csi

import (
	"sort"

	"gonum.org/v1/gonum/floats"
)

// DefaultTopSubcarriers is how many of the least-similar subcarriers the
// baseline comparator keeps.
const DefaultTopSubcarriers = 5

// SelectSubcarriers decides which subcarrier columns feed the peak
// estimator.
//
// A non-empty hardware list always wins and is used verbatim; no similarity
// is computed. Otherwise, when a baseline is available, every column present
// in both profiles with equal-length magnitude vectors is scored by cosine
// similarity against its resting spectrum; columns are sorted ascending
// (lowest similarity first, ties keeping current column order) and the first
// topN are selected. The subcarriers that diverge most from rest are assumed
// to carry the strongest breathing modulation. With neither hint nor
// baseline, all retained columns are selected.
func SelectSubcarriers(current *SpectralProfile, baseline *SpectralProfile, hardware []int, topN int) Selection {
	if topN <= 0 {
		topN = DefaultTopSubcarriers
	}
	if len(hardware) > 0 {
		sel := make([]int, len(hardware))
		copy(sel, hardware)
		return Selection{Subcarriers: sel, Similarities: map[int]float64{}}
	}

	similarities := make(map[int]float64)
	if baseline != nil {
		var compared []int
		for _, col := range current.Columns {
			cur := current.Magnitudes[col]
			base, ok := baseline.Magnitudes[col]
			if !ok || len(base) != len(cur) || len(cur) == 0 {
				// Mismatched vector lengths are skipped, not fatal.
				continue
			}
			similarities[col] = cosineSimilarity(cur, base)
			compared = append(compared, col)
		}
		if len(compared) > 0 {
			sort.SliceStable(compared, func(a, b int) bool {
				return similarities[compared[a]] < similarities[compared[b]]
			})
			if len(compared) > topN {
				compared = compared[:topN]
			}
			return Selection{Subcarriers: compared, Similarities: similarities}
		}
	}

	all := make([]int, len(current.Columns))
	copy(all, current.Columns)
	return Selection{Subcarriers: all, Similarities: similarities}
}

// cosineSimilarity is the normalized dot product of two equal-length
// vectors, in [-1, 1]. A zero vector scores 0.
func cosineSimilarity(a, b []float64) float64 {
	na := floats.Norm(a, 2)
	nb := floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	return floats.Dot(a, b) / (na * nb)
}
