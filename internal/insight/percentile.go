package insight

import (
	"math"
	"sort"
)

// Percentile returns the rank-based percentile position of value within the
// given peer population, as an integer in [0,100].
//
// The population is filtered of NaN and infinite members before ranking. The
// percentile is round(i/n*100) where i is the first sorted index whose value
// is >= the query. A value above every peer, or an empty population after
// filtering, returns 100. Rank-based rather than z-score so long-tailed
// revenue distributions don't distort the result.
func Percentile(value float64, population []float64) int {
	filtered := make([]float64, 0, len(population))
	for _, v := range population {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		filtered = append(filtered, v)
	}
	if len(filtered) == 0 {
		return 100
	}

	sort.Float64s(filtered)

	idx := sort.SearchFloat64s(filtered, value)
	if idx >= len(filtered) {
		return 100
	}
	return int(math.Round(float64(idx) / float64(len(filtered)) * 100))
}
