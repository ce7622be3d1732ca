package template_matching

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DTW returns the dynamic time warping distance between two feature matrices,
// aligning their columns with Euclidean local cost. Both matrices must have
// the same number of rows.
func DTW(a, b *mat.Dense) float64 {
	_, n := a.Dims()
	_, m := b.Dims()

	if n == 0 || m == 0 {
		return math.Inf(1)
	}

	colsA := columns(a)
	colsB := columns(b)

	prev := make([]float64, m+1)
	curr := make([]float64, m+1)

	for j := 1; j <= m; j++ {
		prev[j] = math.Inf(1)
	}

	for i := 1; i <= n; i++ {
		curr[0] = math.Inf(1)

		for j := 1; j <= m; j++ {
			cost := floats.Distance(colsA[i-1], colsB[j-1], 2)
			curr[j] = cost + math.Min(prev[j-1], math.Min(prev[j], curr[j-1]))
		}

		prev, curr = curr, prev
	}

	return prev[m]
}

func columns(m *mat.Dense) [][]float64 {
	rows, cols := m.Dims()

	out := make([][]float64, cols)
	for c := range out {
		out[c] = mat.Col(make([]float64, rows), c, m)
	}

	return out
}
