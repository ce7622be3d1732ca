package display

import (
	"gonum.org/v1/gonum/mat"
)

func fixedQuery() *mat.Dense {
	return mat.NewDense(1, 1, []float64{0})
}

// templatesAt returns single column templates at the given distances from
// fixedQuery.
func templatesAt(distances []float64) []*mat.Dense {
	out := make([]*mat.Dense, len(distances))
	for i, d := range distances {
		out[i] = mat.NewDense(1, 1, []float64{d})
	}

	return out
}
