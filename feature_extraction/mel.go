package feature_extraction

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Slaney mel scale: linear below 1 kHz, logarithmic above.
const (
	melLinearStep = 200.0 / 3
	melMinLogHz   = 1000.0
	melMinLog     = melMinLogHz / melLinearStep
)

var melLogStep = math.Log(6.4) / 27

func hzToMel(hz float64) float64 {
	if hz >= melMinLogHz {
		return melMinLog + math.Log(hz/melMinLogHz)/melLogStep
	}

	return hz / melLinearStep
}

func melToHz(mel float64) float64 {
	if mel >= melMinLog {
		return melMinLogHz * math.Exp(melLogStep*(mel-melMinLog))
	}

	return melLinearStep * mel
}

// melFilterbank builds an nMels × (nFFT/2+1) matrix of triangular filters,
// each scaled to unit area.
func melFilterbank(rate, nFFT, nMels int, fmin, fmax float64) *mat.Dense {
	bins := nFFT/2 + 1

	fftFreqs := make([]float64, bins)
	for i := range fftFreqs {
		if bins > 1 {
			fftFreqs[i] = float64(i) * (float64(rate) / 2) / float64(bins-1)
		}
	}

	lo, hi := hzToMel(fmin), hzToMel(fmax)

	melFreqs := make([]float64, nMels+2)
	for i := range melFreqs {
		melFreqs[i] = melToHz(lo + float64(i)*(hi-lo)/float64(nMels+1))
	}

	weights := mat.NewDense(nMels, bins, nil)

	for m := 0; m < nMels; m++ {
		lowerWidth := melFreqs[m+1] - melFreqs[m]
		upperWidth := melFreqs[m+2] - melFreqs[m+1]
		norm := 2 / (melFreqs[m+2] - melFreqs[m])

		for k, f := range fftFreqs {
			lower := (f - melFreqs[m]) / lowerWidth
			upper := (melFreqs[m+2] - f) / upperWidth

			w := math.Max(0, math.Min(lower, upper))
			weights.Set(m, k, w*norm)
		}
	}

	return weights
}

// dctMatrix returns the first n rows of the orthonormal DCT-II of size size.
func dctMatrix(n, size int) *mat.Dense {
	d := mat.NewDense(n, size, nil)

	for k := 0; k < n; k++ {
		scale := math.Sqrt(2 / float64(size))
		if k == 0 {
			scale = math.Sqrt(1 / float64(size))
		}

		for i := 0; i < size; i++ {
			d.Set(k, i, scale*math.Cos(math.Pi*float64(k)*(2*float64(i)+1)/(2*float64(size))))
		}
	}

	return d
}
