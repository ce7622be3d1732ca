package feature_extraction

import (
	"gonum.org/v1/gonum/mat"
)

type Interface interface {
	// Extract returns an n_mfcc × n_frames matrix for the waveform.
	Extract(samples []float64) (*mat.Dense, error)
	ExtractInt16(samples []int16) (*mat.Dense, error)
}
