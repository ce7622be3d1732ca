package template_store

import (
	"gonum.org/v1/gonum/mat"
)

// Template is the stored recording of one command and its features.
type Template struct {
	Label    int
	Waveform []int16
	Features *mat.Dense
}

type Interface interface {
	Save(t Template) error
	SaveWaveform(label int, samples []int16) error
	SaveFeatures(label int, features *mat.Dense) error

	Load(label int) (Template, error)
	LoadWaveform(label int) ([]int16, error)
	LoadFeatures(label int) (*mat.Dense, error)

	Exists(label int) bool
	Labels() ([]int, error)
	Path(label int, ext string) string
}
