package template_matching

import (
	"errors"
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/mat"
)

const DefaultRejectThreshold = 1750.0

var (
	ErrNoTemplates       = errors.New("template_matching: no templates")
	ErrDimensionMismatch = errors.New("template_matching: feature dimension mismatch")
)

// Result of matching one utterance. Label is the 1-based command label of the
// closest template; it is only meaningful when Recognized is true.
type Result struct {
	Label      int
	Distance   float64
	Distances  []float64
	Recognized bool

	rejectThreshold float64
}

// Similarity is the distance to template i relative to the reject threshold.
// It is only used for presentation.
func (r Result) Similarity(i int) float64 {
	threshold := r.rejectThreshold
	if threshold == 0 {
		threshold = DefaultRejectThreshold
	}

	return r.Distances[i] / threshold
}

type Interface interface {
	// Match compares the query with each template; templates[i] has label i+1.
	Match(query *mat.Dense, templates []*mat.Dense) (Result, error)
	RejectThreshold() float64
}

type matcherImpl struct {
	rejectThreshold float64
}

type Config struct {
	RejectThreshold float64
}

func New(cfg *Config) (Interface, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.RejectThreshold <= 0 {
		return nil, fmt.Errorf("invalid reject threshold %v", cfg.RejectThreshold)
	}

	return &matcherImpl{
		rejectThreshold: cfg.RejectThreshold,
	}, nil
}

func (m *matcherImpl) RejectThreshold() float64 {
	return m.rejectThreshold
}

func (m *matcherImpl) Match(query *mat.Dense, templates []*mat.Dense) (Result, error) {
	if len(templates) == 0 {
		return Result{}, ErrNoTemplates
	}

	rows, _ := query.Dims()

	result := Result{
		Distances:       make([]float64, len(templates)),
		rejectThreshold: m.rejectThreshold,
	}

	best := -1

	for i, template := range templates {
		if r, _ := template.Dims(); r != rows {
			return Result{}, fmt.Errorf("%w: template %d has %d rows, query %d", ErrDimensionMismatch, i+1, r, rows)
		}

		d := DTW(query, template)
		result.Distances[i] = d

		// strict comparison keeps the first of equal minima
		if best < 0 || d < result.Distances[best] {
			best = i
		}
	}

	result.Label = best + 1
	result.Distance = result.Distances[best]
	result.Recognized = result.Distance <= m.rejectThreshold

	slog.Debug("matched", "label", result.Label, "distance", result.Distance, "recognized", result.Recognized)

	return result, nil
}
