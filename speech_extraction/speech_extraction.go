package speech_extraction

import (
	"errors"
	"fmt"

	"voice-command-recognition/ring_buffer"
)

// ErrNoNegativeSamplesInTail is returned when the noise floor cannot be
// estimated because the tail of the segment never goes below zero.
var ErrNoNegativeSamplesInTail = errors.New("speech_extraction: no negative samples in tail")

type extractorImpl struct {
	segmentSamples int
	headSamples    int
	scale          float64
}

type Config struct {
	Rate        int
	PreSeconds  float64
	PostSeconds float64

	// HeadSeconds is the part of the segment searched for speech; the rest
	// is used to estimate the noise floor.
	HeadSeconds     float64
	NoiseFloorScale float64
}

func New(cfg *Config) (Interface, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.Rate <= 0 {
		return nil, fmt.Errorf("invalid rate %d", cfg.Rate)
	}

	segmentSamples := int((cfg.PreSeconds + cfg.PostSeconds) * float64(cfg.Rate))
	headSamples := int(cfg.HeadSeconds * float64(cfg.Rate))

	if headSamples <= 0 || headSamples >= segmentSamples {
		return nil, fmt.Errorf("head of %.2fs must be shorter than the %.2fs segment",
			cfg.HeadSeconds, cfg.PreSeconds+cfg.PostSeconds)
	}

	if cfg.NoiseFloorScale <= 0 {
		return nil, fmt.Errorf("invalid noise floor scale %v", cfg.NoiseFloorScale)
	}

	return &extractorImpl{
		segmentSamples: segmentSamples,
		headSamples:    headSamples,
		scale:          cfg.NoiseFloorScale,
	}, nil
}

// Extract joins the pre-roll and post-roll into one fixed length segment and
// trims it to the spoken part.
func (e *extractorImpl) Extract(pre, post []ring_buffer.Frame) (Utterance, error) {
	segment := make([]int16, e.segmentSamples)
	n := 0

	for _, frames := range [][]ring_buffer.Frame{pre, post} {
		for _, f := range frames {
			if n >= len(segment) {
				break
			}

			n += copy(segment[n:], f)
		}
	}

	return e.Trim(segment)
}

// Trim keeps the span of the head between the first and last sample lying
// below the scaled noise floor of the tail.
func (e *extractorImpl) Trim(segment []int16) (Utterance, error) {
	head := e.headSamples
	if head > len(segment) {
		head = len(segment)
	}

	first, tail := segment[:head], segment[head:]

	var (
		floor    int16
		negative bool
	)

	for _, s := range tail {
		if s < 0 && (!negative || s < floor) {
			floor = s
			negative = true
		}
	}

	if !negative {
		return Utterance{}, ErrNoNegativeSamplesInTail
	}

	threshold := e.scale * float64(floor)

	start, end := -1, -1

	for i, s := range first {
		if float64(s) < threshold {
			if start < 0 {
				start = i
			}

			end = i + 1
		}
	}

	if start < 0 {
		start, end = 0, len(first)
	}

	samples := make([]int16, end-start)
	copy(samples, first[start:end])

	return Utterance{
		Samples:   samples,
		Start:     start,
		End:       end,
		Threshold: threshold,
	}, nil
}
