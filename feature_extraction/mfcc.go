package feature_extraction

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	maxFFTSize = 2048
	minSamples = 3

	powerFloor = 1e-10
	topDB      = 80.0
)

var ErrInsufficientSamples = errors.New("feature_extraction: fewer than 3 samples")

type mfccImpl struct {
	rate        int
	numMFCC     int
	numMels     int
	preEmphasis float64
}

type Config struct {
	Rate    int
	NumMFCC int
	NumMels int

	// PreEmphasis is the first order filter coefficient, zero disables it.
	PreEmphasis float64
}

func New(cfg *Config) (Interface, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.Rate <= 0 {
		return nil, fmt.Errorf("invalid rate %d", cfg.Rate)
	}

	if cfg.NumMFCC <= 0 || cfg.NumMels <= 0 || cfg.NumMFCC > cfg.NumMels {
		return nil, fmt.Errorf("invalid mfcc count %d for %d mel bands", cfg.NumMFCC, cfg.NumMels)
	}

	if cfg.PreEmphasis < 0 || cfg.PreEmphasis >= 1 {
		return nil, fmt.Errorf("invalid pre-emphasis %v", cfg.PreEmphasis)
	}

	return &mfccImpl{
		rate:        cfg.Rate,
		numMFCC:     cfg.NumMFCC,
		numMels:     cfg.NumMels,
		preEmphasis: cfg.PreEmphasis,
	}, nil
}

// WindowParams returns the analysis window and hop for a waveform of n
// samples: a third of the signal, at most 2048, hopping a third of that.
func WindowParams(n int) (nFFT, hop int) {
	nFFT = n / 3
	if nFFT > maxFFTSize {
		nFFT = maxFFTSize
	}

	hop = nFFT / 3
	if hop < 1 {
		hop = 1
	}

	return nFFT, hop
}

func (m *mfccImpl) ExtractInt16(samples []int16) (*mat.Dense, error) {
	y := make([]float64, len(samples))
	for i, s := range samples {
		y[i] = float64(s)
	}

	return m.Extract(y)
}

func (m *mfccImpl) Extract(samples []float64) (*mat.Dense, error) {
	if len(samples) < minSamples {
		return nil, ErrInsufficientSamples
	}

	y := samples
	if m.preEmphasis > 0 {
		y = make([]float64, len(samples))
		y[0] = samples[0]

		for i := 1; i < len(samples); i++ {
			y[i] = samples[i] - m.preEmphasis*samples[i-1]
		}
	}

	nFFT, hop := WindowParams(len(y))

	power := powerSpectrogram(y, nFFT, hop)

	filters := melFilterbank(m.rate, nFFT, m.numMels, 0, float64(m.rate)/2)

	var mel mat.Dense
	mel.Mul(filters, power)

	toDecibels(&mel)

	var mfcc mat.Dense
	mfcc.Mul(dctMatrix(m.numMFCC, m.numMels), &mel)

	return &mfcc, nil
}

// powerSpectrogram frames the centred, reflect-padded signal and returns the
// (nFFT/2+1) × frames power spectrum.
func powerSpectrogram(y []float64, nFFT, hop int) *mat.Dense {
	padded := reflectPad(y, nFFT/2)
	frames := 1 + (len(padded)-nFFT)/hop
	bins := nFFT/2 + 1

	win := hannWindow(nFFT)
	power := mat.NewDense(bins, frames, nil)
	buf := make([]float64, nFFT)

	for t := 0; t < frames; t++ {
		copy(buf, padded[t*hop:t*hop+nFFT])
		floats.Mul(buf, win)

		spectrum := fft.FFTReal(buf)

		for k := 0; k < bins; k++ {
			a := cmplx.Abs(spectrum[k])
			power.Set(k, t, a*a)
		}
	}

	return power
}

// hannWindow is the periodic Hann window used for spectral analysis.
func hannWindow(n int) []float64 {
	if n == 1 {
		return []float64{1}
	}

	return window.Hann(n + 1)[:n]
}

// reflectPad mirrors pad samples at each end, excluding the edge sample.
func reflectPad(y []float64, pad int) []float64 {
	out := make([]float64, len(y)+2*pad)
	copy(out[pad:], y)

	for i := 0; i < pad; i++ {
		out[pad-1-i] = y[i+1]
		out[pad+len(y)+i] = y[len(y)-2-i]
	}

	return out
}

// toDecibels converts power to dB in place, flooring at topDB below the peak.
func toDecibels(m *mat.Dense) {
	peak := math.Inf(-1)

	m.Apply(func(_, _ int, v float64) float64 {
		db := 10 * math.Log10(math.Max(powerFloor, v))
		if db > peak {
			peak = db
		}

		return db
	}, m)

	floor := peak - topDB

	m.Apply(func(_, _ int, v float64) float64 {
		return math.Max(v, floor)
	}, m)
}
