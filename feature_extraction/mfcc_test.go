package feature_extraction

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func newTestExtractor(t *testing.T) Interface {
	t.Helper()

	m, err := New(&Config{Rate: 8000, NumMFCC: 13, NumMels: 128})
	if err != nil {
		t.Fatal(err)
	}

	return m
}

func tone(n int, freq, amplitude float64) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = int16(amplitude * math.Sin(2*math.Pi*freq*float64(i)/8000))
	}

	return out
}

func TestNew(t *testing.T) {
	t.Run("it rejects a nil config", func(t *testing.T) {
		if _, err := New(nil); err == nil {
			t.Fatal("expected an error")
		}
	})

	t.Run("it rejects more coefficients than mel bands", func(t *testing.T) {
		if _, err := New(&Config{Rate: 8000, NumMFCC: 20, NumMels: 10}); err == nil {
			t.Fatal("expected an error")
		}
	})
}

func TestWindowParams(t *testing.T) {
	cases := []struct {
		n, nFFT, hop int
	}{
		{3, 1, 1},
		{5, 1, 1},
		{9, 3, 1},
		{100, 33, 11},
		{10000, 2048, 682},
		{32000, 2048, 682},
	}

	for _, c := range cases {
		nFFT, hop := WindowParams(c.n)
		if nFFT != c.nFFT || hop != c.hop {
			t.Errorf("WindowParams(%d) = %d, %d, want %d, %d", c.n, nFFT, hop, c.nFFT, c.hop)
		}
	}
}

func TestExtract(t *testing.T) {
	m := newTestExtractor(t)

	t.Run("fewer than three samples is an error", func(t *testing.T) {
		for _, n := range []int{0, 1, 2} {
			_, err := m.ExtractInt16(make([]int16, n))
			if !errors.Is(err, ErrInsufficientSamples) {
				t.Fatalf("n=%d: expected ErrInsufficientSamples, got %v", n, err)
			}
		}
	})

	t.Run("it returns thirteen coefficients per frame", func(t *testing.T) {
		for _, n := range []int{3, 9, 100, 1001, 32000} {
			features, err := m.ExtractInt16(tone(n, 440, 8000))
			if err != nil {
				t.Fatalf("n=%d: %v", n, err)
			}

			rows, cols := features.Dims()
			nFFT, hop := WindowParams(n)
			wantCols := 1 + (n+2*(nFFT/2)-nFFT)/hop

			if rows != 13 || cols != wantCols {
				t.Fatalf("n=%d: expected 13x%d, got %dx%d", n, wantCols, rows, cols)
			}

			for _, v := range features.RawMatrix().Data {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					t.Fatalf("n=%d: non finite coefficient %v", n, v)
				}
			}
		}
	})

	t.Run("it is deterministic", func(t *testing.T) {
		in := tone(20000, 700, 12000)

		a, err := m.ExtractInt16(in)
		if err != nil {
			t.Fatal(err)
		}

		b, err := m.ExtractInt16(in)
		if err != nil {
			t.Fatal(err)
		}

		if !mat.Equal(a, b) {
			t.Fatal("repeated extraction differs")
		}
	})

	t.Run("different pitches give different features", func(t *testing.T) {
		a, _ := m.ExtractInt16(tone(8000, 300, 10000))
		b, _ := m.ExtractInt16(tone(8000, 2500, 10000))

		if mat.EqualApprox(a, b, 1) {
			t.Fatal("expected features to differ")
		}
	})

	t.Run("silence gives a flat spectrum", func(t *testing.T) {
		features, err := m.Extract(make([]float64, 900))
		if err != nil {
			t.Fatal(err)
		}

		_, cols := features.Dims()
		for c := 0; c < cols; c++ {
			if math.Abs(features.At(1, c)) > 1e-6 {
				t.Fatalf("expected only the first coefficient to be set, got %v", features.At(1, c))
			}
		}
	})

	t.Run("pre-emphasis changes the result", func(t *testing.T) {
		emphasis, err := New(&Config{Rate: 8000, NumMFCC: 13, NumMels: 128, PreEmphasis: 0.97})
		if err != nil {
			t.Fatal(err)
		}

		in := tone(4000, 500, 9000)
		a, _ := m.ExtractInt16(in)
		b, _ := emphasis.ExtractInt16(in)

		if mat.Equal(a, b) {
			t.Fatal("expected pre-emphasis to alter the features")
		}
	})
}

func TestMelScale(t *testing.T) {
	t.Run("the scale is linear below 1kHz and continuous at the knee", func(t *testing.T) {
		if got := hzToMel(1000); math.Abs(got-15) > 1e-12 {
			t.Fatalf("expected 15 mel at 1kHz, got %v", got)
		}

		if got := hzToMel(200); math.Abs(got-3) > 1e-12 {
			t.Fatalf("expected 3 mel at 200Hz, got %v", got)
		}

		for _, hz := range []float64{0, 123, 1000, 2500, 4000} {
			if got := melToHz(hzToMel(hz)); math.Abs(got-hz) > 1e-9 {
				t.Fatalf("round trip of %v gave %v", hz, got)
			}
		}
	})

	t.Run("filters are non negative and every band has weight", func(t *testing.T) {
		fb := melFilterbank(8000, 2048, 128, 0, 4000)

		rows, cols := fb.Dims()
		if rows != 128 || cols != 1025 {
			t.Fatalf("expected 128x1025, got %dx%d", rows, cols)
		}

		for r := 0; r < rows; r++ {
			sum := 0.0
			for c := 0; c < cols; c++ {
				if fb.At(r, c) < 0 {
					t.Fatalf("negative weight at %d,%d", r, c)
				}

				sum += fb.At(r, c)
			}

			if sum == 0 {
				t.Fatalf("band %d is empty", r)
			}
		}
	})

	t.Run("the dct is orthonormal", func(t *testing.T) {
		d := dctMatrix(16, 16)

		var p mat.Dense
		p.Mul(d, d.T())

		for i := 0; i < 16; i++ {
			for j := 0; j < 16; j++ {
				want := 0.0
				if i == j {
					want = 1
				}

				if math.Abs(p.At(i, j)-want) > 1e-9 {
					t.Fatalf("d*d^T at %d,%d = %v", i, j, p.At(i, j))
				}
			}
		}
	})
}

func TestReflectPad(t *testing.T) {
	got := reflectPad([]float64{1, 2, 3, 4}, 2)
	want := []float64{3, 2, 1, 2, 3, 4, 3, 2}

	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
