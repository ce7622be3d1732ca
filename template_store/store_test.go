package template_store

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"gonum.org/v1/gonum/mat"

	"voice-command-recognition/feature_extraction"
)

type fakeFeatures struct {
	calls int
}

func (f *fakeFeatures) Extract(samples []float64) (*mat.Dense, error) {
	f.calls++

	return mat.NewDense(1, 1, []float64{float64(len(samples))}), nil
}

func (f *fakeFeatures) ExtractInt16(samples []int16) (*mat.Dense, error) {
	return f.Extract(make([]float64, len(samples)))
}

var _ feature_extraction.Interface = (*fakeFeatures)(nil)

func newTestStore(t *testing.T, fs afero.Fs, features feature_extraction.Interface) Interface {
	t.Helper()

	s, err := New(&Config{FileSys: fs, Dir: "templates", Rate: 8000, Features: features})
	if err != nil {
		t.Fatal(err)
	}

	return s
}

func TestNew(t *testing.T) {
	t.Run("it rejects a nil config", func(t *testing.T) {
		if _, err := New(nil); err == nil {
			t.Fatal("expected an error")
		}
	})

	t.Run("it requires a filesystem", func(t *testing.T) {
		if _, err := New(&Config{Rate: 8000}); err == nil {
			t.Fatal("expected an error")
		}
	})
}

func TestStore(t *testing.T) {
	t.Run("files are named after the label", func(t *testing.T) {
		s := newTestStore(t, afero.NewMemMapFs(), nil)

		if p := s.Path(3, ExtWav); p != "templates/3_Audio_time.wav" {
			t.Fatalf("unexpected path %q", p)
		}

		if p := s.Path(3, ExtNpy); p != "templates/3_Audio_time.npy" {
			t.Fatalf("unexpected path %q", p)
		}
	})

	t.Run("a waveform survives a round trip", func(t *testing.T) {
		s := newTestStore(t, afero.NewMemMapFs(), nil)
		samples := []int16{0, 1, -1, 32767, -32768, 1234}

		if err := s.SaveWaveform(1, samples); err != nil {
			t.Fatal(err)
		}

		got, err := s.LoadWaveform(1)
		if err != nil {
			t.Fatal(err)
		}

		if len(got) != len(samples) {
			t.Fatalf("expected %d samples, got %d", len(samples), len(got))
		}

		for i := range samples {
			if got[i] != samples[i] {
				t.Fatalf("sample %d: expected %d, got %d", i, samples[i], got[i])
			}
		}
	})

	t.Run("features survive a round trip", func(t *testing.T) {
		s := newTestStore(t, afero.NewMemMapFs(), nil)
		features := mat.NewDense(2, 3, []float64{1.5, -2, 3, 4, 5.25, -6})

		if err := s.SaveFeatures(2, features); err != nil {
			t.Fatal(err)
		}

		got, err := s.LoadFeatures(2)
		if err != nil {
			t.Fatal(err)
		}

		if !mat.Equal(got, features) {
			t.Fatalf("expected %v, got %v", mat.Formatted(features), mat.Formatted(got))
		}
	})

	t.Run("a missing template is reported", func(t *testing.T) {
		s := newTestStore(t, afero.NewMemMapFs(), nil)

		if _, err := s.Load(4); !errors.Is(err, ErrMissingTemplate) {
			t.Fatalf("expected ErrMissingTemplate, got %v", err)
		}

		if _, err := s.LoadFeatures(4); !errors.Is(err, ErrMissingTemplate) {
			t.Fatalf("expected ErrMissingTemplate, got %v", err)
		}

		if s.Exists(4) {
			t.Fatal("expected the template not to exist")
		}
	})

	t.Run("save writes both files", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		s := newTestStore(t, fs, nil)

		err := s.Save(Template{Label: 5, Waveform: []int16{1, 2, 3}, Features: mat.NewDense(1, 1, []float64{9})})
		if err != nil {
			t.Fatal(err)
		}

		for _, ext := range []string{ExtWav, ExtNpy} {
			if ok, _ := afero.Exists(fs, s.Path(5, ext)); !ok {
				t.Fatalf("expected %s to exist", s.Path(5, ext))
			}
		}

		tmpl, err := s.Load(5)
		if err != nil {
			t.Fatal(err)
		}

		if tmpl.Label != 5 || len(tmpl.Waveform) != 3 || tmpl.Features.At(0, 0) != 9 {
			t.Fatalf("unexpected template %+v", tmpl)
		}
	})

	t.Run("save without features needs an extractor", func(t *testing.T) {
		s := newTestStore(t, afero.NewMemMapFs(), nil)

		if err := s.Save(Template{Label: 1, Waveform: []int16{1, 2, 3}}); err == nil {
			t.Fatal("expected an error")
		}
	})

	t.Run("missing features are recomputed from the waveform", func(t *testing.T) {
		features := &fakeFeatures{}
		s := newTestStore(t, afero.NewMemMapFs(), features)

		if err := s.SaveWaveform(6, make([]int16, 40)); err != nil {
			t.Fatal(err)
		}

		tmpl, err := s.Load(6)
		if err != nil {
			t.Fatal(err)
		}

		if features.calls != 1 || tmpl.Features.At(0, 0) != 40 {
			t.Fatalf("expected recomputed features, got %v after %d calls", tmpl.Features, features.calls)
		}
	})

	t.Run("labels lists stored recordings in order", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		s := newTestStore(t, fs, nil)

		labels, err := s.Labels()
		if err != nil || len(labels) != 0 {
			t.Fatalf("expected no labels, got %v, %v", labels, err)
		}

		for _, label := range []int{9, 2, 7} {
			if err := s.SaveWaveform(label, []int16{1}); err != nil {
				t.Fatal(err)
			}
		}

		afero.WriteFile(fs, "templates/notes.txt", []byte("x"), 0o644)
		afero.WriteFile(fs, "templates/x_Audio_time.wav", []byte("x"), 0o644)

		labels, err = s.Labels()
		if err != nil {
			t.Fatal(err)
		}

		if len(labels) != 3 || labels[0] != 2 || labels[1] != 7 || labels[2] != 9 {
			t.Fatalf("expected [2 7 9], got %v", labels)
		}
	})
}
