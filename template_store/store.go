package template_store

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/sbinet/npyio"
	"github.com/spf13/afero"
	"github.com/zenwerk/go-wave"
	"gonum.org/v1/gonum/mat"

	"voice-command-recognition/audio_source"
	"voice-command-recognition/feature_extraction"
)

const (
	fileSuffix = "_Audio_time"

	ExtWav = ".wav"
	ExtNpy = ".npy"
)

var ErrMissingTemplate = errors.New("template_store: missing template")

type storeImpl struct {
	fileSys  afero.Fs
	dir      string
	rate     int
	features feature_extraction.Interface
}

type Config struct {
	FileSys afero.Fs
	Dir     string
	Rate    int

	// Features, when set, recomputes features for templates stored without
	// a feature file and fills them in on Save.
	Features feature_extraction.Interface
}

func New(cfg *Config) (Interface, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.FileSys == nil {
		return nil, fmt.Errorf("fileSys is nil")
	}

	if cfg.Rate <= 0 {
		return nil, fmt.Errorf("invalid rate %d", cfg.Rate)
	}

	dir := cfg.Dir
	if dir == "" {
		dir = "."
	}

	return &storeImpl{
		fileSys:  cfg.FileSys,
		dir:      dir,
		rate:     cfg.Rate,
		features: cfg.Features,
	}, nil
}

func (s *storeImpl) Path(label int, ext string) string {
	return filepath.Join(s.dir, strconv.Itoa(label)+fileSuffix+ext)
}

func (s *storeImpl) Save(t Template) error {
	features := t.Features

	if features == nil {
		if s.features == nil {
			return fmt.Errorf("template %d has no features", t.Label)
		}

		var err error

		features, err = s.features.ExtractInt16(t.Waveform)
		if err != nil {
			return err
		}
	}

	err := s.SaveWaveform(t.Label, t.Waveform)
	if err != nil {
		return err
	}

	return s.SaveFeatures(t.Label, features)
}

func (s *storeImpl) SaveWaveform(label int, samples []int16) error {
	err := s.fileSys.MkdirAll(s.dir, 0o755)
	if err != nil {
		return err
	}

	f, err := s.fileSys.Create(s.Path(label, ExtWav))
	if err != nil {
		return err
	}

	waveWriter, err := wave.NewWriter(wave.WriterParam{
		Out:           f,
		Channel:       1,
		SampleRate:    s.rate,
		BitsPerSample: 16,
	})
	if err != nil {
		f.Close()

		return err
	}

	_, err = waveWriter.WriteSample16(samples)
	if err != nil {
		waveWriter.Close()

		return err
	}

	// closes the file as well
	return waveWriter.Close()
}

func (s *storeImpl) SaveFeatures(label int, features *mat.Dense) error {
	err := s.fileSys.MkdirAll(s.dir, 0o755)
	if err != nil {
		return err
	}

	f, err := s.fileSys.Create(s.Path(label, ExtNpy))
	if err != nil {
		return err
	}

	err = npyio.Write(f, features)
	if err != nil {
		f.Close()

		return err
	}

	return f.Close()
}

func (s *storeImpl) open(label int, ext string) (afero.File, error) {
	f, err := s.fileSys.Open(s.Path(label, ext))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %d%s", ErrMissingTemplate, label, ext)
	}

	return f, err
}

func (s *storeImpl) LoadWaveform(label int) ([]int16, error) {
	f, err := s.open(label, ExtWav)
	if err != nil {
		return nil, err
	}

	defer f.Close()

	samples, rate, err := audio_source.DecodeWav(f)
	if err != nil {
		return nil, fmt.Errorf("template %d: %w", label, err)
	}

	if rate != s.rate {
		return nil, fmt.Errorf("template %d: sample rate %d, expected %d", label, rate, s.rate)
	}

	return samples, nil
}

func (s *storeImpl) LoadFeatures(label int) (*mat.Dense, error) {
	f, err := s.open(label, ExtNpy)
	if err != nil {
		return nil, err
	}

	defer f.Close()

	var m mat.Dense

	err = npyio.Read(f, &m)
	if err != nil {
		return nil, fmt.Errorf("template %d: %w", label, err)
	}

	return &m, nil
}

// Load reads a template. Features missing on disk are recomputed from the
// waveform when a feature extractor is configured.
func (s *storeImpl) Load(label int) (Template, error) {
	waveform, err := s.LoadWaveform(label)
	if err != nil {
		return Template{}, err
	}

	features, err := s.LoadFeatures(label)
	if errors.Is(err, ErrMissingTemplate) && s.features != nil {
		slog.Info("recomputing template features", "label", label)

		features, err = s.features.ExtractInt16(waveform)
	}

	if err != nil {
		return Template{}, err
	}

	return Template{
		Label:    label,
		Waveform: waveform,
		Features: features,
	}, nil
}

func (s *storeImpl) Exists(label int) bool {
	ok, err := afero.Exists(s.fileSys, s.Path(label, ExtWav))

	return ok && err == nil
}

// Labels lists the labels that have a stored recording, in ascending order.
func (s *storeImpl) Labels() ([]int, error) {
	entries, err := afero.ReadDir(s.fileSys, s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	var labels []int

	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		name, ok := strings.CutSuffix(e.Name(), fileSuffix+ExtWav)
		if !ok {
			continue
		}

		label, err := strconv.Atoi(name)
		if err != nil || label < 1 {
			continue
		}

		labels = append(labels, label)
	}

	sort.Ints(labels)

	return labels, nil
}
