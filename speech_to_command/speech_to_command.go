package speech_to_command

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-audio/audio"
	"gonum.org/v1/gonum/mat"

	"voice-command-recognition/feature_extraction"
	"voice-command-recognition/template_matching"
	"voice-command-recognition/template_store"
)

type stcImpl struct {
	extractor  feature_extraction.Interface
	matcher    template_matching.Interface
	templates  []*mat.Dense
	missingErr error
}

type Config struct {
	Extractor feature_extraction.Interface
	Matcher   template_matching.Interface
	Templates template_store.Interface

	// Labels is the number of commands; templates 1..Labels are loaded.
	Labels int
}

// New loads every command template once. A store lacking some of them still
// yields a usable stage whose results are all unrecognized.
func New(cfg *Config) (Interface, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.Extractor == nil {
		return nil, fmt.Errorf("extractor is nil")
	}

	if cfg.Matcher == nil {
		return nil, fmt.Errorf("matcher is nil")
	}

	if cfg.Templates == nil {
		return nil, fmt.Errorf("templates is nil")
	}

	if cfg.Labels < 1 {
		return nil, fmt.Errorf("invalid label count %d", cfg.Labels)
	}

	s := &stcImpl{
		extractor: cfg.Extractor,
		matcher:   cfg.Matcher,
		templates: make([]*mat.Dense, 0, cfg.Labels),
	}

	var missing []error

	for label := 1; label <= cfg.Labels; label++ {
		t, err := cfg.Templates.Load(label)
		if errors.Is(err, template_store.ErrMissingTemplate) {
			missing = append(missing, err)

			continue
		}

		if err != nil {
			return nil, err
		}

		s.templates = append(s.templates, t.Features)
	}

	if len(missing) > 0 {
		s.missingErr = errors.Join(missing...)

		slog.Warn("templates missing, every utterance will be unrecognized", "missing", len(missing))
	} else {
		slog.Info("templates loaded", "count", len(s.templates))
	}

	return s, nil
}

func (s *stcImpl) Process(buf audio.Buffer) (template_matching.Result, error) {
	if s.missingErr != nil {
		return template_matching.Result{}, s.missingErr
	}

	data := buf.AsIntBuffer().Data

	samples := make([]int16, len(data))
	for i, v := range data {
		samples[i] = int16(v)
	}

	features, err := s.extractor.ExtractInt16(samples)
	if err != nil {
		return template_matching.Result{}, err
	}

	return s.matcher.Match(features, s.templates)
}
