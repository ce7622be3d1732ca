package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables applied on top of the file configuration.
const (
	EnvThreshold  = "VCR_THRESHOLD"
	EnvStoreDir   = "VCR_STORE_DIR"
	EnvTTSCommand = "VCR_TTS_COMMAND"
)

// Load reads the YAML configuration file at path and returns a validated [Config].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r on top of [Default] and
// validates the result. An empty document yields the defaults.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnv loads the dotenv file at path (a missing file is not an error) and
// applies the VCR_* overrides to cfg.
func LoadEnv(path string, cfg *Config) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config: load env %q: %w", path, err)
		}
	}

	if v, ok := os.LookupEnv(EnvThreshold); ok {
		cfg.Trigger.Threshold = v
	}
	if v, ok := os.LookupEnv(EnvStoreDir); ok && v != "" {
		cfg.Store.Dir = v
	}
	if v, ok := os.LookupEnv(EnvTTSCommand); ok && v != "" {
		cfg.Announcer.TTSCommand = v
	}
	return nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.LogLevel != "" && !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}

	a := cfg.Audio
	if a.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("audio.sample_rate must be positive, got %d", a.SampleRate))
	}
	if a.Chunk <= 0 {
		errs = append(errs, fmt.Errorf("audio.chunk must be positive, got %d", a.Chunk))
	}
	if a.PreSeconds <= 0 || a.PostSeconds <= 0 {
		errs = append(errs, fmt.Errorf("audio.pre_seconds and audio.post_seconds must be positive, got %.2f and %.2f", a.PreSeconds, a.PostSeconds))
	}
	if a.DisplaySeconds <= 0 {
		errs = append(errs, fmt.Errorf("audio.display_seconds must be positive, got %.2f", a.DisplaySeconds))
	}
	if a.Cooldown < 0 {
		errs = append(errs, fmt.Errorf("audio.cooldown must not be negative, got %s", a.Cooldown))
	}

	s := cfg.Segment
	if s.HeadSeconds <= 0 || s.HeadSeconds >= a.PreSeconds+a.PostSeconds {
		errs = append(errs, fmt.Errorf("segment.head_seconds %.2f must be in (0, %.2f)", s.HeadSeconds, a.PreSeconds+a.PostSeconds))
	}
	if s.NoiseFloorScale <= 0 {
		errs = append(errs, fmt.Errorf("segment.noise_floor_scale must be positive, got %.2f", s.NoiseFloorScale))
	}

	f := cfg.Features
	if f.NumMels <= 0 {
		errs = append(errs, fmt.Errorf("features.n_mels must be positive, got %d", f.NumMels))
	}
	if f.NumMFCC <= 0 || f.NumMFCC > f.NumMels {
		errs = append(errs, fmt.Errorf("features.n_mfcc %d must be in [1, n_mels]", f.NumMFCC))
	}
	if f.PreEmphasis < 0 || f.PreEmphasis >= 1 {
		errs = append(errs, fmt.Errorf("features.pre_emphasis %.2f must be in [0, 1)", f.PreEmphasis))
	}

	if cfg.Matcher.RejectThreshold <= 0 {
		errs = append(errs, fmt.Errorf("matcher.reject_threshold must be positive, got %.2f", cfg.Matcher.RejectThreshold))
	}

	if len(cfg.Commands) == 0 {
		errs = append(errs, errors.New("commands must list at least one command"))
	}
	for i, c := range cfg.Commands {
		if c == "" {
			errs = append(errs, fmt.Errorf("commands[%d] is empty", i))
		}
	}

	// A bad threshold is recovered at runtime, so it only warns here.
	if _, err := ParseThreshold(cfg.Trigger.Threshold); err != nil {
		slog.Warn("trigger.threshold is not an integer; the default will be used",
			"value", cfg.Trigger.Threshold,
			"default", DefaultThreshold,
		)
	}

	return errors.Join(errs...)
}
