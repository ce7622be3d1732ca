// Package config holds the configuration schema, loader and live-threshold
// plumbing for the voice command recognizer.
package config

import "time"

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// DefaultCommands is the command vocabulary the recognizer ships with. Label k
// (1-based) is DefaultCommands[k-1].
var DefaultCommands = []string{
	"Power_APPLE",
	"Voice up_KIVI",
	"Voice down_DRAGON FRUIT",
	"Enter_ORANGE",
	"Back_BANANA",
	"Up_COCONUT",
	"Down_PIYATA",
	"Left_LEMON",
	"Right_RED DELICIOUS",
}

// Config is the root configuration structure, usually loaded with [Load].
type Config struct {
	LogLevel    LogLevel        `yaml:"log_level"`
	MetricsAddr string          `yaml:"metrics_addr"`
	Audio       AudioConfig     `yaml:"audio"`
	Trigger     TriggerConfig   `yaml:"trigger"`
	Segment     SegmentConfig   `yaml:"segment"`
	Features    FeatureConfig   `yaml:"features"`
	Matcher     MatcherConfig   `yaml:"matcher"`
	Store       StoreConfig     `yaml:"store"`
	Announcer   AnnouncerConfig `yaml:"announcer"`

	// Commands is the ordered command vocabulary. Its length fixes the number
	// of templates enrollment records.
	Commands []string `yaml:"commands"`
}

// AudioConfig describes the capture format and the buffer windows.
type AudioConfig struct {
	SampleRate     int           `yaml:"sample_rate"`
	Chunk          int           `yaml:"chunk"`
	PreSeconds     float64       `yaml:"pre_seconds"`
	PostSeconds    float64       `yaml:"post_seconds"`
	DisplaySeconds float64       `yaml:"display_seconds"`
	Cooldown       time.Duration `yaml:"cooldown"`
}

// TriggerConfig holds the peak amplitude threshold. It is kept as text because
// it is user input; invalid values fall back to [DefaultThreshold].
type TriggerConfig struct {
	Threshold string `yaml:"threshold"`
}

// SegmentConfig tunes the silence trimming heuristic.
type SegmentConfig struct {
	HeadSeconds     float64 `yaml:"head_seconds"`
	NoiseFloorScale float64 `yaml:"noise_floor_scale"`
}

// FeatureConfig tunes MFCC extraction.
type FeatureConfig struct {
	NumMFCC     int     `yaml:"n_mfcc"`
	NumMels     int     `yaml:"n_mels"`
	PreEmphasis float64 `yaml:"pre_emphasis"`
}

// MatcherConfig tunes the nearest-template decision.
type MatcherConfig struct {
	RejectThreshold float64 `yaml:"reject_threshold"`
}

// StoreConfig locates the template files.
type StoreConfig struct {
	Dir string `yaml:"dir"`
}

// AnnouncerConfig configures spoken feedback.
type AnnouncerConfig struct {
	// TTSCommand is the speech program and any leading arguments; the text
	// to speak is appended as the last argument.
	TTSCommand string `yaml:"tts_command"`
	Mute       bool   `yaml:"mute"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		LogLevel: LogInfo,
		Audio: AudioConfig{
			SampleRate:     8000,
			Chunk:          1024,
			PreSeconds:     1.5,
			PostSeconds:    4.5,
			DisplaySeconds: 6,
			Cooldown:       2 * time.Second,
		},
		Trigger: TriggerConfig{
			Threshold: "15000",
		},
		Segment: SegmentConfig{
			HeadSeconds:     4,
			NoiseFloorScale: 3.5,
		},
		Features: FeatureConfig{
			NumMFCC: 13,
			NumMels: 128,
		},
		Matcher: MatcherConfig{
			RejectThreshold: 1750,
		},
		Store: StoreConfig{
			Dir: ".",
		},
		Announcer: AnnouncerConfig{
			TTSCommand: "espeak-ng",
		},
		Commands: append([]string(nil), DefaultCommands...),
	}
}
