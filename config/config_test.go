package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleYAML = `
log_level: debug
audio:
  sample_rate: 16000
  chunk: 512
  cooldown: 1500ms
trigger:
  threshold: 12000
matcher:
  reject_threshold: 2000
store:
  dir: templates
commands:
  - Lights_ON
  - Lights_OFF
`

func TestLoadFromReader_Valid(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.LogLevel != LogDebug {
		t.Errorf("log_level: got %q, want %q", cfg.LogLevel, LogDebug)
	}
	if cfg.Audio.SampleRate != 16000 || cfg.Audio.Chunk != 512 {
		t.Errorf("audio: got rate %d chunk %d", cfg.Audio.SampleRate, cfg.Audio.Chunk)
	}
	if cfg.Audio.Cooldown != 1500*time.Millisecond {
		t.Errorf("audio.cooldown: got %s", cfg.Audio.Cooldown)
	}
	// untouched fields keep their defaults
	if cfg.Audio.PreSeconds != 1.5 || cfg.Audio.PostSeconds != 4.5 {
		t.Errorf("audio windows: got %.2f/%.2f", cfg.Audio.PreSeconds, cfg.Audio.PostSeconds)
	}
	if cfg.Trigger.Threshold != "12000" {
		t.Errorf("trigger.threshold: got %q", cfg.Trigger.Threshold)
	}
	if cfg.Matcher.RejectThreshold != 2000 {
		t.Errorf("matcher.reject_threshold: got %.0f", cfg.Matcher.RejectThreshold)
	}
	if len(cfg.Commands) != 2 || cfg.Commands[1] != "Lights_OFF" {
		t.Errorf("commands: got %v", cfg.Commands)
	}
}

func TestLoadFromReader_EmptyIsDefault(t *testing.T) {
	for _, doc := range []string{"", "{}"} {
		cfg, err := LoadFromReader(strings.NewReader(doc))
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", doc, err)
		}
		if cfg.Audio.SampleRate != 8000 || cfg.Features.NumMFCC != 13 || len(cfg.Commands) != 9 {
			t.Errorf("defaults not applied for %q: %+v", doc, cfg)
		}
	}
}

func TestLoadFromReader_UnknownField(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader("audio:\n  samplerate: 8000\n"))
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestValidate_JoinsErrors(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "loud"
	cfg.Audio.Chunk = 0
	cfg.Features.NumMFCC = 200
	cfg.Commands = nil

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}

	for _, want := range []string{"log_level", "audio.chunk", "features.n_mfcc", "commands"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestValidate_BadThresholdIsNotFatal(t *testing.T) {
	cfg := Default()
	cfg.Trigger.Threshold = "loud"

	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseThreshold(t *testing.T) {
	tests := []struct {
		text    string
		want    int
		wantErr bool
	}{
		{"15000", 15000, false},
		{" 9000 ", 9000, false},
		{"-1", -1, false},
		{"", DefaultThreshold, true},
		{"abc", DefaultThreshold, true},
		{"12.5", DefaultThreshold, true},
	}

	for _, tc := range tests {
		got, err := ParseThreshold(tc.text)
		if got != tc.want {
			t.Errorf("ParseThreshold(%q) = %d, want %d", tc.text, got, tc.want)
		}
		if tc.wantErr {
			var cfgErr *Error
			if !errors.As(err, &cfgErr) {
				t.Errorf("ParseThreshold(%q): expected *Error, got %v", tc.text, err)
			}
		} else if err != nil {
			t.Errorf("ParseThreshold(%q): unexpected error %v", tc.text, err)
		}
	}
}

func TestThreshold_Live(t *testing.T) {
	th := NewThreshold("20000")
	if th.Value() != 20000 {
		t.Fatalf("got %d, want 20000", th.Value())
	}

	th.Set("not a number")
	if th.Text() != "not a number" {
		t.Errorf("text: got %q", th.Text())
	}
	if th.Value() != DefaultThreshold {
		t.Errorf("fallback: got %d, want %d", th.Value(), DefaultThreshold)
	}
}

func TestLoadEnv(t *testing.T) {
	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv(EnvThreshold, "4321")
		t.Setenv(EnvStoreDir, "/var/lib/vcr")

		cfg := Default()
		if err := LoadEnv("", cfg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Trigger.Threshold != "4321" {
			t.Errorf("threshold: got %q", cfg.Trigger.Threshold)
		}
		if cfg.Store.Dir != "/var/lib/vcr" {
			t.Errorf("store dir: got %q", cfg.Store.Dir)
		}
	})

	t.Run("dotenv file", func(t *testing.T) {
		t.Setenv(EnvTTSCommand, "")
		os.Unsetenv(EnvTTSCommand)

		path := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(path, []byte(EnvTTSCommand+"=say\n"), 0o644); err != nil {
			t.Fatal(err)
		}

		cfg := Default()
		if err := LoadEnv(path, cfg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Announcer.TTSCommand != "say" {
			t.Errorf("tts command: got %q", cfg.Announcer.TTSCommand)
		}
	})

	t.Run("missing dotenv file is ignored", func(t *testing.T) {
		cfg := Default()
		if err := LoadEnv(filepath.Join(t.TempDir(), "absent.env"), cfg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}
