package announcer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/spf13/afero"
)

type recorder struct {
	mu    sync.Mutex
	calls [][]string
	fail  bool
}

func (r *recorder) run(_ context.Context, name string, args ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, append([]string{name}, args...))

	if r.fail {
		return errors.New("boom")
	}

	return nil
}

func (r *recorder) play(path string) error {
	return r.run(context.Background(), "play", path)
}

func newTestAnnouncer(t *testing.T, cfg *Config) (Interface, *recorder) {
	t.Helper()

	a, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	rec := &recorder{}
	impl := a.(*announcerImpl)
	impl.run = rec.run
	impl.play = rec.play

	return a, rec
}

func TestNew(t *testing.T) {
	t.Run("it rejects a nil config", func(t *testing.T) {
		if _, err := New(nil); err == nil {
			t.Fatal("expected an error")
		}
	})

	t.Run("it needs a tts command unless muted", func(t *testing.T) {
		if _, err := New(&Config{FileSys: afero.NewMemMapFs()}); err == nil {
			t.Fatal("expected an error")
		}

		a, err := New(&Config{FileSys: afero.NewMemMapFs(), Mute: true})
		if err != nil {
			t.Fatal(err)
		}

		a.Close()
	})
}

func TestAnnouncer(t *testing.T) {
	t.Run("say runs the tts command with the text last", func(t *testing.T) {
		a, rec := newTestAnnouncer(t, &Config{FileSys: afero.NewMemMapFs(), TTSCommand: "espeak-ng -s 140"})

		a.Say("Sample 1 has been recorded")
		a.Play("1_Audio_time.wav")
		a.Say("Finished")

		if err := a.Close(); err != nil {
			t.Fatal(err)
		}

		want := [][]string{
			{"espeak-ng", "-s", "140", "Sample 1 has been recorded"},
			{"play", "1_Audio_time.wav"},
			{"espeak-ng", "-s", "140", "Finished"},
		}

		if len(rec.calls) != len(want) {
			t.Fatalf("expected %d calls, got %v", len(want), rec.calls)
		}

		for i := range want {
			for j := range want[i] {
				if rec.calls[i][j] != want[i][j] {
					t.Fatalf("call %d: expected %v, got %v", i, want[i], rec.calls[i])
				}
			}
		}
	})

	t.Run("a failing command does not stop later output", func(t *testing.T) {
		a, rec := newTestAnnouncer(t, &Config{FileSys: afero.NewMemMapFs(), TTSCommand: "say"})
		rec.fail = true

		a.Say("one")
		a.Say("two")
		a.Close()

		if len(rec.calls) != 2 {
			t.Fatalf("expected 2 calls, got %v", rec.calls)
		}
	})

	t.Run("muted output only logs", func(t *testing.T) {
		a, rec := newTestAnnouncer(t, &Config{FileSys: afero.NewMemMapFs(), TTSCommand: "say", Mute: true})

		a.Say("hello")
		a.Play("1_Audio_time.wav")
		a.Close()

		if len(rec.calls) != 0 {
			t.Fatalf("expected no calls, got %v", rec.calls)
		}
	})

	t.Run("output after close is ignored", func(t *testing.T) {
		a, rec := newTestAnnouncer(t, &Config{FileSys: afero.NewMemMapFs(), TTSCommand: "say"})

		a.Close()
		a.Say("late")

		if err := a.Close(); err != nil {
			t.Fatal(err)
		}

		if len(rec.calls) != 0 {
			t.Fatalf("expected no calls, got %v", rec.calls)
		}
	})

	t.Run("playing a missing file fails quietly", func(t *testing.T) {
		a, err := New(&Config{FileSys: afero.NewMemMapFs(), TTSCommand: "say"})
		if err != nil {
			t.Fatal(err)
		}

		err = a.(*announcerImpl).playWav("missing.wav")
		if err == nil {
			t.Fatal("expected an error")
		}

		a.Close()
	})
}
