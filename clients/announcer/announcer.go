package announcer

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
	"github.com/spf13/afero"
)

const queueSize = 16

type jobKind int

const (
	jobSay jobKind = iota
	jobPlay
)

type job struct {
	kind jobKind
	arg  string
}

type announcerImpl struct {
	fileSys    afero.Fs
	ttsCommand []string
	mute       bool

	mu     sync.Mutex
	closed bool
	jobs   chan job
	cancel context.CancelFunc
	done   chan struct{}

	speakerRate beep.SampleRate

	// replaced in tests
	run  func(ctx context.Context, name string, args ...string) error
	play func(path string) error
}

type Config struct {
	FileSys afero.Fs

	// TTSCommand is the speech program and its leading arguments; the text
	// is appended as the last argument.
	TTSCommand string
	Mute       bool
}

func New(cfg *Config) (Interface, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.FileSys == nil {
		return nil, fmt.Errorf("fileSys is nil")
	}

	ttsCommand := strings.Fields(cfg.TTSCommand)
	if len(ttsCommand) == 0 && !cfg.Mute {
		return nil, fmt.Errorf("tts command is empty")
	}

	ctx, cancel := context.WithCancel(context.Background())

	a := &announcerImpl{
		fileSys:    cfg.FileSys,
		ttsCommand: ttsCommand,
		mute:       cfg.Mute,
		jobs:       make(chan job, queueSize),
		cancel:     cancel,
		done:       make(chan struct{}),
		run:        runCommand,
	}

	a.play = a.playWav

	go a.worker(ctx)

	return a, nil
}

func (a *announcerImpl) Say(text string) {
	if a.mute {
		slog.Info("say", "text", text)
		return
	}

	a.enqueue(job{kind: jobSay, arg: text})
}

func (a *announcerImpl) Play(path string) {
	if a.mute {
		slog.Info("play", "path", path)
		return
	}

	a.enqueue(job{kind: jobPlay, arg: path})
}

func (a *announcerImpl) enqueue(j job) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return
	}

	select {
	case a.jobs <- j:
	default:
		slog.Warn("announcer queue full, dropping", "arg", j.arg)
	}
}

// Close waits for queued output to finish.
func (a *announcerImpl) Close() error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.jobs)
	}
	a.mu.Unlock()

	<-a.done
	a.cancel()

	return nil
}

func (a *announcerImpl) worker(ctx context.Context) {
	defer close(a.done)

	for j := range a.jobs {
		var err error

		switch j.kind {
		case jobSay:
			args := append(append([]string{}, a.ttsCommand[1:]...), j.arg)
			err = a.run(ctx, a.ttsCommand[0], args...)
		case jobPlay:
			err = a.play(j.arg)
		}

		if err != nil {
			slog.Warn("announcer output failed", "arg", j.arg, "err", err)
		}
	}
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)

	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}

	return nil
}

func (a *announcerImpl) playWav(path string) error {
	f, err := a.fileSys.Open(path)
	if err != nil {
		return err
	}

	streamer, format, err := wav.Decode(f)
	if err != nil {
		f.Close()

		return err
	}

	defer streamer.Close()

	if format.SampleRate != a.speakerRate {
		err = speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10))
		if err != nil {
			return err
		}

		a.speakerRate = format.SampleRate
	}

	done := make(chan bool)
	speaker.Play(beep.Seq(streamer, beep.Callback(func() {
		done <- true
	})))
	<-done

	return nil
}
