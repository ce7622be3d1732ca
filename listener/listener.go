package listener

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"voice-command-recognition/audio_source"
	"voice-command-recognition/config"
	"voice-command-recognition/ring_buffer"
)

type listenerImpl struct {
	source    audio_source.Interface
	threshold ThresholdSource
	onDisplay func([]int16)

	preRoll  ring_buffer.Interface
	postRoll ring_buffer.Interface
	display  ring_buffer.Interface

	postFrames     int
	cooldownFrames int
	displaySamples int

	state        State
	cooldownLeft int
	frameIndex   int64
	lastBadText  string
}

type Config struct {
	Source    audio_source.Interface
	Threshold ThresholdSource

	Rate           int
	Chunk          int
	PreSeconds     float64
	PostSeconds    float64
	DisplaySeconds float64
	Cooldown       time.Duration

	// OnDisplay, when set, receives the display window after every frame.
	OnDisplay func([]int16)
}

func New(cfg *Config) (Interface, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.Source == nil {
		return nil, fmt.Errorf("source is nil")
	}

	if cfg.Threshold == nil {
		return nil, fmt.Errorf("threshold is nil")
	}

	if cfg.Rate <= 0 || cfg.Chunk <= 0 {
		return nil, fmt.Errorf("invalid rate %d or chunk %d", cfg.Rate, cfg.Chunk)
	}

	preFrames := framesFloor(cfg.PreSeconds, cfg.Rate, cfg.Chunk)
	postFrames := framesCeil(cfg.PostSeconds, cfg.Rate, cfg.Chunk)
	displayFrames := framesCeil(cfg.DisplaySeconds, cfg.Rate, cfg.Chunk)

	if postFrames < 1 {
		return nil, fmt.Errorf("post-roll of %.2fs holds no frames", cfg.PostSeconds)
	}

	return &listenerImpl{
		source:         cfg.Source,
		threshold:      cfg.Threshold,
		onDisplay:      cfg.OnDisplay,
		preRoll:        ring_buffer.New(preFrames),
		postRoll:       ring_buffer.New(postFrames),
		display:        ring_buffer.New(displayFrames),
		postFrames:     postFrames,
		cooldownFrames: framesCeil(cfg.Cooldown.Seconds(), cfg.Rate, cfg.Chunk),
		displaySamples: int(cfg.DisplaySeconds * float64(cfg.Rate)),
		state:          StateIdle,
	}, nil
}

func framesFloor(seconds float64, rate, chunk int) int {
	return int(math.Floor(seconds * float64(rate) / float64(chunk)))
}

func framesCeil(seconds float64, rate, chunk int) int {
	return int(math.Ceil(seconds * float64(rate) / float64(chunk)))
}

// Peak returns the largest absolute sample value of the frame.
func Peak(frame ring_buffer.Frame) int {
	var peak int32

	for _, s := range frame {
		v := int32(s)
		if v < 0 {
			v = -v
		}

		if v > peak {
			peak = v
		}
	}

	return int(peak)
}

func (l *listenerImpl) State() State {
	return l.state
}

func (l *listenerImpl) FrameIndex() int64 {
	return l.frameIndex
}

func (l *listenerImpl) Next(ctx context.Context) (*Trigger, error) {
	frame, err := l.source.Read(ctx)
	if err != nil {
		return nil, err
	}

	index := l.frameIndex
	l.frameIndex++

	if l.state == StateCooldown {
		l.pushDisplay(frame)

		l.cooldownLeft--
		if l.cooldownLeft <= 0 {
			l.state = StateIdle

			slog.Debug("cooldown over", "frame", index)
		}

		return nil, nil
	}

	l.pushDisplay(frame)
	l.preRoll.Add(frame)

	peak := Peak(frame)
	if peak <= l.currentThreshold() {
		return nil, nil
	}

	slog.Debug("trigger", "frame", index, "peak", peak)

	return l.capture(ctx, index, peak)
}

func (l *listenerImpl) capture(ctx context.Context, index int64, peak int) (*Trigger, error) {
	l.state = StateCapturing

	pre := l.preRoll.Frames()

	// the drain always runs to completion; a stop is seen on the next call
	drainCtx := context.WithoutCancel(ctx)

	for i := 0; i < l.postFrames; i++ {
		frame, err := l.source.Read(drainCtx)
		if err != nil {
			l.postRoll.Clear()
			l.state = StateIdle

			return nil, err
		}

		l.frameIndex++

		l.postRoll.Add(frame)
		l.pushDisplay(frame)
	}

	trigger := &Trigger{
		Pre:        pre,
		Post:       l.postRoll.Frames(),
		FrameIndex: index,
		Peak:       peak,
	}

	l.postRoll.Clear()

	l.state = StateCooldown
	l.cooldownLeft = l.cooldownFrames

	if l.cooldownLeft <= 0 {
		l.state = StateIdle
	}

	return trigger, nil
}

func (l *listenerImpl) currentThreshold() int {
	text := l.threshold.Text()

	threshold, err := config.ParseThreshold(text)
	if err != nil {
		if text != l.lastBadText {
			slog.Warn("invalid threshold, using default", "value", text, "default", threshold, "err", err)

			l.lastBadText = text
		}

		return threshold
	}

	l.lastBadText = ""

	return threshold
}

func (l *listenerImpl) pushDisplay(frame ring_buffer.Frame) {
	l.display.Add(frame)

	if l.onDisplay != nil {
		l.onDisplay(l.display.Read(l.displaySamples))
	}
}
