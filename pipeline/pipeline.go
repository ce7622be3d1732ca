package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-audio/audio"

	"voice-command-recognition/clients/announcer"
	"voice-command-recognition/feature_extraction"
	"voice-command-recognition/listener"
	"voice-command-recognition/metrics"
	"voice-command-recognition/speech_extraction"
	"voice-command-recognition/speech_to_command"
	"voice-command-recognition/template_matching"
	"voice-command-recognition/template_store"
)

const unrecognizedText = "I can not understand"

var ErrFinished = errors.New("pipeline: enrollment finished")

type pipelineImpl struct {
	mode       Mode
	detector   listener.Interface
	extractor  speech_extraction.Interface
	features   feature_extraction.Interface
	store      template_store.Interface
	recognizer speech_to_command.Interface
	announcer  announcer.Interface
	commands   []string
	rate       int
	metrics    *metrics.Metrics
	sinks      []Sink

	nextLabel int
	finished  bool
}

type Config struct {
	Mode      Mode
	Detector  listener.Interface
	Extractor speech_extraction.Interface
	Announcer announcer.Interface
	Commands  []string
	Rate      int

	// enroll mode
	Features   feature_extraction.Interface
	Store      template_store.Interface
	StartLabel int

	// recognize mode
	Recognizer speech_to_command.Interface

	Metrics *metrics.Metrics
	Sinks   []Sink
}

func New(cfg *Config) (Interface, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.Detector == nil {
		return nil, fmt.Errorf("detector is nil")
	}

	if cfg.Extractor == nil {
		return nil, fmt.Errorf("extractor is nil")
	}

	if cfg.Announcer == nil {
		return nil, fmt.Errorf("announcer is nil")
	}

	if len(cfg.Commands) == 0 {
		return nil, fmt.Errorf("no commands")
	}

	if cfg.Rate <= 0 {
		return nil, fmt.Errorf("invalid rate %d", cfg.Rate)
	}

	startLabel := cfg.StartLabel
	if startLabel == 0 {
		startLabel = 1
	}

	switch cfg.Mode {
	case ModeEnroll:
		if cfg.Features == nil {
			return nil, fmt.Errorf("features is nil")
		}

		if cfg.Store == nil {
			return nil, fmt.Errorf("store is nil")
		}

		if startLabel < 1 || startLabel > len(cfg.Commands) {
			return nil, fmt.Errorf("start label %d outside 1..%d", startLabel, len(cfg.Commands))
		}
	case ModeRecognize:
		if cfg.Recognizer == nil {
			return nil, fmt.Errorf("recognizer is nil")
		}
	default:
		return nil, fmt.Errorf("unknown mode %d", cfg.Mode)
	}

	met := cfg.Metrics
	if met == nil {
		met = metrics.Nop()
	}

	return &pipelineImpl{
		mode:       cfg.Mode,
		detector:   cfg.Detector,
		extractor:  cfg.Extractor,
		features:   cfg.Features,
		store:      cfg.Store,
		recognizer: cfg.Recognizer,
		announcer:  cfg.Announcer,
		commands:   cfg.Commands,
		rate:       cfg.Rate,
		metrics:    met,
		sinks:      cfg.Sinks,
		nextLabel:  startLabel,
	}, nil
}

func (p *pipelineImpl) Mode() Mode {
	return p.mode
}

func (p *pipelineImpl) NextLabel() int {
	return p.nextLabel
}

func (p *pipelineImpl) Finished() bool {
	return p.finished
}

func (p *pipelineImpl) Run(ctx context.Context) error {
	slog.Info("pipeline started", "mode", p.mode, "commands", len(p.commands))

	for {
		err := p.ProcessFrame(ctx)

		switch {
		case err == nil:
			continue
		case errors.Is(err, ErrFinished):
			slog.Info("enrollment finished")
			return nil
		case errors.Is(err, io.EOF):
			slog.Info("audio source exhausted")
			return nil
		case ctx.Err() != nil && errors.Is(err, ctx.Err()):
			slog.Info("pipeline stopped")
			return nil
		default:
			return err
		}
	}
}

func (p *pipelineImpl) ProcessFrame(ctx context.Context) error {
	if p.finished {
		return ErrFinished
	}

	trigger, err := p.detector.Next(ctx)
	if err != nil {
		return err
	}

	if trigger == nil {
		return nil
	}

	p.metrics.RecordTrigger(ctx)

	start := time.Now()

	utterance, err := p.extractor.Extract(trigger.Pre, trigger.Post)
	if err != nil {
		p.drop(ctx, err)
		return nil
	}

	slog.Debug("utterance extracted",
		"frame", trigger.FrameIndex, "peak", trigger.Peak,
		"start", utterance.Start, "end", utterance.End, "threshold", utterance.Threshold)

	if p.mode == ModeEnroll {
		p.enroll(ctx, utterance)
	} else {
		p.recognize(ctx, utterance, start)
	}

	if p.finished {
		return ErrFinished
	}

	return nil
}

func (p *pipelineImpl) enroll(ctx context.Context, utterance speech_extraction.Utterance) {
	features, err := p.features.ExtractInt16(utterance.Samples)
	if err != nil {
		p.drop(ctx, err)
		return
	}

	label := p.nextLabel

	err = p.store.Save(template_store.Template{
		Label:    label,
		Waveform: utterance.Samples,
		Features: features,
	})
	if err != nil {
		p.drop(ctx, fmt.Errorf("saving template %d: %w", label, err))
		return
	}

	p.metrics.RecordOutcome(ctx, metrics.OutcomeRecorded)

	slog.Info("sample recorded", "label", label, "command", p.commands[label-1], "samples", len(utterance.Samples))

	p.emit(Event{Kind: EventRecorded, Label: label, Samples: utterance.Samples})
	p.announcer.Say(fmt.Sprintf("Sample %d has been recorded", label))

	p.nextLabel++

	if p.nextLabel > len(p.commands) {
		p.finished = true

		p.emit(Event{Kind: EventFinished})
		p.announcer.Say("Finished")
	}
}

func (p *pipelineImpl) recognize(ctx context.Context, utterance speech_extraction.Utterance, start time.Time) {
	result, err := p.recognizer.Process(p.toBuffer(utterance.Samples))

	var matchErr error

	if errors.Is(err, template_store.ErrMissingTemplate) {
		slog.Warn("cannot classify without every template", "err", err)

		result = template_matching.Result{}
		matchErr = err
	} else if err != nil {
		p.drop(ctx, err)
		return
	}

	p.metrics.RecordMatch(ctx, result.Distance, time.Since(start).Seconds())

	if result.Recognized {
		p.metrics.RecordOutcome(ctx, metrics.OutcomeRecognized)
	} else {
		p.metrics.RecordOutcome(ctx, metrics.OutcomeUnrecognized)
	}

	p.emit(Event{Kind: EventMatched, Label: result.Label, Result: &result, Samples: utterance.Samples, Err: matchErr})

	if !result.Recognized || result.Label < 1 || result.Label > len(p.commands) {
		slog.Info("command not recognized", "distance", result.Distance)

		p.announcer.Say(unrecognizedText)

		return
	}

	slog.Info("command recognized", "label", result.Label, "command", p.commands[result.Label-1], "distance", result.Distance)

	p.announcer.Say(p.commands[result.Label-1])
}

func (p *pipelineImpl) toBuffer(samples []int16) audio.Buffer {
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}

	return &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  p.rate,
		},
		Data:           data,
		SourceBitDepth: 16,
	}
}

func (p *pipelineImpl) drop(ctx context.Context, err error) {
	slog.Warn("utterance dropped", "err", err)

	p.metrics.RecordOutcome(ctx, metrics.OutcomeDropped)
	p.emit(Event{Kind: EventDropped, Err: err})
}

func (p *pipelineImpl) emit(ev Event) {
	for _, s := range p.sinks {
		s.Handle(ev)
	}
}
