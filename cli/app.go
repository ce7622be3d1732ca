package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"voice-command-recognition/audio_source"
	"voice-command-recognition/clients/announcer"
	"voice-command-recognition/clients/display"
	"voice-command-recognition/config"
	"voice-command-recognition/feature_extraction"
	"voice-command-recognition/listener"
	"voice-command-recognition/metrics"
	"voice-command-recognition/pipeline"
	"voice-command-recognition/speech_extraction"
	"voice-command-recognition/speech_to_command"
	"voice-command-recognition/template_matching"
	"voice-command-recognition/template_store"
)

// app wires the recognizer components from one configuration.
type app struct {
	cfg       *config.Config
	fileSys   afero.Fs
	threshold *config.Threshold

	renderer  *display.Renderer
	announcer announcer.Interface
	features  feature_extraction.Interface
	store     template_store.Interface
	extractor speech_extraction.Interface

	metrics         *metrics.Metrics
	metricsHandler  http.Handler
	shutdownMetrics func(context.Context) error
}

func newApp(cfg *config.Config, fileSys afero.Fs, out io.Writer) (*app, error) {
	renderer, err := display.New(&display.Config{
		Out:      out,
		Commands: cfg.Commands,
		Rate:     cfg.Audio.SampleRate,
	})
	if err != nil {
		return nil, err
	}

	features, err := feature_extraction.New(&feature_extraction.Config{
		Rate:        cfg.Audio.SampleRate,
		NumMFCC:     cfg.Features.NumMFCC,
		NumMels:     cfg.Features.NumMels,
		PreEmphasis: cfg.Features.PreEmphasis,
	})
	if err != nil {
		return nil, err
	}

	store, err := template_store.New(&template_store.Config{
		FileSys:  fileSys,
		Dir:      cfg.Store.Dir,
		Rate:     cfg.Audio.SampleRate,
		Features: features,
	})
	if err != nil {
		return nil, err
	}

	extractor, err := speech_extraction.New(&speech_extraction.Config{
		Rate:            cfg.Audio.SampleRate,
		PreSeconds:      cfg.Audio.PreSeconds,
		PostSeconds:     cfg.Audio.PostSeconds,
		HeadSeconds:     cfg.Segment.HeadSeconds,
		NoiseFloorScale: cfg.Segment.NoiseFloorScale,
	})
	if err != nil {
		return nil, err
	}

	ann, err := announcer.New(&announcer.Config{
		FileSys:    fileSys,
		TTSCommand: cfg.Announcer.TTSCommand,
		Mute:       cfg.Announcer.Mute,
	})
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:       cfg,
		fileSys:   fileSys,
		threshold: config.NewThreshold(cfg.Trigger.Threshold),
		renderer:  renderer,
		announcer: ann,
		features:  features,
		store:     store,
		extractor: extractor,
		metrics:   metrics.Nop(),
	}

	if cfg.MetricsAddr != "" {
		met, handler, shutdown, err := metrics.InitProvider()
		if err != nil {
			ann.Close()

			return nil, err
		}

		a.metrics = met
		a.metricsHandler = handler
		a.shutdownMetrics = shutdown
	}

	return a, nil
}

func (a *app) Close() error {
	errs := []error{a.announcer.Close()}

	if a.shutdownMetrics != nil {
		errs = append(errs, a.shutdownMetrics(context.Background()))
	}

	return errors.Join(errs...)
}

func (a *app) openSource(input string, device int) (audio_source.Interface, error) {
	if input != "" {
		slog.Info("replaying", "file", input)

		return audio_source.NewWavFile(a.fileSys, input, a.cfg.Audio.SampleRate, a.cfg.Audio.Chunk)
	}

	return audio_source.NewMicrophone(&audio_source.Config{
		SampleRate:  a.cfg.Audio.SampleRate,
		Chunk:       a.cfg.Audio.Chunk,
		DeviceIndex: device,
	})
}

func (a *app) newPipeline(mode pipeline.Mode, source audio_source.Interface, startLabel int) (pipeline.Interface, error) {
	detector, err := listener.New(&listener.Config{
		Source:         source,
		Threshold:      a.threshold,
		Rate:           a.cfg.Audio.SampleRate,
		Chunk:          a.cfg.Audio.Chunk,
		PreSeconds:     a.cfg.Audio.PreSeconds,
		PostSeconds:    a.cfg.Audio.PostSeconds,
		DisplaySeconds: a.cfg.Audio.DisplaySeconds,
		Cooldown:       a.cfg.Audio.Cooldown,
		OnDisplay:      a.renderer.Waveform,
	})
	if err != nil {
		return nil, err
	}

	cfg := &pipeline.Config{
		Mode:       mode,
		Detector:   detector,
		Extractor:  a.extractor,
		Announcer:  a.announcer,
		Commands:   a.cfg.Commands,
		Rate:       a.cfg.Audio.SampleRate,
		Features:   a.features,
		Store:      a.store,
		StartLabel: startLabel,
		Metrics:    a.metrics,
		Sinks:      []pipeline.Sink{a.renderer},
	}

	if mode == pipeline.ModeRecognize {
		matcher, err := template_matching.New(&template_matching.Config{
			RejectThreshold: a.cfg.Matcher.RejectThreshold,
		})
		if err != nil {
			return nil, err
		}

		cfg.Recognizer, err = speech_to_command.New(&speech_to_command.Config{
			Extractor: a.features,
			Matcher:   matcher,
			Templates: a.store,
			Labels:    len(a.cfg.Commands),
		})
		if err != nil {
			return nil, err
		}
	}

	return pipeline.New(cfg)
}

// run drives the pipeline alongside the config watcher and the metrics
// server. Everything stops once the pipeline returns.
func (a *app) run(ctx context.Context, p pipeline.Interface, configPath string, thresholdPinned bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()

		return p.Run(gctx)
	})

	if configPath != "" {
		watcher, err := config.NewWatcher(configPath, a.onConfigChange(thresholdPinned), config.WithFs(a.fileSys))
		if err != nil {
			return err
		}

		g.Go(func() error {
			return watcher.Run(gctx)
		})
	}

	if a.cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", a.metricsHandler)

		srv := &http.Server{
			Addr:              a.cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		g.Go(func() error {
			slog.Info("serving metrics", "addr", a.cfg.MetricsAddr)

			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}

			return nil
		})

		g.Go(func() error {
			<-gctx.Done()

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()

			return srv.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}

func (a *app) onConfigChange(thresholdPinned bool) func(old, new *config.Config) {
	return func(_, updated *config.Config) {
		if thresholdPinned {
			return
		}

		// the environment still wins over the file
		if err := config.LoadEnv("", updated); err != nil {
			slog.Warn("applying environment to reloaded config", "err", err)
		}

		if updated.Trigger.Threshold == a.threshold.Text() {
			return
		}

		a.threshold.Set(updated.Trigger.Threshold)

		slog.Info("threshold updated", "value", updated.Trigger.Threshold)
	}
}
