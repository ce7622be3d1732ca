package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"voice-command-recognition/audio_source"
	"voice-command-recognition/pipeline"
	"voice-command-recognition/template_store"
)

func newEnrollCmd(opts *options) *cobra.Command {
	var startLabel int

	cmd := &cobra.Command{
		Use:   "enroll",
		Short: "Record one template per command",
		Long: `Record one template per command, in order.

Say each command when prompted. The recording of command k is stored as
k_Audio_time.wav with its features in k_Audio_time.npy.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMode(cmd, opts, pipeline.ModeEnroll, startLabel)
		},
	}

	cmd.Flags().IntVar(&startLabel, "start", 1, "first command label to record")

	return cmd
}

func newRecognizeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "recognize",
		Short: "Recognize spoken commands against the templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMode(cmd, opts, pipeline.ModeRecognize, 0)
		},
	}
}

func runMode(cmd *cobra.Command, opts *options, mode pipeline.Mode, startLabel int) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(opts.cfg, afero.NewOsFs(), cmd.OutOrStdout())
	if err != nil {
		return err
	}

	defer a.Close()

	source, err := a.openSource(opts.input, opts.device)
	if err != nil {
		return fmt.Errorf("opening audio input: %w", err)
	}

	defer source.Close()

	p, err := a.newPipeline(mode, source, startLabel)
	if err != nil {
		return err
	}

	if mode == pipeline.ModeEnroll {
		a.renderer.Progress(p.NextLabel())
	}

	return a.run(ctx, p, opts.configPath, cmd.Flags().Changed("threshold"))
}

func newTemplatesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List the commands and which have a recording",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(opts.cfg, afero.NewOsFs(), cmd.OutOrStdout())
			if err != nil {
				return err
			}

			defer a.Close()

			labels, err := a.store.Labels()
			if err != nil {
				return err
			}

			a.renderer.Templates(labels)

			return nil
		},
	}
}

func newPlayCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "play <label>",
		Short: "Play the recording of a command",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			label, err := strconv.Atoi(args[0])
			if err != nil || label < 1 || label > len(opts.cfg.Commands) {
				return fmt.Errorf("label must be a number from 1 to %d, got %q", len(opts.cfg.Commands), args[0])
			}

			a, err := newApp(opts.cfg, afero.NewOsFs(), cmd.OutOrStdout())
			if err != nil {
				return err
			}

			defer a.Close()

			if !a.store.Exists(label) {
				return fmt.Errorf("%w: %d", template_store.ErrMissingTemplate, label)
			}

			a.announcer.Play(a.store.Path(label, template_store.ExtWav))

			return nil
		},
	}
}

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List audio input devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			devices, err := audio_source.Devices()
			if err != nil {
				return err
			}

			for _, d := range devices {
				fmt.Fprintf(cmd.OutOrStdout(), "%3d  %-40s %d ch  %.0f Hz\n",
					d.Index, d.Name, d.MaxInputChannels, d.DefaultSampleRate)
			}

			return nil
		},
	}
}
