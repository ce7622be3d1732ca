// Package cli is the command line surface of the recognizer.
package cli

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"voice-command-recognition/config"
)

var logLevelMap = map[config.LogLevel]slog.Level{
	config.LogDebug: slog.LevelDebug,
	config.LogInfo:  slog.LevelInfo,
	config.LogWarn:  slog.LevelWarn,
	config.LogError: slog.LevelError,
}

type options struct {
	configPath  string
	envPath     string
	logLevel    string
	threshold   string
	storeDir    string
	input       string
	metricsAddr string
	mute        bool
	device      int

	cfg *config.Config
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "vcr",
		Short: "Template based voice command recognizer",
		Long: `vcr - recognizes a small fixed vocabulary of spoken commands.

Record one template per command first, then recognize:
  vcr enroll
  vcr recognize

Replay a recording instead of using the microphone:
  vcr recognize --input take.wav`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts, cmd.Flags())
			if err != nil {
				return err
			}

			opts.cfg = cfg
			initLogger(cmd.ErrOrStderr(), cfg.LogLevel)

			return nil
		},
	}

	addGlobalFlags(cmd.PersistentFlags(), opts)

	cmd.AddCommand(
		newEnrollCmd(opts),
		newRecognizeCmd(opts),
		newTemplatesCmd(opts),
		newPlayCmd(opts),
		newDevicesCmd(),
	)

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func addGlobalFlags(fs *pflag.FlagSet, opts *options) {
	fs.StringVarP(&opts.configPath, "config", "c", "", "YAML config file, watched for threshold changes")
	fs.StringVarP(&opts.envPath, "env", "e", ".env", "env file path")
	fs.StringVarP(&opts.logLevel, "log-level", "l", "info", "log level (debug, info, warn, error)")
	fs.StringVar(&opts.threshold, "threshold", "", "trigger peak amplitude")
	fs.StringVar(&opts.storeDir, "store-dir", "", "directory holding the templates")
	fs.StringVarP(&opts.input, "input", "i", "", "replay a wav file instead of the microphone")
	fs.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	fs.BoolVar(&opts.mute, "mute", false, "log spoken feedback instead of playing it")
	fs.IntVar(&opts.device, "device", -1, "input device index, see 'vcr devices'")
}

// loadConfig layers the config file, the environment and explicit flags.
func loadConfig(opts *options, flags *pflag.FlagSet) (*config.Config, error) {
	cfg := config.Default()

	if opts.configPath != "" {
		var err error

		cfg, err = config.Load(opts.configPath)
		if err != nil {
			return nil, err
		}
	}

	if err := config.LoadEnv(opts.envPath, cfg); err != nil {
		return nil, err
	}

	applyFlags(cfg, opts, flags)

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyFlags(cfg *config.Config, opts *options, flags *pflag.FlagSet) {
	if flags.Changed("log-level") {
		cfg.LogLevel = config.LogLevel(opts.logLevel)
	}
	if flags.Changed("threshold") {
		cfg.Trigger.Threshold = opts.threshold
	}
	if flags.Changed("store-dir") {
		cfg.Store.Dir = opts.storeDir
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = opts.metricsAddr
	}
	if flags.Changed("mute") {
		cfg.Announcer.Mute = opts.mute
	}
}

func initLogger(w io.Writer, level config.LogLevel) {
	if w == nil {
		w = os.Stderr
	}

	slog.SetDefault(slog.New(tint.NewHandler(w, &tint.Options{
		Level:      logLevelMap[level],
		TimeFormat: time.Kitchen,
	})))
}
