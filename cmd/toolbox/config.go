package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/toolbox/charset"
	toolerrors "github.com/wippyai/toolbox/errors"
)

const (
	defaultPath    = "x.txt"
	defaultMessage = "\nI was inserted by another stream!:)\n"
	envPrefix      = "TOOLBOX"
)

const (
	tuiAuto   = "auto"
	tuiAlways = "always"
	tuiNever  = "never"
)

type config struct {
	Path      string
	Message   string
	Encoding  string
	TUI       string
	Countdown int
	LogLevel  zapcore.Level
	Metrics   bool
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("config", "", "config file (yaml)")
	flags.String("path", defaultPath, "file the demo opens")
	flags.String("message", defaultMessage, "text the demo appends")
	flags.Int("countdown", 0, "seconds to count down before the demo (0 skips)")
	flags.String("encoding", "", "narrow encoding of input files (default: platform encoding)")
	flags.String("log-level", "warn", "log level: debug, info, warn, error")
	flags.String("tui", tuiAuto, "countdown view: auto, always, never")
	flags.Bool("metrics", false, "print timing histograms in Prometheus text format on exit")

	_ = v.BindPFlags(flags)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// loadConfig merges flags, TOOLBOX_* environment variables and the optional
// config file, in that order of precedence.
func loadConfig(v *viper.Viper) (config, error) {
	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return config{}, toolerrors.Wrap(toolerrors.PhaseConfig, toolerrors.KindInvalidInput, err, "read config "+file)
		}
	}

	cfg := config{
		Path:      v.GetString("path"),
		Message:   v.GetString("message"),
		Encoding:  v.GetString("encoding"),
		TUI:       strings.ToLower(v.GetString("tui")),
		Countdown: v.GetInt("countdown"),
		Metrics:   v.GetBool("metrics"),
	}

	level, err := zapcore.ParseLevel(v.GetString("log-level"))
	if err != nil {
		return config{}, toolerrors.Wrap(toolerrors.PhaseConfig, toolerrors.KindInvalidInput, err, "log level")
	}
	cfg.LogLevel = level

	switch cfg.TUI {
	case tuiAuto, tuiAlways, tuiNever:
	default:
		return config{}, toolerrors.InvalidInput(toolerrors.PhaseConfig, fmt.Sprintf("tui: unknown value %q", cfg.TUI))
	}
	if cfg.Path == "" {
		return config{}, toolerrors.InvalidInput(toolerrors.PhaseConfig, "path must not be empty")
	}
	if cfg.Countdown < 0 {
		return config{}, toolerrors.InvalidInput(toolerrors.PhaseConfig, fmt.Sprintf("countdown must not be negative: %d", cfg.Countdown))
	}
	if cfg.Encoding != "" {
		if _, err := charset.Lookup(cfg.Encoding); err != nil {
			return config{}, err
		}
	}
	return cfg, nil
}
