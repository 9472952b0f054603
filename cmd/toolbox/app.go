package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/toolbox/resource"
	"github.com/wippyai/toolbox/stream"
	"github.com/wippyai/toolbox/timing"
)

type app struct {
	v      *viper.Viper
	stdout io.Writer
	stderr io.Writer
	logger *zap.Logger
	table  *resource.Table
	timer  *timing.Timer
	reg    *prometheus.Registry
	cfg    config
	tick   time.Duration
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		v:      viper.New(),
		stdout: stdout,
		stderr: stderr,
		logger: zap.NewNop(),
		tick:   time.Second,
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "toolbox",
		Short:         "Timed execution and scoped file streams",
		Long:          `toolbox opens a file for narrow-encoded reading, reports whether it is open and appends a UTF-8 message to it.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.setup()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runDemo(cmd.Context())
		},
	}
	bindFlags(a.v, root)

	root.AddCommand(
		&cobra.Command{
			Use:   "cat <path>",
			Short: "Print a file decoded from the narrow encoding",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				return a.runCat(args[0])
			},
		},
		&cobra.Command{
			Use:   "append <path> <text>",
			Short: "Append UTF-8 text to a file",
			Args:  cobra.ExactArgs(2),
			RunE: func(_ *cobra.Command, args []string) error {
				return a.runAppend(args[0], args[1])
			},
		},
	)
	return root
}

func (a *app) setup() error {
	cfg, err := loadConfig(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = newLogger(cfg.LogLevel, a.stderr)
	stream.SetLogger(a.logger.Named("stream"))

	a.table = resource.NewTable()
	a.table.Subscribe(resource.NewLogObserver(a.logger.Named("resource")))

	var obs timing.Observer = timing.NewLogObserver(a.logger.Named("timing"))
	if cfg.Metrics {
		hist := timing.NewHistogram("toolbox")
		a.reg = prometheus.NewRegistry()
		a.reg.MustRegister(hist)
		obs = timing.Observers(obs, timing.NewHistogramObserver(hist))
	}
	a.timer = timing.NewTimer(timing.WithObserver(obs))
	return nil
}

// teardown releases anything a command left open and flushes the logger.
func (a *app) teardown() error {
	var err error
	if a.table != nil {
		a.table.Each(func(h resource.Handle, typeID resource.TypeID, v any) bool {
			fields := []zap.Field{zap.Uint32("handle", uint32(h)), zap.Stringer("type", typeID)}
			if n, ok := v.(interface{ Name() string }); ok {
				fields = append(fields, zap.String("path", n.Name()))
			}
			a.logger.Warn("releasing leftover handle", fields...)
			return true
		})
		err = a.table.Close()
	}
	if a.reg != nil {
		err = multierr.Append(err, a.writeMetrics())
	}
	stream.SetLogger(nil)
	_ = a.logger.Sync()
	return err
}

// writeMetrics dumps the timing histograms to stderr in the Prometheus text format.
func (a *app) writeMetrics() error {
	families, err := a.reg.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(a.stderr, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) streamOpts() []stream.Option {
	opts := []stream.Option{stream.WithTable(a.table)}
	if a.cfg.Encoding != "" {
		opts = append(opts, stream.WithEncodingName(a.cfg.Encoding))
	}
	return opts
}

func (a *app) runDemo(ctx context.Context) error {
	if a.cfg.Countdown > 0 {
		tui := useTUI(a.cfg.TUI, a.stdout)
		var err error
		elapsed := a.timer.Named("countdown").Measure(func() {
			err = countdown(ctx, a.stdout, a.cfg.Countdown, a.tick, tui)
		})
		if err != nil {
			return err
		}
		a.logger.Info("countdown finished", zap.Int("seconds", a.cfg.Countdown), zap.Float64("elapsed", elapsed))
	}

	path := a.cfg.Path
	in := stream.NewInputStream(a.streamOpts()...)
	openErr := in.Open(path, stream.ModeRead)
	if in.IsOpen() {
		fmt.Fprintf(a.stdout, "%s file is open.\n", path)
	} else {
		fmt.Fprintf(a.stdout, "%s file is not open!\n", path)
		a.logger.Debug("input open failed", zap.Error(openErr))
	}

	n, elapsed, err := timing.Err(a.timer.Named("append"), func() (int, error) {
		return a.appendText(path, a.cfg.Message)
	})
	err = multierr.Append(err, in.Close())
	if err != nil {
		return err
	}
	a.logger.Info("message appended", zap.String("path", path), zap.Int("bytes", n), zap.Float64("elapsed", elapsed))
	return nil
}

func (a *app) appendText(path, text string) (int, error) {
	var n int
	err := stream.WithOutput(path, stream.ModeAppend, func(out *stream.OutputStream) error {
		var err error
		n, err = out.WriteString(text)
		return err
	}, a.streamOpts()...)
	return n, err
}

func (a *app) runCat(path string) error {
	text, elapsed, err := timing.Err(a.timer.Named("cat"), func() (string, error) {
		return stream.ReadFile(path, a.streamOpts()...)
	})
	if err != nil {
		return err
	}
	fmt.Fprint(a.stdout, text)
	a.logger.Info("file read", zap.String("path", path), zap.Int("bytes", len(text)), zap.Float64("elapsed", elapsed))
	return nil
}

func (a *app) runAppend(path, text string) error {
	n, elapsed, err := timing.Err(a.timer.Named("append"), func() (int, error) {
		return a.appendText(path, text)
	})
	if err != nil {
		return err
	}
	a.logger.Info("text appended", zap.String("path", path), zap.Int("bytes", n), zap.Float64("elapsed", elapsed))
	return nil
}
