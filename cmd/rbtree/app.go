package main

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/benz9527/xrbtree/config"
	"github.com/benz9527/xrbtree/lib/tree"
	"github.com/benz9527/xrbtree/observability"
	"github.com/benz9527/xrbtree/shell"
	"github.com/benz9527/xrbtree/soak"
	"github.com/benz9527/xrbtree/xlog"
)

// console is the interactive input and the report output. Logs and
// metrics never go to out in shell mode.
type console struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

type banner struct {
	mode string
}

func (b banner) JSON() string {
	return fmt.Sprintf(`{"app":"rbtree","mode":%q}`, b.mode)
}

func (b banner) PlainText() string {
	return "rbtree red-black tree console, mode " + b.mode
}

func newLogger(cfg *config.Config, c console, lc fx.Lifecycle) (xlog.XLogger, error) {
	tsEnc, err := xlog.ParseTimeEncoder(cfg.Log.Time)
	if err != nil {
		return nil, err
	}
	logger := xlog.NewXLogger(
		xlog.WithXLoggerLevelName(cfg.Log.Level),
		xlog.WithXLoggerEncoderName(cfg.Log.Encoder),
		xlog.WithXLoggerLevelEncoder(xlog.LevelEncoder(cfg.Log.Color)),
		xlog.WithXLoggerTimeEncoder(tsEnc),
		xlog.WithXLoggerWriter(c.errOut),
	)
	logger.Banner(banner{mode: cfg.Mode})
	lc.Append(fx.StopHook(func() {
		_ = logger.Sync()
	}))
	return logger, nil
}

func newTreeStats(cfg *config.Config, c console, logger xlog.XLogger, lc fx.Lifecycle) (*observability.TreeStats, error) {
	if !cfg.Metrics.Enabled {
		return observability.NewTreeStats(nil), nil
	}

	var (
		shutdown observability.ShutdownFunc
		err      error
	)
	switch cfg.Metrics.Exporter {
	case config.ExporterPrometheus:
		shutdown, err = observability.NewPrometheusMetricsExporter(cfg.Metrics.Listen)
	default:
		w := c.errOut
		if cfg.Mode == config.ModeSoak {
			w = c.out
		}
		shutdown, err = observability.NewConsoleMetricsExporter(w, cfg.Metrics.Interval)
	}
	if err != nil {
		return nil, err
	}
	if err = observability.StartRuntimeStats(cfg.Metrics.Interval); err != nil {
		logger.ErrorStack(err, "runtime stats not started")
	}
	logger.Info("metrics enabled", zap.String("exporter", cfg.Metrics.Exporter))
	lc.Append(fx.StopHook(func(ctx context.Context) error {
		return shutdown(ctx)
	}))
	return observability.NewTreeStats(nil), nil
}

func newTree() tree.RBTree[int] {
	return tree.NewRBTree[int]()
}

func newShell(t tree.RBTree[int], c console, logger xlog.XLogger, stats *observability.TreeStats) *shell.Shell {
	return shell.New(t, c.in, c.out, logger, stats)
}

func soakConfig(cfg *config.Config) soak.Config {
	return soak.Config{
		Workers:  cfg.Soak.Workers,
		Rounds:   cfg.Soak.Rounds,
		Ops:      cfg.Soak.Ops,
		Keyspace: cfg.Soak.Keyspace,
		Check:    cfg.Soak.Check,
		Seed:     cfg.Soak.Seed,
	}
}

type runParams struct {
	fx.In

	Cfg        *config.Config
	Console    console
	Logger     xlog.XLogger
	Stats      *observability.TreeStats
	Shell      *shell.Shell
	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
}

func runMode(ctx context.Context, p runParams) int {
	switch p.Cfg.Mode {
	case config.ModeSoak:
		rep, err := soak.Run(ctx, soakConfig(p.Cfg), p.Logger, p.Stats)
		_, _ = fmt.Fprintf(p.Console.out,
			"soak seed %d: %d/%d rounds passed, %d inserts, %d deletes, %d searches, %d checks, max %d nodes in %s\n",
			rep.Seed, rep.Rounds-rep.Failed, rep.Rounds, rep.Inserts, rep.Deletes, rep.Searches,
			rep.Checks, rep.MaxNodes, rep.Elapsed)
		if err != nil {
			p.Logger.ErrorStack(err, "soak failed")
			return 1
		}
	default:
		if err := p.Shell.Run(ctx); err != nil {
			p.Logger.ErrorStack(err, "shell stopped")
			return 1
		}
	}
	return 0
}

// register runs the configured mode once the app started and shuts
// the app down with its exit code. The shell blocks on the input, so
// OnStop only waits for the soak run.
func register(p runParams) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				code := runMode(ctx, p)
				if err := p.Shutdowner.Shutdown(fx.ExitCode(code)); err != nil {
					p.Logger.Error(err, "shutdown")
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			if p.Cfg.Mode != config.ModeSoak {
				return nil
			}
			select {
			case <-done:
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
			return nil
		},
	})
}

func newApp(cfg *config.Config, c console, opts ...fx.Option) *fx.App {
	return fx.New(append([]fx.Option{
		fx.Supply(cfg, c),
		fx.WithLogger(func(logger xlog.XLogger) fxevent.Logger {
			return xlog.NewFxXLogger(logger)
		}),
		fx.Provide(
			newLogger,
			newTreeStats,
			newTree,
			newShell,
		),
		fx.Invoke(register),
	}, opts...)...)
}
