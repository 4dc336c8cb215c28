package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/terminal-bench/paymentsengine/internal/config"
	"github.com/terminal-bench/paymentsengine/internal/csvio"
	"github.com/terminal-bench/paymentsengine/internal/engine"
	"github.com/terminal-bench/paymentsengine/internal/export"
	"github.com/terminal-bench/paymentsengine/internal/logging"
	"github.com/terminal-bench/paymentsengine/internal/processor"
	"github.com/terminal-bench/paymentsengine/pkg/circuit"
	"github.com/terminal-bench/paymentsengine/pkg/messaging"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

const usage = "usage: paymentsengine <transactions.csv>"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(exitError)
	}

	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(exitError)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], cfg, logger, os.Stdout, os.Stderr)
	stop()
	_ = logger.Sync()
	os.Exit(code)
}

func run(ctx context.Context, args []string, cfg config.Config, logger *zap.Logger, stdout, stderr io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(stderr, usage)
		return exitUsage
	}

	if err := process(ctx, args[0], cfg, logger, stdout); err != nil {
		logger.Error("run failed", zap.Error(err))
		return exitError
	}
	return exitOK
}

func process(ctx context.Context, path string, cfg config.Config, logger *zap.Logger, stdout io.Writer) error {
	sinks, closeSinks, err := buildSinks(ctx, cfg, logger, stdout)
	if err != nil {
		return err
	}
	defer closeSinks()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	reader, err := csvio.NewReader(f)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	opts, err := engineOptions(cfg, logger)
	if err != nil {
		return err
	}

	start := time.Now()
	res, err := engine.New(opts).Run(ctx, reader)
	if err != nil {
		return err
	}

	out := export.NewRun(res)
	logger.Info("run completed",
		zap.Stringer("run_id", out.ID),
		zap.Int("accounts", len(res.Accounts)),
		zap.Int("processed", res.Stats.Processed()),
		zap.Int("applied", res.Stats.TotalApplied()),
		zap.Int("rejected", res.Stats.TotalRejected()),
		zap.Int("malformed", res.Stats.Malformed),
		zap.Int("shards", opts.Shards),
		zap.Duration("elapsed", time.Since(start)),
	)

	return export.All(ctx, out, logger, sinks...)
}

func engineOptions(cfg config.Config, logger *zap.Logger) (engine.Options, error) {
	policy, err := engine.ParsePolicy(cfg.MalformedPolicy)
	if err != nil {
		return engine.Options{}, err
	}

	return engine.Options{
		Shards:    cfg.Shards,
		Buffer:    cfg.ShardBuffer,
		Policy:    policy,
		Processor: []processor.Option{processor.WithStrictDisputes(cfg.StrictDisputes)},
		Logger:    logger,
	}, nil
}

// buildSinks connects the optional sinks before any input is read, so a bad
// broker address fails the run early.
func buildSinks(ctx context.Context, cfg config.Config, logger *zap.Logger, stdout io.Writer) ([]export.Sink, func(), error) {
	sinks := []export.Sink{export.NewCSVSink(stdout)}
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.RedisEnabled() {
		client, err := export.DialRedis(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { _ = client.Close() })
		sinks = append(sinks, export.NewRedisSink(client, cfg.RedisKeyPrefix))
	}

	if cfg.NATSEnabled() {
		natsCfg := messaging.DefaultConfig(cfg.NATSURL)
		natsCfg.ConnectTimeout = cfg.NATSConnectTimeout
		client, err := messaging.NewClient(natsCfg)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, func() {
			if err := client.Close(); err != nil {
				logger.Warn("closing nats connection", zap.Error(err))
			}
		})

		breaker := circuit.NewBreaker(circuit.Config{
			Name:        "nats",
			MaxFailures: 3,
			Timeout:     10 * time.Second,
			OnStateChange: func(name string, from, to circuit.State) {
				logger.Warn("circuit breaker state changed",
					zap.String("breaker", name),
					zap.Stringer("from", from),
					zap.Stringer("to", to),
				)
			},
		})
		sinks = append(sinks, export.NewNATSSink(client, cfg.NATSSubject, breaker))
	}

	return sinks, closeAll, nil
}
