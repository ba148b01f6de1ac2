package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"fleetd.sh/internal/config"
	"fleetd.sh/internal/metrics"
	"fleetd.sh/internal/notify"
	"fleetd.sh/internal/observability"
	"fleetd.sh/internal/simulator"
	"fleetd.sh/internal/trace"
)

func newServeCmd() *cobra.Command {
	var (
		traceFile      string
		notifyAddr     string
		metricsAddr    string
		metricsEnabled bool
		jwtSecret      string
		logLevel       string
	)

	c := &cobra.Command{
		Use:   "serve",
		Short: "Replay a trace while serving live notifications and metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if cmd.Flags().Changed("notify-addr") {
				cfg.Notify.Addr = notifyAddr
			} else if cfg.Notify.Addr != "" {
				notifyAddr = cfg.Notify.Addr
			}
			if cmd.Flags().Changed("jwt-secret") {
				cfg.Notify.JWTSecret = jwtSecret
			} else {
				jwtSecret = cfg.Notify.JWTSecret
			}
			if !cmd.Flags().Changed("log-level") {
				logLevel = cfg.Log.Level
			}
			if cmd.Flags().Changed("metrics-addr") {
				cfg.Metrics.Addr = metricsAddr
			}
			if cmd.Flags().Changed("metrics-enabled") {
				cfg.Metrics.Enabled = metricsEnabled
			}

			sim := simulator.New(simulator.WithHooks(metrics.Hooks()))

			obs, err := observability.New(context.Background(), observability.Config{
				RunID:           sim.RunID(),
				MetricsEnabled:  cfg.Metrics.Enabled,
				MetricsAddr:     cfg.Metrics.Addr,
				LogLevel:        logLevel,
				LogFormat:       cfg.Log.Format,
				TracingEnabled:  cfg.Tracing.Enabled,
				TracingEndpoint: cfg.Tracing.Endpoint,
			})
			if err != nil {
				return fmt.Errorf("initializing observability: %w", err)
			}
			logger := obs.Logger
			defer obs.Shutdown(context.Background())

			srv := notify.NewServer(sim, logger, notify.Config{
				Addr:        notifyAddr,
				JWTSecret:   jwtSecret,
				CORSOrigins: cfg.Notify.CORSOrigins,
			})

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()

			if traceFile != "" {
				if err := replayFile(context.Background(), sim, obs.Tracer, traceFile); err != nil {
					logger.WithError(err).Error("replay failed")
				}
				sim.Finish()
			}

			select {
			case <-ctx.Done():
			case err := <-errCh:
				if err != nil {
					return err
				}
			}
			return srv.Shutdown(context.Background())
		},
	}

	c.Flags().StringVar(&traceFile, "trace-file", "", "trace file to replay before serving (optional)")
	c.Flags().StringVar(&notifyAddr, "notify-addr", ":8090", "notification server listen address")
	c.Flags().StringVar(&metricsAddr, "metrics-addr", ":9090", "metrics server listen address")
	c.Flags().BoolVar(&metricsEnabled, "metrics-enabled", false, "expose a Prometheus /metrics endpoint")
	c.Flags().StringVar(&jwtSecret, "jwt-secret", "", "bearer token secret required to connect (empty disables auth)")
	c.Flags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")

	return c
}

func replayFile(ctx context.Context, sim *simulator.Simulator, tracer *observability.Tracer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	reader := trace.NewReader(f)
	for {
		ev, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		spanCtx, span := tracer.StartEvent(ctx, string(ev.Kind()))
		err = sim.InputEvent(ev)
		observability.RecordError(spanCtx, err)
		span.End()
	}
}
