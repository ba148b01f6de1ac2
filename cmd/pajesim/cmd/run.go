package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"fleetd.sh/internal/config"
	"fleetd.sh/internal/metrics"
	"fleetd.sh/internal/observability"
	"fleetd.sh/internal/simerrors"
	"fleetd.sh/internal/simulator"
	"fleetd.sh/internal/trace"
)

func newRunCmd() *cobra.Command {
	var (
		stopAt     float64
		replayRate float64
		dumpAfter  bool
		logLevel   string
		logFormat  string
	)

	c := &cobra.Command{
		Use:   "run <trace-file>",
		Short: "Replay a trace file through the simulator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if !cmd.Flags().Changed("log-level") {
				logLevel = cfg.Log.Level
			}
			if !cmd.Flags().Changed("log-format") {
				logFormat = cfg.Log.Format
			}
			if !cmd.Flags().Changed("replay-rate") && cfg.Simulation.IngestRateHz > 0 {
				replayRate = cfg.Simulation.IngestRateHz
			}

			opts := []simulator.Option{simulator.WithHooks(metrics.Hooks())}
			if cmd.Flags().Changed("stop-at") {
				opts = append(opts, simulator.WithStopAt(stopAt))
			} else if cfg.Simulation.StopAt != nil {
				opts = append(opts, simulator.WithStopAt(*cfg.Simulation.StopAt))
			}
			sim := simulator.New(opts...)

			ctx := context.Background()
			obs, err := observability.New(ctx, observability.Config{
				RunID:           sim.RunID(),
				LogLevel:        logLevel,
				LogFormat:       logFormat,
				TracingEnabled:  cfg.Tracing.Enabled,
				TracingEndpoint: cfg.Tracing.Endpoint,
			})
			if err != nil {
				return fmt.Errorf("initializing observability: %w", err)
			}
			logger := obs.Logger
			defer obs.Shutdown(ctx)
			logger.Info("starting replay", zap.String("trace_file", args[0]), zap.String("run_id", sim.RunID()))

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening trace file: %w", err)
			}
			defer f.Close()

			total, err := countLines(args[0])
			if err != nil {
				return err
			}
			bar := progressbar.NewOptions(total,
				progressbar.OptionSetDescription("replaying"),
				progressbar.OptionSetWriter(os.Stdout),
				progressbar.OptionShowCount(),
				progressbar.OptionOnCompletion(func() { fmt.Fprintln(os.Stdout) }),
			)

			var limiter *rate.Limiter
			if replayRate > 0 {
				limiter = rate.NewLimiter(rate.Limit(replayRate), 1)
			}

			reader := trace.NewReader(f)
			accepted, rejected := 0, 0
			for {
				ev, err := reader.Next()
				if err == io.EOF {
					break
				}
				if err != nil {
					return fmt.Errorf("parsing trace: %w", err)
				}

				if limiter != nil {
					if err := limiter.Wait(ctx); err != nil {
						return err
					}
				}

				spanCtx, span := obs.Tracer.StartEvent(ctx, string(ev.Kind()))
				err = sim.InputEvent(ev)
				observability.RecordError(spanCtx, err)
				span.End()

				if err != nil {
					rejected++
					metrics.RecordEventError(string(simerrors.GetKind(err)))
					fmt.Fprintln(os.Stderr, red(err.Error()))
				} else {
					accepted++
				}
				bar.Add(1)
			}

			if err := sim.Finish(); err != nil {
				fmt.Fprintln(os.Stderr, red("finish: "+err.Error()))
				logger.WithError(err).Error("finish reported unresolved state")
			}

			logger.Info("replay complete", zap.Int("accepted", accepted), zap.Int("rejected", rejected))
			fmt.Printf("%s accepted=%d rejected=%d run_id=%s\n", green("done"), accepted, rejected, sim.RunID())

			if dumpAfter {
				return sim.DumpTree(os.Stdout)
			}
			return nil
		},
	}

	c.Flags().Float64Var(&stopAt, "stop-at", 0, "close the model at this time instead of the last observed event time")
	c.Flags().Float64Var(&replayRate, "replay-rate", 0, "throttle replay to this many events/sec (0 disables pacing)")
	c.Flags().BoolVar(&dumpAfter, "dump", false, "dump the container tree after replay")
	c.Flags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	c.Flags().StringVar(&logFormat, "log-format", "console", "log format: console, json")

	return c
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	n := 0
	for scanner.Scan() {
		n++
	}
	return n, scanner.Err()
}
