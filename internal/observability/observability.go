package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Config controls every observability subsystem the simulator wires up.
type Config struct {
	RunID string

	MetricsEnabled bool
	MetricsAddr    string

	LogLevel  string
	LogFormat string

	TracingEnabled  bool
	TracingEndpoint string
	TracingInsecure bool
}

// Observability bundles the logger and tracer a simulation run shares
// across its handlers, plus an optional Prometheus /metrics server.
type Observability struct {
	Logger *Logger
	Tracer *Tracer
	config Config

	metricsServer *http.Server
}

// New wires up logging, tracing, and (if enabled) a Prometheus server.
func New(ctx context.Context, config Config) (*Observability, error) {
	logger := InitLogger(LogConfig{
		Level:  config.LogLevel,
		Format: config.LogFormat,
		RunID:  config.RunID,
	})

	tracer, err := InitTracing(ctx, TracingConfig{
		ServiceName: "pajesim",
		RunID:       config.RunID,
		Endpoint:    config.TracingEndpoint,
		Insecure:    config.TracingInsecure,
		Enabled:     config.TracingEnabled,
	})
	if err != nil {
		logger.Error("failed to initialize tracing", zap.Error(err))
	}

	o := &Observability{Logger: logger, Tracer: tracer, config: config}

	if config.MetricsEnabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		o.metricsServer = &http.Server{Addr: config.MetricsAddr, Handler: mux}
		go func() {
			if err := o.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}

	return o, nil
}

// Shutdown stops the metrics server (if running) and flushes the tracer.
func (o *Observability) Shutdown(ctx context.Context) error {
	if o.metricsServer != nil {
		if err := o.metricsServer.Shutdown(ctx); err != nil {
			o.Logger.Error("failed to shut down metrics server", zap.Error(err))
		}
	}
	if o.Tracer != nil {
		if err := o.Tracer.Shutdown(ctx); err != nil {
			o.Logger.Error("failed to shutdown tracer", zap.Error(err))
			return err
		}
	}
	o.Logger.Info("observability shutdown complete")
	o.Logger.Sync()
	return nil
}
