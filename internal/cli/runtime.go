package cli

import (
	"context"
	"fmt"
	"log/slog"

	"ruccli/internal/config"
	"ruccli/internal/infrastructure"
)

// Runtime is the per-process state of a command.
type Runtime struct {
	Tool      string
	Config    *config.Config
	Logger    *slog.Logger
	Paths     *config.Paths
	Telemetry *infrastructure.OTelProviders
}

// Bootstrap loads the configuration and sets up logging and telemetry for tool.
// An invalid configuration falls back to the defaults with a warning; the
// tools must still run from a bare directory.
func Bootstrap(tool string) (*Runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", slog.String("error", err.Error()))
		cfg = config.Default()
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", slog.String("error", err.Error()))
		logger = slog.Default()
	}
	logger = logger.With(slog.String("tool", tool))
	logger.Debug("Starting",
		slog.String("version", config.AppVersion),
		slog.String("build_time", config.BuildTime))

	paths, err := config.GetPaths()
	if err != nil {
		return nil, err
	}

	providers, err := infrastructure.InitializeOTel(infrastructure.NewOTelConfig(tool, cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	return &Runtime{
		Tool:      tool,
		Config:    cfg,
		Logger:    logger,
		Paths:     paths,
		Telemetry: providers,
	}, nil
}

// Context returns a background context carrying a fresh run id.
func (r *Runtime) Context() context.Context {
	return infrastructure.EnsureTraceID(context.Background())
}

// Close writes the metrics file when one is configured, then flushes
// telemetry and closes the log file. Failures are logged only.
func (r *Runtime) Close(ctx context.Context) {
	metricsFile := r.Paths.Resolve(r.Config.Telemetry.MetricsFile)
	if err := r.Telemetry.WriteMetricsFile(metricsFile); err != nil {
		r.Logger.WarnContext(ctx, "Metrics not written", slog.String("error", err.Error()))
	} else if metricsFile != "" {
		r.Logger.DebugContext(ctx, "Metrics written", slog.String("path", metricsFile))
	}
	if r.Telemetry != nil {
		if err := r.Telemetry.Shutdown(ctx); err != nil {
			r.Logger.WarnContext(ctx, "Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}
	_ = infrastructure.CloseLogFile()
}
