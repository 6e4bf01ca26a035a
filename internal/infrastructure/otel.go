package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"ruccli/internal/config"
)

const (
	ServiceVersion = config.AppVersion
	MeterName      = "ruccli"
)

// OTelConfig holds OpenTelemetry configuration for one tool run.
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	TraceExporter  string // "stdout", "none"
	TraceWriter    io.Writer
	SampleRatio    float64
}

// OTelProviders holds the OpenTelemetry providers and the Prometheus registry
// the metrics are collected into.
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	Registry       *promclient.Registry
	Metrics        *PipelineMetrics
	Logger         *slog.Logger
}

// PipelineMetrics are the counters both tools report at the end of a run.
type PipelineMetrics struct {
	RecordsRead       metric.Int64Counter
	RecordsMatched    metric.Int64Counter
	RecordsWritten    metric.Int64Counter
	RegionsRendered   metric.Int64Counter
	GeometriesDropped metric.Int64Counter
	StageDuration     metric.Float64Histogram
}

// NewOTelConfig derives the OTel configuration for a tool from the telemetry section.
func NewOTelConfig(serviceName string, cfg config.TelemetryConfig) *OTelConfig {
	return &OTelConfig{
		ServiceName:    serviceName,
		ServiceVersion: ServiceVersion,
		TraceExporter:  cfg.TraceExporter,
		TraceWriter:    os.Stderr,
		SampleRatio:    cfg.SampleRatio,
	}
}

// InitializeOTel initializes tracing and metrics for a batch run.
func InitializeOTel(cfg *OTelConfig, logger *slog.Logger) (*OTelProviders, error) {
	if cfg == nil {
		cfg = NewOTelConfig(MeterName, config.Default().Telemetry)
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx := context.Background()

	res, err := createResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	providers := &OTelProviders{Logger: logger}

	if err := initializeTracing(ctx, cfg, res, providers); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	if err := initializeMetrics(ctx, cfg, res, providers); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	logger.DebugContext(ctx, "OpenTelemetry initialization complete",
		slog.String("service", cfg.ServiceName),
		slog.String("trace_exporter", cfg.TraceExporter))

	return providers, nil
}

// createResource creates the OpenTelemetry resource
func createResource(cfg *OTelConfig) (*resource.Resource, error) {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
	), nil
}

// initializeTracing sets up OpenTelemetry tracing
func initializeTracing(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	switch cfg.TraceExporter {
	case "stdout":
		w := cfg.TraceWriter
		if w == nil {
			w = os.Stderr
		}
		exporter, err := stdouttrace.New(
			stdouttrace.WithWriter(w),
			stdouttrace.WithPrettyPrint(),
		)
		if err != nil {
			return fmt.Errorf("failed to create trace exporter: %w", err)
		}

		// Synchronous export: the process exits right after the last stage.
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithSyncer(exporter),
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
		)
		providers.TracerProvider = tp
		providers.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(cfg.ServiceVersion))
		otel.SetTracerProvider(tp)

		providers.Logger.DebugContext(ctx, "Tracing initialized",
			slog.String("exporter", cfg.TraceExporter),
			slog.Float64("sample_ratio", cfg.SampleRatio))
	case "none", "":
		providers.Tracer = noop.NewTracerProvider().Tracer(MeterName)
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}
	return nil
}

// initializeMetrics sets up OpenTelemetry metrics backed by a private
// Prometheus registry, so the run can be dumped to a textfile.
func initializeMetrics(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	registry := promclient.NewRegistry()

	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)

	providers.Registry = registry
	providers.MeterProvider = mp
	providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(cfg.ServiceVersion))

	metrics, err := CreatePipelineMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("failed to create pipeline metrics: %w", err)
	}
	providers.Metrics = metrics

	providers.Logger.DebugContext(ctx, "Metrics initialized")
	return nil
}

// CreatePipelineMetrics creates the run counters on meter.
func CreatePipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	recordsRead, err := meter.Int64Counter(
		"ruccli_records_read",
		metric.WithDescription("Registry records loaded from the input file"),
	)
	if err != nil {
		return nil, err
	}

	recordsMatched, err := meter.Int64Counter(
		"ruccli_records_matched",
		metric.WithDescription("Registry records matched, by classification path"),
	)
	if err != nil {
		return nil, err
	}

	recordsWritten, err := meter.Int64Counter(
		"ruccli_records_written",
		metric.WithDescription("Records written to the output workbook"),
	)
	if err != nil {
		return nil, err
	}

	regionsRendered, err := meter.Int64Counter(
		"ruccli_regions_rendered",
		metric.WithDescription("Boundary polygons rendered, by output"),
	)
	if err != nil {
		return nil, err
	}

	geometriesDropped, err := meter.Int64Counter(
		"ruccli_geometries_dropped",
		metric.WithDescription("Boundary polygons dropped after geometry repair"),
	)
	if err != nil {
		return nil, err
	}

	stageDuration, err := meter.Float64Histogram(
		"ruccli_stage_duration",
		metric.WithDescription("Pipeline stage duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		RecordsRead:       recordsRead,
		RecordsMatched:    recordsMatched,
		RecordsWritten:    recordsWritten,
		RegionsRendered:   regionsRendered,
		GeometriesDropped: geometriesDropped,
		StageDuration:     stageDuration,
	}, nil
}

// StartStage opens a span for a pipeline stage. The returned func ends the span,
// records the error on it and observes the stage duration.
func (p *OTelProviders) StartStage(ctx context.Context, stage string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := p.Tracer.Start(ctx, stage, trace.WithAttributes(attribute.String("stage", stage)))

	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		p.Metrics.StageDuration.Record(ctx, time.Since(start).Seconds(),
			metric.WithAttributes(attribute.String("stage", stage)))
	}
}

// RunStage runs fn as a pipeline stage. A nil receiver runs fn untraced, so
// callers need not check whether telemetry was initialized.
func (p *OTelProviders) RunStage(ctx context.Context, stage string, fn func(context.Context) error) error {
	if p == nil || p.Tracer == nil || p.Metrics == nil {
		return fn(ctx)
	}
	ctx, end := p.StartStage(ctx, stage)
	err := fn(ctx)
	end(err)
	return err
}

// Record calls fn with the run metrics; it does nothing on a nil receiver.
func (p *OTelProviders) Record(fn func(*PipelineMetrics)) {
	if p == nil || p.Metrics == nil {
		return
	}
	fn(p.Metrics)
}

// WriteMetricsFile writes the collected metrics in the Prometheus text format,
// suitable for the node-exporter textfile collector.
func (p *OTelProviders) WriteMetricsFile(path string) error {
	if p == nil || path == "" {
		return nil
	}
	if err := promclient.WriteToTextfile(path, p.Registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}

// Shutdown flushes and stops the providers.
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var firstErr error
	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			firstErr = fmt.Errorf("failed to shutdown tracer provider: %w", err)
		}
	}
	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to shutdown meter provider: %w", err)
		}
	}
	return firstErr
}

// TraceIDFromContext returns the OpenTelemetry trace ID of the span in ctx, if any.
func TraceIDFromContext(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
