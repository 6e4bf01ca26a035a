// Package infrastructure provides the ambient runtime for the command-line
// tools: the structured slog logger (JSON or text, console/file/both, with the
// run's trace ID injected from context), the per-run UUID, and OpenTelemetry
// tracing and metrics. Metrics are collected into a private Prometheus registry
// and can be written to a textfile at the end of a run.
package infrastructure
