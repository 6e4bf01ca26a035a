package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"ruccli/internal/choropleth"
	"ruccli/internal/cli"
	"ruccli/internal/config"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run is main without the process exit, returning the exit code.
func run(args []string, stdout, stderr io.Writer) int {
	rt, err := cli.Bootstrap("choropleth")
	if err != nil {
		slog.Error("Failed to start", slog.String("error", err.Error()))
		return 1
	}
	ctx := rt.Context()
	defer rt.Close(ctx)

	cfg := rt.Config.Renderer
	if err := parseFlags(args, &cfg, stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	rt.Logger.InfoContext(ctx, "Starting choropleth rendering",
		slog.String("registry", cfg.RegistryPath),
		slog.String("boundaries", cfg.BoundaryPath),
		slog.String("province", cfg.Province))

	sum, err := choropleth.NewPipeline(cfg, rt.Logger,
		choropleth.WithPaths(rt.Paths),
		choropleth.WithTelemetry(rt.Telemetry),
		choropleth.WithOutput(stdout)).Run(ctx)
	if err != nil {
		rt.Logger.ErrorContext(ctx, "Rendering failed", slog.String("error", err.Error()))
		cli.ReportError(stderr, err)
		return 1
	}

	rt.Logger.InfoContext(ctx, "Rendering complete",
		slog.Int("records", sum.Records),
		slog.Int("regions", sum.Regions),
		slog.Int("unmatched", len(sum.Unmatched)),
		slog.Int("dropped", sum.Dropped),
		slog.String("chart", sum.ChartPath),
		slog.String("map", sum.MapPath))
	return 0
}

// parseFlags overrides the configured renderer settings with command-line flags.
func parseFlags(args []string, cfg *config.RendererConfig, stderr io.Writer) error {
	fs := flag.NewFlagSet("choropleth", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.RegistryPath, "registry", cfg.RegistryPath, "classified registry (xlsx or csv)")
	fs.StringVar(&cfg.BoundaryPath, "boundaries", cfg.BoundaryPath, "parish boundaries (GeoJSON)")
	fs.StringVar(&cfg.Province, "province", cfg.Province, "province to render")
	fs.StringVar(&cfg.ChartPath, "chart", cfg.ChartPath, "static chart output (PNG)")
	fs.StringVar(&cfg.MapPath, "map", cfg.MapPath, "web map output (HTML)")
	fs.Float64Var(&cfg.CenterLat, "lat", cfg.CenterLat, "web map centre latitude")
	fs.Float64Var(&cfg.CenterLon, "lon", cfg.CenterLon, "web map centre longitude")
	fs.IntVar(&cfg.Zoom, "zoom", cfg.Zoom, "web map initial zoom")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: choropleth [flags]\n\nRenders book sellers per parish as a chart and a web map.\n\n")
		fs.PrintDefaults()
	}
	return fs.Parse(args)
}
