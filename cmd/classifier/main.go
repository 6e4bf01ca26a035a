package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"ruccli/internal/classify"
	"ruccli/internal/cli"
	"ruccli/internal/config"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run is main without the process exit, returning the exit code.
func run(args []string, stdout, stderr io.Writer) int {
	rt, err := cli.Bootstrap("classifier")
	if err != nil {
		slog.Error("Failed to start", slog.String("error", err.Error()))
		return 1
	}
	ctx := rt.Context()
	defer rt.Close(ctx)

	cfg := rt.Config.Classifier
	if err := parseFlags(args, &cfg, stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	rt.Logger.InfoContext(ctx, "Starting record classification",
		slog.String("input", cfg.InputPath),
		slog.String("output", cfg.OutputPath),
		slog.String("rules", cfg.RulesFile))

	sum, err := classify.NewPipeline(cfg, rt.Logger,
		classify.WithPaths(rt.Paths),
		classify.WithTelemetry(rt.Telemetry),
		classify.WithOutput(stdout)).Run(ctx)
	if err != nil {
		rt.Logger.ErrorContext(ctx, "Classification failed", slog.String("error", err.Error()))
		cli.ReportError(stderr, err)
		return 1
	}
	if sum.UsedFallback {
		cli.ReportFallback(stderr, cfg.OutputPath)
	}

	rt.Logger.InfoContext(ctx, "Classification complete",
		slog.Int("total", sum.Total),
		slog.Int("selected", sum.Selected),
		slog.String("output", sum.OutputPath))
	return 0
}

// parseFlags overrides the configured classifier settings with command-line flags.
func parseFlags(args []string, cfg *config.ClassifierConfig, stderr io.Writer) error {
	fs := flag.NewFlagSet("classifier", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.InputPath, "in", cfg.InputPath, "registry file (csv, txt or xlsx)")
	fs.StringVar(&cfg.Sheet, "sheet", cfg.Sheet, "worksheet to read from an xlsx registry (default: first)")
	fs.StringVar(&cfg.OutputPath, "out", cfg.OutputPath, "output workbook")
	fs.StringVar(&cfg.CSVOutputPath, "csv", cfg.CSVOutputPath, "optional CSV copy of the output")
	fs.StringVar(&cfg.RulesFile, "rules", cfg.RulesFile, "YAML file overriding the classification rules")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: classifier [flags]\n\nSelects book sellers from an SRI RUC registry export.\n\n")
		fs.PrintDefaults()
	}
	return fs.Parse(args)
}
