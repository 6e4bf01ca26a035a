package classify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"ruccli/internal/config"
	"ruccli/internal/exporter"
	"ruccli/internal/files"
	"ruccli/internal/infrastructure"
	"ruccli/internal/registry"
	"ruccli/internal/validation"
)

// Summary reports one classifier run.
type Summary struct {
	Total        int
	Selected     int
	TextMatches  int
	CodeMatches  int
	Excluded     int
	OutputPath   string
	CSVPath      string
	UsedFallback bool
}

// Pipeline loads the registry, classifies it and writes the selection.
type Pipeline struct {
	cfg       config.ClassifierConfig
	paths     *config.Paths
	logger    *slog.Logger
	telemetry *infrastructure.OTelProviders
	writer    *files.SafeWriter
	out       io.Writer
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithTelemetry records stage spans and run metrics on providers.
func WithTelemetry(providers *infrastructure.OTelProviders) PipelineOption {
	return func(p *Pipeline) { p.telemetry = providers }
}

// WithOutput redirects the console lines, stdout by default.
func WithOutput(w io.Writer) PipelineOption {
	return func(p *Pipeline) { p.out = w }
}

// WithPaths resolves relative paths against paths instead of the working directory.
func WithPaths(paths *config.Paths) PipelineOption {
	return func(p *Pipeline) { p.paths = paths }
}

// WithWriter replaces the output writer.
func WithWriter(w *files.SafeWriter) PipelineOption {
	return func(p *Pipeline) { p.writer = w }
}

// NewPipeline creates a classifier pipeline for cfg.
func NewPipeline(cfg config.ClassifierConfig, logger *slog.Logger, opts ...PipelineOption) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{cfg: cfg, logger: logger, out: os.Stdout}
	for _, opt := range opts {
		opt(p)
	}
	if p.paths == nil {
		p.paths = config.NewPaths(".")
	}
	if p.writer == nil {
		p.writer = files.NewSafeWriter(cfg.TempFileName, logger)
	}
	return p
}

// Run executes the classifier. The workbook is serialized in memory before
// the output file is touched, so a failed run never leaves it truncated.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	cfg := p.cfg
	sum := &Summary{OutputPath: p.paths.Resolve(cfg.OutputPath)}
	if cfg.CSVOutputPath != "" {
		sum.CSVPath = p.paths.Resolve(cfg.CSVOutputPath)
	}

	err := p.telemetry.RunStage(ctx, "validate", func(ctx context.Context) error {
		v := validation.NewFileValidator(p.logger)
		if err := v.ValidateInput(p.paths.Resolve(cfg.InputPath), validation.RegistryExtensions...); err != nil {
			return err
		}
		if err := v.ValidateOutput(sum.OutputPath, ".xlsx"); err != nil {
			return err
		}
		if sum.CSVPath != "" {
			return v.ValidateOutput(sum.CSVPath, ".csv")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var classifier *Classifier
	err = p.telemetry.RunStage(ctx, "load_rules", func(ctx context.Context) error {
		rules, err := LoadRules(p.paths.Resolve(cfg.RulesFile))
		if err != nil {
			return err
		}
		classifier, err = Compile(rules)
		return err
	})
	if err != nil {
		return nil, err
	}
	classifier.WithLogger(p.logger)

	var table *registry.Table
	err = p.telemetry.RunStage(ctx, "load_registry", func(ctx context.Context) error {
		var err error
		table, err = registry.Load(p.paths.Resolve(cfg.InputPath), registry.LoadOptions{
			Sheet:    cfg.Sheet,
			Required: []string{cfg.DescriptionColumn, cfg.CodeColumn},
			Logger:   p.logger,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	var res *Result
	err = p.telemetry.RunStage(ctx, "classify", func(ctx context.Context) error {
		var err error
		res, err = classifier.Classify(table, Columns{Description: cfg.DescriptionColumn, Code: cfg.CodeColumn})
		return err
	})
	if err != nil {
		return nil, err
	}
	sum.Total = res.Total
	sum.Selected = res.Table.Len()
	sum.TextMatches = res.TextMatches
	sum.CodeMatches = res.CodeMatches
	sum.Excluded = res.Excluded

	p.telemetry.Record(func(m *infrastructure.PipelineMetrics) {
		tool := attribute.String("tool", "classifier")
		m.RecordsRead.Add(ctx, int64(res.Total), metric.WithAttributes(tool))
		m.RecordsMatched.Add(ctx, int64(res.TextMatches), metric.WithAttributes(tool, attribute.String("path", "text")))
		m.RecordsMatched.Add(ctx, int64(res.CodeMatches), metric.WithAttributes(tool, attribute.String("path", "code")))
	})

	fmt.Fprintf(p.out, "Número de vendedores de libros encontrados: %d\n", sum.Selected)

	err = p.telemetry.RunStage(ctx, "write_output", func(ctx context.Context) error {
		data, err := exporter.XLSX(res.Table, cfg.OutputSheet)
		if err != nil {
			return err
		}
		written, err := p.writer.Write(sum.OutputPath, data)
		if err != nil {
			return err
		}
		sum.UsedFallback = written.UsedFallback

		if sum.CSVPath == "" {
			return nil
		}
		data, err = exporter.CSV(res.Table)
		if err != nil {
			return err
		}
		_, err = p.writer.Write(sum.CSVPath, data)
		return err
	})
	if err != nil {
		return nil, err
	}

	p.telemetry.Record(func(m *infrastructure.PipelineMetrics) {
		m.RecordsWritten.Add(ctx, int64(sum.Selected))
	})

	fmt.Fprintf(p.out, "Archivo generado correctamente: %s\n", cfg.OutputPath)
	return sum, nil
}
