package choropleth

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/text/language"

	"ruccli/internal/config"
	"ruccli/internal/files"
	"ruccli/internal/geo"
	"ruccli/internal/infrastructure"
	"ruccli/internal/registry"
	"ruccli/internal/validation"
)

// Summary reports one renderer run.
type Summary struct {
	Records   int
	Counted   int
	Skipped   int
	Regions   int
	Unmatched []Key
	Dropped   int
	ChartPath string
	MapPath   string
}

// Pipeline joins the filtered registry to the province boundaries and writes
// the static chart and the web map.
type Pipeline struct {
	cfg       config.RendererConfig
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

// WithOutput redirects the console summary, stdout by default.
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

// NewPipeline creates a renderer pipeline for cfg.
func NewPipeline(cfg config.RendererConfig, logger *slog.Logger, opts ...PipelineOption) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{
		cfg:    cfg,
		logger: logger,
		out:    os.Stdout,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.paths == nil {
		p.paths = config.NewPaths(".")
	}
	if p.writer == nil {
		p.writer = files.NewSafeWriter(config.DefaultTempOutput, logger)
	}
	return p
}

// Run executes every stage in order. Any error is fatal for the run; invalid
// geometries are repaired or dropped and never fail it.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	cfg := p.cfg
	sum := &Summary{
		ChartPath: p.paths.Resolve(cfg.ChartPath),
		MapPath:   p.paths.Resolve(cfg.MapPath),
	}

	err := p.stage(ctx, "validate", func(ctx context.Context) error {
		v := validation.NewFileValidator(p.logger)
		if err := v.ValidateInput(p.paths.Resolve(cfg.RegistryPath), validation.RegistryExtensions...); err != nil {
			return err
		}
		if err := v.ValidateInput(p.paths.Resolve(cfg.BoundaryPath), validation.BoundaryExtensions...); err != nil {
			return err
		}
		if err := v.ValidateOutput(sum.ChartPath, ".png"); err != nil {
			return err
		}
		return v.ValidateOutput(sum.MapPath, ".html", ".htm")
	})
	if err != nil {
		return nil, err
	}

	var table *registry.Table
	err = p.stage(ctx, "load_registry", func(ctx context.Context) error {
		var err error
		table, err = registry.Load(p.paths.Resolve(cfg.RegistryPath), registry.LoadOptions{
			Required: []string{cfg.CantonColumn, cfg.ParishColumn},
			Logger:   p.logger,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	sum.Records = table.Len()
	p.telemetry.Record(func(m *infrastructure.PipelineMetrics) {
		m.RecordsRead.Add(ctx, int64(sum.Records), metric.WithAttributes(attribute.String("tool", "choropleth")))
	})

	var boundaries *geo.Collection
	err = p.stage(ctx, "load_boundaries", func(ctx context.Context) error {
		all, err := geo.LoadBoundaries(p.paths.Resolve(cfg.BoundaryPath), p.logger)
		if err != nil {
			return err
		}
		boundaries, err = all.FilterProvince(cfg.ProvinceField, cfg.Province)
		if err != nil {
			return err
		}
		boundaries.NormalizeKeys(cfg.CantonField, cfg.ParishField)
		return nil
	})
	if err != nil {
		return nil, err
	}

	var counts Counts
	err = p.stage(ctx, "aggregate", func(ctx context.Context) error {
		var err error
		counts, sum.Skipped, err = Aggregate(table, cfg.CantonColumn, cfg.ParishColumn)
		return err
	})
	if err != nil {
		return nil, err
	}
	if sum.Skipped > 0 {
		p.logger.WarnContext(ctx, "Records without canton or parish not counted", slog.Int("skipped", sum.Skipped))
	}

	sum.Counted = counts.Total()

	fields := JoinFields{Canton: cfg.CantonField, Parish: cfg.ParishField}
	regions, unmatched := Join(boundaries, counts, fields)
	sum.Unmatched = unmatched
	sum.Regions = len(regions)
	for _, k := range unmatched {
		p.logger.WarnContext(ctx, "Registry parish matched no boundary",
			slog.String("canton", k.Canton),
			slog.String("parish", k.Parish),
			slog.Int("records", counts[k]))
	}
	p.logger.InfoContext(ctx, "Registry joined to boundaries",
		slog.Int("regions", len(regions)),
		slog.Int("keys", len(counts)),
		slog.Int("counted", sum.Counted),
		slog.Int("unmatched", len(unmatched)))

	err = p.stage(ctx, "render_static", func(ctx context.Context) error {
		png, err := RenderStatic(regions, p.staticOptions())
		if err != nil {
			return err
		}
		if _, err := p.writer.Write(sum.ChartPath, png); err != nil {
			return err
		}
		p.rendered(ctx, "static", len(regions))
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = p.stage(ctx, "reproject", func(ctx context.Context) error {
		boundaries.Reproject(p.logger)
		sum.Dropped = boundaries.RepairAll(p.logger)
		return nil
	})
	if err != nil {
		return nil, err
	}
	p.telemetry.Record(func(m *infrastructure.PipelineMetrics) {
		m.GeometriesDropped.Add(ctx, int64(sum.Dropped))
	})

	// Only features that survived repair go on the web map.
	mapRegions, _ := Join(boundaries, counts, fields)
	err = p.stage(ctx, "render_webmap", func(ctx context.Context) error {
		page, err := RenderWebMap(mapRegions, p.webMapOptions())
		if err != nil {
			return err
		}
		if _, err := p.writer.Write(sum.MapPath, page); err != nil {
			return err
		}
		p.rendered(ctx, "webmap", len(mapRegions))
		return nil
	})
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(p.out, "Total de registros (vendedores) considerados: %d\n", sum.Records)
	fmt.Fprintf(p.out, "Mapa interactivo guardado como '%s'\n", cfg.MapPath)

	return sum, nil
}

func (p *Pipeline) staticOptions() StaticOptions {
	return DefaultStaticOptions(p.cfg.ChartTitle)
}

func (p *Pipeline) webMapOptions() WebMapOptions {
	return WebMapOptions{
		Title:     p.cfg.ChartTitle,
		CenterLat: p.cfg.CenterLat,
		CenterLon: p.cfg.CenterLon,
		Zoom:      p.cfg.Zoom,
		Locale:    language.Spanish,
		Style: LayerStyle{
			FillColor:   p.cfg.FillColor,
			Color:       p.cfg.StrokeColor,
			Weight:      p.cfg.StrokeWeight,
			FillOpacity: p.cfg.FillOpacity,
		},
	}
}

func (p *Pipeline) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	p.logger.DebugContext(ctx, "Stage started", slog.String("stage", name))
	return p.telemetry.RunStage(ctx, name, fn)
}

func (p *Pipeline) rendered(ctx context.Context, output string, n int) {
	p.telemetry.Record(func(m *infrastructure.PipelineMetrics) {
		m.RegionsRendered.Add(ctx, int64(n), metric.WithAttributes(attribute.String("output", output)))
	})
}
