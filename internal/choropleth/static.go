package choropleth

import (
	"bytes"
	"fmt"
	"image/color"
	"math"

	"github.com/twpayne/go-geom"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/brewer"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	apperrors "ruccli/internal/errors"
	"ruccli/internal/geo"
)

// StaticOptions configures RenderStatic.
type StaticOptions struct {
	Title       string
	Width       vg.Length
	Height      vg.Length
	TitleSize   vg.Length
	LabelSize   vg.Length
	Classes     int
	Palette     string
	BorderColor color.Color
	BorderWidth vg.Length
}

// DefaultStaticOptions returns a 12x10 inch figure shaded with OrRd, grey
// 0.5 pt borders and 7 pt parish labels.
func DefaultStaticOptions(title string) StaticOptions {
	return StaticOptions{
		Title:       title,
		Width:       12 * vg.Inch,
		Height:      10 * vg.Inch,
		TitleSize:   vg.Points(14),
		LabelSize:   vg.Points(7),
		Classes:     9,
		Palette:     "OrRd",
		BorderColor: color.Gray{Y: 128},
		BorderWidth: vg.Points(0.5),
	}
}

// RenderStatic draws the regions as a choropleth and returns it PNG encoded.
// Each region is shaded by its count; regions with a valid centroid get
// their parish name as a centred label.
func RenderStatic(regions []Region, opts StaticOptions) ([]byte, error) {
	pal, err := brewer.GetPalette(brewer.TypeSequential, opts.Palette, opts.Classes)
	if err != nil {
		return nil, apperrors.NewConfigError("invalid chart palette", err).
			WithContext("palette", opts.Palette).
			WithContext("classes", opts.Classes)
	}
	colors := pal.Colors()
	scale := newClassScale(regions, len(colors))

	p := plot.New()
	p.Title.Text = opts.Title
	p.Title.TextStyle.Font.Size = opts.TitleSize
	p.HideAxes()

	layer := &regionLayer{border: draw.LineStyle{Color: opts.BorderColor, Width: opts.BorderWidth}}
	var labels plotter.XYLabels
	for _, r := range regions {
		rings := polygonRings(r.Feature.Geometry)
		if len(rings) == 0 {
			continue
		}
		layer.add(rings, colors[scale.class(r.Count)])

		if x, y, ok := geo.Centroid(r.Feature.Geometry); ok {
			labels.XYs = append(labels.XYs, plotter.XY{X: x, Y: y})
			labels.Labels = append(labels.Labels, r.Label())
		}
	}
	if len(layer.shapes) == 0 {
		return nil, apperrors.NewGeometryError("no drawable polygons", nil).WithContext("regions", len(regions))
	}
	p.Add(layer)

	if len(labels.Labels) > 0 {
		l, err := plotter.NewLabels(labels)
		if err != nil {
			return nil, fmt.Errorf("failed to create labels: %w", err)
		}
		for i := range l.TextStyle {
			l.TextStyle[i].Font.Size = opts.LabelSize
			l.TextStyle[i].Color = color.Black
			l.TextStyle[i].XAlign = draw.XCenter
			l.TextStyle[i].YAlign = draw.YCenter
		}
		p.Add(l)
	}

	for _, entry := range scale.legend(colors) {
		p.Legend.Add(entry.text, swatch{fill: entry.color})
	}
	p.Legend.Top = true

	equalAspect(p, layer.bounds, opts.Width, opts.Height)

	c := vgimg.PngCanvas{Canvas: vgimg.New(opts.Width, opts.Height)}
	p.Draw(draw.New(c))

	var buf bytes.Buffer
	if _, err := c.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode chart: %w", err)
	}
	return buf.Bytes(), nil
}

type shape struct {
	rings [][]geom.Coord
	fill  color.Color
}

type extent struct {
	minX, maxX, minY, maxY float64
	set                    bool
}

func (e *extent) extend(x, y float64) {
	if !e.set {
		e.minX, e.maxX, e.minY, e.maxY, e.set = x, x, y, y, true
		return
	}
	e.minX, e.maxX = math.Min(e.minX, x), math.Max(e.maxX, x)
	e.minY, e.maxY = math.Min(e.minY, y), math.Max(e.maxY, y)
}

// regionLayer is a plot.Plotter and plot.DataRanger drawing filled polygons.
type regionLayer struct {
	shapes []shape
	border draw.LineStyle
	bounds extent
}

func (l *regionLayer) add(rings [][]geom.Coord, fill color.Color) {
	for _, ring := range rings {
		for _, c := range ring {
			l.bounds.extend(c[0], c[1])
		}
	}
	l.shapes = append(l.shapes, shape{rings: rings, fill: fill})
}

// Plot implements plot.Plotter.
func (l *regionLayer) Plot(c draw.Canvas, p *plot.Plot) {
	trX, trY := p.Transforms(&c)
	for _, s := range l.shapes {
		var path vg.Path
		for _, ring := range s.rings {
			for i, pt := range ring {
				v := vg.Point{X: trX(pt[0]), Y: trY(pt[1])}
				if i == 0 {
					path.Move(v)
				} else {
					path.Line(v)
				}
			}
			path.Close()
		}
		c.SetColor(s.fill)
		c.Fill(path)
		c.SetLineStyle(l.border)
		c.Stroke(path)
	}
}

// DataRange implements plot.DataRanger.
func (l *regionLayer) DataRange() (xmin, xmax, ymin, ymax float64) {
	return l.bounds.minX, l.bounds.maxX, l.bounds.minY, l.bounds.maxY
}

// polygonRings returns every ring of a Polygon or MultiPolygon with finite
// coordinates; other geometries are not drawn.
func polygonRings(g geom.T) [][]geom.Coord {
	var rings [][]geom.Coord
	switch g := g.(type) {
	case *geom.Polygon:
		if g != nil {
			rings = g.Coords()
		}
	case *geom.MultiPolygon:
		if g != nil {
			for _, p := range g.Coords() {
				rings = append(rings, p...)
			}
		}
	}

	out := rings[:0]
	for _, r := range rings {
		if len(r) >= 3 && finiteRing(r) {
			out = append(out, r)
		}
	}
	return out
}

func finiteRing(ring []geom.Coord) bool {
	for _, c := range ring {
		if len(c) < 2 || math.IsNaN(c[0]) || math.IsNaN(c[1]) || math.IsInf(c[0], 0) || math.IsInf(c[1], 0) {
			return false
		}
	}
	return true
}

// equalAspect widens one axis so a map unit has the same length on both.
func equalAspect(p *plot.Plot, b extent, w, h vg.Length) {
	dx := b.maxX - b.minX
	dy := b.maxY - b.minY
	if dx <= 0 || dy <= 0 {
		return
	}

	cx := (b.minX + b.maxX) / 2
	cy := (b.minY + b.maxY) / 2
	want := float64(w) / float64(h)

	if dx/dy > want {
		dy = dx / want
	} else {
		dx = dy * want
	}
	p.X.Min, p.X.Max = cx-dx/2, cx+dx/2
	p.Y.Min, p.Y.Max = cy-dy/2, cy+dy/2
}

// swatch is a legend thumbnail filled with one class colour.
type swatch struct {
	fill color.Color
}

// Thumbnail implements plot.Thumbnailer.
func (s swatch) Thumbnail(c *draw.Canvas) {
	c.FillPolygon(s.fill, []vg.Point{
		c.Min,
		{X: c.Max.X, Y: c.Min.Y},
		c.Max,
		{X: c.Min.X, Y: c.Max.Y},
	})
}

// classScale maps counts linearly onto n colour classes between the
// smallest and largest count.
type classScale struct {
	min, max, n int
}

func newClassScale(regions []Region, n int) classScale {
	s := classScale{n: n}
	for i, r := range regions {
		if i == 0 || r.Count < s.min {
			s.min = r.Count
		}
		if i == 0 || r.Count > s.max {
			s.max = r.Count
		}
	}
	return s
}

func (s classScale) class(v int) int {
	if s.max == s.min {
		return 0
	}
	i := int(math.Round(float64(v-s.min) / float64(s.max-s.min) * float64(s.n-1)))
	return max(0, min(s.n-1, i))
}

type legendEntry struct {
	text  string
	color color.Color
}

// legend returns one entry per class that some integer count falls into.
func (s classScale) legend(colors []color.Color) []legendEntry {
	if s.max == s.min {
		return []legendEntry{{text: fmt.Sprint(s.min), color: colors[0]}}
	}

	step := float64(s.max-s.min) / float64(s.n-1)
	var entries []legendEntry
	for i := 0; i < s.n; i++ {
		lo := max(s.min, int(math.Ceil(float64(s.min)+(float64(i)-0.5)*step)))
		hi := min(s.max, int(math.Ceil(float64(s.min)+(float64(i)+0.5)*step))-1)
		for lo <= hi && s.class(lo) != i {
			lo++
		}
		for hi >= lo && s.class(hi) != i {
			hi--
		}
		if lo > hi {
			continue
		}

		text := fmt.Sprint(lo)
		if hi > lo {
			text = fmt.Sprintf("%d-%d", lo, hi)
		}
		entries = append(entries, legendEntry{text: text, color: colors[i]})
	}
	return entries
}
