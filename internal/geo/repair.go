package geo

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
	"github.com/twpayne/go-geos"

	apperrors "ruccli/internal/errors"
)

// bufferQuadSegs is the GEOS default. A zero-width buffer adds no arcs.
const bufferQuadSegs = 8

// Repair returns a valid polygonal version of g: the zero-distance buffer of
// its cleaned rings, computed by GEOS. Crossing and touching rings are split,
// spikes and zero-area parts disappear. Shells come out counter-clockwise and
// holes clockwise, in the XY layout. Repair returns nil when nothing
// polygonal survives.
func Repair(g geom.T) geom.T {
	out, _ := newRepairer().repair(g)
	return out
}

// RepairAll repairs every feature and drops those left without geometry.
// It returns the number of dropped features.
func (c *Collection) RepairAll(logger *slog.Logger) int {
	if logger == nil {
		logger = slog.Default()
	}

	r := newRepairer()
	kept := c.Features[:0]
	dropped := 0
	for _, f := range c.Features {
		repaired, err := r.repair(f.Geometry)
		if err != nil {
			logger.Warn("Geometry repair failed",
				slog.String("feature", f.ID),
				slog.String("error", err.Error()))
		}
		if repaired == nil {
			dropped++
			logger.Debug("Dropping empty geometry",
				slog.String("feature", f.ID),
				slog.String("type", typeName(f.Geometry)))
			continue
		}
		f.Geometry = repaired
		kept = append(kept, f)
	}
	for i := len(kept); i < len(c.Features); i++ {
		c.Features[i] = nil
	}
	c.Features = kept

	if dropped > 0 {
		logger.Warn("Dropped invalid geometries", slog.Int("dropped", dropped), slog.Int("kept", len(kept)))
	}
	return dropped
}

// repairer holds one GEOS context; contexts are not safe for concurrent use.
type repairer struct {
	ctx *geos.Context
}

func newRepairer() *repairer {
	return &repairer{ctx: geos.NewContext()}
}

func (r *repairer) repair(g geom.T) (out geom.T, err error) {
	cleaned := clean(g)
	if cleaned == nil {
		return nil, nil
	}

	// go-geos panics on GEOS errors.
	defer func() {
		if p := recover(); p != nil {
			out = nil
			err = apperrors.NewGeometryError(fmt.Sprintf("geos: %v", p), nil)
		}
	}()

	data, err := wkb.Marshal(cleaned, wkb.NDR)
	if err != nil {
		return nil, apperrors.NewGeometryError("failed to encode geometry", err)
	}
	in, err := r.ctx.NewGeomFromWKB(data)
	if err != nil {
		return nil, apperrors.NewGeometryError("failed to load geometry into GEOS", err)
	}

	buffered := in.Buffer(0, bufferQuadSegs)
	if buffered.IsEmpty() {
		return nil, nil
	}

	decoded, err := wkb.Unmarshal(buffered.ToWKB())
	if err != nil {
		return nil, apperrors.NewGeometryError("failed to decode repaired geometry", err)
	}
	return orientPolygons(decoded), nil
}

// clean drops the vertices GEOS cannot take and the rings left with fewer
// than three distinct vertices. It returns nil for non-polygonal input.
func clean(g geom.T) geom.T {
	switch g := g.(type) {
	case *geom.Polygon:
		if g == nil {
			return nil
		}
		if p := cleanPolygon(g.Coords()); p != nil {
			return geom.NewPolygon(geom.XY).MustSetCoords(p)
		}
	case *geom.MultiPolygon:
		if g == nil {
			return nil
		}
		var polys [][][]geom.Coord
		for _, p := range g.Coords() {
			if cleaned := cleanPolygon(p); cleaned != nil {
				polys = append(polys, cleaned)
			}
		}
		if len(polys) > 0 {
			return geom.NewMultiPolygon(geom.XY).MustSetCoords(polys)
		}
	}
	return nil
}

func cleanPolygon(rings [][]geom.Coord) [][]geom.Coord {
	if len(rings) == 0 {
		return nil
	}
	shell := cleanRing(rings[0])
	if shell == nil {
		return nil
	}
	out := [][]geom.Coord{shell}
	for _, hole := range rings[1:] {
		if h := cleanRing(hole); h != nil {
			out = append(out, h)
		}
	}
	return out
}

// cleanRing returns coords as a closed XY ring without non-finite or
// consecutive repeated vertices, or nil when fewer than three remain.
func cleanRing(coords []geom.Coord) []geom.Coord {
	ring := make([]geom.Coord, 0, len(coords)+1)
	for _, c := range coords {
		if len(c) < 2 || !finite(c[0]) || !finite(c[1]) {
			continue
		}
		p := geom.Coord{c[0], c[1]}
		if n := len(ring); n > 0 && samePoint(ring[n-1], p) {
			continue
		}
		ring = append(ring, p)
	}
	for len(ring) > 1 && samePoint(ring[0], ring[len(ring)-1]) {
		ring = ring[:len(ring)-1]
	}
	if len(ring) < 3 {
		return nil
	}
	return append(ring, geom.Coord{ring[0][0], ring[0][1]})
}

// orientPolygons rewrites GEOS output with counter-clockwise shells and
// clockwise holes, collapsing a single-part MultiPolygon to a Polygon.
func orientPolygons(g geom.T) geom.T {
	var polys [][][]geom.Coord
	switch g := g.(type) {
	case *geom.Polygon:
		polys = [][][]geom.Coord{g.Coords()}
	case *geom.MultiPolygon:
		polys = g.Coords()
	default:
		return nil
	}

	kept := polys[:0]
	for _, p := range polys {
		if len(p) == 0 {
			continue
		}
		for i, ring := range p {
			p[i] = orient(ring, i == 0)
		}
		kept = append(kept, p)
	}

	switch len(kept) {
	case 0:
		return nil
	case 1:
		return geom.NewPolygon(geom.XY).MustSetCoords(kept[0])
	default:
		return geom.NewMultiPolygon(geom.XY).MustSetCoords(kept)
	}
}

func signedArea(ring []geom.Coord) float64 {
	sum := 0.0
	for i := 0; i+1 < len(ring); i++ {
		a, b := ring[i], ring[i+1]
		sum += a[0]*b[1] - b[0]*a[1]
	}
	return sum / 2
}

// orient returns ring counter-clockwise when ccw is true, clockwise otherwise.
func orient(ring []geom.Coord, ccw bool) []geom.Coord {
	if (signedArea(ring) > 0) == ccw {
		return ring
	}
	out := make([]geom.Coord, len(ring))
	for i, c := range ring {
		out[len(ring)-1-i] = c
	}
	return out
}

func samePoint(a, b geom.Coord) bool {
	return a[0] == b[0] && a[1] == b[1]
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
