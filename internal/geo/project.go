package geo

import (
	"log/slog"

	"github.com/twpayne/go-geom"
	"github.com/wroge/wgs84"

	apperrors "ruccli/internal/errors"
)

// ToLonLat returns the conversion from crs coordinates to WGS84
// longitude/latitude degrees.
func ToLonLat(crs CRS) func(x, y float64) (lon, lat float64) {
	if crs.IsGeographic() {
		return func(x, y float64) (float64, float64) { return x, y }
	}
	inverse := wgs84.UTM(float64(crs.Zone), !crs.South).To(wgs84.LonLat())
	return func(x, y float64) (float64, float64) {
		lon, lat, _ := inverse(x, y, 0)
		return lon, lat
	}
}

// Transform returns a copy of g with fn applied to every XY position.
// Only polygonal, linear and point geometries are supported.
func Transform(g geom.T, fn func(x, y float64) (float64, float64)) (geom.T, error) {
	var out geom.T
	switch g := g.(type) {
	case *geom.Polygon:
		out = g.Clone()
	case *geom.MultiPolygon:
		out = g.Clone()
	case *geom.LineString:
		out = g.Clone()
	case *geom.Point:
		out = g.Clone()
	default:
		return nil, apperrors.NewGeometryError("unsupported geometry type", nil).
			WithContext("type", typeName(g))
	}

	flat := out.FlatCoords()
	stride := out.Stride()
	for i := 0; i+1 < len(flat); i += stride {
		flat[i], flat[i+1] = fn(flat[i], flat[i+1])
	}
	return out, nil
}

// Reproject converts every feature to WGS84 longitude/latitude. Features
// whose geometry cannot be transformed are left without geometry, which the
// repair pass then drops.
func (c *Collection) Reproject(logger *slog.Logger) {
	if c.CRS.IsGeographic() {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}

	from := c.CRS
	inverse := ToLonLat(from)

	for _, f := range c.Features {
		if f.Geometry == nil {
			continue
		}
		g, err := Transform(f.Geometry, inverse)
		if err != nil {
			logger.Warn("Geometry not reprojected",
				slog.String("feature", f.ID),
				slog.String("error", err.Error()))
		}
		f.Geometry = g
	}

	c.CRS = WGS84
	logger.Info("Boundaries reprojected", slog.String("from", from.Name), slog.String("to", WGS84.Name))
}

func typeName(g geom.T) string {
	if g == nil {
		return "null"
	}
	switch g.(type) {
	case *geom.Point:
		return "Point"
	case *geom.MultiPoint:
		return "MultiPoint"
	case *geom.LineString:
		return "LineString"
	case *geom.MultiLineString:
		return "MultiLineString"
	case *geom.Polygon:
		return "Polygon"
	case *geom.MultiPolygon:
		return "MultiPolygon"
	case *geom.GeometryCollection:
		return "GeometryCollection"
	}
	return "unknown"
}
