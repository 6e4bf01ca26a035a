package geo

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	apperrors "ruccli/internal/errors"
	"ruccli/internal/files"
	"ruccli/internal/textnorm"
)

// Feature is one boundary polygon and its attribute table row.
type Feature struct {
	ID         string
	Geometry   geom.T
	Properties map[string]interface{}
}

// Prop returns a property as text; missing and null properties are "".
func (f *Feature) Prop(name string) string {
	v, ok := f.Properties[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Collection is a boundary dataset in a single coordinate reference system.
type Collection struct {
	Features []*Feature
	CRS      CRS
	Source   string
}

// Len returns the number of features.
func (c *Collection) Len() int {
	return len(c.Features)
}

// crsHeader picks the legacy top-level "crs" member that FeatureCollection
// decoding ignores.
type crsHeader struct {
	CRS *geojson.CRS `json:"crs"`
}

// LoadBoundaries reads a GeoJSON FeatureCollection. The coordinate reference
// system comes from the "crs" member when present, WGS84 otherwise.
func LoadBoundaries(path string, logger *slog.Logger) (*Collection, error) {
	if logger == nil {
		logger = slog.Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			listing, _ := files.ListDirectory(filepath.Dir(path))
			return nil, apperrors.NewNotFoundError(path).
				WithContext("path", path).
				WithContext("directory", filepath.Dir(path)).
				WithContext("directory_listing", listing)
		}
		return nil, apperrors.NewStorageError("failed to read boundaries", err).WithContext("path", path)
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, apperrors.NewParsingError("failed to decode boundaries", err).WithContext("path", path)
	}

	var header crsHeader
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, apperrors.NewParsingError("failed to decode boundaries", err).WithContext("path", path)
	}

	crs := WGS84
	if name := crsName(header.CRS); name != "" {
		crs, err = ParseCRS(name)
		if err != nil {
			return nil, err
		}
	}

	c := &Collection{CRS: crs, Source: path, Features: make([]*Feature, 0, len(fc.Features))}
	for _, f := range fc.Features {
		props := f.Properties
		if props == nil {
			props = make(map[string]interface{})
		}
		c.Features = append(c.Features, &Feature{ID: f.ID, Geometry: f.Geometry, Properties: props})
	}

	logger.Info("Boundaries loaded",
		slog.String("path", path),
		slog.Int("features", c.Len()),
		slog.String("crs", crs.Name))

	return c, nil
}

func crsName(crs *geojson.CRS) string {
	if crs == nil || crs.Properties == nil {
		return ""
	}
	name, _ := crs.Properties["name"].(string)
	return name
}

// FilterProvince returns the features whose field matches name after key
// normalization. An empty selection is an error: nothing downstream can
// render without polygons.
func (c *Collection) FilterProvince(field, name string) (*Collection, error) {
	want := textnorm.Key(name)

	out := &Collection{CRS: c.CRS, Source: c.Source}
	for _, f := range c.Features {
		if textnorm.Key(f.Prop(field)) == want {
			out.Features = append(out.Features, f)
		}
	}

	if out.Len() == 0 {
		return nil, apperrors.NewValidationError(fmt.Sprintf("no boundary polygons for %s %q", field, name)).
			WithContext("field", field).
			WithContext("value", name).
			WithContext("features", c.Len())
	}
	return out, nil
}

// NormalizeKeys rewrites the named string properties to their join-key form.
func (c *Collection) NormalizeKeys(fields ...string) {
	for _, f := range c.Features {
		for _, field := range fields {
			if _, ok := f.Properties[field]; ok {
				f.Properties[field] = textnorm.Key(f.Prop(field))
			}
		}
	}
}
