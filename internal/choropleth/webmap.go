package choropleth

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"

	"github.com/twpayne/go-geom/encoding/geojson"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	apperrors "ruccli/internal/errors"
)

// GeoJSON property names carried by every web map feature.
const (
	PropParish      = "parroquia"
	PropCount       = "vendedores"
	PropCountText   = "vendedores_texto"
	leafletVersion  = "1.9.4"
	tileURL         = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"
	tileAttribution = "&copy; OpenStreetMap contributors"
)

//go:embed templates/webmap.html.tmpl
var webMapSource string

var webMapTemplate = template.Must(template.New("webmap").Parse(webMapSource))

// WebMapOptions configures RenderWebMap.
type WebMapOptions struct {
	Title     string
	CenterLat float64
	CenterLon float64
	Zoom      int
	Style     LayerStyle
	// Locale drives the digit grouping of the tooltip counts.
	Locale language.Tag
}

// LayerStyle is the Leaflet path style applied to every region.
type LayerStyle struct {
	FillColor   string  `json:"fillColor"`
	Color       string  `json:"color"`
	Weight      float64 `json:"weight"`
	FillOpacity float64 `json:"fillOpacity"`
}

type webMapData struct {
	Title          string
	LeafletVersion string
	TileURL        string
	Attribution    string
	Center         [2]float64
	Zoom           int
	Style          LayerStyle
	Layer          template.JS
}

// RenderWebMap returns a self-contained Leaflet page with one GeoJSON layer
// holding the regions. Hovering a region shows its parish and count.
// Geometries must already be WGS84 longitude/latitude.
func RenderWebMap(regions []Region, opts WebMapOptions) ([]byte, error) {
	layer, err := regionsGeoJSON(regions, opts.Locale)
	if err != nil {
		return nil, err
	}

	data := webMapData{
		Title:          opts.Title,
		LeafletVersion: leafletVersion,
		TileURL:        tileURL,
		Attribution:    tileAttribution,
		Center:         [2]float64{opts.CenterLat, opts.CenterLon},
		Zoom:           opts.Zoom,
		Style:          opts.Style,
		// encoding/json escapes <, > and &, so the layer cannot close the script element.
		Layer: template.JS(layer),
	}

	var buf bytes.Buffer
	if err := webMapTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render web map: %w", err)
	}
	return buf.Bytes(), nil
}

// regionsGeoJSON encodes regions with drawable geometry as a FeatureCollection.
func regionsGeoJSON(regions []Region, locale language.Tag) ([]byte, error) {
	if locale == language.Und {
		locale = language.Spanish
	}
	printer := message.NewPrinter(locale)

	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(regions))}
	for _, r := range regions {
		if r.Feature == nil || r.Feature.Geometry == nil {
			continue
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       r.Feature.ID,
			Geometry: r.Feature.Geometry,
			Properties: map[string]interface{}{
				PropParish:    r.Key.Parish,
				PropCount:     r.Count,
				PropCountText: printer.Sprintf("%d", r.Count),
			},
		})
	}

	out, err := json.Marshal(fc)
	if err != nil {
		return nil, apperrors.NewGeometryError("failed to encode map layer", err).
			WithContext("features", len(fc.Features))
	}
	return out, nil
}
