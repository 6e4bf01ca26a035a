package choropleth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/twpayne/go-geom"

	"ruccli/internal/geo"
)

func square(x, y, size float64) *geom.Polygon {
	return geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{
		{x, y}, {x + size, y}, {x + size, y + size}, {x, y + size}, {x, y},
	}})
}

func feature(id, canton, parish string, g geom.T) *geo.Feature {
	return &geo.Feature{
		ID:       id,
		Geometry: g,
		Properties: map[string]interface{}{
			"DPA_DESPRO": "SUCUMBIOS",
			"DPA_DESCAN": canton,
			"DPA_DESPAR": parish,
		},
	}
}

func provinceFixture() *geo.Collection {
	return &geo.Collection{
		CRS: geo.WGS84,
		Features: []*geo.Feature{
			feature("210150", "LAGO AGRIO", "NUEVA LOJA", square(-76.9, 0.0, 0.1)),
			feature("210151", "LAGO AGRIO", "DURENO", square(-76.8, 0.0, 0.1)),
			feature("210450", "SHUSHUFINDI", "SHUSHUFINDI", square(-76.7, -0.2, 0.1)),
		},
	}
}

var testFields = JoinFields{Canton: "DPA_DESCAN", Parish: "DPA_DESPAR"}

func TestJoin_EveryPolygonAppears(t *testing.T) {
	counts := Counts{
		{Canton: "LAGO AGRIO", Parish: "NUEVA LOJA"}:   4,
		{Canton: "SHUSHUFINDI", Parish: "SHUSHUFINDI"}: 1,
	}

	regions, unmatched := Join(provinceFixture(), counts, testFields)

	assert.Len(t, regions, 3)
	assert.Empty(t, unmatched)

	got := map[string]int{}
	for _, r := range regions {
		got[r.Feature.ID] = r.Count
	}
	assert.Equal(t, map[string]int{"210150": 4, "210151": 0, "210450": 1}, got)
}

func TestJoin_ReportsUnmatchedKeys(t *testing.T) {
	counts := Counts{
		{Canton: "LAGO AGRIO", Parish: "NUEVA LOJA"}:  2,
		{Canton: "SUCUMBIOS", Parish: "LA BONITA"}:    1,
		{Canton: "CASCALES", Parish: "SANTA ROSA"}:    3,
		{Canton: "LAGO AGRIO", Parish: "NUEVA  LOJA"}: 1,
	}

	regions, unmatched := Join(provinceFixture(), counts, testFields)

	assert.Len(t, regions, 3)
	assert.Equal(t, []Key{
		{Canton: "CASCALES", Parish: "SANTA ROSA"},
		{Canton: "LAGO AGRIO", Parish: "NUEVA  LOJA"},
		{Canton: "SUCUMBIOS", Parish: "LA BONITA"},
	}, unmatched)
}

func TestJoin_NormalizesFeatureKeys(t *testing.T) {
	c := &geo.Collection{Features: []*geo.Feature{
		feature("1", " lago agrio ", "Nueva Loja", square(0, 0, 1)),
	}}
	counts := Counts{{Canton: "LAGO AGRIO", Parish: "NUEVA LOJA"}: 7}

	regions, unmatched := Join(c, counts, testFields)

	assert.Empty(t, unmatched)
	assert.Equal(t, 7, regions[0].Count)
	assert.Equal(t, "Nueva Loja", regions[0].Label())
}
