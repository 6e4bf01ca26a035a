package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
	"github.com/twpayne/go-geom/xy"
	"github.com/twpayne/go-geos"
)

func polygon(rings ...[]geom.Coord) *geom.Polygon {
	return geom.NewPolygon(geom.XY).MustSetCoords(rings)
}

func area(g geom.T) float64 {
	switch g := g.(type) {
	case *geom.Polygon:
		return g.Area()
	case *geom.MultiPolygon:
		return g.Area()
	}
	return 0
}

// requireValid checks g with GEOS's own validity rules.
func requireValid(t *testing.T, g geom.T) {
	t.Helper()
	data, err := wkb.Marshal(g, wkb.NDR)
	require.NoError(t, err)
	gg, err := geos.NewContext().NewGeomFromWKB(data)
	require.NoError(t, err)
	require.True(t, gg.IsValid(), gg.IsValidReason())
}

func TestRepair_ValidPolygonOrientedCounterClockwise(t *testing.T) {
	clockwise := polygon([]geom.Coord{{0, 0}, {0, 2}, {2, 2}, {2, 0}, {0, 0}})

	out := Repair(clockwise)
	require.NotNil(t, out)

	p, ok := out.(*geom.Polygon)
	require.True(t, ok)
	assert.True(t, xy.IsRingCounterClockwise(geom.XY, p.LinearRing(0).FlatCoords()))
	assert.InDelta(t, 4.0, p.Area(), 1e-12)
}

func TestRepair_ClosesOpenRing(t *testing.T) {
	open := polygon([]geom.Coord{{0, 0}, {1, 0}, {1, 1}, {0, 1}})

	p := Repair(open).(*geom.Polygon)
	coords := p.Coords()[0]
	assert.Equal(t, coords[0], coords[len(coords)-1])
	assert.InDelta(t, 1.0, p.Area(), 1e-12)
}

func TestRepair_DropsNonFiniteAndDuplicateVertices(t *testing.T) {
	dirty := polygon([]geom.Coord{{0, 0}, {0, 0}, {math.NaN(), 1}, {1, 0}, {1, 1}, {math.Inf(1), 0}, {0, 1}, {0, 0}})

	out := Repair(dirty)
	require.NotNil(t, out)
	requireValid(t, out)
	assert.InDelta(t, 1.0, area(out), 1e-12)
}

func TestRepair_RemovesSpike(t *testing.T) {
	spiked := polygon([]geom.Coord{{0, 0}, {2, 0}, {2, 1}, {3, 1}, {2, 1}, {2, 2}, {0, 2}, {0, 0}})

	out := Repair(spiked)
	require.NotNil(t, out)
	requireValid(t, out)
	assert.InDelta(t, 4.0, area(out), 1e-12)
	for _, c := range out.(*geom.Polygon).Coords()[0] {
		assert.NotEqual(t, 3.0, c[0], "spike tip must be removed")
	}
}

func TestRepair_SplitsRingTouchingItself(t *testing.T) {
	figureEight := polygon([]geom.Coord{{0, 0}, {1, 1}, {2, 0}, {2, 2}, {1, 1}, {0, 2}, {0, 0}})

	out := Repair(figureEight)
	mp, ok := out.(*geom.MultiPolygon)
	require.True(t, ok, "expected a MultiPolygon, got %T", out)
	assert.Equal(t, 2, mp.NumPolygons())
	for i := 0; i < mp.NumPolygons(); i++ {
		ring := mp.Polygon(i).LinearRing(0)
		assert.True(t, xy.IsRingCounterClockwise(geom.XY, ring.FlatCoords()))
		assert.InDelta(t, 1.0, mp.Polygon(i).Area(), 1e-12)
	}
}

func TestRepair_CrossingRings(t *testing.T) {
	tests := []struct {
		name string
		g    *geom.Polygon
	}{
		// Net signed area is zero.
		{"symmetric bowtie", polygon([]geom.Coord{{0, 0}, {2, 2}, {2, 0}, {0, 2}, {0, 0}})},
		// Edges cross at (0.8, 0.8) with no shared vertex.
		{"asymmetric bowtie", polygon([]geom.Coord{{0, 0}, {4, 4}, {4, 0}, {0, 1}, {0, 0}})},
		{"crossing hole", polygon(
			[]geom.Coord{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}},
			[]geom.Coord{{2, 2}, {8, 8}, {8, 2}, {2, 8}, {2, 2}},
		)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Repair(tt.g)
			require.NotNil(t, out, "crossing rings must not drop the feature")
			requireValid(t, out)
			assert.Greater(t, area(out), 0.0)
		})
	}
}

func TestRepair_HolesOrientedClockwise(t *testing.T) {
	withHole := polygon(
		[]geom.Coord{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}},
		[]geom.Coord{{2, 2}, {4, 2}, {4, 4}, {2, 4}, {2, 2}},
	)

	p := Repair(withHole).(*geom.Polygon)
	require.Equal(t, 2, p.NumLinearRings())
	assert.True(t, xy.IsRingCounterClockwise(geom.XY, p.LinearRing(0).FlatCoords()))
	assert.False(t, xy.IsRingCounterClockwise(geom.XY, p.LinearRing(1).FlatCoords()))
	assert.InDelta(t, 96.0, p.Area(), 1e-12)
}

func TestRepair_DropsHoleOutsideShell(t *testing.T) {
	stray := polygon(
		[]geom.Coord{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}},
		[]geom.Coord{{5, 5}, {6, 5}, {6, 6}, {5, 5}},
	)

	p := Repair(stray).(*geom.Polygon)
	assert.Equal(t, 1, p.NumLinearRings())
	assert.InDelta(t, 1.0, p.Area(), 1e-12)
}

func TestRepair_NothingSurvives(t *testing.T) {
	tests := []struct {
		name string
		g    geom.T
	}{
		{"collinear", polygon([]geom.Coord{{0, 0}, {1, 1}, {2, 2}, {0, 0}})},
		{"two points", polygon([]geom.Coord{{0, 0}, {1, 1}, {0, 0}})},
		{"only spike", polygon([]geom.Coord{{0, 0}, {1, 0}, {2, 0}, {1, 0}, {0, 0}})},
		{"repeated point", polygon([]geom.Coord{{3, 3}, {3, 3}, {3, 3}, {3, 3}})},
		{"empty polygon", geom.NewPolygon(geom.XY)},
		{"point", geom.NewPoint(geom.XY).MustSetCoords(geom.Coord{1, 1})},
		{"nil", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, Repair(tt.g))
		})
	}
}

func TestRepair_MultiPolygonKeepsValidParts(t *testing.T) {
	mp := geom.NewMultiPolygon(geom.XY).MustSetCoords([][][]geom.Coord{
		{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}},
		{{{5, 5}, {6, 6}, {7, 7}, {5, 5}}},
	})

	out := Repair(mp)
	p, ok := out.(*geom.Polygon)
	require.True(t, ok, "a single surviving part becomes a Polygon")
	assert.InDelta(t, 0.5, p.Area(), 1e-12)
}

func TestRepair_Idempotent(t *testing.T) {
	dirty := polygon([]geom.Coord{{0, 0}, {0, 2}, {2, 2}, {2, 2}, {2, 0}})

	once := Repair(dirty)
	require.NotNil(t, once)
	twice := Repair(once)
	require.NotNil(t, twice)
	assert.InDelta(t, area(once), area(twice), 1e-12)
	assert.Equal(t, len(once.FlatCoords()), len(twice.FlatCoords()))
}

func TestRepairAll(t *testing.T) {
	c := &Collection{CRS: WGS84, Features: []*Feature{
		{ID: "valid", Geometry: polygon([]geom.Coord{{0, 0}, {1, 0}, {1, 1}, {0, 0}})},
		{ID: "line", Geometry: polygon([]geom.Coord{{0, 0}, {1, 1}, {2, 2}, {0, 0}})},
		{ID: "null"},
		{ID: "bowtie", Geometry: polygon([]geom.Coord{{0, 0}, {2, 2}, {2, 0}, {0, 2}, {0, 0}})},
		{ID: "multi", Geometry: geom.NewMultiPolygon(geom.XY).MustSetCoords([][][]geom.Coord{
			{{{3, 3}, {4, 3}, {4, 4}, {3, 3}}},
			{{{6, 6}, {7, 6}, {7, 7}, {6, 6}}},
		})},
	}}

	dropped := c.RepairAll(nil)

	assert.Equal(t, 2, dropped)
	require.Equal(t, 3, c.Len())
	assert.Equal(t, "valid", c.Features[0].ID)
	assert.Equal(t, "bowtie", c.Features[1].ID)
	assert.Equal(t, "multi", c.Features[2].ID)
}
