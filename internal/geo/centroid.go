package geo

import (
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
)

// Centroid returns the area centroid of g. ok is false for empty or
// unsupported geometries and for non-finite results.
func Centroid(g geom.T) (x, y float64, ok bool) {
	if g == nil || g.Empty() {
		return 0, 0, false
	}
	c, err := xy.Centroid(g)
	if err != nil || len(c) < 2 || !finite(c[0]) || !finite(c[1]) {
		return 0, 0, false
	}
	return c[0], c[1], true
}
