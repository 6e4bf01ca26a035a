// Package geo loads parish boundary polygons and prepares them for rendering.
//
// Boundaries are read from GeoJSON with github.com/twpayne/go-geom. Projected
// datasets (WGS84 UTM zones, as published by the national statistics office)
// are converted to longitude/latitude with github.com/wroge/wgs84. Repair runs
// the GEOS zero-width buffer (github.com/twpayne/go-geos) over every polygon and
// drops what does not survive it.
package geo
