// Package choropleth counts registry records per parish, joins the counts to
// the parish boundaries and renders them twice: a shaded PNG chart with
// parish labels, and a Leaflet web map with hover tooltips.
//
// Join keys are compared after trimming and uppercasing on both sides. The
// join is a left join on the boundaries, so every parish of the province is
// drawn, with a zero count when no record names it.
package choropleth
