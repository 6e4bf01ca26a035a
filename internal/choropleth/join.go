package choropleth

import (
	"ruccli/internal/geo"
	"ruccli/internal/textnorm"
)

// JoinFields names the boundary properties holding the join keys.
type JoinFields struct {
	Canton string
	Parish string
}

// Region is a boundary feature with its joined record count.
type Region struct {
	Feature *geo.Feature
	Key     Key
	Count   int
}

// Label returns the parish name in title case.
func (r Region) Label() string {
	return textnorm.Title(r.Key.Parish)
}

// Join left-joins counts onto every feature of c. Features without records
// get a zero count. The second result lists the count keys that matched no
// feature, sorted.
func Join(c *geo.Collection, counts Counts, fields JoinFields) ([]Region, []Key) {
	regions := make([]Region, 0, c.Len())
	matched := make(map[Key]bool, len(counts))

	for _, f := range c.Features {
		k := Key{
			Canton: textnorm.Key(f.Prop(fields.Canton)),
			Parish: textnorm.Key(f.Prop(fields.Parish)),
		}
		n, ok := counts[k]
		if ok {
			matched[k] = true
		}
		regions = append(regions, Region{Feature: f, Key: k, Count: n})
	}

	var unmatched []Key
	for k := range counts {
		if !matched[k] {
			unmatched = append(unmatched, k)
		}
	}
	sortKeys(unmatched)

	return regions, unmatched
}
