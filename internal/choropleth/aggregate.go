package choropleth

import (
	"sort"

	"ruccli/internal/registry"
	"ruccli/internal/textnorm"
)

// Key identifies a parish within its canton, both in join-key form.
type Key struct {
	Canton string
	Parish string
}

// Counts holds the number of registry records per parish.
type Counts map[Key]int

// Total returns the sum of all counts.
func (c Counts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

func sortKeys(keys []Key) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Canton != keys[j].Canton {
			return keys[i].Canton < keys[j].Canton
		}
		return keys[i].Parish < keys[j].Parish
	})
}

// Aggregate counts records per (canton, parish). Keys are trimmed and
// uppercased; records missing either key are not counted and are reported
// in skipped.
func Aggregate(table *registry.Table, cantonCol, parishCol string) (counts Counts, skipped int, err error) {
	ci, err := table.Column(cantonCol)
	if err != nil {
		return nil, 0, err
	}
	pi, err := table.Column(parishCol)
	if err != nil {
		return nil, 0, err
	}

	counts = make(Counts)
	for r := range table.Rows {
		k := Key{
			Canton: textnorm.Key(table.Value(r, ci)),
			Parish: textnorm.Key(table.Value(r, pi)),
		}
		if k.Canton == "" || k.Parish == "" {
			skipped++
			continue
		}
		counts[k]++
	}
	return counts, skipped, nil
}
