package layout

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func buildMap(tops []int) *RegionMap {
	m := NewRegionMap()
	for i, top := range tops {
		m.Set(regionAt(fmt.Sprintf("r%d", i), top))
	}
	return m
}

func TestOrder_Properties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("order is descending by top", prop.ForAll(
		func(tops []int) bool {
			ordered := Order(buildMap(tops))
			for i := 1; i < len(ordered); i++ {
				if ordered[i].Box.Top > ordered[i-1].Box.Top {
					return false
				}
			}
			return len(ordered) == len(tops)
		},
		gen.SliceOf(gen.IntRange(0, 50)),
	))

	properties.Property("equal tops keep insertion order", prop.ForAll(
		func(tops []int) bool {
			ordered := Order(buildMap(tops))
			index := make(map[string]int, len(tops))
			for i := range tops {
				index[fmt.Sprintf("r%d", i)] = i
			}
			for i := 1; i < len(ordered); i++ {
				a, b := ordered[i-1], ordered[i]
				if a.Box.Top == b.Box.Top && index[a.Label] > index[b.Label] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 5)),
	))

	properties.TestingRun(t)
}
