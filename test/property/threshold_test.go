// +build property

package property

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/scottieai/collab-hub/host/internal/monitor"
)

// Property: system memory utilization is always a percentage. For any
// total/free pair with free <= total, UsedPercent stays within [0, 100],
// and the zero-total degenerate case reports 0 rather than dividing.
func TestProperty_UsedPercentBounded(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("utilization stays within 0..100",
		prop.ForAll(
			func(total uint64, freeFrac float64) bool {
				free := uint64(float64(total) * freeFrac)
				if free > total {
					free = total
				}
				pct := monitor.UsedPercent(total, free)
				return pct >= 0 && pct <= 100
			},
			gen.UInt64Range(0, 1<<40),
			gen.Float64Range(0, 1),
		))

	properties.Property("zero total reports zero utilization",
		prop.ForAll(
			func(free uint64) bool {
				return monitor.UsedPercent(0, free) == 0
			},
			gen.UInt64Range(0, 1<<40),
		))

	properties.Property("fully used memory reports 100",
		prop.ForAll(
			func(total uint64) bool {
				if total == 0 {
					return true
				}
				return monitor.UsedPercent(total, 0) == 100
			},
			gen.UInt64Range(1, 1<<40),
		))

	properties.TestingRun(t)
}

// Property: utilization is monotonic. With total fixed, freeing memory
// never raises the reported percentage.
func TestProperty_UsedPercentMonotonic(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("more free memory never raises utilization",
		prop.ForAll(
			func(total, a, b uint64) bool {
				if total == 0 {
					return true
				}
				freeA := a % (total + 1)
				freeB := b % (total + 1)
				if freeA > freeB {
					freeA, freeB = freeB, freeA
				}
				return monitor.UsedPercent(total, freeB) <= monitor.UsedPercent(total, freeA)
			},
			gen.UInt64Range(1, 1<<40),
			gen.UInt64(),
			gen.UInt64(),
		))

	properties.TestingRun(t)
}
