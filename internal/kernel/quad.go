package kernel

import (
	"math"

	"gonum.org/v1/gonum/integrate/quad"
)

// pointsPerPanel is the Gauss-Legendre order used on each panel.
const pointsPerPanel = 16

// Integrate integrates f over [lo, hi] with composite Gauss-Legendre
// quadrature. The interval is split into equal panels no wider than
// maxPanel so sharp features of that scale are resolved.
func Integrate(f func(float64) float64, lo, hi, maxPanel float64) float64 {
	if !(hi > lo) {
		return 0
	}
	panels := 1
	if maxPanel > 0 {
		panels = int(math.Ceil((hi - lo) / maxPanel))
		if panels < 1 {
			panels = 1
		}
	}
	width := (hi - lo) / float64(panels)

	var sum float64
	for i := 0; i < panels; i++ {
		a := lo + float64(i)*width
		sum += quad.Fixed(f, a, a+width, pointsPerPanel, nil, 0)
	}
	return sum
}
