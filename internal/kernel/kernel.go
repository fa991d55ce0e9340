// Package kernel provides the normalized smearing kernels used to spread
// point- and line-like emitters over space-time, together with the
// quadrature used to normalize them.
//
// Every density returned here integrates to one over its own variable(s),
// so emitter normalizations can be written against the bare energy budget.
package kernel

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

const sqrt2Pi = 2.5066282746310002 // √(2π)

// Gaussian returns the normalized one-dimensional Gaussian density at
// offset d for width sigma.
func Gaussian(d, sigma float64) float64 {
	return math.Exp(-0.5*d*d/(sigma*sigma)) / (sqrt2Pi * sigma)
}

// Transverse returns the normalized Gaussian density in the transverse plane
// at offset (dx, dy). The profile is contracted by gamma along the unit
// direction (cosPhi, sinPhi); gamma = 1 gives the isotropic kernel.
func Transverse(dx, dy, sigma, gamma, cosPhi, sinPhi float64) float64 {
	par := dx*cosPhi + dy*sinPhi
	perp := -dx*sinPhi + dy*cosPhi
	s2 := sigma * sigma
	return gamma * math.Exp(-0.5*(gamma*gamma*par*par+perp*perp)/s2) / (2 * math.Pi * s2)
}

// CutMass returns the fraction of a Gaussian's mass lying within n standard
// deviations of its center.
func CutMass(n float64) float64 {
	return math.Erf(n / math.Sqrt2)
}

// FermiBox returns a box profile on [lo, hi] whose edges are softened by
// Fermi functions of the given width. It is one half at each edge of a wide
// box and approaches one deep inside it.
func FermiBox(x, lo, hi, width float64) float64 {
	return 1 / ((1 + math.Exp((lo-x)/width)) * (1 + math.Exp((x-hi)/width)))
}

// Truncated is a Gaussian restricted to the half-open interval [Lo, Hi) and
// renormalized so that it integrates to one over that interval.
type Truncated struct {
	Center float64
	Sigma  float64
	Lo, Hi float64
	norm   float64
}

// NewTruncated builds a truncated Gaussian. An empty or inverted interval,
// or one carrying no probability mass, yields a kernel that is zero
// everywhere.
func NewTruncated(center, sigma, lo, hi float64) Truncated {
	t := Truncated{Center: center, Sigma: sigma, Lo: lo, Hi: hi}
	if !(hi > lo) {
		return t
	}
	n := distuv.Normal{Mu: center, Sigma: sigma}
	mass := n.CDF(hi) - n.CDF(lo)
	if mass > 0 {
		t.norm = 1 / mass
	}
	return t
}

// Density returns the kernel value at x.
func (t Truncated) Density(x float64) float64 {
	if t.norm == 0 || x < t.Lo || x >= t.Hi {
		return 0
	}
	return t.norm * Gaussian(x-t.Center, t.Sigma)
}

// Window builds the truncated Gaussian used for proper-time smearing: centered
// at center, cut at reach on both sides, and never extending below floor.
func Window(center, sigma, reach, floor float64) Truncated {
	return NewTruncated(center, sigma, math.Max(floor, center-reach), center+reach)
}
