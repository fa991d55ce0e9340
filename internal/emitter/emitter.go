// Package emitter defines the energy-momentum emitters of the initial state
// (QCD strings and point-like partons) and the Repository arena that owns
// them for the lifetime of a run.
package emitter

import (
	"math"
)

// QCDString is a color flux tube stretched between two end points in
// space-time rapidity. Proper times are in fm, rapidities dimensionless.
//
// Norm, EBaryonNormL and EBaryonNormR are zero until the repository is
// normalized; every other field is fixed at population.
type QCDString struct {
	Norm         float64 `toml:"norm" yaml:"norm"`
	EBaryonNormL float64 `toml:"e_baryon_norm_l" yaml:"e_baryon_norm_l"`
	EBaryonNormR float64 `toml:"e_baryon_norm_r" yaml:"e_baryon_norm_r"`

	Mass       float64 `toml:"mass" yaml:"mass"`
	MOverSigma float64 `toml:"m_over_sigma" yaml:"m_over_sigma"`

	TauForm   float64 `toml:"tau_form" yaml:"tau_form"`
	TauStart  float64 `toml:"tau_start" yaml:"tau_start"`
	EtaSStart float64 `toml:"eta_s_start" yaml:"eta_s_start"`
	Tau0      float64 `toml:"tau_0" yaml:"tau_0"`
	EtaS0     float64 `toml:"eta_s_0" yaml:"eta_s_0"`
	XPerp     float64 `toml:"x_perp" yaml:"x_perp"`
	YPerp     float64 `toml:"y_perp" yaml:"y_perp"`

	TauEndLeft  float64 `toml:"tau_end_left" yaml:"tau_end_left"`
	TauEndRight float64 `toml:"tau_end_right" yaml:"tau_end_right"`
	EtaSLeft    float64 `toml:"eta_s_left" yaml:"eta_s_left"`
	EtaSRight   float64 `toml:"eta_s_right" yaml:"eta_s_right"`

	YL  float64 `toml:"y_l" yaml:"y_l"`
	YR  float64 `toml:"y_r" yaml:"y_r"`
	YLi float64 `toml:"y_l_i" yaml:"y_l_i"`
	YRi float64 `toml:"y_r_i" yaml:"y_r_i"`

	FracL float64 `toml:"frac_l" yaml:"frac_l"`
	FracR float64 `toml:"frac_r" yaml:"frac_r"`
}

// TauStop is the latest end-point time, after which the body deposits nothing
// beyond its temporal smearing tail.
func (s *QCDString) TauStop() float64 {
	return math.Max(s.TauEndLeft, s.TauEndRight)
}

// CarriesBaryon reports whether either end holds a baryon-number fraction.
func (s *QCDString) CarriesBaryon() bool {
	return s.FracL > 0 || s.FracR > 0
}

// BodyEnergy is the energy released by the string body as its ends
// decelerate from the initial to the final rapidities, scaled by quench.
func (s *QCDString) BodyEnergy(quench float64) float64 {
	return quench * s.Mass * (math.Cosh(s.YLi) - math.Cosh(s.YL) + math.Cosh(s.YRi) - math.Cosh(s.YR))
}

// RapidityAt returns the fluid rapidity of the string piece at space-time
// rapidity eta: linear from YL at the left end to YR at the right end and
// constant beyond them.
func (s *QCDString) RapidityAt(eta float64) float64 {
	width := s.EtaSRight - s.EtaSLeft
	if width <= 0 {
		return 0.5 * (s.YL + s.YR)
	}
	f := (eta - s.EtaSLeft) / width
	switch {
	case f <= 0:
		return s.YL
	case f >= 1:
		return s.YR
	}
	return s.YL + f*(s.YR-s.YL)
}

// DepositTau returns the proper time at which the piece at eta is released.
// It interpolates linearly from TauStart at EtaSStart out to the end time of
// the corresponding side and stays at the end time beyond the end point.
func (s *QCDString) DepositTau(eta float64) float64 {
	if eta < s.EtaSStart {
		span := s.EtaSStart - s.EtaSLeft
		if span <= 0 || eta <= s.EtaSLeft {
			return s.TauEndLeft
		}
		return s.TauStart + (s.EtaSStart-eta)/span*(s.TauEndLeft-s.TauStart)
	}
	span := s.EtaSRight - s.EtaSStart
	if span <= 0 || eta >= s.EtaSRight {
		return s.TauEndRight
	}
	return s.TauStart + (eta-s.EtaSStart)/span*(s.TauEndRight-s.TauStart)
}

// Parton is a point-like energy-momentum carrier deposited around its own
// proper time Tau. Energy and momenta are in GeV.
type Parton struct {
	Tau          float64 `toml:"tau" yaml:"tau"`
	X            float64 `toml:"x" yaml:"x"`
	Y            float64 `toml:"y" yaml:"y"`
	EtaS         float64 `toml:"eta_s" yaml:"eta_s"`
	Rapidity     float64 `toml:"rapidity" yaml:"rapidity"`
	RapidityPerp float64 `toml:"rapidity_perp" yaml:"rapidity_perp"`
	E            float64 `toml:"e" yaml:"e"`
	Px           float64 `toml:"px" yaml:"px"`
	Py           float64 `toml:"py" yaml:"py"`
	Mass         float64 `toml:"mass" yaml:"mass"`

	BaryonNumber   float64 `toml:"baryon_number" yaml:"baryon_number"`
	Strangeness    float64 `toml:"strangeness" yaml:"strangeness"`
	ElectricCharge float64 `toml:"electric_charge" yaml:"electric_charge"`
}

// StopPoint returns the Milne coordinates (tau, eta) reached by a string end
// that starts at (tau0, eta0) with rapidity yi and decelerates under constant
// tension to rapidity yf. lambda is the end's mass over the string tension.
func StopPoint(tau0, eta0, yi, yf, lambda float64) (tau, eta float64) {
	if lambda == 0 || yi == yf {
		return tau0, eta0
	}
	sign := 1.0
	if yi < yf {
		sign = -1
	}
	t := tau0*math.Cosh(eta0) + sign*lambda*(math.Sinh(yi)-math.Sinh(yf))
	z := tau0*math.Sinh(eta0) + sign*lambda*(math.Cosh(yi)-math.Cosh(yf))
	tau2 := t*t - z*z
	if tau2 <= 0 || t <= 0 {
		return tau0, eta0
	}
	return math.Sqrt(tau2), math.Atanh(z / t)
}
