package source

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/papapumpkin/hydrosource/internal/emitter"
	"github.com/papapumpkin/hydrosource/internal/kernel"
)

// edgeTail is how far beyond each string end, in units of sigma_eta, the
// rapidity profile integral extends.
const edgeTail = 20

// NormReport summarizes the energy and baryon number assigned to the
// emitters by normalization.
type NormReport struct {
	Strings       int     `toml:"strings" yaml:"strings"`
	Partons       int     `toml:"partons" yaml:"partons"`
	StringEnergy  float64 `toml:"string_energy" yaml:"string_energy"`   // GeV, string bodies
	RemnantEnergy float64 `toml:"remnant_energy" yaml:"remnant_energy"` // GeV, baryon-carrying string ends
	PartonEnergy  float64 `toml:"parton_energy" yaml:"parton_energy"`   // GeV
	NetBaryon     float64 `toml:"net_baryon" yaml:"net_baryon"`
	Volume        float64 `toml:"volume" yaml:"volume"` // fm³
}

// TotalEnergy is the energy all emitters deposit over their lifetimes.
func (r NormReport) TotalEnergy() float64 {
	return r.StringEnergy + r.RemnantEnergy + r.PartonEnergy
}

// Normalize assigns every string its body norm and remnant weights so that
// the deposited energy matches the energy lost by its decelerating ends.
// It mutates the repository once; later calls, from this or any other
// engine over the same repository, leave the norms untouched and only
// report the totals.
func (e *Engine) Normalize() (NormReport, error) {
	if e.haveReport {
		return e.report, nil
	}
	if e.repo.Empty() {
		return NormReport{}, fmt.Errorf("%w: repository holds no emitters", ErrNormalization)
	}

	if !e.repo.Normalized() {
		norms := make([]float64, len(e.repo.Strings()))
		for i := range e.repo.Strings() {
			n, err := e.bodyNorm(&e.repo.Strings()[i])
			if err != nil {
				return NormReport{}, fmt.Errorf("%w: string %d: %w", ErrNormalization, i, err)
			}
			norms[i] = n
		}
		qp := e.cfg.PartonQuenchFactor
		for i := range e.repo.Strings() {
			s := &e.repo.Strings()[i]
			s.Norm = norms[i]
			s.EBaryonNormL = qp * s.Mass * s.FracL
			s.EBaryonNormR = qp * s.Mass * s.FracR
		}
		e.repo.MarkNormalized()
	}

	r := e.summarize()
	if !(r.TotalEnergy() > 0) || math.IsInf(r.TotalEnergy(), 0) {
		return NormReport{}, fmt.Errorf("%w: total energy %g is not positive", ErrNormalization, r.TotalEnergy())
	}
	e.report, e.haveReport = r, true

	e.rec.ObserveNormalization(r.TotalEnergy())
	e.logger.Info("emitters normalized",
		zap.Int("strings", r.Strings),
		zap.Int("partons", r.Partons),
		zap.Float64("string_energy_gev", r.StringEnergy),
		zap.Float64("remnant_energy_gev", r.RemnantEnergy),
		zap.Float64("parton_energy_gev", r.PartonEnergy),
		zap.Float64("net_baryon", r.NetBaryon),
		zap.Float64("volume_fm3", r.Volume),
	)
	return r, nil
}

// bodyNorm returns the factor that makes a string body deposit exactly its
// energy budget over its smoothed rapidity profile.
func (e *Engine) bodyNorm(s *emitter.QCDString) (float64, error) {
	energy := s.BodyEnergy(e.cfg.StringQuenchFactor)
	switch {
	case energy < 0 || math.IsNaN(energy):
		return 0, fmt.Errorf("negative body energy %g", energy)
	case energy == 0:
		return 0, nil
	}
	integral := e.profileIntegral(s)
	if !(integral > 0) || math.IsInf(integral, 0) {
		return 0, fmt.Errorf("rapidity profile integral %g", integral)
	}
	return energy / integral, nil
}

// profileIntegral is ∫ P(η) cosh(y(η)) dη, the lab energy carried by a body
// of unit norm. The range is split at the string ends, where y(η) has kinks.
func (e *Engine) profileIntegral(s *emitter.QCDString) float64 {
	sigma := e.cfg.SigmaEta
	f := func(eta float64) float64 {
		return kernel.FermiBox(eta, s.EtaSLeft, s.EtaSRight, sigma) * math.Cosh(s.RapidityAt(eta))
	}
	return kernel.Integrate(f, s.EtaSLeft-edgeTail*sigma, s.EtaSLeft, sigma) +
		kernel.Integrate(f, s.EtaSLeft, s.EtaSRight, sigma) +
		kernel.Integrate(f, s.EtaSRight, s.EtaSRight+edgeTail*sigma, sigma)
}

// summarize totals the assigned energies and baryon number from the
// current norms.
func (e *Engine) summarize() NormReport {
	r := NormReport{
		Strings: len(e.repo.Strings()),
		Partons: len(e.repo.Partons()),
		Volume:  e.volume,
	}
	for i := range e.repo.Strings() {
		s := &e.repo.Strings()[i]
		r.StringEnergy += s.BodyEnergy(e.cfg.StringQuenchFactor)
		r.RemnantEnergy += s.EBaryonNormL*math.Cosh(s.YL) + s.EBaryonNormR*math.Cosh(s.YR)
		r.NetBaryon += s.FracL + s.FracR
	}
	for i := range e.repo.Partons() {
		p := &e.repo.Partons()[i]
		r.PartonEnergy += e.cfg.PartonQuenchFactor * p.E
		r.NetBaryon += p.BaryonNumber
	}
	return r
}
