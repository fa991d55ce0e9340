package source

import (
	"math"

	"github.com/papapumpkin/hydrosource/internal/emitter"
	"github.com/papapumpkin/hydrosource/internal/kernel"
)

// deposit selects whether the proper-time kernel is applied (instantaneous
// rate at tau) or integrated out (everything deposited by tau).
type deposit int

const (
	instantaneous deposit = iota
	cumulative
)

// EnergySource writes into j the energy-momentum source at (tau, x, y, etaS)
// from the emitters of the current window. Points outside the active range
// or outside every kernel yield zero. u is not used by the deposition model.
func (e *Engine) EnergySource(tau, x, y, etaS float64, u FlowVec, j *EnergyFlowVec) {
	*j = EnergyFlowVec{}
	if !e.inRange(tau) {
		return
	}
	for _, h := range e.win.active {
		switch h.Kind {
		case emitter.KindString:
			e.addString(j, int(h.Index), instantaneous, tau, x, y, etaS)
		case emitter.KindParton:
			e.addParton(j, int(h.Index), instantaneous, tau, x, y, etaS)
		}
	}
}

// RhobSource returns the net-baryon source at (tau, x, y, etaS) from the
// baryon list of the current window. u is not used by the deposition model.
func (e *Engine) RhobSource(tau, x, y, etaS float64, u FlowVec) float64 {
	if !e.inRange(tau) {
		return 0
	}
	var rho float64
	for _, h := range e.win.baryon {
		switch h.Kind {
		case emitter.KindString:
			rho += e.stringBaryon(int(h.Index), instantaneous, tau, x, y, etaS)
		case emitter.KindParton:
			rho += e.partonBaryon(int(h.Index), instantaneous, tau, x, y, etaS)
		}
	}
	return rho
}

// temporal is the proper-time kernel at tau for a deposit centered at center
// that cannot begin before floor.
func (e *Engine) temporal(mode deposit, tau, center, floor float64) float64 {
	if mode == cumulative {
		return 1
	}
	return kernel.Window(center, e.cfg.SigmaTau, e.reach, floor).Density(tau)
}

// timed applies a prebuilt proper-time window.
func timed(mode deposit, w kernel.Truncated, tau float64) float64 {
	if mode == cumulative {
		return 1
	}
	return w.Density(tau)
}

// transverse is the isotropic transverse kernel cut to the square
// |dx|, |dy| <= n_sigma_skip * sigma_x and renormalized over it.
func (e *Engine) transverse(dx, dy float64) float64 {
	if math.Abs(dx) > e.cutX || math.Abs(dy) > e.cutX {
		return 0
	}
	return e.xyNorm * kernel.Transverse(dx, dy, e.cfg.SigmaX, 1, 1, 0)
}

// longitudinal is the Gaussian kernel in space-time rapidity cut at
// n_sigma_skip * sigma_eta and renormalized over the cut.
func (e *Engine) longitudinal(deta float64) float64 {
	if math.Abs(deta) > e.cutEta {
		return 0
	}
	return e.etaNorm * kernel.Gaussian(deta, e.cfg.SigmaEta)
}

// addString adds the body and both remnant ends of string i.
func (e *Engine) addString(j *EnergyFlowVec, i int, mode deposit, tau, x, y, eta float64) {
	s := &e.repo.Strings()[i]
	gxy := e.transverse(x-s.XPerp, y-s.YPerp)
	if gxy == 0 {
		return
	}

	if s.Norm != 0 {
		p := kernel.FermiBox(eta, s.EtaSLeft, s.EtaSRight, e.cfg.SigmaEta)
		if gt := e.temporal(mode, tau, s.DepositTau(eta), s.TauStart); gt != 0 {
			addFlow(j, s.Norm*p*gt*gxy/tau, s.RapidityAt(eta)-eta)
		}
	}
	ends := &e.ends[i]
	e.addRemnant(j, s.EBaryonNormL, ends[0], s.EtaSLeft, s.YL, gxy, mode, tau, eta)
	e.addRemnant(j, s.EBaryonNormR, ends[1], s.EtaSRight, s.YR, gxy, mode, tau, eta)
}

func (e *Engine) addRemnant(j *EnergyFlowVec, weight float64, w kernel.Truncated, etaEnd, rapidity, gxy float64, mode deposit, tau, eta float64) {
	if weight == 0 {
		return
	}
	geta := e.longitudinal(eta - etaEnd)
	if geta == 0 {
		return
	}
	gt := timed(mode, w, tau)
	if gt == 0 {
		return
	}
	addFlow(j, weight*gt*gxy*geta/tau, rapidity-eta)
}

// addFlow adds a deposit of energy density amp moving with rapidity
// dy = y - eta relative to the local Milne frame.
func addFlow(j *EnergyFlowVec, amp, dy float64) {
	j[0] += amp * math.Cosh(dy)
	j[3] += amp * math.Sinh(dy)
}

// stringBaryon is the net baryon density carried by the remnant ends of
// string i.
func (e *Engine) stringBaryon(i int, mode deposit, tau, x, y, eta float64) float64 {
	s := &e.repo.Strings()[i]
	gxy := e.transverse(x-s.XPerp, y-s.YPerp)
	if gxy == 0 {
		return 0
	}
	ends := &e.ends[i]
	var rho float64
	if s.FracL > 0 {
		rho += s.FracL * timed(mode, ends[0], tau) * e.longitudinal(eta-s.EtaSLeft)
	}
	if s.FracR > 0 {
		rho += s.FracR * timed(mode, ends[1], tau) * e.longitudinal(eta-s.EtaSRight)
	}
	return rho * gxy / tau
}

// addParton adds the energy-momentum of parton i.
func (e *Engine) addParton(j *EnergyFlowVec, i int, mode deposit, tau, x, y, eta float64) {
	p := &e.repo.Partons()[i]
	k := e.cfg.PartonQuenchFactor * e.partonKernel(i, mode, tau, x, y, eta)
	if k == 0 {
		return
	}
	mt := p.E / math.Cosh(p.Rapidity)
	j[0] += k * mt * math.Cosh(p.Rapidity-eta)
	j[1] += k * p.Px
	j[2] += k * p.Py
	j[3] += k * mt * math.Sinh(p.Rapidity-eta)
}

// partonBaryon is the net baryon density of parton i.
func (e *Engine) partonBaryon(i int, mode deposit, tau, x, y, eta float64) float64 {
	return e.repo.Partons()[i].BaryonNumber * e.partonKernel(i, mode, tau, x, y, eta)
}

// partonKernel is the normalized space-time kernel of parton i divided by
// tau. The transverse profile is contracted along the parton's transverse
// momentum by its transverse boost, capped at parton_max_perp_boost, and is
// cut at n_sigma_skip widths along both of its own axes.
func (e *Engine) partonKernel(i int, mode deposit, tau, x, y, eta float64) float64 {
	p := &e.repo.Partons()[i]
	gamma, c, s := 1.0, 1.0, 0.0
	if pt := math.Hypot(p.Px, p.Py); pt > 0 {
		gamma = math.Min(math.Cosh(p.RapidityPerp), e.cfg.PartonMaxPerpBoost)
		c, s = p.Px/pt, p.Py/pt
	}
	dx, dy := x-p.X, y-p.Y
	par, perp := dx*c+dy*s, -dx*s+dy*c
	if math.Abs(par) > e.cutX/gamma || math.Abs(perp) > e.cutX {
		return 0
	}
	geta := e.longitudinal(eta - p.EtaS)
	if geta == 0 {
		return 0
	}
	gt := timed(mode, e.partonT[i], tau)
	if gt == 0 {
		return 0
	}
	gxy := e.xyNorm * kernel.Transverse(dx, dy, e.cfg.SigmaX, gamma, c, s)
	return gt * gxy * geta / tau
}
