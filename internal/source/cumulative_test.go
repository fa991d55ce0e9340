package source

import (
	"fmt"
	"math"
	"testing"

	"github.com/papapumpkin/hydrosource/internal/emitter"
)

// sliceIntegral integrates f(x, y, eta) * tau over a transverse square of
// half-width 3.5 fm and |eta| < 9 with the midpoint rule.
func sliceIntegral(tau float64, f func(x, y, eta float64) float64) float64 {
	return gridIntegral(tau, 3.5, 0.1, 9, 0.05, f)
}

// gridIntegral integrates f(x, y, eta) * tau over |x|, |y| < xMax and
// |eta| < eMax with the midpoint rule on cells of size hx and he.
func gridIntegral(tau, xMax, hx, eMax, he float64, f func(x, y, eta float64) float64) float64 {
	nx := int(math.Round(2 * xMax / hx))
	ne := int(math.Round(2 * eMax / he))
	var sum float64
	for i := 0; i < nx; i++ {
		x := -xMax + (float64(i)+0.5)*hx
		for k := 0; k < nx; k++ {
			y := -xMax + (float64(k)+0.5)*hx
			for l := 0; l < ne; l++ {
				eta := -eMax + (float64(l)+0.5)*he
				sum += f(x, y, eta)
			}
		}
	}
	return sum * tau * hx * hx * he
}

func TestBeforeTau_Conservation(t *testing.T) {
	t.Parallel()

	src := testConfig()
	src.StringQuenchFactor = 0.9
	e := newEngine(t, src, []emitter.QCDString{testString()}, []emitter.Parton{testParton()})
	report, _ := e.Normalize()
	p := testParton()

	const late = 4.0
	var energy, px, py, baryon float64
	energy = sliceIntegral(late, func(x, y, eta float64) float64 {
		var j EnergyFlowVec
		e.EnergySourceBeforeTau(late, x, y, eta, atRest, &j)
		px += j[1]
		py += j[2]
		baryon += e.RhobSourceBeforeTau(late, x, y, eta, atRest)
		return j.LabEnergy(eta)
	})
	cell := late * 0.1 * 0.1 * 0.05
	px *= cell
	py *= cell
	baryon *= cell

	checks := []struct {
		name      string
		got, want float64
	}{
		{"energy", energy, report.TotalEnergy()},
		{"px", px, p.Px},
		{"py", py, p.Py},
		{"baryon", baryon, report.NetBaryon},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.want) > 2e-3*math.Abs(c.want) {
			t.Errorf("%s: integral %v, assigned %v", c.name, c.got, c.want)
		}
	}
}

func TestBeforeTau_ConservationAtSmallCutoff(t *testing.T) {
	t.Parallel()

	// A parton moving along x, boosted past the cap so its profile is
	// contracted by exactly 2. Every emitter center and every cut edge then
	// falls on a cell edge of the 0.05 grid below.
	p := testParton()
	p.Px, p.Py = 3, 0
	mt := math.Hypot(p.Mass, p.Px)
	p.RapidityPerp = math.Atanh(p.Px / mt)
	p.E = mt * math.Cosh(p.Rapidity)

	for _, n := range []float64{1, 2, 3} {
		t.Run(fmt.Sprintf("n_sigma_skip=%g", n), func(t *testing.T) {
			t.Parallel()

			src := testConfig()
			src.NSigmaSkip = n
			e := newEngine(t, src, []emitter.QCDString{testString()}, []emitter.Parton{p})
			report, _ := e.Normalize()

			const (
				late   = 4.0
				hx, he = 0.05, 0.05
			)
			var px, baryon float64
			energy := gridIntegral(late, 2.5, hx, 6, he, func(x, y, eta float64) float64 {
				var j EnergyFlowVec
				e.EnergySourceBeforeTau(late, x, y, eta, atRest, &j)
				px += j[1]
				baryon += e.RhobSourceBeforeTau(late, x, y, eta, atRest)
				return j.LabEnergy(eta)
			})
			cell := late * hx * hx * he
			px *= cell
			baryon *= cell

			checks := []struct {
				name      string
				got, want float64
			}{
				{"energy", energy, report.TotalEnergy()},
				{"px", px, p.Px},
				{"baryon", baryon, report.NetBaryon},
			}
			for _, c := range checks {
				if math.Abs(c.got-c.want) > 5e-3*math.Abs(c.want) {
					t.Errorf("%s: integral %v, assigned %v", c.name, c.got, c.want)
				}
			}
		})
	}
}

func TestBeforeTau_OnlyFinishedEmitters(t *testing.T) {
	t.Parallel()

	s, p := testString(), testParton()
	both := newEngine(t, testConfig(), []emitter.QCDString{s}, []emitter.Parton{p})
	partonOnly := newEngine(t, testConfig(), nil, []emitter.Parton{p})

	// At tau 2 the parton (0.8) is done but the string (tau_stop 3) is not.
	for _, eta := range []float64{-1, 0, 0.3, 1} {
		var got, want EnergyFlowVec
		both.EnergySourceBeforeTau(2, 0.4, 0.1, eta, atRest, &got)
		partonOnly.EnergySourceBeforeTau(2, 0.4, 0.1, eta, atRest, &want)
		if got != want {
			t.Errorf("eta=%v: got %v, want parton-only %v", eta, got, want)
		}
		if rb, rp := both.RhobSourceBeforeTau(2, 0.4, 0.1, eta, atRest), partonOnly.RhobSourceBeforeTau(2, 0.4, 0.1, eta, atRest); rb != rp {
			t.Errorf("eta=%v: rho %v, want parton-only %v", eta, rb, rp)
		}
	}

	var j EnergyFlowVec
	partonOnly.EnergySourceBeforeTau(0.5, p.X, p.Y, p.EtaS, atRest, &j)
	if j != (EnergyFlowVec{}) {
		t.Errorf("parton counted before its proper time: %v", j)
	}
	partonOnly.EnergySourceBeforeTau(0, p.X, p.Y, p.EtaS, atRest, &j)
	if j != (EnergyFlowVec{}) {
		t.Errorf("non-positive tau gave %v", j)
	}
}

func TestBeforeTau_MatchesTimeIntegral(t *testing.T) {
	t.Parallel()

	e := newEngine(t, testConfig(), []emitter.QCDString{testString()}, []emitter.Parton{testParton()})

	points := [][3]float64{
		{0.3, -0.2, 0.2},
		{0.4, 0.1, -1.4},
		{0.5, 0.4, 0.3},
	}
	const (
		late = 4.0
		dtau = 0.0005
	)
	for _, pt := range points {
		x, y, eta := pt[0], pt[1], pt[2]
		var energy, rho float64
		for tau := dtau / 2; tau < late; tau += dtau {
			e.PrepareWindow(tau)
			var j EnergyFlowVec
			e.EnergySource(tau, x, y, eta, atRest, &j)
			energy += tau * j[0] * dtau
			rho += tau * e.RhobSource(tau, x, y, eta, atRest) * dtau
		}

		var cum EnergyFlowVec
		e.EnergySourceBeforeTau(late, x, y, eta, atRest, &cum)
		if want := late * cum[0]; math.Abs(energy-want) > 1e-3*want {
			t.Errorf("at %v: time-integrated J^tau %v, cumulative %v", pt, energy, want)
		}
		want := late * e.RhobSourceBeforeTau(late, x, y, eta, atRest)
		if math.Abs(rho-want) > 1e-3*want+1e-12 {
			t.Errorf("at %v: time-integrated rho %v, cumulative %v", pt, rho, want)
		}
	}
}
