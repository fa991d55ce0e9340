package scan

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/papapumpkin/hydrosource/internal/source"
	"github.com/papapumpkin/hydrosource/internal/telemetry"
)

// Conservation configures a conservation sweep.
type Conservation struct {
	Grid  Grid
	Steps int // proper-time steps between TauMin and TauMax

	// Expected is the normalization report the sweep is checked against.
	Expected source.NormReport
}

// ConservationReport compares deposited energy and baryon number with the
// amounts assigned by normalization.
type ConservationReport struct {
	TauMin float64 `json:"tau_min"`
	TauMax float64 `json:"tau_max"`
	Steps  int     `json:"steps"`

	Deposited  Totals `json:"deposited"`  // instantaneous source integrated over tau
	Cumulative Totals `json:"cumulative"` // cumulative source at TauMax

	ExpectedEnergy float64 `json:"expected_energy"`
	ExpectedBaryon float64 `json:"expected_baryon"`
}

// EnergyError is the larger relative deviation of the deposited and
// cumulative energies from the expected energy.
func (r ConservationReport) EnergyError() float64 {
	return math.Max(relErr(r.Deposited.Energy, r.ExpectedEnergy), relErr(r.Cumulative.Energy, r.ExpectedEnergy))
}

// BaryonError is the larger absolute deviation of the deposited and
// cumulative baryon numbers from the expected net baryon number.
func (r ConservationReport) BaryonError() float64 {
	return math.Max(math.Abs(r.Deposited.Baryon-r.ExpectedBaryon), math.Abs(r.Cumulative.Baryon-r.ExpectedBaryon))
}

// Within reports whether energy is conserved to relative tolerance tol and
// baryon number to absolute tolerance tol.
func (r ConservationReport) Within(tol float64) bool {
	return r.EnergyError() <= tol && r.BaryonError() <= tol
}

func relErr(got, want float64) float64 {
	if want == 0 {
		return math.Abs(got)
	}
	return math.Abs(got-want) / math.Abs(want)
}

// Conservation steps proper time across the engine's active range with the
// midpoint rule, integrating the instantaneous source over the grid at each
// step, and compares the result and the cumulative source at TauMax with the
// expected totals. It checks ctx between steps.
func (s *Scanner) Conservation(ctx context.Context, c Conservation) (ConservationReport, error) {
	if err := c.Grid.Validate(); err != nil {
		return ConservationReport{}, err
	}
	if c.Steps < 1 {
		return ConservationReport{}, fmt.Errorf("%w: need at least one proper-time step, got %d", ErrInvalidGrid, c.Steps)
	}

	start := time.Now()
	lo, hi := s.src.TauMin(), s.src.TauMax()
	r := ConservationReport{
		TauMin:         lo,
		TauMax:         hi,
		Steps:          c.Steps,
		ExpectedEnergy: c.Expected.TotalEnergy(),
		ExpectedBaryon: c.Expected.NetBaryon,
	}
	if !(hi > lo) {
		return r, nil
	}

	dtau := (hi - lo) / float64(c.Steps)
	for i := 0; i < c.Steps; i++ {
		if err := ctx.Err(); err != nil {
			return ConservationReport{}, err
		}
		tau := lo + (float64(i)+0.5)*dtau
		stats := s.src.PrepareWindow(tau)
		s.emit(telemetry.KindWindow, tau, stats)
		if stats.Strings+stats.Partons == 0 {
			continue
		}
		rate, err := s.integrate(ctx, tau, c.Grid, Instantaneous)
		if err != nil {
			return ConservationReport{}, err
		}
		r.Deposited.add(rate.scaled(dtau))
		s.rec.ObservePoints(c.Grid.Cells())
	}

	cum, err := s.integrate(ctx, hi, c.Grid, Cumulative)
	if err != nil {
		return ConservationReport{}, err
	}
	s.rec.ObservePoints(c.Grid.Cells())
	r.Cumulative = cum

	elapsed := time.Since(start)
	s.rec.ObserveSweep("conservation", elapsed)
	s.emit(telemetry.KindCheckDone, hi, r)
	s.logger.Info("conservation sweep done",
		zap.Int("steps", c.Steps),
		zap.Float64("deposited_energy", r.Deposited.Energy),
		zap.Float64("cumulative_energy", r.Cumulative.Energy),
		zap.Float64("expected_energy", r.ExpectedEnergy),
		zap.Float64("energy_error", r.EnergyError()),
		zap.Float64("baryon_error", r.BaryonError()),
		zap.Duration("elapsed", elapsed),
	)
	return r, nil
}
