package scan

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/papapumpkin/hydrosource/internal/source"
)

// Grid is a cell-centered box in (x, y, η). Cells are sampled at their
// midpoints.
type Grid struct {
	XMin, XMax     float64
	YMin, YMax     float64
	EtaMin, EtaMax float64
	NX, NY, NEta   int
}

// DefaultGrid covers a heavy-ion fireball: ±10 fm transverse at 0.2 fm and
// |η| < 8 at 0.1.
func DefaultGrid() Grid {
	return Grid{
		XMin: -10, XMax: 10, NX: 100,
		YMin: -10, YMax: 10, NY: 100,
		EtaMin: -8, EtaMax: 8, NEta: 160,
	}
}

// Validate checks cell counts and bounds.
func (g Grid) Validate() error {
	if g.NX < 1 || g.NY < 1 || g.NEta < 1 {
		return fmt.Errorf("%w: cell counts %d×%d×%d", ErrInvalidGrid, g.NX, g.NY, g.NEta)
	}
	if !(g.XMax > g.XMin && g.YMax > g.YMin && g.EtaMax > g.EtaMin) {
		return fmt.Errorf("%w: empty or inverted bounds", ErrInvalidGrid)
	}
	return nil
}

// Cells returns the total number of cells.
func (g Grid) Cells() int { return g.NX * g.NY * g.NEta }

func (g Grid) steps() (dx, dy, deta float64) {
	return (g.XMax - g.XMin) / float64(g.NX),
		(g.YMax - g.YMin) / float64(g.NY),
		(g.EtaMax - g.EtaMin) / float64(g.NEta)
}

// Totals are the source integrated over a tau slice with the Milne measure
// τ dx dy dη. Energy and Pz are lab-frame.
type Totals struct {
	Energy float64 `json:"energy"`
	Px     float64 `json:"px"`
	Py     float64 `json:"py"`
	Pz     float64 `json:"pz"`
	Baryon float64 `json:"baryon"`
}

func (t *Totals) add(o Totals) {
	t.Energy += o.Energy
	t.Px += o.Px
	t.Py += o.Py
	t.Pz += o.Pz
	t.Baryon += o.Baryon
}

func (t Totals) scaled(f float64) Totals {
	return Totals{Energy: t.Energy * f, Px: t.Px * f, Py: t.Py * f, Pz: t.Pz * f, Baryon: t.Baryon * f}
}

// Integrate integrates the source over grid on the tau slice. In
// Instantaneous mode it first rebuilds the engine window for tau; the
// result is then a deposition rate per unit proper time.
func (s *Scanner) Integrate(ctx context.Context, tau float64, grid Grid, mode Mode) (Totals, error) {
	if err := grid.Validate(); err != nil {
		return Totals{}, err
	}
	start := time.Now()
	if mode == Instantaneous {
		s.src.PrepareWindow(tau)
	}
	totals, err := s.integrate(ctx, tau, grid, mode)
	if err != nil {
		return Totals{}, err
	}
	s.rec.ObservePoints(grid.Cells())
	s.rec.ObserveSweep("integrate", time.Since(start))
	s.logger.Debug("slice integrated",
		zap.Float64("tau", tau),
		zap.Stringer("mode", mode),
		zap.Float64("energy", totals.Energy),
		zap.Float64("baryon", totals.Baryon),
	)
	return totals, nil
}

// integrate fans the x slabs of grid out over the worker pool. The window
// must already be prepared; nothing here mutates the engine.
func (s *Scanner) integrate(ctx context.Context, tau float64, grid Grid, mode Mode) (Totals, error) {
	dx, dy, deta := grid.steps()
	slabs := make([]Totals, grid.NX)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := 0; i < grid.NX; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			x := grid.XMin + (float64(i)+0.5)*dx
			var slab Totals
			var j source.EnergyFlowVec
			for k := 0; k < grid.NY; k++ {
				y := grid.YMin + (float64(k)+0.5)*dy
				for l := 0; l < grid.NEta; l++ {
					eta := grid.EtaMin + (float64(l)+0.5)*deta
					var rho float64
					if mode == Cumulative {
						s.src.EnergySourceBeforeTau(tau, x, y, eta, restFrame, &j)
						rho = s.src.RhobSourceBeforeTau(tau, x, y, eta, restFrame)
					} else {
						s.src.EnergySource(tau, x, y, eta, restFrame, &j)
						rho = s.src.RhobSource(tau, x, y, eta, restFrame)
					}
					ch, sh := math.Cosh(eta), math.Sinh(eta)
					slab.Energy += j[0]*ch + j[3]*sh
					slab.Pz += j[0]*sh + j[3]*ch
					slab.Px += j[1]
					slab.Py += j[2]
					slab.Baryon += rho
				}
			}
			slabs[i] = slab
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Totals{}, err
	}

	var total Totals
	for _, slab := range slabs {
		total.add(slab)
	}
	return total.scaled(tau * dx * dy * deta), nil
}
