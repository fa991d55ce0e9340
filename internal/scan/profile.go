package scan

import (
	"context"
	"fmt"
	"time"

	"github.com/papapumpkin/hydrosource/internal/source"
)

// Line is a set of evenly spaced points along one axis. The coordinate of
// the chosen axis runs from From to To inclusive; the others stay fixed.
type Line struct {
	Axis     Axis
	From, To float64
	Points   int

	Tau, X, Y, Eta float64
}

// Validate checks the point count and bounds.
func (l Line) Validate() error {
	if l.Points < 1 {
		return fmt.Errorf("%w: line needs at least one point, got %d", ErrInvalidGrid, l.Points)
	}
	if l.To < l.From {
		return fmt.Errorf("%w: line runs backwards from %g to %g", ErrInvalidGrid, l.From, l.To)
	}
	return nil
}

// at returns the space-time point of sample i.
func (l Line) at(i int) (tau, x, y, eta float64) {
	c := l.From
	if l.Points > 1 {
		c += float64(i) * (l.To - l.From) / float64(l.Points-1)
	}
	tau, x, y, eta = l.Tau, l.X, l.Y, l.Eta
	switch l.Axis {
	case AxisX:
		x = c
	case AxisY:
		y = c
	case AxisEta:
		eta = c
	case AxisTau:
		tau = c
	}
	return tau, x, y, eta
}

// Sample is the source at one point of a Line.
type Sample struct {
	Tau, X, Y, Eta float64
	J              source.EnergyFlowVec
	Rho            float64
}

// Coord returns the sample's coordinate along axis.
func (s Sample) Coord(axis Axis) float64 {
	switch axis {
	case AxisX:
		return s.X
	case AxisY:
		return s.Y
	case AxisTau:
		return s.Tau
	}
	return s.Eta
}

// Profile samples the source along l. Lines along proper time rebuild the
// window at every point; other lines share one window.
func (s *Scanner) Profile(ctx context.Context, l Line, mode Mode) ([]Sample, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	out := make([]Sample, l.Points)
	if mode == Instantaneous && l.Axis != AxisTau {
		s.src.PrepareWindow(l.Tau)
	}
	for i := range out {
		if i%64 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		tau, x, y, eta := l.at(i)
		smp := Sample{Tau: tau, X: x, Y: y, Eta: eta}
		switch mode {
		case Cumulative:
			s.src.EnergySourceBeforeTau(tau, x, y, eta, restFrame, &smp.J)
			smp.Rho = s.src.RhobSourceBeforeTau(tau, x, y, eta, restFrame)
		default:
			if l.Axis == AxisTau {
				s.src.PrepareWindow(tau)
			}
			s.src.EnergySource(tau, x, y, eta, restFrame, &smp.J)
			smp.Rho = s.src.RhobSource(tau, x, y, eta, restFrame)
		}
		out[i] = smp
	}
	s.rec.ObservePoints(l.Points)
	s.rec.ObserveSweep("profile", time.Since(start))
	return out, nil
}
