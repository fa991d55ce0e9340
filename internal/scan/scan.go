// Package scan drives a source engine the way a hydrodynamic solver does:
// one window rebuild per proper-time step followed by a parallel, read-only
// fan-out over grid points. It provides axis profiles, slice integrals, and
// an energy conservation sweep.
package scan

import (
	"errors"
	"fmt"
	"runtime"

	"go.uber.org/zap"

	"github.com/papapumpkin/hydrosource/internal/metrics"
	"github.com/papapumpkin/hydrosource/internal/source"
	"github.com/papapumpkin/hydrosource/internal/telemetry"
)

// ErrInvalidGrid is returned for grids and lines with no cells or inverted
// bounds.
var ErrInvalidGrid = errors.New("invalid grid")

// Source is the per-step coupling surface of a source engine.
type Source interface {
	TauMin() float64
	TauMax() float64
	PrepareWindow(tau float64) source.WindowStats
	EnergySource(tau, x, y, etaS float64, u source.FlowVec, j *source.EnergyFlowVec)
	RhobSource(tau, x, y, etaS float64, u source.FlowVec) float64
	EnergySourceBeforeTau(tau, x, y, etaS float64, u source.FlowVec, j *source.EnergyFlowVec)
	RhobSourceBeforeTau(tau, x, y, etaS float64, u source.FlowVec) float64
}

// Mode selects instantaneous or cumulative evaluation.
type Mode int

const (
	// Instantaneous evaluates the source rate at tau from the current window.
	Instantaneous Mode = iota
	// Cumulative evaluates everything deposited by tau.
	Cumulative
)

// String returns the lowercase mode name.
func (m Mode) String() string {
	if m == Cumulative {
		return "cumulative"
	}
	return "instantaneous"
}

// restFrame is the flow velocity passed to the engine; the deposition model
// does not depend on it.
var restFrame = source.FlowVec{1, 0, 0, 0}

// Scanner runs sweeps over one Source. A Scanner serializes window rebuilds
// with its own fan-outs, so it must not be shared by concurrent sweeps.
type Scanner struct {
	src     Source
	workers int
	logger  *zap.Logger
	rec     metrics.Recorder
	events  *telemetry.Emitter
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithWorkers bounds the number of goroutines evaluating grid slabs.
func WithWorkers(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithLogger sets the scanner logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Scanner) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder for point counts and sweep times.
func WithRecorder(r metrics.Recorder) Option {
	return func(s *Scanner) {
		if r != nil {
			s.rec = r
		}
	}
}

// WithTelemetry sets the event emitter. A nil emitter disables events.
func WithTelemetry(em *telemetry.Emitter) Option {
	return func(s *Scanner) { s.events = em }
}

// New returns a Scanner over src.
func New(src Source, opts ...Option) *Scanner {
	s := &Scanner{
		src:     src,
		workers: runtime.GOMAXPROCS(0),
		logger:  zap.NewNop(),
		rec:     metrics.Nop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// emit records a telemetry event; failures are logged, never fatal.
func (s *Scanner) emit(kind string, tau float64, data any) {
	if err := s.events.Record(kind, tau, data); err != nil {
		s.logger.Warn("telemetry event dropped", zap.String("kind", kind), zap.Error(err))
	}
}

// Axis names a coordinate along which a Line runs.
type Axis int

const (
	// AxisX runs along the transverse x direction.
	AxisX Axis = iota
	// AxisY runs along the transverse y direction.
	AxisY
	// AxisEta runs along space-time rapidity.
	AxisEta
	// AxisTau runs along proper time.
	AxisTau
)

var axisNames = [...]string{"x", "y", "eta", "tau"}

// String returns the axis name.
func (a Axis) String() string {
	if a < 0 || int(a) >= len(axisNames) {
		return fmt.Sprintf("axis(%d)", int(a))
	}
	return axisNames[a]
}

// ParseAxis maps a name produced by Axis.String back to the axis.
func ParseAxis(name string) (Axis, error) {
	for i, n := range axisNames {
		if n == name {
			return Axis(i), nil
		}
	}
	return 0, fmt.Errorf("scan: unknown axis %q", name)
}
