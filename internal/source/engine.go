// Package source turns the emitters of an emitter.Repository into smooth
// energy-momentum and net-baryon source densities for a hydrodynamic solver
// stepping in proper time.
//
// The solver drives an Engine in a fixed order: Normalize once, then for
// every proper-time step PrepareWindow followed by any number of
// EnergySource and RhobSource calls. Evaluation calls for one step are
// read-only and may run concurrently; PrepareWindow must not overlap them.
//
// Four-vectors use the Milne basis (τ, x, y, η) with the η component
// multiplied by τ, so all four entries carry the same units.
package source

import (
	"errors"
	"math"

	"go.uber.org/zap"

	"github.com/papapumpkin/hydrosource/internal/config"
	"github.com/papapumpkin/hydrosource/internal/emitter"
	"github.com/papapumpkin/hydrosource/internal/kernel"
	"github.com/papapumpkin/hydrosource/internal/metrics"
)

// ErrNormalization reports that the emitters cannot be normalized to a
// positive energy budget.
var ErrNormalization = errors.New("normalization failed")

// ErrNilRepository is returned by New when no repository is supplied.
var ErrNilRepository = errors.New("source: nil repository")

// FlowVec is a fluid four-velocity (u^τ, u^x, u^y, τu^η).
type FlowVec [4]float64

// EnergyFlowVec is an energy-momentum source (J^τ, J^x, J^y, τJ^η) in GeV/fm⁴.
type EnergyFlowVec [4]float64

// LabEnergy returns the lab-frame energy density J^t at space-time rapidity eta.
func (j EnergyFlowVec) LabEnergy(eta float64) float64 {
	return j[0]*math.Cosh(eta) + j[3]*math.Sinh(eta)
}

// LocalEnergy projects the source on the flow velocity, u_μ J^μ, giving the
// energy deposition rate seen in the fluid rest frame.
func (j EnergyFlowVec) LocalEnergy(u FlowVec) float64 {
	return j[0]*u[0] - j[1]*u[1] - j[2]*u[2] - j[3]*u[3]
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for normalization and window diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder notified on normalization and
// window rebuilds.
func WithRecorder(r metrics.Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.rec = r
		}
	}
}

// Engine evaluates source densities for one repository.
type Engine struct {
	cfg    config.Source
	repo   *emitter.Repository
	logger *zap.Logger
	rec    metrics.Recorder

	reach  float64 // n_sigma_skip * sigma_tau
	cutX   float64 // n_sigma_skip * sigma_x
	cutEta float64 // n_sigma_skip * sigma_eta

	// Inverse kept mass of the cut transverse and rapidity Gaussians.
	xyNorm, etaNorm float64

	// Proper-time kernels of the remnant ends and partons, indexed like the
	// repository.
	ends    [][2]kernel.Truncated
	partonT []kernel.Truncated

	volume float64
	tauMin float64
	tauMax float64

	report     NormReport
	haveReport bool
	win        Window
}

// New validates cfg and builds an engine over repo. The engine keeps its own
// copy of cfg. repo must be fully populated; emitters added later are not
// seen by the range and kernel tables.
func New(cfg config.Source, repo *emitter.Repository, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if repo == nil {
		return nil, ErrNilRepository
	}
	e := &Engine{
		cfg:    cfg,
		repo:   repo,
		logger: zap.NewNop(),
		rec:    metrics.Nop{},
		reach:  cfg.TemporalReach(),
		cutX:   cfg.NSigmaSkip * cfg.SigmaX,
		cutEta: cfg.NSigmaSkip * cfg.SigmaEta,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.volume = smearingVolume(cfg)
	e.tauMin, e.tauMax = e.activeRange()
	e.buildKernels()
	return e, nil
}

// buildKernels fixes the cutoff normalizations and the proper-time windows
// that depend only on the emitter. String bodies keep a per-point window
// because their center moves with eta.
func (e *Engine) buildKernels() {
	m := kernel.CutMass(e.cfg.NSigmaSkip)
	e.etaNorm = 1 / m
	e.xyNorm = 1 / (m * m)

	strs := e.repo.Strings()
	e.ends = make([][2]kernel.Truncated, len(strs))
	for i := range strs {
		s := &strs[i]
		e.ends[i] = [2]kernel.Truncated{
			kernel.Window(s.TauEndLeft, e.cfg.SigmaTau, e.reach, s.TauStart),
			kernel.Window(s.TauEndRight, e.cfg.SigmaTau, e.reach, s.TauStart),
		}
	}
	parts := e.repo.Partons()
	e.partonT = make([]kernel.Truncated, len(parts))
	for i := range parts {
		e.partonT[i] = kernel.Window(parts[i].Tau, e.cfg.SigmaTau, e.reach, 0)
	}
}

// Repository returns the repository the engine evaluates.
func (e *Engine) Repository() *emitter.Repository { return e.repo }

// Config returns the deposition parameters.
func (e *Engine) Config() config.Source { return e.cfg }

// TauMin is the earliest proper time at which any emitter deposits.
func (e *Engine) TauMin() float64 { return e.tauMin }

// TauMax is the latest proper time at which any emitter deposits.
func (e *Engine) TauMax() float64 { return e.tauMax }

// Volume is the smearing volume (2πσx²)(√(2π)ση)(√(2π)στ) in fm³.
func (e *Engine) Volume() float64 { return e.volume }

func smearingVolume(cfg config.Source) float64 {
	return 2 * math.Pi * cfg.SigmaX * cfg.SigmaX *
		math.Sqrt(2*math.Pi) * cfg.SigmaEta *
		math.Sqrt(2*math.Pi) * cfg.SigmaTau
}

// activeRange derives the proper-time support of all emitters and
// intersects it with the configured clamps.
func (e *Engine) activeRange() (lo, hi float64) {
	if e.repo.Empty() {
		return 0, 0
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for i := range e.repo.Strings() {
		s := &e.repo.Strings()[i]
		lo = math.Min(lo, s.TauStart)
		hi = math.Max(hi, s.TauStop()+e.reach)
	}
	for i := range e.repo.Partons() {
		p := &e.repo.Partons()[i]
		lo = math.Min(lo, math.Max(0, p.Tau-e.reach))
		hi = math.Max(hi, p.Tau+e.reach)
	}
	if e.cfg.TauMin > 0 {
		lo = math.Max(lo, e.cfg.TauMin)
	}
	if e.cfg.TauMax > 0 {
		hi = math.Min(hi, e.cfg.TauMax)
	}
	return lo, hi
}

// inRange reports whether instantaneous sources can be nonzero at tau.
func (e *Engine) inRange(tau float64) bool {
	return tau > 0 && tau >= e.tauMin && tau <= e.tauMax
}
