package source

import (
	"math"

	"go.uber.org/zap"

	"github.com/papapumpkin/hydrosource/internal/emitter"
)

// Window is the set of emitters that can contribute at one proper time.
// Its slices are reused across rebuilds; callers must not keep them past
// the next PrepareWindow.
type Window struct {
	tau    float64
	active []emitter.Handle
	baryon []emitter.Handle
}

// Tau is the proper time the window was prepared for.
func (w *Window) Tau() float64 { return w.tau }

// Active lists every string and parton that can deposit energy at Tau.
func (w *Window) Active() []emitter.Handle { return w.active }

// Baryon lists the emitters that can deposit net baryon number at Tau.
func (w *Window) Baryon() []emitter.Handle { return w.baryon }

// WindowStats counts the emitters selected by PrepareWindow.
type WindowStats struct {
	Tau           float64 `json:"tau"`
	Strings       int     `json:"strings"`
	BaryonStrings int     `json:"baryon_strings"`
	Partons       int     `json:"partons"`
	BaryonPartons int     `json:"baryon_partons"`
}

// PrepareWindow rebuilds the working lists for proper time tau, replacing
// the previous window. With w = n_sigma_skip * sigma_tau, a string is active
// for tau_start <= tau < tau_stop + w and feeds the baryon list while tau is
// within w of an end carrying baryon number; a parton is active while tau is
// within w of its own proper time.
func (e *Engine) PrepareWindow(tau float64) WindowStats {
	w := &e.win
	w.tau = tau
	w.active = w.active[:0]
	w.baryon = w.baryon[:0]
	stats := WindowStats{Tau: tau}

	for i := range e.repo.Strings() {
		s := &e.repo.Strings()[i]
		if tau < s.TauStart || tau >= s.TauStop()+e.reach {
			continue
		}
		h := emitter.Handle{Kind: emitter.KindString, Index: int32(i)}
		w.active = append(w.active, h)
		stats.Strings++
		if e.nearBaryonEnd(s, tau) {
			w.baryon = append(w.baryon, h)
			stats.BaryonStrings++
		}
	}
	for i := range e.repo.Partons() {
		p := &e.repo.Partons()[i]
		if math.Abs(tau-p.Tau) >= e.reach {
			continue
		}
		h := emitter.Handle{Kind: emitter.KindParton, Index: int32(i)}
		w.active = append(w.active, h)
		stats.Partons++
		if p.BaryonNumber != 0 {
			w.baryon = append(w.baryon, h)
			stats.BaryonPartons++
		}
	}

	e.rec.ObserveWindow(tau, stats.Strings, stats.BaryonStrings, stats.Partons)
	e.logger.Debug("window prepared",
		zap.Float64("tau", tau),
		zap.Int("strings", stats.Strings),
		zap.Int("baryon_strings", stats.BaryonStrings),
		zap.Int("partons", stats.Partons),
		zap.Int("baryon_partons", stats.BaryonPartons),
	)
	return stats
}

// Window returns the current working lists.
func (e *Engine) Window() *Window { return &e.win }

func (e *Engine) nearBaryonEnd(s *emitter.QCDString, tau float64) bool {
	return (s.FracL > 0 && math.Abs(tau-s.TauEndLeft) < e.reach) ||
		(s.FracR > 0 && math.Abs(tau-s.TauEndRight) < e.reach)
}
