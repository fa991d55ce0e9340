package reader

import (
	"io"
	"math"

	"github.com/papapumpkin/hydrosource/internal/config"
	"github.com/papapumpkin/hydrosource/internal/emitter"
)

// lexusFields is the record width of a string file:
//
//	mass m_over_sigma tau_0 eta_s_0 x_perp y_perp y_l_i y_r_i y_l y_r frac_l frac_r
const lexusFields = 12

const fracTolerance = 1e-6

// ReadStrings parses LEXUS string records from r and appends the derived
// strings to repo. name labels errors. It returns the number of strings read.
func ReadStrings(r io.Reader, name string, src config.Source, repo *emitter.Repository) (int, error) {
	n := 0
	err := eachRecord(r, name, lexusFields, func(line int, v []float64) error {
		s, perr := buildString(v, src)
		if perr != "" {
			return malformed(name, line, "%s", perr)
		}
		repo.AddString(s)
		n++
		return nil
	})
	return n, err
}

// buildString derives the space-time geometry of one string from its
// production record. A non-empty reason reports why the record was rejected.
func buildString(v []float64, src config.Source) (emitter.QCDString, string) {
	s := emitter.QCDString{
		Mass:       v[0],
		MOverSigma: v[1],
		Tau0:       v[2],
		EtaS0:      v[3],
		XPerp:      v[4],
		YPerp:      v[5],
		YLi:        v[6],
		YRi:        v[7],
		YL:         v[8],
		YR:         v[9],
		FracL:      v[10],
		FracR:      v[11],
	}

	switch {
	case s.Mass <= 0:
		return s, "mass must be positive"
	case s.MOverSigma < 0:
		return s, "m_over_sigma must be non-negative"
	case s.Tau0 <= 0:
		return s, "tau_0 must be positive"
	case !(s.YLi <= s.YL && s.YL <= s.YR && s.YR <= s.YRi):
		return s, "rapidities must satisfy y_l_i <= y_l <= y_r <= y_r_i"
	case s.FracL < 0 || s.FracL > 1 || s.FracR < 0 || s.FracR > 1:
		return s, "baryon fractions must lie in [0,1]"
	}
	if sum := s.FracL + s.FracR; sum > fracTolerance && math.Abs(sum-1) > fracTolerance {
		return s, "baryon fractions must sum to 0 or 1"
	}

	var tauL, tauR float64
	tauL, s.EtaSLeft = emitter.StopPoint(s.Tau0, s.EtaS0, s.YLi, s.YL, s.MOverSigma)
	tauR, s.EtaSRight = emitter.StopPoint(s.Tau0, s.EtaS0, s.YRi, s.YR, s.MOverSigma)
	if s.EtaSLeft > s.EtaSRight {
		return s, "string end points cross in space-time rapidity"
	}

	s.TauForm = s.Tau0 + src.StringTauForm
	s.TauStart = s.TauForm
	s.EtaSStart = math.Min(math.Max(s.EtaS0, s.EtaSLeft), s.EtaSRight)

	s.TauEndLeft = math.Max(tauL, s.TauStart)
	s.TauEndRight = math.Max(tauR, s.TauStart)
	if src.StringDumpMode == config.DumpConstantTau {
		s.TauEndLeft = s.TauStart
		s.TauEndRight = s.TauStart
	}
	return s, ""
}
