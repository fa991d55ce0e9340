// Package ui renders command results for the terminal: styled status lines
// on one writer and plain, pipeable data tables on another.
package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/papapumpkin/hydrosource/internal/catalog"
	"github.com/papapumpkin/hydrosource/internal/scan"
	"github.com/papapumpkin/hydrosource/internal/source"
)

var (
	colorPrimary = lipgloss.Color("#00BFFF")
	colorSuccess = lipgloss.Color("#00E676")
	colorWarn    = lipgloss.Color("#FFD700")
	colorDanger  = lipgloss.Color("#FF5252")
	colorMuted   = lipgloss.Color("#8C8C8C")
)

var (
	styleTitle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	styleOK    = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	styleWarn  = lipgloss.NewStyle().Foreground(colorWarn).Bold(true)
	styleFail  = lipgloss.NewStyle().Foreground(colorDanger).Bold(true)
	styleDim   = lipgloss.NewStyle().Foreground(colorMuted)
	styleLabel = lipgloss.NewStyle().Width(16)
)

var styleBanner = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorPrimary).
	Padding(0, 2)

// Printer writes status messages to msg and data tables to out.
type Printer struct {
	out io.Writer
	msg io.Writer
}

// New returns a Printer. Commands pass stdout for out and stderr for msg.
func New(out, msg io.Writer) *Printer {
	return &Printer{out: out, msg: msg}
}

// Banner prints the program banner.
func (p *Printer) Banner() {
	title := styleTitle.Render("HYDROSOURCE") + "  " + styleDim.Render("hydrodynamic source terms")
	fmt.Fprintln(p.msg, styleBanner.Render(title))
}

// Info prints a de-emphasized status line.
func (p *Printer) Info(msg string) {
	fmt.Fprintln(p.msg, styleDim.Render(msg))
}

// Error prints an error line.
func (p *Printer) Error(msg string) {
	fmt.Fprintln(p.msg, styleFail.Render("error: ")+msg)
}

// ConfigErrors lists every problem carried by a configuration error,
// unpacking errors joined with errors.Join.
func (p *Printer) ConfigErrors(err error) {
	var errs []error
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = flatten(joined.Unwrap())
	} else {
		errs = []error{err}
	}
	fmt.Fprintln(p.msg, styleFail.Render(fmt.Sprintf("✗ configuration rejected (%d problem(s))", len(errs))))
	for _, e := range errs {
		fmt.Fprintln(p.msg, "  "+styleFail.Render("•")+" "+e.Error())
	}
}

func flatten(errs []error) []error {
	var out []error
	for _, e := range errs {
		if joined, ok := e.(interface{ Unwrap() []error }); ok {
			out = append(out, flatten(joined.Unwrap())...)
			continue
		}
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

// Summary describes a loaded and normalized emitter set.
type Summary struct {
	Model  string
	Files  []string
	Report source.NormReport
	TauMin float64
	TauMax float64
}

// Summary prints the emitters loaded for a run and the energy assigned to
// them.
func (p *Printer) Summary(s Summary) {
	fmt.Fprintln(p.msg, styleOK.Render("✓ emitters normalized")+styleDim.Render(" ("+s.Model+")"))
	row := func(label, value string) {
		fmt.Fprintln(p.msg, "  "+styleLabel.Render(label)+value)
	}
	for _, f := range s.Files {
		row("input", f)
	}
	r := s.Report
	row("strings", fmt.Sprintf("%d", r.Strings))
	row("partons", fmt.Sprintf("%d", r.Partons))
	row("string energy", fmt.Sprintf("%.4f GeV", r.StringEnergy))
	row("remnant energy", fmt.Sprintf("%.4f GeV", r.RemnantEnergy))
	row("parton energy", fmt.Sprintf("%.4f GeV", r.PartonEnergy))
	row("total energy", styleTitle.Render(fmt.Sprintf("%.4f GeV", r.TotalEnergy())))
	row("net baryon", fmt.Sprintf("%.4f", r.NetBaryon))
	row("tau range", fmt.Sprintf("[%.3f, %.3f] fm", s.TauMin, s.TauMax))
}

// ProfileTable writes samples to out as whitespace-separated columns under a
// commented header, ready for plotting tools.
func (p *Printer) ProfileTable(axis scan.Axis, mode scan.Mode, samples []scan.Sample) {
	fmt.Fprintf(p.out, "# %s profile along %s\n", mode, axis)
	fmt.Fprintf(p.out, "# %12s %14s %14s %14s %14s %14s %14s\n",
		axis, "J^tau", "J^x", "J^y", "tau*J^eta", "e_lab", "rho_b")
	for _, s := range samples {
		fmt.Fprintf(p.out, "%14.6g %14.6e %14.6e %14.6e %14.6e %14.6e %14.6e\n",
			s.Coord(axis), s.J[0], s.J[1], s.J[2], s.J[3], s.J.LabEnergy(s.Eta), s.Rho)
	}
}

// ConservationResult prints a conservation sweep and reports whether it is
// within tol.
func (p *Printer) ConservationResult(r scan.ConservationReport, tol float64) bool {
	fmt.Fprintf(p.msg, "%s %s\n", styleTitle.Render("conservation"),
		styleDim.Render(fmt.Sprintf("tau [%.3f, %.3f] fm, %d steps", r.TauMin, r.TauMax, r.Steps)))
	fmt.Fprintf(p.msg, "  %s%.6f GeV\n", styleLabel.Render("expected"), r.ExpectedEnergy)
	fmt.Fprintf(p.msg, "  %s%.6f GeV\n", styleLabel.Render("deposited"), r.Deposited.Energy)
	fmt.Fprintf(p.msg, "  %s%.6f GeV\n", styleLabel.Render("cumulative"), r.Cumulative.Energy)
	fmt.Fprintf(p.msg, "  %s%.6f / %.6f / %.6f\n", styleLabel.Render("net baryon"),
		r.ExpectedBaryon, r.Deposited.Baryon, r.Cumulative.Baryon)

	ok := r.Within(tol)
	verdict := fmt.Sprintf("energy error %.2e, baryon error %.2e (tolerance %.1e)", r.EnergyError(), r.BaryonError(), tol)
	if ok {
		fmt.Fprintln(p.msg, styleOK.Render("✓ conserved")+" "+verdict)
	} else {
		fmt.Fprintln(p.msg, styleFail.Render("✗ not conserved")+" "+verdict)
	}
	return ok
}

// CatalogWritten confirms a catalog export.
func (p *Printer) CatalogWritten(path string, c *catalog.Catalog) {
	fmt.Fprintf(p.msg, "%s %s %s\n", styleOK.Render("✓ catalog written"), path,
		styleDim.Render(fmt.Sprintf("(%d strings, %d partons)", len(c.Strings), len(c.Partons))))
}

// CatalogCheck prints the result of comparing a fresh catalog with a
// reference file and reports whether they agree.
func (p *Printer) CatalogCheck(path string, diffs []string) bool {
	if len(diffs) == 0 {
		fmt.Fprintln(p.msg, styleOK.Render("✓ catalog matches")+" "+path)
		return true
	}
	fmt.Fprintf(p.msg, "%s %s\n", styleFail.Render(fmt.Sprintf("✗ catalog differs (%d)", len(diffs))), path)
	for _, d := range diffs {
		fmt.Fprintln(p.msg, "  "+styleFail.Render("•")+" "+d)
	}
	return false
}

// Reloading announces that a watched input changed.
func (p *Printer) Reloading(file string, removed bool) {
	what := "changed"
	if removed {
		what = "removed"
	}
	fmt.Fprintln(p.msg, styleWarn.Render("↻ "+what)+" "+file)
}
