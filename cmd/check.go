package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/hydrosource/internal/scan"
)

// errNotConserved is returned when a conservation sweep misses its tolerance.
var errNotConserved = errors.New("energy or baryon number not conserved")

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify that the source deposits exactly the normalized energy",
	Long: `Steps proper time across the active range, integrates tau*J^t and the
baryon source over a Cartesian grid in (x, y, eta) at every step, and
compares the total with the energy and baryon number assigned by
normalization and with the cumulative source at the end of the range.

Exits non-zero when the relative energy error or the absolute baryon error
exceeds --tolerance.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	d := scan.DefaultGrid()
	checkCmd.Flags().Int("steps", 200, "proper-time steps across the active range")
	checkCmd.Flags().Float64("tolerance", 1e-3, "allowed relative energy and absolute baryon error")
	checkCmd.Flags().Float64("xmax", d.XMax, "grid half-width in x and y (fm)")
	checkCmd.Flags().Float64("etamax", d.EtaMax, "grid half-width in eta")
	checkCmd.Flags().Int("nxy", d.NX, "cells along x and y")
	checkCmd.Flags().Int("neta", d.NEta, "cells along eta")
	checkCmd.Flags().Int("workers", 0, "grid workers (default: GOMAXPROCS)")
	checkCmd.Flags().Bool("json", false, "print the report as JSON on stdout")

	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, _ []string) (err error) {
	f := cmd.Flags()
	steps, _ := f.GetInt("steps")
	tol, _ := f.GetFloat64("tolerance")
	xmax, _ := f.GetFloat64("xmax")
	etamax, _ := f.GetFloat64("etamax")
	nxy, _ := f.GetInt("nxy")
	neta, _ := f.GetInt("neta")
	workers, _ := f.GetInt("workers")
	asJSON, _ := f.GetBool("json")

	r, err := startRun(cmd)
	if err != nil {
		return err
	}
	defer func() { err = r.finish(err) }()

	ctx, cancel := setupSignalContext(r.printer)
	defer cancel()

	grid := scan.Grid{
		XMin: -xmax, XMax: xmax, NX: nxy,
		YMin: -xmax, YMax: xmax, NY: nxy,
		EtaMin: -etamax, EtaMax: etamax, NEta: neta,
	}
	report, err := r.scanner(workers).Conservation(ctx, scan.Conservation{
		Grid:     grid,
		Steps:    steps,
		Expected: r.report,
	})
	if err != nil {
		return fmt.Errorf("check: %w", err)
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	}
	if !r.printer.ConservationResult(report, tol) {
		return errNotConserved
	}
	return nil
}
