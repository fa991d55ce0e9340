package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/hydrosource/internal/reader"
	"github.com/papapumpkin/hydrosource/internal/scan"
	"github.com/papapumpkin/hydrosource/internal/watch"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Tabulate the source along one axis",
	Long: `Samples J^mu and the net-baryon source along x, y, eta or tau and writes
them as columns to stdout. The other coordinates stay fixed at --tau, --x,
--y and --eta. Without --tau the midpoint of the active range is used; a
tau profile without --from/--to spans the whole active range.

With --before the cumulative source (everything deposited by tau) is
tabulated instead of the instantaneous rate. With --watch the inputs are
reloaded and the profile is printed again whenever they change.`,
	Args: cobra.NoArgs,
	RunE: runProfile,
}

func init() {
	profileCmd.Flags().String("axis", "eta", "axis to sample: x, y, eta or tau")
	profileCmd.Flags().Float64("from", -5, "first coordinate along the axis")
	profileCmd.Flags().Float64("to", 5, "last coordinate along the axis")
	profileCmd.Flags().Int("points", 101, "number of samples")
	profileCmd.Flags().Float64("tau", 0, "proper time in fm (default: middle of the active range)")
	profileCmd.Flags().Float64("x", 0, "transverse x in fm")
	profileCmd.Flags().Float64("y", 0, "transverse y in fm")
	profileCmd.Flags().Float64("eta", 0, "space-time rapidity")
	profileCmd.Flags().Bool("before", false, "tabulate the cumulative source deposited by tau")
	profileCmd.Flags().Bool("watch", false, "reprint whenever the input files change")

	rootCmd.AddCommand(profileCmd)
}

func runProfile(cmd *cobra.Command, _ []string) (err error) {
	axisName, _ := cmd.Flags().GetString("axis")
	axis, err := scan.ParseAxis(axisName)
	if err != nil {
		return err
	}
	mode := scan.Instantaneous
	if before, _ := cmd.Flags().GetBool("before"); before {
		mode = scan.Cumulative
	}

	r, err := startRun(cmd)
	if err != nil {
		return err
	}
	defer func() { err = r.finish(err) }()

	ctx, cancel := setupSignalContext(r.printer)
	defer cancel()

	if err := printProfile(ctx, cmd, r, axis, mode); err != nil {
		return err
	}
	if follow, _ := cmd.Flags().GetBool("watch"); !follow {
		return nil
	}
	return watchProfile(ctx, cmd, r, axis, mode)
}

// profileLine resolves the sampled line from flags and the engine's active
// range.
func profileLine(cmd *cobra.Command, r *run, axis scan.Axis) scan.Line {
	f := cmd.Flags()
	l := scan.Line{Axis: axis}
	l.From, _ = f.GetFloat64("from")
	l.To, _ = f.GetFloat64("to")
	l.Points, _ = f.GetInt("points")
	l.Tau, _ = f.GetFloat64("tau")
	l.X, _ = f.GetFloat64("x")
	l.Y, _ = f.GetFloat64("y")
	l.Eta, _ = f.GetFloat64("eta")

	if !f.Changed("tau") {
		l.Tau = (r.engine.TauMin() + r.engine.TauMax()) / 2
	}
	if axis == scan.AxisTau {
		if !f.Changed("from") {
			l.From = r.engine.TauMin()
		}
		if !f.Changed("to") {
			l.To = r.engine.TauMax()
		}
	}
	return l
}

func printProfile(ctx context.Context, cmd *cobra.Command, r *run, axis scan.Axis, mode scan.Mode) error {
	samples, err := r.scanner(0).Profile(ctx, profileLine(cmd, r, axis), mode)
	if err != nil {
		return fmt.Errorf("profile: %w", err)
	}
	r.printer.ProfileTable(axis, mode, samples)
	return nil
}

// watchProfile reloads the inputs and reprints the profile on every settled
// change until ctx is canceled. Reload failures are reported and the
// previous source is kept.
func watchProfile(ctx context.Context, cmd *cobra.Command, r *run, axis scan.Axis, mode scan.Mode) error {
	w, err := watch.New(reader.InputFiles(r.cfg)...)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}
	defer w.Stop()
	r.printer.Info("watching inputs; press Ctrl-C to stop")

	for {
		select {
		case <-ctx.Done():
			return nil
		case c, ok := <-w.Changes:
			if !ok {
				return nil
			}
			r.printer.Reloading(c.File, c.Removed)
			if err := r.load(); err != nil {
				r.printer.Error(err.Error())
				continue
			}
			if err := printProfile(ctx, cmd, r, axis, mode); err != nil {
				return err
			}
		}
	}
}
