package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/hydrosource/internal/catalog"
)

// errCatalogMismatch is returned when --check finds differences.
var errCatalogMismatch = errors.New("catalog does not match the reference")

var catalogCmd = &cobra.Command{
	Use:   "catalog [path]",
	Short: "Export the normalized emitters to TOML or YAML",
	Long: `Writes every string and parton, with the norms assigned by normalization,
the source parameters, and the normalization totals to path. The format
follows the extension: .toml, .yaml or .yml.

With --check the file at path is read as a reference instead, and the fresh
normalization is compared with it; differences exit non-zero.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCatalog,
}

func init() {
	catalogCmd.Flags().Bool("check", false, "compare with the catalog at path instead of writing it")
	catalogCmd.Flags().Float64("tolerance", 1e-9, "relative tolerance for --check totals")

	rootCmd.AddCommand(catalogCmd)
}

func runCatalog(cmd *cobra.Command, args []string) (err error) {
	path := "hydrosource-catalog.toml"
	if len(args) == 1 {
		path = args[0]
	}
	check, _ := cmd.Flags().GetBool("check")
	tol, _ := cmd.Flags().GetFloat64("tolerance")

	r, err := startRun(cmd)
	if err != nil {
		return err
	}
	defer func() { err = r.finish(err) }()

	fresh, err := catalog.Build(r.engine, r.report)
	if err != nil {
		return err
	}

	if check {
		ref, err := catalog.Load(path)
		if err != nil {
			return err
		}
		if !r.printer.CatalogCheck(path, catalog.Compare(ref, fresh, tol)) {
			return errCatalogMismatch
		}
		return nil
	}

	if err := catalog.Save(path, fresh); err != nil {
		return err
	}
	r.printer.CatalogWritten(path, fresh)
	return nil
}
