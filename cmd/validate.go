package cmd

import (
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load and normalize the configured emitters and print a summary",
	Long: `Validates the configuration, reads the string and parton inputs, assigns
every string its deposition norm, and reports the energy and baryon number
the source will deposit together with its active proper-time range.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	r, err := startRun(cmd)
	if err != nil {
		return err
	}
	r.printer.Summary(r.summary())
	return r.finish(nil)
}
