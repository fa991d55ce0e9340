package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/papapumpkin/hydrosource/internal/config"
	"github.com/papapumpkin/hydrosource/internal/ui"
)

// logger is built by the root command before any subcommand runs.
var logger = zap.NewNop()

var rootCmd = &cobra.Command{
	Use:   "hydrosource",
	Short: "Energy-momentum and baryon sources for hydrodynamics",
	Long: `Hydrosource turns the QCD strings and partons of a heavy-ion initial state
into smooth energy-momentum and net-baryon source terms for a (3+1)D
hydrodynamic solver in Milne coordinates.

Inputs, smearing widths, and quenching factors come from .hydrosource.yaml,
HYDROSOURCE_* environment variables, or a file passed with --config.`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: initLogger,
	PersistentPostRun: func(*cobra.Command, []string) {
		_ = logger.Sync()
	},
}

// Execute runs the command tree and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		p := ui.New(os.Stdout, os.Stderr)
		if errors.Is(err, config.ErrInvalidConfig) {
			p.ConfigErrors(err)
		} else {
			p.Error(err.Error())
		}
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default .hydrosource.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().String("log-format", "console", "log encoding: console or json")
	rootCmd.PersistentFlags().String("model", "", "initial-state model: lexus or ampt")
	rootCmd.PersistentFlags().String("strings", "", "LEXUS string file")
	rootCmd.PersistentFlags().String("partons", "", "LEXUS hard parton file")
	rootCmd.PersistentFlags().String("ampt", "", "AMPT parton file")
	rootCmd.PersistentFlags().String("telemetry", "", "append JSONL run events to this file")
	rootCmd.PersistentFlags().String("metrics", "", "write Prometheus metrics to this file on exit")

	for key, flag := range map[string]string{
		"verbose":        "verbose",
		"log_format":     "log-format",
		"model":          "model",
		"strings_file":   "strings",
		"partons_file":   "partons",
		"ampt_file":      "ampt",
		"telemetry_file": "telemetry",
		"metrics_file":   "metrics",
	} {
		_ = viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag))
	}
}

func initConfig() {
	if cfgFile, _ := rootCmd.Flags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".hydrosource")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
	}

	viper.SetEnvPrefix("HYDROSOURCE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// It's fine if no config file is found; we use defaults.
	_ = viper.ReadInConfig()
}

func initLogger(*cobra.Command, []string) error {
	l, err := newLogger(viper.GetBool("verbose"), viper.GetString("log_format"))
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = l
	return nil
}

// newLogger builds a production zap logger writing to stderr, at debug
// level when verbose.
func newLogger(verbose bool, format string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	switch format {
	case "", "console":
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	case "json":
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	return cfg.Build()
}
