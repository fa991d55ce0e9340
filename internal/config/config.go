package config

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/viper"
)

// ErrInvalidConfig is the sentinel wrapped by every configuration ValidationError.
var ErrInvalidConfig = errors.New("invalid configuration")

// Model names the initial-state generator that produced the emitters.
type Model string

const (
	// ModelLexus reads QCD strings (and optional hard partons) from MC-Glauber/LEXUS.
	ModelLexus Model = "lexus"
	// ModelAMPT reads point-like partons from an AMPT-style transport model.
	ModelAMPT Model = "ampt"
)

// String dump modes select how a string body is released into the fluid.
const (
	DumpConstantTau = 1 // whole string released at its formation time
	DumpTrajectory  = 2 // pieces released along the end-point trajectories
)

// Source holds the smearing and deposition parameters consumed by the
// source engine. It is passed by value and never mutated after Load.
type Source struct {
	SigmaTau           float64 `mapstructure:"sigma_tau" toml:"sigma_tau" yaml:"sigma_tau"`                                     // fm
	SigmaX             float64 `mapstructure:"sigma_x" toml:"sigma_x" yaml:"sigma_x"`                                           // fm
	SigmaEta           float64 `mapstructure:"sigma_eta" toml:"sigma_eta" yaml:"sigma_eta"`                                     // dimensionless
	NSigmaSkip         float64 `mapstructure:"n_sigma_skip" toml:"n_sigma_skip" yaml:"n_sigma_skip"`                            // kernel cutoff in widths
	StringQuenchFactor float64 `mapstructure:"string_quench_factor" toml:"string_quench_factor" yaml:"string_quench_factor"`    // fraction of string energy deposited
	PartonQuenchFactor float64 `mapstructure:"parton_quench_factor" toml:"parton_quench_factor" yaml:"parton_quench_factor"`    // fraction of parton/remnant energy deposited
	StringDumpMode     int     `mapstructure:"string_dump_mode" toml:"string_dump_mode" yaml:"string_dump_mode"`                // DumpConstantTau or DumpTrajectory
	StringTauForm      float64 `mapstructure:"string_tau_form" toml:"string_tau_form" yaml:"string_tau_form"`                   // fm, delay after production
	PartonMaxPerpBoost float64 `mapstructure:"parton_max_perp_boost" toml:"parton_max_perp_boost" yaml:"parton_max_perp_boost"` // cap on transverse contraction
	TauMin             float64 `mapstructure:"tau_min" toml:"tau_min" yaml:"tau_min"`                                           // fm, 0 = derive from emitters
	TauMax             float64 `mapstructure:"tau_max" toml:"tau_max" yaml:"tau_max"`                                           // fm, 0 = derive from emitters
}

// Config holds all runtime configuration for a hydrosource run.
// Values are populated from .hydrosource.yaml, HYDROSOURCE_* env vars, and CLI flags.
type Config struct {
	Model         Model  `mapstructure:"model"`
	StringsFile   string `mapstructure:"strings_file"`
	PartonsFile   string `mapstructure:"partons_file"`
	AMPTFile      string `mapstructure:"ampt_file"`
	Source        Source `mapstructure:"source"`
	Verbose       bool   `mapstructure:"verbose"`
	LogFormat     string `mapstructure:"log_format"`
	TelemetryFile string `mapstructure:"telemetry_file"`
	MetricsFile   string `mapstructure:"metrics_file"`
}

// DefaultSource returns the deposition parameters used when nothing is configured.
func DefaultSource() Source {
	return Source{
		SigmaTau:           0.1,
		SigmaX:             0.5,
		SigmaEta:           0.5,
		NSigmaSkip:         5,
		StringQuenchFactor: 1.0,
		PartonQuenchFactor: 1.0,
		StringDumpMode:     DumpTrajectory,
		StringTauForm:      0.5,
		PartonMaxPerpBoost: 1.0,
	}
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags. The result is not
// validated; callers run Validate once input paths are final.
func Load() (Config, error) {
	d := DefaultSource()
	viper.SetDefault("model", string(ModelLexus))
	viper.SetDefault("strings_file", "")
	viper.SetDefault("partons_file", "")
	viper.SetDefault("ampt_file", "")
	viper.SetDefault("source.sigma_tau", d.SigmaTau)
	viper.SetDefault("source.sigma_x", d.SigmaX)
	viper.SetDefault("source.sigma_eta", d.SigmaEta)
	viper.SetDefault("source.n_sigma_skip", d.NSigmaSkip)
	viper.SetDefault("source.string_quench_factor", d.StringQuenchFactor)
	viper.SetDefault("source.parton_quench_factor", d.PartonQuenchFactor)
	viper.SetDefault("source.string_dump_mode", d.StringDumpMode)
	viper.SetDefault("source.string_tau_form", d.StringTauForm)
	viper.SetDefault("source.parton_max_perp_boost", d.PartonMaxPerpBoost)
	viper.SetDefault("source.tau_min", 0.0)
	viper.SetDefault("source.tau_max", 0.0)
	viper.SetDefault("verbose", false)
	viper.SetDefault("log_format", "console")
	viper.SetDefault("telemetry_file", "")
	viper.SetDefault("metrics_file", "")

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("config: decode: %w", err)
	}
	cfg.Model = Model(strings.ToLower(string(cfg.Model)))
	return cfg, nil
}

// ValidationError records a single invalid configuration field.
type ValidationError struct {
	Field  string
	Reason string
}

// Error returns the field and the reason it was rejected.
func (e *ValidationError) Error() string {
	return "config: " + e.Field + ": " + e.Reason
}

// Unwrap returns ErrInvalidConfig so callers can use errors.Is.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfig
}

// Validate checks the model selection, input paths, and source parameters.
// All problems are reported together, joined with errors.Join.
func (c Config) Validate() error {
	var errs []error
	switch c.Model {
	case ModelLexus:
		if c.StringsFile == "" {
			errs = append(errs, &ValidationError{Field: "strings_file", Reason: "required for model lexus"})
		}
	case ModelAMPT:
		if c.AMPTFile == "" {
			errs = append(errs, &ValidationError{Field: "ampt_file", Reason: "required for model ampt"})
		}
	default:
		errs = append(errs, &ValidationError{Field: "model", Reason: fmt.Sprintf("unknown model %q", c.Model)})
	}
	switch c.LogFormat {
	case "", "console", "json":
	default:
		errs = append(errs, &ValidationError{Field: "log_format", Reason: fmt.Sprintf("unknown format %q", c.LogFormat)})
	}
	if err := c.Source.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Validate checks the smearing widths, quench factors, dump mode, and
// proper-time clamps.
func (s Source) Validate() error {
	var errs []error
	positive := func(field string, v float64) {
		if !(v > 0) || math.IsInf(v, 0) {
			errs = append(errs, &ValidationError{Field: "source." + field, Reason: fmt.Sprintf("must be positive, got %g", v)})
		}
	}
	unit := func(field string, v float64) {
		if !(v >= 0 && v <= 1) {
			errs = append(errs, &ValidationError{Field: "source." + field, Reason: fmt.Sprintf("must be in [0,1], got %g", v)})
		}
	}

	positive("sigma_tau", s.SigmaTau)
	positive("sigma_x", s.SigmaX)
	positive("sigma_eta", s.SigmaEta)
	if !(s.NSigmaSkip >= 1) {
		errs = append(errs, &ValidationError{Field: "source.n_sigma_skip", Reason: fmt.Sprintf("must be at least 1, got %g", s.NSigmaSkip)})
	}
	unit("string_quench_factor", s.StringQuenchFactor)
	unit("parton_quench_factor", s.PartonQuenchFactor)
	if s.StringDumpMode != DumpConstantTau && s.StringDumpMode != DumpTrajectory {
		errs = append(errs, &ValidationError{Field: "source.string_dump_mode", Reason: fmt.Sprintf("must be 1 or 2, got %d", s.StringDumpMode)})
	}
	if !(s.StringTauForm >= 0) {
		errs = append(errs, &ValidationError{Field: "source.string_tau_form", Reason: fmt.Sprintf("must be non-negative, got %g", s.StringTauForm)})
	}
	if !(s.PartonMaxPerpBoost >= 1) {
		errs = append(errs, &ValidationError{Field: "source.parton_max_perp_boost", Reason: fmt.Sprintf("must be at least 1, got %g", s.PartonMaxPerpBoost)})
	}
	if s.TauMin < 0 || s.TauMax < 0 {
		errs = append(errs, &ValidationError{Field: "source.tau_min", Reason: "proper-time clamps must be non-negative"})
	} else if s.TauMax > 0 && s.TauMin > s.TauMax {
		errs = append(errs, &ValidationError{Field: "source.tau_min", Reason: fmt.Sprintf("tau_min %g exceeds tau_max %g", s.TauMin, s.TauMax)})
	}
	return errors.Join(errs...)
}

// TemporalReach returns the half-width of the proper-time smearing support,
// n_sigma_skip * sigma_tau.
func (s Source) TemporalReach() float64 {
	return s.NSigmaSkip * s.SigmaTau
}
