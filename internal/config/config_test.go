package config

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/viper"
)

// resetViper clears all viper state between tests to avoid cross-contamination.
func resetViper() {
	viper.Reset()
}

func TestLoad_Defaults(t *testing.T) {
	resetViper()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	want := Config{
		Model:     ModelLexus,
		Source:    DefaultSource(),
		LogFormat: "console",
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	tests := []struct {
		name   string
		envKey string
		envVal string
		field  func(Config) any
		want   any
	}{
		{
			name:   "model",
			envKey: "HYDROSOURCE_MODEL",
			envVal: "AMPT",
			field:  func(c Config) any { return c.Model },
			want:   ModelAMPT,
		},
		{
			name:   "strings_file",
			envKey: "HYDROSOURCE_STRINGS_FILE",
			envVal: "/data/strings.dat",
			field:  func(c Config) any { return c.StringsFile },
			want:   "/data/strings.dat",
		},
		{
			name:   "sigma_x",
			envKey: "HYDROSOURCE_SOURCE_SIGMA_X",
			envVal: "0.8",
			field:  func(c Config) any { return c.Source.SigmaX },
			want:   0.8,
		},
		{
			name:   "string_dump_mode",
			envKey: "HYDROSOURCE_SOURCE_STRING_DUMP_MODE",
			envVal: "1",
			field:  func(c Config) any { return c.Source.StringDumpMode },
			want:   DumpConstantTau,
		},
		{
			name:   "verbose",
			envKey: "HYDROSOURCE_VERBOSE",
			envVal: "true",
			field:  func(c Config) any { return c.Verbose },
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetViper()
			viper.SetEnvPrefix("HYDROSOURCE")
			viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
			viper.AutomaticEnv()

			os.Setenv(tt.envKey, tt.envVal)
			defer os.Unsetenv(tt.envKey)

			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load() returned unexpected error: %v", err)
			}
			got := tt.field(cfg)
			if got != tt.want {
				t.Errorf("%s: got %v (%T), want %v (%T)", tt.name, got, got, tt.want, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := Config{Model: ModelLexus, StringsFile: "strings.dat", Source: DefaultSource()}

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{"valid lexus", func(c *Config) {}, ""},
		{"valid ampt", func(c *Config) { c.Model = ModelAMPT; c.AMPTFile = "partons.dat" }, ""},
		{"unknown model", func(c *Config) { c.Model = "urqmd" }, "model"},
		{"missing strings file", func(c *Config) { c.StringsFile = "" }, "strings_file"},
		{"missing ampt file", func(c *Config) { c.Model = ModelAMPT }, "ampt_file"},
		{"zero sigma_x", func(c *Config) { c.Source.SigmaX = 0 }, "source.sigma_x"},
		{"negative sigma_tau", func(c *Config) { c.Source.SigmaTau = -0.1 }, "source.sigma_tau"},
		{"sigma_eta NaN", func(c *Config) { c.Source.SigmaEta = nan() }, "source.sigma_eta"},
		{"quench above one", func(c *Config) { c.Source.StringQuenchFactor = 1.2 }, "source.string_quench_factor"},
		{"quench negative", func(c *Config) { c.Source.PartonQuenchFactor = -0.5 }, "source.parton_quench_factor"},
		{"dump mode", func(c *Config) { c.Source.StringDumpMode = 3 }, "source.string_dump_mode"},
		{"n sigma", func(c *Config) { c.Source.NSigmaSkip = 0.5 }, "source.n_sigma_skip"},
		{"boost below one", func(c *Config) { c.Source.PartonMaxPerpBoost = 0.5 }, "source.parton_max_perp_boost"},
		{"inverted clamps", func(c *Config) { c.Source.TauMin = 3; c.Source.TauMax = 2 }, "source.tau_min"},
		{"log format", func(c *Config) { c.LogFormat = "xml" }, "log_format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("Validate() = %v, want ErrInvalidConfig", err)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Validate() = %v, want *ValidationError", err)
			}
			if ve.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", ve.Field, tt.wantField)
			}
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	t.Parallel()

	cfg := Config{Model: ModelLexus, Source: DefaultSource()}
	cfg.Source.SigmaX = 0
	cfg.Source.SigmaEta = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, field := range []string{"strings_file", "source.sigma_x", "source.sigma_eta"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error %q does not mention %s", err, field)
		}
	}
}

func TestTemporalReach(t *testing.T) {
	t.Parallel()
	s := DefaultSource()
	if got, want := s.TemporalReach(), 0.5; got != want {
		t.Errorf("TemporalReach() = %v, want %v", got, want)
	}
}

func nan() float64 {
	var zero float64
	return zero / zero
}
