// Package catalog exports a normalized emitter repository, together with
// the parameters and totals of its normalization, to TOML or YAML and reads
// it back.
package catalog

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/papapumpkin/hydrosource/internal/config"
	"github.com/papapumpkin/hydrosource/internal/emitter"
	"github.com/papapumpkin/hydrosource/internal/source"
)

// Version is the catalog layout written by Save.
const Version = 1

// ErrUnknownFormat is returned for paths without a .toml, .yaml or .yml
// extension.
var ErrUnknownFormat = errors.New("catalog: unknown file format")

// Catalog is a normalized emitter repository at rest.
type Catalog struct {
	Version int               `toml:"version" yaml:"version"`
	Model   config.Model      `toml:"model" yaml:"model"`
	Source  config.Source     `toml:"source" yaml:"source"`
	Report  source.NormReport `toml:"report" yaml:"report"`

	Strings []emitter.QCDString `toml:"strings" yaml:"strings"`
	Partons []emitter.Parton    `toml:"partons" yaml:"partons"`
}

// Build snapshots the emitters of a normalized engine.
func Build(e *source.Engine, report source.NormReport) (*Catalog, error) {
	repo := e.Repository()
	if !repo.Normalized() {
		return nil, fmt.Errorf("catalog: repository is not normalized")
	}
	return &Catalog{
		Version: Version,
		Model:   repo.Model,
		Source:  e.Config(),
		Report:  report,
		Strings: append([]emitter.QCDString(nil), repo.Strings()...),
		Partons: append([]emitter.Parton(nil), repo.Partons()...),
	}, nil
}

// Repository rebuilds a normalized repository from the catalog. An engine
// over it reports the catalog's totals without renormalizing.
func (c *Catalog) Repository() *emitter.Repository {
	repo := emitter.NewRepository(c.Model)
	for _, s := range c.Strings {
		repo.AddString(s)
	}
	for _, p := range c.Partons {
		repo.AddParton(p)
	}
	repo.MarkNormalized()
	return repo
}

type format int

const (
	formatTOML format = iota
	formatYAML
)

func formatOf(path string) (format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return formatTOML, nil
	case ".yaml", ".yml":
		return formatYAML, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// Load reads a catalog from path, choosing the decoder by extension.
func Load(path string) (*Catalog, error) {
	f, err := formatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}

	var c Catalog
	switch f {
	case formatTOML:
		err = toml.Unmarshal(data, &c)
	case formatYAML:
		err = yaml.Unmarshal(data, &c)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing catalog %s: %w", path, err)
	}
	if c.Version != Version {
		return nil, fmt.Errorf("catalog %s: unsupported version %d", path, c.Version)
	}
	return &c, nil
}

// Save writes c to path, creating parent directories as needed and choosing
// the encoder by extension.
func Save(path string, c *Catalog) error {
	f, err := formatOf(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	var data []byte
	switch f {
	case formatTOML:
		data, err = toml.Marshal(c)
	case formatYAML:
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("marshaling catalog: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing catalog: %w", err)
	}
	return nil
}

// Compare lists the differences between a reference catalog and a fresh
// one: emitter counts, normalization parameters, and report totals beyond
// relative tolerance tol. An empty result means the two agree.
func Compare(ref, got *Catalog, tol float64) []string {
	var diffs []string
	if ref.Model != got.Model {
		diffs = append(diffs, fmt.Sprintf("model: %s != %s", ref.Model, got.Model))
	}
	if ref.Source != got.Source {
		diffs = append(diffs, "source parameters differ")
	}
	if len(ref.Strings) != len(got.Strings) {
		diffs = append(diffs, fmt.Sprintf("strings: %d != %d", len(ref.Strings), len(got.Strings)))
	}
	if len(ref.Partons) != len(got.Partons) {
		diffs = append(diffs, fmt.Sprintf("partons: %d != %d", len(ref.Partons), len(got.Partons)))
	}

	totals := []struct {
		name     string
		ref, got float64
	}{
		{"string_energy", ref.Report.StringEnergy, got.Report.StringEnergy},
		{"remnant_energy", ref.Report.RemnantEnergy, got.Report.RemnantEnergy},
		{"parton_energy", ref.Report.PartonEnergy, got.Report.PartonEnergy},
		{"net_baryon", ref.Report.NetBaryon, got.Report.NetBaryon},
	}
	for _, t := range totals {
		if !approxEqual(t.ref, t.got, tol) {
			diffs = append(diffs, fmt.Sprintf("%s: %g != %g", t.name, t.ref, t.got))
		}
	}
	return diffs
}

func approxEqual(a, b, tol float64) bool {
	scale := math.Max(math.Abs(a), math.Abs(b))
	return math.Abs(a-b) <= tol*math.Max(scale, 1)
}
