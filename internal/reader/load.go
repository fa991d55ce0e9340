// Package reader populates an emitter.Repository from initial-state files:
// LEXUS string records (with optional hard partons) or AMPT parton records.
// Files ending in .gz are decompressed on the fly.
package reader

import (
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/papapumpkin/hydrosource/internal/config"
	"github.com/papapumpkin/hydrosource/internal/emitter"
)

// Load builds the repository selected by cfg.Model. Exactly one population
// path runs. A run that yields no emitters fails with ErrEmpty.
func Load(cfg config.Config, logger *zap.Logger) (*emitter.Repository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	repo := emitter.NewRepository(cfg.Model)

	switch cfg.Model {
	case config.ModelLexus:
		if err := LoadLexus(cfg, repo); err != nil {
			return nil, err
		}
	case config.ModelAMPT:
		if err := readFile(cfg.AMPTFile, func(r io.Reader) (int, error) {
			return ReadPartons(r, cfg.AMPTFile, repo)
		}); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("reader: %w", &config.ValidationError{Field: "model", Reason: fmt.Sprintf("unknown model %q", cfg.Model)})
	}

	if repo.Empty() {
		return nil, &ParseError{File: primaryInput(cfg), Err: ErrEmpty}
	}
	logger.Info("emitters loaded",
		zap.String("model", string(cfg.Model)),
		zap.Int("strings", len(repo.Strings())),
		zap.Int("partons", len(repo.Partons())),
	)
	return repo, nil
}

// LoadLexus reads the string file and, when configured, the hard-parton
// file into repo.
func LoadLexus(cfg config.Config, repo *emitter.Repository) error {
	if err := readFile(cfg.StringsFile, func(r io.Reader) (int, error) {
		return ReadStrings(r, cfg.StringsFile, cfg.Source, repo)
	}); err != nil {
		return err
	}
	if cfg.PartonsFile == "" {
		return nil
	}
	return readFile(cfg.PartonsFile, func(r io.Reader) (int, error) {
		return ReadPartons(r, cfg.PartonsFile, repo)
	})
}

// InputFiles lists the files Load reads for cfg.
func InputFiles(cfg config.Config) []string {
	switch cfg.Model {
	case config.ModelLexus:
		if cfg.PartonsFile != "" {
			return []string{cfg.StringsFile, cfg.PartonsFile}
		}
		return []string{cfg.StringsFile}
	case config.ModelAMPT:
		return []string{cfg.AMPTFile}
	}
	return nil
}

func primaryInput(cfg config.Config) string {
	if files := InputFiles(cfg); len(files) > 0 {
		return files[0]
	}
	return ""
}

func readFile(path string, read func(io.Reader) (int, error)) (err error) {
	rc, err := open(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rc.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("reader: close %s: %w", path, cerr)
		}
	}()
	_, err = read(rc)
	var pe *ParseError
	if err != nil && !errors.As(err, &pe) {
		err = &ParseError{File: path, Err: err}
	}
	return err
}
