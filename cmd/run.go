package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papapumpkin/hydrosource/internal/config"
	"github.com/papapumpkin/hydrosource/internal/metrics"
	"github.com/papapumpkin/hydrosource/internal/reader"
	"github.com/papapumpkin/hydrosource/internal/scan"
	"github.com/papapumpkin/hydrosource/internal/source"
	"github.com/papapumpkin/hydrosource/internal/telemetry"
	"github.com/papapumpkin/hydrosource/internal/ui"
)

// run is the state shared by every command that works on a normalized
// source: validated configuration, the engine, and the optional metrics
// and telemetry sinks.
type run struct {
	cfg     config.Config
	logger  *zap.Logger
	printer *ui.Printer
	engine  *source.Engine
	report  source.NormReport
	prom    *metrics.Prometheus
	events  *telemetry.Emitter
}

// startRun loads and validates configuration, opens the configured sinks,
// and loads and normalizes the emitters. Callers must call finish.
func startRun(cmd *cobra.Command) (*run, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return newRun(cmd, cfg, logger)
}

// newRun opens the sinks configured in cfg and loads the emitters. Log
// lines of the run carry its telemetry run ID; base itself is not modified.
func newRun(cmd *cobra.Command, cfg config.Config, base *zap.Logger) (*run, error) {
	r := &run{
		cfg:     cfg,
		logger:  base,
		printer: ui.New(cmd.OutOrStdout(), cmd.ErrOrStderr()),
	}
	if cfg.MetricsFile != "" {
		r.prom = metrics.NewPrometheus("")
	}
	if cfg.TelemetryFile != "" {
		em, err := telemetry.NewEmitter(cfg.TelemetryFile)
		if err != nil {
			return nil, err
		}
		r.events = em
		r.logger = base.With(zap.String("run", em.RunID()))
	}
	r.record(telemetry.KindRunStart, 0, map[string]any{
		"command": cmd.Name(),
		"model":   string(cfg.Model),
		"inputs":  reader.InputFiles(cfg),
	})

	if err := r.load(); err != nil {
		return nil, r.finish(err)
	}
	return r, nil
}

// load reads the inputs into a fresh repository and normalizes it,
// replacing the current engine.
func (r *run) load() error {
	repo, err := reader.Load(r.cfg, r.logger)
	if err != nil {
		return err
	}
	engine, err := source.New(r.cfg.Source, repo,
		source.WithLogger(r.logger),
		source.WithRecorder(r.recorder()),
	)
	if err != nil {
		return err
	}
	report, err := engine.Normalize()
	if err != nil {
		return err
	}
	r.engine, r.report = engine, report
	r.record(telemetry.KindNormalized, 0, report)
	return nil
}

func (r *run) recorder() metrics.Recorder {
	if r.prom == nil {
		return metrics.Nop{}
	}
	return r.prom
}

// scanner returns a scanner over the current engine.
func (r *run) scanner(workers int) *scan.Scanner {
	return scan.New(r.engine,
		scan.WithWorkers(workers),
		scan.WithLogger(r.logger),
		scan.WithRecorder(r.recorder()),
		scan.WithTelemetry(r.events),
	)
}

func (r *run) summary() ui.Summary {
	return ui.Summary{
		Model:  string(r.cfg.Model),
		Files:  reader.InputFiles(r.cfg),
		Report: r.report,
		TauMin: r.engine.TauMin(),
		TauMax: r.engine.TauMax(),
	}
}

func (r *run) record(kind string, tau float64, data any) {
	if err := r.events.Record(kind, tau, data); err != nil {
		r.logger.Warn("telemetry event dropped", zap.String("kind", kind), zap.Error(err))
	}
}

// finish records the outcome, writes metrics, and closes telemetry. It
// returns runErr, or the first sink error when runErr is nil.
func (r *run) finish(runErr error) error {
	done := map[string]any{"ok": runErr == nil}
	if runErr != nil {
		done["error"] = runErr.Error()
	}
	r.record(telemetry.KindRunDone, 0, done)

	var errs []error
	if r.prom != nil {
		if err := r.prom.WriteTextfile(r.cfg.MetricsFile); err != nil {
			errs = append(errs, err)
		}
	}
	if err := r.events.Close(); err != nil {
		errs = append(errs, fmt.Errorf("telemetry: close: %w", err))
	}
	if runErr != nil {
		return runErr
	}
	return errors.Join(errs...)
}

// setupSignalContext returns a context that is canceled on SIGINT or SIGTERM.
func setupSignalContext(printer *ui.Printer) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			printer.Info("shutting down...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}
