package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus implements Recorder on a private registry.
type Prometheus struct {
	reg *prometheus.Registry

	windowStrings prometheus.Gauge
	windowBaryon  prometheus.Gauge
	windowPartons prometheus.Gauge
	windowTau     prometheus.Gauge
	windows       prometheus.Counter
	points        prometheus.Counter
	sweeps        *prometheus.HistogramVec
	energy        prometheus.Gauge
}

// Compile-time assertion that Prometheus implements Recorder.
var _ Recorder = (*Prometheus)(nil)

// NewPrometheus creates a recorder whose collectors are registered on a fresh
// registry under namespace (default "hydrosource").
func NewPrometheus(namespace string) *Prometheus {
	if namespace == "" {
		namespace = "hydrosource"
	}
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Subsystem: "window", Name: name, Help: help})
	}

	p := &Prometheus{
		reg:           prometheus.NewRegistry(),
		windowStrings: gauge("strings", "Strings active in the current proper-time window."),
		windowBaryon:  gauge("baryon_strings", "Baryon-carrying strings in the current window."),
		windowPartons: gauge("partons", "Partons active in the current window."),
		windowTau:     gauge("tau_fm", "Proper time of the current window in fm."),
		windows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "window",
			Name:      "rebuilds_total",
			Help:      "Number of window rebuilds.",
		}),
		points: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluated_points_total",
			Help:      "Grid points at which the source was evaluated.",
		}),
		sweeps: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sweep_duration_seconds",
			Help:      "Wall time of grid sweeps by sweep name.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"sweep"}),
		energy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "assigned_energy_gev",
			Help:      "Total energy assigned to emitters by normalization.",
		}),
	}
	p.reg.MustRegister(p.windowStrings, p.windowBaryon, p.windowPartons, p.windowTau,
		p.windows, p.points, p.sweeps, p.energy)
	return p
}

// ObserveWindow sets the window gauges and counts the rebuild.
func (p *Prometheus) ObserveWindow(tau float64, strings, baryon, partons int) {
	p.windowTau.Set(tau)
	p.windowStrings.Set(float64(strings))
	p.windowBaryon.Set(float64(baryon))
	p.windowPartons.Set(float64(partons))
	p.windows.Inc()
}

// ObservePoints adds n to the evaluated-point counter.
func (p *Prometheus) ObservePoints(n int) {
	p.points.Add(float64(n))
}

// ObserveSweep records d in the sweep histogram.
func (p *Prometheus) ObserveSweep(name string, d time.Duration) {
	p.sweeps.WithLabelValues(name).Observe(d.Seconds())
}

// ObserveNormalization sets the assigned-energy gauge.
func (p *Prometheus) ObserveNormalization(totalEnergy float64) {
	p.energy.Set(totalEnergy)
}

// Registry returns the private registry, e.g. for an HTTP handler.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.reg
}

// WriteTextfile writes all collected metrics to path in the text exposition
// format, atomically replacing any previous file.
func (p *Prometheus) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, p.reg); err != nil {
		return fmt.Errorf("metrics: write %s: %w", path, err)
	}
	return nil
}
