// Package metrics records source-engine activity: window sizes per proper
// time step, the number of evaluated grid points, and sweep durations.
//
// Recorder has two implementations. Nop discards everything and is the
// default for library callers; Prometheus exports to a private registry that
// can be written to a node-exporter textfile at the end of a run.
package metrics

import "time"

// Recorder receives engine and sweep observations. Implementations must be
// safe for concurrent use.
type Recorder interface {
	// ObserveWindow records the window sizes selected for proper time tau.
	ObserveWindow(tau float64, strings, baryon, partons int)
	// ObservePoints counts source evaluations at grid points.
	ObservePoints(n int)
	// ObserveSweep records the wall time of one named sweep.
	ObserveSweep(name string, d time.Duration)
	// ObserveNormalization records the total energy assigned by normalization.
	ObserveNormalization(totalEnergy float64)
}

// Nop discards every observation.
type Nop struct{}

// Compile-time assertion that Nop implements Recorder.
var _ Recorder = Nop{}

// ObserveWindow discards the window sizes.
func (Nop) ObserveWindow(float64, int, int, int) {}

// ObservePoints discards the point count.
func (Nop) ObservePoints(int) {}

// ObserveSweep discards the sweep duration.
func (Nop) ObserveSweep(string, time.Duration) {}

// ObserveNormalization discards the energy total.
func (Nop) ObserveNormalization(float64) {}
