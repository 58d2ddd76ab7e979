// Package intensity turns per-window sample levels into a noise intensity:
// how far the loud peaks sit above the ambient floor.
//
// Two exponential running averages are kept in fixed-point integer
// arithmetic, one over the window averages (the floor) and one over the
// window peaks (the ceiling). Their difference responds to bursts above
// background noise rather than to absolute loudness.
package intensity

import "github.com/itohio/noisey/pkg/sampler"

const (
	// Shift is the number of bits of the running average factors.
	Shift = 8
	// FactorOld weights the previous running value.
	FactorOld = 230
	// FactorNew weights the incoming sample; FactorNew + FactorOld == 1<<Shift.
	FactorNew = 1<<Shift - FactorOld
	// MaxHueRange is the upper clamp of Intensity.
	MaxHueRange = 120
)

// State holds the running averages and the snapshot taken at the last update
// tick.
type State struct {
	RunningMean  int16
	RunningPeak  int16
	PreviousMean int16
	PreviousPeak int16
}

// Filter owns the State. It is not safe for concurrent use.
type Filter struct {
	state State
}

// New returns a filter with both averages at zero.
func New() *Filter {
	return &Filter{}
}

// Update folds one window into both running averages.
func (f *Filter) Update(l sampler.Level) {
	f.state.RunningMean = ema(l.Average, f.state.RunningMean)
	f.state.RunningPeak = ema(l.Peak, f.state.RunningPeak)
}

// Snapshot records the current averages as the previous ones.
func (f *Filter) Snapshot() {
	f.state.PreviousMean = f.state.RunningMean
	f.state.PreviousPeak = f.state.RunningPeak
}

// State returns a copy of the filter state.
func (f *Filter) State() State {
	return f.state
}

// Difference returns peak minus mean without clamping. This is the value
// reported as telemetry.
func (f *Filter) Difference() int16 {
	return f.state.RunningPeak - f.state.RunningMean
}

// Intensity returns Difference clamped to [0, MaxHueRange].
func (f *Filter) Intensity() int16 {
	return Clamp(f.Difference(), 0, MaxHueRange)
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi int16) int16 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func ema(raw, old int16) int16 {
	return int16((int32(raw)*FactorNew + int32(old)*FactorOld) >> Shift)
}
