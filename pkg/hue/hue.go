// Package hue animates the LED ring: it maps the noise intensity to a hue
// between green (quiet) and red (loud), glides the displayed hue towards it
// over one update interval and spins a half-lit pattern around the ring.
package hue

import (
	"image/color"

	hsb "github.com/itohio/noisey/pkg/color"
	"github.com/itohio/noisey/pkg/fixed"
)

const (
	// MaxHue is the hue shown for silence (green). Red is 0.
	MaxHue = 120
	// Saturation is fixed at maximum.
	Saturation = 255
)

// LEDDriver accepts a full pixel buffer per animation tick.
type LEDDriver interface {
	WriteColors(pixels []color.RGBA) error
}

// State is the animation state. Hues are fixed-point scaled by fixed.Shift.
type State struct {
	Displayed     fixed.Scalar
	Target        fixed.Scalar
	Delta         fixed.Scalar
	TicksLeft     int
	WheelPosition int
}

// Animator owns the hue state and the pixel buffer. It is not safe for
// concurrent use.
type Animator struct {
	driver         LEDDriver
	ticksPerUpdate int
	brightness     uint8

	pixels []color.RGBA
	state  State
}

// New creates an animator for a ring of n pixels (at least 2) that reaches
// each new target after ticksPerUpdate calls to Advance. The ring starts
// green.
func New(driver LEDDriver, n, ticksPerUpdate int, brightness uint8) *Animator {
	if n < 2 {
		n = 2
	}
	if ticksPerUpdate < 1 {
		ticksPerUpdate = 1
	}
	start := fixed.FromInt(MaxHue)
	return &Animator{
		driver:         driver,
		ticksPerUpdate: ticksPerUpdate,
		brightness:     brightness,
		pixels:         make([]color.RGBA, n),
		state: State{
			Displayed: start,
			Target:    start,
		},
	}
}

// TargetHue maps an intensity to a hue: sensitivity * (intensity - offset)
// clamped to [0, MaxHue], then inverted so silence is green and the loudest
// level is red.
func TargetHue(intensity int16, sensitivity, offset int8) int16 {
	raw := int32(sensitivity) * (int32(intensity) - int32(offset))
	if raw < 0 {
		raw = 0
	} else if raw > MaxHue {
		raw = MaxHue
	}
	return int16(MaxHue - raw)
}

// Retarget sets a new target hue and the per-tick delta that reaches it in
// one update interval. It returns the target hue.
func (a *Animator) Retarget(intensity int16, sensitivity, offset int8) int16 {
	next := TargetHue(intensity, sensitivity, offset)

	a.state.Target = fixed.FromInt(int(next))
	a.state.Delta = (a.state.Target - a.state.Displayed).Div(a.ticksPerUpdate)
	a.state.TicksLeft = a.ticksPerUpdate

	return next
}

// Advance moves the displayed hue one tick towards the target, redraws the
// ring at the current wheel position, pushes it to the driver and steps the
// wheel. The last tick of an interval lands exactly on the target so the
// truncated delta never accumulates into drift.
func (a *Animator) Advance() error {
	switch {
	case a.state.TicksLeft > 1:
		a.state.Displayed += a.state.Delta
		a.state.TicksLeft--
	case a.state.TicksLeft == 1:
		a.state.Displayed = a.state.Target
		a.state.Delta = 0
		a.state.TicksLeft = 0
	}

	on := hsb.HSB(a.Hue(), Saturation, a.brightness)
	a.draw(on)

	var err error
	if a.driver != nil {
		err = a.driver.WriteColors(a.pixels)
	}

	// the last index is never used as a rotation origin
	a.state.WheelPosition = (a.state.WheelPosition + 1) % (len(a.pixels) - 1)

	return err
}

// draw lights half the ring starting at the wheel position and clears the
// rest.
func (a *Animator) draw(on color.RGBA) {
	n := len(a.pixels)
	for i := range a.pixels {
		a.pixels[i] = color.RGBA{}
	}
	for i := 0; i < n/2; i++ {
		a.pixels[(a.state.WheelPosition+i)%n] = on
	}
}

// Hue returns the displayed hue in degrees.
func (a *Animator) Hue() int16 {
	return int16(a.state.Displayed.Int())
}

// State returns a copy of the animation state.
func (a *Animator) State() State {
	return a.state
}

// Pixels returns the pixel buffer drawn by the last Advance. The slice is
// reused by the next call.
func (a *Animator) Pixels() []color.RGBA {
	return a.pixels
}

// Brightness returns the brightness the ring is drawn with.
func (a *Animator) Brightness() uint8 {
	return a.brightness
}
