package hue

import (
	"errors"
	"image/color"
	"testing"

	"github.com/itohio/noisey/pkg/fixed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDriver struct {
	frames [][]color.RGBA
	err    error
}

func (d *recordingDriver) WriteColors(pixels []color.RGBA) error {
	frame := make([]color.RGBA, len(pixels))
	copy(frame, pixels)
	d.frames = append(d.frames, frame)
	return d.err
}

func TestTargetHue(t *testing.T) {
	tests := []struct {
		name        string
		intensity   int16
		sensitivity int8
		offset      int8
		want        int16
	}{
		{name: "reference scenario", intensity: 10, sensitivity: 5, offset: 0, want: 70},
		{name: "silence", intensity: 0, sensitivity: 5, offset: 0, want: 120},
		{name: "below offset", intensity: 3, sensitivity: 10, offset: 20, want: 120},
		{name: "saturated", intensity: 120, sensitivity: 10, offset: 0, want: 0},
		{name: "exactly full range", intensity: 30, sensitivity: 4, offset: 0, want: 0},
		{name: "offset subtracts", intensity: 30, sensitivity: 2, offset: 10, want: 80},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TargetHue(tt.intensity, tt.sensitivity, tt.offset))
		})
	}
}

func TestTargetHue_AlwaysInRange(t *testing.T) {
	for sens := int8(1); sens <= 10; sens++ {
		for offset := int8(0); offset < 100; offset += 7 {
			for intensity := int16(0); intensity <= 120; intensity++ {
				h := TargetHue(intensity, sens, offset)
				require.GreaterOrEqual(t, h, int16(0))
				require.LessOrEqual(t, h, int16(MaxHue))
			}
		}
	}
}

func TestNew(t *testing.T) {
	a := New(nil, 24, 24, 100)

	st := a.State()
	assert.Equal(t, fixed.FromInt(120), st.Displayed)
	assert.Equal(t, int16(120), a.Hue())
	assert.Equal(t, 0, st.WheelPosition)
	assert.Len(t, a.Pixels(), 24)
	assert.Equal(t, uint8(100), a.Brightness())
}

func TestAnimator_Retarget(t *testing.T) {
	a := New(nil, 24, 24, 100)

	target := a.Retarget(10, 5, 0)
	assert.Equal(t, int16(70), target)

	st := a.State()
	assert.Equal(t, fixed.FromInt(70), st.Target)
	assert.Equal(t, (fixed.FromInt(70)-fixed.FromInt(120)).Div(24), st.Delta)
	assert.Equal(t, 24, st.TicksLeft)
}

func TestAnimator_ReachesTargetExactly(t *testing.T) {
	tests := []struct {
		name   string
		ticks  int
		target int16 // intensity with sensitivity 1, offset 0 -> hue 120-target
	}{
		{name: "one revolution", ticks: 24, target: 50},
		{name: "long interval", ticks: 300, target: 119},
		{name: "small step", ticks: 300, target: 1},
		{name: "single tick", ticks: 1, target: 77},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(nil, 24, tt.ticks, 100)
			want := a.Retarget(tt.target, 1, 0)
			goal := fixed.FromInt(int(want))

			dist := (a.State().Displayed - goal).Abs()
			for i := 1; i <= tt.ticks; i++ {
				require.NoError(t, a.Advance())
				d := (a.State().Displayed - goal).Abs()
				require.Less(t, d, dist, "tick %d", i)
				dist = d
			}
			assert.Equal(t, goal, a.State().Displayed)
			assert.Equal(t, want, a.Hue())

			// further ticks without a new target hold the hue
			require.NoError(t, a.Advance())
			assert.Equal(t, goal, a.State().Displayed)
		})
	}
}

func TestAnimator_NoDriftWithConstantTarget(t *testing.T) {
	a := New(nil, 24, 24, 100)

	for cycle := 0; cycle < 50; cycle++ {
		a.Retarget(7, 5, 0)
		for i := 0; i < 24; i++ {
			require.NoError(t, a.Advance())
		}
		require.Equal(t, fixed.FromInt(85), a.State().Displayed, "cycle %d", cycle)
	}
}

func TestAnimator_AlternatingTargets(t *testing.T) {
	a := New(nil, 24, 24, 100)
	targets := []int16{0, 120, 33, 90, 1, 119}

	for _, intensity := range targets {
		want := a.Retarget(intensity, 1, 0)
		for i := 0; i < 24; i++ {
			require.NoError(t, a.Advance())
			require.GreaterOrEqual(t, a.Hue(), int16(0))
			require.LessOrEqual(t, a.Hue(), int16(MaxHue))
		}
		assert.Equal(t, want, a.Hue())
	}
}

func TestAnimator_WheelPeriod(t *testing.T) {
	const n = 24
	a := New(nil, n, 24, 100)

	seen := make(map[int]int)
	for i := 0; i < 3*(n-1); i++ {
		pos := a.State().WheelPosition
		require.NotEqual(t, n-1, pos)
		assert.Equal(t, i%(n-1), pos)
		seen[pos]++
		require.NoError(t, a.Advance())
	}

	assert.Len(t, seen, n-1)
	for pos, count := range seen {
		assert.Equal(t, 3, count, "position %d", pos)
	}
}

func TestAnimator_Pattern(t *testing.T) {
	const n = 24
	d := &recordingDriver{}
	a := New(d, n, 24, 255)

	for tick := 0; tick < 2*n; tick++ {
		pos := a.State().WheelPosition
		require.NoError(t, a.Advance())

		frame := d.frames[len(d.frames)-1]
		require.Len(t, frame, n)

		lit := 0
		for i, px := range frame {
			// offset of pixel i from the leading pixel, walking forward
			rel := (i - pos + n) % n
			if rel < n/2 {
				assert.Equal(t, color.RGBA{R: 0, G: 255, B: 0, A: 255}, px, "tick %d pixel %d", tick, i)
				lit++
			} else {
				assert.Equal(t, color.RGBA{}, px, "tick %d pixel %d", tick, i)
			}
		}
		assert.Equal(t, n/2, lit)
	}
	assert.Len(t, d.frames, 2*n)
}

func TestAnimator_DriverError(t *testing.T) {
	d := &recordingDriver{err: errors.New("strip unplugged")}
	a := New(d, 8, 4, 100)

	err := a.Advance()
	assert.EqualError(t, err, "strip unplugged")
	assert.Equal(t, 1, a.State().WheelPosition)
}

func TestNew_Clamps(t *testing.T) {
	a := New(nil, 1, 0, 100)
	assert.Len(t, a.Pixels(), 2)

	a.Retarget(120, 10, 0)
	require.NoError(t, a.Advance())
	assert.Equal(t, int16(0), a.Hue())
	assert.Equal(t, 0, a.State().WheelPosition)
}
