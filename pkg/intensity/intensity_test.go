package intensity

import (
	"testing"

	"github.com/itohio/noisey/pkg/sampler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactors(t *testing.T) {
	assert.Equal(t, 26, FactorNew)
	assert.Equal(t, 1<<Shift, FactorNew+FactorOld)
}

func TestFilter_FirstWindow(t *testing.T) {
	f := New()
	f.Update(sampler.Level{Average: 100, Peak: 150})

	st := f.State()
	assert.Equal(t, int16(10), st.RunningMean)
	assert.Equal(t, int16(15), st.RunningPeak)
	assert.Equal(t, int16(5), f.Intensity())
	assert.Equal(t, int16(5), f.Difference())
}

func TestFilter_ConvergesWithoutOvershoot(t *testing.T) {
	tests := []struct {
		name  string
		start sampler.Level
		v     int16
	}{
		{name: "rising from zero", start: sampler.Level{}, v: 100},
		{name: "rising to full scale", start: sampler.Level{}, v: 1023},
		{name: "falling", start: sampler.Level{Average: 900, Peak: 900}, v: 37},
		{name: "zero", start: sampler.Level{Average: 10, Peak: 10}, v: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New()
			// saturate at the start level first
			for i := 0; i < 500; i++ {
				f.Update(tt.start)
			}

			prev := f.State()
			rising := prev.RunningMean <= tt.v
			for i := 0; i < 500; i++ {
				f.Update(sampler.Level{Average: tt.v, Peak: tt.v})
				st := f.State()
				if rising {
					require.GreaterOrEqual(t, st.RunningMean, prev.RunningMean)
					require.LessOrEqual(t, st.RunningMean, tt.v)
					require.GreaterOrEqual(t, st.RunningPeak, prev.RunningPeak)
					require.LessOrEqual(t, st.RunningPeak, tt.v)
				} else {
					require.LessOrEqual(t, st.RunningMean, prev.RunningMean)
					require.GreaterOrEqual(t, st.RunningMean, tt.v)
					require.LessOrEqual(t, st.RunningPeak, prev.RunningPeak)
					require.GreaterOrEqual(t, st.RunningPeak, tt.v)
				}
				prev = st
			}

			// the floor-rounded average stalls within a few counts of v
			assert.InDelta(t, tt.v, prev.RunningMean, float64(tt.v)/10+1)
		})
	}
}

func TestFilter_IntensityClamped(t *testing.T) {
	tests := []struct {
		name  string
		level sampler.Level
		want  int16
	}{
		{name: "quiet", level: sampler.Level{Average: 512, Peak: 512}, want: 0},
		{name: "peak below mean", level: sampler.Level{Average: 800, Peak: 100}, want: 0},
		{name: "moderate", level: sampler.Level{Average: 500, Peak: 560}, want: 60},
		{name: "loud", level: sampler.Level{Average: 100, Peak: 1023}, want: 120},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New()
			for i := 0; i < 1000; i++ {
				f.Update(tt.level)
				got := f.Intensity()
				require.GreaterOrEqual(t, got, int16(0))
				require.LessOrEqual(t, got, int16(MaxHueRange))
			}
			assert.InDelta(t, tt.want, f.Intensity(), 2)
		})
	}
}

func TestFilter_DifferenceNotClamped(t *testing.T) {
	f := New()
	for i := 0; i < 1000; i++ {
		f.Update(sampler.Level{Average: 800, Peak: 100})
	}
	assert.Less(t, f.Difference(), int16(-600))
	assert.Equal(t, int16(0), f.Intensity())
}

func TestFilter_Snapshot(t *testing.T) {
	f := New()
	f.Update(sampler.Level{Average: 100, Peak: 150})
	f.Snapshot()
	f.Update(sampler.Level{Average: 100, Peak: 150})

	st := f.State()
	assert.Equal(t, int16(10), st.PreviousMean)
	assert.Equal(t, int16(15), st.PreviousPeak)
	assert.Equal(t, int16((100*26+10*230)>>8), st.RunningMean)
	assert.Equal(t, int16((150*26+15*230)>>8), st.RunningPeak)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, int16(0), Clamp(-5, 0, 120))
	assert.Equal(t, int16(120), Clamp(500, 0, 120))
	assert.Equal(t, int16(42), Clamp(42, 0, 120))
}
