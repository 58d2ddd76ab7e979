package adc

import (
	"testing"
	"time"

	"github.com/itohio/noisey/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMockConfig() *config.MockConfig {
	return &config.MockConfig{
		Baseline:      512,
		NoiseLevel:    20,
		BurstLevel:    300,
		BurstDuration: 3 * time.Second,
		BurstPeriod:   15 * time.Second,
		Seed:          42,
	}
}

func TestNewMock_Defaults(t *testing.T) {
	m := NewMock(nil)
	assert.Equal(t, config.Default().Mock, *m.cfg)
	assert.False(t, m.IsConnected())
	assert.Equal(t, uint(0), Shift(m))
}

func TestMock_Connect(t *testing.T) {
	m := NewMock(testMockConfig())
	require.NoError(t, m.Connect())
	assert.True(t, m.IsConnected())
	assert.Error(t, m.Connect())
	require.NoError(t, m.Close())
	assert.False(t, m.IsConnected())
}

func TestMock_Bursting(t *testing.T) {
	m := NewMock(testMockConfig())

	tests := []struct {
		at   time.Duration
		want bool
	}{
		{0, false},
		{11 * time.Second, false},
		{12 * time.Second, true},
		{14 * time.Second, true},
		{15 * time.Second, false},
		{27 * time.Second, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, m.Bursting(tt.at), "at %v", tt.at)
	}

	m.cfg.BurstPeriod = 0
	assert.False(t, m.Bursting(13*time.Second))
}

func TestMock_Get(t *testing.T) {
	cfg := testMockConfig()
	m := NewMock(cfg)

	// disconnected reads the baseline
	assert.Equal(t, uint16(512), m.Get())

	now := time.Unix(0, 0)
	m.now = func() time.Time { return now }
	require.NoError(t, m.Connect())

	quietLo, quietHi := uint16(1023), uint16(0)
	for i := 0; i < 1000; i++ {
		v := m.Get()
		quietLo, quietHi = min(quietLo, v), max(quietHi, v)
	}
	assert.GreaterOrEqual(t, quietLo, uint16(512-20))
	assert.LessOrEqual(t, quietHi, uint16(512+20))

	now = now.Add(13 * time.Second)
	loudLo, loudHi := uint16(1023), uint16(0)
	for i := 0; i < 1000; i++ {
		v := m.Get()
		loudLo, loudHi = min(loudLo, v), max(loudHi, v)
	}
	assert.Less(t, loudLo, uint16(512-100))
	assert.Greater(t, loudHi, uint16(512+100))
	assert.LessOrEqual(t, loudHi, uint16(1023))
}

func TestMock_Deterministic(t *testing.T) {
	a, b := NewMock(testMockConfig()), NewMock(testMockConfig())
	now := time.Unix(0, 0)
	a.now = func() time.Time { return now }
	b.now = func() time.Time { return now }
	require.NoError(t, a.Connect())
	require.NoError(t, b.Connect())

	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Get(), b.Get())
	}
}

func TestClampReading(t *testing.T) {
	assert.Equal(t, uint16(0), clampReading(-5))
	assert.Equal(t, uint16(1023), clampReading(5000))
	assert.Equal(t, uint16(700), clampReading(700.9))
}
