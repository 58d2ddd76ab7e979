package adc

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/itohio/noisey/pkg/config"
)

// MockResolution is the resolution of simulated readings.
const MockResolution = 10

// Mock simulates a microphone on an ADC: a DC baseline with ambient noise
// and periodic loud bursts.
type Mock struct {
	cfg *config.MockConfig
	now func() time.Time

	mu        sync.Mutex
	rnd       *rand.Rand
	startTime time.Time
	connected bool
}

// NewMock creates a simulated source. A nil cfg uses the defaults.
func NewMock(cfg *config.MockConfig) *Mock {
	if cfg == nil {
		def := config.Default().Mock
		cfg = &def
	}

	return &Mock{
		cfg: cfg,
		now: time.Now,
		rnd: rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Connect starts the simulation clock.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}

	m.connected = true
	m.startTime = m.now()

	return nil
}

// Close stops the simulation.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
	return nil
}

// IsConnected returns whether the simulation is running.
func (m *Mock) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// Resolution returns MockResolution.
func (m *Mock) Resolution() uint {
	return MockResolution
}

// Bursting reports whether a loud burst is active at elapsed time d.
func (m *Mock) Bursting(d time.Duration) bool {
	if m.cfg.BurstPeriod <= 0 || m.cfg.BurstDuration <= 0 {
		return false
	}
	return d%m.cfg.BurstPeriod >= m.cfg.BurstPeriod-m.cfg.BurstDuration
}

// Get returns one simulated reading. A disconnected mock reads the
// baseline.
func (m *Mock) Get() uint16 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return clampReading(m.cfg.Baseline)
	}

	amplitude := m.cfg.NoiseLevel
	if m.Bursting(m.now().Sub(m.startTime)) {
		amplitude = m.cfg.BurstLevel
	}

	return clampReading(m.cfg.Baseline + amplitude*(2*m.rnd.Float64()-1))
}

func clampReading(v float64) uint16 {
	const max = 1<<MockResolution - 1
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return uint16(v)
}
