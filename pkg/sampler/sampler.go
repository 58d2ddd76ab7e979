// Package sampler reduces a burst of analog reads taken over a fixed time
// window to one average/peak pair.
package sampler

import "time"

// DefaultWindow is the polling window used when none is given.
const DefaultWindow = 20 * time.Millisecond

// Reader is an analog input. machine.ADC satisfies it on TinyGo targets.
type Reader interface {
	Get() uint16
}

// Level is the reduction of one sampling window.
type Level struct {
	Average int16
	Peak    int16
}

// Sampler polls a Reader for a fixed window of wall-clock time.
type Sampler struct {
	adc    Reader
	window time.Duration
	now    func() time.Time
	shift  uint

	last  Level
	reads int
}

// Option configures a Sampler.
type Option func(*Sampler)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Sampler) {
		s.now = now
	}
}

// WithShift right-shifts every read, e.g. 6 to bring a 16-bit ADC down to
// the 10-bit range the intensity filter is tuned for.
func WithShift(bits uint) Option {
	return func(s *Sampler) {
		s.shift = bits
	}
}

// New creates a Sampler. A non-positive window falls back to DefaultWindow.
func New(adc Reader, window time.Duration, opts ...Option) *Sampler {
	if window <= 0 {
		window = DefaultWindow
	}
	s := &Sampler{
		adc:    adc,
		window: window,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Window returns the polling window.
func (s *Sampler) Window() time.Duration {
	return s.window
}

// Reads returns the number of reads taken in the last window.
func (s *Sampler) Reads() int {
	return s.reads
}

// Last returns the most recent level without sampling.
func (s *Sampler) Last() Level {
	return s.last
}

// Sample blocks for one window, reading the input as fast as possible, and
// returns the mean and maximum of all reads. A window that produced no reads
// returns the previous level unchanged.
func (s *Sampler) Sample() Level {
	var (
		sum   int64
		count int64
		peak  int16
	)

	start := s.now()
	for s.now().Sub(start) < s.window {
		v := int16(s.adc.Get() >> s.shift)
		sum += int64(v)
		count++
		if v > peak {
			peak = v
		}
	}

	s.reads = int(count)
	if count == 0 {
		return s.last
	}

	s.last = Level{
		Average: int16(sum / count),
		Peak:    peak,
	}
	return s.last
}
