// Package adc provides host-side analog sources for the sampler: a
// simulated one, an MCU streaming its ADC over a serial port and the
// default microphone.
package adc

import (
	"sync"

	"github.com/itohio/noisey/pkg/ringbuf"
	"github.com/itohio/noisey/pkg/sampler"
)

// FilterBits is the resolution the intensity filter is tuned for.
const FilterBits = 10

// Source is an analog input that has to be connected before reading.
type Source interface {
	sampler.Reader
	Connect() error
	Close() error
	IsConnected() bool
	// Resolution returns the number of significant bits of Get.
	Resolution() uint
}

// Ensure sources implement Source.
var (
	_ Source = (*Serial)(nil)
	_ Source = (*Mock)(nil)
	_ Source = (*Mic)(nil)
)

// Shift returns how far readings of src must be shifted right to land in
// the FilterBits range.
func Shift(src Source) uint {
	if r := src.Resolution(); r > FilterBits {
		return r - FilterBits
	}
	return 0
}

// feed hands readings from a producer goroutine to the sampler loop. When
// the sampler polls faster than readings arrive it sees the last one again.
type feed struct {
	mu   sync.Mutex
	ring *ringbuf.Ring[uint16]
	last uint16
}

func newFeed(capacity int) *feed {
	return &feed{ring: ringbuf.New[uint16](capacity)}
}

func (f *feed) push(v uint16) {
	f.mu.Lock()
	f.ring.Push(v)
	f.mu.Unlock()
}

func (f *feed) get() uint16 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.ring.Pop(); ok {
		f.last = v
	}
	return f.last
}

func (f *feed) pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ring.Pending()
}
