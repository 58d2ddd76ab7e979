package adc

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/rs/zerolog"
)

const (
	// MicSampleRate is the capture rate of the microphone.
	MicSampleRate = 16000
	// MicResolution is the resolution of a captured frame.
	MicResolution = 16
)

// Mic captures the default input device. Signed 16-bit frames are offset
// by half scale so the source reads like a biased microphone on an ADC.
type Mic struct {
	log zerolog.Logger

	mu        sync.Mutex
	ctx       *malgo.AllocatedContext
	device    *malgo.Device
	feed      *feed
	connected bool
}

// NewMic creates a microphone source buffering up to bufSize frames.
func NewMic(bufSize int, log zerolog.Logger) *Mic {
	if bufSize == 0 {
		bufSize = MicSampleRate / 10
	}
	return &Mic{
		log:  log,
		feed: newFeed(bufSize),
	}
}

// Connect opens the capture device and starts streaming.
func (m *Mic) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		m.log.Debug().Str("backend", message).Msg("malgo")
	})
	if err != nil {
		return fmt.Errorf("failed to initialize audio context: %w", err)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = MicSampleRate
	deviceConfig.Alsa.NoMMap = 1

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: func(_, input []byte, frameCount uint32) {
			m.write(input)
		},
	})
	if err != nil {
		ctx.Uninit()
		ctx.Free()
		return fmt.Errorf("failed to initialize capture device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		ctx.Uninit()
		ctx.Free()
		return fmt.Errorf("failed to start capture: %w", err)
	}

	m.ctx = ctx
	m.device = device
	m.connected = true
	m.log.Info().Int("rate", MicSampleRate).Msg("microphone capture started")

	return nil
}

// write converts little-endian S16 frames to biased unsigned readings.
func (m *Mic) write(input []byte) {
	for i := 0; i+1 < len(input); i += 2 {
		s := int16(binary.LittleEndian.Uint16(input[i:]))
		m.feed.push(uint16(int32(s) + 1<<15))
	}
}

// Close stops capture and releases the device.
func (m *Mic) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return nil
	}

	m.device.Uninit()
	if err := m.ctx.Uninit(); err != nil {
		m.log.Warn().Err(err).Msg("error releasing audio context")
	}
	m.ctx.Free()

	m.device = nil
	m.ctx = nil
	m.connected = false

	return nil
}

// IsConnected returns whether capture is running.
func (m *Mic) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// Get returns the oldest buffered frame, or the last one if none arrived.
func (m *Mic) Get() uint16 {
	return m.feed.get()
}

// Resolution returns MicResolution.
func (m *Mic) Resolution() uint {
	return MicResolution
}
