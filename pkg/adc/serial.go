package adc

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.bug.st/serial"
)

const (
	// DefaultBaudRate is the UART speed of the firmware.
	DefaultBaudRate = 115200
	// DefaultBufferSize is the number of readings kept between two polls.
	DefaultBufferSize = 1024
	// SerialResolution is the ADC resolution of the streaming firmware.
	SerialResolution = 12
)

// Reading is one ADC sample streamed by the MCU.
type Reading struct {
	Timestamp time.Time
	Value     uint16
}

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Serial reads ADC samples streamed by an MCU as text lines.
type Serial struct {
	port     string
	baudRate int
	log      zerolog.Logger

	conn      serial.Port
	feed      *feed
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
	dropped   int
}

// NewSerial creates a serial source. Zero baud rate or buffer size selects
// the defaults.
func NewSerial(port string, baudRate, bufSize int, log zerolog.Logger) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Serial{
		port:     port,
		baudRate: baudRate,
		log:      log,
		feed:     newFeed(bufSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, name := range ports {
		result = append(result, Port{
			Name:        name,
			Description: name,
		})
	}

	return result, nil
}

// Connect opens the port and starts reading lines.
func (s *Serial) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connected {
		return fmt.Errorf("already connected")
	}

	port, err := serial.Open(s.port, &serial.Mode{BaudRate: s.baudRate})
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", s.port, err)
	}

	s.conn = port
	s.connected = true

	go s.read(port)

	return nil
}

// Close stops reading and closes the port.
func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return nil
	}

	s.cancel()

	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			s.log.Warn().Err(err).Msg("error closing serial port")
		}
		s.conn = nil
	}

	s.connected = false

	return nil
}

// IsConnected returns whether the port is open.
func (s *Serial) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// Get returns the oldest unread reading, or the last one if none arrived.
func (s *Serial) Get() uint16 {
	return s.feed.get()
}

// Resolution returns SerialResolution.
func (s *Serial) Resolution() uint {
	return SerialResolution
}

// read parses lines until the port closes or the source is closed.
func (s *Serial) read(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil && s.ctx.Err() == nil {
				s.log.Error().Err(err).Msg("error reading from serial port")
			}
			return
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		reading, err := parseLine(line)
		if err != nil {
			s.mu.Lock()
			s.dropped++
			s.mu.Unlock()
			s.log.Debug().Err(err).Str("line", line).Msg("skipping line")
			continue
		}

		s.feed.push(reading.Value)
	}
}

// Dropped returns the number of lines that failed to parse.
func (s *Serial) Dropped() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dropped
}

// parseLine parses a line from the MCU.
// Format: unix_micros,reading
// Example: 1234567890123,2048
func parseLine(line string) (Reading, error) {
	parts := strings.Split(line, ",")
	if len(parts) != 2 {
		return Reading{}, fmt.Errorf("invalid line format: expected 2 comma-separated values, got %d", len(parts))
	}

	micros, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return Reading{}, fmt.Errorf("invalid timestamp: %w", err)
	}

	value, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil {
		return Reading{}, fmt.Errorf("invalid reading: %w", err)
	}
	if value >= 1<<SerialResolution {
		return Reading{}, fmt.Errorf("reading out of range: %d (max %d)", value, 1<<SerialResolution-1)
	}

	return Reading{
		Timestamp: time.Unix(0, micros*1000),
		Value:     uint16(value),
	}, nil
}
