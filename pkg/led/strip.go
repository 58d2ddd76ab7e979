package led

import (
	"fmt"
	"image/color"
	"io"
	"sync"

	"go.bug.st/serial"
)

// DefaultBaudRate is the strip controller's UART speed.
const DefaultBaudRate = 115200

// Strip drives an LED strip through a serial controller speaking the
// Adalight protocol: "Ada", count-1 (big endian), checksum, then one RGB
// triple per pixel.
type Strip struct {
	mu    sync.Mutex
	w     io.Writer
	c     io.Closer
	frame []byte
}

// NewStrip creates a strip writing frames to w.
func NewStrip(w io.Writer) *Strip {
	s := &Strip{w: w}
	if c, ok := w.(io.Closer); ok {
		s.c = c
	}
	return s
}

// OpenStrip opens the serial port of a strip controller.
func OpenStrip(port string, baudRate int) (*Strip, error) {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	p, err := serial.Open(port, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", port, err)
	}
	return NewStrip(p), nil
}

// WriteColors sends one frame.
func (s *Strip) WriteColors(pixels []color.RGBA) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frame = encodeFrame(s.frame[:0], pixels)
	if _, err := s.w.Write(s.frame); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}

// Close closes the underlying port, if any.
func (s *Strip) Close() error {
	if s.c == nil {
		return nil
	}
	return s.c.Close()
}

// encodeFrame appends an Adalight frame for pixels to dst.
func encodeFrame(dst []byte, pixels []color.RGBA) []byte {
	n := len(pixels) - 1
	if n < 0 {
		n = 0
	}
	hi, lo := byte(n>>8), byte(n)
	dst = append(dst, 'A', 'd', 'a', hi, lo, hi^lo^0x55)
	for _, px := range pixels {
		dst = append(dst, px.R, px.G, px.B)
	}
	return dst
}
