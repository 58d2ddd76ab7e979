// Package led holds host-side pixel drivers for the animator: a terminal
// preview, a serial LED strip and an in-memory recorder.
package led

import (
	"fmt"
	"image/color"
	"io"
	"strings"
	"sync"

	fcolor "github.com/fatih/color"
	"github.com/itohio/noisey/pkg/hue"
)

// Ensure drivers implement hue.LEDDriver.
var (
	_ hue.LEDDriver = (*Terminal)(nil)
	_ hue.LEDDriver = (*Strip)(nil)
	_ hue.LEDDriver = (*Recorder)(nil)
)

const (
	pixelOn  = "●"
	pixelOff = "·"
)

// Terminal redraws the ring as one line of truecolor dots.
type Terminal struct {
	mu    sync.Mutex
	out   io.Writer
	force bool
	sb    strings.Builder
}

// NewTerminal creates a terminal preview writing to out. A nil out writes to
// the colorable stdout. force emits color codes even when out is not a
// terminal.
func NewTerminal(out io.Writer, force bool) *Terminal {
	if out == nil {
		out = fcolor.Output
	}
	return &Terminal{out: out, force: force}
}

// WriteColors redraws the line in place.
func (t *Terminal) WriteColors(pixels []color.RGBA) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.sb.Reset()
	t.sb.WriteString("\r")
	for _, px := range pixels {
		if px.R == 0 && px.G == 0 && px.B == 0 {
			t.sb.WriteString(pixelOff)
			continue
		}
		c := fcolor.RGB(int(px.R), int(px.G), int(px.B))
		if t.force {
			c.EnableColor()
		}
		t.sb.WriteString(c.Sprint(pixelOn))
	}

	if _, err := io.WriteString(t.out, t.sb.String()); err != nil {
		return fmt.Errorf("failed to draw ring: %w", err)
	}
	return nil
}
