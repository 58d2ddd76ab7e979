// Package ledview shows the LED ring in a Fyne window. The widget is itself
// an LED driver, so the animator can draw straight into it.
package ledview

import (
	"fmt"
	"image/color"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
	"github.com/chewxy/math32"
	"github.com/itohio/noisey/pkg/hue"
	"github.com/itohio/noisey/pkg/intensity"
	"github.com/itohio/noisey/pkg/pipeline"
)

var _ hue.LEDDriver = (*RingWidget)(nil)

var (
	backgroundColor = color.RGBA{R: 20, G: 20, B: 20, A: 255}
	offColor        = color.RGBA{R: 45, G: 45, B: 45, A: 255}
	textColor       = color.RGBA{R: 200, G: 200, B: 200, A: 255}
)

// RingWidget draws the pixels of the ring on a circle and the intensity as
// a bar underneath.
type RingWidget struct {
	widget.BaseWidget

	mu     sync.RWMutex
	pixels []color.RGBA
	status pipeline.Status
}

// New creates a widget for a ring of n pixels.
func New(n int) *RingWidget {
	w := &RingWidget{
		pixels: make([]color.RGBA, n),
	}
	w.status.Hue = hue.MaxHue
	w.ExtendBaseWidget(w)
	return w
}

// WriteColors copies the frame and schedules a redraw on the UI goroutine.
func (w *RingWidget) WriteColors(pixels []color.RGBA) error {
	w.mu.Lock()
	if len(w.pixels) != len(pixels) {
		w.pixels = make([]color.RGBA, len(pixels))
	}
	copy(w.pixels, pixels)
	w.mu.Unlock()

	fyne.Do(w.Refresh)
	return nil
}

// UpdateStatus records the pipeline status shown in the caption. It is
// meant to be the pipeline observer.
func (w *RingWidget) UpdateStatus(st pipeline.Status) {
	w.mu.Lock()
	w.status = st
	w.mu.Unlock()

	fyne.Do(w.Refresh)
}

// Pixels returns a copy of the last frame.
func (w *RingWidget) Pixels() []color.RGBA {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]color.RGBA(nil), w.pixels...)
}

// Status returns the last status.
func (w *RingWidget) Status() pipeline.Status {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.status
}

// CreateRenderer creates the widget renderer.
func (w *RingWidget) CreateRenderer() fyne.WidgetRenderer {
	r := &ringRenderer{
		ring:       w,
		background: canvas.NewRectangle(backgroundColor),
		barFrame:   canvas.NewRectangle(offColor),
		bar:        canvas.NewRectangle(textColor),
		caption:    canvas.NewText("", textColor),
	}
	r.caption.TextSize = 12
	r.caption.Alignment = fyne.TextAlignCenter
	r.rebuild(len(w.Pixels()))
	return r
}

// Caption formats the status line.
func Caption(st pipeline.Status) string {
	return fmt.Sprintf("hue %d  target %d  intensity %d  mean %d  peak %d  pending %d",
		st.Hue, st.Target, st.Intensity, st.Filter.RunningMean, st.Filter.RunningPeak, st.Pending)
}

// barFraction maps an intensity to the filled share of the bar.
func barFraction(v int16) float32 {
	return float32(intensity.Clamp(v, 0, intensity.MaxHueRange)) / intensity.MaxHueRange
}

// ringLayout returns the centers of n pixels evenly spaced on a circle of
// radius r around c, pixel 0 at the top, going clockwise.
func ringLayout(n int, c fyne.Position, r float32) []fyne.Position {
	pos := make([]fyne.Position, n)
	for i := range pos {
		a := 2*math32.Pi*float32(i)/float32(n) - math32.Pi/2
		pos[i] = fyne.NewPos(c.X+r*math32.Cos(a), c.Y+r*math32.Sin(a))
	}
	return pos
}
