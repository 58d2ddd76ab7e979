package ledview

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"github.com/chewxy/math32"
	hsb "github.com/itohio/noisey/pkg/color"
	"github.com/itohio/noisey/pkg/hue"
)

const (
	captionHeight = float32(24)
	barHeight     = float32(10)
	margin        = float32(12)
)

// ringRenderer renders the ring widget.
type ringRenderer struct {
	ring *RingWidget

	background *canvas.Rectangle
	dots       []*canvas.Circle
	barFrame   *canvas.Rectangle
	bar        *canvas.Rectangle
	caption    *canvas.Text

	objects []fyne.CanvasObject
}

// rebuild recreates the dots when the pixel count changes.
func (r *ringRenderer) rebuild(n int) {
	r.dots = r.dots[:0]
	r.objects = []fyne.CanvasObject{r.background}
	for i := 0; i < n; i++ {
		dot := canvas.NewCircle(offColor)
		r.dots = append(r.dots, dot)
		r.objects = append(r.objects, dot)
	}
	r.objects = append(r.objects, r.barFrame, r.bar, r.caption)
}

// MinSize returns the minimum size of the widget.
func (r *ringRenderer) MinSize() fyne.Size {
	return fyne.NewSize(240, 240+captionHeight+barHeight+2*margin)
}

// Layout arranges the widget components.
func (r *ringRenderer) Layout(size fyne.Size) {
	r.background.Resize(size)

	ringHeight := size.Height - captionHeight - barHeight - 2*margin
	side := min(size.Width, ringHeight)
	center := fyne.NewPos(size.Width/2, margin+ringHeight/2)

	n := len(r.dots)
	if n > 0 {
		// dots cover about 60% of the circumference
		dot := side * 0.6 * math32.Pi / float32(n)
		radius := side/2 - dot/2 - margin
		for i, p := range ringLayout(n, center, radius) {
			r.dots[i].Resize(fyne.NewSize(dot, dot))
			r.dots[i].Move(fyne.NewPos(p.X-dot/2, p.Y-dot/2))
		}
	}

	barY := margin + ringHeight + margin/2
	r.barFrame.Move(fyne.NewPos(margin, barY))
	r.barFrame.Resize(fyne.NewSize(size.Width-2*margin, barHeight))
	r.bar.Move(fyne.NewPos(margin, barY))

	r.caption.Move(fyne.NewPos(0, barY+barHeight))
	r.caption.Resize(fyne.NewSize(size.Width, captionHeight))

	r.layoutBar(size)
}

func (r *ringRenderer) layoutBar(size fyne.Size) {
	st := r.ring.Status()
	r.bar.Resize(fyne.NewSize((size.Width-2*margin)*barFraction(st.Intensity), barHeight))
}

// Refresh updates the widget display.
func (r *ringRenderer) Refresh() {
	pixels := r.ring.Pixels()
	st := r.ring.Status()

	if len(pixels) != len(r.dots) {
		r.rebuild(len(pixels))
		r.Layout(r.ring.Size())
	}

	for i, px := range pixels {
		var c color.Color = px
		if px.R == 0 && px.G == 0 && px.B == 0 {
			c = offColor
		}
		r.dots[i].FillColor = c
		r.dots[i].Refresh()
	}

	r.bar.FillColor = hueColor(st.Hue)
	r.layoutBar(r.ring.Size())
	r.bar.Refresh()

	r.caption.Text = Caption(st)
	r.caption.Refresh()
}

// Objects returns the canvas objects.
func (r *ringRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// Destroy releases resources.
func (r *ringRenderer) Destroy() {}

// hueColor is the bar color for a hue, at full brightness.
func hueColor(h int16) color.RGBA {
	return hsb.HSB(h, hue.Saturation, 255)
}
