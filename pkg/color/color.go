// Package color converts hue/saturation/brightness to gamma corrected RGB
// for WS2812-style pixels.
package color

import (
	"image/color"

	"github.com/chewxy/math32"
)

// Gamma is the exponent of the perceptual correction table.
const Gamma = 2.8

var gamma8 [256]uint8

func init() {
	for i := range gamma8 {
		gamma8[i] = uint8(math32.Pow(float32(i)/255, Gamma)*255 + 0.5)
	}
}

// Gamma8 returns the corrected value of an 8-bit channel.
func Gamma8(v uint8) uint8 {
	return gamma8[v]
}

// HSBToRGB converts hue in degrees [0, 360), saturation and brightness in
// [0, 255] to gamma corrected red, green and blue. Hues outside the range
// are wrapped.
func HSBToRGB(hue int16, saturation, brightness uint8) (r, g, b uint8) {
	if saturation == 0 {
		// grey: no gamma, matches the uncorrected brightness
		return brightness, brightness, brightness
	}

	h := int32(hue) % 360
	if h < 0 {
		h += 360
	}

	s := float32(saturation) / 255
	v := float32(brightness) / 255

	hh := float32(h) / 60
	sector := int(hh)
	ff := hh - float32(sector)

	p := v * (1 - s)
	q := v * (1 - s*ff)
	t := v * (1 - s*(1-ff))

	switch sector {
	case 0:
		return channel(v), channel(t), channel(p)
	case 1:
		return channel(q), channel(v), channel(p)
	case 2:
		return channel(p), channel(v), channel(t)
	case 3:
		return channel(p), channel(q), channel(v)
	case 4:
		return channel(t), channel(p), channel(v)
	default:
		return channel(v), channel(p), channel(q)
	}
}

// HSB is HSBToRGB returning an opaque color.RGBA.
func HSB(hue int16, saturation, brightness uint8) color.RGBA {
	r, g, b := HSBToRGB(hue, saturation, brightness)
	return color.RGBA{R: r, G: g, B: b, A: 0xFF}
}

func channel(f float32) uint8 {
	return gamma8[uint8(f*255)]
}
