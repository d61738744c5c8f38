package heatmap

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/rotisserie/eris"
)

// turboStops approximates the turbo colormap with linear interpolation
// between anchor colors.
var turboStops = []struct {
	t       float64
	r, g, b uint8
}{
	{0.0, 48, 18, 59},
	{0.2, 65, 125, 224},
	{0.4, 31, 201, 163},
	{0.6, 155, 217, 60},
	{0.8, 249, 157, 56},
	{1.0, 122, 4, 3},
}

// rampColor maps a normalized density t in [0, 1] onto the turbo ramp.
func rampColor(t float64) color.NRGBA {
	t = math.Max(0, math.Min(1, t))
	for i := 1; i < len(turboStops); i++ {
		hi := turboStops[i]
		if t > hi.t {
			continue
		}
		lo := turboStops[i-1]
		f := (t - lo.t) / (hi.t - lo.t)
		return color.NRGBA{
			R: lerp(lo.r, hi.r, f),
			G: lerp(lo.g, hi.g, f),
			B: lerp(lo.b, hi.b, f),
			A: 255,
		}
	}
	last := turboStops[len(turboStops)-1]
	return color.NRGBA{R: last.r, G: last.g, B: last.b, A: 255}
}

func lerp(a, b uint8, f float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*f))
}

// Render paints the density grid. Zero-density cells are fully
// transparent so the heatmap works as a map overlay.
func (g *Grid) Render() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, g.Width, g.Height))
	max := g.Max()
	if max <= 0 {
		return img
	}

	for row := 0; row < g.Height; row++ {
		for col := 0; col < g.Width; col++ {
			v := g.Values[row*g.Width+col]
			if v <= 0 {
				continue
			}
			img.SetNRGBA(col, row, rampColor(v/max))
		}
	}
	return img
}

// WritePNG renders the grid and encodes it as PNG.
func (g *Grid) WritePNG(w io.Writer) error {
	if err := png.Encode(w, g.Render()); err != nil {
		return eris.Wrap(err, "heatmap: encode png")
	}
	return nil
}
