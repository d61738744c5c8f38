// Package heatmap rasterizes point clouds into kernel-density heatmap
// images. It works in the coordinate units of the source data, so for
// geographic (lat/lon) input the radius and pixel size are in degrees.
package heatmap

import (
	"math"

	"github.com/rotisserie/eris"
)

// ErrNoPoints reports an input with nothing to rasterize.
var ErrNoPoints = eris.New("heatmap: no points to rasterize")

// maxCells caps the raster size so a tiny pixel size over a large
// extent cannot exhaust memory.
const maxCells = 64 << 20

// Point is a single sample position in source coordinates.
type Point struct {
	X float64
	Y float64
}

// Kernel names a density kernel shape.
type Kernel string

const (
	// KernelQuartic is the default, matching the usual GIS choice.
	KernelQuartic      Kernel = "quartic"
	KernelTriangular   Kernel = "triangular"
	KernelUniform      Kernel = "uniform"
	KernelEpanechnikov Kernel = "epanechnikov"
)

// Valid reports whether the kernel name is one this package implements.
func (k Kernel) Valid() bool {
	switch k {
	case KernelQuartic, KernelTriangular, KernelUniform, KernelEpanechnikov:
		return true
	}
	return false
}

// weight evaluates the kernel at normalized distance u in [0, 1].
// Values are relative; rendering normalizes by the grid maximum, so
// constant factors are omitted.
func (k Kernel) weight(u float64) float64 {
	switch k {
	case KernelTriangular:
		return 1 - u
	case KernelUniform:
		return 1
	case KernelEpanechnikov:
		return 1 - u*u
	default: // quartic
		d := 1 - u*u
		return d * d
	}
}

// Options configures rasterization.
type Options struct {
	// Radius is the kernel bandwidth in source coordinate units.
	Radius float64
	// PixelSize is the edge length of one raster cell in source
	// coordinate units.
	PixelSize float64
	Kernel    Kernel
}

// Grid is a rasterized density surface. Row 0 is the northernmost
// (maximum Y) row so the grid maps directly onto image space.
type Grid struct {
	MinX      float64
	MaxY      float64
	PixelSize float64
	Width     int
	Height    int
	Values    []float64
}

// At returns the density at a cell. Out-of-range cells read as zero.
func (g *Grid) At(col, row int) float64 {
	if col < 0 || col >= g.Width || row < 0 || row >= g.Height {
		return 0
	}
	return g.Values[row*g.Width+col]
}

// Max returns the largest density in the grid.
func (g *Grid) Max() float64 {
	var max float64
	for _, v := range g.Values {
		if v > max {
			max = v
		}
	}
	return max
}

// Rasterize runs kernel density estimation over the points. The raster
// extent is the point bounding box padded by the radius so no kernel is
// clipped.
func Rasterize(points []Point, opts Options) (*Grid, error) {
	if len(points) == 0 {
		return nil, ErrNoPoints
	}
	if opts.Radius <= 0 {
		return nil, eris.New("heatmap: radius must be positive")
	}
	if opts.PixelSize <= 0 {
		return nil, eris.New("heatmap: pixel size must be positive")
	}
	kernel := opts.Kernel
	if kernel == "" {
		kernel = KernelQuartic
	}
	if !kernel.Valid() {
		return nil, eris.Errorf("heatmap: unknown kernel %q", kernel)
	}

	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	minX -= opts.Radius
	minY -= opts.Radius
	maxX += opts.Radius
	maxY += opts.Radius

	width := int(math.Ceil((maxX-minX)/opts.PixelSize)) + 1
	height := int(math.Ceil((maxY-minY)/opts.PixelSize)) + 1
	if int64(width)*int64(height) > maxCells {
		return nil, eris.Errorf("heatmap: raster %dx%d exceeds cell limit; increase pixel size", width, height)
	}

	grid := &Grid{
		MinX:      minX,
		MaxY:      maxY,
		PixelSize: opts.PixelSize,
		Width:     width,
		Height:    height,
		Values:    make([]float64, width*height),
	}

	reach := int(math.Ceil(opts.Radius / opts.PixelSize))
	for _, p := range points {
		col := int((p.X - minX) / opts.PixelSize)
		row := int((maxY - p.Y) / opts.PixelSize)

		for r := row - reach; r <= row+reach; r++ {
			if r < 0 || r >= height {
				continue
			}
			cy := maxY - (float64(r)+0.5)*opts.PixelSize
			for c := col - reach; c <= col+reach; c++ {
				if c < 0 || c >= width {
					continue
				}
				cx := minX + (float64(c)+0.5)*opts.PixelSize
				d := math.Hypot(cx-p.X, cy-p.Y)
				if d > opts.Radius {
					continue
				}
				grid.Values[r*width+c] += kernel.weight(d / opts.Radius)
			}
		}
	}

	return grid, nil
}
