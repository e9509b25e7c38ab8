package raster

import (
	"fmt"
	"math"
)

// Grid is an in-memory raster: band-major float64 pixels with an attached
// spatial reference and an affine geotransform. Nodata is always NaN; sources
// with another sentinel are remapped on load.
type Grid struct {
	Data    []float64 // len = Bands*Width*Height, band-major
	Width   int
	Height  int
	Bands   int
	BandIDs []string // one id per band ("" when unknown)

	// Transform is the affine geotransform
	// (origin x, x resolution, 0, origin y, 0, negative y resolution)
	Transform [6]float64
	// CRS is the spatial reference in WKT. Empty when the source carries none:
	// the caller must assign a fallback before any spatial operation.
	CRS string
}

// New allocates a grid of the given shape with all pixels nodata
func New(width, height, bands int) *Grid {
	g := &Grid{
		Data:    make([]float64, bands*width*height),
		Width:   width,
		Height:  height,
		Bands:   bands,
		BandIDs: make([]string, bands),
	}
	for i := range g.Data {
		g.Data[i] = math.NaN()
	}
	return g
}

// Band returns the pixels of band i (a view, not a copy)
func (g *Grid) Band(i int) []float64 {
	return g.Data[i*g.Width*g.Height : (i+1)*g.Width*g.Height]
}

func (g *Grid) At(band, x, y int) float64 {
	return g.Data[band*g.Width*g.Height+y*g.Width+x]
}

func (g *Grid) Set(band, x, y int, v float64) {
	g.Data[band*g.Width*g.Height+y*g.Width+x] = v
}

// HasCRS returns whether a spatial reference is attached
func (g *Grid) HasCRS() bool {
	return g.CRS != ""
}

// Resolution returns the pixel size (positive values)
func (g *Grid) Resolution() (xres, yres float64) {
	return math.Abs(g.Transform[1]), math.Abs(g.Transform[5])
}

// Bounds returns the extent as [minx, miny, maxx, maxy] in the grid's CRS
func (g *Grid) Bounds() [4]float64 {
	x0, y0 := g.Transform[0], g.Transform[3]
	x1 := x0 + float64(g.Width)*g.Transform[1]
	y1 := y0 + float64(g.Height)*g.Transform[5]
	return [4]float64{math.Min(x0, x1), math.Min(y0, y1), math.Max(x0, x1), math.Max(y0, y1)}
}

// BoundsWKT returns the extent as a polygon wkt
func (g *Grid) BoundsWKT() string {
	b := g.Bounds()
	return fmt.Sprintf("POLYGON ((%g %g, %g %g, %g %g, %g %g, %g %g))",
		b[0], b[1], b[2], b[1], b[2], b[3], b[0], b[3], b[0], b[1])
}

// Clone returns a deep copy of the grid
func (g *Grid) Clone() *Grid {
	c := *g
	c.Data = append([]float64(nil), g.Data...)
	c.BandIDs = append([]string(nil), g.BandIDs...)
	return &c
}

// MinMax returns the valid range of the grid. ok is false when every pixel is nodata.
func (g *Grid) MinMax() (min, max float64, ok bool) {
	min, max = math.Inf(1), math.Inf(-1)
	for _, v := range g.Data {
		if math.IsNaN(v) {
			continue
		}
		ok = true
		min = math.Min(min, v)
		max = math.Max(max, v)
	}
	return min, max, ok
}

// Stack combines aligned single-band grids into one multi-band grid.
// Every input must share the shape, transform and CRS of the first one.
func Stack(grids ...*Grid) (*Grid, error) {
	if len(grids) == 0 {
		return nil, fmt.Errorf("Stack: no band to stack")
	}
	ref := grids[0]
	nbands := 0
	for _, g := range grids {
		if g.Width != ref.Width || g.Height != ref.Height {
			return nil, fmt.Errorf("Stack: shape mismatch (%dx%d vs %dx%d)", g.Width, g.Height, ref.Width, ref.Height)
		}
		if g.Transform != ref.Transform || g.CRS != ref.CRS {
			return nil, fmt.Errorf("Stack: grids are not co-registered")
		}
		nbands += g.Bands
	}

	stacked := &Grid{
		Data:      make([]float64, 0, nbands*ref.Width*ref.Height),
		Width:     ref.Width,
		Height:    ref.Height,
		Bands:     nbands,
		Transform: ref.Transform,
		CRS:       ref.CRS,
	}
	for _, g := range grids {
		stacked.Data = append(stacked.Data, g.Data...)
		stacked.BandIDs = append(stacked.BandIDs, g.BandIDs...)
	}
	return stacked, nil
}
