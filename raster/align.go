package raster

import (
	"context"
	"fmt"
	"strconv"

	"github.com/airbusgeo/godal"
)

// AlignmentError is returned when a band cannot be warped onto the reference
// band's grid. The caller drops the band and continues.
type AlignmentError struct {
	BandID string
	Err    error
}

func (e AlignmentError) Error() string {
	return fmt.Sprintf("align band %s: %v", e.BandID, e.Err)
}

func (e AlignmentError) Unwrap() error { return e.Err }

// AlignTo resamples g onto the exact CRS, extent and resolution of ref, so
// that the result can be stacked with ref pixel for pixel. resampling is a
// GDAL resampling name ("average", "near", ...).
func AlignTo(ctx context.Context, g, ref *Grid, resampling string) (*Grid, error) {
	srcCRS := g.CRS
	if srcCRS == "" {
		srcCRS = ref.CRS
	}
	src := g
	if srcCRS != g.CRS {
		src = g.Clone()
		src.CRS = srcCRS
	}
	ds, err := toDataset(src)
	if err != nil {
		return nil, fmt.Errorf("AlignTo.%w", err)
	}
	defer ds.Close()

	bounds := ref.Bounds()
	xres, yres := ref.Resolution()
	switches := []string{
		"-of", "MEM",
		"-t_srs", ref.CRS,
		"-te", ftoa(bounds[0]), ftoa(bounds[1]), ftoa(bounds[2]), ftoa(bounds[3]),
		"-tr", ftoa(xres), ftoa(yres),
		"-r", resampling,
		"-srcnodata", "nan",
		"-dstnodata", "nan",
	}
	warped, err := ds.Warp("", switches)
	if err != nil {
		return nil, fmt.Errorf("AlignTo.Warp: %w", err)
	}
	defer warped.Close()

	out, err := fromDataset(warped)
	if err != nil {
		return nil, fmt.Errorf("AlignTo.%w", err)
	}
	out.BandIDs = append([]string{}, g.BandIDs...)
	return out, nil
}

// Reproject warps the grid into targetCRS ("EPSG:<code>" or wkt), letting
// GDAL pick the output extent and resolution. Nearest-neighbour resampling
// keeps radiometry untouched.
func Reproject(ctx context.Context, g *Grid, targetCRS string) (*Grid, error) {
	ds, err := toDataset(g)
	if err != nil {
		return nil, fmt.Errorf("Reproject.%w", err)
	}
	defer ds.Close()

	switches := []string{
		"-of", "MEM",
		"-t_srs", targetCRS,
		"-r", "near",
		"-srcnodata", "nan",
		"-dstnodata", "nan",
	}
	warped, err := ds.Warp("", switches)
	if err != nil {
		return nil, fmt.Errorf("Reproject.Warp[%s]: %w", targetCRS, err)
	}
	defer warped.Close()

	out, err := fromDataset(warped)
	if err != nil {
		return nil, fmt.Errorf("Reproject.%w", err)
	}
	out.BandIDs = append([]string{}, g.BandIDs...)
	return out, nil
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
