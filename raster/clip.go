package raster

import (
	"context"
	"fmt"
	"math"

	"github.com/airbusgeo/godal"
	"github.com/borderwatch/preprocessor/service/geometry"
)

// ClipError is returned when the region of interest does not intersect the
// raster footprint. The granule is skipped, not failed.
type ClipError struct {
	ROI string
}

func (e ClipError) Error() string {
	return fmt.Sprintf("region %s does not intersect the raster footprint", e.ROI)
}

// Clip crops the grid to the bounding box of the region and burns NaN outside
// the region polygon. roiWKT is a (multi)polygon in geographic coordinates
// (EPSG:4326); it is reprojected into the grid CRS before clipping.
func Clip(ctx context.Context, g *Grid, roiName, roiWKT string) (*Grid, error) {
	if g.CRS == "" {
		return nil, fmt.Errorf("Clip: grid has no crs")
	}

	geogSR, err := godal.NewSpatialRefFromEPSG(4326)
	if err != nil {
		return nil, fmt.Errorf("Clip.NewSpatialRefFromEPSG: %w", err)
	}
	defer geogSR.Close()
	roiGeom, err := godal.NewGeometryFromWKT(roiWKT, geogSR)
	if err != nil {
		return nil, fmt.Errorf("Clip.NewGeometryFromWKT: %w", err)
	}
	defer roiGeom.Close()

	gridSR, err := spatialRef(g.CRS)
	if err != nil {
		return nil, fmt.Errorf("Clip.%w", err)
	}
	defer gridSR.Close()
	if err := roiGeom.Reproject(gridSR); err != nil {
		return nil, fmt.Errorf("Clip.Reproject: %w", err)
	}
	projWKT, err := roiGeom.WKT()
	if err != nil {
		return nil, fmt.Errorf("Clip.WKT: %w", err)
	}

	intersects, err := geometry.WKTIntersects(g.BoundsWKT(), projWKT)
	if err != nil {
		return nil, fmt.Errorf("Clip.%w", err)
	}
	if !intersects {
		return nil, ClipError{roiName}
	}

	ds, err := toDataset(g)
	if err != nil {
		return nil, fmt.Errorf("Clip.%w", err)
	}
	defer ds.Close()

	bounds, err := roiGeom.Bounds()
	if err != nil {
		return nil, fmt.Errorf("Clip.Bounds: %w", err)
	}
	// the crop window never grows past the raster footprint
	gb := g.Bounds()
	bounds[0] = math.Max(bounds[0], gb[0])
	bounds[1] = math.Max(bounds[1], gb[1])
	bounds[2] = math.Min(bounds[2], gb[2])
	bounds[3] = math.Min(bounds[3], gb[3])
	xres, yres := g.Resolution()
	switches := []string{
		"-of", "MEM",
		"-te", ftoa(bounds[0]), ftoa(bounds[1]), ftoa(bounds[2]), ftoa(bounds[3]),
		"-tr", ftoa(xres), ftoa(yres),
		"-r", "near",
		"-srcnodata", "nan",
		"-dstnodata", "nan",
	}
	cropped, err := ds.Warp("", switches)
	if err != nil {
		return nil, fmt.Errorf("Clip.Warp: %w", err)
	}
	defer cropped.Close()

	// burn NaN outside the polygon
	nans := make([]float64, cropped.Structure().NBands)
	for i := range nans {
		nans[i] = math.NaN()
	}
	if err := cropped.RasterizeGeometry(roiGeom, godal.Values(nans...), godal.Inverse()); err != nil {
		return nil, fmt.Errorf("Clip.RasterizeGeometry: %w", err)
	}

	out, err := fromDataset(cropped)
	if err != nil {
		return nil, fmt.Errorf("Clip.%w", err)
	}
	out.BandIDs = append([]string{}, g.BandIDs...)
	return out, nil
}
