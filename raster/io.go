package raster

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/airbusgeo/godal"
)

// Register loads the GDAL drivers. It must be called once before any raster IO.
func Register() {
	godal.RegisterAll()
}

// BandLoadError is returned when a raster file cannot be opened or read.
// The band is dropped; the granule continues if other bands remain.
type BandLoadError struct {
	Path string
	Err  error
}

func (e BandLoadError) Error() string {
	return fmt.Sprintf("load band %s: %v", e.Path, e.Err)
}

func (e BandLoadError) Unwrap() error { return e.Err }

// Load reads a raster file into a Grid, remapping the source nodata to NaN
func Load(path string) (*Grid, error) {
	ds, err := godal.Open(path)
	if err != nil {
		return nil, BandLoadError{path, err}
	}
	defer ds.Close()
	g, err := fromDataset(ds)
	if err != nil {
		return nil, BandLoadError{path, err}
	}
	return g, nil
}

// Write persists the grid as a GeoTIFF (Float32, LZW). A grid without a CRS is
// written with fallbackCRS instead of failing.
func Write(g *Grid, path string, fallbackCRS string) error {
	crs := g.CRS
	if crs == "" {
		crs = fallbackCRS
	}

	if err := os.MkdirAll(filepath.Dir(path), 0766); err != nil {
		return fmt.Errorf("Write.MkdirAll: %w", err)
	}
	ds, err := godal.Create(godal.GTiff, path, g.Bands, godal.Float32, g.Width, g.Height,
		godal.CreationOption("COMPRESS=LZW", "TILED=YES"))
	if err != nil {
		return fmt.Errorf("Write.Create: %w", err)
	}
	defer ds.Close()

	if err := ds.SetGeoTransform(g.Transform); err != nil {
		return fmt.Errorf("Write.SetGeoTransform: %w", err)
	}
	if crs != "" {
		wkt, err := toWKT(crs)
		if err != nil {
			return fmt.Errorf("Write.%w", err)
		}
		if err := ds.SetProjection(wkt); err != nil {
			return fmt.Errorf("Write.SetProjection: %w", err)
		}
	}
	for i, band := range ds.Bands() {
		if err := band.SetNoData(math.NaN()); err != nil {
			return fmt.Errorf("Write.SetNoData: %w", err)
		}
		if err := band.Write(0, 0, g.Band(i), g.Width, g.Height); err != nil {
			return fmt.Errorf("Write.Band[%d]: %w", i, err)
		}
	}
	return nil
}

// toDataset copies the grid into an in-memory GDAL dataset
func toDataset(g *Grid) (*godal.Dataset, error) {
	ds, err := godal.Create(godal.Memory, "", g.Bands, godal.Float64, g.Width, g.Height)
	if err != nil {
		return nil, fmt.Errorf("toDataset.Create: %w", err)
	}
	if err := ds.SetGeoTransform(g.Transform); err != nil {
		ds.Close()
		return nil, fmt.Errorf("toDataset.SetGeoTransform: %w", err)
	}
	if g.CRS != "" {
		wkt, err := toWKT(g.CRS)
		if err != nil {
			ds.Close()
			return nil, fmt.Errorf("toDataset.%w", err)
		}
		if err := ds.SetProjection(wkt); err != nil {
			ds.Close()
			return nil, fmt.Errorf("toDataset.SetProjection: %w", err)
		}
	}
	for i, band := range ds.Bands() {
		if err := band.SetNoData(math.NaN()); err != nil {
			ds.Close()
			return nil, fmt.Errorf("toDataset.SetNoData: %w", err)
		}
		if err := band.Write(0, 0, g.Band(i), g.Width, g.Height); err != nil {
			ds.Close()
			return nil, fmt.Errorf("toDataset.Band[%d]: %w", i, err)
		}
	}
	return ds, nil
}

// fromDataset reads a GDAL dataset into a Grid, remapping nodata to NaN
func fromDataset(ds *godal.Dataset) (*Grid, error) {
	st := ds.Structure()
	gt, err := ds.GeoTransform()
	if err != nil {
		// a raster without georeferencing keeps the identity transform
		gt = [6]float64{0, 1, 0, 0, 0, -1}
	}
	g := &Grid{
		Data:      make([]float64, st.NBands*st.SizeX*st.SizeY),
		Width:     st.SizeX,
		Height:    st.SizeY,
		Bands:     st.NBands,
		BandIDs:   make([]string, st.NBands),
		Transform: gt,
		CRS:       ds.Projection(),
	}
	for i, band := range ds.Bands() {
		buf := g.Band(i)
		if err := band.Read(0, 0, buf, g.Width, g.Height); err != nil {
			return nil, fmt.Errorf("fromDataset.Band[%d]: %w", i, err)
		}
		if nodata, ok := band.NoData(); ok && !math.IsNaN(nodata) {
			for j, v := range buf {
				if v == nodata {
					buf[j] = math.NaN()
				}
			}
		}
	}
	return g, nil
}

// spatialRef resolves a CRS given as "EPSG:<code>" or wkt.
// The caller owns the returned ref and must Close it.
func spatialRef(crs string) (*godal.SpatialRef, error) {
	if code, ok := strings.CutPrefix(crs, "EPSG:"); ok {
		epsg, err := strconv.Atoi(code)
		if err != nil {
			return nil, fmt.Errorf("spatialRef: invalid epsg code %s", crs)
		}
		sr, err := godal.NewSpatialRefFromEPSG(epsg)
		if err != nil {
			return nil, fmt.Errorf("spatialRef[%s]: %w", crs, err)
		}
		return sr, nil
	}
	sr, err := godal.NewSpatialRefFromWKT(crs)
	if err != nil {
		return nil, fmt.Errorf("spatialRef[%s]: %w", crs, err)
	}
	return sr, nil
}

// toWKT resolves a CRS given as "EPSG:<code>" or wkt into wkt
func toWKT(crs string) (string, error) {
	sr, err := spatialRef(crs)
	if err != nil {
		return "", fmt.Errorf("toWKT.%w", err)
	}
	defer sr.Close()
	wkt, err := sr.WKT()
	if err != nil {
		return "", fmt.Errorf("toWKT.WKT: %w", err)
	}
	return wkt, nil
}
