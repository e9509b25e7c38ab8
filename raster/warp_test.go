package raster

import (
	"context"
	"errors"
	"math"
	"os"
	"testing"

	"github.com/airbusgeo/godal"
)

func TestMain(m *testing.M) {
	godal.RegisterAll()
	os.Exit(m.Run())
}

// a UTM 43N grid of ~80x80m around 36.1N 75.0E
func newUTMGrid(fill float64) *Grid {
	g := New(8, 8, 1)
	for i := range g.Data {
		g.Data[i] = fill
	}
	g.Transform = [6]float64{500000, 10, 0, 4000000, 0, -10}
	g.CRS = "EPSG:32643"
	g.BandIDs = []string{"04"}
	return g
}

func TestAlignToSelf(t *testing.T) {
	g := newUTMGrid(0)
	for i := range g.Data {
		g.Data[i] = float64(i)
	}
	aligned, err := AlignTo(context.Background(), g, g, "near")
	if err != nil {
		t.Fatal(err)
	}
	if aligned.Width != g.Width || aligned.Height != g.Height {
		t.Fatalf("wrong shape: %dx%d", aligned.Width, aligned.Height)
	}
	for i, v := range aligned.Data {
		if math.Abs(v-g.Data[i]) > 1e-9 {
			t.Fatalf("pixel %d changed: %f != %f", i, v, g.Data[i])
		}
	}
}

func TestAlignToFinerResolution(t *testing.T) {
	coarse := New(4, 4, 1)
	for i := range coarse.Data {
		coarse.Data[i] = 3
	}
	coarse.Transform = [6]float64{500000, 20, 0, 4000000, 0, -20}
	coarse.CRS = "EPSG:32643"
	coarse.BandIDs = []string{"11"}

	ref := newUTMGrid(0)
	aligned, err := AlignTo(context.Background(), coarse, ref, "average")
	if err != nil {
		t.Fatal(err)
	}
	if aligned.Width != ref.Width || aligned.Height != ref.Height {
		t.Fatalf("wrong shape: %dx%d", aligned.Width, aligned.Height)
	}
	for i, v := range aligned.Data {
		if math.Abs(v-3) > 1e-9 {
			t.Fatalf("pixel %d: uniform value not preserved: %f", i, v)
		}
	}
}

func TestClipCoveringRegion(t *testing.T) {
	g := newUTMGrid(7)
	roiWKT := "POLYGON ((74 35, 76 35, 76 37, 74 37, 74 35))"
	clipped, err := Clip(context.Background(), g, "test_roi", roiWKT)
	if err != nil {
		t.Fatal(err)
	}
	valid := 0
	for _, v := range clipped.Data {
		if math.IsNaN(v) {
			continue
		}
		valid++
		if v != 7 {
			t.Fatalf("a valid pixel changed: %f", v)
		}
	}
	if valid == 0 {
		t.Fatal("a fully covered grid lost all its pixels")
	}
}

func TestClipDisjointRegion(t *testing.T) {
	g := newUTMGrid(7)
	roiWKT := "POLYGON ((10 50, 10.1 50, 10.1 50.1, 10 50.1, 10 50))"
	_, err := Clip(context.Background(), g, "elsewhere", roiWKT)
	var clipErr ClipError
	if !errors.As(err, &clipErr) {
		t.Fatalf("expected a ClipError, got %v", err)
	}
	if clipErr.ROI != "elsewhere" {
		t.Errorf("wrong region in the error: %s", clipErr.ROI)
	}
}

func TestWriteFallbackCRS(t *testing.T) {
	g := newUTMGrid(1)
	g.CRS = ""
	dir, err := os.MkdirTemp("", "raster")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	path := dir + "/sub/out.tif"
	if err := Write(g, path, "EPSG:32643"); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !loaded.HasCRS() {
		t.Error("fallback crs was not written")
	}
	if loaded.Width != 8 || loaded.Height != 8 || loaded.Bands != 1 {
		t.Errorf("wrong shape: %dx%dx%d", loaded.Width, loaded.Height, loaded.Bands)
	}
	if loaded.At(0, 3, 3) != 1 {
		t.Errorf("wrong value: %f", loaded.At(0, 3, 3))
	}
}
