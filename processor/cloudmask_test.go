package processor

import (
	"context"
	"math"
	"testing"

	"github.com/borderwatch/preprocessor/raster"
)

func TestBitfieldCloudMask(t *testing.T) {
	band := []float64{0, 1 << 10, 1 << 11, 1 << 14, 1 << 12, 1<<10 | 1<<11, math.NaN()}
	expected := []bool{false, true, true, true, false, true, false}
	mask := BitfieldCloudMask(band)
	for i, m := range mask {
		if m != expected[i] {
			t.Errorf("pixel %d: got %v, expected %v", i, m, expected[i])
		}
	}
}

func TestClassificationCloudMask(t *testing.T) {
	band := []float64{0, 3, 4, 8, 9, 10, 11, math.NaN()}
	expected := []bool{false, true, false, true, true, true, false, false}
	mask := ClassificationCloudMask(band)
	for i, m := range mask {
		if m != expected[i] {
			t.Errorf("pixel %d: got %v, expected %v", i, m, expected[i])
		}
	}
}

func TestApplyMask(t *testing.T) {
	g := raster.New(2, 2, 2)
	for i := range g.Data {
		g.Data[i] = 1
	}
	ApplyMask(context.Background(), g, []bool{true, false, false, true})
	for b := 0; b < 2; b++ {
		band := g.Band(b)
		if !math.IsNaN(band[0]) || band[1] != 1 || band[2] != 1 || !math.IsNaN(band[3]) {
			t.Errorf("band %d: wrong masking: %v", b, band)
		}
	}
}

func TestMaskCloudyPixelAcrossBands(t *testing.T) {
	qa60 := []float64{0, 0, 1 << 10, 0}
	g := raster.New(2, 2, 3)
	for i := range g.Data {
		g.Data[i] = 0.5
	}
	ApplyMask(context.Background(), g, BitfieldCloudMask(qa60))
	for b := 0; b < 3; b++ {
		band := g.Band(b)
		for i, v := range band {
			if i == 2 && !math.IsNaN(v) {
				t.Errorf("band %d: cloudy pixel kept", b)
			}
			if i != 2 && math.IsNaN(v) {
				t.Errorf("band %d pixel %d: clear pixel masked", b, i)
			}
		}
	}
}

func TestApplyMaskShapeMismatch(t *testing.T) {
	g := raster.New(2, 2, 1)
	g.Set(0, 0, 0, 1)
	ApplyMask(context.Background(), g, []bool{true})
	if g.At(0, 0, 0) != 1 {
		t.Error("a mismatched mask must leave the grid untouched")
	}
}
