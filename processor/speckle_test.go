package processor

import (
	"math"
	"math/rand"
	"testing"
)

func TestSpeckleFilterConstant(t *testing.T) {
	band := make([]float64, 16)
	for i := range band {
		band[i] = 5
	}
	SpeckleFilter(band, 4, 4)
	for i, v := range band {
		if v != 5 {
			t.Errorf("pixel %d: constant image changed: %f", i, v)
		}
	}
}

func TestSpeckleFilterKeepsNaN(t *testing.T) {
	band := []float64{1, 2, math.NaN(), 4, 5, 6, 7, 8, 9}
	SpeckleFilter(band, 3, 3)
	if !math.IsNaN(band[2]) {
		t.Error("nodata pixel was filled")
	}
	for i, v := range band {
		if i != 2 && math.IsNaN(v) {
			t.Errorf("pixel %d: valid pixel became nodata", i)
		}
	}
}

func TestSpeckleFilterSmoothes(t *testing.T) {
	const w, h = 16, 16
	rng := rand.New(rand.NewSource(42))
	band := make([]float64, w*h)
	for i := range band {
		band[i] = 100 + 20*rng.Float64()
	}
	variance0 := variance(band)
	SpeckleFilter(band, w, h)
	if v := variance(band); v >= variance0 {
		t.Errorf("filter did not reduce variance: %f >= %f", v, variance0)
	}
	for i, v := range band {
		if v < 100-1e-6 || v > 120+1e-6 {
			t.Errorf("pixel %d: out of the input range: %f", i, v)
		}
	}
}

func TestToDecibel(t *testing.T) {
	band := []float64{100, 1, 0, math.NaN()}
	ToDecibel(band)
	if band[0] != 20 || band[1] != 0 {
		t.Errorf("wrong conversion: %v", band)
	}
	if band[2] != -50 {
		t.Errorf("zero amplitude must clamp to the floor: %f", band[2])
	}
	if !math.IsNaN(band[3]) {
		t.Error("nodata pixel was converted")
	}
}

func TestToDecibelMonotonic(t *testing.T) {
	band := []float64{1e-5, 1e-3, 0.1, 5, 100}
	expected := 10 * math.Log10(5)
	ToDecibel(band)
	for i := 1; i < len(band); i++ {
		if band[i] <= band[i-1] {
			t.Errorf("not monotonic at %d: %f <= %f", i, band[i], band[i-1])
		}
	}
	if math.Abs(band[3]-expected) > 1e-12 {
		t.Errorf("wrong value for amplitude 5: %f, expected %f", band[3], expected)
	}
}

func variance(band []float64) float64 {
	var mean float64
	for _, v := range band {
		mean += v
	}
	mean /= float64(len(band))
	var sum float64
	for _, v := range band {
		sum += (v - mean) * (v - mean)
	}
	return sum / float64(len(band))
}
