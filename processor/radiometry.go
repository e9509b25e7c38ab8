package processor

import (
	"math"
)

// amplitudeFloor keeps the logarithm defined on zero and near-zero amplitudes
const amplitudeFloor = 1e-5

// ToDecibel converts linear amplitude to decibels in place:
// 10*log10(max(v, 1e-5)). NaN pixels stay NaN.
func ToDecibel(band []float64) {
	for i, v := range band {
		if math.IsNaN(v) {
			continue
		}
		band[i] = 10 * math.Log10(math.Max(v, amplitudeFloor))
	}
}
