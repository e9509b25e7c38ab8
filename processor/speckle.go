package processor

import (
	"math"
)

// Non-local means parameters tuned for GRD speckle. The filter runs on
// amplitude rescaled to [0,1], then the original range is restored.
const (
	nlmPatchSize     = 5
	nlmPatchDistance = 6
	nlmH             = 0.1
)

// SpeckleFilter despeckles a single-band amplitude image in place using
// non-local means. NaN pixels are left untouched. A constant image (or an
// all-NaN one) is returned unchanged.
func SpeckleFilter(band []float64, width, height int) {
	min, max := math.Inf(1), math.Inf(-1)
	for _, v := range band {
		if math.IsNaN(v) {
			continue
		}
		min = math.Min(min, v)
		max = math.Max(max, v)
	}
	if min >= max {
		return
	}

	scaled := make([]float64, len(band))
	for i, v := range band {
		if math.IsNaN(v) {
			scaled[i] = math.NaN()
		} else {
			scaled[i] = (v - min) / (max - min)
		}
	}

	filtered := nlMeans(scaled, width, height)

	for i, v := range filtered {
		if !math.IsNaN(band[i]) {
			band[i] = v*(max-min) + min
		}
	}
}

// nlMeans is a direct non-local means on a [0,1]-scaled image: every pixel is
// replaced by a patch-similarity weighted average of the pixels in its search
// window. NaNs propagate to NaN.
func nlMeans(img []float64, width, height int) []float64 {
	out := make([]float64, len(img))
	half := nlmPatchSize / 2
	h2 := nlmH * nlmH * float64(nlmPatchSize*nlmPatchSize)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if math.IsNaN(img[y*width+x]) {
				out[y*width+x] = math.NaN()
				continue
			}
			var sum, weights float64
			for dy := -nlmPatchDistance; dy <= nlmPatchDistance; dy++ {
				for dx := -nlmPatchDistance; dx <= nlmPatchDistance; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || nx >= width || ny < 0 || ny >= height {
						continue
					}
					v := img[ny*width+nx]
					if math.IsNaN(v) {
						continue
					}
					d2 := patchDistance(img, width, height, x, y, nx, ny, half)
					w := math.Exp(-d2 / h2)
					sum += w * v
					weights += w
				}
			}
			if weights > 0 {
				out[y*width+x] = sum / weights
			} else {
				out[y*width+x] = img[y*width+x]
			}
		}
	}
	return out
}

// patchDistance returns the squared euclidean distance between the patches
// centered on (x1,y1) and (x2,y2), clamping patch pixels to the image and
// skipping NaNs.
func patchDistance(img []float64, width, height, x1, y1, x2, y2, half int) float64 {
	var d2 float64
	for py := -half; py <= half; py++ {
		for px := -half; px <= half; px++ {
			ax, ay := clamp(x1+px, width), clamp(y1+py, height)
			bx, by := clamp(x2+px, width), clamp(y2+py, height)
			a, b := img[ay*width+ax], img[by*width+bx]
			if math.IsNaN(a) || math.IsNaN(b) {
				continue
			}
			d := a - b
			d2 += d * d
		}
	}
	return d2
}

func clamp(v, n int) int {
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}
