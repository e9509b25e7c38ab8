package processor

import (
	"context"
	"fmt"
	"math"

	"github.com/borderwatch/preprocessor/common"
	"github.com/borderwatch/preprocessor/raster"
	"github.com/borderwatch/preprocessor/service/log"
)

// MaskError is returned when the quality band cannot be turned into a cloud
// mask. The granule continues unmasked.
type MaskError struct {
	BandID string
	Err    error
}

func (e MaskError) Error() string {
	return fmt.Sprintf("cloud mask from %s: %v", e.BandID, e.Err)
}

func (e MaskError) Unwrap() error { return e.Err }

// Invalid-pixel bits of the L1C QA60 bitfield: saturated/defective (10),
// cloud high confidence (11) and cirrus (14).
const qa60CloudBits = 1<<10 | 1<<11 | 1<<14

// scene classification codes counted as cloud: cloud shadow, cloud medium
// probability, cloud high probability and thin cirrus.
var sclCloudCodes = map[int]bool{3: true, 8: true, 9: true, 10: true}

// BitfieldCloudMask derives a boolean mask from a QA60-style bitfield band.
// True marks a cloudy pixel.
func BitfieldCloudMask(band []float64) []bool {
	mask := make([]bool, len(band))
	for i, v := range band {
		if math.IsNaN(v) {
			continue
		}
		mask[i] = int64(v)&qa60CloudBits != 0
	}
	return mask
}

// ClassificationCloudMask derives a boolean mask from a scene classification
// band. True marks a cloudy pixel.
func ClassificationCloudMask(band []float64) []bool {
	mask := make([]bool, len(band))
	for i, v := range band {
		if math.IsNaN(v) {
			continue
		}
		mask[i] = sclCloudCodes[int(v)]
	}
	return mask
}

// DeriveCloudMask loads the granule's quality band, aligns it onto the
// reference grid and decodes it according to its role. A nil mask with a nil
// error means the granule has no quality band.
func DeriveCloudMask(ctx context.Context, granule common.Granule, ref *raster.Grid) ([]bool, error) {
	quality, ok := granule.QualityBand()
	if !ok {
		return nil, nil
	}
	g, err := raster.Load(quality.Path)
	if err != nil {
		return nil, MaskError{quality.ID, err}
	}
	if !g.HasCRS() {
		g.CRS = ref.CRS
	}
	// the quality band is categorical, nearest keeps the codes intact
	aligned, err := raster.AlignTo(ctx, g, ref, "near")
	if err != nil {
		return nil, MaskError{quality.ID, err}
	}
	switch quality.Role {
	case common.QualityBitfield:
		return BitfieldCloudMask(aligned.Band(0)), nil
	case common.QualityClassification:
		return ClassificationCloudMask(aligned.Band(0)), nil
	}
	return nil, MaskError{quality.ID, fmt.Errorf("unsupported quality role %s", quality.Role)}
}

// ApplyMask sets every masked pixel to NaN in all bands of the grid.
func ApplyMask(ctx context.Context, g *raster.Grid, mask []bool) {
	if len(mask) != g.Width*g.Height {
		log.Logger(ctx).Sugar().Warnf("mask shape mismatch (%d pixels vs %d), skipping", len(mask), g.Width*g.Height)
		return
	}
	for b := 0; b < g.Bands; b++ {
		band := g.Band(b)
		for i, masked := range mask {
			if masked {
				band[i] = math.NaN()
			}
		}
	}
}
