package processor

import (
	"context"
	"errors"
	"fmt"

	"github.com/borderwatch/preprocessor/common"
	"github.com/borderwatch/preprocessor/raster"
	"github.com/borderwatch/preprocessor/roi"
	"github.com/borderwatch/preprocessor/service"
	"github.com/borderwatch/preprocessor/service/log"
	"go.uber.org/zap"
)

// referenceBandID anchors the optical stack grid (red band, native 10m)
const referenceBandID = "04"

// processOpticalGranule builds the analysis-ready optical stack of one
// granule: load the spectral bands, align them onto the reference band, mask
// clouds, clip to the region and write the result to localFile.
func (p *Processor) processOpticalGranule(ctx context.Context, region roi.ROI, granule common.Granule, localFile string) error {
	spectral := granule.SpectralBands()
	if len(spectral) == 0 {
		return service.MakeFatal(fmt.Errorf("processOpticalGranule: no spectral band"))
	}

	var ref *raster.Grid
	for _, band := range spectral {
		if band.ID == referenceBandID {
			g, err := raster.Load(band.Path)
			if err != nil {
				return fmt.Errorf("processOpticalGranule.%w", err)
			}
			g.BandIDs = []string{band.ID}
			ref = g
			break
		}
	}
	if ref == nil {
		return service.MakeFatal(fmt.Errorf("processOpticalGranule: reference band %s not found", referenceBandID))
	}
	if !ref.HasCRS() {
		log.Logger(ctx).Warn("reference band has no crs, assuming fallback", zap.String("crs", p.Config.OpticalFallbackCRS))
		ref.CRS = p.Config.OpticalFallbackCRS
	}

	// align the remaining bands onto the reference grid, dropping the ones
	// that fail
	aligned := []*raster.Grid{ref}
	for _, band := range spectral {
		if band.ID == referenceBandID {
			continue
		}
		g, err := raster.Load(band.Path)
		if err != nil {
			log.Logger(ctx).Sugar().Warnf("dropping band %s: %v", band.ID, err)
			continue
		}
		g.BandIDs = []string{band.ID}
		if !g.HasCRS() {
			g.CRS = ref.CRS
		}
		a, err := raster.AlignTo(ctx, g, ref, p.Config.Resampling)
		if err != nil {
			log.Logger(ctx).Sugar().Warnf("dropping band %s: %v", band.ID, raster.AlignmentError{BandID: band.ID, Err: err})
			continue
		}
		aligned = append(aligned, a)
	}

	stack, err := raster.Stack(aligned...)
	if err != nil {
		return service.MakeFatal(fmt.Errorf("processOpticalGranule.%w", err))
	}

	mask, err := DeriveCloudMask(ctx, granule, ref)
	if err != nil {
		log.Logger(ctx).Sugar().Warnf("no cloud mask: %v", err)
	}
	if mask != nil {
		ApplyMask(ctx, stack, mask)
	}

	clipped, err := p.clipToRegion(ctx, region, stack)
	if err != nil {
		return fmt.Errorf("processOpticalGranule.%w", err)
	}

	if err := raster.Write(clipped, localFile, p.Config.OpticalFallbackCRS); err != nil {
		return service.MakeTemporary(fmt.Errorf("processOpticalGranule.%w", err))
	}
	return nil
}

// clipToRegion clips the grid to the region, translating a disjoint
// footprint into a skip rather than a failure.
func (p *Processor) clipToRegion(ctx context.Context, region roi.ROI, g *raster.Grid) (*raster.Grid, error) {
	wkt, err := region.WKT()
	if err != nil {
		return nil, service.MakeFatal(fmt.Errorf("clipToRegion.%w", err))
	}
	clipped, err := raster.Clip(ctx, g, region.Name, wkt)
	if err != nil {
		var clipErr raster.ClipError
		if errors.As(err, &clipErr) {
			return nil, SkipError{Reason: clipErr.Error()}
		}
		return nil, fmt.Errorf("clipToRegion.%w", err)
	}
	return clipped, nil
}
