package processor

import (
	"context"
	"fmt"

	"github.com/borderwatch/preprocessor/common"
	"github.com/borderwatch/preprocessor/raster"
	"github.com/borderwatch/preprocessor/roi"
	"github.com/borderwatch/preprocessor/service"
	"github.com/borderwatch/preprocessor/service/log"
	"go.uber.org/zap"
)

// processRadarGranule builds the analysis-ready backscatter raster of one
// radar swath: load the amplitude, despeckle, reproject to the target CRS,
// convert to decibels, clip to the region and write the result to localFile.
func (p *Processor) processRadarGranule(ctx context.Context, region roi.ROI, granule common.Granule, localFile string) error {
	amplitude := granule.AmplitudeBands()
	if len(amplitude) == 0 {
		return service.MakeFatal(fmt.Errorf("processRadarGranule: no amplitude band"))
	}
	band := amplitude[0]
	if len(amplitude) > 1 {
		log.Logger(ctx).Sugar().Warnf("%d amplitude bands, keeping %s", len(amplitude), band.ID)
	}

	g, err := raster.Load(band.Path)
	if err != nil {
		return fmt.Errorf("processRadarGranule.%w", err)
	}
	if g.Bands > 1 {
		// multiband measurements carry duplicated amplitude, keep the first
		g = firstBand(g)
	}
	g.BandIDs = []string{band.ID}
	if !g.HasCRS() {
		log.Logger(ctx).Warn("amplitude band has no crs, assuming fallback", zap.String("crs", p.Config.RadarFallbackCRS))
		g.CRS = p.Config.RadarFallbackCRS
	}

	// despeckle on linear amplitude before any resampling
	SpeckleFilter(g.Band(0), g.Width, g.Height)

	reprojected, err := raster.Reproject(ctx, g, p.Config.RadarTargetCRS)
	if err != nil {
		return fmt.Errorf("processRadarGranule.%w", err)
	}

	ToDecibel(reprojected.Band(0))

	clipped, err := p.clipToRegion(ctx, region, reprojected)
	if err != nil {
		return fmt.Errorf("processRadarGranule.%w", err)
	}

	if err := raster.Write(clipped, localFile, p.Config.RadarFallbackCRS); err != nil {
		return service.MakeTemporary(fmt.Errorf("processRadarGranule.%w", err))
	}
	return nil
}

func firstBand(g *raster.Grid) *raster.Grid {
	out := &raster.Grid{
		Data:      append([]float64(nil), g.Band(0)...),
		Width:     g.Width,
		Height:    g.Height,
		Bands:     1,
		Transform: g.Transform,
		CRS:       g.CRS,
	}
	if len(g.BandIDs) > 0 {
		out.BandIDs = []string{g.BandIDs[0]}
	}
	return out
}
