package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/borderwatch/preprocessor/catalog"
	"github.com/borderwatch/preprocessor/common"
	"github.com/borderwatch/preprocessor/processor"
	"github.com/borderwatch/preprocessor/raster"
	"github.com/borderwatch/preprocessor/roi"
	"github.com/borderwatch/preprocessor/service"
	"github.com/borderwatch/preprocessor/service/log"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type config struct {
	DataRoot   string
	StorageURI string
	ROIFile    string
	WorkingDir string

	Collections string
	Since       string
	Until       string
	Jobs        int

	Resolution float64
	Resampling string
}

func newAppConfig() (*config, error) {
	config := config{}
	// Global config
	flag.StringVar(&config.DataRoot, "data-root", "", "root directory of the downloaded products (<data-root>/<roi>/<collection>/...)")
	flag.StringVar(&config.StorageURI, "storage-uri", "", "storage uri for the preprocessed rasters (currently supported: local, gs)")
	flag.StringVar(&config.ROIFile, "roi-file", "", "geojson file describing the regions of interest")
	flag.StringVar(&config.WorkingDir, "workdir", "/local-ssd", "working directory to store intermediate results")

	// Selection
	flag.StringVar(&config.Collections, "collections", "sentinel-2,sentinel-1", "comma-separated collections to preprocess")
	flag.StringVar(&config.Since, "since", "", "only preprocess products sensed after this date (any usual format)")
	flag.StringVar(&config.Until, "until", "", "only preprocess products sensed before this date (any usual format)")
	flag.IntVar(&config.Jobs, "jobs", 4, "number of granules preprocessed in parallel")

	// Preprocessing
	flag.Float64Var(&config.Resolution, "resolution", 10, "resolution of the optical stacks (in the unit of the granule crs)")
	flag.StringVar(&config.Resampling, "resampling", "average", "resampling used to align optical bands")
	flag.Parse()

	if config.DataRoot == "" {
		return nil, fmt.Errorf("missing data-root config flag")
	}
	if config.StorageURI == "" {
		return nil, fmt.Errorf("missing storage-uri config flag")
	}
	if config.ROIFile == "" {
		return nil, fmt.Errorf("missing roi-file config flag")
	}
	if config.Jobs < 1 {
		return nil, fmt.Errorf("wrong jobs config flag")
	}
	return &config, nil
}

func main() {
	ctx := context.Background()
	err := run(ctx)
	if err != nil {
		log.Fatal("error", zap.Error(err))
	}
}

func run(ctx context.Context) error {
	config, err := newAppConfig()
	if err != nil {
		return err
	}

	var since, until time.Time
	if config.Since != "" {
		if since, err = dateparse.ParseAny(config.Since); err != nil {
			return fmt.Errorf("since[%s]: %w", config.Since, err)
		}
	}
	if config.Until != "" {
		if until, err = dateparse.ParseAny(config.Until); err != nil {
			return fmt.Errorf("until[%s]: %w", config.Until, err)
		}
	}

	var constellations []common.Constellation
	for _, name := range strings.Split(config.Collections, ",") {
		constellation := common.GetConstellationFromString(strings.TrimSpace(name))
		if constellation == common.Unknown {
			return fmt.Errorf("unknown collection %s", name)
		}
		constellations = append(constellations, constellation)
	}

	regions, err := roi.Load(config.ROIFile)
	if err != nil {
		return fmt.Errorf("roi[%s].%w", config.ROIFile, err)
	}

	storageService, err := service.NewStorageStrategy(ctx, config.StorageURI)
	if err != nil {
		return fmt.Errorf("storage[%s].%w", config.StorageURI, err)
	}

	raster.Register()

	processorConfig := processor.DefaultConfig()
	processorConfig.TargetResolution = config.Resolution
	processorConfig.Resampling = config.Resampling
	processorConfig.Workdir = config.WorkingDir
	p := processor.NewProcessor(processorConfig, storageService)

	var results []common.Result
	for _, region := range regions {
		for _, constellation := range constellations {
			res, err := processCollection(ctx, p, config.DataRoot, region, constellation, since, until, config.Jobs)
			if err != nil {
				return fmt.Errorf("preprocess %s/%s: %w", region.Name, constellation.CollectionName(), err)
			}
			results = append(results, res...)
		}
	}

	done, skipped, failed := 0, 0, 0
	for _, res := range results {
		switch res.Status {
		case common.StatusDONE:
			done++
		case common.StatusSKIPPED:
			skipped++
		case common.StatusFAILED:
			failed++
			log.Logger(ctx).Warn("granule failed", zap.String("granule", res.Granule.GranuleID), zap.String("message", res.Message))
		}
	}
	log.Logger(ctx).Sugar().Infof("preprocessing finished: %d processed, %d skipped, %d failed", done, skipped, failed)
	if failed > 0 {
		return fmt.Errorf("%d granules failed", failed)
	}
	return nil
}

// processCollection preprocesses every granule of one region/collection pair,
// config.Jobs granules at a time.
func processCollection(ctx context.Context, p *processor.Processor, dataRoot string, region roi.ROI, constellation common.Constellation, since, until time.Time, jobs int) ([]common.Result, error) {
	ctx = log.With(ctx, "roi", region.Name, "collection", constellation.CollectionName())

	granules, err := catalog.Discover(ctx, dataRoot, region.Name, constellation)
	if err != nil {
		var noData catalog.ErrNoData
		if errors.As(err, &noData) {
			log.Logger(ctx).Warn("no data", zap.Error(err))
			return nil, nil
		}
		return nil, fmt.Errorf("processCollection.%w", err)
	}

	keys := make([]common.GranuleKey, 0, len(granules))
	for key := range granules {
		if !inDateRange(ctx, key.ProductID, since, until) {
			continue
		}
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ProductID != keys[j].ProductID {
			return keys[i].ProductID < keys[j].ProductID
		}
		return keys[i].GranuleID < keys[j].GranuleID
	})
	log.Logger(ctx).Sugar().Infof("%d granules to preprocess", len(keys))

	results := make([]common.Result, len(keys))
	wg, ctx := errgroup.WithContext(ctx)
	wg.SetLimit(jobs)
	for i, key := range keys {
		i, key := i, key
		wg.Go(func() error {
			granule := common.Granule{Key: key, Bands: granules[key]}
			results[i] = p.ProcessGranule(ctx, region, constellation, granule)
			return nil
		})
	}
	if err := wg.Wait(); err != nil {
		return nil, fmt.Errorf("processCollection.%w", err)
	}
	return results, nil
}

func inDateRange(ctx context.Context, productID string, since, until time.Time) bool {
	if since.IsZero() && until.IsZero() {
		return true
	}
	date, err := common.GetDateFromProductId(productID)
	if err != nil {
		log.Logger(ctx).Sugar().Warnf("undated product %s kept: %v", productID, err)
		return true
	}
	if !since.IsZero() && date.Before(since) {
		return false
	}
	if !until.IsZero() && date.After(until) {
		return false
	}
	return true
}
