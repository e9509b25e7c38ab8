package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/borderwatch/preprocessor/common"
	"github.com/borderwatch/preprocessor/roi"
	"github.com/borderwatch/preprocessor/service"
	"github.com/borderwatch/preprocessor/service/log"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Config tunes the preprocessing of both collections.
type Config struct {
	// TargetResolution is the optical stacking resolution in the unit of the
	// reference band CRS (meters for UTM granules)
	TargetResolution float64
	// Resampling used when aligning optical bands onto the reference band
	Resampling string
	// OpticalFallbackCRS is written when an optical granule carries no CRS
	OpticalFallbackCRS string
	// RadarFallbackCRS is written when a radar granule carries no CRS
	RadarFallbackCRS string
	// RadarTargetCRS is the CRS radar amplitude is reprojected into
	RadarTargetCRS string
	// Workdir hosts the temporary per-granule directories
	Workdir string
}

func DefaultConfig() Config {
	return Config{
		TargetResolution:   10,
		Resampling:         "average",
		OpticalFallbackCRS: "EPSG:32643",
		RadarFallbackCRS:   "EPSG:4326",
		RadarTargetCRS:     "EPSG:32643",
		Workdir:            os.TempDir(),
	}
}

// Processor turns catalogued granules into analysis-ready rasters on the
// output storage.
type Processor struct {
	Config  Config
	Storage service.Storage

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewProcessor(config Config, storage service.Storage) *Processor {
	return &Processor{
		Config:  config,
		Storage: storage,
		locks:   map[string]*sync.Mutex{},
	}
}

// outputPath returns the storage-relative path of a granule's product:
// <roi>/<collection>/<product>_<granule>_preprocessed.tif
func outputPath(region roi.ROI, constellation common.Constellation, key common.GranuleKey) string {
	product := strings.TrimSuffix(strings.TrimSuffix(key.ProductID, ".SAFE"), "_COG")
	file := common.FormatBrackets("{PRODUCT}_{GRANULE_ID}_preprocessed.tif", map[string]string{
		"PRODUCT":    product,
		"GRANULE_ID": key.GranuleID,
	})
	return filepath.Join(region.Name, constellation.CollectionName(), file)
}

// lock serializes work on a single output path so that two products resolving
// to the same file are not written concurrently
func (p *Processor) lock(path string) func() {
	p.mu.Lock()
	l, ok := p.locks[path]
	if !ok {
		l = &sync.Mutex{}
		p.locks[path] = l
	}
	p.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// ProcessGranule preprocesses one granule of the given collection and saves
// the result. Already-processed granules are skipped. The returned Result is
// always usable, even on failure.
func (p *Processor) ProcessGranule(ctx context.Context, region roi.ROI, constellation common.Constellation, granule common.Granule) common.Result {
	result := common.Result{
		ROI:        region.Name,
		Collection: constellation.CollectionName(),
		Granule:    granule.Key,
		Status:     common.StatusDONE,
	}
	relPath := outputPath(region, constellation, granule.Key)
	ctx = log.With(ctx, "granule", granule.Key.GranuleID, "product", granule.Key.ProductID, "roi", region.Name)

	unlock := p.lock(relPath)
	defer unlock()

	exists, err := p.Storage.Exists(ctx, relPath)
	if err != nil {
		return result.Fail(fmt.Errorf("ProcessGranule.Exists: %w", err))
	}
	if exists {
		log.Logger(ctx).Debug("already processed", zap.String("uri", p.Storage.URI(relPath)))
		return result.Skip("already processed")
	}

	workdir := filepath.Join(p.Config.Workdir, uuid.New().String())
	if err := os.MkdirAll(workdir, 0766); err != nil {
		return result.Fail(service.MakeTemporary(fmt.Errorf("ProcessGranule.MkdirAll: %w", err)))
	}
	defer os.RemoveAll(workdir)
	localFile := filepath.Join(workdir, filepath.Base(relPath))

	switch constellation {
	case common.Sentinel2:
		err = p.processOpticalGranule(ctx, region, granule, localFile)
	case common.Sentinel1:
		err = p.processRadarGranule(ctx, region, granule, localFile)
	default:
		err = service.MakeFatal(fmt.Errorf("ProcessGranule: unsupported constellation %s", constellation))
	}
	if err != nil {
		var skip SkipError
		if errors.As(err, &skip) {
			return result.Skip(skip.Reason)
		}
		return result.Fail(fmt.Errorf("ProcessGranule.%w", err))
	}

	uri, err := p.Storage.Save(ctx, localFile, relPath)
	if err != nil {
		return result.Fail(service.MakeTemporary(fmt.Errorf("ProcessGranule.Save: %w", err)))
	}
	result.URI = uri
	log.Logger(ctx).Info("granule processed", zap.String("uri", uri))
	return result
}

// SkipError marks a granule that cannot produce an output but is not in
// error, e.g. a footprint disjoint from the region.
type SkipError struct {
	Reason string
}

func (e SkipError) Error() string { return e.Reason }
