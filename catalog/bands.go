package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/borderwatch/preprocessor/common"
	"github.com/borderwatch/preprocessor/service"
	"github.com/borderwatch/preprocessor/service/log"
)

// ErrNoData is returned when a collection holds no product for the roi.
// It is non-fatal: the roi/collection is skipped.
type ErrNoData struct {
	Path string
}

func (e ErrNoData) Error() string {
	return fmt.Sprintf("no product found under %s", e.Path)
}

// ParseError is returned when a file name does not match the naming convention
// of its collection. The file is dropped, never the granule.
type ParseError struct {
	Path string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("cannot classify %s", e.Path)
}

var (
	// S2x_MSIL1C_20250705T053649_N0511_R005_T43SGT_20250705T072135.SAFE/GRANULE/L1C_T43SGT_A043503_20250705T054201
	s2GranuleRe = regexp.MustCompile(`(S2[AB]_MSIL(?:1C|2A)_\d{8}T\d{6}_N\d{4}_R\d{3}_T\d{2}[A-Z]{3}_\d{8}T\d{6}\.SAFE)[/\\]GRANULE[/\\](L(?:1C|2A)_T\d{2}[A-Z]{3}_A\d+_\d{8}T\d{6})`)
	s2BandRe    = regexp.MustCompile(`_B(\d{2}|8A)\.jp2$`)
	s1SwathRe   = regexp.MustCompile(`^s1[ab]-iw-grd-(vv|vh)-.*\.tiff$`)
)

// spectral band code -> native resolution (meters).
// 60m aerosol/water-vapour bands (B01, B09, B10) are not part of the stack.
var s2BandResolution = map[string]int{
	"02": 10, "03": 10, "04": 10, "08": 10,
	"05": 20, "06": 20, "07": 20, "8A": 20, "11": 20, "12": 20,
}

// Classify tags a raster file with its band role from the file name alone.
func Classify(path string, constellation common.Constellation) (common.BandFile, error) {
	base := filepath.Base(path)
	switch constellation {
	case common.Sentinel2:
		if strings.HasSuffix(base, "_QA60.jp2") {
			return common.BandFile{Role: common.QualityBitfield, ID: "QA60", Resolution: 60, Path: path}, nil
		}
		if strings.HasSuffix(base, "_SCL_20m.jp2") {
			return common.BandFile{Role: common.QualityClassification, ID: "SCL", Resolution: 20, Path: path}, nil
		}
		if m := s2BandRe.FindStringSubmatch(base); m != nil {
			if res, ok := s2BandResolution[m[1]]; ok {
				return common.BandFile{Role: common.Spectral, ID: m[1], Resolution: res, Path: path}, nil
			}
		}
	case common.Sentinel1:
		if m := s1SwathRe.FindStringSubmatch(base); m != nil {
			return common.BandFile{Role: common.Amplitude, ID: m[1], Resolution: 10, Path: path}, nil
		}
	}
	return common.BandFile{}, ParseError{path}
}

// Discover scans `<dataRoot>/<roiName>/<collection>` for unpacked products and
// groups their classified band files by granule.
// Files that cannot be classified are dropped with a warning; granules without
// any spectral/amplitude band are skipped.
func Discover(ctx context.Context, dataRoot, roiName string, constellation common.Constellation) (map[common.GranuleKey][]common.BandFile, error) {
	collectionDir := filepath.Join(dataRoot, roiName, constellation.CollectionName())
	if _, err := os.Stat(collectionDir); err != nil {
		return nil, ErrNoData{collectionDir}
	}

	var files []string
	var err error
	switch constellation {
	case common.Sentinel2:
		files, err = opticalFiles(collectionDir)
	case common.Sentinel1:
		files, err = radarFiles(collectionDir)
	default:
		return nil, fmt.Errorf("Discover: constellation %s not supported", constellation)
	}
	if err != nil {
		return nil, fmt.Errorf("Discover.%w", err)
	}
	if len(files) == 0 {
		return nil, ErrNoData{collectionDir}
	}

	granules := map[common.GranuleKey][]common.BandFile{}
	for _, file := range files {
		key, err := granuleKey(file, constellation)
		if err != nil {
			log.Logger(ctx).Sugar().Warnf("drop file: %v", err)
			continue
		}
		band, err := Classify(file, constellation)
		if err != nil {
			log.Logger(ctx).Sugar().Warnf("drop file: %v", err)
			continue
		}
		granules[key] = append(granules[key], band)
	}

	// A granule without any data band cannot produce an output
	for key, bands := range granules {
		if !hasDataBand(bands) {
			log.Logger(ctx).Sugar().Warnf("skip granule %s/%s: no spectral/amplitude band", key.ProductID, key.GranuleID)
			delete(granules, key)
		}
	}
	return granules, nil
}

func opticalFiles(collectionDir string) ([]string, error) {
	safeDirs, err := filepath.Glob(filepath.Join(collectionDir, "S2*_MSIL*_*.SAFE"))
	if err != nil {
		return nil, fmt.Errorf("opticalFiles.Glob: %w", err)
	}

	found := service.StringSet{}
	for _, safeDir := range safeDirs {
		for _, pattern := range []string{
			filepath.Join(safeDir, "GRANULE", "*", "IMG_DATA", "*_B*.jp2"),
			filepath.Join(safeDir, "GRANULE", "*", "IMG_DATA", "*_SCL_20m.jp2"),
			filepath.Join(safeDir, "GRANULE", "*", "QI_DATA", "*_QA60.jp2"),
		} {
			files, err := filepath.Glob(pattern)
			if err != nil {
				return nil, fmt.Errorf("opticalFiles.Glob: %w", err)
			}
			for _, f := range files {
				found.Push(f)
			}
		}
	}
	return found.Slice(), nil
}

func radarFiles(collectionDir string) ([]string, error) {
	// COG variants of the GRD products first, plain products as a fallback
	safeDirs, err := filepath.Glob(filepath.Join(collectionDir, "S1*_IW_GRDH_*_COG.SAFE"))
	if err != nil {
		return nil, fmt.Errorf("radarFiles.Glob: %w", err)
	}
	if len(safeDirs) == 0 {
		if safeDirs, err = filepath.Glob(filepath.Join(collectionDir, "S1*_IW_GRDH_*.SAFE")); err != nil {
			return nil, fmt.Errorf("radarFiles.Glob: %w", err)
		}
	}

	var found []string
	for _, safeDir := range safeDirs {
		files, err := filepath.Glob(filepath.Join(safeDir, "measurement", "s1*-iw-grd-*.tiff"))
		if err != nil {
			return nil, fmt.Errorf("radarFiles.Glob: %w", err)
		}
		found = append(found, files...)
	}
	return found, nil
}

// granuleKey extracts the (product, granule) grouping pair from the file path.
// For radar products each measurement swath is its own granule.
func granuleKey(file string, constellation common.Constellation) (common.GranuleKey, error) {
	switch constellation {
	case common.Sentinel2:
		if m := s2GranuleRe.FindStringSubmatch(file); m != nil {
			return common.GranuleKey{ProductID: m[1], GranuleID: m[2]}, nil
		}
	case common.Sentinel1:
		product := ""
		for dir := filepath.Dir(file); ; {
			if strings.HasSuffix(dir, ".SAFE") {
				product = filepath.Base(dir)
				break
			}
			if parent := filepath.Dir(dir); parent != dir {
				dir = parent
			} else {
				break
			}
		}
		if product != "" {
			base := filepath.Base(file)
			return common.GranuleKey{ProductID: product, GranuleID: strings.TrimSuffix(base, filepath.Ext(base))}, nil
		}
	}
	return common.GranuleKey{}, ParseError{file}
}

func hasDataBand(bands []common.BandFile) bool {
	for _, b := range bands {
		if b.Role == common.Spectral || b.Role == common.Amplitude {
			return true
		}
	}
	return false
}
