package common

//go:generate go run github.com/dmarkham/enumer -json -type BandRole

// BandRole classifies a raster file of a granule
type BandRole int

const (
	Spectral              BandRole = iota // optical reflectance band
	QualityBitfield                       // bit-encoded quality band (QA60)
	QualityClassification                 // discrete scene classification band (SCL)
	Amplitude                             // radar backscatter amplitude
)

// BandFile is a classified raster file of a granule
type BandFile struct {
	Role BandRole `json:"role"`
	// ID is the band code ("02".."12", "8A"), the quality marker ("QA60", "SCL")
	// or the polarisation ("vv", "vh")
	ID string `json:"id"`
	// Resolution is the native ground resolution in meters (0 if unknown)
	Resolution int    `json:"resolution"`
	Path       string `json:"path"`
}

// GranuleKey identifies the atomic unit of preprocessing
type GranuleKey struct {
	// ProductID is the name of the .SAFE product owning the granule
	ProductID string `json:"product_id"`
	// GranuleID is the product-internal granule identifier (optical) or the
	// measurement file base name (radar)
	GranuleID string `json:"granule_id"`
}

// Granule is a collection of band files sharing a granule identifier
type Granule struct {
	Key   GranuleKey `json:"key"`
	Bands []BandFile `json:"bands"`
}

// SpectralBands returns the bands with the Spectral role
func (g Granule) SpectralBands() []BandFile {
	var bands []BandFile
	for _, b := range g.Bands {
		if b.Role == Spectral {
			bands = append(bands, b)
		}
	}
	return bands
}

// AmplitudeBands returns the bands with the Amplitude role
func (g Granule) AmplitudeBands() []BandFile {
	var bands []BandFile
	for _, b := range g.Bands {
		if b.Role == Amplitude {
			bands = append(bands, b)
		}
	}
	return bands
}

// QualityBand returns the first quality band of the granule, if any.
// Discovery yields at most one per granule (bitfield for L1C, classification for L2A).
func (g Granule) QualityBand() (BandFile, bool) {
	for _, b := range g.Bands {
		if b.Role == QualityBitfield || b.Role == QualityClassification {
			return b, true
		}
	}
	return BandFile{}, false
}
