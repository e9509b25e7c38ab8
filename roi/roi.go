package roi

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/borderwatch/preprocessor/service"
	"github.com/borderwatch/preprocessor/service/geometry"
	"github.com/go-spatial/geom"
	"github.com/go-spatial/geom/encoding/geojson"
	"github.com/paulsmith/gogeos/geos"
)

// ROI is a named region of interest. The geometry is supplied in geographic
// coordinates (EPSG:4326) and is read-only for every component.
type ROI struct {
	Name     string
	Geometry geom.MultiPolygon
}

const unnamedROI = "Unnamed_ROI"

// Load reads the named ROIs from a geojson featureCollection.
// Each feature is one ROI; its polygons are unioned and simplified.
func Load(roiFile string) ([]ROI, error) {
	data, err := os.ReadFile(roiFile)
	if err != nil {
		return nil, fmt.Errorf("roi.Load: %w", err)
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil || len(fc.Features) == 0 {
		// a bare geometry or single feature yields one unnamed region
		return loadUnnamed(data)
	}

	var rois []ROI
	names := service.StringSet{}
	for _, f := range fc.Features {
		name := unnamedROI
		if n, ok := f.Properties["name"].(string); ok && n != "" {
			name = n
		}
		if names.Exists(name) {
			return nil, fmt.Errorf("roi.Load: duplicated roi name %s", name)
		}
		names.Push(name)

		var mp geom.MultiPolygon
		if err := service.MergeMultiPolygons(f.Geometry.Geometry, &mp); err != nil {
			return nil, fmt.Errorf("roi.Load[%s]: %w", name, err)
		}
		if len(mp) == 0 {
			return nil, fmt.Errorf("roi.Load[%s]: no polygon in feature", name)
		}
		if mp, err = normalize(mp); err != nil {
			return nil, fmt.Errorf("roi.Load[%s].%w", name, err)
		}
		rois = append(rois, ROI{Name: name, Geometry: mp})
	}
	return rois, nil
}

func loadUnnamed(data []byte) ([]ROI, error) {
	g, err := service.UnmarshalGeometry(data)
	if err != nil {
		return nil, fmt.Errorf("roi.Load.UnmarshalGeometry: %w", err)
	}
	var mp geom.MultiPolygon
	if err := service.MergeMultiPolygons(g, &mp); err != nil {
		return nil, fmt.Errorf("roi.Load[%s]: %w", unnamedROI, err)
	}
	if len(mp) == 0 {
		return nil, fmt.Errorf("roi.Load[%s]: no polygon in file", unnamedROI)
	}
	if mp, err = normalize(mp); err != nil {
		return nil, fmt.Errorf("roi.Load[%s].%w", unnamedROI, err)
	}
	return []ROI{{Name: unnamedROI, Geometry: mp}}, nil
}

// normalize unions overlapping polygons and simplifies the result
func normalize(mp geom.MultiPolygon) (geom.MultiPolygon, error) {
	g, err := geometry.GeomToGeos(mp)
	if err != nil {
		return nil, fmt.Errorf("normalize.%w", err)
	}
	if g, err = geometry.Union([]*geos.Geometry{g}, geometry.TOLERANCE_GEOG); err != nil {
		return nil, fmt.Errorf("normalize.%w", err)
	}
	merged, err := geometry.GeosToGeom(g)
	if err != nil {
		return nil, fmt.Errorf("normalize.%w", err)
	}
	var out geom.MultiPolygon
	if err := service.MergeMultiPolygons(merged, &out); err != nil {
		return nil, fmt.Errorf("normalize.%w", err)
	}
	return out, nil
}

// WKT returns the geometry as a multipolygon wkt for GDAL handoff
func (r ROI) WKT() (string, error) {
	g, err := geometry.GeomToGeos(r.Geometry)
	if err != nil {
		return "", fmt.Errorf("WKT.%w", err)
	}
	wkt, err := g.ToWKT()
	if err != nil {
		return "", fmt.Errorf("WKT.ToWKT: %w", err)
	}
	return wkt, nil
}
