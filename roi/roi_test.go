package roi

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const roisJSON = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"name": "wakhan_corridor"},
      "geometry": {
        "type": "Polygon",
        "coordinates": [[[71.0, 36.8], [71.6, 36.8], [71.6, 37.1], [71.0, 37.1], [71.0, 36.8]]]
      }
    },
    {
      "type": "Feature",
      "properties": {},
      "geometry": {
        "type": "MultiPolygon",
        "coordinates": [[[[129.0, -11.0], [130.0, -11.0], [130.0, -12.0], [129.0, -12.0], [129.0, -11.0]]]]
      }
    }
  ]
}`

func writeROIFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rois.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	rois, err := Load(writeROIFile(t, roisJSON))
	if err != nil {
		t.Fatal(err)
	}
	if len(rois) != 2 {
		t.Fatalf("expected 2 rois, got %d", len(rois))
	}
	if rois[0].Name != "wakhan_corridor" {
		t.Errorf("expected wakhan_corridor, got %s", rois[0].Name)
	}
	if rois[1].Name != "Unnamed_ROI" {
		t.Errorf("expected Unnamed_ROI, got %s", rois[1].Name)
	}
	if len(rois[0].Geometry) != 1 {
		t.Errorf("expected 1 polygon, got %d", len(rois[0].Geometry))
	}

	wkt, err := rois[0].WKT()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(wkt, "POLYGON") {
		t.Errorf("unexpected wkt %s", wkt)
	}
}

func TestLoadDuplicatedName(t *testing.T) {
	duplicated := strings.ReplaceAll(roisJSON, `{}`, `{"name": "wakhan_corridor"}`)
	if _, err := Load(writeROIFile(t, duplicated)); err == nil {
		t.Errorf("expected an error for duplicated roi names")
	}
}

func TestLoadBareGeometry(t *testing.T) {
	bare := `{
	  "type": "Polygon",
	  "coordinates": [[[71.0, 36.8], [71.6, 36.8], [71.6, 37.1], [71.0, 37.1], [71.0, 36.8]]]
	}`
	rois, err := Load(writeROIFile(t, bare))
	if err != nil {
		t.Fatal(err)
	}
	if len(rois) != 1 {
		t.Fatalf("expected 1 roi, got %d", len(rois))
	}
	if rois[0].Name != "Unnamed_ROI" {
		t.Errorf("expected Unnamed_ROI, got %s", rois[0].Name)
	}
	if len(rois[0].Geometry) != 1 {
		t.Errorf("expected 1 polygon, got %d", len(rois[0].Geometry))
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Errorf("expected an error for a missing file")
	}
}
