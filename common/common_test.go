package common

import (
	"testing"
)

func checkKeyValue(t *testing.T, format map[string]string, key, value string) {
	if v, ok := format[key]; !ok {
		t.Errorf("key %s not found", key)
	} else if v != value {
		t.Errorf("expected %s for key %s, got %s", value, key, v)
	}
}

func TestInfo(t *testing.T) {
	if _, err := Info("S2B_MSIL1C_20190108T104429_N0207_R008_T32UNF_20190108T12485"); err == nil {
		t.Errorf("too short file name")
	}
	if format, err := Info("S2B_MSIL1C_20190108T104429_N0207_R008_T32UNF_20190108T124859.SAFE"); err != nil {
		t.Error(err)
	} else {
		checkKeyValue(t, format, "MISSION_ID", "S2B")
		checkKeyValue(t, format, "PRODUCT_LEVEL", "L1C")
		checkKeyValue(t, format, "DATE", "20190108")
		checkKeyValue(t, format, "YEAR", "2019")
		checkKeyValue(t, format, "MONTH", "01")
		checkKeyValue(t, format, "DAY", "08")
		checkKeyValue(t, format, "TIME", "104429")
		checkKeyValue(t, format, "TILE", "T32UNF")
		checkKeyValue(t, format, "LATITUDE_BAND", "32")
		checkKeyValue(t, format, "GRID_SQUARE", "U")
		checkKeyValue(t, format, "GRANULE_ID", "NF")
	}
	if _, err := Info("S1A_IW_GRDH_1SDV_20190115T170106_20190115T170133_025491_02D361_7F7"); err == nil {
		t.Errorf("too short file name")
	}
	if format, err := Info("S1A_IW_GRDH_1SDV_20190115T170106_20190115T170133_025491_02D361_7F7C"); err != nil {
		t.Error(err)
	} else {
		checkKeyValue(t, format, "MISSION_ID", "S1A")
		checkKeyValue(t, format, "MODE", "IW")
		checkKeyValue(t, format, "PRODUCT_TYPE", "GRD")
		checkKeyValue(t, format, "POLARISATION", "DV")
		checkKeyValue(t, format, "DATE", "20190115")
		checkKeyValue(t, format, "ORBIT", "025491")
		checkKeyValue(t, format, "UNIQUE_ID", "7F7C")
	}
}

func TestGetDateFromProductId(t *testing.T) {
	date, err := GetDateFromProductId("S2B_MSIL1C_20190108T104429_N0207_R008_T32UNF_20190108T124859.SAFE")
	if err != nil {
		t.Fatal(err)
	}
	if date.Format("2006-01-02") != "2019-01-08" {
		t.Errorf("expected 2019-01-08, got %s", date.Format("2006-01-02"))
	}
	if _, err := GetDateFromProductId("LC09_L1GT_166003_20250603_20250603_02_T2"); err == nil {
		t.Errorf("expected an error for an unsupported constellation")
	}
}

func TestGetConstellation(t *testing.T) {
	if c := GetConstellationFromString("sentinel-1"); c != Sentinel1 {
		t.Errorf("expected Sentinel1, got %s", c)
	}
	if c := GetConstellationFromString("SENTINEL-2"); c != Sentinel2 {
		t.Errorf("expected Sentinel2, got %s", c)
	}
	if c := GetConstellationFromProductId("S1A_IW_GRDH_1SDV_20190115T170106_20190115T170133_025491_02D361_7F7C"); c != Sentinel1 {
		t.Errorf("expected Sentinel1, got %s", c)
	}
	if c := GetConstellationFromProductId("LC09_L1GT_166003_20250603_20250603_02_T2"); c != Unknown {
		t.Errorf("expected Unknown, got %s", c)
	}
	if Sentinel1.CollectionName() != "SENTINEL-1" || Sentinel2.CollectionName() != "SENTINEL-2" {
		t.Errorf("unexpected collection names")
	}
}

func TestGranuleBands(t *testing.T) {
	g := Granule{
		Key: GranuleKey{ProductID: "S2A_MSIL1C_x.SAFE", GranuleID: "L1C_T43SGT_A043503_20250705T054201"},
		Bands: []BandFile{
			{Role: Spectral, ID: "04", Resolution: 10},
			{Role: Spectral, ID: "11", Resolution: 20},
			{Role: QualityBitfield, ID: "QA60", Resolution: 60},
		},
	}
	if len(g.SpectralBands()) != 2 {
		t.Errorf("expected 2 spectral bands, got %d", len(g.SpectralBands()))
	}
	if len(g.AmplitudeBands()) != 0 {
		t.Errorf("expected no amplitude bands")
	}
	q, ok := g.QualityBand()
	if !ok || q.Role != QualityBitfield {
		t.Errorf("expected the QA60 quality band, got %v, %v", q, ok)
	}
}
