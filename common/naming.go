package common

import (
	"fmt"
	"strings"
	"time"
)

//go:generate go run github.com/dmarkham/enumer -json -type Constellation

// Constellation defines the kind of satellites
type Constellation int

const (
	Unknown   Constellation = iota
	Sentinel1               // MMM_BB_TTTR_LFPP_YYYYMMDDTHHMMSS_YYYMMDDTHHMMSS_OOOOOO_DDDDDD_CCCC.SAFE
	Sentinel2               // MMM_MSIXXX_YYYYMMDDTHHMMSS_Nxxyy_ROOO_Txxxxx_<Product Discriminator>.SAFE
)

// GetConstellationFromString returns the constellation from the user input
func GetConstellationFromString(input string) Constellation {
	switch strings.ToLower(input) {
	case "sentinel1", "sentinel-1":
		return Sentinel1
	case "sentinel2", "sentinel-2":
		return Sentinel2
	}
	return GetConstellationFromProductId(input)
}

func GetConstellationFromProductId(productName string) Constellation {
	if strings.HasPrefix(productName, "S1") {
		return Sentinel1
	}
	if strings.HasPrefix(productName, "S2") {
		return Sentinel2
	}
	return Unknown
}

// CollectionName returns the name of the data directory of the constellation
func (c Constellation) CollectionName() string {
	switch c {
	case Sentinel1:
		return "SENTINEL-1"
	case Sentinel2:
		return "SENTINEL-2"
	}
	return "UNKNOWN"
}

func GetDateFromProductId(productName string) (time.Time, error) {
	format, err := Info(productName)
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse("20060102", fmt.Sprintf("%s%s%s", format["YEAR"], format["MONTH"], format["DAY"]))
}

func Info(productName string) (map[string]string, error) {
	switch GetConstellationFromProductId(productName) {
	case Sentinel1:
		if len(productName) < len("MMM_BB_TTTR_LFPP_YYYYMMDDTHHMMSS_YYYYMMDDTHHMMSS_OOOOOO_DDDDDD_CCCC") {
			return nil, fmt.Errorf("invalid Sentinel1 file name: %s", productName)
		}
		return map[string]string{
			"PRODUCT":          productName,
			"MISSION_ID":       productName[0:3],
			"MISSION_VERSION":  productName[2:3],
			"MODE":             productName[4:6],
			"PRODUCT_TYPE":     productName[7:10],
			"RESOLUTION":       productName[10:11],
			"PROCESSING_LEVEL": productName[12:13],
			"PRODUCT_CLASS":    productName[13:14],
			"POLARISATION":     productName[14:16],
			"DATE":             productName[17:25],
			"YEAR":             productName[17:21],
			"MONTH":            productName[21:23],
			"DAY":              productName[23:25],
			"TIME":             productName[26:32],
			"HOUR":             productName[26:28],
			"MINUTE":           productName[28:30],
			"SECOND":           productName[30:32],
			"ORBIT":            productName[49:55],
			"MISSION":          productName[56:62],
			"UNIQUE_ID":        productName[63:67],
		}, nil
	case Sentinel2:
		if len(productName) < len("MMM_MSIXXX_YYYYMMDDTHHMMSS_Nxxyy_ROOO_Txxxxx_<Product Disc.>") {
			return nil, fmt.Errorf("invalid Sentinel2 file name: %s", productName)
		}
		return map[string]string{
			"PRODUCT":         productName,
			"MISSION_ID":      productName[0:3],
			"MISSION_VERSION": productName[2:3],
			"PRODUCT_LEVEL":   productName[7:10],
			"DATE":            productName[11:19],
			"YEAR":            productName[11:15],
			"MONTH":           productName[15:17],
			"DAY":             productName[17:19],
			"TIME":            productName[20:26],
			"HOUR":            productName[20:22],
			"MINUTE":          productName[22:24],
			"SECOND":          productName[24:26],
			"PDGS":            productName[28:32],
			"ORBIT":           productName[34:37],
			"TILE":            productName[38:44],
			"LATITUDE_BAND":   productName[39:41],
			"GRID_SQUARE":     productName[41:42],
			"GRANULE_ID":      productName[42:44],
			"PRODUCT_DISC":    productName[45:60],
		}, nil
	}
	return nil, fmt.Errorf("Info: constellation not supported")
}

/**
 * FormatBrackets replaces in <str> all {keys} of <info> by the corresponding value
 * keys must be one of PRODUCT, MISSION_ID, PRODUCT_LEVEL, DATE(YEAR/MONTH/DAY), TIME(HOUR/MINUTE/SECOND), PDGS, ORBIT, TILE (LATITUDE_BAND/GRID_SQUARE/GRANULE_ID)
 */
func FormatBrackets(str string, infos ...map[string]string) string {
	for _, info := range infos {
		for k, v := range info {
			str = strings.ReplaceAll(str, "{"+k+"}", v)
		}
	}
	return str
}
