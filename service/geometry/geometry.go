package geometry

import (
	"fmt"

	"github.com/go-spatial/geom"
	geomwkt "github.com/go-spatial/geom/encoding/wkt"
	"github.com/paulsmith/gogeos/geos"
)

var TOLERANCE_GEOG = 0.000001

// GeosToGeom generates a geom.Geometry from a geos.Geometry
func GeosToGeom(g *geos.Geometry) (geom.Geometry, error) {
	wkt, err := g.ToWKT()
	if err != nil {
		return nil, fmt.Errorf("GeosToGeom.ToWKT: %w", err)
	}
	geometry, err := geomwkt.DecodeString(wkt)
	if err != nil {
		return nil, fmt.Errorf("GeosToGeom.DecodeString: %w", err)
	}

	return geometry, nil
}

// GeomToGeos generates a geos multipolygon from a geom.MultiPolygon
func GeomToGeos(mp geom.MultiPolygon) (*geos.Geometry, error) {
	var polygons []*geos.Geometry
	for _, p := range mp {
		if len(p) == 0 {
			continue
		}
		shell := toCoords(p[0])
		var holes [][]geos.Coord
		for _, ring := range p[1:] {
			holes = append(holes, toCoords(ring))
		}
		polygon, err := geos.NewPolygon(shell, holes...)
		if err != nil {
			return nil, fmt.Errorf("GeomToGeos.NewPolygon: %w", err)
		}
		polygons = append(polygons, polygon)
	}
	g, err := geos.NewCollection(geos.MULTIPOLYGON, polygons...)
	if err != nil {
		return nil, fmt.Errorf("GeomToGeos.NewCollection: %w", err)
	}
	return g, nil
}

func toCoords(ring [][2]float64) []geos.Coord {
	// geos rings must be explicitly closed
	coords := make([]geos.Coord, 0, len(ring)+1)
	for _, pt := range ring {
		coords = append(coords, geos.NewCoord(pt[0], pt[1]))
	}
	if len(ring) > 0 && ring[0] != ring[len(ring)-1] {
		coords = append(coords, geos.NewCoord(ring[0][0], ring[0][1]))
	}
	return coords
}

// WKTUnion returns the wkt of the simplified union of the wkts
func WKTUnion(wkts []string, tolerance float64) (string, error) {
	var geoms []*geos.Geometry
	for _, wkt := range wkts {
		geo, err := geos.FromWKT(wkt)
		if err != nil {
			return "", fmt.Errorf("WKTUnion.FromWKT: %w", err)
		}
		geoms = append(geoms, geo)
	}
	aoi, err := Union(geoms, tolerance)
	if err != nil {
		return "", fmt.Errorf("WKTUnion.%w", err)
	}
	wkt, err := aoi.ToWKT()
	if err != nil {
		return "", fmt.Errorf("WKTUnion.ToWKT: %w", err)
	}
	return wkt, nil
}

func Union(geoms []*geos.Geometry, tolerance float64) (*geos.Geometry, error) {
	aoi, err := UnaryUnion(geoms)
	if err == nil {
		if aoi, err = aoi.Simplify(tolerance); err != nil {
			return nil, fmt.Errorf("Union.Simplify: %w", err)
		}
		return aoi, nil
	}
	// Union all failed, retry one by one with simplify
	for _, geom := range geoms {
		if geom, err = geom.Simplify(tolerance); err != nil {
			return nil, fmt.Errorf("Union.Simplify: %w", err)
		}
		if aoi, err = geom.Union(aoi); err != nil {
			return nil, fmt.Errorf("Union: %w", err)
		}
	}
	return aoi, nil
}

func UnaryUnion(geoms []*geos.Geometry) (*geos.Geometry, error) {
	aoi, err := geos.NewCollection(geos.MULTIPOLYGON, geoms...)
	if err != nil {
		return nil, fmt.Errorf("UnaryUnion.NewCollection: %w", err)
	}
	if aoi, err = aoi.UnaryUnion(); err != nil {
		return nil, fmt.Errorf("UnaryUnion.UnaryUnion: %w", err)
	}
	return aoi, nil
}

// WKTIntersects returns whether the two wkt geometries intersect
func WKTIntersects(wkt1, wkt2 string) (bool, error) {
	g1, err := geos.FromWKT(wkt1)
	if err != nil {
		return false, fmt.Errorf("WKTIntersects.FromWKT: %w", err)
	}
	g2, err := geos.FromWKT(wkt2)
	if err != nil {
		return false, fmt.Errorf("WKTIntersects.FromWKT: %w", err)
	}
	intersects, err := g1.Intersects(g2)
	if err != nil {
		return false, fmt.Errorf("WKTIntersects.Intersects: %w", err)
	}
	return intersects, nil
}
