package heatmap

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	geomjson "github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/slopeworks/geotracks/internal/geojson"
)

// CollectPoints walks dir recursively, reads every .geojson file, and
// gathers sample positions: Point and MultiPoint members directly, plus
// LineString vertices. Unreadable files and geometries of other types
// are skipped with a warning.
func CollectPoints(dir string) ([]Point, error) {
	log := zap.L().With(zap.String("component", "heatmap"))

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".geojson") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "heatmap: walk %s", dir)
	}

	var points []Point
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Warn("skipping unreadable file", zap.String("file", path), zap.Error(err))
			continue
		}

		var fc geojson.FeatureCollection
		if err := json.Unmarshal(data, &fc); err != nil {
			log.Warn("skipping invalid GeoJSON", zap.String("file", path), zap.Error(err))
			continue
		}

		var fromFile int
		for _, feature := range fc.Features {
			pts, err := geometryPoints(feature.Geometry)
			if err != nil {
				log.Warn("skipping geometry", zap.String("file", path), zap.Error(err))
				continue
			}
			points = append(points, pts...)
			fromFile += len(pts)
		}

		log.Debug("collected points", zap.String("file", path), zap.Int("points", fromFile))
	}

	return points, nil
}

// geometryPoints extracts sample positions from one raw geometry.
func geometryPoints(raw json.RawMessage) ([]Point, error) {
	if raw == nil || string(raw) == "null" {
		return nil, nil
	}

	var g geom.T
	if err := geomjson.Unmarshal(raw, &g); err != nil {
		return nil, eris.Wrap(err, "heatmap: decode geometry")
	}

	switch gg := g.(type) {
	case *geom.Point:
		return []Point{{X: gg.X(), Y: gg.Y()}}, nil

	case *geom.MultiPoint:
		pts := make([]Point, 0, gg.NumPoints())
		for i := 0; i < gg.NumPoints(); i++ {
			p := gg.Point(i)
			pts = append(pts, Point{X: p.X(), Y: p.Y()})
		}
		return pts, nil

	case *geom.LineString:
		pts := make([]Point, 0, gg.NumCoords())
		for i := 0; i < gg.NumCoords(); i++ {
			c := gg.Coord(i)
			pts = append(pts, Point{X: c.X(), Y: c.Y()})
		}
		return pts, nil

	default:
		// Polygons and friends do not contribute to a point density.
		return nil, nil
	}
}
