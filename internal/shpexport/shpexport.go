// Package shpexport writes point shapefiles from converted GeoJSON so
// the output can be handed straight to desktop GIS tools.
package shpexport

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	geomjson "github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/slopeworks/geotracks/internal/geojson"
)

// attributeFields are the property keys carried into the DBF table.
var attributeFields = []string{"trackId", "userId", "activity", "locationCountry"}

// ExportPoints reads a GeoJSON FeatureCollection and writes every Point
// and MultiPoint position to a point shapefile. Each written point
// carries the track metadata of its parent feature. Returns the number
// of points written.
func ExportPoints(inputPath, outputPath string) (int, error) {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return 0, eris.Wrapf(err, "shpexport: read %s", inputPath)
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return 0, eris.Wrapf(err, "shpexport: parse %s", inputPath)
	}

	writer, err := shp.Create(outputPath, shp.POINT)
	if err != nil {
		return 0, eris.Wrapf(err, "shpexport: create %s", outputPath)
	}
	defer writer.Close() //nolint:errcheck

	fields := make([]shp.Field, len(attributeFields))
	for i, name := range attributeFields {
		fields[i] = shp.StringField(name, 64)
	}
	writer.SetFields(fields)

	log := zap.L().With(zap.String("component", "shpexport"))

	row := 0
	skipped := 0
	for _, feature := range fc.Features {
		points, ok := pointPositions(feature.Geometry)
		if !ok {
			skipped++
			continue
		}

		for _, p := range points {
			writer.Write(&shp.Point{X: p[0], Y: p[1]})
			for fi, name := range attributeFields {
				if err := writer.WriteAttribute(row, fi, attributeString(feature.Properties, name)); err != nil {
					return row, eris.Wrapf(err, "shpexport: write attribute %s", name)
				}
			}
			row++
		}
	}

	if skipped > 0 {
		log.Warn("skipped non-point features", zap.Int("skipped", skipped))
	}
	if row == 0 {
		return 0, eris.Errorf("shpexport: no point geometries in %s", inputPath)
	}

	log.Info("shapefile written", zap.String("output", outputPath), zap.Int("points", row))
	return row, nil
}

// pointPositions extracts X/Y pairs from a Point or MultiPoint
// geometry. Other geometry types report false.
func pointPositions(raw json.RawMessage) ([][2]float64, bool) {
	if raw == nil || string(raw) == "null" {
		return nil, false
	}

	var g geom.T
	if err := geomjson.Unmarshal(raw, &g); err != nil {
		return nil, false
	}

	switch gg := g.(type) {
	case *geom.Point:
		return [][2]float64{{gg.X(), gg.Y()}}, true
	case *geom.MultiPoint:
		out := make([][2]float64, 0, gg.NumPoints())
		for i := 0; i < gg.NumPoints(); i++ {
			p := gg.Point(i)
			out = append(out, [2]float64{p.X(), p.Y()})
		}
		return out, true
	default:
		return nil, false
	}
}

// attributeString renders a property value for the DBF table. Absent
// and null values become the empty string.
func attributeString(props map[string]any, key string) string {
	v, ok := props[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
