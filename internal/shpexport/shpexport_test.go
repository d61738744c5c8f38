package shpexport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pointFC = `{"type":"FeatureCollection","features":[
	{"type":"Feature","geometry":{"type":"MultiPoint","coordinates":[[11.0,47.0],[11.1,47.1]]},
	 "properties":{"trackId":"t1","userId":"u1","activity":"ski","locationCountry":"AT"}},
	{"type":"Feature","geometry":{"type":"Point","coordinates":[11.2,47.2]},
	 "properties":{"trackId":"t2","userId":null,"activity":"hike"}},
	{"type":"Feature","geometry":{"type":"LineString","coordinates":[[0,0],[1,1]]},
	 "properties":{"trackId":"skipped"}}
]}`

func TestExportPoints(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "tracks.geojson")
	outPath := filepath.Join(dir, "tracks.shp")
	require.NoError(t, os.WriteFile(inPath, []byte(pointFC), 0o644))

	n, err := ExportPoints(inPath, outPath)
	require.NoError(t, err)
	assert.Equal(t, 3, n) // two MultiPoint members plus one Point; LineString skipped

	reader, err := shp.Open(outPath)
	require.NoError(t, err)
	defer reader.Close() //nolint:errcheck

	var rows int
	var sawTrack1 bool
	for reader.Next() {
		_, shape := reader.Shape()
		_, ok := shape.(*shp.Point)
		require.True(t, ok)
		if strings.TrimRight(reader.Attribute(0), "\x00") == "t1" {
			sawTrack1 = true
		}
		rows++
	}
	assert.Equal(t, 3, rows)
	assert.True(t, sawTrack1)
}

func TestExportPoints_NoPoints(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "lines.geojson")
	fc := `{"type":"FeatureCollection","features":[
		{"type":"Feature","geometry":{"type":"LineString","coordinates":[[0,0],[1,1]]},"properties":{}}
	]}`
	require.NoError(t, os.WriteFile(inPath, []byte(fc), 0o644))

	_, err := ExportPoints(inPath, filepath.Join(dir, "lines.shp"))
	assert.Error(t, err)
}

func TestExportPoints_MissingInput(t *testing.T) {
	dir := t.TempDir()
	_, err := ExportPoints(filepath.Join(dir, "absent.geojson"), filepath.Join(dir, "out.shp"))
	assert.Error(t, err)
}

func TestAttributeString(t *testing.T) {
	props := map[string]any{"trackId": "t1", "count": 3.0, "gone": nil}
	assert.Equal(t, "t1", attributeString(props, "trackId"))
	assert.Equal(t, "3", attributeString(props, "count"))
	assert.Equal(t, "", attributeString(props, "gone"))
	assert.Equal(t, "", attributeString(props, "missing"))
}
