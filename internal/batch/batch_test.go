package batch

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slopeworks/geotracks/internal/geojson"
	"github.com/slopeworks/geotracks/internal/store"
)

const validDoc = `{"items":[{"userId":"u1","tracks":[{"trackId":"t1","track":{"features":[
	{"type":"Feature","geometry":{"type":"LineString","coordinates":[[0,0],[1,1]]},"properties":{}}
]}}]}]}`

func writeInput(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestRun_MixedBatch(t *testing.T) {
	inDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "out")

	writeInput(t, inDir, "good.json", validDoc)
	writeInput(t, inDir, "broken.json", `{"items": [`)
	writeInput(t, inDir, "empty.json", `{"items": []}`)
	writeInput(t, inDir, "UPPER.JSON", validDoc)
	writeInput(t, inDir, "ignored.txt", "not json")

	summary, err := Run(context.Background(), inDir, outDir, Options{
		Mode:    ModePassThrough,
		Workers: 3,
		Indent:  2,
	})
	require.NoError(t, err)

	assert.Equal(t, 4, summary.Found)
	assert.Equal(t, 2, summary.Converted)
	assert.Equal(t, 1, summary.Empty)
	assert.Equal(t, 1, summary.Failed)

	// Converted files exist, failed and empty ones do not.
	assert.FileExists(t, filepath.Join(outDir, "good.geojson"))
	assert.FileExists(t, filepath.Join(outDir, "UPPER.geojson"))
	assert.NoFileExists(t, filepath.Join(outDir, "broken.geojson"))
	assert.NoFileExists(t, filepath.Join(outDir, "empty.geojson"))
}

func TestRun_MultiPointNaming(t *testing.T) {
	inDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "out")
	writeInput(t, inDir, "tracks.json", validDoc)

	summary, err := Run(context.Background(), inDir, outDir, Options{Mode: ModeMultiPoint})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Converted)

	outPath := filepath.Join(outDir, "tracks_multipoint.geojson")
	require.FileExists(t, outPath)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)

	var fc geojson.FeatureCollection
	require.NoError(t, json.Unmarshal(data, &fc))
	require.Len(t, fc.Features, 1)

	var geom geojson.Geometry
	require.NoError(t, json.Unmarshal(fc.Features[0].Geometry, &geom))
	assert.Equal(t, geojson.TypeMultiPoint, geom.Type)
}

func TestRun_InputDirMissing(t *testing.T) {
	_, err := Run(context.Background(), filepath.Join(t.TempDir(), "nope"), t.TempDir(), Options{})
	assert.Error(t, err)
}

func TestRun_RecordsLedgerRows(t *testing.T) {
	inDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "out")
	writeInput(t, inDir, "good.json", validDoc)
	writeInput(t, inDir, "broken.json", `not json at all`)

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	_, err = Run(context.Background(), inDir, outDir, Options{
		Mode:   ModePassThrough,
		Ledger: st,
	})
	require.NoError(t, err)

	runs, err := st.ListRuns(context.Background(), store.RunFilter{Kind: store.RunKindConvert})
	require.NoError(t, err)
	require.Len(t, runs, 2)

	byStatus := map[store.RunStatus]int{}
	for _, r := range runs {
		byStatus[r.Status]++
	}
	assert.Equal(t, 1, byStatus[store.RunStatusComplete])
	assert.Equal(t, 1, byStatus[store.RunStatusFailed])
}

func TestConvertFile_MissingInput(t *testing.T) {
	_, err := ConvertFile(filepath.Join(t.TempDir(), "absent.json"), "out.geojson", ModePassThrough, 2)
	assert.Error(t, err)
}

func TestModeOutputName(t *testing.T) {
	assert.Equal(t, "run1.geojson", ModePassThrough.OutputName("run1"))
	assert.Equal(t, "run1_multipoint.geojson", ModeMultiPoint.OutputName("run1"))
}
