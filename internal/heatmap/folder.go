package heatmap

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// FolderResult is the outcome of rasterizing one subfolder of GeoJSON
// files.
type FolderResult struct {
	Folder string
	Output string
	Points int
	Err    error
}

// GenerateAll renders one heatmap per subdirectory of inputDir: all
// .geojson files under a subdirectory merge into a single density
// surface written to outputDir as <name>_heatmap.png. Folders without
// points are skipped, not failed.
func GenerateAll(inputDir, outputDir string, opts Options) ([]FolderResult, error) {
	info, err := os.Stat(inputDir)
	if err != nil || !info.IsDir() {
		return nil, eris.Errorf("heatmap: input directory %s not found", inputDir)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, eris.Wrap(err, "heatmap: create output directory")
	}

	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, eris.Wrap(err, "heatmap: read input directory")
	}

	log := zap.L().With(zap.String("component", "heatmap"))

	var results []FolderResult
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := e.Name()
		result := generateOne(filepath.Join(inputDir, name), outputDir, name, opts)

		switch {
		case result.Err != nil:
			log.Error("heatmap failed", zap.String("folder", name), zap.Error(result.Err))
		case result.Output == "":
			log.Warn("no points found, skipping folder", zap.String("folder", name))
		default:
			log.Info("heatmap written",
				zap.String("folder", name),
				zap.String("output", result.Output),
				zap.Int("points", result.Points),
			)
		}
		results = append(results, result)
	}

	if len(results) == 0 {
		log.Warn("no subdirectories to process", zap.String("input_dir", inputDir))
	}
	return results, nil
}

func generateOne(folder, outputDir, name string, opts Options) FolderResult {
	result := FolderResult{Folder: folder}

	points, err := CollectPoints(folder)
	if err != nil {
		result.Err = err
		return result
	}
	result.Points = len(points)
	if len(points) == 0 {
		return result
	}

	grid, err := Rasterize(points, opts)
	if err != nil {
		result.Err = err
		return result
	}

	outPath := filepath.Join(outputDir, name+"_heatmap.png")
	f, err := os.Create(outPath)
	if err != nil {
		result.Err = eris.Wrapf(err, "heatmap: create %s", outPath)
		return result
	}
	defer f.Close() //nolint:errcheck

	if err := grid.WritePNG(f); err != nil {
		result.Err = err
		return result
	}

	result.Output = outPath
	return result
}
