// Package batch drives directory-scale conversion: every .json document
// in an input directory is converted to GeoJSON independently, failures
// are tallied per file, and one bad document never aborts the rest.
package batch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/slopeworks/geotracks/internal/extract"
	"github.com/slopeworks/geotracks/internal/store"
)

// Mode selects the geometry handling for a conversion run.
type Mode string

const (
	// ModePassThrough keeps every feature with its geometry untouched.
	ModePassThrough Mode = "passthrough"
	// ModeMultiPoint keeps only LineString features, relabeled as
	// MultiPoint over the same coordinates.
	ModeMultiPoint Mode = "multipoint"
)

// Transform returns the geometry strategy for the mode.
func (m Mode) Transform() extract.GeometryTransform {
	if m == ModeMultiPoint {
		return extract.LineStringToMultiPoint
	}
	return extract.Identity
}

// OutputName maps an input base name (without extension) to the output
// file name for the mode.
func (m Mode) OutputName(base string) string {
	if m == ModeMultiPoint {
		return base + "_multipoint.geojson"
	}
	return base + ".geojson"
}

// Options configures a batch run.
type Options struct {
	Mode    Mode
	Workers int
	Indent  int
	Ledger  store.Store // optional; run rows are recorded best-effort
}

// Summary tallies one batch run.
type Summary struct {
	Found     int `json:"found"`
	Converted int `json:"converted"`
	Empty     int `json:"empty"`
	Failed    int `json:"failed"`
}

// Run converts every *.json file in inputDir into outputDir. Documents
// are independent, so they are processed concurrently up to
// Options.Workers. The returned error covers setup problems only;
// per-document failures land in the summary.
func Run(ctx context.Context, inputDir, outputDir string, opts Options) (Summary, error) {
	info, err := os.Stat(inputDir)
	if err != nil || !info.IsDir() {
		return Summary{}, eris.Errorf("batch: input directory %s not found", inputDir)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return Summary{}, eris.Wrap(err, "batch: create output directory")
	}

	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return Summary{}, eris.Wrap(err, "batch: read input directory")
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}

	log := zap.L().With(zap.String("component", "batch"))

	var inputs []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			continue
		}
		inputs = append(inputs, e.Name())
	}

	log.Info("starting conversion batch",
		zap.String("input_dir", inputDir),
		zap.String("output_dir", outputDir),
		zap.String("mode", string(opts.Mode)),
		zap.Int("files", len(inputs)),
		zap.Int("workers", workers),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var converted, empty, failed atomic.Int64

	for _, name := range inputs {
		inputPath := filepath.Join(inputDir, name)
		base := strings.TrimSuffix(name, filepath.Ext(name))
		outputPath := filepath.Join(outputDir, opts.Mode.OutputName(base))

		g.Go(func() error {
			flog := log.With(zap.String("file", name))

			count, err := ConvertFile(inputPath, outputPath, opts.Mode, opts.Indent)
			switch {
			case err == nil:
				converted.Add(1)
				flog.Info("converted", zap.Int("features", count),
					zap.String("output", outputPath))
				recordRun(gctx, opts, inputPath, outputPath, count, store.RunStatusComplete, nil)
			case eris.Is(err, extract.ErrEmpty):
				empty.Add(1)
				flog.Info("no qualifying features, nothing to write")
				recordRun(gctx, opts, inputPath, "", 0, store.RunStatusEmpty, nil)
			default:
				failed.Add(1)
				flog.Error("conversion failed", zap.Error(err))
				recordRun(gctx, opts, inputPath, "", 0, store.RunStatusFailed, err)
			}
			return nil // never abort the batch on a single document
		})
	}

	if err := g.Wait(); err != nil {
		return Summary{}, eris.Wrap(err, "batch: wait")
	}

	summary := Summary{
		Found:     len(inputs),
		Converted: int(converted.Load()),
		Empty:     int(empty.Load()),
		Failed:    int(failed.Load()),
	}

	log.Info("batch complete",
		zap.Int("found", summary.Found),
		zap.Int("converted", summary.Converted),
		zap.Int("empty", summary.Empty),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}

// ConvertFile converts one document. It returns the number of emitted
// features; extract.ErrEmpty means no output file was produced.
func ConvertFile(inputPath, outputPath string, mode Mode, indent int) (int, error) {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return 0, eris.Wrapf(err, "batch: read %s", inputPath)
	}

	fc, err := extract.Extract(data, mode.Transform())
	if err != nil {
		return 0, err
	}

	out, err := fc.Encode(indent)
	if err != nil {
		return 0, err
	}

	if err := os.WriteFile(outputPath, out, 0o644); err != nil {
		return 0, eris.Wrapf(err, "batch: write %s", outputPath)
	}
	return len(fc.Features), nil
}

// recordRun writes a ledger row if a store is configured. Ledger
// problems are logged, never surfaced: the conversion result stands on
// its own.
func recordRun(ctx context.Context, opts Options, input, output string, count int, status store.RunStatus, runErr error) {
	if opts.Ledger == nil {
		return
	}

	run := &store.Run{
		Kind:   store.RunKindConvert,
		Input:  input,
		Output: output,
		Mode:   string(opts.Mode),
		Count:  count,
		Status: status,
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}

	if err := opts.Ledger.RecordRun(ctx, run); err != nil {
		zap.L().Warn("batch: ledger write failed", zap.Error(err))
	}
}
