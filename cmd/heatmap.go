package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/slopeworks/geotracks/internal/heatmap"
	"github.com/slopeworks/geotracks/internal/store"
)

var (
	heatmapOutputDir string
	heatmapRadius    float64
	heatmapPixelSize float64
	heatmapKernel    string
)

var heatmapCmd = &cobra.Command{
	Use:   "heatmap <input-dir>",
	Short: "Rasterize GeoJSON point folders into KDE heatmap PNGs",
	Long: "For every subdirectory of the input directory, merges the points of all contained " +
		".geojson files and renders one kernel-density heatmap image. Radius and pixel size are " +
		"in the coordinate units of the data (degrees for lat/lon input).",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if heatmapOutputDir != "" {
			cfg.Heatmap.OutputDir = heatmapOutputDir
		}
		if cmd.Flags().Changed("radius") {
			cfg.Heatmap.Radius = heatmapRadius
		}
		if cmd.Flags().Changed("pixel-size") {
			cfg.Heatmap.PixelSize = heatmapPixelSize
		}
		if heatmapKernel != "" {
			cfg.Heatmap.Kernel = heatmapKernel
		}
		if err := cfg.Validate("heatmap"); err != nil {
			return err
		}

		results, err := heatmap.GenerateAll(args[0], cfg.Heatmap.OutputDir, heatmap.Options{
			Radius:    cfg.Heatmap.Radius,
			PixelSize: cfg.Heatmap.PixelSize,
			Kernel:    heatmap.Kernel(cfg.Heatmap.Kernel),
		})
		if err != nil {
			return eris.Wrap(err, "heatmap")
		}

		st := initStore(ctx)
		defer closeStore(st)
		if st != nil {
			for _, r := range results {
				run := &store.Run{
					Kind:   store.RunKindHeatmap,
					Input:  r.Folder,
					Output: r.Output,
					Mode:   cfg.Heatmap.Kernel,
					Count:  r.Points,
					Status: folderStatus(r),
				}
				if r.Err != nil {
					run.Error = r.Err.Error()
				}
				_ = st.RecordRun(ctx, run)
			}
		}

		printHeatmapSummary(results)
		return nil
	},
}

func init() {
	heatmapCmd.Flags().StringVarP(&heatmapOutputDir, "output-dir", "o", "", "output directory (default from config)")
	heatmapCmd.Flags().Float64Var(&heatmapRadius, "radius", 0, "kernel radius in coordinate units (default from config)")
	heatmapCmd.Flags().Float64Var(&heatmapPixelSize, "pixel-size", 0, "raster cell size in coordinate units (default from config)")
	heatmapCmd.Flags().StringVar(&heatmapKernel, "kernel", "", "density kernel: quartic, triangular, uniform, epanechnikov")
	rootCmd.AddCommand(heatmapCmd)
}

func folderStatus(r heatmap.FolderResult) store.RunStatus {
	switch {
	case r.Err != nil:
		return store.RunStatusFailed
	case r.Output == "":
		return store.RunStatusEmpty
	default:
		return store.RunStatusComplete
	}
}

func printHeatmapSummary(results []heatmap.FolderResult) {
	var rendered, skipped, failed int
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed++
		case r.Output == "":
			skipped++
		default:
			rendered++
		}
	}
	fmt.Println("--- Heatmap Summary ---")
	fmt.Printf("Folders processed: %d\n", len(results))
	fmt.Printf("Heatmaps rendered: %d\n", rendered)
	fmt.Printf("Skipped (no points): %d\n", skipped)
	fmt.Printf("Failed: %d\n", failed)
	fmt.Println("-----------------------")
}
