package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/slopeworks/geotracks/internal/shpexport"
	"github.com/slopeworks/geotracks/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export converted GeoJSON to other GIS formats",
}

var exportShpCmd = &cobra.Command{
	Use:   "shp <input.geojson> <output.shp>",
	Short: "Write a point shapefile from a (Multi)Point FeatureCollection",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		count, err := shpexport.ExportPoints(args[0], args[1])

		st := initStore(ctx)
		defer closeStore(st)
		if st != nil {
			run := &store.Run{
				Kind:   store.RunKindExport,
				Input:  args[0],
				Output: args[1],
				Mode:   "shp",
				Count:  count,
				Status: store.RunStatusComplete,
			}
			if err != nil {
				run.Status = store.RunStatusFailed
				run.Error = err.Error()
				run.Output = ""
			}
			_ = st.RecordRun(ctx, run)
		}

		if err != nil {
			return err
		}
		fmt.Printf("Wrote %d points to %s\n", count, args[1])
		return nil
	},
}

func init() {
	exportCmd.AddCommand(exportShpCmd)
	rootCmd.AddCommand(exportCmd)
}
