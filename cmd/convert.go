package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/slopeworks/geotracks/internal/batch"
)

var (
	convertOutputDir  string
	convertMultiPoint bool
	convertWorkers    int
	convertIndent     int
	convertNoLedger   bool
)

var convertCmd = &cobra.Command{
	Use:   "convert <input-dir>",
	Short: "Convert location-track JSON documents to GeoJSON",
	Long: "Converts every .json file in the input directory into a GeoJSON FeatureCollection. " +
		"With --multipoint, only LineString tracks are kept and each is relabeled as a MultiPoint " +
		"over the same coordinates (point-cloud input for heatmaps).",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if convertWorkers > 0 {
			cfg.Convert.Workers = convertWorkers
		}
		if cmd.Flags().Changed("indent") {
			cfg.Convert.Indent = convertIndent
		}
		if convertOutputDir != "" {
			cfg.Convert.OutputDir = convertOutputDir
		}
		if err := cfg.Validate("convert"); err != nil {
			return err
		}

		mode := batch.ModePassThrough
		if convertMultiPoint {
			mode = batch.ModeMultiPoint
		}

		opts := batch.Options{
			Mode:    mode,
			Workers: cfg.Convert.Workers,
			Indent:  cfg.Convert.Indent,
		}
		if !convertNoLedger {
			st := initStore(ctx)
			defer closeStore(st)
			opts.Ledger = st
		}

		summary, err := batch.Run(ctx, args[0], cfg.Convert.OutputDir, opts)
		if err != nil {
			return eris.Wrap(err, "convert")
		}

		printConvertSummary(summary)
		if summary.Found == 0 {
			fmt.Fprintln(os.Stderr, "No .json files found.")
		}
		return nil
	},
}

func init() {
	convertCmd.Flags().StringVarP(&convertOutputDir, "output-dir", "o", "", "output directory (default from config)")
	convertCmd.Flags().BoolVar(&convertMultiPoint, "multipoint", false, "keep only LineStrings, relabeled as MultiPoint")
	convertCmd.Flags().IntVar(&convertWorkers, "workers", 0, "concurrent documents (default from config)")
	convertCmd.Flags().IntVar(&convertIndent, "indent", 2, "output indentation in spaces, 0 for compact")
	convertCmd.Flags().BoolVar(&convertNoLedger, "no-ledger", false, "skip recording runs in the ledger")
	rootCmd.AddCommand(convertCmd)
}

func printConvertSummary(s batch.Summary) {
	fmt.Println("--- Conversion Summary ---")
	fmt.Printf("Total .json files found: %d\n", s.Found)
	fmt.Printf("Successfully converted:  %d\n", s.Converted)
	fmt.Printf("Nothing to write:        %d\n", s.Empty)
	fmt.Printf("Failed:                  %d\n", s.Failed)
	fmt.Println("--------------------------")
}
