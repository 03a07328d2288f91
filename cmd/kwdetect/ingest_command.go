package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"kwdetect/internal/detector"
	"kwdetect/internal/dispatch"
	"kwdetect/internal/logging"
	"kwdetect/internal/store"
)

const shutdownTimeout = 10 * time.Second

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var (
		featureName string
		tagged      bool
		top         int
		save        bool
		jsonOutput  bool
	)

	cmd := &cobra.Command{
		Use:   "ingest [files...]",
		Short: "Count keywords from queries, one per line, and print the histogram",
		Long: `Reads search queries one per line from the given files (or stdin) and
prints the keyword histogram. With --tagged each line is "feature<TAB>text"
and every feature is reported.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.logger()

			features := detector.Features()
			var feature detector.Feature
			if !tagged {
				if feature, err = detector.ParseFeature(featureName); err != nil {
					return err
				}
				features = []detector.Feature{feature}
			}
			if !cmd.Flags().Changed("top") {
				top = cfg.Report.Top
			}

			dispatcher, shutdown := dispatch.FromConfig(cfg, logger)
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := shutdown(shutdownCtx); err != nil {
					logger.Warn("dispatcher shutdown", logging.Error(err))
				}
			}()
			det := detector.New(detector.WithDispatcher(dispatcher), detector.WithLogger(logger))

			var listeners []detector.Listener
			var recorder *store.Recorder
			if save {
				st, err := ctx.openStore(true)
				if err != nil {
					return fmt.Errorf("open snapshot store: %w", err)
				}
				defer st.Close()
				recorder = store.NewRecorder(st, cfg.Store.Keep, logger)
				listeners = append(listeners, recorder)
			}

			results := make(chan histogramReport, len(features))
			listeners = append(listeners, detector.ListenerFuncs{
				HistogramUpdate: func(d *detector.Detector, f detector.Feature, entries []detector.Entry) {
					results <- newHistogramReport(f, d.NumSearchesProcessed(), entries, top)
				},
			})
			det.SetListener(detector.MultiListener(listeners...))

			err = forEachInput(cmd.Context(), cmd.InOrStdin(), args, func(line string) error {
				if !tagged {
					det.AddSearchTerms(feature, line)
					return nil
				}
				f, text, err := parseTaggedLine(line)
				if err != nil {
					logger.Warn("skipping malformed input line", logging.Error(err))
					return nil
				}
				det.AddSearchTerms(f, text)
				return nil
			})
			if err != nil {
				return err
			}

			for _, f := range features {
				det.RequestHistogramUpdate(f)
			}
			reports := make(map[detector.Feature]histogramReport, len(features))
			for len(reports) < len(features) {
				select {
				case report := <-results:
					reports[report.Feature] = report
				case <-cmd.Context().Done():
					return cmd.Context().Err()
				}
			}

			ordered := make([]histogramReport, 0, len(features))
			for _, f := range features {
				ordered = append(ordered, reports[f])
			}

			if jsonOutput {
				return writeJSON(cmd, ordered)
			}
			out := cmd.OutOrStdout()
			for i, report := range ordered {
				if i > 0 {
					fmt.Fprintln(out)
				}
				writeHistogram(out, report)
			}
			if recorder != nil {
				fmt.Fprintf(out, "Saved %d snapshot(s) to %s\n", recorder.Saved(), cfg.Store.Path)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&featureName, "feature", "f", detector.FeatureFileName.String(), "Feature the queries belong to (file-name, file-extension, search-source)")
	cmd.Flags().BoolVar(&tagged, "tagged", false, "Input lines are \"feature<TAB>text\"; report every feature")
	cmd.Flags().IntVarP(&top, "top", "n", 0, "Entries to show per feature (0 shows all; default from config)")
	cmd.Flags().BoolVar(&save, "save", false, "Persist the histogram to the snapshot store")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output JSON")
	return cmd
}
