package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"kwdetect/internal/detector"
	"kwdetect/internal/dispatch"
	"kwdetect/internal/logging"
	"kwdetect/internal/metrics"
	"kwdetect/internal/store"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Ingest tagged queries from stdin and publish histograms periodically",
		Long: `Reads "feature<TAB>text" lines from stdin until EOF or interrupt. Every
report interval the histogram of each feature is published to the snapshot
store, the Prometheus exporter, and the log. A final publish runs on exit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := logging.NewComponentLogger(ctx.logger(), "serve")
			if !cmd.Flags().Changed("interval") {
				interval = time.Duration(cfg.Report.IntervalSeconds) * time.Second
			}
			if interval <= 0 {
				return fmt.Errorf("report interval must be positive")
			}

			dispatcher, shutdownDispatcher := dispatch.FromConfig(cfg, ctx.logger())
			det := detector.New(detector.WithDispatcher(dispatcher), detector.WithLogger(ctx.logger()))

			listeners := []detector.Listener{newLogListener(logger, cfg.Report.Top)}

			if cfg.Store.Enabled {
				st, err := ctx.openStore(true)
				if err != nil {
					return fmt.Errorf("open snapshot store: %w", err)
				}
				defer st.Close()
				listeners = append(listeners, store.NewRecorder(st, cfg.Store.Keep, ctx.logger()))
			}

			var server *metricsServer
			if cfg.Metrics.Enabled {
				collector := metrics.NewCollector(cfg.Metrics.MaxTokens)
				listeners = append(listeners, collector)
				server = newMetricsServer(collector, ctx.logger())
				if err := server.start(cfg.Metrics.Bind); err != nil {
					return err
				}
				defer server.stop()
			}

			listener := detector.MultiListener(listeners...)
			det.SetListener(listener)

			runCtx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			lines := make(chan string)
			readErr := make(chan error, 1)
			go func() {
				defer close(lines)
				readErr <- scanLines(runCtx, cmd.InOrStdin(), func(line string) error {
					select {
					case lines <- line:
						return nil
					case <-runCtx.Done():
						return runCtx.Err()
					}
				})
			}()

			logger.Info("serving",
				logging.Duration("interval", interval),
				logging.String("dispatch", cfg.Dispatch.Mode),
				logging.Bool("store", cfg.Store.Enabled),
				logging.String("metrics", server.addr()),
			)

			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			var (
				skipped int
				inputErr error
			)
		loop:
			for {
				select {
				case line, ok := <-lines:
					if !ok {
						inputErr = <-readErr
						break loop
					}
					feature, text, err := parseTaggedLine(line)
					if err != nil {
						skipped++
						logger.Warn("skipping malformed input line", logging.Error(err))
						continue
					}
					det.AddSearchTerms(feature, text)
				case <-ticker.C:
					for _, f := range detector.Features() {
						det.RequestHistogramUpdate(f)
					}
				case <-runCtx.Done():
					break loop
				}
			}
			cancel()

			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancelShutdown()
			if err := shutdownDispatcher(shutdownCtx); err != nil {
				logger.Warn("dispatcher shutdown", logging.Error(err))
			}

			// Final publish runs synchronously so it lands after every queued report.
			for _, f := range detector.Features() {
				entries, _ := det.Snapshot(f)
				listener.OnHistogramUpdate(det, f, entries)
			}

			logger.Info("serve stopped",
				logging.Int64("searches_processed", det.NumSearchesProcessed()),
				logging.Int("skipped_lines", skipped),
			)

			if inputErr != nil {
				return fmt.Errorf("read stdin: %w", inputErr)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "Publish interval (default from config report.interval_seconds)")
	return cmd
}

const logTopEntries = 5

// logListener writes a summary of each published histogram to the log.
type logListener struct {
	logger *slog.Logger
	top    int
}

func newLogListener(logger *slog.Logger, top int) logListener {
	return logListener{logger: logger, top: top}
}

func (l logListener) OnSearchReceived(*detector.Detector, int64) {}

func (l logListener) OnHistogramUpdate(d *detector.Detector, feature detector.Feature, histogram []detector.Entry) {
	attrs := []any{
		logging.String(logging.FieldFeature, feature.String()),
		logging.Int("distinct_tokens", len(histogram)),
		logging.Int64("searches_processed", d.NumSearchesProcessed()),
	}
	n := logTopEntries
	if l.top > 0 && l.top < n {
		n = l.top
	}
	top := detector.Top(histogram, n)
	if len(top) > 0 {
		parts := make([]string, 0, len(top))
		for _, e := range top {
			parts = append(parts, fmt.Sprintf("%s:%d", e.Token, e.Count))
		}
		attrs = append(attrs, logging.String("top", strings.Join(parts, " ")))
	}
	l.logger.Info("histogram published", attrs...)
}
