package store

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"kwdetect/internal/detector"
	"kwdetect/internal/logging"
)

const recordTimeout = 10 * time.Second

// Recorder saves every histogram update it receives. Failures are logged and
// never reach the detector.
type Recorder struct {
	store  *Store
	keep   int
	logger *slog.Logger

	saved  atomic.Int64
	failed atomic.Int64
}

// NewRecorder returns a listener that writes to store, pruning each feature
// to keep snapshots after a save (keep <= 0 disables pruning).
func NewRecorder(store *Store, keep int, logger *slog.Logger) *Recorder {
	return &Recorder{
		store:  store,
		keep:   keep,
		logger: logging.NewComponentLogger(logger, "recorder"),
	}
}

// OnSearchReceived is a no-op; the processed count is read from the detector when saving.
func (r *Recorder) OnSearchReceived(*detector.Detector, int64) {}

// OnHistogramUpdate persists the histogram.
func (r *Recorder) OnHistogramUpdate(d *detector.Detector, feature detector.Feature, histogram []detector.Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	var processed int64
	if d != nil {
		processed = d.NumSearchesProcessed()
	}

	snap, err := r.store.Save(ctx, feature, processed, histogram)
	if err != nil {
		r.failed.Add(1)
		r.logger.Error("failed to save histogram snapshot",
			logging.String(logging.FieldFeature, feature.String()),
			logging.Error(err),
		)
		return
	}
	r.saved.Add(1)

	removed, err := r.store.Prune(ctx, feature, r.keep)
	if err != nil {
		r.logger.Warn("failed to prune snapshots", logging.String(logging.FieldFeature, feature.String()), logging.Error(err))
	}
	r.logger.Debug("histogram snapshot saved",
		logging.String("id", snap.ID),
		logging.String(logging.FieldFeature, feature.String()),
		logging.Int("tokens", snap.DistinctTokens),
		logging.Int64("pruned", removed),
	)
}

// Saved returns the number of snapshots written.
func (r *Recorder) Saved() int64 { return r.saved.Load() }

// Failed returns the number of snapshots that could not be written.
func (r *Recorder) Failed() int64 { return r.failed.Load() }
