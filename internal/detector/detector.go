package detector

import (
	"log/slog"
	"strings"
	"sync/atomic"

	"kwdetect/internal/logging"
)

// Detector tokenizes search text and keeps a histogram per Feature.
//
// All methods are safe for concurrent use. Each histogram carries its own
// lock; the detector never locks across features.
type Detector struct {
	histograms map[Feature]*Histogram
	dispatcher Dispatcher
	logger     *slog.Logger

	listener             atomic.Pointer[listenerRef]
	numSearchesProcessed atomic.Int64
}

// listenerRef boxes the interface so it can be swapped atomically.
type listenerRef struct {
	l Listener
}

// Option configures a Detector.
type Option func(*Detector)

// WithDispatcher sets the facility that runs reporting tasks. A nil
// dispatcher keeps the SpawnDispatcher default.
func WithDispatcher(dispatcher Dispatcher) Option {
	return func(d *Detector) {
		if dispatcher != nil {
			d.dispatcher = dispatcher
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// New constructs a Detector with an empty histogram for every Feature.
func New(opts ...Option) *Detector {
	d := &Detector{
		histograms: make(map[Feature]*Histogram, len(featureNames)),
		dispatcher: SpawnDispatcher{},
		logger:     logging.NewNop(),
	}
	for _, feature := range Features() {
		d.histograms[feature] = NewHistogram()
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = logging.NewComponentLogger(d.logger, "detector")
	return d
}

// SetListener replaces the current listener. Passing nil removes it.
func (d *Detector) SetListener(l Listener) {
	if l == nil {
		d.listener.Store(nil)
		return
	}
	d.listener.Store(&listenerRef{l: l})
}

func (d *Detector) currentListener() Listener {
	ref := d.listener.Load()
	if ref == nil {
		return nil
	}
	return ref.l
}

// AddSearchTerms counts the non-stop-word tokens of text against feature.
//
// Text with no tokens is ignored entirely. Otherwise the processed counter
// increases by one, even when every token was a stop word, and the listener's
// OnSearchReceived runs before AddSearchTerms returns.
func (d *Detector) AddSearchTerms(feature Feature, text string) {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return
	}

	histogram := d.histograms[feature]
	if histogram == nil {
		d.logger.Debug("search terms for unregistered feature", logging.String("feature", feature.String()))
	} else {
		for _, token := range tokens {
			if !IsStopWord(token) {
				histogram.Update(token)
			}
		}
	}

	processed := d.numSearchesProcessed.Add(1)
	if l := d.currentListener(); l != nil {
		l.OnSearchReceived(d, processed)
	}
}

// RequestHistogramUpdate schedules delivery of feature's histogram to the
// listener and returns immediately. The snapshot is taken when the task
// runs, and the listener is looked up at that point too.
func (d *Detector) RequestHistogramUpdate(feature Feature) {
	histogram := d.histograms[feature]
	if histogram == nil {
		d.logger.Debug("histogram update for unregistered feature", logging.String("feature", feature.String()))
		return
	}
	d.dispatcher.Submit(func() {
		l := d.currentListener()
		if l == nil {
			return
		}
		l.OnHistogramUpdate(d, feature, histogram.Snapshot())
	})
}

// Snapshot returns feature's histogram synchronously without notifying the
// listener. The boolean is false for an unregistered feature.
func (d *Detector) Snapshot(feature Feature) ([]Entry, bool) {
	histogram := d.histograms[feature]
	if histogram == nil {
		return nil, false
	}
	return histogram.Snapshot(), true
}

// Reset clears every histogram. The processed counter and listener are kept.
func (d *Detector) Reset() {
	for _, histogram := range d.histograms {
		histogram.Reset()
	}
	d.logger.Debug("histograms reset")
}

// NumSearchesProcessed returns how many non-empty inputs have been ingested.
func (d *Detector) NumSearchesProcessed() int64 {
	return d.numSearchesProcessed.Load()
}
