// Package metrics exports detector state to Prometheus.
package metrics

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kwdetect/internal/detector"
)

var (
	searchesProcessedDesc = prometheus.NewDesc(
		"kwdetect_searches_processed_total",
		"Total non-empty search inputs ingested by the detector",
		nil,
		nil,
	)
	tokenCountDesc = prometheus.NewDesc(
		"kwdetect_token_count",
		"Occurrences of a token in the latest published histogram",
		[]string{"feature", "token"},
		nil,
	)
	distinctTokensDesc = prometheus.NewDesc(
		"kwdetect_distinct_tokens",
		"Distinct tokens in the latest published histogram",
		[]string{"feature"},
		nil,
	)
	histogramUpdatesDesc = prometheus.NewDesc(
		"kwdetect_histogram_updates_total",
		"Histogram updates delivered to the exporter",
		[]string{"feature"},
		nil,
	)
)

// Collector is a Prometheus collector fed by detector notifications. It keeps
// the latest histogram per feature and emits at most maxTokens token series
// for each.
type Collector struct {
	maxTokens int
	processed atomic.Int64

	mu      sync.RWMutex
	latest  map[detector.Feature][]detector.Entry
	updates map[detector.Feature]uint64
}

// NewCollector returns a collector exporting up to maxTokens tokens per
// feature; maxTokens <= 0 exports all of them.
func NewCollector(maxTokens int) *Collector {
	return &Collector{
		maxTokens: maxTokens,
		latest:    make(map[detector.Feature][]detector.Entry),
		updates:   make(map[detector.Feature]uint64),
	}
}

// OnSearchReceived records the processed count.
func (c *Collector) OnSearchReceived(_ *detector.Detector, numSearchesProcessed int64) {
	c.processed.Store(numSearchesProcessed)
}

// OnHistogramUpdate stores the head of the histogram for the next scrape.
func (c *Collector) OnHistogramUpdate(_ *detector.Detector, feature detector.Feature, histogram []detector.Entry) {
	head := detector.Top(histogram, c.maxTokens)
	kept := append(make([]detector.Entry, 0, len(head)), head...)

	c.mu.Lock()
	c.latest[feature] = kept
	c.updates[feature]++
	c.mu.Unlock()
}

// Describe sends the metric descriptors to the channel.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- searchesProcessedDesc
	ch <- tokenCountDesc
	ch <- distinctTokensDesc
	ch <- histogramUpdatesDesc
}

// Collect emits the current values as const metrics.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(searchesProcessedDesc, prometheus.CounterValue, float64(c.processed.Load()))

	c.mu.RLock()
	defer c.mu.RUnlock()
	for feature, entries := range c.latest {
		name := feature.String()
		ch <- prometheus.MustNewConstMetric(distinctTokensDesc, prometheus.GaugeValue, float64(len(entries)), name)
		ch <- prometheus.MustNewConstMetric(histogramUpdatesDesc, prometheus.CounterValue, float64(c.updates[feature]), name)
		for _, e := range entries {
			ch <- prometheus.MustNewConstMetric(tokenCountDesc, prometheus.GaugeValue, float64(e.Count), name, e.Token)
		}
	}
}

// NewRegistry returns a registry with the collector and the Go runtime collectors.
func NewRegistry(c *Collector) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(c)
	reg.MustRegister(collectors.NewGoCollector())
	return reg
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
