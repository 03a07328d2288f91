package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"kwdetect/internal/detector"
)

func TestCollectorExportsLatestHistogram(t *testing.T) {
	c := NewCollector(2)
	c.OnSearchReceived(nil, 5)
	c.OnHistogramUpdate(nil, detector.FeatureFileName, []detector.Entry{
		{Token: "bunny", Count: 3},
		{Token: "buck", Count: 2},
		{Token: "720p", Count: 1},
	})

	expected := `
# HELP kwdetect_token_count Occurrences of a token in the latest published histogram
# TYPE kwdetect_token_count gauge
kwdetect_token_count{feature="file-name",token="buck"} 2
kwdetect_token_count{feature="file-name",token="bunny"} 3
`
	if err := testutil.CollectAndCompare(c, strings.NewReader(expected), "kwdetect_token_count"); err != nil {
		t.Fatalf("unexpected token metrics: %v", err)
	}

	expected = `
# HELP kwdetect_searches_processed_total Total non-empty search inputs ingested by the detector
# TYPE kwdetect_searches_processed_total counter
kwdetect_searches_processed_total 5
`
	if err := testutil.CollectAndCompare(c, strings.NewReader(expected), "kwdetect_searches_processed_total"); err != nil {
		t.Fatalf("unexpected processed metric: %v", err)
	}
}

func TestCollectorReplacesPreviousHistogram(t *testing.T) {
	c := NewCollector(0)
	c.OnHistogramUpdate(nil, detector.FeatureSearchSource, []detector.Entry{{Token: "old", Count: 1}})
	c.OnHistogramUpdate(nil, detector.FeatureSearchSource, []detector.Entry{{Token: "new", Count: 4}})

	expected := `
# HELP kwdetect_token_count Occurrences of a token in the latest published histogram
# TYPE kwdetect_token_count gauge
kwdetect_token_count{feature="search-source",token="new"} 4
# HELP kwdetect_histogram_updates_total Histogram updates delivered to the exporter
# TYPE kwdetect_histogram_updates_total counter
kwdetect_histogram_updates_total{feature="search-source"} 2
`
	if err := testutil.CollectAndCompare(c, strings.NewReader(expected), "kwdetect_token_count", "kwdetect_histogram_updates_total"); err != nil {
		t.Fatalf("unexpected metrics: %v", err)
	}
}

func TestCollectorKeepsOwnCopy(t *testing.T) {
	c := NewCollector(0)
	entries := []detector.Entry{{Token: "x", Count: 1}}
	c.OnHistogramUpdate(nil, detector.FeatureFileName, entries)
	entries[0].Count = 50

	expected := `
# HELP kwdetect_token_count Occurrences of a token in the latest published histogram
# TYPE kwdetect_token_count gauge
kwdetect_token_count{feature="file-name",token="x"} 1
`
	if err := testutil.CollectAndCompare(c, strings.NewReader(expected), "kwdetect_token_count"); err != nil {
		t.Fatalf("collector shares caller slice: %v", err)
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	c := NewCollector(10)
	d := detector.New()
	d.SetListener(c)
	d.AddSearchTerms(detector.FeatureFileName, "alpha beta")

	rec := httptest.NewRecorder()
	Handler(NewRegistry(c)).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "kwdetect_searches_processed_total 1") {
		t.Fatalf("metrics output missing processed counter:\n%s", body)
	}
}
