// Command kwdetect counts keywords in search queries and reports per-feature
// histograms.
//
// `kwdetect ingest` reads one query per line and prints the resulting
// histogram. `kwdetect serve` keeps a detector running over a stream of
// tab-separated "feature<TAB>text" lines, publishing snapshots to the SQLite
// store and the Prometheus endpoint on an interval. The `snapshots` commands
// inspect what was stored; `config` writes and validates configuration.
package main
