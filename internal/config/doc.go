// Package config loads, normalizes, and validates kwdetect configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the KWDETECT_METRICS_BIND
// environment fallback. The Config type holds every knob the CLI and the
// serve loop need: where snapshots and logs live, how reporting tasks are
// dispatched, and how often histograms are published.
//
// The stop-word list is deliberately absent; it is fixed in the detector
// package and changes only with a source edit.
package config
