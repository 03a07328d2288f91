// Package logging assembles the structured slog loggers used across kwdetect.
//
// It owns the console and JSON handlers, level parsing, and output plumbing.
// NewFromConfig tees records to stderr in the configured format and to the
// log file as JSON lines. The package also exposes small attribute helpers so
// components tag their lines with a consistent "component" key. A no-op
// logger is provided for tests and for library code constructed without one.
//
// Logs go to stderr by default so that command output on stdout stays clean
// for tables and JSON.
package logging
