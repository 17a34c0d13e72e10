// Package logging assembles the structured slog loggers used across podpipe.
//
// It owns the console and JSON handlers, tees output to the log file under
// paths.log_dir, and exposes context-aware helpers so pipeline code can tag
// lines with the run ID and stage automatically. NewNop gives tests and
// optional wiring a logger that discards everything.
package logging
