// Package store persists podpipe run history in SQLite.
//
// Three tables are kept: runs (one row per CLI invocation, keyed by a UUID),
// episodes (subscription titles matched to videos and their conversion
// outcome) and schedules (Podbean publishing attempts). The store is a
// record of what happened; the CSV files under paths.output_dir remain the
// interchange format.
package store
