// Package logging assembles structured slog loggers and formatting helpers used
// across batchscribe.
//
// It owns the console and JSON handlers, fans records out to the terminal and
// the run log file, and exposes context-aware helpers so pipeline code can tag
// log lines with the run ID, the file being processed, and the active stage.
// A no-op logger is provided for tests and wiring code that cannot fail.
package logging
