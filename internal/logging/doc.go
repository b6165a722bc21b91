// Package logging assembles structured slog loggers and formatting helpers used
// across paddock.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so run code can automatically
// tag log lines with run IDs and entity types. The package also provides a
// no-op logger for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits records with the same keys.
package logging
