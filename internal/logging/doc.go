// Package logging constructs the application's slog loggers and carries the
// standardized attribute vocabulary used across the core packages.
//
// Loggers write JSON or text to stdout and, when a data directory is
// configured, to a log file beside the database. Context helpers propagate
// project, image, and export-run identifiers so store and export logs can be
// correlated without threading attributes by hand.
package logging
