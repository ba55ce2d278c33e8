// Package logging wraps log/slog with the handlers and attribute helpers
// used across clipforge. Console output is a compact single-line format;
// JSON output follows the usual structured shape. Loggers pick up job and
// operation identifiers from the request context.
package logging
