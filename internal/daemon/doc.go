// Package daemon owns the resident process: it enforces single-instance
// execution with a lock file, bootstraps the engine, and winds it down when
// the surrounding context is cancelled.
package daemon
