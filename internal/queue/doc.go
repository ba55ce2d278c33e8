// Package queue persists the job history in SQLite. Every submitted
// operation gets a record at submission time; the engine updates it as the
// job runs and finishes, so the history survives restarts and is queryable
// from the CLI.
package queue
