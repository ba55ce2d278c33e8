// Package lifecycle tracks process-wide shutdown state.
//
// A single Manager owns the Running -> ShuttingDown -> Stopped progression;
// everything else observes it through State or the derived context. Shutdown
// is expressed as context cancellation so long-running calls unwind without
// polling shared flags.
package lifecycle
