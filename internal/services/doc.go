// Package services defines the shared error taxonomy and context plumbing
// used across the engine. Every failure surfaced to callers is tagged with
// one of the exported sentinel errors so call sites can classify outcomes
// with errors.Is without string matching.
package services
