// Package ffprobe inspects media files through the ffprobe executable and
// decodes its JSON report into the metadata model. Probing is read-only and
// idempotent: repeated probes of an unchanged file return structurally equal
// results.
package ffprobe
