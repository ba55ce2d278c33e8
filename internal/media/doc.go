// Package media holds the passive metadata model shared by the probe, the
// command builder, and the chapter editor: stream and chapter records,
// container-level file info, and timestamp parsing. Values are snapshots;
// edits always produce new slices.
package media
