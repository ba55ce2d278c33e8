// Package ffmpeg renders operation requests into ffmpeg argument vectors.
//
// The builder is pure: it never touches the filesystem or spawns processes.
// Each operation kind is a typed request validated before rendering, and the
// result is one or more Invocations carrying the argv, the artifacts the run
// must produce, and any sidecar files the executor has to materialize first.
package ffmpeg
