// Package executor runs one external process per call under a timeout.
//
// A run owns exactly one child process and releases it on every exit path.
// Timeout and cancellation both follow the same terminate-then-kill sequence
// against the child's process group, and declared artifacts are verified
// after a clean exit so a lying exit code cannot pass off missing output as
// success.
package executor
