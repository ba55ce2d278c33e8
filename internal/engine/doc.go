// Package engine ties the pieces together: it validates operations against
// probe data, renders them into ffmpeg invocations, submits them to the
// worker pool, and keeps the job history current while they run.
package engine
