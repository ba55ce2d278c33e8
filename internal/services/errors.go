package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidParameters marks malformed or contradictory operation
	// parameters, caught before any process is spawned.
	ErrInvalidParameters = errors.New("invalid parameters")
	// ErrExecutableNotFound marks a failed binary resolution. Not retried.
	ErrExecutableNotFound = errors.New("executable not found")
	// ErrProcessFailed marks a tool that ran and reported failure.
	ErrProcessFailed = errors.New("process failed")
	// ErrTimeout marks a child process that exceeded its deadline.
	ErrTimeout = errors.New("process timed out")
	// ErrCancelled marks a job cancelled by its caller or by shutdown.
	ErrCancelled = errors.New("process cancelled")
	// ErrProbeParse marks probe output that could not be decoded.
	ErrProbeParse = errors.New("probe parse error")
	// ErrChapterIndex marks a chapter index outside [0, len).
	ErrChapterIndex = errors.New("chapter index out of range")
	// ErrShuttingDown marks submissions rejected during shutdown.
	ErrShuttingDown = errors.New("shutting down")
	// ErrQueueFull marks submissions rejected because the pending queue is
	// at capacity.
	ErrQueueFull = errors.New("queue full")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrProcessFailed
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Message strips sentinel prefixes from an error chain, returning the
// human-readable remainder for progress and queue records.
func Message(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, sentinel := range []error{
		ErrInvalidParameters, ErrExecutableNotFound, ErrProcessFailed,
		ErrTimeout, ErrCancelled, ErrProbeParse, ErrChapterIndex, ErrShuttingDown,
		ErrQueueFull,
	} {
		prefix := sentinel.Error() + ": "
		if strings.HasPrefix(msg, prefix) {
			return strings.TrimPrefix(msg, prefix)
		}
	}
	return msg
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
