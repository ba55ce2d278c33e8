package ffmpeg

import (
	"fmt"
	"sort"
	"time"

	"clipforge/internal/media"
)

// Range is a half-open [Start, End) slice of a file's timeline.
type Range struct {
	Start time.Duration
	End   time.Duration
}

func (r Range) valid() bool {
	return r.Start >= 0 && r.Start < r.End
}

func (r Range) String() string {
	return fmt.Sprintf("%s..%s", media.FormatTimestamp(r.Start), media.FormatTimestamp(r.End))
}

// normalizeRanges sorts ranges by start and merges any that touch or overlap,
// so downstream expansion is deterministic regardless of input order.
func normalizeRanges(ranges []Range) []Range {
	sorted := make([]Range, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})

	merged := sorted[:0]
	for _, r := range sorted {
		if n := len(merged); n > 0 && r.Start <= merged[n-1].End {
			if r.End > merged[n-1].End {
				merged[n-1].End = r.End
			}
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

func validateRanges(operation string, ranges []Range, duration time.Duration) error {
	if len(ranges) == 0 {
		return invalid(operation, "no ranges given")
	}
	for _, r := range ranges {
		if !r.valid() {
			return invalid(operation, fmt.Sprintf("range %s has start not before end", r))
		}
		if duration > 0 && r.End > duration {
			return invalid(operation, fmt.Sprintf("range %s exceeds file duration %s", r, media.FormatTimestamp(duration)))
		}
	}
	return nil
}
