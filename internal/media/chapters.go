package media

import (
	"fmt"
	"sort"
	"time"

	"clipforge/internal/services"
)

// ChapterChange carries the optional fields of an edit. Nil fields keep the
// existing value.
type ChapterChange struct {
	Start *time.Duration
	End   *time.Duration
	Title *string
}

// AddChapters inserts entries into an existing sequence, re-sorts by start
// time, and re-indexes from 0. Entries that overlap each other or the
// existing sequence are rejected.
func AddChapters(existing []ChapterEntry, entries ...ChapterEntry) ([]ChapterEntry, error) {
	if len(entries) == 0 {
		return reindex(existing), nil
	}
	for _, entry := range entries {
		if !entry.Valid() {
			return nil, services.Wrap(services.ErrInvalidParameters, "chapters", "add",
				fmt.Sprintf("chapter %q has start %s not before end %s", entry.Title, FormatTimestamp(entry.Start), FormatTimestamp(entry.End)), nil)
		}
	}

	merged := make([]ChapterEntry, 0, len(existing)+len(entries))
	merged = append(merged, existing...)
	merged = append(merged, entries...)
	sortByStart(merged)

	for i := 1; i < len(merged); i++ {
		if merged[i-1].Overlaps(merged[i]) {
			return nil, services.Wrap(services.ErrInvalidParameters, "chapters", "add",
				fmt.Sprintf("chapter %q overlaps %q", merged[i-1].Title, merged[i].Title), nil)
		}
	}
	return reindex(merged), nil
}

// EditChapter applies the provided fields to the chapter at index, then
// re-validates ordering and non-overlap against its neighbours.
func EditChapter(existing []ChapterEntry, index int, change ChapterChange) ([]ChapterEntry, error) {
	if index < 0 || index >= len(existing) {
		return nil, services.Wrap(services.ErrChapterIndex, "chapters", "edit",
			fmt.Sprintf("index %d of %d", index, len(existing)), nil)
	}

	out := cloneChapters(existing)
	target := &out[index]
	if change.Start != nil {
		target.Start = *change.Start
	}
	if change.End != nil {
		target.End = *change.End
	}
	if change.Title != nil {
		target.Title = *change.Title
	}
	if !target.Valid() {
		return nil, services.Wrap(services.ErrInvalidParameters, "chapters", "edit",
			fmt.Sprintf("start %s not before end %s", FormatTimestamp(target.Start), FormatTimestamp(target.End)), nil)
	}

	sortByStart(out)
	for i := 1; i < len(out); i++ {
		if out[i-1].Overlaps(out[i]) {
			return nil, services.Wrap(services.ErrInvalidParameters, "chapters", "edit",
				fmt.Sprintf("edited chapter overlaps %q", out[i].Title), nil)
		}
	}
	return reindex(out), nil
}

// SplitChapter replaces the chapter at index with two entries meeting at
// splitAt, which must lie strictly inside the chapter's range.
func SplitChapter(existing []ChapterEntry, index int, splitAt time.Duration) ([]ChapterEntry, error) {
	if index < 0 || index >= len(existing) {
		return nil, services.Wrap(services.ErrChapterIndex, "chapters", "split",
			fmt.Sprintf("index %d of %d", index, len(existing)), nil)
	}
	target := existing[index]
	if splitAt <= target.Start || splitAt >= target.End {
		return nil, services.Wrap(services.ErrInvalidParameters, "chapters", "split",
			fmt.Sprintf("split point %s outside chapter %s..%s", FormatTimestamp(splitAt), FormatTimestamp(target.Start), FormatTimestamp(target.End)), nil)
	}

	out := make([]ChapterEntry, 0, len(existing)+1)
	out = append(out, existing[:index]...)
	out = append(out,
		ChapterEntry{Start: target.Start, End: splitAt, Title: target.Title + " Part 1"},
		ChapterEntry{Start: splitAt, End: target.End, Title: target.Title + " Part 2"},
	)
	out = append(out, existing[index+1:]...)
	sortByStart(out)
	return reindex(out), nil
}

// MergeChapters joins the chapter at index with its successor, producing one
// entry spanning both ranges and keeping the first title.
func MergeChapters(existing []ChapterEntry, index int) ([]ChapterEntry, error) {
	if index < 0 || index >= len(existing)-1 {
		return nil, services.Wrap(services.ErrChapterIndex, "chapters", "merge",
			fmt.Sprintf("index %d has no successor in %d entries", index, len(existing)), nil)
	}
	out := make([]ChapterEntry, 0, len(existing)-1)
	out = append(out, existing[:index]...)
	out = append(out, ChapterEntry{
		Start: existing[index].Start,
		End:   existing[index+1].End,
		Title: existing[index].Title,
	})
	out = append(out, existing[index+2:]...)
	return reindex(out), nil
}

// RemoveChapter drops the chapter at index and re-indexes the remainder.
func RemoveChapter(existing []ChapterEntry, index int) ([]ChapterEntry, error) {
	if index < 0 || index >= len(existing) {
		return nil, services.Wrap(services.ErrChapterIndex, "chapters", "remove",
			fmt.Sprintf("index %d of %d", index, len(existing)), nil)
	}
	out := make([]ChapterEntry, 0, len(existing)-1)
	out = append(out, existing[:index]...)
	out = append(out, existing[index+1:]...)
	return reindex(out), nil
}

// FilterChapters keeps the entries the predicate accepts, re-indexed.
func FilterChapters(existing []ChapterEntry, keep func(ChapterEntry) bool) []ChapterEntry {
	out := make([]ChapterEntry, 0, len(existing))
	for _, entry := range existing {
		if keep(entry) {
			out = append(out, entry)
		}
	}
	return reindex(out)
}

func cloneChapters(entries []ChapterEntry) []ChapterEntry {
	out := make([]ChapterEntry, len(entries))
	copy(out, entries)
	return out
}

func sortByStart(entries []ChapterEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Start < entries[j].Start
	})
}

// reindex rewrites indices as a contiguous 0-based sequence reflecting the
// current start-time order. Indices are positions, never stale identifiers.
func reindex(entries []ChapterEntry) []ChapterEntry {
	out := cloneChapters(entries)
	sortByStart(out)
	for i := range out {
		out[i].Index = i
	}
	return out
}
