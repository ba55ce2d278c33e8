package main

import (
	"testing"
	"time"
)

func TestOutputNameDefaultsFromInput(t *testing.T) {
	cases := []struct {
		flag, input, suffix, want string
	}{
		{"", "/media/movie.mp4", "_trimmed", "movie_trimmed"},
		{"", "/media/movie.mp4", "", "movie"},
		{"custom", "/media/movie.mp4", "_trimmed", "custom"},
		{"custom.mkv", "/media/movie.mp4", "", "custom"},
		{"  ", "/media/clip.final.mkv", "_cut", "clip.final_cut"},
	}
	for _, tc := range cases {
		if got := outputName(tc.flag, tc.input, tc.suffix); got != tc.want {
			t.Errorf("outputName(%q, %q, %q) = %q, want %q", tc.flag, tc.input, tc.suffix, got, tc.want)
		}
	}
}

func TestParseRangeList(t *testing.T) {
	ranges, err := parseRangeList("remove", "00:10-00:25, 01:00-01:05")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(ranges) != 2 {
		t.Fatalf("expected 2 ranges, got %d", len(ranges))
	}
	if ranges[0].Start != 10*time.Second || ranges[0].End != 25*time.Second {
		t.Fatalf("unexpected first range: %+v", ranges[0])
	}
	if ranges[1].Start != time.Minute || ranges[1].End != time.Minute+5*time.Second {
		t.Fatalf("unexpected second range: %+v", ranges[1])
	}
}

func TestParseRangeListRejectsMalformed(t *testing.T) {
	for _, value := range []string{"", "10", "10-abc", "a-b"} {
		if _, err := parseRangeList("remove", value); err == nil {
			t.Errorf("expected error for %q", value)
		}
	}
}

func TestRangesFromSplitPoints(t *testing.T) {
	points := []time.Duration{10 * time.Minute, 20 * time.Minute}
	ranges, err := rangesFromSplitPoints(points, 30*time.Minute)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(ranges) != 3 {
		t.Fatalf("expected 3 ranges, got %d", len(ranges))
	}
	if ranges[0].Start != 0 || ranges[0].End != 10*time.Minute {
		t.Fatalf("unexpected first range: %+v", ranges[0])
	}
	if ranges[2].Start != 20*time.Minute || ranges[2].End != 30*time.Minute {
		t.Fatalf("unexpected last range: %+v", ranges[2])
	}
}

func TestRangesFromSplitPointsRejectsOutOfBounds(t *testing.T) {
	if _, err := rangesFromSplitPoints([]time.Duration{40 * time.Minute}, 30*time.Minute); err == nil {
		t.Fatal("expected error for split point beyond duration")
	}
	if _, err := rangesFromSplitPoints([]time.Duration{5 * time.Minute, 5 * time.Minute}, 30*time.Minute); err == nil {
		t.Fatal("expected error for duplicate split points")
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable(
		[]string{"A", "B"},
		[][]string{{"1"}},
		[]columnAlignment{alignLeft, alignRight},
	)
	if out == "" {
		t.Fatal("expected rendered table output")
	}
}
