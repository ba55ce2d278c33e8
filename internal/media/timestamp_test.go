package media_test

import (
	"testing"
	"time"

	"clipforge/internal/media"
)

func TestParseTimestampForms(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"00:00:05", 5 * time.Second},
		{"01:02:03", time.Hour + 2*time.Minute + 3*time.Second},
		{"02:30", 2*time.Minute + 30*time.Second},
		{"90", 90 * time.Second},
		{"1.5", 1500 * time.Millisecond},
		{"00:04:00", 4 * time.Minute},
	}
	for _, tc := range cases {
		got, err := media.ParseTimestamp(tc.in)
		if err != nil {
			t.Fatalf("ParseTimestamp(%q) returned error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseTimestamp(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestParseTimestampRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "a:b:c", "1:2:3:4", "-5", "00:-1:00"} {
		if _, err := media.ParseTimestamp(in); err == nil {
			t.Fatalf("ParseTimestamp(%q) should fail", in)
		}
	}
}

func TestFormatTimestampRoundTrip(t *testing.T) {
	for _, d := range []time.Duration{0, 5 * time.Second, 4 * time.Minute, time.Hour + 23*time.Minute + 45*time.Second} {
		formatted := media.FormatTimestamp(d)
		parsed, err := media.ParseTimestamp(formatted)
		if err != nil {
			t.Fatalf("round trip parse of %q: %v", formatted, err)
		}
		if parsed != d {
			t.Fatalf("round trip of %s gave %s", d, parsed)
		}
	}
}

func TestFormatSeconds(t *testing.T) {
	if got := media.FormatSeconds(90*time.Second + 500*time.Millisecond); got != "90.5" {
		t.Fatalf("FormatSeconds = %q", got)
	}
	if got := media.FormatSeconds(2 * time.Minute); got != "120" {
		t.Fatalf("FormatSeconds = %q", got)
	}
}

func TestNormalizeLanguage(t *testing.T) {
	cases := map[string]string{
		"en":      "eng",
		"eng":     "eng",
		"fr":      "fra",
		"":        "und",
		"???":     "und",
		"pt-BR":   "por",
		"  de  ":  "deu",
		"zxx-???": "und",
	}
	for in, want := range cases {
		if got := media.NormalizeLanguage(in); got != want {
			t.Fatalf("NormalizeLanguage(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSameLanguage(t *testing.T) {
	if !media.SameLanguage("en", "eng") {
		t.Fatal("en and eng should match")
	}
	if media.SameLanguage("en", "fr") {
		t.Fatal("en and fr should not match")
	}
	if !media.SameLanguage("und", "und") {
		t.Fatal("identical unknown tags should match")
	}
}
