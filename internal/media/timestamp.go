package media

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseTimestamp accepts "HH:MM:SS", "MM:SS", plain seconds, and fractional
// variants of each, returning the duration from the start of the file.
func ParseTimestamp(value string) (time.Duration, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, fmt.Errorf("parse timestamp: empty value")
	}

	parts := strings.Split(trimmed, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("parse timestamp %q: too many segments", value)
	}

	var seconds float64
	for _, part := range parts {
		n, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return 0, fmt.Errorf("parse timestamp %q: %w", value, err)
		}
		if n < 0 {
			return 0, fmt.Errorf("parse timestamp %q: negative segment", value)
		}
		seconds = seconds*60 + n
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// FormatTimestamp renders a duration as "HH:MM:SS" (fractional seconds
// truncated), the form ffmpeg accepts everywhere a position is expected.
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, total%3600/60, total%60)
}

// FormatSeconds renders a duration as decimal seconds with millisecond
// precision, the form used in filter graph expressions.
func FormatSeconds(d time.Duration) string {
	return strconv.FormatFloat(float64(d.Milliseconds())/1000, 'f', -1, 64)
}
