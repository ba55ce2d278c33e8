package media

import (
	"strings"
	"time"

	"golang.org/x/text/language"
)

// StreamKind classifies a container stream.
type StreamKind string

const (
	StreamVideo    StreamKind = "video"
	StreamAudio    StreamKind = "audio"
	StreamSubtitle StreamKind = "subtitle"
	StreamOther    StreamKind = "other"
)

// ParseStreamKind maps an ffprobe codec_type onto a StreamKind.
func ParseStreamKind(value string) StreamKind {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "video":
		return StreamVideo
	case "audio":
		return StreamAudio
	case "subtitle":
		return StreamSubtitle
	default:
		return StreamOther
	}
}

// StreamInfo is an immutable snapshot of one container stream.
type StreamInfo struct {
	Index    int
	Kind     StreamKind
	Codec    string
	Language string
	Channels int
	Width    int
	Height   int
	Default  bool
	Forced   bool
}

// ChapterEntry is one chapter record. Index is 0-based and contiguous
// within a file; Start must precede End.
type ChapterEntry struct {
	Index int
	Start time.Duration
	End   time.Duration
	Title string
}

// Valid reports whether the entry's time range is well formed.
func (c ChapterEntry) Valid() bool {
	return c.Start >= 0 && c.Start < c.End
}

// Overlaps reports whether two chapters share any time span.
func (c ChapterEntry) Overlaps(other ChapterEntry) bool {
	return c.Start < other.End && other.Start < c.End
}

// FileInfo is the container-level snapshot produced by a probe call.
type FileInfo struct {
	Path      string
	Container string
	Duration  time.Duration
	Size      int64
	Streams   []StreamInfo
	Chapters  []ChapterEntry
}

// StreamsOfKind returns the streams of one kind in container order.
func (f FileInfo) StreamsOfKind(kind StreamKind) []StreamInfo {
	var out []StreamInfo
	for _, s := range f.Streams {
		if s.Kind == kind {
			out = append(out, s)
		}
	}
	return out
}

// AudioStreams returns the audio streams in container order.
func (f FileInfo) AudioStreams() []StreamInfo { return f.StreamsOfKind(StreamAudio) }

// SubtitleStreams returns the subtitle streams in container order.
func (f FileInfo) SubtitleStreams() []StreamInfo { return f.StreamsOfKind(StreamSubtitle) }

// DefaultAudio returns the default audio stream, falling back to the first
// audio stream when no default flag is set.
func (f FileInfo) DefaultAudio() (StreamInfo, bool) {
	audio := f.AudioStreams()
	for _, s := range audio {
		if s.Default {
			return s, true
		}
	}
	if len(audio) > 0 {
		return audio[0], true
	}
	return StreamInfo{}, false
}

// NormalizeLanguage canonicalizes a stream language tag. Unparseable or
// empty tags collapse to "und", matching the container convention.
func NormalizeLanguage(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return "und"
	}
	parsed, err := language.Parse(tag)
	if err != nil {
		return "und"
	}
	base, confidence := parsed.Base()
	if confidence == language.No {
		return "und"
	}
	return base.ISO3()
}

// SameLanguage reports whether two language tags refer to the same base
// language, tolerating two- vs three-letter forms ("en" vs "eng").
func SameLanguage(a, b string) bool {
	na, nb := NormalizeLanguage(a), NormalizeLanguage(b)
	if na == "und" || nb == "und" {
		return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
	}
	return na == nb
}
