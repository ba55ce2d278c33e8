package ffmpeg

import (
	"path/filepath"
	"strconv"
	"strings"

	"clipforge/internal/services"
)

// Kind names an operation in the fixed catalogue.
type Kind string

const (
	KindCut                Kind = "cut"
	KindTrim               Kind = "trim"
	KindConcat             Kind = "concat"
	KindCompress           Kind = "compress"
	KindConvertContainer   Kind = "convert_container"
	KindThumbnail          Kind = "thumbnail"
	KindSetChapters        Kind = "set_chapters"
	KindRemoveChapters     Kind = "remove_chapters"
	KindExtractAudio       Kind = "extract_audio"
	KindConvertAudio       Kind = "convert_audio"
	KindRemoveAudio        Kind = "remove_audio"
	KindChooseAudio        Kind = "choose_audio"
	KindMergeVideoAudio    Kind = "merge_video_audio"
	KindAddSubtitle        Kind = "add_subtitle"
	KindChooseSubtitle     Kind = "choose_subtitle"
	KindChooseSubtitleBurn Kind = "choose_subtitle_burn"
	KindExtractSubtitles   Kind = "extract_subtitles"
	KindRemoveSubtitles    Kind = "remove_subtitles"
	KindConvertSubtitle    Kind = "convert_subtitle"
	KindSplitVideo         Kind = "split_video"
)

// Sidecar is a temporary input file the executor writes before spawning the
// process and removes afterwards (chapter metadata, concat lists).
type Sidecar struct {
	Path    string
	Content string
}

// Invocation is one rendered ffmpeg run: the argv after the binary, the
// artifacts the run must leave behind, sidecars to materialize first, and
// scratch files to remove when the run is over.
type Invocation struct {
	Args      []string
	Artifacts []string
	Sidecars  []Sidecar
	Cleanup   []string
}

// Request is one typed operation. Concrete request types live alongside
// their builders; the interface is closed to this package.
type Request interface {
	Kind() Kind
	validate() error
	invocations(b *Builder) ([]Invocation, error)
}

// Builder renders requests against a fixed output and scratch directory.
// Both are joined with output names lexically; nothing is created here.
type Builder struct {
	outputDir string
	workDir   string
	threads   int
}

// New returns a Builder. threads caps the per-process thread hints and is
// clamped to at least 1.
func New(outputDir, workDir string, threads int) *Builder {
	if threads < 1 {
		threads = 1
	}
	return &Builder{outputDir: outputDir, workDir: workDir, threads: threads}
}

// Build validates the request and renders its invocation sequence. The output
// is deterministic and order-stable for identical input.
func (b *Builder) Build(req Request) ([]Invocation, error) {
	if req == nil {
		return nil, services.Wrap(services.ErrInvalidParameters, "ffmpeg", "build", "nil request", nil)
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	return req.invocations(b)
}

func (b *Builder) outputPath(name string) string {
	return filepath.Join(b.outputDir, name)
}

func (b *Builder) workPath(name string) string {
	return filepath.Join(b.workDir, name)
}

// threadArg returns the thread hint capped at max, as ffmpeg expects it.
func (b *Builder) threadArg(max int) string {
	n := b.threads
	if n > max {
		n = max
	}
	return strconv.Itoa(n)
}

func kbps(n int) string {
	return strconv.Itoa(n) + "k"
}

// appendFaststart adds the MP4 faststart flag when the output container is
// mp4 or m4v; other containers ignore it or reject it.
func appendFaststart(args []string, ext string) []string {
	switch strings.ToLower(ext) {
	case ".mp4", ".m4v":
		return append(args, "-movflags", "+faststart")
	}
	return args
}

// filterQuote wraps a path for use inside a filter expression, escaping
// embedded single quotes.
func filterQuote(path string) string {
	return "'" + strings.ReplaceAll(path, "'", `'\''`) + "'"
}

func invalid(operation, message string) error {
	return services.Wrap(services.ErrInvalidParameters, "ffmpeg", operation, message, nil)
}
