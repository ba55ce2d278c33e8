package ffmpeg

import (
	"fmt"
	"path/filepath"
	"strings"
)

// softSubCodec picks the subtitle codec for muxing a sidecar subtitle into
// the given container. MP4 only carries mov_text; MKV and WebM take the text
// formats natively.
func softSubCodec(containerExt, subtitleExt string) string {
	mp4 := strings.ToLower(containerExt) == ".mp4"
	switch strings.TrimPrefix(strings.ToLower(subtitleExt), ".") {
	case "ass", "ssa":
		return "ass"
	case "vtt":
		if mp4 {
			return "mov_text"
		}
		return "webvtt"
	default:
		if mp4 {
			return "mov_text"
		}
		return "srt"
	}
}

// AddSubtitle muxes an external subtitle file into the input as a new stream
// (soft), or burns it into the video (hard) when Burn is set. Position is the
// new stream's position among the subtitle streams; MP4 disallows a stream
// that is both default and forced.
type AddSubtitle struct {
	Input        string
	SubtitlePath string
	OutputName   string
	Language     string
	Position     int
	Default      bool
	Forced       bool
	Burn         bool
}

func (AddSubtitle) Kind() Kind { return KindAddSubtitle }

func (a AddSubtitle) validate() error {
	if a.Input == "" || a.SubtitlePath == "" || a.OutputName == "" {
		return invalid("add_subtitle", "input, subtitle path, and output name are required")
	}
	if a.Position < 0 {
		return invalid("add_subtitle", "subtitle position must not be negative")
	}
	if a.Default && a.Forced && strings.EqualFold(filepath.Ext(a.Input), ".mp4") {
		return invalid("add_subtitle", "mp4 cannot carry a subtitle that is both default and forced")
	}
	return nil
}

func (a AddSubtitle) invocations(b *Builder) ([]Invocation, error) {
	ext := filepath.Ext(a.Input)
	output := b.outputPath(a.OutputName + ext)

	if a.Burn {
		style := fmt.Sprintf("subtitles=%s:force_style='Fontsize=24,Outline=1'", filterQuote(a.SubtitlePath))
		args := []string{
			"-i", a.Input,
			"-vf", style,
			"-c:v", "libx264",
			"-preset", "fast",
			"-crf", "23",
			"-c:a", "aac",
			"-b:a", "192k",
			"-movflags", "+faststart",
			"-threads", b.threadArg(4),
			"-y", output,
		}
		return []Invocation{{Args: args, Artifacts: []string{output}}}, nil
	}

	var disposition []string
	if a.Default {
		disposition = append(disposition, "default")
	}
	if a.Forced {
		disposition = append(disposition, "forced")
	}
	dispositionArg := "0"
	if len(disposition) > 0 {
		dispositionArg = strings.Join(disposition, "+")
	}

	language := a.Language
	if language == "" {
		language = "und"
	}

	args := []string{
		"-i", a.Input,
		"-i", a.SubtitlePath,
		"-map", "0",
		"-map", "1:0",
		"-c:v", "copy",
		"-c:a", "copy",
		"-c:s", softSubCodec(ext, filepath.Ext(a.SubtitlePath)),
		fmt.Sprintf("-metadata:s:s:%d", a.Position), "language=" + language,
		fmt.Sprintf("-disposition:s:%d", a.Position), dispositionArg,
		"-threads", b.threadArg(4),
		"-y", output,
	}
	return []Invocation{{Args: args, Artifacts: []string{output}}}, nil
}

// ChooseSubtitle keeps only the subtitle stream at the given position among
// the file's subtitle streams (0-based), copying everything else untouched.
type ChooseSubtitle struct {
	Input       string
	OutputName  string
	Position    int
	MakeDefault bool
}

func (ChooseSubtitle) Kind() Kind { return KindChooseSubtitle }

func (c ChooseSubtitle) validate() error {
	if c.Input == "" || c.OutputName == "" {
		return invalid("choose_subtitle", "input and output name are required")
	}
	if c.Position < 0 {
		return invalid("choose_subtitle", "subtitle position must not be negative")
	}
	return nil
}

func (c ChooseSubtitle) invocations(b *Builder) ([]Invocation, error) {
	ext := filepath.Ext(c.Input)
	output := b.outputPath(c.OutputName + ext)
	disposition := "0"
	if c.MakeDefault {
		disposition = "default"
	}
	args := []string{
		"-i", c.Input,
		"-map", "0:v",
		"-map", "0:a",
		"-map", fmt.Sprintf("0:s:%d", c.Position),
		"-c", "copy",
		"-disposition:s:0", disposition,
	}
	args = appendFaststart(args, ext)
	args = append(args, "-threads", b.threadArg(2), "-y", output)
	return []Invocation{{Args: args, Artifacts: []string{output}}}, nil
}

// ChooseSubtitleBurn burns the subtitle stream at the given position into the
// video, re-encoding it and copying the audio.
type ChooseSubtitleBurn struct {
	Input      string
	OutputName string
	Position   int
}

func (ChooseSubtitleBurn) Kind() Kind { return KindChooseSubtitleBurn }

func (c ChooseSubtitleBurn) validate() error {
	if c.Input == "" || c.OutputName == "" {
		return invalid("choose_subtitle_burn", "input and output name are required")
	}
	if c.Position < 0 {
		return invalid("choose_subtitle_burn", "subtitle position must not be negative")
	}
	return nil
}

func (c ChooseSubtitleBurn) invocations(b *Builder) ([]Invocation, error) {
	ext := filepath.Ext(c.Input)
	output := b.outputPath(c.OutputName + ext)
	args := []string{
		"-i", c.Input,
		"-vf", fmt.Sprintf("subtitles=%s:si=%d", filterQuote(c.Input), c.Position),
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "23",
		"-c:a", "copy",
		"-movflags", "+faststart",
		"-threads", b.threadArg(4),
		"-y", output,
	}
	return []Invocation{{Args: args, Artifacts: []string{output}}}, nil
}

// SubtitleTrackRef names one subtitle stream to pull out of a container:
// its position among the subtitle streams, its language tag, and the file
// extension the extracted track should get.
type SubtitleTrackRef struct {
	Position  int
	Language  string
	Extension string
}

// ExtractSubtitles copies each referenced subtitle stream into its own file,
// one invocation per track.
type ExtractSubtitles struct {
	Input      string
	OutputName string
	Tracks     []SubtitleTrackRef
}

func (ExtractSubtitles) Kind() Kind { return KindExtractSubtitles }

func (e ExtractSubtitles) validate() error {
	if e.Input == "" || e.OutputName == "" {
		return invalid("extract_subtitles", "input and output name are required")
	}
	if len(e.Tracks) == 0 {
		return invalid("extract_subtitles", "no subtitle tracks given")
	}
	for _, track := range e.Tracks {
		if track.Position < 0 {
			return invalid("extract_subtitles", "subtitle position must not be negative")
		}
	}
	return nil
}

func (e ExtractSubtitles) invocations(b *Builder) ([]Invocation, error) {
	out := make([]Invocation, 0, len(e.Tracks))
	for _, track := range e.Tracks {
		language := track.Language
		if language == "" {
			language = "und"
		}
		ext := track.Extension
		if ext == "" {
			ext = "srt"
		}
		output := b.outputPath(fmt.Sprintf("%s_%s_%d.%s", e.OutputName, language, track.Position, ext))
		args := []string{
			"-i", e.Input,
			"-map", fmt.Sprintf("0:s:%d", track.Position),
			"-c:s", "copy",
			"-y", output,
		}
		out = append(out, Invocation{Args: args, Artifacts: []string{output}})
	}
	return out, nil
}

// RemoveSubtitles strips every subtitle and attachment stream by stream copy.
type RemoveSubtitles struct {
	Input      string
	OutputName string
}

func (RemoveSubtitles) Kind() Kind { return KindRemoveSubtitles }

func (r RemoveSubtitles) validate() error {
	if r.Input == "" || r.OutputName == "" {
		return invalid("remove_subtitles", "input and output name are required")
	}
	return nil
}

func (r RemoveSubtitles) invocations(b *Builder) ([]Invocation, error) {
	ext := filepath.Ext(r.Input)
	output := b.outputPath(r.OutputName + ext)
	args := []string{
		"-i", r.Input,
		"-map", "0",
		"-map", "-0:s",
		"-map", "-0:t",
		"-c:v", "copy",
		"-c:a", "copy",
	}
	args = appendFaststart(args, ext)
	args = append(args, "-threads", b.threadArg(2), "-y", output)
	return []Invocation{{Args: args, Artifacts: []string{output}}}, nil
}

// ConvertSubtitle rewrites a subtitle file into SRT, the lowest common
// denominator for burn-in and MP4 muxing.
type ConvertSubtitle struct {
	Input      string
	OutputName string
}

func (ConvertSubtitle) Kind() Kind { return KindConvertSubtitle }

func (c ConvertSubtitle) validate() error {
	if c.Input == "" || c.OutputName == "" {
		return invalid("convert_subtitle", "input and output name are required")
	}
	return nil
}

func (c ConvertSubtitle) invocations(b *Builder) ([]Invocation, error) {
	output := b.outputPath(c.OutputName + ".srt")
	args := []string{
		"-i", c.Input,
		"-f", "srt",
		"-y", output,
	}
	return []Invocation{{Args: args, Artifacts: []string{output}}}, nil
}
