package ffmpeg

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"clipforge/internal/media"
)

// Cut removes the given ranges from the input and re-joins the remainder
// through one trim/concat filter graph. Duration is the probed file length;
// when zero the final kept segment is open ended.
type Cut struct {
	Input      string
	OutputName string
	Ranges     []Range
	Duration   time.Duration
}

func (Cut) Kind() Kind { return KindCut }

func (c Cut) validate() error {
	if c.Input == "" || c.OutputName == "" {
		return invalid("cut", "input and output name are required")
	}
	return validateRanges("cut", c.Ranges, c.Duration)
}

func (c Cut) invocations(b *Builder) ([]Invocation, error) {
	removed := normalizeRanges(c.Ranges)
	output := b.outputPath(c.OutputName + filepath.Ext(c.Input))

	var graph strings.Builder
	var labels []string
	seg := 0
	cursor := time.Duration(0)

	keep := func(start time.Duration, end time.Duration, openEnded bool) {
		if openEnded {
			fmt.Fprintf(&graph, "[0:v]trim=start=%s,setpts=N/FRAME_RATE/TB[v%d];", media.FormatSeconds(start), seg)
			fmt.Fprintf(&graph, "[0:a]atrim=start=%s,asetpts=N/SR/TB[a%d];", media.FormatSeconds(start), seg)
		} else {
			fmt.Fprintf(&graph, "[0:v]trim=start=%s:end=%s,setpts=N/FRAME_RATE/TB[v%d];", media.FormatSeconds(start), media.FormatSeconds(end), seg)
			fmt.Fprintf(&graph, "[0:a]atrim=start=%s:end=%s,asetpts=N/SR/TB[a%d];", media.FormatSeconds(start), media.FormatSeconds(end), seg)
		}
		labels = append(labels, fmt.Sprintf("[v%d][a%d]", seg, seg))
		seg++
	}

	for _, r := range removed {
		if cursor < r.Start {
			keep(cursor, r.Start, false)
		}
		cursor = r.End
	}
	if c.Duration == 0 || cursor < c.Duration {
		keep(cursor, 0, true)
	}
	if seg == 0 {
		return nil, invalid("cut", "ranges cover the whole file")
	}
	fmt.Fprintf(&graph, "%sconcat=n=%d:v=1:a=1[vout][aout]", strings.Join(labels, ""), seg)

	args := []string{
		"-i", c.Input,
		"-filter_complex", graph.String(),
		"-map", "[vout]",
		"-map", "[aout]",
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

// Trim keeps a single range by stream copy, pre-seeking one second before the
// start for keyframe alignment and skipping the remainder precisely.
type Trim struct {
	Input      string
	OutputName string
	Start      time.Duration
	End        time.Duration
}

func (Trim) Kind() Kind { return KindTrim }

func (t Trim) validate() error {
	if t.Input == "" || t.OutputName == "" {
		return invalid("trim", "input and output name are required")
	}
	if t.Start < 0 || t.Start >= t.End {
		return invalid("trim", fmt.Sprintf("range %s..%s has start not before end", media.FormatTimestamp(t.Start), media.FormatTimestamp(t.End)))
	}
	return nil
}

func (t Trim) invocations(b *Builder) ([]Invocation, error) {
	output := b.outputPath(t.OutputName + filepath.Ext(t.Input))

	coarse := t.Start - time.Second
	if coarse < 0 {
		coarse = 0
	}
	args := []string{
		"-ss", media.FormatSeconds(coarse),
		"-i", t.Input,
		"-ss", media.FormatSeconds(t.Start - coarse),
		"-to", media.FormatSeconds(t.End - t.Start),
		"-c", "copy",
		"-avoid_negative_ts", "make_zero",
		"-threads", b.threadArg(2),
		"-y", output,
	}
	return []Invocation{{Args: args, Artifacts: []string{output}}}, nil
}

// SplitVideo re-encodes each range into its own numbered part file.
type SplitVideo struct {
	Input      string
	OutputName string
	Ranges     []Range
}

func (SplitVideo) Kind() Kind { return KindSplitVideo }

func (s SplitVideo) validate() error {
	if s.Input == "" || s.OutputName == "" {
		return invalid("split_video", "input and output name are required")
	}
	return validateRanges("split_video", s.Ranges, 0)
}

func (s SplitVideo) invocations(b *Builder) ([]Invocation, error) {
	ranges := normalizeRanges(s.Ranges)
	ext := filepath.Ext(s.Input)
	if ext == "" {
		ext = ".mp4"
	}

	out := make([]Invocation, 0, len(ranges))
	for i, r := range ranges {
		output := b.outputPath(fmt.Sprintf("%s_part%03d%s", s.OutputName, i+1, ext))
		args := []string{
			"-ss", media.FormatSeconds(r.Start),
			"-i", s.Input,
			"-to", media.FormatSeconds(r.End - r.Start),
			"-c:v", "libx264",
			"-preset", "fast",
			"-crf", "23",
			"-c:a", "aac",
			"-b:a", "192k",
			"-movflags", "+faststart",
			"-avoid_negative_ts", "make_zero",
			"-threads", b.threadArg(4),
			"-y", output,
		}
		out = append(out, Invocation{Args: args, Artifacts: []string{output}})
	}
	return out, nil
}

// Concat joins inputs back to back. With Transition zero the inputs are
// stream-copied through the concat demuxer; otherwise every boundary gets a
// crossfade, which needs each clip's duration and the target frame size.
type Concat struct {
	Inputs     []string
	OutputName string
	Container  string
	Transition time.Duration
	Durations  []time.Duration
	Width      int
	Height     int
}

func (Concat) Kind() Kind { return KindConcat }

func (c Concat) validate() error {
	if len(c.Inputs) < 2 {
		return invalid("concat", "at least two inputs are required")
	}
	if c.OutputName == "" {
		return invalid("concat", "output name is required")
	}
	if c.Transition > 0 {
		if len(c.Durations) != len(c.Inputs) {
			return invalid("concat", "transition concat needs one duration per input")
		}
		if c.Width <= 0 || c.Height <= 0 {
			return invalid("concat", "transition concat needs a target frame size")
		}
		for i, d := range c.Durations {
			if d <= c.Transition {
				return invalid("concat", fmt.Sprintf("input %d shorter than the transition", i))
			}
		}
	}
	return nil
}

func (c Concat) invocations(b *Builder) ([]Invocation, error) {
	container := c.Container
	if container == "" {
		container = "mp4"
	}
	output := b.outputPath(c.OutputName + "." + container)

	if c.Transition <= 0 {
		return c.simple(b, output), nil
	}
	return c.crossfade(b, output), nil
}

func (c Concat) simple(b *Builder, output string) []Invocation {
	var list strings.Builder
	for _, input := range c.Inputs {
		fmt.Fprintf(&list, "file '%s'\n", input)
	}
	listPath := b.workPath(c.OutputName + ".concat.txt")

	args := []string{
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		"-movflags", "+faststart",
		"-threads", b.threadArg(2),
		"-y", output,
	}
	return []Invocation{{
		Args:      args,
		Artifacts: []string{output},
		Sidecars:  []Sidecar{{Path: listPath, Content: list.String()}},
	}}
}

func (c Concat) crossfade(b *Builder, output string) []Invocation {
	n := len(c.Inputs)
	fade := media.FormatSeconds(c.Transition)

	var graph strings.Builder
	args := make([]string, 0, 2*n+16)
	for i, input := range c.Inputs {
		args = append(args, "-i", input)
		fmt.Fprintf(&graph, "[%d:v]scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:-1:-1:color=black[v%d];",
			i, c.Width, c.Height, c.Width, c.Height, i)
		fmt.Fprintf(&graph, "[%d:a]aformat=sample_rates=44100:channel_layouts=stereo[a%d];", i, i)
	}

	for i := 0; i < n-1; i++ {
		base := fmt.Sprintf("[v%d]", i)
		if i > 0 {
			base = fmt.Sprintf("[vout%d]", i-1)
		}
		offset := c.Durations[i] - c.Transition
		fmt.Fprintf(&graph, "%s[v%d]xfade=transition=fade:duration=%s:offset=%s[vout%d];",
			base, i+1, fade, media.FormatSeconds(offset), i)
	}

	for i := 0; i < n-1; i++ {
		base := fmt.Sprintf("[a%d]", i)
		if i > 0 {
			base = fmt.Sprintf("[amix%d]", i-1)
		}
		hold := media.FormatSeconds(c.Durations[i] - c.Transition)
		fmt.Fprintf(&graph, "%satrim=0:%s[atrim%d];", base, hold, i)
		fmt.Fprintf(&graph, "%satrim=%s,asetpts=PTS-STARTPTS[afadeout%d];", base, hold, i)
		fmt.Fprintf(&graph, "[a%d]atrim=0:%s,asetpts=PTS-STARTPTS[afadein%d];", i+1, fade, i+1)
		fmt.Fprintf(&graph, "[afadeout%d][afadein%d]acrossfade=d=%s[across%d];", i, i+1, fade, i)
		fmt.Fprintf(&graph, "[atrim%d][across%d]concat=n=2:v=0:a=1[amix%d];", i, i, i)
	}

	graphStr := strings.TrimSuffix(graph.String(), ";")
	args = append(args,
		"-filter_complex", graphStr,
		"-map", fmt.Sprintf("[vout%d]", n-2),
		"-map", fmt.Sprintf("[amix%d]", n-2),
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "22",
		"-c:a", "aac",
		"-b:a", "192k",
		"-movflags", "+faststart",
		"-threads", b.threadArg(4),
		"-y", output,
	)
	return []Invocation{{Args: args, Artifacts: []string{output}}}
}

// ConvertContainer rewraps the input into another container without
// re-encoding.
type ConvertContainer struct {
	Input      string
	OutputName string
	Container  string
}

func (ConvertContainer) Kind() Kind { return KindConvertContainer }

func (c ConvertContainer) validate() error {
	if c.Input == "" || c.OutputName == "" || c.Container == "" {
		return invalid("convert_container", "input, output name, and container are required")
	}
	return nil
}

func (c ConvertContainer) invocations(b *Builder) ([]Invocation, error) {
	output := b.outputPath(c.OutputName + "." + strings.TrimPrefix(c.Container, "."))
	args := []string{
		"-i", c.Input,
		"-c", "copy",
		"-threads", b.threadArg(2),
		"-y", output,
	}
	return []Invocation{{Args: args, Artifacts: []string{output}}}, nil
}

// Thumbnail captures a single frame as a JPEG, scaled to the given width with
// the height derived from the aspect ratio.
type Thumbnail struct {
	Input      string
	OutputName string
	Offset     time.Duration
	Width      int
}

func (Thumbnail) Kind() Kind { return KindThumbnail }

func (t Thumbnail) validate() error {
	if t.Input == "" || t.OutputName == "" {
		return invalid("thumbnail", "input and output name are required")
	}
	if t.Offset < 0 {
		return invalid("thumbnail", "offset must not be negative")
	}
	return nil
}

func (t Thumbnail) invocations(b *Builder) ([]Invocation, error) {
	width := t.Width
	if width <= 0 {
		width = 640
	}
	output := b.outputPath(t.OutputName + ".jpg")
	args := []string{
		"-ss", media.FormatTimestamp(t.Offset),
		"-i", t.Input,
		"-frames:v", "1",
		"-vf", fmt.Sprintf("scale=%d:-2:flags=lanczos", width),
		"-q:v", "3",
		"-f", "image2",
		"-y", output,
	}
	return []Invocation{{Args: args, Artifacts: []string{output}}}, nil
}
