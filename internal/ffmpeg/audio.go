package ffmpeg

import (
	"fmt"
	"path/filepath"
)

// AudioCodec names a target audio codec; the value doubles as the ffmpeg
// encoder name and the output extension.
type AudioCodec string

const (
	CodecAAC  AudioCodec = "aac"
	CodecOpus AudioCodec = "opus"
	CodecMP3  AudioCodec = "mp3"
	CodecFLAC AudioCodec = "flac"
)

func (c AudioCodec) known() bool {
	switch c {
	case CodecAAC, CodecOpus, CodecMP3, CodecFLAC:
		return true
	}
	return false
}

// encoderArgs returns the codec selection plus encoder-specific tuning.
func (c AudioCodec) encoderArgs() []string {
	args := []string{"-c:a", string(c)}
	switch c {
	case CodecAAC:
		args = append(args, "-aac_coder", "twoloop")
	case CodecOpus:
		args[1] = "libopus"
		args = append(args, "-application", "audio")
	case CodecMP3:
		args[1] = "libmp3lame"
	}
	return args
}

// ExtractAudio drops the video and encodes the audio into a standalone file.
type ExtractAudio struct {
	Input       string
	OutputName  string
	Codec       AudioCodec
	BitrateKbps int
}

func (ExtractAudio) Kind() Kind { return KindExtractAudio }

func (e ExtractAudio) validate() error {
	return validateAudioEncode("extract_audio", e.Input, e.OutputName, e.Codec, e.BitrateKbps)
}

func (e ExtractAudio) invocations(b *Builder) ([]Invocation, error) {
	return []Invocation{audioEncode(b, e.Input, e.OutputName, e.Codec, e.BitrateKbps)}, nil
}

// ConvertAudio transcodes an audio file (or a file's audio) to another codec.
// Same argv shape as ExtractAudio; kept as its own kind so callers and job
// records name what was asked for.
type ConvertAudio struct {
	Input       string
	OutputName  string
	Codec       AudioCodec
	BitrateKbps int
}

func (ConvertAudio) Kind() Kind { return KindConvertAudio }

func (c ConvertAudio) validate() error {
	return validateAudioEncode("convert_audio", c.Input, c.OutputName, c.Codec, c.BitrateKbps)
}

func (c ConvertAudio) invocations(b *Builder) ([]Invocation, error) {
	return []Invocation{audioEncode(b, c.Input, c.OutputName, c.Codec, c.BitrateKbps)}, nil
}

func validateAudioEncode(operation, input, outputName string, codec AudioCodec, bitrate int) error {
	if input == "" || outputName == "" {
		return invalid(operation, "input and output name are required")
	}
	if !codec.known() {
		return invalid(operation, fmt.Sprintf("unknown audio codec %q", codec))
	}
	if bitrate <= 0 {
		return invalid(operation, "bitrate must be positive")
	}
	return nil
}

func audioEncode(b *Builder, input, outputName string, codec AudioCodec, bitrate int) Invocation {
	output := b.outputPath(outputName + "." + string(codec))
	args := []string{"-i", input, "-vn"}
	args = append(args, codec.encoderArgs()...)
	args = append(args,
		"-b:a", kbps(bitrate),
		"-threads", b.threadArg(2),
		"-y", output,
	)
	return Invocation{Args: args, Artifacts: []string{output}}
}

// RemoveAudio strips every audio stream, copying the video untouched.
type RemoveAudio struct {
	Input      string
	OutputName string
}

func (RemoveAudio) Kind() Kind { return KindRemoveAudio }

func (r RemoveAudio) validate() error {
	if r.Input == "" || r.OutputName == "" {
		return invalid("remove_audio", "input and output name are required")
	}
	return nil
}

func (r RemoveAudio) invocations(b *Builder) ([]Invocation, error) {
	ext := filepath.Ext(r.Input)
	output := b.outputPath(r.OutputName + ext)
	args := []string{
		"-i", r.Input,
		"-map", "0:v",
		"-map", "-0:a",
		"-c:v", "copy",
	}
	args = appendFaststart(args, ext)
	args = append(args, "-threads", b.threadArg(2), "-y", output)
	return []Invocation{{Args: args, Artifacts: []string{output}}}, nil
}

// ChooseAudio keeps only the audio stream at the given position among the
// file's audio streams (0-based), copying every stream untouched. The caller
// resolves language selectors to a position via a probe first.
type ChooseAudio struct {
	Input       string
	OutputName  string
	Position    int
	MakeDefault bool
}

func (ChooseAudio) Kind() Kind { return KindChooseAudio }

func (c ChooseAudio) validate() error {
	if c.Input == "" || c.OutputName == "" {
		return invalid("choose_audio", "input and output name are required")
	}
	if c.Position < 0 {
		return invalid("choose_audio", "audio position must not be negative")
	}
	return nil
}

func (c ChooseAudio) invocations(b *Builder) ([]Invocation, error) {
	ext := filepath.Ext(c.Input)
	output := b.outputPath(c.OutputName + ext)
	disposition := "0"
	if c.MakeDefault {
		disposition = "default"
	}
	args := []string{
		"-i", c.Input,
		"-map", "0:v",
		"-map", fmt.Sprintf("0:a:%d", c.Position),
		"-map", "0:s?",
		"-c", "copy",
		"-disposition:a:0", disposition,
	}
	args = appendFaststart(args, ext)
	args = append(args, "-threads", b.threadArg(2), "-y", output)
	return []Invocation{{Args: args, Artifacts: []string{output}}}, nil
}

// MergeVideoAudio muxes the first video stream of one file with the first
// audio stream of another, re-encoding audio to AAC and stopping at the
// shorter input.
type MergeVideoAudio struct {
	Video      string
	Audio      string
	OutputName string
}

func (MergeVideoAudio) Kind() Kind { return KindMergeVideoAudio }

func (m MergeVideoAudio) validate() error {
	if m.Video == "" || m.Audio == "" || m.OutputName == "" {
		return invalid("merge_video_audio", "video, audio, and output name are required")
	}
	return nil
}

func (m MergeVideoAudio) invocations(b *Builder) ([]Invocation, error) {
	ext := filepath.Ext(m.Video)
	output := b.outputPath(m.OutputName + ext)
	args := []string{
		"-i", m.Video,
		"-i", m.Audio,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", "192k",
	}
	args = appendFaststart(args, ext)
	args = append(args, "-shortest", "-threads", b.threadArg(4), "-y", output)
	return []Invocation{{Args: args, Artifacts: []string{output}}}, nil
}
