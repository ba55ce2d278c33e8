package ffmpeg

import (
	"fmt"
	"strconv"
)

// Format names a compression target: codec family plus container.
type Format string

const (
	FormatMP4  Format = "mp4"
	FormatHEVC Format = "hevc"
	FormatWebM Format = "webm"
)

type formatProfile struct {
	videoCodec    string
	audioCodec    string
	extension     string
	preset        string
	tune          string
	profile       string
	containerOpts []string
	webm          bool
}

var formatProfiles = map[Format]formatProfile{
	FormatMP4: {
		videoCodec:    "libx264",
		audioCodec:    "aac",
		extension:     "mp4",
		preset:        "fast",
		tune:          "fastdecode",
		profile:       "main",
		containerOpts: []string{"-movflags", "+faststart"},
	},
	FormatHEVC: {
		videoCodec:    "libx265",
		audioCodec:    "aac",
		extension:     "mp4",
		preset:        "fast",
		tune:          "fastdecode",
		profile:       "main",
		containerOpts: []string{"-tag:v", "hvc1"},
	},
	FormatWebM: {
		videoCodec: "libvpx-vp9",
		audioCodec: "libopus",
		extension:  "webm",
		webm:       true,
	},
}

type resolutionRung struct {
	name         string
	height       int
	minBitrate   int // kbps
	maxBitrate   int // kbps
	audioBitrate string
	crf          int
	twoPass      bool
}

// resolutionLadder is ordered ascending by height; expansion walks it in this
// order so output is stable.
var resolutionLadder = []resolutionRung{
	{name: "144p", height: 144, minBitrate: 150, maxBitrate: 300, audioBitrate: "64k", crf: 32},
	{name: "240p", height: 240, minBitrate: 300, maxBitrate: 600, audioBitrate: "64k", crf: 28},
	{name: "360p", height: 360, minBitrate: 600, maxBitrate: 1000, audioBitrate: "96k", crf: 26},
	{name: "480p", height: 480, minBitrate: 1000, maxBitrate: 1500, audioBitrate: "96k", crf: 24},
	{name: "720p", height: 720, minBitrate: 1500, maxBitrate: 3000, audioBitrate: "128k", crf: 22, twoPass: true},
	{name: "1080p", height: 1080, minBitrate: 3000, maxBitrate: 6000, audioBitrate: "128k", crf: 20, twoPass: true},
}

// Compress renders the input into every (format, resolution) pair whose rung
// does not exceed the source height. SourceHeight comes from a probe. TwoPass
// switches the >=720p rungs to two sequential passes sharing a pass log.
type Compress struct {
	Input        string
	OutputName   string
	Formats      []Format
	SourceHeight int
	TwoPass      bool
}

func (Compress) Kind() Kind { return KindCompress }

func (c Compress) validate() error {
	if c.Input == "" || c.OutputName == "" {
		return invalid("compress", "input and output name are required")
	}
	if len(c.Formats) == 0 {
		return invalid("compress", "no target formats given")
	}
	seen := make(map[Format]bool, len(c.Formats))
	for _, format := range c.Formats {
		if _, ok := formatProfiles[format]; !ok {
			return invalid("compress", fmt.Sprintf("unknown format %q", format))
		}
		if seen[format] {
			return invalid("compress", fmt.Sprintf("format %q given twice", format))
		}
		seen[format] = true
	}
	if c.SourceHeight <= 0 {
		return invalid("compress", "source height must be positive")
	}
	return nil
}

func (c Compress) invocations(b *Builder) ([]Invocation, error) {
	var rungs []resolutionRung
	for _, rung := range resolutionLadder {
		if rung.height <= c.SourceHeight {
			rungs = append(rungs, rung)
		}
	}
	if len(rungs) == 0 {
		return nil, invalid("compress", fmt.Sprintf("source height %d below the smallest rung", c.SourceHeight))
	}

	var out []Invocation
	for _, format := range c.Formats {
		profile := formatProfiles[format]
		for _, rung := range rungs {
			out = append(out, c.render(b, format, profile, rung)...)
		}
	}
	return out, nil
}

func (c Compress) render(b *Builder, format Format, profile formatProfile, rung resolutionRung) []Invocation {
	name := fmt.Sprintf("%s_%s", c.OutputName, rung.name)
	output := b.outputPath(name + "." + profile.extension)
	avgBitrate := (rung.minBitrate + rung.maxBitrate) / 2

	args := []string{
		"-hwaccel", "auto",
		"-i", c.Input,
		"-vf", fmt.Sprintf("scale=-2:%d", rung.height),
		"-c:v", profile.videoCodec,
		"-b:v", kbps(avgBitrate),
		"-maxrate", kbps(rung.maxBitrate),
		"-minrate", kbps(rung.minBitrate),
		"-bufsize", kbps(avgBitrate * 2),
		"-c:a", profile.audioCodec,
		"-b:a", rung.audioBitrate,
	}
	args = append(args, profile.containerOpts...)

	if profile.webm {
		args = append(args,
			"-speed", "4",
			"-row-mt", "1",
			"-quality", "good",
			"-crf", strconv.Itoa(rung.crf),
			"-threads", b.threadArg(8),
		)
	} else {
		paramsFlag := "-x264-params"
		if profile.videoCodec == "libx265" {
			paramsFlag = "-x265-params"
		}
		args = append(args,
			"-preset", profile.preset,
			"-crf", strconv.Itoa(rung.crf),
			"-profile:v", profile.profile,
			"-tune", profile.tune,
			paramsFlag, "log-level=error:threads="+b.threadArg(4),
		)
	}

	if c.TwoPass && rung.twoPass {
		passLog := b.workPath("pass_" + string(format) + "_" + name)
		pass1 := append(append([]string{}, args...),
			"-pass", "1",
			"-passlogfile", passLog,
			"-an",
			"-f", "null", "-",
		)
		pass2 := append(append([]string{}, args...),
			"-pass", "2",
			"-passlogfile", passLog,
			"-y", output,
		)
		cleanup := []string{passLog + "-0.log", passLog + "-0.log.mbtree"}
		return []Invocation{
			{Args: pass1},
			{Args: pass2, Artifacts: []string{output}, Cleanup: cleanup},
		}
	}

	args = append(args, "-y", output)
	return []Invocation{{Args: args, Artifacts: []string{output}}}
}
