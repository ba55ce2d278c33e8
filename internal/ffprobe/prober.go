package ffprobe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"clipforge/internal/logging"
	"clipforge/internal/media"
	"clipforge/internal/services"
)

const defaultTimeout = 30 * time.Second

// Prober runs ffprobe against single files.
type Prober struct {
	binary  string
	timeout time.Duration
	logger  *slog.Logger
}

func New(binary string, timeout time.Duration, logger *slog.Logger) *Prober {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Prober{
		binary:  binary,
		timeout: timeout,
		logger:  logger.With(logging.String(logging.FieldComponent, "ffprobe")),
	}
}

// Probe reads streams, chapters, and format data for one file.
func (p *Prober) Probe(ctx context.Context, path string) (media.FileInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	args := []string{
		"-v", "error",
		"-show_format",
		"-show_streams",
		"-show_chapters",
		"-of", "json",
		path,
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.binary, args...) //nolint:gosec
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
			return media.FileInfo{}, services.Wrap(services.ErrExecutableNotFound, "ffprobe", "probe", p.binary, err)
		}
		if ctx.Err() != nil {
			return media.FileInfo{}, services.Wrap(services.ErrTimeout, "ffprobe", "probe", path, ctx.Err())
		}
		message := strings.TrimSpace(stderr.String())
		if message == "" {
			message = err.Error()
		}
		return media.FileInfo{}, services.Wrap(services.ErrProcessFailed, "ffprobe", "probe", message, err)
	}

	info, err := Parse(stdout.Bytes(), path)
	if err != nil {
		return media.FileInfo{}, err
	}
	p.logger.Debug("probed file",
		logging.String("path", path),
		logging.Int("streams", len(info.Streams)),
		logging.Int("chapters", len(info.Chapters)))
	return info, nil
}

type report struct {
	Format   *formatReport   `json:"format"`
	Streams  []streamReport  `json:"streams"`
	Chapters []chapterReport `json:"chapters"`
}

type formatReport struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
}

type streamReport struct {
	Index       int               `json:"index"`
	CodecType   string            `json:"codec_type"`
	CodecName   string            `json:"codec_name"`
	Channels    int               `json:"channels"`
	Width       int               `json:"width"`
	Height      int               `json:"height"`
	Tags        map[string]string `json:"tags"`
	Disposition map[string]int    `json:"disposition"`
}

type chapterReport struct {
	StartTime string            `json:"start_time"`
	EndTime   string            `json:"end_time"`
	Tags      map[string]string `json:"tags"`
}

// Parse decodes an ffprobe JSON report. Optional fields (language, title,
// size) may be absent; a missing format section or undecodable JSON is a
// parse error.
func Parse(data []byte, path string) (media.FileInfo, error) {
	var rep report
	if err := json.Unmarshal(data, &rep); err != nil {
		return media.FileInfo{}, services.Wrap(services.ErrProbeParse, "ffprobe", "parse", path, err)
	}
	if rep.Format == nil {
		return media.FileInfo{}, services.Wrap(services.ErrProbeParse, "ffprobe", "parse", path+": no format section", nil)
	}

	info := media.FileInfo{
		Path:      path,
		Container: firstFormatName(rep.Format.FormatName, path),
		Duration:  parseSeconds(rep.Format.Duration),
	}
	if size, err := strconv.ParseInt(rep.Format.Size, 10, 64); err == nil {
		info.Size = size
	}

	for _, s := range rep.Streams {
		stream := media.StreamInfo{
			Index:    s.Index,
			Kind:     media.ParseStreamKind(s.CodecType),
			Codec:    s.CodecName,
			Channels: s.Channels,
			Width:    s.Width,
			Height:   s.Height,
			Default:  s.Disposition["default"] != 0,
			Forced:   s.Disposition["forced"] != 0,
		}
		if lang, ok := s.Tags["language"]; ok {
			stream.Language = lang
		}
		info.Streams = append(info.Streams, stream)
	}

	for i, c := range rep.Chapters {
		start := parseSeconds(c.StartTime)
		end := parseSeconds(c.EndTime)
		if end <= start {
			return media.FileInfo{}, services.Wrap(services.ErrProbeParse, "ffprobe", "parse",
				path+": chapter "+strconv.Itoa(i)+" has start not before end", nil)
		}
		info.Chapters = append(info.Chapters, media.ChapterEntry{
			Index: i,
			Start: start,
			End:   end,
			Title: c.Tags["title"],
		})
	}
	return info, nil
}

// firstFormatName reduces ffprobe's comma list ("mov,mp4,m4a,...") to the
// file's own extension when it appears in the list, else the first entry.
func firstFormatName(formatName, path string) string {
	names := strings.Split(formatName, ",")
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, name := range names {
		if name == ext {
			return name
		}
	}
	return names[0]
}

func parseSeconds(value string) time.Duration {
	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}
