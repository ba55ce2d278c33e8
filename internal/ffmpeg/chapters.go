package ffmpeg

import (
	"fmt"
	"path/filepath"
	"strings"

	"clipforge/internal/media"
)

// RenderChapterMetadata renders a chapter sequence as an FFMETADATA1 sidecar
// with a millisecond timebase, the format ffmpeg's metadata muxer reads.
func RenderChapterMetadata(chapters []media.ChapterEntry) string {
	var out strings.Builder
	out.WriteString(";FFMETADATA1\n")
	for _, chapter := range chapters {
		title := chapter.Title
		if title == "" {
			title = fmt.Sprintf("Chapter %d", chapter.Index+1)
		}
		fmt.Fprintf(&out, "[CHAPTER]\nTIMEBASE=1/1000\nSTART=%d\nEND=%d\ntitle=%s\n\n",
			chapter.Start.Milliseconds(), chapter.End.Milliseconds(), title)
	}
	return out.String()
}

// SetChapters replaces the input's chapter metadata with the given sequence,
// stream-copying everything else. The chapter list travels as a metadata
// sidecar the executor writes next to the scratch files. The caller produces
// the sequence with the chapter editor, so add/edit/split/merge all persist
// through this one operation.
type SetChapters struct {
	Input      string
	OutputName string
	Chapters   []media.ChapterEntry
}

func (SetChapters) Kind() Kind { return KindSetChapters }

func (s SetChapters) validate() error {
	if s.Input == "" || s.OutputName == "" {
		return invalid("set_chapters", "input and output name are required")
	}
	if len(s.Chapters) == 0 {
		return invalid("set_chapters", "no chapters given")
	}
	for _, chapter := range s.Chapters {
		if !chapter.Valid() {
			return invalid("set_chapters", fmt.Sprintf("chapter %d has start not before end", chapter.Index))
		}
	}
	return nil
}

func (s SetChapters) invocations(b *Builder) ([]Invocation, error) {
	ext := filepath.Ext(s.Input)
	output := b.outputPath(s.OutputName + ext)
	metaPath := b.workPath(s.OutputName + ".ffmeta")

	args := []string{
		"-i", s.Input,
		"-i", metaPath,
		"-map_metadata", "1",
		"-c", "copy",
		"-threads", b.threadArg(2),
		"-y", output,
	}
	return []Invocation{{
		Args:      args,
		Artifacts: []string{output},
		Sidecars:  []Sidecar{{Path: metaPath, Content: RenderChapterMetadata(s.Chapters)}},
	}}, nil
}

// RemoveChapters strips all metadata, chapters included, by stream copy.
type RemoveChapters struct {
	Input      string
	OutputName string
}

func (RemoveChapters) Kind() Kind { return KindRemoveChapters }

func (r RemoveChapters) validate() error {
	if r.Input == "" || r.OutputName == "" {
		return invalid("remove_chapters", "input and output name are required")
	}
	return nil
}

func (r RemoveChapters) invocations(b *Builder) ([]Invocation, error) {
	ext := filepath.Ext(r.Input)
	output := b.outputPath(r.OutputName + ext)
	args := []string{
		"-i", r.Input,
		"-map_metadata", "-1",
		"-c", "copy",
	}
	args = appendFaststart(args, ext)
	args = append(args, "-threads", b.threadArg(2), "-y", output)
	return []Invocation{{Args: args, Artifacts: []string{output}}}, nil
}
