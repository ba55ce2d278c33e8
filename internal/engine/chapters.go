package engine

import (
	"context"

	"clipforge/internal/ffmpeg"
	"clipforge/internal/media"
)

// ChapterEdit maps the probed chapter list onto the list to write. The
// result is rewritten wholesale; edits compose by chaining.
type ChapterEdit func(chapters []media.ChapterEntry) ([]media.ChapterEntry, error)

// RewriteChapters probes the file, applies the edit to its chapter list, and
// submits a metadata rewrite with the result.
func (e *Engine) RewriteChapters(ctx context.Context, input, outputName string, edit ChapterEdit) (*Job, error) {
	info, err := e.prober.Probe(ctx, input)
	if err != nil {
		return nil, err
	}
	chapters, err := edit(info.Chapters)
	if err != nil {
		return nil, err
	}
	return e.Submit(ctx, input, ffmpeg.SetChapters{
		Input:      input,
		OutputName: outputName,
		Chapters:   chapters,
	})
}

// Chapters returns the probed chapter list without submitting work.
func (e *Engine) Chapters(ctx context.Context, input string) ([]media.ChapterEntry, error) {
	info, err := e.prober.Probe(ctx, input)
	if err != nil {
		return nil, err
	}
	return info.Chapters, nil
}
