package engine

import (
	"context"
	"fmt"

	"clipforge/internal/ffmpeg"
	"clipforge/internal/media"
	"clipforge/internal/services"
)

// TrackSelector picks one stream among the streams of its kind, either by
// 0-based position or by language. Exactly one selector must be set;
// Position is -1 when unset.
type TrackSelector struct {
	Position int
	Language string
}

// ByPosition selects the nth stream of the kind.
func ByPosition(position int) TrackSelector {
	return TrackSelector{Position: position}
}

// ByLanguage selects the first stream of the kind matching the language.
func ByLanguage(language string) TrackSelector {
	return TrackSelector{Position: -1, Language: language}
}

func (s TrackSelector) validate(operation string) error {
	byPosition := s.Position >= 0
	byLanguage := s.Language != ""
	if byPosition == byLanguage {
		return services.Wrap(services.ErrInvalidParameters, "engine", operation,
			"select a track by position or by language, not both", nil)
	}
	return nil
}

func (s TrackSelector) resolve(operation string, streams []media.StreamInfo) (int, error) {
	if s.Position >= 0 {
		if s.Position >= len(streams) {
			return 0, services.Wrap(services.ErrInvalidParameters, "engine", operation,
				fmt.Sprintf("track %d out of range, file has %d", s.Position, len(streams)), nil)
		}
		return s.Position, nil
	}
	for i, stream := range streams {
		if media.SameLanguage(stream.Language, s.Language) {
			return i, nil
		}
	}
	return 0, services.Wrap(services.ErrInvalidParameters, "engine", operation,
		fmt.Sprintf("no track with language %q", s.Language), nil)
}

// ResolveAudioTrack probes the file and maps the selector onto a 0-based
// audio track position.
func (e *Engine) ResolveAudioTrack(ctx context.Context, input string, sel TrackSelector) (int, error) {
	if err := sel.validate("resolve audio track"); err != nil {
		return 0, err
	}
	info, err := e.prober.Probe(ctx, input)
	if err != nil {
		return 0, err
	}
	return sel.resolve("resolve audio track", info.AudioStreams())
}

// ResolveSubtitleTrack probes the file and maps the selector onto a 0-based
// subtitle track position.
func (e *Engine) ResolveSubtitleTrack(ctx context.Context, input string, sel TrackSelector) (int, error) {
	if err := sel.validate("resolve subtitle track"); err != nil {
		return 0, err
	}
	info, err := e.prober.Probe(ctx, input)
	if err != nil {
		return 0, err
	}
	return sel.resolve("resolve subtitle track", info.SubtitleStreams())
}

// ChooseAudio keeps one audio track, selected by position or language.
func (e *Engine) ChooseAudio(ctx context.Context, input, outputName string, sel TrackSelector, makeDefault bool) (*Job, error) {
	position, err := e.ResolveAudioTrack(ctx, input, sel)
	if err != nil {
		return nil, err
	}
	return e.Submit(ctx, input, ffmpeg.ChooseAudio{
		Input:       input,
		OutputName:  outputName,
		Position:    position,
		MakeDefault: makeDefault,
	})
}

// ChooseSubtitle keeps one subtitle track, selected by position or language.
func (e *Engine) ChooseSubtitle(ctx context.Context, input, outputName string, sel TrackSelector, makeDefault bool) (*Job, error) {
	position, err := e.ResolveSubtitleTrack(ctx, input, sel)
	if err != nil {
		return nil, err
	}
	return e.Submit(ctx, input, ffmpeg.ChooseSubtitle{
		Input:       input,
		OutputName:  outputName,
		Position:    position,
		MakeDefault: makeDefault,
	})
}

// BurnSubtitle hard-renders one embedded subtitle track into the video.
func (e *Engine) BurnSubtitle(ctx context.Context, input, outputName string, sel TrackSelector) (*Job, error) {
	position, err := e.ResolveSubtitleTrack(ctx, input, sel)
	if err != nil {
		return nil, err
	}
	return e.Submit(ctx, input, ffmpeg.ChooseSubtitleBurn{
		Input:      input,
		OutputName: outputName,
		Position:   position,
	})
}

// ExtractSubtitles probes the file and extracts every subtitle track into
// its own file, named by language and position.
func (e *Engine) ExtractSubtitles(ctx context.Context, input, outputName, extension string) (*Job, error) {
	info, err := e.prober.Probe(ctx, input)
	if err != nil {
		return nil, err
	}
	subtitles := info.SubtitleStreams()
	if len(subtitles) == 0 {
		return nil, services.Wrap(services.ErrInvalidParameters, "engine", "extract subtitles",
			"file has no subtitle tracks", nil)
	}

	tracks := make([]ffmpeg.SubtitleTrackRef, len(subtitles))
	for i, stream := range subtitles {
		tracks[i] = ffmpeg.SubtitleTrackRef{
			Position:  i,
			Language:  media.NormalizeLanguage(stream.Language),
			Extension: extension,
		}
	}
	return e.Submit(ctx, input, ffmpeg.ExtractSubtitles{
		Input:      input,
		OutputName: outputName,
		Tracks:     tracks,
	})
}
