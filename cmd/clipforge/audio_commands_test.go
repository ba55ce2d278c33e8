package main

import (
	"testing"

	"clipforge/internal/ffmpeg"
)

func TestAudioExtractDefaultFlagsBuildValidRequest(t *testing.T) {
	cmd := newAudioExtractCommand(&commandContext{})
	codec, err := cmd.Flags().GetString("codec")
	if err != nil {
		t.Fatalf("codec flag: %v", err)
	}
	bitrate, err := cmd.Flags().GetInt("bitrate")
	if err != nil {
		t.Fatalf("bitrate flag: %v", err)
	}

	builder := ffmpeg.New("/out", "/work", 2)
	_, err = builder.Build(ffmpeg.ExtractAudio{
		Input:       "/media/movie.mkv",
		OutputName:  "movie",
		Codec:       ffmpeg.AudioCodec(codec),
		BitrateKbps: bitrate,
	})
	if err != nil {
		t.Fatalf("extract with default flags rejected: %v", err)
	}
}

func TestAudioConvertDefaultBitrateBuildsValidRequest(t *testing.T) {
	cmd := newAudioConvertCommand(&commandContext{})
	bitrate, err := cmd.Flags().GetInt("bitrate")
	if err != nil {
		t.Fatalf("bitrate flag: %v", err)
	}

	builder := ffmpeg.New("/out", "/work", 2)
	_, err = builder.Build(ffmpeg.ConvertAudio{
		Input:       "/media/track.flac",
		OutputName:  "track",
		Codec:       ffmpeg.CodecOpus,
		BitrateKbps: bitrate,
	})
	if err != nil {
		t.Fatalf("convert with default bitrate rejected: %v", err)
	}
}
