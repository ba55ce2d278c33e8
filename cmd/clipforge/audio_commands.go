package main

import (
	"context"

	"github.com/spf13/cobra"

	"clipforge/internal/engine"
	"clipforge/internal/ffmpeg"
)

func newAudioCommand(ctx *commandContext) *cobra.Command {
	audioCmd := &cobra.Command{
		Use:   "audio",
		Short: "Audio track operations",
	}

	audioCmd.AddCommand(newAudioExtractCommand(ctx))
	audioCmd.AddCommand(newAudioConvertCommand(ctx))
	audioCmd.AddCommand(newAudioRemoveCommand(ctx))
	audioCmd.AddCommand(newAudioChooseCommand(ctx))
	audioCmd.AddCommand(newAudioMergeCommand(ctx))

	return audioCmd
}

func newAudioExtractCommand(ctx *commandContext) *cobra.Command {
	var outputFlag, codecFlag string
	var bitrate int

	cmd := &cobra.Command{
		Use:   "extract <input>",
		Short: "Extract the audio into a standalone file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			return ctx.withEngine(cmd, func(runCtx context.Context, eng *engine.Engine) error {
				return submitAndWait(runCtx, cmd, eng, input, ffmpeg.ExtractAudio{
					Input:       input,
					OutputName:  outputName(outputFlag, input, ""),
					Codec:       ffmpeg.AudioCodec(codecFlag),
					BitrateKbps: bitrate,
				})
			})
		},
	}

	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output name")
	cmd.Flags().StringVar(&codecFlag, "codec", "aac", "Audio codec: aac, opus, mp3, flac")
	cmd.Flags().IntVar(&bitrate, "bitrate", 192, "Audio bitrate in kbps")
	return cmd
}

func newAudioConvertCommand(ctx *commandContext) *cobra.Command {
	var outputFlag, codecFlag string
	var bitrate int

	cmd := &cobra.Command{
		Use:   "convert <input>",
		Short: "Convert an audio file to another codec",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			return ctx.withEngine(cmd, func(runCtx context.Context, eng *engine.Engine) error {
				return submitAndWait(runCtx, cmd, eng, input, ffmpeg.ConvertAudio{
					Input:       input,
					OutputName:  outputName(outputFlag, input, ""),
					Codec:       ffmpeg.AudioCodec(codecFlag),
					BitrateKbps: bitrate,
				})
			})
		},
	}

	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output name")
	cmd.Flags().StringVar(&codecFlag, "codec", "", "Target codec: aac, opus, mp3, flac")
	cmd.Flags().IntVar(&bitrate, "bitrate", 192, "Audio bitrate in kbps")
	_ = cmd.MarkFlagRequired("codec")
	return cmd
}

func newAudioRemoveCommand(ctx *commandContext) *cobra.Command {
	var outputFlag string

	cmd := &cobra.Command{
		Use:   "remove <input>",
		Short: "Strip all audio tracks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			return ctx.withEngine(cmd, func(runCtx context.Context, eng *engine.Engine) error {
				return submitAndWait(runCtx, cmd, eng, input, ffmpeg.RemoveAudio{
					Input:      input,
					OutputName: outputName(outputFlag, input, "_noaudio"),
				})
			})
		},
	}

	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output name")
	return cmd
}

func newAudioChooseCommand(ctx *commandContext) *cobra.Command {
	var outputFlag, languageFlag string
	var trackFlag int
	var makeDefault bool

	cmd := &cobra.Command{
		Use:   "choose <input>",
		Short: "Keep a single audio track by position or language",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			return ctx.withEngine(cmd, func(runCtx context.Context, eng *engine.Engine) error {
				job, err := eng.ChooseAudio(runCtx, input,
					outputName(outputFlag, input, "_audio"),
					trackSelector(trackFlag, languageFlag), makeDefault)
				if err != nil {
					return err
				}
				return waitAndReport(runCtx, cmd, eng, job)
			})
		},
	}

	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output name")
	cmd.Flags().IntVar(&trackFlag, "track", -1, "0-based audio track position")
	cmd.Flags().StringVar(&languageFlag, "language", "", "Audio track language, e.g. en")
	cmd.Flags().BoolVar(&makeDefault, "default", false, "Mark the kept track as default")
	return cmd
}

func newAudioMergeCommand(ctx *commandContext) *cobra.Command {
	var outputFlag string

	cmd := &cobra.Command{
		Use:   "merge <video> <audio>",
		Short: "Mux an audio file onto a video",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			video, audio := args[0], args[1]
			return ctx.withEngine(cmd, func(runCtx context.Context, eng *engine.Engine) error {
				return submitAndWait(runCtx, cmd, eng, video, ffmpeg.MergeVideoAudio{
					Video:      video,
					Audio:      audio,
					OutputName: outputName(outputFlag, video, "_merged"),
				})
			})
		},
	}

	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output name")
	return cmd
}
