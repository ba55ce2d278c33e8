package main

import (
	"context"

	"github.com/spf13/cobra"

	"clipforge/internal/engine"
	"clipforge/internal/ffmpeg"
)

func newSubtitleCommand(ctx *commandContext) *cobra.Command {
	subtitleCmd := &cobra.Command{
		Use:   "subtitle",
		Short: "Subtitle track operations",
	}

	subtitleCmd.AddCommand(newSubtitleAddCommand(ctx))
	subtitleCmd.AddCommand(newSubtitleChooseCommand(ctx))
	subtitleCmd.AddCommand(newSubtitleExtractCommand(ctx))
	subtitleCmd.AddCommand(newSubtitleRemoveCommand(ctx))
	subtitleCmd.AddCommand(newSubtitleConvertCommand(ctx))

	return subtitleCmd
}

func newSubtitleAddCommand(ctx *commandContext) *cobra.Command {
	var outputFlag, languageFlag string
	var makeDefault, forced, burn bool
	var position int

	cmd := &cobra.Command{
		Use:   "add <input> <subtitle-file>",
		Short: "Add an external subtitle file, soft or burned in",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, subtitle := args[0], args[1]
			return ctx.withEngine(cmd, func(runCtx context.Context, eng *engine.Engine) error {
				return submitAndWait(runCtx, cmd, eng, input, ffmpeg.AddSubtitle{
					Input:        input,
					SubtitlePath: subtitle,
					OutputName:   outputName(outputFlag, input, "_subbed"),
					Language:     languageFlag,
					Position:     position,
					Default:      makeDefault,
					Forced:       forced,
					Burn:         burn,
				})
			})
		},
	}

	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output name")
	cmd.Flags().StringVar(&languageFlag, "language", "", "Subtitle language tag")
	cmd.Flags().IntVar(&position, "position", 0, "Insert position among existing subtitle tracks")
	cmd.Flags().BoolVar(&makeDefault, "default", false, "Mark the track as default")
	cmd.Flags().BoolVar(&forced, "forced", false, "Mark the track as forced")
	cmd.Flags().BoolVar(&burn, "burn", false, "Burn the subtitles into the video")
	return cmd
}

func newSubtitleChooseCommand(ctx *commandContext) *cobra.Command {
	var outputFlag, languageFlag string
	var trackFlag int
	var makeDefault, burn bool

	cmd := &cobra.Command{
		Use:   "choose <input>",
		Short: "Keep or burn a single embedded subtitle track",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			return ctx.withEngine(cmd, func(runCtx context.Context, eng *engine.Engine) error {
				selector := trackSelector(trackFlag, languageFlag)
				var (
					job *engine.Job
					err error
				)
				if burn {
					job, err = eng.BurnSubtitle(runCtx, input, outputName(outputFlag, input, "_burned"), selector)
				} else {
					job, err = eng.ChooseSubtitle(runCtx, input, outputName(outputFlag, input, "_sub"), selector, makeDefault)
				}
				if err != nil {
					return err
				}
				return waitAndReport(runCtx, cmd, eng, job)
			})
		},
	}

	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output name")
	cmd.Flags().IntVar(&trackFlag, "track", -1, "0-based subtitle track position")
	cmd.Flags().StringVar(&languageFlag, "language", "", "Subtitle track language, e.g. en")
	cmd.Flags().BoolVar(&makeDefault, "default", false, "Mark the kept track as default")
	cmd.Flags().BoolVar(&burn, "burn", false, "Burn the track into the video")
	return cmd
}

func newSubtitleExtractCommand(ctx *commandContext) *cobra.Command {
	var outputFlag, formatFlag string

	cmd := &cobra.Command{
		Use:   "extract <input>",
		Short: "Extract every embedded subtitle track into its own file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			return ctx.withEngine(cmd, func(runCtx context.Context, eng *engine.Engine) error {
				job, err := eng.ExtractSubtitles(runCtx, input, outputName(outputFlag, input, ""), formatFlag)
				if err != nil {
					return err
				}
				return waitAndReport(runCtx, cmd, eng, job)
			})
		},
	}

	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output name")
	cmd.Flags().StringVar(&formatFlag, "format", "srt", "Subtitle file extension")
	return cmd
}

func newSubtitleRemoveCommand(ctx *commandContext) *cobra.Command {
	var outputFlag string

	cmd := &cobra.Command{
		Use:   "remove <input>",
		Short: "Strip all subtitle tracks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			return ctx.withEngine(cmd, func(runCtx context.Context, eng *engine.Engine) error {
				return submitAndWait(runCtx, cmd, eng, input, ffmpeg.RemoveSubtitles{
					Input:      input,
					OutputName: outputName(outputFlag, input, "_nosubs"),
				})
			})
		},
	}

	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output name")
	return cmd
}

func newSubtitleConvertCommand(ctx *commandContext) *cobra.Command {
	var outputFlag string

	cmd := &cobra.Command{
		Use:   "convert <subtitle-file>",
		Short: "Convert a subtitle file to SRT",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			return ctx.withEngine(cmd, func(runCtx context.Context, eng *engine.Engine) error {
				return submitAndWait(runCtx, cmd, eng, input, ffmpeg.ConvertSubtitle{
					Input:      input,
					OutputName: outputName(outputFlag, input, ""),
				})
			})
		},
	}

	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output name")
	return cmd
}
