package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"clipforge/internal/engine"
	"clipforge/internal/ffmpeg"
)

func newTrimCommand(ctx *commandContext) *cobra.Command {
	var startFlag, endFlag, outputFlag string

	cmd := &cobra.Command{
		Use:   "trim <input>",
		Short: "Keep a single time range by stream copy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseTimestampFlag("start", startFlag)
			if err != nil {
				return err
			}
			end, err := parseTimestampFlag("end", endFlag)
			if err != nil {
				return err
			}
			input := args[0]
			return ctx.withEngine(cmd, func(runCtx context.Context, eng *engine.Engine) error {
				return submitAndWait(runCtx, cmd, eng, input, ffmpeg.Trim{
					Input:      input,
					OutputName: outputName(outputFlag, input, "_trimmed"),
					Start:      start,
					End:        end,
				})
			})
		},
	}

	cmd.Flags().StringVar(&startFlag, "start", "0", "Range start timestamp")
	cmd.Flags().StringVar(&endFlag, "end", "", "Range end timestamp")
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output name")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func newCutCommand(ctx *commandContext) *cobra.Command {
	var removeFlag, outputFlag string

	cmd := &cobra.Command{
		Use:   "cut <input>",
		Short: "Remove time ranges and rejoin the remainder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ranges, err := parseRangeList("remove", removeFlag)
			if err != nil {
				return err
			}
			input := args[0]
			return ctx.withEngine(cmd, func(runCtx context.Context, eng *engine.Engine) error {
				info, err := eng.Probe(runCtx, input)
				if err != nil {
					return err
				}
				return submitAndWait(runCtx, cmd, eng, input, ffmpeg.Cut{
					Input:      input,
					OutputName: outputName(outputFlag, input, "_cut"),
					Ranges:     ranges,
					Duration:   info.Duration,
				})
			})
		},
	}

	cmd.Flags().StringVar(&removeFlag, "remove", "", "Ranges to remove, e.g. 00:10-00:25,01:00-01:05")
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output name")
	_ = cmd.MarkFlagRequired("remove")
	return cmd
}

func newSplitCommand(ctx *commandContext) *cobra.Command {
	var atFlag, outputFlag string

	cmd := &cobra.Command{
		Use:   "split <input>",
		Short: "Split a file into numbered parts at the given timestamps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			points, err := parseTimestampList("at", atFlag)
			if err != nil {
				return err
			}
			sort.Slice(points, func(i, j int) bool { return points[i] < points[j] })

			input := args[0]
			return ctx.withEngine(cmd, func(runCtx context.Context, eng *engine.Engine) error {
				info, err := eng.Probe(runCtx, input)
				if err != nil {
					return err
				}
				ranges, err := rangesFromSplitPoints(points, info.Duration)
				if err != nil {
					return err
				}
				return submitAndWait(runCtx, cmd, eng, input, ffmpeg.SplitVideo{
					Input:      input,
					OutputName: outputName(outputFlag, input, ""),
					Ranges:     ranges,
				})
			})
		},
	}

	cmd.Flags().StringVar(&atFlag, "at", "", "Split points, e.g. 10:00,20:00")
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output name")
	_ = cmd.MarkFlagRequired("at")
	return cmd
}

func rangesFromSplitPoints(points []time.Duration, duration time.Duration) ([]ffmpeg.Range, error) {
	ranges := make([]ffmpeg.Range, 0, len(points)+1)
	cursor := time.Duration(0)
	for _, point := range points {
		if point <= cursor {
			return nil, fmt.Errorf("split point %s is not after the previous boundary", point)
		}
		if duration > 0 && point >= duration {
			return nil, fmt.Errorf("split point %s is beyond the file duration", point)
		}
		ranges = append(ranges, ffmpeg.Range{Start: cursor, End: point})
		cursor = point
	}
	ranges = append(ranges, ffmpeg.Range{Start: cursor, End: duration})
	return ranges, nil
}

func newConcatCommand(ctx *commandContext) *cobra.Command {
	var outputFlag, containerFlag, transitionFlag string

	cmd := &cobra.Command{
		Use:   "concat <input> <input> [input...]",
		Short: "Join files back to back, optionally with a crossfade",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var transition time.Duration
			if transitionFlag != "" {
				var err error
				transition, err = parseTimestampFlag("transition", transitionFlag)
				if err != nil {
					return err
				}
			}

			return ctx.withEngine(cmd, func(runCtx context.Context, eng *engine.Engine) error {
				req := ffmpeg.Concat{
					Inputs:     args,
					OutputName: outputName(outputFlag, args[0], "_joined"),
					Container:  strings.TrimPrefix(containerFlag, "."),
					Transition: transition,
				}
				if transition > 0 {
					durations := make([]time.Duration, len(args))
					for i, input := range args {
						info, err := eng.Probe(runCtx, input)
						if err != nil {
							return err
						}
						durations[i] = info.Duration
						if i == 0 {
							for _, stream := range info.Streams {
								if stream.Width > 0 && stream.Height > 0 {
									req.Width = stream.Width
									req.Height = stream.Height
									break
								}
							}
						}
					}
					req.Durations = durations
				}
				return submitAndWait(runCtx, cmd, eng, args[0], req)
			})
		},
	}

	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output name")
	cmd.Flags().StringVar(&containerFlag, "container", "mp4", "Output container")
	cmd.Flags().StringVar(&transitionFlag, "transition", "", "Crossfade duration, e.g. 1.5")
	return cmd
}

func newCompressCommand(ctx *commandContext) *cobra.Command {
	var outputFlag, formatsFlag string
	var twoPass bool

	cmd := &cobra.Command{
		Use:   "compress <input>",
		Short: "Encode the resolution ladder in one or more formats",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formats, err := parseFormats(formatsFlag)
			if err != nil {
				return err
			}
			input := args[0]
			return ctx.withEngine(cmd, func(runCtx context.Context, eng *engine.Engine) error {
				info, err := eng.Probe(runCtx, input)
				if err != nil {
					return err
				}
				height := 0
				for _, stream := range info.Streams {
					if stream.Height > 0 {
						height = stream.Height
						break
					}
				}
				return submitAndWait(runCtx, cmd, eng, input, ffmpeg.Compress{
					Input:        input,
					OutputName:   outputName(outputFlag, input, ""),
					Formats:      formats,
					SourceHeight: height,
					TwoPass:      twoPass,
				})
			})
		},
	}

	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output name")
	cmd.Flags().StringVar(&formatsFlag, "formats", "mp4", "Comma separated formats: mp4, hevc, webm")
	cmd.Flags().BoolVar(&twoPass, "two-pass", false, "Two-pass encode for the 720p+ rungs")
	return cmd
}

func parseFormats(value string) ([]ffmpeg.Format, error) {
	var formats []ffmpeg.Format
	for _, part := range strings.Split(value, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		formats = append(formats, ffmpeg.Format(part))
	}
	if len(formats) == 0 {
		return nil, fmt.Errorf("--formats: at least one format is required")
	}
	return formats, nil
}

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var outputFlag, containerFlag string

	cmd := &cobra.Command{
		Use:   "convert <input>",
		Short: "Rewrap into another container without re-encoding",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			return ctx.withEngine(cmd, func(runCtx context.Context, eng *engine.Engine) error {
				return submitAndWait(runCtx, cmd, eng, input, ffmpeg.ConvertContainer{
					Input:      input,
					OutputName: outputName(outputFlag, input, ""),
					Container:  containerFlag,
				})
			})
		},
	}

	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output name")
	cmd.Flags().StringVar(&containerFlag, "container", "", "Target container, e.g. mkv")
	_ = cmd.MarkFlagRequired("container")
	return cmd
}

func newThumbnailCommand(ctx *commandContext) *cobra.Command {
	var outputFlag, atFlag string
	var width int

	cmd := &cobra.Command{
		Use:   "thumbnail <input>",
		Short: "Capture a single frame as a JPEG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			offset, err := parseTimestampFlag("at", atFlag)
			if err != nil {
				return err
			}
			input := args[0]
			return ctx.withEngine(cmd, func(runCtx context.Context, eng *engine.Engine) error {
				return submitAndWait(runCtx, cmd, eng, input, ffmpeg.Thumbnail{
					Input:      input,
					OutputName: outputName(outputFlag, input, "_thumb"),
					Offset:     offset,
					Width:      width,
				})
			})
		},
	}

	cmd.Flags().StringVar(&atFlag, "at", "0", "Frame timestamp")
	cmd.Flags().IntVar(&width, "width", 0, "Thumbnail width (default 640)")
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output name")
	return cmd
}
