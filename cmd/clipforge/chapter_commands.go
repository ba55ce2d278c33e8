package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"clipforge/internal/engine"
	"clipforge/internal/ffmpeg"
	"clipforge/internal/media"
)

func newChaptersCommand(ctx *commandContext) *cobra.Command {
	chaptersCmd := &cobra.Command{
		Use:   "chapters",
		Short: "Chapter metadata operations",
	}

	chaptersCmd.AddCommand(newChaptersListCommand(ctx))
	chaptersCmd.AddCommand(newChaptersAddCommand(ctx))
	chaptersCmd.AddCommand(newChaptersEditCommand(ctx))
	chaptersCmd.AddCommand(newChaptersSplitCommand(ctx))
	chaptersCmd.AddCommand(newChaptersMergeCommand(ctx))
	chaptersCmd.AddCommand(newChaptersRemoveCommand(ctx))
	chaptersCmd.AddCommand(newChaptersClearCommand(ctx))

	return chaptersCmd
}

func newChaptersListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list <input>",
		Short: "Show the file's chapters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}
			info, err := probeFile(cmd, cfg, logger, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(info.Chapters) == 0 {
				fmt.Fprintln(out, "No chapters")
				return nil
			}
			rows := make([][]string, 0, len(info.Chapters))
			for _, chapter := range info.Chapters {
				rows = append(rows, []string{
					strconv.Itoa(chapter.Index),
					media.FormatTimestamp(chapter.Start),
					media.FormatTimestamp(chapter.End),
					chapter.Title,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Start", "End", "Title"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
}

// rewrite runs one chapter edit against the probed list and waits for the
// metadata rewrite to finish.
func rewriteChapters(ctx *commandContext, cmd *cobra.Command, input, output string, edit engine.ChapterEdit) error {
	return ctx.withEngine(cmd, func(runCtx context.Context, eng *engine.Engine) error {
		job, err := eng.RewriteChapters(runCtx, input, output, edit)
		if err != nil {
			return err
		}
		return waitAndReport(runCtx, cmd, eng, job)
	})
}

func newChaptersAddCommand(ctx *commandContext) *cobra.Command {
	var outputFlag, startFlag, endFlag, titleFlag string

	cmd := &cobra.Command{
		Use:   "add <input>",
		Short: "Add a chapter",
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
			return rewriteChapters(ctx, cmd, input, outputName(outputFlag, input, "_chapters"),
				func(chapters []media.ChapterEntry) ([]media.ChapterEntry, error) {
					return media.AddChapters(chapters, media.ChapterEntry{
						Start: start,
						End:   end,
						Title: titleFlag,
					})
				})
		},
	}

	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output name")
	cmd.Flags().StringVar(&startFlag, "start", "", "Chapter start timestamp")
	cmd.Flags().StringVar(&endFlag, "end", "", "Chapter end timestamp")
	cmd.Flags().StringVar(&titleFlag, "title", "", "Chapter title")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func newChaptersEditCommand(ctx *commandContext) *cobra.Command {
	var outputFlag, startFlag, endFlag, titleFlag string

	cmd := &cobra.Command{
		Use:   "edit <input> <index>",
		Short: "Edit a chapter's bounds or title",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("chapter index: %w", err)
			}

			var change media.ChapterChange
			if cmd.Flags().Changed("start") {
				start, err := parseTimestampFlag("start", startFlag)
				if err != nil {
					return err
				}
				change.Start = &start
			}
			if cmd.Flags().Changed("end") {
				end, err := parseTimestampFlag("end", endFlag)
				if err != nil {
					return err
				}
				change.End = &end
			}
			if cmd.Flags().Changed("title") {
				change.Title = &titleFlag
			}
			if change.Start == nil && change.End == nil && change.Title == nil {
				return fmt.Errorf("nothing to change; pass --start, --end, or --title")
			}

			input := args[0]
			return rewriteChapters(ctx, cmd, input, outputName(outputFlag, input, "_chapters"),
				func(chapters []media.ChapterEntry) ([]media.ChapterEntry, error) {
					return media.EditChapter(chapters, index, change)
				})
		},
	}

	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output name")
	cmd.Flags().StringVar(&startFlag, "start", "", "New start timestamp")
	cmd.Flags().StringVar(&endFlag, "end", "", "New end timestamp")
	cmd.Flags().StringVar(&titleFlag, "title", "", "New title")
	return cmd
}

func newChaptersSplitCommand(ctx *commandContext) *cobra.Command {
	var outputFlag, atFlag string

	cmd := &cobra.Command{
		Use:   "split <input> <index>",
		Short: "Split a chapter in two at a timestamp",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("chapter index: %w", err)
			}
			at, err := parseTimestampFlag("at", atFlag)
			if err != nil {
				return err
			}
			input := args[0]
			return rewriteChapters(ctx, cmd, input, outputName(outputFlag, input, "_chapters"),
				func(chapters []media.ChapterEntry) ([]media.ChapterEntry, error) {
					return media.SplitChapter(chapters, index, at)
				})
		},
	}

	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output name")
	cmd.Flags().StringVar(&atFlag, "at", "", "Split timestamp, strictly inside the chapter")
	_ = cmd.MarkFlagRequired("at")
	return cmd
}

func newChaptersMergeCommand(ctx *commandContext) *cobra.Command {
	var outputFlag string

	cmd := &cobra.Command{
		Use:   "merge <input> <index>",
		Short: "Merge a chapter with its successor",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("chapter index: %w", err)
			}
			input := args[0]
			return rewriteChapters(ctx, cmd, input, outputName(outputFlag, input, "_chapters"),
				func(chapters []media.ChapterEntry) ([]media.ChapterEntry, error) {
					return media.MergeChapters(chapters, index)
				})
		},
	}

	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output name")
	return cmd
}

func newChaptersRemoveCommand(ctx *commandContext) *cobra.Command {
	var outputFlag string

	cmd := &cobra.Command{
		Use:   "remove <input> <index>",
		Short: "Remove a single chapter",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("chapter index: %w", err)
			}
			input := args[0]
			return rewriteChapters(ctx, cmd, input, outputName(outputFlag, input, "_chapters"),
				func(chapters []media.ChapterEntry) ([]media.ChapterEntry, error) {
					return media.RemoveChapter(chapters, index)
				})
		},
	}

	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output name")
	return cmd
}

func newChaptersClearCommand(ctx *commandContext) *cobra.Command {
	var outputFlag string

	cmd := &cobra.Command{
		Use:   "clear <input>",
		Short: "Strip all chapter metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			return ctx.withEngine(cmd, func(runCtx context.Context, eng *engine.Engine) error {
				return submitAndWait(runCtx, cmd, eng, input, ffmpeg.RemoveChapters{
					Input:      input,
					OutputName: outputName(outputFlag, input, "_nochapters"),
				})
			})
		},
	}

	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output name")
	return cmd
}
