package main

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"clipforge/internal/config"
	"clipforge/internal/deps"
	"clipforge/internal/ffprobe"
	"clipforge/internal/media"
)

// probeFile inspects a file without taking the instance lock; probing is
// read-only and safe alongside a running job.
func probeFile(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, path string) (media.FileInfo, error) {
	ffprobePath, err := deps.Resolve(cfg.Tools.FFprobe)
	if err != nil {
		return media.FileInfo{}, err
	}
	prober := ffprobe.New(ffprobePath, 0, logger)
	return prober.Probe(cmd.Context(), path)
}

func newProbeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "probe <file>",
		Short: "Inspect a media file's streams and chapters",
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
			fmt.Fprintf(out, "File:      %s\n", info.Path)
			fmt.Fprintf(out, "Container: %s\n", info.Container)
			fmt.Fprintf(out, "Duration:  %s\n", media.FormatTimestamp(info.Duration))
			fmt.Fprintf(out, "Size:      %d bytes\n\n", info.Size)

			rows := make([][]string, 0, len(info.Streams))
			for _, stream := range info.Streams {
				detail := ""
				switch stream.Kind {
				case media.StreamVideo:
					detail = fmt.Sprintf("%dx%d", stream.Width, stream.Height)
				case media.StreamAudio:
					detail = fmt.Sprintf("%dch", stream.Channels)
				}
				rows = append(rows, []string{
					strconv.Itoa(stream.Index),
					string(stream.Kind),
					stream.Codec,
					stream.Language,
					detail,
					yesNo(stream.Default),
					yesNo(stream.Forced),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Type", "Codec", "Lang", "Detail", "Default", "Forced"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			))

			if len(info.Chapters) > 0 {
				chapterRows := make([][]string, 0, len(info.Chapters))
				for _, chapter := range info.Chapters {
					chapterRows = append(chapterRows, []string{
						strconv.Itoa(chapter.Index),
						media.FormatTimestamp(chapter.Start),
						media.FormatTimestamp(chapter.End),
						chapter.Title,
					})
				}
				fmt.Fprintln(out)
				fmt.Fprintln(out, renderTable(
					[]string{"#", "Start", "End", "Title"},
					chapterRows,
					[]columnAlignment{alignRight, alignRight, alignRight, alignLeft},
				))
			}
			return nil
		},
	}
}
