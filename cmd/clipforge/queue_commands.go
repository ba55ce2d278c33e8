package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"clipforge/internal/media"
	"clipforge/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Job history operations",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueShowCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))

	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var statusFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List job history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *queue.Store) error {
				var statuses []queue.Status
				if statusFlag != "" {
					status := queue.Status(statusFlag)
					if !status.Valid() {
						return fmt.Errorf("unknown status %q", statusFlag)
					}
					statuses = append(statuses, status)
				}
				records, err := store.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintln(out, "No jobs")
					return nil
				}
				rows := make([][]string, 0, len(records))
				for _, rec := range records {
					rows = append(rows, []string{
						shortID(rec.ID),
						rec.Kind,
						string(rec.Status),
						rec.InputPath,
						rec.OutputName,
						formatElapsed(rec),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Kind", "Status", "Input", "Output", "Elapsed"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&statusFlag, "status", "", "Filter by status (pending, running, completed, failed, cancelled, timed_out)")
	return cmd
}

func newQueueShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one job record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *queue.Store) error {
				rec, err := findRecord(cmd, store, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "ID:       %s\n", rec.ID)
				fmt.Fprintf(out, "Kind:     %s\n", rec.Kind)
				fmt.Fprintf(out, "Status:   %s\n", rec.Status)
				fmt.Fprintf(out, "Input:    %s\n", rec.InputPath)
				if rec.OutputName != "" {
					fmt.Fprintf(out, "Output:   %s\n", rec.OutputName)
				}
				fmt.Fprintf(out, "Created:  %s\n", rec.CreatedAt.Local().Format(time.RFC3339))
				if !rec.StartedAt.IsZero() {
					fmt.Fprintf(out, "Started:  %s\n", rec.StartedAt.Local().Format(time.RFC3339))
				}
				if !rec.FinishedAt.IsZero() {
					fmt.Fprintf(out, "Finished: %s (%s)\n", rec.FinishedAt.Local().Format(time.RFC3339), formatElapsed(rec))
				}
				if rec.ErrorMessage != "" {
					fmt.Fprintf(out, "Error:    %s\n", rec.ErrorMessage)
				}
				if rec.ParamsJSON != "" {
					fmt.Fprintf(out, "Params:   %s\n", rec.ParamsJSON)
				}
				if rec.ArtifactsJSON != "" {
					fmt.Fprintf(out, "Artifacts: %s\n", rec.ArtifactsJSON)
				}
				return nil
			})
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove finished job records",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *queue.Store) error {
				var (
					removed int64
					err     error
				)
				if all {
					removed, err = store.Clear(cmd.Context())
				} else {
					removed, err = store.ClearFinished(cmd.Context())
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d record(s)\n", removed)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Remove every record, including pending and running")
	return cmd
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show job history totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *queue.Store) error {
				summary, err := store.Summarize(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Database:  %s\n", store.Path())
				fmt.Fprintf(out, "Total:     %d\n", summary.Total)
				fmt.Fprintf(out, "Pending:   %d\n", summary.Pending)
				fmt.Fprintf(out, "Running:   %d\n", summary.Running)
				fmt.Fprintf(out, "Completed: %d\n", summary.Completed)
				fmt.Fprintf(out, "Failed:    %d\n", summary.Failed)
				fmt.Fprintf(out, "Cancelled: %d\n", summary.Cancelled)
				fmt.Fprintf(out, "Timed out: %d\n", summary.TimedOut)
				return nil
			})
		},
	}
}

// findRecord accepts a full job ID or an unambiguous prefix.
func findRecord(cmd *cobra.Command, store *queue.Store, id string) (*queue.Record, error) {
	rec, err := store.GetByID(cmd.Context(), id)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		return rec, nil
	}

	records, err := store.List(cmd.Context())
	if err != nil {
		return nil, err
	}
	var match *queue.Record
	for _, candidate := range records {
		if len(id) > 0 && len(candidate.ID) >= len(id) && candidate.ID[:len(id)] == id {
			if match != nil {
				return nil, fmt.Errorf("id %q is ambiguous", id)
			}
			match = candidate
		}
	}
	if match == nil {
		return nil, fmt.Errorf("no job with id %q", id)
	}
	return match, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatElapsed(rec *queue.Record) string {
	if rec.StartedAt.IsZero() || rec.FinishedAt.IsZero() {
		return ""
	}
	return media.FormatTimestamp(rec.FinishedAt.Sub(rec.StartedAt))
}
