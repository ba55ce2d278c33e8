package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"clipforge/internal/daemon"
	"clipforge/internal/logging"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Hold the instance lock and run until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out, err := logging.NewWriterFor(cfg.Paths.LogDir)
			if err != nil {
				return err
			}
			logger, err := logging.New(logging.Options{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
				Output: out,
			})
			if err != nil {
				return err
			}
			d, err := daemon.New(cfg, logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "clipforge daemon running (lock %s); press Ctrl-C to stop\n", d.LockPath())
			return d.Run(cmd.Context())
		},
	}
}
