package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/pders01/newsdigest/internal/debuglog"
	"github.com/pders01/newsdigest/internal/schedule"
)

func (a *app) scheduleCmd() *cobra.Command {
	var now bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Send the digest on the configured cron schedule until interrupted",
		Long: `Runs the digest on schedule.cron (default "0 9 * * *") in
schedule.timezone. Runs never overlap: an activation that fires while the
previous run is still going is skipped. Stops on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext(cmd)
			defer stop()

			journal, closeJournal := a.openJournal()
			defer closeJournal()
			runner := a.newRunner(journal)

			var opts []schedule.Option
			if now {
				opts = append(opts, schedule.WithImmediateRun())
			}
			s, err := schedule.New(a.cfg.Schedule, func(ctx context.Context) error {
				_, err := runner.Run(ctx)
				return err
			}, opts...)
			if err != nil {
				return err
			}

			for _, t := range s.Next(time.Now(), 3) {
				debuglog.Debugf("upcoming run at %s (%s)", t.Format(time.RFC3339), s.Location())
			}
			return s.Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&now, "now", false, "also run once immediately")
	return cmd
}
