package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pders01/newsdigest/internal/preview"
)

func (a *app) runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Fetch the feed and send one digest",
		Args:  cobra.NoArgs,
		RunE:  a.runOnce,
	}
}

func (a *app) runOnce(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext(cmd)
	defer stop()

	journal, closeJournal := a.openJournal()
	defer closeJournal()

	report, err := a.newRunner(journal).Run(ctx)

	summary := fmt.Sprintf("%s: %d stories, %s", report.Message.Title, report.Message.Stories, report.Delivery.Outcome)
	fmt.Fprintln(a.stdout, preview.StatusLine(preview.DeliveryKind(report.Delivery.Outcome), summary))
	return err
}
