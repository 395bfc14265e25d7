package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pders01/newsdigest/internal/preview"
	"github.com/pders01/newsdigest/internal/storage"
)

var errNoJournal = errors.New("history.path is not configured")

func (a *app) historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded digest runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.requireJournal()
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(limit)
			if err != nil {
				return fmt.Errorf("listing runs: %w", err)
			}
			sum, err := store.Summarize()
			if err != nil {
				return fmt.Errorf("summarizing runs: %w", err)
			}

			r, err := preview.NewRenderer(terminalWidth(), false)
			if err != nil {
				return err
			}
			fmt.Fprint(a.stdout, r.History(runs, sum, time.Now()))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of runs to show (0 for all)")

	cmd.AddCommand(a.historyShowCmd())
	cmd.AddCommand(a.historyPruneCmd())
	return cmd
}

func (a *app) historyShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show one recorded run, the most recent by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.requireJournal()
			if err != nil {
				return err
			}
			defer store.Close()

			var run *storage.Run
			if len(args) == 1 {
				run, err = store.GetRun(args[0])
			} else {
				run, err = store.LastRun()
			}
			if errors.Is(err, storage.ErrNotFound) && len(args) == 0 {
				fmt.Fprintln(a.stdout, preview.StatusLine(preview.StatusInfo, "no runs recorded yet"))
				return nil
			}
			if err != nil {
				return fmt.Errorf("loading run: %w", err)
			}

			r, err := preview.NewRenderer(terminalWidth(), false)
			if err != nil {
				return err
			}
			fmt.Fprint(a.stdout, r.Run(run, time.Now()))
			return nil
		},
	}
}

func (a *app) historyPruneCmd() *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the newest runs from the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.requireJournal()
			if err != nil {
				return err
			}
			defer store.Close()

			deleted, err := store.Prune(keep)
			if err != nil {
				return fmt.Errorf("pruning journal: %w", err)
			}
			fmt.Fprintln(a.stdout, preview.StatusLine(preview.StatusSuccess, fmt.Sprintf("deleted %d runs, kept up to %d", deleted, keep)))
			return nil
		},
	}
	cmd.Flags().IntVar(&keep, "keep", 100, "number of newest runs to keep")
	return cmd
}

func (a *app) requireJournal() (*storage.Store, error) {
	if a.cfg.History.Path == "" {
		return nil, errNoJournal
	}
	store, err := storage.NewStore(a.cfg.History.Path, a.cfg.History.Timeout)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	return store, nil
}
