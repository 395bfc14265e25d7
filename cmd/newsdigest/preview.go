package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pders01/newsdigest/internal/preview"
)

func (a *app) previewCmd() *cobra.Command {
	var (
		width int
		plain bool
	)

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Fetch the feed and render the digest without sending it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext(cmd)
			defer stop()

			if _, ok := os.LookupEnv("NO_COLOR"); ok {
				plain = true
			}
			r, err := preview.NewRenderer(width, plain)
			if err != nil {
				return err
			}

			report := a.newRunner(nil).Compose(ctx)
			out, err := r.Report(report)
			if err != nil {
				return err
			}

			fmt.Fprintln(a.stdout, preview.Banner(Version))
			fmt.Fprint(a.stdout, out)
			return nil
		},
	}

	cmd.Flags().IntVar(&width, "width", terminalWidth(), "wrap width of the rendered digest")
	cmd.Flags().BoolVar(&plain, "plain", false, "disable colors and styling")
	return cmd
}

func terminalWidth() int {
	if cols, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && cols > 0 {
		return cols
	}
	return 80
}
