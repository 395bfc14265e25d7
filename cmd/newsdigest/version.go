package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfig: "true"},
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "newsdigest %s\n", Version)
			fmt.Fprintln(out, "Daily feed digest for ServerChan")
			fmt.Fprintln(out, "github.com/pders01/newsdigest")
		},
	}
}
