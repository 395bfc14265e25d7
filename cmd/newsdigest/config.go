package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pders01/newsdigest/internal/config"
)

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(a.configGenCmd(), a.configShowCmd())
	return cmd
}

func (a *app) configGenCmd() *cobra.Command {
	var (
		path  string
		force bool
	)

	cmd := &cobra.Command{
		Use:         "generate",
		Short:       "Write the default configuration as TOML",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfig: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if path == "" {
				path = config.DefaultPath()
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.GenerateDefaultConfig(path); err != nil {
				return fmt.Errorf("generating config: %w", err)
			}
			fmt.Fprintf(a.stdout, "Generated default configuration at: %s\n", path)
			fmt.Fprintf(a.stdout, "Set %s in the environment to enable sending.\n", config.SendKeyEnv)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "output path (default ~/.config/newsdigest/config.toml)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func (a *app) configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with the send key redacted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := config.Marshal(a.cfg.Redacted())
			if err != nil {
				return fmt.Errorf("encoding config: %w", err)
			}
			_, err = a.stdout.Write(data)
			return err
		},
	}
}
