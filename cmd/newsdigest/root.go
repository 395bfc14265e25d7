package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pders01/newsdigest/internal/config"
	"github.com/pders01/newsdigest/internal/debuglog"
	"github.com/pders01/newsdigest/internal/pipeline"
	"github.com/pders01/newsdigest/internal/storage"
)

// skipConfig marks commands that must work without a valid configuration.
const skipConfig = "skip-config"

type app struct {
	configPath string
	logLevel   string
	cfg        *config.Config
	stdout     io.Writer
	stderr     io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "newsdigest",
		Short: "Push a daily digest of recent feed stories to a ServerChan gateway",
		Long: `newsdigest fetches an RSS/Atom feed, keeps the stories published in the
last 24 hours and pushes them as one Markdown message to a ServerChan-style
gateway. The gateway key is read from the SENDKEY environment variable.`,
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) { debuglog.Close() },
		RunE:              a.runOnce,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to configuration file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error, off")

	root.AddCommand(
		a.runCmd(),
		a.previewCmd(),
		a.scheduleCmd(),
		a.historyCmd(),
		a.configCmd(),
		versionCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if cmd.Annotations[skipConfig] == "true" {
		return debuglog.Setup(logLevelOr(a.logLevel, "warn"))
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	a.cfg = cfg

	level := logLevelOr(a.logLevel, cfg.Log.Level)
	if err := debuglog.Setup(level, cfg.Log.File); err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	return nil
}

func logLevelOr(flag, fallback string) debuglog.LogLevel {
	if flag != "" {
		return debuglog.ParseLogLevel(flag)
	}
	return debuglog.ParseLogLevel(fallback)
}

// openJournal opens the run journal when history.path is set. A journal that
// cannot be opened is logged and skipped; it never blocks a run.
func (a *app) openJournal() (*storage.Store, func()) {
	if a.cfg.History.Path == "" {
		return nil, func() {}
	}
	store, err := storage.NewStore(a.cfg.History.Path, a.cfg.History.Timeout)
	if err != nil {
		debuglog.Warnf("run journal unavailable: %v", err)
		return nil, func() {}
	}
	return store, func() { store.Close() }
}

func (a *app) newRunner(journal *storage.Store) *pipeline.Runner {
	var opts []pipeline.Option
	if journal != nil {
		opts = append(opts, pipeline.WithJournal(journal))
	}
	return pipeline.NewRunner(a.cfg, opts...)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}
