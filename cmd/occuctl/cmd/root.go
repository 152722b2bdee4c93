package cmd

import (
	"context"
	"fmt"
	"os"

	"anzsco-lookup/internal/app"
	"anzsco-lookup/internal/config"
	"anzsco-lookup/internal/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configFile string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:           "occuctl",
	Short:         "occuctl maintains and queries the ANZSCO occupation dataset.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", os.Getenv("CONFIG_FILE"), "path to a yaml or json config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at the configured level instead of warn")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withContainer loads configuration, wires the service dependencies and
// loads the served dataset before running fn.
func withContainer(cmd *cobra.Command, fn func(ctx context.Context, c *app.Container) error) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	// The CLI never runs background jobs.
	cfg.Scheduler.Enabled = false

	level := "warn"
	if verbose {
		level = cfg.App.LogLevel
	}
	lg, err := logger.New(level, cfg.App.Environment)
	if err != nil {
		return err
	}
	defer func() { _ = lg.Sync() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	c, err := app.NewContainer(ctx, cfg, lg)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(context.Background()); err != nil {
			lg.Warn("[CLI] close error", zap.Error(err))
		}
	}()

	c.Dataset.Initialize(ctx)
	return fn(ctx, c)
}
