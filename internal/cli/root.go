package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/emiliopalmerini/soilstab/internal/infrastructure/config"
)

var (
	verbose bool

	appConfig *config.App
	logger    = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "soilstab",
	Short: "Soil stabilization method recommender",
	Long: `soilstab recommends a soil stabilization method (Mycelium, MICP or a
Hybrid of both) from basic soil properties and project requirements, with a
predicted strength and a cost estimate.

Run "soilstab serve" for the web form, or "soilstab recommend" for a one-off
answer on the command line.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	appConfig = cfg

	l, err := newLogger(cfg.LogLevel, verbose)
	if err != nil {
		return err
	}
	logger = l
	return nil
}

func newLogger(level string, verbose bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}
