package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/emiliopalmerini/soilstab/internal/adapters/otel"
	"github.com/emiliopalmerini/soilstab/internal/adapters/prometheus"
	"github.com/emiliopalmerini/soilstab/internal/engine"
	"github.com/emiliopalmerini/soilstab/internal/ports"
	"github.com/emiliopalmerini/soilstab/internal/service"
	"github.com/emiliopalmerini/soilstab/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web form and JSON API",
	Long: `Start the recommendation web server.

Examples:
  soilstab serve              # Start on SOILSTAB_PORT (default 8080)
  soilstab serve --port 3000  # Start on port 3000`,
	RunE: runServe,
}

var servePort int

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (overrides SOILSTAB_PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	port := appConfig.Port
	if servePort > 0 {
		port = servePort
	}

	e, err := buildEngine()
	if err != nil {
		return err
	}

	opts := []service.Option{service.WithLogger(logger)}

	db, history, err := openHistory(ctx)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		opts = append(opts, service.WithHistory(history))
		logger.Info("history enabled")
	}

	collector := prometheus.NewCollector()
	opts = append(opts, service.WithExporters(collector, newOTelExporter(ctx)))

	svc := service.New(e, opts...)
	defer func() {
		if err := svc.Close(context.Background()); err != nil {
			logger.Warn("failed to flush metrics", zap.Error(err))
		}
	}()

	server := web.NewServer(svc, port, logger, collector)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(gctx)
	})
	if appConfig.ParamsFile != "" {
		g.Go(func() error {
			return engine.WatchParams(gctx, appConfig.ParamsFile, logger, func(p engine.Params) {
				e, err := engine.NewDefault(p)
				if err != nil {
					logger.Warn("rejected reloaded params", zap.Error(err))
					return
				}
				svc.SetEngine(e)
			})
		})
	}

	err = g.Wait()
	logger.Info("server stopped")
	return err
}

// newOTelExporter falls back to a no-op exporter when OTLP is disabled or
// unreachable.
func newOTelExporter(ctx context.Context) ports.MetricsExporter {
	cfg := otel.Config{
		Enabled:  appConfig.OTel.Enabled,
		Endpoint: appConfig.OTel.Endpoint,
		Insecure: appConfig.OTel.Insecure,
	}
	if !cfg.Enabled {
		return otel.NewNoOpExporter()
	}
	exp, err := otel.NewExporter(ctx, cfg)
	if err != nil {
		logger.Warn("OTLP metrics disabled", zap.Error(err))
		return otel.NewNoOpExporter()
	}
	logger.Info("OTLP metrics enabled", zap.String("endpoint", cfg.Endpoint))
	return exp
}
