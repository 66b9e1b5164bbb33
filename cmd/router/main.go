// Package main is the entry point for the exchange router.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/routefi/exchange-router/business/exchange"
	exchangeDI "github.com/routefi/exchange-router/business/exchange/di"
	"github.com/routefi/exchange-router/business/exchange/domain"
	"github.com/routefi/exchange-router/internal/apm"
	"github.com/routefi/exchange-router/internal/config"
	"github.com/routefi/exchange-router/internal/health"
	"github.com/routefi/exchange-router/internal/logger"
	"github.com/routefi/exchange-router/internal/metrics"
	"github.com/routefi/exchange-router/internal/monolith"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("exchange-router %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(os.Stderr, logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name, nil)
	log.Info(ctx, "starting exchange router",
		"version", version,
		"environment", cfg.App.Environment,
	)

	if cfg.Telemetry.Enabled {
		traceProvider, err := apm.NewTraceProvider(apm.Config{
			Provider:    apm.OTLPGRPCProvider,
			ServiceName: cfg.Telemetry.ServiceName,
			Endpoint:    cfg.Telemetry.OTLPEndpoint,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}
		defer traceProvider.Stop()
		log.Info(ctx, "tracing initialized", "endpoint", cfg.Telemetry.OTLPEndpoint)

		metricProvider, err := metrics.NewMetricProvider(metrics.Config{
			ServiceName: cfg.Telemetry.ServiceName,
			Providers:   []metrics.ProviderCfg{{Provider: metrics.PrometheusProvider}},
		})
		if err != nil {
			return fmt.Errorf("failed to initialize metrics: %w", err)
		}
		defer metricProvider.Shutdown(ctx)

		go func() {
			if err := metrics.ServePrometheusMetrics(cfg.Telemetry.PrometheusPort); err != nil {
				log.Warn(ctx, "prometheus metrics server stopped", "error", err)
			}
		}()
		log.Info(ctx, "prometheus metrics server started", "port", cfg.Telemetry.PrometheusPort)
	}

	healthServer := health.NewServer(8081, version)
	if err := healthServer.Start(); err != nil {
		log.Warn(ctx, "failed to start health server", "error", err)
	} else {
		log.Info(ctx, "health server started", "port", 8081)
	}
	defer healthServer.Stop(ctx)

	mono, err := monolith.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer mono.Close()

	modules := []monolith.Module{
		&exchange.Module{},
	}

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}

	// A venue is ready when at least one graph has been published.
	healthServer.RegisterCheck("graph", func(_ context.Context) (bool, string) {
		if exchangeDI.GetGraphProvider(mono.Services()).CurrentGraph() == nil {
			return false, "no graph published yet"
		}
		return true, "graph available"
	})

	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	service := exchangeDI.GetExchangeService(mono.Services())
	service.SubscribeGraphUpdates("main", func(graph *domain.Graph) {
		log.Info(ctx, "exchange graph updated", "nodes", graph.NodeCount(), "edges", graph.EdgeCount())
	})
	defer service.UnsubscribeGraphUpdates("main")

	log.Info(ctx, "all modules started, router ready")

	<-ctx.Done()

	log.Info(ctx, "shutting down")
	return nil
}
