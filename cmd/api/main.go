package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/kimipos-backend/api/controllers"
	"github.com/angelmondragon/kimipos-backend/api/routes"
	"github.com/angelmondragon/kimipos-backend/internal/catalog"
	"github.com/angelmondragon/kimipos-backend/internal/ledger"
	"github.com/angelmondragon/kimipos-backend/internal/orders"
	"github.com/angelmondragon/kimipos-backend/internal/pricing"
	"github.com/angelmondragon/kimipos-backend/internal/printing"
	"github.com/angelmondragon/kimipos-backend/internal/tables"
	"github.com/angelmondragon/kimipos-backend/internal/tickets"
	"github.com/angelmondragon/kimipos-backend/pkg/config"
	"github.com/angelmondragon/kimipos-backend/pkg/db"
	"github.com/angelmondragon/kimipos-backend/pkg/logger"
	"github.com/angelmondragon/kimipos-backend/pkg/metrics"
	"github.com/angelmondragon/kimipos-backend/pkg/migrate"
	"github.com/angelmondragon/kimipos-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	requireResource(ctx, logg, "database", err)

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)

	defer func() {
		if err := multierr.Combine(dbClient.Close(), redisClient.Close()); err != nil {
			logg.Error(context.Background(), "error closing resources", err)
		}
	}()

	err = migrate.MaybeAutoRun(ctx, cfg, logg, dbClient, migrate.DefaultDir)
	requireResource(ctx, logg, "migrations", err)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	catalogRepo := catalog.NewRepository(dbClient.DB())
	printers, err := catalog.NewPrinters(catalogRepo, redisClient, cfg.Catalog.PrinterCacheTTL, logg)
	requireResource(ctx, logg, "printer lookup", err)

	resolver, err := pricing.NewResolver(catalogRepo, logg)
	requireResource(ctx, logg, "pricing", err)

	submitter, err := printing.NewSubmitter(cfg.Printing, logg)
	requireResource(ctx, logg, "print submitter", err)

	router, err := printing.NewRouter(printers, submitter, cfg.Printing.Timeout, metrics.NewDispatchMetrics(registry), logg)
	requireResource(ctx, logg, "print router", err)
	router.WithTerminal(cfg.App.TerminalName)

	tablesSvc, err := tables.NewService(tables.NewRepository(dbClient.DB()))
	requireResource(ctx, logg, "tables service", err)

	ledgerSvc, err := ledger.NewService(ledger.NewRepository(dbClient.DB()), redisClient)
	requireResource(ctx, logg, "ledger service", err)

	ticketsSvc, err := tickets.NewService(tickets.NewRepository(dbClient.DB()), redisClient)
	requireResource(ctx, logg, "tickets service", err)

	ordersSvc, err := orders.NewService(orders.ServiceParams{
		DB:       dbClient,
		Repo:     orders.NewRepository(dbClient.DB()),
		Tables:   tablesSvc,
		Pricing:  resolver,
		Printer:  router,
		Payments: ledgerSvc,
		Tickets:  ticketsSvc,
		Logger:   logg,
	})
	requireResource(ctx, logg, "orders service", err)

	restored, err := ordersSvc.Restore(ctx)
	requireResource(ctx, logg, "open orders", err)
	logg.Info(logg.WithField(ctx, "orders", restored), "open orders restored")

	var printerManager controllers.PrinterManager
	if mgr, ok := submitter.(*printing.ESCPOSGatewaySubmitter); ok {
		printerManager = mgr
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	serverCtx := logg.WithFields(ctx, map[string]any{
		"env":        cfg.App.Env,
		"addr":       addr,
		"terminal":   cfg.App.TerminalName,
		"print_mode": cfg.Printing.Mode,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:   cfg,
			Logger:   logg,
			DB:       dbClient,
			Redis:    redisClient,
			Registry: registry,
			Tables:   tablesSvc,
			Orders:   ordersSvc,
			Tickets:  ticketsSvc,
			Printers: printerManager,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(serverCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logg.Error(serverCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	logg.Info(serverCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(serverCtx, "api server shutdown failed", err)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "resource not working: "+resource, err)
	os.Exit(1)
}
