// Command server runs the document trust pipeline: the zero-trust router,
// the bank origin classifier, the tamper-evident audit ledger, and the admin
// surface over them.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"veridoc/internal/bank"
	bankhandler "veridoc/internal/bank/handler"
	bankmetrics "veridoc/internal/bank/metrics"
	"veridoc/internal/ledger"
	ledgerhandler "veridoc/internal/ledger/handler"
	ledgermetrics "veridoc/internal/ledger/metrics"
	"veridoc/internal/platform/config"
	"veridoc/internal/platform/httpserver"
	"veridoc/internal/platform/logger"
	"veridoc/internal/platform/redis"
	"veridoc/internal/routing"
	"veridoc/internal/routing/adapters"
	routinghandler "veridoc/internal/routing/handler"
	routingmetrics "veridoc/internal/routing/metrics"
	"veridoc/internal/tenant"
	tenantmetrics "veridoc/internal/tenant/metrics"
	tenantstore "veridoc/internal/tenant/store"
	httptransport "veridoc/internal/transport/http"
	"veridoc/pkg/platform/tracer"
	"veridoc/pkg/platform/tx"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "veridoc: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel)

	shutdownTracer, err := tracer.Setup(cfg.TraceExporter)
	if err != nil {
		return err
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}

	reg := prometheus.DefaultRegisterer

	// Audit ledger with its fallback chain: postgres, then a local JSONL
	// file, then the process log inside the ledger itself.
	fallback, err := ledger.NewFileSink(cfg.Ledger.FallbackPath)
	if err != nil {
		return fmt.Errorf("open ledger fallback sink: %w", err)
	}
	audit, err := ledger.New(
		ledger.Config{Salt: cfg.Ledger.Salt},
		ledger.NewPostgres(db),
		log,
		ledger.WithFallback(fallback),
		ledger.WithMetrics(ledgermetrics.New(reg)),
	)
	if err != nil {
		return err
	}

	// Tenant directory, with a redis read-through cache on the routing hot
	// path when redis is configured.
	var cacheClient *goredis.Client
	if redisClient != nil {
		cacheClient = redisClient.Client
	}
	var backend tenantstore.Backend = tenantstore.NewPostgres(db)
	backend = tenantstore.NewCached(backend, cacheClient, cfg.Redis.LookupTTL, log)
	tenants := tenant.NewService(backend, audit, log, tenantmetrics.New(reg),
		tenant.WithTransactor(tx.NewRunner(db)))

	router, err := routing.NewRouter(
		adapters.NewTenantAdapter(tenants),
		audit,
		log,
		routing.WithMetrics(routingmetrics.New(reg)),
	)
	if err != nil {
		return err
	}

	classifier, err := bank.NewClassifier(
		bank.Thresholds{
			NameThreshold:     cfg.Classifier.NameThreshold,
			ReliableThreshold: cfg.Classifier.ReliableThreshold,
		},
		audit,
		log,
		bank.WithMetrics(bankmetrics.New(reg)),
	)
	if err != nil {
		return err
	}

	healthChecks := map[string]httptransport.HealthChecker{
		"postgres": dbChecker{db},
	}
	if redisClient != nil {
		healthChecks["redis"] = redisClient
	}

	handler := httptransport.NewRouter(httptransport.Deps{
		Logger:       log,
		AdminJWTKey:  cfg.AdminJWTSigningKey,
		Routing:      routinghandler.New(router, log),
		Bank:         bankhandler.New(classifier, log),
		Ledger:       ledgerhandler.New(audit, log),
		Tenants:      tenant.NewHandler(tenants, log),
		HealthChecks: healthChecks,
	})

	srv := httpserver.New(cfg.Addr, handler, httpserver.Timeouts{
		Read:  cfg.HTTP.ReadTimeout,
		Write: cfg.HTTP.WriteTimeout,
		Idle:  cfg.HTTP.IdleTimeout,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("veridoc listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		if err := shutdownTracer(shutdownCtx); err != nil {
			log.Warn("tracer shutdown failed", "error", err)
		}
		return nil
	})

	return group.Wait()
}

// dbChecker adapts *sql.DB to the transport health check interface.
type dbChecker struct {
	db *sql.DB
}

func (c dbChecker) HealthCheck(ctx context.Context) error {
	return c.db.PingContext(ctx)
}
