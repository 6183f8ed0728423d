package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Skotchmaster/animerch/internal/config"
	"github.com/Skotchmaster/animerch/internal/db"
	"github.com/Skotchmaster/animerch/internal/es"
	"github.com/Skotchmaster/animerch/internal/httpserver"
	"github.com/Skotchmaster/animerch/internal/logging"
	"github.com/Skotchmaster/animerch/internal/metrics"
	"github.com/Skotchmaster/animerch/internal/mykafka"
	"github.com/Skotchmaster/animerch/internal/repo"
	"github.com/Skotchmaster/animerch/internal/service"
	"github.com/Skotchmaster/animerch/internal/service/search"
	"github.com/Skotchmaster/animerch/internal/tokens"
)

func main() {
	cfg := config.MustLoad()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx := logging.IntoContext(context.Background(), logger)

	gdb, err := db.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		logger.Error("db_init_failed", "error", err)
		os.Exit(1)
	}

	var events mykafka.Publisher = mykafka.NopPublisher{}
	var producer *mykafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer, err = mykafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			logger.Error("kafka_init_failed", "error", err)
			os.Exit(1)
		}
		events = producer
	}

	esClient, err := es.NewClient(cfg, logger)
	if err != nil {
		logger.Error("es_init_failed", "error", err)
		os.Exit(1)
	}

	r := &repo.GormRepo{DB: gdb}
	m := metrics.New(cfg.ServiceName)
	issuer := &tokens.Issuer{Secret: cfg.JWTSecret, TTL: cfg.TokenTTL}

	policy := service.StatusPolicyPermissive
	if cfg.StrictOrderTransitions {
		policy = service.StatusPolicyStrict
	}

	catalog := &service.CatalogService{Repo: r, Events: events, Metrics: m, Retries: cfg.OrderCreateRetries}
	if esClient != nil {
		catalog.Index = search.NewIndex(esClient, cfg.ESIndex)
		n, err := catalog.ReindexProducts(ctx)
		if err != nil {
			logger.Warn("reindex_failed", "indexed", n, "error", err)
		} else {
			logger.Info("reindex_done", "indexed", n)
		}
	}

	orders := &service.OrderService{
		Repo:    r,
		Events:  events,
		Metrics: m,
		Policy:  policy,
		Retries: cfg.OrderCreateRetries,
	}

	e := httpserver.NewEcho(logger, m)
	httpserver.Register(e, &httpserver.Deps{
		DB:         gdb,
		JWTSecret:  cfg.JWTSecret,
		Metrics:    m,
		Auth:       &httpserver.AuthHTTP{Svc: &service.AuthService{Repo: r, Tokens: issuer}},
		Categories: &httpserver.CategoryHTTP{Svc: &service.CategoryService{Repo: r}},
		Catalog:    &httpserver.CatalogHTTP{Svc: catalog},
		Orders:     &httpserver.OrderHTTP{Svc: orders},
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("server_started", "addr", srv.Addr, "strict_transitions", cfg.StrictOrderTransitions)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_server_error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	go func() {
		<-quit
		logger.Warn("force_exit")
		os.Exit(1)
	}()

	logger.Info("shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_error", "error", err)
	}

	if sqlDB, err := gdb.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db_close_error", "error", err)
		}
	} else {
		logger.Error("db_handle_error", "error", err)
	}

	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("kafka_close_error", "error", err)
		}
	}

	logger.Info("shutdown_complete")
}
