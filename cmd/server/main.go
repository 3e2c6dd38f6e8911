package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/iliyamo/split-bill/internal/config"
	"github.com/iliyamo/split-bill/internal/database"
	"github.com/iliyamo/split-bill/internal/handler"
	"github.com/iliyamo/split-bill/internal/metrics"
	"github.com/iliyamo/split-bill/internal/qrcode"
	"github.com/iliyamo/split-bill/internal/queue"
	"github.com/iliyamo/split-bill/internal/repository"
	"github.com/iliyamo/split-bill/internal/router"
	"github.com/iliyamo/split-bill/internal/service"
	"github.com/iliyamo/split-bill/pkg/logging"
)

func main() {
	log := logging.Setup()
	if err := config.LoadDotEnv(); err != nil {
		log.Error("failed to read .env", "error", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	// LOG_LEVEL may have come from .env
	log = logging.SetupWithLevel(logging.LevelFromString(cfg.LogLevel))

	dialect, err := database.ParseDialect(cfg.DBDriver)
	if err != nil {
		log.Error("invalid database driver", "error", err)
		os.Exit(1)
	}
	db, err := database.Open(database.Options{
		Dialect:    dialect,
		User:       cfg.DBUser,
		Pass:       cfg.DBPass,
		Host:       cfg.DBHost,
		Port:       cfg.DBPort,
		Name:       cfg.DBName,
		SQLitePath: cfg.SQLitePath,
	})
	if err != nil {
		log.Error("failed to open database", "driver", dialect, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(ctx, db, dialect); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("database ready", "driver", dialect)

	rdb := config.NewRedisClient(ctx, log)
	if rdb != nil {
		defer rdb.Close()
	}

	var events queue.Publisher = queue.NopPublisher{}
	if cfg.RabbitURL != "" {
		events = queue.NewRabbitPublisher(cfg.RabbitURL, log)
		log.Info("publishing bill events", "broker", "rabbitmq")
	}

	var wg sync.WaitGroup
	if cfg.AuditConsumerEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := queue.StartAuditConsumer(ctx, cfg.RabbitURL, cfg.AuditLogDir, log)
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Error("audit consumer stopped", "error", err)
			}
		}()
	}

	m := metrics.New()
	bills := service.NewBillService(service.Deps{
		DB:          db,
		Dialect:     dialect,
		QR:          qrcode.NewPNGGenerator(),
		Events:      events,
		Metrics:     m,
		Logger:      log,
		FrontendURL: cfg.FrontendURL,
	})
	menu := service.NewMenuService(repository.NewMenuRepo(db), nil)

	e := router.New(router.Deps{
		Cfg:       cfg,
		DB:        db,
		Redis:     rdb,
		RateLimit: config.LoadRateLimitConfig(),
		Cache:     config.LoadCacheConfig(),
		Metrics:   m,
		Logger:    log,
		Auth:      handler.NewAuthHandler(cfg, repository.NewUserRepo(db), repository.NewTokenRepo(db), log),
		Bills:     handler.NewBillHandler(bills, log),
		Payments:  handler.NewPaymentHandler(bills, log),
		Menu:      handler.NewMenuHandler(menu, log),
	})

	addr := ":" + cfg.Port
	go func() {
		log.Info("listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	wg.Wait()
}
