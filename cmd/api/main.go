package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fieldcrm_backend/internal/customers"
	"fieldcrm_backend/internal/email"
	"fieldcrm_backend/internal/events"
	apphttp "fieldcrm_backend/internal/http"
	"fieldcrm_backend/internal/http/router"
	"fieldcrm_backend/internal/leads"
	"fieldcrm_backend/internal/notification"
	"fieldcrm_backend/internal/users"
	"fieldcrm_backend/platform/config"
	"fieldcrm_backend/platform/db"
	"fieldcrm_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.Env)
	ctx := context.Background()

	pool, err := connectWithRetry(ctx, cfg, log)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, cfg, "migrations"); err != nil {
		log.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	bus := events.NewInMemoryBus(log)

	usersModule := users.NewModule(pool)
	leadsModule := leads.NewModule(pool, usersModule.Directory, bus, cfg, log)
	customersModule := customers.NewModule(pool, leadsModule.Repository, bus, log)

	sender := email.NewSender(cfg, log)
	notificationModule := notification.NewModule(pool, sender, usersModule.Directory, log)
	notificationModule.Subscribe(bus)

	engine := router.New(router.Options{
		Config: cfg,
		Logger: log,
		Modules: []apphttp.Module{
			leadsModule,
			customersModule,
			usersModule,
			notificationModule,
		},
	})

	server := &http.Server{
		Addr:         cfg.GetHTTPAddr(),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("api server starting", "addr", cfg.GetHTTPAddr(), "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", "error", err)
	}
}

// connectWithRetry gives the database a short window to come up; useful when
// the api container starts before postgres.
func connectWithRetry(ctx context.Context, cfg *config.Config, log *logger.Logger) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	var err error
	for attempt := 1; attempt <= 5; attempt++ {
		pool, err = db.NewPool(ctx, cfg)
		if err == nil {
			return pool, nil
		}
		log.Warn("database not ready", "attempt", attempt, "error", err)
		time.Sleep(time.Duration(attempt) * time.Second)
	}
	return nil, err
}
