package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fieldcrm_backend/internal/email"
	"fieldcrm_backend/internal/events"
	leadsrepo "fieldcrm_backend/internal/leads/repository"
	"fieldcrm_backend/internal/notification"
	"fieldcrm_backend/internal/scheduler"
	"fieldcrm_backend/internal/users"
	"fieldcrm_backend/platform/config"
	"fieldcrm_backend/platform/db"
	"fieldcrm_backend/platform/logger"

	"github.com/hibiken/asynq"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.Env)
	ctx := context.Background()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisOpt, err := scheduler.RedisOpt(cfg)
	if err != nil {
		log.Error("redis configuration invalid", "error", err)
		os.Exit(1)
	}

	bus := events.NewInMemoryBus(log)
	usersModule := users.NewModule(pool)
	sender := email.NewSender(cfg, log)
	notificationModule := notification.NewModule(pool, sender, usersModule.Directory, log)
	notificationModule.Subscribe(bus)

	worker := scheduler.NewWorker(leadsrepo.New(pool), bus, log)

	mux := asynq.NewServeMux()
	mux.HandleFunc(scheduler.TypeCallLaterScan, worker.HandleCallLaterScan)

	queue := cfg.GetAsynqQueueName()
	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.GetAsynqConcurrency(),
		Queues:      map[string]int{queue: 1},
	})

	periodic := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{})
	interval := cfg.GetCallLaterScanInterval()
	if interval < time.Minute {
		interval = time.Minute
	}
	if _, err := periodic.Register(
		"@every "+interval.String(),
		scheduler.NewCallLaterScanTask(),
		asynq.Queue(queue),
	); err != nil {
		log.Error("could not register scan task", "error", err)
		os.Exit(1)
	}

	go func() {
		if err := periodic.Run(); err != nil {
			log.Error("scheduler stopped", "error", err)
			os.Exit(1)
		}
	}()
	go func() {
		log.Info("call later worker starting", "queue", queue, "interval", interval.String())
		if err := server.Run(mux); err != nil {
			log.Error("worker stopped", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	periodic.Shutdown()
	server.Shutdown()
}
