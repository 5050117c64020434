package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"devboard/internal/config"
	"devboard/internal/database"
	"devboard/internal/job"
	"devboard/internal/metrics"
	"devboard/internal/tasks"
	"devboard/internal/worker"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	logger.Info("database connection ready for worker")

	redisAddr := cfg.Redis.Addr()
	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	redisOpt := asynq.RedisClientOpt{Addr: redisAddr}

	concurrency := cfg.Worker.Concurrency
	if concurrency <= 0 {
		concurrency = 10
	}
	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: concurrency,
	})

	sweepHandler := worker.NewSweepTaskHandler(job.NewGormRepository(db), logger, cfg.Worker.JobPostingTTLDays)

	mux := asynq.NewServeMux()
	mux.Use(metrics.AsynqMetricsMiddleware())
	mux.Handle(tasks.TypeJobSweep, sweepHandler)

	scheduler := asynq.NewScheduler(redisOpt, nil)
	sweepTask, err := tasks.NewJobSweepTask(cfg.Worker.JobPostingTTLDays, "scheduler")
	if err != nil {
		log.Fatalf("build sweep task: %v", err)
	}
	interval := cfg.Worker.SweepInterval
	if interval == "" {
		interval = "@every 1h"
	}
	if _, err := scheduler.Register(interval, sweepTask); err != nil {
		log.Fatalf("register sweep schedule: %v", err)
	}

	go func() {
		if err := scheduler.Run(); err != nil {
			logger.Error("scheduler stopped", slog.Any("error", err))
		}
	}()

	logger.Info("worker service started",
		slog.String("redis_addr", redisAddr),
		slog.String("sweep_interval", interval),
	)
	if err := server.Run(mux); err != nil {
		logger.Error("worker server stopped", slog.Any("error", err))
	}
}
