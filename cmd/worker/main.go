// Package main runs the background job worker (booking notification emails).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/openclub/backend/config"
	"github.com/openclub/backend/internal/bookings"
	"github.com/openclub/backend/internal/notifications"
	"github.com/openclub/backend/internal/settings"
	"github.com/openclub/backend/internal/worker"
	"github.com/openclub/backend/pkg/database"
	"github.com/openclub/backend/pkg/queue"
	"github.com/openclub/backend/pkg/redis"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	bookingRepo := bookings.NewRepository(pool)
	settingsRepo := settings.NewRepository(pool)
	emailLogsRepo := notifications.NewRepository(pool)
	mailer := worker.NewSMTPMailer(cfg.Email)
	if mailer == nil {
		logger.Warn("smtp not configured, notifications will be logged only")
	}
	jobQueue := queue.NewQueue(rdb.Client, logger)

	var m worker.Mailer
	if mailer != nil {
		m = mailer
	}
	processor := worker.NewNotificationProcessor(bookingRepo, settingsRepo, emailLogsRepo, m, jobQueue, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go processor.Run(workerCtx)
	logger.Info("worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
