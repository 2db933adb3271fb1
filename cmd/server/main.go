package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/linemk/season-swap/internal/app"
	"github.com/linemk/season-swap/internal/config"
	"github.com/linemk/season-swap/internal/lib/logger"
	"github.com/linemk/season-swap/internal/lib/ratelimit"
	"github.com/pkg/errors"
)

func main() {
	// загрузка конфигурации
	cfg := config.MustLoad()

	// инициализация логгера, зависит от настройки окружения
	log := logger.SetupLogger(cfg.Env)
	log.Info("starting app", slog.String("env", cfg.Env))

	// загружаем объект приложения, конфигом и подключением к БД
	application, err := app.NewApp(log, cfg)
	if err != nil {
		log.Error("failed to initialize app", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to initialize app"))
	}
	defer application.DB.Close()

	limiter := ratelimit.New(log, cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	stopCleanup := make(chan struct{})
	defer close(stopCleanup)
	limiter.StartCleanup(time.Minute, stopCleanup)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      app.NewRouter(log, cfg, application.Services, limiter),
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	// graceful shutdown по SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Serve(ctx, log, srv, cfg.HTTPServer.ShutdownTimeout); err != nil {
		log.Error("server stopped with error", slog.Any("error", err))
		stop()
		application.DB.Close()
		os.Exit(1)
	}
}
