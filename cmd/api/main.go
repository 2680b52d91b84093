package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/aidar/member-crm/internal/app"
	"github.com/aidar/member-crm/internal/config"
)

func main() {
	// Загружаем конфигурацию из .env и переменных окружения
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Не удалось загрузить конфигурацию: %v", err)
	}

	// Создаем экземпляр приложения
	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Не удалось создать приложение: %v", err)
	}
	logger := application.Logger()

	// Инициализируем приложение (БД, Redis, уведомления, роутинг)
	ctx := context.Background()
	if err := application.Initialize(ctx); err != nil {
		logger.Fatal("Не удалось инициализировать приложение", zap.Error(err))
	}

	// Настраиваем graceful shutdown для корректного завершения
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Запускаем HTTP сервер в отдельной горутине
	go func() {
		if err := application.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Ошибка сервера", zap.Error(err))
		}
	}()

	logger.Info("Сервер запущен", zap.String("port", cfg.Server.Port))

	// Ожидаем сигнал прерывания (Ctrl+C или SIGTERM)
	<-sigChan
	logger.Info("Остановка сервера")

	// Создаем контекст с таймаутом для graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)

	// Корректно останавливаем приложение
	if err := application.Shutdown(shutdownCtx); err != nil {
		cancel()
		logger.Error("Не удалось корректно остановить сервер", zap.Error(err))
		os.Exit(1)
	}
	cancel()
}
