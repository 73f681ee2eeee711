package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/GoArmGo/BookWave/internal/importer"
)

const shutdownTimeout = 30 * time.Second

// runServer заполняет каталог при необходимости и обслуживает HTTP до отмены ctx
func (a *App) runServer(ctx context.Context) error {
	if a.cfg.SeedOnStart && a.seeder != nil {
		if _, err := a.seeder.Run(ctx, importer.Options{DataDir: a.cfg.DataDir}); err != nil {
			return fmt.Errorf("ошибка начального импорта каталога: %w", err)
		}
	}

	serverAddr := fmt.Sprintf(":%s", a.cfg.ServerPort)
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("http server started", "addr", serverAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("ошибка при запуске сервера: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutdown signal received, stopping http server")

	ctxServer, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctxServer); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	a.logger.Info("http server stopped")
	return nil
}
