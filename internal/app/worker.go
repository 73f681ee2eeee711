package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/GoArmGo/BookWave/internal/messaging/payloads"
)

// runWorker потребляет задачи зеркалирования обложек до отмены ctx
func (a *App) runWorker(ctx context.Context) error {
	if a.coverConsumer == nil || a.coverUseCase == nil {
		return errors.New("воркер запущен без очереди или обработчика обложек")
	}

	a.logger.Info("worker started, waiting for cover mirror jobs")

	if err := a.coverConsumer.StartConsumingCoverMirrorRequests(ctx, a.handleCoverMirror); err != nil {
		return fmt.Errorf("ошибка при запуске потребителя RabbitMQ: %w", err)
	}

	<-ctx.Done()
	a.logger.Info("worker stopped")
	return nil
}

func (a *App) handleCoverMirror(ctx context.Context, payload payloads.CoverMirrorPayload) error {
	start := time.Now()

	if err := a.coverUseCase.MirrorCover(ctx, payload); err != nil {
		a.logger.Error("cover mirror job failed",
			"request_id", payload.RequestID,
			"isbn", payload.ISBN,
			"error", err,
		)
		return err
	}

	a.logger.Info("cover mirror job done",
		"request_id", payload.RequestID,
		"isbn", payload.ISBN,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}
