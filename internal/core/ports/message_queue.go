package ports

import (
	"context"

	"github.com/GoArmGo/BookWave/internal/messaging/payloads"
)

// CoverMirrorPublisher определяет методы для публикации задач на зеркалирование обложек
// Используется обработчиками администратора и импортом каталога
type CoverMirrorPublisher interface {
	PublishCoverMirrorRequest(ctx context.Context, payload payloads.CoverMirrorPayload) error
}

// CoverMirrorConsumer определяет методы для потребления задач на зеркалирование обложек
// будет использоваться воркером для получения задач из очереди
type CoverMirrorConsumer interface {
	// StartConsumingCoverMirrorRequests начинает прослушивание очереди
	// и вызывает handler для каждого полученного сообщения
	StartConsumingCoverMirrorRequests(ctx context.Context, handler func(context.Context, payloads.CoverMirrorPayload) error) error
}
