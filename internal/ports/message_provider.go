package ports

import (
	"context"

	"github.com/Gunvolt24/queue-consumer/internal/domain"
)

// Handler — обработчик одного доставленного сообщения.
type Handler func(ctx context.Context, msg domain.Message) error

// MessageProvider — источник сообщений очереди.
// Consume за один вызов передаёт в handler не более одного сообщения и
// возвращает ошибку handler без изменений. Частота и блокировки — на стороне транспорта.
type MessageProvider interface {
	Consume(ctx context.Context, handle Handler) error
	Ack(ctx context.Context, msg domain.Message) error
	// Nack с requeue=false снимает сообщение с текущей позиции без немедленной повторной доставки.
	Nack(ctx context.Context, msg domain.Message, requeue bool) error
}
