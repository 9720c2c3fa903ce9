package ports

import (
	"context"

	"github.com/Gunvolt24/queue-consumer/internal/domain"
)

// Publisher — повторная публикация сообщения (обычно в хвост исходной очереди).
type Publisher interface {
	Publish(ctx context.Context, msg domain.Message) error
}
