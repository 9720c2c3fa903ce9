package ports

import (
	"context"

	"github.com/Gunvolt24/queue-consumer/internal/domain"
)

// Observer — точки расширения цикла потребления.
// Вызываются синхронно и по порядку, на управление циклом не влияют.
type Observer interface {
	PreConsume(ctx context.Context, msg domain.Message)
	PostConsume(ctx context.Context, msg domain.Message)
	Flush(ctx context.Context)
}
