package ports

import (
	"context"

	"github.com/Gunvolt24/queue-consumer/internal/domain"
)

// Processor — бизнес-логика обработки сообщения.
// Результат обязан быть bool: true — успех, false — обработанная неудача.
// Любой другой тип — нарушение контракта; ошибка или паника — сбой обработчика.
type Processor interface {
	Process(ctx context.Context, msg domain.Message) (any, error)
}

// ProcessorFunc — адаптер для обычных функций.
type ProcessorFunc func(ctx context.Context, msg domain.Message) (any, error)

func (f ProcessorFunc) Process(ctx context.Context, msg domain.Message) (any, error) {
	return f(ctx, msg)
}
