package ports

import "context"

// Logger — минимальный контракт логгера для внешних слоёв.
// Debugf — подробный уровень (-v): обработка сообщений, flush, причины остановки.
type Logger interface {
	Debugf(ctx context.Context, format string, args ...any) // Debugf — подробный вывод.
	Infof(ctx context.Context, format string, args ...any)  // Infof — информационные сообщения.
	Warnf(ctx context.Context, format string, args ...any)  // Warnf — предупреждения.
	Errorf(ctx context.Context, format string, args ...any) // Errorf — ошибки.
}
