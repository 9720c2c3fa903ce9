// Пакет ctxmeta — нейтральный слой для метаданных, которые прокидываются
// через context.Context (queue, message_id, request_id, trace_id).
// Цикл потребления, HTTP-слой и логгер зависят от него, но не друг от друга.
package ctxmeta

import "context"

type ctxKey string

const (
	// Ключи контекста (неэкспортируемый тип — чтобы избежать коллизий).
	KeyRequestID ctxKey = "request_id"
	KeyQueue     ctxKey = "queue"
	KeyMessageID ctxKey = "message_id"
)

// WithRequestID кладёт request_id в контекст (если пусто — ничего не делает).
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return withString(ctx, KeyRequestID, requestID)
}

// RequestIDFromContext достаёт request_id из контекста.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, KeyRequestID)
}

// WithQueue кладёт имя очереди в контекст.
func WithQueue(ctx context.Context, queue string) context.Context {
	return withString(ctx, KeyQueue, queue)
}

// QueueFromContext достаёт имя очереди.
func QueueFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, KeyQueue)
}

// WithMessageID кладёт идентификатор обрабатываемого сообщения.
func WithMessageID(ctx context.Context, messageID string) context.Context {
	return withString(ctx, KeyMessageID, messageID)
}

// MessageIDFromContext достаёт идентификатор сообщения.
func MessageIDFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, KeyMessageID)
}

func withString(ctx context.Context, key ctxKey, value string) context.Context {
	if ctx == nil || value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func stringFrom(ctx context.Context, key ctxKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	if v, ok := ctx.Value(key).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
