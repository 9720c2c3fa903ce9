package ctxmeta

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// SpanIDs — идентификаторы активного спана в виде строк для логов.
type SpanIDs struct {
	TraceID string
	SpanID  string
}

// SpanFromContext — ok=false, если в контексте нет валидного спана
// (трейсинг выключен или сообщение пришло без родителя).
func SpanFromContext(ctx context.Context) (SpanIDs, bool) {
	if ctx == nil {
		return SpanIDs{}, false
	}
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return SpanIDs{}, false
	}
	return SpanIDs{TraceID: sc.TraceID().String(), SpanID: sc.SpanID().String()}, true
}
