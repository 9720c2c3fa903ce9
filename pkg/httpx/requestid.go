package httpx

import (
	"context"
	"net/http"

	"github.com/Gunvolt24/queue-consumer/pkg/ctxmeta"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const HeaderRequestID = "X-Request-ID"

// RequestIDMiddleware:
// - принимает X-Request-ID от клиента или генерирует UUID
// - кладёт request_id в контекст
// - возвращает его в ответном заголовке X-Request-ID
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header(HeaderRequestID, requestID)

		ctx := ctxmeta.WithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// PropagateRequestID — исходящий запрос получает X-Request-ID из контекста;
// при обработке сообщения вместо него идёт идентификатор сообщения.
func PropagateRequestID(ctx context.Context, req *http.Request) {
	if req.Header.Get(HeaderRequestID) != "" {
		return
	}
	if rid, ok := ctxmeta.RequestIDFromContext(ctx); ok {
		req.Header.Set(HeaderRequestID, rid)
		return
	}
	if mid, ok := ctxmeta.MessageIDFromContext(ctx); ok {
		req.Header.Set(HeaderRequestID, mid)
	}
}
