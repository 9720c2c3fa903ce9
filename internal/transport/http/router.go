package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/Gunvolt24/queue-consumer/internal/consumer"
	"github.com/Gunvolt24/queue-consumer/internal/domain"
	"github.com/Gunvolt24/queue-consumer/internal/ports"
	"github.com/Gunvolt24/queue-consumer/internal/transport/memory"
	"github.com/Gunvolt24/queue-consumer/pkg/httpx"
)

// maxEnqueueBody — предел тела POST /messages.
const maxEnqueueBody = 1 << 20

// StatusSource — откуда берётся снимок состояния цикла.
type StatusSource interface {
	Snapshot() consumer.RunState
}

// Enqueuer — очередь, в которую можно положить сообщение через HTTP (in-memory транспорт).
type Enqueuer interface {
	Enqueue(body string, metadata map[string]any) (domain.Message, error)
}

type Handler struct {
	status  StatusSource
	enqueue Enqueuer // nil — маршрут публикации не регистрируется
	log     ports.Logger
}

func NewHandler(status StatusSource, enqueue Enqueuer, log ports.Logger) *Handler {
	return &Handler{status: status, enqueue: enqueue, log: log}
}

// NewRouter — служебный роутер процесса-потребителя.
// otelServiceName пустой — без otelgin.
func NewRouter(h *Handler, otelServiceName string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if otelServiceName != "" {
		r.Use(otelgin.Middleware(otelServiceName))
	}
	r.Use(httpx.RequestIDMiddleware())
	r.Use(httpx.RequestLogger(h.log))

	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/status", h.getStatus)

	if h.enqueue != nil {
		r.POST("/messages", h.postMessage)
	}

	return r
}

func (h *Handler) getStatus(c *gin.Context) {
	st := h.status.Snapshot()
	code := http.StatusOK
	if st.State == consumer.StateTerminated.String() {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, st)
}

type enqueueRequest struct {
	Body     string         `json:"body"`
	Metadata map[string]any `json:"metadata"`
}

func (h *Handler) postMessage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxEnqueueBody)

	var req enqueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	msg, err := h.enqueue.Enqueue(req.Body, req.Metadata)
	if err != nil {
		if errors.Is(err, memory.ErrQueueFull) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queue is full"})
			return
		}
		h.log.Errorf(c.Request.Context(), "enqueue failed err=%v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"id": msg.ID()})
}
