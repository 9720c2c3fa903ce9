package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Gunvolt24/queue-consumer/internal/domain"
	"github.com/Gunvolt24/queue-consumer/internal/ports"
	"github.com/Gunvolt24/queue-consumer/pkg/httpx"
)

var _ ports.Processor = (*Webhook)(nil)

var ErrWebhookStatus = errors.New("webhook: unexpected status")

// maxResponseBytes — ответ обработчика читается не больше этого.
const maxResponseBytes = 1 << 20

// Webhook — передаёт тело сообщения внешнему HTTP-обработчику.
// Ответ {"result": <значение>} становится результатом обработки как есть:
// true/false — штатный исход, иное значение — нарушение контракта.
// Не-2xx и сетевые ошибки — сбой обработчика.
type Webhook struct {
	url    string
	client *http.Client
}

func NewWebhook(url string, timeout time.Duration) *Webhook {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Webhook{
		url: url,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type webhookResponse struct {
	Result any `json:"result"`
}

func (w *Webhook) Process(ctx context.Context, msg domain.Message) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewBufferString(msg.Body()))
	if err != nil {
		return nil, fmt.Errorf("webhook: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("X-Message-ID", msg.ID())
	httpx.PropagateRequestID(ctx, req)

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("webhook: post %s: %w", msg.ID(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("webhook: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w %d: %s", ErrWebhookStatus, resp.StatusCode, bytes.TrimSpace(body))
	}

	var out webhookResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("webhook: decode response: %w", err)
	}
	return out.Result, nil
}
