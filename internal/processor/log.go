package processor

import (
	"context"

	"github.com/Gunvolt24/queue-consumer/internal/domain"
	"github.com/Gunvolt24/queue-consumer/internal/ports"
)

var _ ports.Processor = (*Log)(nil)

// Log — пишет сообщение в лог и всегда сообщает об успехе.
type Log struct {
	log ports.Logger
}

func NewLog(log ports.Logger) *Log { return &Log{log: log} }

func (p *Log) Process(ctx context.Context, msg domain.Message) (any, error) {
	p.log.Infof(ctx, "message %s received (%d bytes)", msg.ID(), len(msg.Body()))
	return true, nil
}
