package hooks

import (
	"context"
	"sync"
	"time"

	"github.com/Gunvolt24/queue-consumer/internal/domain"
	"github.com/Gunvolt24/queue-consumer/internal/ports"
	"github.com/Gunvolt24/queue-consumer/pkg/metrics"
)

// Проверка, что Journal удовлетворяет интерфейсу Observer.
var _ ports.Observer = (*Journal)(nil)

// Journal — копит записи об обработанных сообщениях и пишет их пачкой на Flush.
// Ошибка записи логируется, пачка отбрасывается: журнал не влияет на цикл.
type Journal struct {
	queue  string
	writer ports.JournalWriter
	log    ports.Logger
	now    func() time.Time

	mu        sync.Mutex
	currentID string
	startedAt time.Time
	buf       []domain.JournalEntry
}

// NewJournal — конструктор журнала очереди queue.
func NewJournal(queue string, writer ports.JournalWriter, log ports.Logger) *Journal {
	return &Journal{queue: queue, writer: writer, log: log, now: time.Now}
}

func (j *Journal) PreConsume(_ context.Context, msg domain.Message) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.currentID = msg.ID()
	j.startedAt = j.now()
}

func (j *Journal) PostConsume(_ context.Context, msg domain.Message) {
	j.mu.Lock()
	defer j.mu.Unlock()

	at := j.now()
	var dur time.Duration
	if j.currentID == msg.ID() {
		dur = at.Sub(j.startedAt)
	}
	j.currentID = ""

	j.buf = append(j.buf, domain.JournalEntry{
		Queue:      j.queue,
		MessageID:  msg.ID(),
		BodySize:   len(msg.Body()),
		Duration:   dur,
		ConsumedAt: at,
	})
}

func (j *Journal) Flush(ctx context.Context) {
	j.mu.Lock()
	batch := j.buf
	j.buf = nil
	j.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	err := j.writer.WriteBatch(ctx, batch)
	metrics.JournalWrites.WithLabelValues(metrics.Status(err)).Inc()
	if err != nil {
		j.log.Errorf(ctx, "journal: dropped %d entries: %v", len(batch), err)
		return
	}
	j.log.Debugf(ctx, "journal: wrote %d entries", len(batch))
}

// Pending — сколько записей ждут следующего Flush.
func (j *Journal) Pending() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.buf)
}
