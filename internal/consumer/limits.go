package consumer

import (
	"errors"
	"fmt"
	"time"
)

const (
	DefaultBatchSize    = 50
	DefaultPollInterval = 10 * time.Millisecond
	// DefaultMinRuntime — минимальное время жизни процесса, чтобы супервизор
	// не счёл быстрый чистый выход циклом падений.
	DefaultMinRuntime = 15 * time.Second
)

var ErrInvalidLimits = errors.New("consumer: invalid limits")

// Limits — ограничения одного запуска; неизменяемы во время работы.
// Нулевые MessageLimit, MaxMemoryBytes и MaxDuration — без ограничения.
type Limits struct {
	BatchSize      uint
	MessageLimit   uint
	MaxMemoryBytes uint64
	MaxDuration    time.Duration
	PollInterval   time.Duration
}

// DefaultLimits — значения по умолчанию CLI.
func DefaultLimits() Limits {
	return Limits{
		BatchSize:    DefaultBatchSize,
		PollInterval: DefaultPollInterval,
	}
}

func (l Limits) Validate() error {
	if l.BatchSize == 0 {
		return fmt.Errorf("%w: batch size must be > 0", ErrInvalidLimits)
	}
	if l.MaxDuration < 0 || l.PollInterval < 0 {
		return fmt.Errorf("%w: durations must not be negative", ErrInvalidLimits)
	}
	return nil
}

// StopReason — причина штатной остановки.
type StopReason string

const (
	StopNone          StopReason = ""
	StopMessageLimit  StopReason = "message limit reached"
	StopMemoryLimit   StopReason = "memory limit reached"
	StopTimeLimit     StopReason = "time limit reached"
	StopContextCancel StopReason = "context canceled"
)

// MemoryProbe — замер резидентной памяти процесса.
type MemoryProbe interface {
	ResidentBytes() (uint64, error)
}

// batchCompleted — счётчик только что стал ненулевым кратным размеру пачки.
func (l Limits) batchCompleted(processed uint64) bool {
	return processed > 0 && processed%uint64(l.BatchSize) == 0
}

// limitCheck — входные данные одной проверки условий остановки.
type limitCheck struct {
	processed uint64
	elapsed   time.Duration
	resident  func() (uint64, bool)
}

// stopReason — проверки строго по порядку: сообщения, память, время.
func (l Limits) stopReason(c limitCheck) StopReason {
	if l.MessageLimit > 0 && c.processed >= uint64(l.MessageLimit) {
		return StopMessageLimit
	}
	if l.MaxMemoryBytes > 0 && c.resident != nil {
		if rss, ok := c.resident(); ok && rss > l.MaxMemoryBytes {
			return StopMemoryLimit
		}
	}
	if l.MaxDuration > 0 && c.elapsed > l.MaxDuration {
		return StopTimeLimit
	}
	return StopNone
}

// describe — текст причины остановки с фактическим значением лимита.
func (l Limits) describe(reason StopReason) string {
	switch reason {
	case StopMessageLimit:
		return fmt.Sprintf("Maximum number of messages consumed (%d)", l.MessageLimit)
	case StopMemoryLimit:
		return fmt.Sprintf("Memory peak of %dMB reached", l.MaxMemoryBytes/1024/1024)
	case StopTimeLimit:
		return fmt.Sprintf("Maximum execution time of %ds reached", int64(l.MaxDuration/time.Second))
	case StopContextCancel:
		return "Consumer cancelled"
	default:
		return string(reason)
	}
}
