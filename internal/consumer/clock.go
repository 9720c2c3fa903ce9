package consumer

import (
	"context"
	"time"
)

// Clock — источник времени и ожидание с учётом контекста.
type Clock interface {
	Now() time.Time
	// Sleep ждёт d или отмены контекста; false — контекст отменён.
	Sleep(ctx context.Context, d time.Duration) bool
}

type systemClock struct{}

// SystemClock — реальное время.
func SystemClock() Clock { return systemClock{} }

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) Sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
