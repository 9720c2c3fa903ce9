package consumer

import (
	"context"

	"github.com/Gunvolt24/queue-consumer/internal/domain"
	"github.com/Gunvolt24/queue-consumer/internal/ports"
)

// Проверка, что Hooks и Observers удовлетворяют порту наблюдателя.
var (
	_ ports.Observer = Hooks{}
	_ ports.Observer = Observers(nil)
)

// Hooks — набор необязательных типизированных колбэков.
type Hooks struct {
	OnPreConsume  func(ctx context.Context, msg domain.Message)
	OnPostConsume func(ctx context.Context, msg domain.Message)
	OnFlush       func(ctx context.Context)
}

func (h Hooks) PreConsume(ctx context.Context, msg domain.Message) {
	if h.OnPreConsume != nil {
		h.OnPreConsume(ctx, msg)
	}
}

func (h Hooks) PostConsume(ctx context.Context, msg domain.Message) {
	if h.OnPostConsume != nil {
		h.OnPostConsume(ctx, msg)
	}
}

func (h Hooks) Flush(ctx context.Context) {
	if h.OnFlush != nil {
		h.OnFlush(ctx)
	}
}

// Observers — наблюдатели, вызываемые в порядке регистрации.
type Observers []ports.Observer

func (o Observers) PreConsume(ctx context.Context, msg domain.Message) {
	for _, obs := range o {
		obs.PreConsume(ctx, msg)
	}
}

func (o Observers) PostConsume(ctx context.Context, msg domain.Message) {
	for _, obs := range o {
		obs.PostConsume(ctx, msg)
	}
}

func (o Observers) Flush(ctx context.Context) {
	for _, obs := range o {
		obs.Flush(ctx)
	}
}

// dispatcher — вызывает наблюдателя так, чтобы его паника не меняла ход цикла.
type dispatcher struct {
	observer ports.Observer
	log      ports.Logger
}

func (d dispatcher) fire(ctx context.Context, event string, call func()) {
	if d.observer == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			d.log.Errorf(ctx, "%s hook panicked: %v", event, r)
		}
	}()
	call()
}

func (d dispatcher) preConsume(ctx context.Context, msg domain.Message) {
	d.fire(ctx, "pre-consume", func() { d.observer.PreConsume(ctx, msg) })
}

func (d dispatcher) postConsume(ctx context.Context, msg domain.Message) {
	d.fire(ctx, "post-consume", func() { d.observer.PostConsume(ctx, msg) })
}

func (d dispatcher) flush(ctx context.Context) {
	d.fire(ctx, "flush", func() { d.observer.Flush(ctx) })
}
