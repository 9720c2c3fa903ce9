// Package inflight хранит транспортные дескрипторы выданных, но ещё не
// подтверждённых сообщений: ack/nack приходят с доменным сообщением,
// а брокеру нужен исходный объект доставки.
package inflight

import (
	"errors"
	"fmt"
	"sync"
)

var ErrUnknownMessage = errors.New("transport: message is not in flight")

type Table[T any] struct {
	mu    sync.Mutex
	items map[string]T
}

func New[T any]() *Table[T] {
	return &Table[T]{items: make(map[string]T)}
}

func (t *Table[T]) Put(id string, v T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items[id] = v
}

// Take — достаёт и удаляет дескриптор; повторный ack/nack получает ErrUnknownMessage.
func (t *Table[T]) Take(id string) (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.items[id]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s", ErrUnknownMessage, id)
	}
	delete(t.items, id)
	return v, nil
}

func (t *Table[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.items)
}
