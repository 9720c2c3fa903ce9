package domain

import "maps"

// Message — неизменяемый конверт сообщения очереди.
// Поля закрыты, метаданные копируются на входе и на выходе.
type Message struct {
	id       string
	body     string
	metadata map[string]any
}

// NewMessage — конструктор сообщения.
func NewMessage(id, body string, metadata map[string]any) Message {
	return Message{
		id:       id,
		body:     body,
		metadata: maps.Clone(metadata),
	}
}

func (m Message) ID() string   { return m.id }
func (m Message) Body() string { return m.body }

// Metadata — копия метаданных (изменения не влияют на сообщение).
func (m Message) Metadata() map[string]any {
	return maps.Clone(m.metadata)
}

// Meta — значение метаданных по ключу.
func (m Message) Meta(key string) (any, bool) {
	v, ok := m.metadata[key]
	return v, ok
}

// IsZero — сообщение без идентификатора считается пустым.
func (m Message) IsZero() bool { return m.id == "" }
