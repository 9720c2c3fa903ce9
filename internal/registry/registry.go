package registry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Gunvolt24/queue-consumer/internal/consumer"
	"github.com/Gunvolt24/queue-consumer/internal/ports"
)

var (
	ErrProviderNotFound  = errors.New("registry: no message provider for queue")
	ErrProcessorNotFound = errors.New("registry: no processor for queue")
)

// Registry — коллабораторы цикла по имени очереди.
type Registry struct {
	mu         sync.RWMutex
	providers  map[string]ports.MessageProvider
	processors map[string]ports.Processor
	publishers map[string]ports.Publisher
}

func New() *Registry {
	return &Registry{
		providers:  make(map[string]ports.MessageProvider),
		processors: make(map[string]ports.Processor),
		publishers: make(map[string]ports.Publisher),
	}
}

func (r *Registry) RegisterProvider(queue string, p ports.MessageProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[queue] = p
}

func (r *Registry) RegisterProcessor(queue string, p ports.Processor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processors[queue] = p
}

func (r *Registry) RegisterPublisher(queue string, p ports.Publisher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.publishers[queue] = p
}

func (r *Registry) Provider(queue string) (ports.MessageProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[queue]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrProviderNotFound, queue)
	}
	return p, nil
}

func (r *Registry) Processor(queue string) (ports.Processor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.processors[queue]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrProcessorNotFound, queue)
	}
	return p, nil
}

// Publisher — publisher очереди; отсутствие не ошибка.
func (r *Registry) Publisher(queue string) (ports.Publisher, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.publishers[queue]
	return p, ok
}

// Resolve — коллабораторы цикла; provider и processor обязательны.
func (r *Registry) Resolve(queue string, observer ports.Observer) (consumer.Collaborators, error) {
	provider, err := r.Provider(queue)
	if err != nil {
		return consumer.Collaborators{}, err
	}
	processor, err := r.Processor(queue)
	if err != nil {
		return consumer.Collaborators{}, err
	}
	c := consumer.Collaborators{
		Provider:  provider,
		Processor: processor,
		Observer:  observer,
	}
	if pub, ok := r.Publisher(queue); ok {
		c.Publisher = pub
	}
	return c, nil
}
