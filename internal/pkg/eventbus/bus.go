package eventbus

import (
	"sync"

	"garagesale/internal/domain"
	"garagesale/internal/pkg/logger"
)

// Bus é um despachante de eventos de domínio em processo.
// Handlers rodam de forma síncrona na goroutine do publicador;
// o sistema é request-scoped e não exige um broker externo.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]func(domain.Event)
	logger   logger.Logger
}

// NewBus cria um bus vazio.
func NewBus(log logger.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]func(domain.Event)),
		logger:   log,
	}
}

// Subscribe registra um handler para um nome de evento.
func (b *Bus) Subscribe(eventName string, handler func(domain.Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventName] = append(b.handlers[eventName], handler)
}

// Publish entrega o evento a todos os handlers registrados para o nome.
func (b *Bus) Publish(event domain.Event) {
	b.mu.RLock()
	hs := b.handlers[event.Name]
	b.mu.RUnlock()

	for _, h := range hs {
		h(event)
	}

	if b.logger != nil {
		b.logger.Debug("Evento de domínio publicado.", map[string]interface{}{
			"event":     event.Name,
			"entity_id": event.EntityID.String(),
		})
	}
}
