package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event é o registro de um evento de domínio emitido por uma mutação de entidade.
// Eventos servem para auditoria/eventing; a persistência deles é opcional,
// mas a interface de assinatura existe para que chamadores possam reagir.
type Event struct {
	Name       string                 `json:"name"`
	EntityID   uuid.UUID              `json:"entity_id"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// EventPublisher é o contrato de publicação consumido pelos serviços.
type EventPublisher interface {
	Publish(event Event)
}

// EventSubscriber permite registrar handlers por nome de evento.
type EventSubscriber interface {
	Subscribe(eventName string, handler func(Event))
}

// eventRecorder acumula eventos emitidos por uma entidade até serem drenados.
// Incorporado (embedded) pelas entidades de domínio.
type eventRecorder struct {
	events []Event
}

func (r *eventRecorder) record(name string, entityID uuid.UUID, payload map[string]interface{}) {
	r.events = append(r.events, Event{
		Name:       name,
		EntityID:   entityID,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	})
}

// PullEvents drena e retorna os eventos acumulados desde o último Pull.
func (r *eventRecorder) PullEvents() []Event {
	out := r.events
	r.events = nil
	return out
}
