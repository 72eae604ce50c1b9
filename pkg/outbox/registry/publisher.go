// Package registry decides where each outbox event type is published and
// how its payload decodes.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/Kwakusharp7/fleet-managment/pkg/config"
	"github.com/Kwakusharp7/fleet-managment/pkg/db/models"
	"github.com/Kwakusharp7/fleet-managment/pkg/enums"
	"github.com/Kwakusharp7/fleet-managment/pkg/outbox"
	"github.com/Kwakusharp7/fleet-managment/pkg/outbox/payloads"
)

// EventDescriptor binds an event type to its aggregate, topic and payload type.
type EventDescriptor struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	Topic         string
	decode        func(json.RawMessage) (any, error)
}

// ResolvedEvent is an outbox row that is safe to publish.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    any
}

// EventRegistry maps each supported event type to its descriptor.
type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

// NonRetryableError marks rows that will never publish no matter how often
// they are retried.
type NonRetryableError struct {
	Err error
}

func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

func (e NonRetryableError) Unwrap() error { return e.Err }

// NewNonRetryableError wraps err so the publisher parks the row.
func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}

func descriptor[T any](eventType enums.OutboxEventType, topic string) EventDescriptor {
	return EventDescriptor{
		EventType:     eventType,
		AggregateType: enums.AggregateLoad,
		Topic:         topic,
		decode: func(data json.RawMessage) (any, error) {
			payload := new(T)
			if err := json.Unmarshal(data, payload); err != nil {
				return nil, err
			}
			return payload, nil
		},
	}
}

// NewEventRegistry wires every load event to the configured loads topic.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	if cfg.LoadsTopic == "" {
		return nil, errors.New("registry: loads topic is required")
	}
	reg := &EventRegistry{entries: map[enums.OutboxEventType]EventDescriptor{}}
	for _, desc := range []EventDescriptor{
		descriptor[payloads.LoadStatusChangedEvent](enums.EventLoadStatusChanged, cfg.LoadsTopic),
		descriptor[payloads.LoadDeletedEvent](enums.EventLoadDeleted, cfg.LoadsTopic),
	} {
		reg.entries[desc.EventType] = desc
	}
	return reg, nil
}

// Topics lists the distinct topics in sorted order.
func (r *EventRegistry) Topics() []string {
	set := make(map[string]struct{}, len(r.entries))
	for _, desc := range r.entries {
		set[desc.Topic] = struct{}{}
	}
	topics := make([]string, 0, len(set))
	for topic := range set {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics
}

// Resolve checks the row against its descriptor and decodes the typed
// payload. Every failure is non-retryable.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	resolved, err := r.resolve(event)
	if err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("%s %s: %w", event.EventType, event.ID, err))
	}
	return resolved, nil
}

func (r *EventRegistry) resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.entries[event.EventType]
	switch {
	case !ok:
		return nil, errors.New("unsupported event type")
	case desc.AggregateType != event.AggregateType:
		return nil, fmt.Errorf("aggregate %q does not match %q", event.AggregateType, desc.AggregateType)
	case event.AggregateID == uuid.Nil:
		return nil, errors.New("missing aggregate_id")
	}

	envelope, err := outbox.DecodeEnvelope(event.Payload)
	if err != nil {
		return nil, err
	}
	payload, err := desc.decode(envelope.Data)
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return &ResolvedEvent{Descriptor: desc, Envelope: envelope, Payload: payload}, nil
}
