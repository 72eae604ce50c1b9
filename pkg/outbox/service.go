package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Kwakusharp7/fleet-managment/pkg/db/models"
	"github.com/Kwakusharp7/fleet-managment/pkg/enums"
	"github.com/Kwakusharp7/fleet-managment/pkg/logger"
)

var errNoTx = errors.New("outbox: emit requires the caller's transaction")

// DomainEvent is what a writer hands to Emit. Data is marshalled into the
// envelope's data field.
type DomainEvent struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	AggregateID   uuid.UUID
	Actor         *ActorRef
	Data          any
	OccurredAt    time.Time
}

// Emitter queues domain events inside the caller's transaction.
type Emitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event DomainEvent) error
}

// Service writes outbox rows. It never publishes; cmd/outbox-publisher does.
type Service struct {
	repo *Repository
	logg *logger.Logger
	now  func() time.Time
}

func NewService(repo *Repository, logg *logger.Logger) *Service {
	return &Service{repo: repo, logg: logg, now: time.Now}
}

func (s *Service) Emit(ctx context.Context, tx *gorm.DB, event DomainEvent) error {
	if tx == nil {
		return errNoTx
	}
	row, envelope, err := s.build(event)
	if err != nil {
		return err
	}
	if err := s.repo.Insert(tx.WithContext(ctx), row); err != nil {
		return fmt.Errorf("insert outbox %s: %w", event.EventType, err)
	}
	if s.logg != nil {
		s.logg.Debug(s.logg.WithFields(ctx, map[string]any{
			"event_id":     envelope.EventID,
			"event_type":   event.EventType,
			"aggregate_id": event.AggregateID.String(),
		}), "outbox event queued")
	}
	return nil
}

func (s *Service) build(event DomainEvent) (models.OutboxEvent, PayloadEnvelope, error) {
	switch {
	case !event.EventType.IsValid():
		return models.OutboxEvent{}, PayloadEnvelope{}, fmt.Errorf("outbox: unknown event type %q", event.EventType)
	case !event.AggregateType.IsValid():
		return models.OutboxEvent{}, PayloadEnvelope{}, fmt.Errorf("outbox: unknown aggregate type %q", event.AggregateType)
	case event.AggregateID == uuid.Nil:
		return models.OutboxEvent{}, PayloadEnvelope{}, errors.New("outbox: aggregate id is required")
	}

	data, err := json.Marshal(event.Data)
	if err != nil {
		return models.OutboxEvent{}, PayloadEnvelope{}, fmt.Errorf("marshal %s data: %w", event.EventType, err)
	}
	occurred := event.OccurredAt
	if occurred.IsZero() {
		occurred = s.now()
	}
	envelope := PayloadEnvelope{
		Version:    EnvelopeVersion,
		EventID:    uuid.NewString(),
		OccurredAt: occurred.UTC(),
		Actor:      event.Actor,
		Data:       data,
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return models.OutboxEvent{}, PayloadEnvelope{}, err
	}
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       payload,
	}, envelope, nil
}
