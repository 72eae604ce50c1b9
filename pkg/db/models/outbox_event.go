package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/Kwakusharp7/fleet-managment/pkg/enums"
)

// OutboxEvent is one row of outbox_events, written in the same transaction
// as the load change it describes. PublishedAt stays nil until the publisher
// confirms delivery; a row is parked once AttemptCount reaches the ceiling.
type OutboxEvent struct {
	ID            uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey"`
	AggregateType enums.OutboxAggregateType `gorm:"column:aggregate_type;not null"`
	AggregateID   uuid.UUID                 `gorm:"column:aggregate_id;type:uuid;not null"`
	EventType     enums.OutboxEventType     `gorm:"column:event_type;not null"`
	Payload       json.RawMessage           `gorm:"column:payload;type:jsonb;not null"`

	AttemptCount int        `gorm:"column:attempt_count;not null;default:0"`
	LastError    *string    `gorm:"column:last_error"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (OutboxEvent) TableName() string { return "outbox_events" }
