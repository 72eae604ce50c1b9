package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type column of outbox_events.
type OutboxAggregateType string

const (
	AggregateLoad OutboxAggregateType = "load"
)

// IsValid reports whether the value is a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	return a == AggregateLoad
}

// OutboxEventType maps to the event_type column of outbox_events.
type OutboxEventType string

const (
	EventLoadStatusChanged OutboxEventType = "load.status_changed"
	EventLoadDeleted       OutboxEventType = "load.deleted"
)

var validEventTypes = []OutboxEventType{
	EventLoadStatusChanged,
	EventLoadDeleted,
}

// IsValid reports whether the value is a known event type.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
