package outbox

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EnvelopeVersion is written on every new row. Readers accept any version
// up to it.
const EnvelopeVersion = 1

var errEmptyData = errors.New("envelope carries no data")

// ActorRef identifies the user whose request produced the event.
type ActorRef struct {
	UserID uuid.UUID `json:"user_id"`
	Role   string    `json:"role,omitempty"`
}

// PayloadEnvelope is the JSON stored in outbox_events.payload.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"event_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}

// DecodeEnvelope parses a stored payload and checks that it carries data
// in a version this build understands.
func DecodeEnvelope(raw []byte) (PayloadEnvelope, error) {
	var env PayloadEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return PayloadEnvelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Version < 1 || env.Version > EnvelopeVersion {
		return PayloadEnvelope{}, fmt.Errorf("unsupported envelope version %d", env.Version)
	}
	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return PayloadEnvelope{}, errEmptyData
	}
	return env, nil
}
