package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Kwakusharp7/fleet-managment/pkg/db/dbtest"
	"github.com/Kwakusharp7/fleet-managment/pkg/db/models"
	"github.com/Kwakusharp7/fleet-managment/pkg/enums"
)

func TestEmitWritesEnvelope(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	svc := NewService(repo, nil)
	loadID := uuid.New()
	actor := uuid.New()

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventLoadStatusChanged,
			AggregateType: enums.AggregateLoad,
			AggregateID:   loadID,
			Actor:         &ActorRef{UserID: actor, Role: "Loader"},
			Data:          map[string]string{"to": "Loaded"},
		})
	})
	require.NoError(t, err)

	rows, err := repo.FetchUnpublishedForPublish(db, 10, 5)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, loadID, rows[0].AggregateID)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(rows[0].Payload, &envelope))
	assert.Equal(t, 1, envelope.Version)
	assert.NotEmpty(t, envelope.EventID)
	require.NotNil(t, envelope.Actor)
	assert.Equal(t, actor, envelope.Actor.UserID)
	assert.JSONEq(t, `{"to":"Loaded"}`, string(envelope.Data))
}

func TestEmitRequiresTransaction(t *testing.T) {
	svc := NewService(NewRepository(nil), nil)
	err := svc.Emit(context.Background(), nil, DomainEvent{EventType: enums.EventLoadDeleted})
	require.Error(t, err)
}

func TestEmitRejectsUnknownEventType(t *testing.T) {
	db := dbtest.Open(t)
	svc := NewService(NewRepository(db), nil)
	err := svc.Emit(context.Background(), db, DomainEvent{EventType: "load.exploded"})
	require.Error(t, err)
}

func TestRepositoryAttemptsAndRetention(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)

	first := models.OutboxEvent{ID: uuid.New(), EventType: enums.EventLoadDeleted, AggregateType: enums.AggregateLoad, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`)}
	second := models.OutboxEvent{ID: uuid.New(), EventType: enums.EventLoadDeleted, AggregateType: enums.AggregateLoad, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`)}
	require.NoError(t, repo.Insert(db, first))
	require.NoError(t, repo.Insert(db, second))

	require.NoError(t, repo.MarkFailedTx(db, first.ID, errors.New("timeout")))
	require.NoError(t, repo.MarkTerminalTx(db, second.ID, errors.New("bad payload"), 3))

	rows, err := repo.FetchUnpublishedForPublish(db, 10, 3)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, first.ID, rows[0].ID)
	assert.Equal(t, 1, rows[0].AttemptCount)
	require.NotNil(t, rows[0].LastError)
	assert.Equal(t, "timeout", *rows[0].LastError)

	require.NoError(t, repo.MarkPublishedTx(db, first.ID))
	rows, err = repo.FetchUnpublishedForPublish(db, 10, 3)
	require.NoError(t, err)
	assert.Empty(t, rows)

	removed, err := repo.DeleteExpired(context.Background(), db, time.Now().Add(-time.Hour), 3, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 0, removed)

	removed, err = repo.DeleteExpired(context.Background(), db, time.Now().Add(time.Hour), 0, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	removed, err = repo.DeleteExpired(context.Background(), db, time.Now().Add(time.Hour), 3, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)
}

func TestEmitRequiresAggregateID(t *testing.T) {
	db := dbtest.Open(t)
	svc := NewService(NewRepository(db), nil)
	err := svc.Emit(context.Background(), db, DomainEvent{
		EventType:     enums.EventLoadDeleted,
		AggregateType: enums.AggregateLoad,
		Data:          map[string]string{},
	})
	require.Error(t, err)
}

func TestDecodeEnvelope(t *testing.T) {
	_, err := DecodeEnvelope([]byte(`{"version":1,"event_id":"e","data":null}`))
	require.Error(t, err)

	_, err = DecodeEnvelope([]byte(`{"version":0,"event_id":"e","data":{}}`))
	require.Error(t, err)

	env, err := DecodeEnvelope([]byte(`{"version":1,"event_id":"e","data":{"a":1}}`))
	require.NoError(t, err)
	assert.Equal(t, "e", env.EventID)
	assert.JSONEq(t, `{"a":1}`, string(env.Data))
}

func TestRepositoryDeleteExpiredHonorsLimit(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	for i := 0; i < 3; i++ {
		row := models.OutboxEvent{ID: uuid.New(), EventType: enums.EventLoadDeleted, AggregateType: enums.AggregateLoad, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`)}
		require.NoError(t, repo.Insert(db, row))
		require.NoError(t, repo.MarkPublishedTx(db, row.ID))
	}

	removed, err := repo.DeleteExpired(context.Background(), db, time.Now().Add(time.Hour), 0, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)

	removed, err = repo.DeleteExpired(context.Background(), db, time.Now().Add(time.Hour), 0, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)
}
