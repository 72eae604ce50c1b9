package loads

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Kwakusharp7/fleet-managment/pkg/db/models"
	"github.com/Kwakusharp7/fleet-managment/pkg/enums"
	pkgerrors "github.com/Kwakusharp7/fleet-managment/pkg/errors"
	"github.com/Kwakusharp7/fleet-managment/pkg/logger"
	"github.com/Kwakusharp7/fleet-managment/pkg/outbox"
	"github.com/Kwakusharp7/fleet-managment/pkg/outbox/payloads"
)

// DefaultMaxWriteAttempts bounds how often a conflicting write is replayed.
const DefaultMaxWriteAttempts = 3

// ErrNoChange lets a mutation report that nothing needs to be written.
var ErrNoChange = errors.New("no change")

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// WriteObserver receives write path signals, typically prometheus counters.
type WriteObserver interface {
	ObserveConflict(op string)
	ObserveTransition(from, to enums.LoadStatus)
}

// Mutation describes one read-modify-write of a single load.
type Mutation struct {
	Op      string
	LoadID  uuid.UUID
	ActorID uuid.UUID
	// Reason is recorded on the status change event when Apply moves the status.
	Reason string
	// Apply mutates the aggregate in memory. repo is bound to the write
	// transaction so extra reads stay consistent with the write.
	Apply func(ctx context.Context, repo Repository, agg *Aggregate) error
}

// WriterParams groups the dependencies of a Writer.
type WriterParams struct {
	DB          txRunner
	Repo        Repository
	Outbox      outbox.Emitter
	Observer    WriteObserver
	Logger      *logger.Logger
	MaxAttempts int
	Now         func() time.Time
}

// Writer persists aggregate mutations with optimistic concurrency.
type Writer struct {
	db          txRunner
	repo        Repository
	outbox      outbox.Emitter
	observer    WriteObserver
	logg        *logger.Logger
	maxAttempts int
	now         func() time.Time
}

// NewWriter validates params and builds a Writer.
func NewWriter(params WriterParams) (*Writer, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("loads repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	attempts := params.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxWriteAttempts
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Writer{
		db:          params.DB,
		repo:        params.Repo,
		outbox:      params.Outbox,
		observer:    params.Observer,
		logg:        params.Logger,
		maxAttempts: attempts,
		now:         now,
	}, nil
}

// Now returns the writer's clock reading.
func (w *Writer) Now() time.Time {
	return w.now()
}

// Mutate loads the row, applies m and writes it back conditioned on the
// version it read. A lost race replays the whole step.
func (w *Writer) Mutate(ctx context.Context, m Mutation) (*models.Load, error) {
	if m.Apply == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "mutation has no apply function")
	}
	for attempt := 1; attempt <= w.maxAttempts; attempt++ {
		var (
			result    *models.Load
			from, to  enums.LoadStatus
			unchanged bool
		)
		err := w.db.WithTx(ctx, func(tx *gorm.DB) error {
			repo := w.repo.WithTx(tx)
			load, err := repo.FindByID(ctx, m.LoadID)
			if err != nil {
				return err
			}
			expected := load.Version
			from = load.Status

			agg := NewAggregate(load, m.ActorID, w.now)
			if err := m.Apply(ctx, repo, agg); err != nil {
				if errors.Is(err, ErrNoChange) {
					unchanged = true
					result = load
					return nil
				}
				return err
			}

			load.Version = expected + 1
			if err := repo.UpdateVersioned(ctx, load, expected); err != nil {
				return err
			}
			to = load.Status
			if from != to {
				if err := w.emitStatusChange(ctx, tx, load, from, to, m); err != nil {
					return err
				}
			}
			result = load
			return nil
		})
		if err == nil {
			if !unchanged && from != to && w.observer != nil {
				w.observer.ObserveTransition(from, to)
			}
			return result, nil
		}
		if errors.Is(err, ErrVersionConflict) {
			if w.observer != nil {
				w.observer.ObserveConflict(m.Op)
			}
			if w.logg != nil {
				logCtx := w.logg.WithFields(ctx, map[string]any{
					"op":      m.Op,
					"load_id": m.LoadID.String(),
					"attempt": attempt,
				})
				w.logg.Warn(logCtx, "load version conflict")
			}
			continue
		}
		return nil, MapRepoError(err, "load")
	}
	return nil, pkgerrors.New(pkgerrors.CodeConflict, "load was modified concurrently; retry the request")
}

// Delete removes the load after check approves it, emitting a load.deleted event.
func (w *Writer) Delete(ctx context.Context, loadID, actorID uuid.UUID, reason string, check func(*models.Load) error) (*models.Load, error) {
	for attempt := 1; attempt <= w.maxAttempts; attempt++ {
		var deleted *models.Load
		err := w.db.WithTx(ctx, func(tx *gorm.DB) error {
			repo := w.repo.WithTx(tx)
			load, err := repo.FindByID(ctx, loadID)
			if err != nil {
				return err
			}
			if check != nil {
				if err := check(load); err != nil {
					return err
				}
			}
			if err := repo.DeleteVersioned(ctx, load.ID, load.Version); err != nil {
				return err
			}
			event := outbox.DomainEvent{
				EventType:     enums.EventLoadDeleted,
				AggregateType: enums.AggregateLoad,
				AggregateID:   load.ID,
				Actor:         actorRef(actorID),
				Data: payloads.LoadDeletedEvent{
					LoadID:      load.ID,
					ProjectCode: load.ProjectCode,
					TruckID:     load.TruckID,
					Status:      load.Status,
					SkidCount:   load.SkidCount,
					Reason:      reason,
				},
				OccurredAt: w.now(),
			}
			if err := w.outbox.Emit(ctx, tx, event); err != nil {
				return err
			}
			deleted = load
			return nil
		})
		if err == nil {
			return deleted, nil
		}
		if errors.Is(err, ErrVersionConflict) {
			if w.observer != nil {
				w.observer.ObserveConflict("delete")
			}
			continue
		}
		return nil, MapRepoError(err, "load")
	}
	return nil, pkgerrors.New(pkgerrors.CodeConflict, "load was modified concurrently; retry the request")
}

func (w *Writer) emitStatusChange(ctx context.Context, tx *gorm.DB, load *models.Load, from, to enums.LoadStatus, m Mutation) error {
	return w.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventLoadStatusChanged,
		AggregateType: enums.AggregateLoad,
		AggregateID:   load.ID,
		Actor:         actorRef(m.ActorID),
		Data: payloads.LoadStatusChangedEvent{
			LoadID:      load.ID,
			ProjectCode: load.ProjectCode,
			TruckID:     load.TruckID,
			From:        from,
			To:          to,
			Reason:      m.Reason,
		},
		OccurredAt: w.now(),
	})
}

func actorRef(actorID uuid.UUID) *outbox.ActorRef {
	if actorID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{UserID: actorID}
}

// MapRepoError converts persistence failures into the error taxonomy.
// Already classified errors pass through.
func MapRepoError(err error, entity string) error {
	if err == nil {
		return nil
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, entity+" not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, entity+" store unavailable")
}
