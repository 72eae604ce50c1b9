package outbox

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Kwakusharp7/fleet-managment/pkg/db/models"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(tx *gorm.DB, event models.OutboxEvent) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	return tx.Create(&event).Error
}

// FetchUnpublishedForPublish returns the oldest pending rows that still have
// attempts left, locking them so parallel publishers skip each other's batch.
func (r *Repository) FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error) {
	var rows []models.OutboxEvent
	q := r.conn(tx).Where("published_at IS NULL")
	if maxAttempts > 0 {
		q = q.Where("attempt_count < ?", maxAttempts)
	}
	err := q.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *Repository) MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error {
	return r.conn(tx).Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"published_at": time.Now().UTC(),
		}).Error
}

func (r *Repository) MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error {
	return r.conn(tx).Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_error":    err.Error(),
			"attempt_count": gorm.Expr("attempt_count + 1"),
		}).Error
}

// MarkTerminalTx parks a row that can never be published by exhausting its attempts.
func (r *Repository) MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error {
	return r.conn(tx).Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_error":    err.Error(),
			"attempt_count": terminalAttempts,
		}).Error
}

// DeleteExpired removes up to limit rows created before cutoff that were
// either published or parked after terminalAttempts. A limit of zero removes
// every match.
func (r *Repository) DeleteExpired(ctx context.Context, tx *gorm.DB, cutoff time.Time, terminalAttempts, limit int) (int64, error) {
	conn := r.conn(tx).WithContext(ctx)
	expired := conn.Model(&models.OutboxEvent{}).Select("id").Where("created_at < ?", cutoff.UTC())
	if terminalAttempts > 0 {
		expired = expired.Where("published_at IS NOT NULL OR attempt_count >= ?", terminalAttempts)
	} else {
		expired = expired.Where("published_at IS NOT NULL")
	}
	if limit > 0 {
		expired = expired.Order("created_at").Limit(limit)
	}
	res := conn.Where("id IN (?)", expired).Delete(&models.OutboxEvent{})
	return res.RowsAffected, res.Error
}

func (r *Repository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}
