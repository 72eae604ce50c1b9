package loads

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Kwakusharp7/fleet-managment/pkg/db/models"
	"github.com/Kwakusharp7/fleet-managment/pkg/enums"
	"github.com/Kwakusharp7/fleet-managment/pkg/pagination"
)

// ErrVersionConflict reports that a conditional update matched no row because
// another writer bumped the version first.
var ErrVersionConflict = errors.New("load version conflict")

// ErrInvalidCursor reports an undecodable pagination cursor.
var ErrInvalidCursor = errors.New("invalid cursor")

// mutableColumns are rewritten by every versioned update.
var mutableColumns = []string{
	"truck_id",
	"status",
	"truck_info",
	"skids",
	"skid_count",
	"total_weight",
	"skid_seq",
	"packing_list",
	"additional_projects",
	"version",
	"updated_by",
	"updated_at",
}

// ListFilter narrows the load list.
type ListFilter struct {
	ProjectCode      string
	Status           *enums.LoadStatus
	Search           string
	IncludeInventory bool
}

// Repository defines persistence operations for the loads table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, load *models.Load) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Load, error)
	FindInventory(ctx context.Context, projectCode string) (*models.Load, error)
	FindLatestPlannedTruckLoad(ctx context.Context, projectCode string) (*models.Load, error)
	ListPlannedTruckLoads(ctx context.Context) ([]models.Load, error)
	UpdateVersioned(ctx context.Context, load *models.Load, expectedVersion int64) error
	DeleteVersioned(ctx context.Context, id uuid.UUID, expectedVersion int64) error
	List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Load, string, error)
	CountByProjects(ctx context.Context, codes []string) (map[string]int64, error)
	CountPlannedTruckLoads(ctx context.Context) (int64, error)
	CountByStatusSince(ctx context.Context, status enums.LoadStatus, since time.Time) (int64, error)
	ListTruckLoadsUpdatedSince(ctx context.Context, since time.Time) ([]models.Load, error)
	RecentActiveProjectCodes(ctx context.Context, limit int) ([]string, error)
	FindAbandoned(ctx context.Context, cutoff time.Time, limit int) ([]models.Load, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a loads repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, load *models.Load) error {
	if load.ID == uuid.Nil {
		load.ID = uuid.New()
	}
	if load.Version == 0 {
		load.Version = 1
	}
	return r.db.WithContext(ctx).Create(load).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Load, error) {
	var load models.Load
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&load).Error; err != nil {
		return nil, err
	}
	return &load, nil
}

func (r *repository) FindInventory(ctx context.Context, projectCode string) (*models.Load, error) {
	var load models.Load
	err := r.db.WithContext(ctx).
		Where("project_code = ? AND is_inventory = ?", projectCode, true).
		First(&load).Error
	if err != nil {
		return nil, err
	}
	return &load, nil
}

func (r *repository) FindLatestPlannedTruckLoad(ctx context.Context, projectCode string) (*models.Load, error) {
	var load models.Load
	err := r.db.WithContext(ctx).
		Where("project_code = ? AND is_inventory = ? AND status = ?", projectCode, false, enums.LoadStatusPlanned).
		Order("updated_at DESC").
		Order("id DESC").
		First(&load).Error
	if err != nil {
		return nil, err
	}
	return &load, nil
}

func (r *repository) ListPlannedTruckLoads(ctx context.Context) ([]models.Load, error) {
	var rows []models.Load
	err := r.db.WithContext(ctx).
		Where("is_inventory = ? AND status = ? AND skid_count > 0", false, enums.LoadStatusPlanned).
		Find(&rows).Error
	return rows, err
}

func (r *repository) UpdateVersioned(ctx context.Context, load *models.Load, expectedVersion int64) error {
	res := r.db.WithContext(ctx).
		Model(&models.Load{}).
		Where("id = ? AND version = ?", load.ID, expectedVersion).
		Select(mutableColumns).
		Updates(load)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (r *repository) DeleteVersioned(ctx context.Context, id uuid.UUID, expectedVersion int64) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND version = ?", id, expectedVersion).
		Delete(&models.Load{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (r *repository) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Load, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}

	q := r.db.WithContext(ctx).Model(&models.Load{})
	if code := strings.TrimSpace(filter.ProjectCode); code != "" {
		q = q.Where("project_code = ?", code)
	}
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		q = q.Where("LOWER(truck_id) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	if !filter.IncludeInventory {
		q = q.Where("is_inventory = ?", false)
	}
	if cursor != nil {
		at := cursor.At.UTC()
		q = q.Where("(date_entered < ?) OR (date_entered = ? AND id < ?)", at, at, cursor.ID)
	}

	limit := pagination.NormalizeLimit(params.Limit)
	var rows []models.Load
	if err := q.Order("date_entered DESC").Order("id DESC").Limit(limit + 1).Find(&rows).Error; err != nil {
		return nil, "", err
	}

	rows, next := pagination.Page(rows, limit, func(l models.Load) pagination.Cursor {
		return pagination.Cursor{At: l.DateEntered, ID: l.ID}
	})
	return rows, next, nil
}

func (r *repository) CountByProjects(ctx context.Context, codes []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(codes))
	if len(codes) == 0 {
		return counts, nil
	}
	type row struct {
		ProjectCode string
		Total       int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.Load{}).
		Select("project_code, COUNT(*) AS total").
		Where("project_code IN ?", codes).
		Group("project_code").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, code := range codes {
		counts[code] = 0
	}
	for _, rr := range rows {
		counts[rr.ProjectCode] = rr.Total
	}
	return counts, nil
}

func (r *repository) CountPlannedTruckLoads(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Load{}).
		Where("is_inventory = ? AND status = ?", false, enums.LoadStatusPlanned).
		Count(&total).Error
	return total, err
}

func (r *repository) CountByStatusSince(ctx context.Context, status enums.LoadStatus, since time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Load{}).
		Where("is_inventory = ? AND status = ? AND updated_at >= ?", false, status, since.UTC()).
		Count(&total).Error
	return total, err
}

func (r *repository) ListTruckLoadsUpdatedSince(ctx context.Context, since time.Time) ([]models.Load, error) {
	var rows []models.Load
	err := r.db.WithContext(ctx).
		Where("is_inventory = ? AND updated_at >= ?", false, since.UTC()).
		Find(&rows).Error
	return rows, err
}

func (r *repository) RecentActiveProjectCodes(ctx context.Context, limit int) ([]string, error) {
	var codes []string
	err := r.db.WithContext(ctx).
		Table("loads AS l").
		Select("l.project_code").
		Joins("JOIN projects p ON p.code = l.project_code").
		Where("l.is_inventory = ? AND p.status = ?", false, enums.ProjectStatusActive).
		Group("l.project_code").
		Order("MAX(l.updated_at) DESC").
		Limit(limit).
		Pluck("l.project_code", &codes).Error
	return codes, err
}

func (r *repository) FindAbandoned(ctx context.Context, cutoff time.Time, limit int) ([]models.Load, error) {
	var rows []models.Load
	err := r.db.WithContext(ctx).
		Where("is_inventory = ? AND status = ? AND skid_count = 0 AND truck_id = '' AND date_entered < ?",
			false, enums.LoadStatusPlanned, cutoff.UTC()).
		Order("date_entered ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
