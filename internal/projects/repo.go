package projects

import (
	"context"

	"gorm.io/gorm"

	"github.com/Kwakusharp7/fleet-managment/pkg/db/models"
	"github.com/Kwakusharp7/fleet-managment/pkg/enums"
)

// Repository defines persistence operations for the projects table.
type Repository interface {
	Create(ctx context.Context, project *models.Project) error
	FindByCode(ctx context.Context, code string) (*models.Project, error)
	FindByCodes(ctx context.Context, codes []string) ([]models.Project, error)
	List(ctx context.Context, includeInactive bool) ([]models.Project, error)
	UpdateStatus(ctx context.Context, code string, status enums.ProjectStatus) error
	Delete(ctx context.Context, code string) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a projects repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

func (r *repository) FindByCode(ctx context.Context, code string) (*models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *repository) FindByCodes(ctx context.Context, codes []string) ([]models.Project, error) {
	var rows []models.Project
	if len(codes) == 0 {
		return rows, nil
	}
	err := r.db.WithContext(ctx).Where("code IN ?", codes).Find(&rows).Error
	return rows, err
}

func (r *repository) List(ctx context.Context, includeInactive bool) ([]models.Project, error) {
	var rows []models.Project
	q := r.db.WithContext(ctx).Order("code ASC")
	if !includeInactive {
		q = q.Where("status = ?", enums.ProjectStatusActive)
	}
	err := q.Find(&rows).Error
	return rows, err
}

func (r *repository) UpdateStatus(ctx context.Context, code string, status enums.ProjectStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.Project{}).
		Where("code = ?", code).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, code string) error {
	res := r.db.WithContext(ctx).Where("code = ?", code).Delete(&models.Project{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
