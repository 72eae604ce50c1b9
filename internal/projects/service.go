package projects

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	dbpkg "github.com/Kwakusharp7/fleet-managment/pkg/db"
	"github.com/Kwakusharp7/fleet-managment/pkg/db/models"
	"github.com/Kwakusharp7/fleet-managment/pkg/enums"
	pkgerrors "github.com/Kwakusharp7/fleet-managment/pkg/errors"
)

const (
	MaxCodeLength = 20
	MaxNameLength = 100
	// RecentLimit caps the recent projects shortcut list.
	RecentLimit = 10
)

type loadCounter interface {
	CountByProject(ctx context.Context, code string) (int64, error)
	RecentProjectCodes(ctx context.Context, limit int) ([]string, error)
}

// Service is the project directory used by the load workflows.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Project, error)
	Get(ctx context.Context, code string) (*models.Project, error)
	List(ctx context.Context, includeInactive bool) ([]models.Project, error)
	SetStatus(ctx context.Context, code, status string) (*models.Project, error)
	Delete(ctx context.Context, code string) error
	RequireActive(ctx context.Context, code string) (*models.Project, error)
	Recent(ctx context.Context) ([]models.Project, error)
}

type CreateInput struct {
	Code        string
	Name        string
	Status      string
	Address     string
	Description string
}

type service struct {
	repo  Repository
	loads loadCounter
}

// NewService builds the project directory.
func NewService(repo Repository, loads loadCounter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("projects repository required")
	}
	if loads == nil {
		return nil, fmt.Errorf("load counter required")
	}
	return &service{repo: repo, loads: loads}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Project, error) {
	code := strings.TrimSpace(input.Code)
	name := strings.TrimSpace(input.Name)
	if code == "" || len(code) > MaxCodeLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("project code is required and must be at most %d characters", MaxCodeLength))
	}
	if name == "" || len(name) > MaxNameLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("project name is required and must be at most %d characters", MaxNameLength))
	}
	status := enums.ProjectStatusActive
	if strings.TrimSpace(input.Status) != "" {
		parsed, err := enums.ParseProjectStatus(input.Status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid project status")
		}
		status = parsed
	}

	project := &models.Project{
		Code:        code,
		Name:        name,
		Status:      status,
		Address:     strings.TrimSpace(input.Address),
		Description: strings.TrimSpace(input.Description),
	}
	if err := s.repo.Create(ctx, project); err != nil {
		if dbpkg.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("project %s already exists", code))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create project")
	}
	return project, nil
}

func (s *service) Get(ctx context.Context, code string) (*models.Project, error) {
	project, err := s.repo.FindByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, mapError(err, code)
	}
	return project, nil
}

func (s *service) List(ctx context.Context, includeInactive bool) ([]models.Project, error) {
	rows, err := s.repo.List(ctx, includeInactive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list projects")
	}
	return rows, nil
}

func (s *service) SetStatus(ctx context.Context, code, status string) (*models.Project, error) {
	parsed, err := enums.ParseProjectStatus(status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid project status")
	}
	if err := s.repo.UpdateStatus(ctx, code, parsed); err != nil {
		return nil, mapError(err, code)
	}
	return s.Get(ctx, code)
}

func (s *service) Delete(ctx context.Context, code string) error {
	if _, err := s.Get(ctx, code); err != nil {
		return err
	}
	count, err := s.loads.CountByProject(ctx, code)
	if err != nil {
		return err
	}
	if count > 0 {
		return pkgerrors.New(pkgerrors.CodeInvalidState, fmt.Sprintf("project %s still has loads", code)).
			WithDetails(map[string]any{"project_code": code, "load_count": count})
	}
	if err := s.repo.Delete(ctx, code); err != nil {
		return mapError(err, code)
	}
	return nil
}

func (s *service) RequireActive(ctx context.Context, code string) (*models.Project, error) {
	project, err := s.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	if project.Status != enums.ProjectStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidState, fmt.Sprintf("project %s is inactive", project.Code)).
			WithDetails(map[string]any{"project_code": project.Code, "status": project.Status})
	}
	return project, nil
}

func (s *service) Recent(ctx context.Context) ([]models.Project, error) {
	codes, err := s.loads.RecentProjectCodes(ctx, RecentLimit)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.FindByCodes(ctx, codes)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load recent projects")
	}
	byCode := make(map[string]models.Project, len(rows))
	for _, row := range rows {
		byCode[row.Code] = row
	}
	out := make([]models.Project, 0, len(codes))
	for _, code := range codes {
		if project, ok := byCode[code]; ok {
			out = append(out, project)
		}
	}
	return out, nil
}

func mapError(err error, code string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("project %s not found", code))
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "project directory unavailable")
}
