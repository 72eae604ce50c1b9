package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Kwakusharp7/fleet-managment/internal/loads"
	dbpkg "github.com/Kwakusharp7/fleet-managment/pkg/db"
	"github.com/Kwakusharp7/fleet-managment/pkg/db/models"
	"github.com/Kwakusharp7/fleet-managment/pkg/enums"
	pkgerrors "github.com/Kwakusharp7/fleet-managment/pkg/errors"
)

// Placeholder limits for the inventory pseudo-load. It never leaves the yard,
// so the values only need to exceed anything a real truck carries.
var inventoryTruckInfo = models.TruckInfo{Length: 100, Width: 100, WeightCapacity: 100000}

// TruckIDFor returns the synthetic truck id of a project's inventory.
func TruckIDFor(projectCode string) string {
	return "INVENTORY-" + projectCode
}

type projectDirectory interface {
	RequireActive(ctx context.Context, code string) (*models.Project, error)
}

type loadWriter interface {
	Mutate(ctx context.Context, m loads.Mutation) (*models.Load, error)
	Now() time.Time
}

// Service stages skids in a project's inventory before they go on a truck.
type Service interface {
	GetOrCreateInventory(ctx context.Context, actorID uuid.UUID, projectCode string) (*View, error)
	AddSkid(ctx context.Context, actorID uuid.UUID, projectCode string, input loads.SkidInput) (*View, error)
	AddSkids(ctx context.Context, actorID uuid.UUID, projectCode string, inputs []loads.SkidInput) (*View, error)
	UpdateSkid(ctx context.Context, actorID uuid.UUID, projectCode, skidID string, patch loads.SkidPatch) (*View, error)
	DeleteSkid(ctx context.Context, actorID uuid.UUID, projectCode, skidID string) (*View, error)
	Clear(ctx context.Context, actorID uuid.UUID, projectCode string) (*View, error)
}

type service struct {
	repo     loads.Repository
	writer   loadWriter
	projects projectDirectory
}

// NewService builds the inventory staging service.
func NewService(repo loads.Repository, writer loadWriter, projects projectDirectory) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("loads repository required")
	}
	if writer == nil {
		return nil, fmt.Errorf("load writer required")
	}
	if projects == nil {
		return nil, fmt.Errorf("project directory required")
	}
	return &service{repo: repo, writer: writer, projects: projects}, nil
}

func (s *service) GetOrCreateInventory(ctx context.Context, actorID uuid.UUID, projectCode string) (*View, error) {
	load, err := s.ensureInventory(ctx, actorID, projectCode)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, load)
}

func (s *service) AddSkid(ctx context.Context, actorID uuid.UUID, projectCode string, input loads.SkidInput) (*View, error) {
	return s.AddSkids(ctx, actorID, projectCode, []loads.SkidInput{input})
}

// AddSkids appends every input or none of them.
func (s *service) AddSkids(ctx context.Context, actorID uuid.UUID, projectCode string, inputs []loads.SkidInput) (*View, error) {
	if len(inputs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one skid is required")
	}
	return s.mutate(ctx, actorID, projectCode, "inventory_add_skid", true, func(agg *loads.Aggregate) error {
		for i, input := range inputs {
			// Provenance only exists on truck skids.
			input.OriginalInvID, input.SourceProject = "", ""
			if _, err := agg.AddSkid(input); err != nil {
				if len(inputs) > 1 {
					return withRow(err, i+1)
				}
				return err
			}
		}
		return nil
	})
}

func (s *service) UpdateSkid(ctx context.Context, actorID uuid.UUID, projectCode, skidID string, patch loads.SkidPatch) (*View, error) {
	return s.mutate(ctx, actorID, projectCode, "inventory_update_skid", false, func(agg *loads.Aggregate) error {
		_, err := agg.UpdateSkid(skidID, patch)
		return err
	})
}

func (s *service) DeleteSkid(ctx context.Context, actorID uuid.UUID, projectCode, skidID string) (*View, error) {
	return s.mutate(ctx, actorID, projectCode, "inventory_delete_skid", false, func(agg *loads.Aggregate) error {
		return agg.RemoveSkid(skidID)
	})
}

func (s *service) Clear(ctx context.Context, actorID uuid.UUID, projectCode string) (*View, error) {
	return s.mutate(ctx, actorID, projectCode, "inventory_clear", false, func(agg *loads.Aggregate) error {
		if len(agg.Load().Skids) == 0 {
			return loads.ErrNoChange
		}
		agg.ClearSkids()
		return nil
	})
}

// mutate applies fn to the project's inventory. Without create, a missing
// inventory behaves like an empty one and nothing is written.
func (s *service) mutate(ctx context.Context, actorID uuid.UUID, projectCode, op string, create bool, apply func(*loads.Aggregate) error) (*View, error) {
	var (
		inventory *models.Load
		err       error
	)
	if create {
		inventory, err = s.ensureInventory(ctx, actorID, projectCode)
	} else {
		inventory, err = s.findInventory(ctx, projectCode)
	}
	if err != nil {
		return nil, err
	}
	if inventory.ID == uuid.Nil {
		probe := loads.NewAggregate(inventory, actorID, s.writer.Now)
		if err := apply(probe); err != nil && !errors.Is(err, loads.ErrNoChange) {
			return nil, err
		}
		return toView(emptyInventory(projectCode, s.writer.Now()), nil), nil
	}
	load, err := s.writer.Mutate(ctx, loads.Mutation{
		Op:      op,
		LoadID:  inventory.ID,
		ActorID: actorID,
		Apply: func(_ context.Context, _ loads.Repository, agg *loads.Aggregate) error {
			return apply(agg)
		},
	})
	if err != nil {
		return nil, err
	}
	return s.view(ctx, load)
}

// findInventory returns the stored inventory or an unsaved empty one.
func (s *service) findInventory(ctx context.Context, projectCode string) (*models.Load, error) {
	projectCode = strings.TrimSpace(projectCode)
	if projectCode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "project code is required")
	}
	if _, err := s.projects.RequireActive(ctx, projectCode); err != nil {
		return nil, err
	}
	existing, err := s.repo.FindInventory(ctx, projectCode)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, loads.MapRepoError(err, "inventory")
	}
	return emptyInventory(projectCode, s.writer.Now()), nil
}

func emptyInventory(projectCode string, now time.Time) *models.Load {
	return &models.Load{
		TruckID:            TruckIDFor(projectCode),
		ProjectCode:        projectCode,
		Status:             enums.LoadStatusPlanned,
		IsInventory:        true,
		TruckInfo:          inventoryTruckInfo,
		Skids:              []models.Skid{},
		AdditionalProjects: []string{},
		Version:            1,
		DateEntered:        now,
		UpdatedAt:          now,
	}
}

// ensureInventory finds or creates the project's inventory pseudo-load. A
// concurrent creator losing the unique index race rereads the winner's row.
func (s *service) ensureInventory(ctx context.Context, actorID uuid.UUID, projectCode string) (*models.Load, error) {
	projectCode = strings.TrimSpace(projectCode)
	if projectCode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "project code is required")
	}
	if _, err := s.projects.RequireActive(ctx, projectCode); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindInventory(ctx, projectCode)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, loads.MapRepoError(err, "inventory")
	}

	load := emptyInventory(projectCode, s.writer.Now())
	load.ID = uuid.New()
	if actorID != uuid.Nil {
		load.CreatedBy = &actorID
		load.UpdatedBy = &actorID
	}
	if err := s.repo.Create(ctx, load); err != nil {
		if dbpkg.IsUniqueViolation(err, "") {
			winner, findErr := s.repo.FindInventory(ctx, projectCode)
			if findErr != nil {
				return nil, loads.MapRepoError(findErr, "inventory")
			}
			return winner, nil
		}
		return nil, loads.MapRepoError(err, "inventory")
	}
	return load, nil
}

func (s *service) view(ctx context.Context, load *models.Load) (*View, error) {
	trucks, err := s.repo.ListPlannedTruckLoads(ctx)
	if err != nil {
		return nil, loads.MapRepoError(err, "load")
	}
	onTruck := make(map[string]uuid.UUID)
	for _, truck := range trucks {
		for _, skid := range truck.Skids {
			if skid.OriginalInvID != "" {
				onTruck[skid.OriginalInvID] = truck.ID
			}
		}
	}
	return toView(load, onTruck), nil
}

func withRow(err error, row int) error {
	typed := pkgerrors.As(err)
	if typed == nil {
		return err
	}
	return pkgerrors.New(typed.Code(), fmt.Sprintf("row %d: %s", row, typed.Message())).
		WithDetails(map[string]any{"row": row})
}
