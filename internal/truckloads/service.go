package truckloads

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Kwakusharp7/fleet-managment/internal/loads"
	"github.com/Kwakusharp7/fleet-managment/pkg/db/models"
	"github.com/Kwakusharp7/fleet-managment/pkg/enums"
	pkgerrors "github.com/Kwakusharp7/fleet-managment/pkg/errors"
)

// Placeholder limits for a freshly started truck load: a 53ft dry van.
var placeholderTruckInfo = models.TruckInfo{Length: 53, Width: 8.5, WeightCapacity: 48000}

// MaxPullBatch bounds the skid ids accepted by one pull.
const MaxPullBatch = 500

type projectDirectory interface {
	RequireActive(ctx context.Context, code string) (*models.Project, error)
}

type loadWriter interface {
	Mutate(ctx context.Context, m loads.Mutation) (*models.Load, error)
	Now() time.Time
}

// TruckInfoInput is the truck identity and capacity saved on a Planned load.
type TruckInfoInput struct {
	TruckID        string
	Length         float64
	Width          float64
	WeightCapacity float64
}

// Service assembles real truck loads for a project.
type Service interface {
	StartOrResume(ctx context.Context, actorID uuid.UUID, projectCode string) (*loads.LoadView, error)
	Staging(ctx context.Context, projectCode string, loadID uuid.UUID) (*StagingView, error)
	SaveTruckInfo(ctx context.Context, actorID uuid.UUID, projectCode string, loadID uuid.UUID, input TruckInfoInput) (*loads.LoadView, error)
	AddSkid(ctx context.Context, actorID uuid.UUID, projectCode string, loadID uuid.UUID, input loads.SkidInput) (*loads.LoadView, error)
	UpdateSkid(ctx context.Context, actorID uuid.UUID, projectCode string, loadID uuid.UUID, skidID string, patch loads.SkidPatch) (*loads.LoadView, error)
	RemoveSkid(ctx context.Context, actorID uuid.UUID, projectCode string, loadID uuid.UUID, skidID string) (*loads.LoadView, error)
	ClearSkids(ctx context.Context, actorID uuid.UUID, projectCode string, loadID uuid.UUID) (*loads.LoadView, error)
	PullFromInventory(ctx context.Context, actorID uuid.UUID, projectCode string, loadID uuid.UUID, sourceProject string, skidIDs []string) (*PullResult, error)
	AddAdditionalProject(ctx context.Context, actorID uuid.UUID, projectCode string, loadID uuid.UUID, additional string) (*loads.LoadView, error)
}

type service struct {
	repo     loads.Repository
	writer   loadWriter
	projects projectDirectory
}

// NewService builds the truck load assembly service.
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

// StartOrResume returns the project's most recent Planned truck load,
// creating a placeholder when none exists. Two concurrent first calls may
// both create one; later calls resume the most recently updated load and the
// unused empty placeholder is purged by the abandoned-truck-loads job.
func (s *service) StartOrResume(ctx context.Context, actorID uuid.UUID, projectCode string) (*loads.LoadView, error) {
	projectCode = strings.TrimSpace(projectCode)
	if _, err := s.projects.RequireActive(ctx, projectCode); err != nil {
		return nil, err
	}
	existing, err := s.repo.FindLatestPlannedTruckLoad(ctx, projectCode)
	if err == nil {
		return loads.ToView(existing), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, loads.MapRepoError(err, "load")
	}

	now := s.writer.Now()
	load := &models.Load{
		ID:                 uuid.New(),
		ProjectCode:        projectCode,
		Status:             enums.LoadStatusPlanned,
		TruckInfo:          placeholderTruckInfo,
		Skids:              []models.Skid{},
		AdditionalProjects: []string{},
		Version:            1,
		DateEntered:        now,
		UpdatedAt:          now,
	}
	if actorID != uuid.Nil {
		load.CreatedBy = &actorID
		load.UpdatedBy = &actorID
	}
	if err := s.repo.Create(ctx, load); err != nil {
		return nil, loads.MapRepoError(err, "load")
	}
	return loads.ToView(load), nil
}

func (s *service) Staging(ctx context.Context, projectCode string, loadID uuid.UUID) (*StagingView, error) {
	load, err := s.repo.FindByID(ctx, loadID)
	if err != nil {
		return nil, loads.MapRepoError(err, "load")
	}
	if err := checkOwnership(load, projectCode); err != nil {
		return nil, err
	}
	agg := loads.NewAggregate(load, uuid.Nil, s.writer.Now)

	codes := append([]string{load.ProjectCode}, load.AdditionalProjects...)
	sources := make([]InventorySource, 0, len(codes))
	for _, code := range codes {
		source := InventorySource{ProjectCode: code, Skids: []InventorySkid{}}
		inventory, err := s.repo.FindInventory(ctx, code)
		switch {
		case err == nil:
			for _, skid := range inventory.Skids {
				source.Skids = append(source.Skids, InventorySkid{Skid: skid, AlreadyOnTruck: agg.HasOriginal(skid.ID)})
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return nil, loads.MapRepoError(err, "inventory")
		}
		sources = append(sources, source)
	}
	return &StagingView{Load: loads.ToView(load), Inventories: sources}, nil
}

func (s *service) SaveTruckInfo(ctx context.Context, actorID uuid.UUID, projectCode string, loadID uuid.UUID, input TruckInfoInput) (*loads.LoadView, error) {
	return s.mutatePlanned(ctx, "save_truck_info", actorID, projectCode, loadID, func(_ context.Context, _ loads.Repository, agg *loads.Aggregate) error {
		return agg.SetTruckInfo(input.TruckID, models.TruckInfo{
			Length:         input.Length,
			Width:          input.Width,
			WeightCapacity: input.WeightCapacity,
		})
	})
}

func (s *service) AddSkid(ctx context.Context, actorID uuid.UUID, projectCode string, loadID uuid.UUID, input loads.SkidInput) (*loads.LoadView, error) {
	return s.mutatePlanned(ctx, "truck_add_skid", actorID, projectCode, loadID, func(_ context.Context, _ loads.Repository, agg *loads.Aggregate) error {
		// Provenance is only stamped by PullFromInventory.
		input.OriginalInvID, input.SourceProject = "", ""
		_, err := agg.AddSkid(input)
		return err
	})
}

func (s *service) UpdateSkid(ctx context.Context, actorID uuid.UUID, projectCode string, loadID uuid.UUID, skidID string, patch loads.SkidPatch) (*loads.LoadView, error) {
	return s.mutatePlanned(ctx, "truck_update_skid", actorID, projectCode, loadID, func(_ context.Context, _ loads.Repository, agg *loads.Aggregate) error {
		_, err := agg.UpdateSkid(skidID, patch)
		return err
	})
}

func (s *service) RemoveSkid(ctx context.Context, actorID uuid.UUID, projectCode string, loadID uuid.UUID, skidID string) (*loads.LoadView, error) {
	return s.mutatePlanned(ctx, "truck_remove_skid", actorID, projectCode, loadID, func(_ context.Context, _ loads.Repository, agg *loads.Aggregate) error {
		return agg.RemoveSkid(skidID)
	})
}

func (s *service) ClearSkids(ctx context.Context, actorID uuid.UUID, projectCode string, loadID uuid.UUID) (*loads.LoadView, error) {
	return s.mutatePlanned(ctx, "truck_clear_skids", actorID, projectCode, loadID, func(_ context.Context, _ loads.Repository, agg *loads.Aggregate) error {
		if len(agg.Load().Skids) == 0 {
			return loads.ErrNoChange
		}
		agg.ClearSkids()
		return nil
	})
}

// PullFromInventory copies the requested inventory skids onto the truck.
// Ids already on the truck or missing from the inventory are reported, not
// treated as failures.
func (s *service) PullFromInventory(ctx context.Context, actorID uuid.UUID, projectCode string, loadID uuid.UUID, sourceProject string, skidIDs []string) (*PullResult, error) {
	sourceProject = strings.TrimSpace(sourceProject)
	if sourceProject == "" {
		sourceProject = strings.TrimSpace(projectCode)
	}
	ids := dedupe(skidIDs)
	if len(ids) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one skid id is required")
	}
	if len(ids) > MaxPullBatch {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("at most %d skid ids per request", MaxPullBatch))
	}

	var outcomes []PullOutcome
	view, err := s.mutatePlanned(ctx, "pull_from_inventory", actorID, projectCode, loadID, func(ctx context.Context, repo loads.Repository, agg *loads.Aggregate) error {
		outcomes = outcomes[:0]
		if !agg.AllowsSourceProject(sourceProject) {
			return pkgerrors.New(pkgerrors.CodeProjectMismatch, fmt.Sprintf("project %s is not attached to this load", sourceProject)).
				WithDetails(map[string]any{"load_id": agg.Load().ID, "source_project": sourceProject})
		}

		available := map[string]models.Skid{}
		inventory, err := repo.FindInventory(ctx, sourceProject)
		switch {
		case err == nil:
			for _, skid := range inventory.Skids {
				available[skid.ID] = skid
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return err
		}

		added := 0
		for _, id := range ids {
			if agg.HasOriginal(id) {
				outcomes = append(outcomes, PullOutcome{InventorySkidID: id, Outcome: OutcomeAlreadyOnTruck})
				continue
			}
			source, ok := available[id]
			if !ok {
				outcomes = append(outcomes, PullOutcome{InventorySkidID: id, Outcome: OutcomeNotFound})
				continue
			}
			skid, err := agg.AddSkid(loads.SkidInput{
				Width:         source.Width,
				Length:        source.Length,
				Weight:        source.Weight,
				Description:   source.Description,
				OriginalInvID: source.ID,
				SourceProject: sourceProject,
			})
			if err != nil {
				return err
			}
			added++
			outcomes = append(outcomes, PullOutcome{InventorySkidID: id, Outcome: OutcomeAdded, TruckSkidID: skid.ID})
		}
		if added == 0 {
			return loads.ErrNoChange
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return newPullResult(view, outcomes), nil
}

func (s *service) AddAdditionalProject(ctx context.Context, actorID uuid.UUID, projectCode string, loadID uuid.UUID, additional string) (*loads.LoadView, error) {
	additional = strings.TrimSpace(additional)
	if additional == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "project code is required")
	}
	if _, err := s.projects.RequireActive(ctx, additional); err != nil {
		return nil, err
	}
	return s.mutatePlanned(ctx, "add_additional_project", actorID, projectCode, loadID, func(_ context.Context, _ loads.Repository, agg *loads.Aggregate) error {
		if !agg.AddAdditionalProject(additional) {
			return loads.ErrNoChange
		}
		return nil
	})
}

func (s *service) mutatePlanned(ctx context.Context, op string, actorID uuid.UUID, projectCode string, loadID uuid.UUID, apply func(context.Context, loads.Repository, *loads.Aggregate) error) (*loads.LoadView, error) {
	projectCode = strings.TrimSpace(projectCode)
	if _, err := s.projects.RequireActive(ctx, projectCode); err != nil {
		return nil, err
	}
	load, err := s.writer.Mutate(ctx, loads.Mutation{
		Op:      op,
		LoadID:  loadID,
		ActorID: actorID,
		Apply: func(ctx context.Context, repo loads.Repository, agg *loads.Aggregate) error {
			current := agg.Load()
			if err := checkOwnership(current, projectCode); err != nil {
				return err
			}
			if current.Status != enums.LoadStatusPlanned {
				return pkgerrors.New(pkgerrors.CodeInvalidState, fmt.Sprintf("load is %s; only Planned loads can be changed", current.Status)).
					WithDetails(map[string]any{"load_id": current.ID, "status": current.Status})
			}
			return apply(ctx, repo, agg)
		},
	})
	if err != nil {
		return nil, err
	}
	return loads.ToView(load), nil
}

func checkOwnership(load *models.Load, projectCode string) error {
	if load.ProjectCode != projectCode {
		return pkgerrors.New(pkgerrors.CodeProjectMismatch, fmt.Sprintf("load belongs to project %s", load.ProjectCode)).
			WithDetails(map[string]any{"load_id": load.ID, "project_code": load.ProjectCode, "requested_project": projectCode})
	}
	if load.IsInventory {
		return pkgerrors.New(pkgerrors.CodeInvalidState, "inventory loads are staged through the inventory endpoints").
			WithDetails(map[string]any{"load_id": load.ID})
	}
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
