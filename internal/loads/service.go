package loads

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/Kwakusharp7/fleet-managment/pkg/db/models"
	"github.com/Kwakusharp7/fleet-managment/pkg/enums"
	pkgerrors "github.com/Kwakusharp7/fleet-managment/pkg/errors"
	"github.com/Kwakusharp7/fleet-managment/pkg/outbox/payloads"
)

// RecentProjectsLimit caps the recent projects list.
const RecentProjectsLimit = 10

// ReasonAbandoned tags loads removed by the cleanup job.
const ReasonAbandoned = "abandoned"

var errNoLongerAbandoned = errors.New("load is no longer abandoned")

type projectLookup interface {
	FindByCode(ctx context.Context, code string) (*models.Project, error)
}

// Service exposes load queries and administrative operations.
type Service interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Get(ctx context.Context, loadID uuid.UUID) (*LoadView, error)
	Summary(ctx context.Context, loadID uuid.UUID) (*PrintSummary, error)
	UpdateStatus(ctx context.Context, actorID, loadID uuid.UUID, status string) (*LoadView, error)
	Delete(ctx context.Context, actorID, loadID uuid.UUID) error
	ProjectLoadCounts(ctx context.Context, codes ...string) (map[string]int64, error)
	CountByProject(ctx context.Context, code string) (int64, error)
	Stats(ctx context.Context) (*DashboardStats, error)
	RecentProjectCodes(ctx context.Context, limit int) ([]string, error)
	PurgeAbandoned(ctx context.Context, olderThan time.Duration, limit int) (int, error)
}

type service struct {
	repo     Repository
	writer   *Writer
	projects projectLookup
	now      func() time.Time
}

// NewService builds the loads service. projects may be nil, in which case
// print summaries omit project details.
func NewService(repo Repository, writer *Writer, projects projectLookup) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("loads repository required")
	}
	if writer == nil {
		return nil, fmt.Errorf("loads writer required")
	}
	return &service{
		repo:     repo,
		writer:   writer,
		projects: projects,
		now:      writer.Now,
	}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	rows, next, err := s.repo.List(ctx, params.ListFilter, params.Params)
	if err != nil {
		if errors.Is(err, ErrInvalidCursor) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		return nil, MapRepoError(err, "load")
	}
	items := make([]ListItem, 0, len(rows))
	for i := range rows {
		items = append(items, toListItem(&rows[i]))
	}
	return &ListResult{Items: items, Cursor: next}, nil
}

func (s *service) Get(ctx context.Context, loadID uuid.UUID) (*LoadView, error) {
	load, err := s.repo.FindByID(ctx, loadID)
	if err != nil {
		return nil, MapRepoError(err, "load")
	}
	return ToView(load), nil
}

func (s *service) Summary(ctx context.Context, loadID uuid.UUID) (*PrintSummary, error) {
	load, err := s.repo.FindByID(ctx, loadID)
	if err != nil {
		return nil, MapRepoError(err, "load")
	}
	view := ToView(load)
	summary := &PrintSummary{
		LoadID:      view.ID,
		TruckID:     view.TruckID,
		ProjectCode: view.ProjectCode,
		Status:      view.Status,
		TruckInfo:   view.TruckInfo,
		Skids:       view.Skids,
		SkidCount:   view.SkidCount,
		TotalWeight: view.TotalWeight,
		Utilization: view.Utilization,
		Overweight:  view.Overweight,
		PackingList: view.PackingList,
		DateEntered: view.DateEntered,
	}
	if s.projects != nil {
		project, err := s.projects.FindByCode(ctx, load.ProjectCode)
		switch {
		case err == nil:
			summary.ProjectName = project.Name
			summary.ProjectAddress = project.Address
		case pkgerrors.IsCode(err, pkgerrors.CodeNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return nil, err
		}
	}
	if summary.ProjectName == "" {
		summary.ProjectName = load.PackingList.ProjectName
	}
	if summary.ProjectAddress == "" {
		summary.ProjectAddress = load.PackingList.ProjectAddress
	}
	return summary, nil
}

func (s *service) UpdateStatus(ctx context.Context, actorID, loadID uuid.UUID, status string) (*LoadView, error) {
	target, err := enums.ParseLoadStatus(status)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status must be one of Planned, Loaded, Delivered")
	}
	load, err := s.writer.Mutate(ctx, Mutation{
		Op:      "update_status",
		LoadID:  loadID,
		ActorID: actorID,
		Reason:  payloads.ReasonAdminOverride,
		Apply: func(_ context.Context, _ Repository, agg *Aggregate) error {
			current := agg.Load()
			if current.IsInventory && target != enums.LoadStatusPlanned {
				return pkgerrors.New(pkgerrors.CodeInvalidState, "inventory loads always stay Planned").
					WithDetails(map[string]any{"load_id": current.ID, "status": current.Status})
			}
			if current.Status == target {
				return ErrNoChange
			}
			agg.SetStatus(target)
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	return ToView(load), nil
}

func (s *service) Delete(ctx context.Context, actorID, loadID uuid.UUID) error {
	_, err := s.writer.Delete(ctx, loadID, actorID, "", func(load *models.Load) error {
		if load.Status == enums.LoadStatusDelivered {
			return pkgerrors.New(pkgerrors.CodeInvalidState, "delivered loads cannot be deleted").
				WithDetails(map[string]any{"load_id": load.ID, "status": load.Status})
		}
		return nil
	})
	return err
}

func (s *service) ProjectLoadCounts(ctx context.Context, codes ...string) (map[string]int64, error) {
	counts, err := s.repo.CountByProjects(ctx, codes)
	if err != nil {
		return nil, MapRepoError(err, "load")
	}
	return counts, nil
}

func (s *service) CountByProject(ctx context.Context, code string) (int64, error) {
	counts, err := s.ProjectLoadCounts(ctx, code)
	if err != nil {
		return 0, err
	}
	return counts[code], nil
}

func (s *service) Stats(ctx context.Context) (*DashboardStats, error) {
	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	weekStart := startOfWeek(today)

	var stats DashboardStats
	var err error
	if stats.PlannedLoads, err = s.repo.CountPlannedTruckLoads(ctx); err != nil {
		return nil, MapRepoError(err, "load")
	}
	if stats.LoadedToday, err = s.repo.CountByStatusSince(ctx, enums.LoadStatusLoaded, today); err != nil {
		return nil, MapRepoError(err, "load")
	}
	if stats.DeliveredThisWeek, err = s.repo.CountByStatusSince(ctx, enums.LoadStatusDelivered, weekStart); err != nil {
		return nil, MapRepoError(err, "load")
	}
	recent, err := s.repo.ListTruckLoadsUpdatedSince(ctx, weekStart)
	if err != nil {
		return nil, MapRepoError(err, "load")
	}
	for _, load := range recent {
		for _, skid := range load.Skids {
			if !skid.AddedAt.Before(weekStart) {
				stats.SkidsAddedThisWeek++
			}
		}
	}
	return &stats, nil
}

func (s *service) RecentProjectCodes(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 || limit > RecentProjectsLimit {
		limit = RecentProjectsLimit
	}
	codes, err := s.repo.RecentActiveProjectCodes(ctx, limit)
	if err != nil {
		return nil, MapRepoError(err, "load")
	}
	return codes, nil
}

// PurgeAbandoned deletes placeholder truck loads that never received a truck
// or a skid. Loads touched since they were selected are skipped.
func (s *service) PurgeAbandoned(ctx context.Context, olderThan time.Duration, limit int) (int, error) {
	cutoff := s.now().Add(-olderThan)
	candidates, err := s.repo.FindAbandoned(ctx, cutoff, limit)
	if err != nil {
		return 0, MapRepoError(err, "load")
	}
	var (
		removed int
		errs    error
	)
	for _, candidate := range candidates {
		_, err := s.writer.Delete(ctx, candidate.ID, uuid.Nil, ReasonAbandoned, func(load *models.Load) error {
			if !isAbandoned(load, cutoff) {
				return errNoLongerAbandoned
			}
			return nil
		})
		switch {
		case err == nil:
			removed++
		case errors.Is(err, errNoLongerAbandoned), pkgerrors.IsCode(err, pkgerrors.CodeNotFound):
		default:
			errs = multierr.Append(errs, fmt.Errorf("delete load %s: %w", candidate.ID, err))
		}
	}
	return removed, errs
}

func isAbandoned(load *models.Load, cutoff time.Time) bool {
	return !load.IsInventory &&
		load.Status == enums.LoadStatusPlanned &&
		len(load.Skids) == 0 &&
		load.TruckID == "" &&
		load.DateEntered.Before(cutoff)
}

func startOfWeek(day time.Time) time.Time {
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
