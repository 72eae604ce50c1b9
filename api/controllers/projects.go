package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/Kwakusharp7/fleet-managment/api/responses"
	"github.com/Kwakusharp7/fleet-managment/api/validators"
	"github.com/Kwakusharp7/fleet-managment/internal/projects"
	"github.com/Kwakusharp7/fleet-managment/pkg/db/models"
	"github.com/Kwakusharp7/fleet-managment/pkg/enums"
	"github.com/Kwakusharp7/fleet-managment/pkg/logger"
)

type projectLoadCounter interface {
	ProjectLoadCounts(ctx context.Context, codes ...string) (map[string]int64, error)
}

type projectResponse struct {
	Code        string              `json:"code"`
	Name        string              `json:"name"`
	Status      enums.ProjectStatus `json:"status"`
	Address     string              `json:"address,omitempty"`
	Description string              `json:"description,omitempty"`
	LoadCount   *int64              `json:"load_count,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

type createProjectRequest struct {
	Code        string `json:"code" validate:"required,max=20"`
	Name        string `json:"name" validate:"required,max=100"`
	Status      string `json:"status" validate:"max=20"`
	Address     string `json:"address" validate:"max=500"`
	Description string `json:"description" validate:"max=1000"`
}

type projectStatusRequest struct {
	Status string `json:"status" validate:"required,max=20"`
}

func toProjectResponse(p models.Project, counts map[string]int64) projectResponse {
	out := projectResponse{
		Code:        p.Code,
		Name:        p.Name,
		Status:      p.Status,
		Address:     p.Address,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if counts != nil {
		n := counts[p.Code]
		out.LoadCount = &n
	}
	return out
}

func withLoadCounts(ctx context.Context, counter projectLoadCounter, rows []models.Project) ([]projectResponse, error) {
	var counts map[string]int64
	if counter != nil && len(rows) > 0 {
		codes := make([]string, 0, len(rows))
		for _, row := range rows {
			codes = append(codes, row.Code)
		}
		var err error
		if counts, err = counter.ProjectLoadCounts(ctx, codes...); err != nil {
			return nil, err
		}
	}
	out := make([]projectResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, toProjectResponse(row, counts))
	}
	return out, nil
}

// ListProjects returns active projects, or all of them with includeInactive=true,
// each with its load count.
func ListProjects(svc projects.Service, counter projectLoadCounter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("projects"))
			return
		}
		includeInactive, err := validators.ParseQueryBool(r, "includeInactive", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.List(r.Context(), includeInactive)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out, err := withLoadCounts(r.Context(), counter, rows)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": out})
	}
}

// RecentProjects lists the active projects with the most recently touched truck loads.
func RecentProjects(svc projects.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("projects"))
			return
		}
		rows, err := svc.Recent(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]projectResponse, 0, len(rows))
		for _, row := range rows {
			out = append(out, toProjectResponse(row, nil))
		}
		responses.WriteSuccess(w, map[string]any{"items": out})
	}
}

func GetProject(svc projects.Service, counter projectLoadCounter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("projects"))
			return
		}
		code, err := validators.ProjectCodeParam(r, "projectCode")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		project, err := svc.Get(r.Context(), code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out, err := withLoadCounts(r.Context(), counter, []models.Project{*project})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out[0])
	}
}

func CreateProject(svc projects.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("projects"))
			return
		}
		var req createProjectRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		project, err := svc.Create(r.Context(), projects.CreateInput{
			Code:        req.Code,
			Name:        req.Name,
			Status:      req.Status,
			Address:     req.Address,
			Description: req.Description,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toProjectResponse(*project, map[string]int64{}))
	}
}

func UpdateProjectStatus(svc projects.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("projects"))
			return
		}
		code, err := validators.ProjectCodeParam(r, "projectCode")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req projectStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		project, err := svc.SetStatus(r.Context(), code, req.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toProjectResponse(*project, nil))
	}
}

// DeleteProject removes a project that no load references.
func DeleteProject(svc projects.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("projects"))
			return
		}
		code, err := validators.ProjectCodeParam(r, "projectCode")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), code); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"deleted": true, "code": code})
	}
}
