package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/Kwakusharp7/fleet-managment/api/responses"
	"github.com/Kwakusharp7/fleet-managment/api/validators"
	"github.com/Kwakusharp7/fleet-managment/internal/truckloads"
	"github.com/Kwakusharp7/fleet-managment/pkg/logger"
)

type truckInfoRequest struct {
	TruckID        string  `json:"truck_id" validate:"required,max=50"`
	Length         float64 `json:"length" validate:"gt=0"`
	Width          float64 `json:"width" validate:"gt=0"`
	WeightCapacity float64 `json:"weight_capacity" validate:"gte=1000"`
}

type pullRequest struct {
	SourceProject string   `json:"source_project" validate:"max=20"`
	SkidIDs       []string `json:"skid_ids" validate:"required,min=1,max=500,dive,required,max=100"`
}

type additionalProjectRequest struct {
	ProjectCode string `json:"project_code" validate:"required,max=20"`
}

type truckScope struct {
	svc     truckloads.Service
	actor   uuid.UUID
	project string
	loadID  uuid.UUID
}

// truckAction resolves actor, project and load of a truck-load route. A zero
// loadID is passed when the route has no {loadId}.
func truckAction(svc truckloads.Service, logg *logger.Logger, status int, withLoad bool, run func(r *http.Request, in truckScope) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("truck loads"))
			return
		}
		actorID, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		code, err := validators.ProjectCodeParam(r, "projectCode")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		scope := truckScope{svc: svc, actor: actorID, project: code}
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithProject(ctx, code)
		}
		if withLoad {
			if scope.loadID, err = validators.ParseUUIDParam(r, "loadId"); err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			if logg != nil {
				ctx = logg.WithLoadID(ctx, scope.loadID.String())
			}
		}
		out, err := run(r.WithContext(ctx), scope)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, status, out)
	}
}

// StartTruckLoad resumes the newest empty Planned truck load of the project or
// starts a new one.
func StartTruckLoad(svc truckloads.Service, logg *logger.Logger) http.HandlerFunc {
	return truckAction(svc, logg, http.StatusOK, false, func(r *http.Request, in truckScope) (any, error) {
		return in.svc.StartOrResume(r.Context(), in.actor, in.project)
	})
}

// TruckLoadStaging returns the load with every inventory it may pull from.
func TruckLoadStaging(svc truckloads.Service, logg *logger.Logger) http.HandlerFunc {
	return truckAction(svc, logg, http.StatusOK, true, func(r *http.Request, in truckScope) (any, error) {
		return in.svc.Staging(r.Context(), in.project, in.loadID)
	})
}

func SaveTruckInfo(svc truckloads.Service, logg *logger.Logger) http.HandlerFunc {
	return truckAction(svc, logg, http.StatusOK, true, func(r *http.Request, in truckScope) (any, error) {
		var req truckInfoRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return nil, err
		}
		return in.svc.SaveTruckInfo(r.Context(), in.actor, in.project, in.loadID, truckloads.TruckInfoInput{
			TruckID:        req.TruckID,
			Length:         req.Length,
			Width:          req.Width,
			WeightCapacity: req.WeightCapacity,
		})
	})
}

func AddTruckSkid(svc truckloads.Service, logg *logger.Logger) http.HandlerFunc {
	return truckAction(svc, logg, http.StatusCreated, true, func(r *http.Request, in truckScope) (any, error) {
		var req skidRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return nil, err
		}
		return in.svc.AddSkid(r.Context(), in.actor, in.project, in.loadID, req.input())
	})
}

func UpdateTruckSkid(svc truckloads.Service, logg *logger.Logger) http.HandlerFunc {
	return truckAction(svc, logg, http.StatusOK, true, func(r *http.Request, in truckScope) (any, error) {
		skidID, err := skidIDParam(r)
		if err != nil {
			return nil, err
		}
		var req skidPatchRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return nil, err
		}
		return in.svc.UpdateSkid(r.Context(), in.actor, in.project, in.loadID, skidID, req.patch())
	})
}

func RemoveTruckSkid(svc truckloads.Service, logg *logger.Logger) http.HandlerFunc {
	return truckAction(svc, logg, http.StatusOK, true, func(r *http.Request, in truckScope) (any, error) {
		skidID, err := skidIDParam(r)
		if err != nil {
			return nil, err
		}
		return in.svc.RemoveSkid(r.Context(), in.actor, in.project, in.loadID, skidID)
	})
}

func ClearTruckSkids(svc truckloads.Service, logg *logger.Logger) http.HandlerFunc {
	return truckAction(svc, logg, http.StatusOK, true, func(r *http.Request, in truckScope) (any, error) {
		return in.svc.ClearSkids(r.Context(), in.actor, in.project, in.loadID)
	})
}

// PullFromInventory copies inventory skids onto the truck. source_project
// defaults to the route's project.
func PullFromInventory(svc truckloads.Service, logg *logger.Logger) http.HandlerFunc {
	return truckAction(svc, logg, http.StatusOK, true, func(r *http.Request, in truckScope) (any, error) {
		var req pullRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return nil, err
		}
		source := validators.SanitizeString(req.SourceProject, 0)
		if source == "" {
			source = in.project
		}
		return in.svc.PullFromInventory(r.Context(), in.actor, in.project, in.loadID, source, req.SkidIDs)
	})
}

func AddAdditionalProject(svc truckloads.Service, logg *logger.Logger) http.HandlerFunc {
	return truckAction(svc, logg, http.StatusOK, true, func(r *http.Request, in truckScope) (any, error) {
		var req additionalProjectRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return nil, err
		}
		return in.svc.AddAdditionalProject(r.Context(), in.actor, in.project, in.loadID, req.ProjectCode)
	})
}
