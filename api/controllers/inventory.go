package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Kwakusharp7/fleet-managment/api/responses"
	"github.com/Kwakusharp7/fleet-managment/api/validators"
	"github.com/Kwakusharp7/fleet-managment/internal/inventory"
	"github.com/Kwakusharp7/fleet-managment/internal/loads"
	pkgerrors "github.com/Kwakusharp7/fleet-managment/pkg/errors"
	"github.com/Kwakusharp7/fleet-managment/pkg/logger"
)

func skidIDParam(r *http.Request) (string, error) {
	id := validators.SanitizeString(chi.URLParam(r, "skidId"), 0)
	if id == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "skid id required").WithDetails(map[string]any{"field": "skidId"})
	}
	return id, nil
}

// inventoryAction resolves the actor and project of an inventory route and
// hands them to run.
func inventoryAction(svc inventory.Service, logg *logger.Logger, status int, run func(r *http.Request, in inventoryScope) (*inventory.View, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("inventory"))
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
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithProject(ctx, code)
		}
		view, err := run(r.WithContext(ctx), inventoryScope{svc: svc, actor: actorID, project: code})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, status, view)
	}
}

type inventoryScope struct {
	svc     inventory.Service
	actor   uuid.UUID
	project string
}

// GetInventory returns the project's inventory, creating it on first access.
func GetInventory(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return inventoryAction(svc, logg, http.StatusOK, func(r *http.Request, in inventoryScope) (*inventory.View, error) {
		return in.svc.GetOrCreateInventory(r.Context(), in.actor, in.project)
	})
}

func AddInventorySkid(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return inventoryAction(svc, logg, http.StatusCreated, func(r *http.Request, in inventoryScope) (*inventory.View, error) {
		var req skidRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return nil, err
		}
		return in.svc.AddSkid(r.Context(), in.actor, in.project, req.input())
	})
}

// AddInventorySkids stages several skids in one write.
func AddInventorySkids(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return inventoryAction(svc, logg, http.StatusCreated, func(r *http.Request, in inventoryScope) (*inventory.View, error) {
		var req skidBatchRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return nil, err
		}
		inputs := make([]loads.SkidInput, 0, len(req.Skids))
		for _, skid := range req.Skids {
			inputs = append(inputs, skid.input())
		}
		return in.svc.AddSkids(r.Context(), in.actor, in.project, inputs)
	})
}

func UpdateInventorySkid(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return inventoryAction(svc, logg, http.StatusOK, func(r *http.Request, in inventoryScope) (*inventory.View, error) {
		skidID, err := skidIDParam(r)
		if err != nil {
			return nil, err
		}
		var req skidPatchRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return nil, err
		}
		return in.svc.UpdateSkid(r.Context(), in.actor, in.project, skidID, req.patch())
	})
}

func DeleteInventorySkid(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return inventoryAction(svc, logg, http.StatusOK, func(r *http.Request, in inventoryScope) (*inventory.View, error) {
		skidID, err := skidIDParam(r)
		if err != nil {
			return nil, err
		}
		return in.svc.DeleteSkid(r.Context(), in.actor, in.project, skidID)
	})
}

func ClearInventory(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return inventoryAction(svc, logg, http.StatusOK, func(r *http.Request, in inventoryScope) (*inventory.View, error) {
		return in.svc.Clear(r.Context(), in.actor, in.project)
	})
}
