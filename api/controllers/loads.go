package controllers

import (
	"net/http"
	"strings"

	"github.com/Kwakusharp7/fleet-managment/api/responses"
	"github.com/Kwakusharp7/fleet-managment/api/validators"
	"github.com/Kwakusharp7/fleet-managment/internal/loads"
	"github.com/Kwakusharp7/fleet-managment/pkg/enums"
	pkgerrors "github.com/Kwakusharp7/fleet-managment/pkg/errors"
	"github.com/Kwakusharp7/fleet-managment/pkg/logger"
	"github.com/Kwakusharp7/fleet-managment/pkg/pagination"
)

type loadStatusRequest struct {
	Status string `json:"status" validate:"required,max=20"`
}

// ListLoads pages through loads filtered by projectCode, status, search and
// includeInventory.
func ListLoads(svc loads.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("loads"))
			return
		}

		query := r.URL.Query()
		params := loads.ListParams{
			ListFilter: loads.ListFilter{
				ProjectCode: validators.SanitizeString(query.Get("projectCode"), validators.MaxProjectCodeLength),
				Search:      validators.SanitizeString(query.Get("search"), 50),
			},
			Params: pagination.Params{
				Cursor: strings.TrimSpace(query.Get("cursor")),
			},
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params.Limit = limit

		if params.IncludeInventory, err = validators.ParseQueryBool(r, "includeInventory", false); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if raw := strings.TrimSpace(query.Get("status")); raw != "" {
			status, err := enums.ParseLoadStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter").
					WithDetails(map[string]any{"field": "status"}))
				return
			}
			params.Status = &status
		}

		result, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func GetLoad(svc loads.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("loads"))
			return
		}
		loadID, err := validators.ParseUUIDParam(r, "loadId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Get(r.Context(), loadID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// LoadSummary returns the data behind the printable packing sheet.
func LoadSummary(svc loads.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("loads"))
			return
		}
		loadID, err := validators.ParseUUIDParam(r, "loadId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		summary, err := svc.Summary(r.Context(), loadID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// OverrideLoadStatus sets a load's status directly, bypassing the packing
// list workflow.
func OverrideLoadStatus(svc loads.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("loads"))
			return
		}
		actorID, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		loadID, err := validators.ParseUUIDParam(r, "loadId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req loadStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.UpdateStatus(r.Context(), actorID, loadID, req.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if logg != nil {
			ctx := logg.WithLoadID(r.Context(), loadID.String())
			logg.Info(logg.WithField(ctx, "status", view.Status), "loads.status_overridden")
		}
		responses.WriteSuccess(w, view)
	}
}

func DeleteLoad(svc loads.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("loads"))
			return
		}
		actorID, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		loadID, err := validators.ParseUUIDParam(r, "loadId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), actorID, loadID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"deleted": true, "id": loadID})
	}
}

// LoadStats backs the loader dashboard counters.
func LoadStats(svc loads.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("loads"))
			return
		}
		stats, err := svc.Stats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}
