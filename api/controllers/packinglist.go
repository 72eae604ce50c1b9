package controllers

import (
	"net/http"

	"github.com/Kwakusharp7/fleet-managment/api/responses"
	"github.com/Kwakusharp7/fleet-managment/api/validators"
	"github.com/Kwakusharp7/fleet-managment/internal/packinglist"
	"github.com/Kwakusharp7/fleet-managment/pkg/logger"
)

type packingListRequest struct {
	Date             *string `json:"date"`
	WorkOrder        *string `json:"work_order"`
	ProjectName      *string `json:"project_name"`
	ProjectAddress   *string `json:"project_address"`
	RequestedBy      *string `json:"requested_by"`
	Carrier          *string `json:"carrier"`
	Consignee        *string `json:"consignee"`
	ConsigneeAddress *string `json:"consignee_address"`
	SiteContact      *string `json:"site_contact"`
	SitePhone        *string `json:"site_phone"`
	DeliveryDate     *string `json:"delivery_date"`
	PackagedBy       *string `json:"packaged_by"`
	CheckedBy        *string `json:"checked_by"`
	ReceivedBy       *string `json:"received_by"`
	Signature        string  `json:"signature"`
	ConfirmDelivery  bool    `json:"confirm_delivery"`
}

func (p packingListRequest) input() packinglist.SaveInput {
	return packinglist.SaveInput{
		Fields: packinglist.Fields{
			Date:             p.Date,
			WorkOrder:        p.WorkOrder,
			ProjectName:      p.ProjectName,
			ProjectAddress:   p.ProjectAddress,
			RequestedBy:      p.RequestedBy,
			Carrier:          p.Carrier,
			Consignee:        p.Consignee,
			ConsigneeAddress: p.ConsigneeAddress,
			SiteContact:      p.SiteContact,
			SitePhone:        p.SitePhone,
			DeliveryDate:     p.DeliveryDate,
			PackagedBy:       p.PackagedBy,
			CheckedBy:        p.CheckedBy,
			ReceivedBy:       p.ReceivedBy,
		},
		Signature:       p.Signature,
		ConfirmDelivery: p.ConfirmDelivery,
	}
}

func GetPackingList(svc packinglist.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("packing list"))
			return
		}
		code, err := validators.ProjectCodeParam(r, "projectCode")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		loadID, err := validators.ParseUUIDParam(r, "loadId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Get(r.Context(), code, loadID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// SavePackingList merges the submitted fields. A signature moves the load to
// Loaded, or to Delivered when received_by is also known.
func SavePackingList(svc packinglist.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("packing list"))
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
		loadID, err := validators.ParseUUIDParam(r, "loadId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req packingListRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Save(r.Context(), actorID, code, loadID, req.input())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}
