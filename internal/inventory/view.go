package inventory

import (
	"github.com/google/uuid"

	"github.com/Kwakusharp7/fleet-managment/internal/loads"
	"github.com/Kwakusharp7/fleet-managment/pkg/db/models"
)

// Skid is an inventory skid plus whether a Planned truck already carries a copy.
type Skid struct {
	models.Skid
	OnTruck     bool       `json:"on_truck"`
	TruckLoadID *uuid.UUID `json:"truck_load_id,omitempty"`
}

// View is an inventory pseudo-load with per-skid truck markers.
type View struct {
	*loads.LoadView
	Skids []Skid `json:"skids"`
}

func toView(load *models.Load, onTruck map[string]uuid.UUID) *View {
	base := loads.ToView(load)
	skids := make([]Skid, 0, len(base.Skids))
	for _, skid := range base.Skids {
		item := Skid{Skid: skid}
		if truckID, ok := onTruck[skid.ID]; ok {
			id := truckID
			item.OnTruck = true
			item.TruckLoadID = &id
		}
		skids = append(skids, item)
	}
	return &View{LoadView: base, Skids: skids}
}
