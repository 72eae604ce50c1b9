package truckloads

import (
	"github.com/Kwakusharp7/fleet-managment/internal/loads"
	"github.com/Kwakusharp7/fleet-managment/pkg/db/models"
)

// Pull outcomes, one per requested inventory skid id.
const (
	OutcomeAdded          = "added"
	OutcomeAlreadyOnTruck = "already_on_truck"
	OutcomeNotFound       = "not_found"
)

// PullOutcome reports what happened to one requested inventory skid.
type PullOutcome struct {
	InventorySkidID string `json:"inventory_skid_id"`
	Outcome         string `json:"outcome"`
	TruckSkidID     string `json:"truck_skid_id,omitempty"`
}

// PullResult is the updated load plus per-outcome counts.
type PullResult struct {
	Load           *loads.LoadView `json:"load"`
	Added          int             `json:"added"`
	AlreadyOnTruck int             `json:"already_on_truck"`
	NotFound       int             `json:"not_found"`
	Outcomes       []PullOutcome   `json:"outcomes"`
}

// InventorySkid is an inventory skid flagged when a Planned truck already carries it.
type InventorySkid struct {
	models.Skid
	AlreadyOnTruck bool `json:"already_on_truck"`
}

// InventorySource lists one project's inventory skids.
type InventorySource struct {
	ProjectCode string          `json:"project_code"`
	Skids       []InventorySkid `json:"skids"`
}

// StagingView is a truck load next to the inventories it may pull from.
type StagingView struct {
	Load        *loads.LoadView   `json:"load"`
	Inventories []InventorySource `json:"inventories"`
}

func newPullResult(view *loads.LoadView, outcomes []PullOutcome) *PullResult {
	result := &PullResult{Load: view, Outcomes: append([]PullOutcome(nil), outcomes...)}
	for _, o := range outcomes {
		switch o.Outcome {
		case OutcomeAdded:
			result.Added++
		case OutcomeAlreadyOnTruck:
			result.AlreadyOnTruck++
		case OutcomeNotFound:
			result.NotFound++
		}
	}
	return result
}
