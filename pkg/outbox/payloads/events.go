package payloads

import (
	"github.com/google/uuid"

	"github.com/Kwakusharp7/fleet-managment/pkg/enums"
)

// Status change reasons.
const (
	ReasonPackingList   = "packing_list"
	ReasonAdminOverride = "admin_override"
)

// LoadStatusChangedEvent is emitted whenever a load moves between statuses.
type LoadStatusChangedEvent struct {
	LoadID      uuid.UUID        `json:"load_id"`
	ProjectCode string           `json:"project_code"`
	TruckID     string           `json:"truck_id"`
	From        enums.LoadStatus `json:"from"`
	To          enums.LoadStatus `json:"to"`
	Reason      string           `json:"reason"`
}

// LoadDeletedEvent is emitted when a load is removed by an admin or a cleanup job.
type LoadDeletedEvent struct {
	LoadID      uuid.UUID        `json:"load_id"`
	ProjectCode string           `json:"project_code"`
	TruckID     string           `json:"truck_id"`
	Status      enums.LoadStatus `json:"status"`
	SkidCount   int              `json:"skid_count"`
	Reason      string           `json:"reason,omitempty"`
}
