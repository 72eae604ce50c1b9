package loads

import (
	"time"

	"github.com/google/uuid"

	"github.com/Kwakusharp7/fleet-managment/internal/measure"
	"github.com/Kwakusharp7/fleet-managment/pkg/db/models"
	"github.com/Kwakusharp7/fleet-managment/pkg/enums"
	pkgpagination "github.com/Kwakusharp7/fleet-managment/pkg/pagination"
)

type ListParams struct {
	ListFilter
	pkgpagination.Params
}

type ListResult struct {
	Items  []ListItem `json:"items"`
	Cursor string     `json:"cursor"`
}

type ListItem struct {
	ID          uuid.UUID        `json:"id"`
	TruckID     string           `json:"truck_id"`
	ProjectCode string           `json:"project_code"`
	Status      enums.LoadStatus `json:"status"`
	IsInventory bool             `json:"is_inventory"`
	SkidCount   int              `json:"skid_count"`
	TotalWeight float64          `json:"total_weight"`
	Utilization UtilizationView  `json:"utilization"`
	Overweight  bool             `json:"overweight"`
	DateEntered time.Time        `json:"date_entered"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

type UtilizationView struct {
	TotalArea  float64 `json:"total_area"`
	TruckArea  float64 `json:"truck_area"`
	Percentage float64 `json:"percentage"`
	Formatted  string  `json:"formatted"`
}

// LoadView is the full representation of a load returned by every command.
type LoadView struct {
	ID                 uuid.UUID          `json:"id"`
	TruckID            string             `json:"truck_id"`
	ProjectCode        string             `json:"project_code"`
	Status             enums.LoadStatus   `json:"status"`
	IsInventory        bool               `json:"is_inventory"`
	TruckInfo          models.TruckInfo   `json:"truck_info"`
	Skids              []models.Skid      `json:"skids"`
	SkidCount          int                `json:"skid_count"`
	TotalWeight        float64            `json:"total_weight"`
	PackingList        models.PackingList `json:"packing_list"`
	AdditionalProjects []string           `json:"additional_projects"`
	Version            int64              `json:"version"`
	Utilization        UtilizationView    `json:"utilization"`
	Overweight         bool               `json:"overweight"`
	CreatedBy          *uuid.UUID         `json:"created_by,omitempty"`
	UpdatedBy          *uuid.UUID         `json:"updated_by,omitempty"`
	DateEntered        time.Time          `json:"date_entered"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// PrintSummary is the data behind a printable packing sheet.
type PrintSummary struct {
	LoadID         uuid.UUID          `json:"load_id"`
	TruckID        string             `json:"truck_id"`
	ProjectCode    string             `json:"project_code"`
	ProjectName    string             `json:"project_name,omitempty"`
	ProjectAddress string             `json:"project_address,omitempty"`
	Status         enums.LoadStatus   `json:"status"`
	TruckInfo      models.TruckInfo   `json:"truck_info"`
	Skids          []models.Skid      `json:"skids"`
	SkidCount      int                `json:"skid_count"`
	TotalWeight    float64            `json:"total_weight"`
	Utilization    UtilizationView    `json:"utilization"`
	Overweight     bool               `json:"overweight"`
	PackingList    models.PackingList `json:"packing_list"`
	DateEntered    time.Time          `json:"date_entered"`
}

// DashboardStats backs the loader landing page.
type DashboardStats struct {
	PlannedLoads       int64 `json:"planned_loads"`
	LoadedToday        int64 `json:"loaded_today"`
	DeliveredThisWeek  int64 `json:"delivered_this_week"`
	SkidsAddedThisWeek int64 `json:"skids_added_this_week"`
}

func toUtilizationView(load *models.Load) UtilizationView {
	u := measure.ComputeSpaceUtilization(load)
	return UtilizationView{
		TotalArea:  u.TotalArea,
		TruckArea:  u.TruckArea,
		Percentage: u.Percentage,
		Formatted:  u.Formatted(),
	}
}

// ToView converts a stored load into its API representation.
func ToView(load *models.Load) *LoadView {
	skids := load.Skids
	if skids == nil {
		skids = []models.Skid{}
	}
	additional := load.AdditionalProjects
	if additional == nil {
		additional = []string{}
	}
	return &LoadView{
		ID:                 load.ID,
		TruckID:            load.TruckID,
		ProjectCode:        load.ProjectCode,
		Status:             load.Status,
		IsInventory:        load.IsInventory,
		TruckInfo:          load.TruckInfo,
		Skids:              skids,
		SkidCount:          load.SkidCount,
		TotalWeight:        load.TotalWeight,
		PackingList:        load.PackingList,
		AdditionalProjects: additional,
		Version:            load.Version,
		Utilization:        toUtilizationView(load),
		Overweight:         measure.IsOverweight(load),
		CreatedBy:          load.CreatedBy,
		UpdatedBy:          load.UpdatedBy,
		DateEntered:        load.DateEntered,
		UpdatedAt:          load.UpdatedAt,
	}
}

func toListItem(load *models.Load) ListItem {
	return ListItem{
		ID:          load.ID,
		TruckID:     load.TruckID,
		ProjectCode: load.ProjectCode,
		Status:      load.Status,
		IsInventory: load.IsInventory,
		SkidCount:   load.SkidCount,
		TotalWeight: load.TotalWeight,
		Utilization: toUtilizationView(load),
		Overweight:  measure.IsOverweight(load),
		DateEntered: load.DateEntered,
		UpdatedAt:   load.UpdatedAt,
	}
}
