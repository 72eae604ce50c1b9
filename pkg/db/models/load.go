package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Kwakusharp7/fleet-managment/pkg/enums"
)

// Load is either a real truck trip or a project's inventory pseudo-load.
// SkidCount and TotalWeight are derived from Skids and must only be written
// by the load aggregate.
type Load struct {
	ID                 uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	TruckID            string           `gorm:"column:truck_id;not null"`
	ProjectCode        string           `gorm:"column:project_code;not null"`
	Status             enums.LoadStatus `gorm:"column:status;type:load_status;not null"`
	IsInventory        bool             `gorm:"column:is_inventory;not null;default:false"`
	TruckInfo          TruckInfo        `gorm:"column:truck_info;type:jsonb;serializer:json;not null"`
	Skids              []Skid           `gorm:"column:skids;type:jsonb;serializer:json;not null"`
	SkidCount          int              `gorm:"column:skid_count;not null;default:0"`
	TotalWeight        float64          `gorm:"column:total_weight;type:numeric(14,2);not null;default:0"`
	SkidSeq            int64            `gorm:"column:skid_seq;not null;default:0"`
	PackingList        PackingList      `gorm:"column:packing_list;type:jsonb;serializer:json;not null"`
	AdditionalProjects []string         `gorm:"column:additional_projects;type:jsonb;serializer:json;not null"`
	Version            int64            `gorm:"column:version;not null;default:1"`
	CreatedBy          *uuid.UUID       `gorm:"column:created_by;type:uuid"`
	UpdatedBy          *uuid.UUID       `gorm:"column:updated_by;type:uuid"`
	DateEntered        time.Time        `gorm:"column:date_entered;not null"`
	UpdatedAt          time.Time        `gorm:"column:updated_at;not null;autoUpdateTime:false"`
}

func (Load) TableName() string { return "loads" }

// TruckInfo holds the physical limits of the truck in feet and pounds.
type TruckInfo struct {
	Length         float64 `json:"length"`
	Width          float64 `json:"width"`
	WeightCapacity float64 `json:"weight_capacity"`
}

// Skid is a palletized unit embedded in a load. OriginalInvID and SourceProject
// are set only when the skid was copied from an inventory pseudo-load.
type Skid struct {
	ID            string    `json:"id"`
	Width         float64   `json:"width"`
	Length        float64   `json:"length"`
	Weight        float64   `json:"weight"`
	Description   string    `json:"description,omitempty"`
	OriginalInvID string    `json:"original_inv_id,omitempty"`
	SourceProject string    `json:"source_project,omitempty"`
	AddedAt       time.Time `json:"added_at"`
}

// PackingList is the delivery paperwork captured for a truck load.
type PackingList struct {
	Date             string `json:"date,omitempty"`
	WorkOrder        string `json:"work_order,omitempty"`
	ProjectName      string `json:"project_name,omitempty"`
	ProjectAddress   string `json:"project_address,omitempty"`
	RequestedBy      string `json:"requested_by,omitempty"`
	Carrier          string `json:"carrier,omitempty"`
	Consignee        string `json:"consignee,omitempty"`
	ConsigneeAddress string `json:"consignee_address,omitempty"`
	SiteContact      string `json:"site_contact,omitempty"`
	SitePhone        string `json:"site_phone,omitempty"`
	DeliveryDate     string `json:"delivery_date,omitempty"`
	PackagedBy       string `json:"packaged_by,omitempty"`
	CheckedBy        string `json:"checked_by,omitempty"`
	ReceivedBy       string `json:"received_by,omitempty"`
	Signature        string `json:"signature,omitempty"`
}
