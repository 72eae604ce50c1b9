package models

import (
	"time"

	"github.com/Kwakusharp7/fleet-managment/pkg/enums"
)

// Project is a construction project that loads are staged for.
type Project struct {
	Code        string              `gorm:"column:code;primaryKey"`
	Name        string              `gorm:"column:name;not null"`
	Status      enums.ProjectStatus `gorm:"column:status;type:project_status;not null"`
	Address     string              `gorm:"column:address"`
	Description string              `gorm:"column:description"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (Project) TableName() string { return "projects" }
