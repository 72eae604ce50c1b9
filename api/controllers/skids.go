package controllers

import (
	"github.com/Kwakusharp7/fleet-managment/internal/loads"
)

type skidRequest struct {
	Width       float64 `json:"width" validate:"gte=0.1"`
	Length      float64 `json:"length" validate:"gte=0.1"`
	Weight      float64 `json:"weight" validate:"gt=0"`
	Description string  `json:"description" validate:"max=200"`
}

func (s skidRequest) input() loads.SkidInput {
	return loads.SkidInput{
		Width:       s.Width,
		Length:      s.Length,
		Weight:      s.Weight,
		Description: s.Description,
	}
}

type skidBatchRequest struct {
	Skids []skidRequest `json:"skids" validate:"required,min=1,max=1000,dive"`
}

type skidPatchRequest struct {
	Width           *float64 `json:"width" validate:"omitempty,gte=0.1"`
	Length          *float64 `json:"length" validate:"omitempty,gte=0.1"`
	Weight          *float64 `json:"weight" validate:"omitempty,gt=0"`
	Description     *string  `json:"description" validate:"omitempty,max=200"`
	ClearProvenance bool     `json:"clear_provenance"`
}

func (p skidPatchRequest) patch() loads.SkidPatch {
	return loads.SkidPatch{
		Width:           p.Width,
		Length:          p.Length,
		Weight:          p.Weight,
		Description:     p.Description,
		ClearProvenance: p.ClearProvenance,
	}
}
