package spreadsheet

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/Kwakusharp7/fleet-managment/internal/inventory"
	"github.com/Kwakusharp7/fleet-managment/internal/loads"
)

type summarizer interface {
	Summary(ctx context.Context, loadID uuid.UUID) (*loads.PrintSummary, error)
}

type skidImporter interface {
	AddSkids(ctx context.Context, actorID uuid.UUID, projectCode string, inputs []loads.SkidInput) (*inventory.View, error)
}

// Service moves load data in and out of XLSX workbooks.
type Service interface {
	ExportPackingSheet(ctx context.Context, loadID uuid.UUID, w io.Writer) (*loads.PrintSummary, error)
	ImportInventory(ctx context.Context, actorID uuid.UUID, projectCode string, r io.Reader) (*inventory.View, error)
}

type service struct {
	loads     summarizer
	inventory skidImporter
}

func NewService(loads summarizer, inventory skidImporter) (Service, error) {
	if loads == nil {
		return nil, fmt.Errorf("loads service required")
	}
	if inventory == nil {
		return nil, fmt.Errorf("inventory service required")
	}
	return &service{loads: loads, inventory: inventory}, nil
}

func (s *service) ExportPackingSheet(ctx context.Context, loadID uuid.UUID, w io.Writer) (*loads.PrintSummary, error) {
	summary, err := s.loads.Summary(ctx, loadID)
	if err != nil {
		return nil, err
	}
	if err := WritePackingSheet(w, summary); err != nil {
		return nil, fmt.Errorf("write packing sheet: %w", err)
	}
	return summary, nil
}

// ImportInventory appends every skid in the workbook to the project's
// inventory, or none of them.
func (s *service) ImportInventory(ctx context.Context, actorID uuid.UUID, projectCode string, r io.Reader) (*inventory.View, error) {
	skids, err := ParseSkids(r)
	if err != nil {
		return nil, err
	}
	return s.inventory.AddSkids(ctx, actorID, projectCode, skids)
}
