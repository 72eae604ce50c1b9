package packinglist

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/Kwakusharp7/fleet-managment/internal/loads"
	"github.com/Kwakusharp7/fleet-managment/pkg/db/models"
	"github.com/Kwakusharp7/fleet-managment/pkg/enums"
	pkgerrors "github.com/Kwakusharp7/fleet-managment/pkg/errors"
	"github.com/Kwakusharp7/fleet-managment/pkg/outbox/payloads"
)

const (
	// MaxFieldLength bounds every free-text packing list field.
	MaxFieldLength = 500
	// MaxSignatureLength bounds the signature data URL.
	MaxSignatureLength = 1 << 20

	emptyCanvas = "data:,"
)

type loadReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Load, error)
}

type loadWriter interface {
	Mutate(ctx context.Context, m loads.Mutation) (*models.Load, error)
}

// Fields is a partial packing list. Nil fields keep their stored value.
type Fields struct {
	Date             *string
	WorkOrder        *string
	ProjectName      *string
	ProjectAddress   *string
	RequestedBy      *string
	Carrier          *string
	Consignee        *string
	ConsigneeAddress *string
	SiteContact      *string
	SitePhone        *string
	DeliveryDate     *string
	PackagedBy       *string
	CheckedBy        *string
	ReceivedBy       *string
}

// SaveInput carries a partial packing list. Nil entries in Fields keep their
// stored value.
type SaveInput struct {
	Fields          Fields
	Signature       string
	ConfirmDelivery bool
}

// Service completes the delivery paperwork of truck loads.
type Service interface {
	Get(ctx context.Context, projectCode string, loadID uuid.UUID) (*loads.LoadView, error)
	Save(ctx context.Context, actorID uuid.UUID, projectCode string, loadID uuid.UUID, input SaveInput) (*loads.LoadView, error)
}

type service struct {
	repo   loadReader
	writer loadWriter
}

// NewService requires both the load reader and the writer.
func NewService(repo loadReader, writer loadWriter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("loads repository required")
	}
	if writer == nil {
		return nil, fmt.Errorf("load writer required")
	}
	return &service{repo: repo, writer: writer}, nil
}

func (s *service) Get(ctx context.Context, projectCode string, loadID uuid.UUID) (*loads.LoadView, error) {
	load, err := s.repo.FindByID(ctx, loadID)
	if err != nil {
		return nil, loads.MapRepoError(err, "load")
	}
	if err := checkLoad(load, strings.TrimSpace(projectCode)); err != nil {
		return nil, err
	}
	return loads.ToView(load), nil
}

// Save merges the packing list fields into the load. A signature marks the
// load Loaded, or Delivered once the receiver is named. Status never moves
// backwards.
func (s *service) Save(ctx context.Context, actorID uuid.UUID, projectCode string, loadID uuid.UUID, input SaveInput) (*loads.LoadView, error) {
	projectCode = strings.TrimSpace(projectCode)
	signature := normalizeSignature(input.Signature)
	if len(signature) > MaxSignatureLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "signature is too large")
	}
	if err := validateFields(input.Fields); err != nil {
		return nil, err
	}

	load, err := s.writer.Mutate(ctx, loads.Mutation{
		Op:      "save_packing_list",
		LoadID:  loadID,
		ActorID: actorID,
		Reason:  payloads.ReasonPackingList,
		Apply: func(_ context.Context, _ loads.Repository, agg *loads.Aggregate) error {
			current := agg.Load()
			if err := checkLoad(current, projectCode); err != nil {
				return err
			}
			if current.Status == enums.LoadStatusDelivered && !input.ConfirmDelivery {
				return pkgerrors.New(pkgerrors.CodeInvalidState, "load is already delivered; confirm to edit its packing list").
					WithDetails(map[string]any{"load_id": current.ID, "status": current.Status})
			}

			list := merge(current.PackingList, input.Fields)
			if signature != "" {
				list.Signature = signature
			}
			agg.SetPackingList(list)

			if signature == "" {
				return nil
			}
			if next := nextStatus(current.Status, list); next != current.Status {
				agg.SetStatus(next)
			}
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	return loads.ToView(load), nil
}

func nextStatus(current enums.LoadStatus, list models.PackingList) enums.LoadStatus {
	target := enums.LoadStatusLoaded
	if strings.TrimSpace(list.ReceivedBy) != "" {
		target = enums.LoadStatusDelivered
	}
	if rank(target) <= rank(current) {
		return current
	}
	return target
}

func rank(status enums.LoadStatus) int {
	switch status {
	case enums.LoadStatusLoaded:
		return 1
	case enums.LoadStatusDelivered:
		return 2
	default:
		return 0
	}
}

func checkLoad(load *models.Load, projectCode string) error {
	if load.ProjectCode != projectCode {
		return pkgerrors.New(pkgerrors.CodeProjectMismatch, fmt.Sprintf("load belongs to project %s", load.ProjectCode)).
			WithDetails(map[string]any{"load_id": load.ID, "project_code": load.ProjectCode, "requested_project": projectCode})
	}
	if load.IsInventory {
		return pkgerrors.New(pkgerrors.CodeInvalidState, "inventory loads have no packing list").
			WithDetails(map[string]any{"load_id": load.ID})
	}
	return nil
}

func normalizeSignature(signature string) string {
	signature = strings.TrimSpace(signature)
	if signature == emptyCanvas {
		return ""
	}
	return signature
}

func validateFields(f Fields) error {
	for name, value := range f.named() {
		if value != nil && utf8.RuneCountInString(*value) > MaxFieldLength {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s must be at most %d characters", name, MaxFieldLength)).
				WithDetails(map[string]any{"field": name})
		}
	}
	return nil
}

func (f Fields) named() map[string]*string {
	return map[string]*string{
		"date":              f.Date,
		"work_order":        f.WorkOrder,
		"project_name":      f.ProjectName,
		"project_address":   f.ProjectAddress,
		"requested_by":      f.RequestedBy,
		"carrier":           f.Carrier,
		"consignee":         f.Consignee,
		"consignee_address": f.ConsigneeAddress,
		"site_contact":      f.SiteContact,
		"site_phone":        f.SitePhone,
		"delivery_date":     f.DeliveryDate,
		"packaged_by":       f.PackagedBy,
		"checked_by":        f.CheckedBy,
		"received_by":       f.ReceivedBy,
	}
}

func merge(list models.PackingList, f Fields) models.PackingList {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&list.Date, f.Date)
	set(&list.WorkOrder, f.WorkOrder)
	set(&list.ProjectName, f.ProjectName)
	set(&list.ProjectAddress, f.ProjectAddress)
	set(&list.RequestedBy, f.RequestedBy)
	set(&list.Carrier, f.Carrier)
	set(&list.Consignee, f.Consignee)
	set(&list.ConsigneeAddress, f.ConsigneeAddress)
	set(&list.SiteContact, f.SiteContact)
	set(&list.SitePhone, f.SitePhone)
	set(&list.DeliveryDate, f.DeliveryDate)
	set(&list.PackagedBy, f.PackagedBy)
	set(&list.CheckedBy, f.CheckedBy)
	set(&list.ReceivedBy, f.ReceivedBy)
	return list
}
