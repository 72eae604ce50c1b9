package loads

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Kwakusharp7/fleet-managment/internal/measure"
	"github.com/Kwakusharp7/fleet-managment/pkg/db/models"
	"github.com/Kwakusharp7/fleet-managment/pkg/enums"
	pkgerrors "github.com/Kwakusharp7/fleet-managment/pkg/errors"
)

const (
	// MaxDescriptionLength bounds a skid's free-text description.
	MaxDescriptionLength = 200
	// MinSkidDimension is the smallest accepted width or length, in feet.
	MinSkidDimension = 0.1
	// MaxTruckIDLength bounds the truck identifier.
	MaxTruckIDLength = 50
	// MinWeightCapacity is the smallest truck capacity accepted, in pounds.
	MinWeightCapacity = 1000
)

// SkidInput carries the fields of a new skid.
type SkidInput struct {
	ID            string
	Width         float64
	Length        float64
	Weight        float64
	Description   string
	OriginalInvID string
	SourceProject string
}

// SkidPatch lists the fields to change on an existing skid. Nil fields are left alone.
type SkidPatch struct {
	Width           *float64
	Length          *float64
	Weight          *float64
	Description     *string
	ClearProvenance bool
}

// Aggregate owns every mutation of a load's skid collection and keeps the
// derived totals consistent with it.
type Aggregate struct {
	load  *models.Load
	actor uuid.UUID
	now   func() time.Time
}

// NewAggregate wraps load for mutation on behalf of actor.
func NewAggregate(load *models.Load, actor uuid.UUID, now func() time.Time) *Aggregate {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	if load.Skids == nil {
		load.Skids = []models.Skid{}
	}
	if load.AdditionalProjects == nil {
		load.AdditionalProjects = []string{}
	}
	return &Aggregate{load: load, actor: actor, now: now}
}

// Load exposes the wrapped record.
func (a *Aggregate) Load() *models.Load {
	return a.load
}

// FindSkid returns the skid with id and whether it exists.
func (a *Aggregate) FindSkid(id string) (models.Skid, bool) {
	idx := a.indexOf(id)
	if idx < 0 {
		return models.Skid{}, false
	}
	return a.load.Skids[idx], true
}

// HasOriginal reports whether a skid copied from the inventory skid invID is present.
func (a *Aggregate) HasOriginal(invID string) bool {
	if invID == "" {
		return false
	}
	for _, skid := range a.load.Skids {
		if skid.OriginalInvID == invID {
			return true
		}
	}
	return false
}

// AddSkid validates in, assigns an id when absent and appends the skid.
func (a *Aggregate) AddSkid(in SkidInput) (models.Skid, error) {
	width, length, weight, err := normalizeDimensions(in.Width, in.Length, in.Weight)
	if err != nil {
		return models.Skid{}, err
	}
	description, err := normalizeDescription(in.Description)
	if err != nil {
		return models.Skid{}, err
	}

	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = a.nextSkidID()
	} else if a.indexOf(id) >= 0 {
		return models.Skid{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("skid %s already exists", id))
	}

	skid := models.Skid{
		ID:            id,
		Width:         width,
		Length:        length,
		Weight:        weight,
		Description:   description,
		OriginalInvID: strings.TrimSpace(in.OriginalInvID),
		SourceProject: strings.TrimSpace(in.SourceProject),
		AddedAt:       a.now(),
	}
	a.load.Skids = append(a.load.Skids, skid)
	a.touch()
	return skid, nil
}

// UpdateSkid applies patch to the skid with id. Provenance survives unless
// the patch clears it.
func (a *Aggregate) UpdateSkid(id string, patch SkidPatch) (models.Skid, error) {
	idx := a.indexOf(id)
	if idx < 0 {
		return models.Skid{}, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("skid %s not found", id))
	}
	current := a.load.Skids[idx]

	width, length, weight := current.Width, current.Length, current.Weight
	if patch.Width != nil {
		width = *patch.Width
	}
	if patch.Length != nil {
		length = *patch.Length
	}
	if patch.Weight != nil {
		weight = *patch.Weight
	}
	width, length, weight, err := normalizeDimensions(width, length, weight)
	if err != nil {
		return models.Skid{}, err
	}
	current.Width, current.Length, current.Weight = width, length, weight

	if patch.Description != nil {
		description, err := normalizeDescription(*patch.Description)
		if err != nil {
			return models.Skid{}, err
		}
		current.Description = description
	}
	if patch.ClearProvenance {
		current.OriginalInvID = ""
		current.SourceProject = ""
	}

	a.load.Skids[idx] = current
	a.touch()
	return current, nil
}

// RemoveSkid deletes the skid with id.
func (a *Aggregate) RemoveSkid(id string) error {
	idx := a.indexOf(id)
	if idx < 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("skid %s not found", id))
	}
	a.load.Skids = append(a.load.Skids[:idx], a.load.Skids[idx+1:]...)
	a.touch()
	return nil
}

// ClearSkids empties the collection and returns how many skids were removed.
func (a *Aggregate) ClearSkids() int {
	removed := len(a.load.Skids)
	a.load.Skids = []models.Skid{}
	a.touch()
	return removed
}

// SetTruckInfo validates and stores the truck identity and limits.
func (a *Aggregate) SetTruckInfo(truckID string, info models.TruckInfo) error {
	truckID = strings.TrimSpace(truckID)
	switch {
	case truckID == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "truck id is required")
	case len(truckID) > MaxTruckIDLength:
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("truck id must be at most %d characters", MaxTruckIDLength))
	case !positive(info.Length) || !positive(info.Width):
		return pkgerrors.New(pkgerrors.CodeValidation, "truck length and width must be positive")
	case !finite(info.WeightCapacity) || info.WeightCapacity < MinWeightCapacity:
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("weight capacity must be at least %d", MinWeightCapacity))
	}
	a.load.TruckID = truckID
	a.load.TruckInfo = models.TruckInfo{
		Length:         measure.Round2(info.Length),
		Width:          measure.Round2(info.Width),
		WeightCapacity: measure.Round2(info.WeightCapacity),
	}
	a.touch()
	return nil
}

// AddAdditionalProject appends code once; it returns false when already present.
func (a *Aggregate) AddAdditionalProject(code string) bool {
	if code == a.load.ProjectCode {
		return false
	}
	for _, existing := range a.load.AdditionalProjects {
		if existing == code {
			return false
		}
	}
	a.load.AdditionalProjects = append(a.load.AdditionalProjects, code)
	a.touch()
	return true
}

// AllowsSourceProject reports whether skids from code may be pulled onto the load.
func (a *Aggregate) AllowsSourceProject(code string) bool {
	if code == a.load.ProjectCode {
		return true
	}
	for _, existing := range a.load.AdditionalProjects {
		if existing == code {
			return true
		}
	}
	return false
}

// SetPackingList replaces the packing list.
func (a *Aggregate) SetPackingList(list models.PackingList) {
	a.load.PackingList = list
	a.touch()
}

// SetStatus moves the load to status and returns the previous one.
func (a *Aggregate) SetStatus(status enums.LoadStatus) enums.LoadStatus {
	from := a.load.Status
	a.load.Status = status
	a.touch()
	return from
}

func (a *Aggregate) touch() {
	a.load.SkidCount = len(a.load.Skids)
	a.load.TotalWeight = measure.SumWeights(a.load.Skids)
	a.load.UpdatedAt = a.now()
	if a.actor != uuid.Nil {
		actor := a.actor
		a.load.UpdatedBy = &actor
	}
}

func (a *Aggregate) indexOf(id string) int {
	for i, skid := range a.load.Skids {
		if skid.ID == id {
			return i
		}
	}
	return -1
}

func (a *Aggregate) nextSkidID() string {
	for {
		a.load.SkidSeq++
		id := fmt.Sprintf("%s-%d", a.skidPrefix(), a.load.SkidSeq)
		if a.indexOf(id) < 0 {
			return id
		}
	}
}

func (a *Aggregate) skidPrefix() string {
	if a.load.IsInventory {
		return "INV-" + a.load.ProjectCode
	}
	if a.load.TruckID != "" {
		return "TRUCK-" + a.load.TruckID
	}
	return "TRUCK-" + a.load.ID.String()[:8]
}

func normalizeDimensions(width, length, weight float64) (float64, float64, float64, error) {
	width, length, weight = measure.Round2(width), measure.Round2(length), measure.Round2(weight)
	if !positive(width) || !positive(length) || !positive(weight) {
		return 0, 0, 0, pkgerrors.New(pkgerrors.CodeValidation, "width, length and weight must be positive numbers")
	}
	if width < MinSkidDimension || length < MinSkidDimension {
		return 0, 0, 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("width and length must be at least %.1f", MinSkidDimension)).
			WithDetails(map[string]any{"width": width, "length": length, "min": MinSkidDimension})
	}
	return width, length, weight, nil
}

func normalizeDescription(description string) (string, error) {
	description = strings.TrimSpace(description)
	if len([]rune(description)) > MaxDescriptionLength {
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("description must be at most %d characters", MaxDescriptionLength))
	}
	return description, nil
}

func positive(v float64) bool {
	return finite(v) && v > 0
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
