// Package measure holds the pure arithmetic used by load staging and the print
// views: skid weight estimates, truck bed utilization and overweight checks.
package measure

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/Kwakusharp7/fleet-managment/pkg/db/models"
)

const (
	// DefaultSkidHeight is the assumed skid height in feet.
	DefaultSkidHeight = 0.5
	// DefaultDensity is the assumed material density in pounds per cubic foot.
	DefaultDensity = 40.0
)

// ErrInvalidDimension is returned when a width or length is not positive.
var ErrInvalidDimension = errors.New("invalid dimension")

// CalculateSkidWeight estimates a skid weight as width*length*height*density
// rounded to two decimals. Non-positive height or density use the defaults.
func CalculateSkidWeight(width, length float64, opts ...WeightOption) (float64, error) {
	if !positive(width) || !positive(length) {
		return 0, fmt.Errorf("%w: width and length must be greater than 0", ErrInvalidDimension)
	}
	params := weightParams{height: DefaultSkidHeight, density: DefaultDensity}
	for _, opt := range opts {
		opt(&params)
	}
	if !positive(params.height) {
		params.height = DefaultSkidHeight
	}
	if !positive(params.density) {
		params.density = DefaultDensity
	}
	weight := decimal.NewFromFloat(width).
		Mul(decimal.NewFromFloat(length)).
		Mul(decimal.NewFromFloat(params.height)).
		Mul(decimal.NewFromFloat(params.density))
	return Round2(weight.InexactFloat64()), nil
}

type weightParams struct {
	height  float64
	density float64
}

// WeightOption overrides one of the weight estimate defaults.
type WeightOption func(*weightParams)

// WithHeight overrides the default skid height. Non-positive values are ignored.
func WithHeight(height float64) WeightOption {
	return func(p *weightParams) { p.height = height }
}

// WithDensity overrides the default density. Non-positive values are ignored.
func WithDensity(density float64) WeightOption {
	return func(p *weightParams) { p.density = density }
}

// Utilization describes how much of the truck bed the skids cover.
type Utilization struct {
	TotalArea  float64 `json:"total_area"`
	TruckArea  float64 `json:"truck_area"`
	Percentage float64 `json:"percentage"`
}

// Formatted renders the percentage with one decimal, e.g. "44.4%".
func (u Utilization) Formatted() string {
	return fmt.Sprintf("%.1f%%", u.Percentage)
}

// ComputeSpaceUtilization compares the summed skid footprint with the truck
// footprint. Malformed numbers count as zero and the result never fails.
func ComputeSpaceUtilization(load *models.Load) Utilization {
	if load == nil {
		return Utilization{}
	}
	total := decimal.Zero
	for _, skid := range load.Skids {
		total = total.Add(decimal.NewFromFloat(sanitize(skid.Width)).Mul(decimal.NewFromFloat(sanitize(skid.Length))))
	}
	truck := decimal.NewFromFloat(sanitize(load.TruckInfo.Length)).Mul(decimal.NewFromFloat(sanitize(load.TruckInfo.Width)))

	u := Utilization{
		TotalArea: Round2(total.InexactFloat64()),
		TruckArea: Round2(truck.InexactFloat64()),
	}
	if truck.IsPositive() {
		u.Percentage = total.Div(truck).Mul(decimal.NewFromInt(100)).InexactFloat64()
	}
	return u
}

// IsOverweight reports whether the load total exceeds the truck capacity.
// Missing, non-positive or NaN values never count as overweight.
func IsOverweight(load *models.Load) bool {
	if load == nil {
		return false
	}
	total := load.TotalWeight
	capacity := load.TruckInfo.WeightCapacity
	if !positive(total) || !positive(capacity) {
		return false
	}
	return total > capacity
}

// SumWeights adds skid weights without binary float drift.
func SumWeights(skids []models.Skid) float64 {
	total := decimal.Zero
	for _, skid := range skids {
		total = total.Add(decimal.NewFromFloat(skid.Weight))
	}
	return total.Round(2).InexactFloat64()
}

// Round2 rounds half away from zero to two decimals.
func Round2(value float64) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	return decimal.NewFromFloat(value).Round(2).InexactFloat64()
}

func positive(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}

func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
