package enums

import (
	"fmt"
	"strings"
)

// LoadStatus maps to the load_status enum in Postgres.
type LoadStatus string

const (
	LoadStatusPlanned   LoadStatus = "Planned"
	LoadStatusLoaded    LoadStatus = "Loaded"
	LoadStatusDelivered LoadStatus = "Delivered"
)

var validLoadStatuses = []LoadStatus{
	LoadStatusPlanned,
	LoadStatusLoaded,
	LoadStatusDelivered,
}

// String implements fmt.Stringer.
func (s LoadStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is one of the fixed load states.
func (s LoadStatus) IsValid() bool {
	for _, candidate := range validLoadStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseLoadStatus converts raw input into a LoadStatus. Matching ignores case so
// "delivered" and "Delivered" are equivalent.
func ParseLoadStatus(value string) (LoadStatus, error) {
	trimmed := strings.TrimSpace(value)
	for _, candidate := range validLoadStatuses {
		if strings.EqualFold(string(candidate), trimmed) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid load status %q", value)
}

// LoadStatuses returns the canonical ordering of states.
func LoadStatuses() []LoadStatus {
	out := make([]LoadStatus, len(validLoadStatuses))
	copy(out, validLoadStatuses)
	return out
}
