package enums

import (
	"fmt"
	"strings"
)

// ProjectStatus maps to the project_status enum in Postgres.
type ProjectStatus string

const (
	ProjectStatusActive   ProjectStatus = "Active"
	ProjectStatusInactive ProjectStatus = "Inactive"
)

var validProjectStatuses = []ProjectStatus{
	ProjectStatusActive,
	ProjectStatusInactive,
}

// String implements fmt.Stringer.
func (s ProjectStatus) String() string {
	return string(s)
}

// IsValid reports whether the value matches the project_status enum.
func (s ProjectStatus) IsValid() bool {
	for _, candidate := range validProjectStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseProjectStatus converts raw input into ProjectStatus, ignoring case.
func ParseProjectStatus(value string) (ProjectStatus, error) {
	trimmed := strings.TrimSpace(value)
	for _, candidate := range validProjectStatuses {
		if strings.EqualFold(string(candidate), trimmed) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid project status %q", value)
}
