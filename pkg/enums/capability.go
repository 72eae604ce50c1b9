package enums

import "sort"

// Capability names a single permission checked by route guards.
type Capability string

const (
	CapViewLoads            Capability = "view_loads"
	CapStageInventory       Capability = "stage_inventory"
	CapAssembleTruckLoads   Capability = "assemble_truck_loads"
	CapCompletePackingLists Capability = "complete_packing_lists"
	CapManageProjects       Capability = "manage_projects"
	CapOverrideLoadStatus   Capability = "override_load_status"
	CapDeleteLoads          Capability = "delete_loads"
)

// CapabilitySet is an unordered set of capabilities.
type CapabilitySet map[Capability]struct{}

// NewCapabilitySet builds a set from the provided capabilities.
func NewCapabilitySet(caps ...Capability) CapabilitySet {
	set := make(CapabilitySet, len(caps))
	for _, c := range caps {
		set[c] = struct{}{}
	}
	return set
}

// Union returns a new set holding every capability of s and others.
func (s CapabilitySet) Union(others ...CapabilitySet) CapabilitySet {
	out := make(CapabilitySet, len(s))
	for c := range s {
		out[c] = struct{}{}
	}
	for _, other := range others {
		for c := range other {
			out[c] = struct{}{}
		}
	}
	return out
}

// Has reports whether the set grants c.
func (s CapabilitySet) Has(c Capability) bool {
	_, ok := s[c]
	return ok
}

// List returns the capabilities sorted by name.
func (s CapabilitySet) List() []Capability {
	out := make([]Capability, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

var (
	viewerCapabilities = NewCapabilitySet(CapViewLoads)
	loaderCapabilities = viewerCapabilities.Union(NewCapabilitySet(
		CapStageInventory,
		CapAssembleTruckLoads,
		CapCompletePackingLists,
	))
	adminCapabilities = loaderCapabilities.Union(NewCapabilitySet(
		CapManageProjects,
		CapOverrideLoadStatus,
		CapDeleteLoads,
	))
)

// CapabilitiesFor returns the capability set granted to role. Unknown roles get
// an empty set.
func CapabilitiesFor(role Role) CapabilitySet {
	switch role {
	case RoleAdmin:
		return adminCapabilities.Union()
	case RoleLoader:
		return loaderCapabilities.Union()
	case RoleViewer:
		return viewerCapabilities.Union()
	}
	return CapabilitySet{}
}
