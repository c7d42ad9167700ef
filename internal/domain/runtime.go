package domain

import (
	"maps"
	"slices"
)

// ViewRuntimeState is the live, unpersisted state of one mounted module page.
type ViewRuntimeState struct {
	ViewID     string
	EntityType string
	ViewLayout

	QuickFilters   map[string]FilterValue
	SearchQuery    string
	SelectedRowIDs map[string]struct{}
	Page           int
	PageSize       int
}

// NewRuntimeState returns defaults for a module page.
func NewRuntimeState(entityType string, layout ViewLayout, pageSize int) ViewRuntimeState {
	return ViewRuntimeState{
		EntityType:     entityType,
		ViewLayout:     layout.Clone(),
		QuickFilters:   make(map[string]FilterValue),
		SelectedRowIDs: make(map[string]struct{}),
		Page:           1,
		PageSize:       pageSize,
	}
}

func (s ViewRuntimeState) Clone() ViewRuntimeState {
	out := s
	out.ViewLayout = s.ViewLayout.Clone()
	out.QuickFilters = make(map[string]FilterValue, len(s.QuickFilters))
	for k, v := range s.QuickFilters {
		out.QuickFilters[k] = v.Clone()
	}
	out.SelectedRowIDs = maps.Clone(s.SelectedRowIDs)
	if out.SelectedRowIDs == nil {
		out.SelectedRowIDs = make(map[string]struct{})
	}
	return out
}

// SelectedIDs returns the selection in sorted order.
func (s ViewRuntimeState) SelectedIDs() []string {
	return slices.Sorted(maps.Keys(s.SelectedRowIDs))
}

// QuickFilterIDs returns quick filter property ids in sorted order.
func (s ViewRuntimeState) QuickFilterIDs() []string {
	return slices.Sorted(maps.Keys(s.QuickFilters))
}

// IsDirty compares the persisted fields against baseline, which is the loaded
// view's layout or the module defaults when no view is loaded.
func (s ViewRuntimeState) IsDirty(baseline ViewLayout) bool {
	return !s.ViewLayout.Equal(baseline)
}
