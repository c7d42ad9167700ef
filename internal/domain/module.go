package domain

import (
	"fmt"
	"slices"

	"github.com/hashicorp/go-multierror"

	"viewengine/internal/apperror"
)

type ColumnDef struct {
	PropertyDescriptor `yaml:",inline"`
	Width              int  `json:"width" yaml:"width"`
	MinWidth           int  `json:"minWidth" yaml:"min_width"`
	HiddenByDefault    bool `json:"hiddenByDefault,omitempty" yaml:"hidden_by_default,omitempty"`
}

type DefaultView struct {
	Name     string
	Filters  FilterGroupSet
	Sort     SortState
	Columns  []string
	ViewMode ViewMode
	Pinned   bool
}

type BoardConfig struct {
	GroupableByPropertyIDs []string `json:"groupableByPropertyIds" yaml:"groupable_by"`
	DefaultGroupBy         string   `json:"defaultGroupBy" yaml:"default_group_by"`
}

// ModuleConfig describes one entity type to the engine. It is read-only after
// loading; nothing in the engine branches on EntityType.
type ModuleConfig struct {
	EntityType             string
	DisplayName            string
	Columns                []ColumnDef
	QuickFilterPropertyIDs []string
	DefaultViews           []DefaultView
	BulkActionIDs          []string
	Board                  *BoardConfig
}

func (m *ModuleConfig) PropertyByID(id string) (PropertyDescriptor, bool) {
	if col, ok := m.Column(id); ok {
		return col.PropertyDescriptor, true
	}
	return PropertyDescriptor{}, false
}

func (m *ModuleConfig) Column(id string) (ColumnDef, bool) {
	for _, c := range m.Columns {
		if c.ID == id {
			return c, true
		}
	}
	return ColumnDef{}, false
}

// FieldTypes maps every column id to its property type.
func (m *ModuleConfig) FieldTypes() map[string]PropertyType {
	types := make(map[string]PropertyType, len(m.Columns))
	for _, c := range m.Columns {
		types[c.ID] = c.Type
	}
	return types
}

func (m *ModuleConfig) ColumnIDs() []string {
	ids := make([]string, len(m.Columns))
	for i, c := range m.Columns {
		ids[i] = c.ID
	}
	return ids
}

// SearchableColumnIDs are the text columns matched by free-text search.
func (m *ModuleConfig) SearchableColumnIDs() []string {
	var ids []string
	for _, c := range m.Columns {
		if c.Type == PropertyText {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// PrimaryColumnID is the first declared column.
func (m *ModuleConfig) PrimaryColumnID() string {
	if len(m.Columns) == 0 {
		return ""
	}
	return m.Columns[0].ID
}

func (m *ModuleConfig) DefaultColumnState() ColumnState {
	ids := make([]string, 0, len(m.Columns))
	for i, c := range m.Columns {
		if i == 0 || !c.HiddenByDefault {
			ids = append(ids, c.ID)
		}
	}
	return ColumnState{VisibleColumnIDs: ids, FrozenCount: min(1, len(ids))}
}

// DefaultLayout is the layout used when no saved view is loaded.
func (m *ModuleConfig) DefaultLayout() ViewLayout {
	layout := ViewLayout{
		Filters:     FilterGroupSet{},
		ColumnState: m.DefaultColumnState(),
		ViewMode:    ViewModeTable,
	}
	if m.Board != nil {
		layout.BoardGroupByPropertyID = m.Board.DefaultGroupBy
	}
	return layout
}

// LayoutFor builds the layout of a default view.
func (m *ModuleConfig) LayoutFor(dv DefaultView) ViewLayout {
	layout := m.DefaultLayout()
	layout.Filters = dv.Filters.Clone()
	layout.SortState = dv.Sort
	if len(dv.Columns) > 0 {
		layout.ColumnState = ColumnState{VisibleColumnIDs: slices.Clone(dv.Columns), FrozenCount: 1}
	}
	if dv.ViewMode != "" {
		layout.ViewMode = dv.ViewMode
	}
	return layout
}

func (m *ModuleConfig) IsBulkAction(id string) bool {
	return slices.Contains(m.BulkActionIDs, id)
}

func (m *ModuleConfig) IsGroupable(propertyID string) bool {
	return m.Board != nil && slices.Contains(m.Board.GroupableByPropertyIDs, propertyID)
}

// ValidateLayout checks a layout against this module's columns and the limits.
func (m *ModuleConfig) ValidateLayout(layout ViewLayout, limits Limits) error {
	var result *multierror.Error

	if err := NewFilterEditor(m, limits).Validate(layout.Filters); err != nil {
		result = multierror.Append(result, err)
	}
	if err := layout.ColumnState.Validate(m.PrimaryColumnID()); err != nil {
		result = multierror.Append(result, err)
	}
	for _, id := range layout.ColumnState.VisibleColumnIDs {
		if _, ok := m.Column(id); !ok {
			result = multierror.Append(result, apperror.NewValidation(RuleUnknownColumn,
				fmt.Sprintf("unknown column %q", id)))
		}
	}
	if err := layout.SortState.Validate(m); err != nil {
		result = multierror.Append(result, err)
	}
	if !layout.ViewMode.IsValid() {
		result = multierror.Append(result, apperror.NewValidation(RuleInvalidView,
			fmt.Sprintf("invalid view mode %q", layout.ViewMode)))
	}
	if layout.BoardGroupByPropertyID != "" && !m.IsGroupable(layout.BoardGroupByPropertyID) {
		result = multierror.Append(result, apperror.NewValidation(RuleInvalidView,
			fmt.Sprintf("board cannot be grouped by %q", layout.BoardGroupByPropertyID)))
	}
	if layout.ViewMode == ViewModeBoard && m.Board == nil {
		result = multierror.Append(result, apperror.NewValidation(RuleInvalidView,
			fmt.Sprintf("%s has no board presentation", m.EntityType)))
	}

	if err := result.ErrorOrNil(); err != nil {
		return apperror.NewValidation(RuleInvalidView, err.Error()).WithCause(err)
	}
	return nil
}

// Validate checks the module configuration itself.
func (m *ModuleConfig) Validate(limits Limits) error {
	var result *multierror.Error

	if m.EntityType == "" {
		result = multierror.Append(result, fmt.Errorf("entity type cannot be empty"))
	}
	if len(m.Columns) == 0 {
		result = multierror.Append(result, fmt.Errorf("%s: at least one column is required", m.EntityType))
	}

	seen := make(map[string]bool)
	for _, c := range m.Columns {
		if c.ID == "" {
			result = multierror.Append(result, fmt.Errorf("%s: column id cannot be empty", m.EntityType))
			continue
		}
		if seen[c.ID] {
			result = multierror.Append(result, fmt.Errorf("%s: duplicate column %q", m.EntityType, c.ID))
		}
		seen[c.ID] = true
		if !c.Type.IsValid() {
			result = multierror.Append(result, fmt.Errorf("%s: column %q has unknown type %q", m.EntityType, c.ID, c.Type))
		}
		if c.MinWidth > 0 && c.Width > 0 && c.Width < c.MinWidth {
			result = multierror.Append(result, fmt.Errorf("%s: column %q is narrower than its minimum width", m.EntityType, c.ID))
		}
	}

	for _, id := range m.QuickFilterPropertyIDs {
		if p, ok := m.PropertyByID(id); !ok || !p.Filterable {
			result = multierror.Append(result, fmt.Errorf("%s: quick filter %q is not a filterable column", m.EntityType, id))
		}
	}

	if m.Board != nil {
		for _, id := range m.Board.GroupableByPropertyIDs {
			p, ok := m.PropertyByID(id)
			if !ok || !p.Filterable {
				result = multierror.Append(result, fmt.Errorf("%s: board axis %q is not a filterable column", m.EntityType, id))
			}
		}
		if m.Board.DefaultGroupBy != "" && !m.IsGroupable(m.Board.DefaultGroupBy) {
			result = multierror.Append(result, fmt.Errorf("%s: default board axis %q is not groupable", m.EntityType, m.Board.DefaultGroupBy))
		}
	}

	pinned := 0
	for _, dv := range m.DefaultViews {
		if dv.Pinned {
			pinned++
		}
		if err := m.ValidateLayout(m.LayoutFor(dv), limits); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: default view %q: %w", m.EntityType, dv.Name, err))
		}
	}
	if len(m.DefaultViews) > 0 && pinned == 0 {
		result = multierror.Append(result, fmt.Errorf("%s: at least one default view must be pinned", m.EntityType))
	}

	if err := result.ErrorOrNil(); err != nil {
		return apperror.NewValidation(RuleInvalidModule, err.Error()).WithCause(err)
	}
	return nil
}
