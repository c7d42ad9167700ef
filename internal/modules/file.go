package modules

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"viewengine/internal/domain"
	"viewengine/internal/query"
)

// on-disk module configuration
type fileConfig struct {
	EntityType   string              `yaml:"entity_type"`
	DisplayName  string              `yaml:"display_name"`
	Columns      []domain.ColumnDef  `yaml:"columns"`
	QuickFilters []string            `yaml:"quick_filters"`
	BulkActions  []string            `yaml:"bulk_actions"`
	Board        *domain.BoardConfig `yaml:"board,omitempty"`
	DefaultViews []fileDefaultView   `yaml:"default_views"`
}

type fileDefaultView struct {
	Name     string   `yaml:"name"`
	Where    string   `yaml:"where,omitempty"`
	Sort     string   `yaml:"sort,omitempty"`
	Columns  []string `yaml:"columns,omitempty"`
	ViewMode string   `yaml:"view_mode,omitempty"`
	Pinned   bool     `yaml:"pinned,omitempty"`
}

// Parse decodes and validates one module configuration. Default view filters
// are written in the filter text syntax and built through the filter editor.
func Parse(data []byte, limits domain.Limits, now func() time.Time) (*domain.ModuleConfig, error) {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse module config: %w", err)
	}

	m := &domain.ModuleConfig{
		EntityType:             strings.TrimSpace(fc.EntityType),
		DisplayName:            fc.DisplayName,
		Columns:                fc.Columns,
		QuickFilterPropertyIDs: fc.QuickFilters,
		BulkActionIDs:          fc.BulkActions,
		Board:                  fc.Board,
	}
	if m.DisplayName == "" {
		m.DisplayName = m.EntityType
	}

	cc := &query.ConverterContext{
		Schema: m,
		Editor: domain.NewFilterEditor(m, limits),
		Now:    now,
	}

	for _, fv := range fc.DefaultViews {
		dv, err := fv.toDefaultView(cc)
		if err != nil {
			return nil, fmt.Errorf("%s: default view %q: %w", m.EntityType, fv.Name, err)
		}
		m.DefaultViews = append(m.DefaultViews, dv)
	}

	if err := m.Validate(limits); err != nil {
		return nil, err
	}
	return m, nil
}

func (fv fileDefaultView) toDefaultView(cc *query.ConverterContext) (domain.DefaultView, error) {
	dv := domain.DefaultView{
		Name:    fv.Name,
		Filters: domain.FilterGroupSet{},
		Columns: fv.Columns,
		Pinned:  fv.Pinned,
	}

	if strings.TrimSpace(fv.Where) != "" {
		filters, err := query.ParseFilterGroupSet(fv.Where, cc)
		if err != nil {
			return dv, err
		}
		dv.Filters = filters
	}

	if fv.Sort != "" {
		sort, err := ParseSort(fv.Sort)
		if err != nil {
			return dv, err
		}
		dv.Sort = sort
	}

	if fv.ViewMode != "" {
		dv.ViewMode = domain.ViewMode(fv.ViewMode)
		if !dv.ViewMode.IsValid() {
			return dv, fmt.Errorf("invalid view mode %q", fv.ViewMode)
		}
	}
	return dv, nil
}

// ParseSort reads "column [asc|desc]".
func ParseSort(s string) (domain.SortState, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 || len(fields) > 2 {
		return domain.SortState{}, fmt.Errorf("invalid sort %q: expected \"column [asc|desc]\"", s)
	}
	dir := domain.SortAsc
	if len(fields) == 2 {
		var err error
		if dir, err = domain.ParseSortDirection(fields[1]); err != nil {
			return domain.SortState{}, err
		}
	}
	return domain.SortState{ColumnID: fields[0], Direction: dir}, nil
}
