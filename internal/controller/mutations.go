package controller

import (
	"fmt"
	"slices"
	"strings"

	"viewengine/internal/apperror"
	"viewengine/internal/domain"
	"viewengine/internal/query"
)

// mutate applies fn to a copy of the state and commits it only if fn succeeds,
// so a rejected mutation leaves the state unchanged. Committed changes are
// propagated after the debounce window.
func (c *Controller) mutate(fn func(s *domain.ViewRuntimeState) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireReadyLocked(); err != nil {
		return err
	}
	next := c.state.Clone()
	if err := fn(&next); err != nil {
		return err
	}
	c.state = next
	c.scheduleLocked()
	return nil
}

func (c *Controller) mutateFilters(fn func(domain.FilterGroupSet) (domain.FilterGroupSet, error)) error {
	return c.mutate(func(s *domain.ViewRuntimeState) error {
		set, err := fn(s.Filters)
		if err != nil {
			return err
		}
		s.Filters = set
		s.Page = 1
		return nil
	})
}

// Filters

func (c *Controller) AddGroup() (string, error) {
	var id string
	err := c.mutateFilters(func(set domain.FilterGroupSet) (domain.FilterGroupSet, error) {
		out, gid, err := c.editor.AddGroup(set)
		id = gid
		return out, err
	})
	return id, err
}

func (c *Controller) AddCondition(groupID string) (string, error) {
	var id string
	err := c.mutateFilters(func(set domain.FilterGroupSet) (domain.FilterGroupSet, error) {
		out, cid, err := c.editor.AddCondition(set, groupID)
		id = cid
		return out, err
	})
	return id, err
}

func (c *Controller) UpdateCondition(groupID, conditionID string, patch domain.ConditionPatch) error {
	return c.mutateFilters(func(set domain.FilterGroupSet) (domain.FilterGroupSet, error) {
		return c.editor.UpdateCondition(set, groupID, conditionID, patch)
	})
}

func (c *Controller) RemoveCondition(groupID, conditionID string) error {
	return c.mutateFilters(func(set domain.FilterGroupSet) (domain.FilterGroupSet, error) {
		return c.editor.RemoveCondition(set, groupID, conditionID)
	})
}

func (c *Controller) RemoveGroup(groupID string) error {
	return c.mutateFilters(func(set domain.FilterGroupSet) (domain.FilterGroupSet, error) {
		return c.editor.RemoveGroup(set, groupID)
	})
}

func (c *Controller) DuplicateGroup(groupID string) (string, error) {
	var id string
	err := c.mutateFilters(func(set domain.FilterGroupSet) (domain.FilterGroupSet, error) {
		out, gid, err := c.editor.DuplicateGroup(set, groupID)
		id = gid
		return out, err
	})
	return id, err
}

// SetFilters replaces the whole filter set after validating it.
func (c *Controller) SetFilters(set domain.FilterGroupSet) error {
	return c.mutateFilters(func(domain.FilterGroupSet) (domain.FilterGroupSet, error) {
		if err := c.editor.Validate(set); err != nil {
			return nil, err
		}
		return set.Clone(), nil
	})
}

func (c *Controller) ClearFilters() error {
	return c.mutateFilters(func(domain.FilterGroupSet) (domain.FilterGroupSet, error) {
		return domain.FilterGroupSet{}, nil
	})
}

// SetFilterText replaces the filters with the parsed form of a filter
// expression such as "status:OPEN priority>2 | assignee:none".
func (c *Controller) SetFilterText(text string) error {
	cc := &query.ConverterContext{Schema: c.module, Editor: c.editor, Now: c.clock.Now}
	set, err := query.ParseFilterGroupSet(text, cc)
	if err != nil {
		return err
	}
	return c.SetFilters(set)
}

// FilterText formats the live filters as a filter expression.
func (c *Controller) FilterText() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return query.FormatFilterGroupSet(c.state.Filters, c.module)
}

// Columns

func (c *Controller) ShowColumn(id string) error {
	if _, ok := c.module.Column(id); !ok {
		return apperror.NewValidation(domain.RuleUnknownColumn, fmt.Sprintf("unknown column %q", id))
	}
	return c.mutate(func(s *domain.ViewRuntimeState) error {
		s.ColumnState = s.ColumnState.Show(id)
		return nil
	})
}

func (c *Controller) HideColumn(id string) error {
	return c.mutate(func(s *domain.ViewRuntimeState) error {
		cols, err := s.ColumnState.Hide(id)
		if err != nil {
			return err
		}
		s.ColumnState = cols
		return nil
	})
}

func (c *Controller) MoveColumn(from, to int) error {
	return c.mutate(func(s *domain.ViewRuntimeState) error {
		cols, err := s.ColumnState.Move(from, to)
		if err != nil {
			return err
		}
		s.ColumnState = cols
		return nil
	})
}

func (c *Controller) MoveColumnID(id string, to int) error {
	return c.mutate(func(s *domain.ViewRuntimeState) error {
		from := slices.Index(s.ColumnState.VisibleColumnIDs, id)
		if from < 0 {
			return apperror.NewValidation(domain.RuleUnknownColumn, fmt.Sprintf("column %q is not visible", id))
		}
		cols, err := s.ColumnState.Move(from, to)
		if err != nil {
			return err
		}
		s.ColumnState = cols
		return nil
	})
}

func (c *Controller) SetFrozenCount(n int) error {
	return c.mutate(func(s *domain.ViewRuntimeState) error {
		cols, err := s.ColumnState.SetFrozen(n)
		if err != nil {
			return err
		}
		s.ColumnState = cols
		return nil
	})
}

// Sort

func (c *Controller) SetSort(columnID string, dir domain.SortDirection) error {
	sort := domain.SortState{ColumnID: columnID, Direction: dir}
	if sort.Direction == "" {
		sort.Direction = domain.SortAsc
	}
	if err := sort.Validate(c.module); err != nil {
		return err
	}
	return c.mutate(func(s *domain.ViewRuntimeState) error {
		s.SortState = sort
		s.Page = 1
		return nil
	})
}

// ToggleSort cycles a column header through ascending, descending and
// unsorted.
func (c *Controller) ToggleSort(columnID string) error {
	prop, ok := c.module.PropertyByID(columnID)
	if !ok {
		return apperror.NewValidation(domain.RuleUnknownColumn, fmt.Sprintf("unknown sort column %q", columnID))
	}
	if !prop.Sortable {
		return apperror.NewValidation(domain.RuleUnsortableColumn, fmt.Sprintf("column %q is not sortable", prop.Label()))
	}
	return c.mutate(func(s *domain.ViewRuntimeState) error {
		switch {
		case s.SortState.ColumnID != columnID:
			s.SortState = domain.SortState{ColumnID: columnID, Direction: domain.SortAsc}
		case s.SortState.Direction == domain.SortDesc:
			s.SortState = domain.SortState{}
		default:
			s.SortState.Direction = domain.SortDesc
		}
		s.Page = 1
		return nil
	})
}

func (c *Controller) ClearSort() error {
	return c.mutate(func(s *domain.ViewRuntimeState) error {
		s.SortState = domain.SortState{}
		s.Page = 1
		return nil
	})
}

// Presentation

func (c *Controller) SetViewMode(mode domain.ViewMode) error {
	if !mode.IsValid() {
		return apperror.NewValidation(domain.RuleInvalidView, fmt.Sprintf("invalid view mode %q", mode))
	}
	if mode == domain.ViewModeBoard && c.module.Board == nil {
		return apperror.NewValidation(domain.RuleInvalidView, fmt.Sprintf("%s has no board presentation", c.module.DisplayName))
	}
	return c.mutate(func(s *domain.ViewRuntimeState) error {
		s.ViewMode = mode
		if mode == domain.ViewModeBoard && s.BoardGroupByPropertyID == "" {
			s.BoardGroupByPropertyID = c.module.Board.DefaultGroupBy
		}
		return nil
	})
}

func (c *Controller) SetBoardGroupBy(propertyID string) error {
	if !c.module.IsGroupable(propertyID) {
		return apperror.NewValidation(domain.RuleInvalidView, fmt.Sprintf("board cannot be grouped by %q", propertyID))
	}
	return c.mutate(func(s *domain.ViewRuntimeState) error {
		s.BoardGroupByPropertyID = propertyID
		return nil
	})
}

// Search and quick filters

func (c *Controller) SetSearchQuery(q string) error {
	q = strings.TrimSpace(q)
	return c.mutate(func(s *domain.ViewRuntimeState) error {
		if s.SearchQuery == q {
			return nil
		}
		s.SearchQuery = q
		s.Page = 1
		return nil
	})
}

// SetQuickFilter sets the value of one quick filter. A zero value clears it.
func (c *Controller) SetQuickFilter(propertyID string, value domain.FilterValue) error {
	if !slices.Contains(c.module.QuickFilterPropertyIDs, propertyID) {
		return apperror.NewValidation("not_quick_filter", fmt.Sprintf("%q is not a quick filter", propertyID))
	}
	prop, _ := c.module.PropertyByID(propertyID)
	if !value.IsZero() && !quickValueFits(prop, value) {
		return apperror.NewValidation(domain.RuleValueKind,
			fmt.Sprintf("a %s value cannot filter %s", value.Kind, prop.Label()))
	}
	return c.mutate(func(s *domain.ViewRuntimeState) error {
		if value.IsZero() {
			delete(s.QuickFilters, propertyID)
		} else {
			s.QuickFilters[propertyID] = value.Clone()
		}
		s.Page = 1
		return nil
	})
}

func quickValueFits(prop domain.PropertyDescriptor, v domain.FilterValue) bool {
	switch {
	case prop.Type.IsChoice():
		return v.Kind == domain.ValueList
	case prop.Type == domain.PropertyBoolean:
		return v.Kind == domain.ValueBool
	case prop.Type == domain.PropertyNumber:
		return v.Kind == domain.ValueNumber
	case prop.Type == domain.PropertyDate:
		return v.Kind == domain.ValueDate
	}
	return v.Kind == domain.ValueText
}

func (c *Controller) ClearQuickFilters() error {
	return c.mutate(func(s *domain.ViewRuntimeState) error {
		clear(s.QuickFilters)
		s.Page = 1
		return nil
	})
}

// Pagination

func (c *Controller) SetPage(page int) error {
	if page < 1 {
		return apperror.NewValidation("page", fmt.Sprintf("page must be at least 1, got %d", page))
	}
	return c.mutate(func(s *domain.ViewRuntimeState) error {
		s.Page = page
		return nil
	})
}

func (c *Controller) SetPageSize(size int) error {
	if size < 1 || size > c.cfg.Limits.MaxPageSize {
		return apperror.NewValidation("page_size",
			fmt.Sprintf("page size must be between 1 and %d, got %d", c.cfg.Limits.MaxPageSize, size))
	}
	return c.mutate(func(s *domain.ViewRuntimeState) error {
		s.PageSize = size
		s.Page = 1
		return nil
	})
}

// DiscardChanges restores the loaded view's layout.
func (c *Controller) DiscardChanges() error {
	return c.mutate(func(s *domain.ViewRuntimeState) error {
		s.ViewLayout = c.baselineLocked().Clone()
		s.Page = 1
		return nil
	})
}

// Selection. Selection is not part of the query, so it is not propagated.

func (c *Controller) ToggleRowSelection(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.state.SelectedRowIDs[id]; ok {
		delete(c.state.SelectedRowIDs, id)
		return
	}
	c.state.SelectedRowIDs[id] = struct{}{}
}

// SelectAllOnPage adds every id of the current page to the selection.
func (c *Controller) SelectAllOnPage(ids []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		c.state.SelectedRowIDs[id] = struct{}{}
	}
}

func (c *Controller) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.state.SelectedRowIDs)
}

func (c *Controller) SelectedIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.SelectedIDs()
}
