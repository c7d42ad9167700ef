package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"viewengine/internal/domain"
)

var pageSizes = []int{10, 25, 50, 100}

// nextPageSize steps through pageSizes, wrapping to the smallest.
func nextPageSize(current int) int {
	for _, n := range pageSizes {
		if n > current {
			return n
		}
	}
	return pageSizes[0]
}

// pickerColumns lists the visible columns in order, then the hidden ones in
// module order.
func (m Model) pickerColumns() []domain.ColumnDef {
	visible := m.state.ColumnState.VisibleColumnIDs
	out := make([]domain.ColumnDef, 0, len(m.module.Columns))
	for _, id := range visible {
		if c, ok := m.module.Column(id); ok {
			out = append(out, c)
		}
	}
	for _, c := range m.module.Columns {
		if !slices.Contains(visible, c.ID) {
			out = append(out, c)
		}
	}
	return out
}

func (m Model) handleColumnPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cols := m.pickerColumns()
	if len(cols) == 0 {
		m.uiMode = normalMode
		return m, nil
	}
	m.pickerCursor = min(m.pickerCursor, len(cols)-1)
	col := cols[m.pickerCursor]
	pos := slices.Index(m.state.ColumnState.VisibleColumnIDs, col.ID)

	var err error
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.pickerCursor > 0 {
			m.pickerCursor--
		}
		return m, nil
	case key.Matches(msg, m.keys.Down):
		if m.pickerCursor < len(cols)-1 {
			m.pickerCursor++
		}
		return m, nil
	case key.Matches(msg, m.keys.ToggleSelection):
		if pos >= 0 {
			err = m.ctl.HideColumn(col.ID)
		} else {
			err = m.ctl.ShowColumn(col.ID)
		}
	case key.Matches(msg, m.keys.MoveUp):
		if pos <= 0 {
			return m, nil
		}
		if err = m.ctl.MoveColumnID(col.ID, pos-1); err == nil {
			m.pickerCursor--
		}
	case key.Matches(msg, m.keys.MoveDown):
		if pos < 0 || pos >= len(m.state.ColumnState.VisibleColumnIDs)-1 {
			return m, nil
		}
		if err = m.ctl.MoveColumnID(col.ID, pos+1); err == nil {
			m.pickerCursor++
		}
	case key.Matches(msg, m.keys.FreezeMore):
		err = m.ctl.SetFrozenCount(m.state.ColumnState.FrozenCount + 1)
	case key.Matches(msg, m.keys.FreezeLess):
		err = m.ctl.SetFrozenCount(m.state.ColumnState.FrozenCount - 1)
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Enter):
		m.uiMode = normalMode
		return m, nil
	default:
		return m, nil
	}

	m.handleResult(err, "")
	m.rebuildColumns()
	return m, nil
}

// nextQuickValue cycles a quick filter through its options (or true and
// false), ending on the zero value which clears it.
func nextQuickValue(prop domain.PropertyDescriptor, current domain.FilterValue) (domain.FilterValue, bool) {
	switch {
	case prop.Type == domain.PropertyBoolean:
		switch {
		case current.IsZero():
			return domain.BoolValue(true), true
		case current.Bool:
			return domain.BoolValue(false), true
		}
		return domain.FilterValue{}, true
	case prop.Type.IsChoice() && len(prop.Options) > 0:
		i := 0
		if !current.IsZero() && len(current.List) == 1 {
			i = slices.Index(prop.Options, current.List[0]) + 1
		}
		if i >= len(prop.Options) {
			return domain.FilterValue{}, true
		}
		return domain.ListValue(prop.Options[i]), true
	}
	return domain.FilterValue{}, false
}

func (m Model) handleQuickFilterPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ids := m.module.QuickFilterPropertyIDs
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.pickerCursor > 0 {
			m.pickerCursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.pickerCursor < len(ids)-1 {
			m.pickerCursor++
		}
	case key.Matches(msg, m.keys.Enter), key.Matches(msg, m.keys.ToggleSelection):
		id := ids[m.pickerCursor]
		prop, _ := m.module.PropertyByID(id)
		next, ok := nextQuickValue(prop, m.state.QuickFilters[id])
		if !ok {
			m.err = fmt.Errorf("%s cannot be cycled here; use f to filter it", prop.Label())
			return m, nil
		}
		m.handleResult(m.ctl.SetQuickFilter(id, next), "")
	case key.Matches(msg, m.keys.ClearFilters):
		m.handleResult(m.ctl.ClearQuickFilters(), "")
	case key.Matches(msg, m.keys.Back):
		m.uiMode = normalMode
	}
	return m, nil
}

func (m Model) renderColumnPicker() string {
	lines := []string{m.styles.Subtitle.Render(fmt.Sprintf(
		"Columns (%d frozen)  space show/hide  K/J move  +/- freeze  esc done",
		m.state.ColumnState.FrozenCount))}
	visible := m.state.ColumnState.VisibleColumnIDs
	for i, c := range m.pickerColumns() {
		mark := "☐"
		if pos := slices.Index(visible, c.ID); pos >= 0 {
			mark = "☑"
			if pos < m.state.ColumnState.FrozenCount {
				mark += "❄"
			}
		}
		line := fmt.Sprintf("%s %s", mark, c.Label())
		if i == m.pickerCursor {
			lines = append(lines, m.styles.CardSelected.Render("> "+line))
			continue
		}
		lines = append(lines, "  "+line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderQuickFilterPicker() string {
	lines := []string{m.styles.Subtitle.Render("Quick filters  enter cycle  F clear all  esc done")}
	for i, id := range m.module.QuickFilterPropertyIDs {
		prop, _ := m.module.PropertyByID(id)
		value := "any"
		if v, ok := m.state.QuickFilters[id]; ok && !v.IsZero() {
			value = v.String()
		}
		line := fmt.Sprintf("%s: %s", prop.Label(), value)
		if i == m.pickerCursor {
			lines = append(lines, m.styles.CardSelected.Render("> "+line))
			continue
		}
		lines = append(lines, "  "+line)
	}
	return strings.Join(lines, "\n")
}
