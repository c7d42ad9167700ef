package tui

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"viewengine/internal/controller"
	"viewengine/internal/domain"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetHeight(max(5, msg.Height-12))
		m.table.SetWidth(msg.Width)
		m.help.Width = msg.Width
		return m, nil

	case propagatedMsg:
		return m.handlePropagation(msg.p)

	case noticeMsg:
		n := msg.n
		m.notice = &n
		return m, waitForNotice(m.ctx, m.feed)

	case recordsLoadedMsg:
		// a newer propagation has superseded this fetch
		if msg.generation < m.generation {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.records = msg.result.Records
		m.total = msg.result.Total
		m.rebuildRows()
		return m, nil

	case viewAppliedMsg:
		m.handleResult(msg.err, "")
		return m, nil

	case viewSavedMsg:
		if msg.err == nil && msg.view != nil {
			m.handleResult(nil, fmt.Sprintf("✓ Saved view '%s'", msg.view.Name))
		} else {
			m.handleResult(msg.err, "")
		}
		return m, nil

	case viewDeletedMsg:
		m.handleResult(msg.err, "✓ View deleted")
		return m, nil

	case viewClonedMsg:
		if msg.err == nil && msg.view != nil {
			m.handleResult(nil, fmt.Sprintf("✓ Cloned as '%s'", msg.view.Name))
		} else {
			m.handleResult(msg.err, "")
		}
		return m, nil

	case viewMovedMsg:
		m.handleResult(msg.err, "")
		return m, nil

	case countRefreshedMsg:
		if msg.err == nil && msg.status.Count != nil {
			m.handleResult(nil, fmt.Sprintf("✓ %d matching records", *msg.status.Count))
		} else {
			m.handleResult(msg.err, "")
		}
		return m, nil

	case bulkDoneMsg:
		m.handleResult(msg.err, "")
		return m, nil

	case recordUpdatedMsg:
		m.handleResult(nil, "✓ Card moved")
		return m, nil

	case errMsg:
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handlePropagation(p controller.Propagation) (tea.Model, tea.Cmd) {
	if p.Generation < m.generation {
		return m, waitForPropagation(m.ctx, m.feed)
	}
	m.generation = p.Generation
	m.state = p.State
	m.dirty = p.Dirty
	m.views = m.ctl.Views()
	m.rebuildColumns()
	m.loading = true
	return m, tea.Batch(
		fetchRecordsCmd(m.ctx, m.exec, p.Generation, p.Request),
		waitForPropagation(m.ctx, m.feed),
	)
}

// handleResult records the outcome of a controller call and resyncs props.
func (m *Model) handleResult(err error, success string) {
	m.syncFromController()
	if err != nil {
		m.err = err
		m.message = ""
		return
	}
	m.err = nil
	if success != "" {
		m.message = success
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.uiMode {
	case searchingMode:
		return m.handleSearchInput(msg)
	case filteringMode:
		return m.handleFilterInput(msg)
	case namingMode:
		return m.handleNameInput(msg)
	case confirmingMode:
		return m.handleConfirm(msg)
	case bulkPickingMode:
		return m.handleBulkPicker(msg)
	case columnPickingMode:
		return m.handleColumnPicker(msg)
	case quickFilterMode:
		return m.handleQuickFilterPicker(msg)
	}

	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}
	if key.Matches(msg, m.keys.Help) {
		m.showHelp = !m.showHelp
		return m, nil
	}

	if m.viewMode == detailView {
		if key.Matches(msg, m.keys.Back) || key.Matches(msg, m.keys.Enter) {
			m.viewMode = listView
			m.selectedRecord = nil
		}
		return m, nil
	}

	m.message = ""
	m.notice = nil

	switch {
	case key.Matches(msg, m.keys.Search):
		m.uiMode = searchingMode
		m.searchInput.SetValue(m.state.SearchQuery)
		m.searchInput.Focus()
		return m, nil

	case key.Matches(msg, m.keys.Filter):
		m.uiMode = filteringMode
		m.filterInput.SetValue(m.ctl.FilterText())
		m.filterInput.Focus()
		return m, nil

	case key.Matches(msg, m.keys.ClearFilters):
		m.handleResult(m.ctl.ClearFilters(), "")
		return m, nil

	case key.Matches(msg, m.keys.SortColumn):
		m.handleResult(m.cycleSortColumn(), "")
		return m, nil

	case key.Matches(msg, m.keys.SortOrder):
		if m.state.SortState.IsSet() {
			m.handleResult(m.ctl.ToggleSort(m.state.SortState.ColumnID), "")
		}
		return m, nil

	case key.Matches(msg, m.keys.NextPage):
		if m.state.Page < m.totalPages() {
			m.handleResult(m.ctl.SetPage(m.state.Page+1), "")
		}
		return m, nil

	case key.Matches(msg, m.keys.PrevPage):
		if m.state.Page > 1 {
			m.handleResult(m.ctl.SetPage(m.state.Page-1), "")
		}
		return m, nil

	case key.Matches(msg, m.keys.PageSize):
		m.handleResult(m.ctl.SetPageSize(nextPageSize(m.state.PageSize)), "")
		return m, nil

	case key.Matches(msg, m.keys.Columns):
		m.uiMode = columnPickingMode
		m.pickerCursor = 0
		return m, nil

	case key.Matches(msg, m.keys.QuickFilters):
		if len(m.module.QuickFilterPropertyIDs) == 0 {
			m.err = errors.New("this module has no quick filters")
			return m, nil
		}
		m.uiMode = quickFilterMode
		m.pickerCursor = 0
		return m, nil

	case key.Matches(msg, m.keys.ToggleBoard):
		mode := domain.ViewModeBoard
		if m.state.ViewMode == domain.ViewModeBoard {
			mode = domain.ViewModeTable
		}
		m.handleResult(m.ctl.SetViewMode(mode), "")
		m.rebuildLanes()
		return m, nil

	case key.Matches(msg, m.keys.CycleGroupBy):
		m.handleResult(m.cycleGroupBy(), "")
		m.rebuildLanes()
		return m, nil

	case key.Matches(msg, m.keys.ToggleSelection):
		if rec := m.currentRecord(); rec != nil {
			m.ctl.ToggleRowSelection(rec.ID())
			m.syncFromController()
			m.rebuildRows()
		}
		return m, nil

	case key.Matches(msg, m.keys.SelectAll):
		ids := make([]string, 0, len(m.records))
		for _, rec := range m.records {
			ids = append(ids, rec.ID())
		}
		m.ctl.SelectAllOnPage(ids)
		m.syncFromController()
		m.rebuildRows()
		return m, nil

	case key.Matches(msg, m.keys.DeselectAll):
		m.ctl.ClearSelection()
		m.syncFromController()
		m.rebuildRows()
		return m, nil

	case key.Matches(msg, m.keys.BulkAction):
		if len(m.module.BulkActionIDs) == 0 {
			m.err = errors.New("this module has no bulk actions")
			return m, nil
		}
		if len(m.state.SelectedRowIDs) == 0 {
			m.err = errors.New("select records first")
			return m, nil
		}
		m.uiMode = bulkPickingMode
		m.bulkCursor = 0
		return m, nil

	case key.Matches(msg, m.keys.NextView):
		return m, m.switchView(m.activeIndex() + 1)

	case key.Matches(msg, m.keys.PrevView):
		return m, m.switchView(m.activeIndex() - 1)

	case key.Matches(msg, m.keys.QuickAccess):
		n := int(msg.String()[0] - '0')
		if n >= 1 && n <= len(m.views) {
			return m, applyViewCmd(m.ctx, m.ctl, m.views[n-1].ID)
		}
		return m, nil

	case key.Matches(msg, m.keys.MoveViewLeft), key.Matches(msg, m.keys.MoveViewRight):
		i := m.activeIndex()
		if i < 0 {
			return m, nil
		}
		to := i + 1
		if key.Matches(msg, m.keys.MoveViewLeft) {
			to = i - 1
		}
		if to < 0 {
			return m, nil
		}
		cmd := moveViewCmd(m.ctx, m.ctl, m.views[i].ID, to)
		m.views = m.ctl.Views()
		return m, cmd

	case key.Matches(msg, m.keys.SaveView):
		return m, saveViewCmd(m.ctx, m.ctl)

	case key.Matches(msg, m.keys.SaveViewAs):
		m.uiMode = namingMode
		m.nameInput.SetValue("")
		m.nameInput.Focus()
		return m, nil

	case key.Matches(msg, m.keys.CloneView):
		if active := m.ctl.ActiveView(); active != nil {
			return m, cloneViewCmd(m.ctx, m.ctl, active.ID)
		}
		return m, nil

	case key.Matches(msg, m.keys.DeleteView):
		active := m.ctl.ActiveView()
		if active == nil {
			return m, nil
		}
		id := active.ID
		m.uiMode = confirmingMode
		m.confirm = confirmDialog{
			message: fmt.Sprintf("Delete view '%s'? (y/n)", active.Name),
			active:  true,
			onConfirm: func(m *Model) tea.Cmd {
				return deleteViewCmd(m.ctx, m.ctl, id)
			},
		}
		return m, nil

	case key.Matches(msg, m.keys.Discard):
		m.handleResult(m.ctl.DiscardChanges(), "")
		return m, nil

	case key.Matches(msg, m.keys.RefreshCount):
		if active := m.ctl.ActiveView(); active != nil {
			return m, refreshCountCmd(m.ctx, m.ctl, active.ID)
		}
		return m, nil

	case key.Matches(msg, m.keys.Enter):
		if rec := m.currentRecord(); rec != nil {
			m.ctl.OnRowClick(rec.ID())
			m.selectedRecord = rec
			m.viewMode = detailView
		}
		return m, nil
	}

	if m.isBoard() {
		return m.handleBoardKey(msg)
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) handleBoardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if len(m.lanes) == 0 {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Left):
		if m.laneCursor > 0 {
			m.laneCursor--
			m.clampCard()
		}
	case key.Matches(msg, m.keys.Right):
		if m.laneCursor < len(m.lanes)-1 {
			m.laneCursor++
			m.clampCard()
		}
	case key.Matches(msg, m.keys.Up):
		if m.cardCursor > 0 {
			m.cardCursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cardCursor < len(m.lanes[m.laneCursor].records)-1 {
			m.cardCursor++
		}
	case key.Matches(msg, m.keys.DropLeft), key.Matches(msg, m.keys.DropRight):
		target := m.laneCursor + 1
		if key.Matches(msg, m.keys.DropLeft) {
			target = m.laneCursor - 1
		}
		rec := m.currentRecord()
		if rec == nil || target < 0 || target >= len(m.lanes) || m.lanes[target].value == "" {
			return m, nil
		}
		m.laneCursor = target
		return m, statusDropCmd(m.ctx, m.ctl, rec.ID(), m.lanes[target].value)
	}
	return m, nil
}

func (m *Model) switchView(i int) tea.Cmd {
	if len(m.views) == 0 {
		return nil
	}
	i = (i + len(m.views)) % len(m.views)
	return applyViewCmd(m.ctx, m.ctl, m.views[i].ID)
}

// cycleSortColumn sorts ascending by the next sortable visible column, and
// clears the sort after the last one.
func (m *Model) cycleSortColumn() error {
	var sortable []string
	for _, c := range m.ctl.VisibleColumns() {
		if c.Sortable {
			sortable = append(sortable, c.ID)
		}
	}
	if len(sortable) == 0 {
		return nil
	}
	next := sortable[0]
	if i := slices.Index(sortable, m.state.SortState.ColumnID); i >= 0 {
		if i == len(sortable)-1 {
			return m.ctl.ClearSort()
		}
		next = sortable[i+1]
	}
	return m.ctl.SetSort(next, domain.SortAsc)
}

func (m *Model) cycleGroupBy() error {
	if m.module.Board == nil || len(m.module.Board.GroupableByPropertyIDs) == 0 {
		return errors.New("this module has no board")
	}
	ids := m.module.Board.GroupableByPropertyIDs
	next := ids[0]
	if i := slices.Index(ids, m.state.BoardGroupByPropertyID); i >= 0 {
		next = ids[(i+1)%len(ids)]
	}
	m.laneCursor, m.cardCursor = 0, 0
	return m.ctl.SetBoardGroupBy(next)
}

func (m Model) handleSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.uiMode = normalMode
		m.searchInput.Blur()
		m.handleResult(m.ctl.SetSearchQuery(m.searchInput.Value()), "")
		return m, nil
	case "esc":
		m.uiMode = normalMode
		m.searchInput.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m Model) handleFilterInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if err := m.ctl.SetFilterText(m.filterInput.Value()); err != nil {
			// keep the input open so the text can be fixed
			m.err = err
			return m, nil
		}
		m.uiMode = normalMode
		m.filterInput.Blur()
		m.handleResult(nil, "")
		return m, nil
	case "esc":
		m.uiMode = normalMode
		m.filterInput.Blur()
		m.err = nil
		return m, nil
	}
	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	return m, cmd
}

func (m Model) handleNameInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		name := strings.TrimSpace(m.nameInput.Value())
		if name == "" {
			return m, nil
		}
		m.uiMode = normalMode
		m.nameInput.Blur()
		return m, saveViewAsCmd(m.ctx, m.ctl, name)
	case "esc":
		m.uiMode = normalMode
		m.nameInput.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(msg)
	return m, cmd
}

func (m Model) handleConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.uiMode = normalMode
		onConfirm := m.confirm.onConfirm
		m.confirm = confirmDialog{}
		if onConfirm != nil {
			return m, onConfirm(&m)
		}
	case "n", "N", "esc":
		m.uiMode = normalMode
		m.confirm = confirmDialog{}
	}
	return m, nil
}

func (m Model) handleBulkPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	actions := m.module.BulkActionIDs
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.bulkCursor > 0 {
			m.bulkCursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.bulkCursor < len(actions)-1 {
			m.bulkCursor++
		}
	case key.Matches(msg, m.keys.Enter):
		m.uiMode = normalMode
		return m, bulkActionCmd(m.ctx, m.ctl, actions[m.bulkCursor])
	case key.Matches(msg, m.keys.Back):
		m.uiMode = normalMode
	}
	return m, nil
}
