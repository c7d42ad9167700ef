package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"viewengine/internal/controller"
	"viewengine/internal/display"
	"viewengine/internal/domain"
	"viewengine/internal/query"
	"viewengine/internal/repository"
	"viewengine/internal/theme"
)

type viewMode int

const (
	listView viewMode = iota
	detailView
)

type uiMode int

const (
	normalMode uiMode = iota
	searchingMode
	filteringMode
	namingMode
	confirmingMode
	bulkPickingMode
	columnPickingMode
	quickFilterMode
)

type confirmDialog struct {
	message   string
	onConfirm func(m *Model) tea.Cmd
	active    bool
}

// boardLane holds the records of one group value. An empty value collects
// records without a value for the grouping property.
type boardLane struct {
	value   string
	title   string
	records []query.Record
}

type Config struct {
	Controller *controller.Controller
	Executor   repository.RecordExecutor
	Feed       *Feed
	Styles     *theme.Styles
	CountTTL   time.Duration
}

// Model renders one module page driven by a view controller. Every edit goes
// through the controller; records are fetched whenever it propagates.
type Model struct {
	ctl      *controller.Controller
	exec     repository.RecordExecutor
	feed     *Feed
	module   *domain.ModuleConfig
	countTTL time.Duration

	records    []query.Record
	total      int
	generation uint64
	state      domain.ViewRuntimeState
	dirty      bool
	views      []*domain.SavedView

	lanes      []boardLane
	laneCursor int
	cardCursor int

	table       table.Model
	searchInput textinput.Model
	filterInput textinput.Model
	nameInput   textinput.Model
	help        help.Model
	keys        keyMap

	viewMode       viewMode
	uiMode         uiMode
	selectedRecord query.Record
	bulkCursor     int
	pickerCursor   int
	confirm        confirmDialog

	notice   *controller.Notice
	err      error
	message  string
	width    int
	height   int
	showHelp bool
	loading  bool

	theme  *theme.Theme
	styles *theme.Styles

	ctx context.Context
}

func NewModel(ctx context.Context, cfg Config) Model {
	styles := cfg.Styles
	if styles == nil {
		styles = theme.NewStyles(theme.GetDefaultTheme())
	}
	themeObj := styles.Theme()
	if cfg.CountTTL <= 0 {
		cfg.CountTTL = 5 * time.Minute
	}

	t := table.New(
		table.WithRows([]table.Row{}),
		table.WithFocused(true),
		table.WithHeight(20),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(themeObj.BorderColor)).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color(themeObj.SelectedFg)).
		Background(lipgloss.Color(themeObj.SelectedBg)).
		Bold(true)
	t.SetStyles(s)

	si := textinput.New()
	si.Placeholder = "Search records..."
	si.CharLimit = 100
	si.Width = 50

	fi := textinput.New()
	fi.Placeholder = "status:OPEN priority:HIGH | assignee:none"
	fi.CharLimit = 500
	fi.Width = 80

	ni := textinput.New()
	ni.Placeholder = "View name"
	ni.CharLimit = 100
	ni.Width = 40

	m := Model{
		ctl:         cfg.Controller,
		exec:        cfg.Executor,
		feed:        cfg.Feed,
		module:      cfg.Controller.Module(),
		countTTL:    cfg.CountTTL,
		records:     []query.Record{},
		table:       t,
		searchInput: si,
		filterInput: fi,
		nameInput:   ni,
		help:        help.New(),
		keys:        defaultKeyMap(),
		viewMode:    listView,
		uiMode:      normalMode,
		width:       120,
		height:      30,
		theme:       themeObj,
		styles:      styles,
		ctx:         ctx,
	}
	m.syncFromController()
	m.rebuildColumns()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitForPropagation(m.ctx, m.feed),
		waitForNotice(m.ctx, m.feed),
	)
}

// syncFromController copies the controller's read-only props.
func (m *Model) syncFromController() {
	m.state = m.ctl.State()
	m.dirty = m.ctl.IsDirty()
	m.views = m.ctl.Views()
}

func (m *Model) isBoard() bool {
	return m.state.ViewMode == domain.ViewModeBoard && m.state.BoardGroupByPropertyID != ""
}

func cellWidth(col domain.ColumnDef) int {
	if col.Width <= 0 {
		return 14
	}
	return min(40, max(6, col.Width/8))
}

func (m *Model) rebuildColumns() {
	cols := m.ctl.VisibleColumns()
	columns := make([]table.Column, 0, len(cols)+1)
	columns = append(columns, table.Column{Title: " ", Width: 2})
	for _, c := range cols {
		columns = append(columns, table.Column{Title: c.Label(), Width: cellWidth(c)})
	}
	// rows must never be wider than the columns
	m.table.SetRows(nil)
	m.table.SetColumns(columns)
	m.rebuildRows()
}

func (m *Model) rebuildRows() {
	cols := m.ctl.VisibleColumns()
	rows := make([]table.Row, 0, len(m.records))
	for _, rec := range m.records {
		rows = append(rows, m.recordToRow(rec, cols))
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(0, len(rows)-1))
	}
	m.rebuildLanes()
}

func (m *Model) isSelected(id string) bool {
	_, ok := m.state.SelectedRowIDs[id]
	return ok
}

func (m *Model) recordToRow(rec query.Record, cols []domain.ColumnDef) table.Row {
	checkbox := "☐"
	if m.isSelected(rec.ID()) {
		checkbox = "☑"
	}
	row := make(table.Row, 0, len(cols)+1)
	row = append(row, checkbox)
	for _, c := range cols {
		row = append(row, display.Truncate(display.FormatValue(c.PropertyDescriptor, rec[c.ID]), cellWidth(c)))
	}
	return row
}

func groupValue(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case []any:
		if len(v) > 0 {
			return fmt.Sprint(v[0])
		}
		return ""
	case []string:
		if len(v) > 0 {
			return v[0]
		}
		return ""
	}
	return fmt.Sprint(raw)
}

func (m *Model) rebuildLanes() {
	m.lanes = nil
	if !m.isBoard() {
		return
	}
	prop, ok := m.module.PropertyByID(m.state.BoardGroupByPropertyID)
	if !ok {
		return
	}

	index := make(map[string]int)
	add := func(value, title string) {
		index[value] = len(m.lanes)
		m.lanes = append(m.lanes, boardLane{value: value, title: title})
	}
	for _, opt := range prop.Options {
		add(opt, opt)
	}
	for _, rec := range m.records {
		v := groupValue(rec[prop.ID])
		i, ok := index[v]
		if !ok {
			title := v
			if v == "" {
				title = "No " + prop.Label()
			}
			add(v, title)
			i = index[v]
		}
		m.lanes[i].records = append(m.lanes[i].records, rec)
	}

	m.laneCursor = min(m.laneCursor, max(0, len(m.lanes)-1))
	m.clampCard()
}

func (m *Model) clampCard() {
	if len(m.lanes) == 0 {
		m.cardCursor = 0
		return
	}
	n := len(m.lanes[m.laneCursor].records)
	m.cardCursor = min(m.cardCursor, max(0, n-1))
}

// currentRecord is the record under the cursor in table or board mode.
func (m *Model) currentRecord() query.Record {
	if m.isBoard() {
		if len(m.lanes) == 0 {
			return nil
		}
		lane := m.lanes[m.laneCursor]
		if m.cardCursor < len(lane.records) {
			return lane.records[m.cardCursor]
		}
		return nil
	}
	i := m.table.Cursor()
	if i >= 0 && i < len(m.records) {
		return m.records[i]
	}
	return nil
}

func (m *Model) activeIndex() int {
	active := m.ctl.ActiveView()
	if active == nil {
		return -1
	}
	for i, v := range m.views {
		if v.ID == active.ID {
			return i
		}
	}
	return -1
}

func (m *Model) totalPages() int {
	if m.state.PageSize <= 0 || m.total == 0 {
		return 1
	}
	return (m.total + m.state.PageSize - 1) / m.state.PageSize
}
