package tui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viewengine/internal/apperror"
	"viewengine/internal/controller"
	"viewengine/internal/domain"
	"viewengine/internal/executor"
	"viewengine/internal/gateway"
	"viewengine/internal/query"
	"viewengine/internal/repository/sqlite"
	"viewengine/internal/urlstate"
)

type moduleMap map[string]*domain.ModuleConfig

func (m moduleMap) Get(entityType string) (*domain.ModuleConfig, error) {
	if mod, ok := m[entityType]; ok {
		return mod, nil
	}
	return nil, apperror.NewNotFound("module", entityType)
}

func testModule() *domain.ModuleConfig {
	return &domain.ModuleConfig{
		EntityType:  "cases",
		DisplayName: "Cases",
		Columns: []domain.ColumnDef{
			{PropertyDescriptor: domain.PropertyDescriptor{ID: "title", Type: domain.PropertyText, Sortable: true, Filterable: true}},
			{PropertyDescriptor: domain.PropertyDescriptor{ID: "status", Type: domain.PropertyStatus, Sortable: true, Filterable: true, Options: []string{"OPEN", "CLOSED"}}},
		},
		BulkActionIDs:          []string{"close"},
		QuickFilterPropertyIDs: []string{"status"},
		Board:                  &domain.BoardConfig{GroupableByPropertyIDs: []string{"status"}, DefaultGroupBy: "status"},
		DefaultViews: []domain.DefaultView{
			{Name: "All", Pinned: true},
			{Name: "Open", Filters: domain.FilterGroupSet{{ID: "g", Conditions: []domain.FilterCondition{
				{ID: "c", PropertyID: "status", Operator: domain.OpIsAnyOf, Value: domain.ListValue("OPEN").Ptr()},
			}}}},
		},
	}
}

type fixture struct {
	ctl   *controller.Controller
	exec  *executor.Memory
	feed  *Feed
	clock *clock.Mock
	model Model
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.NewDB(sqlite.Config{Path: filepath.Join(t.TempDir(), "tui.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	module := testModule()
	mock := clock.NewMock()
	mock.Set(time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC))

	ex := executor.NewMemory(module, []query.Record{
		{"id": "1", "title": "Broken laptop", "status": "OPEN"},
		{"id": "2", "title": "Lost badge", "status": "CLOSED"},
		{"id": "3", "title": "Printer jam", "status": "OPEN"},
	})
	cfg := gateway.DefaultConfig()
	cfg.RefreshPerSecond = 0
	gw, err := gateway.New(sqlite.NewViewRepository(db), moduleMap{"cases": module},
		gateway.Executors{"cases": ex}, cfg, gateway.WithClock(mock))
	require.NoError(t, err)
	_, err = gw.EnsureDefaults(ctx, "alice", "cases")
	require.NoError(t, err)

	feed := NewFeed()
	ctl, err := controller.New(controller.Config{
		Requester:   "alice",
		Module:      module,
		Gateway:     gw,
		Limits:      domain.DefaultLimits(),
		Clock:       mock,
		OnPropagate: feed.Publish,
		OnNotice:    feed.Notify,
		OnStatusDrop: func(ctx context.Context, recordID, propertyID, value string) error {
			return ex.SetField(ctx, recordID, propertyID, value)
		},
	})
	require.NoError(t, err)
	t.Cleanup(ctl.Close)
	require.NoError(t, ctl.Hydrate(ctx, urlstate.Params{}))

	return &fixture{
		ctl:   ctl,
		exec:  ex,
		feed:  feed,
		clock: mock,
		model: NewModel(ctx, Config{Controller: ctl, Executor: ex, Feed: feed}),
	}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// loaded delivers the hydration propagation and the record fetch it triggers.
func loaded(t *testing.T, f *fixture) Model {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	p, ok := f.feed.Next(ctx)
	require.True(t, ok)
	m, _ := update(t, f.model, propagatedMsg{p: p})
	assert.True(t, m.loading)

	msg := fetchRecordsCmd(ctx, f.exec, p.Generation, p.Request)()
	m, _ = update(t, m, msg)
	return m
}

func TestFeedCoalescesPropagations(t *testing.T) {
	feed := NewFeed()
	feed.Publish(controller.Propagation{Generation: 1})
	feed.Publish(controller.Propagation{Generation: 3})
	feed.Publish(controller.Propagation{Generation: 2})

	ctx, cancel := context.WithCancel(context.Background())
	p, ok := feed.Next(ctx)
	require.True(t, ok)
	assert.Equal(t, uint64(3), p.Generation)

	cancel()
	_, ok = feed.Next(ctx)
	assert.False(t, ok)
}

func TestFeedDropsNoticesWhenFull(t *testing.T) {
	feed := NewFeed()
	for range 20 {
		feed.Notify(controller.Notice{Message: "x"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	n := 0
	for {
		if _, ok := feed.NextNotice(ctx); !ok {
			break
		}
		n++
	}
	assert.Equal(t, 16, n)
}

func TestPropagationLoadsRecords(t *testing.T) {
	f := newFixture(t)
	m := loaded(t, f)

	assert.False(t, m.loading)
	assert.Equal(t, 3, m.total)
	assert.Len(t, m.records, 3)
	assert.Len(t, m.table.Rows(), 3)
	assert.Equal(t, "☐", m.table.Rows()[0][0])
	assert.Contains(t, m.View(), "Broken laptop")
}

func TestStaleFetchIsIgnored(t *testing.T) {
	f := newFixture(t)
	m := loaded(t, f)
	m.generation = 5

	m, _ = update(t, m, recordsLoadedMsg{generation: 4, result: query.Result{}})
	assert.Len(t, m.records, 3)

	m, _ = update(t, m, recordsLoadedMsg{generation: 5, result: query.Result{Records: m.records[:1], Total: 1}})
	assert.Len(t, m.records, 1)
	assert.Equal(t, 1, m.total)
}

func TestBoardToggleBuildsLanes(t *testing.T) {
	f := newFixture(t)
	m := loaded(t, f)

	m, _ = update(t, m, runes("b"))
	require.True(t, m.isBoard())
	assert.Equal(t, domain.ViewModeBoard, f.ctl.State().ViewMode)
	assert.True(t, f.ctl.IsDirty())

	require.Len(t, m.lanes, 2)
	assert.Equal(t, "OPEN", m.lanes[0].value)
	assert.Len(t, m.lanes[0].records, 2)
	assert.Equal(t, "CLOSED", m.lanes[1].value)
	assert.Len(t, m.lanes[1].records, 1)
	assert.Contains(t, m.View(), "OPEN (2)")

	m, _ = update(t, m, runes("b"))
	assert.False(t, m.isBoard())
	assert.Empty(t, m.lanes)
}

func TestBoardDropMovesRecord(t *testing.T) {
	f := newFixture(t)
	m := loaded(t, f)
	m, _ = update(t, m, runes("b"))

	m, cmd := update(t, m, runes("L"))
	require.NotNil(t, cmd)
	assert.Equal(t, 1, m.laneCursor)

	msg := cmd()
	assert.Equal(t, recordUpdatedMsg{recordID: "1"}, msg)
	rec, err := f.exec.Get(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "CLOSED", rec["status"])
}

func TestSearchInput(t *testing.T) {
	f := newFixture(t)
	m := loaded(t, f)

	m, _ = update(t, m, runes("/"))
	assert.Equal(t, searchingMode, m.uiMode)
	for _, r := range "lap" {
		m, _ = update(t, m, runes(string(r)))
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, normalMode, m.uiMode)
	assert.Equal(t, "lap", f.ctl.State().SearchQuery)
	assert.Equal(t, "lap", m.state.SearchQuery)
}

func TestFilterInputKeepsInvalidText(t *testing.T) {
	f := newFixture(t)
	m := loaded(t, f)

	m, _ = update(t, m, runes("f"))
	require.Equal(t, filteringMode, m.uiMode)
	m.filterInput.SetValue("nope:OPEN")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, filteringMode, m.uiMode)
	assert.Error(t, m.err)

	m.filterInput.SetValue("status:OPEN")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, normalMode, m.uiMode)
	assert.NoError(t, m.err)
	assert.Len(t, f.ctl.State().Filters, 1)
}

func TestSelection(t *testing.T) {
	f := newFixture(t)
	m := loaded(t, f)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	assert.Equal(t, []string{"1"}, f.ctl.SelectedIDs())
	assert.Equal(t, "☑", m.table.Rows()[0][0])

	m, _ = update(t, m, runes("a"))
	assert.Len(t, f.ctl.SelectedIDs(), 3)
	assert.True(t, strings.Contains(m.renderStatusBar(), "3 selected"))

	m, _ = update(t, m, runes("A"))
	assert.Empty(t, f.ctl.SelectedIDs())
	assert.Empty(t, m.state.SelectedRowIDs)
}

func TestQuickAccessSwitchesView(t *testing.T) {
	f := newFixture(t)
	m := loaded(t, f)

	m, cmd := update(t, m, runes("2"))
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())

	require.NotNil(t, f.ctl.ActiveView())
	assert.Equal(t, "Open", f.ctl.ActiveView().Name)
	assert.Equal(t, 1, m.activeIndex())
	assert.NoError(t, m.err)
}

func TestDeleteAsksForConfirmation(t *testing.T) {
	f := newFixture(t)
	m := loaded(t, f)

	m, _ = update(t, m, runes("d"))
	require.Equal(t, confirmingMode, m.uiMode)
	assert.Contains(t, m.View(), "Delete view 'All'?")

	m, cmd := update(t, m, runes("n"))
	assert.Nil(t, cmd)
	assert.Equal(t, normalMode, m.uiMode)
	assert.Len(t, f.ctl.Views(), 2)
}

func TestEnterOpensDetail(t *testing.T) {
	f := newFixture(t)
	m := loaded(t, f)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, detailView, m.viewMode)
	assert.Contains(t, m.View(), "Broken laptop")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, listView, m.viewMode)
}

func TestNoticeIsShown(t *testing.T) {
	f := newFixture(t)
	m := loaded(t, f)

	m, cmd := update(t, m, noticeMsg{n: controller.Notice{Level: controller.NoticeWarning, Message: "filter reset"}})
	assert.NotNil(t, cmd)
	assert.Contains(t, m.View(), "filter reset")
}

func TestColumnPickerHidesAndFreezes(t *testing.T) {
	f := newFixture(t)
	m := loaded(t, f)

	m, _ = update(t, m, runes("C"))
	require.Equal(t, columnPickingMode, m.uiMode)
	assert.Contains(t, m.View(), "Columns (")

	m, _ = update(t, m, runes("j"))
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	require.NoError(t, m.err)
	assert.Equal(t, []string{"title"}, f.ctl.State().ColumnState.VisibleColumnIDs)
	assert.True(t, f.ctl.IsDirty())

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	assert.Equal(t, []string{"title", "status"}, f.ctl.State().ColumnState.VisibleColumnIDs)

	m, _ = update(t, m, runes("+"))
	assert.Equal(t, 2, f.ctl.State().ColumnState.FrozenCount)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, normalMode, m.uiMode)
}

func TestQuickFilterPickerCycles(t *testing.T) {
	f := newFixture(t)
	m := loaded(t, f)

	m, _ = update(t, m, runes("Q"))
	require.Equal(t, quickFilterMode, m.uiMode)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, domain.ListValue("OPEN"), f.ctl.State().QuickFilters["status"])
	assert.Contains(t, m.renderQuickFilterPicker(), "OPEN")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, domain.ListValue("CLOSED"), f.ctl.State().QuickFilters["status"])

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Empty(t, f.ctl.State().QuickFilters)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, normalMode, m.uiMode)
}

func TestPageSizeCycles(t *testing.T) {
	f := newFixture(t)
	m := loaded(t, f)

	before := f.ctl.State().PageSize
	m, _ = update(t, m, runes("p"))
	assert.NoError(t, m.err)
	assert.Equal(t, nextPageSize(before), f.ctl.State().PageSize)

	assert.Equal(t, 25, nextPageSize(10))
	assert.Equal(t, 10, nextPageSize(100))
}
