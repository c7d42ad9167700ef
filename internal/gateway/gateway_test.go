package gateway

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viewengine/internal/apperror"
	"viewengine/internal/domain"
	"viewengine/internal/executor"
	"viewengine/internal/query"
	"viewengine/internal/repository"
	"viewengine/internal/repository/sqlite"
)

type moduleMap map[string]*domain.ModuleConfig

func (m moduleMap) Get(entityType string) (*domain.ModuleConfig, error) {
	if mod, ok := m[entityType]; ok {
		return mod, nil
	}
	return nil, apperror.NewNotFound("module", entityType)
}

type failingExecutor struct{}

func (failingExecutor) Execute(context.Context, query.Request) (query.Result, error) {
	return query.Result{}, errors.New("record source down")
}

func (failingExecutor) Count(context.Context, query.Descriptor, string) (int, error) {
	return 0, errors.New("record source down")
}

func testModule() *domain.ModuleConfig {
	return &domain.ModuleConfig{
		EntityType: "cases",
		Columns: []domain.ColumnDef{
			{PropertyDescriptor: domain.PropertyDescriptor{ID: "title", Type: domain.PropertyText, Sortable: true, Filterable: true}},
			{PropertyDescriptor: domain.PropertyDescriptor{ID: "status", Type: domain.PropertyEnum, Sortable: true, Filterable: true, Options: []string{"OPEN", "CLOSED"}}},
		},
		DefaultViews: []domain.DefaultView{
			{Name: "All", Pinned: true},
			{Name: "Open", Filters: openFilter()},
		},
	}
}

func openFilter() domain.FilterGroupSet {
	return domain.FilterGroupSet{{ID: "g", Conditions: []domain.FilterCondition{
		{ID: "c", PropertyID: "status", Operator: domain.OpIsAnyOf, Value: domain.ListValue("OPEN").Ptr()},
	}}}
}

type fixture struct {
	gw    *Gateway
	clock *clock.Mock
	repo  *sqlite.ViewRepository
}

func setup(t *testing.T, ex repository.RecordExecutor) fixture {
	t.Helper()
	db, err := sqlite.NewDB(sqlite.Config{Path: filepath.Join(t.TempDir(), "gateway.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	module := testModule()
	if ex == nil {
		ex = executor.NewMemory(module, []query.Record{
			{"id": "1", "title": "a", "status": "OPEN"},
			{"id": "2", "title": "b", "status": "OPEN"},
			{"id": "3", "title": "c", "status": "CLOSED"},
		})
	}

	mock := clock.NewMock()
	mock.Set(time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC))

	repo := sqlite.NewViewRepository(db)
	cfg := DefaultConfig()
	cfg.RefreshPerSecond = 0
	gw, err := New(repo, moduleMap{"cases": module}, Executors{"cases": ex}, cfg, WithClock(mock))
	require.NoError(t, err)
	return fixture{gw: gw, clock: mock, repo: repo}
}

func newView(name string) *domain.SavedView {
	return domain.NewSavedView("cases", name, "", testModule().DefaultLayout())
}

func TestCreateAppendsDisplayOrder(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	a, b := newView("A"), newView("B")
	require.NoError(t, f.gw.Create(ctx, "alice", a))
	require.NoError(t, f.gw.Create(ctx, "alice", b))

	assert.Equal(t, "alice", a.OwnerID)
	assert.Equal(t, 0, a.DisplayOrder)
	assert.Equal(t, 1, b.DisplayOrder)
}

func TestCreateRejectsInvalidLayout(t *testing.T) {
	f := setup(t, nil)

	v := newView("Bad")
	v.SortState = domain.SortState{ColumnID: "nope"}
	err := f.gw.Create(context.Background(), "alice", v)
	assert.True(t, apperror.IsValidation(err))
}

func TestListOrdersOwnThenShared(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	for _, name := range []string{"Mine 1", "Mine 2"} {
		require.NoError(t, f.gw.Create(ctx, "alice", newView(name)))
	}
	for _, name := range []string{"Zed shared", "Bob shared", "Bob private"} {
		v := newView(name)
		if name != "Bob private" {
			v.Visibility = domain.VisibilityTeam
		}
		require.NoError(t, f.gw.Create(ctx, "bob", v))
	}

	views, err := f.gw.List(ctx, "alice", "cases")
	require.NoError(t, err)

	var names []string
	for _, v := range views {
		names = append(names, v.Name)
	}
	assert.Equal(t, []string{"Mine 1", "Mine 2", "Bob shared", "Zed shared"}, names)
}

func TestUpdateRequiresOwner(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	v := newView("Shared")
	v.Visibility = domain.VisibilityEveryone
	require.NoError(t, f.gw.Create(ctx, "bob", v))

	edit := v.Clone()
	edit.Name = "Hijacked"
	err := f.gw.Update(ctx, "alice", edit)
	require.Error(t, err)
	assert.True(t, apperror.IsPermission(err))
	assert.Contains(t, err.Error(), "clone")

	edit.Name = "Renamed"
	require.NoError(t, f.gw.Update(ctx, "bob", edit))
	got, err := f.gw.Get(ctx, "bob", v.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
}

func TestPrivateViewsAreNotFoundForOthers(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	v := newView("Secret")
	require.NoError(t, f.gw.Create(ctx, "bob", v))

	_, err := f.gw.Get(ctx, "alice", v.ID)
	assert.True(t, apperror.IsNotFound(err))
	_, err = f.gw.Clone(ctx, "alice", v.ID, "")
	assert.True(t, apperror.IsNotFound(err))
}

func TestDeleteLastPinnedRejected(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	views, err := f.gw.EnsureDefaults(ctx, "alice", "cases")
	require.NoError(t, err)
	require.Len(t, views, 2)

	pinned, other := views[0], views[1]
	require.True(t, pinned.Pinned)

	err = f.gw.Delete(ctx, "alice", pinned.ID)
	require.Error(t, err)
	assert.Equal(t, domain.RuleLastFallbackView, apperror.Rule(err))

	require.NoError(t, f.gw.Delete(ctx, "alice", other.ID))

	second := newView("Second pinned")
	second.Pinned = true
	require.NoError(t, f.gw.Create(ctx, "alice", second))
	require.NoError(t, f.gw.Delete(ctx, "alice", pinned.ID))
}

func TestDeleteRequiresOwner(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	v := newView("Team")
	v.Visibility = domain.VisibilityTeam
	require.NoError(t, f.gw.Create(ctx, "bob", v))

	assert.True(t, apperror.IsPermission(f.gw.Delete(ctx, "alice", v.ID)))
}

func TestCloneAlwaysPermitted(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	v := newView("Shared")
	v.Visibility = domain.VisibilityEveryone
	v.Filters = openFilter()
	require.NoError(t, f.gw.Create(ctx, "bob", v))

	clone, err := f.gw.Clone(ctx, "alice", v.ID, "")
	require.NoError(t, err)
	assert.NotEqual(t, v.ID, clone.ID)
	assert.Equal(t, "alice", clone.OwnerID)
	assert.Equal(t, domain.VisibilityPrivate, clone.Visibility)
	assert.Equal(t, "Shared (copy)", clone.Name)
	assert.True(t, clone.Filters.Equal(v.Filters))
}

func TestReorder(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	a, b, c := newView("A"), newView("B"), newView("C")
	for _, v := range []*domain.SavedView{a, b, c} {
		require.NoError(t, f.gw.Create(ctx, "alice", v))
	}
	foreign := newView("Foreign")
	foreign.Visibility = domain.VisibilityTeam
	require.NoError(t, f.gw.Create(ctx, "bob", foreign))

	require.NoError(t, f.gw.Reorder(ctx, "alice", "cases", []string{c.ID, a.ID, b.ID}))
	views, err := f.gw.List(ctx, "alice", "cases")
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID, a.ID, b.ID, foreign.ID}, []string{views[0].ID, views[1].ID, views[2].ID, views[3].ID})

	err = f.gw.Reorder(ctx, "alice", "cases", []string{foreign.ID, a.ID, b.ID, c.ID})
	assert.True(t, apperror.IsPermission(err))
}

func TestRefreshRecordCount(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	v := newView("Open")
	v.Filters = openFilter()
	require.NoError(t, f.gw.Create(ctx, "alice", v))

	status, err := f.gw.CountStatus(ctx, "alice", v.ID)
	require.NoError(t, err)
	assert.Nil(t, status.Count)
	assert.True(t, status.Stale, "never counted is stale")

	status, err = f.gw.RefreshRecordCount(ctx, "alice", v.ID)
	require.NoError(t, err)
	require.NotNil(t, status.Count)
	assert.Equal(t, 2, *status.Count)
	assert.False(t, status.Stale)

	f.clock.Add(DefaultConfig().CountTTL + time.Second)
	status, err = f.gw.CountStatus(ctx, "alice", v.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, *status.Count)
	assert.True(t, status.Stale, "count older than the TTL is flagged")

	stored, err := f.repo.GetByID(ctx, v.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.CachedRecordCount)
	assert.Equal(t, 2, *stored.CachedRecordCount)
}

func TestRefreshFailureKeepsPreviousCount(t *testing.T) {
	f := setup(t, failingExecutor{})
	ctx := context.Background()

	v := newView("All")
	require.NoError(t, f.gw.Create(ctx, "alice", v))
	require.NoError(t, f.repo.SetCachedCount(ctx, v.ID, 7, f.clock.Now().Add(-time.Hour)))

	status, err := f.gw.RefreshRecordCount(ctx, "alice", v.ID)
	require.Error(t, err)
	require.NotNil(t, status.Count)
	assert.Equal(t, 7, *status.Count)
	assert.True(t, status.Stale)
}

func TestRefreshAllCounts(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	_, err := f.gw.EnsureDefaults(ctx, "alice", "cases")
	require.NoError(t, err)

	statuses, err := f.gw.RefreshAllCounts(ctx, "alice", "cases")
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	assert.Equal(t, 3, *statuses[0].Count)
	assert.Equal(t, 2, *statuses[1].Count)
}

func TestEnsureDefaultsIsIdempotent(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	first, err := f.gw.EnsureDefaults(ctx, "alice", "cases")
	require.NoError(t, err)
	second, err := f.gw.EnsureDefaults(ctx, "alice", "cases")
	require.NoError(t, err)
	assert.Len(t, second, len(first))
}
