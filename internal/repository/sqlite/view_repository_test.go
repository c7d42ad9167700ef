package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viewengine/internal/apperror"
	"viewengine/internal/domain"
	"viewengine/internal/repository"
)

func setupTestDB(t *testing.T) *DB {
	dbPath := filepath.Join(t.TempDir(), "viewengine_test.db")

	db, err := NewDB(Config{Path: dbPath})
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
		os.Remove(dbPath)
	})

	return db
}

func sampleLayout() domain.ViewLayout {
	return domain.ViewLayout{
		Filters: domain.FilterGroupSet{
			{
				ID: "g1",
				Conditions: []domain.FilterCondition{
					{ID: "c1", PropertyID: "status", Operator: domain.OpIsAnyOf, Value: domain.ListValue("OPEN").Ptr()},
					{ID: "c2", PropertyID: "createdAt", Operator: domain.OpIsAfter, Value: domain.DateValue(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)).Ptr()},
				},
			},
		},
		ColumnState:            domain.ColumnState{VisibleColumnIDs: []string{"title", "status", "createdAt"}, FrozenCount: 1},
		SortState:              domain.SortState{ColumnID: "createdAt", Direction: domain.SortDesc},
		ViewMode:               domain.ViewModeBoard,
		BoardGroupByPropertyID: "status",
	}
}

func createView(t *testing.T, repo *ViewRepository, entityType, name, owner string, order int) *domain.SavedView {
	t.Helper()
	view := domain.NewSavedView(entityType, name, owner, sampleLayout())
	view.DisplayOrder = order
	require.NoError(t, repo.Create(context.Background(), view))
	return view
}

func TestViewRepository_CreateAndGet(t *testing.T) {
	repo := NewViewRepository(setupTestDB(t))
	ctx := context.Background()

	view := domain.NewSavedView("cases", "Open cases", "alice", sampleLayout())
	view.Visibility = domain.VisibilityTeam
	view.Pinned = true
	require.NoError(t, repo.Create(ctx, view))

	got, err := repo.GetByID(ctx, view.ID)
	require.NoError(t, err)

	assert.Equal(t, "Open cases", got.Name)
	assert.Equal(t, "cases", got.EntityType)
	assert.Equal(t, "alice", got.OwnerID)
	assert.Equal(t, domain.VisibilityTeam, got.Visibility)
	assert.True(t, got.Pinned)
	assert.True(t, got.ViewLayout.Equal(view.ViewLayout), "layout should survive the JSON columns")
	assert.Nil(t, got.CachedRecordCount)
	assert.Nil(t, got.LastAccessedAt)
}

func TestViewRepository_CreateRejectsInvalid(t *testing.T) {
	repo := NewViewRepository(setupTestDB(t))

	view := domain.NewSavedView("cases", "", "alice", sampleLayout())
	err := repo.Create(context.Background(), view)
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestViewRepository_CreateDuplicateID(t *testing.T) {
	repo := NewViewRepository(setupTestDB(t))
	view := createView(t, repo, "cases", "One", "alice", 0)

	dup := view.Clone()
	err := repo.Create(context.Background(), dup)
	require.Error(t, err)
	assert.Equal(t, domain.RuleDuplicateID, apperror.Rule(err))
}

func TestViewRepository_GetMissing(t *testing.T) {
	repo := NewViewRepository(setupTestDB(t))

	_, err := repo.GetByID(context.Background(), "missing")
	assert.True(t, apperror.IsNotFound(err))
}

func TestViewRepository_Update(t *testing.T) {
	repo := NewViewRepository(setupTestDB(t))
	ctx := context.Background()
	view := createView(t, repo, "cases", "Mine", "alice", 0)

	view.Name = "Renamed"
	view.Filters = domain.FilterGroupSet{}
	view.SortState = domain.SortState{}
	view.ViewMode = domain.ViewModeTable
	view.BoardGroupByPropertyID = ""
	require.NoError(t, repo.Update(ctx, view))

	got, err := repo.GetByID(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.True(t, got.Filters.IsEmpty())
	assert.False(t, got.SortState.IsSet())
	assert.Equal(t, domain.ViewModeTable, got.ViewMode)
	assert.Empty(t, got.BoardGroupByPropertyID)

	missing := domain.NewSavedView("cases", "Ghost", "alice", sampleLayout())
	assert.True(t, apperror.IsNotFound(repo.Update(ctx, missing)))
}

func TestViewRepository_DeleteCompactsOrder(t *testing.T) {
	repo := NewViewRepository(setupTestDB(t))
	ctx := context.Background()

	a := createView(t, repo, "cases", "A", "alice", 0)
	b := createView(t, repo, "cases", "B", "alice", 1)
	c := createView(t, repo, "cases", "C", "alice", 2)

	require.NoError(t, repo.Delete(ctx, b.ID))

	views, err := repo.List(ctx, repository.ViewFilter{EntityType: "cases", OwnerID: "alice"})
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, a.ID, views[0].ID)
	assert.Equal(t, 0, views[0].DisplayOrder)
	assert.Equal(t, c.ID, views[1].ID)
	assert.Equal(t, 1, views[1].DisplayOrder)

	assert.True(t, apperror.IsNotFound(repo.Delete(ctx, b.ID)))
}

func TestViewRepository_ListFilters(t *testing.T) {
	repo := NewViewRepository(setupTestDB(t))
	ctx := context.Background()

	createView(t, repo, "cases", "Alice private", "alice", 0)
	shared := createView(t, repo, "cases", "Bob shared", "bob", 0)
	shared.Visibility = domain.VisibilityEveryone
	shared.Pinned = true
	require.NoError(t, repo.Update(ctx, shared))
	createView(t, repo, "cases", "Bob private", "bob", 1)
	createView(t, repo, "policies", "Alice policies", "alice", 0)

	visible, err := repo.List(ctx, repository.ViewFilter{EntityType: "cases", VisibleTo: "alice"})
	require.NoError(t, err)
	names := make([]string, len(visible))
	for i, v := range visible {
		names[i] = v.Name
	}
	assert.ElementsMatch(t, []string{"Alice private", "Bob shared"}, names)

	pinned := true
	onlyPinned, err := repo.List(ctx, repository.ViewFilter{EntityType: "cases", Pinned: &pinned})
	require.NoError(t, err)
	require.Len(t, onlyPinned, 1)
	assert.Equal(t, "Bob shared", onlyPinned[0].Name)

	searched, err := repo.List(ctx, repository.ViewFilter{SearchQuery: "polic"})
	require.NoError(t, err)
	require.Len(t, searched, 1)

	count, err := repo.Count(ctx, repository.ViewFilter{OwnerID: "bob"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	paged, err := repo.List(ctx, repository.ViewFilter{EntityType: "cases", Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Len(t, paged, 1)
}

func TestViewRepository_Reorder(t *testing.T) {
	repo := NewViewRepository(setupTestDB(t))
	ctx := context.Background()

	a := createView(t, repo, "cases", "A", "alice", 0)
	b := createView(t, repo, "cases", "B", "alice", 1)
	c := createView(t, repo, "cases", "C", "alice", 2)
	createView(t, repo, "cases", "Other", "bob", 0)

	require.NoError(t, repo.Reorder(ctx, "alice", "cases", []string{c.ID, a.ID, b.ID}))

	views, err := repo.List(ctx, repository.ViewFilter{EntityType: "cases", OwnerID: "alice"})
	require.NoError(t, err)
	require.Len(t, views, 3)
	for i, want := range []string{c.ID, a.ID, b.ID} {
		assert.Equal(t, want, views[i].ID)
		assert.Equal(t, i, views[i].DisplayOrder)
	}
}

func TestViewRepository_ReorderIsAtomic(t *testing.T) {
	repo := NewViewRepository(setupTestDB(t))
	ctx := context.Background()

	a := createView(t, repo, "cases", "A", "alice", 0)
	b := createView(t, repo, "cases", "B", "alice", 1)
	other := createView(t, repo, "cases", "Other", "bob", 0)

	tests := []struct {
		name string
		ids  []string
	}{
		{"missing id", []string{b.ID}},
		{"foreign id", []string{b.ID, other.ID}},
		{"duplicate id", []string{b.ID, b.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Reorder(ctx, "alice", "cases", tt.ids)
			require.Error(t, err)
			assert.Equal(t, domain.RuleInvalidReorder, apperror.Rule(err))

			views, err := repo.List(ctx, repository.ViewFilter{EntityType: "cases", OwnerID: "alice"})
			require.NoError(t, err)
			assert.Equal(t, a.ID, views[0].ID)
			assert.Equal(t, b.ID, views[1].ID)
		})
	}
}

func TestViewRepository_NextDisplayOrder(t *testing.T) {
	repo := NewViewRepository(setupTestDB(t))
	ctx := context.Background()

	next, err := repo.NextDisplayOrder(ctx, "alice", "cases")
	require.NoError(t, err)
	assert.Equal(t, 0, next)

	createView(t, repo, "cases", "A", "alice", 0)
	createView(t, repo, "cases", "B", "alice", 1)

	next, err = repo.NextDisplayOrder(ctx, "alice", "cases")
	require.NoError(t, err)
	assert.Equal(t, 2, next)

	next, err = repo.NextDisplayOrder(ctx, "bob", "cases")
	require.NoError(t, err)
	assert.Equal(t, 0, next)
}

func TestViewRepository_CachedCount(t *testing.T) {
	repo := NewViewRepository(setupTestDB(t))
	ctx := context.Background()
	view := createView(t, repo, "cases", "A", "alice", 0)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SetCachedCount(ctx, view.ID, 42, at))

	got, err := repo.GetByID(ctx, view.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CachedRecordCount)
	assert.Equal(t, 42, *got.CachedRecordCount)
	require.NotNil(t, got.CachedRecordCountAt)
	assert.True(t, at.Equal(*got.CachedRecordCountAt))

	assert.True(t, apperror.IsNotFound(repo.SetCachedCount(ctx, "missing", 1, at)))
}

func TestViewRepository_RecentViews(t *testing.T) {
	repo := NewViewRepository(setupTestDB(t))
	ctx := context.Background()

	a := createView(t, repo, "cases", "A", "alice", 0)
	b := createView(t, repo, "cases", "B", "alice", 1)
	createView(t, repo, "cases", "Never opened", "alice", 2)

	require.NoError(t, repo.RecordViewAccess(ctx, a.ID))
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, repo.RecordViewAccess(ctx, b.ID))

	recent, err := repo.GetRecentViews(ctx, "alice", "cases", 5)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, b.ID, recent[0].ID)
	assert.Equal(t, a.ID, recent[1].ID)
	assert.NotNil(t, recent[0].LastAccessedAt)

	assert.True(t, apperror.IsNotFound(repo.RecordViewAccess(ctx, "missing")))
}
