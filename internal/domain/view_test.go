package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viewengine/internal/apperror"
)

func TestNewSavedView(t *testing.T) {
	view := NewSavedView("cases", "Open cases", "alice", testModule().DefaultLayout())

	assert.NotEmpty(t, view.ID)
	assert.Equal(t, VisibilityPrivate, view.Visibility)
	assert.Equal(t, ViewModeTable, view.ViewMode)
	assert.False(t, view.Pinned)
	assert.NoError(t, view.Validate())
}

func TestSavedViewValidation(t *testing.T) {
	view := NewSavedView("", "", "", ViewLayout{})
	view.Visibility = "secret"
	view.DisplayOrder = -1

	err := view.Validate()
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	for _, fragment := range []string{"name", "entity type", "owner", "visibility", "display order"} {
		assert.Contains(t, err.Error(), fragment)
	}
}

func TestSavedView_OwnershipAndVisibility(t *testing.T) {
	view := NewSavedView("cases", "Mine", "alice", ViewLayout{})

	assert.True(t, view.CanMutate("alice"))
	assert.False(t, view.CanMutate("bob"))
	assert.False(t, view.IsVisibleTo("bob"))

	view.Visibility = VisibilityTeam
	assert.True(t, view.IsVisibleTo("bob"))
	assert.False(t, view.CanMutate("bob"))
}

func TestSavedView_CopyForIsPrivateAndIndependent(t *testing.T) {
	view := NewSavedView("cases", "Shared", "alice", ViewLayout{
		Filters: FilterGroupSet{{ID: "g1", Conditions: []FilterCondition{{ID: "c1", PropertyID: "title"}}}},
	})
	view.Visibility = VisibilityEveryone
	view.Pinned = true

	cp := view.CopyFor("bob", "")
	assert.NotEqual(t, view.ID, cp.ID)
	assert.Equal(t, "bob", cp.OwnerID)
	assert.Equal(t, VisibilityPrivate, cp.Visibility)
	assert.Equal(t, "Shared (copy)", cp.Name)
	assert.False(t, cp.Pinned)
	assert.True(t, cp.Filters.Equal(view.Filters))

	cp.Filters[0].Conditions[0].PropertyID = "status"
	assert.Equal(t, "title", view.Filters[0].Conditions[0].PropertyID)
}

func TestSavedView_CountStatus(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	view := NewSavedView("cases", "v", "alice", ViewLayout{})

	assert.True(t, view.CountStatusAt(now, 5*time.Minute).Stale)

	n := 12
	at := now.Add(-time.Minute)
	view.CachedRecordCount, view.CachedRecordCountAt = &n, &at
	status := view.CountStatusAt(now, 5*time.Minute)
	assert.False(t, status.Stale)
	assert.Equal(t, 12, *status.Count)

	assert.True(t, view.CountStatusAt(now.Add(10*time.Minute), 5*time.Minute).Stale)
}

func TestViewLayout_EqualIsStructural(t *testing.T) {
	a := testModule().DefaultLayout()
	b := a.Clone()
	assert.True(t, a.Equal(b))

	b.Filters = nil
	assert.True(t, a.Equal(b), "nil and empty filters are equal")

	b.SortState = SortState{ColumnID: "title"}
	assert.False(t, a.Equal(b))
}

func TestRuntimeState_DirtyAndClone(t *testing.T) {
	layout := testModule().DefaultLayout()
	s := NewRuntimeState("cases", layout, 25)
	assert.False(t, s.IsDirty(layout))

	s.SelectedRowIDs["r1"] = struct{}{}
	s.SearchQuery = "fraud"
	assert.False(t, s.IsDirty(layout), "search and selection are not persisted")

	c := s.Clone()
	c.SelectedRowIDs["r2"] = struct{}{}
	c.ColumnState.FrozenCount = 0
	assert.Len(t, s.SelectedRowIDs, 1)
	assert.True(t, c.IsDirty(layout))
	assert.Equal(t, []string{"r1", "r2"}, c.SelectedIDs())
}
