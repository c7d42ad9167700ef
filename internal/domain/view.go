package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"viewengine/internal/apperror"
)

// saved view read access
type Visibility string

const (
	VisibilityPrivate  Visibility = "private"
	VisibilityTeam     Visibility = "team"
	VisibilityEveryone Visibility = "everyone"
)

func (v Visibility) IsValid() bool {
	return v == VisibilityPrivate || v == VisibilityTeam || v == VisibilityEveryone
}

func ParseVisibility(s string) (Visibility, error) {
	v := Visibility(strings.ToLower(strings.TrimSpace(s)))
	if v == "" {
		return VisibilityPrivate, nil
	}
	if !v.IsValid() {
		return "", fmt.Errorf("invalid visibility %q: must be private, team, or everyone", s)
	}
	return v, nil
}

// presentation mode
type ViewMode string

const (
	ViewModeTable ViewMode = "table"
	ViewModeBoard ViewMode = "board"
)

func (m ViewMode) IsValid() bool {
	return m == ViewModeTable || m == ViewModeBoard
}

// ViewLayout is the persisted, dirty-tracked part of a view.
type ViewLayout struct {
	Filters                FilterGroupSet `json:"filters"`
	ColumnState            ColumnState    `json:"columnState"`
	SortState              SortState      `json:"sortState"`
	ViewMode               ViewMode       `json:"viewMode"`
	BoardGroupByPropertyID string         `json:"boardGroupByPropertyId,omitempty"`
}

func (l ViewLayout) Clone() ViewLayout {
	return ViewLayout{
		Filters:                l.Filters.Clone(),
		ColumnState:            l.ColumnState.Clone(),
		SortState:              l.SortState,
		ViewMode:               l.ViewMode,
		BoardGroupByPropertyID: l.BoardGroupByPropertyID,
	}
}

// Equal is structural equality over every persisted field.
func (l ViewLayout) Equal(o ViewLayout) bool {
	return l.Filters.Equal(o.Filters) &&
		l.ColumnState.Equal(o.ColumnState) &&
		l.SortState.Equal(o.SortState) &&
		l.ViewMode == o.ViewMode &&
		l.BoardGroupByPropertyID == o.BoardGroupByPropertyID
}

type SavedView struct {
	ID         string     `json:"id"`
	EntityType string     `json:"entityType"`
	Name       string     `json:"name"`
	OwnerID    string     `json:"ownerId"`
	Visibility Visibility `json:"visibility"`
	ViewLayout
	Pinned              bool       `json:"pinned"`
	DisplayOrder        int        `json:"displayOrder"`
	CachedRecordCount   *int       `json:"cachedRecordCount,omitempty"`
	CachedRecordCountAt *time.Time `json:"cachedRecordCountAt,omitempty"`
	LastAccessedAt      *time.Time `json:"lastAccessedAt,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

// create a new private view owned by ownerID
func NewSavedView(entityType, name, ownerID string, layout ViewLayout) *SavedView {
	now := time.Now().UTC()
	if layout.ViewMode == "" {
		layout.ViewMode = ViewModeTable
	}
	return &SavedView{
		ID:         uuid.NewString(),
		EntityType: entityType,
		Name:       name,
		OwnerID:    ownerID,
		Visibility: VisibilityPrivate,
		ViewLayout: layout.Clone(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Validate checks the fields that do not depend on a module configuration.
func (v *SavedView) Validate() error {
	var result *multierror.Error

	if strings.TrimSpace(v.Name) == "" {
		result = multierror.Append(result, errors.New("view name cannot be empty"))
	}
	if len(v.Name) > 100 {
		result = multierror.Append(result, errors.New("view name cannot exceed 100 characters"))
	}
	if strings.TrimSpace(v.EntityType) == "" {
		result = multierror.Append(result, errors.New("entity type cannot be empty"))
	}
	if strings.TrimSpace(v.OwnerID) == "" {
		result = multierror.Append(result, errors.New("owner cannot be empty"))
	}
	if !v.Visibility.IsValid() {
		result = multierror.Append(result, fmt.Errorf("invalid visibility %q", v.Visibility))
	}
	if !v.ViewMode.IsValid() {
		result = multierror.Append(result, fmt.Errorf("invalid view mode %q", v.ViewMode))
	}
	if v.DisplayOrder < 0 {
		result = multierror.Append(result, errors.New("display order cannot be negative"))
	}

	if err := result.ErrorOrNil(); err != nil {
		return apperror.NewValidation(RuleInvalidView, err.Error()).WithCause(err)
	}
	return nil
}

// CanMutate reports whether userID may update, delete, or reorder the view.
func (v *SavedView) CanMutate(userID string) bool {
	return v.OwnerID == userID
}

// IsVisibleTo reports read access. Team visibility is treated as visible to
// every authenticated user.
func (v *SavedView) IsVisibleTo(userID string) bool {
	return v.OwnerID == userID || v.Visibility != VisibilityPrivate
}

func (v *SavedView) Clone() *SavedView {
	out := *v
	out.ViewLayout = v.ViewLayout.Clone()
	if v.CachedRecordCount != nil {
		n := *v.CachedRecordCount
		out.CachedRecordCount = &n
	}
	if v.CachedRecordCountAt != nil {
		t := *v.CachedRecordCountAt
		out.CachedRecordCountAt = &t
	}
	if v.LastAccessedAt != nil {
		t := *v.LastAccessedAt
		out.LastAccessedAt = &t
	}
	return &out
}

// CopyFor returns a private copy owned by ownerID with a new id.
func (v *SavedView) CopyFor(ownerID, name string) *SavedView {
	if name == "" {
		name = v.Name + " (copy)"
	}
	return NewSavedView(v.EntityType, name, ownerID, v.ViewLayout)
}

func (v *SavedView) GetFilterSummary() string {
	if v.Filters.IsEmpty() {
		return "no filters"
	}
	return fmt.Sprintf("%d groups, %d conditions", len(v.Filters), v.Filters.ConditionCount())
}

func (v *SavedView) GetPinnedIndicator() string {
	if v.Pinned {
		return "★"
	}
	return ""
}

// CountStatus is the cached record count of a view as shown to the renderer.
type CountStatus struct {
	ViewID      string     `json:"viewId"`
	Count       *int       `json:"count,omitempty"`
	RefreshedAt *time.Time `json:"refreshedAt,omitempty"`
	Stale       bool       `json:"stale"`
}

// CountStatusAt derives the staleness of a cached count.
func (v *SavedView) CountStatusAt(now time.Time, ttl time.Duration) CountStatus {
	status := CountStatus{ViewID: v.ID, Count: v.CachedRecordCount, RefreshedAt: v.CachedRecordCountAt}
	status.Stale = v.CachedRecordCountAt == nil || now.Sub(*v.CachedRecordCountAt) > ttl
	return status
}
