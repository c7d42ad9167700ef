package repository

import (
	"context"
	"time"

	"viewengine/internal/domain"
)

type ViewRepository interface {
	Create(ctx context.Context, view *domain.SavedView) error
	GetByID(ctx context.Context, id string) (*domain.SavedView, error)
	Update(ctx context.Context, view *domain.SavedView) error
	Delete(ctx context.Context, id string) error

	List(ctx context.Context, filter ViewFilter) ([]*domain.SavedView, error)
	Count(ctx context.Context, filter ViewFilter) (int64, error)

	// Reorder assigns displayOrder 0..n-1 following orderedIDs in one
	// transaction. orderedIDs must be exactly the owner's views for the entity type.
	Reorder(ctx context.Context, ownerID, entityType string, orderedIDs []string) error
	NextDisplayOrder(ctx context.Context, ownerID, entityType string) (int, error)

	SetCachedCount(ctx context.Context, viewID string, count int, at time.Time) error

	GetRecentViews(ctx context.Context, ownerID, entityType string, limit int) ([]*domain.SavedView, error)
	RecordViewAccess(ctx context.Context, viewID string) error
}

type ViewFilter struct {
	EntityType  string
	OwnerID     string
	VisibleTo   string // owner or any non-private view
	Pinned      *bool
	SearchQuery string
	Limit       int
	Offset      int
}
