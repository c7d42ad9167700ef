// Package gateway enforces the consistency rules around saved view
// persistence: ownership, the pinned fallback view, atomic reorders and cached
// record counts.
package gateway

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/benbjohnson/clock"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"viewengine/internal/apperror"
	"viewengine/internal/domain"
	"viewengine/internal/logging"
	"viewengine/internal/repository"
)

// ModuleSource resolves entity types to their module configuration.
type ModuleSource interface {
	Get(entityType string) (*domain.ModuleConfig, error)
}

// ExecutorSource resolves the record executor of an entity type.
type ExecutorSource interface {
	ExecutorFor(entityType string) (repository.RecordExecutor, error)
}

// Executors is a fixed ExecutorSource.
type Executors map[string]repository.RecordExecutor

func (e Executors) ExecutorFor(entityType string) (repository.RecordExecutor, error) {
	ex, ok := e[entityType]
	if !ok {
		return nil, apperror.NewNotFound("record executor", entityType)
	}
	return ex, nil
}

type Config struct {
	Limits           domain.Limits
	CountTTL         time.Duration
	RefreshPerSecond float64
	CountCacheSize   int
	RefreshFanOut    int
}

func DefaultConfig() Config {
	return Config{
		Limits:           domain.DefaultLimits(),
		CountTTL:         5 * time.Minute,
		RefreshPerSecond: 5,
		CountCacheSize:   512,
		RefreshFanOut:    4,
	}
}

type Gateway struct {
	views     repository.ViewRepository
	modules   ModuleSource
	executors ExecutorSource
	cfg       Config
	counts    *lru.Cache[string, domain.CountStatus]
	limiter   *rate.Limiter
	clock     clock.Clock
	log       *logging.Logger
}

type Option func(*Gateway)

func WithClock(c clock.Clock) Option {
	return func(g *Gateway) { g.clock = c }
}

func WithLogger(l *logging.Logger) Option {
	return func(g *Gateway) { g.log = l.WithComponent("gateway") }
}

func New(views repository.ViewRepository, modules ModuleSource, executors ExecutorSource, cfg Config, opts ...Option) (*Gateway, error) {
	if cfg.CountCacheSize <= 0 {
		cfg.CountCacheSize = DefaultConfig().CountCacheSize
	}
	if cfg.RefreshFanOut <= 0 {
		cfg.RefreshFanOut = DefaultConfig().RefreshFanOut
	}
	counts, err := lru.New[string, domain.CountStatus](cfg.CountCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create count cache: %w", err)
	}

	limit := rate.Inf
	if cfg.RefreshPerSecond > 0 {
		limit = rate.Limit(cfg.RefreshPerSecond)
	}

	g := &Gateway{
		views:     views,
		modules:   modules,
		executors: executors,
		cfg:       cfg,
		counts:    counts,
		limiter:   rate.NewLimiter(limit, max(1, int(cfg.RefreshPerSecond))),
		clock:     clock.New(),
		log:       logging.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// List returns the views of entityType readable by requester: the requester's
// own views in display order, then shared views by name.
func (g *Gateway) List(ctx context.Context, requester, entityType string) ([]*domain.SavedView, error) {
	views, err := g.views.List(ctx, repository.ViewFilter{EntityType: entityType, VisibleTo: requester})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(views, func(a, b *domain.SavedView) int {
		aOwn, bOwn := a.OwnerID == requester, b.OwnerID == requester
		switch {
		case aOwn && !bOwn:
			return -1
		case !aOwn && bOwn:
			return 1
		case aOwn:
			return cmp.Or(cmp.Compare(a.DisplayOrder, b.DisplayOrder), cmp.Compare(a.Name, b.Name))
		}
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return views, nil
}

// Get returns a view readable by requester. Views the requester cannot read
// are reported as not found.
func (g *Gateway) Get(ctx context.Context, requester, id string) (*domain.SavedView, error) {
	view, err := g.views.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !view.IsVisibleTo(requester) {
		return nil, apperror.NewNotFound("view", id)
	}
	return view, nil
}

func (g *Gateway) validateLayout(view *domain.SavedView) error {
	module, err := g.modules.Get(view.EntityType)
	if err != nil {
		return err
	}
	return module.ValidateLayout(view.ViewLayout, g.cfg.Limits)
}

// Create stores a new view owned by requester at the end of their order.
func (g *Gateway) Create(ctx context.Context, requester string, view *domain.SavedView) error {
	view.OwnerID = requester
	if view.Visibility == "" {
		view.Visibility = domain.VisibilityPrivate
	}
	if err := view.Validate(); err != nil {
		return err
	}
	if err := g.validateLayout(view); err != nil {
		return err
	}

	next, err := g.views.NextDisplayOrder(ctx, requester, view.EntityType)
	if err != nil {
		return err
	}
	view.DisplayOrder = next

	if err := g.views.Create(ctx, view); err != nil {
		return err
	}
	g.log.Infow("view created", "view_id", view.ID, "entity_type", view.EntityType, "owner", requester)
	return nil
}

// Update overwrites a view. Only the owner may update it.
func (g *Gateway) Update(ctx context.Context, requester string, view *domain.SavedView) error {
	existing, err := g.Get(ctx, requester, view.ID)
	if err != nil {
		return err
	}
	if !existing.CanMutate(requester) {
		g.log.Warnw("update rejected", "view_id", view.ID, "requester", requester, "owner", existing.OwnerID)
		return apperror.NewPermission("update", view.ID)
	}

	view.OwnerID = existing.OwnerID
	view.EntityType = existing.EntityType
	if err := view.Validate(); err != nil {
		return err
	}
	if err := g.validateLayout(view); err != nil {
		return err
	}
	if err := g.views.Update(ctx, view); err != nil {
		return err
	}
	g.counts.Remove(view.ID)
	return nil
}

// Delete removes a view. Only the owner may delete it, and the last pinned
// view of an entity type cannot be deleted.
func (g *Gateway) Delete(ctx context.Context, requester, id string) error {
	existing, err := g.Get(ctx, requester, id)
	if err != nil {
		return err
	}
	if !existing.CanMutate(requester) {
		g.log.Warnw("delete rejected", "view_id", id, "requester", requester, "owner", existing.OwnerID)
		return apperror.NewPermission("delete", id)
	}

	if existing.Pinned {
		pinned := true
		n, err := g.views.Count(ctx, repository.ViewFilter{
			EntityType: existing.EntityType,
			VisibleTo:  requester,
			Pinned:     &pinned,
		})
		if err != nil {
			return err
		}
		if n <= 1 {
			return apperror.NewValidation(domain.RuleLastFallbackView,
				fmt.Sprintf("%q is the last pinned view for %s; pin another view before deleting it", existing.Name, existing.EntityType))
		}
	}

	if err := g.views.Delete(ctx, id); err != nil {
		return err
	}
	g.counts.Remove(id)
	g.log.Infow("view deleted", "view_id", id, "entity_type", existing.EntityType)
	return nil
}

// Clone copies any readable view into a private view owned by requester.
func (g *Gateway) Clone(ctx context.Context, requester, id, name string) (*domain.SavedView, error) {
	source, err := g.Get(ctx, requester, id)
	if err != nil {
		return nil, err
	}
	clone := source.CopyFor(requester, name)
	if err := g.Create(ctx, requester, clone); err != nil {
		return nil, err
	}
	return clone, nil
}

// Reorder sets the requester's view order for an entity type. Every id must be
// one of the requester's own views; the update is all or nothing.
func (g *Gateway) Reorder(ctx context.Context, requester, entityType string, orderedIDs []string) error {
	for _, id := range orderedIDs {
		view, err := g.views.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !view.CanMutate(requester) {
			g.log.Warnw("reorder rejected", "view_id", id, "requester", requester)
			return apperror.NewPermission("reorder", id)
		}
	}
	return g.views.Reorder(ctx, requester, entityType, orderedIDs)
}

// RecordAccess stamps the view as recently opened.
func (g *Gateway) RecordAccess(ctx context.Context, id string) error {
	return g.views.RecordViewAccess(ctx, id)
}

func (g *Gateway) Recent(ctx context.Context, requester, entityType string, limit int) ([]*domain.SavedView, error) {
	return g.views.GetRecentViews(ctx, requester, entityType, limit)
}

// EnsureDefaults creates the module's default views for owner when the owner
// has no views of that entity type yet. It returns the owner's views.
func (g *Gateway) EnsureDefaults(ctx context.Context, owner, entityType string) ([]*domain.SavedView, error) {
	n, err := g.views.Count(ctx, repository.ViewFilter{EntityType: entityType, OwnerID: owner})
	if err != nil {
		return nil, err
	}
	if n == 0 {
		module, err := g.modules.Get(entityType)
		if err != nil {
			return nil, err
		}
		for _, dv := range module.DefaultViews {
			view := domain.NewSavedView(entityType, dv.Name, owner, module.LayoutFor(dv))
			view.Pinned = dv.Pinned
			if err := g.Create(ctx, owner, view); err != nil {
				return nil, fmt.Errorf("failed to seed default view %q: %w", dv.Name, err)
			}
		}
		g.log.Infow("seeded default views", "entity_type", entityType, "owner", owner, "count", len(module.DefaultViews))
	}
	return g.List(ctx, owner, entityType)
}
