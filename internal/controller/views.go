package controller

import (
	"context"
	"slices"

	"viewengine/internal/apperror"
	"viewengine/internal/domain"
	"viewengine/internal/metrics"
	"viewengine/internal/ordering"
)

func (c *Controller) findLocked(id string) *domain.SavedView {
	for _, v := range c.views {
		if v.ID == id {
			return v
		}
	}
	return nil
}

// fallbackLocked returns the first pinned view other than excludeID, or nil
// when only module defaults remain.
func (c *Controller) fallbackLocked(excludeID string) *domain.SavedView {
	for _, v := range c.views {
		if v.Pinned && v.ID != excludeID {
			return v
		}
	}
	return nil
}

func (c *Controller) removeLocked(id string) {
	c.views = slices.DeleteFunc(c.views, func(v *domain.SavedView) bool { return v.ID == id })
	c.resetTabsLocked()
}

func (c *Controller) upsertLocked(view *domain.SavedView) {
	for i, v := range c.views {
		if v.ID == view.ID {
			c.views[i] = view.Clone()
			return
		}
	}
	c.views = append(c.views, view.Clone())
	c.resetTabsLocked()
}

// resetTabsLocked seeds the tab coordinator with the requester's own views.
// Shared views cannot be reordered by the requester.
func (c *Controller) resetTabsLocked() {
	own := make([]*domain.SavedView, 0, len(c.views))
	for _, v := range c.views {
		if v.OwnerID == c.cfg.Requester {
			own = append(own, v)
		}
	}
	slices.SortStableFunc(own, func(a, b *domain.SavedView) int { return a.DisplayOrder - b.DisplayOrder })
	ids := make([]string, len(own))
	for i, v := range own {
		ids[i] = v.ID
	}
	c.tabs.Reset(ids)
}

// applyViewLocked replaces the runtime state wholesale from view, or from the
// module defaults when view is nil. Page size carries over.
func (c *Controller) applyViewLocked(view *domain.SavedView) {
	pageSize := c.state.PageSize
	if pageSize <= 0 {
		pageSize = c.cfg.Limits.DefaultPageSize
	}
	if view == nil {
		c.active = nil
		c.state = domain.NewRuntimeState(c.module.EntityType, c.module.DefaultLayout(), pageSize)
		return
	}
	c.active = view.Clone()
	c.state = domain.NewRuntimeState(c.module.EntityType, view.ViewLayout, pageSize)
	c.state.ViewID = view.ID
}

// ReloadViews refetches the view list. The active view is kept if it still
// exists; otherwise the controller falls back.
func (c *Controller) ReloadViews(ctx context.Context) error {
	views, err := c.cfg.Gateway.List(ctx, c.cfg.Requester, c.module.EntityType)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.views = views
	c.resetTabsLocked()
	if c.active == nil || c.findLocked(c.active.ID) != nil {
		c.mu.Unlock()
		return nil
	}
	lost := c.active.Name
	c.loadGen++
	c.applyViewLocked(c.fallbackLocked(""))
	p := c.flushLocked()
	c.mu.Unlock()

	c.log.Warnw("active view disappeared", "view", lost)
	c.notify(Notice{NoticeWarning, "The view \"" + lost + "\" was deleted elsewhere; showing the default view."})
	c.emit(p)
	return nil
}

// SetActiveView loads a view and replaces the runtime state with it. A view
// that no longer exists is dropped and the controller falls back to a pinned
// view. Results of a load superseded by a newer load are discarded.
func (c *Controller) SetActiveView(ctx context.Context, id string) error {
	c.mu.Lock()
	if err := c.requireReadyLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	c.loadGen++
	gen := c.loadGen
	c.mu.Unlock()

	view, err := c.cfg.Gateway.Get(ctx, c.cfg.Requester, id)

	c.mu.Lock()
	if gen != c.loadGen {
		c.mu.Unlock()
		c.discard("set_active_view")
		return nil
	}
	if err != nil {
		if !apperror.IsNotFound(err) {
			c.mu.Unlock()
			return err
		}
		c.removeLocked(id)
		c.applyViewLocked(c.fallbackLocked(id))
		p := c.flushLocked()
		c.mu.Unlock()

		c.log.Warnw("view not found, falling back", "view_id", id, "fallback", p.State.ViewID)
		c.notify(Notice{NoticeWarning, "That view no longer exists; showing the default view."})
		c.emit(p)
		return nil
	}

	c.upsertLocked(view)
	c.applyViewLocked(view)
	p := c.flushLocked()
	c.mu.Unlock()

	c.log.Infow("switched view", "view_id", view.ID, "name", view.Name)
	if err := c.cfg.Gateway.RecordAccess(ctx, view.ID); err != nil {
		c.log.Warnw("failed to record view access", "view_id", view.ID, "error", err)
	}
	c.emit(p)
	return nil
}

// Save overwrites the loaded view with the live layout. Only the owner may
// save; on failure the live state is kept and stays dirty.
func (c *Controller) Save(ctx context.Context) error {
	c.mu.Lock()
	if err := c.requireReadyLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.active == nil {
		c.mu.Unlock()
		return apperror.NewValidation("no_active_view", "there is no saved view to update; use save as")
	}
	if !c.active.CanMutate(c.cfg.Requester) {
		id := c.active.ID
		c.mu.Unlock()
		c.notify(Notice{NoticeWarning, "You can't change a view you don't own. Clone it to keep your changes."})
		return apperror.NewPermission("update", id)
	}
	updated := c.active.Clone()
	updated.ViewLayout = c.state.ViewLayout.Clone()
	gen := c.loadGen
	c.mu.Unlock()

	if err := c.cfg.Gateway.Update(ctx, c.cfg.Requester, updated); err != nil {
		c.log.Errorw("failed to save view", "view_id", updated.ID, "error", err)
		if apperror.IsTransport(err) {
			c.notify(Notice{NoticeError, "Could not reach the server. Your changes are kept; try saving again."})
		}
		return err
	}

	c.mu.Lock()
	c.upsertLocked(updated)
	if gen != c.loadGen {
		c.mu.Unlock()
		c.discard("save")
		return nil
	}
	c.active = updated
	p := c.flushLocked()
	c.mu.Unlock()

	c.log.Infow("saved view", "view_id", updated.ID, "dirty", p.Dirty)
	c.emit(p)
	return nil
}

// SaveAs creates a new view from the live layout and makes it active.
func (c *Controller) SaveAs(ctx context.Context, name string, visibility domain.Visibility) (*domain.SavedView, error) {
	c.mu.Lock()
	if err := c.requireReadyLocked(); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	view := domain.NewSavedView(c.module.EntityType, name, c.cfg.Requester, c.state.ViewLayout)
	if visibility != "" {
		view.Visibility = visibility
	}
	c.loadGen++
	gen := c.loadGen
	c.mu.Unlock()

	if err := c.cfg.Gateway.Create(ctx, c.cfg.Requester, view); err != nil {
		c.log.Errorw("failed to create view", "name", name, "error", err)
		return nil, err
	}

	c.mu.Lock()
	c.upsertLocked(view)
	if gen != c.loadGen {
		c.mu.Unlock()
		c.discard("save_as")
		return view.Clone(), nil
	}
	// edits made while Create was in flight stay live and show as dirty
	c.active = view.Clone()
	c.state.ViewID = view.ID
	p := c.flushLocked()
	c.mu.Unlock()

	c.log.Infow("created view", "view_id", view.ID, "name", name, "visibility", view.Visibility)
	c.emit(p)
	return view.Clone(), nil
}

// DeleteView deletes a view. Deleting the active view falls back to the
// remaining pinned view, or the module defaults, and updates the URL.
func (c *Controller) DeleteView(ctx context.Context, id string) error {
	c.mu.Lock()
	if err := c.requireReadyLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()

	if err := c.cfg.Gateway.Delete(ctx, c.cfg.Requester, id); err != nil {
		switch {
		case apperror.IsPermission(err):
			c.notify(Notice{NoticeWarning, "You can't delete a view you don't own. Clone it instead."})
		case apperror.Rule(err) == domain.RuleLastFallbackView:
			c.notify(Notice{NoticeWarning, "Pin another view before deleting the last pinned view."})
		}
		return err
	}

	c.mu.Lock()
	c.removeLocked(id)
	if c.active == nil || c.active.ID != id {
		c.mu.Unlock()
		c.log.Infow("deleted view", "view_id", id)
		return nil
	}
	c.loadGen++
	c.applyViewLocked(c.fallbackLocked(id))
	p := c.flushLocked()
	c.mu.Unlock()

	c.log.Infow("deleted active view", "view_id", id, "fallback", p.State.ViewID)
	c.emit(p)
	return nil
}

// CloneView copies any readable view into a private view of the requester.
// The active view does not change.
func (c *Controller) CloneView(ctx context.Context, id, name string) (*domain.SavedView, error) {
	clone, err := c.cfg.Gateway.Clone(ctx, c.cfg.Requester, id, name)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.upsertLocked(clone)
	c.mu.Unlock()

	c.log.Infow("cloned view", "source", id, "view_id", clone.ID)
	return clone, nil
}

// MoveView drags one of the requester's tabs. The new order shows at once and
// reverts if the gateway rejects it.
func (c *Controller) MoveView(ctx context.Context, from, to int) ([]string, error) {
	order, err := c.tabs.Move(ctx, from, to)
	if err == nil {
		c.confirmOrder(order)
	}
	return order, err
}

func (c *Controller) MoveViewID(ctx context.Context, id string, to int) ([]string, error) {
	order, err := c.tabs.MoveID(ctx, id, to)
	if err == nil {
		c.confirmOrder(order)
	}
	return order, err
}

// ReorderPhase reports whether a tab drag is awaiting confirmation.
func (c *Controller) ReorderPhase() ordering.Phase {
	return c.tabs.Phase()
}

func (c *Controller) persistOrder(ctx context.Context, ids []string) error {
	return c.cfg.Gateway.Reorder(ctx, c.cfg.Requester, c.module.EntityType, ids)
}

func (c *Controller) confirmOrder(order []string) {
	pos := ordering.Positions(order)
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, v := range c.views {
		if p, ok := pos[v.ID]; ok {
			v.DisplayOrder = p
		}
	}
}

func (c *Controller) onReorderRevert(err error) {
	metrics.ReorderReverts.Inc()
	c.log.Warnw("reverted view reorder", "error", err)
	if apperror.IsPermission(err) {
		c.notify(Notice{NoticeWarning, "You can only reorder your own views."})
		return
	}
	c.notify(Notice{NoticeError, "Could not save the new view order; it has been restored."})
}

// RefreshCount recomputes the cached record count of a view. A failed
// refresh still returns the previous count, flagged stale.
func (c *Controller) RefreshCount(ctx context.Context, id string) (domain.CountStatus, error) {
	status, err := c.cfg.Gateway.RefreshRecordCount(ctx, c.cfg.Requester, id)
	if err != nil {
		c.log.Warnw("count refresh failed", "view_id", id, "error", err)
		return status, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if v := c.findLocked(id); v != nil {
		v.CachedRecordCount = status.Count
		v.CachedRecordCountAt = status.RefreshedAt
	}
	if c.active != nil && c.active.ID == id {
		c.active.CachedRecordCount = status.Count
		c.active.CachedRecordCountAt = status.RefreshedAt
	}
	return status, nil
}
