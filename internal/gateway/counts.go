package gateway

import (
	"context"

	"golang.org/x/sync/errgroup"

	"viewengine/internal/domain"
	"viewengine/internal/metrics"
	"viewengine/internal/query"
)

// CountStatus returns the last known record count of a view with its
// staleness. It never runs the query.
func (g *Gateway) CountStatus(ctx context.Context, requester, id string) (domain.CountStatus, error) {
	if cached, ok := g.counts.Get(id); ok {
		return g.restamp(cached), nil
	}
	view, err := g.Get(ctx, requester, id)
	if err != nil {
		return domain.CountStatus{}, err
	}
	return view.CountStatusAt(g.clock.Now(), g.cfg.CountTTL), nil
}

func (g *Gateway) restamp(s domain.CountStatus) domain.CountStatus {
	s.Stale = s.RefreshedAt == nil || g.clock.Since(*s.RefreshedAt) > g.cfg.CountTTL
	return s
}

// RefreshRecordCount recomputes a view's count through its executor and caches
// it on the view. When the executor fails the previous count is returned,
// flagged by age, along with the error.
func (g *Gateway) RefreshRecordCount(ctx context.Context, requester, id string) (domain.CountStatus, error) {
	view, err := g.Get(ctx, requester, id)
	if err != nil {
		return domain.CountStatus{}, err
	}
	previous := view.CountStatusAt(g.clock.Now(), g.cfg.CountTTL)

	if err := g.limiter.Wait(ctx); err != nil {
		return previous, err
	}

	start := g.clock.Now()
	count, err := g.count(ctx, view)
	metrics.CountRefreshDuration.Observe(g.clock.Since(start).Seconds())
	if err != nil {
		metrics.CountRefreshes.WithLabelValues("error").Inc()
		g.log.Warnw("count refresh failed", "view_id", id, "error", err)
		return previous, err
	}

	now := g.clock.Now().UTC()
	if err := g.views.SetCachedCount(ctx, id, count, now); err != nil {
		metrics.CountRefreshes.WithLabelValues("error").Inc()
		return previous, err
	}
	metrics.CountRefreshes.WithLabelValues("ok").Inc()

	status := domain.CountStatus{ViewID: id, Count: &count, RefreshedAt: &now}
	g.counts.Add(id, status)
	g.log.Debugw("count refreshed", "view_id", id, "count", count)
	return status, nil
}

func (g *Gateway) count(ctx context.Context, view *domain.SavedView) (int, error) {
	module, err := g.modules.Get(view.EntityType)
	if err != nil {
		return 0, err
	}
	executor, err := g.executors.ExecutorFor(view.EntityType)
	if err != nil {
		return 0, err
	}
	d := query.NewCompiler(module, g.clock.Now).Compile(view.Filters)
	return executor.Count(ctx, d, "")
}

// RefreshAllCounts refreshes every view of entityType readable by requester
// with bounded concurrency. Statuses follow the List order.
func (g *Gateway) RefreshAllCounts(ctx context.Context, requester, entityType string) ([]domain.CountStatus, error) {
	views, err := g.List(ctx, requester, entityType)
	if err != nil {
		return nil, err
	}

	statuses := make([]domain.CountStatus, len(views))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.cfg.RefreshFanOut)

	for i, v := range views {
		eg.Go(func() error {
			status, err := g.RefreshRecordCount(ctx, requester, v.ID)
			statuses[i] = status
			return err
		})
	}

	return statuses, eg.Wait()
}
