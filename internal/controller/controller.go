// Package controller holds the live state of one mounted module page and is
// the only writer of it. Every mutation runs to completion under the
// controller's lock; persistence, count refreshes and bulk actions run outside
// it and re-check a generation stamp before touching state again.
package controller

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"viewengine/internal/apperror"
	"viewengine/internal/domain"
	"viewengine/internal/logging"
	"viewengine/internal/metrics"
	"viewengine/internal/ordering"
	"viewengine/internal/query"
	"viewengine/internal/urlstate"
)

// Phase of the controller lifecycle.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseHydrating
	PhaseReady
)

func (p Phase) String() string {
	switch p {
	case PhaseHydrating:
		return "hydrating"
	case PhaseReady:
		return "ready"
	}
	return "uninitialized"
}

// Gateway is the persistence contract the controller consumes.
type Gateway interface {
	List(ctx context.Context, requester, entityType string) ([]*domain.SavedView, error)
	Get(ctx context.Context, requester, id string) (*domain.SavedView, error)
	Create(ctx context.Context, requester string, view *domain.SavedView) error
	Update(ctx context.Context, requester string, view *domain.SavedView) error
	Delete(ctx context.Context, requester, id string) error
	Clone(ctx context.Context, requester, id, name string) (*domain.SavedView, error)
	Reorder(ctx context.Context, requester, entityType string, orderedIDs []string) error
	RefreshRecordCount(ctx context.Context, requester, id string) (domain.CountStatus, error)
	RecordAccess(ctx context.Context, id string) error
}

// Propagation is what the query and URL sinks receive after state settles.
type Propagation struct {
	Generation uint64
	State      domain.ViewRuntimeState
	Request    query.Request
	URL        url.Values
	Dirty      bool
}

type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a toast for the renderer.
type Notice struct {
	Level   NoticeLevel
	Message string
}

type Config struct {
	Requester string
	Module    *domain.ModuleConfig
	Gateway   Gateway
	Limits    domain.Limits
	Debounce  time.Duration
	Clock     clock.Clock
	Logger    *logging.Logger

	// OnPropagate receives debounced state changes. It is called without the
	// controller lock held.
	OnPropagate func(Propagation)
	OnNotice    func(Notice)

	BulkHandlers map[string]BulkHandler
	OnRowClick   func(recordID string)
	OnStatusDrop StatusDropHandler

	// IDGenerator overrides filter group and condition ids.
	IDGenerator func() string
}

type Controller struct {
	mu sync.Mutex

	cfg      Config
	module   *domain.ModuleConfig
	editor   *domain.FilterEditor
	compiler *query.Compiler
	clock    clock.Clock
	log      *logging.Logger

	phase  Phase
	state  domain.ViewRuntimeState
	views  []*domain.SavedView
	active *domain.SavedView

	// loadGen stamps async view loads; mutationGen stamps debounced propagations.
	loadGen     uint64
	mutationGen uint64
	timer       *clock.Timer

	tabs *ordering.Coordinator
}

func New(cfg Config) (*Controller, error) {
	if cfg.Module == nil {
		return nil, fmt.Errorf("controller requires a module configuration")
	}
	if cfg.Gateway == nil {
		return nil, fmt.Errorf("controller requires a gateway")
	}
	if cfg.Requester == "" {
		return nil, fmt.Errorf("controller requires a requester")
	}
	if cfg.Limits == (domain.Limits{}) {
		cfg.Limits = domain.DefaultLimits()
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 300 * time.Millisecond
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Nop()
	}

	editor := domain.NewFilterEditor(cfg.Module, cfg.Limits)
	if cfg.IDGenerator != nil {
		editor = editor.WithIDGenerator(cfg.IDGenerator)
	}

	c := &Controller{
		cfg:      cfg,
		module:   cfg.Module,
		editor:   editor,
		compiler: query.NewCompiler(cfg.Module, cfg.Clock.Now),
		clock:    cfg.Clock,
		log:      cfg.Logger.WithComponent("controller").With("entity_type", cfg.Module.EntityType),
		state:    domain.NewRuntimeState(cfg.Module.EntityType, cfg.Module.DefaultLayout(), cfg.Limits.DefaultPageSize),
	}
	c.tabs = ordering.NewCoordinator(nil, c.persistOrder)
	c.tabs.OnRevert(c.onReorderRevert)
	return c, nil
}

// Hydrate loads the view list and builds the initial state: the view named by
// the URL if the requester can read it, else the first pinned view, else the
// module defaults. URL fields are then applied on top.
func (c *Controller) Hydrate(ctx context.Context, params urlstate.Params) error {
	c.mu.Lock()
	if c.phase == PhaseHydrating {
		c.mu.Unlock()
		return apperror.NewValidation("hydrating", "hydration already in progress")
	}
	c.phase = PhaseHydrating
	c.loadGen++
	gen := c.loadGen
	c.mu.Unlock()

	views, err := c.cfg.Gateway.List(ctx, c.cfg.Requester, c.module.EntityType)
	if err != nil {
		c.mu.Lock()
		c.phase = PhaseUninitialized
		c.mu.Unlock()
		return err
	}

	var notices []Notice

	c.mu.Lock()
	if gen != c.loadGen {
		c.mu.Unlock()
		c.discard("hydrate")
		return nil
	}

	c.views = views
	c.resetTabsLocked()

	var target *domain.SavedView
	if params.ViewID != "" {
		target = c.findLocked(params.ViewID)
		if target == nil {
			notices = append(notices, Notice{NoticeWarning, "The linked view no longer exists; showing the default view."})
		}
	}
	if target == nil {
		target = c.fallbackLocked("")
	}

	c.applyViewLocked(target)
	if urlNotice := c.applyParamsLocked(params); urlNotice != nil {
		notices = append(notices, *urlNotice)
	}
	c.phase = PhaseReady
	p := c.flushLocked()
	c.mu.Unlock()

	c.log.Infow("hydrated", "view_id", p.State.ViewID, "dirty", p.Dirty)
	for _, n := range notices {
		c.notify(n)
	}
	c.emit(p)
	return nil
}

// HydrateFromQuery decodes a raw query string and hydrates. Malformed
// parameters are skipped with a notice.
func (c *Controller) HydrateFromQuery(ctx context.Context, rawQuery string) error {
	params, err := urlstate.DecodeString(rawQuery)
	if err != nil {
		c.log.Warnw("ignoring malformed url parameters", "error", err)
		c.notify(Notice{NoticeWarning, "Some link parameters were invalid and were ignored."})
	}
	return c.Hydrate(ctx, params)
}

// applyParamsLocked overlays URL state. A URL layout the module rejects is
// dropped as a whole.
func (c *Controller) applyParamsLocked(params urlstate.Params) *Notice {
	next := c.state.Clone()
	params.Apply(&next, c.cfg.Limits)
	if err := c.module.ValidateLayout(next.ViewLayout, c.cfg.Limits); err != nil {
		c.log.Warnw("ignoring url layout", "error", err)
		params.HasFilters, params.HasSort = false, false
		next = c.state.Clone()
		params.Apply(&next, c.cfg.Limits)
		c.state = next
		return &Notice{NoticeWarning, "The link's filters or sort are not valid for this module and were ignored."}
	}
	c.state = next
	return nil
}

// Close cancels any pending propagation.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mutationGen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.phase = PhaseUninitialized
}

func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// State returns a snapshot of the runtime state.
func (c *Controller) State() domain.ViewRuntimeState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// IsDirty compares the live layout with the loaded view, or with the module
// defaults when no view is loaded.
func (c *Controller) IsDirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirtyLocked()
}

func (c *Controller) dirtyLocked() bool {
	return c.state.IsDirty(c.baselineLocked())
}

func (c *Controller) baselineLocked() domain.ViewLayout {
	if c.active != nil {
		return c.active.ViewLayout
	}
	return c.module.DefaultLayout()
}

// ActiveView returns a copy of the loaded view, or nil.
func (c *Controller) ActiveView() *domain.SavedView {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return nil
	}
	return c.active.Clone()
}

// Views returns the tabs: the requester's own views in their current order,
// including unconfirmed drags, then shared views.
func (c *Controller) Views() []*domain.SavedView {
	order := ordering.Positions(c.tabs.Order())

	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*domain.SavedView, 0, len(c.views))
	for _, v := range c.views {
		out = append(out, v.Clone())
	}
	slices.SortStableFunc(out, func(a, b *domain.SavedView) int {
		pa, aOwn := order[a.ID]
		pb, bOwn := order[b.ID]
		switch {
		case aOwn && bOwn:
			return pa - pb
		case aOwn:
			return -1
		case bOwn:
			return 1
		}
		return 0
	})
	return out
}

// Request compiles the current state for an executor.
func (c *Controller) Request() query.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.compiler.CompileState(c.state)
}

// URL encodes the current state against the loaded view.
func (c *Controller) URL() (url.Values, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return urlstate.Encode(c.state, c.baselineLocked(), c.cfg.Limits.DefaultPageSize)
}

// VisibleColumns resolves the visible column ids to their definitions.
func (c *Controller) VisibleColumns() []domain.ColumnDef {
	c.mu.Lock()
	defer c.mu.Unlock()
	cols := make([]domain.ColumnDef, 0, len(c.state.ColumnState.VisibleColumnIDs))
	for _, id := range c.state.ColumnState.VisibleColumnIDs {
		if col, ok := c.module.Column(id); ok {
			cols = append(cols, col)
		}
	}
	return cols
}

func (c *Controller) Module() *domain.ModuleConfig {
	return c.module
}

func (c *Controller) requireReadyLocked() error {
	if c.phase != PhaseReady {
		return apperror.NewValidation("not_ready", fmt.Sprintf("controller is %s", c.phase))
	}
	return nil
}

// scheduleLocked restarts the debounce timer. A pending propagation is
// cancelled and counted as coalesced.
func (c *Controller) scheduleLocked() {
	c.mutationGen++
	gen := c.mutationGen
	if c.timer != nil && c.timer.Stop() {
		metrics.CoalescedMutations.WithLabelValues(c.module.EntityType).Inc()
	}
	c.timer = c.clock.AfterFunc(c.cfg.Debounce, func() { c.fire(gen) })
}

func (c *Controller) fire(gen uint64) {
	c.mu.Lock()
	if gen != c.mutationGen || c.phase != PhaseReady {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	p := c.propagationLocked()
	c.mu.Unlock()

	c.emit(p)
}

// flushLocked cancels any pending timer and returns a propagation to emit now.
func (c *Controller) flushLocked() Propagation {
	c.mutationGen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	return c.propagationLocked()
}

func (c *Controller) propagationLocked() Propagation {
	values, err := urlstate.Encode(c.state, c.baselineLocked(), c.cfg.Limits.DefaultPageSize)
	if err != nil {
		c.log.Errorw("failed to encode url state", "error", err)
	}
	return Propagation{
		Generation: c.mutationGen,
		State:      c.state.Clone(),
		Request:    c.compiler.CompileState(c.state),
		URL:        values,
		Dirty:      c.dirtyLocked(),
	}
}

func (c *Controller) emit(p Propagation) {
	metrics.Propagations.WithLabelValues(c.module.EntityType).Inc()
	c.log.Debugw("propagate", "generation", p.Generation, "query", p.Request.Descriptor.String(), "dirty", p.Dirty)
	if c.cfg.OnPropagate != nil {
		c.cfg.OnPropagate(p)
	}
}

func (c *Controller) notify(n Notice) {
	if c.cfg.OnNotice != nil {
		c.cfg.OnNotice(n)
	}
}

// discard logs a superseded async result.
func (c *Controller) discard(op string) {
	metrics.StaleDiscards.WithLabelValues(op).Inc()
	c.log.Warnw("discarded stale result", "operation", op, "error", apperror.NewStaleData(op+" superseded by a newer change"))
}
