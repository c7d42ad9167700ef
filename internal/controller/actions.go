package controller

import (
	"context"
	"fmt"
	"slices"

	"viewengine/internal/apperror"
	"viewengine/internal/domain"
)

type BulkStatus string

const (
	BulkSuccess BulkStatus = "success"
	BulkPartial BulkStatus = "partial"
	BulkFailure BulkStatus = "failure"
)

// BulkOutcome reports which records a bulk action changed.
type BulkOutcome struct {
	Succeeded []string
	Failed    map[string]error
}

func (o BulkOutcome) Status() BulkStatus {
	switch {
	case len(o.Failed) == 0:
		return BulkSuccess
	case len(o.Succeeded) == 0:
		return BulkFailure
	}
	return BulkPartial
}

// BulkHandler runs an externally registered bulk action over a snapshot of
// the selection.
type BulkHandler func(ctx context.Context, actionID string, ids []string) (BulkOutcome, error)

// StatusDropHandler moves a record to another board lane by writing the
// grouped property.
type StatusDropHandler func(ctx context.Context, recordID, propertyID, value string) error

// RunBulkAction hands a snapshot of the selection to the action's handler and
// deselects those rows once the handler reports back, whatever the outcome.
// Rows selected while the handler runs stay selected.
func (c *Controller) RunBulkAction(ctx context.Context, actionID string) (BulkOutcome, error) {
	c.mu.Lock()
	if err := c.requireReadyLocked(); err != nil {
		c.mu.Unlock()
		return BulkOutcome{}, err
	}
	if !c.module.IsBulkAction(actionID) {
		c.mu.Unlock()
		return BulkOutcome{}, apperror.NewValidation("unknown_bulk_action",
			fmt.Sprintf("%s has no bulk action %q", c.module.DisplayName, actionID))
	}
	handler, ok := c.cfg.BulkHandlers[actionID]
	if !ok {
		c.mu.Unlock()
		return BulkOutcome{}, apperror.NewValidation("unknown_bulk_action",
			fmt.Sprintf("no handler is registered for bulk action %q", actionID))
	}
	ids := c.state.SelectedIDs()
	c.mu.Unlock()

	if len(ids) == 0 {
		return BulkOutcome{}, apperror.NewValidation("empty_selection", "select at least one record")
	}

	outcome, err := handler(ctx, actionID, slices.Clone(ids))
	if err != nil && len(outcome.Succeeded) == 0 && len(outcome.Failed) == 0 {
		outcome.Failed = make(map[string]error, len(ids))
		for _, id := range ids {
			outcome.Failed[id] = err
		}
	}

	c.mu.Lock()
	for _, id := range ids {
		delete(c.state.SelectedRowIDs, id)
	}
	p := c.flushLocked()
	c.mu.Unlock()

	status := outcome.Status()
	c.log.Infow("bulk action finished", "action", actionID, "selected", len(ids),
		"succeeded", len(outcome.Succeeded), "failed", len(outcome.Failed), "status", status)

	switch status {
	case BulkSuccess:
		c.notify(Notice{NoticeInfo, fmt.Sprintf("%s: %d records updated.", actionID, len(outcome.Succeeded))})
	case BulkPartial:
		c.notify(Notice{NoticeWarning, fmt.Sprintf("%s: %d of %d records updated.", actionID, len(outcome.Succeeded), len(ids))})
	default:
		c.notify(Notice{NoticeError, fmt.Sprintf("%s failed for every selected record.", actionID)})
	}

	// records may have changed, so the query sinks rerun
	c.emit(p)
	return outcome, err
}

// OnRowClick forwards a row click to the host.
func (c *Controller) OnRowClick(recordID string) {
	if c.cfg.OnRowClick != nil {
		c.cfg.OnRowClick(recordID)
	}
}

// OnStatusDrop handles a card dropped into another lane of the board.
func (c *Controller) OnStatusDrop(ctx context.Context, recordID, newGroupValue string) error {
	c.mu.Lock()
	if err := c.requireReadyLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.state.ViewMode != domain.ViewModeBoard || c.state.BoardGroupByPropertyID == "" {
		c.mu.Unlock()
		return apperror.NewValidation(domain.RuleInvalidView, "cards can only be dropped in board mode")
	}
	groupBy := c.state.BoardGroupByPropertyID
	c.mu.Unlock()

	prop, _ := c.module.PropertyByID(groupBy)
	if len(prop.Options) > 0 && newGroupValue != "" && !slices.Contains(prop.Options, newGroupValue) {
		return apperror.NewValidation(domain.RuleValueNotAllowed,
			fmt.Sprintf("%q is not a valid %s", newGroupValue, prop.Label()))
	}
	if c.cfg.OnStatusDrop == nil {
		return apperror.NewValidation("no_drop_handler", "moving cards is not supported here")
	}

	if err := c.cfg.OnStatusDrop(ctx, recordID, groupBy, newGroupValue); err != nil {
		c.log.Warnw("status drop failed", "record_id", recordID, "property", groupBy, "error", err)
		c.notify(Notice{NoticeError, "Could not move the card."})
		return err
	}

	c.mu.Lock()
	p := c.flushLocked()
	c.mu.Unlock()

	c.log.Infow("moved card", "record_id", recordID, "property", groupBy, "value", newGroupValue)
	c.emit(p)
	return nil
}
