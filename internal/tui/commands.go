package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"viewengine/internal/controller"
	"viewengine/internal/domain"
	"viewengine/internal/query"
	"viewengine/internal/repository"
)

// Message types for async operations

// propagatedMsg carries a controller propagation into the update loop
type propagatedMsg struct {
	p controller.Propagation
}

// noticeMsg carries a user-facing controller notice
type noticeMsg struct {
	n controller.Notice
}

// recordsLoadedMsg is sent when a page of records has been fetched for the
// propagation with the given generation
type recordsLoadedMsg struct {
	generation uint64
	result     query.Result
	err        error
}

// countRefreshedMsg is sent when the active view's count was refreshed
type countRefreshedMsg struct {
	status domain.CountStatus
	err    error
}

// bulkDoneMsg is sent when a bulk action handler has reported its outcome
type bulkDoneMsg struct {
	actionID string
	outcome  controller.BulkOutcome
	err      error
}

// recordUpdatedMsg is sent when a record was edited in place
type recordUpdatedMsg struct {
	recordID string
}

// errMsg wraps errors from async operations
type errMsg struct {
	err error
}

func (e errMsg) Error() string {
	return e.err.Error()
}

// Bubble Tea commands for async operations

// waitForPropagation blocks until the controller propagates a new state
func waitForPropagation(ctx context.Context, feed *Feed) tea.Cmd {
	return func() tea.Msg {
		p, ok := feed.Next(ctx)
		if !ok {
			return nil
		}
		return propagatedMsg{p: p}
	}
}

// waitForNotice blocks until the controller posts a notice
func waitForNotice(ctx context.Context, feed *Feed) tea.Cmd {
	return func() tea.Msg {
		n, ok := feed.NextNotice(ctx)
		if !ok {
			return nil
		}
		return noticeMsg{n: n}
	}
}

// fetchRecordsCmd executes a compiled request against the record executor
func fetchRecordsCmd(ctx context.Context, exec repository.RecordExecutor, generation uint64, req query.Request) tea.Cmd {
	return func() tea.Msg {
		result, err := exec.Execute(ctx, req)
		return recordsLoadedMsg{generation: generation, result: result, err: err}
	}
}

// refreshCountCmd refreshes the cached record count of a view
func refreshCountCmd(ctx context.Context, ctl *controller.Controller, viewID string) tea.Cmd {
	return func() tea.Msg {
		status, err := ctl.RefreshCount(ctx, viewID)
		return countRefreshedMsg{status: status, err: err}
	}
}

// bulkActionCmd runs a bulk action over the current selection
func bulkActionCmd(ctx context.Context, ctl *controller.Controller, actionID string) tea.Cmd {
	return func() tea.Msg {
		outcome, err := ctl.RunBulkAction(ctx, actionID)
		return bulkDoneMsg{actionID: actionID, outcome: outcome, err: err}
	}
}

// statusDropCmd moves a record to another board lane
func statusDropCmd(ctx context.Context, ctl *controller.Controller, recordID, value string) tea.Cmd {
	return func() tea.Msg {
		if err := ctl.OnStatusDrop(ctx, recordID, value); err != nil {
			return errMsg{err}
		}
		return recordUpdatedMsg{recordID: recordID}
	}
}
