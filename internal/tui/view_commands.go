package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"viewengine/internal/controller"
	"viewengine/internal/domain"
)

type (
	viewAppliedMsg struct {
		viewID string
		err    error
	}

	viewSavedMsg struct {
		view *domain.SavedView
		err  error
	}

	viewDeletedMsg struct {
		viewID string
		err    error
	}

	viewClonedMsg struct {
		view *domain.SavedView
		err  error
	}

	viewMovedMsg struct {
		order []string
		err   error
	}
)

func applyViewCmd(ctx context.Context, ctl *controller.Controller, viewID string) tea.Cmd {
	return func() tea.Msg {
		return viewAppliedMsg{viewID: viewID, err: ctl.SetActiveView(ctx, viewID)}
	}
}

func saveViewCmd(ctx context.Context, ctl *controller.Controller) tea.Cmd {
	return func() tea.Msg {
		err := ctl.Save(ctx)
		return viewSavedMsg{view: ctl.ActiveView(), err: err}
	}
}

func saveViewAsCmd(ctx context.Context, ctl *controller.Controller, name string) tea.Cmd {
	return func() tea.Msg {
		view, err := ctl.SaveAs(ctx, name, domain.VisibilityPrivate)
		return viewSavedMsg{view: view, err: err}
	}
}

func deleteViewCmd(ctx context.Context, ctl *controller.Controller, viewID string) tea.Cmd {
	return func() tea.Msg {
		return viewDeletedMsg{viewID: viewID, err: ctl.DeleteView(ctx, viewID)}
	}
}

func cloneViewCmd(ctx context.Context, ctl *controller.Controller, viewID string) tea.Cmd {
	return func() tea.Msg {
		view, err := ctl.CloneView(ctx, viewID, "")
		return viewClonedMsg{view: view, err: err}
	}
}

func moveViewCmd(ctx context.Context, ctl *controller.Controller, viewID string, to int) tea.Cmd {
	return func() tea.Msg {
		order, err := ctl.MoveViewID(ctx, viewID, to)
		return viewMovedMsg{order: order, err: err}
	}
}
