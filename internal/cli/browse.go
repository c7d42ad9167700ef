package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"viewengine/internal/controller"
	"viewengine/internal/domain"
	"viewengine/internal/tui"
	"viewengine/internal/urlstate"
)

var (
	browseView string
	browseURL  string
)

var browseCmd = &cobra.Command{
	Use:     "browse <entity-type>",
	Aliases: []string{"tui"},
	Short:   "Browse a module interactively",
	Long: `Launch the interactive module page: saved view tabs, the records table or
board, filters, search and bulk actions.

Keyboard shortcuts:
  Views:
    tab/shift+tab   Next / previous view
    1-9             Jump to view
    < / >           Move view left / right
    ctrl+s / w      Save / save as
    c               Clone view
    d               Delete view
    u               Discard changes
    r               Refresh count

  Records:
    /               Search
    f / F           Edit / clear filters
    s / S           Cycle sort column / toggle order
    [ / ]           Previous / next page
    p               Cycle page size
    Q               Quick filters
    C               Pick, reorder and freeze columns
    b / g           Toggle board / cycle group by
    H / L           Move card to previous / next lane
    space / a / A   Select / select page / clear selection
    x               Run bulk action
    enter           Open record

  Global:
    q               Quit
    ?               Toggle help

Examples:
  viewctl browse cases
  viewctl browse cases --view "My Open"
  viewctl browse cases --url "view=...&page=2"`,
	Args: cobra.ExactArgs(1),
	RunE: runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)

	browseCmd.Flags().StringVar(&browseView, "view", "", "Saved view to open (name or id)")
	browseCmd.Flags().StringVar(&browseURL, "url", "", "Query string to restore, as produced by 'viewctl view url'")
}

func runBrowse(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(a.context())
	defer cancel()

	module, err := a.module(args[0])
	if err != nil {
		a.fail("%v", err)
		return nil
	}
	if _, err := a.views.EnsureDefaults(ctx, a.owner, module.EntityType); err != nil {
		return fmt.Errorf("failed to create default views: %w", err)
	}

	store, err := a.store(module.EntityType)
	if err != nil {
		return err
	}

	feed := tui.NewFeed()
	ctl, err := controller.New(controller.Config{
		Requester:    a.owner,
		Module:       module,
		Gateway:      a.views,
		Limits:       a.cfg.Limits(),
		Debounce:     a.cfg.Debounce(),
		Logger:       a.log,
		OnPropagate:  feed.Publish,
		OnNotice:     feed.Notify,
		BulkHandlers: statusBulkHandlers(module, store.SetField),
		OnStatusDrop: func(ctx context.Context, recordID, propertyID, value string) error {
			return store.SetField(ctx, recordID, propertyID, value)
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start view controller: %w", err)
	}
	defer ctl.Close()

	if browseURL != "" {
		err = ctl.HydrateFromQuery(ctx, browseURL)
	} else {
		var params urlstate.Params
		if browseView != "" {
			view, err := lookupView(ctx, a.views, a.owner, []string{module.EntityType}, browseView)
			if err != nil {
				a.fail("%v", err)
				return nil
			}
			params.ViewID = view.ID
		}
		err = ctl.Hydrate(ctx, params)
	}
	if err != nil {
		return fmt.Errorf("failed to load views: %w", err)
	}

	model := tui.NewModel(ctx, tui.Config{
		Controller: ctl,
		Executor:   store,
		Feed:       feed,
		Styles:     a.styles,
		CountTTL:   a.cfg.CountTTL(),
	})
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

type fieldSetter func(ctx context.Context, id, field string, value any) error

// statusBulkHandlers binds every bulk action whose past tense is an option of
// a status column ("close" sets CLOSED, "approve" sets APPROVED). Other
// actions are left without a handler.
func statusBulkHandlers(module *domain.ModuleConfig, set fieldSetter) map[string]controller.BulkHandler {
	handlers := make(map[string]controller.BulkHandler)
	for _, actionID := range module.BulkActionIDs {
		field, value, ok := statusTarget(module, actionID)
		if !ok {
			continue
		}
		handlers[actionID] = func(ctx context.Context, _ string, ids []string) (controller.BulkOutcome, error) {
			var out controller.BulkOutcome
			for _, id := range ids {
				if err := set(ctx, id, field, value); err != nil {
					if out.Failed == nil {
						out.Failed = make(map[string]error)
					}
					out.Failed[id] = err
					continue
				}
				out.Succeeded = append(out.Succeeded, id)
			}
			return out, nil
		}
	}
	return handlers
}

func statusTarget(module *domain.ModuleConfig, actionID string) (field, value string, ok bool) {
	past := strings.ToUpper(actionID)
	if strings.HasSuffix(past, "E") {
		past += "D"
	} else {
		past += "ED"
	}
	for _, c := range module.Columns {
		if c.Type == domain.PropertyStatus && slices.Contains(c.Options, past) {
			return c.ID, past, true
		}
	}
	return "", "", false
}
