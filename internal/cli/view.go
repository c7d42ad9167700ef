package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/spf13/cobra"

	"viewengine/internal/apperror"
	"viewengine/internal/display"
	"viewengine/internal/domain"
	"viewengine/internal/export"
	"viewengine/internal/ordering"
	"viewengine/internal/urlstate"
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Manage saved views",
	Long: `Manage saved views: named bundles of filter groups, visible columns,
sort order and presentation for one module.

Views are private by default. Shared views (team or everyone) can be read
and cloned by others but only changed by their owner. Every module keeps at
least one pinned view as its fallback.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	rootCmd.AddCommand(viewCmd)
	viewCmd.AddCommand(viewListCmd)
	viewCmd.AddCommand(viewShowCmd)
	viewCmd.AddCommand(viewSaveCmd)
	viewCmd.AddCommand(viewUpdateCmd)
	viewCmd.AddCommand(viewCloneCmd)
	viewCmd.AddCommand(viewDeleteCmd)
	viewCmd.AddCommand(viewMoveCmd)
	viewCmd.AddCommand(viewURLCmd)
	viewCmd.AddCommand(viewCountCmd)
	viewCmd.AddCommand(viewExportCmd)
	viewCmd.AddCommand(viewImportCmd)
}

var (
	listViewCounts bool
	listViewMine   bool
	listViewRecent int
)

var viewListCmd = &cobra.Command{
	Use:   "list [entity-type]",
	Short: "List saved views",
	Long: `List the views you can read, your own first in tab order, then views
shared with you by name. Without an entity type every module is listed.

Examples:
  viewctl view list
  viewctl view list cases --counts
  viewctl view list cases --mine
  viewctl view list cases --recent 5`,
	Args: cobra.MaximumNArgs(1),
	RunE: runViewList,
}

func init() {
	viewListCmd.Flags().BoolVar(&listViewCounts, "counts", false, "Refresh record counts before listing")
	viewListCmd.Flags().BoolVar(&listViewMine, "mine", false, "Show only your own views")
	viewListCmd.Flags().IntVar(&listViewRecent, "recent", 0, "Show only the N most recently opened views")
}

func runViewList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := a.context()
	styles := a.styles

	entityTypes := a.modules.EntityTypes()
	if len(args) > 0 {
		if _, err := a.module(args[0]); err != nil {
			a.fail("%v", err)
			return nil
		}
		entityTypes = args[:1]
	}

	now := time.Now()
	total := 0
	for _, et := range entityTypes {
		if listViewCounts {
			if _, err := a.views.RefreshAllCounts(ctx, a.owner, et); err != nil {
				fmt.Println(styles.Warning.Render(fmt.Sprintf("⚠ Some counts for %s could not be refreshed: %v", et, err)))
			}
		}

		var views []*domain.SavedView
		if listViewRecent > 0 {
			views, err = a.views.Recent(ctx, a.owner, et, listViewRecent)
		} else {
			views, err = a.views.List(ctx, a.owner, et)
		}
		if err != nil {
			a.fail("Failed to list views: %v", err)
			return nil
		}
		if listViewMine {
			views = ownViews(views, a.owner)
		}
		if len(views) == 0 {
			continue
		}

		module, _ := a.module(et)
		fmt.Println()
		fmt.Println(styles.Title.Render(fmt.Sprintf("%s (%s)", module.DisplayName, et)))

		headers := []string{
			styles.Header.Render("#"),
			styles.Header.Render("Name"),
			styles.Header.Render("Owner"),
			styles.Header.Render("Visibility"),
			styles.Header.Render("Mode"),
			styles.Header.Render("Filters"),
			styles.Header.Render("Count"),
			styles.Header.Render("ID"),
		}
		fmt.Println(strings.Join(headers, " | "))
		fmt.Println(styles.Separator.Render(strings.Repeat("─", 110)))

		for i, v := range views {
			name := v.Name
			if v.Pinned {
				name = styles.PinnedMark.Render(v.GetPinnedIndicator()) + " " + name
			}
			count := display.FormatCount(v.CountStatusAt(now, a.cfg.CountTTL()))
			if v.CountStatusAt(now, a.cfg.CountTTL()).Stale {
				count = styles.StaleBadge.Render(count)
			}
			row := []string{
				strconv.Itoa(i + 1),
				name,
				v.OwnerID,
				display.GetVisibilityIcon(v.Visibility) + " " + string(v.Visibility),
				string(v.ViewMode),
				v.GetFilterSummary(),
				count,
				styles.Muted.Render(v.ID),
			}
			fmt.Println(strings.Join(row, " | "))
		}
		total += len(views)
	}

	fmt.Println()
	if total == 0 {
		fmt.Println(styles.Info.Render("No views found."))
	} else {
		fmt.Printf("Total: %d view(s)\n", total)
	}
	fmt.Println()
	return nil
}

func ownViews(views []*domain.SavedView, owner string) []*domain.SavedView {
	out := make([]*domain.SavedView, 0, len(views))
	for _, v := range views {
		if v.OwnerID == owner {
			out = append(out, v)
		}
	}
	return out
}

var viewShowCmd = &cobra.Command{
	Use:   "show <name|id>",
	Short: "Show a view's layout and properties",
	Long: `Show the filters, columns, sort and presentation a view stores.

Examples:
  viewctl view show "My Open"
  viewctl view show 3f6c1e2a-...`,
	Args: cobra.ExactArgs(1),
	RunE: runViewShow,
}

func runViewShow(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := a.context()
	styles := a.styles

	view, err := lookupView(ctx, a.views, a.owner, a.modules.EntityTypes(), args[0])
	if err != nil {
		a.fail("%v", err)
		return nil
	}
	module, err := a.module(view.EntityType)
	if err != nil {
		a.fail("%v", err)
		return nil
	}
	status, err := a.views.CountStatus(ctx, a.owner, view.ID)
	if err != nil {
		status = view.CountStatusAt(time.Now(), a.cfg.CountTTL())
	}

	fmt.Println()
	fmt.Println(styles.Title.Render(fmt.Sprintf("View: %s %s", view.Name, view.GetPinnedIndicator())))

	fmt.Printf("%s\n", styles.Subtitle.Render("Layout:"))
	fmt.Printf("  Module:        %s (%s)\n", module.DisplayName, view.EntityType)
	fmt.Printf("  Filters:       %s\n", formatFilters(module, view.Filters))
	fmt.Printf("  Columns:       %s\n", strings.Join(view.ColumnState.VisibleColumnIDs, ", "))
	fmt.Printf("  Frozen:        %d\n", view.ColumnState.FrozenCount)
	fmt.Printf("  Sort:          %s\n", formatSort(view.SortState))
	fmt.Printf("  Mode:          %s\n", view.ViewMode)
	fmt.Printf("  Group By:      %s\n", displayValue(view.BoardGroupByPropertyID))
	fmt.Println()

	fmt.Printf("%s\n", styles.Subtitle.Render("Properties:"))
	fmt.Printf("  ID:            %s\n", view.ID)
	fmt.Printf("  Owner:         %s\n", view.OwnerID)
	fmt.Printf("  Visibility:    %s %s\n", display.GetVisibilityIcon(view.Visibility), view.Visibility)
	fmt.Printf("  Pinned:        %s\n", displayBool(view.Pinned))
	fmt.Printf("  Records:       %s\n", display.FormatCount(status))
	fmt.Println()

	now := time.Now()
	fmt.Printf("%s\n", styles.Subtitle.Render("Timestamps:"))
	fmt.Printf("  Created:       %s\n", view.CreatedAt.Local().Format("2006-01-02 15:04"))
	fmt.Printf("  Updated:       %s\n", view.UpdatedAt.Local().Format("2006-01-02 15:04"))
	fmt.Printf("  Last Opened:   %s\n", display.FormatRelative(view.LastAccessedAt, now))
	fmt.Printf("  Counted:       %s\n", display.FormatRelative(status.RefreshedAt, now))
	fmt.Println()
	return nil
}

var (
	saveViewOpts       layoutOptions
	saveViewVisibility string
	saveViewPinned     bool
)

var viewSaveCmd = &cobra.Command{
	Use:   "save <entity-type> [name]",
	Short: "Save a new view",
	Long: `Save a new view for a module. Unset layout flags take the module defaults.

The --where flag uses the filter syntax: conditions joined by spaces are
ANDed within a group, and groups separated by | are ORed.

Examples:
  viewctl view save cases "My Open" --where "status:OPEN assignee:none"
  viewctl view save cases Escalations --where "status:ESCALATED | priority:CRITICAL" --sort "createdAt desc"
  viewctl view save cases Board --mode board --group-by priority --visibility team`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runViewSave,
}

func addLayoutFlags(cmd *cobra.Command, opts *layoutOptions) {
	cmd.Flags().StringVar(&opts.where, "where", "", "Filter text, e.g. \"status:OPEN priority:HIGH | assignee:none\"")
	cmd.Flags().StringVar(&opts.sort, "sort", "", "Sort as \"column [asc|desc]\", or \"none\"")
	cmd.Flags().StringSliceVar(&opts.columns, "columns", nil, "Visible columns in order (comma-separated); the first column is always kept")
	cmd.Flags().StringVar(&opts.mode, "mode", "", "Presentation (table, board)")
	cmd.Flags().StringVar(&opts.groupBy, "group-by", "", "Board grouping property")
}

func init() {
	addLayoutFlags(viewSaveCmd, &saveViewOpts)
	viewSaveCmd.Flags().StringVar(&saveViewVisibility, "visibility", "private", "Visibility (private, team, everyone)")
	viewSaveCmd.Flags().BoolVar(&saveViewPinned, "pinned", false, "Pin the view as a module fallback")
}

func runViewSave(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := a.context()
	styles := a.styles

	module, err := a.module(args[0])
	if err != nil {
		a.fail("%v", err)
		return nil
	}

	var name string
	if len(args) > 1 {
		name = args[1]
	} else {
		name, err = promptForInput("View name", "")
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
	}

	visibility, err := domain.ParseVisibility(saveViewVisibility)
	if err != nil {
		a.fail("%v", err)
		return nil
	}

	layout, err := applyLayoutOptions(module, a.cfg.Limits(), module.DefaultLayout(), saveViewOpts, cmd.Flags().Changed)
	if err != nil {
		a.fail("Invalid layout: %v", err)
		return nil
	}

	view := domain.NewSavedView(module.EntityType, name, a.owner, layout)
	view.Visibility = visibility
	view.Pinned = saveViewPinned

	if err := a.views.Create(ctx, a.owner, view); err != nil {
		a.fail("Failed to save view: %v", err)
		return nil
	}

	fmt.Println()
	fmt.Println(styles.Success.Render(fmt.Sprintf("✓ View '%s' saved successfully!", view.Name)))
	fmt.Println()
	fmt.Println(styles.Subtitle.Render("View Details:"))
	fmt.Println(styles.Info.Render(fmt.Sprintf("  ID: %s", view.ID)))
	fmt.Println(styles.Info.Render(fmt.Sprintf("  Filters: %s", formatFilters(module, view.Filters))))
	fmt.Println(styles.Info.Render(fmt.Sprintf("  Position: %d", view.DisplayOrder+1)))
	fmt.Println()
	return nil
}

var (
	updateViewOpts       layoutOptions
	updateViewName       string
	updateViewVisibility string
	updateViewPinned     bool
)

var viewUpdateCmd = &cobra.Command{
	Use:   "update <name|id>",
	Short: "Update one of your views",
	Long: `Update the name, visibility, pin or layout of a view you own.
Only the flags you pass are changed.

Examples:
  viewctl view update "My Open" --sort "priority desc"
  viewctl view update "My Open" --name "Mine" --visibility team
  viewctl view update Escalations --where ""`,
	Args: cobra.ExactArgs(1),
	RunE: runViewUpdate,
}

func init() {
	addLayoutFlags(viewUpdateCmd, &updateViewOpts)
	viewUpdateCmd.Flags().StringVar(&updateViewName, "name", "", "New view name")
	viewUpdateCmd.Flags().StringVar(&updateViewVisibility, "visibility", "", "Visibility (private, team, everyone)")
	viewUpdateCmd.Flags().BoolVar(&updateViewPinned, "pinned", false, "Pin or unpin the view")
}

func runViewUpdate(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := a.context()
	flags := cmd.Flags()

	view, err := lookupView(ctx, a.views, a.owner, a.modules.EntityTypes(), args[0])
	if err != nil {
		a.fail("%v", err)
		return nil
	}
	module, err := a.module(view.EntityType)
	if err != nil {
		a.fail("%v", err)
		return nil
	}

	updated := view.Clone()
	changes := 0
	if flags.Changed("name") {
		updated.Name = updateViewName
		changes++
	}
	if flags.Changed("visibility") {
		if updated.Visibility, err = domain.ParseVisibility(updateViewVisibility); err != nil {
			a.fail("%v", err)
			return nil
		}
		changes++
	}
	if flags.Changed("pinned") {
		updated.Pinned = updateViewPinned
		changes++
	}
	for _, f := range []string{"where", "sort", "columns", "mode", "group-by"} {
		if flags.Changed(f) {
			changes++
		}
	}
	if changes == 0 {
		fmt.Println(a.styles.Warning.Render("No changes specified. Use --help to see available flags."))
		return nil
	}

	updated.ViewLayout, err = applyLayoutOptions(module, a.cfg.Limits(), view.ViewLayout, updateViewOpts, flags.Changed)
	if err != nil {
		a.fail("Invalid layout: %v", err)
		return nil
	}

	if err := a.views.Update(ctx, a.owner, updated); err != nil {
		if apperror.IsPermission(err) {
			a.fail("Only %s can change '%s'; clone it to make your own copy", view.OwnerID, view.Name)
			return nil
		}
		a.fail("Failed to update view: %v", err)
		return nil
	}

	fmt.Println(a.styles.Success.Render(fmt.Sprintf("✓ View '%s' updated", updated.Name)))
	return nil
}

var viewCloneCmd = &cobra.Command{
	Use:   "clone <name|id> [new-name]",
	Short: "Copy any readable view into a private view of your own",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runViewClone,
}

func runViewClone(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := a.context()

	source, err := lookupView(ctx, a.views, a.owner, a.modules.EntityTypes(), args[0])
	if err != nil {
		a.fail("%v", err)
		return nil
	}
	name := ""
	if len(args) > 1 {
		name = args[1]
	}

	clone, err := a.views.Clone(ctx, a.owner, source.ID, name)
	if err != nil {
		a.fail("Failed to clone view: %v", err)
		return nil
	}

	fmt.Println(a.styles.Success.Render(fmt.Sprintf("✓ Cloned '%s' as '%s'", source.Name, clone.Name)))
	fmt.Println(a.styles.Info.Render(fmt.Sprintf("  ID: %s", clone.ID)))
	return nil
}

var deleteViewConfirm bool

var viewDeleteCmd = &cobra.Command{
	Use:   "delete <name|id>",
	Short: "Delete one of your views",
	Long: `Delete a view you own. The last pinned view of a module cannot be
deleted; pin another view first.

Examples:
  viewctl view delete "Old view"
  viewctl view delete "Old view" --confirm`,
	Args: cobra.ExactArgs(1),
	RunE: runViewDelete,
}

func init() {
	viewDeleteCmd.Flags().BoolVarP(&deleteViewConfirm, "confirm", "y", false, "Skip confirmation prompt")
}

func runViewDelete(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := a.context()

	view, err := lookupView(ctx, a.views, a.owner, a.modules.EntityTypes(), args[0])
	if err != nil {
		a.fail("%v", err)
		return nil
	}

	if !deleteViewConfirm && !promptForConfirmation(fmt.Sprintf("Delete view '%s'?", view.Name)) {
		fmt.Println("Cancelled.")
		return nil
	}

	if err := a.views.Delete(ctx, a.owner, view.ID); err != nil {
		a.fail("Failed to delete view: %v", err)
		return nil
	}

	fmt.Println(a.styles.Success.Render(fmt.Sprintf("✓ View '%s' deleted", view.Name)))
	return nil
}

var viewMoveCmd = &cobra.Command{
	Use:   "move <name|id> <position>",
	Short: "Move one of your views to another tab position",
	Long: `Move a view you own to a 1-based position among your views of the same
module. The new order is stored atomically.

Examples:
  viewctl view move "My Open" 1`,
	Args: cobra.ExactArgs(2),
	RunE: runViewMove,
}

func runViewMove(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := a.context()

	position, err := strconv.Atoi(args[1])
	if err != nil || position < 1 {
		a.fail("Invalid position '%s': must be a positive number", args[1])
		return nil
	}

	view, err := lookupView(ctx, a.views, a.owner, a.modules.EntityTypes(), args[0])
	if err != nil {
		a.fail("%v", err)
		return nil
	}
	if view.OwnerID != a.owner {
		a.fail("Only your own views can be reordered")
		return nil
	}

	views, err := a.views.List(ctx, a.owner, view.EntityType)
	if err != nil {
		a.fail("Failed to list views: %v", err)
		return nil
	}
	own := ownViews(views, a.owner)
	ids := make([]string, len(own))
	for i, v := range own {
		ids[i] = v.ID
	}

	order, err := ordering.MoveID(ids, view.ID, min(position, len(ids))-1)
	if err != nil {
		a.fail("%v", err)
		return nil
	}
	if err := a.views.Reorder(ctx, a.owner, view.EntityType, order); err != nil {
		a.fail("Failed to reorder views: %v", err)
		return nil
	}

	fmt.Println(a.styles.Success.Render(fmt.Sprintf("✓ '%s' moved to position %d", view.Name, min(position, len(ids)))))
	return nil
}

var (
	urlViewSearch string
	urlViewPage   int
)

var viewURLCmd = &cobra.Command{
	Use:   "url <name|id>",
	Short: "Print the shareable query string of a view",
	Long: `Print the query string that reopens a view, optionally with a search
and page. Pass it to "viewctl browse --url" or "viewctl records list --url".`,
	Args: cobra.ExactArgs(1),
	RunE: runViewURL,
}

func init() {
	viewURLCmd.Flags().StringVar(&urlViewSearch, "search", "", "Free-text search to include")
	viewURLCmd.Flags().IntVar(&urlViewPage, "page", 1, "Page to include")
}

func runViewURL(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := a.context()

	view, err := lookupView(ctx, a.views, a.owner, a.modules.EntityTypes(), args[0])
	if err != nil {
		a.fail("%v", err)
		return nil
	}

	limits := a.cfg.Limits()
	state := domain.NewRuntimeState(view.EntityType, view.ViewLayout, limits.DefaultPageSize)
	state.ViewID = view.ID
	state.SearchQuery = urlViewSearch
	state.Page = max(1, urlViewPage)

	raw, err := urlstate.EncodeString(state, view.ViewLayout, limits.DefaultPageSize)
	if err != nil {
		return fmt.Errorf("failed to encode url state: %w", err)
	}
	fmt.Println(raw)
	return nil
}

var viewCountCmd = &cobra.Command{
	Use:   "count <name|id>",
	Short: "Refresh and print a view's record count",
	Args:  cobra.ExactArgs(1),
	RunE:  runViewCount,
}

func runViewCount(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := a.context()

	view, err := lookupView(ctx, a.views, a.owner, a.modules.EntityTypes(), args[0])
	if err != nil {
		a.fail("%v", err)
		return nil
	}

	status, err := a.views.RefreshRecordCount(ctx, a.owner, view.ID)
	if err != nil {
		a.fail("Failed to count records: %v", err)
		return nil
	}
	fmt.Printf("%s: %s records\n", view.Name, display.FormatCount(status))
	return nil
}

var (
	exportViewOutput string
	exportViewMine   bool
)

var viewExportCmd = &cobra.Command{
	Use:   "export <entity-type>",
	Short: "Export views as JSON",
	Long: `Export the layouts of the views you can read for one module as JSON.
Ids, owners and counts are not exported.

Examples:
  viewctl view export cases -o cases-views.json
  viewctl view export cases --mine`,
	Args: cobra.ExactArgs(1),
	RunE: runViewExport,
}

func init() {
	viewExportCmd.Flags().StringVarP(&exportViewOutput, "output", "o", "", "Output file (default: stdout)")
	viewExportCmd.Flags().BoolVar(&exportViewMine, "mine", false, "Export only your own views")
}

func runViewExport(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := a.context()

	if _, err := a.module(args[0]); err != nil {
		a.fail("%v", err)
		return nil
	}

	out := os.Stdout
	if exportViewOutput != "" {
		f, err := os.Create(exportViewOutput)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	exporter := export.NewJSONExporter(a.views, clock.New())
	if err := exporter.ExportViewsToWriter(ctx, out, a.owner, args[0], exportViewMine); err != nil {
		a.fail("Failed to export views: %v", err)
		return nil
	}

	if exportViewOutput != "" {
		fmt.Println(a.styles.Success.Render(fmt.Sprintf("✓ Views exported to %s", exportViewOutput)))
	}
	return nil
}

var importViewConflict string

var viewImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import views from a JSON export",
	Long: `Import views from a file written by "viewctl view export". Imported
views are owned by you. A name that matches one of your views is handled
by --conflict: skip, overwrite or rename.

Examples:
  viewctl view import cases-views.json
  viewctl view import cases-views.json --conflict rename`,
	Args: cobra.ExactArgs(1),
	RunE: runViewImport,
}

func init() {
	viewImportCmd.Flags().StringVar(&importViewConflict, "conflict", string(export.ConflictStrategySkip), "Name conflict strategy (skip, overwrite, rename)")
}

func runViewImport(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := a.context()

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open import file: %w", err)
	}
	defer f.Close()

	summary, err := export.NewImporter(a.views).ImportViews(ctx, f, a.owner, export.ConflictStrategy(importViewConflict))
	if err != nil {
		a.fail("Import failed: %v", err)
		return nil
	}

	fmt.Println(a.styles.Success.Render(fmt.Sprintf("✓ Imported %d view(s)", len(summary.Created)+len(summary.Overwritten))))
	printNames("Created", summary.Created)
	printNames("Overwritten", summary.Overwritten)
	printNames("Skipped", summary.Skipped)
	return nil
}

func printNames(label string, names []string) {
	if len(names) == 0 {
		return
	}
	fmt.Printf("  %-12s %s\n", label+":", strings.Join(names, ", "))
}
