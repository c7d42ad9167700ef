package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"viewengine/internal/display"
	"viewengine/internal/domain"
	"viewengine/internal/export"
	"viewengine/internal/query"
	"viewengine/internal/urlstate"
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Load and query module records",
	Long: `Load records into a module and list them through a saved view or
ad-hoc filters.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	rootCmd.AddCommand(recordsCmd)
	recordsCmd.AddCommand(recordsImportCmd)
	recordsCmd.AddCommand(recordsListCmd)
}

var recordsImportCmd = &cobra.Command{
	Use:   "import <entity-type> <file>",
	Short: "Import records from a JSON array",
	Long: `Import records from a JSON array of objects. Every object needs an "id";
an existing record with the same id is replaced.

Examples:
  viewctl records import cases cases.json`,
	Args: cobra.ExactArgs(2),
	RunE: runRecordsImport,
}

func runRecordsImport(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := a.context()

	store, err := a.store(args[0])
	if err != nil {
		a.fail("%v", err)
		return nil
	}

	f, err := os.Open(args[1])
	if err != nil {
		return fmt.Errorf("failed to open import file: %w", err)
	}
	defer f.Close()

	n, err := export.ImportRecords(ctx, f, store)
	if err != nil {
		a.fail("Import failed: %v", err)
		return nil
	}

	fmt.Println(a.styles.Success.Render(fmt.Sprintf("✓ Imported %d record(s) into %s", n, args[0])))
	return nil
}

var (
	recordsListView     string
	recordsListOpts     layoutOptions
	recordsListSearch   string
	recordsListPage     int
	recordsListPageSize int
	recordsListURL      string
)

var recordsListCmd = &cobra.Command{
	Use:   "list <entity-type>",
	Short: "List records through a view",
	Long: `List one page of records. The layout starts from --view (or the module
defaults) and is then overridden by --url and the layout flags.

Examples:
  viewctl records list cases --view "My Open"
  viewctl records list cases --where "priority:HIGH,CRITICAL" --sort "createdAt desc"
  viewctl records list cases --url "view=...&q=laptop&page=2"`,
	Args: cobra.ExactArgs(1),
	RunE: runRecordsList,
}

func init() {
	recordsListCmd.Flags().StringVar(&recordsListView, "view", "", "Saved view name or id")
	addLayoutFlags(recordsListCmd, &recordsListOpts)
	recordsListCmd.Flags().StringVarP(&recordsListSearch, "search", "s", "", "Free-text search")
	recordsListCmd.Flags().IntVarP(&recordsListPage, "page", "p", 1, "Page number")
	recordsListCmd.Flags().IntVar(&recordsListPageSize, "page-size", 0, "Records per page (default from config)")
	recordsListCmd.Flags().StringVar(&recordsListURL, "url", "", "Query string produced by 'viewctl view url'")
}

func runRecordsList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := a.context()
	styles := a.styles
	flags := cmd.Flags()
	limits := a.cfg.Limits()

	module, err := a.module(args[0])
	if err != nil {
		a.fail("%v", err)
		return nil
	}

	var params urlstate.Params
	if recordsListURL != "" {
		if params, err = urlstate.DecodeString(recordsListURL); err != nil {
			fmt.Println(styles.Warning.Render(fmt.Sprintf("⚠ Some url parameters were ignored: %v", err)))
		}
	}

	ref := recordsListView
	if ref == "" {
		ref = params.ViewID
	}
	layout := module.DefaultLayout()
	var view *domain.SavedView
	if ref != "" {
		view, err = lookupView(ctx, a.views, a.owner, []string{module.EntityType}, ref)
		if err != nil {
			a.fail("%v", err)
			return nil
		}
		layout = view.ViewLayout
		if err := a.views.RecordAccess(ctx, view.ID); err != nil {
			a.log.Warnw("failed to record view access", "view_id", view.ID, "error", err)
		}
	}

	state := domain.NewRuntimeState(module.EntityType, layout, limits.DefaultPageSize)
	params.Apply(&state, limits)

	state.ViewLayout, err = applyLayoutOptions(module, limits, state.ViewLayout, recordsListOpts, flags.Changed)
	if err != nil {
		a.fail("Invalid layout: %v", err)
		return nil
	}
	if err := module.ValidateLayout(state.ViewLayout, limits); err != nil {
		a.fail("Invalid layout: %v", err)
		return nil
	}
	if flags.Changed("search") {
		state.SearchQuery = recordsListSearch
		if query.IsFilterExpression(recordsListSearch) {
			fmt.Println(styles.Warning.Render("⚠ --search is free text; use --where for filter syntax"))
		}
	}
	if flags.Changed("page") {
		state.Page = max(1, recordsListPage)
	}
	if flags.Changed("page-size") {
		state.PageSize = min(max(1, recordsListPageSize), limits.MaxPageSize)
	}

	store, err := a.store(module.EntityType)
	if err != nil {
		return err
	}
	req := query.NewCompiler(module, time.Now).CompileState(state)
	result, err := store.Execute(ctx, req)
	if err != nil {
		a.fail("Failed to list records: %v", err)
		return nil
	}

	title := module.DisplayName
	if view != nil {
		title = fmt.Sprintf("%s: %s", module.DisplayName, view.Name)
	}
	fmt.Println()
	fmt.Println(styles.Title.Render(title))

	if len(result.Records) == 0 {
		fmt.Println(styles.Info.Render("No records found."))
		fmt.Println()
		return nil
	}

	var cols []domain.ColumnDef
	for _, id := range state.ColumnState.VisibleColumnIDs {
		if c, ok := module.Column(id); ok {
			cols = append(cols, c)
		}
	}

	headers := make([]string, 0, len(cols))
	for _, c := range cols {
		headers = append(headers, styles.Header.Render(c.Label()))
	}
	fmt.Println(strings.Join(headers, " | "))
	fmt.Println(styles.Separator.Render(strings.Repeat("─", 100)))

	for _, rec := range result.Records {
		row := make([]string, 0, len(cols))
		for _, c := range cols {
			row = append(row, display.Truncate(display.FormatValue(c.PropertyDescriptor, rec[c.ID]), 40))
		}
		fmt.Println(strings.Join(row, " | "))
	}

	pages := 1
	if state.PageSize > 0 {
		pages = max(1, (result.Total+state.PageSize-1)/state.PageSize)
	}
	fmt.Println()
	fmt.Printf("Page %d/%d • %d record(s)\n", state.Page, pages, result.Total)
	fmt.Println()
	return nil
}
