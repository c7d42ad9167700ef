package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"viewengine/internal/display"
)

var moduleCmd = &cobra.Command{
	Use:     "module",
	Aliases: []string{"modules", "mod"},
	Short:   "Inspect registered modules",
	Long: `Inspect the modules the engine knows about. Built-in modules are always
registered; extra ones are read from the modules_dir configured in config.yaml.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	rootCmd.AddCommand(moduleCmd)
	moduleCmd.AddCommand(moduleListCmd)
	moduleCmd.AddCommand(moduleShowCmd)
}

var moduleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered modules",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		styles := a.styles
		list := a.modules.List()

		fmt.Println()
		fmt.Println(styles.Title.Render(fmt.Sprintf("Modules (%d)", len(list))))
		fmt.Println()
		fmt.Printf("%-16s %-24s %-8s %s\n",
			styles.Header.Render("ENTITY"),
			styles.Header.Render("NAME"),
			styles.Header.Render("COLUMNS"),
			styles.Header.Render("DEFAULT VIEWS"))
		fmt.Println(styles.Separator.Render(strings.Repeat("─", 80)))

		for _, m := range list {
			names := make([]string, len(m.DefaultViews))
			for i, dv := range m.DefaultViews {
				names[i] = dv.Name
			}
			fmt.Printf("%-16s %-24s %-8d %s\n", m.EntityType, m.DisplayName, len(m.Columns), strings.Join(names, ", "))
		}
		fmt.Println()
		return nil
	},
}

var moduleShowCmd = &cobra.Command{
	Use:   "show <entity-type>",
	Short: "Show a module's columns and defaults",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		styles := a.styles
		m, err := a.module(args[0])
		if err != nil {
			a.fail("%v", err)
			return nil
		}

		fmt.Println()
		fmt.Println(styles.Title.Render(fmt.Sprintf("%s (%s)", m.DisplayName, m.EntityType)))
		fmt.Println()

		fmt.Printf("%-18s %-10s %-5s %-6s %s\n",
			styles.Header.Render("COLUMN"),
			styles.Header.Render("TYPE"),
			styles.Header.Render("SORT"),
			styles.Header.Render("FILTER"),
			styles.Header.Render("OPTIONS"))
		fmt.Println(styles.Separator.Render(strings.Repeat("─", 80)))
		for _, c := range m.Columns {
			id := c.ID
			if c.HiddenByDefault {
				id += "*"
			}
			fmt.Printf("%-18s %-10s %-5s %-6s %s\n",
				id, c.Type, displayBool(c.Sortable), displayBool(c.Filterable),
				displayValue(strings.Join(c.Options, ", ")))
		}
		fmt.Println(styles.Muted.Render("* hidden by default"))
		fmt.Println()

		fmt.Printf("%s %s\n", styles.Subtitle.Render("Quick filters:"), displayValue(strings.Join(m.QuickFilterPropertyIDs, ", ")))
		fmt.Printf("%s %s\n", styles.Subtitle.Render("Bulk actions:"), displayValue(strings.Join(m.BulkActionIDs, ", ")))
		if m.Board != nil {
			fmt.Printf("%s %s (default %s)\n", styles.Subtitle.Render("Board:"),
				strings.Join(m.Board.GroupableByPropertyIDs, ", "), displayValue(m.Board.DefaultGroupBy))
		} else {
			fmt.Printf("%s %s\n", styles.Subtitle.Render("Board:"), "-")
		}

		if len(m.DefaultViews) > 0 {
			fmt.Println()
			fmt.Println(styles.Header.Render("Default views"))
			for _, dv := range m.DefaultViews {
				layout := m.LayoutFor(dv)
				fmt.Printf("  %s %s  filters: %s  sort: %s\n", display.GetPinnedIcon(dv.Pinned), dv.Name,
					formatFilters(m, layout.Filters), formatSort(layout.SortState))
			}
		}
		fmt.Println()
		return nil
	},
}
