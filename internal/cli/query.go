package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"viewengine/internal/domain"
	"viewengine/internal/executor"
	"viewengine/internal/export"
	"viewengine/internal/query"
)

var queryCmd = &cobra.Command{
	Use:     "filter",
	Aliases: []string{"query"},
	Short:   "Filter syntax help and utilities",
	Long:    `Display the filter syntax reference and check filter text against a module.`,
}

var queryHelpCmd = &cobra.Command{
	Use:   "help",
	Short: "Display filter syntax reference",
	Long:  `Display the filter syntax reference with examples.`,
	Run: func(cmd *cobra.Command, args []string) {
		printQueryHelp()
	},
}

var queryCheckCmd = &cobra.Command{
	Use:   "check <entity-type> <filter>",
	Short: "Parse filter text and print its canonical form",
	Long: `Parse filter text against a module and print the filter groups it
produces, in the same form 'view show' uses.

Examples:
  viewctl filter check cases "status:OPEN,NEW priority:HIGH,CRITICAL"
  viewctl filter check cases "createdAt>-7d | status:ESCALATED"
  viewctl filter check cases "status:OPEN" --against sample.json`,
	Args: cobra.ExactArgs(2),
	RunE: runQueryCheck,
}

var queryCheckAgainst string

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.AddCommand(queryHelpCmd)
	queryCmd.AddCommand(queryCheckCmd)

	queryCheckCmd.Flags().StringVar(&queryCheckAgainst, "against", "", "JSON file of sample records to count matches in")
}

func runQueryCheck(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	module, err := a.module(args[0])
	if err != nil {
		a.fail("%v", err)
		return nil
	}

	layout, err := applyLayoutOptions(module, a.cfg.Limits(), module.DefaultLayout(),
		layoutOptions{where: args[1]}, func(flag string) bool { return flag == "where" })
	if err != nil {
		a.fail("Invalid filter: %v", err)
		return nil
	}

	fmt.Println(a.styles.Success.Render("✓ Filter is valid"))
	for i, g := range layout.Filters {
		fmt.Printf("  group %d: %s\n", i+1, query.FormatFilterGroupSet(domain.FilterGroupSet{g}, module))
	}
	if len(layout.Filters) == 0 {
		fmt.Println(a.styles.Info.Render("  (no conditions, every record matches)"))
	}

	if queryCheckAgainst == "" {
		return nil
	}
	f, err := os.Open(queryCheckAgainst)
	if err != nil {
		return fmt.Errorf("failed to open sample records: %w", err)
	}
	defer f.Close()

	ctx := a.context()
	sample := executor.NewMemory(module, nil)
	total, err := export.ImportRecords(ctx, f, sample)
	if err != nil {
		a.fail("Failed to read sample records: %v", err)
		return nil
	}
	n, err := sample.Count(ctx, query.NewCompiler(module, time.Now).Compile(layout.Filters), "")
	if err != nil {
		a.fail("Failed to evaluate filter: %v", err)
		return nil
	}
	fmt.Printf("\n%s of %d sample record(s) match\n", a.styles.Info.Render(fmt.Sprintf("%d", n)), total)
	return nil
}

func printQueryHelp() {
	help := `
Filter Syntax Reference

Filters are written as field/value pairs. Pairs separated by spaces must all
match (AND); groups separated by | are alternatives (OR).
Use it with: viewctl view save --where "..." or viewctl records list --where "..."

TEXT FIELDS:
  title:<value>        Is exactly value
  title~<value>        Contains value
  title:<value>*       Starts with value
  title:*<value>       Ends with value
  -title~<value>       Does not contain value

CHOICE FIELDS (enum, status, person):
  status:OPEN          Is OPEN
  status:OPEN,NEW      Is any of OPEN, NEW
  status!=CLOSED       Is none of CLOSED

NUMBER FIELDS:
  lossAmount:100       Equal to
  lossAmount>=100      Also >, <, <= and !=
  lossAmount:10..50    Between 10 and 50

DATE FIELDS:
  dueAt:today          On a day (today, tomorrow, yesterday, 2026-01-15)
  dueAt<+7d            Before a day (offsets in d, w, M, y)
  createdAt>-7d        Within the last 7 days
  createdAt<-30d       More than 30 days ago
  dueAt:-1M..today     Between two days

BOOLEAN FIELDS:
  anonymous:true       Also false, yes, no

ANY FIELD:
  assignee:none        Has no value
  assignee:any         Has a value

EXAMPLES:
  viewctl records list cases --where "status:OPEN priority:HIGH,CRITICAL"
    → Open cases of high or critical priority

  viewctl records list cases --where "createdAt>-7d | status:ESCALATED"
    → Cases created this week, or escalated at any time

  viewctl records list cases --where "assignee:none status!=CLOSED"
    → Unassigned cases that are not closed

TIPS:
  - Field names are module column ids (see 'viewctl module show <entity>')
  - Choice values are case-insensitive
  - Quote values that contain spaces: title:"broken laptop"
`
	fmt.Println(help)
}
