package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"viewengine/internal/domain"
	"viewengine/internal/query"
	"viewengine/internal/theme"
)

var statsCmd = &cobra.Command{
	Use:   "stats <entity-type>",
	Short: "Show module statistics",
	Long: `Display statistics for one module.

Provides an overview of:
  - Saved views you can read, by owner and visibility
  - Cached record counts and how many are stale
  - Record totals and the distribution of the board grouping

Examples:
  viewctl stats cases
  viewctl stats cases --by priority`,
	Args: cobra.ExactArgs(1),
	RunE: runStats,
}

var statsGroupBy string

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().StringVar(&statsGroupBy, "by", "", "Property to break records down by (default: board grouping)")
}

type laneCount struct {
	value string
	count int
}

func runStats(cmd *cobra.Command, args []string) error {
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

	views, err := a.views.List(ctx, a.owner, module.EntityType)
	if err != nil {
		a.fail("Failed to get views: %v", err)
		return nil
	}

	store, err := a.store(module.EntityType)
	if err != nil {
		return err
	}
	compiler := query.NewCompiler(module, time.Now)
	total, err := store.Count(ctx, compiler.Compile(nil), "")
	if err != nil {
		a.fail("Failed to count records: %v", err)
		return nil
	}

	prop, ok := statsProperty(module, statsGroupBy)
	var lanes []laneCount
	if ok {
		for _, opt := range prop.Options {
			set := domain.FilterGroupSet{{
				ID: "stats",
				Conditions: []domain.FilterCondition{{
					ID:         "stats",
					PropertyID: prop.ID,
					Operator:   domain.OpIsAnyOf,
					Value:      domain.ListValue(opt).Ptr(),
				}},
			}}
			n, err := store.Count(ctx, compiler.Compile(set), "")
			if err != nil {
				a.fail("Failed to count %s: %v", opt, err)
				return nil
			}
			lanes = append(lanes, laneCount{value: opt, count: n})
		}
	} else if statsGroupBy != "" {
		fmt.Println(styles.Warning.Render(fmt.Sprintf("⚠ %s has no fixed options to group by", statsGroupBy)))
	}

	fmt.Println()
	fmt.Println(styles.Title.Render(fmt.Sprintf("📊 %s Statistics", module.DisplayName)))
	fmt.Println()

	displayViewStatistics(views, a.owner, a.cfg.CountTTL(), styles)

	fmt.Println(styles.Subtitle.Render("Records"))
	fmt.Printf("  Total:  %s\n", styles.Info.Render(fmt.Sprintf("%d", total)))
	fmt.Println()

	if len(lanes) > 0 {
		fmt.Println(styles.Subtitle.Render(fmt.Sprintf("By %s", prop.Label())))
		width := 0
		for _, l := range lanes {
			width = max(width, len(l.value))
		}
		for i, l := range lanes {
			pct := 0.0
			if total > 0 {
				pct = float64(l.count) / float64(total) * 100
			}
			fmt.Printf("  %-*s %s %s\n", width+1, l.value+":",
				styles.LaneHeader(i).Render(renderBar(int(pct/5), 20, "█")),
				fmt.Sprintf("%d (%.1f%%)", l.count, pct))
		}
		fmt.Println()
	}

	fmt.Printf("Calculated at: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Println()
	return nil
}

// statsProperty picks the property to break records down by: the named one,
// else the board's default grouping, else the first status column.
func statsProperty(module *domain.ModuleConfig, name string) (domain.PropertyDescriptor, bool) {
	if name != "" {
		prop, ok := module.PropertyByID(name)
		return prop, ok && len(prop.Options) > 0
	}
	if module.Board != nil {
		if prop, ok := module.PropertyByID(module.Board.DefaultGroupBy); ok && len(prop.Options) > 0 {
			return prop, true
		}
	}
	for _, c := range module.Columns {
		if c.Type == domain.PropertyStatus && len(c.Options) > 0 {
			return c.PropertyDescriptor, true
		}
	}
	return domain.PropertyDescriptor{}, false
}

func displayViewStatistics(views []*domain.SavedView, owner string, ttl time.Duration, styles *theme.Styles) {
	var own, shared, pinned, counted, stale int
	now := time.Now()
	for _, v := range views {
		if v.OwnerID == owner {
			own++
		} else {
			shared++
		}
		if v.Pinned {
			pinned++
		}
		status := v.CountStatusAt(now, ttl)
		if status.Count != nil {
			counted++
			if status.Stale {
				stale++
			}
		}
	}

	fmt.Println(styles.Subtitle.Render("Views"))
	fmt.Printf("  Total:    %s\n", styles.Info.Render(fmt.Sprintf("%d", len(views))))
	fmt.Printf("  Own:      %s\n", styles.Cell.Render(fmt.Sprintf("%d", own)))
	fmt.Printf("  Shared:   %s\n", styles.Cell.Render(fmt.Sprintf("%d", shared)))
	fmt.Printf("  Pinned:   %s %s\n", styles.PinnedMark.Render(fmt.Sprintf("%d", pinned)), "📌")
	fmt.Printf("  Counted:  %s\n", renderCountFreshness(counted, stale, styles))
	fmt.Println()
}

func renderBar(value, maxWidth int, char string) string {
	if value > maxWidth {
		value = maxWidth
	}
	if value < 0 {
		value = 0
	}
	return strings.Repeat(char, value)
}

func renderCountFreshness(counted, stale int, styles *theme.Styles) string {
	if counted == 0 {
		return styles.Muted.Render("none yet (run 'viewctl view list --counts')")
	}
	if stale == 0 {
		return styles.Success.Render(fmt.Sprintf("%d, all fresh", counted))
	}
	return fmt.Sprintf("%s %s", styles.Info.Render(fmt.Sprintf("%d", counted)),
		styles.StaleBadge.Render(fmt.Sprintf("(%d stale)", stale)))
}
