package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"viewengine/internal/config"
	"viewengine/internal/theme"
	"viewengine/internal/tui"
)

var themeCmd = &cobra.Command{
	Use:   "theme",
	Short: "Manage application theme",
	Long: `Manage application theme settings.

Run without arguments to launch the interactive theme selector, which
previews view tabs, record rows and board lanes in each theme.

Examples:
  viewctl theme              # Launch interactive TUI
  viewctl theme set dracula  # Set theme directly
  viewctl theme list         # List available themes
  viewctl theme show         # Show current theme`,
	RunE: runThemeTUI,
}

var themeSetCmd = &cobra.Command{
	Use:   "set [theme-name]",
	Short: "Set application theme",
	Long: `Set the application theme.

Available themes:
  - default
  - dark
  - light
  - dracula
  - nord
  - gruvbox

Examples:
  viewctl theme set dracula
  viewctl theme set nord`,
	Args: cobra.ExactArgs(1),
	RunE: runThemeSet,
}

var themeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available themes",
	Long:  `List all available themes.`,
	RunE:  runThemeList,
}

var themeShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current theme",
	Long:  `Display the currently selected theme and its color palette.`,
	RunE:  runThemeShow,
}

func init() {
	rootCmd.AddCommand(themeCmd)
	themeCmd.AddCommand(themeSetCmd)
	themeCmd.AddCommand(themeListCmd)
	themeCmd.AddCommand(themeShowCmd)
}

// launches theme selector
func runThemeTUI(cmd *cobra.Command, args []string) error {
	model := tui.NewSetupModel()
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run theme TUI: %w", err)
	}

	// read config to see which theme was selected
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.ThemeName != "" {
		fmt.Println()
		fmt.Printf("✓ Theme set to '%s'\n", cfg.ThemeName)
		fmt.Println()
	}

	return nil
}

// sets the theme directly
func runThemeSet(cmd *cobra.Command, args []string) error {
	themeName := args[0]

	if !theme.ThemeExists(themeName) {
		return fmt.Errorf("theme '%s' not found. Run 'viewctl theme list' to see available themes", themeName)
	}

	if err := config.UpdateTheme(themeName); err != nil {
		return fmt.Errorf("failed to update theme: %w", err)
	}

	fmt.Printf("✓ Theme set to '%s'\n", themeName)
	return nil
}

func currentThemeName() string {
	cfg, err := config.LoadConfig()
	if err != nil {
		cfg = config.GetDefaultConfig()
	}
	name, _ := theme.Current(cfg.ThemeName)
	return name
}

func runThemeList(cmd *cobra.Command, args []string) error {
	current := currentThemeName()
	styles := theme.Resolve(current)

	fmt.Println()
	fmt.Println(styles.Header.Render(" Available Themes "))
	fmt.Println()
	for _, name := range theme.ListThemes() {
		if name == current {
			fmt.Printf("▶ %s\n", styles.Success.Render(name+" (current)"))
			continue
		}
		fmt.Printf("  %s\n", name)
	}
	fmt.Println()
	return nil
}

type swatch struct {
	name  string
	color string
}

// runThemeShow prints the palette and a sample of how views and records
// render with it.
func runThemeShow(cmd *cobra.Command, args []string) error {
	name, t := theme.Current(currentThemeName())
	styles := theme.NewStyles(t)

	fmt.Println()
	fmt.Println(styles.Header.Render(fmt.Sprintf(" Current Theme: %s ", name)))
	fmt.Println()

	fmt.Println(styles.Info.Render("Color Palette:"))
	fmt.Println()
	swatches := []swatch{
		{"Primary", t.Primary},
		{"Success", t.Success},
		{"Error", t.Error},
		{"Warning", t.Warning},
		{"Info", t.Info},
		{"Text", t.TextPrimary},
		{"Border", t.BorderColor},
		{"Pinned", t.Pinned},
		{"Dirty", t.Dirty},
		{"Stale", t.Stale},
	}
	for i, lane := range t.Lanes {
		swatches = append(swatches, swatch{fmt.Sprintf("Lane %d", i+1), lane})
	}
	for _, s := range swatches {
		sample := styles.Cell.
			Background(lipgloss.Color(s.color)).
			Foreground(lipgloss.Color(s.color)).
			Render("  ████  ")
		fmt.Printf("  %-12s %s %s\n", s.name+":", sample, s.color)
	}

	fmt.Println()
	fmt.Println(styles.Info.Render("Preview:"))
	fmt.Println()
	fmt.Println("  " + lipgloss.JoinHorizontal(lipgloss.Top,
		styles.TabActive.Render(styles.PinnedMark.Render("📌")+" My Open "+styles.DirtyBadge.Render("•")),
		styles.TabInactive.Render("Escalated 12"),
		styles.TabInactive.Render("Unassigned "+styles.StaleBadge.Render("~4")),
	))
	lanes := make([]string, 0, len(t.Lanes))
	for i, status := range []string{"OPEN", "IN_PROGRESS", "CLOSED"} {
		lanes = append(lanes, styles.LaneHeader(i).Render(status)+"  ")
	}
	fmt.Println("  " + lipgloss.JoinHorizontal(lipgloss.Top, lanes...))
	fmt.Println()
	return nil
}
