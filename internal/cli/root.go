package cli

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"viewengine/internal/config"
	"viewengine/internal/theme"
	"viewengine/internal/tui"
)

// owner override for every command
var asOwner string

var rootCmd = &cobra.Command{
	Use:   "viewctl",
	Short: "viewctl - saved views for record modules",
	Long: `viewctl manages saved views over configurable record modules.

A saved view bundles filter groups, visible columns, sort order and the
table or board presentation. Views can be kept private or shared, pinned,
reordered, exported, and browsed interactively.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// check if we need to run initial setup
		return checkAndRunSetup()
	},
	Run: func(cmd *cobra.Command, args []string) {
		displayWelcome()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&asOwner, "as", "", "Act as this owner instead of the configured owner_id")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func displayWelcome() {
	// load theme
	cfg, err := config.LoadConfig()
	if err != nil {
		// fallback to default
		cfg = config.GetDefaultConfig()
	}

	styles := theme.Resolve(cfg.ThemeName)

	title := styles.Title.Render(`
		------------------------------------------------------

		                 V I E W C T L

		------------------------------------------------------
	`)
	subtitle := styles.Subtitle.Render("Filters, columns and boards you can come back to")

	fmt.Println()
	fmt.Println(title)
	fmt.Println(subtitle)
	fmt.Println()
	fmt.Println("Run 'viewctl --help' to see available commands.")
	fmt.Println()
}

// checks if initial setup is needed and runs it
func checkAndRunSetup() error {
	// load config
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// if theme not set then run initial setup
	if cfg.ThemeName == "" {
		fmt.Println()
		fmt.Println("Welcome to viewctl! Let's set up your theme.")
		fmt.Println()

		model := tui.NewSetupModel()
		p := tea.NewProgram(model, tea.WithAltScreen())

		if _, err := p.Run(); err != nil {
			return fmt.Errorf("failed to run setup: %w", err)
		}

		// read config to see which theme was selected
		cfg, err = config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config after setup: %w", err)
		}

		fmt.Println()
		if cfg.ThemeName != "" {
			fmt.Printf("✓ Theme configured: '%s'\n", cfg.ThemeName)
		} else {
			fmt.Println("Theme configuration complete!")
		}
		fmt.Println()
	}

	return nil
}
