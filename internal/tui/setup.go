package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"viewengine/internal/config"
	"viewengine/internal/display"
	"viewengine/internal/domain"
	"viewengine/internal/theme"
)

type setupKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Confirm key.Binding
	Quit    key.Binding
}

var setupKeys = setupKeyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Confirm: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// SetupModel is the first-run theme picker. Moving through the list restyles
// the preview of view tabs, records and board lanes.
type SetupModel struct {
	themes   []string
	cursor   int
	current  *theme.Theme
	styles   *theme.Styles
	width    int
	height   int
	done     bool
	saved    bool
	saveErr  error
	saveFunc func(name string) error
}

func NewSetupModel() SetupModel {
	m := SetupModel{
		themes:   theme.ListThemes(),
		width:    100,
		height:   30,
		saveFunc: config.UpdateTheme,
	}
	m.selectTheme(0)
	return m
}

func (m *SetupModel) selectTheme(i int) {
	if i < 0 || i >= len(m.themes) {
		return
	}
	m.cursor = i
	_, m.current = theme.Current(m.themes[i])
	m.styles = theme.NewStyles(m.current)
}

// Selected is the theme under the cursor.
func (m SetupModel) Selected() string {
	return m.themes[m.cursor]
}

func (m SetupModel) Init() tea.Cmd {
	return nil
}

func (m SetupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, setupKeys.Quit):
			m.done = true
			return m, tea.Quit
		case key.Matches(msg, setupKeys.Up):
			m.selectTheme(m.cursor - 1)
		case key.Matches(msg, setupKeys.Down):
			m.selectTheme(m.cursor + 1)
		case key.Matches(msg, setupKeys.Confirm):
			m.saveErr = m.saveFunc(m.Selected())
			m.saved = m.saveErr == nil
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m SetupModel) View() string {
	switch {
	case m.done && m.saveErr != nil:
		return m.styles.Warning.Render(fmt.Sprintf("Could not save theme %q: %v", m.Selected(), m.saveErr)) + "\n"
	case m.done && m.saved:
		return ""
	case m.done:
		return "Setup cancelled.\n"
	case m.width < 60 || m.height < 10:
		return "Terminal too small. Please resize and try again.\n"
	}

	leftWidth := max(30, m.width/3)
	rightWidth := max(30, m.width-leftWidth-4)
	main := lipgloss.JoinHorizontal(lipgloss.Top,
		m.pane(leftWidth, m.renderThemeList(leftWidth)),
		m.pane(rightWidth, m.renderPreview(m.styles, rightWidth)),
	)

	help := make([]string, 0, 4)
	for _, b := range []key.Binding{setupKeys.Up, setupKeys.Down, setupKeys.Confirm, setupKeys.Quit} {
		help = append(help, b.Help().Key+": "+b.Help().Desc)
	}
	return fmt.Sprintf("%s\n%s\n\n%s\n\n%s",
		m.styles.TUITitle.Render("viewctl Initial Setup"),
		m.styles.TUISubtitle.Render("Select a theme to get started"),
		main,
		m.styles.TUIHelp.Render(strings.Join(help, " • ")))
}

func (m SetupModel) pane(width int, content string) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(m.height - 4).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.current.BorderColor)).
		Padding(1).
		Render(content)
}

func (m SetupModel) heading(text string) string {
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.current.Primary)).Render(text)
}

func (m SetupModel) renderThemeList(width int) string {
	selected := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.current.SelectedFg)).
		Background(lipgloss.Color(m.current.SelectedBg)).
		Bold(true).
		Width(width - 4)
	other := lipgloss.NewStyle().Foreground(lipgloss.Color(m.current.TextSecondary)).Width(width - 4)

	lines := []string{m.heading("Available Themes"), ""}
	for i, name := range m.themes {
		if i == m.cursor {
			lines = append(lines, selected.Render("▶ "+name))
			continue
		}
		lines = append(lines, other.Render("  "+name))
	}
	return strings.Join(lines, "\n") + "\n"
}

func (m SetupModel) renderPreview(styles *theme.Styles, width int) string {
	var b strings.Builder
	b.WriteString(m.heading("Preview"))
	b.WriteString("\n\n")

	b.WriteString(m.renderTabsPreview(styles))
	b.WriteString("\n\n")

	sepWidth := max(1, width-4)
	sep := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.current.Separator)).
		Render(strings.Repeat("─", sepWidth))

	b.WriteString(m.renderRowsPreview(styles))
	b.WriteString(sep)
	b.WriteString("\n")
	b.WriteString(m.renderLanesPreview(styles))
	b.WriteString("\n")
	b.WriteString(styles.Success.Render("✓ Saved view 'Escalations'"))
	b.WriteString("\n")
	b.WriteString(styles.Warning.Render("Filter was reset because it no longer matches the module"))
	b.WriteString("\n")

	return b.String()
}

type previewView struct {
	name   string
	pinned bool
	count  domain.CountStatus
}

func (m SetupModel) renderTabsPreview(styles *theme.Styles) string {
	now := time.Now()
	refreshed := now.Add(-time.Minute)
	old := now.Add(-time.Hour)
	views := []previewView{
		{name: "All Cases", pinned: true, count: domain.CountStatus{Count: intPtr(128), RefreshedAt: &refreshed}},
		{name: "My Open", count: domain.CountStatus{Count: intPtr(12), RefreshedAt: &old, Stale: true}},
		{name: "Escalations"},
	}

	tabs := make([]string, 0, len(views))
	for i, v := range views {
		label := v.name
		if v.pinned {
			label = styles.PinnedMark.Render(display.GetPinnedIcon(true)) + " " + label
		}
		label += " " + styles.Muted.Render(display.FormatCount(v.count))
		if i == 0 {
			label += " " + styles.DirtyBadge.Render("●")
			tabs = append(tabs, styles.TabActive.Render(label))
			continue
		}
		tabs = append(tabs, styles.TabInactive.Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m SetupModel) renderRowsPreview(styles *theme.Styles) string {
	var b strings.Builder

	rows := [][]string{
		{"☑", "Card dispute over refund", "OPEN", "HIGH"},
		{"☐", "Chargeback follow-up", "IN_REVIEW", "MEDIUM"},
		{"☐", "Duplicate payment", "CLOSED", "LOW"},
	}

	header := fmt.Sprintf("%-2s %-26s %-10s %s", " ", "Title", "Status", "Priority")
	b.WriteString(styles.Header.Render(header))
	b.WriteString("\n")
	for i, r := range rows {
		line := fmt.Sprintf("%-2s %-26s %-10s %s", r[0], display.Truncate(r[1], 26), r[2], r[3])
		if i == 0 {
			line = lipgloss.NewStyle().
				Foreground(lipgloss.Color(m.current.SelectedFg)).
				Background(lipgloss.Color(m.current.SelectedBg)).
				Bold(true).
				Render(line)
		} else {
			line = lipgloss.NewStyle().
				Foreground(lipgloss.Color(m.current.TextPrimary)).
				Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString(styles.TUISubtitle.Render("filter: status:OPEN  •  sort: priority desc  •  page 1/3"))
	b.WriteString("\n")

	return b.String()
}

func (m SetupModel) renderLanesPreview(styles *theme.Styles) string {
	lanes := []struct {
		title string
		cards []string
	}{
		{"OPEN", []string{"Card dispute", "Address change"}},
		{"IN_REVIEW", []string{"Chargeback"}},
		{"CLOSED", []string{"Duplicate payment"}},
	}

	columns := make([]string, 0, len(lanes))
	for i, lane := range lanes {
		lines := []string{styles.LaneHeader(i).Render(fmt.Sprintf("%s (%d)", lane.title, len(lane.cards)))}
		for j, card := range lane.cards {
			if i == 0 && j == 0 {
				card = styles.CardSelected.Render(card)
			}
			lines = append(lines, card)
		}
		columns = append(columns, styles.LaneContainer.Width(18).Render(strings.Join(lines, "\n")))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, columns...)
}

func intPtr(n int) *int {
	return &n
}
