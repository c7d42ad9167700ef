package theme

import (
	"github.com/charmbracelet/lipgloss"
)

type Styles struct {
	theme *Theme

	// cli
	Success   lipgloss.Style
	Error     lipgloss.Style
	Warning   lipgloss.Style
	Info      lipgloss.Style
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Header    lipgloss.Style
	Cell      lipgloss.Style
	Separator lipgloss.Style

	// view state
	PinnedMark lipgloss.Style
	DirtyBadge lipgloss.Style
	StaleBadge lipgloss.Style
	Muted      lipgloss.Style

	// tui
	TUITitle        lipgloss.Style
	TUISubtitle     lipgloss.Style
	TUIHelp         lipgloss.Style
	TabActive       lipgloss.Style
	TabInactive     lipgloss.Style
	LaneContainer   lipgloss.Style
	CardSelected    lipgloss.Style
	DetailContainer lipgloss.Style
	DetailLabel     lipgloss.Style
	DetailValue     lipgloss.Style
}

// creates all styles based on the given theme
func NewStyles(t *Theme) *Styles {
	return &Styles{
		theme: t,

		Success: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Success)).
			Bold(true),

		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Error)).
			Bold(true),

		Warning: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Warning)),

		Info: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Primary)),

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(t.Secondary)).
			PaddingTop(1).
			PaddingBottom(1),

		Subtitle: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.SubtitleText)).
			Italic(true),

		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(t.HeaderFg)).
			Background(lipgloss.Color(t.HeaderBg)).
			PaddingLeft(1).
			PaddingRight(1),

		Cell: lipgloss.NewStyle().
			PaddingLeft(1).
			PaddingRight(1),

		Separator: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Separator)),

		PinnedMark: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Pinned)),

		DirtyBadge: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Dirty)).
			Bold(true),

		StaleBadge: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Stale)).
			Italic(true),

		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.TextMuted)),

		TUITitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(t.TextPrimary)).
			Background(lipgloss.Color(t.HeaderBg)).
			Padding(0, 1),

		TUISubtitle: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.TextSecondary)),

		TUIHelp: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.HelpText)),

		TabActive: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(t.TabActiveFg)).
			Background(lipgloss.Color(t.TabActiveBg)).
			Padding(0, 1),

		TabInactive: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.TextSecondary)).
			Padding(0, 1),

		LaneContainer: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(t.BorderColor)).
			Padding(0, 1),

		CardSelected: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.SelectedFg)).
			Background(lipgloss.Color(t.SelectedBg)).
			Bold(true),

		DetailContainer: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(t.BorderColor)).
			Padding(1, 2),

		DetailLabel: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Primary)).
			Bold(true),

		DetailValue: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.TextPrimary)),
	}
}

func (s *Styles) Theme() *Theme {
	return s.theme
}

// LaneHeader styles the title of the i-th board lane.
func (s *Styles) LaneHeader(i int) lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(s.theme.LaneColor(i)))
}

// Notice styles a toast by level name (info, warning, error).
func (s *Styles) Notice(level string) lipgloss.Style {
	switch level {
	case "error":
		return s.Error
	case "warning":
		return s.Warning
	}
	return s.Info
}
