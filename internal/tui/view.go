package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"viewengine/internal/display"
)

// renders the UI
func (m Model) View() string {
	var b strings.Builder

	title := m.styles.TUITitle.Render(fmt.Sprintf("  %s  ", m.module.DisplayName))
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")

	if m.confirm.active {
		b.WriteString(m.renderConfirmDialog())
		b.WriteString("\n")
		return b.String()
	}

	switch {
	case m.viewMode == detailView:
		b.WriteString(m.renderDetailView())
	case m.isBoard():
		b.WriteString(m.renderBoardView())
	default:
		b.WriteString(m.renderTableView())
	}

	b.WriteString("\n")
	if line := m.renderInputLine(); line != "" {
		b.WriteString(line)
		b.WriteString("\n")
	}
	switch m.uiMode {
	case bulkPickingMode:
		b.WriteString(m.renderBulkPicker())
		b.WriteString("\n")
	case columnPickingMode:
		b.WriteString(m.renderColumnPicker())
		b.WriteString("\n")
	case quickFilterMode:
		b.WriteString(m.renderQuickFilterPicker())
		b.WriteString("\n")
	}
	b.WriteString(m.renderMessages())
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n")
	b.WriteString(m.help.View(helpKeys{m.keys, m.showHelp}))

	return b.String()
}

// helpKeys switches bubbles/help between the short and full binding lists.
type helpKeys struct {
	keys keyMap
	full bool
}

func (h helpKeys) ShortHelp() []key.Binding { return h.keys.ShortHelp() }

func (h helpKeys) FullHelp() [][]key.Binding {
	if !h.full {
		return [][]key.Binding{h.keys.ShortHelp()}
	}
	return h.keys.FullHelp()
}

// renderTabs shows the views in tab order with counts; the active tab carries
// the dirty badge.
func (m Model) renderTabs() string {
	if len(m.views) == 0 {
		return m.styles.Muted.Render("no saved views")
	}
	active := m.ctl.ActiveView()
	now := time.Now()

	tabs := make([]string, 0, len(m.views))
	for i, v := range m.views {
		label := v.Name
		if v.Pinned {
			label = m.styles.PinnedMark.Render(display.GetPinnedIcon(true)) + " " + label
		}
		if i < 9 {
			label = fmt.Sprintf("%d:%s", i+1, label)
		}
		count := display.FormatCount(v.CountStatusAt(now, m.countTTL))
		label += " " + m.styles.Muted.Render(count)

		if active != nil && v.ID == active.ID {
			if m.dirty {
				label += " " + m.styles.DirtyBadge.Render("●")
			}
			tabs = append(tabs, m.styles.TabActive.Render(label))
			continue
		}
		tabs = append(tabs, m.styles.TabInactive.Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderTableView() string {
	if len(m.records) == 0 {
		if m.loading {
			return m.styles.Info.Render("Loading...")
		}
		return m.styles.Info.Render("No records match this view.")
	}
	return m.table.View()
}

func (m Model) renderBoardView() string {
	if len(m.lanes) == 0 {
		return m.styles.Info.Render("No records match this view.")
	}

	laneWidth := max(18, (m.width-2)/max(1, len(m.lanes))-2)
	cardLimit := max(1, m.height-14)
	primary := m.module.PrimaryColumnID()

	columns := make([]string, 0, len(m.lanes))
	for i, lane := range m.lanes {
		lines := []string{
			m.styles.LaneHeader(i).Render(fmt.Sprintf("%s (%d)", display.Truncate(lane.title, laneWidth-5), len(lane.records))),
		}
		for j, rec := range lane.records {
			if j >= cardLimit {
				lines = append(lines, m.styles.Muted.Render(fmt.Sprintf("+%d more", len(lane.records)-j)))
				break
			}
			mark := "  "
			if m.isSelected(rec.ID()) {
				mark = "☑ "
			}
			text := mark + display.Truncate(fmt.Sprint(rec[primary]), laneWidth-4)
			if i == m.laneCursor && j == m.cardCursor {
				text = m.styles.CardSelected.Render(text)
			}
			lines = append(lines, text)
		}
		columns = append(columns, m.styles.LaneContainer.Width(laneWidth).Render(strings.Join(lines, "\n")))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, columns...)
}

func (m Model) renderDetailView() string {
	if m.selectedRecord == nil {
		return m.styles.Info.Render("No record selected.")
	}

	content := []string{m.renderDetailRow("ID:", m.selectedRecord.ID())}
	for _, c := range m.module.Columns {
		value := display.FormatValue(c.PropertyDescriptor, m.selectedRecord[c.ID])
		content = append(content, m.renderDetailRow(c.Label()+":", value))
	}
	return m.styles.DetailContainer.Render(strings.Join(content, "\n"))
}

func (m Model) renderDetailRow(label, value string) string {
	return m.styles.DetailLabel.Render(label) + " " + m.styles.DetailValue.Render(value)
}

func (m Model) renderInputLine() string {
	switch m.uiMode {
	case searchingMode:
		return m.styles.Info.Render("Search: ") + m.searchInput.View()
	case filteringMode:
		return m.styles.Info.Render("Filter: ") + m.filterInput.View()
	case namingMode:
		return m.styles.Info.Render("Save as: ") + m.nameInput.View()
	}
	return ""
}

func (m Model) renderBulkPicker() string {
	lines := []string{m.styles.Subtitle.Render(fmt.Sprintf("Run on %d selected:", len(m.state.SelectedRowIDs)))}
	for i, id := range m.module.BulkActionIDs {
		if i == m.bulkCursor {
			lines = append(lines, m.styles.CardSelected.Render("> "+id))
			continue
		}
		lines = append(lines, "  "+id)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderConfirmDialog() string {
	return m.styles.Warning.Render(m.confirm.message)
}

func (m Model) renderMessages() string {
	var b strings.Builder
	if m.notice != nil {
		b.WriteString(m.styles.Notice(string(m.notice.Level)).Render(m.notice.Message))
		b.WriteString("\n")
	}
	if m.message != "" {
		b.WriteString(m.styles.Success.Render(m.message))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(m.styles.Error.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderStatusBar() string {
	var items []string

	if text := m.ctl.FilterText(); text != "" {
		items = append(items, "filter: "+display.Truncate(text, 40))
	}
	if m.state.SearchQuery != "" {
		items = append(items, fmt.Sprintf("search: %q", m.state.SearchQuery))
	}
	if m.state.SortState.IsSet() {
		items = append(items, fmt.Sprintf("sort: %s %s", m.state.SortState.ColumnID, m.state.SortState.Direction))
	}
	if m.isBoard() {
		items = append(items, "board: "+m.state.BoardGroupByPropertyID)
	}
	if n := len(m.state.QuickFilters); n > 0 {
		items = append(items, fmt.Sprintf("%d quick filter(s)", n))
	}
	items = append(items, fmt.Sprintf("page %d/%d (%d per page)", m.state.Page, m.totalPages(), m.state.PageSize))
	items = append(items, fmt.Sprintf("%d records", m.total))
	if n := len(m.state.SelectedRowIDs); n > 0 {
		items = append(items, m.styles.Success.Render(fmt.Sprintf("✓ %d selected", n)))
	}
	if m.dirty {
		items = append(items, m.styles.DirtyBadge.Render("unsaved changes"))
	}

	return m.styles.TUISubtitle.Render(strings.Join(items, "  •  "))
}
