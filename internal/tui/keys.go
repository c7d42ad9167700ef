package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up    key.Binding
	Down  key.Binding
	Left  key.Binding
	Right key.Binding
	Enter key.Binding
	Back  key.Binding

	Filter       key.Binding
	ClearFilters key.Binding
	Search       key.Binding

	SortColumn key.Binding
	SortOrder  key.Binding

	NextPage key.Binding
	PrevPage key.Binding
	PageSize key.Binding

	Columns      key.Binding
	QuickFilters key.Binding
	MoveUp       key.Binding
	MoveDown     key.Binding
	FreezeMore   key.Binding
	FreezeLess   key.Binding

	ToggleBoard  key.Binding
	CycleGroupBy key.Binding
	DropLeft     key.Binding
	DropRight    key.Binding

	ToggleSelection key.Binding
	SelectAll       key.Binding
	DeselectAll     key.Binding
	BulkAction      key.Binding

	NextView      key.Binding
	PrevView      key.Binding
	MoveViewLeft  key.Binding
	MoveViewRight key.Binding
	SaveView      key.Binding
	SaveViewAs    key.Binding
	CloneView     key.Binding
	DeleteView    key.Binding
	Discard       key.Binding
	RefreshCount  key.Binding
	QuickAccess   key.Binding

	Quit key.Binding
	Help key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "move down"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "previous lane"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next lane"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open record"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),

		Filter: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "edit filters"),
		),
		ClearFilters: key.NewBinding(
			key.WithKeys("F"),
			key.WithHelp("F", "clear filters"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),

		SortColumn: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "cycle sort column"),
		),
		SortOrder: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "toggle sort order"),
		),

		NextPage: key.NewBinding(
			key.WithKeys("]", "pgdown"),
			key.WithHelp("]", "next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("[", "pgup"),
			key.WithHelp("[", "previous page"),
		),

		PageSize: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "page size"),
		),

		Columns: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "columns"),
		),
		QuickFilters: key.NewBinding(
			key.WithKeys("Q"),
			key.WithHelp("Q", "quick filters"),
		),
		MoveUp: key.NewBinding(
			key.WithKeys("K", "shift+up"),
			key.WithHelp("K", "move column up"),
		),
		MoveDown: key.NewBinding(
			key.WithKeys("J", "shift+down"),
			key.WithHelp("J", "move column down"),
		),
		FreezeMore: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "freeze more"),
		),
		FreezeLess: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "freeze fewer"),
		),

		ToggleBoard: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "table/board"),
		),
		CycleGroupBy: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "cycle board grouping"),
		),
		DropLeft: key.NewBinding(
			key.WithKeys("H", "shift+left"),
			key.WithHelp("H", "move card left"),
		),
		DropRight: key.NewBinding(
			key.WithKeys("L", "shift+right"),
			key.WithHelp("L", "move card right"),
		),

		ToggleSelection: key.NewBinding(
			key.WithKeys(" ", "space"),
			key.WithHelp("space", "select row"),
		),
		SelectAll: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "select page"),
		),
		DeselectAll: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "clear selection"),
		),
		BulkAction: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "bulk action"),
		),

		NextView: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next view"),
		),
		PrevView: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "previous view"),
		),
		MoveViewLeft: key.NewBinding(
			key.WithKeys("<"),
			key.WithHelp("<", "move tab left"),
		),
		MoveViewRight: key.NewBinding(
			key.WithKeys(">"),
			key.WithHelp(">", "move tab right"),
		),
		SaveView: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save view"),
		),
		SaveViewAs: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "save as new view"),
		),
		CloneView: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clone view"),
		),
		DeleteView: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete view"),
		),
		Discard: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "discard changes"),
		),
		RefreshCount: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh count"),
		),
		QuickAccess: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("1-9", "jump to view"),
		),

		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
	}
}

// ShortHelp returns the bindings shown in the footer.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.Filter, k.ToggleBoard, k.NextView, k.SaveView, k.Help, k.Quit}
}

// FullHelp returns the bindings shown by the help overlay.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right, k.Enter, k.Back, k.NextPage, k.PrevPage, k.PageSize},
		{k.Search, k.Filter, k.ClearFilters, k.QuickFilters, k.Columns, k.SortColumn, k.SortOrder, k.ToggleBoard, k.CycleGroupBy, k.DropLeft, k.DropRight},
		{k.ToggleSelection, k.SelectAll, k.DeselectAll, k.BulkAction},
		{k.NextView, k.PrevView, k.QuickAccess, k.MoveViewLeft, k.MoveViewRight, k.SaveView, k.SaveViewAs, k.CloneView, k.DeleteView, k.Discard, k.RefreshCount},
		{k.Help, k.Quit},
	}
}
