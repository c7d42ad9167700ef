package theme

type Theme struct {
	Name string

	// semantic
	Primary   string
	Secondary string
	Success   string
	Error     string
	Warning   string
	Info      string

	// text
	TextPrimary   string
	TextSecondary string
	TextMuted     string

	// view state badges
	Pinned string
	Dirty  string
	Stale  string

	// board lanes, cycled by lane index
	Lanes []string

	// UI element
	BorderColor  string
	SelectedBg   string
	SelectedFg   string
	HeaderBg     string
	HeaderFg     string
	TabActiveBg  string
	TabActiveFg  string
	Separator    string
	HelpText     string
	SubtitleText string
}

// LaneColor returns the color of the i-th board lane.
func (t *Theme) LaneColor(i int) string {
	if len(t.Lanes) == 0 {
		return t.Primary
	}
	return t.Lanes[i%len(t.Lanes)]
}
