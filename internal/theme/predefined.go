package theme

func GetPredefinedThemes() map[string]*Theme {
	return map[string]*Theme{
		"default": DefaultTheme(),
		"dark":    DarkTheme(),
		"light":   LightTheme(),
		"dracula": DraculaTheme(),
		"nord":    NordTheme(),
		"gruvbox": GruvboxTheme(),
	}
}

func GetThemeNames() []string {
	return []string{
		"default",
		"dark",
		"light",
		"dracula",
		"nord",
		"gruvbox",
	}
}

func DefaultTheme() *Theme {
	return &Theme{
		Name: "default",

		Primary:   "#7D56F4",
		Secondary: "#8aa4eb",
		Success:   "#04B575",
		Error:     "#FF0000",
		Warning:   "#FF8800",
		Info:      "#0088FF",

		TextPrimary:   "#FAFAFA",
		TextSecondary: "#888888",
		TextMuted:     "#6C6C6C",

		Pinned: "#FFD700",
		Dirty:  "#FF8800",
		Stale:  "#6C6C6C",
		Lanes:  []string{"#0088FF", "#04B575", "#FF8800", "#FF5F87", "#8aa4eb"},

		BorderColor:  "#7D56F4",
		SelectedBg:   "#7D56F4",
		SelectedFg:   "#FAFAFA",
		HeaderBg:     "#7D56F4",
		HeaderFg:     "#FAFAFA",
		TabActiveBg:  "#7D56F4",
		TabActiveFg:  "#FAFAFA",
		Separator:    "#444444",
		HelpText:     "#888888",
		SubtitleText: "#6C6C6C",
	}
}

func DarkTheme() *Theme {
	return &Theme{
		Name: "dark",

		Primary:   "#5FAFFF",
		Secondary: "#87D7FF",
		Success:   "#5FD787",
		Error:     "#FF5F5F",
		Warning:   "#FFAF5F",
		Info:      "#5FAFFF",

		TextPrimary:   "#E4E4E4",
		TextSecondary: "#9E9E9E",
		TextMuted:     "#626262",

		Pinned: "#FFD75F",
		Dirty:  "#FFAF5F",
		Stale:  "#626262",
		Lanes:  []string{"#5FAFFF", "#5FD787", "#FFAF5F", "#D787D7", "#87D7FF"},

		BorderColor:  "#3A3A3A",
		SelectedBg:   "#303030",
		SelectedFg:   "#5FAFFF",
		HeaderBg:     "#262626",
		HeaderFg:     "#E4E4E4",
		TabActiveBg:  "#5FAFFF",
		TabActiveFg:  "#121212",
		Separator:    "#3A3A3A",
		HelpText:     "#767676",
		SubtitleText: "#9E9E9E",
	}
}

func LightTheme() *Theme {
	return &Theme{
		Name: "light",

		Primary:   "#005FAF",
		Secondary: "#5F5FAF",
		Success:   "#008700",
		Error:     "#D70000",
		Warning:   "#AF5F00",
		Info:      "#0087AF",

		TextPrimary:   "#1C1C1C",
		TextSecondary: "#585858",
		TextMuted:     "#8A8A8A",

		Pinned: "#AF8700",
		Dirty:  "#AF5F00",
		Stale:  "#8A8A8A",
		Lanes:  []string{"#005FAF", "#008700", "#AF5F00", "#AF005F", "#5F5FAF"},

		BorderColor:  "#BCBCBC",
		SelectedBg:   "#D7E7FF",
		SelectedFg:   "#1C1C1C",
		HeaderBg:     "#E4E4E4",
		HeaderFg:     "#1C1C1C",
		TabActiveBg:  "#005FAF",
		TabActiveFg:  "#FFFFFF",
		Separator:    "#D0D0D0",
		HelpText:     "#8A8A8A",
		SubtitleText: "#585858",
	}
}

func DraculaTheme() *Theme {
	return &Theme{
		Name: "dracula",

		Primary:   "#BD93F9",
		Secondary: "#8BE9FD",
		Success:   "#50FA7B",
		Error:     "#FF5555",
		Warning:   "#FFB86C",
		Info:      "#8BE9FD",

		TextPrimary:   "#F8F8F2",
		TextSecondary: "#BFBFBF",
		TextMuted:     "#6272A4",

		Pinned: "#F1FA8C",
		Dirty:  "#FFB86C",
		Stale:  "#6272A4",
		Lanes:  []string{"#8BE9FD", "#50FA7B", "#FFB86C", "#FF79C6", "#BD93F9"},

		BorderColor:  "#44475A",
		SelectedBg:   "#44475A",
		SelectedFg:   "#F8F8F2",
		HeaderBg:     "#282A36",
		HeaderFg:     "#BD93F9",
		TabActiveBg:  "#BD93F9",
		TabActiveFg:  "#282A36",
		Separator:    "#44475A",
		HelpText:     "#6272A4",
		SubtitleText: "#BFBFBF",
	}
}

func NordTheme() *Theme {
	return &Theme{
		Name: "nord",

		Primary:   "#88C0D0",
		Secondary: "#81A1C1",
		Success:   "#A3BE8C",
		Error:     "#BF616A",
		Warning:   "#D08770",
		Info:      "#5E81AC",

		TextPrimary:   "#ECEFF4",
		TextSecondary: "#D8DEE9",
		TextMuted:     "#4C566A",

		Pinned: "#EBCB8B",
		Dirty:  "#D08770",
		Stale:  "#4C566A",
		Lanes:  []string{"#88C0D0", "#A3BE8C", "#D08770", "#B48EAD", "#81A1C1"},

		BorderColor:  "#4C566A",
		SelectedBg:   "#434C5E",
		SelectedFg:   "#ECEFF4",
		HeaderBg:     "#3B4252",
		HeaderFg:     "#88C0D0",
		TabActiveBg:  "#88C0D0",
		TabActiveFg:  "#2E3440",
		Separator:    "#434C5E",
		HelpText:     "#4C566A",
		SubtitleText: "#D8DEE9",
	}
}

func GruvboxTheme() *Theme {
	return &Theme{
		Name: "gruvbox",

		Primary:   "#FE8019",
		Secondary: "#83A598",
		Success:   "#B8BB26",
		Error:     "#FB4934",
		Warning:   "#FABD2F",
		Info:      "#83A598",

		TextPrimary:   "#EBDBB2",
		TextSecondary: "#D5C4A1",
		TextMuted:     "#928374",

		Pinned: "#FABD2F",
		Dirty:  "#FE8019",
		Stale:  "#928374",
		Lanes:  []string{"#83A598", "#B8BB26", "#FE8019", "#D3869B", "#8EC07C"},

		BorderColor:  "#504945",
		SelectedBg:   "#504945",
		SelectedFg:   "#FBF1C7",
		HeaderBg:     "#3C3836",
		HeaderFg:     "#FE8019",
		TabActiveBg:  "#FE8019",
		TabActiveFg:  "#282828",
		Separator:    "#504945",
		HelpText:     "#928374",
		SubtitleText: "#D5C4A1",
	}
}
