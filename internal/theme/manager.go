package theme

import (
	"errors"
	"fmt"
)

var ErrThemeNotFound = errors.New("theme not found")

var predefined = GetPredefinedThemes()

// GetTheme looks a predefined theme up by name.
func GetTheme(name string) (*Theme, error) {
	t, ok := predefined[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrThemeNotFound, name)
	}
	return t, nil
}

// ListThemes returns theme names in display order.
func ListThemes() []string {
	return GetThemeNames()
}

func ThemeExists(name string) bool {
	_, ok := predefined[name]
	return ok
}

func GetDefaultTheme() *Theme {
	return DefaultTheme()
}

// Current resolves a configured theme name to the name actually in use and
// its theme. Empty or unknown names resolve to "default".
func Current(configured string) (string, *Theme) {
	if t, err := GetTheme(configured); err == nil {
		return configured, t
	}
	return "default", GetDefaultTheme()
}

// Resolve returns the styles of a configured theme name.
func Resolve(name string) *Styles {
	_, t := Current(name)
	return NewStyles(t)
}
