// Package display formats record values and view metadata for terminal output.
package display

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"viewengine/internal/domain"
)

const empty = "-"

func GetPinnedIcon(pinned bool) string {
	if pinned {
		return "📌"
	}
	return " "
}

func GetVisibilityIcon(v domain.Visibility) string {
	switch v {
	case domain.VisibilityPrivate:
		return "🔒"
	case domain.VisibilityTeam:
		return "👥"
	case domain.VisibilityEveryone:
		return "🌐"
	default:
		return "?"
	}
}

// FormatValue renders a raw record field according to its property type.
func FormatValue(prop domain.PropertyDescriptor, raw any) string {
	if raw == nil {
		return empty
	}

	switch prop.Type {
	case domain.PropertyDate:
		if t, ok := asTime(raw); ok {
			return t.Format("2006-01-02")
		}
	case domain.PropertyBoolean:
		if b, ok := raw.(bool); ok {
			if b {
				return "✓"
			}
			return "✗"
		}
	case domain.PropertyNumber:
		switch v := raw.(type) {
		case float64:
			return decimal.NewFromFloat(v).String()
		case decimal.Decimal:
			return v.String()
		}
	}

	switch v := raw.(type) {
	case []string:
		if len(v) == 0 {
			return empty
		}
		return strings.Join(v, ", ")
	case []any:
		if len(v) == 0 {
			return empty
		}
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = fmt.Sprint(item)
		}
		return strings.Join(parts, ", ")
	case string:
		if strings.TrimSpace(v) == "" {
			return empty
		}
		return v
	}
	return fmt.Sprint(raw)
}

func asTime(raw any) (time.Time, bool) {
	switch v := raw.(type) {
	case time.Time:
		return v, true
	case *time.Time:
		if v != nil {
			return *v, true
		}
	case string:
		if t, err := domain.ParseStoredDate(v); err == nil {
			return t, true
		}
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatCount renders a cached record count: "?" when never counted, with a
// trailing "~" when the count is stale.
func FormatCount(status domain.CountStatus) string {
	if status.Count == nil {
		return "?"
	}
	s := fmt.Sprintf("%d", *status.Count)
	if status.Stale {
		s += "~"
	}
	return s
}

// FormatRelative renders how long ago t was, relative to now.
func FormatRelative(t *time.Time, now time.Time) string {
	if t == nil {
		return "never"
	}

	diff := now.Sub(*t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "yesterday"
		}
		return fmt.Sprintf("%dd ago", days)
	}
	return t.Format("2006-01-02")
}

// Truncate shortens s to width runes, marking the cut with an ellipsis.
func Truncate(s string, width int) string {
	r := []rune(s)
	if width <= 0 || len(r) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}
