package display

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"viewengine/internal/domain"
)

func TestFormatValue(t *testing.T) {
	date := domain.PropertyDescriptor{ID: "due", Type: domain.PropertyDate}
	num := domain.PropertyDescriptor{ID: "points", Type: domain.PropertyNumber}
	flag := domain.PropertyDescriptor{ID: "done", Type: domain.PropertyBoolean}
	text := domain.PropertyDescriptor{ID: "title", Type: domain.PropertyText}
	people := domain.PropertyDescriptor{ID: "assignee", Type: domain.PropertyPerson}

	tests := []struct {
		name string
		prop domain.PropertyDescriptor
		raw  any
		want string
	}{
		{"nil", text, nil, "-"},
		{"blank text", text, "  ", "-"},
		{"text", text, "Fix login", "Fix login"},
		{"date string", date, "2026-03-05T10:00:00Z", "2026-03-05"},
		{"time value", date, time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), "2026-03-05"},
		{"float number", num, 2.5, "2.5"},
		{"integral float", num, float64(3), "3"},
		{"true", flag, true, "✓"},
		{"false", flag, false, "✗"},
		{"list", people, []any{"alice", "bob"}, "alice, bob"},
		{"empty list", people, []string{}, "-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatValue(tt.prop, tt.raw))
		})
	}
}

func TestFormatCount(t *testing.T) {
	n := 42
	assert.Equal(t, "?", FormatCount(domain.CountStatus{}))
	assert.Equal(t, "42", FormatCount(domain.CountStatus{Count: &n}))
	assert.Equal(t, "42~", FormatCount(domain.CountStatus{Count: &n, Stale: true}))
}

func TestFormatRelative(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time {
		t := now.Add(-d)
		return &t
	}

	assert.Equal(t, "never", FormatRelative(nil, now))
	assert.Equal(t, "just now", FormatRelative(at(10*time.Second), now))
	assert.Equal(t, "5m ago", FormatRelative(at(5*time.Minute), now))
	assert.Equal(t, "3h ago", FormatRelative(at(3*time.Hour), now))
	assert.Equal(t, "yesterday", FormatRelative(at(30*time.Hour), now))
	assert.Equal(t, "4d ago", FormatRelative(at(4*24*time.Hour), now))
	assert.Equal(t, "2026-02-01", FormatRelative(at(37*24*time.Hour), now))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "long…", Truncate("long text", 5))
	assert.Equal(t, "…", Truncate("abc", 1))
}
